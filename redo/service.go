// MIT License
//
// Copyright (c) 2022-2026 GoAkt Team
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package redo

import (
	"context"
	"fmt"
	"sync"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/atomic"
	"go.uber.org/multierr"

	gerrors "github.com/tochemey/distro/errors"
	"github.com/tochemey/distro/internal/errorschain"
	imetric "github.com/tochemey/distro/internal/metric"
	"github.com/tochemey/distro/internal/ticker"
	"github.com/tochemey/distro/internal/types"
	"github.com/tochemey/distro/internal/validation"
	"github.com/tochemey/distro/log"
)

// Service keeps what the application asked the server for, and replays it until the
// server agrees. The connection to the server may be replaced at any time: on disconnect
// every confirmed entry falls back to unconfirmed so the next connection gets it again.
type Service struct {
	mu            sync.Mutex
	data          map[DataType]map[string]*Data
	executor      Executor
	connected     *atomic.Bool
	interval      time.Duration
	initialDelay  time.Duration
	logger        log.Logger
	meterProvider metric.MeterProvider
	metric        *imetric.DistroMetric
	ticker        *ticker.Ticker
	started       *atomic.Bool
	stopCh        chan types.Unit
	wg            sync.WaitGroup
}

// NewService creates a Service replaying requests through executor
func NewService(executor Executor, opts ...Option) *Service {
	service := &Service{
		data: map[DataType]map[string]*Data{
			Instance:   make(map[string]*Data),
			Subscriber: make(map[string]*Data),
		},
		executor:      executor,
		connected:     atomic.NewBool(false),
		interval:      DefaultInterval,
		initialDelay:  DefaultInitialDelay,
		logger:        log.DefaultLogger,
		meterProvider: otel.GetMeterProvider(),
		started:       atomic.NewBool(false),
	}

	for _, opt := range opts {
		opt.Apply(service)
	}

	instruments, err := imetric.NewDistroMetric(imetric.NewProviderFrom(service.meterProvider).Meter())
	if err != nil {
		service.logger.Warnf("failed to create metric instruments, metrics are disabled: %v", err)
		instruments, _ = imetric.NewDistroMetric(noop.Meter{})
	}
	service.metric = instruments
	return service
}

// Start starts the redo loop after the initial delay
func (s *Service) Start(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started.Load() {
		return gerrors.ErrAlreadyStarted
	}

	if err := validation.New(validation.FailFast()).
		AddAssertion(s.executor != nil, "executor is required").
		AddValidator(validation.NewPositiveDurationValidator("redo interval", s.interval)).
		AddAssertion(s.initialDelay >= 0, "redo initial delay must not be negative").
		Validate(); err != nil {
		return gerrors.NewErrInvalidConfig(err)
	}

	s.stopCh = make(chan types.Unit)
	s.ticker = ticker.New(s.interval, ticker.WithInitialDelay(s.initialDelay))
	s.ticker.Start()
	s.wg.Add(1)
	go s.loop()

	s.started.Store(true)
	return nil
}

// Shutdown stops the redo loop and forgets every entry
func (s *Service) Shutdown(context.Context) error {
	if !s.started.CompareAndSwap(true, false) {
		return nil
	}

	close(s.stopCh)
	s.wg.Wait()
	s.ticker.Stop()

	s.mu.Lock()
	for dataType := range s.data {
		s.data[dataType] = make(map[string]*Data)
	}
	s.mu.Unlock()

	s.logger.Info("redo service shut down")
	return nil
}

// OnConnected marks the connection as up
func (s *Service) OnConnected() {
	s.connected.Store(true)
	s.logger.Info("connection established")
}

// OnDisConnect marks the connection as down and every entry as unconfirmed
func (s *Service) OnDisConnect() {
	s.connected.Store(false)
	s.logger.Warn("connection lost, mark every entry for redo")

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, entries := range s.data {
		for _, data := range entries {
			data.registered = false
		}
	}
}

// IsConnected reports whether the connection is up
func (s *Service) IsConnected() bool {
	return s.connected.Load()
}

// CacheRedoData tracks the desired state of a request, replacing any previous one under key
func (s *Service) CacheRedoData(dataType DataType, key string, payload []byte) {
	s.mu.Lock()
	s.data[dataType][key] = newData(dataType, key, payload)
	s.mu.Unlock()
}

// DataRegistered marks the registration of key as confirmed by the server
func (s *Service) DataRegistered(dataType DataType, key string) {
	s.update(dataType, key, func(data *Data) {
		data.registered = true
		data.unregistering = false
	})
}

// DataDeregister marks a deregistration of key as in flight
func (s *Service) DataDeregister(dataType DataType, key string) {
	s.update(dataType, key, func(data *Data) {
		data.unregistering = true
		data.expectedRegistered = false
	})
}

// DataDeregistered marks the deregistration of key as confirmed by the server
func (s *Service) DataDeregistered(dataType DataType, key string) {
	s.update(dataType, key, func(data *Data) {
		data.registered = false
		data.unregistering = true
	})
}

// RemoveRedoData forgets key unless the application still expects it registered
func (s *Service) RemoveRedoData(dataType DataType, key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.data[dataType][key]
	if !ok || data.expectedRegistered {
		return false
	}
	delete(s.data[dataType], key)
	return true
}

// FindRedoData returns a copy of the entries of dataType that must be replayed
func (s *Service) FindRedoData(dataType DataType) mapset.Set[*Data] {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := mapset.NewThreadUnsafeSet[*Data]()
	for _, data := range s.data[dataType] {
		if data.NeedRedo() {
			result.Add(data.clone())
		}
	}
	return result
}

// Get returns a copy of the entry of key
func (s *Service) Get(dataType DataType, key string) (*Data, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.data[dataType][key]
	if !ok {
		return nil, false
	}
	return data.clone(), true
}

// Register registers an instance and tracks it for redo.
// The registration is kept even when the request fails and replayed later.
func (s *Service) Register(ctx context.Context, key string, payload []byte) error {
	s.CacheRedoData(Instance, key, payload)
	return s.send(ctx, Instance, key, Register)
}

// Deregister deregisters an instance
func (s *Service) Deregister(ctx context.Context, key string) error {
	s.DataDeregister(Instance, key)
	return s.send(ctx, Instance, key, Unregister)
}

// Subscribe subscribes to a service and tracks the subscription for redo
func (s *Service) Subscribe(ctx context.Context, key string) error {
	s.CacheRedoData(Subscriber, key, nil)
	return s.send(ctx, Subscriber, key, Register)
}

// Unsubscribe cancels a subscription
func (s *Service) Unsubscribe(ctx context.Context, key string) error {
	s.DataDeregister(Subscriber, key)
	return s.send(ctx, Subscriber, key, Unregister)
}

func (s *Service) send(ctx context.Context, dataType DataType, key string, redoType Type) error {
	if !s.IsConnected() {
		return fmt.Errorf("%s %s of %s deferred: %w", dataType, redoType, key, gerrors.ErrDisconnected)
	}

	data, ok := s.Get(dataType, key)
	if !ok {
		return nil
	}
	return s.apply(ctx, data, redoType)
}

// apply sends one request and records the confirmation
func (s *Service) apply(ctx context.Context, data *Data, redoType Type) error {
	switch redoType {
	case Register:
		call := s.executor.Register
		if data.Type == Subscriber {
			call = s.executor.Subscribe
		}
		if err := call(ctx, data); err != nil {
			return fmt.Errorf("failed to register %s %s: %w", data.Type, data.Key, err)
		}
		s.DataRegistered(data.Type, data.Key)
	case Unregister:
		call := s.executor.Deregister
		if data.Type == Subscriber {
			call = s.executor.Unsubscribe
		}
		if err := call(ctx, data); err != nil {
			return fmt.Errorf("failed to deregister %s %s: %w", data.Type, data.Key, err)
		}
		s.DataDeregistered(data.Type, data.Key)
		// kept when registered again meanwhile
		s.RemoveRedoData(data.Type, data.Key)
	case Remove:
		s.RemoveRedoData(data.Type, data.Key)
	}
	return nil
}

func (s *Service) update(dataType DataType, key string, fn func(data *Data)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if data, ok := s.data[dataType][key]; ok {
		fn(data)
	}
}

func (s *Service) loop() {
	defer s.wg.Done()
	for {
		select {
		case <-s.stopCh:
			return
		case <-s.ticker.Ticks:
			s.redo()
		}
	}
}

// redo replays every entry the server does not agree with.
// A failed entry does not stop the round, it is retried on the next tick.
func (s *Service) redo() {
	if !s.IsConnected() {
		s.logger.Debug("connection is down, skip redo")
		return
	}

	ctx := context.Background()
	chain := errorschain.New(errorschain.ReturnAll())
	for _, dataType := range []DataType{Instance, Subscriber} {
		for data := range s.FindRedoData(dataType).Iter() {
			if !s.IsConnected() {
				return
			}

			redoType := data.RedoType()
			s.logger.Infof("redo %s %s of %s", redoType, dataType, data.Key)
			err := s.apply(ctx, data, redoType)
			chain.AddError(err)
			if err == nil && redoType != Remove {
				s.metric.RecordReplay(ctx, dataType.String()+"_"+redoType.String())
			}
		}
	}

	for _, err := range multierr.Errors(chain.Error()) {
		s.logger.Warnf("redo failed, retrying on next tick: %v", err)
	}
}
