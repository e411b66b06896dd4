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

package distro

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

	"github.com/tochemey/distro/cluster"
	gerrors "github.com/tochemey/distro/errors"
	"github.com/tochemey/distro/hash"
	imetric "github.com/tochemey/distro/internal/metric"
	"github.com/tochemey/distro/internal/ticker"
	"github.com/tochemey/distro/log"
)

// Protocol is the replication engine of the ephemeral data.
//
// Local changes are pushed by the responsible owner of a key to every other Up member.
// A member that is not the owner forwards its local changes to the owner, which applies
// them and pushes them to the rest of the cluster. A periodic verification exchanges
// digests between members and repairs what the pushes missed.
type Protocol struct {
	config        *Config
	holder        *ComponentHolder
	view          cluster.View
	transport     TransportAgent
	hasher        hash.Hasher
	mapper        *Mapper
	logger        log.Logger
	meterProvider metric.MeterProvider
	metric        *imetric.DistroMetric
	engine        *taskEngine
	verifyTicker  *ticker.Ticker
	verifying     mapset.Set[string]
	started       *atomic.Bool
	ctx           context.Context
	cancel        context.CancelFunc
	wg            sync.WaitGroup
	mu            sync.Mutex
}

var _ Handler = (*Protocol)(nil)

// NewProtocol creates a Protocol
func NewProtocol(holder *ComponentHolder, view cluster.View, transport TransportAgent, opts ...Option) *Protocol {
	protocol := &Protocol{
		config:        NewConfig(),
		holder:        holder,
		view:          view,
		transport:     transport,
		hasher:        hash.DefaultHasher(),
		logger:        log.DefaultLogger,
		meterProvider: otel.GetMeterProvider(),
		verifying:     mapset.NewSet[string](),
		started:       atomic.NewBool(false),
	}

	for _, opt := range opts {
		opt.Apply(protocol)
	}

	protocol.mapper = NewMapper(view, protocol.hasher)
	instruments, err := imetric.NewDistroMetric(imetric.NewProviderFrom(protocol.meterProvider).Meter())
	if err != nil {
		protocol.logger.Warnf("failed to create metric instruments, metrics are disabled: %v", err)
		instruments, _ = imetric.NewDistroMetric(noop.Meter{})
	}
	protocol.metric = instruments
	return protocol
}

// Start validates the configuration, starts the push workers and the verify loop,
// and loads the data of every business type from the cluster in the background.
func (p *Protocol) Start(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started.Load() {
		return gerrors.ErrAlreadyStarted
	}

	if err := p.config.Validate(); err != nil {
		return err
	}

	p.ctx, p.cancel = context.WithCancel(context.Background())
	p.engine = newTaskEngine(p.config.workers, p.config.taskScanInterval, p.hasher, p.execute)
	p.verifyTicker = ticker.New(p.config.verifyInterval, ticker.WithJitter(0.1))

	p.engine.start()
	p.verifyTicker.Start()

	p.wg.Add(2)
	go p.verifyLoop()
	go p.load()

	p.started.Store(true)
	p.logger.Infof("%s distro protocol started for %v", p.view.Self(), p.holder.BusinessTypes())
	return nil
}

// Stop stops the verify loop, the initial load and the push workers
func (p *Protocol) Stop(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started.Load() {
		return nil
	}
	p.started.Store(false)

	p.cancel()
	p.verifyTicker.Stop()
	p.wg.Wait()
	p.engine.stop()

	p.logger.Infof("%s distro protocol stopped", p.view.Self())
	return nil
}

// IsInitialized reports whether every business type finished its initial load
func (p *Protocol) IsInitialized() bool {
	return p.holder.IsInitialized()
}

// Mapper returns the ownership partitioner
func (p *Protocol) Mapper() *Mapper {
	return p.mapper
}

// Sync schedules the replication of a local change of key.
// It never blocks on the network.
func (p *Protocol) Sync(key Key, op DataOperation) {
	if !p.started.Load() {
		p.logger.Warnf("distro protocol not started, skip sync of %s", key)
		return
	}

	owner := p.mapper.Owner(key)
	if owner != p.view.Self() {
		p.engine.add(newSyncTask(key, op, owner), p.config.syncDelay)
		return
	}
	p.fanOut(key, op, "")
}

// pending returns the number of push tasks waiting for their delay
func (p *Protocol) pending() int {
	if p.engine == nil {
		return 0
	}
	return p.engine.pending()
}

// fanOut schedules a push of key to every other Up member except exclude
func (p *Protocol) fanOut(key Key, op DataOperation, exclude string) {
	for _, peer := range cluster.UpPeers(p.view) {
		if peer.Name == exclude {
			continue
		}
		p.engine.add(newSyncTask(key, op, peer.Name), p.config.syncDelay)
	}
}

// execute runs one push task on a worker
func (p *Protocol) execute(task *syncTask) {
	if _, ok := cluster.Lookup(p.view, task.target); !ok {
		p.logger.Debugf("drop sync of %s: member=%s is gone", task.key, task.target)
		p.engine.finish(task)
		return
	}

	component, err := p.holder.Get(task.key.BusinessType)
	if err != nil {
		p.logger.Warnf("drop sync of %s: %v", task.key, err)
		p.engine.finish(task)
		return
	}

	datum := Datum{Key: task.key}
	if task.op != Delete {
		current, ok := component.Storage.Get(task.key)
		if !ok {
			// removed after the task was scheduled, the removal has its own task
			p.logger.Debugf("skip sync of %s: datum is gone", task.key)
			p.engine.finish(task)
			return
		}
		datum = current
	}

	task.state = Sending
	startTime := time.Now()
	if p.transport.SupportCallbackTransport() {
		p.transport.SyncDataWithCallback(p.ctx, task.op, datum, task.target, &syncCallback{
			protocol:  p,
			task:      task,
			startTime: startTime,
		})
		return
	}

	ctx, cancel := context.WithTimeout(p.ctx, p.config.requestTimeout)
	defer cancel()
	p.complete(task, startTime, p.transport.SyncData(ctx, task.op, datum, task.target))
}

// complete records the outcome of a push and hands failures to the retry path
func (p *Protocol) complete(task *syncTask, startTime time.Time, err error) {
	p.metric.RecordSync(context.Background(), task.key.BusinessType, task.target, time.Since(startTime), err == nil)
	if err == nil {
		task.state = Acked
		p.engine.finish(task)
		return
	}

	task.state = Failed
	p.retry(task, err)
	p.engine.finish(task)
}

// pushing reports whether a push of key to target is waiting or running
func (p *Protocol) pushing(key Key, target string) bool {
	p.mu.Lock()
	engine := p.engine
	p.mu.Unlock()
	return engine != nil && engine.has(key, target)
}

// retry re-schedules a failed task with backoff unless its target is down or gone
func (p *Protocol) retry(task *syncTask, cause error) {
	if !p.started.Load() {
		return
	}

	member, ok := cluster.Lookup(p.view, task.target)
	if !ok || member.State == cluster.Down {
		p.logger.Infof("drop failed sync of %s to %s: member is down or gone", task.key, task.target)
		return
	}

	delay := task.nextRetryDelay(p.config.retryInitialDelay, p.config.retryMaxDelay)
	p.logger.Warnf("sync of %s to %s failed (attempt=%d), retrying in %s: %v", task.key, task.target, task.attempts, delay, cause)
	p.engine.add(task, delay)
}

type syncCallback struct {
	protocol  *Protocol
	task      *syncTask
	startTime time.Time
}

var _ Callback = (*syncCallback)(nil)

func (c *syncCallback) OnSuccess() {
	c.protocol.complete(c.task, c.startTime, nil)
}

func (c *syncCallback) OnFailed(err error) {
	c.protocol.complete(c.task, c.startTime, err)
}

// OnReceive applies a pushed change. When the local member owns the key the change is
// pushed to the rest of the cluster.
func (p *Protocol) OnReceive(_ context.Context, source string, op DataOperation, datum Datum) error {
	component, err := p.holder.Get(datum.Key.BusinessType)
	if err != nil {
		return err
	}

	if !component.Processor.ProcessData(op, datum) {
		return nil
	}

	if p.started.Load() && p.mapper.Responsible(datum.Key) {
		p.fanOut(datum.Key, op, source)
	}
	return nil
}

// OnQuery returns the local datum of key
func (p *Protocol) OnQuery(_ context.Context, key Key) (Datum, error) {
	component, err := p.holder.Get(key.BusinessType)
	if err != nil {
		return Datum{}, err
	}

	datum, ok := component.Storage.Get(key)
	if !ok {
		return Datum{}, fmt.Errorf("%w: %s", gerrors.ErrDatumNotFound, key)
	}
	return datum, nil
}

// OnSnapshot returns every local datum of a business type.
// A storage that has not finished its own initial load refuses to serve it.
func (p *Protocol) OnSnapshot(_ context.Context, businessType string) ([]Datum, error) {
	component, err := p.holder.Get(businessType)
	if err != nil {
		return nil, err
	}

	if !component.Storage.IsFinishInitial() {
		return nil, gerrors.ErrNotInitialized
	}

	snapshot := component.Storage.Snapshot()
	data := make([]Datum, 0, len(snapshot))
	for _, datum := range snapshot {
		data = append(data, datum)
	}
	return data, nil
}
