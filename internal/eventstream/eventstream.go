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

package eventstream

import (
	"sync"
	"time"

	"github.com/Workiva/go-datastructures/queue"
	"github.com/google/uuid"
	"go.uber.org/atomic"

	"github.com/tochemey/distro/internal/xsync"
	"github.com/tochemey/distro/log"
)

const (
	defaultCapacity = 16384
	dropPollTimeout = time.Millisecond
)

// Bus is an in-process publish/subscribe hub.
// Each topic owns a bounded ring buffer and a single delivery worker that is
// started when the first subscriber shows up, so events of one topic are
// delivered in publication order, except when the SyncFallback policy kicks in.
// Under SyncFallback an event published while another delivery of the topic is
// running is parked and handed to the worker instead of blocking the publisher.
type Bus struct {
	capacity uint64
	policy   Policy
	logger   log.Logger
	topics   *xsync.Map[string, *topic]
	closed   *atomic.Bool
}

// New creates a Bus
func New(opts ...Option) *Bus {
	bus := &Bus{
		capacity: defaultCapacity,
		policy:   DropOldest,
		logger:   log.DiscardLogger,
		topics:   xsync.NewMap[string, *topic](),
		closed:   atomic.NewBool(false),
	}

	for _, opt := range opts {
		opt.Apply(bus)
	}
	return bus
}

// Subscription is a handle returned by Subscribe
type Subscription struct {
	id    string
	topic *topic
}

// ID returns the subscription id
func (s *Subscription) ID() string {
	return s.id
}

// Topic returns the subscribed topic name
func (s *Subscription) Topic() string {
	return s.topic.name
}

// Unsubscribe stops the delivery of events to the subscription
func (s *Subscription) Unsubscribe() {
	s.topic.handlers.Delete(s.id)
}

// Subscribe registers handler for the events of the given topic.
// Events published on that topic that are not of type T are skipped.
func Subscribe[T any](bus *Bus, name string, handler func(event T)) *Subscription {
	t := bus.topic(name)
	id := uuid.NewString()
	t.handlers.Set(id, func(event any) {
		if typed, ok := event.(T); ok {
			handler(typed)
		}
	})
	t.start()
	return &Subscription{id: id, topic: t}
}

// Publish sends event to the given topic. It is a no-op when the topic has no subscribers.
func Publish[T any](bus *Bus, name string, event T) {
	if bus.closed.Load() {
		return
	}

	t, ok := bus.topics.Get(name)
	if !ok || t.handlers.Len() == 0 {
		return
	}
	t.publish(event, bus.policy)
}

// SubscribersCount returns the number of subscribers of the given topic
func (bus *Bus) SubscribersCount(name string) int {
	if t, ok := bus.topics.Get(name); ok {
		return t.handlers.Len()
	}
	return 0
}

// Pending returns the number of queued events of the given topic
func (bus *Bus) Pending(name string) int {
	if t, ok := bus.topics.Get(name); ok {
		t.spillMu.Lock()
		spilled := len(t.spill)
		t.spillMu.Unlock()
		return int(t.queue.Len()) + spilled
	}
	return 0
}

// Close stops every topic worker. Queued events that have not been delivered are discarded.
func (bus *Bus) Close() {
	if !bus.closed.CompareAndSwap(false, true) {
		return
	}

	for _, t := range bus.topics.Values() {
		t.stop()
	}
	bus.topics.Reset()
}

func (bus *Bus) topic(name string) *topic {
	t, _ := bus.topics.GetOrSet(name, func() *topic {
		return newTopic(name, bus.capacity, bus.logger)
	})
	return t
}

type topic struct {
	name     string
	queue    *queue.RingBuffer
	handlers *xsync.Map[string, func(any)]
	running  *atomic.Bool
	deliver  sync.Mutex
	spillMu  sync.Mutex
	spill    []any
	signal   chan struct{}
	done     chan struct{}
	logger   log.Logger
	wg       sync.WaitGroup
}

func newTopic(name string, capacity uint64, logger log.Logger) *topic {
	return &topic{
		name:     name,
		queue:    queue.NewRingBuffer(capacity),
		handlers: xsync.NewMap[string, func(any)](),
		running:  atomic.NewBool(false),
		signal:   make(chan struct{}, 1),
		done:     make(chan struct{}),
		logger:   logger,
	}
}

func (t *topic) start() {
	if !t.running.CompareAndSwap(false, true) {
		return
	}
	t.wg.Add(1)
	go t.work()
}

func (t *topic) stop() {
	close(t.done)
	t.queue.Dispose()
	t.wg.Wait()
}

// work only reads the ring buffer when notified since the buffer spins on empty reads
func (t *topic) work() {
	defer t.wg.Done()
	for {
		select {
		case <-t.done:
			return
		case <-t.signal:
			t.drain()
		}
	}
}

func (t *topic) drain() {
	for {
		for t.queue.Len() > 0 {
			event, err := t.queue.Poll(dropPollTimeout)
			if err != nil {
				return
			}
			t.dispatch(event)
		}

		spilled := t.takeSpill()
		if len(spilled) == 0 {
			return
		}
		for _, event := range spilled {
			t.dispatch(event)
		}
	}
}

func (t *topic) takeSpill() []any {
	t.spillMu.Lock()
	defer t.spillMu.Unlock()
	spilled := t.spill
	t.spill = nil
	return spilled
}

func (t *topic) notify() {
	select {
	case t.signal <- struct{}{}:
	default:
	}
}

func (t *topic) publish(event any, policy Policy) {
	for {
		ok, err := t.queue.Offer(event)
		if err != nil {
			return
		}

		if ok {
			t.notify()
			return
		}

		switch policy {
		case SyncFallback:
			// the delivery lock is held while a handler publishes to its own topic
			if !t.deliver.TryLock() {
				t.spillMu.Lock()
				t.spill = append(t.spill, event)
				t.spillMu.Unlock()
				t.notify()
				return
			}
			t.logger.Warnf("topic=%s queue full, delivering synchronously", t.name)
			t.invokeAll(event)
			t.deliver.Unlock()
			return
		default:
			// a concurrent worker may have drained the slot already
			if _, err := t.queue.Poll(dropPollTimeout); err == nil {
				t.logger.Warnf("topic=%s queue full, dropped oldest event", t.name)
			}
		}
	}
}

func (t *topic) dispatch(event any) {
	t.deliver.Lock()
	defer t.deliver.Unlock()
	t.invokeAll(event)
}

func (t *topic) invokeAll(event any) {
	for _, handler := range t.handlers.Values() {
		t.safeInvoke(handler, event)
	}
}

func (t *topic) safeInvoke(handler func(any), event any) {
	defer func() {
		if r := recover(); r != nil {
			t.logger.Errorf("topic=%s subscriber panicked: %v", t.name, r)
		}
	}()
	handler(event)
}
