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

package ticker

import (
	"math/rand/v2"
	"sync"
	"time"
)

// Option configures a Ticker
type Option func(t *Ticker)

// WithInitialDelay delays the first tick. It defaults to the interval.
func WithInitialDelay(delay time.Duration) Option {
	return func(t *Ticker) {
		if delay >= 0 {
			t.initialDelay = delay
		}
	}
}

// WithJitter spreads every interval by up to ±fraction of its length so that
// members started together do not keep ticking in lockstep
func WithJitter(fraction float64) Option {
	return func(t *Ticker) {
		if fraction > 0 && fraction < 1 {
			t.jitter = fraction
		}
	}
}

// Ticker delivers ticks at intervals on Ticks.
// A tick is dropped when the receiver is still busy with the previous one.
type Ticker struct {
	Ticks chan time.Time

	interval     time.Duration
	initialDelay time.Duration
	jitter       float64

	mutex   sync.Mutex
	ticking bool
	stopCh  chan struct{}
	done    chan struct{}
}

// New creates a Ticker. It panics when interval is not positive.
func New(interval time.Duration, opts ...Option) *Ticker {
	if interval <= 0 {
		panic("ticker interval must be greater than zero")
	}

	t := &Ticker{
		Ticks:        make(chan time.Time),
		interval:     interval,
		initialDelay: interval,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Start starts ticking. Calling Start on a ticking Ticker does nothing.
func (t *Ticker) Start() {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	if t.ticking {
		return
	}

	t.ticking = true
	t.stopCh = make(chan struct{})
	t.done = make(chan struct{})
	go t.loop(t.stopCh, t.done)
}

// Stop stops ticking and waits for the ticking goroutine to exit
func (t *Ticker) Stop() {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	if !t.ticking {
		return
	}

	t.ticking = false
	close(t.stopCh)
	<-t.done
}

// Ticking reports whether the ticker is running
func (t *Ticker) Ticking() bool {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.ticking
}

func (t *Ticker) next() time.Duration {
	if t.jitter == 0 {
		return t.interval
	}
	spread := int64(float64(t.interval) * t.jitter)
	return t.interval + time.Duration(rand.Int64N(2*spread+1)-spread)
}

func (t *Ticker) loop(stopCh, done chan struct{}) {
	defer close(done)

	timer := time.NewTimer(t.initialDelay)
	defer timer.Stop()

	for {
		select {
		case <-stopCh:
			return
		case now := <-timer.C:
			select {
			case t.Ticks <- now:
			default:
			}
			timer.Reset(t.next())
		}
	}
}
