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
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/tochemey/distro/hash"
	"github.com/tochemey/distro/internal/ticker"
	"github.com/tochemey/distro/internal/types"
	"github.com/tochemey/distro/internal/workerpool"
)

// TaskState is the state of a push task
type TaskState int

const (
	// Pending is a task waiting for its delay to expire
	Pending TaskState = iota
	// Sending is a task whose push is in flight
	Sending
	// Acked is a task whose push was acknowledged
	Acked
	// Failed is a task whose push failed
	Failed
)

// String returns the state name
func (s TaskState) String() string {
	switch s {
	case Pending:
		return "PENDING"
	case Sending:
		return "SENDING"
	case Acked:
		return "ACKED"
	case Failed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

type taskKey struct {
	key    Key
	target string
}

// syncTask pushes the current version of one key to one target
type syncTask struct {
	key      Key
	target   string
	op       DataOperation
	state    TaskState
	attempts int
	due      time.Time
	backoff  *backoff.ExponentialBackOff
}

func newSyncTask(key Key, op DataOperation, target string) *syncTask {
	return &syncTask{
		key:    key,
		target: target,
		op:     op,
		state:  Pending,
	}
}

// merge folds another task of the same key and target into t.
// The operation of a fresh change wins over the one of a retried task.
func (t *syncTask) merge(other *syncTask) {
	if other.attempts == 0 {
		t.op = other.op
	}
	if t.backoff == nil {
		t.backoff = other.backoff
		t.attempts = other.attempts
	}
}

// nextRetryDelay returns the delay before the next attempt
func (t *syncTask) nextRetryDelay(initial, maxDelay time.Duration) time.Duration {
	if t.backoff == nil {
		t.backoff = backoff.NewExponentialBackOff()
		t.backoff.InitialInterval = initial
		t.backoff.MaxInterval = maxDelay
		t.backoff.MaxElapsedTime = 0
		t.backoff.Reset()
	}
	t.attempts++
	return t.backoff.NextBackOff()
}

// taskEngine holds push tasks for a delay, merging tasks of the same key and target,
// then runs them on a sharded worker pool so tasks of one key and target never run concurrently.
type taskEngine struct {
	mu       sync.Mutex
	tasks    map[taskKey]*syncTask
	inflight map[taskKey]int
	pool    *workerpool.WorkerPool
	ticker  *ticker.Ticker
	hasher  hash.Hasher
	execute func(task *syncTask)
	stopCh  chan types.Unit
	wg      sync.WaitGroup
	clock   func() time.Time
}

func newTaskEngine(workers int, scanInterval time.Duration, hasher hash.Hasher, execute func(task *syncTask)) *taskEngine {
	return &taskEngine{
		tasks:    make(map[taskKey]*syncTask),
		inflight: make(map[taskKey]int),
		pool:    workerpool.New(workers),
		ticker:  ticker.New(scanInterval),
		hasher:  hasher,
		execute: execute,
		stopCh:  make(chan types.Unit),
		clock:   time.Now,
	}
}

func (e *taskEngine) start() {
	e.pool.Start()
	e.ticker.Start()
	e.wg.Add(1)
	go e.loop()
}

func (e *taskEngine) stop() {
	close(e.stopCh)
	e.ticker.Stop()
	e.wg.Wait()
	e.pool.Stop()
}

// add schedules task after delay. A pending task of the same key and target absorbs it.
func (e *taskEngine) add(task *syncTask, delay time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()

	id := taskKey{key: task.key, target: task.target}
	if existing, ok := e.tasks[id]; ok {
		existing.merge(task)
		return
	}

	task.state = Pending
	task.due = e.clock().Add(delay)
	e.tasks[id] = task
}

// pending returns the number of tasks waiting for their delay
func (e *taskEngine) pending() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.tasks)
}

// has reports whether a push of key to target is waiting or running
func (e *taskEngine) has(key Key, target string) bool {
	id := taskKey{key: key, target: target}
	e.mu.Lock()
	defer e.mu.Unlock()
	_, waiting := e.tasks[id]
	return waiting || e.inflight[id] > 0
}

// finish marks a dispatched task as done. A retry must be added before finish is called.
func (e *taskEngine) finish(task *syncTask) {
	id := taskKey{key: task.key, target: task.target}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.inflight[id] <= 1 {
		delete(e.inflight, id)
		return
	}
	e.inflight[id]--
}

func (e *taskEngine) loop() {
	defer e.wg.Done()
	for {
		select {
		case <-e.stopCh:
			return
		case <-e.ticker.Ticks:
			e.dispatch()
		}
	}
}

func (e *taskEngine) dispatch() {
	now := e.clock()
	e.mu.Lock()
	due := make([]*syncTask, 0)
	for id, task := range e.tasks {
		if !task.due.After(now) {
			due = append(due, task)
			delete(e.tasks, id)
			e.inflight[id]++
		}
	}
	e.mu.Unlock()

	for _, task := range due {
		routingKey := e.hasher.HashCode([]byte(task.key.String() + "@" + task.target))
		if err := e.pool.Submit(routingKey, func() { e.execute(task) }); err != nil {
			return
		}
	}
}
