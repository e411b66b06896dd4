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

package workerpool

import (
	"errors"
	"sync"
)

const (
	maxShards        = 128
	defaultQueueSize = 1024
)

// ErrNotStarted is returned when tasks are submitted to a pool that is not running
var ErrNotStarted = errors.New("worker pool must be started first")

// Option configures a WorkerPool
type Option func(pool *WorkerPool)

// WithQueueSize sets the per-shard task buffer size
func WithQueueSize(size int) Option {
	return func(pool *WorkerPool) {
		if size > 0 {
			pool.queueSize = size
		}
	}
}

// WorkerPool runs tasks on a fixed set of shards. Each shard has a single worker,
// so tasks submitted with routing keys that land on the same shard run one after
// the other in submission order.
type WorkerPool struct {
	numShards int
	queueSize int
	shards    []chan func()
	mutex     sync.RWMutex
	running   bool
	wg        sync.WaitGroup
}

// New creates a WorkerPool with numShards shards, clamped to [1, 128]
func New(numShards int, opts ...Option) *WorkerPool {
	pool := &WorkerPool{
		numShards: min(max(numShards, 1), maxShards),
		queueSize: defaultQueueSize,
	}
	for _, opt := range opts {
		opt(pool)
	}
	return pool
}

// NumShards returns the number of shards
func (wp *WorkerPool) NumShards() int {
	return wp.numShards
}

// Start starts one worker per shard
func (wp *WorkerPool) Start() {
	wp.mutex.Lock()
	defer wp.mutex.Unlock()
	if wp.running {
		return
	}

	wp.shards = make([]chan func(), wp.numShards)
	for i := range wp.shards {
		tasks := make(chan func(), wp.queueSize)
		wp.shards[i] = tasks
		wp.wg.Add(1)
		go wp.work(tasks)
	}
	wp.running = true
}

// Stop stops the workers once every submitted task has run
func (wp *WorkerPool) Stop() {
	wp.mutex.Lock()
	if !wp.running {
		wp.mutex.Unlock()
		return
	}
	wp.running = false
	for _, tasks := range wp.shards {
		close(tasks)
	}
	wp.mutex.Unlock()
	wp.wg.Wait()
}

// Submit queues task on the shard of routingKey.
// It blocks while that shard's buffer is full.
func (wp *WorkerPool) Submit(routingKey uint64, task func()) error {
	wp.mutex.RLock()
	defer wp.mutex.RUnlock()
	if !wp.running {
		return ErrNotStarted
	}
	wp.shards[routingKey%uint64(wp.numShards)] <- task
	return nil
}

func (wp *WorkerPool) work(tasks <-chan func()) {
	defer wp.wg.Done()
	for task := range tasks {
		task()
	}
}
