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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/tochemey/distro/hash"
	"github.com/tochemey/distro/internal/pause"
)

func TestSyncTask(t *testing.T) {
	key := NewKey("instances", "svc")

	t.Run("With merge keeping the latest change", func(t *testing.T) {
		task := newSyncTask(key, Add, "node-2")
		task.merge(newSyncTask(key, Delete, "node-2"))
		assert.Equal(t, Delete, task.op)
		assert.Zero(t, task.attempts)
	})
	t.Run("With a retried task merged into a fresh one", func(t *testing.T) {
		failed := newSyncTask(key, Change, "node-2")
		failed.nextRetryDelay(time.Second, 10*time.Second)

		fresh := newSyncTask(key, Delete, "node-2")
		fresh.merge(failed)
		assert.Equal(t, Delete, fresh.op)
		assert.Equal(t, 1, fresh.attempts)
		assert.NotNil(t, fresh.backoff)
	})
	t.Run("With exponential retry delays", func(t *testing.T) {
		task := newSyncTask(key, Change, "node-2")
		var previous time.Duration
		for range 10 {
			delay := task.nextRetryDelay(100*time.Millisecond, time.Second)
			assert.Positive(t, delay)
			// randomization allows up to half of the interval on top of the max
			assert.LessOrEqual(t, delay, 1500*time.Millisecond)
			previous = delay
		}
		assert.Positive(t, previous)
		assert.Equal(t, 10, task.attempts)
	})
	t.Run("With state names", func(t *testing.T) {
		assert.Equal(t, "PENDING", Pending.String())
		assert.Equal(t, "SENDING", Sending.String())
		assert.Equal(t, "ACKED", Acked.String())
		assert.Equal(t, "FAILED", Failed.String())
		assert.Equal(t, "UNKNOWN", TaskState(9).String())
	})
}

func TestTaskEngine(t *testing.T) {
	defer goleak.VerifyNone(t)

	var mu sync.Mutex
	executed := make([]*syncTask, 0)
	engine := newTaskEngine(4, 10*time.Millisecond, hash.DefaultHasher(), func(task *syncTask) {
		mu.Lock()
		executed = append(executed, task)
		mu.Unlock()
	})
	engine.start()
	defer engine.stop()

	count := func() int {
		mu.Lock()
		defer mu.Unlock()
		return len(executed)
	}

	t.Run("With tasks merged during the delay", func(t *testing.T) {
		key := NewKey("instances", "svc1")
		engine.add(newSyncTask(key, Add, "node-2"), 100*time.Millisecond)
		engine.add(newSyncTask(key, Change, "node-2"), 100*time.Millisecond)
		engine.add(newSyncTask(key, Change, "node-3"), 100*time.Millisecond)
		assert.Equal(t, 2, engine.pending())

		require.Eventually(t, func() bool { return count() == 2 }, time.Second, 10*time.Millisecond)
		assert.Zero(t, engine.pending())

		mu.Lock()
		for _, task := range executed {
			assert.Equal(t, Change, task.op)
		}
		mu.Unlock()
	})
	t.Run("With tasks held until due", func(t *testing.T) {
		engine.add(newSyncTask(NewKey("instances", "svc2"), Add, "node-2"), 300*time.Millisecond)
		pause.For(100 * time.Millisecond)
		assert.Equal(t, 2, count())
		assert.Equal(t, 1, engine.pending())
		require.Eventually(t, func() bool { return count() == 3 }, time.Second, 10*time.Millisecond)
	})
}
