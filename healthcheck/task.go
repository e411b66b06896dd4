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

package healthcheck

import (
	"context"
	"math"
	"math/rand/v2"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/atomic"

	gerrors "github.com/tochemey/distro/errors"
)

// State is the state of a health check task
type State int

const (
	// Scheduled is a task waiting for its next check
	Scheduled State = iota
	// Running is a task whose probe is in flight
	Running
	// Healthy is a task whose last check left the target healthy
	Healthy
	// Unhealthy is a task whose last check left the target unhealthy
	Unhealthy
	// Cancelled is a task that will never run again
	Cancelled
)

// String returns the state name
func (s State) String() string {
	switch s {
	case Scheduled:
		return "SCHEDULED"
	case Running:
		return "RUNNING"
	case Healthy:
		return "HEALTHY"
	case Unhealthy:
		return "UNHEALTHY"
	case Cancelled:
		return "CANCELLED"
	default:
		return "UNKNOWN"
	}
}

// CheckRT holds the round-trip statistics of a task
type CheckRT struct {
	Normalized time.Duration
	Best       time.Duration
	Worst      time.Duration
	Last       time.Duration
}

// Task checks one client session over and over until it is cancelled.
// A cancelled task is never resumed.
type Task struct {
	id     string
	target string
	// run tells apart tasks created under the same id
	run string

	mu        sync.Mutex
	pending   string
	rt        CheckRT
	okCount   int
	failCount int
	healthy   bool
	state     State
	cycle     uint64
	cancelled *atomic.Bool
}

// NewTask creates a Task. The first check is delayed by a random duration within the
// params bounds so tasks created together do not probe together.
func NewTask(id, target string, params *Params) *Task {
	normalized := params.minDelay
	if spread := params.maxDelay - params.minDelay; spread > 0 {
		normalized += rand.N(spread + 1)
	}

	return &Task{
		id:     id,
		target: target,
		run:    uuid.NewString(),
		rt: CheckRT{
			Normalized: normalized,
			Best:       time.Duration(math.MaxInt64),
		},
		healthy:   true,
		state:     Scheduled,
		cancelled: atomic.NewBool(false),
	}
}

// ID returns the task id
func (t *Task) ID() string {
	return t.id
}

// Target returns the checked target
func (t *Task) Target() string {
	return t.target
}

// Cancel stops the task for good
func (t *Task) Cancel() {
	t.cancel()
}

// cancel stops the task and returns the job key of its pending check, if any
func (t *Task) cancel() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cancelled.Store(true)
	t.state = Cancelled
	pending := t.pending
	t.pending = ""
	return pending
}

// IsCancelled reports whether the task was cancelled
func (t *Task) IsCancelled() bool {
	return t.cancelled.Load()
}

// State returns the current state
func (t *Task) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Healthy reports the health status of the target
func (t *Task) Healthy() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.healthy
}

// CheckRT returns the round-trip statistics
func (t *Task) CheckRT() CheckRT {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.rt
}

// NextDelay returns the delay before the next check
func (t *Task) NextDelay() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.rt.Normalized
}

// ReEvaluateCheckRT folds a probe round-trip into the normalized delay, clamped to the params bounds
func (t *Task) ReEvaluateCheckRT(rt time.Duration, params *Params) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.reEvaluate(rt, params)
}

func (t *Task) reEvaluate(rt time.Duration, params *Params) {
	t.rt.Last = rt
	t.rt.Worst = max(t.rt.Worst, rt)
	t.rt.Best = min(t.rt.Best, rt)

	normalized := time.Duration(params.factor*float64(t.rt.Normalized) + (1-params.factor)*float64(rt))
	t.rt.Normalized = min(max(normalized, params.minDelay), params.maxDelay)
}

// run performs one check and reports whether the health status flipped.
// Cancellation is checked before the probe and once it returns, since a probe started
// before Cancel may complete after it.
func (t *Task) run(ctx context.Context, probe Probe, params *Params) (bool, error) {
	t.mu.Lock()
	if t.cancelled.Load() {
		t.mu.Unlock()
		return false, gerrors.ErrTaskCancelled
	}
	t.state = Running
	t.mu.Unlock()

	pctx, cancel := context.WithTimeout(ctx, params.probeTimeout)
	start := time.Now()
	err := probe.Check(pctx, t.target)
	elapsed := time.Since(start)
	cancel()

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancelled.Load() {
		return false, gerrors.ErrTaskCancelled
	}

	t.reEvaluate(elapsed, params)
	changed := false
	if err == nil {
		t.failCount = 0
		if !t.healthy {
			t.okCount++
			if t.okCount >= params.checkTimes {
				t.healthy = true
				t.okCount = 0
				changed = true
			}
		}
	} else {
		t.okCount = 0
		if t.healthy {
			t.failCount++
			if t.failCount >= params.checkTimes {
				t.healthy = false
				t.failCount = 0
				changed = true
			}
		}
	}

	t.state = Unhealthy
	if t.healthy {
		t.state = Healthy
	}
	return changed, err
}

// reschedule runs schedule while holding the task lock unless the task is cancelled.
// Cancel takes the same lock, so a cancelled task can never be scheduled again.
// Every cycle is scheduled under a job key unique to this task and cycle.
func (t *Task) reschedule(schedule func(jobKey string, delay time.Duration) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancelled.Load() {
		return gerrors.ErrTaskCancelled
	}

	t.cycle++
	jobKey := t.id + "/" + t.run + "/" + strconv.FormatUint(t.cycle, 10)
	if err := schedule(jobKey, t.rt.Normalized); err != nil {
		return err
	}
	t.pending = jobKey
	t.state = Scheduled
	return nil
}
