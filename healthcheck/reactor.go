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
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/reugn/go-quartz/job"
	quartzlogger "github.com/reugn/go-quartz/logger"
	"github.com/reugn/go-quartz/quartz"
	"go.uber.org/atomic"

	gerrors "github.com/tochemey/distro/errors"
	"github.com/tochemey/distro/internal/eventstream"
	"github.com/tochemey/distro/internal/xsync"
	"github.com/tochemey/distro/log"
)

// Topic is the event bus topic of StatusChanged events
const Topic = "healthcheck.status"

// StatusChanged is published when a check flips the health status of a target
type StatusChanged struct {
	TaskID  string
	Target  string
	Healthy bool
}

// Reactor runs health check tasks. Every check cycle is a run-once quartz job
// scheduled after the adaptive delay of its task.
type Reactor struct {
	mu          sync.Mutex
	scheduler   quartz.Scheduler
	probe       Probe
	bus         *eventstream.Bus
	params      *Params
	logger      log.Logger
	stopTimeout time.Duration
	tasks       *xsync.Map[string, *Task]
	started     *atomic.Bool
}

// NewReactor creates a Reactor that checks targets with probe and publishes
// status changes on bus
func NewReactor(probe Probe, bus *eventstream.Bus, opts ...Option) *Reactor {
	// the quartz logger is off, the reactor logs on its own
	scheduler, _ := quartz.NewStdScheduler(quartz.WithLogger(quartzlogger.NewSimpleLogger(nil, quartzlogger.LevelOff)))

	reactor := &Reactor{
		scheduler:   scheduler,
		probe:       probe,
		bus:         bus,
		params:      NewParams(),
		logger:      log.DiscardLogger,
		stopTimeout: 3 * time.Second,
		tasks:       xsync.NewMap[string, *Task](),
		started:     atomic.NewBool(false),
	}

	for _, opt := range opts {
		opt.Apply(reactor)
	}
	return reactor
}

// Params returns the adaptive check settings
func (r *Reactor) Params() *Params {
	return r.params
}

// Start starts the scheduler
func (r *Reactor) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.started.Load() {
		return gerrors.ErrAlreadyStarted
	}

	if err := r.params.Validate(); err != nil {
		return err
	}

	r.scheduler.Start(ctx)
	r.started.Store(r.scheduler.IsStarted())
	r.logger.Info("health check reactor started")
	return nil
}

// Stop cancels every task and waits for in-flight checks
func (r *Reactor) Stop(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.started.Load() {
		return nil
	}
	r.started.Store(false)

	for _, task := range r.tasks.Values() {
		task.cancel()
	}
	r.tasks.Reset()

	_ = r.scheduler.Clear()
	r.scheduler.Stop()

	ctx, cancel := context.WithTimeout(ctx, r.stopTimeout)
	defer cancel()
	r.scheduler.Wait(ctx)

	r.logger.Info("health check reactor stopped")
	return nil
}

// Schedule admits a task. A task already registered under the same id is cancelled first.
func (r *Reactor) Schedule(task *Task) error {
	if !r.started.Load() {
		return gerrors.ErrNotStarted
	}

	if task.IsCancelled() {
		return gerrors.ErrTaskCancelled
	}

	if previous, ok := r.tasks.Get(task.ID()); ok && previous != task {
		r.discard(previous)
	}
	r.tasks.Set(task.ID(), task)

	if err := r.scheduleNext(task); err != nil {
		r.tasks.Delete(task.ID())
		return err
	}

	r.logger.Debugf("health check of %s scheduled in %s", task.Target(), task.NextDelay())
	return nil
}

// Cancel cancels the task with the given id and reports whether it existed
func (r *Reactor) Cancel(id string) bool {
	task, ok := r.tasks.LoadAndDelete(id)
	if !ok {
		return false
	}

	r.discard(task)
	r.logger.Debugf("health check of %s cancelled", task.Target())
	return true
}

// discard cancels task and removes its pending check from the scheduler
func (r *Reactor) discard(task *Task) {
	jobKey := task.cancel()
	if jobKey == "" {
		return
	}
	// the job may have fired already
	_ = r.scheduler.DeleteJob(quartz.NewJobKey(jobKey))
}

// Task returns the task with the given id
func (r *Reactor) Task(id string) (*Task, bool) {
	return r.tasks.Get(id)
}

// Len returns the number of active tasks
func (r *Reactor) Len() int {
	return r.tasks.Len()
}

func (r *Reactor) scheduleNext(task *Task) error {
	return task.reschedule(func(jobKey string, delay time.Duration) error {
		check := job.NewFunctionJob[bool](func(ctx context.Context) (bool, error) {
			r.execute(ctx, task)
			return true, nil
		})

		detail := quartz.NewJobDetail(check, quartz.NewJobKey(jobKey))
		if err := r.scheduler.ScheduleJob(detail, quartz.NewRunOnceTrigger(delay)); err != nil {
			return fmt.Errorf("failed to schedule health check of %s: %w", task.Target(), err)
		}
		return nil
	})
}

func (r *Reactor) execute(ctx context.Context, task *Task) {
	changed, err := task.run(ctx, r.probe, r.params)
	if errors.Is(err, gerrors.ErrTaskCancelled) {
		return
	}

	if err != nil {
		r.logger.Debugf("health check of %s failed: %v", task.Target(), err)
	}

	if changed {
		healthy := task.Healthy()
		r.logger.Infof("health of %s changed: healthy=%t", task.Target(), healthy)
		eventstream.Publish(r.bus, Topic, StatusChanged{
			TaskID:  task.ID(),
			Target:  task.Target(),
			Healthy: healthy,
		})
	}

	if !r.started.Load() {
		return
	}

	if err := r.scheduleNext(task); err != nil && !errors.Is(err, gerrors.ErrTaskCancelled) {
		r.logger.Warnf("health check of %s stopped: %v", task.Target(), err)
	}
}
