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
	"runtime"
	"time"

	gerrors "github.com/tochemey/distro/errors"
	"github.com/tochemey/distro/internal/validation"
)

const (
	DefaultSyncDelay         = time.Second
	DefaultRetryInitialDelay = 3 * time.Second
	DefaultRetryMaxDelay     = 30 * time.Second
	DefaultVerifyInterval    = 5 * time.Second
	DefaultVerifyTimeout     = 3 * time.Second
	DefaultLoadRetryAttempts = 3
	DefaultLoadRetryInterval = time.Second
	DefaultRequestTimeout    = 3 * time.Second
	DefaultTaskScanInterval  = 100 * time.Millisecond
)

// Config defines the replication engine settings
type Config struct {
	syncDelay         time.Duration
	retryInitialDelay time.Duration
	retryMaxDelay     time.Duration
	verifyInterval    time.Duration
	verifyTimeout     time.Duration
	loadRetryAttempts int
	loadRetryInterval time.Duration
	requestTimeout    time.Duration
	taskScanInterval  time.Duration
	workers           int
}

var _ validation.Validator = (*Config)(nil)

// NewConfig creates a Config with the default values
func NewConfig() *Config {
	return &Config{
		syncDelay:         DefaultSyncDelay,
		retryInitialDelay: DefaultRetryInitialDelay,
		retryMaxDelay:     DefaultRetryMaxDelay,
		verifyInterval:    DefaultVerifyInterval,
		verifyTimeout:     DefaultVerifyTimeout,
		loadRetryAttempts: DefaultLoadRetryAttempts,
		loadRetryInterval: DefaultLoadRetryInterval,
		requestTimeout:    DefaultRequestTimeout,
		taskScanInterval:  DefaultTaskScanInterval,
		workers:           runtime.GOMAXPROCS(0),
	}
}

// WithSyncDelay sets how long a push is held to merge with later changes of the same key
func (c *Config) WithSyncDelay(delay time.Duration) *Config {
	c.syncDelay = delay
	return c
}

// WithRetryBackoff sets the bounds of the failed push exponential backoff
func (c *Config) WithRetryBackoff(initial, maxDelay time.Duration) *Config {
	c.retryInitialDelay = initial
	c.retryMaxDelay = maxDelay
	return c
}

// WithVerifyInterval sets the anti-entropy interval
func (c *Config) WithVerifyInterval(interval time.Duration) *Config {
	c.verifyInterval = interval
	return c
}

// WithVerifyTimeout sets the timeout of one verify round
func (c *Config) WithVerifyTimeout(timeout time.Duration) *Config {
	c.verifyTimeout = timeout
	return c
}

// WithLoadRetry sets the snapshot load attempts per round and the interval between them
func (c *Config) WithLoadRetry(attempts int, interval time.Duration) *Config {
	c.loadRetryAttempts = attempts
	c.loadRetryInterval = interval
	return c
}

// WithRequestTimeout sets the timeout of a single request to a peer
func (c *Config) WithRequestTimeout(timeout time.Duration) *Config {
	c.requestTimeout = timeout
	return c
}

// WithTaskScanInterval sets how often delayed push tasks are checked
func (c *Config) WithTaskScanInterval(interval time.Duration) *Config {
	c.taskScanInterval = interval
	return c
}

// WithWorkers sets the number of push workers
func (c *Config) WithWorkers(workers int) *Config {
	c.workers = workers
	return c
}

// SyncDelay returns the push merge delay
func (c *Config) SyncDelay() time.Duration {
	return c.syncDelay
}

// VerifyInterval returns the anti-entropy interval
func (c *Config) VerifyInterval() time.Duration {
	return c.verifyInterval
}

// Validate checks the configuration
func (c *Config) Validate() error {
	if err := validation.New(validation.AllErrors()).
		AddAssertion(c.syncDelay >= 0, "sync delay must not be negative").
		AddValidator(validation.NewPositiveDurationValidator("retry initial delay", c.retryInitialDelay)).
		AddValidator(validation.NewDurationRangeValidator("retry backoff", c.retryInitialDelay, c.retryMaxDelay)).
		AddValidator(validation.NewPositiveDurationValidator("verify interval", c.verifyInterval)).
		AddValidator(validation.NewPositiveDurationValidator("verify timeout", c.verifyTimeout)).
		AddValidator(validation.NewPositiveIntValidator("load retry attempts", c.loadRetryAttempts)).
		AddValidator(validation.NewPositiveDurationValidator("load retry interval", c.loadRetryInterval)).
		AddValidator(validation.NewPositiveDurationValidator("request timeout", c.requestTimeout)).
		AddValidator(validation.NewPositiveDurationValidator("task scan interval", c.taskScanInterval)).
		AddValidator(validation.NewPositiveIntValidator("workers", c.workers)).
		Validate(); err != nil {
		return gerrors.NewErrInvalidConfig(err)
	}
	return nil
}
