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
	"time"

	gerrors "github.com/tochemey/distro/errors"
	"github.com/tochemey/distro/internal/validation"
)

const (
	DefaultMinDelay     = time.Second
	DefaultMaxDelay     = 5 * time.Second
	DefaultFactor       = 0.75
	DefaultCheckTimes   = 1
	DefaultProbeTimeout = 3 * time.Second
)

// Params holds the adaptive check settings shared by every task of a Reactor
type Params struct {
	minDelay     time.Duration
	maxDelay     time.Duration
	factor       float64
	checkTimes   int
	probeTimeout time.Duration
}

var _ validation.Validator = (*Params)(nil)

// NewParams creates Params with the default values
func NewParams() *Params {
	return &Params{
		minDelay:     DefaultMinDelay,
		maxDelay:     DefaultMaxDelay,
		factor:       DefaultFactor,
		checkTimes:   DefaultCheckTimes,
		probeTimeout: DefaultProbeTimeout,
	}
}

// WithDelayBounds sets the bounds of the delay between two checks
func (p *Params) WithDelayBounds(minDelay, maxDelay time.Duration) *Params {
	p.minDelay = minDelay
	p.maxDelay = maxDelay
	return p
}

// WithFactor sets the weight of the previous estimate in the round-trip average
func (p *Params) WithFactor(factor float64) *Params {
	p.factor = factor
	return p
}

// WithCheckTimes sets how many consecutive results flip the health status
func (p *Params) WithCheckTimes(checkTimes int) *Params {
	p.checkTimes = checkTimes
	return p
}

// WithProbeTimeout sets the timeout of a single probe
func (p *Params) WithProbeTimeout(timeout time.Duration) *Params {
	p.probeTimeout = timeout
	return p
}

// MinDelay returns the lower bound of the check delay
func (p *Params) MinDelay() time.Duration {
	return p.minDelay
}

// MaxDelay returns the upper bound of the check delay
func (p *Params) MaxDelay() time.Duration {
	return p.maxDelay
}

// Factor returns the adaptive factor
func (p *Params) Factor() float64 {
	return p.factor
}

// CheckTimes returns the consecutive results threshold
func (p *Params) CheckTimes() int {
	return p.checkTimes
}

// Validate checks the params
func (p *Params) Validate() error {
	if err := validation.New(validation.AllErrors()).
		AddValidator(validation.NewPositiveDurationValidator("min delay", p.minDelay)).
		AddValidator(validation.NewDurationRangeValidator("check delay", p.minDelay, p.maxDelay)).
		AddAssertion(p.factor >= 0 && p.factor <= 1, "factor must be within [0, 1]").
		AddValidator(validation.NewPositiveIntValidator("check times", p.checkTimes)).
		AddValidator(validation.NewPositiveDurationValidator("probe timeout", p.probeTimeout)).
		Validate(); err != nil {
		return gerrors.NewErrInvalidConfig(err)
	}
	return nil
}
