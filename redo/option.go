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

package redo

import (
	"time"

	"go.opentelemetry.io/otel/metric"

	"github.com/tochemey/distro/log"
)

const (
	DefaultInterval     = 3 * time.Second
	DefaultInitialDelay = 3 * time.Second
)

// Option is the interface that applies a Service option.
type Option interface {
	// Apply sets the Option value of a Service.
	Apply(service *Service)
}

var _ Option = OptionFunc(nil)

// OptionFunc implements the Option interface.
type OptionFunc func(service *Service)

// Apply applies the Service's option
func (f OptionFunc) Apply(service *Service) {
	f(service)
}

// WithInterval sets the interval of the redo loop
func WithInterval(interval time.Duration) Option {
	return OptionFunc(func(service *Service) {
		service.interval = interval
	})
}

// WithInitialDelay sets the delay before the first redo round
func WithInitialDelay(delay time.Duration) Option {
	return OptionFunc(func(service *Service) {
		service.initialDelay = delay
	})
}

// WithLogger sets the logger
func WithLogger(logger log.Logger) Option {
	return OptionFunc(func(service *Service) {
		service.logger = logger
	})
}

// WithMeterProvider sets the meter provider of the redo metrics
func WithMeterProvider(provider metric.MeterProvider) Option {
	return OptionFunc(func(service *Service) {
		service.meterProvider = provider
	})
}
