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

import "github.com/tochemey/distro/log"

// Policy defines what happens when a topic queue is full
type Policy int

const (
	// DropOldest discards the oldest queued event to make room for the new one
	DropOldest Policy = iota
	// SyncFallback delivers the event on the publisher goroutine, or hands it
	// to the worker beyond the queue capacity while another delivery is running
	SyncFallback
)

// String returns the policy name
func (p Policy) String() string {
	switch p {
	case DropOldest:
		return "DropOldest"
	case SyncFallback:
		return "SyncFallback"
	default:
		return "Unknown"
	}
}

// Option is the interface that applies a Bus option.
type Option interface {
	// Apply sets the Option value of a Bus.
	Apply(bus *Bus)
}

var _ Option = OptionFunc(nil)

// OptionFunc implements the Option interface.
type OptionFunc func(bus *Bus)

// Apply applies the Bus's option
func (f OptionFunc) Apply(bus *Bus) {
	f(bus)
}

// WithCapacity sets the per-topic queue capacity.
// The ring buffer rounds it up to the next power of two.
func WithCapacity(capacity uint64) Option {
	return OptionFunc(func(bus *Bus) {
		if capacity > 0 {
			bus.capacity = capacity
		}
	})
}

// WithPolicy sets the queue-full policy
func WithPolicy(policy Policy) Option {
	return OptionFunc(func(bus *Bus) {
		bus.policy = policy
	})
}

// WithLogger sets the logger
func WithLogger(logger log.Logger) Option {
	return OptionFunc(func(bus *Bus) {
		bus.logger = logger
	})
}
