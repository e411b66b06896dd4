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

package errorschain

import "go.uber.org/multierr"

// Chain collects the errors of a sequence of steps.
// With ReturnFirst the chain reports the first failure and skips the
// functions added after it; with ReturnAll every failure is combined.
type Chain struct {
	returnFirst bool
	first       error
	all         error
}

// ChainOption configures a Chain
type ChainOption func(*Chain)

// ReturnFirst makes the chain stop at its first error
func ReturnFirst() ChainOption {
	return func(c *Chain) { c.returnFirst = true }
}

// ReturnAll makes the chain report every error
func ReturnAll() ChainOption {
	return func(c *Chain) { c.returnFirst = false }
}

// New creates an empty Chain
func New(opts ...ChainOption) *Chain {
	chain := new(Chain)
	for _, opt := range opts {
		opt(chain)
	}
	return chain
}

// AddError records err. nil is ignored.
func (c *Chain) AddError(err error) *Chain {
	if err == nil {
		return c
	}
	if c.first == nil {
		c.first = err
	}
	c.all = multierr.Append(c.all, err)
	return c
}

// AddErrorFn runs fn and records its error, unless a ReturnFirst chain already failed
func (c *Chain) AddErrorFn(fn func() error) *Chain {
	if c.returnFirst && c.first != nil {
		return c
	}
	return c.AddError(fn())
}

// Error returns the recorded error(s), nil when every step succeeded
func (c *Chain) Error() error {
	if c.returnFirst {
		return c.first
	}
	return c.all
}
