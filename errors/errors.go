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

package errors

import (
	"errors"
)

var (
	// ErrNotInitialized is returned when a data storage is asked to serve verify or
	// snapshot traffic before it has finished its initial load from the cluster.
	ErrNotInitialized = errors.New("data storage has not finished initial load")

	// ErrUnknownBusinessType is returned when no component is registered for a business type.
	ErrUnknownBusinessType = errors.New("unknown business type")

	// ErrDuplicateBusinessType is returned when a business type is registered twice.
	ErrDuplicateBusinessType = errors.New("business type already registered")

	// ErrPeerNotFound is returned when the target peer is not part of the cluster view.
	ErrPeerNotFound = errors.New("peer not found")

	// ErrPeerUnhealthy is returned when the target peer is not in the UP state.
	ErrPeerUnhealthy = errors.New("peer is not healthy")

	// ErrRequestTimeout is returned when a peer did not answer a request in time.
	ErrRequestTimeout = errors.New("request timed out")

	// ErrDatumNotFound is returned when a requested datum does not exist.
	ErrDatumNotFound = errors.New("datum not found")

	// ErrNotStarted is returned when a component is used before it is started.
	ErrNotStarted = errors.New("not started")

	// ErrAlreadyStarted is returned when a component is started twice.
	ErrAlreadyStarted = errors.New("already started")

	// ErrTaskCancelled is returned when an operation targets a cancelled health check task.
	ErrTaskCancelled = errors.New("health check task cancelled")

	// ErrDisconnected is returned when the client connection is down.
	ErrDisconnected = errors.New("client is disconnected")

	// ErrInvalidMessage is returned when a wire message cannot be decoded or is malformed.
	ErrInvalidMessage = errors.New("invalid message")

	// ErrInvalidInstance is returned when an instance registration is missing its service, client or id.
	ErrInvalidInstance = errors.New("invalid instance")

	// ErrVerifyInProgress is returned when a verify round from the same source is still being processed.
	ErrVerifyInProgress = errors.New("verify already in progress for source")
)

// NewErrInvalidConfig wraps a configuration violation
func NewErrInvalidConfig(err error) error {
	return &InvalidConfigError{err: err}
}

// InvalidConfigError is returned when a configuration fails validation
type InvalidConfigError struct {
	err error
}

// Error implements the error interface
func (e *InvalidConfigError) Error() string {
	return "invalid config: " + e.err.Error()
}

// Unwrap returns the underlying violation
func (e *InvalidConfigError) Unwrap() error {
	return e.err
}
