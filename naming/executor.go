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

package naming

import (
	"context"

	"github.com/tochemey/distro/redo"
)

// LocalExecutor sends the requests of one client straight to an in-process Registry.
// Instance entries carry the encoded Instance as payload and the service name as key.
type LocalExecutor struct {
	registry *Registry
	clientID string
}

var _ redo.Executor = (*LocalExecutor)(nil)

// NewLocalExecutor creates a LocalExecutor for the given client
func NewLocalExecutor(registry *Registry, clientID string) *LocalExecutor {
	return &LocalExecutor{registry: registry, clientID: clientID}
}

// Register registers the instance of data
func (e *LocalExecutor) Register(ctx context.Context, data *redo.Data) error {
	instance, err := DecodeInstance(data.Payload)
	if err != nil {
		return err
	}
	return e.registry.Register(ctx, e.clientID, data.Key, instance)
}

// Deregister deregisters the instance of data
func (e *LocalExecutor) Deregister(ctx context.Context, data *redo.Data) error {
	instance, err := DecodeInstance(data.Payload)
	if err != nil {
		return err
	}
	return e.registry.Deregister(ctx, e.clientID, data.Key, instance.ID)
}

// Subscribe subscribes the client to the service of data
func (e *LocalExecutor) Subscribe(ctx context.Context, data *redo.Data) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e.registry.Subscribe(e.clientID, data.Key)
	return nil
}

// Unsubscribe cancels the subscription of the client to the service of data
func (e *LocalExecutor) Unsubscribe(ctx context.Context, data *redo.Data) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e.registry.Unsubscribe(e.clientID, data.Key)
	return nil
}
