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

package cluster

import (
	"context"
	"sync"

	gerrors "github.com/tochemey/distro/errors"
)

// LocalNetwork connects in-process messengers with each other.
// A filter can be installed to drop messages between members.
type LocalNetwork struct {
	mu       sync.RWMutex
	handlers map[string]Handler
	filter   func(from, to string, payload []byte) bool
}

// NewLocalNetwork creates a LocalNetwork
func NewLocalNetwork() *LocalNetwork {
	return &LocalNetwork{
		handlers: make(map[string]Handler),
	}
}

// Messenger returns the Messenger of the named member
func (n *LocalNetwork) Messenger(name string) Messenger {
	return &localMessenger{network: n, name: name}
}

// SetFilter installs a filter. Messages for which the filter returns false are lost.
func (n *LocalNetwork) SetFilter(filter func(from, to string, payload []byte) bool) {
	n.mu.Lock()
	n.filter = filter
	n.mu.Unlock()
}

// Detach removes the handler of the named member as if its process stopped
func (n *LocalNetwork) Detach(name string) {
	n.mu.Lock()
	delete(n.handlers, name)
	n.mu.Unlock()
}

func (n *LocalNetwork) route(ctx context.Context, from, to string, payload []byte) ([]byte, error) {
	n.mu.RLock()
	handler, ok := n.handlers[to]
	filter := n.filter
	n.mu.RUnlock()

	if !ok {
		return nil, gerrors.ErrPeerNotFound
	}

	if filter != nil && !filter(from, to, payload) {
		return nil, gerrors.ErrRequestTimeout
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	request := make([]byte, len(payload))
	copy(request, payload)
	return handler(ctx, from, request)
}

type localMessenger struct {
	network *LocalNetwork
	name    string
}

var _ Messenger = (*localMessenger)(nil)

func (m *localMessenger) Request(ctx context.Context, to string, payload []byte) ([]byte, error) {
	return m.network.route(ctx, m.name, to, payload)
}

func (m *localMessenger) Handle(handler Handler) {
	m.network.mu.Lock()
	m.network.handlers[m.name] = handler
	m.network.mu.Unlock()
}
