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
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/flowchartsman/retry"
	"github.com/google/uuid"
	"github.com/hashicorp/memberlist"
	"go.uber.org/atomic"

	gerrors "github.com/tochemey/distro/errors"
	"github.com/tochemey/distro/internal/errorschain"
	"github.com/tochemey/distro/internal/xsync"
	"github.com/tochemey/distro/log"
)

// Node is a memberlist-backed cluster member.
// It is both the membership View and the Messenger of the local registry server.
// A node joins the cluster in the Joining state and becomes Up once MarkReady is called.
type Node struct {
	config     *Config
	mconfig    *memberlist.Config
	memberlist *memberlist.Memberlist
	delegate   *delegate
	started    *atomic.Bool
	pending    *xsync.Map[string, chan *frame]
	handler    Handler
	logger     log.Logger
	createdAt  time.Time
	mu         sync.RWMutex
}

var (
	_ View      = (*Node)(nil)
	_ Messenger = (*Node)(nil)
)

// NewNode creates a Node from the given configuration
func NewNode(config *Config) (*Node, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	node := &Node{
		config:    config,
		started:   atomic.NewBool(false),
		pending:   xsync.NewMap[string, chan *frame](),
		logger:    config.logger,
		createdAt: time.Now().UTC(),
	}

	node.delegate = newDelegate(nodeMeta{CreatedAt: node.createdAt.UnixMilli()}, node.onMessage)

	mconfig := memberlist.DefaultLANConfig()
	mconfig.Name = config.name
	mconfig.BindAddr = config.host
	mconfig.BindPort = config.port
	mconfig.AdvertisePort = config.port
	mconfig.LogOutput = newLogWriter(config.logger)
	mconfig.Delegate = node.delegate
	mconfig.Events = &eventDelegate{self: config.name, logger: config.logger}
	node.mconfig = mconfig
	return node, nil
}

// Start creates the memberlist and joins the seed peers
func (n *Node) Start(ctx context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.started.Load() {
		return gerrors.ErrAlreadyStarted
	}

	if err := errorschain.
		New(errorschain.ReturnFirst()).
		AddErrorFn(n.create).
		AddErrorFn(func() error { return n.join(ctx) }).
		Error(); err != nil {
		if n.memberlist != nil {
			_ = n.memberlist.Shutdown()
		}
		return err
	}

	n.started.Store(true)
	n.logger.Infof("%s successfully started on %s", n.config.name, n.config.Address())
	return nil
}

// Stop leaves the cluster and shuts the memberlist down
func (n *Node) Stop(context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if !n.started.Load() {
		return nil
	}
	n.started.Store(false)

	if err := errorschain.
		New(errorschain.ReturnFirst()).
		AddError(n.memberlist.Leave(n.config.shutdownTimeout)).
		AddError(n.memberlist.Shutdown()).
		Error(); err != nil {
		n.logger.Error(fmt.Errorf("%s failed to stop: %w", n.config.name, err))
		return err
	}

	n.logger.Infof("%s successfully stopped", n.config.name)
	return nil
}

// MarkReady advertises the local node as Up
func (n *Node) MarkReady(context.Context) error {
	if !n.started.Load() {
		return gerrors.ErrNotStarted
	}

	n.delegate.setReady(true)
	return n.memberlist.UpdateNode(n.config.shutdownTimeout)
}

// Self returns the local node name
func (n *Node) Self() string {
	return n.config.name
}

// Members returns the members known to memberlist. Dead members are not listed.
func (n *Node) Members() []Member {
	if !n.started.Load() {
		state := Joining
		if n.delegate.ready() {
			state = Up
		}
		return []Member{{Name: n.config.name, Address: n.config.Address(), State: state, CreatedAt: n.createdAt}}
	}

	nodes := n.memberlist.Members()
	members := make([]Member, 0, len(nodes))
	for _, node := range nodes {
		members = append(members, memberFromNode(node))
	}
	return members
}

// Handle sets the handler of inbound requests
func (n *Node) Handle(handler Handler) {
	n.mu.Lock()
	n.handler = handler
	n.mu.Unlock()
}

// Request sends payload to the named member and waits for its reply
func (n *Node) Request(ctx context.Context, to string, payload []byte) ([]byte, error) {
	if !n.started.Load() {
		return nil, gerrors.ErrNotStarted
	}

	if to == n.config.name {
		return n.serveLocal(ctx, n.config.name, payload)
	}

	target := n.lookup(to)
	if target == nil {
		return nil, gerrors.ErrPeerNotFound
	}

	id := uuid.NewString()
	replyCh := make(chan *frame, 1)
	n.pending.Set(id, replyCh)
	defer n.pending.Delete(id)

	bytea, err := encodeFrame(&frame{ID: id, From: n.config.name, Payload: payload})
	if err != nil {
		return nil, err
	}

	if err := n.memberlist.SendReliable(target, bytea); err != nil {
		return nil, fmt.Errorf("failed to send request to %s: %w", to, err)
	}

	timer := time.NewTimer(n.config.requestTimeout)
	defer timer.Stop()

	select {
	case reply := <-replyCh:
		if reply.Error != "" {
			return nil, errors.New(reply.Error)
		}
		return reply.Payload, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return nil, gerrors.ErrRequestTimeout
	}
}

func (n *Node) create() error {
	mlist, err := memberlist.Create(n.mconfig)
	if err != nil {
		n.logger.Error(fmt.Errorf("failed to create memberlist: %w", err))
		return err
	}
	n.memberlist = mlist
	return nil
}

func (n *Node) join(ctx context.Context) error {
	if len(n.config.peers) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, n.config.joinTimeout)
	defer cancel()

	retrier := retry.NewRetrier(n.config.maxJoinAttempts, n.config.joinRetryInterval, n.config.joinRetryInterval)
	if err := retrier.RunContext(ctx, func(context.Context) error {
		_, err := n.memberlist.Join(n.config.peers)
		return err
	}); err != nil {
		n.logger.Error(fmt.Errorf("failed to join cluster: %w", err))
		return err
	}

	n.logger.Infof("%s successfully joined cluster: %v", n.config.name, n.config.peers)
	return nil
}

func (n *Node) lookup(name string) *memberlist.Node {
	for _, node := range n.memberlist.Members() {
		if node.Name == name {
			return node
		}
	}
	return nil
}

func (n *Node) currentHandler() Handler {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.handler
}

func (n *Node) onMessage(bytea []byte) {
	f, err := decodeFrame(bytea)
	if err != nil {
		n.logger.Warnf("%s dropped malformed message: %v", n.config.name, err)
		return
	}

	if f.Reply {
		if replyCh, ok := n.pending.LoadAndDelete(f.ID); ok {
			replyCh <- f
		}
		return
	}

	// serving must not block memberlist's message loop
	go n.serve(f)
}

func (n *Node) serve(request *frame) {
	ctx, cancel := context.WithTimeout(context.Background(), n.config.requestTimeout)
	defer cancel()

	reply := &frame{ID: request.ID, From: n.config.name, Reply: true}
	payload, err := n.serveLocal(ctx, request.From, request.Payload)
	reply.Payload = payload
	if err != nil {
		reply.Error = err.Error()
	}

	target := n.lookup(request.From)
	if target == nil {
		n.logger.Warnf("%s cannot reply to unknown member=%s", n.config.name, request.From)
		return
	}

	bytea, err := encodeFrame(reply)
	if err != nil {
		n.logger.Error(fmt.Errorf("failed to encode reply: %w", err))
		return
	}

	if err := n.memberlist.SendReliable(target, bytea); err != nil {
		n.logger.Warnf("%s failed to reply to %s: %v", n.config.name, request.From, err)
	}
}

func (n *Node) serveLocal(ctx context.Context, from string, payload []byte) ([]byte, error) {
	handler := n.currentHandler()
	if handler == nil {
		return nil, gerrors.ErrNotStarted
	}
	return handler(ctx, from, payload)
}

func unixTime(millis int64) time.Time {
	return time.UnixMilli(millis).UTC()
}
