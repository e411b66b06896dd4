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
	"context"
	"fmt"
	"time"

	"github.com/tochemey/distro/cluster"
	gerrors "github.com/tochemey/distro/errors"
	"github.com/tochemey/distro/internal/codec"
	"github.com/tochemey/distro/log"
)

// Transport implements TransportAgent on top of a cluster Messenger.
// Messages are msgpack encoded and compressed when large.
type Transport struct {
	messenger      cluster.Messenger
	view           cluster.View
	logger         log.Logger
	requestTimeout time.Duration
}

var _ TransportAgent = (*Transport)(nil)

// NewTransport creates a Transport
func NewTransport(messenger cluster.Messenger, view cluster.View, logger log.Logger) *Transport {
	return &Transport{
		messenger:      messenger,
		view:           view,
		logger:         logger,
		requestTimeout: DefaultRequestTimeout,
	}
}

// WithRequestTimeout sets the timeout applied to requests without deadline
func (t *Transport) WithRequestTimeout(timeout time.Duration) *Transport {
	t.requestTimeout = timeout
	return t
}

// Bind routes the inbound replication traffic to handler
func (t *Transport) Bind(handler Handler) {
	t.messenger.Handle(func(ctx context.Context, from string, payload []byte) ([]byte, error) {
		return codec.Marshal(t.serve(ctx, handler, from, payload))
	})
}

// SupportCallbackTransport reports that SyncDataWithCallback runs asynchronously
func (t *Transport) SupportCallbackTransport() bool {
	return true
}

// SyncData pushes a change to target.
// A target that is no longer part of the view is skipped and the push counts as delivered.
func (t *Transport) SyncData(ctx context.Context, op DataOperation, datum Datum, target string) error {
	member, ok := cluster.Lookup(t.view, target)
	if !ok {
		t.logger.Debugf("skip sync of %s to unknown member=%s", datum.Key, target)
		return nil
	}

	if !member.IsUp() {
		return fmt.Errorf("%w: %s is %s", gerrors.ErrPeerUnhealthy, target, member.State)
	}

	_, err := t.request(ctx, target, &request{Kind: kindSync, Operation: op, Datum: &datum, Key: datum.Key})
	return err
}

// SyncDataWithCallback pushes a change to target on a separate goroutine
func (t *Transport) SyncDataWithCallback(ctx context.Context, op DataOperation, datum Datum, target string, callback Callback) {
	go func() {
		if err := t.SyncData(ctx, op, datum, target); err != nil {
			callback.OnFailed(err)
			return
		}
		callback.OnSuccess()
	}()
}

// SyncVerifyData sends the local digests of a business type to target
func (t *Transport) SyncVerifyData(ctx context.Context, businessType string, entries []VerifyEntry, target string) error {
	member, ok := cluster.Lookup(t.view, target)
	if !ok {
		return fmt.Errorf("%w: %s", gerrors.ErrPeerNotFound, target)
	}

	if !member.IsUp() {
		return fmt.Errorf("%w: %s is %s", gerrors.ErrPeerUnhealthy, target, member.State)
	}

	_, err := t.request(ctx, target, &request{Kind: kindVerify, BusinessType: businessType, Entries: entries})
	return err
}

// GetData pulls one datum from target
func (t *Transport) GetData(ctx context.Context, key Key, target string) (Datum, error) {
	resp, err := t.request(ctx, target, &request{Kind: kindGet, Key: key})
	if err != nil {
		return Datum{}, err
	}

	if resp.Datum == nil {
		return Datum{}, fmt.Errorf("%w: %s", gerrors.ErrDatumNotFound, key)
	}
	return *resp.Datum, nil
}

// GetDatumSnapshot pulls every datum of a business type from target
func (t *Transport) GetDatumSnapshot(ctx context.Context, businessType, target string) ([]Datum, error) {
	resp, err := t.request(ctx, target, &request{Kind: kindSnapshot, BusinessType: businessType})
	if err != nil {
		return nil, err
	}
	return resp.Data, nil
}

func (t *Transport) request(ctx context.Context, target string, req *request) (*response, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.requestTimeout)
		defer cancel()
	}

	payload, err := codec.Marshal(req)
	if err != nil {
		return nil, err
	}

	bytea, err := t.messenger.Request(ctx, target, payload)
	if err != nil {
		return nil, fmt.Errorf("%s to %s failed: %w", req.Kind, target, err)
	}

	resp := new(response)
	if err := codec.Unmarshal(bytea, resp); err != nil {
		return nil, fmt.Errorf("%w: %v", gerrors.ErrInvalidMessage, err)
	}

	if err := resp.err(); err != nil {
		return nil, err
	}
	return resp, nil
}

func (t *Transport) serve(ctx context.Context, handler Handler, from string, payload []byte) *response {
	req := new(request)
	if err := codec.Unmarshal(payload, req); err != nil {
		return errorResponse(fmt.Errorf("%w: %v", gerrors.ErrInvalidMessage, err))
	}

	switch req.Kind {
	case kindSync:
		if req.Datum == nil {
			return errorResponse(fmt.Errorf("%w: sync without datum", gerrors.ErrInvalidMessage))
		}
		if err := handler.OnReceive(ctx, from, req.Operation, *req.Datum); err != nil {
			return errorResponse(err)
		}
		return &response{}
	case kindVerify:
		if err := handler.OnVerify(ctx, from, req.BusinessType, req.Entries); err != nil {
			return errorResponse(err)
		}
		return &response{}
	case kindGet:
		datum, err := handler.OnQuery(ctx, req.Key)
		if err != nil {
			return errorResponse(err)
		}
		return &response{Datum: &datum}
	case kindSnapshot:
		data, err := handler.OnSnapshot(ctx, req.BusinessType)
		if err != nil {
			return errorResponse(err)
		}
		return &response{Data: data}
	default:
		return errorResponse(fmt.Errorf("%w: unknown kind %s", gerrors.ErrInvalidMessage, req.Kind))
	}
}
