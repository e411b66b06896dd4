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
	"sync"

	"github.com/hashicorp/memberlist"

	"github.com/tochemey/distro/internal/codec"
	"github.com/tochemey/distro/log"
)

type delegate struct {
	sync.RWMutex
	meta      nodeMeta
	onMessage func([]byte)
}

var (
	// enforce compilation error
	_ memberlist.Delegate      = (*delegate)(nil)
	_ memberlist.EventDelegate = (*eventDelegate)(nil)
)

func newDelegate(meta nodeMeta, onMessage func([]byte)) *delegate {
	return &delegate{
		meta:      meta,
		onMessage: onMessage,
	}
}

// NodeMeta is used to retrieve meta-data about the current node
// when broadcasting an alive message. Its length is limited to
// the given byte size.
func (x *delegate) NodeMeta(limit int) []byte {
	x.RLock()
	bytea, _ := codec.Marshal(x.meta)
	x.RUnlock()
	if len(bytea) > limit {
		return nil
	}
	return bytea
}

// NotifyMsg is called when a user-data message is received.
func (x *delegate) NotifyMsg(bytes []byte) {
	// memberlist may reuse the buffer once the call returns
	message := make([]byte, len(bytes))
	copy(message, bytes)
	x.onMessage(message)
}

func (x *delegate) GetBroadcasts(overhead, limit int) [][]byte { return nil }

func (x *delegate) LocalState(join bool) []byte { return nil }

func (x *delegate) MergeRemoteState(buf []byte, join bool) {}

func (x *delegate) setReady(ready bool) {
	x.Lock()
	x.meta.Ready = ready
	x.Unlock()
}

func (x *delegate) ready() bool {
	x.RLock()
	defer x.RUnlock()
	return x.meta.Ready
}

type eventDelegate struct {
	self   string
	logger log.Logger
}

func (x *eventDelegate) NotifyJoin(node *memberlist.Node) {
	if node.Name != x.self {
		x.logger.Infof("%s: member=%s joined", x.self, node.Name)
	}
}

func (x *eventDelegate) NotifyLeave(node *memberlist.Node) {
	x.logger.Infof("%s: member=%s left (state=%d)", x.self, node.Name, node.State)
}

func (x *eventDelegate) NotifyUpdate(node *memberlist.Node) {
	x.logger.Debugf("%s: member=%s updated", x.self, node.Name)
}

func memberFromNode(node *memberlist.Node) Member {
	member := Member{
		Name:    node.Name,
		Address: node.Address(),
		State:   Down,
	}

	var meta nodeMeta
	if len(node.Meta) > 0 {
		if err := codec.Unmarshal(node.Meta, &meta); err == nil && meta.CreatedAt > 0 {
			member.CreatedAt = unixTime(meta.CreatedAt)
		}
	}

	switch node.State {
	case memberlist.StateAlive:
		member.State = Up
		if !meta.Ready {
			member.State = Joining
		}
	case memberlist.StateSuspect:
		member.State = Suspicious
	}
	return member
}
