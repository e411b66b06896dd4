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
	"time"
)

// StaticView is a View whose members are set by hand.
// It is meant for single-node setups, embedding and tests.
type StaticView struct {
	mu      sync.RWMutex
	self    string
	members map[string]Member
}

var _ View = (*StaticView)(nil)

// NewStaticView creates a StaticView. The local member is added in the Up state when missing.
func NewStaticView(self string, members ...Member) *StaticView {
	view := &StaticView{
		self:    self,
		members: make(map[string]Member, len(members)+1),
	}

	for _, member := range members {
		view.members[member.Name] = member
	}

	if _, ok := view.members[self]; !ok {
		view.members[self] = Member{
			Name:      self,
			Address:   self,
			State:     Up,
			CreatedAt: time.Now().UTC(),
		}
	}
	return view
}

// Self returns the local member name
func (v *StaticView) Self() string {
	return v.self
}

// Members returns a copy of the members
func (v *StaticView) Members() []Member {
	v.mu.RLock()
	defer v.mu.RUnlock()
	members := make([]Member, 0, len(v.members))
	for _, member := range v.members {
		members = append(members, member)
	}
	return members
}

// Upsert adds or replaces a member
func (v *StaticView) Upsert(member Member) {
	v.mu.Lock()
	v.members[member.Name] = member
	v.mu.Unlock()
}

// SetState changes the state of a known member
func (v *StaticView) SetState(name string, state MemberState) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	member, ok := v.members[name]
	if !ok {
		return false
	}
	member.State = state
	v.members[name] = member
	return true
}

// Remove removes a member
func (v *StaticView) Remove(name string) {
	v.mu.Lock()
	delete(v.members, name)
	v.mu.Unlock()
}
