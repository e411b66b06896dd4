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
	"slices"
	"strings"
	"time"
)

// MemberState is the liveness state of a cluster member
type MemberState int

const (
	// Joining is a member that is reachable but has not finished loading its data
	Joining MemberState = iota
	// Up is a healthy member that takes part in data ownership
	Up
	// Suspicious is a member that missed its failure-detector probes
	Suspicious
	// Down is a member that left the cluster or has been declared dead
	Down
)

// String returns the state name
func (s MemberState) String() string {
	switch s {
	case Joining:
		return "JOINING"
	case Up:
		return "UP"
	case Suspicious:
		return "SUSPICIOUS"
	case Down:
		return "DOWN"
	default:
		return "UNKNOWN"
	}
}

// Member is a registry server as seen by the local node
type Member struct {
	Name      string
	Address   string
	State     MemberState
	CreatedAt time.Time
}

// IsUp reports whether the member is in the Up state
func (m Member) IsUp() bool {
	return m.State == Up
}

// View is the read side of the cluster membership.
// Implementations may change between calls, so callers should not cache the result.
type View interface {
	// Self returns the local member name
	Self() string
	// Members returns every known member including the local one
	Members() []Member
}

// Lookup returns the member with the given name
func Lookup(view View, name string) (Member, bool) {
	for _, member := range view.Members() {
		if member.Name == name {
			return member, true
		}
	}
	return Member{}, false
}

// UpMembers returns the members in the Up state sorted by name
func UpMembers(view View) []Member {
	members := view.Members()
	ups := make([]Member, 0, len(members))
	for _, member := range members {
		if member.IsUp() {
			ups = append(ups, member)
		}
	}

	slices.SortFunc(ups, func(a, b Member) int {
		return strings.Compare(a.Name, b.Name)
	})
	return ups
}

// UpPeers returns the members in the Up state except the local one
func UpPeers(view View) []Member {
	self := view.Self()
	return slices.DeleteFunc(UpMembers(view), func(member Member) bool {
		return member.Name == self
	})
}
