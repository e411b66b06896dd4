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
	"github.com/tochemey/distro/cluster"
	"github.com/tochemey/distro/hash"
)

// Mapper assigns each key a responsible owner among the Up members.
// The member list is read on every call, never cached.
type Mapper struct {
	view   cluster.View
	hasher hash.Hasher
}

// NewMapper creates a Mapper
func NewMapper(view cluster.View, hasher hash.Hasher) *Mapper {
	return &Mapper{view: view, hasher: hasher}
}

// Owner returns the name of the member responsible for key.
// The local member is returned when no member is Up.
func (m *Mapper) Owner(key Key) string {
	ups := cluster.UpMembers(m.view)
	if len(ups) == 0 {
		return m.view.Self()
	}
	index := m.hasher.HashCode([]byte(key.String())) % uint64(len(ups))
	return ups[index].Name
}

// Responsible reports whether the local member owns key
func (m *Mapper) Responsible(key Key) bool {
	return m.Owner(key) == m.view.Self()
}
