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
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tochemey/distro/cluster"
	"github.com/tochemey/distro/hash"
)

func TestMapper(t *testing.T) {
	members := []cluster.Member{
		{Name: "node-1", State: cluster.Up},
		{Name: "node-2", State: cluster.Up},
		{Name: "node-3", State: cluster.Up},
	}

	t.Run("With every member agreeing on the owner", func(t *testing.T) {
		mappers := make([]*Mapper, 0, len(members))
		for _, member := range members {
			mappers = append(mappers, NewMapper(cluster.NewStaticView(member.Name, members...), hash.DefaultHasher()))
		}

		owners := make(map[string]int)
		for i := range 300 {
			key := NewKey("instances", "svc"+strconv.Itoa(i))
			owner := mappers[0].Owner(key)
			owners[owner]++

			responsible := 0
			for _, mapper := range mappers {
				assert.Equal(t, owner, mapper.Owner(key))
				if mapper.Responsible(key) {
					responsible++
				}
			}
			assert.Equal(t, 1, responsible)
		}

		// every member owns a share of the keys
		assert.Len(t, owners, 3)
	})
	t.Run("With only Up members owning keys", func(t *testing.T) {
		view := cluster.NewStaticView("node-1", members...)
		view.SetState("node-2", cluster.Joining)
		view.SetState("node-3", cluster.Suspicious)
		mapper := NewMapper(view, hash.DefaultHasher())

		for i := range 50 {
			assert.True(t, mapper.Responsible(NewKey("instances", "svc"+strconv.Itoa(i))))
		}
	})
	t.Run("With no Up member the local member owns everything", func(t *testing.T) {
		view := cluster.NewStaticView("node-1", cluster.Member{Name: "node-1", State: cluster.Joining})
		mapper := NewMapper(view, hash.DefaultHasher())
		assert.Equal(t, "node-1", mapper.Owner(NewKey("instances", "svc")))
	})
	t.Run("With membership changes read on every call", func(t *testing.T) {
		view := cluster.NewStaticView("node-1", members...)
		mapper := NewMapper(view, hash.DefaultHasher())

		var key Key
		for i := range 100 {
			key = NewKey("instances", "svc"+strconv.Itoa(i))
			if mapper.Owner(key) == "node-2" {
				break
			}
		}
		assert.Equal(t, "node-2", mapper.Owner(key))

		view.Remove("node-2")
		assert.NotEqual(t, "node-2", mapper.Owner(key))
	})
}
