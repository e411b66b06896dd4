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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gerrors "github.com/tochemey/distro/errors"
)

func TestComponentHolder(t *testing.T) {
	holder := NewComponentHolder()
	instances := newMemStorage("instances")
	subscribers := newMemStorage("subscribers")

	require.NoError(t, holder.Register(subscribers, subscribers))
	require.NoError(t, holder.Register(instances, instances))
	assert.Equal(t, []string{"instances", "subscribers"}, holder.BusinessTypes())

	t.Run("With duplicate registration", func(t *testing.T) {
		err := holder.Register(instances, instances)
		assert.ErrorIs(t, err, gerrors.ErrDuplicateBusinessType)
	})
	t.Run("With mismatched processor", func(t *testing.T) {
		err := holder.Register(newMemStorage("a"), newMemStorage("b"))
		require.Error(t, err)
		_, err = holder.Get("a")
		assert.ErrorIs(t, err, gerrors.ErrUnknownBusinessType)
	})
	t.Run("With empty business type", func(t *testing.T) {
		err := holder.Register(newMemStorage(""), newMemStorage(""))
		assert.ErrorIs(t, err, gerrors.ErrUnknownBusinessType)
	})
	t.Run("With lookup", func(t *testing.T) {
		component, err := holder.Get("instances")
		require.NoError(t, err)
		assert.Same(t, instances, component.Storage)
	})
	t.Run("With initialization status", func(t *testing.T) {
		assert.False(t, holder.IsInitialized())
		instances.FinishInitial()
		assert.False(t, holder.IsInitialized())
		subscribers.FinishInitial()
		assert.True(t, holder.IsInitialized())
	})
}
