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

package datastore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/tochemey/distro/distro"
	"github.com/tochemey/distro/internal/eventstream"
)

func TestProcessor(t *testing.T) {
	defer goleak.VerifyNone(t)

	bus := eventstream.New()
	defer bus.Close()

	events := make(chan ChangeEvent, 16)
	eventstream.Subscribe(bus, Topic("instances"), func(event ChangeEvent) {
		events <- event
	})

	store := NewStore("instances")
	processor := NewProcessor(store, bus)
	assert.Equal(t, "instances", processor.ProcessType())

	key := distro.NewKey("instances", "svc1")
	next := func() ChangeEvent {
		select {
		case event := <-events:
			return event
		case <-time.After(time.Second):
			require.Fail(t, "no change event")
			return ChangeEvent{}
		}
	}

	t.Run("With local write", func(t *testing.T) {
		datum := processor.Write(key, []byte("i1"))
		event := next()
		assert.True(t, event.Local)
		assert.Equal(t, distro.Change, event.Operation)
		assert.Equal(t, datum, event.Datum)
	})
	t.Run("With replicated change", func(t *testing.T) {
		current, _ := store.Get(key)
		newer := distro.Datum{Key: key, Payload: []byte("i2"), Timestamp: current.Timestamp + 1}
		require.True(t, processor.ProcessData(distro.Change, newer))
		event := next()
		assert.False(t, event.Local)
		assert.Equal(t, []byte("i2"), event.Datum.Payload)
		assert.NotEmpty(t, event.Datum.Digest)

		// stale and duplicated versions are discarded silently
		assert.False(t, processor.ProcessData(distro.Change, newer))
		assert.False(t, processor.ProcessData(distro.Add, current))
		assert.False(t, processor.ProcessData(distro.DataOperation(42), newer))
	})
	t.Run("With replicated delete", func(t *testing.T) {
		require.True(t, processor.ProcessData(distro.Delete, distro.Datum{Key: key}))
		event := next()
		assert.Equal(t, distro.Delete, event.Operation)
		assert.False(t, processor.ProcessData(distro.Delete, distro.Datum{Key: key}))
	})
	t.Run("With snapshot", func(t *testing.T) {
		data := []distro.Datum{
			{Key: distro.NewKey("instances", "a"), Payload: []byte("a"), Timestamp: 1},
			{Key: distro.NewKey("instances", "b"), Payload: []byte("b"), Timestamp: 1},
		}
		require.NoError(t, processor.ProcessSnapshot(data))
		next()
		next()
		assert.Equal(t, 2, store.Len())
	})
	t.Run("With local delete", func(t *testing.T) {
		assert.True(t, processor.Delete(distro.NewKey("instances", "a")))
		event := next()
		assert.True(t, event.Local)
		assert.False(t, processor.Delete(distro.NewKey("instances", "a")))
	})
}
