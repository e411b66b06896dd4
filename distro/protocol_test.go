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
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/tochemey/distro/cluster"
	gerrors "github.com/tochemey/distro/errors"
	"github.com/tochemey/distro/internal/pause"
	"github.com/tochemey/distro/log"
)

func testConfig() *Config {
	return NewConfig().
		WithSyncDelay(10*time.Millisecond).
		WithTaskScanInterval(5*time.Millisecond).
		WithRetryBackoff(20*time.Millisecond, 100*time.Millisecond).
		WithVerifyInterval(time.Hour).
		WithLoadRetry(2, 10*time.Millisecond).
		WithWorkers(2)
}

func newTestProtocol(t *testing.T, view cluster.View, transport TransportAgent) (*Protocol, *memStorage) {
	t.Helper()
	storage := newMemStorage("instances")
	holder := NewComponentHolder()
	require.NoError(t, holder.Register(storage, storage))
	protocol := NewProtocol(holder, view, transport, WithConfig(testConfig()), WithLogger(log.DiscardLogger))
	return protocol, storage
}

// keyOwnedBy returns a key whose responsible owner is the given member
func keyOwnedBy(t *testing.T, mapper *Mapper, owner string) Key {
	t.Helper()
	for i := range 1000 {
		key := NewKey("instances", "svc"+strconv.Itoa(i))
		if mapper.Owner(key) == owner {
			return key
		}
	}
	require.FailNow(t, "no key owned by "+owner)
	return Key{}
}

func twoMembers() *cluster.StaticView {
	return cluster.NewStaticView("node-1",
		cluster.Member{Name: "node-1", State: cluster.Up},
		cluster.Member{Name: "node-2", State: cluster.Up},
	)
}

func TestProtocolLifecycle(t *testing.T) {
	defer goleak.VerifyNone(t)

	transport := newStubTransport()
	protocol, storage := newTestProtocol(t, twoMembers(), transport)
	ctx := context.Background()

	require.NoError(t, protocol.Start(ctx))
	assert.ErrorIs(t, protocol.Start(ctx), gerrors.ErrAlreadyStarted)

	// the only peer is not initialized yet
	require.Eventually(t, storage.IsFinishInitial, time.Second, 5*time.Millisecond)
	assert.True(t, protocol.IsInitialized())

	require.NoError(t, protocol.Stop(ctx))
	require.NoError(t, protocol.Stop(ctx))
}

func TestProtocolInvalidConfig(t *testing.T) {
	storage := newMemStorage("instances")
	holder := NewComponentHolder()
	require.NoError(t, holder.Register(storage, storage))
	protocol := NewProtocol(holder, twoMembers(), newStubTransport(),
		WithConfig(NewConfig().WithWorkers(0)),
		WithLogger(log.DiscardLogger))

	err := protocol.Start(context.Background())
	var invalid *gerrors.InvalidConfigError
	assert.ErrorAs(t, err, &invalid)
}

func TestProtocolSync(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx := context.Background()
	view := twoMembers()
	view.Upsert(cluster.Member{Name: "node-3", State: cluster.Up})
	transport := newStubTransport()
	protocol, storage := newTestProtocol(t, view, transport)
	require.NoError(t, protocol.Start(ctx))
	defer func() { require.NoError(t, protocol.Stop(ctx)) }()

	t.Run("With owner pushing to every other member", func(t *testing.T) {
		key := keyOwnedBy(t, protocol.Mapper(), "node-1")
		storage.Put(key, Datum{Payload: []byte("a"), Timestamp: 1})
		protocol.Sync(key, Change)

		require.Eventually(t, func() bool { return len(transport.pushes()) == 2 }, time.Second, 5*time.Millisecond)
		assert.ElementsMatch(t, []string{
			"CHANGE " + key.String() + "@node-2",
			"CHANGE " + key.String() + "@node-3",
		}, transport.pushes())
	})
	t.Run("With non owner forwarding to the owner only", func(t *testing.T) {
		key := keyOwnedBy(t, protocol.Mapper(), "node-3")
		storage.Put(key, Datum{Payload: []byte("b"), Timestamp: 1})
		before := len(transport.pushes())
		protocol.Sync(key, Change)

		require.Eventually(t, func() bool { return len(transport.pushes()) == before+1 }, time.Second, 5*time.Millisecond)
		assert.Equal(t, "CHANGE "+key.String()+"@node-3", transport.pushes()[before])
	})
	t.Run("With datum removed before the push", func(t *testing.T) {
		key := keyOwnedBy(t, protocol.Mapper(), "node-3")
		storage.Remove(key)
		before := len(transport.pushes())
		protocol.Sync(key, Change)

		pause.For(100 * time.Millisecond)
		assert.Len(t, transport.pushes(), before)
		assert.Zero(t, protocol.pending())
	})
	t.Run("With delete pushed without payload", func(t *testing.T) {
		key := keyOwnedBy(t, protocol.Mapper(), "node-2")
		before := len(transport.pushes())
		protocol.Sync(key, Delete)

		require.Eventually(t, func() bool { return len(transport.pushes()) == before+1 }, time.Second, 5*time.Millisecond)
		assert.Equal(t, "DELETE "+key.String()+"@node-2", transport.pushes()[before])
	})
}

func TestProtocolRetry(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx := context.Background()
	view := twoMembers()
	transport := newStubTransport()
	transport.syncErr = errors.New("connection refused")
	protocol, storage := newTestProtocol(t, view, transport)
	require.NoError(t, protocol.Start(ctx))
	defer func() { require.NoError(t, protocol.Stop(ctx)) }()

	key := keyOwnedBy(t, protocol.Mapper(), "node-1")
	storage.Put(key, Datum{Payload: []byte("a"), Timestamp: 1})
	protocol.Sync(key, Change)

	t.Run("With failed pushes retried while the target is alive", func(t *testing.T) {
		require.Eventually(t, func() bool { return len(transport.pushes()) >= 3 }, 2*time.Second, 5*time.Millisecond)
	})
	t.Run("With failed pushes dropped once the target is down", func(t *testing.T) {
		view.SetState("node-2", cluster.Down)
		require.Eventually(t, func() bool { return protocol.pending() == 0 }, 2*time.Second, 5*time.Millisecond)

		// the task is not rescheduled anymore
		pause.For(200 * time.Millisecond)
		attempts := len(transport.pushes())
		pause.For(300 * time.Millisecond)
		assert.Len(t, transport.pushes(), attempts)
	})
}

func TestProtocolOnVerify(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx := context.Background()

	t.Run("With storage not initialized", func(t *testing.T) {
		protocol, _ := newTestProtocol(t, twoMembers(), newStubTransport())
		err := protocol.OnVerify(ctx, "node-2", "instances", nil)
		assert.ErrorIs(t, err, gerrors.ErrNotInitialized)

		_, err = protocol.OnSnapshot(ctx, "instances")
		assert.ErrorIs(t, err, gerrors.ErrNotInitialized)
	})
	t.Run("With unknown business type", func(t *testing.T) {
		protocol, _ := newTestProtocol(t, twoMembers(), newStubTransport())
		err := protocol.OnVerify(ctx, "node-2", "unknown", nil)
		assert.ErrorIs(t, err, gerrors.ErrUnknownBusinessType)
	})
	t.Run("With repairs pulled from the owner and stale keys evicted", func(t *testing.T) {
		transport := newStubTransport()
		protocol, storage := newTestProtocol(t, twoMembers(), transport)
		storage.FinishInitial()

		remoteKey := keyOwnedBy(t, protocol.Mapper(), "node-2")
		remote := Datum{Key: remoteKey, Payload: []byte("v2"), Digest: []byte("d2"), Timestamp: 2}
		transport.remote[remoteKey] = remote

		var staleKey Key
		for i := range 1000 {
			key := NewKey("instances", "stale"+strconv.Itoa(i))
			if protocol.Mapper().Owner(key) == "node-2" {
				staleKey = key
				break
			}
		}
		storage.Put(staleKey, Datum{Payload: []byte("old"), Digest: []byte("old"), Timestamp: 1})

		ownKey := keyOwnedBy(t, protocol.Mapper(), "node-1")
		own := Datum{Key: ownKey, Payload: []byte("mine"), Digest: []byte("mine"), Timestamp: 5}
		storage.Put(ownKey, own)

		err := protocol.OnVerify(ctx, "node-2", "instances", []VerifyEntry{
			{Key: remoteKey, Digest: remote.Digest},
			{Key: ownKey, Digest: []byte("other")},
		})
		require.NoError(t, err)

		got, ok := storage.Get(remoteKey)
		require.True(t, ok)
		assert.True(t, got.Equal(remote))

		_, ok = storage.Get(staleKey)
		assert.False(t, ok)

		// the local member is authoritative for its own keys
		got, ok = storage.Get(ownKey)
		require.True(t, ok)
		assert.True(t, got.Equal(own))
	})
	t.Run("With a local write still waiting for its push to the owner", func(t *testing.T) {
		transport := newStubTransport()
		protocol, storage := newTestProtocol(t, twoMembers(), transport)
		require.NoError(t, protocol.Start(ctx))
		defer func() { require.NoError(t, protocol.Stop(ctx)) }()
		require.Eventually(t, protocol.IsInitialized, time.Second, 5*time.Millisecond)

		key := keyOwnedBy(t, protocol.Mapper(), "node-2")
		storage.Put(key, Datum{Payload: []byte("fresh"), Digest: []byte("fresh"), Timestamp: 1})
		protocol.Sync(key, Change)

		// the owner has not received the write yet so it does not advertise it
		require.NoError(t, protocol.OnVerify(ctx, "node-2", "instances", nil))

		_, ok := storage.Get(key)
		assert.True(t, ok)
		require.Eventually(t, func() bool { return len(transport.pushes()) == 1 }, time.Second, 5*time.Millisecond)
		assert.Equal(t, "CHANGE "+key.String()+"@node-2", transport.pushes()[0])

		// once delivered, a key the owner no longer advertises is stale again
		require.Eventually(t, func() bool { return !protocol.pushing(key, "node-2") }, time.Second, 5*time.Millisecond)
		require.NoError(t, protocol.OnVerify(ctx, "node-2", "instances", nil))
		_, ok = storage.Get(key)
		assert.False(t, ok)
	})
	t.Run("With concurrent verify from the same source", func(t *testing.T) {
		transport := newStubTransport()
		transport.pulls = make(chan Key, 1)
		transport.release = make(chan struct{})
		protocol, storage := newTestProtocol(t, twoMembers(), transport)
		storage.FinishInitial()

		key := keyOwnedBy(t, protocol.Mapper(), "node-2")
		entries := []VerifyEntry{{Key: key, Digest: []byte("d")}}

		done := make(chan error, 1)
		go func() {
			done <- protocol.OnVerify(ctx, "node-2", "instances", entries)
		}()

		<-transport.pulls
		err := protocol.OnVerify(ctx, "node-2", "instances", entries)
		assert.ErrorIs(t, err, gerrors.ErrVerifyInProgress)

		close(transport.release)
		require.NoError(t, <-done)
	})
}

func TestProtocolOnQuery(t *testing.T) {
	protocol, storage := newTestProtocol(t, twoMembers(), newStubTransport())
	key := NewKey("instances", "svc")
	storage.Put(key, Datum{Payload: []byte("a"), Timestamp: 1})

	datum, err := protocol.OnQuery(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, []byte("a"), datum.Payload)

	_, err = protocol.OnQuery(context.Background(), NewKey("instances", "missing"))
	assert.ErrorIs(t, err, gerrors.ErrDatumNotFound)
}
