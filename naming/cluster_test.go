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

package naming_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/tochemey/distro/cluster"
	"github.com/tochemey/distro/datastore"
	"github.com/tochemey/distro/distro"
	"github.com/tochemey/distro/internal/eventstream"
	"github.com/tochemey/distro/internal/pause"
	"github.com/tochemey/distro/log"
	"github.com/tochemey/distro/naming"
	"github.com/tochemey/distro/redo"
)

type server struct {
	bus      *eventstream.Bus
	store    *datastore.Store
	protocol *distro.Protocol
	registry *naming.Registry
}

func startServer(t *testing.T, network *cluster.LocalNetwork, name string, members ...string) *server {
	t.Helper()
	peers := make([]cluster.Member, 0, len(members))
	for _, member := range members {
		peers = append(peers, cluster.Member{Name: member, Address: member, State: cluster.Up})
	}

	view := cluster.NewStaticView(name, peers...)
	bus := eventstream.New()
	store := datastore.NewStore(naming.BusinessType)
	processor := datastore.NewProcessor(store, bus)
	holder := distro.NewComponentHolder()
	require.NoError(t, holder.Register(store, processor))

	transport := distro.NewTransport(network.Messenger(name), view, log.DiscardLogger)
	protocol := distro.NewProtocol(holder, view, transport,
		distro.WithLogger(log.DiscardLogger),
		distro.WithConfig(distro.NewConfig().
			WithSyncDelay(10*time.Millisecond).
			WithTaskScanInterval(5*time.Millisecond).
			WithRetryBackoff(20*time.Millisecond, 100*time.Millisecond).
			WithVerifyInterval(100*time.Millisecond).
			WithLoadRetry(2, 20*time.Millisecond)))
	transport.Bind(protocol)

	registry := naming.NewRegistry(store, processor, protocol, bus, naming.WithLogger(log.DiscardLogger))
	return &server{bus: bus, store: store, protocol: protocol, registry: registry}
}

func (s *server) start(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, s.protocol.Start(ctx))
	require.NoError(t, s.registry.Start(ctx))
}

func (s *server) stop(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, s.registry.Stop(ctx))
	require.NoError(t, s.protocol.Stop(ctx))
	s.bus.Close()
}

func twoServers(t *testing.T) (*cluster.LocalNetwork, *server, *server) {
	t.Helper()
	network := cluster.NewLocalNetwork()
	first := startServer(t, network, "node-1", "node-1", "node-2")
	second := startServer(t, network, "node-2", "node-1", "node-2")
	first.start(t)
	second.start(t)
	require.Eventually(t, func() bool {
		return first.protocol.IsInitialized() && second.protocol.IsInitialized()
	}, 2*time.Second, 10*time.Millisecond)
	return network, first, second
}

func hasInstance(s *server, service, id string) bool {
	for _, instance := range s.registry.Instances(service) {
		if instance.ID == id {
			return true
		}
	}
	return false
}

func TestRegistrationReplicated(t *testing.T) {
	defer goleak.VerifyNone(t)
	ctx := context.Background()

	t.Run("With a registration pushed to the peer", func(t *testing.T) {
		_, first, second := twoServers(t)
		defer first.stop(t)
		defer second.stop(t)

		require.NoError(t, first.registry.Register(ctx, "client-1", "svc1", naming.Instance{ID: "i1", IP: "10.0.0.1", Port: 80}))
		assert.True(t, hasInstance(first, "svc1", "i1"))

		require.Eventually(t, func() bool { return hasInstance(second, "svc1", "i1") }, 2*time.Second, 10*time.Millisecond)
	})
	t.Run("With a registration made during a partition", func(t *testing.T) {
		network, first, second := twoServers(t)
		defer first.stop(t)
		defer second.stop(t)

		network.SetFilter(func(_, _ string, _ []byte) bool { return false })

		require.NoError(t, first.registry.Register(ctx, "client-1", "svc1", naming.Instance{ID: "i1"}))
		assert.True(t, hasInstance(first, "svc1", "i1"))
		pause.For(100 * time.Millisecond)
		assert.False(t, hasInstance(second, "svc1", "i1"))

		network.SetFilter(nil)
		require.Eventually(t, func() bool { return hasInstance(second, "svc1", "i1") }, 2*time.Second, 10*time.Millisecond)
	})
}

// switchableExecutor is the client side of a connection that can move between servers
type switchableExecutor struct {
	mu      sync.Mutex
	current redo.Executor
}

func (e *switchableExecutor) set(executor redo.Executor) {
	e.mu.Lock()
	e.current = executor
	e.mu.Unlock()
}

func (e *switchableExecutor) get() redo.Executor {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current
}

func (e *switchableExecutor) Register(ctx context.Context, data *redo.Data) error {
	return e.get().Register(ctx, data)
}

func (e *switchableExecutor) Deregister(ctx context.Context, data *redo.Data) error {
	return e.get().Deregister(ctx, data)
}

func (e *switchableExecutor) Subscribe(ctx context.Context, data *redo.Data) error {
	return e.get().Subscribe(ctx, data)
}

func (e *switchableExecutor) Unsubscribe(ctx context.Context, data *redo.Data) error {
	return e.get().Unsubscribe(ctx, data)
}

func TestRedoAfterReconnect(t *testing.T) {
	defer goleak.VerifyNone(t)
	ctx := context.Background()

	_, first, second := twoServers(t)
	defer first.stop(t)
	defer second.stop(t)

	executor := &switchableExecutor{current: naming.NewLocalExecutor(first.registry, "conn-1")}
	client := redo.NewService(executor,
		redo.WithInterval(50*time.Millisecond),
		redo.WithInitialDelay(10*time.Millisecond),
		redo.WithLogger(log.DiscardLogger))
	require.NoError(t, client.Start(ctx))
	defer func() { require.NoError(t, client.Shutdown(ctx)) }()

	client.OnConnected()
	payload, err := naming.EncodeInstance(naming.Instance{ID: "i1", IP: "10.0.0.1", Port: 80})
	require.NoError(t, err)
	require.NoError(t, client.Register(ctx, "svc1", payload))
	require.NoError(t, client.Subscribe(ctx, "svc1"))

	data, ok := client.Get(redo.Instance, "svc1")
	require.True(t, ok)
	assert.True(t, data.Registered())
	require.Eventually(t, func() bool { return hasInstance(second, "svc1", "i1") }, 2*time.Second, 10*time.Millisecond)

	// the connection to node-1 drops, node-1 forgets the session
	client.OnDisConnect()
	first.registry.ClientDisconnected("conn-1")
	data, _ = client.Get(redo.Instance, "svc1")
	assert.False(t, data.Registered())

	// the client reconnects to node-2
	executor.set(naming.NewLocalExecutor(second.registry, "conn-2"))
	client.OnConnected()

	require.Eventually(t, func() bool {
		data, _ := client.Get(redo.Instance, "svc1")
		subscriber, _ := client.Get(redo.Subscriber, "svc1")
		return data.Registered() && subscriber.Registered()
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"conn-2"}, second.registry.Subscribers("svc1"))

	// both servers converge on the instance registered through node-2
	for _, s := range []*server{first, second} {
		require.Eventually(t, func() bool {
			instances := s.registry.Instances("svc1")
			return len(instances) == 1 && instances[0].ID == "i1"
		}, 2*time.Second, 10*time.Millisecond)
	}
}
