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

package naming

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	mapset "github.com/deckarep/golang-set/v2"
	"go.uber.org/atomic"

	"github.com/tochemey/distro/datastore"
	"github.com/tochemey/distro/distro"
	gerrors "github.com/tochemey/distro/errors"
	"github.com/tochemey/distro/healthcheck"
	"github.com/tochemey/distro/internal/eventstream"
	"github.com/tochemey/distro/internal/xsync"
	"github.com/tochemey/distro/log"
)

// Syncer replicates a local change of a key
type Syncer interface {
	Sync(key distro.Key, op distro.DataOperation)
}

var _ Syncer = (*distro.Protocol)(nil)

// Registry holds the ephemeral instances registered by the clients connected to the local
// member, and the instances of the whole cluster once replicated.
// Local registrations are written to the store before they are replicated, so they are
// visible to the next read on this member.
type Registry struct {
	// serializes the read-modify-write of instance lists
	mu sync.Mutex

	store     *datastore.Store
	processor *datastore.Processor
	syncer    Syncer
	bus       *eventstream.Bus
	reactor   *healthcheck.Reactor
	logger    log.Logger

	// service name -> instance keys of the service
	services *xsync.Map[string, mapset.Set[distro.Key]]
	// client id -> instance keys written by the client
	sessions *xsync.Map[string, mapset.Set[distro.Key]]
	// service name -> subscribed client ids
	subscribers *xsync.Map[string, mapset.Set[string]]

	subscriptions []*eventstream.Subscription
	started       *atomic.Bool
}

// NewRegistry creates a Registry on top of the instances store
func NewRegistry(store *datastore.Store, processor *datastore.Processor, syncer Syncer, bus *eventstream.Bus, opts ...Option) *Registry {
	registry := &Registry{
		store:       store,
		processor:   processor,
		syncer:      syncer,
		bus:         bus,
		logger:      log.DiscardLogger,
		services:    xsync.NewMap[string, mapset.Set[distro.Key]](),
		sessions:    xsync.NewMap[string, mapset.Set[distro.Key]](),
		subscribers: xsync.NewMap[string, mapset.Set[string]](),
		started:     atomic.NewBool(false),
	}

	for _, opt := range opts {
		opt.Apply(registry)
	}
	return registry
}

// Start indexes the stored instances and follows the replicated changes and the health
// status of the local client sessions
func (r *Registry) Start(context.Context) error {
	if !r.started.CompareAndSwap(false, true) {
		return gerrors.ErrAlreadyStarted
	}

	r.subscriptions = []*eventstream.Subscription{
		eventstream.Subscribe(r.bus, datastore.Topic(BusinessType), r.onChange),
		eventstream.Subscribe(r.bus, healthcheck.Topic, r.onStatusChanged),
	}

	for key := range r.store.AllKeys().Iter() {
		r.index(key)
	}
	return nil
}

// Stop stops following changes and cancels the health checks of the local sessions
func (r *Registry) Stop(context.Context) error {
	if !r.started.CompareAndSwap(true, false) {
		return nil
	}

	for _, subscription := range r.subscriptions {
		subscription.Unsubscribe()
	}
	r.subscriptions = nil

	if r.reactor != nil {
		for _, clientID := range r.sessions.Keys() {
			r.reactor.Cancel(clientID)
		}
	}
	return nil
}

// Register adds or replaces an instance of a service on behalf of a client
func (r *Registry) Register(ctx context.Context, clientID, service string, instance Instance) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := validate(clientID, service, instance.ID); err != nil {
		return err
	}

	key := InstanceKey(service, clientID)

	r.mu.Lock()
	instances, err := r.instancesOf(key)
	if err != nil {
		r.mu.Unlock()
		return err
	}

	instance.Healthy = r.sessionHealthy(clientID)
	instances = slices.DeleteFunc(instances, func(existing Instance) bool {
		return existing.ID == instance.ID
	})
	instances = append(instances, instance)

	if err := r.write(key, instances); err != nil {
		r.mu.Unlock()
		return err
	}

	keys, _ := r.sessions.GetOrSet(clientID, func() mapset.Set[distro.Key] {
		return mapset.NewSet[distro.Key]()
	})
	keys.Add(key)
	r.addToService(service, key)
	r.mu.Unlock()

	r.syncer.Sync(key, distro.Change)
	r.logger.Debugf("registered %s of %s for client=%s", instance.ID, service, clientID)

	r.ensureHealthCheck(clientID)
	return nil
}

// ensureHealthCheck starts a health check for the session unless a live one exists
func (r *Registry) ensureHealthCheck(clientID string) {
	if r.reactor == nil {
		return
	}

	if task, ok := r.reactor.Task(clientID); ok && !task.IsCancelled() {
		return
	}

	if err := r.reactor.Schedule(healthcheck.NewTask(clientID, clientID, r.reactor.Params())); err != nil {
		r.logger.Warnf("failed to schedule health check of client=%s: %v", clientID, err)
	}
}

// Deregister removes an instance of a service on behalf of a client.
// Removing an unknown instance is a no-op.
func (r *Registry) Deregister(ctx context.Context, clientID, service, instanceID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := validate(clientID, service, instanceID); err != nil {
		return err
	}

	key := InstanceKey(service, clientID)

	r.mu.Lock()
	instances, err := r.instancesOf(key)
	if err != nil {
		r.mu.Unlock()
		return err
	}

	remaining := slices.DeleteFunc(slices.Clone(instances), func(existing Instance) bool {
		return existing.ID == instanceID
	})
	if len(remaining) == len(instances) {
		r.mu.Unlock()
		return nil
	}

	if len(remaining) > 0 {
		err := r.write(key, remaining)
		r.mu.Unlock()
		if err != nil {
			return err
		}
		r.syncer.Sync(key, distro.Change)
		return nil
	}

	r.removeKey(clientID, key)
	r.mu.Unlock()
	r.syncer.Sync(key, distro.Delete)
	r.logger.Debugf("deregistered %s of %s for client=%s", instanceID, service, clientID)
	return nil
}

// Subscribe subscribes a client to a service and returns its current instances
func (r *Registry) Subscribe(clientID, service string) []Instance {
	clients, _ := r.subscribers.GetOrSet(service, func() mapset.Set[string] {
		return mapset.NewSet[string]()
	})
	clients.Add(clientID)
	return r.Instances(service)
}

// Unsubscribe cancels the subscription of a client to a service
func (r *Registry) Unsubscribe(clientID, service string) {
	if clients, ok := r.subscribers.Get(service); ok {
		clients.Remove(clientID)
	}
}

// Subscribers returns the clients subscribed to a service sorted by id
func (r *Registry) Subscribers(service string) []string {
	clients, ok := r.subscribers.Get(service)
	if !ok {
		return nil
	}
	subscribers := clients.ToSlice()
	slices.Sort(subscribers)
	return subscribers
}

// Instances returns the instances of a service registered anywhere in the cluster, sorted by id
func (r *Registry) Instances(service string) []Instance {
	keys, ok := r.services.Get(service)
	if !ok {
		return nil
	}

	result := make([]Instance, 0, keys.Cardinality())
	for key := range keys.Iter() {
		datum, ok := r.store.Get(key)
		if !ok {
			continue
		}

		instances, err := DecodeInstances(datum.Payload)
		if err != nil {
			r.logger.Warnf("skip %s: %v", key, err)
			continue
		}
		result = append(result, instances...)
	}

	slices.SortFunc(result, func(a, b Instance) int {
		return strings.Compare(a.ID, b.ID)
	})
	return result
}

// Services returns the names of the services with at least one instance, sorted
func (r *Registry) Services() []string {
	services := make([]string, 0, r.services.Len())
	r.services.Range(func(service string, keys mapset.Set[distro.Key]) {
		if keys.Cardinality() > 0 {
			services = append(services, service)
		}
	})
	slices.Sort(services)
	return services
}

// ClientDisconnected removes every instance and subscription of a client
// and cancels its health check
func (r *Registry) ClientDisconnected(clientID string) {
	if r.reactor != nil {
		r.reactor.Cancel(clientID)
	}

	r.subscribers.Range(func(_ string, clients mapset.Set[string]) {
		clients.Remove(clientID)
	})

	r.mu.Lock()
	keys, ok := r.sessions.Get(clientID)
	if !ok {
		r.mu.Unlock()
		return
	}

	removed := keys.ToSlice()
	for _, key := range removed {
		r.removeKey(clientID, key)
	}
	r.sessions.Delete(clientID)
	r.mu.Unlock()

	for _, key := range removed {
		r.syncer.Sync(key, distro.Delete)
	}
	r.logger.Infof("client=%s disconnected, removed %d keys", clientID, len(removed))
}

// onChange keeps the service index in line with the store
func (r *Registry) onChange(event datastore.ChangeEvent) {
	r.index(event.Key)
}

// onStatusChanged rewrites the health flag of every instance of a local client session
func (r *Registry) onStatusChanged(event healthcheck.StatusChanged) {
	r.mu.Lock()
	keys, ok := r.sessions.Get(event.TaskID)
	if !ok {
		r.mu.Unlock()
		return
	}

	changed := make([]distro.Key, 0, keys.Cardinality())
	for key := range keys.Iter() {
		instances, err := r.instancesOf(key)
		if err != nil || len(instances) == 0 {
			continue
		}

		for i := range instances {
			instances[i].Healthy = event.Healthy
		}

		if err := r.write(key, instances); err != nil {
			r.logger.Warnf("failed to update health of %s: %v", key, err)
			continue
		}
		changed = append(changed, key)
	}
	r.mu.Unlock()

	for _, key := range changed {
		r.syncer.Sync(key, distro.Change)
	}
	r.logger.Infof("client=%s healthy=%t, updated %d keys", event.TaskID, event.Healthy, len(changed))
}

func (r *Registry) index(key distro.Key) {
	service, _, ok := ParseInstanceKey(key)
	if !ok {
		return
	}

	if _, stored := r.store.Get(key); stored {
		r.addToService(service, key)
		return
	}

	if keys, ok := r.services.Get(service); ok {
		keys.Remove(key)
	}
}

func (r *Registry) addToService(service string, key distro.Key) {
	keys, _ := r.services.GetOrSet(service, func() mapset.Set[distro.Key] {
		return mapset.NewSet[distro.Key]()
	})
	keys.Add(key)
}

// removeKey deletes a key of a local session. It must be called with mu held.
func (r *Registry) removeKey(clientID string, key distro.Key) {
	r.processor.Delete(key)
	if keys, ok := r.sessions.Get(clientID); ok {
		keys.Remove(key)
	}

	service, _, _ := ParseInstanceKey(key)
	if keys, ok := r.services.Get(service); ok {
		keys.Remove(key)
	}
}

func (r *Registry) instancesOf(key distro.Key) ([]Instance, error) {
	datum, ok := r.store.Get(key)
	if !ok {
		return nil, nil
	}
	return DecodeInstances(datum.Payload)
}

func (r *Registry) write(key distro.Key, instances []Instance) error {
	payload, err := EncodeInstances(instances)
	if err != nil {
		return err
	}
	r.processor.Write(key, payload)
	return nil
}

func (r *Registry) sessionHealthy(clientID string) bool {
	if r.reactor == nil {
		return true
	}
	task, ok := r.reactor.Task(clientID)
	if !ok {
		return true
	}
	return task.Healthy()
}

func validate(clientID, service, instanceID string) error {
	switch {
	case clientID == "" || strings.Contains(clientID, keySeparator):
		return fmt.Errorf("%w: client id %q", gerrors.ErrInvalidInstance, clientID)
	case service == "":
		return fmt.Errorf("%w: empty service name", gerrors.ErrInvalidInstance)
	case instanceID == "":
		return fmt.Errorf("%w: empty instance id", gerrors.ErrInvalidInstance)
	default:
		return nil
	}
}
