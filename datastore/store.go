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
	"sync"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"go.uber.org/atomic"

	"github.com/tochemey/distro/distro"
	"github.com/tochemey/distro/hash"
)

const defaultShards = 32

// Store is the in-memory data of one business type.
// Keys are spread over RW-locked shards so writers of different keys rarely contend.
type Store struct {
	businessType string
	shards       []*shard
	hasher       hash.Hasher
	initialized  *atomic.Bool
	clock        func() time.Time
}

type shard struct {
	sync.RWMutex
	data map[distro.Key]distro.Datum
}

var _ distro.DataStorage = (*Store)(nil)

// NewStore creates an empty Store for the business type
func NewStore(businessType string) *Store {
	shards := make([]*shard, defaultShards)
	for i := range shards {
		shards[i] = &shard{data: make(map[distro.Key]distro.Datum)}
	}

	return &Store{
		businessType: businessType,
		shards:       shards,
		hasher:       hash.DefaultHasher(),
		initialized:  atomic.NewBool(false),
		clock:        time.Now,
	}
}

// BusinessType returns the business type of the store
func (s *Store) BusinessType() string {
	return s.businessType
}

// Put stores datum under key unconditionally
func (s *Store) Put(key distro.Key, datum distro.Datum) {
	datum.Key = key
	if len(datum.Digest) == 0 {
		datum.Digest = hash.Digest(datum.Payload)
	}

	sh := s.shard(key)
	sh.Lock()
	sh.data[key] = datum
	sh.Unlock()
}

// Get returns the datum stored under key
func (s *Store) Get(key distro.Key) (distro.Datum, bool) {
	sh := s.shard(key)
	sh.RLock()
	datum, ok := sh.data[key]
	sh.RUnlock()
	return datum, ok
}

// Remove deletes the datum stored under key
func (s *Store) Remove(key distro.Key) {
	s.Delete(key)
}

// Delete deletes the datum stored under key and reports whether it existed
func (s *Store) Delete(key distro.Key) bool {
	sh := s.shard(key)
	sh.Lock()
	defer sh.Unlock()
	if _, ok := sh.data[key]; !ok {
		return false
	}
	delete(sh.data, key)
	return true
}

// Write stores a local change of key. The new version gets a timestamp newer than both
// the local clock and the stored version.
func (s *Store) Write(key distro.Key, payload []byte) distro.Datum {
	sh := s.shard(key)
	sh.Lock()
	defer sh.Unlock()

	timestamp := uint64(s.clock().UnixNano())
	if current, ok := sh.data[key]; ok && current.Timestamp >= timestamp {
		timestamp = current.Timestamp + 1
	}

	datum := distro.Datum{
		Key:       key,
		Payload:   payload,
		Digest:    hash.Digest(payload),
		Timestamp: timestamp,
	}
	sh.data[key] = datum
	return datum
}

// Apply stores a replicated datum when it is newer than the stored version and
// reports whether the store changed. Applying the same datum twice is a no-op.
func (s *Store) Apply(datum distro.Datum) bool {
	if len(datum.Digest) == 0 {
		datum.Digest = hash.Digest(datum.Payload)
	}

	sh := s.shard(datum.Key)
	sh.Lock()
	defer sh.Unlock()
	if current, ok := sh.data[datum.Key]; ok && datum.Timestamp <= current.Timestamp {
		return false
	}
	sh.data[datum.Key] = datum
	return true
}

// AllKeys returns the stored keys
func (s *Store) AllKeys() mapset.Set[distro.Key] {
	keys := mapset.NewSet[distro.Key]()
	for _, sh := range s.shards {
		sh.RLock()
		for key := range sh.data {
			keys.Add(key)
		}
		sh.RUnlock()
	}
	return keys
}

// Len returns the number of stored keys
func (s *Store) Len() int {
	size := 0
	for _, sh := range s.shards {
		sh.RLock()
		size += len(sh.data)
		sh.RUnlock()
	}
	return size
}

// Snapshot returns a copy of every stored datum
func (s *Store) Snapshot() map[distro.Key]distro.Datum {
	snapshot := make(map[distro.Key]distro.Datum)
	for _, sh := range s.shards {
		sh.RLock()
		for key, datum := range sh.data {
			snapshot[key] = datum
		}
		sh.RUnlock()
	}
	return snapshot
}

// VerifyDigestsFor returns the digests of the given keys that are stored locally
func (s *Store) VerifyDigestsFor(keys []distro.Key) map[distro.Key][]byte {
	digests := make(map[distro.Key][]byte, len(keys))
	for _, key := range keys {
		if datum, ok := s.Get(key); ok {
			digests[key] = datum.Digest
		}
	}
	return digests
}

// FinishInitial marks the initial load as done
func (s *Store) FinishInitial() {
	s.initialized.Store(true)
}

// IsFinishInitial reports whether the initial load is done
func (s *Store) IsFinishInitial() bool {
	return s.initialized.Load()
}

func (s *Store) shard(key distro.Key) *shard {
	index := s.hasher.HashCode([]byte(key.String())) % uint64(len(s.shards))
	return s.shards[index]
}
