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
	"sync"

	mapset "github.com/deckarep/golang-set/v2"

	gerrors "github.com/tochemey/distro/errors"
)

// memStorage is a minimal DataStorage and DataProcessor used by the package tests
type memStorage struct {
	mu          sync.Mutex
	kind        string
	data        map[Key]Datum
	initialized bool
}

func newMemStorage(kind string) *memStorage {
	return &memStorage{kind: kind, data: make(map[Key]Datum)}
}

func (m *memStorage) BusinessType() string { return m.kind }
func (m *memStorage) ProcessType() string  { return m.kind }

func (m *memStorage) Put(key Key, datum Datum) {
	m.mu.Lock()
	datum.Key = key
	m.data[key] = datum
	m.mu.Unlock()
}

func (m *memStorage) Get(key Key) (Datum, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	datum, ok := m.data[key]
	return datum, ok
}

func (m *memStorage) Remove(key Key) {
	m.mu.Lock()
	delete(m.data, key)
	m.mu.Unlock()
}

func (m *memStorage) AllKeys() mapset.Set[Key] {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := mapset.NewSet[Key]()
	for key := range m.data {
		keys.Add(key)
	}
	return keys
}

func (m *memStorage) Snapshot() map[Key]Datum {
	m.mu.Lock()
	defer m.mu.Unlock()
	snapshot := make(map[Key]Datum, len(m.data))
	for key, datum := range m.data {
		snapshot[key] = datum
	}
	return snapshot
}

func (m *memStorage) VerifyDigestsFor(keys []Key) map[Key][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	digests := make(map[Key][]byte)
	for _, key := range keys {
		if datum, ok := m.data[key]; ok {
			digests[key] = datum.Digest
		}
	}
	return digests
}

func (m *memStorage) FinishInitial() {
	m.mu.Lock()
	m.initialized = true
	m.mu.Unlock()
}

func (m *memStorage) IsFinishInitial() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.initialized
}

func (m *memStorage) ProcessData(op DataOperation, datum Datum) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.data[datum.Key]
	if op == Delete {
		delete(m.data, datum.Key)
		return ok
	}
	if ok && current.Timestamp >= datum.Timestamp {
		return false
	}
	m.data[datum.Key] = datum
	return true
}

func (m *memStorage) ProcessSnapshot(data []Datum) error {
	for _, datum := range data {
		m.ProcessData(Add, datum)
	}
	return nil
}

// stubTransport records pushes and lets tests block pulls
type stubTransport struct {
	mu       sync.Mutex
	synced   []string
	syncErr  error
	pulls    chan Key
	release  chan struct{}
	snapshot func(businessType, target string) ([]Datum, error)
	remote   map[Key]Datum
}

var _ TransportAgent = (*stubTransport)(nil)

func newStubTransport() *stubTransport {
	return &stubTransport{
		remote: make(map[Key]Datum),
		snapshot: func(string, string) ([]Datum, error) {
			return nil, gerrors.ErrNotInitialized
		},
	}
}

func (s *stubTransport) SupportCallbackTransport() bool { return false }

func (s *stubTransport) SyncData(_ context.Context, op DataOperation, datum Datum, target string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.synced = append(s.synced, op.String()+" "+datum.Key.String()+"@"+target)
	return s.syncErr
}

func (s *stubTransport) SyncDataWithCallback(ctx context.Context, op DataOperation, datum Datum, target string, callback Callback) {
	if err := s.SyncData(ctx, op, datum, target); err != nil {
		callback.OnFailed(err)
		return
	}
	callback.OnSuccess()
}

func (s *stubTransport) SyncVerifyData(context.Context, string, []VerifyEntry, string) error {
	return nil
}

func (s *stubTransport) GetData(ctx context.Context, key Key, _ string) (Datum, error) {
	if s.pulls != nil {
		s.pulls <- key
	}
	if s.release != nil {
		select {
		case <-s.release:
		case <-ctx.Done():
			return Datum{}, ctx.Err()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	datum, ok := s.remote[key]
	if !ok {
		return Datum{}, gerrors.ErrDatumNotFound
	}
	return datum, nil
}

func (s *stubTransport) GetDatumSnapshot(_ context.Context, businessType, target string) ([]Datum, error) {
	return s.snapshot(businessType, target)
}

func (s *stubTransport) pushes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.synced...)
}
