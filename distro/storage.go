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

	mapset "github.com/deckarep/golang-set/v2"
)

// DataStorage is the in-memory store of one business type
type DataStorage interface {
	// BusinessType returns the business type served by the storage
	BusinessType() string
	// Put stores the datum under key
	Put(key Key, datum Datum)
	// Get returns the datum stored under key
	Get(key Key) (Datum, bool)
	// Remove deletes the datum stored under key
	Remove(key Key)
	// AllKeys returns the stored keys
	AllKeys() mapset.Set[Key]
	// Snapshot returns a copy of every stored datum
	Snapshot() map[Key]Datum
	// VerifyDigestsFor returns the digests of the given keys that are stored locally
	VerifyDigestsFor(keys []Key) map[Key][]byte
	// FinishInitial marks the initial load from the cluster as done
	FinishInitial()
	// IsFinishInitial reports whether the initial load is done
	IsFinishInitial() bool
}

// DataProcessor applies inbound data of one business type
type DataProcessor interface {
	// ProcessType returns the business type handled by the processor
	ProcessType() string
	// ProcessData applies a replicated change and reports whether the local state changed
	ProcessData(op DataOperation, datum Datum) bool
	// ProcessSnapshot applies a bootstrap snapshot
	ProcessSnapshot(data []Datum) error
}

// Callback is notified of the completion of an asynchronous sync
type Callback interface {
	OnSuccess()
	OnFailed(err error)
}

// TransportAgent delivers replication traffic to a named peer
type TransportAgent interface {
	// SupportCallbackTransport reports whether SyncDataWithCallback is asynchronous
	SupportCallbackTransport() bool
	// SyncData pushes a change to target and waits for the acknowledgement
	SyncData(ctx context.Context, op DataOperation, datum Datum, target string) error
	// SyncDataWithCallback pushes a change to target and reports the outcome to callback
	SyncDataWithCallback(ctx context.Context, op DataOperation, datum Datum, target string, callback Callback)
	// SyncVerifyData sends the local digests of a business type to target
	SyncVerifyData(ctx context.Context, businessType string, entries []VerifyEntry, target string) error
	// GetData pulls one datum from target
	GetData(ctx context.Context, key Key, target string) (Datum, error)
	// GetDatumSnapshot pulls every datum of a business type from target
	GetDatumSnapshot(ctx context.Context, businessType, target string) ([]Datum, error)
}

// Handler serves replication traffic received from peers
type Handler interface {
	// OnReceive applies a SYNC message
	OnReceive(ctx context.Context, source string, op DataOperation, datum Datum) error
	// OnVerify compares the digests of source with the local ones and repairs differences
	OnVerify(ctx context.Context, source, businessType string, entries []VerifyEntry) error
	// OnQuery returns the local datum of key
	OnQuery(ctx context.Context, key Key) (Datum, error)
	// OnSnapshot returns every local datum of a business type
	OnSnapshot(ctx context.Context, businessType string) ([]Datum, error)
}
