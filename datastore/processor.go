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
	"github.com/tochemey/distro/distro"
	"github.com/tochemey/distro/internal/eventstream"
)

// ChangeEvent is published on the topic of a business type whenever its store changes
type ChangeEvent struct {
	Key       distro.Key
	Operation distro.DataOperation
	Datum     distro.Datum
	// Local is true for changes written by the local member
	Local bool
}

// Topic returns the event bus topic of a business type
func Topic(businessType string) string {
	return "datastore." + businessType
}

// Processor applies local and replicated changes to a Store and publishes them on the event bus
type Processor struct {
	store *Store
	bus   *eventstream.Bus
	topic string
}

var _ distro.DataProcessor = (*Processor)(nil)

// NewProcessor creates a Processor for the store
func NewProcessor(store *Store, bus *eventstream.Bus) *Processor {
	return &Processor{
		store: store,
		bus:   bus,
		topic: Topic(store.BusinessType()),
	}
}

// ProcessType returns the business type of the processor
func (p *Processor) ProcessType() string {
	return p.store.BusinessType()
}

// ProcessData applies a replicated change.
// Additions and changes are last-write-wins on the timestamp. Deletions are applied as is
// because only the responsible owner originates them.
func (p *Processor) ProcessData(op distro.DataOperation, datum distro.Datum) bool {
	switch op {
	case distro.Add, distro.Change:
		if !p.store.Apply(datum) {
			return false
		}
		stored, _ := p.store.Get(datum.Key)
		p.publish(op, stored, false)
		return true
	case distro.Delete:
		if !p.store.Delete(datum.Key) {
			return false
		}
		p.publish(op, distro.Datum{Key: datum.Key}, false)
		return true
	default:
		return false
	}
}

// ProcessSnapshot applies every datum of a snapshot
func (p *Processor) ProcessSnapshot(data []distro.Datum) error {
	for _, datum := range data {
		p.ProcessData(distro.Add, datum)
	}
	return nil
}

// Write stores a local change and returns the new version
func (p *Processor) Write(key distro.Key, payload []byte) distro.Datum {
	datum := p.store.Write(key, payload)
	p.publish(distro.Change, datum, true)
	return datum
}

// Delete removes a key on behalf of a local client and reports whether it existed
func (p *Processor) Delete(key distro.Key) bool {
	if !p.store.Delete(key) {
		return false
	}
	p.publish(distro.Delete, distro.Datum{Key: key}, true)
	return true
}

func (p *Processor) publish(op distro.DataOperation, datum distro.Datum, local bool) {
	eventstream.Publish(p.bus, p.topic, ChangeEvent{
		Key:       datum.Key,
		Operation: op,
		Datum:     datum,
		Local:     local,
	})
}
