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
	"bytes"
	"context"

	mapset "github.com/deckarep/golang-set/v2"
	"golang.org/x/sync/errgroup"

	"github.com/tochemey/distro/cluster"
	gerrors "github.com/tochemey/distro/errors"
)

func (p *Protocol) verifyLoop() {
	defer p.wg.Done()
	for {
		select {
		case <-p.ctx.Done():
			return
		case <-p.verifyTicker.Ticks:
			p.verify(p.ctx)
		}
	}
}

// verify sends the digests of every initialized business type to each Up peer
func (p *Protocol) verify(ctx context.Context) {
	peers := cluster.UpPeers(p.view)
	if len(peers) == 0 {
		return
	}

	for _, businessType := range p.holder.BusinessTypes() {
		component, err := p.holder.Get(businessType)
		if err != nil {
			continue
		}

		// a cold storage would advertise missing keys and make peers evict them
		if !component.Storage.IsFinishInitial() {
			continue
		}

		entries := verifyEntries(component.Storage)
		p.logger.Debugf("%s verifying %d keys of %s with %d peers", p.view.Self(), len(entries), businessType, len(peers))

		vctx, cancel := context.WithTimeout(ctx, p.config.verifyTimeout)
		eg, vctx := errgroup.WithContext(vctx)
		eg.SetLimit(p.config.workers)
		for _, peer := range peers {
			eg.Go(func() error {
				if err := p.transport.SyncVerifyData(vctx, businessType, entries, peer.Name); err != nil {
					p.logger.Debugf("verify of %s with %s failed: %v", businessType, peer.Name, err)
				}
				return nil
			})
		}
		_ = eg.Wait()
		cancel()
	}
}

func verifyEntries(storage DataStorage) []VerifyEntry {
	digests := storage.VerifyDigestsFor(storage.AllKeys().ToSlice())
	entries := make([]VerifyEntry, 0, len(digests))
	for key, digest := range digests {
		entries = append(entries, VerifyEntry{Key: key, Digest: digest})
	}
	return entries
}

// OnVerify compares the digests sent by source with the local ones.
// Keys owned by the local member are skipped since the local copy is authoritative.
// Keys that differ or are missing are pulled from source, and local keys owned by source
// that source no longer advertises are evicted.
func (p *Protocol) OnVerify(ctx context.Context, source, businessType string, entries []VerifyEntry) error {
	component, err := p.holder.Get(businessType)
	if err != nil {
		return err
	}

	if !component.Storage.IsFinishInitial() {
		return gerrors.ErrNotInitialized
	}

	guard := businessType + "@" + source
	if !p.verifying.Add(guard) {
		return gerrors.ErrVerifyInProgress
	}
	defer p.verifying.Remove(guard)

	advertised := mapset.NewThreadUnsafeSetWithSize[Key](len(entries))
	candidates := make([]VerifyEntry, 0, len(entries))
	for _, entry := range entries {
		advertised.Add(entry.Key)
		if entry.Key.BusinessType != businessType || p.mapper.Responsible(entry.Key) {
			continue
		}
		candidates = append(candidates, entry)
	}

	keys := make([]Key, 0, len(candidates))
	for _, entry := range candidates {
		keys = append(keys, entry.Key)
	}
	local := component.Storage.VerifyDigestsFor(keys)

	repaired := 0
	for _, entry := range candidates {
		if digest, ok := local[entry.Key]; ok && bytes.Equal(digest, entry.Digest) {
			continue
		}

		datum, err := p.transport.GetData(ctx, entry.Key, source)
		if err != nil {
			p.logger.Debugf("failed to pull %s from %s: %v", entry.Key, source, err)
			continue
		}

		if component.Processor.ProcessData(Change, datum) {
			repaired++
		}
	}

	for key := range component.Storage.AllKeys().Iter() {
		if advertised.Contains(key) || p.mapper.Owner(key) != source {
			continue
		}

		// a local write still on its way to the owner is not stale
		if p.pushing(key, source) {
			continue
		}

		if component.Processor.ProcessData(Delete, Datum{Key: key}) {
			p.logger.Debugf("evicted %s: no longer advertised by its owner %s", key, source)
			repaired++
		}
	}

	if repaired > 0 {
		p.logger.Infof("%s repaired %d keys of %s from %s", p.view.Self(), repaired, businessType, source)
	}
	p.metric.RecordRepair(ctx, businessType, repaired)
	return nil
}
