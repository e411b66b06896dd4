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
	"fmt"

	"github.com/flowchartsman/retry"
	"go.uber.org/multierr"

	"github.com/tochemey/distro/cluster"
	gerrors "github.com/tochemey/distro/errors"
)

// load pulls a snapshot of every business type from the cluster.
// A business type that cannot be loaded keeps retrying until the protocol stops.
func (p *Protocol) load() {
	defer p.wg.Done()
	for _, businessType := range p.holder.BusinessTypes() {
		component, err := p.holder.Get(businessType)
		if err != nil {
			continue
		}

		if component.Storage.IsFinishInitial() {
			continue
		}

		for {
			retrier := retry.NewRetrier(p.config.loadRetryAttempts, p.config.loadRetryInterval, p.config.loadRetryInterval)
			err := retrier.RunContext(p.ctx, func(ctx context.Context) error {
				return p.loadSnapshot(ctx, businessType, component)
			})
			if err == nil {
				break
			}

			if p.ctx.Err() != nil {
				return
			}
			p.logger.Warnf("%s failed to load %s from the cluster, retrying: %v", p.view.Self(), businessType, err)
		}
	}
}

// loadSnapshot applies the snapshot of the first peer that serves it.
// Without peers, or when no peer has finished its own load, there is nothing to pull.
func (p *Protocol) loadSnapshot(ctx context.Context, businessType string, component Component) error {
	peers := cluster.UpPeers(p.view)
	if len(peers) == 0 {
		component.Storage.FinishInitial()
		p.logger.Infof("%s finished initial load of %s: no peers", p.view.Self(), businessType)
		return nil
	}

	var errs error
	cold := 0
	for _, peer := range peers {
		data, err := p.transport.GetDatumSnapshot(ctx, businessType, peer.Name)
		if err != nil {
			if errors.Is(err, gerrors.ErrNotInitialized) {
				cold++
			}
			errs = multierr.Append(errs, err)
			continue
		}

		if err := component.Processor.ProcessSnapshot(data); err != nil {
			return fmt.Errorf("failed to apply snapshot of %s from %s: %w", businessType, peer.Name, err)
		}

		component.Storage.FinishInitial()
		p.logger.Infof("%s finished initial load of %s: %d datums from %s", p.view.Self(), businessType, len(data), peer.Name)
		return nil
	}

	if cold == len(peers) {
		component.Storage.FinishInitial()
		p.logger.Infof("%s finished initial load of %s: no initialized peers", p.view.Self(), businessType)
		return nil
	}
	return errs
}
