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

package metric

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	businessTypeKey = attribute.Key("distro.business_type")
	targetKey       = attribute.Key("distro.target")
)

// DistroMetric groups the instruments recorded by the replication and redo loops
type DistroMetric struct {
	syncLatency   metric.Float64Histogram
	syncFailures  metric.Int64Counter
	verifyRepairs metric.Int64Counter
	redoReplays   metric.Int64Counter
}

// NewDistroMetric creates the instruments from the given meter
func NewDistroMetric(meter metric.Meter) (*DistroMetric, error) {
	var instruments DistroMetric
	var err error

	if instruments.syncLatency, err = meter.Float64Histogram(
		"distro.sync.latency",
		metric.WithDescription("Latency of a sync push to a peer"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, err
	}

	if instruments.syncFailures, err = meter.Int64Counter(
		"distro.sync.failures",
		metric.WithDescription("Total number of sync pushes that failed"),
	); err != nil {
		return nil, err
	}

	if instruments.verifyRepairs, err = meter.Int64Counter(
		"distro.verify.repairs",
		metric.WithDescription("Total number of keys repaired by anti-entropy verification"),
	); err != nil {
		return nil, err
	}

	if instruments.redoReplays, err = meter.Int64Counter(
		"distro.redo.replays",
		metric.WithDescription("Total number of redo operations replayed against the server"),
	); err != nil {
		return nil, err
	}

	return &instruments, nil
}

// RecordSync records the outcome of a sync push
func (x *DistroMetric) RecordSync(ctx context.Context, businessType, target string, latency time.Duration, success bool) {
	attrs := metric.WithAttributes(businessTypeKey.String(businessType), targetKey.String(target))
	x.syncLatency.Record(ctx, float64(latency.Microseconds())/1000, attrs)
	if !success {
		x.syncFailures.Add(ctx, 1, attrs)
	}
}

// RecordRepair records keys pulled or evicted by a verify round
func (x *DistroMetric) RecordRepair(ctx context.Context, businessType string, count int) {
	if count <= 0 {
		return
	}
	x.verifyRepairs.Add(ctx, int64(count), metric.WithAttributes(businessTypeKey.String(businessType)))
}

// RecordReplay records a redo replay of the given kind
func (x *DistroMetric) RecordReplay(ctx context.Context, kind string) {
	x.redoReplays.Add(ctx, 1, metric.WithAttributes(attribute.String("redo.kind", kind)))
}
