// Package rendermetrics exports render throughput through OpenCensus.
package rendermetrics

import (
	"context"
	"fmt"
	"time"

	"go.opencensus.io/stats"
	"go.opencensus.io/stats/view"
	"go.opencensus.io/tag"
)

var keyMode = tag.MustNewKey("mode")

// Recorder is safe for concurrent use.  A nil *Recorder records nothing.
type Recorder struct {
	scanlineCount       *stats.Int64Measure
	scanlineCountView   *view.View
	sampleCount         *stats.Int64Measure
	sampleCountView     *view.View
	scanlineLatency     *stats.Float64Measure
	scanlineLatencyView *view.View
}

func New() *Recorder {
	r := &Recorder{}

	r.scanlineCount = stats.Int64("rtweekend/scanlines", "", stats.UnitDimensionless)
	r.scanlineCountView = &view.View{
		Name:        "rtweekend/scanlines",
		Description: "Counter of scanlines that have been rendered",

		TagKeys: []tag.Key{keyMode},

		Measure:     r.scanlineCount,
		Aggregation: view.Count(),
	}

	r.sampleCount = stats.Int64("rtweekend/samples", "", stats.UnitDimensionless)
	r.sampleCountView = &view.View{
		Name:        "rtweekend/samples",
		Description: "Number of camera rays traced",

		TagKeys: []tag.Key{keyMode},

		Measure:     r.sampleCount,
		Aggregation: view.Sum(),
	}

	r.scanlineLatency = stats.Float64("rtweekend/scanline_latency", "", stats.UnitMilliseconds)
	r.scanlineLatencyView = &view.View{
		Name:        "rtweekend/scanline_latency",
		Description: "Time spent rendering one scanline",

		TagKeys: []tag.Key{keyMode},

		Measure:     r.scanlineLatency,
		Aggregation: view.Distribution(1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000),
	}

	return r
}

func (r *Recorder) RegisterMetrics() error {
	if err := view.Register(r.scanlineCountView, r.sampleCountView, r.scanlineLatencyView); err != nil {
		return fmt.Errorf("while registering views: %w", err)
	}
	return nil
}

func (r *Recorder) UnregisterMetrics() {
	view.Unregister(r.scanlineCountView, r.sampleCountView, r.scanlineLatencyView)
}

// RecordScanline notes that one scanline containing samples camera rays was
// finished in elapsed.  mode is "sequential", "parallel" or "resumed".
func (r *Recorder) RecordScanline(ctx context.Context, mode string, samples int, elapsed time.Duration) {
	if r == nil {
		return
	}

	stats.RecordWithOptions(
		ctx,
		stats.WithTags(tag.Upsert(keyMode, mode)),
		stats.WithMeasurements(
			r.scanlineCount.M(1),
			r.sampleCount.M(int64(samples)),
			r.scanlineLatency.M(float64(elapsed)/float64(time.Millisecond)),
		),
	)
}
