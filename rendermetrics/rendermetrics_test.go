package rendermetrics

import (
	"context"
	"testing"
	"time"

	"go.opencensus.io/stats/view"
)

func TestRecordScanline(t *testing.T) {
	r := New()
	if err := r.RegisterMetrics(); err != nil {
		t.Fatalf("Unexpected error while registering: %v", err)
	}
	defer r.UnregisterMetrics()

	ctx := context.Background()
	r.RecordScanline(ctx, "parallel", 400, 3*time.Millisecond)
	r.RecordScanline(ctx, "parallel", 400, 7*time.Millisecond)
	r.RecordScanline(ctx, "sequential", 400, 2*time.Millisecond)

	rows, err := view.RetrieveData("rtweekend/scanlines")
	if err != nil {
		t.Fatalf("Unexpected error while retrieving scanlines: %v", err)
	}
	counts := map[string]int64{}
	for _, row := range rows {
		counts[row.Tags[0].Value] = row.Data.(*view.CountData).Value
	}
	if counts["parallel"] != 2 || counts["sequential"] != 1 {
		t.Errorf("Bad scanline counts; got %v, want parallel=2 sequential=1", counts)
	}

	rows, err = view.RetrieveData("rtweekend/samples")
	if err != nil {
		t.Fatalf("Unexpected error while retrieving samples: %v", err)
	}
	var total float64
	for _, row := range rows {
		total += row.Data.(*view.SumData).Value
	}
	if total != 1200 {
		t.Errorf("Bad sample total; got %v, want 1200", total)
	}
}

func TestNilRecorder(t *testing.T) {
	var r *Recorder
	r.RecordScanline(context.Background(), "parallel", 1, time.Second)
}
