package checkpoint

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"google.golang.org/protobuf/types/known/structpb"
)

func mustManifest(t *testing.T, fields map[string]interface{}) *structpb.Struct {
	t.Helper()
	m, err := structpb.NewStruct(fields)
	if err != nil {
		t.Fatalf("Unexpected error while building manifest: %v", err)
	}
	return m
}

func openStore(t *testing.T, dir string) *Store {
	t.Helper()
	s, err := Open(dir)
	if err != nil {
		t.Fatalf("Unexpected error while opening store: %v", err)
	}
	return s
}

func TestScanlineKeyRoundTrip(t *testing.T) {
	key := ScanlineKey(0xdeadbeefcafef00d, 799)

	jobID, row, err := DecodeScanlineKey(key)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if jobID != 0xdeadbeefcafef00d || row != 799 {
		t.Errorf("Bad decoded key; got job %x row %d, want job deadbeefcafef00d row 799", jobID, row)
	}

	if _, _, err := DecodeScanlineKey(ManifestKey(1)); err == nil {
		t.Errorf("Expected an error decoding a manifest key, got nil")
	}
}

func TestJobIDDependsOnManifest(t *testing.T) {
	a := mustManifest(t, map[string]interface{}{"scene": "pastel", "width": 1200})
	b := mustManifest(t, map[string]interface{}{"width": 1200, "scene": "pastel"})
	c := mustManifest(t, map[string]interface{}{"scene": "pastel", "width": 600})

	idA, _, err := JobID(a)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	idB, _, _ := JobID(b)
	idC, _, _ := JobID(c)

	if idA != idB {
		t.Errorf("Equal manifests hashed differently; got %x and %x", idA, idB)
	}
	if idA == idC {
		t.Errorf("Different manifests hashed to the same job %x", idA)
	}
}

func TestSaveAndResume(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	manifest := mustManifest(t, map[string]interface{}{"scene": "normal", "width": 2})

	s := openStore(t, dir)
	job, err := s.Job(ctx, manifest, 6)
	if err != nil {
		t.Fatalf("Unexpected error while creating job: %v", err)
	}

	if err := job.SaveScanline(ctx, 4, []byte{1, 2, 3, 4, 5, 6}); err != nil {
		t.Fatalf("Unexpected error while saving: %v", err)
	}
	if err := job.SaveScanline(ctx, 0, []byte{6, 5, 4, 3, 2, 1}); err != nil {
		t.Fatalf("Unexpected error while saving: %v", err)
	}
	if err := job.SaveScanline(ctx, 1, []byte{1}); err == nil {
		t.Errorf("Expected an error saving a short scanline, got nil")
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Unexpected error while closing: %v", err)
	}

	s = openStore(t, dir)
	defer s.Close()
	job, err = s.Job(ctx, manifest, 6)
	if err != nil {
		t.Fatalf("Unexpected error while reopening job: %v", err)
	}

	dst := make([]byte, 6)
	ok, err := job.LoadScanline(ctx, 4, dst)
	if err != nil {
		t.Fatalf("Unexpected error while loading: %v", err)
	}
	if !ok {
		t.Fatalf("Saved scanline 4 wasn't found after reopening")
	}
	if diff := cmp.Diff(dst, []byte{1, 2, 3, 4, 5, 6}); diff != "" {
		t.Errorf("Bad scanline contents; diff (-got +want)\n%s", diff)
	}

	ok, err = job.LoadScanline(ctx, 2, dst)
	if err != nil {
		t.Fatalf("Unexpected error while loading: %v", err)
	}
	if ok {
		t.Errorf("Unsaved scanline 2 was reported as found")
	}

	n, err := job.Completed()
	if err != nil {
		t.Fatalf("Unexpected error while counting: %v", err)
	}
	if n != 2 {
		t.Errorf("Bad completed count; got %d, want 2", n)
	}
}

func TestJobsAreIsolated(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, t.TempDir())
	defer s.Close()

	a, err := s.Job(ctx, mustManifest(t, map[string]interface{}{"seed": 1}), 3)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	b, err := s.Job(ctx, mustManifest(t, map[string]interface{}{"seed": 2}), 3)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if err := a.SaveScanline(ctx, 0, []byte{9, 9, 9}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	ok, err := b.LoadScanline(ctx, 0, make([]byte, 3))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if ok {
		t.Errorf("Scanline saved by one job was visible to another")
	}
}

func TestDiscard(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, t.TempDir())
	defer s.Close()

	manifest := mustManifest(t, map[string]interface{}{"scene": "perf"})
	job, err := s.Job(ctx, manifest, 3)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	for i := 0; i < 5; i++ {
		if err := job.SaveScanline(ctx, i, []byte{byte(i), 0, 0}); err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
	}

	if err := job.Discard(); err != nil {
		t.Fatalf("Unexpected error while discarding: %v", err)
	}

	n, err := job.Completed()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if n != 0 {
		t.Errorf("Discarded job still has %d scanlines", n)
	}
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := openStore(t, t.TempDir())
	defer s.Close()

	job, err := s.Job(ctx, mustManifest(t, map[string]interface{}{"scene": "moon"}), 3)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	cancel()

	if err := job.SaveScanline(ctx, 0, []byte{1, 2, 3}); err == nil {
		t.Errorf("Expected an error saving with a cancelled context, got nil")
	}
	if _, err := job.LoadScanline(ctx, 0, make([]byte, 3)); err == nil {
		t.Errorf("Expected an error loading with a cancelled context, got nil")
	}
}
