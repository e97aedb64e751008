package scene

import (
	"context"
	"errors"
	"sync"
	"testing"

	"rtweekend/randsource"
	"rtweekend/rgbimage"

	"github.com/google/go-cmp/cmp"
)

func constantFactory(v float64) randsource.Factory {
	return func(worker int) randsource.Source {
		return randsource.NewSequence(v)
	}
}

func smallOptions() *RenderOptions {
	return &RenderOptions{
		ImageWidth:      21,
		ImageHeight:     11,
		SamplesPerPixel: 1,
		MaxDepth:        1,
	}
}

func TestRenderSingleSphere(t *testing.T) {
	s := singleSphereScene()
	options := smallOptions()
	options.Sequential = true
	img := rgbimage.New(options.ImageWidth, options.ImageHeight)

	if err := RenderScene(context.Background(), s, options, img, randsource.NewFactory(randsource.KindFast, 1), nil); err != nil {
		t.Fatalf("Unexpected error while rendering: %v", err)
	}

	// Scanline 5 is stored as row 11-1-5 = 5 from the top.
	center := img.At(10, 5)
	corner := img.At(0, 0)

	if center != [3]byte{0, 0, 0} {
		t.Errorf("Center pixel should be black with a single bounce; got %v", center)
	}
	for c := 0; c < 3; c++ {
		if corner[c] <= center[c] {
			t.Errorf("Sky pixel %v isn't brighter than the sphere pixel %v in channel %d", corner, center, c)
		}
	}
}

func TestSequentialMatchesParallel(t *testing.T) {
	s := singleSphereScene()

	render := func(t *testing.T, options *RenderOptions, newSource randsource.Factory) []byte {
		options.MaxDepth = 8
		options.SamplesPerPixel = 3
		img := rgbimage.New(options.ImageWidth, options.ImageHeight)
		if err := RenderScene(context.Background(), s, options, img, newSource, nil); err != nil {
			t.Fatalf("Unexpected error while rendering: %v", err)
		}
		return img.Pix
	}

	t.Run("constant streams", func(t *testing.T) {
		seqOptions := smallOptions()
		seqOptions.Sequential = true
		parOptions := smallOptions()
		parOptions.Workers = 4

		seq := render(t, seqOptions, constantFactory(0.7))
		par := render(t, parOptions, constantFactory(0.7))
		if diff := cmp.Diff(seq, par); diff != "" {
			t.Errorf("Parallel render differs from sequential; diff (-seq +par)\n%s", diff)
		}
	})

	t.Run("one seeded worker", func(t *testing.T) {
		seqOptions := smallOptions()
		seqOptions.Sequential = true
		parOptions := smallOptions()
		parOptions.Workers = 1

		seq := render(t, seqOptions, randsource.NewFactory(randsource.KindFast, 42))
		par := render(t, parOptions, randsource.NewFactory(randsource.KindFast, 42))
		if diff := cmp.Diff(seq, par); diff != "" {
			t.Errorf("Parallel render differs from sequential; diff (-seq +par)\n%s", diff)
		}
	})
}

func TestProgressReachesTotal(t *testing.T) {
	for _, sequential := range []bool{true, false} {
		options := smallOptions()
		options.Sequential = sequential
		options.Workers = 3
		img := rgbimage.New(options.ImageWidth, options.ImageHeight)

		mu := sync.Mutex{}
		calls := 0
		last := 0
		progress := func(done, total int) {
			mu.Lock()
			defer mu.Unlock()
			calls++
			if done > last {
				last = done
			}
			if total != options.ImageHeight {
				t.Errorf("Bad total; got %d, want %d", total, options.ImageHeight)
			}
		}

		if err := RenderScene(context.Background(), singleSphereScene(), options, img, constantFactory(0.3), progress); err != nil {
			t.Fatalf("Unexpected error while rendering: %v", err)
		}
		if calls != options.ImageHeight || last != options.ImageHeight {
			t.Errorf("Bad progress (sequential=%v); got %d calls ending at %d, want %d", sequential, calls, last, options.ImageHeight)
		}
	}
}

type closeCountingSource struct {
	randsource.Source
	closed *int
	mu     *sync.Mutex
}

func (s closeCountingSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	*s.closed++
	return nil
}

func TestWorkersReleaseSources(t *testing.T) {
	mu := sync.Mutex{}
	made := map[int]int{}
	closed := 0
	factory := func(worker int) randsource.Source {
		mu.Lock()
		defer mu.Unlock()
		made[worker]++
		return closeCountingSource{Source: randsource.NewSequence(0.6), closed: &closed, mu: &mu}
	}

	options := smallOptions()
	options.Workers = 4
	img := rgbimage.New(options.ImageWidth, options.ImageHeight)
	if err := RenderScene(context.Background(), singleSphereScene(), options, img, factory, nil); err != nil {
		t.Fatalf("Unexpected error while rendering: %v", err)
	}

	total := 0
	for worker, n := range made {
		if n != 1 {
			t.Errorf("Worker %d built %d sources, want 1", worker, n)
		}
		total += n
	}
	if closed != total {
		t.Errorf("Bad number of released sources; got %d, want %d", closed, total)
	}
}

type memoryCheckpointer struct {
	mu    sync.Mutex
	lines map[int][]byte
	saved []int
}

func (m *memoryCheckpointer) LoadScanline(ctx context.Context, i int, dst []byte) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	line, ok := m.lines[i]
	if !ok {
		return false, nil
	}
	copy(dst, line)
	return true, nil
}

func (m *memoryCheckpointer) SaveScanline(ctx context.Context, i int, src []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lines[i] = append([]byte(nil), src...)
	m.saved = append(m.saved, i)
	return nil
}

func TestCheckpointedScanlinesAreSkipped(t *testing.T) {
	options := smallOptions()
	options.Sequential = true

	marker := make([]byte, 3*options.ImageWidth)
	for i := range marker {
		marker[i] = 7
	}
	cp := &memoryCheckpointer{lines: map[int][]byte{3: marker}}
	options.Checkpointer = cp

	img := rgbimage.New(options.ImageWidth, options.ImageHeight)
	if err := RenderScene(context.Background(), singleSphereScene(), options, img, constantFactory(0.3), nil); err != nil {
		t.Fatalf("Unexpected error while rendering: %v", err)
	}

	if diff := cmp.Diff(img.Scanline(3), marker); diff != "" {
		t.Errorf("Restored scanline was overwritten; diff (-got +want)\n%s", diff)
	}
	if got, want := len(cp.saved), options.ImageHeight-1; got != want {
		t.Errorf("Bad number of saved scanlines; got %d, want %d", got, want)
	}
	for _, i := range cp.saved {
		if i == 3 {
			t.Errorf("Restored scanline 3 was saved again")
		}
	}
}

type failingCheckpointer struct{}

var errCheckpoint = errors.New("disk on fire")

func (failingCheckpointer) LoadScanline(ctx context.Context, i int, dst []byte) (bool, error) {
	return false, nil
}

func (failingCheckpointer) SaveScanline(ctx context.Context, i int, src []byte) error {
	return errCheckpoint
}

func TestCheckpointErrorStopsRender(t *testing.T) {
	for _, sequential := range []bool{true, false} {
		options := smallOptions()
		options.Sequential = sequential
		options.Workers = 2
		options.Checkpointer = failingCheckpointer{}

		img := rgbimage.New(options.ImageWidth, options.ImageHeight)
		err := RenderScene(context.Background(), singleSphereScene(), options, img, constantFactory(0.3), nil)
		if !errors.Is(err, errCheckpoint) {
			t.Errorf("Bad error (sequential=%v); got %v, want %v", sequential, err, errCheckpoint)
		}
	}
}

func TestCancelledRender(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, sequential := range []bool{true, false} {
		options := smallOptions()
		options.Sequential = sequential
		img := rgbimage.New(options.ImageWidth, options.ImageHeight)

		err := RenderScene(ctx, singleSphereScene(), options, img, constantFactory(0.3), nil)
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Bad error (sequential=%v); got %v, want %v", sequential, err, context.Canceled)
		}
	}
}

func TestRenderRejectsBadOptions(t *testing.T) {
	for _, tc := range []struct {
		name   string
		mutate func(*RenderOptions)
	}{
		{"zero width", func(o *RenderOptions) { o.ImageWidth = 0 }},
		{"zero samples", func(o *RenderOptions) { o.SamplesPerPixel = 0 }},
		{"negative depth", func(o *RenderOptions) { o.MaxDepth = -1 }},
		{"negative workers", func(o *RenderOptions) { o.Workers = -2 }},
		{"image size mismatch", func(o *RenderOptions) { o.ImageHeight = 12 }},
	} {
		t.Run(tc.name, func(t *testing.T) {
			img := rgbimage.New(21, 11)
			options := smallOptions()
			tc.mutate(options)

			if err := RenderScene(context.Background(), singleSphereScene(), options, img, constantFactory(0.3), nil); err == nil {
				t.Errorf("Expected an error, got nil")
			}
		})
	}
}
