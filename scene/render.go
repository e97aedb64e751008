package scene

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"rtweekend/randsource"
	"rtweekend/rendermetrics"
	"rtweekend/rgbimage"
	"rtweekend/vmath/vec3"

	"github.com/golang/glog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// Checkpointer persists finished scanlines so an interrupted render can pick
// up where it left off.  Implementations must be safe for concurrent use.
type Checkpointer interface {
	// LoadScanline fills dst with scanline i if it was saved earlier, and
	// reports whether it was.
	LoadScanline(ctx context.Context, i int, dst []byte) (bool, error)

	SaveScanline(ctx context.Context, i int, src []byte) error
}

// ProgressFunction is called with the number of finished scanlines and the
// total.  It may be called from several goroutines at once.
type ProgressFunction func(done, total int)

type RenderOptions struct {
	ImageWidth      int
	ImageHeight     int
	SamplesPerPixel int
	MaxDepth        int

	// Workers is the size of the goroutine pool.  Zero means runtime.NumCPU().
	Workers int

	// Sequential renders every scanline on the calling goroutine, with the
	// single source newSource(0).
	Sequential bool

	// Optional.
	Checkpointer Checkpointer
	Metrics      *rendermetrics.Recorder
}

func (o *RenderOptions) validate() error {
	if o.ImageWidth <= 0 || o.ImageHeight <= 0 {
		return fmt.Errorf("image dimensions must be positive (got %dx%d)", o.ImageWidth, o.ImageHeight)
	}
	if o.SamplesPerPixel <= 0 {
		return fmt.Errorf("samples per pixel must be positive (got %d)", o.SamplesPerPixel)
	}
	if o.MaxDepth < 0 {
		return fmt.Errorf("max depth must not be negative (got %d)", o.MaxDepth)
	}
	if o.Workers < 0 {
		return fmt.Errorf("worker count must not be negative (got %d)", o.Workers)
	}
	return nil
}

// ScanlineWorker renders whole scanlines with one private random source.
type ScanlineWorker struct {
	scene   *Scene
	options *RenderOptions
	img     *rgbimage.Image

	id        int
	newSource randsource.Factory
	src       randsource.Source
}

func (w *ScanlineWorker) source() randsource.Source {
	if w.src == nil {
		w.src = w.newSource(w.id)
	}
	return w.src
}

// Render traces scanline i into its slice of the image.
func (w *ScanlineWorker) Render(i int) {
	src := w.source()
	width := w.options.ImageWidth
	height := w.options.ImageHeight
	row := w.img.Scanline(i)

	for j := 0; j < width; j++ {
		sum := vec3.T{}
		for s := 0; s < w.options.SamplesPerPixel; s++ {
			u := imageCoord(j, src.Float64(), width)
			v := imageCoord(i, src.Float64(), height)
			r := w.scene.Camera.ImageToRay(u, v, src)
			sum = vec3.AddVV(sum, w.scene.SampleRay(r, src, w.options.MaxDepth))
		}

		px := rgbimage.EncodeColor(sum, w.options.SamplesPerPixel)
		copy(row[3*j:3*j+3], px[:])
	}
}

// Close releases the worker's random source, if it ever made one.
func (w *ScanlineWorker) Close() error {
	if w.src == nil {
		return nil
	}
	err := randsource.Release(w.src)
	w.src = nil
	return err
}

// RenderScene fills img by tracing every scanline of the scene.
//
// Each pixel depends only on its coordinates and on the stream of the source
// that rendered it, so with a deterministic factory the sequential mode and a
// single-worker parallel pool produce identical images.
func RenderScene(ctx context.Context, s *Scene, options *RenderOptions, img *rgbimage.Image, newSource randsource.Factory, progressFunction ProgressFunction) error {
	tracer := otel.Tracer("rtweekend/scene")
	var span trace.Span
	ctx, span = tracer.Start(ctx, "RenderScene")
	defer span.End()

	if err := options.validate(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("while validating render options: %w", err)
	}
	if img.Width != options.ImageWidth || img.Height != options.ImageHeight {
		err := fmt.Errorf("image is %dx%d, but options ask for %dx%d", img.Width, img.Height, options.ImageWidth, options.ImageHeight)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	span.SetAttributes(
		attribute.Int("width", options.ImageWidth),
		attribute.Int("height", options.ImageHeight),
		attribute.Int("samples_per_pixel", options.SamplesPerPixel),
		attribute.Int("max_depth", options.MaxDepth),
		attribute.Bool("sequential", options.Sequential),
	)

	if progressFunction == nil {
		progressFunction = func(int, int) {}
	}

	var err error
	if options.Sequential {
		err = renderSequential(ctx, s, options, img, newSource, progressFunction)
	} else {
		err = renderParallel(ctx, s, options, img, newSource, progressFunction)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// restore copies scanline i out of the checkpoint, if there is one.
func restore(ctx context.Context, options *RenderOptions, img *rgbimage.Image, i int) (bool, error) {
	if options.Checkpointer == nil {
		return false, nil
	}
	ok, err := options.Checkpointer.LoadScanline(ctx, i, img.Scanline(i))
	if err != nil {
		return false, fmt.Errorf("while loading scanline %d from checkpoint: %w", i, err)
	}
	if ok {
		options.Metrics.RecordScanline(ctx, "resumed", 0, 0)
	}
	return ok, nil
}

func persist(ctx context.Context, options *RenderOptions, img *rgbimage.Image, i int) error {
	if options.Checkpointer == nil {
		return nil
	}
	if err := options.Checkpointer.SaveScanline(ctx, i, img.Scanline(i)); err != nil {
		return fmt.Errorf("while saving scanline %d to checkpoint: %w", i, err)
	}
	return nil
}

func renderSequential(ctx context.Context, s *Scene, options *RenderOptions, img *rgbimage.Image, newSource randsource.Factory, progressFunction ProgressFunction) error {
	worker := &ScanlineWorker{
		scene:     s,
		options:   options,
		img:       img,
		id:        0,
		newSource: newSource,
	}
	defer func() {
		if err := worker.Close(); err != nil {
			glog.Errorf("Error while releasing random source: %v", err)
		}
	}()

	total := options.ImageHeight
	done := 0
	for i := options.ImageHeight - 1; i >= 0; i-- {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("while rendering scanline %d: %w", i, err)
		}

		resumed, err := restore(ctx, options, img, i)
		if err != nil {
			return err
		}
		if !resumed {
			start := time.Now()
			worker.Render(i)
			options.Metrics.RecordScanline(ctx, "sequential", options.ImageWidth*options.SamplesPerPixel, time.Since(start))

			if err := persist(ctx, options, img, i); err != nil {
				return err
			}
		}

		done++
		progressFunction(done, total)
	}

	return nil
}

func renderParallel(ctx context.Context, s *Scene, options *RenderOptions, img *rgbimage.Image, newSource randsource.Factory, progressFunction ProgressFunction) error {
	workerCount := options.Workers
	if workerCount == 0 {
		workerCount = runtime.NumCPU()
	}
	if workerCount > options.ImageHeight {
		workerCount = options.ImageHeight
	}

	total := options.ImageHeight
	done := 0

	// progressMutex guards done.
	progressMutex := sync.Mutex{}
	reportScanline := func() {
		progressMutex.Lock()
		defer progressMutex.Unlock()
		done++
		progressFunction(done, total)
	}

	eg, ctx := errgroup.WithContext(ctx)

	scanlines := make(chan int)
	eg.Go(func() error {
		defer close(scanlines)
		for i := options.ImageHeight - 1; i >= 0; i-- {
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("while dispatching scanline %d: %w", i, err)
			}
			select {
			case scanlines <- i:
			case <-ctx.Done():
				return fmt.Errorf("while dispatching scanline %d: %w", i, ctx.Err())
			}
		}
		return nil
	})

	for id := 0; id < workerCount; id++ {
		worker := &ScanlineWorker{
			scene:     s,
			options:   options,
			img:       img,
			id:        id,
			newSource: newSource,
		}

		eg.Go(func() error {
			tracer := otel.Tracer("rtweekend/scene")
			ctx, span := tracer.Start(ctx, "ScanlineWorker")
			defer span.End()
			span.SetAttributes(attribute.Int("worker", worker.id))

			defer func() {
				if err := worker.Close(); err != nil {
					glog.Errorf("Error while releasing random source of worker %d: %v", worker.id, err)
				}
			}()

			rendered := 0
			for i := range scanlines {
				resumed, err := restore(ctx, options, img, i)
				if err != nil {
					span.SetStatus(codes.Error, err.Error())
					return err
				}
				if !resumed {
					start := time.Now()
					worker.Render(i)
					options.Metrics.RecordScanline(ctx, "parallel", options.ImageWidth*options.SamplesPerPixel, time.Since(start))
					rendered++

					if err := persist(ctx, options, img, i); err != nil {
						span.SetStatus(codes.Error, err.Error())
						return err
					}
				}

				reportScanline()
			}

			span.SetAttributes(attribute.Int("scanlines", rendered))
			glog.V(1).Infof("Worker %d finished after rendering %d scanlines", worker.id, rendered)
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return fmt.Errorf("while waiting for render workers: %w", err)
	}

	return nil
}
