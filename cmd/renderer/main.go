// renderer path traces one of the built-in sphere scenes (or a scene file)
// and writes the image as PPM or PNG.
package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"net/http"
	netpprof "net/http/pprof"
	"os"
	"os/signal"
	"runtime/pprof"
	"syscall"
	"time"

	"rtweekend/camera"
	"rtweekend/checkpoint"
	"rtweekend/geometry"
	"rtweekend/healthz"
	"rtweekend/imagesink"
	"rtweekend/progress"
	"rtweekend/randsource"
	"rtweekend/rendermetrics"
	"rtweekend/rgbimage"
	"rtweekend/scene"
	"rtweekend/scenepack"

	"cloud.google.com/go/profiler"
	"contrib.go.opencensus.io/exporter/stackdriver"
	cloudtrace "github.com/GoogleCloudPlatform/opentelemetry-operations-go/exporter/trace"
	"github.com/golang/glog"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"google.golang.org/protobuf/types/known/structpb"
)

var (
	sceneName   = flag.String("scene", "pastel", "Built-in scene to render (see -list-scenes)")
	sceneFile   = flag.String("scene-file", "", "Render the spheres in this JSON scene file instead of a built-in scene")
	sceneSeed   = flag.Uint("scene-seed", 1, "Seed for the random placement of built-in scene objects")
	listScenes  = flag.Bool("list-scenes", false, "Print the built-in scene names and exit")
	dumpScene   = flag.String("dump-scene", "", "Write the selected scene as a JSON scene file to `file` and exit")
	output      = flag.String("output", "-", "Where to write the image: - for stdout, gs://bucket/object, or a local path.  A .png suffix selects PNG, anything else PPM")
	imageWidth  = flag.Int("image-width", 1200, "Output image width in pixels")
	aspectRatio = flag.Float64("aspect-ratio", 3.0/2.0, "Output image width / height")

	samplesPerPixel = flag.Int("samples-per-pixel", 200, "Number of camera rays averaged per pixel")
	maxDepth        = flag.Int("max-depth", 50, "Maximum number of bounces to follow")
	workers         = flag.Int("workers", 0, "Render goroutines; 0 means one per CPU")
	sequential      = flag.Bool("sequential", false, "Render on a single goroutine")
	randomSource    = flag.String("random-source", "fast", "Random backend: fast (seeded, reproducible) or crypto (OS entropy)")
	seed            = flag.Uint("seed", 1, "Base seed of the fast random backend; worker i uses seed+i")

	defaultCamera = scenepack.DefaultCamera(3.0 / 2.0)
	lookFrom      = (*vecFlag)(&defaultCamera.LookFrom)
	lookAt        = (*vecFlag)(&defaultCamera.LookAt)
	viewUp        = (*vecFlag)(&defaultCamera.Up)
	verticalFOV   = flag.Float64("vertical-fov", defaultCamera.VerticalFOV, "Vertical field of view in degrees")
	aperture      = flag.Float64("aperture", defaultCamera.Aperture, "Lens diameter; 0 is a pinhole")
	focusDistance = flag.Float64("focus-distance", defaultCamera.FocusDistance, "Distance from the camera to the plane of perfect focus")

	checkpointDir  = flag.String("checkpoint-dir", "", "Badger directory for saving finished scanlines.  A rerun with the same settings resumes from it")
	keepCheckpoint = flag.Bool("keep-checkpoint", false, "Keep the checkpoint after the image is written")

	debugListen  = flag.String("debug-listen", "", "Server address:port for the debug endpoint (health, progress, pprof).  Empty disables it")
	progressRate = flag.Float64("progress-rate", 4, "Maximum terminal progress updates per second")

	monitoring           = flag.Bool("monitoring", false, "Export traces to Cloud Trace?")
	monitoringProject    = flag.String("monitoring-project", "", "Override project used for monitoring integration.  If not specified, the project associated with Application Default Credentials is used.")
	monitoringTraceRatio = flag.Float64("monitoring-trace-ratio", 1, "What ratio of traces should be exported?")
	enableMetrics        = flag.Bool("enable-metrics", false, "Export render metrics to Cloud Monitoring?")
	enableProfiling      = flag.Bool("enable-profiling", false, "Run the Cloud Profiler agent?")

	cpuprofile = flag.String("cpu-profile", "", "write cpu profile to `file`")
	memprofile = flag.String("mem-profile", "", "write memory profile to `file`")
)

func init() {
	flag.Var(lookFrom, "look-from", "Camera position, as x,y,z")
	flag.Var(lookAt, "look-at", "Point the camera aims at, as x,y,z")
	flag.Var(viewUp, "view-up", "Camera up direction, as x,y,z")
}

func main() {
	flag.Parse()
	defer glog.Flush()

	glog.CopyStandardLogTo("INFO")

	glog.Infof("flags:")
	flag.VisitAll(func(f *flag.Flag) {
		glog.Infof("%s: %q", f.Name, f.Value.String())
	})

	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			glog.Exitf("Could not create CPU profile: %v", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			glog.Exitf("Could not start CPU profile: %v", err)
		}
		defer pprof.StopCPUProfile()
	}

	if err := do(); err != nil {
		pprof.StopCPUProfile()
		glog.Exitf("Error: %v", err)
	}

	if *memprofile != "" {
		f, err := os.Create(*memprofile)
		if err != nil {
			glog.Exitf("Could not create memory profile: %v", err)
		}
		defer f.Close()
		if err := pprof.WriteHeapProfile(f); err != nil {
			glog.Exitf("Could not write memory profile: %v", err)
		}
	}
}

func do() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if *listScenes {
		for _, n := range scenepack.Names() {
			fmt.Println(n)
		}
		return nil
	}

	// Cloud Profiler initialization, best done as early as possible.
	if *enableProfiling {
		if err := profiler.Start(profiler.Config{
			Service:        "rtweekend-renderer",
			ServiceVersion: "0.0.1",
			ProjectID:      *monitoringProject,
		}); err != nil {
			return fmt.Errorf("while initializing profiler: %w", err)
		}
	}

	if *monitoring {
		traceOpts := []cloudtrace.Option{}
		if *monitoringProject != "" {
			traceOpts = append(traceOpts, cloudtrace.WithProjectID(*monitoringProject))
		}

		_, traceShutdown, err := cloudtrace.InstallNewPipeline(traceOpts, sdktrace.WithSampler(sdktrace.TraceIDRatioBased(*monitoringTraceRatio)))
		if err != nil {
			return fmt.Errorf("while installing Cloud Trace OpenTelemetry trace pipeline: %w", err)
		}
		defer traceShutdown()
	}

	metrics := rendermetrics.New()
	if err := metrics.RegisterMetrics(); err != nil {
		return fmt.Errorf("while registering render metrics: %w", err)
	}

	if *enableMetrics {
		exporter, err := stackdriver.NewExporter(stackdriver.Options{
			ProjectID:         *monitoringProject,
			MetricPrefix:      "rtweekend",
			ReportingInterval: 60 * time.Second,
		})
		if err != nil {
			return fmt.Errorf("while initializing metrics exporter: %w", err)
		}
		if err := exporter.StartMetricsExporter(); err != nil {
			return fmt.Errorf("while starting metrics exporter: %w", err)
		}
		defer exporter.Flush()
		defer exporter.StopMetricsExporter()
	}

	kind, err := randsource.ParseKind(*randomSource)
	if err != nil {
		return fmt.Errorf("while parsing -random-source: %w", err)
	}

	renderSeed, err := checkSeed("seed", *seed)
	if err != nil {
		return err
	}
	worldSeed, err := checkSeed("scene-seed", *sceneSeed)
	if err != nil {
		return err
	}

	world, sceneLabel, err := loadWorld(worldSeed)
	if err != nil {
		return err
	}
	glog.Infof("Scene %s has %d spheres", sceneLabel, world.Len())

	if *dumpScene != "" {
		b, err := scenepack.MarshalScene(world)
		if err != nil {
			return fmt.Errorf("while encoding scene: %w", err)
		}
		if err := os.WriteFile(*dumpScene, b, 0644); err != nil {
			return fmt.Errorf("while writing scene file: %w", err)
		}
		return nil
	}

	options := &scene.RenderOptions{
		ImageWidth:      *imageWidth,
		ImageHeight:     int(float64(*imageWidth) / *aspectRatio),
		SamplesPerPixel: *samplesPerPixel,
		MaxDepth:        *maxDepth,
		Workers:         *workers,
		Sequential:      *sequential,
		Metrics:         metrics,
	}

	cameraParams := camera.Params{
		LookFrom:      lookFrom.Vec(),
		LookAt:        lookAt.Vec(),
		Up:            viewUp.Vec(),
		VerticalFOV:   *verticalFOV,
		AspectRatio:   *aspectRatio,
		Aperture:      *aperture,
		FocusDistance: *focusDistance,
	}

	s := &scene.Scene{
		World:  world,
		Camera: camera.New(cameraParams),
	}

	tracker := progress.NewTracker(sceneLabel)
	terminal := progress.NewTerminal(os.Stderr, *progressRate)
	ready := healthz.NewReadiness()

	if *debugListen != "" {
		debugServeMux := http.NewServeMux()
		debugServeMux.Handle("/healthz", healthz.New())
		debugServeMux.Handle("/readyz", ready)
		debugServeMux.Handle("/progress", &progress.Handler{Tracker: tracker})
		debugServeMux.HandleFunc("/debug/pprof/", netpprof.Index)
		debugServeMux.HandleFunc("/debug/pprof/cmdline", netpprof.Cmdline)
		debugServeMux.HandleFunc("/debug/pprof/profile", netpprof.Profile)
		debugServeMux.HandleFunc("/debug/pprof/symbol", netpprof.Symbol)
		debugServeMux.HandleFunc("/debug/pprof/trace", netpprof.Trace)
		debugServer := &http.Server{
			Addr:    *debugListen,
			Handler: debugServeMux,

			ReadTimeout:    30 * time.Second,
			WriteTimeout:   60 * time.Second,
			MaxHeaderBytes: 1 << 20,
		}

		go func() {
			if err := debugServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				glog.Errorf("Debug server died: %v", err)
			}
		}()
		defer debugServer.Close()
	}

	var job *checkpoint.Job
	if *checkpointDir != "" {
		store, err := checkpoint.Open(*checkpointDir)
		if err != nil {
			return fmt.Errorf("while opening checkpoint: %w", err)
		}
		defer func() {
			if err := store.Close(); err != nil {
				glog.Errorf("Error while closing checkpoint: %v", err)
			}
		}()

		manifest, err := renderManifest(sceneLabel, kind, options, cameraParams)
		if err != nil {
			return err
		}

		job, err = store.Job(ctx, manifest, 3*options.ImageWidth)
		if err != nil {
			return fmt.Errorf("while opening checkpoint job: %w", err)
		}

		done, err := job.Completed()
		if err != nil {
			return fmt.Errorf("while inspecting checkpoint: %w", err)
		}
		glog.Infof("Checkpoint job %016x has %d of %d scanlines", job.ID, done, options.ImageHeight)
		options.Checkpointer = job
	}

	img := rgbimage.New(options.ImageWidth, options.ImageHeight)

	progressFunction := func(done, total int) {
		tracker.Update(done, total)
		terminal.Update(done, total)
	}

	glog.Infof("Rendering %dx%d, %d samples per pixel, %s random source", options.ImageWidth, options.ImageHeight, options.SamplesPerPixel, kind)
	ready.SetReady()
	tracker.Start()
	start := time.Now()
	if err := scene.RenderScene(ctx, s, options, img, randsource.NewFactory(kind, renderSeed), progressFunction); err != nil {
		return fmt.Errorf("while rendering: %w", err)
	}
	glog.Infof("Rendered in %v", time.Since(start))

	if err := imagesink.Write(ctx, *output, img); err != nil {
		return err
	}

	if job != nil && !*keepCheckpoint {
		if err := job.Discard(); err != nil {
			return fmt.Errorf("while discarding checkpoint: %w", err)
		}
	}

	return nil
}

// loadWorld builds the world named by -scene or -scene-file.  Built-in scenes
// are always placed with the fast backend, so a given -scene-seed yields the
// same world on every run and checkpoints stay valid.
func loadWorld(worldSeed uint32) (*geometry.World, string, error) {
	if *sceneFile != "" {
		w, err := scenepack.LoadScene(*sceneFile)
		if err != nil {
			return nil, "", fmt.Errorf("while loading scene: %w", err)
		}
		return w, *sceneFile, nil
	}

	builder, err := scenepack.Lookup(*sceneName)
	if err != nil {
		return nil, "", err
	}
	return builder(randsource.NewFast(worldSeed)), *sceneName, nil
}

// checkSeed narrows a seed flag to the 32 bits the fast backend keeps.
func checkSeed(name string, v uint) (uint32, error) {
	if uint64(v) > math.MaxUint32 {
		return 0, fmt.Errorf("-%s=%d is out of range; want at most %d", name, v, uint64(math.MaxUint32))
	}
	return uint32(v), nil
}

// renderManifest lists every setting that affects the pixels of a render.
func renderManifest(sceneLabel string, kind randsource.Kind, options *scene.RenderOptions, cp camera.Params) (*structpb.Struct, error) {
	m, err := structpb.NewStruct(map[string]interface{}{
		"scene":             sceneLabel,
		"scene_seed":        float64(*sceneSeed),
		"random_source":     kind.String(),
		"seed":              float64(*seed),
		"width":             options.ImageWidth,
		"height":            options.ImageHeight,
		"samples_per_pixel": options.SamplesPerPixel,
		"max_depth":         options.MaxDepth,
		"look_from":         lookFrom.List(),
		"look_at":           lookAt.List(),
		"view_up":           viewUp.List(),
		"vertical_fov":      cp.VerticalFOV,
		"aspect_ratio":      cp.AspectRatio,
		"aperture":          cp.Aperture,
		"focus_distance":    cp.FocusDistance,
	})
	if err != nil {
		return nil, fmt.Errorf("while building checkpoint manifest: %w", err)
	}
	return m, nil
}
