// Package progress reports how far a render has got, on a status page and on
// the terminal.
package progress

import (
	"fmt"
	"html/template"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/golang/glog"
	"golang.org/x/term"
	"golang.org/x/time/rate"
)

// Status is a point-in-time view of a Tracker.
type Status struct {
	Scene     string
	Done      int
	Total     int
	Remaining int
	Elapsed   time.Duration

	// ETA is a linear extrapolation from Elapsed.  Zero until the first
	// scanline finishes.
	ETA time.Duration
}

func (s Status) Percent() int {
	if s.Total == 0 {
		return 0
	}
	return 100 * s.Done / s.Total
}

// Tracker counts finished scanlines.  It is safe for concurrent use.
type Tracker struct {
	Scene string

	mu    sync.Mutex
	start time.Time
	done  int
	total int

	now func() time.Time
}

func NewTracker(scene string) *Tracker {
	return &Tracker{
		Scene: scene,
		now:   time.Now,
	}
}

// Start begins the elapsed time clock.  Call it just before rendering, so
// the first scanline counts toward Elapsed and ETA.
func (t *Tracker) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.start = t.now()
}

// Update has the signature of scene.ProgressFunction.
func (t *Tracker) Update(done, total int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.done = done
	t.total = total
}

func (t *Tracker) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := Status{
		Scene:     t.Scene,
		Done:      t.done,
		Total:     t.total,
		Remaining: t.total - t.done,
	}
	if !t.start.IsZero() {
		s.Elapsed = t.now().Sub(t.start)
	}
	if t.done > 0 {
		s.ETA = time.Duration(float64(s.Elapsed) * float64(s.Remaining) / float64(t.done))
	}
	return s
}

var progressTemplate = template.Must(template.New("progress").Parse(`
<!DOCTYPE html>
<html lang="en">
  <head>
    <meta charset="utf-8">
    <title>Render Progress</title>
  </head>
  <body>
    <h1>Render Progress</h1>
    <table>
      <tbody>
        <tr><td>Scene</td><td>{{.Scene}}</td></tr>
        <tr><td>Scanlines Done</td><td>{{.Done}} / {{.Total}} ({{.Percent}}%)</td></tr>
        <tr><td>Scanlines Remaining</td><td>{{.Remaining}}</td></tr>
        <tr><td>Elapsed</td><td>{{.Elapsed}}</td></tr>
        <tr><td>Estimated Time Left</td><td>{{.ETA}}</td></tr>
      </tbody>
    </table>
  </body>
  <script>setTimeout(function() {location.reload();}, 10000);</script>
</html>
`))

// Handler serves an auto-refreshing status page for Tracker.
type Handler struct {
	Tracker *Tracker
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := progressTemplate.Execute(w, h.Tracker.Status()); err != nil {
		glog.Errorf("Error while rendering progress page: %v", err)
	}
}

// Terminal prints a "Scanlines remaining" counter, overwriting itself in
// place.  It stays silent unless its output is a terminal.
type Terminal struct {
	mu      sync.Mutex
	w       io.Writer
	enabled bool
	limiter *rate.Limiter
}

// NewTerminal writes to f at most perSecond times a second.
func NewTerminal(f *os.File, perSecond float64) *Terminal {
	return newTerminal(f, term.IsTerminal(int(f.Fd())), rate.NewLimiter(rate.Limit(perSecond), 1))
}

func newTerminal(w io.Writer, enabled bool, limiter *rate.Limiter) *Terminal {
	return &Terminal{
		w:       w,
		enabled: enabled,
		limiter: limiter,
	}
}

// Update has the signature of scene.ProgressFunction.  The final update is
// always printed.
func (t *Terminal) Update(done, total int) {
	if !t.enabled {
		return
	}
	if done < total && !t.limiter.Allow() {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.w, "\rScanlines remaining: %04d", total-done)
	if done == total {
		fmt.Fprintf(t.w, "\n")
	}
}
