package healthz

import (
	"net/http"
	"sync/atomic"
)

// Handler answers health probes.  A Handler from New is always healthy; one
// from NewReadiness fails until SetReady is called.
type Handler struct {
	gated bool
	ready int32
}

func New() *Handler {
	return &Handler{}
}

func NewReadiness() *Handler {
	return &Handler{gated: true}
}

func (h *Handler) SetReady() {
	atomic.StoreInt32(&h.ready, 1)
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.gated && atomic.LoadInt32(&h.ready) == 0 {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("503 Service Unavailable"))
		return
	}
	w.Write([]byte("200 OK"))
}
