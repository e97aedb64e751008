package healthz

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func probe(h http.Handler) (int, string) {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	return rec.Code, rec.Body.String()
}

func TestAlwaysHealthy(t *testing.T) {
	code, body := probe(New())
	if code != http.StatusOK || body != "200 OK" {
		t.Errorf("Bad response; got %d %q, want 200 \"200 OK\"", code, body)
	}
}

func TestReadiness(t *testing.T) {
	h := NewReadiness()

	if code, _ := probe(h); code != http.StatusServiceUnavailable {
		t.Errorf("Bad status before ready; got %d, want %d", code, http.StatusServiceUnavailable)
	}

	h.SetReady()
	if code, body := probe(h); code != http.StatusOK || body != "200 OK" {
		t.Errorf("Bad response after ready; got %d %q, want 200 \"200 OK\"", code, body)
	}
}
