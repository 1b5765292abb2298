package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/John-Robertt/cvt/internal/model"
)

func TestRouter_VersionAndHealthz(t *testing.T) {
	h := newTestHandler(t)

	rr := do(t, h, "/version", nil)
	if rr.Code != http.StatusOK || rr.Body.String() != "test" {
		t.Fatalf("version status=%d body=%q", rr.Code, rr.Body.String())
	}
	rr = do(t, h, "/healthz", nil)
	if rr.Code != http.StatusOK || rr.Body.String() != "ok\n" {
		t.Fatalf("healthz status=%d body=%q", rr.Code, rr.Body.String())
	}

	req := httptest.NewRequest(http.MethodHead, "/version", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("HEAD version status=%d", rec.Code)
	}
}

func TestRouter_UnknownTarget(t *testing.T) {
	h := newTestHandler(t)
	rr := do(t, h, "/!to=surge/empty", nil)

	if got, want := rr.Code, http.StatusBadRequest; got != want {
		t.Fatalf("status = %d, want %d", got, want)
	}
	var resp model.ErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v\nbody=%q", err, rr.Body.String())
	}
	if resp.Error.Code != "UNSUPPORTED_TARGET" {
		t.Fatalf("code = %q, want %q", resp.Error.Code, "UNSUPPORTED_TARGET")
	}
	if resp.Error.Stage != "render" {
		t.Fatalf("stage = %q, want %q", resp.Error.Stage, "render")
	}
}

func TestRouter_RateLimit(t *testing.T) {
	h := NewHandlerWithOptions(Options{GeoIP: fakeGeoIP{}, RateLimit: 0.001, Burst: 1})

	if rr := do(t, h, "/empty", nil); rr.Code != http.StatusOK {
		t.Fatalf("first status=%d body=%s", rr.Code, rr.Body.String())
	}
	rr := do(t, h, "/empty", nil)
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("second status=%d, want 429", rr.Code)
	}
	var resp model.ErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil || resp.Error.Code != "RATE_LIMITED" {
		t.Fatalf("body=%q err=%v", rr.Body.String(), err)
	}

	// Fixed endpoints are never limited.
	if rr := do(t, h, "/version", nil); rr.Code != http.StatusOK {
		t.Fatalf("version status=%d", rr.Code)
	}

	// Another client has its own bucket.
	req := httptest.NewRequest(http.MethodGet, "/empty", nil)
	req.RemoteAddr = "198.51.100.7:4000"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("other client status=%d", rec.Code)
	}
}

func TestRouter_TrustProxy(t *testing.T) {
	h := NewHandlerWithOptions(Options{GeoIP: fakeGeoIP{}, RateLimit: 0.001, Burst: 1, TrustProxy: true})

	for i, ip := range []string{"203.0.113.1", "203.0.113.2"} {
		req := httptest.NewRequest(http.MethodGet, "/empty", nil)
		req.Header.Set("X-Real-IP", ip)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d status=%d", i, rec.Code)
		}
	}
}

func TestRouter_CORS(t *testing.T) {
	h := newTestHandler(t)
	rr := do(t, h, "/version", http.Header{"Origin": {"https://app.example.com"}})
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("Access-Control-Allow-Origin=%q, want *", got)
	}
}
