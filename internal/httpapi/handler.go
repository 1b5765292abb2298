package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

// NewHandlerWithOptions returns the production handler.
func NewHandlerWithOptions(opt Options) http.Handler {
	return NewRouter(opt)
}

type statusWriter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (w *statusWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }

func (w *statusWriter) WriteHeader(statusCode int) {
	if w.status == 0 {
		w.status = statusCode
	}
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusWriter) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(p)
	w.bytes += n
	return n, err
}

func withObservability(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		sw := &statusWriter{ResponseWriter: w}
		next.ServeHTTP(sw, r)

		status := sw.status
		if status == 0 {
			status = http.StatusOK
		}

		// The route pattern keeps metric labels low-cardinality; the path of
		// a conversion carries the whole input.
		pattern := r.Method
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			pattern += " " + rc.RoutePattern()
		}
		metricsIncRequest(pattern, status)

		if r.URL.Path == "/healthz" || r.URL.Path == "/metrics" {
			return
		}
		// Never log the path or query of a conversion: both may hold tokens.
		logrus.WithFields(logrus.Fields{
			"method":  r.Method,
			"pattern": pattern,
			"status":  status,
			"dur":     time.Since(start).Round(time.Millisecond).String(),
			"bytes":   sw.bytes,
		}).Info("http")
	})
}
