package httpapi

import (
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/puzpuzpuz/xsync/v3"
)

// metricsStore holds a few counters in Prometheus text form. Updates are
// lock-free; the handler sorts a snapshot.
type metricsStore struct {
	httpRequestsTotal *xsync.Counter
	httpByPattern     *xsync.MapOf[reqKey, *xsync.Counter]
	appErrors         *xsync.MapOf[errKey, *xsync.Counter]
	conversions       *xsync.MapOf[string, *xsync.Counter]
}

type reqKey struct {
	Pattern string
	Status  int
}

type errKey struct {
	Stage string
	Code  string
}

func newMetricsStore() *metricsStore {
	return &metricsStore{
		httpRequestsTotal: xsync.NewCounter(),
		httpByPattern:     xsync.NewMapOf[reqKey, *xsync.Counter](),
		appErrors:         xsync.NewMapOf[errKey, *xsync.Counter](),
		conversions:       xsync.NewMapOf[string, *xsync.Counter](),
	}
}

var metrics = newMetricsStore()

func inc[K comparable](m *xsync.MapOf[K, *xsync.Counter], k K) {
	c, _ := m.LoadOrCompute(k, xsync.NewCounter)
	c.Inc()
}

func metricsIncRequest(pattern string, status int) {
	if status == 0 {
		status = http.StatusOK
	}
	if pattern == "" {
		pattern = "(unknown)"
	}
	metrics.httpRequestsTotal.Inc()
	inc(metrics.httpByPattern, reqKey{Pattern: pattern, Status: status})
}

func metricsIncAppError(stage, code string) {
	stage = strings.TrimSpace(stage)
	code = strings.TrimSpace(code)
	if stage == "" {
		stage = "(unknown)"
	}
	if code == "" {
		code = "(unknown)"
	}
	inc(metrics.appErrors, errKey{Stage: stage, Code: code})
}

// metricsIncConversion counts finished conversions by outcome.
func metricsIncConversion(outcome string) {
	inc(metrics.conversions, outcome)
}

type sample struct {
	labels string
	n      int64
}

func snapshot[K comparable](m *xsync.MapOf[K, *xsync.Counter], labels func(K) string) []sample {
	var out []sample
	m.Range(func(k K, c *xsync.Counter) bool {
		out = append(out, sample{labels: labels(k), n: c.Value()})
		return true
	})
	sort.Slice(out, func(i, j int) bool { return out[i].labels < out[j].labels })
	return out
}

func handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store")

	var b strings.Builder
	family := func(name, help string, samples []sample) {
		b.WriteString("# HELP " + name + " " + help + "\n")
		b.WriteString("# TYPE " + name + " counter\n")
		for _, s := range samples {
			b.WriteString(name + s.labels + " " + strconv.FormatInt(s.n, 10) + "\n")
		}
	}

	family("cvt_http_requests_total", "Total HTTP requests.",
		[]sample{{n: metrics.httpRequestsTotal.Value()}})
	family("cvt_http_requests_by_pattern_total", "HTTP requests by route pattern and status.",
		snapshot(metrics.httpByPattern, func(k reqKey) string {
			return `{pattern="` + promLabelEscape(k.Pattern) + `",status="` + strconv.Itoa(k.Status) + `"}`
		}))
	family("cvt_app_errors_total", "Application errors returned to clients.",
		snapshot(metrics.appErrors, func(k errKey) string {
			return `{stage="` + promLabelEscape(k.Stage) + `",code="` + promLabelEscape(k.Code) + `"}`
		}))
	family("cvt_conversions_total", "Conversions by outcome.",
		snapshot(metrics.conversions, func(k string) string {
			return `{outcome="` + promLabelEscape(k) + `"}`
		}))

	WriteText(w, r, http.StatusOK, b.String())
}

func promLabelEscape(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "\"", "\\\"")
	s = strings.ReplaceAll(s, "\n", "\\n")
	return s
}
