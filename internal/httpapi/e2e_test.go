package httpapi

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

type fakeGeoIP map[string]string

func (g fakeGeoIP) Lookup(_ context.Context, ip string) string { return g[ip] }

const (
	linkAlpha = "trojan://pw@a.example.com:443?sni=a.example.com#alpha"
	linkBeta  = "trojan://pw@b.example.com:443?sni=b.example.com#beta"
)

// newUpstream serves a few subscriptions. /sub requires token=x and echoes
// the User-Agent it saw in a header.
func newUpstream(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/sub", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("token") != "x" {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		w.Header().Set("Subscription-Userinfo", "upload=1.5; download=2; total=10; expire=")
		w.Header().Set("Profile-Update-Interval", "12")
		w.Header().Set("X-Seen-UA", r.UserAgent())
		_, _ = w.Write([]byte(base64.StdEncoding.EncodeToString([]byte(linkAlpha + "\n" + linkBeta + "\n"))))
	})
	mux.HandleFunc("/named", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Disposition", `attachment; filename="upstream.yaml"`)
		_, _ = w.Write([]byte(linkAlpha + "\n"))
	})
	mux.HandleFunc("/broken", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()
	return NewHandlerWithOptions(Options{Version: "test", GeoIP: fakeGeoIP{}})
}

func do(t *testing.T, h http.Handler, path string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, vs := range header {
		req.Header[k] = vs
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func lines(s string) []string {
	return strings.Split(strings.TrimRight(s, "\n"), "\n")
}

func TestE2E_RemoteURIWithQueryAndHeaders(t *testing.T) {
	up := newUpstream(t)
	h := newTestHandler(t)

	rr := do(t, h, "/!uri/"+up.URL+"/sub?token=x", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	if got, want := rr.Header().Get("Content-Type"), "text/plain; charset=utf-8"; got != want {
		t.Fatalf("Content-Type=%q, want=%q", got, want)
	}
	got := lines(rr.Body.String())
	if len(got) != 2 || !strings.HasSuffix(got[0], "#alpha") || !strings.HasSuffix(got[1], "#beta") {
		t.Fatalf("body=%q", rr.Body.String())
	}
	if got, want := rr.Header().Get("X-Count"), "2/2/2"; got != want {
		t.Fatalf("X-Count=%q, want=%q", got, want)
	}
	if got, want := rr.Header().Get("Subscription-Userinfo"), "upload=1; download=2; total=10; expire="; got != want {
		t.Fatalf("Subscription-Userinfo=%q, want=%q", got, want)
	}
	if got, want := rr.Header().Get("Profile-Update-Interval"), "12"; got != want {
		t.Fatalf("Profile-Update-Interval=%q, want=%q", got, want)
	}
	if got := rr.Header().Get("X-Seen-UA"); got != "" {
		t.Fatalf("upstream-only header leaked: %q", got)
	}
}

func TestE2E_Base64AndAuto(t *testing.T) {
	up := newUpstream(t)
	h := newTestHandler(t)
	from := up.URL + "/sub?token=x"

	rr := do(t, h, "/!base64/"+from, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	raw, err := base64.StdEncoding.DecodeString(rr.Body.String())
	if err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if n := len(lines(string(raw))); n != 2 {
		t.Fatalf("decoded lines=%d, want=2:\n%s", n, raw)
	}

	rr = do(t, h, "/!auto/"+from, http.Header{"User-Agent": {"clash-verge/v1.7"}})
	if !strings.Contains(rr.Body.String(), "\nproxy-groups:\n") {
		t.Fatalf("auto with clash UA should render clash, got:\n%s", rr.Body.String())
	}
	rr = do(t, h, "/!auto&ua=curl/"+from, http.Header{"User-Agent": {"clash-verge/v1.7"}})
	if _, err := base64.StdEncoding.DecodeString(rr.Body.String()); err != nil {
		t.Fatalf("auto with ua=curl should render base64, got:\n%s", rr.Body.String())
	}
}

func TestE2E_DefaultTargetIsClash(t *testing.T) {
	h := newTestHandler(t)
	rr := do(t, h, "/"+url.PathEscape(linkAlpha), nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	body := rr.Body.String()
	for _, want := range []string{"proxies:\n", `"name":"alpha"`, "proxy-groups:\n", "rules:\n"} {
		if !strings.Contains(body, want) {
			t.Fatalf("body missing %q:\n%s", want, body)
		}
	}
}

func TestE2E_ClashProxiesFlag(t *testing.T) {
	h := newTestHandler(t)
	rr := do(t, h, "/!clash-proxies/"+url.PathEscape(linkAlpha), nil)
	body := rr.Body.String()
	if !strings.Contains(body, `"name":"alpha"`) || strings.Contains(body, "proxy-groups:") {
		t.Fatalf("clash-proxies body:\n%s", body)
	}
}

func TestE2E_NotFound(t *testing.T) {
	h := newTestHandler(t)
	rr := do(t, h, "/nothing%20here%21", nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	if got := rr.Body.String(); got != "Not Found" {
		t.Fatalf("body=%q", got)
	}
	if got := rr.Header().Get("X-Count"); got != "" {
		t.Fatalf("X-Count=%q, want empty", got)
	}
}

func TestE2E_UpstreamFailure(t *testing.T) {
	up := newUpstream(t)
	h := newTestHandler(t)
	rr := do(t, h, "/"+up.URL+"/broken", nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	if !strings.HasPrefix(rr.Body.String(), "订阅转换失败") {
		t.Fatalf("body=%q", rr.Body.String())
	}
}

func TestE2E_FilterSyntaxError(t *testing.T) {
	h := newTestHandler(t)
	rr := do(t, h, "/!filter=name%3Da%20and/"+url.PathEscape(linkAlpha), nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	if !strings.HasPrefix(rr.Body.String(), "订阅转换失败") {
		t.Fatalf("body=%q", rr.Body.String())
	}
}

func TestE2E_FilterAndMerge(t *testing.T) {
	h := newTestHandler(t)
	from := url.PathEscape(linkAlpha + "|" + linkBeta)
	rr := do(t, h, "/!uri&filter=name%3Dbeta/"+from, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	got := lines(rr.Body.String())
	if len(got) != 1 || !strings.HasSuffix(got[0], "#beta") {
		t.Fatalf("body=%q", rr.Body.String())
	}
	if got, want := rr.Header().Get("X-Count"), "1/2/2"; got != want {
		t.Fatalf("X-Count=%q, want=%q", got, want)
	}
}

func TestE2E_ContentDisposition(t *testing.T) {
	up := newUpstream(t)
	h := newTestHandler(t)

	rr := do(t, h, "/!filename=my%20sub/"+url.PathEscape(linkAlpha), nil)
	if got, want := rr.Header().Get("Content-Disposition"), "attachment; filename*=UTF-8''my%20sub"; got != want {
		t.Fatalf("Content-Disposition=%q, want=%q", got, want)
	}

	rr = do(t, h, "/"+up.URL+"/named", nil)
	if got, want := rr.Header().Get("Content-Disposition"), `attachment; filename="upstream.yaml"`; got != want {
		t.Fatalf("Content-Disposition=%q, want=%q", got, want)
	}

	rr = do(t, h, "/!filename=x/"+url.PathEscape(linkAlpha), http.Header{"Accept": {"text/html,application/xhtml+xml"}})
	if got := rr.Header().Get("Content-Disposition"); got != "" {
		t.Fatalf("browser request got Content-Disposition=%q", got)
	}
}

func TestE2E_EmptySentinel(t *testing.T) {
	h := newTestHandler(t)
	rr := do(t, h, "/empty", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	if !strings.Contains(rr.Body.String(), "proxy-groups:\n") {
		t.Fatalf("body:\n%s", rr.Body.String())
	}
}

func TestParseConvertRequest(t *testing.T) {
	cases := []struct {
		path   string
		target string
		from   string
	}{
		{"/https://a.example.com/s?t=1", "clash", "https://a.example.com/s?t=1"},
		{"/!uri/HTTPS://a.example.com/s%20x", "uri", "HTTPS://a.example.com/s%20x"},
		{"/!to=base64/ss%3A%2F%2Fx", "base64", "ss://x"},
		{"/!to=uri&base64/empty", "base64", "empty"},
		{"/!ndl/empty", "clash", "empty"},
		{"/", "clash", ""},
	}
	for _, c := range cases {
		req := parseConvertRequest(httptest.NewRequest(http.MethodGet, c.path, nil))
		if string(req.Target) != c.target || req.From != c.from {
			t.Fatalf("%s: target=%q from=%q, want target=%q from=%q", c.path, req.Target, req.From, c.target, c.from)
		}
	}
}

func TestConvertRequestOptions(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/!meta=no&ndl&proxy=socks5%3A%2F%2Fh%3A1%7C&hide=name%3Dx/empty", nil)
	r.Header.Set("User-Agent", "clash.meta")
	req := parseConvertRequest(r)
	opt := req.options(r, Options{})
	if !opt.Legacy || !opt.NoDNSLeak {
		t.Fatalf("Legacy=%v NoDNSLeak=%v, want both true", opt.Legacy, opt.NoDNSLeak)
	}
	if opt.UserAgent != "clash.meta" {
		t.Fatalf("UserAgent=%q", opt.UserAgent)
	}
	if len(opt.Proxies) != 2 || opt.Proxies[0] != "socks5://h:1" || opt.Proxies[1] != "" {
		t.Fatalf("Proxies=%q", opt.Proxies)
	}
	if opt.Hide != "name=x" {
		t.Fatalf("Hide=%q", opt.Hide)
	}

	r = httptest.NewRequest(http.MethodGet, "/!meta=maybe/empty", nil)
	if req := parseConvertRequest(r); req.options(r, Options{}).Legacy {
		t.Fatalf("unrecognised meta value must not enable legacy mode")
	}
}
