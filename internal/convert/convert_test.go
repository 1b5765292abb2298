package convert

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/John-Robertt/cvt/internal/compiler"
	"github.com/John-Robertt/cvt/internal/fetch"
	"github.com/John-Robertt/cvt/internal/model"
	"github.com/John-Robertt/cvt/internal/render"
	"github.com/John-Robertt/cvt/internal/uri"
)

type reply struct {
	body   string
	header http.Header
	err    error
}

type fakeFetcher struct {
	mu      sync.Mutex
	replies map[string]reply
	calls   map[string]fetch.Options
}

func (f *fakeFetcher) Fetch(_ context.Context, rawURL string, opt fetch.Options) (*fetch.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = map[string]fetch.Options{}
	}
	f.calls[rawURL] = opt
	r, ok := f.replies[rawURL]
	if !ok {
		return nil, errors.New("no such url")
	}
	if r.err != nil {
		return nil, r.err
	}
	return &fetch.Result{Body: []byte(r.body), Header: r.header}, nil
}

type fakeGeoIP map[string]string

func (g fakeGeoIP) Lookup(_ context.Context, ip string) string { return g[ip] }

func opts(target render.Target) Options {
	return Options{Target: target, Fetcher: &fakeFetcher{}, GeoIP: fakeGeoIP{}}
}

func outNames(t *testing.T, body string) []string {
	t.Helper()
	b := uri.ParseAll(body, false)
	require.Equal(t, b.Total, len(b.Proxies), "body:\n%s", body)
	out := make([]string, 0, len(b.Proxies))
	for _, p := range b.Proxies {
		out = append(out, p.Name)
	}
	return out
}

func link(t *testing.T, p *model.Proxy) string {
	t.Helper()
	s, err := uri.Format(p)
	require.NoError(t, err)
	return s
}

func TestConvert_DuplicateNames(t *testing.T) {
	from := "trojan://pw@a.example.com:443#Node\ntrojan://pw@b.example.com:443#Node"
	res, err := Convert(context.Background(), from, opts(render.TargetURI))
	require.NoError(t, err)
	assert.False(t, res.Failed)
	assert.Equal(t, []string{"Node", "Node 2"}, outNames(t, res.Body))
	assert.Equal(t, model.Counts{Filtered: 2, Merged: 2, Total: 2}, res.Counts)
}

func TestConvert_Filter(t *testing.T) {
	vmess := func(name string, port int) string {
		return link(t, &model.Proxy{
			Name: name, Server: "example.com", Port: port, Type: model.TypeVMess,
			Options: &model.VMess{UUID: "0b6c5f4e-5d2b-4c4e-9a47-1f2c3d4e5f60", Cipher: "auto"},
		})
	}
	from := vmess("alpha", 443) + "\n" + vmess("beta", 8080)

	o := opts(render.TargetURI)
	o.Filter = "type=vmess and not port=443"
	res, err := Convert(context.Background(), from, o)
	require.NoError(t, err)
	assert.Equal(t, []string{"beta"}, outNames(t, res.Body))
	assert.Equal(t, model.Counts{Filtered: 1, Merged: 2, Total: 2}, res.Counts)
}

func TestConvert_GeoIPName(t *testing.T) {
	o := opts(render.TargetURI)
	o.GeoIP = fakeGeoIP{"1.2.3.4": "JP"}
	res, err := Convert(context.Background(), "trojan://pw@1.2.3.4:443#"+"无标签节点", o)
	require.NoError(t, err)
	assert.Equal(t, []string{"🇯🇵 无标签节点"}, outNames(t, res.Body))
}

func TestConvert_HiddenRecords(t *testing.T) {
	from := "proxies:\n" +
		"- {name: hidden-node, type: http, server: h.example.com, port: 80, hidden: true}\n" +
		"- {name: visible-node, type: http, server: v.example.com, port: 80}\n"

	res, err := Convert(context.Background(), from, opts(render.TargetClashProxies))
	require.NoError(t, err)
	assert.Contains(t, res.Body, `"name":"hidden-node"`)
	assert.Contains(t, res.Body, `"hidden":true`)

	res, err = Convert(context.Background(), from, opts(render.TargetClash))
	require.NoError(t, err)
	i := strings.Index(res.Body, "proxy-groups:\n")
	require.Positive(t, i)
	assert.Contains(t, res.Body[:i], `"name":"hidden-node"`)
	assert.NotContains(t, res.Body[:i], `"hidden"`)
	assert.NotContains(t, res.Body[i:], "hidden-node")
	assert.Contains(t, res.Body[i:], "visible-node")
}

func TestConvert_Hide(t *testing.T) {
	from := "trojan://pw@a.example.com:443#alpha\ntrojan://pw@b.example.com:443#beta"
	o := opts(render.TargetClash)
	o.Hide = "name=beta"
	res, err := Convert(context.Background(), from, o)
	require.NoError(t, err)
	i := strings.Index(res.Body, "proxy-groups:\n")
	require.Positive(t, i)
	assert.Contains(t, res.Body[:i], `"name":"beta"`)
	assert.NotContains(t, res.Body[i:], `"beta"`)
	assert.Contains(t, res.Body[i:], `"alpha"`)
}

func TestConvert_FilterSyntaxError(t *testing.T) {
	o := opts(render.TargetClash)
	o.Filter = "(name=a"
	res, err := Convert(context.Background(), "trojan://pw@a.example.com:443#a", o)
	require.NoError(t, err)
	assert.True(t, res.Failed)
	assert.True(t, strings.HasPrefix(res.Body, FailurePrefix), res.Body)
	assert.Contains(t, res.Body, "Expected ), got EOF (pos 7)")

	var ce *compiler.CompileError
	require.ErrorAs(t, res.Err, &ce)
	assert.Equal(t, "FILTER_SYNTAX_ERROR", ce.AppError.Code)
}

func TestConvert_UnknownTarget(t *testing.T) {
	_, err := Convert(context.Background(), "empty", opts("surge"))
	var re *render.RenderError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "UNSUPPORTED_TARGET", re.AppError.Code)
}

func TestConvert_NothingFound(t *testing.T) {
	res, err := Convert(context.Background(), "nothing here!", opts(render.TargetClash))
	require.NoError(t, err)
	assert.False(t, res.Failed)
	assert.Equal(t, "", res.Body)
	assert.Equal(t, model.Counts{}, res.Counts)
}

func TestConvert_EmptySentinel(t *testing.T) {
	res, err := Convert(context.Background(), Empty, opts(render.TargetClash))
	require.NoError(t, err)
	assert.False(t, res.Failed)
	assert.Contains(t, res.Body, "proxies:\n")
	assert.Contains(t, res.Body, "proxy-groups:\n")
}

func TestConvert_AllSegmentsFailed(t *testing.T) {
	f := &fakeFetcher{replies: map[string]reply{
		"https://sub.example.com/a?token=secret": {err: errors.New("connection refused")},
	}}
	o := opts(render.TargetClash)
	o.Fetcher = f
	res, err := Convert(context.Background(), "https://sub.example.com/a?token=secret", o)
	require.NoError(t, err)
	assert.True(t, res.Failed)
	assert.True(t, strings.HasPrefix(res.Body, FailurePrefix), res.Body)
	assert.Contains(t, res.Body, "https://sub.example.com/a: connection refused")
	assert.NotContains(t, res.Body, "secret")
	assert.Len(t, res.Errors, 1)
}

func TestConvert_PartialFailure(t *testing.T) {
	f := &fakeFetcher{replies: map[string]reply{
		"https://ok.example.com/sub": {body: "trojan://pw@a.example.com:443#alpha"},
	}}
	o := opts(render.TargetClash)
	o.Fetcher = f
	res, err := Convert(context.Background(), "https://ok.example.com/sub|https://down.example.com/sub", o)
	require.NoError(t, err)
	assert.False(t, res.Failed)
	assert.Contains(t, res.Body, "# 以下 1 个订阅转换失败：\n# https://down.example.com/sub: no such url\n")
	assert.Contains(t, res.Body, `"name":"alpha"`)
}

func TestConvert_FetchOptionsAndHeaders(t *testing.T) {
	withInfo := http.Header{}
	withInfo.Set("subscription-userinfo", "upload=1; download=2")
	plain := http.Header{}
	plain.Set("profile-update-interval", "24")

	f := &fakeFetcher{replies: map[string]reply{
		"https://a.example.com/": {body: "trojan://pw@a.example.com:443#alpha", header: plain},
		"https://b.example.com/": {body: "trojan://pw@b.example.com:443#beta", header: withInfo},
	}}
	o := opts(render.TargetURI)
	o.Fetcher = f
	o.UserAgent = "clash.meta"
	o.Proxies = []string{"", "socks5://127.0.0.1:1080"}

	res, err := Convert(context.Background(), "https://a.example.com/|https://b.example.com/", o)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "beta"}, outNames(t, res.Body))
	assert.Equal(t, withInfo, res.Header)

	assert.Equal(t, "clash.meta", f.calls["https://a.example.com/"].UserAgent)
	assert.Equal(t, "", f.calls["https://a.example.com/"].Proxy)
	assert.Equal(t, "socks5://127.0.0.1:1080", f.calls["https://b.example.com/"].Proxy)
}

func TestConvert_CountsAndNoise(t *testing.T) {
	from := "trojan://pw@a.example.com:443#" + "剩余流量：10GB" + "\n" +
		"trojan://pw@b.example.com:443#beta\n" +
		"foo://bar\n"
	res, err := Convert(context.Background(), from, opts(render.TargetClash))
	require.NoError(t, err)
	assert.Equal(t, model.Counts{Filtered: 1, Merged: 2, Total: 3}, res.Counts)
	assert.Contains(t, res.Body, "# 排除了 1 个 Clash.Meta 不支持的节点: 1 foo\n")
	assert.Contains(t, res.Body, "# 排除了 1 个节点\n")
}

func TestDecode_Base64(t *testing.T) {
	b, err := Decode("dHJvamFuOi8vcHdAYS5leGFtcGxlLmNvbTo0NDMjYWxwaGE", false)
	require.NoError(t, err)
	require.Len(t, b.Proxies, 1)
	assert.Equal(t, "alpha", b.Proxies[0].Name)
}

func TestNormalizeUserinfo(t *testing.T) {
	assert.Equal(t,
		"upload=1; download=0; total=100; expire=",
		NormalizeUserinfo("upload=1.5; download=abc; total= 100 ; expire="))
}

func TestPassthrough(t *testing.T) {
	h := http.Header{}
	h.Set("subscription-userinfo", "upload=2.0")
	h.Set("profile-web-page-url", "https://example.com")
	h.Set("x-other", "1")
	got := Passthrough(h)
	assert.Equal(t, "upload=2", got.Get("subscription-userinfo"))
	assert.Equal(t, "https://example.com", got.Get("profile-web-page-url"))
	assert.Empty(t, got.Get("x-other"))
	assert.Empty(t, Passthrough(nil))
}
