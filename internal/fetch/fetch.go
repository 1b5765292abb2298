// Package fetch downloads remote subscriptions and data files with size,
// time and redirect limits.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/John-Robertt/cvt/internal/model"
)

type Kind int

const (
	KindSubscription Kind = iota
	KindGeoIP
	KindRuleset
)

func (k Kind) stage() string {
	switch k {
	case KindSubscription:
		return "fetch_sub"
	case KindGeoIP:
		return "fetch_geoip"
	case KindRuleset:
		return "fetch_ruleset"
	default:
		return "fetch"
	}
}

func (k Kind) defaultMaxBytes() int64 {
	switch k {
	case KindSubscription:
		return 10 * 1024 * 1024
	case KindGeoIP:
		return 16 * 1024 * 1024
	case KindRuleset:
		return 5 * 1024 * 1024
	default:
		return 1 * 1024 * 1024
	}
}

// text reports whether the body must be valid UTF-8.
func (k Kind) text() bool { return k != KindGeoIP }

type Options struct {
	Timeout      time.Duration // default 15s
	MaxBytes     int64         // default per kind
	MaxRedirects int           // default 5

	UserAgent string
	// Proxy is the upstream proxy for this request, see NormalizeProxy.
	Proxy string
}

// Result is a downloaded body. Header is nil for data: URLs.
type Result struct {
	Body   []byte
	Header http.Header
}

func (r *Result) Text() string { return string(r.Body) }

type FetchError struct {
	Status   int
	AppError model.AppError
	Cause    error
}

func (e *FetchError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Cause == nil {
		return fmt.Sprintf("%s: %s", e.AppError.Code, e.AppError.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.AppError.Code, e.AppError.Message, e.Cause)
}

func (e *FetchError) Unwrap() error { return e.Cause }

var (
	errTooManyRedirects   = errors.New("too many redirects")
	errRedirectBadScheme  = errors.New("redirect target scheme is not http/https")
	errInvalidURLOrScheme = errors.New("invalid url or scheme")
)

// Client fetches one kind of resource with fixed defaults. Per-call options
// override the defaults when set.
type Client struct {
	Kind     Kind
	Defaults Options
}

func (c *Client) Fetch(ctx context.Context, rawURL string, opt Options) (*Result, error) {
	if opt.Timeout == 0 {
		opt.Timeout = c.Defaults.Timeout
	}
	if opt.MaxBytes == 0 {
		opt.MaxBytes = c.Defaults.MaxBytes
	}
	if opt.MaxRedirects == 0 {
		opt.MaxRedirects = c.Defaults.MaxRedirects
	}
	if opt.UserAgent == "" {
		opt.UserAgent = c.Defaults.UserAgent
	}
	if opt.Proxy == "" {
		opt.Proxy = c.Defaults.Proxy
	}
	return Fetch(ctx, c.Kind, rawURL, opt)
}

func FetchText(ctx context.Context, kind Kind, rawURL string) (string, error) {
	res, err := Fetch(ctx, kind, rawURL, Options{})
	if err != nil {
		return "", err
	}
	return res.Text(), nil
}

// Fetch downloads rawURL. http and https URLs go over the network; data:
// URLs are decoded in place.
func Fetch(ctx context.Context, kind Kind, rawURL string, opt Options) (*Result, error) {
	stage := kind.stage()
	fail := func(status int, code, msg string, cause error) *FetchError {
		return &FetchError{
			Status:   status,
			AppError: model.AppError{Code: code, Message: msg, Stage: stage, URL: rawURL},
			Cause:    cause,
		}
	}

	timeout := opt.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	maxRedirects := opt.MaxRedirects
	if maxRedirects == 0 {
		maxRedirects = 5
	}
	maxBytes := opt.MaxBytes
	if maxBytes == 0 {
		maxBytes = kind.defaultMaxBytes()
	}
	if maxBytes <= 0 {
		return nil, fail(http.StatusBadRequest, "INVALID_ARGUMENT", "响应大小上限必须大于 0", nil)
	}

	u, err := url.Parse(rawURL)
	if err != nil || u == nil {
		return nil, fail(http.StatusBadRequest, "INVALID_ARGUMENT", "仅允许 http/https/data URL", errors.Join(errInvalidURLOrScheme, err))
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	case "data":
		body, err := DecodeDataURL(rawURL)
		if err != nil {
			return nil, fail(http.StatusBadRequest, "INVALID_ARGUMENT", "data URL 不合法", err)
		}
		if int64(len(body)) > maxBytes {
			return nil, fail(http.StatusUnprocessableEntity, "TOO_LARGE", fmt.Sprintf("远程资源过大（>%d bytes）", maxBytes), nil)
		}
		if kind.text() && !utf8.Valid(body) {
			return nil, fail(http.StatusUnprocessableEntity, "FETCH_INVALID_UTF8", "远程资源不是合法 UTF-8 文本", nil)
		}
		return &Result{Body: body}, nil
	default:
		return nil, fail(http.StatusBadRequest, "INVALID_ARGUMENT", "仅允许 http/https/data URL", errInvalidURLOrScheme)
	}

	transport := http.DefaultTransport
	if opt.Proxy != "" {
		pu, err := url.Parse(NormalizeProxy(opt.Proxy))
		if err != nil {
			return nil, fail(http.StatusBadRequest, "INVALID_ARGUMENT", "代理地址不合法", err)
		}
		t := http.DefaultTransport.(*http.Transport).Clone()
		t.Proxy = http.ProxyURL(pu)
		transport = t
	}

	client := &http.Client{
		Timeout:   timeout,
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			// 1st redirect => len(via)==1
			if len(via) > maxRedirects {
				return errTooManyRedirects
			}
			if req.URL.Scheme != "http" && req.URL.Scheme != "https" {
				return errRedirectBadScheme
			}
			return nil
		},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fail(http.StatusBadRequest, "INVALID_ARGUMENT", "请求 URL 不合法", err)
	}
	if opt.UserAgent != "" {
		req.Header.Set("User-Agent", opt.UserAgent)
	}
	req.Header.Set("Accept-Encoding", "gzip, zstd")

	resp, err := client.Do(req)
	if err != nil {
		if resp != nil && resp.Body != nil {
			_ = resp.Body.Close()
		}
		switch {
		case errors.Is(err, errTooManyRedirects):
			return nil, fail(http.StatusBadGateway, "FETCH_FAILED", fmt.Sprintf("重定向次数超过上限（>%d）", maxRedirects), err)
		case errors.Is(err, errRedirectBadScheme):
			return nil, fail(http.StatusBadRequest, "INVALID_ARGUMENT", "重定向目标仅允许 http/https", err)
		case isTimeout(err):
			return nil, fail(http.StatusGatewayTimeout, "FETCH_TIMEOUT", "拉取远程资源超时", err)
		default:
			return nil, fail(http.StatusBadGateway, "FETCH_FAILED", "拉取远程资源失败", err)
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fail(http.StatusBadGateway, "FETCH_FAILED", fmt.Sprintf("上游返回非 2xx 状态码：%d", resp.StatusCode), nil)
	}

	r, err := decodeBody(resp)
	if err != nil {
		return nil, fail(http.StatusBadGateway, "FETCH_FAILED", "解压上游响应失败", err)
	}
	defer r.Close()

	// Read at most maxBytes+1 to detect overflow deterministically.
	body, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		if isTimeout(err) {
			return nil, fail(http.StatusGatewayTimeout, "FETCH_TIMEOUT", "拉取远程资源超时", err)
		}
		return nil, fail(http.StatusBadGateway, "FETCH_FAILED", "读取上游响应失败", err)
	}
	if int64(len(body)) > maxBytes {
		return nil, fail(http.StatusUnprocessableEntity, "TOO_LARGE", fmt.Sprintf("远程资源过大（>%d bytes）", maxBytes), nil)
	}
	if kind.text() && !utf8.Valid(body) {
		return nil, fail(http.StatusUnprocessableEntity, "FETCH_INVALID_UTF8", "远程资源不是合法 UTF-8 文本", nil)
	}
	return &Result{Body: body, Header: resp.Header.Clone()}, nil
}

func isTimeout(err error) bool {
	var ne net.Error
	return (errors.As(err, &ne) && ne.Timeout()) || errors.Is(err, context.DeadlineExceeded)
}

// decodeBody undoes the Content-Encoding the server applied. Requests set
// Accept-Encoding explicitly, so the transport leaves bodies as sent.
func decodeBody(resp *http.Response) (io.ReadCloser, error) {
	switch strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding"))) {
	case "", "identity":
		return io.NopCloser(resp.Body), nil
	case "gzip", "x-gzip":
		return gzip.NewReader(resp.Body)
	case "zstd":
		d, err := zstd.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		return d.IOReadCloser(), nil
	default:
		return nil, fmt.Errorf("unsupported content encoding %q", resp.Header.Get("Content-Encoding"))
	}
}

// NormalizeProxy completes an upstream proxy address: a missing scheme
// becomes http, and the scheme is lower-cased and followed by exactly `//`.
// Recognized schemes are http, https, socks5 and socks5h.
func NormalizeProxy(s string) string {
	scheme := "http:"
	if i := strings.IndexByte(s, ':'); i > 0 {
		switch p := strings.ToLower(s[:i+1]); p {
		case "http:", "https:", "socks5:", "socks5h:":
			scheme, s = p, s[i+1:]
		}
	}
	return scheme + "//" + strings.TrimLeft(s, "/")
}
