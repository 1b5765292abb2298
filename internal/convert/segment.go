package convert

import (
	"context"
	"net/http"
	"net/url"
	"regexp"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/John-Robertt/cvt/internal/clash"
	"github.com/John-Robertt/cvt/internal/codec"
	"github.com/John-Robertt/cvt/internal/fetch"
	"github.com/John-Robertt/cvt/internal/model"
	"github.com/John-Robertt/cvt/internal/uri"
)

// maxConcurrentFetches bounds the fetches of one conversion.
const maxConcurrentFetches = 8

var reRemote = regexp.MustCompile(`(?i)^(?:https?|data):`)

type outcome struct {
	label  string
	batch  model.Batch
	header http.Header // nil for inline and data: segments
	err    error
}

// fetchAll resolves every segment. Segments fail independently and the
// outcomes keep the segment order.
func fetchAll(ctx context.Context, segments []string, opt Options) []outcome {
	outs := make([]outcome, len(segments))
	var eg errgroup.Group
	eg.SetLimit(maxConcurrentFetches)
	for i, seg := range segments {
		i, seg := i, seg
		var proxy string
		if i < len(opt.Proxies) {
			proxy = opt.Proxies[i]
		}
		eg.Go(func() error {
			outs[i] = resolve(ctx, i, seg, proxy, opt)
			return nil
		})
	}
	_ = eg.Wait()
	return outs
}

func resolve(ctx context.Context, i int, seg, proxy string, opt Options) outcome {
	out := outcome{label: label(i, seg)}
	text := seg
	if reRemote.MatchString(seg) {
		res, err := opt.Fetcher.Fetch(ctx, seg, fetch.Options{UserAgent: opt.UserAgent, Proxy: proxy})
		if err != nil {
			out.err = err
			return out
		}
		text = res.Text()
		out.header = res.Header
	}
	out.batch, out.err = Decode(text, opt.Legacy)
	if out.err != nil {
		out.header = nil
	}
	return out
}

// Decode reads one subscription document: base64-wrapped or plain share
// links, or else a Clash config.
func Decode(text string, legacy bool) (model.Batch, error) {
	if s, err := codec.DecodeBase64URL(text); err == nil {
		text = s
	}
	if b := uri.ParseAll(text, legacy); b.Total > 0 {
		return b, nil
	}
	return clash.Parse(text, legacy)
}

// label names a segment in diagnostics without leaking query strings or
// inline payloads.
func label(i int, seg string) string {
	u, err := url.Parse(seg)
	if err != nil || !reRemote.MatchString(seg) {
		return "#" + strconv.Itoa(i+1)
	}
	if u.Scheme == "data" || u.Host == "" {
		return "#" + strconv.Itoa(i+1) + " " + u.Scheme + ":"
	}
	return u.Scheme + "://" + u.Host + u.EscapedPath()
}
