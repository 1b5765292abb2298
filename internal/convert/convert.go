// Package convert drives one conversion: it fetches and decodes every input
// segment, merges the records into one dialer graph, runs the record passes
// and renders the requested target.
package convert

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/John-Robertt/cvt/internal/compiler"
	"github.com/John-Robertt/cvt/internal/emoji"
	"github.com/John-Robertt/cvt/internal/fetch"
	"github.com/John-Robertt/cvt/internal/filter"
	"github.com/John-Robertt/cvt/internal/geoip"
	"github.com/John-Robertt/cvt/internal/graph"
	"github.com/John-Robertt/cvt/internal/model"
	"github.com/John-Robertt/cvt/internal/render"
)

const (
	DefaultUserAgent = "ClashMetaForAndroid/2.11.5.Meta"

	// Empty is the input that asks for a valid document with no proxies.
	Empty = "empty"

	// FailurePrefix starts every failure report.
	FailurePrefix = "订阅转换失败"
)

// Fetcher downloads one subscription URL. *fetch.Client implements it.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string, opt fetch.Options) (*fetch.Result, error)
}

type Options struct {
	Target    render.Target // empty means clash
	UserAgent string        // sent upstream and used by the auto target
	NoDNSLeak bool
	// Filter keeps matching records; Hide keeps matching records out of
	// proxy groups. Both are filter expressions and may be empty.
	Filter string
	Hide   string
	// Legacy restricts records to what cores without the Meta extensions
	// load.
	Legacy bool
	// Proxies holds one upstream proxy per input segment, by position.
	Proxies []string

	Fetcher Fetcher     // default: a subscription fetch.Client
	GeoIP   emoji.GeoIP // default: geoip.Default()
}

func (o Options) withDefaults() Options {
	if o.Target == "" {
		o.Target = render.TargetClash
	}
	if o.UserAgent == "" {
		o.UserAgent = DefaultUserAgent
	}
	if o.Fetcher == nil {
		o.Fetcher = &fetch.Client{Kind: fetch.KindSubscription}
	}
	if o.GeoIP == nil {
		o.GeoIP = geoip.Default()
	}
	return o
}

type Result struct {
	// Body is the rendered document, a failure report, or empty when no
	// proxy was found.
	Body   string
	Failed bool
	Counts model.Counts
	// Header is the upstream response header chosen for passthrough, if any.
	Header http.Header
	// Errors lists the failed segments.
	Errors []string
	// Err is set when the whole conversion was refused, such as for a
	// malformed filter expression.
	Err error
}

// Convert runs one conversion of from, a '|'-separated list of segments.
// Data problems never fail the call: they end up in Result. The only error
// is an unknown target.
func Convert(ctx context.Context, from string, opt Options) (*Result, error) {
	opt = opt.withDefaults()
	target, err := render.ParseTarget(string(opt.Target))
	if err != nil {
		return nil, err
	}

	keep, err := compileFilter("filter", opt.Filter)
	if err != nil {
		return failure(err), nil
	}
	hide, err := compileFilter("hide", opt.Hide)
	if err != nil {
		return failure(err), nil
	}

	outs := fetchAll(ctx, strings.Split(from, "|"), opt)

	var (
		res         = &Result{}
		proxies     []*model.Proxy
		unsupported = map[string]int{}
		subinfo     []http.Header
		other       []http.Header
	)
	for i, o := range outs {
		if o.err != nil {
			logrus.WithError(o.err).WithField("segment", i).Warn("convert: segment failed")
			res.Errors = append(res.Errors, fmt.Sprintf("%s: %v", o.label, o.err))
			continue
		}
		logrus.WithFields(logrus.Fields{
			"segment":   i,
			"proxies":   len(o.batch.Proxies),
			"dropped":   o.batch.Dropped(),
			"malformed": o.batch.Malformed,
		}).Debug("convert: segment decoded")
		proxies = append(proxies, o.batch.Proxies...)
		res.Counts.Total += o.batch.Total
		for k, n := range o.batch.Unsupported {
			unsupported[k] += n
		}
		if o.header != nil {
			if o.header.Get("subscription-userinfo") != "" {
				subinfo = append(subinfo, o.header)
			} else {
				other = append(other, o.header)
			}
		}
	}
	switch {
	case len(subinfo) == 1:
		res.Header = subinfo[0]
	case len(subinfo) == 0 && len(other) == 1:
		res.Header = other[0]
	}
	res.Counts.Merged = len(proxies)

	g := graph.New(proxies)
	compiler.ExcludeNoise(g)
	(&emoji.Annotator{GeoIP: opt.GeoIP}).Annotate(ctx, g)
	if _, err := compiler.Select(g, keep); err != nil {
		return nil, err
	}
	compiler.RenameDuplicates(g)
	mask, err := compiler.HiddenMask(g, hide)
	if err != nil {
		return nil, err
	}

	live := g.Proxies()
	res.Counts.Filtered = len(live)
	if len(live) == 0 && from != Empty {
		if len(res.Errors) > 0 {
			res.Body, res.Failed = report(res.Errors), true
		}
		return res, nil
	}

	res.Body, err = render.Render(target, render.Input{
		Proxies:     live,
		UserAgent:   opt.UserAgent,
		Hide:        mask,
		Legacy:      opt.Legacy,
		NoDNSLeak:   opt.NoDNSLeak,
		Counts:      &res.Counts,
		Unsupported: lo.OmitByValues(unsupported, []int{0}),
		Errors:      res.Errors,
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func compileFilter(what, expr string) (*filter.Filter, error) {
	if strings.TrimSpace(expr) == "" {
		return nil, nil
	}
	f, err := filter.Compile(expr)
	if err != nil {
		return nil, &compiler.CompileError{
			AppError: model.AppError{
				Code:    "FILTER_SYNTAX_ERROR",
				Message: what + " 表达式错误",
				Stage:   "filter",
				Snippet: expr,
			},
			Cause: err,
		}
	}
	return f, nil
}

func failure(err error) *Result {
	msg := err.Error()
	var ce *compiler.CompileError
	if errors.As(err, &ce) {
		msg = ce.AppError.Message
		if ce.Cause != nil {
			msg += "：" + ce.Cause.Error()
		}
	}
	return &Result{Body: FailurePrefix + "：" + msg, Failed: true, Err: err}
}

func report(errs []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s：以下 %d 个订阅转换失败\n", FailurePrefix, len(errs))
	for _, e := range errs {
		b.WriteString(strings.ReplaceAll(e, "\n", " "))
		b.WriteByte('\n')
	}
	return b.String()
}
