package httpapi

import (
	"context"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/John-Robertt/cvt/internal/codec"
	"github.com/John-Robertt/cvt/internal/convert"
	"github.com/John-Robertt/cvt/internal/render"
)

var (
	reArgs    = regexp.MustCompile(`^/!([^/]*)`)
	reRawFrom = regexp.MustCompile(`(?i)^/(?:https?|data):`)
)

// convertRequest is one GET /!<args>/<from> request.
type convertRequest struct {
	From     string
	Target   render.Target
	Args     url.Values
	Filename string
}

// parseConvertRequest splits the request path into the argument block and
// the input. Remote inputs keep their escaping and query string; anything
// else is percent-decoded.
func parseConvertRequest(r *http.Request) convertRequest {
	path := r.URL.EscapedPath()
	req := convertRequest{Target: render.TargetClash, Args: url.Values{}}
	if m := reArgs.FindStringSubmatch(path); m != nil {
		path = path[len(m[0]):]
		// A malformed pair is skipped; the rest still apply.
		req.Args, _ = url.ParseQuery(m[1])
		req.Target = argsTarget(req.Args)
	}
	rest := strings.TrimPrefix(path, "/")
	if reRawFrom.MatchString(path) {
		req.From = rest
		if r.URL.RawQuery != "" || r.URL.ForceQuery {
			req.From += "?" + r.URL.RawQuery
		}
	} else {
		req.From = codec.URLDecode(rest)
	}
	req.Filename = req.Args.Get("filename")
	return req
}

// argsTarget picks the target: a bare flag wins over to=.
func argsTarget(args url.Values) render.Target {
	for _, t := range []render.Target{render.TargetAuto, render.TargetBase64, render.TargetURI, render.TargetClashProxies} {
		if args.Has(string(t)) {
			return t
		}
	}
	if to := args.Get("to"); to != "" {
		return render.Target(to)
	}
	return render.TargetClash
}

func (req convertRequest) options(r *http.Request, opt Options) convert.Options {
	ua := req.Args.Get("ua")
	if ua == "" {
		ua = r.UserAgent()
	}
	meta, ok := codec.ParseBool(req.Args.Get("meta"))
	var proxies []string
	if p := req.Args.Get("proxy"); p != "" {
		proxies = strings.Split(p, "|")
	}
	return convert.Options{
		Target:    req.Target,
		UserAgent: ua,
		NoDNSLeak: req.Args.Has("ndl"),
		Filter:    req.Args.Get("filter"),
		Hide:      req.Args.Get("hide"),
		Legacy:    ok && !meta,
		Proxies:   proxies,
		Fetcher:   opt.Fetcher,
		GeoIP:     opt.GeoIP,
	}
}

type convertHandler struct {
	opt Options
}

func (h convertHandler) handleConvert(w http.ResponseWriter, r *http.Request) {
	req := parseConvertRequest(r)

	ctx, cancel := context.WithTimeout(r.Context(), h.opt.ConvertTimeout)
	defer cancel()

	res, err := convert.Convert(ctx, req.From, req.options(r, h.opt))
	if err != nil {
		metricsIncConversion("error")
		writeErrorFromErr(w, r, err)
		return
	}

	hdr := w.Header()
	if res.Counts.Total > 0 {
		hdr.Set("X-Count", strconv.Itoa(res.Counts.Filtered)+"/"+
			strconv.Itoa(res.Counts.Merged)+"/"+strconv.Itoa(res.Counts.Total))
	}
	if res.Body == "" && res.Header.Get("subscription-userinfo") == "" {
		metricsIncConversion("not_found")
		WriteText(w, r, http.StatusNotFound, "Not Found")
		return
	}
	if res.Failed {
		metricsIncConversion("failed")
		WriteText(w, r, http.StatusBadRequest, res.Body)
		return
	}
	for k, vs := range convert.Passthrough(res.Header) {
		hdr[k] = vs
	}
	if err := setAttachmentHeaders(w, r, req.Filename, req.From, res.Header); err != nil {
		metricsIncConversion("error")
		writeErrorFromErr(w, r, err)
		return
	}
	metricsIncConversion("ok")
	WriteText(w, r, http.StatusOK, res.Body)
}

func handleVersion(version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteText(w, r, http.StatusOK, version)
	}
}

func handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store")
	WriteText(w, r, http.StatusOK, "ok\n")
}
