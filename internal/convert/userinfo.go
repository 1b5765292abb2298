package convert

import (
	"net/http"
	"regexp"
	"strings"
)

var reInteger = regexp.MustCompile(`^(\d+)(?:\.\d*)?$`)

// NormalizeUserinfo rewrites the values of a subscription-userinfo header
// as integers: fractions are cut off and anything else becomes 0.
func NormalizeUserinfo(v string) string {
	parts := strings.Split(v, ";")
	for i, p := range parts {
		k, val, ok := strings.Cut(p, "=")
		if !ok {
			continue
		}
		val = strings.TrimSpace(val)
		switch m := reInteger.FindStringSubmatch(val); {
		case val == "":
		case m != nil:
			val = m[1]
		default:
			val = "0"
		}
		parts[i] = k + "=" + val
	}
	return strings.Join(parts, ";")
}

// Passthrough returns the upstream headers a client may use: the
// normalized subscription-userinfo and the profile hints.
func Passthrough(h http.Header) http.Header {
	out := http.Header{}
	if h == nil {
		return out
	}
	if v := h.Get("subscription-userinfo"); v != "" {
		out.Set("subscription-userinfo", NormalizeUserinfo(v))
	}
	for _, k := range []string{"profile-update-interval", "profile-web-page-url"} {
		if v := h.Get(k); v != "" {
			out.Set(k, v)
		}
	}
	return out
}
