package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/dlclark/regexp2"

	"github.com/John-Robertt/cvt/internal/codec"
)

// The second pattern needs a backreference: every segment must come from
// the same raw.githubusercontent.com owner.
var (
	reRawFile = regexp2.MustCompile(
		`^https?://raw\.githubusercontent\.com/+([^/|]+)(?:/+[^/|]+){2,}/+([^/|]+)$`, regexp2.None)
	reRawOwner = regexp2.MustCompile(
		`^(https?://raw\.githubusercontent\.com/+([^/|]+))(?:/+[^/|]+){3,}(?:\|+\1(?:/+[^/|]+){3,})*$`, regexp2.None)
	reGist = regexp2.MustCompile(
		`^(https?://gist\.githubusercontent\.com/+([^/|]+))/[^|]+(?:\|+\1/[^|]+)*$`, regexp2.None)
)

func init() {
	for _, re := range []*regexp2.Regexp{reRawFile, reRawOwner, reGist} {
		re.MatchTimeout = 200 * time.Millisecond
	}
}

// setAttachmentHeaders sets Content-Disposition unless the client is a
// browser. upstream is the passthrough header set of the conversion.
func setAttachmentHeaders(w http.ResponseWriter, r *http.Request, filename, from string, upstream http.Header) error {
	if strings.Contains(r.Header.Get("Accept"), "text/html") {
		return nil
	}
	name := filename
	if name == "" {
		if cd := upstream.Get("Content-Disposition"); cd != "" {
			w.Header().Set("Content-Disposition", cd)
			return nil
		}
		name = attachmentName(from)
	}
	if name == "" {
		return nil
	}
	if strings.ContainsAny(name, "\r\n\x00") {
		return requestError("INVALID_ARGUMENT", "filename 含有非法控制字符", "")
	}
	w.Header().Set("Content-Disposition", contentDispositionAttachment(name))
	return nil
}

// attachmentName derives a file name from GitHub-hosted inputs: the owner
// and file of a single raw file, the owner when all raw segments share
// one, or "<owner> - gist".
func attachmentName(from string) string {
	if m := submatches(reRawFile, from); m != nil {
		if m[1] == m[2] {
			return m[1]
		}
		return m[1] + " - " + codec.URLDecode(m[2])
	}
	if m := submatches(reRawOwner, from); m != nil {
		return m[2]
	}
	if m := submatches(reGist, from); m != nil {
		return m[2] + " - gist"
	}
	return ""
}

func submatches(re *regexp2.Regexp, s string) []string {
	m, err := re.FindStringMatch(s)
	if err != nil || m == nil {
		return nil
	}
	groups := m.Groups()
	out := make([]string, len(groups))
	for i, g := range groups {
		out[i] = g.String()
	}
	return out
}

func contentDispositionAttachment(filename string) string {
	// RFC 6266 + RFC 5987.
	return "attachment; filename*=UTF-8''" + pctEncode(filename)
}

// pctEncode escapes s the way encodeURIComponent does.
func pctEncode(s string) string {
	const hex = "0123456789ABCDEF"
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' || '0' <= c && c <= '9' ||
			strings.IndexByte("-_.!~*'()", c) >= 0 {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&15])
	}
	return b.String()
}
