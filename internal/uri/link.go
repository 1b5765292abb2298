package uri

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/John-Robertt/cvt/internal/codec"
)

// link is a share link split into its raw parts. Share links are not always
// valid RFC 3986 URLs (base64 hosts, unescaped fragments), so they are split
// by hand instead of through net/url.
type link struct {
	scheme   string // lower-cased
	user     string // raw, still percent-encoded
	pass     string
	hasUser  bool
	host     string // without brackets
	port     string
	path     string
	query    map[string]string // decoded, last value wins
	fragment string            // raw
}

var errMissingHost = errors.New("missing host")

func splitLink(s string) (*link, error) {
	scheme, rest, ok := strings.Cut(s, "://")
	if !ok || scheme == "" {
		return nil, errors.New("missing scheme")
	}
	l := &link{scheme: strings.ToLower(scheme)}

	rest, l.fragment, _ = strings.Cut(rest, "#")
	rest, rawQuery, _ := strings.Cut(rest, "?")
	l.query = parseQuery(rawQuery)

	authority := rest
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		authority, l.path = rest[:i], rest[i:]
	}
	if at := strings.LastIndexByte(authority, '@'); at >= 0 {
		l.hasUser = true
		l.user, l.pass, _ = strings.Cut(authority[:at], ":")
		authority = authority[at+1:]
	}

	host, port, err := splitHostPort(authority)
	if err != nil {
		return nil, err
	}
	l.host, l.port = host, port
	if l.host == "" {
		return nil, errMissingHost
	}
	return l, nil
}

// splitHostPort accepts host, host:port, [v6] and [v6]:port. A bare IPv6
// address without brackets is taken as a host with no port.
func splitHostPort(s string) (host, port string, err error) {
	if strings.HasPrefix(s, "[") {
		end := strings.IndexByte(s, ']')
		if end < 0 {
			return "", "", fmt.Errorf("unclosed bracket in %q", s)
		}
		host, rest := s[1:end], s[end+1:]
		if rest == "" {
			return host, "", nil
		}
		if rest[0] != ':' {
			return "", "", fmt.Errorf("unexpected %q after host", rest)
		}
		return host, rest[1:], nil
	}
	switch strings.Count(s, ":") {
	case 0:
		return s, "", nil
	case 1:
		host, port, _ = strings.Cut(s, ":")
		return host, port, nil
	default:
		return s, "", nil
	}
}

// parsePort reads a single port. An empty string yields 0.
func parsePort(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 || n > 65535 {
		return 0, fmt.Errorf("invalid port %q", s)
	}
	return n, nil
}

// hostPort renders the authority form of the base fields.
func (l *link) hostPort() string {
	h := l.host
	if strings.Contains(h, ":") {
		h = "[" + h + "]"
	}
	if l.port == "" {
		return h
	}
	return h + ":" + l.port
}

// parseQuery decodes an application/x-www-form-urlencoded query leniently:
// malformed escapes are kept verbatim.
func parseQuery(raw string) map[string]string {
	out := map[string]string{}
	if raw == "" {
		return out
	}
	for _, part := range strings.Split(raw, "&") {
		if part == "" {
			continue
		}
		k, v, _ := strings.Cut(part, "=")
		out[codec.URLDecodePlus(k)] = codec.URLDecodePlus(v)
	}
	return out
}

// params is an insertion-ordered query string builder.
type params struct {
	m *orderedmap.OrderedMap[string, string]
}

func newParams() params {
	return params{m: orderedmap.New[string, string]()}
}

func (p params) set(k, v string) { p.m.Set(k, v) }

func (p params) setIf(k, v string) {
	if v != "" {
		p.m.Set(k, v)
	}
}

func (p params) merge(o params) {
	for pair := o.m.Oldest(); pair != nil; pair = pair.Next() {
		p.m.Set(pair.Key, pair.Value)
	}
}

func (p params) encode() string {
	var b strings.Builder
	for pair := p.m.Oldest(); pair != nil; pair = pair.Next() {
		if b.Len() > 0 {
			b.WriteByte('&')
		}
		b.WriteString(formEscape(pair.Key))
		b.WriteByte('=')
		b.WriteString(formEscape(pair.Value))
	}
	return b.String()
}

const upperhex = "0123456789ABCDEF"

func isAlnum(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}

// formEscape applies application/x-www-form-urlencoded escaping.
func formEscape(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case isAlnum(c) || c == '*' || c == '-' || c == '.' || c == '_':
			b.WriteByte(c)
		case c == ' ':
			b.WriteByte('+')
		default:
			b.WriteByte('%')
			b.WriteByte(upperhex[c>>4])
			b.WriteByte(upperhex[c&15])
		}
	}
	return b.String()
}

// escapeUserinfo escapes everything except unreserved characters.
func escapeUserinfo(s string) string {
	return escapeExcept(s, "-._~")
}

// escapeFragment keeps the sub-delimiters readable but escapes '+', which
// the parser reads back as a space.
func escapeFragment(s string) string {
	return escapeExcept(s, "-._~!$&'()*,;=:@/?")
}

func escapeExcept(s, keep string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isAlnum(c) || strings.IndexByte(keep, c) >= 0 {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperhex[c>>4])
		b.WriteByte(upperhex[c&15])
	}
	return b.String()
}

// authority renders server and port for a share link; port 0 is omitted.
func authority(server string, port int) string {
	if port == 0 {
		if strings.Contains(server, ":") {
			return "[" + server + "]"
		}
		return server
	}
	return net.JoinHostPort(server, strconv.Itoa(port))
}
