// Package emoji prefixes proxy names with the flag of the region they are
// in, guessed from the name and, failing that, from IP addresses.
package emoji

import (
	"context"
	"sort"
	"strings"

	"github.com/John-Robertt/cvt/internal/graph"
)

const (
	Domestic = "🇨🇳"
	Info     = "ℹ️"
	Relay    = "🔗"
	// Unclassified marks names that must not be annotated.
	Unclassified = "🎏"
)

// GeoIP maps an IPv4 address to a two-letter country code.
type GeoIP interface {
	Lookup(ctx context.Context, ip string) string
}

func isRegional(r rune) bool { return r >= 0x1F1E6 && r <= 0x1F1FF }

// FlagOf returns the flag for a two-letter country code, or "".
func FlagOf(code string) string {
	if len(code) != 2 {
		return ""
	}
	rs := make([]rune, 2)
	for i := 0; i < 2; i++ {
		c := code[i] &^ 0x20 // upper case
		if c < 'A' || c > 'Z' {
			return ""
		}
		rs[i] = 0x1F1E6 + rune(c-'A')
	}
	return string(rs)
}

// Flags returns the flags in name in order of appearance.
func Flags(name string) []string {
	var out []string
	rs := []rune(name)
	for i := 0; i+1 < len(rs); i++ {
		if isRegional(rs[i]) && isRegional(rs[i+1]) {
			out = append(out, string(rs[i:i+2]))
			i++
		}
	}
	return out
}

// Compose joins the flag of a dialer and the flag of the record dialing
// through it.
func Compose(dialer, own string) string {
	switch dialer {
	case "", own:
		return own
	case Domestic:
		return Relay + own
	default:
		return dialer + "->" + own
	}
}

// Annotator adds flags to names. A nil GeoIP disables the address steps.
type Annotator struct {
	GeoIP GeoIP
}

// Detect returns the marker to put in front of name, if any, and the flag
// the record resolves to. A name that already carries a foreign flag or the
// info marker gets no marker; the former resolves to its last flag.
func (a *Annotator) Detect(ctx context.Context, name, server string) (marker, flag string) {
	if strings.HasPrefix(name, Unclassified) || strings.Contains(name, Info) {
		return "", ""
	}
	flags := Flags(name)
	for _, f := range flags {
		if f != Domestic {
			return "", flags[len(flags)-1]
		}
	}
	// A name marked only as domestic may still be a Hong Kong, Taiwan or
	// Macao node. The same preference applies when an unmarked name
	// resolves to domestic, so a second pass finds nothing new.
	if len(flags) > 0 {
		if f := a.search(ctx, name, server, isSpecial); f != "" {
			return f, f
		}
		return "", Domestic
	}
	f := a.search(ctx, name, server, func(string) bool { return true })
	if f == Domestic {
		if sf := a.search(ctx, name, server, isSpecial); sf != "" {
			f = sf
		}
	}
	if f != "" {
		return f, f
	}
	if matches(reInfo, name) {
		return Info, ""
	}
	if matches(reDomestic, name) {
		return Domestic, Domestic
	}
	return "", ""
}

func isSpecial(f string) bool { return f == "🇭🇰" || f == "🇹🇼" || f == "🇲🇴" }

// search runs the name tables, then the address lookups, keeping only flags
// that pass allowed.
func (a *Annotator) search(ctx context.Context, name, server string, allowed func(string) bool) string {
	if f := a.byKeywords(name, allowed); f != "" {
		return f
	}
	if a.GeoIP == nil {
		return ""
	}
	m, _ := reIPv4.FindStringMatch(name)
	for m != nil {
		if f := FlagOf(a.GeoIP.Lookup(ctx, m.String())); f != "" && allowed(f) {
			return f
		}
		m, _ = reIPv4.FindNextMatch(m)
	}
	if f := FlagOf(a.GeoIP.Lookup(ctx, server)); f != "" && allowed(f) {
		return f
	}
	return ""
}

type hit struct {
	end  int
	flag string
}

// byKeywords runs the name tables: Chinese keywords, single-character
// hints, then English keywords and codes. Among keyword hits the one
// ending last wins, skipping Chinese hits followed by a relay word.
func (a *Annotator) byKeywords(name string, allowed func(string) bool) string {
	var hits []hit
	for _, r := range regions {
		if allowed(r.flag) {
			for _, end := range ends(r.zh, name) {
				hits = append(hits, hit{end, r.flag})
			}
		}
	}
	if len(hits) > 0 {
		sort.SliceStable(hits, func(i, j int) bool { return hits[i].end > hits[j].end })
		rs := []rune(name)
		for _, h := range hits {
			if !relayAt(rs, h.end) {
				return h.flag
			}
		}
		return hits[0].flag
	}

	for _, s := range singles {
		if allowed(s.flag) && matches(s.re, name) {
			return s.flag
		}
	}

	for _, r := range regions {
		if allowed(r.flag) {
			for _, end := range ends(r.en, name) {
				hits = append(hits, hit{end, r.flag})
			}
		}
	}
	if len(hits) > 0 {
		sort.SliceStable(hits, func(i, j int) bool { return hits[i].end > hits[j].end })
		return hits[0].flag
	}
	return ""
}

// relayAt reports whether 中转 (or a variant) starts at rune offset i.
func relayAt(rs []rune, i int) bool {
	if i+1 >= len(rs) || rs[i] != '中' {
		return false
	}
	switch rs[i+1] {
	case '轉', '转', '繼', '继':
		return true
	}
	return false
}

// Name returns name with its marker, ignoring dialers.
func (a *Annotator) Name(ctx context.Context, name, server string) string {
	if m, _ := a.Detect(ctx, name, server); m != "" {
		return m + " " + name
	}
	return name
}

// Annotate rewrites the names of the live records in g. Dialers are
// annotated first, and a record dialing through a flagged dialer gets the
// composed marker.
func (a *Annotator) Annotate(ctx context.Context, g *graph.Graph) {
	flags := make(map[int]string)
	g.Walk(func(id int) {
		p := g.Node(id)
		marker, flag := a.Detect(ctx, p.Name, p.Server)
		if marker != "" && marker != Info {
			if d, ok := g.Dialer(id); ok {
				marker = Compose(flags[d], marker)
			}
		}
		if marker != "" {
			p.Name = marker + " " + p.Name
		}
		flags[id] = flag
	})
}
