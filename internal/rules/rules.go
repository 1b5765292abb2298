// Package rules holds the routing rules appended to generated configs and
// the helpers that rebuild them from upstream rulesets.
package rules

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"github.com/John-Robertt/cvt/internal/model"
)

//go:embed rules.txt
var embedded string

// Source is an upstream ruleset and the policy its rules route to.
type Source struct {
	URL    string
	Action string
}

// Sources are the upstream lists the embedded rules are built from, in
// priority order.
var Sources = []Source{
	{"https://raw.githubusercontent.com/ACL4SSR/ACL4SSR/master/Clash/LocalAreaNetwork.list", "DIRECT"},
	{"https://raw.githubusercontent.com/zsokami/ACL4SSR/main/ChinaOnly.list", "DIRECT"},
	{"https://raw.githubusercontent.com/zsokami/ACL4SSR/main/UnBan1.list", model.GroupDomestic},
	{"https://raw.githubusercontent.com/ACL4SSR/ACL4SSR/master/Clash/UnBan.list", model.GroupDomestic},
	{"https://raw.githubusercontent.com/zsokami/ACL4SSR/main/BanProgramAD1.list", model.GroupAds},
	{"https://raw.githubusercontent.com/ACL4SSR/ACL4SSR/master/Clash/BanAD.list", model.GroupAds},
	{"https://raw.githubusercontent.com/ACL4SSR/ACL4SSR/master/Clash/BanProgramAD.list", model.GroupAds},
	{"https://raw.githubusercontent.com/zsokami/ACL4SSR/main/GoogleCN.list", model.GroupDomestic},
	{"https://raw.githubusercontent.com/ACL4SSR/ACL4SSR/master/Clash/Ruleset/SteamCN.list", model.GroupDomestic},
	{"https://raw.githubusercontent.com/ACL4SSR/ACL4SSR/master/Clash/Ruleset/BilibiliHMT.list", model.GroupBilibili},
	{"https://raw.githubusercontent.com/ACL4SSR/ACL4SSR/master/Clash/Ruleset/Bilibili.list", model.GroupBilibili},
	{"https://raw.githubusercontent.com/ACL4SSR/ACL4SSR/master/Clash/Ruleset/AI.list", model.GroupAI},
	{"https://raw.githubusercontent.com/ACL4SSR/ACL4SSR/master/Clash/ProxyGFWlist.list", model.GroupProxy},
	{"https://raw.githubusercontent.com/ACL4SSR/ACL4SSR/master/Clash/ChinaDomain.list", model.GroupDomestic},
	{"https://raw.githubusercontent.com/ACL4SSR/ACL4SSR/master/Clash/ChinaCompanyIp.list", model.GroupDomestic},
}

// Tail closes every rule list: mainland IPs go direct, the rest is unknown.
var Tail = []model.Rule{
	{Type: "GEOIP", Value: "CN", Action: model.GroupDomestic},
	{Type: "MATCH", Action: model.GroupUnknown},
}

// Compose concatenates rule sets in order and appends Tail.
func Compose(sets ...[]model.Rule) []model.Rule {
	n := len(Tail)
	for _, s := range sets {
		n += len(s)
	}
	out := make([]model.Rule, 0, n)
	for _, s := range sets {
		out = append(out, s...)
	}
	return append(out, Tail...)
}

// Parse reads a list of complete rule lines, one per line. Blank lines and
// comments are skipped.
func Parse(text string) ([]model.Rule, error) {
	var out []model.Rule
	for i, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		r, err := ParseInlineRule(line)
		if err != nil {
			return nil, &ParseError{
				AppError: model.AppError{
					Code:    "RULE_PARSE_ERROR",
					Message: "invalid rule line",
					Stage:   "compile",
					Line:    i + 1,
					Snippet: line,
				},
				Cause: err,
			}
		}
		out = append(out, r)
	}
	return out, nil
}

var loadDefault = sync.OnceValues(func() ([]model.Rule, error) { return Parse(embedded) })

// Default returns the embedded rules. The slice is shared; do not modify it.
func Default() []model.Rule {
	rs, err := loadDefault()
	if err != nil {
		panic(fmt.Sprintf("rules: embedded rule list: %v", err))
	}
	return rs
}

// Text renders rs as the rules section of a config. With noResolve the
// GEOIP,CN rule is marked no-resolve so that unmatched domains are never
// resolved locally.
func Text(rs []model.Rule, noResolve bool) string {
	var b strings.Builder
	b.WriteString("rules:\n")
	for _, r := range rs {
		if noResolve && r.Type == "GEOIP" && strings.EqualFold(r.Value, "CN") {
			r.NoResolve = true
		}
		b.WriteString("- ")
		b.WriteString(String(r))
		b.WriteByte('\n')
	}
	return b.String()
}

// File renders rs in the embedded file format.
func File(rs []model.Rule) string {
	var b strings.Builder
	for _, r := range rs {
		b.WriteString(String(r))
		b.WriteByte('\n')
	}
	return b.String()
}
