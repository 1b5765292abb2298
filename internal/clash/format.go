package clash

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/samber/lo"

	"github.com/John-Robertt/cvt/internal/model"
	"github.com/John-Robertt/cvt/internal/rules"
)

// FormatOptions controls Format.
type FormatOptions struct {
	// ProxiesOnly writes the proxies list alone, hidden flags included.
	ProxiesOnly bool
	// Legacy targets cores without the Meta extensions.
	Legacy bool
	// NoDNSLeak marks the GEOIP,CN rule no-resolve.
	NoDNSLeak bool
	// Hide is parallel to the proxies; a true entry keeps that record out
	// of every group.
	Hide []bool

	// Diagnostics written as comments above the proxies list.
	Counts      *model.Counts
	Unsupported map[string]int
	Errors      []string

	// Rules defaults to the embedded rule list.
	Rules []model.Rule
}

// General settings written at the top of a full config.
const header = "mixed-port: 7890\n" +
	"allow-lan: true\n" +
	"external-controller: :9090\n" +
	"unified-delay: true\n" +
	"tcp-concurrent: true\n"

// Format writes proxies as a Clash config. Each list entry is a single-line
// JSON flow mapping, which every YAML reader accepts and which keeps the
// field order of the records.
func Format(proxies []*model.Proxy, opt FormatOptions) (string, error) {
	var b strings.Builder
	if opt.ProxiesOnly {
		b.WriteString("proxies:\n")
		for _, p := range proxies {
			if err := writeItem(&b, p); err != nil {
				return "", err
			}
		}
		return b.String(), nil
	}

	names := make([]string, 0, len(proxies))
	for i, p := range proxies {
		if p.Hidden || (i < len(opt.Hide) && opt.Hide[i]) {
			continue
		}
		names = append(names, p.DisplayName())
	}

	b.WriteString(header)
	writeComments(&b, opt)
	b.WriteString("proxies:\n")
	for _, p := range proxies {
		if p.Hidden {
			p = p.Clone()
			p.Hidden = false
		}
		if err := writeItem(&b, p); err != nil {
			return "", err
		}
	}
	b.WriteString("proxy-groups:\n")
	for _, g := range Groups(names, opt.Legacy) {
		if err := writeItem(&b, g); err != nil {
			return "", err
		}
	}
	rs := opt.Rules
	if rs == nil {
		rs = rules.Default()
	}
	b.WriteString(rules.Text(rs, opt.NoDNSLeak))
	return b.String(), nil
}

func writeComments(b *strings.Builder, opt FormatOptions) {
	if c := opt.Counts; c != nil {
		if c.Total > c.Merged {
			core := lo.Ternary(opt.Legacy, "Clash", "Clash.Meta")
			fmt.Fprintf(b, "# 排除了 %d 个 %s 不支持的节点", c.Total-c.Merged, core)
			if len(opt.Unsupported) > 0 {
				keys := lo.Keys(opt.Unsupported)
				sort.Strings(keys)
				parts := lo.Map(keys, func(k string, _ int) string {
					return fmt.Sprintf("%d %s", opt.Unsupported[k], k)
				})
				b.WriteString(": " + strings.Join(parts, ", "))
			}
			b.WriteByte('\n')
		}
		if c.Merged > c.Filtered {
			fmt.Fprintf(b, "# 排除了 %d 个节点\n", c.Merged-c.Filtered)
		}
	}
	if len(opt.Errors) > 0 {
		fmt.Fprintf(b, "# 以下 %d 个订阅转换失败：\n", len(opt.Errors))
		for _, e := range opt.Errors {
			b.WriteString("# " + strings.ReplaceAll(e, "\n", " ") + "\n")
		}
	}
}

func writeItem(b *strings.Builder, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return err
	}
	b.WriteString("- ")
	b.Write(buf.Bytes())
	return nil
}
