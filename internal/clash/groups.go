package clash

import (
	"github.com/samber/lo"

	"github.com/John-Robertt/cvt/internal/model"
)

const (
	testURL        = "https://i.ytimg.com/generate_204"
	minInterval    = 15
	smallTolerance = 100
	largeTolerance = 300
)

var regions = []string{
	model.RegionHK, model.RegionTW, model.RegionCN, model.RegionSG,
	model.RegionJP, model.RegionUS, model.RegionOther,
}

func isRegional(r rune) bool { return r >= 0x1F1E6 && r <= 0x1F1FF }

// markers returns the flags (regional indicator pairs) and 🎏 marks of name
// in order of appearance.
func markers(name string) []string {
	var out []string
	rs := []rune(name)
	for i := 0; i < len(rs); i++ {
		switch {
		case isRegional(rs[i]) && i+1 < len(rs) && isRegional(rs[i+1]):
			out = append(out, string(rs[i:i+2]))
			i++
		case rs[i] == '🎏':
			out = append(out, "🎏")
		}
	}
	return out
}

// bucket sorts names into region lists by the last flag of each name.
func bucket(names []string) map[string][]string {
	m := make(map[string][]string, len(regions))
	add := func(name string, keys ...string) {
		for _, k := range keys {
			m[k] = append(m[k], name)
		}
	}
	for _, name := range names {
		flags := markers(name)
		if len(flags) == 0 {
			add(name, model.RegionOther)
			continue
		}
		switch flags[len(flags)-1] {
		case "🇨🇳":
			// a relay through China still belongs to the region before it
			i := len(flags) - 1
			for i > 0 && flags[i] == "🇨🇳" {
				i--
			}
			switch flags[i] {
			case "🇭🇰":
				add(name, model.RegionHK)
			case "🇹🇼":
				add(name, model.RegionTW)
			}
			add(name, model.RegionCN)
		case "🇭🇰":
			add(name, model.RegionHK, model.RegionCN)
		case "🇹🇼":
			add(name, model.RegionTW, model.RegionCN)
		case "🇲🇴":
			add(name, model.RegionCN)
		case "🇸🇬":
			add(name, model.RegionSG)
		case "🇯🇵":
			add(name, model.RegionJP)
		case "🇺🇸", "🇺🇲":
			add(name, model.RegionUS)
		default:
			add(name, model.RegionOther)
		}
	}
	if cn := len(m[model.RegionCN]); len(m[model.RegionHK]) == cn || len(m[model.RegionTW]) == cn {
		delete(m, model.RegionCN)
	}
	return m
}

// Groups builds the proxy-groups section for the given member names.
func Groups(names []string, legacy bool) []model.Group {
	reject := []string{"REJECT"}
	if !legacy {
		reject = append(reject, "REJECT-DROP")
	}

	m := bucket(names)
	entries := lo.Filter(regions, func(k string, _ int) bool { return len(m[k]) > 0 })
	usOnly := false
	if len(entries) == 1 {
		// a single region adds nothing over the fastest group
		usOnly = entries[0] == model.RegionUS
		entries = nil
	}
	has := func(keys ...string) []string {
		return lo.Filter(keys, func(k string, _ int) bool { return lo.Contains(entries, k) })
	}
	manual := func(keys []string) []string {
		return lo.Map(keys, func(k string, _ int) string { return model.ManualPrefix + k })
	}
	withManual := func(list []string) []string {
		if len(names) > 0 {
			list = append(list, model.GroupManual)
		}
		return list
	}

	top := model.Group{Name: model.GroupProxy, Proxies: []string{}, Type: "select"}
	var groups []model.Group
	if len(names) > 0 {
		groups = append(groups,
			model.Group{
				Name:      model.GroupFastest,
				Proxies:   names,
				Type:      "url-test",
				URL:       testURL,
				Interval:  max(minInterval, len(names)),
				Tolerance: lo.Ternary(usOnly, largeTolerance, smallTolerance),
			},
			model.Group{Name: model.GroupManual, Proxies: names, Type: "select"},
		)
		top.Proxies = append(top.Proxies, model.GroupFastest, model.GroupManual)
	}

	ads := append([]string{}, reject...)
	if !legacy {
		ads = append(ads, "PASS")
	}
	bili := has(model.RegionHK, model.RegionTW, model.RegionCN)
	ai := has(model.RegionUS, model.RegionTW, model.RegionSG, model.RegionJP, model.RegionOther)
	groups = append(groups,
		model.Group{Name: model.GroupDomestic, Proxies: append(append([]string{"DIRECT"}, reject...), model.GroupProxy), Type: "select"},
		model.Group{Name: model.GroupAds, Proxies: append(ads, model.GroupDomestic, model.GroupProxy), Type: "select"},
		model.Group{
			Name:    model.GroupBilibili,
			Proxies: withManual(lo.Flatten([][]string{{model.GroupDomestic}, bili, {model.GroupProxy}, manual(bili)})),
			Type:    "select",
		},
		model.Group{
			Name:    model.GroupAI,
			Proxies: append(withManual(lo.Flatten([][]string{ai, {model.GroupProxy}, manual(ai)})), model.GroupDomestic),
			Type:    "select",
		},
		model.Group{Name: model.GroupUnknown, Proxies: []string{model.GroupProxy, model.GroupDomestic, model.GroupAds}, Type: "select"},
	)
	for _, k := range entries {
		groups = append(groups, model.Group{
			Name:      k,
			Proxies:   m[k],
			Type:      "url-test",
			URL:       testURL,
			Interval:  max(minInterval, len(m[k])),
			Tolerance: lo.Ternary(k == model.RegionUS, largeTolerance, smallTolerance),
		})
		top.Proxies = append(top.Proxies, k)
	}
	for _, k := range entries {
		groups = append(groups, model.Group{Name: model.ManualPrefix + k, Proxies: m[k], Type: "select"})
		top.Proxies = append(top.Proxies, model.ManualPrefix+k)
	}
	top.Proxies = append(append(top.Proxies, "DIRECT"), reject...)
	return append([]model.Group{top}, groups...)
}
