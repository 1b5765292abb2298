package model

// Group is one entry of proxy-groups. Field order is the wire order.
type Group struct {
	Name    string   `json:"name"`
	Proxies []string `json:"proxies"` // proxy names, group names, DIRECT or REJECT
	Type    string   `json:"type"`    // "select" | "url-test"

	// url-test only
	URL       string `json:"url,omitempty"`
	Interval  int    `json:"interval,omitempty"`
	Tolerance int    `json:"tolerance,omitempty"`
}

// Group names of the generated config. The rule list routes to these, so
// they are shared by the rules and clash packages. Each carries a zero-width
// joiner after the icon.
const (
	GroupProxy    = "✈️ \u200d起飞"
	GroupFastest  = "⚡ \u200d低延迟"
	GroupManual   = "👆🏻 \u200d指定"
	GroupDomestic = "🛩️ \u200d墙内"
	GroupAds      = "💩 \u200d广告"
	GroupBilibili = "📺 \u200dB站"
	GroupAI       = "🤖 \u200dAI"
	GroupUnknown  = "🌐 \u200d未知站点"

	RegionHK    = "🇭🇰 \u200d香港"
	RegionTW    = "🇹🇼 \u200d台湾"
	RegionCN    = "🇨🇳 \u200d中国"
	RegionSG    = "🇸🇬 \u200d新加坡"
	RegionJP    = "🇯🇵 \u200d日本"
	RegionUS    = "🇺🇸 \u200d美国"
	RegionOther = "🎏 \u200d其他"

	// ManualPrefix marks the select twin of a region url-test group.
	ManualPrefix = "👆🏻"
)

// Counts are the per-call record counters, in the order they are reported.
type Counts struct {
	Filtered int // records in the output
	Merged   int // records decoded, before filtering
	Total    int // entries seen in the input
}
