package emoji

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/dlclark/regexp2"
)

// regions.txt has one region per line: flag, country-code alternation,
// Chinese keywords, English keywords. Earlier lines win ties.
//
//go:embed regions.txt
var regionsText string

type region struct {
	flag string
	zh   *regexp2.Regexp
	en   *regexp2.Regexp
}

type hint struct {
	flag string
	re   *regexp2.Regexp
}

var (
	regions = mustRegions(regionsText)

	singles = []hint{
		{"🇺🇸", mustRegexp(`美`, regexp2.None)},
		{"🇩🇪", mustRegexp(`[中京沪滬申广廣深莞苏蘇杭厦廈海光川]德|德(?![\u4E00-\u9FFF])`, regexp2.None)},
		{"🇷🇺", mustRegexp(`[中京沪滬申广廣深莞苏蘇杭厦廈海光川]俄|俄(?![\u4E00-\u9FFF])`, regexp2.None)},
		{"🇮🇳", mustRegexp(`[中京沪滬申广廣深莞苏蘇杭厦廈海光川]印|印(?![\u4E00-\u9FFF])`, regexp2.None)},
		{"🇰🇷", mustRegexp(`[韩韓]`, regexp2.None)},
		{"🇯🇵", mustRegexp(`[中京沪滬申广廣深莞苏蘇杭厦廈海光川]日|(?<![\d\u4E00-\u9FFF])日(?![\u4E00-\u9FFF])`, regexp2.None)},
		{"🇸🇬", mustRegexp(`[中京沪滬申广廣深莞苏蘇杭厦廈海光川]新|(?<![\u4E00-\u9FFF])新(?![\u4E00-\u9FFF])`, regexp2.None)},
		{"🇹🇼", mustRegexp(`[中京沪滬申广廣深莞苏蘇杭厦廈海光川][台臺]|[台臺](?![\u4E00-\u9FFF])`, regexp2.None)},
		{"🇭🇰", mustRegexp(`港`, regexp2.None)},
	}

	reDomestic = mustRegexp(`(?<![\da-z.])(?:CH?N|China)(?!\d*[a-z.])|中[国國]|[广廣贵貴]州|深圳|北京|上海|[广廣山][东東西]|[河湖][北南]|天津|重[庆慶]|[辽遼][宁寧]|吉林|黑[龙龍]江|江[苏蘇西]|浙江|安徽|福建|[海云雲]南|四川|[陕陝]西|甘[肃肅]|青海|[内內]蒙古|西藏|[宁寧]夏|新疆`, regexp2.IgnoreCase)

	reInfo = mustRegexp(`官.?网|官方|产品|平台|勿连|修复|恢复|更新|地址|网站|网址|域名|网域|浏览器|导航|搜|群|裙|聊|频道|电报|飞机|扣|微信|售后|客服|工单|联系|使用|购买|续费|订阅|公告|版本|出现|没网|情况|开通|数量|注|说明|通知|去除|过滤|@|：|(?<![\da-z])(?:tg|telegram|t\.me|qq?|vx?|wx)(?!\d*[a-z]|\d{1,3}(?!\d)|(?:[\da-z-]*\.)?[\da-z-]+\.[a-z])|^[^:]+:(?![\da-f]{0,4}:|\s*\d{1,5}\s*$|\d{1,5}[^\da-z])`, regexp2.IgnoreCase)

	reNoise = mustRegexp(`Data Left|Remain:|Traffic:|Expir[ey]|Reset|(?:\d[\d.]*\s*[MG]B[^\dA-Za-z]+|[:：]\s*)\d[\d.]*\s*GB(?![\dA-Za-z])|剩[余餘]流量|流量：|[到过過效]期|[时時][间間]|重置|分割线|残り使用容量|残りデータ通信量|有効期限|リセット|🔰 (?:ID|HSD|SNI):|📝 Gói:`, regexp2.None)

	// an IPv4 literal not glued to other digits or dots
	reIPv4 = mustRegexp(`(?<![\d.])\d{1,3}(?:\.\d{1,3}){3}(?![.\d])`, regexp2.None)
)

func mustRegexp(expr string, opt regexp2.RegexOptions) *regexp2.Regexp {
	return regexp2.MustCompile(expr, opt)
}

func mustRegions(text string) []region {
	var out []region
	for i, line := range strings.Split(strings.TrimSpace(text), "\n") {
		f := strings.Split(strings.TrimSpace(line), ",")
		if len(f) != 4 {
			panic(fmt.Sprintf("emoji: regions.txt:%d: want 4 fields, got %d", i+1, len(f)))
		}
		out = append(out, region{
			flag: f[0],
			zh:   mustRegexp(f[2], regexp2.None),
			en:   mustRegexp(`(?<![\da-z.])(?:`+f[1]+`)(?!\d*[a-z])|`+f[3], regexp2.IgnoreCase),
		})
	}
	return out
}

// IsNoise reports whether name looks like a traffic, expiry or similar
// notice rather than a node.
func IsNoise(name string) bool {
	ok, _ := reNoise.MatchString(name)
	return ok
}

func matches(re *regexp2.Regexp, s string) bool {
	ok, _ := re.MatchString(s)
	return ok
}

// ends returns the rune offset just past each match of re in s.
func ends(re *regexp2.Regexp, s string) []int {
	var out []int
	m, _ := re.FindStringMatch(s)
	for m != nil {
		out = append(out, m.Index+m.Length)
		m, _ = re.FindNextMatch(m)
	}
	return out
}
