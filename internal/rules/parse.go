package rules

import (
	"errors"
	"fmt"
	"net/netip"
	"strconv"
	"strings"

	"github.com/John-Robertt/cvt/internal/codec"
	"github.com/John-Robertt/cvt/internal/model"
)

type RuleError struct {
	Code    string
	Message string
	Hint    string
	Cause   error
}

func (e *RuleError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Cause == nil {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
}

func (e *RuleError) Unwrap() error { return e.Cause }

type ParseError struct {
	AppError model.AppError
	Cause    error
}

func (e *ParseError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Cause == nil {
		return fmt.Sprintf("%s: %s", e.AppError.Code, e.AppError.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.AppError.Code, e.AppError.Message, e.Cause)
}

func (e *ParseError) Unwrap() error { return e.Cause }

// Types lists the rule types kept from upstream rulesets.
var Types = []string{
	"DOMAIN", "DOMAIN-SUFFIX", "DOMAIN-KEYWORD", "GEOSITE",
	"IP-CIDR", "IP-CIDR6", "IP-SUFFIX", "IP-ASN", "GEOIP",
}

func supported(typ string) bool {
	for _, t := range Types {
		if t == typ {
			return true
		}
	}
	return false
}

// resolving reports whether a rule type matches on IP and so accepts no-resolve.
func resolving(typ string) bool {
	switch typ {
	case "IP-CIDR", "IP-CIDR6", "IP-SUFFIX", "IP-ASN", "GEOIP":
		return true
	}
	return false
}

// ParseRulesetText parses a ruleset file (Clash classical lines without a
// policy) and assigns action to every rule. Lines of types outside Types are
// skipped and counted; so are malformed lines.
func ParseRulesetText(sourceURL string, text string, action string) ([]model.Rule, int, error) {
	if strings.TrimSpace(action) == "" {
		return nil, 0, &ParseError{
			AppError: model.AppError{
				Code:    "RULESET_PARSE_ERROR",
				Message: "ruleset action 不能为空",
				Stage:   "fetch_ruleset",
				URL:     sourceURL,
			},
		}
	}

	lines := strings.Split(codec.StripBOM(text), "\n")
	out := make([]model.Rule, 0, len(lines))
	skipped := 0
	for _, raw := range lines {
		line := strings.TrimSuffix(raw, "\r")
		// upstream lists indent or comment anything that is not a rule
		if line == "" || line[0] == '#' || line[0] == ' ' || line[0] == '\t' {
			continue
		}
		typ, rest, _ := strings.Cut(line, ",")
		if !supported(strings.ToUpper(strings.TrimSpace(typ))) {
			skipped++
			continue
		}
		value, opts, _ := strings.Cut(rest, ",")
		withAction := typ + "," + value + "," + action
		if opts != "" {
			withAction += "," + opts
		}
		r, err := parseRuleLine(withAction, ruleParseOptions{AllowMatch: false})
		if err != nil {
			skipped++
			continue
		}
		out = append(out, r)
	}
	return out, skipped, nil
}

// ParseInlineRule parses a single rule line. ACTION is required.
// Caller is expected to attach proper stage/url/line if needed.
func ParseInlineRule(line string) (model.Rule, error) {
	line = strings.TrimSpace(strings.TrimSuffix(line, "\r"))
	if line == "" {
		return model.Rule{}, &RuleError{Code: "RULE_PARSE_ERROR", Message: "rule line is empty"}
	}
	if strings.HasPrefix(line, "#") {
		return model.Rule{}, &RuleError{Code: "RULE_PARSE_ERROR", Message: "rule line is comment"}
	}
	return parseRuleLine(line, ruleParseOptions{AllowMatch: true})
}

type ruleParseOptions struct {
	AllowMatch bool
}

func parseRuleLine(line string, opt ruleParseOptions) (model.Rule, error) {
	parts := strings.Split(line, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	if len(parts) == 0 || parts[0] == "" {
		return model.Rule{}, &RuleError{Code: "RULE_PARSE_ERROR", Message: "规则类型不能为空"}
	}

	typ := strings.ToUpper(parts[0])
	switch {
	case typ == "MATCH":
		if !opt.AllowMatch {
			return model.Rule{}, &RuleError{
				Code:    "RULESET_PARSE_ERROR",
				Message: "ruleset 不允许包含 MATCH 规则",
			}
		}
		if len(parts) != 2 || parts[1] == "" {
			return model.Rule{}, &RuleError{
				Code:    "RULE_PARSE_ERROR",
				Message: "MATCH 规则必须是 MATCH,<ACTION>",
			}
		}
		return model.Rule{Type: "MATCH", Action: parts[1]}, nil
	case supported(typ):
		return parseTyped(typ, parts)
	default:
		return model.Rule{}, &RuleError{
			Code:    "UNSUPPORTED_RULE_TYPE",
			Message: fmt.Sprintf("不支持的规则类型：%s", typ),
		}
	}
}

// parseTyped reads TYPE,VALUE,ACTION[,no-resolve].
func parseTyped(typ string, parts []string) (model.Rule, error) {
	if len(parts) < 3 || len(parts) > 4 {
		return model.Rule{}, &RuleError{
			Code:    "RULE_PARSE_ERROR",
			Message: "规则字段数量不合法",
			Hint:    "expected: TYPE,VALUE,ACTION[,no-resolve]",
		}
	}
	if parts[1] == "" || parts[2] == "" {
		return model.Rule{}, &RuleError{Code: "RULE_PARSE_ERROR", Message: "规则 VALUE/ACTION 不能为空"}
	}
	if strings.EqualFold(parts[2], "no-resolve") {
		return model.Rule{}, &RuleError{
			Code:    "RULE_PARSE_ERROR",
			Message: typ + " 缺少 ACTION（不允许仅写 no-resolve）",
			Hint:    "expected: TYPE,VALUE,ACTION[,no-resolve]",
		}
	}
	r := model.Rule{Type: typ, Value: parts[1], Action: parts[2]}
	if len(parts) == 4 {
		if !resolving(typ) || !strings.EqualFold(parts[3], "no-resolve") {
			return model.Rule{}, &RuleError{
				Code:    "RULE_PARSE_ERROR",
				Message: typ + " 的可选项仅支持 no-resolve",
				Hint:    "no-resolve applies to IP rules only",
			}
		}
		r.NoResolve = true
	}
	if err := validateValue(typ, r.Value); err != nil {
		return model.Rule{}, &RuleError{
			Code:    "RULE_PARSE_ERROR",
			Message: typ + " 的 VALUE 不合法",
			Cause:   err,
		}
	}
	return r, nil
}

func validateValue(typ, v string) error {
	switch typ {
	case "IP-CIDR", "IP-CIDR6", "IP-SUFFIX":
		prefix, err := netip.ParsePrefix(v)
		if err != nil {
			return err
		}
		if typ == "IP-CIDR6" && !prefix.Addr().Is6() {
			return errors.New("not an ipv6 cidr")
		}
	case "IP-ASN":
		if _, err := strconv.ParseUint(v, 10, 32); err != nil {
			return err
		}
	}
	return nil
}

// String renders r as a classical rule line.
func String(r model.Rule) string {
	var b strings.Builder
	b.WriteString(r.Type)
	if r.Type != "MATCH" {
		b.WriteByte(',')
		b.WriteString(r.Value)
	}
	b.WriteByte(',')
	b.WriteString(r.Action)
	if r.NoResolve {
		b.WriteString(",no-resolve")
	}
	return b.String()
}
