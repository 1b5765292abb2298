// Package render writes a list of proxy records in one of the output formats.
package render

import (
	"fmt"
	"strings"

	"github.com/John-Robertt/cvt/internal/clash"
	"github.com/John-Robertt/cvt/internal/codec"
	"github.com/John-Robertt/cvt/internal/model"
	"github.com/John-Robertt/cvt/internal/uri"
)

type Target string

const (
	TargetClash        Target = "clash"
	TargetClashProxies Target = "clash-proxies"
	TargetURI          Target = "uri"
	TargetBase64       Target = "base64"
	// TargetAuto picks clash for Clash user agents and base64 otherwise.
	TargetAuto Target = "auto"
)

// Targets lists the accepted target names.
var Targets = []Target{TargetClash, TargetClashProxies, TargetURI, TargetBase64, TargetAuto}

type RenderError struct {
	AppError model.AppError
	Cause    error
}

func (e *RenderError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Cause == nil {
		return fmt.Sprintf("%s: %s", e.AppError.Code, e.AppError.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.AppError.Code, e.AppError.Message, e.Cause)
}

func (e *RenderError) Unwrap() error { return e.Cause }

func unsupported(target string) error {
	return &RenderError{
		AppError: model.AppError{
			Code:    "UNSUPPORTED_TARGET",
			Message: fmt.Sprintf("不支持的 target：%s", target),
			Stage:   "render",
			Hint:    "可选值：clash, clash-proxies, uri, base64, auto",
		},
	}
}

// ParseTarget validates a target name. The empty string means clash.
func ParseTarget(s string) (Target, error) {
	if s == "" {
		return TargetClash, nil
	}
	for _, t := range Targets {
		if string(t) == s {
			return t, nil
		}
	}
	return "", unsupported(s)
}

// Resolve turns TargetAuto into a concrete target for the user agent.
func Resolve(t Target, userAgent string) Target {
	if t != TargetAuto {
		return t
	}
	if strings.Contains(strings.ToLower(userAgent), "clash") {
		return TargetClash
	}
	return TargetBase64
}

// Input is everything a target may need. Only the clash targets read the
// fields past Proxies.
type Input struct {
	Proxies   []*model.Proxy
	UserAgent string

	Hide      []bool
	Legacy    bool
	NoDNSLeak bool

	Counts      *model.Counts
	Unsupported map[string]int
	Errors      []string
	Rules       []model.Rule
}

func Render(target Target, in Input) (string, error) {
	resolved := Resolve(target, in.UserAgent)
	switch resolved {
	case TargetClash, TargetClashProxies:
		out, err := clash.Format(in.Proxies, clash.FormatOptions{
			ProxiesOnly: resolved == TargetClashProxies,
			Legacy:      in.Legacy,
			NoDNSLeak:   in.NoDNSLeak,
			Hide:        in.Hide,
			Counts:      in.Counts,
			Unsupported: in.Unsupported,
			Errors:      in.Errors,
			Rules:       in.Rules,
		})
		if err != nil {
			return "", &RenderError{
				AppError: model.AppError{
					Code:    "INTERNAL_ERROR",
					Message: "Clash 配置生成失败",
					Stage:   "render",
				},
				Cause: err,
			}
		}
		return out, nil
	case TargetURI:
		return uri.FormatAll(in.Proxies), nil
	case TargetBase64:
		return codec.EncodeBase64(uri.FormatAll(in.Proxies)), nil
	default:
		return "", unsupported(string(target))
	}
}
