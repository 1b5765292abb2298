package clash

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/John-Robertt/cvt/internal/model"
)

// object is one decoded YAML mapping. Accessors coerce loosely: a config is
// hand-written more often than not, so "443" is a port and "" is absent.
type object map[string]any

// normalize rewrites every nested map[any]any into map[string]any so that
// the tree can be walked with object and dumped as JSON.
func normalize(v any) any {
	switch x := v.(type) {
	case map[string]any:
		for k, e := range x {
			x[k] = normalize(e)
		}
		return x
	case map[any]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[fmt.Sprint(k)] = normalize(e)
		}
		return out
	case []any:
		for i, e := range x {
			x[i] = normalize(e)
		}
		return x
	default:
		return v
	}
}

func asObject(v any) (object, bool) {
	m, ok := v.(map[string]any)
	return object(m), ok
}

// toString renders a scalar the way a config author would read it.
func toString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case nil:
		return ""
	default:
		return fmt.Sprint(x)
	}
}

func toNumber(v any) (float64, bool) {
	switch x := v.(type) {
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint64:
		return float64(x), true
	case float64:
		return x, !math.IsNaN(x)
	case bool:
		return float64(lo.Ternary(x, 1, 0)), true
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0, true
		}
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			if i, err := strconv.ParseInt(s, 0, 64); err == nil {
				return float64(i), true
			}
			return 0, false
		}
		return n, !math.IsNaN(n)
	default:
		return 0, false
	}
}

// truthy reports whether v would pass as a condition in a loosely typed
// config: nil, false, zero and "" are false; anything else is true.
func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case int:
		return x != 0
	case int64:
		return x != 0
	case uint64:
		return x != 0
	case float64:
		return x != 0 && !math.IsNaN(x)
	default:
		return true
	}
}

func present(v any) bool {
	if v == nil {
		return false
	}
	s, ok := v.(string)
	return !ok || s != ""
}

var errMissingField = errors.New("missing field")

// must returns a required field as a string.
func (o object) must(k string) (string, error) {
	v, ok := o[k]
	if !ok || v == nil {
		return "", fmt.Errorf("%w: %s", errMissingField, k)
	}
	return toString(v), nil
}

// str returns k when it is set and not empty.
func (o object) str(k string) string {
	if v := o[k]; present(v) {
		return toString(v)
	}
	return ""
}

// strOr is str with a fallback for absent values.
func (o object) strOr(k, def string) string {
	if s := o.str(k); s != "" {
		return s
	}
	return def
}

// number returns k as a number when it is set and numeric.
func (o object) number(k string) (float64, bool) {
	v := o[k]
	if !present(v) {
		return 0, false
	}
	return toNumber(v)
}

func (o object) integer(k string) int {
	n, _ := o.number(k)
	return int(n)
}

func (o object) intPtr(k string) *int {
	n, ok := o.number(k)
	if !ok {
		return nil
	}
	return model.Int(int(n))
}

func (o object) truthy(k string) bool { return truthy(o[k]) }

// boolOr returns k when it is a real boolean, else def.
func (o object) boolOr(k string, def bool) *bool {
	if b, ok := o[k].(bool); ok {
		return model.Bool(b)
	}
	return model.Bool(def)
}

func (o object) child(k string) (object, bool) { return asObject(o[k]) }

// list returns k as a list of strings; ok is false when k is not a list.
func (o object) list(k string) ([]string, bool) {
	arr, ok := o[k].([]any)
	if !ok {
		return nil, false
	}
	return lo.Map(arr, func(v any, _ int) string { return toString(v) }), true
}

// nonEmptyList is list that also rejects empty lists.
func (o object) nonEmptyList(k string) []string {
	l, _ := o.list(k)
	if len(l) == 0 {
		return nil
	}
	return l
}

func (o object) stringMap(k string) map[string]string {
	m, ok := o.child(k)
	if !ok {
		return nil
	}
	return lo.MapValues(m, func(v any, _ string) string { return toString(v) })
}

func (o object) udp() *bool { return o.boolOr("udp", model.DefaultUDP) }

func (o object) skipCertVerify() *bool {
	return o.boolOr("skip-cert-verify", model.DefaultSkipCertVerify)
}

func (o object) alpn() []string {
	l, _ := o.list("alpn")
	return l
}

func (o object) ech() *model.ECHOpts {
	e, ok := o.child("ech-opts")
	if !ok || !e.truthy("enable") {
		return nil
	}
	return &model.ECHOpts{Enable: true, Config: e.str("config")}
}

func (o object) reality() *model.RealityOpts {
	r, ok := o.child("reality-opts")
	if !ok {
		return nil
	}
	return &model.RealityOpts{
		PublicKey:             toString(r["public-key"]),
		ShortID:               lo.Ternary(r.truthy("short-id"), toString(r["short-id"]), ""),
		SupportX25519MLKEM768: r.truthy("support-x25519mlkem768"),
	}
}
