// Package filter implements the node selection language used by the filter
// and hide options.
//
// An expression combines comparisons with and, or, not and parentheses:
//
//	type=vmess and not port=443
//	dialer-proxy.name:香港 or [ "ws-opts" ].path!=/
//	(美国|日本)
//
// A comparison is `path op pattern`. The path walks the record: keys joined
// by dots, bracketed keys or indexes (negative counts from the end), the
// pseudo-key length, and `$` as a no-op. Operators `=` and `!=` match the
// whole value; `:` and `!:` search it, ignoring case. A bare pattern searches
// the name.
package filter

import (
	"fmt"
	"reflect"
	"strconv"
	"time"
	"unsafe"

	"github.com/dlclark/regexp2"
)

// matchTimeout bounds a single regular expression match. A match that times
// out counts as no match.
const matchTimeout = 200 * time.Millisecond

// SyntaxError reports a malformed expression. Pos is a rune offset into the
// trimmed expression.
type SyntaxError struct {
	Pos int
	Msg string

	located bool // Msg already names Pos
}

func (e *SyntaxError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.located {
		return e.Msg
	}
	return fmt.Sprintf("%s (pos %d)", e.Msg, e.Pos)
}

// Filter is a compiled expression. It is safe for concurrent use.
type Filter struct {
	expr string
	root node
}

// Compile parses expr.
func Compile(expr string) (*Filter, error) {
	toks, err := tokenize(expr)
	if err != nil {
		return nil, err
	}
	root, err := parse(toks)
	if err != nil {
		return nil, err
	}
	return &Filter{expr: expr, root: root}, nil
}

// MustCompile is Compile that panics on error.
func MustCompile(expr string) *Filter {
	f, err := Compile(expr)
	if err != nil {
		panic(fmt.Sprintf("filter: Compile(%q): %v", expr, err))
	}
	return f
}

func (f *Filter) String() string { return f.expr }

// Match evaluates the expression against a generic tree as produced by
// encoding/json: maps with string keys, slices, and scalars. The tree may
// contain cycles.
func (f *Filter) Match(v any) bool { return f.root.eval(v) }

func compile(pattern string, exact bool) (*regexp2.Regexp, error) {
	var opt regexp2.RegexOptions = regexp2.IgnoreCase
	if exact {
		pattern = "^(?:" + pattern + ")$"
		opt = regexp2.None
	}
	re, err := regexp2.Compile(pattern, opt)
	if err != nil {
		return nil, fmt.Errorf("Invalid regular expression: /%s/: %v", pattern, err)
	}
	re.MatchTimeout = matchTimeout
	return re, nil
}

type node interface {
	eval(v any) bool
}

type andNode struct{ left, right node }

func (n *andNode) eval(v any) bool { return n.left.eval(v) && n.right.eval(v) }

type orNode struct{ left, right node }

func (n *orNode) eval(v any) bool { return n.left.eval(v) || n.right.eval(v) }

type notNode struct{ child node }

func (n *notNode) eval(v any) bool { return !n.child.eval(v) }

type cmpNode struct {
	path []segment
	eq   bool
	re   *regexp2.Regexp
}

func (n *cmpNode) eval(v any) bool {
	return n.cmp(v, n.path, visited{})
}

// cmp walks path from v. Crossing a list with a key that is neither an index
// nor length makes the comparison existential over the list. A container at
// the end of the path matches when any value inside it does.
func (n *cmpNode) cmp(v any, path []segment, vis visited) bool {
	for i, seg := range path {
		switch x := v.(type) {
		case map[string]any:
			if !seg.isIndex && seg.key == "length" {
				v = len(x)
			} else {
				v = x[seg.mapKey()]
			}
		case []any:
			switch {
			case seg.isIndex:
				j := seg.index
				if j < 0 {
					j += len(x)
				}
				v = nil
				if j >= 0 && j < len(x) {
					v = x[j]
				}
			case seg.key == "length":
				v = len(x)
			default:
				rest := path[i:]
				for _, e := range x {
					if n.cmp(e, rest, vis) {
						return true
					}
				}
				return false
			}
		default:
			return !n.eq
		}
	}

	var elems []any
	switch x := v.(type) {
	case nil:
		return !n.eq
	case map[string]any:
		if !vis.add(x) {
			return false
		}
		elems = make([]any, 0, len(x))
		for _, e := range x {
			elems = append(elems, e)
		}
	case []any:
		if !vis.add(x) {
			return false
		}
		elems = x
	default:
		ok, err := n.re.MatchString(scalar(x))
		if err != nil {
			ok = false
		}
		return ok == n.eq
	}
	for _, e := range elems {
		if n.cmp(e, nil, vis) {
			return true
		}
	}
	return false
}

// visited records containers by identity.
type visited map[visitKey]bool

type visitKey struct {
	ptr unsafe.Pointer
	n   int
}

// add marks c and reports whether it was not marked before.
func (vis visited) add(c any) bool {
	rv := reflect.ValueOf(c)
	k := visitKey{ptr: rv.UnsafePointer(), n: rv.Len()}
	if vis[k] {
		return false
	}
	vis[k] = true
	return true
}

func (s segment) mapKey() string {
	if s.isIndex {
		return strconv.Itoa(s.index)
	}
	return s.key
}

// scalar formats a leaf the way it reads in the source document.
func scalar(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}
