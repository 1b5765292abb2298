package filter

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/dlclark/regexp2"
)

type tokenKind int

const (
	tokAnd tokenKind = iota
	tokOr
	tokNot
	tokLParen
	tokRParen
	tokEOF
	tokCmp
)

func (k tokenKind) String() string {
	switch k {
	case tokAnd:
		return "AND"
	case tokOr:
		return "OR"
	case tokNot:
		return "NOT"
	case tokLParen:
		return "("
	case tokRParen:
		return ")"
	case tokEOF:
		return "EOF"
	default:
		return "CMP"
	}
}

// segment is one step of a field path: a key or, for bracketed numbers, an
// index that may count from the end.
type segment struct {
	key     string
	index   int
	isIndex bool
}

func key(s string) segment { return segment{key: s} }

// namePath is used by comparisons that do not spell a path.
var namePath = []segment{key("name")}

type token struct {
	kind tokenKind
	pos  int

	// comparison leaves only
	path []segment
	eq   bool
	re   *regexp2.Regexp
}

func isSpace(r rune) bool { return unicode.IsSpace(r) || r == '\uFEFF' }

func isWord(r rune) bool {
	return r == '_' || r == '-' || (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

type lexer struct {
	src  []rune
	toks []token
}

// tokenize splits expr into logic tokens and comparison leaves. Positions
// are rune offsets into the trimmed expression.
func tokenize(expr string) ([]token, error) {
	lx := &lexer{src: []rune(strings.TrimFunc(expr, isSpace))}
	i := 0
	for i < len(lx.src) {
		i = lx.logics(i)
		if i >= len(lx.src) {
			break
		}
		j, ok, err := lx.comparison(i)
		if err != nil {
			return nil, err
		}
		if !ok {
			end := min(i+10, len(lx.src))
			return nil, &SyntaxError{
				Pos:     i,
				Msg:     fmt.Sprintf("Unexpected token at pos %d: `%s`", i, string(lx.src[i:end])),
				located: true,
			}
		}
		i = j
	}
	lx.toks = append(lx.toks, token{kind: tokEOF, pos: len(lx.src)})
	return lx.toks, nil
}

func (lx *lexer) skipSpaces(i int) int {
	for i < len(lx.src) && isSpace(lx.src[i]) {
		i++
	}
	return i
}

// logics consumes parentheses and the keywords and/or/not. A keyword only
// counts when whitespace follows it.
func (lx *lexer) logics(i int) int {
	for i < len(lx.src) {
		switch c := lx.src[i]; c {
		case '(', ')':
			kind := tokLParen
			if c == ')' {
				kind = tokRParen
			}
			lx.toks = append(lx.toks, token{kind: kind, pos: i})
			i = lx.skipSpaces(i + 1)
			continue
		}
		kind, n := lx.keyword(i)
		if n == 0 {
			return i
		}
		lx.toks = append(lx.toks, token{kind: kind, pos: i})
		i = lx.skipSpaces(i + n)
	}
	return i
}

func (lx *lexer) keyword(i int) (tokenKind, int) {
	for _, kw := range []struct {
		word string
		kind tokenKind
	}{{"and", tokAnd}, {"or", tokOr}, {"not", tokNot}} {
		n := len(kw.word)
		if i+n < len(lx.src) && strings.EqualFold(string(lx.src[i:i+n]), kw.word) && isSpace(lx.src[i+n]) {
			return kw.kind, n + 1
		}
	}
	return 0, 0
}

// comparison reads one `path op pattern` leaf starting at i. Parentheses
// swallowed by the pattern are taken back from the token list.
func (lx *lexer) comparison(i int) (int, bool, error) {
	path, eq, exact, reStart := lx.pathAndOp(i)
	start, end, ok := lx.pattern(reStart)
	if !ok {
		return 0, false, nil
	}
	re, err := compile(string(lx.src[start:end]), exact)
	if err != nil {
		return 0, false, &SyntaxError{Pos: start, Msg: err.Error()}
	}
	if n := reStart - start; n > 0 {
		lx.toks = lx.toks[:len(lx.toks)-n]
	}
	lx.toks = append(lx.toks, token{kind: tokCmp, pos: start, path: path, eq: eq, re: re})
	return lx.skipSpaces(end), true, nil
}

// pathAndOp reads an optional field path and the operator after it. Without
// both the leaf is a bare pattern over the name.
func (lx *lexer) pathAndOp(i int) (path []segment, eq, exact bool, next int) {
	j := i
	for {
		seg, k, ok := lx.segment(j)
		if !ok {
			break
		}
		k = lx.skipSpaces(k)
		if op, n := lx.operator(k); n > 0 {
			if seg != nil {
				path = append(path, *seg)
			}
			eq, exact = opFlags(op)
			return path, eq, exact, lx.skipSpaces(k + n)
		}
		switch {
		case k < len(lx.src) && lx.src[k] == '.':
			k = lx.skipSpaces(k + 1)
		case k < len(lx.src) && lx.src[k] == '[':
		default:
			// not a path after all
			return lx.bareOp(i, len(path) == 0)
		}
		if seg != nil {
			path = append(path, *seg)
		}
		j = k
	}
	return lx.bareOp(i, len(path) == 0)
}

// bareOp handles a leaf without a path: an operator may still lead it when
// no path segment was read at all.
func (lx *lexer) bareOp(i int, noPath bool) ([]segment, bool, bool, int) {
	if noPath {
		if op, n := lx.operator(i); n > 0 {
			eq, exact := opFlags(op)
			return namePath, eq, exact, lx.skipSpaces(i + n)
		}
	}
	return namePath, true, false, i
}

func opFlags(op string) (eq, exact bool) {
	return !strings.HasPrefix(op, "!"), strings.HasSuffix(op, "=")
}

// operator matches one of = : != !: ! at i.
func (lx *lexer) operator(i int) (string, int) {
	if i >= len(lx.src) {
		return "", 0
	}
	switch lx.src[i] {
	case '=', ':':
		return string(lx.src[i]), 1
	case '!':
		if i+1 < len(lx.src) && (lx.src[i+1] == '=' || lx.src[i+1] == ':') {
			return string(lx.src[i : i+2]), 2
		}
		return "!", 1
	}
	return "", 0
}

// segment reads a bare key, `$`, or a bracketed quoted key or index. A nil
// segment with ok set is the `$` separator.
func (lx *lexer) segment(i int) (*segment, int, bool) {
	if i >= len(lx.src) {
		return nil, i, false
	}
	if lx.src[i] == '$' {
		return nil, i + 1, true
	}
	if isWord(lx.src[i]) {
		j := i
		for j < len(lx.src) && isWord(lx.src[j]) {
			j++
		}
		s := key(string(lx.src[i:j]))
		return &s, j, true
	}
	if lx.src[i] != '[' {
		return nil, i, false
	}
	j := lx.skipSpaces(i + 1)
	if j >= len(lx.src) {
		return nil, i, false
	}
	if q := lx.src[j]; q == '"' || q == '\'' {
		end, ok := lx.quoted(j+1, q, map[int]bool{})
		if !ok {
			return nil, i, false
		}
		s := key(unescape(lx.src[j+1 : end]))
		return &s, lx.closeBracket(end + 1), true
	}
	k := j
	if k < len(lx.src) && lx.src[k] == '-' {
		k++
	}
	d := k
	for k < len(lx.src) && isDigit(lx.src[k]) {
		k++
	}
	if k == d {
		return nil, i, false
	}
	end := lx.skipSpaces(k)
	if end >= len(lx.src) || lx.src[end] != ']' {
		return nil, i, false
	}
	n, err := strconv.Atoi(string(lx.src[j:k]))
	if err != nil {
		return nil, i, false
	}
	return &segment{index: n, isIndex: true}, end + 1, true
}

// quoted finds the closing quote of a bracketed key: the first quote, in
// backtracking order, that is followed by optional spaces and `]`. A
// backslash first tries to escape the next rune.
func (lx *lexer) quoted(j int, q rune, failed map[int]bool) (int, bool) {
	if j >= len(lx.src) || failed[j] {
		return 0, false
	}
	if lx.src[j] == q && lx.closeBracket(j+1) > 0 {
		return j, true
	}
	if lx.src[j] == '\\' && j+1 < len(lx.src) {
		if end, ok := lx.quoted(j+2, q, failed); ok {
			return end, true
		}
	}
	if end, ok := lx.quoted(j+1, q, failed); ok {
		return end, true
	}
	failed[j] = true
	return 0, false
}

// closeBracket returns the offset after `\s*]` at j, or 0.
func (lx *lexer) closeBracket(j int) int {
	j = lx.skipSpaces(j)
	if j < len(lx.src) && lx.src[j] == ']' {
		return j + 1
	}
	return 0
}

// unescape drops a backslash before any rune and collapses `\\` to `\`.
func unescape(rs []rune) string {
	var b strings.Builder
	for i := 0; i < len(rs); i++ {
		if rs[i] == '\\' {
			if i+1 < len(rs) && rs[i+1] == '\\' {
				b.WriteRune('\\')
				i++
			}
			continue
		}
		b.WriteRune(rs[i])
	}
	return b.String()
}

// pattern scans a raw regular expression from i. It stops at whitespace or
// at an unbalanced `)` outside a character class. An unbalanced `)` whose
// matching `(` sits right before the pattern pulls that `(` into it.
func (lx *lexer) pattern(i int) (start, end int, ok bool) {
	start = i
	paren := 0
	inClass := false
scan:
	for ; i < len(lx.src); i++ {
		c := lx.src[i]
		switch {
		case c == '\\':
			i++
			if i >= len(lx.src) {
				break scan
			}
		case inClass:
			if c == ']' {
				inClass = false
			}
		case c == '[':
			inClass = true
		case c == '(':
			paren++
		case c == ')':
			if paren > 0 {
				paren--
				continue
			}
			if start > 0 && lx.src[start-1] == '(' {
				start--
				continue
			}
			break scan
		case paren == 0 && isSpace(c):
			break scan
		}
	}
	end = min(i, len(lx.src))
	return start, end, start != end
}
