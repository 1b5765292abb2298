package filter

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/John-Robertt/cvt/internal/model"
)

func view(t *testing.T, p *model.Proxy) map[string]any {
	t.Helper()
	v, err := p.View()
	require.NoError(t, err)
	return v
}

func TestMatch_TypeAndPort(t *testing.T) {
	f, err := Compile("type=vmess and not port=443")
	require.NoError(t, err)

	mk := func(port int) map[string]any {
		return view(t, &model.Proxy{
			Name: "n", Server: "h", Port: port, Type: model.TypeVMess,
			Options: &model.VMess{UUID: "0b6c5f4e-5d2b-4c4e-9a47-1f2c3d4e5f60", Cipher: "auto"},
		})
	}
	assert.False(t, f.Match(mk(443)))
	assert.True(t, f.Match(mk(8080)))
}

func TestMatch(t *testing.T) {
	rec := map[string]any{
		"name": "香港 HK 01",
		"type": "vless",
		"port": json.Number("443"),
		"udp":  true,
		"alpn": []any{"h2", "http/1.1"},
		"hops": []any{map[string]any{"n": "x"}, map[string]any{"n": "y"}},
		"ws-opts": map[string]any{
			"path":    "/ray",
			"headers": map[string]any{"Host": "cdn.example.com"},
		},
		"a\"b": "quoted",
	}

	cases := []struct {
		expr string
		want bool
	}{
		{"香港", true},
		{"hk", true},
		{"name:hk", true},
		{"name=hk", false},
		{`name=香港\sHK\s01`, true},
		{"(美国|香港)", true},
		{"(美国|日本)", false},
		{"!:香港", false},
		{"!香港", false},
		{"=香港.*", true},
		{"type=vless", true},
		{"type=VLESS", false},
		{"type:VLESS", true},
		{"type != vless", false},
		{"port=443", true},
		{"udp=true", true},
		{"alpn=h2", true},
		{"alpn!=h2", true},
		{"alpn[0]=h2", true},
		{"alpn[-1]=http/1.1", true},
		{"alpn[5]=h2", false},
		{"alpn[5]!=h2", true},
		{"alpn.length=2", true},
		{"length=8", true},
		{"hops.n=y", true},
		{"hops.n=z", false},
		{"hops[1].n=y", true},
		{"ws-opts.path=/ray", true},
		{`[ "ws-opts" ].headers.Host:example`, true},
		{"ws-opts:cdn", true},
		{`["a\"b"]=quoted`, true},
		{"missing=x", false},
		{"missing!=x", true},
		{"name.length=1", false},
		{"$.type=vless", true},
		{"type=vless and (port=80 or port=443)", true},
		{"type=vless AND NOT udp=true", false},
		{"not not type=vless", true},
		{"type=ss or name:01", true},
		{`name:[)(]`, false},
		{"name:(HK) and port=443", true},
	}
	for _, tc := range cases {
		t.Run(tc.expr, func(t *testing.T) {
			f, err := Compile(tc.expr)
			require.NoError(t, err)
			assert.Equal(t, tc.want, f.Match(rec))
		})
	}
}

func TestMatch_Cycle(t *testing.T) {
	a := map[string]any{"name": "a"}
	b := map[string]any{"name": "b", "dialer-proxy": a}
	a["dialer-proxy"] = b

	assert.True(t, MustCompile("dialer-proxy.name=b").Match(a))
	assert.True(t, MustCompile("dialer-proxy.dialer-proxy.name=a").Match(a))
	assert.True(t, MustCompile("$=b").Match(a))
	assert.False(t, MustCompile("$=zzz").Match(a))
}

func TestCompile_Errors(t *testing.T) {
	cases := []struct {
		expr string
		msg  string
		pos  int
	}{
		{"name=", "Unexpected token at pos 0: `name=`", 0},
		{"a and name= ", "Unexpected token at pos 6: `name=`", 6},
		{"(a", "Expected ), got EOF", 2},
		{"a)", "Extra input after end of expression", 1},
		{"", "Unexpected token EOF", 0},
		{"a and (", "Unexpected token EOF", 7},
	}
	for _, tc := range cases {
		t.Run(tc.expr, func(t *testing.T) {
			_, err := Compile(tc.expr)
			var se *SyntaxError
			require.True(t, errors.As(err, &se), "err=%v", err)
			assert.Equal(t, tc.msg, se.Msg)
			assert.Equal(t, tc.pos, se.Pos)
			assert.Equal(t, 1, strings.Count(err.Error(), fmt.Sprintf("pos %d", tc.pos)), err.Error())
		})
	}
}

func TestCompile_InvalidRegexp(t *testing.T) {
	_, err := Compile("name=(")
	var se *SyntaxError
	require.True(t, errors.As(err, &se))
	assert.Contains(t, se.Msg, "Invalid regular expression")
	assert.Equal(t, 5, se.Pos)
	assert.Contains(t, err.Error(), "(pos 5)")
}

func TestPattern(t *testing.T) {
	cases := []struct {
		src        string
		from       int
		start, end int
		ok         bool
	}{
		{"abc def", 0, 0, 3, true},
		{"a(b c)d e", 0, 0, 7, true},
		{"[ )]x y", 0, 0, 5, true},
		{`a\ b c`, 0, 0, 4, true},
		{"(ab)", 1, 0, 4, true},
		{"((ab))", 2, 0, 6, true},
		{"( ab)", 2, 2, 4, true},
		{"ab)", 0, 0, 2, true},
		{")", 0, 0, 0, false},
		{`ab\`, 0, 0, 3, true},
	}
	for _, tc := range cases {
		t.Run(tc.src, func(t *testing.T) {
			lx := &lexer{src: []rune(tc.src)}
			start, end, ok := lx.pattern(tc.from)
			assert.Equal(t, tc.ok, ok)
			if ok {
				assert.Equal(t, tc.start, start)
				assert.Equal(t, tc.end, end)
			}
		})
	}
}

func TestTokenize_GroupedBarePattern(t *testing.T) {
	toks, err := tokenize("(美国|日本)")
	require.NoError(t, err)
	require.Len(t, toks, 2)
	assert.Equal(t, tokCmp, toks[0].kind)
	assert.Equal(t, tokEOF, toks[1].kind)

	toks, err = tokenize("( a or b )")
	require.NoError(t, err)
	kinds := make([]tokenKind, len(toks))
	for i, tk := range toks {
		kinds[i] = tk.kind
	}
	assert.Equal(t, []tokenKind{tokLParen, tokCmp, tokOr, tokCmp, tokRParen, tokEOF}, kinds)
}

func TestTokenize_Path(t *testing.T) {
	toks, err := tokenize(`a.b[ 'c\'d' ][-2].$ != x`)
	require.NoError(t, err)
	require.Equal(t, tokCmp, toks[0].kind)
	assert.Equal(t, []segment{key("a"), key("b"), key("c'd"), {index: -2, isIndex: true}}, toks[0].path)
	assert.False(t, toks[0].eq)
}
