package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/John-Robertt/cvt/internal/model"
)

func node(name, dialer string) *model.Proxy {
	return &model.Proxy{
		Name: name, Server: "example.com", Port: 443, Type: model.TypeTrojan, DialerProxy: dialer,
		Options: &model.Trojan{Password: "pw"},
	}
}

func names(ps []*model.Proxy) []string {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.Name)
	}
	return out
}

func TestNew_Links(t *testing.T) {
	g := New([]*model.Proxy{node("a", ""), node("b", "a"), node("a", ""), node("c", "missing"), node("d", "d")})

	d, ok := g.Dialer(1)
	require.True(t, ok)
	assert.Equal(t, 0, d, "first record with the name wins")

	_, ok = g.Dialer(3)
	assert.False(t, ok)
	_, ok = g.Dialer(4)
	assert.False(t, ok, "self reference is unlinked")
}

func TestRetain_ChainClosure(t *testing.T) {
	g := New([]*model.Proxy{node("relay", ""), node("exit", "relay"), node("plain", "")})
	dropped := g.Retain(func(id int) bool { return g.Node(id).Name != "relay" })

	assert.Equal(t, 2, dropped)
	assert.Equal(t, []string{"plain"}, names(g.Proxies()))
}

func TestRetain_Cycle(t *testing.T) {
	g := New([]*model.Proxy{node("a", "b"), node("b", "a"), node("c", "a")})
	mask := g.Closure(func(int) bool { return true })
	assert.Equal(t, []bool{true, true, true}, mask)

	g.Retain(func(id int) bool { return g.Node(id).Name != "b" })
	assert.Empty(t, g.Proxies())
}

func TestWalk_DialerFirst(t *testing.T) {
	g := New([]*model.Proxy{node("exit", "mid"), node("mid", "entry"), node("entry", ""), node("x", "x2"), node("x2", "x")})
	var order []string
	g.Walk(func(id int) { order = append(order, g.Node(id).Name) })

	assert.Len(t, order, 5)
	idx := map[string]int{}
	for i, n := range order {
		idx[n] = i
	}
	assert.Less(t, idx["entry"], idx["mid"])
	assert.Less(t, idx["mid"], idx["exit"])
}

func TestRelink_AfterRename(t *testing.T) {
	g := New([]*model.Proxy{node("relay", ""), node("exit", "relay")})
	g.Node(0).Name = "🇭🇰 relay"
	g.Relink()
	assert.Equal(t, "🇭🇰 relay", g.Node(1).DialerProxy)
}

func TestViews_LinkedTrees(t *testing.T) {
	g := New([]*model.Proxy{node("a", "b"), node("b", "a")})
	views, err := g.Views()
	require.NoError(t, err)

	da, ok := views[0]["dialer-proxy"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "b", da["name"])
	back, ok := da["dialer-proxy"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "a", back["name"])
}
