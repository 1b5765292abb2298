// Package graph links proxy records through their dialer-proxy references.
//
// Records live in an arena indexed by their position at construction time.
// Filtering marks records dead instead of moving them, so ids stay valid
// through every stage and links survive renames.
package graph

import (
	"github.com/John-Robertt/cvt/internal/model"
)

const none = -1

type Graph struct {
	nodes  []*model.Proxy
	dialer []int // id of the resolved dialer, or none
	alive  []bool
}

// New builds the arena. A dialer name resolves to the first record carrying
// it; unresolved names and self references are left unlinked.
func New(proxies []*model.Proxy) *Graph {
	g := &Graph{
		nodes:  proxies,
		dialer: make([]int, len(proxies)),
		alive:  make([]bool, len(proxies)),
	}
	byName := make(map[string]int, len(proxies))
	for i, p := range proxies {
		if _, ok := byName[p.Name]; !ok {
			byName[p.Name] = i
		}
		g.alive[i] = true
	}
	for i, p := range proxies {
		g.dialer[i] = none
		if p.DialerProxy == "" {
			continue
		}
		if d, ok := byName[p.DialerProxy]; ok && d != i {
			g.dialer[i] = d
		}
	}
	return g
}

// Len returns the number of live records.
func (g *Graph) Len() int {
	n := 0
	for _, ok := range g.alive {
		if ok {
			n++
		}
	}
	return n
}

// IDs returns the ids of live records in input order.
func (g *Graph) IDs() []int {
	out := make([]int, 0, len(g.nodes))
	for i, ok := range g.alive {
		if ok {
			out = append(out, i)
		}
	}
	return out
}

// Proxies returns the live records in input order.
func (g *Graph) Proxies() []*model.Proxy {
	out := make([]*model.Proxy, 0, len(g.nodes))
	for i, ok := range g.alive {
		if ok {
			out = append(out, g.nodes[i])
		}
	}
	return out
}

func (g *Graph) Node(id int) *model.Proxy { return g.nodes[id] }

// Dialer returns the id of the record id dials through.
func (g *Graph) Dialer(id int) (int, bool) {
	d := g.dialer[id]
	return d, d != none
}

// Closure evaluates keep over the live records and extends it along dialer
// links: a record survives only if keep holds for it and for every record on
// its dialer chain. Members of a cycle survive iff keep holds for all of them.
func (g *Graph) Closure(keep func(id int) bool) []bool {
	const (
		unknown = iota
		visiting
		yes
		no
	)
	state := make([]uint8, len(g.nodes))
	var visit func(id int) bool
	visit = func(id int) bool {
		switch state[id] {
		case yes:
			return true
		case no:
			return false
		case visiting:
			return true
		}
		state[id] = visiting
		ok := g.alive[id] && keep(id)
		if ok {
			if d := g.dialer[id]; d != none {
				ok = visit(d)
			}
		}
		if ok {
			state[id] = yes
		} else {
			state[id] = no
		}
		return ok
	}
	out := make([]bool, len(g.nodes))
	for i := range g.nodes {
		if g.alive[i] {
			out[i] = visit(i)
		}
	}
	return out
}

// Retain drops every live record for which Closure(keep) is false and returns
// the number dropped.
func (g *Graph) Retain(keep func(id int) bool) int {
	mask := g.Closure(keep)
	dropped := 0
	for i, ok := range g.alive {
		if ok && !mask[i] {
			g.alive[i] = false
			dropped++
		}
	}
	return dropped
}

// Walk calls fn for every live record after its dialer (when the dialer is
// live and not part of a cycle through the record). Each record is visited
// exactly once.
func (g *Graph) Walk(fn func(id int)) {
	const (
		unvisited = iota
		visiting
		done
	)
	state := make([]uint8, len(g.nodes))
	var visit func(id int)
	visit = func(id int) {
		if state[id] != unvisited {
			return
		}
		state[id] = visiting
		if d := g.dialer[id]; d != none && g.alive[d] {
			visit(d)
		}
		state[id] = done
		fn(id)
	}
	for i := range g.nodes {
		if g.alive[i] {
			visit(i)
		}
	}
}

// Relink rewrites the dialer-proxy field of every live linked record to the
// current name of its dialer.
func (g *Graph) Relink() {
	for i, d := range g.dialer {
		if g.alive[i] && d != none {
			g.nodes[i].DialerProxy = g.nodes[d].Name
		}
	}
}

// Views returns one generic tree per record, indexed by id, with each
// resolved dialer-proxy name replaced by the dialer's own tree. The trees
// may therefore contain cycles.
func (g *Graph) Views() ([]map[string]any, error) {
	views := make([]map[string]any, len(g.nodes))
	for i, p := range g.nodes {
		v, err := p.View()
		if err != nil {
			return nil, err
		}
		views[i] = v
	}
	for i, d := range g.dialer {
		if d != none {
			views[i]["dialer-proxy"] = views[d]
		}
	}
	return views, nil
}
