// Package compiler runs the record passes between decoding and rendering:
// noise exclusion, expression filtering, group hiding and duplicate renaming.
// Every pass works on a dialer graph so that dropping or renaming a record
// carries over to the records that dial through it.
package compiler

import (
	"fmt"

	"github.com/John-Robertt/cvt/internal/emoji"
	"github.com/John-Robertt/cvt/internal/filter"
	"github.com/John-Robertt/cvt/internal/graph"
	"github.com/John-Robertt/cvt/internal/model"
)

type CompileError struct {
	AppError model.AppError
	Cause    error
}

func (e *CompileError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Cause == nil {
		return fmt.Sprintf("%s: %s", e.AppError.Code, e.AppError.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.AppError.Code, e.AppError.Message, e.Cause)
}

func (e *CompileError) Unwrap() error { return e.Cause }

// ExcludeNoise drops traffic, expiry and similar notice entries, along with
// the records dialing through them, and returns the number dropped.
func ExcludeNoise(g *graph.Graph) int {
	return g.Retain(func(id int) bool { return !emoji.IsNoise(g.Node(id).Name) })
}

// matcher evaluates f against the filter view of every record.
func matcher(g *graph.Graph, f *filter.Filter) (func(id int) bool, error) {
	views, err := g.Views()
	if err != nil {
		return nil, &CompileError{
			AppError: model.AppError{
				Code:    "INTERNAL_ERROR",
				Message: "节点视图构建失败",
				Stage:   "filter",
			},
			Cause: err,
		}
	}
	return func(id int) bool { return f.Match(views[id]) }, nil
}

// Select keeps the records matched by f whose dialer chains are matched as
// well, and returns the number dropped. A nil filter keeps everything.
func Select(g *graph.Graph, f *filter.Filter) (int, error) {
	if f == nil {
		return 0, nil
	}
	match, err := matcher(g, f)
	if err != nil {
		return 0, err
	}
	return g.Retain(match), nil
}

// HiddenMask reports, for each live record in g.Proxies order, whether it
// must be left out of proxy groups: it carries the hidden flag, it is
// matched by hide, or it dials through such a record.
func HiddenMask(g *graph.Graph, hide *filter.Filter) ([]bool, error) {
	match := func(int) bool { return false }
	if hide != nil {
		m, err := matcher(g, hide)
		if err != nil {
			return nil, err
		}
		match = m
	}
	visible := g.Closure(func(id int) bool { return !g.Node(id).Hidden && !match(id) })

	ids := g.IDs()
	out := make([]bool, len(ids))
	for i, id := range ids {
		out[i] = !visible[id]
	}
	return out, nil
}

// RenameDuplicates makes the names of live records pairwise distinct. The
// first record keeps a name; later ones get " 2", " 3" and so on, skipping
// names already taken. Dialer references are updated to the new names. It
// returns the number of records renamed.
func RenameDuplicates(g *graph.Graph) int {
	counter := make(map[string]int)
	renamed := 0
	for _, id := range g.IDs() {
		p := g.Node(id)
		cnt, ok := counter[p.Name]
		if !ok {
			counter[p.Name] = 1
			continue
		}
		var name string
		for {
			cnt++
			name = fmt.Sprintf("%s %d", p.Name, cnt)
			if _, taken := counter[name]; !taken {
				break
			}
		}
		counter[p.Name] = cnt
		counter[name] = 1
		p.Name = name
		renamed++
	}
	g.Relink()
	return renamed
}
