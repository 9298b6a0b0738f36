package layout

import (
	"context"
	"math"
	"sort"

	"github.com/matzehuels/flowview/pkg/errors"
	"github.com/matzehuels/flowview/pkg/model"
)

// LayeredEngine is a deterministic pure-Go engine. Members are assigned
// to layers by longest path from the sources, ordered within a layer by
// one barycenter sweep, and stacked vertically with layers running left
// to right.
type LayeredEngine struct{}

// NewLayeredEngine returns a LayeredEngine.
func NewLayeredEngine() *LayeredEngine { return &LayeredEngine{} }

// Name implements Engine.
func (*LayeredEngine) Name() string { return "layered" }

// Layout implements Engine.
func (e *LayeredEngine) Layout(ctx context.Context, req Request) (*Result, error) {
	if req.Graph == nil {
		return nil, errors.New(errors.ErrCodeLayout, "nil graph")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	opts := withDefaults(req.Options)
	p := layered(req.Graph, opts)
	res := assemble(req.Graph, p, opts)
	res.RequestID = req.ID
	res.Engine = e.Name()
	return res, nil
}

func withDefaults(o Options) Options {
	d := DefaultOptions()
	if o.NodeSeparation <= 0 {
		o.NodeSeparation = d.NodeSeparation
	}
	if o.RankSeparation <= 0 {
		o.RankSeparation = d.RankSeparation
	}
	return o
}

// memberEdges returns the member-to-member edges as index pairs, without
// self loops.
func memberEdges(g *model.Graph) [][2]int {
	index := map[string]int{}
	for i, c := range g.Root.Children {
		index[c.ID] = i
	}
	var out [][2]int
	for _, e := range g.Edges {
		s, ok1 := index[e.Source]
		t, ok2 := index[e.Target]
		if ok1 && ok2 && s != t {
			out = append(out, [2]int{s, t})
		}
	}
	return out
}

func layered(g *model.Graph, opts Options) placement {
	members := g.Root.Children
	n := len(members)
	p := placement{pos: make(map[string]Point, n)}
	if n == 0 {
		return p
	}

	succ := make([][]int, n)
	for _, e := range memberEdges(g) {
		succ[e[0]] = append(succ[e[0]], e[1])
	}
	succ = dropBackEdges(succ)

	layer := make([]int, n)
	for changed := true; changed; {
		changed = false
		for u := range succ {
			for _, v := range succ[u] {
				if layer[v] < layer[u]+1 {
					layer[v] = layer[u] + 1
					changed = true
				}
			}
		}
	}

	depth := 0
	for _, l := range layer {
		depth = max(depth, l+1)
	}
	layers := make([][]int, depth)
	for i, l := range layer {
		layers[l] = append(layers[l], i)
	}

	if opts.CrossingMinimization != "" {
		pred := make([][]int, n)
		for u := range succ {
			for _, v := range succ[u] {
				pred[v] = append(pred[v], u)
			}
		}
		sweep(layers, pred)
	}

	var x, areaH float64
	heights := make([]float64, depth)
	for li, ids := range layers {
		for k, i := range ids {
			if k > 0 {
				heights[li] += opts.NodeSeparation
			}
			heights[li] += members[i].Height
		}
		areaH = math.Max(areaH, heights[li])
	}
	for li, ids := range layers {
		var w float64
		y := (areaH - heights[li]) / 2
		for _, i := range ids {
			m := members[i]
			p.pos[m.ID] = Point{X: x, Y: y}
			y += m.Height + opts.NodeSeparation
			w = math.Max(w, m.Width)
		}
		x += w
		if li < depth-1 {
			x += opts.RankSeparation
		}
	}
	p.area = Size{Width: x, Height: areaH}
	return p
}

// dropBackEdges removes the edges that close a cycle, found by a
// depth-first search in declaration order.
func dropBackEdges(succ [][]int) [][]int {
	const (
		unvisited = iota
		active
		done
	)
	state := make([]int, len(succ))
	out := make([][]int, len(succ))
	var visit func(u int)
	visit = func(u int) {
		state[u] = active
		for _, v := range succ[u] {
			if state[v] == active {
				continue
			}
			out[u] = append(out[u], v)
			if state[v] == unvisited {
				visit(v)
			}
		}
		state[u] = done
	}
	for u := range succ {
		if state[u] == unvisited {
			visit(u)
		}
	}
	return out
}

// sweep orders every layer after the first by the mean position of each
// member's predecessors. Members without predecessors keep their place.
func sweep(layers [][]int, pred [][]int) {
	rank := map[int]float64{}
	for k, i := range layers[0] {
		rank[i] = float64(k)
	}
	for li := 1; li < len(layers); li++ {
		ids := layers[li]
		bary := make(map[int]float64, len(ids))
		for k, i := range ids {
			bary[i] = float64(k)
			var sum float64
			var cnt int
			for _, u := range pred[i] {
				if r, ok := rank[u]; ok {
					sum += r
					cnt++
				}
			}
			if cnt > 0 {
				bary[i] = sum / float64(cnt)
			}
		}
		sort.SliceStable(ids, func(a, b int) bool { return bary[ids[a]] < bary[ids[b]] })
		for k, i := range ids {
			rank[i] = float64(k)
		}
	}
}
