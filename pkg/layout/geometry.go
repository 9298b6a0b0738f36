package layout

import (
	"math"

	"github.com/matzehuels/flowview/pkg/model"
)

// routeMargin is the distance an edge keeps from node borders when it
// has to detour.
const routeMargin = 10

// placement is what an engine decides: the top-left corner of every
// member box relative to the member area, and the area size.
type placement struct {
	pos  map[string]Point
	area Size
}

// assemble turns member placements into a full result. Members are moved
// into the root below its header, the root grows to contain them, ports
// are placed on their sides and edges are routed between port centres.
func assemble(g *model.Graph, p placement, opts Options) *Result {
	root := g.Root
	border := root.Hints.BorderSpacing
	originX := border
	originY := root.HeaderHeight + border/2

	res := &Result{MaxRootSlotWidth: g.MaxRootSlotWidth}

	w := math.Max(root.Width, p.area.Width+2*border)
	h := math.Max(root.Height, originY+p.area.Height+border/2)
	if opts.IntCoordinates {
		w, h = math.Ceil(w), math.Ceil(h)
	}
	res.Root = positionNode(root, 0, 0, w, h)

	for _, c := range root.Children {
		at := p.pos[c.ID]
		x, y := originX+at.X, originY+at.Y
		if opts.IntCoordinates {
			x, y = math.Round(x), math.Round(y)
		}
		res.Root.Children = append(res.Root.Children, positionNode(c, x, y, c.Width, c.Height))
	}

	ports := map[string]*PositionedPort{}
	nodes := map[string]*PositionedNode{}
	for _, n := range res.Nodes() {
		nodes[n.ID] = n
		for i := range n.Ports {
			ports[n.ID+"\x00"+n.Ports[i].ID] = &n.Ports[i]
		}
	}

	for _, e := range g.Edges {
		sp, ok1 := ports[e.Source+"\x00"+e.SourcePort]
		tp, ok2 := ports[e.Target+"\x00"+e.TargetPort]
		if !ok1 || !ok2 {
			continue
		}
		sp.Connected = true
		tp.Connected = true
		res.Edges = append(res.Edges, routeEdge(e, sp, tp, nodes[e.Source], nodes[e.Target]))
	}

	res.BoundingBox = boundingBox(res)
	return res
}

func positionNode(n model.Node, x, y, w, h float64) PositionedNode {
	pn := PositionedNode{
		ID:           n.ID,
		ArtifactID:   n.ArtifactID,
		MemberID:     n.MemberID,
		X:            x,
		Y:            y,
		Width:        w,
		Height:       h,
		HeaderHeight: n.HeaderHeight,
		Labels:       n.Labels,
		Placeholder:  n.Placeholder,
	}
	top := n.Hints.AdditionalPortSpace.Top
	var west, east int
	for _, p := range n.Ports {
		pitch := p.Height + n.Hints.PortSpacing
		r := p.Height / 2
		pp := PositionedPort{
			ID:        p.ID,
			SlotID:    p.SlotID,
			Direction: p.Direction,
			Side:      p.Side,
			Labels:    p.Labels,
			Tooltip:   p.Tooltip,
			Width:     p.Height,
			Height:    p.Height,
		}
		switch p.Side {
		case model.East:
			pp.X = w - r
			pp.Y = top + float64(east)*pitch
			east++
		default:
			pp.X = -r
			pp.Y = top + float64(west)*pitch
			west++
		}
		pp.Center = Point{X: x + pp.X + r, Y: y + pp.Y + r}
		pn.Ports = append(pn.Ports, pp)
	}
	return pn
}

// routeEdge routes e orthogonally. Edges that run forwards bend twice in
// the channel halfway between their ends; edges that run backwards leave
// to the right, pass below both nodes and enter from the left.
func routeEdge(e model.Edge, sp, tp *PositionedPort, src, dst *PositionedNode) RoutedEdge {
	s, t := sp.Center, tp.Center
	re := RoutedEdge{
		ID:           e.ID,
		Source:       e.Source,
		SourcePort:   e.SourcePort,
		Target:       e.Target,
		TargetPort:   e.TargetPort,
		HookFunction: e.HookFunction,
		Tooltip:      e.Tooltip,
		SourcePoint:  s,
		TargetPoint:  t,
		BendPoints:   []Point{},
		SourceRadius: sp.Width / 2,
		TargetRadius: tp.Width / 2,
		Highlighted:  e.Highlighted,
	}

	switch {
	case t.X-s.X >= 2*routeMargin:
		if s.Y != t.Y {
			mid := math.Round((s.X + t.X) / 2)
			re.BendPoints = []Point{{X: mid, Y: s.Y}, {X: mid, Y: t.Y}}
		}
	default:
		below := math.Max(bottomOf(src), bottomOf(dst)) + routeMargin
		re.BendPoints = []Point{
			{X: s.X + routeMargin, Y: s.Y},
			{X: s.X + routeMargin, Y: below},
			{X: t.X - routeMargin, Y: below},
			{X: t.X - routeMargin, Y: t.Y},
		}
	}

	for _, l := range e.Labels {
		re.Labels = append(re.Labels, PositionedLabel{
			Label: l,
			X:     s.X,
			Y:     s.Y - 3*l.Height,
		})
	}
	return re
}

func bottomOf(n *PositionedNode) float64 {
	if n == nil {
		return 0
	}
	// The root encloses everything; detours run along its member area.
	if len(n.Children) > 0 {
		var b float64
		for _, c := range n.Children {
			b = math.Max(b, c.Y+c.Height)
		}
		return b
	}
	return n.Y + n.Height
}

func boundingBox(r *Result) Rect {
	minX, minY := r.Root.X, r.Root.Y
	maxX, maxY := r.Root.X+r.Root.Width, r.Root.Y+r.Root.Height
	grow := func(x, y float64) {
		minX, minY = math.Min(minX, x), math.Min(minY, y)
		maxX, maxY = math.Max(maxX, x), math.Max(maxY, y)
	}
	for _, n := range r.Nodes() {
		for _, p := range n.Ports {
			grow(n.X+p.X, n.Y+p.Y)
			grow(n.X+p.X+p.Width, n.Y+p.Y+p.Height)
		}
	}
	for _, e := range r.Edges {
		for _, b := range e.BendPoints {
			grow(b.X, b.Y)
		}
	}
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}
