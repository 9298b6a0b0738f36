package layout

import (
	"bytes"
	"context"
	"fmt"
	"math"

	"github.com/charmbracelet/log"
	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/flowview/pkg/errors"
	"github.com/matzehuels/flowview/pkg/model"
)

const (
	pointsPerInch = 72.0

	sourceAnchor = "__in__"
	sinkAnchor   = "__out__"
)

// GraphvizEngine places members with Graphviz dot.
type GraphvizEngine struct {
	Logger *log.Logger
}

// NewGraphvizEngine returns a GraphvizEngine logging to logger, or to the
// default logger when nil.
func NewGraphvizEngine(logger *log.Logger) *GraphvizEngine {
	if logger == nil {
		logger = log.Default()
	}
	return &GraphvizEngine{Logger: logger}
}

// Name implements Engine.
func (*GraphvizEngine) Name() string { return "graphviz" }

// Layout implements Engine.
func (e *GraphvizEngine) Layout(ctx context.Context, req Request) (*Result, error) {
	if req.Graph == nil {
		return nil, errors.New(errors.ErrCodeLayout, "nil graph")
	}
	opts := withDefaults(req.Options)

	p := placement{pos: map[string]Point{}}
	if len(req.Graph.Root.Children) > 0 {
		dot, names := ToDOT(req.Graph, opts)
		boxes, err := layoutDOT(ctx, dot)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeLayout, err, "graphviz layout %s", req.ID)
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p, err = placementFromBoxes(boxes, names)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeLayout, err, "read graphviz output")
		}
		e.Logger.Debug("graphviz placed members", "request", req.ID, "members", len(names))
	}

	res := assemble(req.Graph, p, opts)
	res.RequestID = req.ID
	res.Engine = e.Name()
	return res, nil
}

// ToDOT converts the members of g to a left-to-right DOT graph of
// fixed-size boxes. Members get generated names so arbitrary member ids
// never need escaping; the returned map resolves them back.
//
// Boundary connections are attached to invisible anchors ranked first and
// last, which pulls the members they feed to the matching side.
func ToDOT(g *model.Graph, opts Options) (string, map[string]string) {
	opts = withDefaults(opts)
	names := make(map[string]string, len(g.Root.Children))
	byID := make(map[string]string, len(g.Root.Children))

	var buf bytes.Buffer
	buf.WriteString("digraph flow {\n")
	fmt.Fprintf(&buf, "  graph [rankdir=LR, splines=ortho, nodesep=%s, ranksep=%s];\n",
		inches(opts.NodeSeparation), inches(opts.RankSeparation))
	buf.WriteString("  node [shape=box, fixedsize=true, label=\"\"];\n")
	buf.WriteString("\n")

	for i, c := range g.Root.Children {
		name := fmt.Sprintf("n%d", i)
		names[name] = c.ID
		byID[c.ID] = name
		fmt.Fprintf(&buf, "  %s [width=%s, height=%s];\n", name, inches(c.Width), inches(c.Height))
	}

	var in, out bool
	var edges bytes.Buffer
	for _, e := range g.Edges {
		s, sok := byID[e.Source]
		t, tok := byID[e.Target]
		switch {
		case sok && tok && s != t:
			fmt.Fprintf(&edges, "  %s -> %s;\n", s, t)
		case !sok && tok && e.Source == g.Root.ID:
			in = true
			fmt.Fprintf(&edges, "  %s -> %s;\n", sourceAnchor, t)
		case sok && !tok && e.Target == g.Root.ID:
			out = true
			fmt.Fprintf(&edges, "  %s -> %s;\n", s, sinkAnchor)
		}
	}
	if in {
		fmt.Fprintf(&buf, "  %s [width=0.01, height=0.01, style=invis];\n", sourceAnchor)
		fmt.Fprintf(&buf, "  { rank=source; %s; }\n", sourceAnchor)
	}
	if out {
		fmt.Fprintf(&buf, "  %s [width=0.01, height=0.01, style=invis];\n", sinkAnchor)
		fmt.Fprintf(&buf, "  { rank=sink; %s; }\n", sinkAnchor)
	}

	buf.WriteString("\n")
	buf.Write(edges.Bytes())
	buf.WriteString("}\n")
	return buf.String(), names
}

func inches(points float64) string {
	return fmt.Sprintf("%.4f", points/pointsPerInch)
}

// layoutDOT runs dot on the DOT source and reads the node boxes back
// from the attributed output.
func layoutDOT(ctx context.Context, dot string) (*DOTLayout, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.XDOT, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}

	laid, err := graphviz.ParseBytes(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("parse output: %w", err)
	}
	defer laid.Close()
	return readDOTLayout(laid)
}

// placementFromBoxes keeps the member boxes and moves them so the
// top-left-most corner sits at the origin of the member area.
func placementFromBoxes(l *DOTLayout, names map[string]string) (placement, error) {
	p := placement{pos: make(map[string]Point, len(names))}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for name := range names {
		b, ok := l.Nodes[name]
		if !ok {
			return p, fmt.Errorf("node %s missing from output", name)
		}
		minX, minY = math.Min(minX, b.X), math.Min(minY, b.Y)
		maxX, maxY = math.Max(maxX, b.X+b.Width), math.Max(maxY, b.Y+b.Height)
	}
	for name, id := range names {
		b := l.Nodes[name]
		p.pos[id] = Point{X: b.X - minX, Y: b.Y - minY}
	}
	if len(names) > 0 {
		p.area = Size{Width: maxX - minX, Height: maxY - minY}
	}
	return p, nil
}
