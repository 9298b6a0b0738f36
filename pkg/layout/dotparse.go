package layout

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"
)

// DOTLayout is the geometry read back from attributed DOT output.
// Boxes are in points with their top-left corner as origin and y growing
// downwards.
type DOTLayout struct {
	BoundingBox Rect
	Nodes       map[string]Rect
}

// ParseDOTLayout reads the graph bounding box and the node boxes from
// Graphviz attributed DOT output. Graphviz reports positions in points
// with y growing upwards and sizes in inches; both are converted.
func ParseDOTLayout(data []byte) (*DOTLayout, error) {
	g, err := graphviz.ParseBytes(data)
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()
	return readDOTLayout(g)
}

// readDOTLayout walks the nodes of a laid out graph. Nodes without a
// position are skipped.
func readDOTLayout(g *graphviz.Graph) (*DOTLayout, error) {
	bb := g.GetStr("bb")
	if bb == "" {
		return nil, fmt.Errorf("no bounding box in output")
	}
	box, err := parseBB(bb)
	if err != nil {
		return nil, err
	}
	out := &DOTLayout{BoundingBox: box, Nodes: map[string]Rect{}}
	top := box.Y + box.Height

	n, err := g.FirstNode()
	for ; err == nil && n != nil; n, err = g.NextNode(n) {
		name, err := n.Name()
		if err != nil {
			return nil, fmt.Errorf("node name: %w", err)
		}
		pos := n.GetStr("pos")
		if pos == "" {
			continue
		}
		x, y, err := parsePoint(pos)
		if err != nil {
			return nil, fmt.Errorf("node %s: %w", name, err)
		}
		w, err := parseInches(n.GetStr("width"))
		if err != nil {
			return nil, fmt.Errorf("node %s width: %w", name, err)
		}
		h, err := parseInches(n.GetStr("height"))
		if err != nil {
			return nil, fmt.Errorf("node %s height: %w", name, err)
		}
		out.Nodes[name] = Rect{X: x - w/2, Y: top - y - h/2, Width: w, Height: h}
	}
	if err != nil {
		return nil, fmt.Errorf("walk nodes: %w", err)
	}
	return out, nil
}

// parseBB parses "llx,lly,urx,ury".
func parseBB(s string) (Rect, error) {
	f, err := floats(s, 4)
	if err != nil {
		return Rect{}, fmt.Errorf("bb: %w", err)
	}
	return Rect{X: f[0], Y: f[1], Width: f[2] - f[0], Height: f[3] - f[1]}, nil
}

// parsePoint parses "x,y" with an optional trailing "!".
func parsePoint(s string) (float64, float64, error) {
	f, err := floats(strings.TrimSuffix(s, "!"), 2)
	if err != nil {
		return 0, 0, fmt.Errorf("pos: %w", err)
	}
	return f[0], f[1], nil
}

func parseInches(s string) (float64, error) {
	if s == "" {
		return 0, fmt.Errorf("missing")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return v * pointsPerInch, nil
}

func floats(s string, n int) ([]float64, error) {
	parts := strings.Split(s, ",")
	if len(parts) != n {
		return nil, fmt.Errorf("want %d values in %q", n, s)
	}
	out := make([]float64, n)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
