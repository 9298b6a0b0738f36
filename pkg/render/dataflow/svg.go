package dataflow

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"

	"github.com/matzehuels/flowview/pkg/connectivity"
	"github.com/matzehuels/flowview/pkg/layout"
	"github.com/matzehuels/flowview/pkg/model"
	"github.com/matzehuels/flowview/pkg/transform"
)

const (
	// DefaultLabelMargin is the gap between the root slot column and
	// connection labels.
	DefaultLabelMargin = 10

	infoGlyph   = "ⓘ"
	padding     = 10
	labelGap    = 4
	titleHeight = 24
)

// Text is a positioned piece of text. Font is a CSS font shorthand.
type Text struct {
	Text   string
	X, Y   float64
	Font   string
	Class  string
	Anchor string
}

// Node is a component box ready to draw. Coordinates are absolute.
type Node struct {
	DOMID        string
	MemberID     string
	X, Y         float64
	Width        float64
	Height       float64
	HeaderHeight float64
	Labels       []Text // relative to the node
	Classes      []string
}

// Port is a slot ready to draw. Coordinates are absolute.
type Port struct {
	DOMID     string
	CX, CY, R float64
	Label     Text
	Tooltip   string
	Classes   []string
}

// Edge is a connection ready to draw.
type Edge struct {
	DOMID   string
	Source  string
	Target  string
	Path    string
	Label   *Text
	Tooltip string
	Classes []string
}

// SVGOption configures [RenderSVG] and [RenderJSON].
type SVGOption func(*svgRenderer)

type svgRenderer struct {
	style            Style
	transform        *transform.Transform
	viewport         transform.Size
	highlight        connectivity.State
	highlightedEdges map[string]bool
	hideDisconnected bool
	labelMargin      float64
	title            string
	minimapScale     float64
}

// WithTransform places the diagram with t inside the viewport.
func WithTransform(t transform.Transform) SVGOption {
	return func(r *svgRenderer) { r.transform = &t }
}

// WithViewport fixes the SVG size. Without it the SVG is sized to the
// diagram.
func WithViewport(width, height float64) SVGOption {
	return func(r *svgRenderer) { r.viewport = transform.Size{Width: width, Height: height} }
}

// WithHighlight marks members and connections from a connectivity state.
func WithHighlight(s connectivity.State) SVGOption {
	return func(r *svgRenderer) { r.highlight = s }
}

// WithHighlightedEdges marks connections as highlighted.
func WithHighlightedEdges(ids ...string) SVGOption {
	return func(r *svgRenderer) {
		if r.highlightedEdges == nil {
			r.highlightedEdges = map[string]bool{}
		}
		for _, id := range ids {
			r.highlightedEdges[id] = true
		}
	}
}

// WithHiddenDisconnected leaves out slots no connection is attached to.
func WithHiddenDisconnected(hide bool) SVGOption {
	return func(r *svgRenderer) { r.hideDisconnected = hide }
}

// WithEdgeLabelOffset sets the margin added to connection label x.
func WithEdgeLabelOffset(margin float64) SVGOption {
	return func(r *svgRenderer) { r.labelMargin = margin }
}

// WithTitle draws a title in the top-left corner.
func WithTitle(title string) SVGOption {
	return func(r *svgRenderer) { r.title = title }
}

// WithStyle selects the drawing style.
func WithStyle(s Style) SVGOption {
	return func(r *svgRenderer) { r.style = s }
}

// WithMinimap draws an overview in the bottom-right corner of the
// viewport, scale times its size, with a frame around the visible part.
// It needs [WithViewport].
func WithMinimap(scale float64) SVGOption {
	return func(r *svgRenderer) { r.minimapScale = scale }
}

func newSVGRenderer(opts ...SVGOption) svgRenderer {
	r := svgRenderer{style: Simple{}, labelMargin: DefaultLabelMargin}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

// RenderSVG renders res as SVG markup.
func RenderSVG(res *layout.Result, opts ...SVGOption) []byte {
	r := newSVGRenderer(opts...)
	nodes, ports, edges := r.build(res)

	var buf bytes.Buffer
	bb := res.BoundingBox
	if r.viewport.Positive() {
		fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" class="dataflow-view" viewBox="0 0 %s %s" width="%s" height="%s">`+"\n",
			num(r.viewport.Width), num(r.viewport.Height), num(r.viewport.Width), num(r.viewport.Height))
	} else {
		top := float64(padding)
		if r.title != "" {
			top += titleHeight
		}
		w, h := bb.Width+2*padding, bb.Height+padding+top
		fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" class="dataflow-view" viewBox="%s %s %s %s" width="%s" height="%s">`+"\n",
			num(bb.X-padding), num(bb.Y-top), num(w), num(h), num(w), num(h))
	}

	buf.WriteString("<defs>\n")
	r.style.RenderDefs(&buf)
	buf.WriteString("</defs>\n")

	if r.title != "" {
		x, y := float64(padding), float64(padding+16)
		if !r.viewport.Positive() {
			x, y = bb.X, bb.Y-padding
		}
		writeText(&buf, "", Text{Text: r.title, X: x, Y: y, Class: "diagram-title"})
	}

	if r.transform != nil {
		fmt.Fprintf(&buf, `<g class="diagram" transform="%s">`+"\n", r.transform.String())
	} else {
		buf.WriteString(`<g class="diagram">` + "\n")
	}
	// In a viewport the transform addresses the bounding box, not the
	// root origin.
	shifted := r.viewport.Positive() && (bb.X != 0 || bb.Y != 0)
	if shifted {
		fmt.Fprintf(&buf, `<g class="content" transform="translate(%s,%s)">`+"\n", num(neg(bb.X)), num(neg(bb.Y)))
	}
	for _, n := range nodes {
		r.style.RenderNode(&buf, n)
	}
	for _, p := range ports {
		r.style.RenderPort(&buf, p)
	}
	for _, e := range edges {
		r.style.RenderEdge(&buf, e)
	}
	if shifted {
		buf.WriteString("</g>\n")
	}
	buf.WriteString("</g>\n")

	if r.minimapScale > 0 && r.viewport.Positive() {
		r.renderMinimap(&buf, res, nodes)
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func (r *svgRenderer) build(res *layout.Result) ([]Node, []Port, []Edge) {
	var nodes []Node
	var ports []Port
	for _, pn := range res.Nodes() {
		isRoot := pn.ID == res.Root.ID
		nodes = append(nodes, r.node(pn, isRoot))
		for _, pp := range pn.Ports {
			if r.hideDisconnected && !pp.Connected {
				continue
			}
			ports = append(ports, r.port(pp, isRoot))
		}
	}
	var edges []Edge
	for _, e := range res.Edges {
		edges = append(edges, r.edge(e, res.MaxRootSlotWidth))
	}
	return nodes, ports, edges
}

func (r *svgRenderer) node(n *layout.PositionedNode, isRoot bool) Node {
	out := Node{
		DOMID:        "node-" + n.ID,
		MemberID:     n.MemberID,
		X:            n.X,
		Y:            n.Y,
		Width:        n.Width,
		Height:       n.Height,
		HeaderHeight: n.HeaderHeight,
		Classes:      []string{"dataflow-node"},
	}
	if isRoot {
		out.Classes = append(out.Classes, "root")
	} else {
		out.Classes = append(out.Classes, "member")
		switch {
		case r.highlight.IsHighlighted(n.ID):
			out.Classes = append(out.Classes, "highlighted")
		case r.highlight.IsGrayed(n.ID):
			out.Classes = append(out.Classes, "grayed")
		}
	}
	if n.Placeholder {
		out.Classes = append(out.Classes, "placeholder")
	}

	var total float64
	for _, l := range n.Labels {
		total += l.Height
	}
	y := (n.HeaderHeight - total) / 2
	for _, l := range n.Labels {
		y += l.Height
		if l.Text == "" {
			continue
		}
		out.Labels = append(out.Labels, Text{
			Text:   l.Text,
			X:      n.Width / 2,
			Y:      y,
			Font:   l.Font.Descriptor(),
			Class:  l.Class,
			Anchor: "middle",
		})
	}
	return out
}

func (r *svgRenderer) port(p layout.PositionedPort, isRoot bool) Port {
	out := Port{
		DOMID:   "slot-" + p.ID,
		CX:      p.Center.X,
		CY:      p.Center.Y,
		R:       p.Width / 2,
		Tooltip: tooltipText(p.Tooltip),
		Classes: []string{"dataflow-slot", string(p.Direction)},
	}
	if !p.Connected {
		out.Classes = append(out.Classes, "disconnected")
	}
	if len(p.Labels) == 0 {
		return out
	}
	l := p.Labels[0]
	t := Text{Text: l.Text, Y: p.Center.Y + l.Height/3, Font: l.Font.Descriptor()}
	// Root slots are labelled outside the box, member slots inside.
	outward := isRoot
	switch {
	case outward && p.Side == model.West, !outward && p.Side == model.East:
		t.X = p.Center.X - out.R - labelGap
		t.Anchor = "end"
	default:
		t.X = p.Center.X + out.R + labelGap
	}
	out.Label = t
	return out
}

func (r *svgRenderer) edge(e layout.RoutedEdge, maxRootSlotWidth float64) Edge {
	out := Edge{
		DOMID:   "connection-" + e.ID,
		Source:  e.Source,
		Target:  e.Target,
		Path:    EdgePath(e),
		Tooltip: tooltipText(e.Tooltip),
		Classes: []string{"dataflow-edge"},
	}
	if e.Highlighted || r.highlightedEdges[e.ID] {
		out.Classes = append(out.Classes, "highlighted")
	}
	if r.highlight.IsEdgeGrayed(e.ID) {
		out.Classes = append(out.Classes, "grayed")
	}
	if len(e.Labels) > 0 {
		l := e.Labels[0]
		t := Text{
			Text:  l.Text,
			X:     l.X + maxRootSlotWidth + r.labelMargin,
			Y:     l.Y + 2.5*l.Height,
			Font:  l.Font.Descriptor(),
			Class: "edge-label",
		}
		if out.Tooltip != "" {
			t.Text += " " + infoGlyph
			t.Class += " has-tooltip"
		}
		out.Label = &t
	}
	return out
}

// EdgePath builds the path data of a routed connection. The path starts
// at the right rim of the source slot, runs through every bend point and
// ends at the left rim of the target slot.
func EdgePath(e layout.RoutedEdge) string {
	var b strings.Builder
	fmt.Fprintf(&b, "M%s,%s", num(e.SourcePoint.X+e.SourceRadius), num(e.SourcePoint.Y))
	for _, p := range e.BendPoints {
		fmt.Fprintf(&b, " L%s,%s", num(p.X), num(p.Y))
	}
	fmt.Fprintf(&b, " L%s,%s", num(e.TargetPoint.X-e.TargetRadius), num(e.TargetPoint.Y))
	return b.String()
}

func tooltipText(t model.Tooltip) string {
	lines := make([]string, len(t))
	for i, f := range t {
		lines[i] = f.Name + ": " + f.Value
	}
	return strings.Join(lines, "\n")
}

// EscapeXML escapes s for use in SVG text and attribute values.
func EscapeXML(s string) string {
	var buf bytes.Buffer
	xml.EscapeText(&buf, []byte(s))
	return buf.String()
}

// neg negates v without producing negative zero.
func neg(v float64) float64 {
	if v == 0 {
		return 0
	}
	return -v
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
