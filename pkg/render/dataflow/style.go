package dataflow

import (
	"bytes"
	"fmt"
	"strings"
)

// Style controls how diagram elements are drawn.
type Style interface {
	// RenderDefs writes <defs> content such as markers.
	RenderDefs(buf *bytes.Buffer)
	// RenderNode writes a component box with its header labels.
	RenderNode(buf *bytes.Buffer, n Node)
	// RenderPort writes one slot of a node.
	RenderPort(buf *bytes.Buffer, p Port)
	// RenderEdge writes one connection.
	RenderEdge(buf *bytes.Buffer, e Edge)
	// CSS returns the stylesheet embedded on export.
	CSS() string
}

const arrowMarkerID = "dataflow-arrow"

// DefaultCSS is the stylesheet of the [Simple] style.
const DefaultCSS = `
.dataflow-node > rect { fill: #ffffff; stroke: #5b6770; stroke-width: 1; }
.dataflow-node.root > rect { fill: #f4f6f7; stroke-dasharray: 4 2; }
.dataflow-node.placeholder > rect { stroke: #c0392b; stroke-dasharray: 2 2; }
.dataflow-node .header { fill: #e8ecef; stroke: none; }
.dataflow-node text { fill: #1f2a30; }
.dataflow-node .member-id { font-weight: bold; }
.dataflow-slot circle { fill: #ffffff; stroke: #5b6770; }
.dataflow-slot.input circle { fill: #d9ecf7; }
.dataflow-slot.output circle { fill: #f7e6d9; }
.dataflow-edge path { fill: none; stroke: #5b6770; stroke-width: 1.2; }
.dataflow-edge .edge-label { fill: #5b6770; }
.dataflow-edge .edge-label.has-tooltip { font-weight: bold; }
.dataflow-edge.highlighted path { stroke: #e67e22; stroke-width: 2.5; }
.dataflow-node.highlighted > rect { stroke: #e67e22; stroke-width: 2.5; }
.grayed { opacity: 0.25; }
.minimap > rect.background { fill: #ffffff; stroke: #5b6770; opacity: 0.9; }
.minimap .frame { fill: none; stroke: #e67e22; stroke-width: 1.5; }
.diagram-title { font: bold 16px sans-serif; fill: #1f2a30; }
`

// Simple draws flat boxes and thin orthogonal arrows.
type Simple struct{}

func (Simple) CSS() string { return DefaultCSS }

func (Simple) RenderDefs(buf *bytes.Buffer) {
	fmt.Fprintf(buf, `  <marker id="%s" viewBox="0 -5 10 10" refX="10" refY="0" markerWidth="6" markerHeight="6" orient="auto">`, arrowMarkerID)
	buf.WriteString(`<path d="M0,-5L10,0L0,5"/></marker>` + "\n")
}

func (Simple) RenderNode(buf *bytes.Buffer, n Node) {
	fmt.Fprintf(buf, `  <g id="%s" class="%s"`, EscapeXML(n.DOMID), strings.Join(n.Classes, " "))
	if n.MemberID != "" {
		fmt.Fprintf(buf, ` data-member-id="%s"`, EscapeXML(n.MemberID))
	}
	fmt.Fprintf(buf, ` transform="translate(%s,%s)">`+"\n", num(n.X), num(n.Y))
	fmt.Fprintf(buf, `    <rect width="%s" height="%s"/>`+"\n", num(n.Width), num(n.Height))
	if n.HeaderHeight > 0 {
		fmt.Fprintf(buf, `    <rect class="header" width="%s" height="%s"/>`+"\n", num(n.Width), num(n.HeaderHeight))
	}
	for _, t := range n.Labels {
		writeText(buf, "    ", t)
	}
	buf.WriteString("  </g>\n")
}

func (Simple) RenderPort(buf *bytes.Buffer, p Port) {
	fmt.Fprintf(buf, `  <g id="%s" class="%s">`, EscapeXML(p.DOMID), strings.Join(p.Classes, " "))
	fmt.Fprintf(buf, `<circle cx="%s" cy="%s" r="%s"/>`, num(p.CX), num(p.CY), num(p.R))
	if p.Tooltip != "" {
		fmt.Fprintf(buf, `<title>%s</title>`, EscapeXML(p.Tooltip))
	}
	buf.WriteString("\n")
	writeText(buf, "    ", p.Label)
	buf.WriteString("  </g>\n")
}

func (Simple) RenderEdge(buf *bytes.Buffer, e Edge) {
	fmt.Fprintf(buf, `  <g id="%s" class="%s" data-source="%s" data-destination="%s">`,
		EscapeXML(e.DOMID), strings.Join(e.Classes, " "), EscapeXML(e.Source), EscapeXML(e.Target))
	fmt.Fprintf(buf, `<path d="%s" marker-end="url(#%s)"/>`, e.Path, arrowMarkerID)
	if e.Tooltip != "" {
		fmt.Fprintf(buf, `<title>%s</title>`, EscapeXML(e.Tooltip))
	}
	buf.WriteString("\n")
	if e.Label != nil {
		writeText(buf, "    ", *e.Label)
	}
	buf.WriteString("  </g>\n")
}

func writeText(buf *bytes.Buffer, indent string, t Text) {
	if t.Text == "" {
		return
	}
	fmt.Fprintf(buf, `%s<text x="%s" y="%s"`, indent, num(t.X), num(t.Y))
	if t.Class != "" {
		fmt.Fprintf(buf, ` class="%s"`, t.Class)
	}
	if t.Anchor != "" {
		fmt.Fprintf(buf, ` text-anchor="%s"`, t.Anchor)
	}
	if t.Font != "" {
		fmt.Fprintf(buf, ` style="font: %s"`, EscapeXML(t.Font))
	}
	fmt.Fprintf(buf, ">%s</text>\n", EscapeXML(t.Text))
}
