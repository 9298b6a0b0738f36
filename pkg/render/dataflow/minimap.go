package dataflow

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/matzehuels/flowview/pkg/layout"
	"github.com/matzehuels/flowview/pkg/transform"
)

// renderMinimap draws the node boxes fitted into a corner panel and a frame
// around the part of the diagram the main transform shows.
func (r *svgRenderer) renderMinimap(buf *bytes.Buffer, res *layout.Result, nodes []Node) {
	size := r.viewport.Scaled(r.minimapScale)
	bb := res.BoundingBox
	content := transform.Size{Width: bb.Width, Height: bb.Height}
	scale, _ := transform.AutoScale(size, content)
	off := transform.CenterOffset(size, content, scale)
	inner := transform.Transform{X: off.X - bb.X*scale, Y: off.Y - bb.Y*scale, Scale: scale}

	fmt.Fprintf(buf, `<g class="minimap" transform="translate(%s,%s)">`+"\n",
		num(r.viewport.Width-size.Width-padding), num(r.viewport.Height-size.Height-padding))
	fmt.Fprintf(buf, `  <rect class="background" width="%s" height="%s"/>`+"\n", num(size.Width), num(size.Height))
	fmt.Fprintf(buf, `  <g transform="%s">`+"\n", inner.String())
	for _, n := range nodes {
		fmt.Fprintf(buf, `    <rect class="%s" x="%s" y="%s" width="%s" height="%s"/>`+"\n",
			strings.Join(n.Classes, " "), num(n.X), num(n.Y), num(n.Width), num(n.Height))
	}
	f := VisibleRegion(r.current(), r.viewport)
	f.X += bb.X
	f.Y += bb.Y
	fmt.Fprintf(buf, `    <rect class="frame" x="%s" y="%s" width="%s" height="%s"/>`+"\n",
		num(f.X), num(f.Y), num(f.Width), num(f.Height))
	buf.WriteString("  </g>\n</g>\n")
}

func (r *svgRenderer) current() transform.Transform {
	if r.transform == nil {
		return transform.Identity()
	}
	return *r.transform
}

// VisibleRegion returns the diagram area that t shows in viewport.
func VisibleRegion(t transform.Transform, viewport transform.Size) layout.Rect {
	s := t.Scale
	if s <= 0 {
		s = transform.DefaultScale
	}
	return layout.Rect{
		X:      neg(t.X) / s,
		Y:      neg(t.Y) / s,
		Width:  viewport.Width / s,
		Height: viewport.Height / s,
	}
}
