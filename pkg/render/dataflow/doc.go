// Package dataflow renders positioned component diagrams.
//
// [RenderSVG] turns a [layout.Result] into standalone SVG markup: the root
// component box with its boundary slots, the member boxes with their
// slots, and the connections as orthogonal arrows. View state is passed
// with options:
//
//	svg := dataflow.RenderSVG(res,
//	    dataflow.WithViewport(800, 600),
//	    dataflow.WithTransform(surface.Transform()),
//	    dataflow.WithHighlight(connectivity.Highlight("fmt", members, conns, rootID)),
//	    dataflow.WithHiddenDisconnected(true),
//	)
//
// Highlighting only adds classes (highlighted, grayed) to nodes and
// edges; their look comes from the [Style] CSS, which [render.Export]
// embeds when the markup is saved.
//
// [RenderJSON] writes the same view as a JSON document for front-ends
// that draw the diagram themselves.
//
// [layout.Result]: github.com/matzehuels/flowview/pkg/layout.Result
// [render.Export]: github.com/matzehuels/flowview/pkg/render.Export
package dataflow
