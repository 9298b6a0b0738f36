// Package render holds output helpers shared by the diagram renderers.
//
// # Export
//
// [Export] turns rendered SVG markup into a standalone document: it embeds
// the stylesheet, makes sure the SVG and XLink namespaces are declared and
// prepends an XML declaration, so the file opens the same way outside the
// viewer.
//
//	svg := dataflow.RenderSVG(res, opts...)
//	doc := render.Export(svg, dataflow.DefaultCSS)
//
// # Format Conversion
//
// [ToPDF] and [ToPNG] convert SVG with the external rsvg-convert tool
// (from librsvg).
//
//	pdf, err := render.ToPDF(ctx, doc)
//	png, err := render.ToPNG(ctx, doc, 2.0) // 2x scale
//
// The diagram renderer lives in the [dataflow] subpackage.
//
// [dataflow]: github.com/matzehuels/flowview/pkg/render/dataflow
package render
