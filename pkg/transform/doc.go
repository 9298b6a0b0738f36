// Package transform holds the zoom and pan math of a diagram surface.
//
// A surface shows content (the positioned diagram) inside a viewport. Its
// state is a [Transform]: a translation followed by a uniform scale, the
// same pair an SVG renderer writes as "translate(x,y) scale(s)". Every
// change publishes the full transform to the surface's listeners; there are
// no incremental deltas.
//
// # Fit and center
//
// [AutoScale] picks the largest scale at which the content fits the
// viewport and [CenterOffset] the translation that centers it.
// [Surface.AutoFitAndCenter] applies both in one step. A zero-sized
// viewport or content box makes the scale undefined; AutoScale then
// reports DEGENERATE_GEOMETRY and returns the default scale 1.
//
// # Minimap reflection
//
// Two surfaces can be bound so that interactive zooming on one drives the
// other. For a primary transform (x, y, s) the bound surface receives
//
//	x' = -x / (reflectedScale * s) + initial.x / s
//	y' = -y / (reflectedScale * s) + initial.y / s
//	s' = 1 / s
//
// where initial is the bound surface's initial position snapshot. Bound
// the main diagram to the navigator frame with reflectedScale 1/m and the
// navigator back to the main diagram with m, where m is the minimap scale:
// zooming into the main diagram shrinks the frame, dragging the frame pans
// the diagram. Only [Surface.Zoom] propagates, and only one hop, so the two
// bindings never feed back into each other.
//
// # Restricted dragging
//
// A surface with restricted dragging clamps translations to
// [0, viewport - content*scale] on each axis so the content never leaves the
// viewport. The minimap navigator uses it; the main diagram does not.
package transform
