package transform

import (
	"math"
	"strconv"

	"github.com/matzehuels/flowview/pkg/errors"
)

// DefaultScale is the scale of an untouched surface and the fallback for
// degenerate geometry.
const DefaultScale = 1.0

// Point is a position in surface coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Size is a width and height.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Positive reports whether both dimensions are greater than zero.
func (s Size) Positive() bool { return s.Width > 0 && s.Height > 0 }

// Scaled returns s multiplied by f.
func (s Size) Scaled(f float64) Size { return Size{Width: s.Width * f, Height: s.Height * f} }

// Transform is a translation followed by a uniform scale.
type Transform struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Scale float64 `json:"scale"`
}

// Identity returns the untouched transform.
func Identity() Transform { return Transform{Scale: DefaultScale} }

// Translation returns the translation part of t.
func (t Transform) Translation() Point { return Point{X: t.X, Y: t.Y} }

// String formats t as an SVG transform attribute value.
func (t Transform) String() string {
	return "translate(" + formatNumber(t.X) + "," + formatNumber(t.Y) + ") scale(" + formatNumber(t.Scale) + ")"
}

// Update is a partial transform. Nil fields keep their current value.
type Update struct {
	X     *float64
	Y     *float64
	Scale *float64
}

// Translate returns an update that sets the translation only.
func Translate(x, y float64) Update { return Update{X: &x, Y: &y} }

// ScaleTo returns an update that sets the scale only.
func ScaleTo(s float64) Update { return Update{Scale: &s} }

// Full returns an update that sets every field of t.
func Full(t Transform) Update { return Update{X: &t.X, Y: &t.Y, Scale: &t.Scale} }

// Merge returns t with the fields set in u replaced.
func (t Transform) Merge(u Update) Transform {
	if u.X != nil {
		t.X = *u.X
	}
	if u.Y != nil {
		t.Y = *u.Y
	}
	if u.Scale != nil {
		t.Scale = *u.Scale
	}
	return t
}

// AutoScale returns min(viewport.W/content.W, viewport.H/content.H).
// When the ratio is not a finite positive number, AutoScale returns
// DefaultScale and a DEGENERATE_GEOMETRY error.
func AutoScale(viewport, content Size) (float64, error) {
	scale := math.Min(viewport.Width/content.Width, viewport.Height/content.Height)
	if math.IsNaN(scale) || math.IsInf(scale, 0) || scale <= 0 {
		return DefaultScale, errors.DegenerateGeometry(
			"cannot fit content %vx%v into viewport %vx%v",
			content.Width, content.Height, viewport.Width, viewport.Height)
	}
	return scale, nil
}

// CenterOffset returns the translation that centers content drawn at scale
// inside viewport. A non-positive scale counts as DefaultScale.
func CenterOffset(viewport, content Size, scale float64) Point {
	if scale <= 0 {
		scale = DefaultScale
	}
	return Point{
		X: math.Abs(viewport.Width-content.Width*scale) / 2,
		Y: math.Abs(viewport.Height-content.Height*scale) / 2,
	}
}

// Reflect derives the transform of a bound surface from the primary
// transform. initial is the bound surface's initial position, or nil when
// it has none.
func Reflect(primary Transform, reflectedScale float64, initial *Point) Transform {
	s := primary.Scale
	out := Transform{
		X:     -primary.X / (reflectedScale * s),
		Y:     -primary.Y / (reflectedScale * s),
		Scale: 1 / s,
	}
	if initial != nil {
		out.X += initial.X / s
		out.Y += initial.Y / s
	}
	return out
}

// ClampDrag limits the translation p so that content drawn at scale stays
// inside viewport. When the content is larger than the viewport the
// translation is pinned to 0.
func ClampDrag(p Point, viewport, content Size, scale float64) Point {
	maxX := viewport.Width - content.Width*scale
	maxY := viewport.Height - content.Height*scale
	return Point{
		X: math.Max(0, math.Min(p.X, maxX)),
		Y: math.Max(0, math.Min(p.Y, maxY)),
	}
}

// ClampScale limits s to [lo, hi].
func ClampScale(s, lo, hi float64) float64 {
	return math.Max(lo, math.Min(s, hi))
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
