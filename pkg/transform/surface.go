package transform

import (
	"math"

	"github.com/charmbracelet/log"
)

// Geometry reports the measured sizes of a surface. Sizes may change
// between calls, e.g. when the host resizes the viewport or a new layout
// replaces the content.
type Geometry interface {
	// Viewport is the size of the visible area.
	Viewport() Size
	// Content is the size of the diagram at scale 1.
	Content() Size
}

// StaticGeometry is a Geometry with fixed sizes.
type StaticGeometry struct {
	ViewportSize Size
	ContentSize  Size
}

func (g *StaticGeometry) Viewport() Size { return g.ViewportSize }
func (g *StaticGeometry) Content() Size  { return g.ContentSize }

// Listener receives the full transform after every change.
type Listener func(Transform)

// Surface is the transform state of one diagram view. It is not safe for
// concurrent use.
type Surface struct {
	name   string
	geom   Geometry
	state  Transform
	logger *log.Logger

	minScale, maxScale float64
	restricted         bool

	// reflected is not owned by this surface.
	reflected      *Surface
	reflectedScale float64

	initial *Point

	listeners []Listener
}

// SurfaceOption configures a Surface.
type SurfaceOption func(*Surface)

// WithLogger sets the logger used for degenerate-geometry warnings.
func WithLogger(l *log.Logger) SurfaceOption {
	return func(s *Surface) { s.logger = l }
}

// WithScaleExtent limits interactive zooming to [lo, hi].
func WithScaleExtent(lo, hi float64) SurfaceOption {
	return func(s *Surface) { s.minScale, s.maxScale = lo, hi }
}

// WithRestrictedDragging keeps the content inside the viewport while
// dragging.
func WithRestrictedDragging() SurfaceOption {
	return func(s *Surface) { s.restricted = true }
}

// NewSurface creates a surface at the identity transform.
func NewSurface(name string, geom Geometry, opts ...SurfaceOption) *Surface {
	s := &Surface{
		name:     name,
		geom:     geom,
		state:    Identity(),
		minScale: 0,
		maxScale: math.Inf(1),
		logger:   log.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the surface name given at construction.
func (s *Surface) Name() string { return s.name }

// Transform returns the current transform.
func (s *Surface) Transform() Transform { return s.state }

// Geometry returns the surface geometry.
func (s *Surface) Geometry() Geometry { return s.geom }

// Subscribe registers fn for transform changes. The returned function
// removes the subscription.
func (s *Surface) Subscribe(fn Listener) func() {
	s.listeners = append(s.listeners, fn)
	idx := len(s.listeners) - 1
	return func() {
		if idx < len(s.listeners) {
			s.listeners[idx] = nil
		}
	}
}

// SetScaleExtent limits interactive zooming to [lo, hi].
func (s *Surface) SetScaleExtent(lo, hi float64) {
	s.minScale, s.maxScale = lo, hi
}

// ScaleExtent returns the interactive zoom limits.
func (s *Surface) ScaleExtent() (lo, hi float64) { return s.minScale, s.maxScale }

// SetRestrictedDragging toggles restricted dragging.
func (s *Surface) SetRestrictedDragging(on bool) { s.restricted = on }

// RestrictedDragging reports whether restricted dragging is on.
func (s *Surface) RestrictedDragging() bool { return s.restricted }

// SetReflected binds target so that interactive zooming on s drives it.
// A non-positive reflectedScale counts as DefaultScale. Passing nil
// removes the binding.
func (s *Surface) SetReflected(target *Surface, reflectedScale float64) {
	if reflectedScale <= 0 {
		reflectedScale = DefaultScale
	}
	s.reflected = target
	s.reflectedScale = reflectedScale
}

// Reflected returns the bound surface and its reflected scale.
func (s *Surface) Reflected() (*Surface, float64) { return s.reflected, s.reflectedScale }

// SetInitialPosition stores the initial position snapshot.
func (s *Surface) SetInitialPosition(p Point) { s.initial = &p }

// InitialPosition returns the initial position snapshot, if any.
func (s *Surface) InitialPosition() (Point, bool) {
	if s.initial == nil {
		return Point{}, false
	}
	return *s.initial, true
}

// SnapshotInitialPosition stores the centered position of the content at
// DefaultScale as the initial position and returns it.
func (s *Surface) SnapshotInitialPosition() Point {
	p := s.CenterCoordinates(DefaultScale)
	s.SetInitialPosition(p)
	return p
}

// AutoScale returns the scale at which the content fits the viewport. It
// logs a warning and returns DefaultScale for degenerate geometry.
func (s *Surface) AutoScale() float64 {
	scale, err := AutoScale(s.geom.Viewport(), s.geom.Content())
	if err != nil {
		s.logger.Warn("dimensions of the diagram could not be calculated, the surface must be attached to a visible layout",
			"surface", s.name, "err", err)
	}
	return scale
}

// CenterCoordinates returns the translation that centers the content at
// scale.
func (s *Surface) CenterCoordinates(scale float64) Point {
	return CenterOffset(s.geom.Viewport(), s.geom.Content(), scale)
}

// Center translates the content to the center of the viewport at scale.
// It does nothing while the viewport has no positive size.
func (s *Surface) Center(scale float64) {
	if !s.geom.Viewport().Positive() {
		return
	}
	p := s.CenterCoordinates(scale)
	s.Apply(Translate(p.X, p.Y))
}

// AutoFitAndCenter fits the content into the viewport and centers it.
func (s *Surface) AutoFitAndCenter() {
	scale := s.AutoScale()
	p := s.CenterCoordinates(scale)
	s.Apply(Full(Transform{X: p.X, Y: p.Y, Scale: scale}))
}

// ApplyScale sets the scale without recentring.
func (s *Surface) ApplyScale(scale float64) {
	s.Apply(ScaleTo(scale))
}

// Apply merges u into the current transform and publishes the result. It
// does not drive the reflected surface.
func (s *Surface) Apply(u Update) {
	s.set(s.state.Merge(u))
}

// Zoom handles an interactive zoom or pan gesture. The scale is clamped to
// the scale extent, the translation is clamped when dragging is
// restricted, and the resulting transform is reflected one hop onto the
// bound surface.
func (s *Surface) Zoom(x, y, scale float64) Transform {
	scale = ClampScale(scale, s.minScale, s.maxScale)
	if s.restricted {
		p := ClampDrag(Point{X: x, Y: y}, s.geom.Viewport(), s.geom.Content(), scale)
		x, y = p.X, p.Y
	}
	t := Transform{X: x, Y: y, Scale: scale}
	s.set(t)

	if s.reflected != nil && scale != 0 {
		s.reflected.set(Reflect(t, s.reflectedScale, s.reflected.initial))
	}
	return t
}

// Pan translates by (dx, dy) at the current scale through Zoom.
func (s *Surface) Pan(dx, dy float64) Transform {
	return s.Zoom(s.state.X+dx, s.state.Y+dy, s.state.Scale)
}

// ZoomBy multiplies the scale by factor around the viewport center through
// Zoom.
func (s *Surface) ZoomBy(factor float64) Transform {
	vp := s.geom.Viewport()
	cx, cy := vp.Width/2, vp.Height/2
	scale := ClampScale(s.state.Scale*factor, s.minScale, s.maxScale)
	if s.state.Scale == 0 {
		return s.Zoom(s.state.X, s.state.Y, scale)
	}
	k := scale / s.state.Scale
	return s.Zoom(cx-(cx-s.state.X)*k, cy-(cy-s.state.Y)*k, scale)
}

func (s *Surface) set(t Transform) {
	s.state = t
	for _, fn := range s.listeners {
		if fn != nil {
			fn(t)
		}
	}
}
