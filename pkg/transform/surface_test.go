package transform

import (
	"bytes"
	"io"
	"math"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func quietLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}

func newTestSurface(vp, content Size, opts ...SurfaceOption) *Surface {
	opts = append([]SurfaceOption{WithLogger(quietLogger())}, opts...)
	return NewSurface("test", &StaticGeometry{ViewportSize: vp, ContentSize: content}, opts...)
}

func TestSurfaceAutoFitAndCenter(t *testing.T) {
	s := newTestSurface(Size{800, 600}, Size{400, 300})

	var published []Transform
	s.Subscribe(func(tr Transform) { published = append(published, tr) })

	s.AutoFitAndCenter()

	want := Transform{X: 0, Y: 0, Scale: 2}
	if got := s.Transform(); got != want {
		t.Errorf("Transform() = %+v, want %+v", got, want)
	}
	if len(published) != 1 || published[0] != want {
		t.Errorf("published = %+v, want one full transform", published)
	}
}

func TestSurfaceDegenerateGeometry(t *testing.T) {
	var buf bytes.Buffer
	logger := log.NewWithOptions(&buf, log.Options{Level: log.WarnLevel})
	s := NewSurface("main", &StaticGeometry{ViewportSize: Size{800, 600}}, WithLogger(logger))

	if got := s.AutoScale(); got != 1 {
		t.Errorf("AutoScale() = %v, want 1", got)
	}
	if !strings.Contains(buf.String(), "dimensions of the diagram could not be calculated") {
		t.Errorf("expected a warning, got %q", buf.String())
	}

	s.AutoFitAndCenter()
	if got := s.Transform().Scale; got != 1 || math.IsNaN(got) {
		t.Errorf("Scale = %v, want 1", got)
	}
}

func TestSurfaceCenterGuard(t *testing.T) {
	s := newTestSurface(Size{0, 0}, Size{400, 300})
	calls := 0
	s.Subscribe(func(Transform) { calls++ })

	s.Center(1)
	if calls != 0 {
		t.Errorf("Center() on zero viewport published %d times, want 0", calls)
	}
	if s.Transform() != Identity() {
		t.Errorf("Transform() = %+v, want identity", s.Transform())
	}

	s = newTestSurface(Size{800, 600}, Size{400, 300})
	s.Center(1)
	if got := s.Transform(); got != (Transform{X: 200, Y: 150, Scale: 1}) {
		t.Errorf("Center(1) = %+v", got)
	}
}

func TestSurfaceApplyScaleKeepsTranslation(t *testing.T) {
	s := newTestSurface(Size{800, 600}, Size{400, 300})
	s.Apply(Translate(30, 40))
	s.ApplyScale(1.5)

	if got := s.Transform(); got != (Transform{X: 30, Y: 40, Scale: 1.5}) {
		t.Errorf("Transform() = %+v", got)
	}
}

func TestSurfaceZoomScaleExtent(t *testing.T) {
	s := newTestSurface(Size{800, 600}, Size{400, 300}, WithScaleExtent(0.5, 4))

	if got := s.Zoom(0, 0, 10); got.Scale != 4 {
		t.Errorf("Zoom(scale=10).Scale = %v, want 4", got.Scale)
	}
	if got := s.Zoom(0, 0, 0.1); got.Scale != 0.5 {
		t.Errorf("Zoom(scale=0.1).Scale = %v, want 0.5", got.Scale)
	}

	s.SetScaleExtent(1, math.Inf(1))
	if got := s.Zoom(0, 0, 1e6); got.Scale != 1e6 {
		t.Errorf("Zoom(scale=1e6).Scale = %v, want 1e6", got.Scale)
	}
}

func TestSurfaceRestrictedDragging(t *testing.T) {
	frame := Size{240, 180}
	s := newTestSurface(frame, frame, WithRestrictedDragging(), WithScaleExtent(0, 1))

	got := s.Zoom(500, -20, 0.5)
	if got != (Transform{X: 120, Y: 0, Scale: 0.5}) {
		t.Errorf("Zoom() = %+v, want clamped to {120 0 0.5}", got)
	}

	// Unrestricted surfaces keep any translation.
	free := newTestSurface(frame, frame)
	if got := free.Zoom(500, -20, 0.5); got.X != 500 || got.Y != -20 {
		t.Errorf("unrestricted Zoom() = %+v", got)
	}
}

func TestSurfaceReflection(t *testing.T) {
	const minimapScale = 0.3

	main := newTestSurface(Size{800, 600}, Size{400, 300})
	nav := newTestSurface(Size{240, 180}, Size{240, 180}, WithRestrictedDragging(), WithScaleExtent(0, 1))

	main.SetReflected(nav, 1/minimapScale)
	nav.SetReflected(main, minimapScale)
	main.SetInitialPosition(Point{X: 10, Y: 5})

	var mainCalls, navCalls int
	main.Subscribe(func(Transform) { mainCalls++ })
	nav.Subscribe(func(Transform) { navCalls++ })

	main.Zoom(100, 50, 2)

	if mainCalls != 1 || navCalls != 1 {
		t.Fatalf("calls main=%d nav=%d, want 1 and 1", mainCalls, navCalls)
	}
	want := Reflect(Transform{X: 100, Y: 50, Scale: 2}, 1/minimapScale, nil)
	if got := nav.Transform(); !near(got.X, want.X) || !near(got.Y, want.Y) || !near(got.Scale, 0.5) {
		t.Errorf("nav transform = %+v, want %+v", got, want)
	}

	// Dragging the navigator drives the main diagram using main's
	// initial position, and does not bounce back to the navigator.
	nav.Zoom(20, 10, 0.5)
	if mainCalls != 2 || navCalls != 2 {
		t.Fatalf("calls main=%d nav=%d, want 2 and 2", mainCalls, navCalls)
	}
	wantMain := Reflect(Transform{X: 20, Y: 10, Scale: 0.5}, minimapScale, &Point{X: 10, Y: 5})
	if got := main.Transform(); !near(got.X, wantMain.X) || !near(got.Y, wantMain.Y) || !near(got.Scale, 2) {
		t.Errorf("main transform = %+v, want %+v", got, wantMain)
	}
	if got := nav.Transform(); got != (Transform{X: 20, Y: 10, Scale: 0.5}) {
		t.Errorf("nav transform = %+v, want unchanged by reflection", got)
	}
}

func TestSurfaceProgrammaticDoesNotReflect(t *testing.T) {
	main := newTestSurface(Size{800, 600}, Size{400, 300})
	nav := newTestSurface(Size{240, 180}, Size{240, 180})
	main.SetReflected(nav, 1/0.3)

	main.AutoFitAndCenter()
	main.Apply(Translate(5, 5))
	main.ApplyScale(3)
	main.Center(1)

	if nav.Transform() != Identity() {
		t.Errorf("nav transform = %+v, want identity", nav.Transform())
	}
}

func TestSurfaceSnapshotInitialPosition(t *testing.T) {
	s := newTestSurface(Size{800, 600}, Size{400, 300})
	if _, ok := s.InitialPosition(); ok {
		t.Error("InitialPosition() set before snapshot")
	}
	p := s.SnapshotInitialPosition()
	if p != (Point{X: 200, Y: 150}) {
		t.Errorf("SnapshotInitialPosition() = %+v, want {200 150}", p)
	}
	if got, ok := s.InitialPosition(); !ok || got != p {
		t.Errorf("InitialPosition() = %+v, %v", got, ok)
	}
}

func TestSurfaceUnsubscribe(t *testing.T) {
	s := newTestSurface(Size{800, 600}, Size{400, 300})
	calls := 0
	cancel := s.Subscribe(func(Transform) { calls++ })
	s.ApplyScale(2)
	cancel()
	s.ApplyScale(3)
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestSurfacePanAndZoomBy(t *testing.T) {
	s := newTestSurface(Size{800, 600}, Size{400, 300})
	s.Zoom(10, 20, 1)

	if got := s.Pan(5, -5); got != (Transform{X: 15, Y: 15, Scale: 1}) {
		t.Errorf("Pan() = %+v", got)
	}

	// Zooming around the viewport center keeps the center fixed.
	s.Zoom(0, 0, 1)
	got := s.ZoomBy(2)
	if got.Scale != 2 || got.X != -400 || got.Y != -300 {
		t.Errorf("ZoomBy(2) = %+v, want {-400 -300 2}", got)
	}
}
