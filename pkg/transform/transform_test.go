package transform

import (
	"math"
	"testing"

	"github.com/matzehuels/flowview/pkg/errors"
)

const eps = 1e-9

func near(a, b float64) bool { return math.Abs(a-b) < eps }

func TestAutoScale(t *testing.T) {
	tests := []struct {
		name       string
		viewport   Size
		content    Size
		want       float64
		degenerate bool
	}{
		{"fit width and height", Size{800, 600}, Size{400, 300}, 2, false},
		{"height bound", Size{800, 300}, Size{400, 300}, 1, false},
		{"shrink", Size{100, 100}, Size{400, 200}, 0.25, false},
		{"zero content", Size{800, 600}, Size{0, 0}, 1, true},
		{"zero viewport", Size{0, 0}, Size{400, 300}, 1, true},
		{"zero both", Size{0, 0}, Size{0, 0}, 1, true},
		{"zero content width only", Size{800, 600}, Size{0, 300}, 2, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := AutoScale(tt.viewport, tt.content)
			if math.IsNaN(got) {
				t.Fatal("AutoScale() returned NaN")
			}
			if !near(got, tt.want) {
				t.Errorf("AutoScale() = %v, want %v", got, tt.want)
			}
			if tt.degenerate != (err != nil) {
				t.Errorf("AutoScale() error = %v, want degenerate=%v", err, tt.degenerate)
			}
			if err != nil && !errors.Is(err, errors.ErrCodeDegenerateGeometry) {
				t.Errorf("AutoScale() error code = %v, want DEGENERATE_GEOMETRY", errors.GetCode(err))
			}
		})
	}
}

func TestCenterOffset(t *testing.T) {
	tests := []struct {
		name     string
		viewport Size
		content  Size
		scale    float64
		want     Point
	}{
		{"scale 1", Size{800, 600}, Size{400, 300}, 1, Point{200, 150}},
		{"scale 2 fills", Size{800, 600}, Size{400, 300}, 2, Point{0, 0}},
		{"scale 0 is default", Size{800, 600}, Size{400, 300}, 0, Point{200, 150}},
		{"content larger uses absolute value", Size{100, 100}, Size{300, 200}, 1, Point{100, 50}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CenterOffset(tt.viewport, tt.content, tt.scale)
			if !near(got.X, tt.want.X) || !near(got.Y, tt.want.Y) {
				t.Errorf("CenterOffset() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestReflect(t *testing.T) {
	primary := Transform{X: 100, Y: 50, Scale: 2}

	got := Reflect(primary, 0.3, &Point{X: 10, Y: 5})
	wantX := -100/(0.3*2) + 10.0/2
	wantY := -50/(0.3*2) + 5.0/2
	if !near(got.X, wantX) || !near(got.Y, wantY) || !near(got.Scale, 0.5) {
		t.Errorf("Reflect() = %+v, want {%v %v 0.5}", got, wantX, wantY)
	}
	if math.Abs(got.X-(-161.67)) > 0.01 {
		t.Errorf("Reflect().X = %v, want about -161.67", got.X)
	}

	got = Reflect(primary, 0.3, nil)
	if !near(got.X, -100/(0.3*2)) {
		t.Errorf("Reflect() without initial position X = %v", got.X)
	}
}

func TestClampDrag(t *testing.T) {
	tests := []struct {
		name  string
		p     Point
		vp    Size
		cnt   Size
		scale float64
		want  Point
	}{
		{"inside", Point{10, 20}, Size{240, 180}, Size{240, 180}, 0.5, Point{10, 20}},
		{"too far right and down", Point{500, 500}, Size{240, 180}, Size{240, 180}, 0.5, Point{120, 90}},
		{"negative", Point{-5, -5}, Size{240, 180}, Size{240, 180}, 0.5, Point{0, 0}},
		{"content larger than viewport", Point{50, 50}, Size{100, 100}, Size{200, 200}, 1, Point{0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClampDrag(tt.p, tt.vp, tt.cnt, tt.scale)
			if got != tt.want {
				t.Errorf("ClampDrag() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestMerge(t *testing.T) {
	base := Transform{X: 1, Y: 2, Scale: 3}

	if got := base.Merge(ScaleTo(5)); got != (Transform{X: 1, Y: 2, Scale: 5}) {
		t.Errorf("Merge(ScaleTo) = %+v", got)
	}
	if got := base.Merge(Translate(7, 8)); got != (Transform{X: 7, Y: 8, Scale: 3}) {
		t.Errorf("Merge(Translate) = %+v", got)
	}
	if got := base.Merge(Update{}); got != base {
		t.Errorf("Merge(empty) = %+v, want unchanged", got)
	}
}

func TestTransformString(t *testing.T) {
	got := Transform{X: 12.5, Y: -3, Scale: 0.5}.String()
	want := "translate(12.5,-3) scale(0.5)"
	if got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestParseScale(t *testing.T) {
	tests := []struct {
		token   string
		mode    ScaleMode
		value   float64
		wantErr bool
	}{
		{"auto", ScaleAuto, 0, false},
		{"none", ScaleNone, 0, false},
		{"1.5", ScaleLiteral, 1.5, false},
		{"2", ScaleLiteral, 2, false},
		{"-1", 0, 0, true},
		{"0", 0, 0, true},
		{"abc", 0, 0, true},
		{"", 0, 0, true},
		{"NaN", 0, 0, true},
		{"Inf", 0, 0, true},
		{"1.5x", 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			got, err := ParseScale(tt.token)
			if tt.wantErr {
				if !errors.Is(err, errors.ErrCodeInvalidScale) {
					t.Errorf("ParseScale(%q) error = %v, want INVALID_SCALE", tt.token, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseScale(%q) error = %v", tt.token, err)
			}
			if got.Mode != tt.mode || got.Value != tt.value {
				t.Errorf("ParseScale(%q) = %+v, want mode %v value %v", tt.token, got, tt.mode, tt.value)
			}
		})
	}
}
