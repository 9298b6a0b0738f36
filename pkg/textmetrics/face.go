package textmetrics

import (
	"strconv"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"

	"github.com/matzehuels/flowview/pkg/fonts"
)

// FaceMeasurer measures text with glyph advances from the embedded fonts.
// Faces are created lazily per (variant, size) and reused. It is safe for
// concurrent use.
type FaceMeasurer struct {
	mu       sync.Mutex
	faces    map[faceKey]font.Face
	fallback Measurer
}

type faceKey struct {
	variant fonts.Variant
	size    float64
}

// NewFaceMeasurer creates a measurer backed by the embedded Go fonts.
// If a face cannot be created, widths fall back to an [ApproxMeasurer].
func NewFaceMeasurer() *FaceMeasurer {
	return &FaceMeasurer{
		faces:    make(map[faceKey]font.Face),
		fallback: NewApproxMeasurer(),
	}
}

// Width implements Measurer.
func (m *FaceMeasurer) Width(text string, f Font) float64 {
	if text == "" {
		return 0
	}
	size := f.Size
	if size <= 0 {
		size = DefaultSize
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	face, err := m.face(variantOf(f), size)
	if err != nil {
		return m.fallback.Width(text, f)
	}
	adv := font.MeasureString(face, text)
	return float64(adv) / 64 * WidthFactor
}

// Close releases the cached faces.
func (m *FaceMeasurer) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, face := range m.faces {
		_ = face.Close()
		delete(m.faces, k)
	}
	return nil
}

// face must be called with m.mu held.
func (m *FaceMeasurer) face(v fonts.Variant, size float64) (font.Face, error) {
	key := faceKey{variant: v, size: size}
	if face, ok := m.faces[key]; ok {
		return face, nil
	}
	f, err := fonts.Font(v)
	if err != nil {
		return nil, err
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, err
	}
	m.faces[key] = face
	return face, nil
}

func variantOf(f Font) fonts.Variant {
	switch {
	case f.Bold() && f.Italic():
		return fonts.BoldItalic
	case f.Bold():
		return fonts.Bold
	case f.Italic():
		return fonts.Italic
	default:
		return fonts.Regular
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
