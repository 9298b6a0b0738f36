// Package textmetrics measures label text for diagram layout.
//
// Node sizes depend on the widest slot label and header line, so every
// label is measured before the graph goes to the layout engine. A
// [Measurer] reports the rendered width of a string in a given [Font];
// the height of a label is its font size.
//
// [FaceMeasurer] uses real glyph advances from the embedded Go fonts.
// [ApproxMeasurer] uses a fixed per-character width and is handy for tests
// and for hosts where font parsing is undesirable.
package textmetrics

import (
	"strings"
	"unicode/utf8"
)

const (
	// WidthFactor pads measured widths so labels rendered by a browser in
	// the declared family do not overflow the measured box.
	WidthFactor = 1.15

	// DefaultSize is used when a font declares no size.
	DefaultSize = 10.0
)

// Font describes how a label is drawn.
type Font struct {
	Size   float64 `json:"size,omitempty" toml:"size"`
	Family string  `json:"family,omitempty" toml:"family"`
	Weight string  `json:"weight,omitempty" toml:"weight"`
	Style  string  `json:"style,omitempty" toml:"style"`
}

// IsZero reports whether no font property is set.
func (f Font) IsZero() bool {
	return f == Font{}
}

// Bold reports whether the weight is bold or heavier.
func (f Font) Bold() bool {
	switch strings.ToLower(f.Weight) {
	case "bold", "bolder", "600", "700", "800", "900":
		return true
	}
	return false
}

// Italic reports whether the style is italic or oblique.
func (f Font) Italic() bool {
	s := strings.ToLower(f.Style)
	return s == "italic" || s == "oblique"
}

// Descriptor returns the CSS font shorthand, e.g. "bold 16px arial".
func (f Font) Descriptor() string {
	var parts []string
	if f.Style != "" {
		parts = append(parts, f.Style)
	}
	if f.Weight != "" {
		parts = append(parts, f.Weight)
	}
	size := f.Size
	if size <= 0 {
		size = DefaultSize
	}
	parts = append(parts, formatPx(size))
	if f.Family != "" {
		parts = append(parts, f.Family)
	} else {
		parts = append(parts, "sans-serif")
	}
	return strings.Join(parts, " ")
}

// Measurer reports the rendered width of text in a font.
type Measurer interface {
	Width(text string, f Font) float64
}

// Height returns the label height for text in f: the font size when both
// the text and the size are set, zero otherwise.
func Height(text string, f Font) float64 {
	if text == "" || f.Size <= 0 {
		return 0
	}
	return f.Size
}

// Measure returns the width and height of text in f.
func Measure(m Measurer, text string, f Font) (width, height float64) {
	return m.Width(text, f), Height(text, f)
}

// ApproxMeasurer estimates widths as runes x size x CharWidth x WidthFactor.
type ApproxMeasurer struct {
	// CharWidth is the average glyph advance as a fraction of the font size.
	CharWidth float64
}

// NewApproxMeasurer returns an ApproxMeasurer with the average advance of a
// proportional sans-serif face.
func NewApproxMeasurer() ApproxMeasurer {
	return ApproxMeasurer{CharWidth: 0.55}
}

// Width implements Measurer.
func (m ApproxMeasurer) Width(text string, f Font) float64 {
	if text == "" {
		return 0
	}
	size := f.Size
	if size <= 0 {
		size = DefaultSize
	}
	w := float64(utf8.RuneCountInString(text)) * size * m.CharWidth
	if f.Bold() {
		w *= 1.1
	}
	return w * WidthFactor
}

func formatPx(size float64) string {
	s := strings.TrimRight(strings.TrimRight(formatFloat(size), "0"), ".")
	return s + "px"
}
