// Package fonts provides the parsed font faces used for label measurement.
//
// The Go font family (golang.org/x/image/font/gofont) ships inside the
// binary, so measurements do not depend on fonts installed on the host.
// Diagrams still declare their CSS family (e.g. arial) in the rendered
// markup; the Go fonts only stand in for metric computation.
package fonts

import (
	"fmt"
	"sync"

	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// Variant selects one of the embedded faces.
type Variant int

const (
	Regular Variant = iota
	Bold
	Italic
	BoldItalic
)

// String returns the variant name.
func (v Variant) String() string {
	switch v {
	case Bold:
		return "bold"
	case Italic:
		return "italic"
	case BoldItalic:
		return "bold-italic"
	default:
		return "regular"
	}
}

var sources = map[Variant][]byte{
	Regular:    goregular.TTF,
	Bold:       gobold.TTF,
	Italic:     goitalic.TTF,
	BoldItalic: gobolditalic.TTF,
}

// Parsed fonts are computed once on first access.
var (
	parsed     map[Variant]*opentype.Font
	parsedErr  error
	parsedOnce sync.Once
)

// Font returns the parsed font for v.
func Font(v Variant) (*opentype.Font, error) {
	parsedOnce.Do(func() {
		parsed = make(map[Variant]*opentype.Font, len(sources))
		for variant, data := range sources {
			f, err := opentype.Parse(data)
			if err != nil {
				parsedErr = fmt.Errorf("parse %s font: %w", variant, err)
				return
			}
			parsed[variant] = f
		}
	})
	if parsedErr != nil {
		return nil, parsedErr
	}
	f, ok := parsed[v]
	if !ok {
		return nil, fmt.Errorf("unknown font variant %d", v)
	}
	return f, nil
}

// FallbackFontFamily is the CSS family list emitted when a label declares
// no family of its own.
const FallbackFontFamily = `arial, 'Helvetica Neue', Helvetica, sans-serif`
