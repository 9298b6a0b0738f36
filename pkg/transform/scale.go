package transform

import (
	"math"
	"strconv"

	"github.com/matzehuels/flowview/pkg/errors"
)

// ScaleMode is the kind of a parsed scale token.
type ScaleMode int

const (
	// ScaleNone leaves the transform unchanged.
	ScaleNone ScaleMode = iota
	// ScaleAuto fits and centers the content.
	ScaleAuto
	// ScaleLiteral applies a fixed scale without recentring.
	ScaleLiteral
)

func (m ScaleMode) String() string {
	switch m {
	case ScaleNone:
		return "none"
	case ScaleAuto:
		return "auto"
	case ScaleLiteral:
		return "literal"
	}
	return "unknown"
}

// ScaleToken is a validated scale setting.
type ScaleToken struct {
	Mode  ScaleMode
	Value float64 // set for ScaleLiteral
}

func (t ScaleToken) String() string {
	if t.Mode == ScaleLiteral {
		return strconv.FormatFloat(t.Value, 'f', -1, 64)
	}
	return t.Mode.String()
}

// ParseScale validates a scale token: "none", "auto", or a strictly
// positive finite number. Anything else is an INVALID_SCALE error.
func ParseScale(token string) (ScaleToken, error) {
	switch token {
	case "none":
		return ScaleToken{Mode: ScaleNone}, nil
	case "auto":
		return ScaleToken{Mode: ScaleAuto}, nil
	}
	v, err := strconv.ParseFloat(token, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return ScaleToken{}, errors.InvalidScale(token)
	}
	return ScaleToken{Mode: ScaleLiteral, Value: v}, nil
}
