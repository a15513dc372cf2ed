package ir

import "fmt"

// Precision is the GLSL ES precision qualifier attached to a value.
type Precision uint8

const (
	// PrecisionNone marks values whose type does not take a precision (bool, structs, ...).
	PrecisionNone Precision = iota
	PrecisionLow
	PrecisionMedium
	PrecisionHigh
)

func (p Precision) String() string {
	switch p {
	case PrecisionNone:
		return ""
	case PrecisionLow:
		return "lowp"
	case PrecisionMedium:
		return "mediump"
	case PrecisionHigh:
		return "highp"
	default:
		return fmt.Sprintf("Precision(%d)", p)
	}
}

// ParsePrecision accepts the qualifier spelling used in shader source.
func ParsePrecision(s string) (Precision, error) {
	switch s {
	case "", "none":
		return PrecisionNone, nil
	case "lowp", "low":
		return PrecisionLow, nil
	case "mediump", "medium":
		return PrecisionMedium, nil
	case "highp", "high":
		return PrecisionHigh, nil
	default:
		return PrecisionNone, fmt.Errorf("unknown precision %q", s)
	}
}
