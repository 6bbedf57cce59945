package lang

import (
	"log/slog"
	"math"
	"strconv"
)

// Value is the result of evaluating a node: either a number or the absent
// value [Nil].
type Value struct {
	num   float64
	valid bool
}

// Nil is the absent value. It is produced by definitions, loops, an
// untaken conditional, an empty program and the output builtins.
var Nil Value

// NumberValue returns a Value holding f.
func NumberValue(f float64) Value { return Value{num: f, valid: true} }

// Float returns the numeric content of v and whether v holds a number.
func (v Value) Float() (float64, bool) { return v.num, v.valid }

// IsNil reports whether v is the absent value.
func (v Value) IsNil() bool { return !v.valid }

// String formats v with the shortest decimal representation that
// round-trips, or "nil" for the absent value.
func (v Value) String() string {
	if !v.valid {
		return "nil"
	}

	return formatFloat(v.num)
}

// LogValue implements slog.LogValuer.
func (v Value) LogValue() slog.Value {
	if !v.valid {
		return slog.StringValue("nil")
	}

	return slog.Float64Value(v.num)
}

// MarshalYAML implements yaml.BytesMarshaler, emitting null for [Nil].
func (v Value) MarshalYAML() ([]byte, error) {
	return v.MarshalJSON()
}

// MarshalJSON implements json.Marshaler, emitting null for [Nil].
func (v Value) MarshalJSON() ([]byte, error) {
	if !v.valid {
		return []byte("null"), nil
	}

	if math.IsInf(v.num, 0) || math.IsNaN(v.num) {
		return []byte(strconv.Quote(formatFloat(v.num))), nil
	}

	return []byte(formatFloat(v.num)), nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// truthy reports whether f selects the taken branch of a conditional.
func truthy(f float64) bool { return f != 0 }
