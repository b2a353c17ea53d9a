package aggregate

import (
	"encoding/json"
	"strconv"
)

// Value is a metric that may be undefined, for example the LCOE of a
// resource that generated nothing. An undefined Value is blank, never zero.
type Value struct {
	V  float64
	OK bool
}

// Of returns a defined Value.
func Of(v float64) Value { return Value{V: v, OK: true} }

// Blank is the undefined Value.
var Blank = Value{}

// Or returns the value, or fallback when undefined.
func (v Value) Or(fallback float64) float64 {
	if !v.OK {
		return fallback
	}
	return v.V
}

// String renders the value, or the empty string when undefined.
func (v Value) String() string {
	if !v.OK {
		return ""
	}
	return strconv.FormatFloat(v.V, 'f', -1, 64)
}

func (v Value) MarshalJSON() ([]byte, error) {
	if !v.OK {
		return []byte("null"), nil
	}
	return json.Marshal(v.V)
}

func (v *Value) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*v = Blank
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*v = Of(f)
	return nil
}
