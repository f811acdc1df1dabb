package analysis

import (
	"math"
	"strconv"
)

// Float is a statistic that may be undefined. NaN and infinities encode as
// JSON null.
type Float float64

// Valid reports whether f is a finite number.
func (f Float) Valid() bool {
	v := float64(f)
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func (f Float) MarshalJSON() ([]byte, error) {
	if !f.Valid() {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, float64(f), 'g', -1, 64), nil
}

func (f *Float) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*f = Float(math.NaN())
		return nil
	}
	v, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return err
	}
	*f = Float(v)
	return nil
}

// String formats f with four significant digits, or "NaN" when undefined.
func (f Float) String() string {
	if !f.Valid() {
		return "NaN"
	}
	return strconv.FormatFloat(float64(f), 'g', 4, 64)
}
