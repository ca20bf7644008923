package types

import (
	"encoding/json"
	"math"
)

// Rate is a proportion that may be undefined. An invalid Rate means the
// denominator was empty and marshals to JSON null; it is never reported as 0.
type Rate struct {
	Value float64
	Valid bool
}

// RateOf returns num/den, invalid when den is zero.
func RateOf(num, den int) Rate {
	if den <= 0 {
		return Rate{}
	}
	return Rate{Value: float64(num) / float64(den), Valid: true}
}

// Known wraps a computed value.
func Known(v float64) Rate {
	return Rate{Value: v, Valid: true}
}

// Ptr returns nil for an invalid rate.
func (r Rate) Ptr() *float64 {
	if !r.Valid {
		return nil
	}
	v := r.Value
	return &v
}

// Pct returns the rate in percent rounded to one decimal place.
func (r Rate) Pct() float64 {
	return math.Round(r.Value*1000) / 10
}

func (r Rate) MarshalJSON() ([]byte, error) {
	if !r.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(r.Value)
}

func (r *Rate) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*r = Rate{}
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*r = Rate{Value: v, Valid: true}
	return nil
}
