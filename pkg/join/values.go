package join

import (
	"bytes"
	"fmt"

	json "github.com/goccy/go-json"
)

// Series holds one element's value at each timestep.
type Series []float64

// Values holds one series per element. A nil series marks an element
// with no value.
//
// On the wire each element is either a scalar (one timestep) or an array
// (one entry per timestep); both decode to a Series.
type Values []Series

// Scalars builds single-timestep values.
func Scalars(vs ...float64) Values {
	out := make(Values, len(vs))
	for i, v := range vs {
		out[i] = Series{v}
	}
	return out
}

// Timesteps returns the longest series length.
func (v Values) Timesteps() int {
	n := 0
	for _, s := range v {
		if len(s) > n {
			n = len(s)
		}
	}
	return n
}

func (v *Values) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		*v = nil
		return nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("decoding inValues: %w", err)
	}

	out := make(Values, len(raw))
	for i, elem := range raw {
		elem = bytes.TrimSpace(elem)
		switch {
		case bytes.Equal(elem, []byte("null")):
			out[i] = nil
		case len(elem) > 0 && elem[0] == '[':
			var s Series
			if err := json.Unmarshal(elem, &s); err != nil {
				return fmt.Errorf("decoding inValues[%d]: %w", i, err)
			}
			if s == nil {
				s = Series{}
			}
			out[i] = s
		default:
			var f float64
			if err := json.Unmarshal(elem, &f); err != nil {
				return fmt.Errorf("decoding inValues[%d]: %w", i, err)
			}
			out[i] = Series{f}
		}
	}
	*v = out
	return nil
}
