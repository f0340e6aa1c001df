package domain

import (
	"encoding/json"
	"fmt"
	"math"
)

// Metadata is the open, per-kind context attached to a transaction. Values
// are restricted to scalars: string, bool, integers and floats.
type Metadata map[string]any

// Validate rejects non-scalar values.
func (m Metadata) Validate() error {
	for k, v := range m {
		switch v.(type) {
		case nil, string, bool, int, int32, int64, float32, float64, json.Number:
		default:
			return fmt.Errorf("metadata %q: unsupported value type %T", k, v)
		}
	}
	return nil
}

// Int reads an integer value. JSON round trips turn integers into float64 or
// json.Number, so all numeric forms are accepted.
func (m Metadata) Int(key string) (int64, bool) {
	switch v := m[key].(type) {
	case int:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case float64:
		if v != math.Trunc(v) {
			return 0, false
		}
		return int64(v), true
	case float32:
		return int64(v), true
	case json.Number:
		n, err := v.Int64()
		return n, err == nil
	}
	return 0, false
}

// String reads a string value.
func (m Metadata) String(key string) (string, bool) {
	s, ok := m[key].(string)
	return s, ok
}

// Merge returns a copy of m overlaid with other.
func (m Metadata) Merge(other Metadata) Metadata {
	out := make(Metadata, len(m)+len(other))
	for k, v := range m {
		out[k] = v
	}
	for k, v := range other {
		out[k] = v
	}
	return out
}
