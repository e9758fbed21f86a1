package platform

import (
	"fmt"
	"math"
)

// IntegerValue converts a decoded JSON number to int64. Fractional and
// out of range values are rejected rather than truncated. Every adapter
// validates Integer slot pushes with it.
func IntegerValue(v any) (int64, bool) {
	return toInt64(v)
}

// FloatValue converts a decoded JSON number to float64.
func FloatValue(v any) (float64, bool) {
	return toFloat64(v)
}

// Bounds of int64 as exact float64 values. float64(math.MaxInt64) rounds
// up to 2^63, which int64 cannot hold.
const (
	minInt64Float = -(1 << 63)
	maxInt64Float = 1 << 63
)

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case float32:
		return toInt64(float64(n))
	case float64:
		if n != math.Trunc(n) || n >= maxInt64Float || n < minInt64Float {
			return 0, false
		}
		return int64(n), true
	default:
		return 0, false
	}
}

// toFloat64 converts various numeric types to float64.
func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	default:
		return 0, false
	}
}

// parseString extracts a string from an any value.
func parseString(value any) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case []byte:
		return string(v), true
	case fmt.Stringer:
		return v.String(), true
	default:
		return "", false
	}
}

// parseMap extracts a map[string]any from an any value.
func parseMap(value any) map[string]any {
	if value == nil {
		return nil
	}
	if m, ok := value.(map[string]any); ok {
		return m
	}
	if m, ok := value.(map[any]any); ok {
		converted := make(map[string]any, len(m))
		for key, val := range m {
			if keyString, ok := key.(string); ok {
				converted[keyString] = val
			}
		}
		return converted
	}
	return nil
}

// cloneValue deep-copies the map and slice nodes of a value tree. Leaves
// are shared; they are immutable for every JSON value type.
func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneMap(t)
	case []any:
		return cloneSlice(t)
	default:
		return v
	}
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneSlice(list []any) []any {
	if list == nil {
		return []any{}
	}
	out := make([]any, len(list))
	for i, v := range list {
		out[i] = cloneValue(v)
	}
	return out
}
