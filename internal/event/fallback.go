package event

import "strconv"

// Provider payloads name the same field inconsistently, sometimes within one
// provider's own event types. Normalization therefore goes through explicit
// ordered candidate-key lookups: first non-empty wins. Keeping the candidate
// lists visible in the handler tables makes the mapping testable instead of
// burying it in permissive map access.

// FirstString returns the first non-empty string found under the candidate
// keys, descending into one level of nesting via dotted keys ("order.id").
func FirstString(payload map[string]any, keys ...string) string {
	for _, key := range keys {
		if v, ok := lookup(payload, key); ok {
			switch s := v.(type) {
			case string:
				if s != "" {
					return s
				}
			case float64:
				return strconv.FormatFloat(s, 'f', -1, 64)
			}
		}
	}
	return ""
}

// FirstNumber returns the first numeric value found under the candidate keys.
func FirstNumber(payload map[string]any, keys ...string) float64 {
	for _, key := range keys {
		if v, ok := lookup(payload, key); ok {
			switch n := v.(type) {
			case float64:
				return n
			case string:
				if f, err := strconv.ParseFloat(n, 64); err == nil {
					return f
				}
			}
		}
	}
	return 0
}

// FirstSlice returns the first array value found under the candidate keys.
func FirstSlice(payload map[string]any, keys ...string) []any {
	for _, key := range keys {
		if v, ok := lookup(payload, key); ok {
			if arr, ok := v.([]any); ok && len(arr) > 0 {
				return arr
			}
		}
	}
	return nil
}

// FirstMap returns the first object value found under the candidate keys.
func FirstMap(payload map[string]any, keys ...string) map[string]any {
	for _, key := range keys {
		if v, ok := lookup(payload, key); ok {
			if m, ok := v.(map[string]any); ok && len(m) > 0 {
				return m
			}
		}
	}
	return nil
}

func lookup(payload map[string]any, key string) (any, bool) {
	if payload == nil {
		return nil, false
	}
	for i := 0; i < len(key); i++ {
		if key[i] == '.' {
			outer, inner := key[:i], key[i+1:]
			nested, ok := payload[outer].(map[string]any)
			if !ok {
				return nil, false
			}
			return lookup(nested, inner)
		}
	}
	v, ok := payload[key]
	return v, ok
}
