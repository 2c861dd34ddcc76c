package record

import (
	"encoding/json"
	"math"
	"strings"
)

// Snapshot is an isolated, point-in-time copy of a Record.
// Predicates receive snapshots and must treat them as read-only.
type Snapshot map[string]any

// Empty reports whether nothing has been published.
func (s Snapshot) Empty() bool {
	return len(s) == 0
}

// Lookup resolves a dotted path ("cart.items.count") through nested
// objects. A top-level key containing dots is matched before descending.
func (s Snapshot) Lookup(path string) (any, bool) {
	if v, ok := s[path]; ok {
		return v, true
	}

	parts := strings.Split(path, ".")
	var cur any = map[string]any(s)
	for _, part := range parts {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = obj[part]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// String returns the string at path.
func (s Snapshot) String(path string) (string, bool) {
	v, ok := s.Lookup(path)
	if !ok {
		return "", false
	}
	str, ok := v.(string)
	return str, ok
}

// Bool returns the boolean at path.
func (s Snapshot) Bool(path string) (bool, bool) {
	v, ok := s.Lookup(path)
	if !ok {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}

// Float returns the number at path as float64.
func (s Snapshot) Float(path string) (float64, bool) {
	v, ok := s.Lookup(path)
	if !ok {
		return 0, false
	}
	return ToFloat(v)
}

// Int returns the number at path as int64. Floats are accepted only when
// they hold an integral value.
func (s Snapshot) Int(path string) (int64, bool) {
	f, ok := s.Float(path)
	if !ok || f != math.Trunc(f) {
		return 0, false
	}
	return int64(f), true
}

// ToFloat converts any Go numeric type (or json.Number) to float64.
func ToFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// Canonical returns the canonical JSON serialization of the snapshot.
func (s Snapshot) Canonical() ([]byte, error) {
	return MarshalCanonical(map[string]any(s))
}

// Exact returns the canonical serialization with strings left unnormalized.
// Snapshots with equal Exact bytes are indistinguishable to a predicate.
func (s Snapshot) Exact() ([]byte, error) {
	return MarshalExact(map[string]any(s))
}

// Fingerprint returns the content digest of the snapshot.
func (s Snapshot) Fingerprint() (string, error) {
	data, err := s.Canonical()
	if err != nil {
		return "", err
	}
	return FingerprintCanonical(data), nil
}

// FingerprintCanonical digests an already canonical serialization.
func FingerprintCanonical(canonical []byte) string {
	return hashWithDomain(DomainSnapshot, canonical)
}
