// Package envelope normalizes marketplace API response bodies.
//
// Backend handlers have historically wrapped their payloads at different
// depths ({data: T}, {data: {data: T}} or a bare T) and reported pagination in
// different places ({meta: {...}}, {data: {items, total}} or a bare total).
// The functions here probe every known shape and never fail on a missing
// field: absent arrays become empty, absent counts become zero.
package envelope

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// lookup walks a dotted path ("data.meta.total") through decoded JSON.
// A JSON null at the end of the path counts as absent.
func lookup(doc any, path string) (any, bool) {
	current := doc
	for _, part := range strings.Split(path, ".") {
		obj, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = obj[part]
		if !ok {
			return nil, false
		}
	}
	if current == nil {
		return nil, false
	}
	return current, true
}

// firstOf returns the first path that resolves to a non-null value.
func firstOf(doc any, paths ...string) (any, bool) {
	for _, p := range paths {
		if v, ok := lookup(doc, p); ok {
			return v, true
		}
	}
	return nil, false
}

// firstInt returns the first path that resolves to something numeric.
func firstInt(doc any, paths ...string) (int, bool) {
	for _, p := range paths {
		v, ok := lookup(doc, p)
		if !ok {
			continue
		}
		if n, ok := toInt(v); ok {
			return n, true
		}
	}
	return 0, false
}

// firstString returns the first path that resolves to a non-empty string.
func firstString(doc any, paths ...string) string {
	for _, p := range paths {
		v, ok := lookup(doc, p)
		if !ok {
			continue
		}
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// toInt converts the numeric shapes produced by encoding/json (and the ones
// callers build by hand) into an int. Fractions are truncated and values
// outside the int range saturate at math.MinInt / math.MaxInt.
func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		return floatToInt(n)
	case float32:
		return floatToInt(float64(n))
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case uint:
		return uintToInt(uint64(n)), true
	case uint32:
		return int(n), true
	case uint64:
		return uintToInt(n), true
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return int(i), true
		}
		if f, err := n.Float64(); err == nil {
			return floatToInt(f)
		}
		return 0, false
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(n)); err == nil {
			return i, true
		}
		return 0, false
	default:
		return 0, false
	}
}

func floatToInt(f float64) (int, bool) {
	switch {
	case math.IsNaN(f):
		return 0, false
	case f >= math.MaxInt:
		return math.MaxInt, true
	case f <= math.MinInt:
		return math.MinInt, true
	}
	return int(f), true
}

func uintToInt(u uint64) int {
	if u > math.MaxInt {
		return math.MaxInt
	}
	return int(u)
}
