// Package values provides the pure value translation helpers shared by the
// vCard and iCalendar adapters.
//
// This package contains:
//   - Presence checks that distinguish absent, empty and zero values
//   - Date and date-time conversion between the legacy basic grammar
//     (20060102T150405Z) and the JSON extended grammar (2006-01-02T15:04:05Z)
//   - ISO 8601 duration helpers for JSCalendar durations and alert offsets
//   - Enumerated value tables (vCard TYPE tokens, GENDER, recurrence tokens)
//   - Content-derived map keys
//
// Nothing in this package logs; callers decide whether a failed conversion
// is advisory or fatal.
package values

import (
	"reflect"
	"strings"
)

// IsPresent reports whether v is meaningfully present.
//
// A value is present when it is set, non-nil, not an empty (or whitespace
// only) string and not an empty collection. Numbers and booleans are always
// present, including zero and false.
func IsPresent(v interface{}) bool {
	if v == nil {
		return false
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		return strings.TrimSpace(rv.String()) != ""
	case reflect.Map, reflect.Slice, reflect.Array:
		return rv.Len() > 0
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return false
		}
		return IsPresent(rv.Elem().Interface())
	case reflect.Func, reflect.Chan:
		return !rv.IsNil()
	default:
		return true
	}
}

// HasText reports whether s contains anything besides whitespace.
func HasText(s string) bool {
	return strings.TrimSpace(s) != ""
}

// AnyPresent reports whether at least one of the given strings has text.
func AnyPresent(parts ...string) bool {
	for _, p := range parts {
		if HasText(p) {
			return true
		}
	}
	return false
}

// NilIfEmpty returns nil for an empty map so map-shaped JSON properties are
// never serialized as {}.
func NilIfEmpty[K comparable, V any](m map[K]V) map[K]V {
	if len(m) == 0 {
		return nil
	}
	return m
}

// SplitList splits a comma separated legacy value, trimming every element
// and dropping empty ones.
func SplitList(value string, sep string) []string {
	if value == "" {
		return nil
	}

	parts := strings.Split(value, sep)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
