// Package normalize turns loosely shaped host replies into typed records.
// Every accessor tolerates missing, null and mistyped values by returning a
// default; only a record without a readable id is rejected.
package normalize

import (
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/kutbudev/ofocus-cli/internal/models"
)

// Record is one decoded JSON object from the host.
type Record = map[string]any

// SafeGet calls get and returns its value, or dflt when get fails or panics.
func SafeGet[T any](get func() (T, error), dflt T) (v T) {
	defer func() {
		if r := recover(); r != nil {
			slog.Debug("safe get recovered", "panic", fmt.Sprint(r))
			v = dflt
		}
	}()
	got, err := get()
	if err != nil {
		return dflt
	}
	return got
}

// String returns m[key] as a string, or "" when absent or not a string.
func String(m Record, key string) string {
	s, _ := m[key].(string)
	return s
}

// OptString returns m[key] as a non-empty string pointer, or nil.
func OptString(m Record, key string) *string {
	s, ok := m[key].(string)
	if !ok || s == "" {
		return nil
	}
	return &s
}

// Bool returns m[key] as a bool. Strings "true"/"false" are accepted.
func Bool(m Record, key string) bool {
	switch v := m[key].(type) {
	case bool:
		return v
	case string:
		b, _ := strconv.ParseBool(strings.TrimSpace(v))
		return b
	}
	return false
}

// BoolOr is Bool with an explicit default for absent or unreadable values.
func BoolOr(m Record, key string, dflt bool) bool {
	switch v := m[key].(type) {
	case bool:
		return v
	case string:
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			return b
		}
	}
	return dflt
}

// Int returns m[key] as an int pointer; nil when absent, null or non-numeric.
func Int(m Record, key string) *int {
	switch v := m[key].(type) {
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil
		}
		n := int(v)
		return &n
	case int:
		return &v
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return &n
		}
	}
	return nil
}

// IntOr returns the int value of m[key], or dflt.
func IntOr(m Record, key string, dflt int) int {
	if p := Int(m, key); p != nil {
		return *p
	}
	return dflt
}

// StringSlice returns the string elements of m[key]; never nil.
func StringSlice(m Record, key string) []string {
	raw, _ := m[key].([]any)
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Time parses m[key] as a host timestamp; nil when absent or unparseable.
func Time(m Record, key string) *models.Timestamp {
	s, ok := m[key].(string)
	if !ok || s == "" {
		return nil
	}
	ts, err := models.ParseTimestamp(s)
	if err != nil {
		return nil
	}
	return &ts
}

// Object returns m[key] as a record, or nil.
func Object(m Record, key string) Record {
	o, _ := m[key].(map[string]any)
	return o
}

// Objects returns the record elements of m[key], skipping non-objects.
func Objects(m Record, key string) []Record {
	return records(m[key])
}

func records(v any) []Record {
	raw, _ := v.([]any)
	out := make([]Record, 0, len(raw))
	for _, x := range raw {
		if o, ok := x.(map[string]any); ok {
			out = append(out, o)
		}
	}
	return out
}
