// Package adapter maps raw back-end records onto the typed domain.
//
// The services behind the dashboard disagree on casing (snake_case vs
// camelCase), on envelope shape (legacy {data,total} vs modern
// {items,count,next_offset}) and on which of several aliases carries a
// field. Every mapper in this package is total: malformed input produces a
// best-effort record, never a panic or an error.
package adapter

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Raw is an undecoded record as delivered by the wire.
type Raw = map[string]any

// Adapter converts raw API payloads into domain records.
type Adapter struct {
	// TrustMinorUnits disables major/minor disambiguation: amounts are taken
	// as minor units verbatim (mock mode).
	TrustMinorUnits bool

	now func() time.Time
}

// New returns an Adapter. trustMinorUnits should mirror the mock-mode flag
// of the environment.
func New(trustMinorUnits bool) *Adapter {
	return &Adapter{TrustMinorUnits: trustMinorUnits, now: time.Now}
}

func (a *Adapter) nowISO() string {
	return a.now().UTC().Format(time.RFC3339)
}

// pick returns the first present, non-nil value among keys.
func pick(raw Raw, keys ...string) any {
	for _, key := range keys {
		if value, ok := raw[key]; ok && value != nil {
			return value
		}
	}
	return nil
}

// identifier stringifies value and trims it, returning "" for nil, empty and
// whitespace-only values. Numeric ids lose any float formatting artifacts.
func identifier(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case float64:
		// JSON numbers decode as float64; ids are integral.
		if v == float64(int64(v)) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return strings.TrimSpace(v.String())
	case bool:
		if v {
			return "true"
		}
		return "false"
	default:
		return ""
	}
}

// pickID resolves the first usable identifier among keys.
func pickID(raw Raw, keys ...string) string {
	for _, key := range keys {
		if value, ok := raw[key]; ok {
			if id := identifier(value); id != "" {
				return id
			}
		}
	}
	return ""
}

// pickString resolves the first non-empty string among keys.
func pickString(raw Raw, keys ...string) string {
	for _, key := range keys {
		if value, ok := raw[key]; ok {
			if s, ok := value.(string); ok && strings.TrimSpace(s) != "" {
				return s
			}
		}
	}
	return ""
}

// pickNumber resolves the first finite numeric value among keys.
func pickNumber(raw Raw, keys ...string) (float64, bool) {
	for _, key := range keys {
		value, ok := raw[key]
		if !ok || value == nil {
			continue
		}
		if numeric, ok := toNumber(value); ok {
			return numeric, true
		}
	}
	return 0, false
}

// pickInt is pickNumber truncated to int64, defaulting to 0.
func pickInt(raw Raw, keys ...string) int64 {
	numeric, _ := pickNumber(raw, keys...)
	return int64(numeric)
}

// pickIntPtr is pickNumber truncated to *int64, nil when absent.
func pickIntPtr(raw Raw, keys ...string) *int64 {
	numeric, ok := pickNumber(raw, keys...)
	if !ok {
		return nil
	}
	truncated := int64(numeric)
	return &truncated
}

func toNumber(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// coerceObject JSON-parses string payloads when possible, passing everything
// else through for faithful display. nil and blank strings become nil.
func coerceObject(value any) any {
	switch v := value.(type) {
	case nil:
		return nil
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return nil
		}
		var parsed any
		if err := json.Unmarshal([]byte(trimmed), &parsed); err != nil {
			return trimmed
		}
		return parsed
	default:
		return value
	}
}

// coerceMap narrows value to a plain object, or nil.
func coerceMap(value any) map[string]any {
	coerced := coerceObject(value)
	if m, ok := coerced.(map[string]any); ok {
		return m
	}
	return nil
}

// coerceRecord converts a {key->number} object into counts, non-finite
// values collapsing to 0.
func coerceRecord(value any) map[string]int64 {
	m, ok := value.(map[string]any)
	if !ok {
		return nil
	}
	record := make(map[string]int64, len(m))
	for key, entry := range m {
		numeric, ok := toNumber(entry)
		if !ok {
			record[key] = 0
			continue
		}
		record[key] = int64(numeric)
	}
	return record
}

// coerceCollection converts an array of {key,value} records into counts
// using alias candidates for both sides. Returns nil when nothing matched.
func coerceCollection(value any, keyCandidates, valueCandidates []string) map[string]int64 {
	list, ok := value.([]any)
	if !ok {
		return nil
	}
	record := make(map[string]int64)
	for _, item := range list {
		raw, ok := item.(map[string]any)
		if !ok {
			continue
		}
		key := pickString(raw, keyCandidates...)
		if key == "" {
			continue
		}
		numeric, _ := pickNumber(raw, valueCandidates...)
		record[key] = int64(numeric)
	}
	if len(record) == 0 {
		return nil
	}
	return record
}
