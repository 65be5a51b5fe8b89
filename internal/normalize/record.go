// Package normalize turns raw provider records into domain models. Provider
// payloads are schema-free JSON objects whose field names and types drift, so
// every access goes through a tolerant getter and every parse failure is a
// typed error scoped to a single record.
package normalize

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Record is one raw dataset item as returned by the scraping provider.
type Record map[string]any

// FieldError reports the raw record field that prevented normalization.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %s: %s", e.Field, e.Reason)
}

// Records converts decoded dataset items into Record values.
func Records(items []map[string]any) []Record {
	records := make([]Record, len(items))
	for i, item := range items {
		records[i] = Record(item)
	}
	return records
}

// Has reports whether the record carries the given key.
func (r Record) Has(key string) bool {
	_, ok := r[key]
	return ok
}

// Keys returns the record's field names in sorted order. Used for skip
// diagnostics so operators can see what the provider actually sent.
func (r Record) Keys() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// String returns the first non-empty string value among the given keys.
// Numeric scalars are rendered as strings since providers flip between the
// two for identifier fields.
func (r Record) String(keys ...string) string {
	for _, key := range keys {
		switch v := r[key].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		case int:
			return strconv.Itoa(v)
		case int64:
			return strconv.FormatInt(v, 10)
		}
	}
	return ""
}

// Int returns the value under key coerced to int. A missing key yields zero
// with no error; a present but uncoercible value yields a FieldError.
func (r Record) Int(key string) (int, error) {
	v, ok := r[key]
	if !ok || v == nil {
		return 0, nil
	}
	n, ok := toInt(v)
	if !ok {
		return 0, &FieldError{Field: key, Reason: "not a number"}
	}
	return n, nil
}

// Bool01 returns 1 when the value under key is boolean true, otherwise 0.
func (r Record) Bool01(key string) int {
	if b, ok := r[key].(bool); ok && b {
		return 1
	}
	return 0
}

// Child returns the nested object under key, or nil when absent.
func (r Record) Child(key string) Record {
	if m, ok := r[key].(map[string]any); ok {
		return Record(m)
	}
	return nil
}

// ChildList returns the nested object list under key. Non-object elements
// are dropped.
func (r Record) ChildList(key string) []Record {
	list, ok := r[key].([]any)
	if !ok {
		return nil
	}
	children := make([]Record, 0, len(list))
	for _, el := range list {
		if m, ok := el.(map[string]any); ok {
			children = append(children, Record(m))
		}
	}
	return children
}

// Time parses the first present key as an ISO-8601 timestamp and returns it
// in UTC. Zone-less values are taken as UTC. Missing and malformed values
// are distinct FieldErrors.
func (r Record) Time(keys ...string) (time.Time, error) {
	for _, key := range keys {
		v, ok := r[key]
		if !ok {
			continue
		}
		s, ok := v.(string)
		if !ok || s == "" {
			return time.Time{}, &FieldError{Field: key, Reason: "invalid timestamp"}
		}
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t.UTC(), nil
			}
		}
		return time.Time{}, &FieldError{Field: key, Reason: "invalid timestamp"}
	}
	return time.Time{}, &FieldError{Field: keys[0], Reason: "missing"}
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// FlattenNested unwraps one level of provider envelope drift. When the first
// record carries none of the identity keys but does carry listKey, every
// record's listKey children replace the envelope records.
func FlattenNested(records []Record, identityKeys []string, listKey string) []Record {
	if len(records) == 0 {
		return records
	}
	first := records[0]
	for _, key := range identityKeys {
		if first.Has(key) {
			return records
		}
	}
	if !first.Has(listKey) {
		return records
	}
	flattened := make([]Record, 0, len(records))
	for _, rec := range records {
		flattened = append(flattened, rec.ChildList(listKey)...)
	}
	return flattened
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, false
		}
		return i, true
	}
	return 0, false
}
