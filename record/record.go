package record

import (
	"errors"
	"fmt"
	"strings"
)

/*
A record is a flat list of key/value pairs serialized as a single line:

	day=Mon|condition=sunny|high=21|low=12

'|' separates fields and can't appear in values. There is no escaping.
*/

const (
	fieldSep = "|"
	kvSep    = "="
)

// Fields is the fixed set of fields, in the order they are encoded
var Fields = []string{"day", "condition", "high", "low"}

var (
	// ErrInvalidItem is returned by ParseInput for an item without '='
	ErrInvalidItem = errors.New("invalid item")
	// ErrUnknownField is returned by ParseInput for a key not in Fields
	ErrUnknownField = errors.New("unknown field")
	// ErrInvalidValue is returned by ParseInput for a value containing '|'
	ErrInvalidValue = errors.New("invalid value")
	// ErrMalformedSegment is returned by Decode for a segment without '='
	ErrMalformedSegment = errors.New("malformed segment")
)

// Record maps field name to its value
type Record map[string]string

// IsField returns true if name is one of Fields
func IsField(name string) bool {
	for _, f := range Fields {
		if f == name {
			return true
		}
	}
	return false
}

// Encode serializes r as a single line (without trailing newline).
// Always writes all Fields, in order. Keys not in Fields are dropped.
func Encode(r Record) string {
	var sb strings.Builder
	for i, k := range Fields {
		if i > 0 {
			sb.WriteString(fieldSep)
		}
		sb.WriteString(k)
		sb.WriteString(kvSep)
		sb.WriteString(r[k])
	}
	return sb.String()
}

// Decode parses a line created by Encode.
// Empty segments are skipped so that a trailing or doubled '|' is fine.
// Unlike ParseInput it accepts any key and doesn't fill in missing fields,
// so hand-edited lines load as they are.
func Decode(line string) (Record, error) {
	res := Record{}
	parts := strings.Split(strings.TrimSpace(line), fieldSep)
	for _, part := range parts {
		if part == "" {
			continue
		}
		k, v, ok := strings.Cut(part, kvSep)
		if !ok {
			return nil, fmt.Errorf("%w: '%s'", ErrMalformedSegment, part)
		}
		res[k] = v
	}
	return res, nil
}

// ParseInput builds a record from command-line items in key=value form.
// A later item for the same key overrides an earlier one.
// Fields that were not provided are set to empty string.
func ParseInput(items []string) (Record, error) {
	res := Record{}
	for _, item := range items {
		k, v, ok := strings.Cut(item, kvSep)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrInvalidItem, item)
		}
		if !IsField(k) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownField, k)
		}
		if strings.Contains(v, fieldSep) {
			return nil, fmt.Errorf("%w: value of '%s' may not contain '%s'", ErrInvalidValue, k, fieldSep)
		}
		res[k] = v
	}
	for _, f := range Fields {
		if _, ok := res[f]; !ok {
			res[f] = ""
		}
	}
	return res, nil
}

// Get returns the value of a field and true if it's present
func (r Record) Get(key string) (string, bool) {
	v, ok := r[key]
	return v, ok
}
