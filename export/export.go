// Package export converts stored records to JSON
package export

import (
	"bytes"
	"encoding/json"
	"sort"

	"github.com/kjk/weatherlog/record"

	"github.com/tidwall/pretty"
)

// orderedRecord marshals fields in record.Fields order,
// followed by other keys sorted by name
type orderedRecord record.Record

func (r orderedRecord) MarshalJSON() ([]byte, error) {
	var extra []string
	for k := range r {
		if !record.IsField(k) {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	keys := append(append([]string{}, record.Fields...), extra...)

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeJSON(&buf, k); err != nil {
			return nil, err
		}
		buf.WriteByte(':')
		if err := writeJSON(&buf, r[k]); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeJSON(buf *bytes.Buffer, s string) error {
	enc := json.NewEncoder(buf)
	// avoid unnecessary escaping
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	// Encode adds a newline
	buf.Truncate(buf.Len() - 1)
	return nil
}

// JSON returns records as an indented JSON array. Every object has all
// fixed fields (empty if missing), in order.
func JSON(records []record.Record) ([]byte, error) {
	a := make([]orderedRecord, len(records))
	for i, r := range records {
		a[i] = orderedRecord(r)
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	// also applies to output of orderedRecord.MarshalJSON
	enc.SetEscapeHTML(false)
	if err := enc.Encode(a); err != nil {
		return nil, err
	}
	return pretty.Pretty(buf.Bytes()), nil
}
