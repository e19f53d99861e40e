// internal/domain/models/record.go
package models

import (
	"fmt"
	"strconv"
)

// Record is one item within a content collection.
//
// Content records are schemaless: each collection carries its own domain
// fields (title, description, date, images, ...) alongside a string
// identifier stored under the collection's IDField. Records round-trip
// through JSON unchanged, so unknown fields written by the admin UI are
// preserved.
type Record map[string]any

// String returns the named field as a string. Missing and null fields
// yield "". Numbers are formatted without a trailing ".0" so that ids
// decoded from JSON compare the way they were written.
func (r Record) String(field string) string {
	v, ok := r[field]
	if !ok || v == nil {
		return ""
	}
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case int:
		return strconv.Itoa(s)
	case int64:
		return strconv.FormatInt(s, 10)
	default:
		return fmt.Sprint(v)
	}
}

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
