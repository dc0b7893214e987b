// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package csvenc serializes record sets to CSV text and parses that text back.
//
// The header is the key list of the first record, with integer-like keys
// first in ascending order as JavaScript objects list them. Each field is the JSON
// rendering of the record's value with nulls replaced by the empty string;
// a top-level null or a missing key yields an empty field. Fields are joined
// with "," and rows with "\r\n", header first, with no trailing separator.
package csvenc

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/pdiddy/records2csv/pkg/types"
)

const (
	// FieldSep separates fields within a row.
	FieldSep = ","
	// RowSep separates rows.
	RowSep = "\r\n"
)

var (
	// ErrNoRecords is returned when there is no first record to take the
	// header from.
	ErrNoRecords = errors.New("no records")
	// ErrFieldCount is returned by Decode when a row's field count differs
	// from the header's.
	ErrFieldCount = errors.New("wrong number of fields")
)

// Header returns the key list of the first record.
func Header(recs []*types.Object) ([]string, error) {
	if len(recs) == 0 {
		return nil, ErrNoRecords
	}
	return recs[0].Keys(), nil
}

// Encode builds the CSV document for recs.
func Encode(recs []*types.Object) (string, error) {
	header, err := Header(recs)
	if err != nil {
		return "", err
	}

	lines := make([]string, 0, len(recs)+1)
	lines = append(lines, strings.Join(header, FieldSep))

	fields := make([]string, len(header))
	for i, rec := range recs {
		for j, name := range header {
			v, _ := rec.Get(name)
			f, err := FormatField(v)
			if err != nil {
				return "", fmt.Errorf("row %d, field %q: %w", i, name, err)
			}
			fields[j] = f
		}
		lines = append(lines, strings.Join(fields, FieldSep))
	}

	return strings.Join(lines, RowSep), nil
}

// FormatField renders a single value. nil renders as the empty string;
// everything else is compact JSON with nested nulls replaced by "".
func FormatField(v any) (string, error) {
	if v == nil {
		return "", nil
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(replaceNulls(v)); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// replaceNulls returns a copy of v with every nested nil swapped for "".
func replaceNulls(v any) any {
	switch t := v.(type) {
	case nil:
		return ""
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = replaceNulls(e)
		}
		return out
	case *types.Object:
		out := types.NewObject()
		for _, k := range t.Keys() {
			e, _ := t.Get(k)
			out.Set(k, replaceNulls(e))
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = replaceNulls(e)
		}
		return out
	default:
		return v
	}
}
