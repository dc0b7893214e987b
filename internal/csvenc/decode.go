// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package csvenc

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pdiddy/records2csv/internal/records"
	"github.com/pdiddy/records2csv/pkg/types"
)

// Decode parses text produced by Encode. Empty fields decode to nil; every
// other field must hold exactly one JSON value. Commas inside JSON strings,
// arrays, and objects are not field separators.
func Decode(text string) ([]string, [][]any, error) {
	lines := strings.Split(text, RowSep)

	var header []string
	if lines[0] != "" {
		header = strings.Split(lines[0], FieldSep)
	} else {
		header = []string{}
	}

	rows := make([][]any, 0, len(lines)-1)
	for i, line := range lines[1:] {
		row, err := splitFields(line, len(header))
		if err != nil {
			return nil, nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		rows = append(rows, row)
	}
	return header, rows, nil
}

// DecodeObjects parses text and rebuilds one object per row with the header
// as its keys. Empty fields come back as nil values.
func DecodeObjects(text string) ([]*types.Object, error) {
	header, rows, err := Decode(text)
	if err != nil {
		return nil, err
	}
	out := make([]*types.Object, len(rows))
	for i, r := range rows {
		obj := types.NewObject()
		for j, h := range header {
			obj.Set(h, r[j])
		}
		out[i] = obj
	}
	return out, nil
}

func splitFields(line string, want int) ([]any, error) {
	if want == 0 {
		if line != "" {
			return nil, fmt.Errorf("%w: header is empty but row is %q", ErrFieldCount, line)
		}
		return []any{}, nil
	}

	out := make([]any, 0, want)
	pos := 0
	for {
		if pos == len(line) || line[pos] == ',' {
			out = append(out, nil)
		} else {
			dec := json.NewDecoder(strings.NewReader(line[pos:]))
			dec.UseNumber()
			v, err := records.DecodeValue(dec)
			if err != nil {
				return nil, fmt.Errorf("field %d: %w", len(out)+1, err)
			}
			out = append(out, v)
			pos += int(dec.InputOffset())
		}

		if pos == len(line) {
			break
		}
		if line[pos] != ',' {
			return nil, fmt.Errorf("field %d: unexpected %q after value", len(out), line[pos])
		}
		pos++
	}

	if len(out) != want {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrFieldCount, len(out), want)
	}
	return out, nil
}
