// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package records loads record sets from JSON or YAML documents. A record set
// is an array of objects; every object keeps the key order of its source so
// the CSV header follows the document rather than Go's map ordering.
package records

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/records2csv/pkg/types"
)

var (
	// ErrNotArray is returned when the document's top level is not an array.
	ErrNotArray = errors.New("top-level value is not an array")
	// ErrNotObject is returned when an array element is not an object.
	ErrNotObject = errors.New("record is not an object")
	// ErrUnsupportedFormat is returned for input files with an unknown extension.
	ErrUnsupportedFormat = errors.New("unsupported input format")
)

// StdinPath is the input path that reads JSON from standard input.
const StdinPath = "-"

// Placeholder returns the built-in record set used when no input is given:
// two records with no fields.
func Placeholder() []*types.Object {
	return []*types.Object{types.NewObject(), types.NewObject()}
}

// Load reads a record set from path. The decoder is picked from the file
// extension; StdinPath reads JSON from os.Stdin.
func Load(path string) ([]*types.Object, error) {
	if path == StdinPath {
		return DecodeJSON(os.Stdin)
	}

	var decode func(io.Reader) ([]*types.Object, error)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		decode = DecodeJSON
	case ".yaml", ".yml":
		decode = DecodeYAML
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening input: %w", err)
	}
	defer f.Close()

	recs, err := decode(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return recs, nil
}

// IsSupported reports whether path has an extension Load can decode.
func IsSupported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	}
	return false
}

// DecodeJSON reads a JSON array of objects from r. Numbers are kept as
// json.Number in their shortest double form, so 1.50 and 1.5 read the same.
func DecodeJSON(r io.Reader) ([]*types.Object, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '[' {
		return nil, ErrNotArray
	}

	var out []*types.Object
	for i := 0; dec.More(); i++ {
		v, err := decodeValue(dec)
		if err != nil {
			return nil, fmt.Errorf("parsing record %d: %w", i, err)
		}
		obj, ok := v.(*types.Object)
		if !ok {
			return nil, fmt.Errorf("%w: index %d", ErrNotObject, i)
		}
		out = append(out, obj)
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("parsing JSON: unexpected data after array")
	}
	return out, nil
}

// DecodeValue reads exactly one JSON value from dec, building *types.Object
// for objects. dec should have UseNumber set.
func DecodeValue(dec *json.Decoder) (any, error) {
	return decodeValue(dec)
}

func decodeValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	d, ok := tok.(json.Delim)
	if !ok {
		if n, isNum := tok.(json.Number); isNum {
			return normalizeNumber(n), nil
		}
		return tok, nil
	}

	switch d {
	case '{':
		obj := types.NewObject()
		for dec.More() {
			kt, err := dec.Token()
			if err != nil {
				return nil, err
			}
			key, ok := kt.(string)
			if !ok {
				return nil, fmt.Errorf("object key is %T, not string", kt)
			}
			v, err := decodeValue(dec)
			if err != nil {
				return nil, err
			}
			obj.Set(key, v)
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return obj, nil
	case '[':
		arr := []any{}
		for dec.More() {
			v, err := decodeValue(dec)
			if err != nil {
				return nil, err
			}
			arr = append(arr, v)
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return arr, nil
	default:
		return nil, fmt.Errorf("unexpected delimiter %q", d)
	}
}
