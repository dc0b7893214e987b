// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package records

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/records2csv/pkg/types"
)

// flatten turns records into plain slices of key/value pairs so go-cmp can
// diff them without reaching into Object's unexported fields.
func flatten(recs []*types.Object) [][][2]any {
	out := make([][][2]any, len(recs))
	for i, r := range recs {
		for _, k := range r.Keys() {
			v, _ := r.Get(k)
			if o, ok := v.(*types.Object); ok {
				data, _ := json.Marshal(o)
				v = string(data)
			}
			out[i] = append(out[i], [2]any{k, v})
		}
	}
	return out
}

func TestPlaceholder(t *testing.T) {
	recs := Placeholder()
	require.Len(t, recs, 2)
	for _, r := range recs {
		assert.Equal(t, 0, r.Len())
	}
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    [][][2]any
		wantErr error
		errMsg  string
	}{
		{
			name:  "keeps key order and normalizes numbers",
			input: `[{"b":1.50,"a":null},{"a":"x","b":true}]`,
			want: [][][2]any{
				{{"b", json.Number("1.5")}, {"a", nil}},
				{{"a", "x"}, {"b", true}},
			},
		},
		{
			name:  "nested values",
			input: `[{"o":{"y":1,"x":[null,"s"]},"l":[]}]`,
			want: [][][2]any{
				{{"o", `{"y":1,"x":[null,"s"]}`}, {"l", []any{}}},
			},
		},
		{
			name:  "empty objects",
			input: `[{},{}]`,
			want:  [][][2]any{nil, nil},
		},
		{
			name:  "empty array",
			input: ` [] `,
			want:  [][][2]any{},
		},
		{
			name:    "top level object",
			input:   `{"a":1}`,
			wantErr: ErrNotArray,
		},
		{
			name:    "non-object element",
			input:   `[{"a":1}, 5]`,
			wantErr: ErrNotObject,
			errMsg:  "index 1",
		},
		{
			name:   "trailing data",
			input:  `[{}] {}`,
			errMsg: "unexpected data after array",
		},
		{
			name:   "truncated",
			input:  `[{"a":`,
			errMsg: "parsing record 0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeJSON(strings.NewReader(tt.input))
			if tt.wantErr != nil || tt.errMsg != "" {
				require.Error(t, err)
				if tt.wantErr != nil {
					assert.ErrorIs(t, err, tt.wantErr)
				}
				if tt.errMsg != "" {
					assert.Contains(t, err.Error(), tt.errMsg)
				}
				return
			}
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, flatten(got)); diff != "" {
				t.Errorf("records mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDecodeYAML(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    [][][2]any
		wantErr error
	}{
		{
			name: "scalars map to JSON values",
			input: `
- name: ada
  age: 36
  ratio: 0.5
  big: 1000000.0
  active: yes_string
  ok: true
  missing: null
  blank:
`,
			want: [][][2]any{{
				{"name", "ada"},
				{"age", json.Number("36")},
				{"ratio", json.Number("0.5")},
				{"big", json.Number("1000000")},
				{"active", "yes_string"},
				{"ok", true},
				{"missing", nil},
				{"blank", nil},
			}},
		},
		{
			name: "keeps mapping order",
			input: `
- z: 1
  a: 2
- a: 3
`,
			want: [][][2]any{
				{{"z", json.Number("1")}, {"a", json.Number("2")}},
				{{"a", json.Number("3")}},
			},
		},
		{
			name: "aliases resolve",
			input: `
- &base {k: v}
- *base
`,
			want: [][][2]any{{{"k", "v"}}, {{"k", "v"}}},
		},
		{
			name:    "mapping at top level",
			input:   "a: 1\n",
			wantErr: ErrNotArray,
		},
		{
			name:    "scalar element",
			input:   "- 1\n",
			wantErr: ErrNotObject,
		},
		{
			name:    "empty document",
			input:   "",
			wantErr: ErrNotArray,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeYAML(strings.NewReader(tt.input))
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, flatten(got)); diff != "" {
				t.Errorf("records mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFloatNumber(t *testing.T) {
	tests := []struct {
		in   float64
		want any
	}{
		{0, json.Number("0")},
		{1.25, json.Number("1.25")},
		{1e20, json.Number("100000000000000000000")},
		{1e21, json.Number("1e+21")},
		{1e-7, json.Number("1e-7")},
		{0.000001, json.Number("0.000001")},
		{math.Copysign(0, -1), json.Number("0")},
		{-2.5e-8, json.Number("-2.5e-8")},
		{math.Inf(1), nil},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, floatNumber(tt.in), "floatNumber(%v)", tt.in)
	}
}

func TestDecodeJSON_NumberForms(t *testing.T) {
	tests := []struct {
		in   string
		want any
	}{
		{"1.50", json.Number("1.5")},
		{"-0", json.Number("0")},
		{"1e2", json.Number("100")},
		{"1E+2", json.Number("100")},
		{"0.10e1", json.Number("1")},
		{"9007199254740993", json.Number("9007199254740992")},
		{"123456789012345678901234", json.Number("1.2345678901234568e+23")},
		{"1e400", nil},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			recs, err := DecodeJSON(strings.NewReader(`[{"n":` + tt.in + `,"l":[` + tt.in + `]}]`))
			require.NoError(t, err)
			n, _ := recs[0].Get("n")
			assert.Equal(t, tt.want, n)
			l, _ := recs[0].Get("l")
			assert.Equal(t, []any{tt.want}, l)
		})
	}
}

func TestDecodeYAML_IntsMatchJSON(t *testing.T) {
	fromYAML, err := DecodeYAML(strings.NewReader("- n: 100\n  f: 1.50\n"))
	require.NoError(t, err)
	fromJSON, err := DecodeJSON(strings.NewReader(`[{"n":1e2,"f":1.50}]`))
	require.NoError(t, err)
	assert.Equal(t, flatten(fromJSON), flatten(fromYAML))
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "in.json")
	yamlPath := filepath.Join(dir, "in.YML")
	txtPath := filepath.Join(dir, "in.txt")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`[{"a":1}]`), 0o644))
	require.NoError(t, os.WriteFile(yamlPath, []byte("- a: 1\n"), 0o644))
	require.NoError(t, os.WriteFile(txtPath, []byte("a"), 0o644))

	for _, p := range []string{jsonPath, yamlPath} {
		recs, err := Load(p)
		require.NoError(t, err, p)
		require.Len(t, recs, 1)
		assert.Equal(t, []string{"a"}, recs[0].Keys())
	}

	_, err := Load(txtPath)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = Load(filepath.Join(dir, "missing.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "opening input")
}

func TestIsSupported(t *testing.T) {
	assert.True(t, IsSupported("a.json"))
	assert.True(t, IsSupported("a.yaml"))
	assert.True(t, IsSupported("dir/a.YML"))
	assert.False(t, IsSupported("a.csv"))
	assert.False(t, IsSupported("json"))
}
