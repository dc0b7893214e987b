// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package records

import (
	"encoding/json"
	"math"
	"strconv"
)

// normalizeNumber re-renders a decoded JSON number in the shortest form a
// JSON serializer would write for the same double: 1.50 becomes 1.5, 1e2
// becomes 100, and -0 becomes 0. Values out of double range become null.
func normalizeNumber(n json.Number) any {
	f, err := strconv.ParseFloat(string(n), 64)
	if err != nil && !math.IsInf(f, 0) {
		return n
	}
	return floatNumber(f)
}

// floatNumber renders f the way JSON.stringify would. NaN and the
// infinities have no JSON form and become null.
func floatNumber(f float64) any {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	if f == 0 {
		return json.Number("0")
	}
	abs := math.Abs(f)
	format := byte('f')
	if abs < 1e-6 || abs >= 1e21 {
		format = 'e'
	}
	s := strconv.FormatFloat(f, format, -1, 64)
	if format == 'e' {
		// 1e-07 -> 1e-7
		n := len(s)
		if n >= 4 && s[n-4] == 'e' && (s[n-3] == '-' || s[n-3] == '+') && s[n-2] == '0' {
			s = s[:n-2] + s[n-1:]
		}
	}
	return json.Number(s)
}
