// Copyright 2025 The ProfileKit Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package validation

import (
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/spf13/cast"
)

// Sanitizers coerce raw payload values into their canonical in-memory form.
// They never produce errors themselves: a shape that cannot be coerced is
// reported with ok=false and the rule validator turns it into a field error,
// so every problem for a field surfaces in the same pass.
//
// Sanitization is idempotent: feeding a canonical value back in yields the
// same value.

// sanitizeString coerces scalars to a string, optionally trimming.
// Maps, slices, and nil are not coercible.
func sanitizeString(raw any, trim bool) (string, bool) {
	if raw == nil {
		return "", false
	}

	s, err := cast.ToStringE(raw)
	if err != nil {
		return "", false
	}
	if trim {
		s = strings.TrimSpace(s)
	}

	return s, true
}

// sanitizeEmail trims and lower-cases.
func sanitizeEmail(raw any) (string, bool) {
	s, ok := sanitizeString(raw, true)
	if !ok {
		return "", false
	}

	return strings.ToLower(s), true
}

// sanitizeURL trims.
func sanitizeURL(raw any) (string, bool) {
	return sanitizeString(raw, true)
}

// sanitizePhone trims and strips internal whitespace, so "+31 6 1234 5678"
// and "+31612345678" normalize identically.
func sanitizePhone(raw any) (string, bool) {
	s, ok := sanitizeString(raw, true)
	if !ok {
		return "", false
	}

	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}

		return r
	}, s), true
}

// sanitizeDate trims; parsing happens in the rule validator.
func sanitizeDate(raw any) (string, bool) {
	return sanitizeString(raw, true)
}

// sanitizeNumber coerces to float64. Numeric strings are parsed; the empty
// string becomes NaN so it is reported as an error downstream, never treated
// as zero. Booleans never coerce to numbers.
func sanitizeNumber(raw any) (float64, bool) {
	switch v := raw.(type) {
	case nil, bool:
		return 0, false
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return math.NaN(), true
		}
		n, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return 0, false
		}

		return n, true
	default:
		n, err := cast.ToFloat64E(raw)
		if err != nil {
			return 0, false
		}

		return n, true
	}
}

// sanitizeBool requires an actual boolean; "true" and 1 are type errors.
func sanitizeBool(raw any) (bool, bool) {
	b, ok := raw.(bool)
	return b, ok
}

// sanitizeArray requires the input to already be an array.
func sanitizeArray(raw any) ([]any, bool) {
	arr, ok := raw.([]any)
	return arr, ok
}

// sanitizeObject requires a non-array JSON object.
func sanitizeObject(raw any) (map[string]any, bool) {
	obj, ok := raw.(map[string]any)
	return obj, ok
}
