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
	"fmt"
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cast"

	"github.com/profilekit-dev/profilefields/schema"
)

// Rule validators check a sanitized value against its field's declared
// constraints. Each returns zero or more field errors and never aborts the
// pass; the engine merges them into the aggregate list.

// Format patterns for phone and country code fields.
var (
	reInternationalPhone = regexp.MustCompile(`^\+?[1-9]\d{1,14}$`)
	reCountryCode        = regexp.MustCompile(`^[A-Z]{2}$`)
)

// Shared go-playground validator for single-value format checks
// (email, http_url).
var (
	formatValidator     *validator.Validate
	formatValidatorOnce sync.Once
)

func formats() *validator.Validate {
	formatValidatorOnce.Do(func() {
		formatValidator = validator.New(validator.WithRequiredStructEnabled())
	})

	return formatValidator
}

// isEmail reports whether s is a well-formed email address.
func isEmail(s string) bool {
	return formats().Var(s, "email") == nil
}

// isHTTPURL reports whether s is a well-formed absolute http(s) URL.
func isHTTPURL(s string) bool {
	return formats().Var(s, "http_url") == nil
}

// message prefers the field's custom message over the generated default.
func message(custom, generated string) string {
	if custom != "" {
		return custom
	}

	return generated
}

// typeError builds the "wrong type" error for a field.
func typeError(path, custom, want string) FieldError {
	return FieldError{
		Path:    path,
		Code:    CodeType,
		Message: message(custom, fmt.Sprintf("%s must be %s", path, want)),
	}
}

// formatNumber renders a float without a trailing ".0" for whole values.
func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// validateText checks length bounds and the pattern rule for text and
// rich_text fields.
func validateText(path, s string, r *schema.TextRules, custom string) []FieldError {
	var errs []FieldError

	length := utf8.RuneCountInString(s)
	if r.MinLength != nil && length < *r.MinLength {
		errs = append(errs, FieldError{
			Path:    path,
			Code:    CodeMinLength,
			Message: message(custom, fmt.Sprintf("%s must be at least %d characters", path, *r.MinLength)),
		})
	}
	if r.MaxLength != nil && length > *r.MaxLength {
		errs = append(errs, FieldError{
			Path:    path,
			Code:    CodeMaxLength,
			Message: message(custom, fmt.Sprintf("%s must be at most %d characters", path, *r.MaxLength)),
		})
	}
	if !r.PatternMatches(s) {
		errs = append(errs, FieldError{
			Path:    path,
			Code:    CodePattern,
			Message: message(custom, fmt.Sprintf("%s is not in the expected format", path)),
		})
	}

	return errs
}

// validateEmail checks the declared pattern when present, or the standard
// email format otherwise.
func validateEmail(path, s string, r *schema.EmailRules, custom string) []FieldError {
	if r.HasPattern() {
		if !r.PatternMatches(s) {
			return []FieldError{{
				Path:    path,
				Code:    CodePattern,
				Message: message(custom, fmt.Sprintf("%s is not in the expected format", path)),
			}}
		}

		return nil
	}

	if !isEmail(s) {
		return []FieldError{{
			Path:    path,
			Code:    CodeEmail,
			Message: message(custom, fmt.Sprintf("%s must be a valid email address", path)),
		}}
	}

	return nil
}

// validateURL checks the protocol requirement and URL well-formedness.
func validateURL(path, s string, r *schema.URLRules, custom string) []FieldError {
	if r.MustHaveProtocol {
		if !strings.HasPrefix(s, "http://") && !strings.HasPrefix(s, "https://") {
			return []FieldError{{
				Path:    path,
				Code:    CodeProtocol,
				Message: message(custom, fmt.Sprintf("%s must start with http:// or https://", path)),
			}}
		}
		if !isHTTPURL(s) {
			return []FieldError{{
				Path:    path,
				Code:    CodeURL,
				Message: message(custom, fmt.Sprintf("%s must be a valid URL", path)),
			}}
		}

		return nil
	}

	u, err := url.Parse(s)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return []FieldError{{
			Path:    path,
			Code:    CodeURL,
			Message: message(custom, fmt.Sprintf("%s must be a valid absolute URL", path)),
		}}
	}

	return nil
}

// validatePhone checks the international phone format.
func validatePhone(path, s string, custom string) []FieldError {
	if !reInternationalPhone.MatchString(s) {
		return []FieldError{{
			Path:    path,
			Code:    CodePhone,
			Message: message(custom, fmt.Sprintf("%s must be a valid international phone number", path)),
		}}
	}

	return nil
}

// validateNumber checks numeric bounds. Symbolic bounds resolve against now,
// not against schema load time.
func validateNumber(path string, n float64, r *schema.NumberRules, custom string, now time.Time) []FieldError {
	if math.IsNaN(n) { // empty numeric input sanitizes to NaN
		return []FieldError{typeError(path, custom, "a number")}
	}

	var errs []FieldError
	if r.Min != nil {
		if minimum := r.Min.Resolve(now); n < minimum {
			errs = append(errs, FieldError{
				Path:    path,
				Code:    CodeMin,
				Message: message(custom, fmt.Sprintf("%s must be at least %s", path, formatNumber(minimum))),
			})
		}
	}
	if r.Max != nil {
		if maximum := r.Max.Resolve(now); n > maximum {
			errs = append(errs, FieldError{
				Path:    path,
				Code:    CodeMax,
				Message: message(custom, fmt.Sprintf("%s must be at most %s", path, formatNumber(maximum))),
			})
		}
	}

	return errs
}

// validateDate enforces no_future: the value must parse to a date no later
// than now. Without the rule, any string passes.
func validateDate(path, s string, r *schema.DateRules, custom string, now time.Time) []FieldError {
	if !r.NoFuture {
		return nil
	}

	t, err := cast.StringToDate(s)
	if err != nil {
		return []FieldError{{
			Path:    path,
			Code:    CodeType,
			Message: message(custom, fmt.Sprintf("%s must be a valid date", path)),
		}}
	}
	if t.After(now) {
		return []FieldError{{
			Path:    path,
			Code:    CodeNoFuture,
			Message: message(custom, fmt.Sprintf("%s must not be in the future", path)),
		}}
	}

	return nil
}

// validateEnum checks membership case-insensitively. The error message lists
// every allowed value and echoes the received value verbatim.
func validateEnum(path, s string, r *schema.EnumRules, custom string) []FieldError {
	if len(r.Values) == 0 {
		return nil
	}

	for _, allowed := range r.Values {
		if strings.EqualFold(s, allowed) {
			return nil
		}
	}

	return []FieldError{{
		Path: path,
		Code: CodeEnum,
		Message: message(custom, fmt.Sprintf("%s must be one of [%s]; received %q",
			path, strings.Join(r.Values, ", "), s)),
	}}
}

// validateCountryCode requires exactly two uppercase ASCII letters.
func validateCountryCode(path, s string, custom string) []FieldError {
	if !reCountryCode.MatchString(s) {
		return []FieldError{{
			Path:    path,
			Code:    CodeCountryCode,
			Message: message(custom, fmt.Sprintf("%s must be a two-letter uppercase country code", path)),
		}}
	}

	return nil
}

// validateField runs the full sanitize → validate pipeline for one field and
// returns the canonical value. On any error the value is nil and must not be
// merged into the sanitized output.
//
// The type switch is exhaustive over the schema's constraint union; a new
// field type cannot ship without a case here.
func validateField(path string, def schema.FieldDefinition, raw any, now time.Time) (any, []FieldError) {
	switch r := def.Rules.(type) {
	case *schema.TextRules:
		s, ok := sanitizeString(raw, r.TrimEnabled())
		if !ok {
			return nil, []FieldError{typeError(path, def.Message, "a string")}
		}
		if errs := validateText(path, s, r, def.Message); len(errs) > 0 {
			return nil, errs
		}

		return s, nil

	case *schema.EmailRules:
		s, ok := sanitizeEmail(raw)
		if !ok {
			return nil, []FieldError{typeError(path, def.Message, "a string")}
		}
		if errs := validateEmail(path, s, r, def.Message); len(errs) > 0 {
			return nil, errs
		}

		return s, nil

	case *schema.URLRules:
		s, ok := sanitizeURL(raw)
		if !ok {
			return nil, []FieldError{typeError(path, def.Message, "a string")}
		}
		if errs := validateURL(path, s, r, def.Message); len(errs) > 0 {
			return nil, errs
		}

		return s, nil

	case *schema.PhoneRules:
		s, ok := sanitizePhone(raw)
		if !ok {
			return nil, []FieldError{typeError(path, def.Message, "a string")}
		}
		if errs := validatePhone(path, s, def.Message); len(errs) > 0 {
			return nil, errs
		}

		return s, nil

	case *schema.NumberRules:
		n, ok := sanitizeNumber(raw)
		if !ok {
			return nil, []FieldError{typeError(path, def.Message, "a number")}
		}
		if errs := validateNumber(path, n, r, def.Message, now); len(errs) > 0 {
			return nil, errs
		}

		return n, nil

	case *schema.BooleanRules:
		b, ok := sanitizeBool(raw)
		if !ok {
			return nil, []FieldError{typeError(path, def.Message, "a boolean")}
		}

		return b, nil

	case *schema.DateRules:
		s, ok := sanitizeDate(raw)
		if !ok {
			return nil, []FieldError{typeError(path, def.Message, "a string")}
		}
		if errs := validateDate(path, s, r, def.Message, now); len(errs) > 0 {
			return nil, errs
		}

		return s, nil

	case *schema.EnumRules:
		s, ok := sanitizeString(raw, r.TrimEnabled())
		if !ok {
			return nil, []FieldError{typeError(path, def.Message, "a string")}
		}
		if errs := validateEnum(path, s, r, def.Message); len(errs) > 0 {
			return nil, errs
		}

		return s, nil

	case *schema.ArrayRules:
		arr, ok := sanitizeArray(raw)
		if !ok {
			return nil, []FieldError{typeError(path, def.Message, "an array")}
		}

		return validateArrayItems(path, arr, r, def.Message)

	case *schema.JSONRules:
		obj, ok := sanitizeObject(raw)
		if !ok {
			return nil, []FieldError{typeError(path, def.Message, "an object")}
		}

		return validateFileMetadata(path, obj, r, def.Message)

	case *schema.CountryCodeRules:
		s, ok := sanitizeString(raw, true)
		if !ok {
			return nil, []FieldError{typeError(path, def.Message, "a string")}
		}
		if errs := validateCountryCode(path, s, def.Message); len(errs) > 0 {
			return nil, errs
		}

		return s, nil

	default:
		// Unreachable: the schema package rejects unknown field types at load.
		return nil, []FieldError{{
			Path:    path,
			Code:    CodeType,
			Message: fmt.Sprintf("%s has unsupported field type %q", path, def.Type),
		}}
	}
}
