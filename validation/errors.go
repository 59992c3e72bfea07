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
	"errors"
	"fmt"
	"strings"
)

// ErrValidation is a sentinel error for field-level validation failures.
// Use errors.Is(err, ErrValidation) to check if an error is a validation
// error.
var ErrValidation = errors.New("validation")

// Stable error codes carried by [FieldError].
const (
	CodeRequired     = "required"
	CodeType         = "type"
	CodeMinLength    = "min_length"
	CodeMaxLength    = "max_length"
	CodePattern      = "pattern"
	CodeMin          = "min"
	CodeMax          = "max"
	CodeNoFuture     = "no_future"
	CodeURL          = "url"
	CodeProtocol     = "protocol"
	CodeEmail        = "email"
	CodePhone        = "phone"
	CodeCountryCode  = "country_code"
	CodeEnum         = "enum"
	CodeMaxItems     = "max_items"
	CodeRequiredKeys = "required_keys"
	CodeExtension    = "extension"
	CodeEmptyPayload = "empty_payload"
)

// FieldError is a single validation error for a specific field.
// Multiple FieldError values are collected in an [Error].
type FieldError struct {
	Path    string `json:"field_path"` // Dotted/bracketed path (e.g. "technologies[2]")
	Code    string `json:"code"`       // Stable code (e.g. "required", "max_items")
	Message string `json:"message"`    // Human-readable message
}

// Error returns "path: message", or just the message if the path is empty.
func (e FieldError) Error() string {
	if e.Path == "" {
		return e.Message
	}

	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// Unwrap returns [ErrValidation] for errors.Is/errors.As compatibility.
func (e FieldError) Unwrap() error {
	return ErrValidation
}

// Error collects the field errors of one validation pass. The engine never
// short-circuits: every offending field is reported, so callers can surface
// the whole list in a single round trip.
//
//nolint:recvcheck // Error must use value receiver for error interface compatibility, mutating methods use pointer
type Error struct {
	Fields []FieldError `json:"errors"`
}

// Error returns a formatted error message.
func (v Error) Error() string {
	if len(v.Fields) == 0 {
		return ""
	}
	if len(v.Fields) == 1 {
		return v.Fields[0].Error()
	}

	msgs := make([]string, 0, len(v.Fields))
	for _, err := range v.Fields {
		msgs = append(msgs, err.Error())
	}

	return "validation failed: " + strings.Join(msgs, "; ")
}

// Unwrap returns [ErrValidation] for errors.Is/errors.As compatibility.
func (v Error) Unwrap() error {
	return ErrValidation
}

// HTTPStatus reports the status callers should map this error to.
func (v Error) HTTPStatus() int {
	return 422 // Unprocessable Entity
}

// Code returns a stable machine-readable identifier for the error class.
func (v Error) Code() string {
	return "validation_error"
}

// Details returns the field errors for structured serialization.
func (v Error) Details() any {
	return v.Fields
}

// Add appends a new [FieldError].
func (v *Error) Add(path, code, message string) {
	v.Fields = append(v.Fields, FieldError{Path: path, Code: code, Message: message})
}

// Append merges field errors into the collection, preserving order.
func (v *Error) Append(errs ...FieldError) {
	v.Fields = append(v.Fields, errs...)
}

// HasErrors returns true if there are any errors.
func (v Error) HasErrors() bool {
	return len(v.Fields) > 0
}

// Has checks if a specific field path has an error.
func (v Error) Has(path string) bool {
	for _, f := range v.Fields {
		if f.Path == path {
			return true
		}
	}

	return false
}

// HasCode returns true if any error carries the given code.
func (v Error) HasCode(code string) bool {
	for _, f := range v.Fields {
		if f.Code == code {
			return true
		}
	}

	return false
}

// GetField returns the first [FieldError] for a path, or nil.
func (v Error) GetField(path string) *FieldError {
	for _, f := range v.Fields {
		if f.Path == path {
			return &f
		}
	}

	return nil
}
