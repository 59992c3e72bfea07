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

package schema

import "errors"

// Predefined schema errors.
var (
	// ErrEmptySchema is returned when the source yields zero field
	// definitions. An empty schema must never be used as "no validation".
	ErrEmptySchema = errors.New("schema source returned no field definitions")

	// ErrInvalidDefinition is returned when a field definition row is
	// malformed: unknown field type, bad rules JSON, or rules that do not
	// apply to the declared type.
	ErrInvalidDefinition = errors.New("invalid field definition")
)

// LoadError wraps any failure to fetch or build the schema. It is the fatal
// tier of the error model: callers must abort the operation (a 5xx-class
// condition), never fall back to validating against a partial or empty
// schema.
//
// Use errors.As to detect it, and errors.Is with [ErrEmptySchema] or
// [ErrInvalidDefinition] for specific causes.
type LoadError struct {
	Err error
}

// Error returns the formatted message.
func (e *LoadError) Error() string {
	return "load schema: " + e.Err.Error()
}

// Unwrap returns the underlying cause.
func (e *LoadError) Unwrap() error {
	return e.Err
}
