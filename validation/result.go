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

	"dario.cat/mergo"
)

// Result is the outcome of one validation pass.
type Result struct {
	// Valid is true when the error list is empty. Callers must only persist
	// Sanitized when Valid is true.
	Valid bool `json:"valid"`

	// Errors lists every field that failed, in schema order.
	Errors []FieldError `json:"errors"`

	// Sanitized contains only the fields that passed validation or received
	// a default, in canonical form. In partial mode, untouched fields are
	// absent so callers can merge against stored data with [MergePatch].
	Sanitized map[string]any `json:"sanitized"`
}

// Err returns the errors as a single *[Error], or nil when valid.
// Convenient for handlers that propagate validation failures as Go errors.
func (r *Result) Err() error {
	if r.Valid {
		return nil
	}

	return &Error{Fields: r.Errors}
}

// MergePatch deep-merges a partial-mode sanitized map over an existing
// stored profile document and returns the merged copy. Neither input is
// mutated. Values from sanitized win; nested objects (such as
// privacy_settings) are merged key by key rather than replaced wholesale.
//
// Example:
//
//	result, _ := engine.Validate(ctx, patch, validation.ModePartial)
//	if result.Valid {
//	    merged, _ := validation.MergePatch(stored, result.Sanitized)
//	    save(merged)
//	}
func MergePatch(existing, sanitized map[string]any) (map[string]any, error) {
	merged := make(map[string]any)

	if err := mergo.Merge(&merged, existing, mergo.WithOverride); err != nil {
		return nil, fmt.Errorf("copy existing document: %w", err)
	}
	if err := mergo.Merge(&merged, sanitized, mergo.WithOverride); err != nil {
		return nil, fmt.Errorf("apply sanitized patch: %w", err)
	}

	return merged, nil
}
