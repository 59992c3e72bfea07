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

import (
	"context"
	"encoding/json"
)

// Row is one field definition as delivered by a [Source]: the section, field
// name, raw type tag, required flag, the undecoded rules JSON, and a
// display-order hint.
type Row struct {
	Section      string          `json:"section"`
	Field        string          `json:"field_name"`
	Type         string          `json:"field_type"`
	Required     bool            `json:"required"`
	Rules        json.RawMessage `json:"rules,omitempty"`
	DisplayOrder int             `json:"display_order"`
}

// Source delivers field definition rows from an external system (the
// platform's field_definitions table, an admin API, or a file).
//
// LoadFieldDefinitions must be safe to call concurrently. Returning zero rows
// or a row with malformed rules causes the whole load to fail; the provider
// never installs a partial schema.
type Source interface {
	LoadFieldDefinitions(ctx context.Context) ([]Row, error)
}

// StaticSource serves a fixed set of rows from memory. It is useful for
// tests and for embedding a schema into a binary.
type StaticSource struct {
	rows []Row
}

// NewStaticSource creates a [StaticSource] over the given rows.
// The slice is not copied; callers must not mutate it afterwards.
func NewStaticSource(rows []Row) *StaticSource {
	return &StaticSource{rows: rows}
}

// LoadFieldDefinitions returns the configured rows.
func (s *StaticSource) LoadFieldDefinitions(context.Context) ([]Row, error) {
	return s.rows, nil
}

// SourceFunc adapts a function to the [Source] interface.
type SourceFunc func(ctx context.Context) ([]Row, error)

// LoadFieldDefinitions calls the function.
func (f SourceFunc) LoadFieldDefinitions(ctx context.Context) ([]Row, error) {
	return f(ctx)
}
