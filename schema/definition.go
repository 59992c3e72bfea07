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
	"fmt"
	"sort"
)

// FieldType identifies the declared type of a profile field.
// The set of types is closed: [ParseFieldType] rejects anything else at load
// time, so validation code can switch exhaustively.
type FieldType string

// The closed set of field types.
const (
	TypeText        FieldType = "text"
	TypeRichText    FieldType = "rich_text"
	TypeEmail       FieldType = "email"
	TypeURL         FieldType = "url"
	TypePhone       FieldType = "phone"
	TypeNumber      FieldType = "number"
	TypeBoolean     FieldType = "boolean"
	TypeDate        FieldType = "date"
	TypeEnum        FieldType = "enum"
	TypeArray       FieldType = "array"
	TypeJSON        FieldType = "json"
	TypeCountryCode FieldType = "country_code"
)

// fieldTypes is the membership set backing [ParseFieldType].
var fieldTypes = map[FieldType]bool{
	TypeText:        true,
	TypeRichText:    true,
	TypeEmail:       true,
	TypeURL:         true,
	TypePhone:       true,
	TypeNumber:      true,
	TypeBoolean:     true,
	TypeDate:        true,
	TypeEnum:        true,
	TypeArray:       true,
	TypeJSON:        true,
	TypeCountryCode: true,
}

// ParseFieldType converts a raw type tag into a [FieldType].
// Unknown tags are rejected; they must fail schema load, not be silently
// accepted as unvalidated fields.
func ParseFieldType(s string) (FieldType, error) {
	ft := FieldType(s)
	if !fieldTypes[ft] {
		return "", fmt.Errorf("%w: unknown field type %q", ErrInvalidDefinition, s)
	}

	return ft, nil
}

// FieldDefinition is one declared field: its section, name, type, required
// flag, optional default, optional custom error message, and the typed
// constraint rules for its type.
type FieldDefinition struct {
	Section  string
	Name     string
	Type     FieldType
	Required bool

	// Default, when non-nil, is substituted verbatim for absent fields during
	// full validation. It bypasses sanitization and rule checks.
	Default any

	// Message, when non-empty, replaces every generated error message for
	// this field.
	Message string

	// Rules holds the type-specific constraints. Its concrete type always
	// corresponds to Type (e.g. *TextRules for text fields).
	Rules Constraint
}

// Section is an ordered group of field definitions.
type Section struct {
	Name   string
	Fields []FieldDefinition

	index map[string]int
}

// Field returns the definition with the given name.
func (s *Section) Field(name string) (FieldDefinition, bool) {
	i, ok := s.index[name]
	if !ok {
		return FieldDefinition{}, false
	}

	return s.Fields[i], true
}

// Schema is the full set of field definitions grouped by section, in display
// order. A Schema is immutable after construction and safe for concurrent
// reads.
type Schema struct {
	sections []Section
	index    map[string]int
}

// New builds a [Schema] from source rows.
//
// Rows are ordered by their display-order hint (stable within equal hints).
// Every row is fully decoded and checked: an unknown field type, malformed
// rules JSON, or a rule bag that fails its type's constraints aborts the
// whole load. Zero rows is an error.
func New(rows []Row) (*Schema, error) {
	if len(rows) == 0 {
		return nil, ErrEmptySchema
	}

	ordered := make([]Row, len(rows))
	copy(ordered, rows)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].DisplayOrder < ordered[j].DisplayOrder
	})

	s := &Schema{index: make(map[string]int)}
	for _, row := range ordered {
		def, err := decodeRow(row)
		if err != nil {
			return nil, fmt.Errorf("field %s.%s: %w", row.Section, row.Field, err)
		}

		i, ok := s.index[row.Section]
		if !ok {
			i = len(s.sections)
			s.index[row.Section] = i
			s.sections = append(s.sections, Section{
				Name:  row.Section,
				index: make(map[string]int),
			})
		}

		sec := &s.sections[i]
		if _, dup := sec.index[def.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate field %s.%s", ErrInvalidDefinition, row.Section, row.Field)
		}
		sec.index[def.Name] = len(sec.Fields)
		sec.Fields = append(sec.Fields, def)
	}

	return s, nil
}

// MustNew builds a [Schema] from rows, panicking on error.
// Use in tests or for embedded schemas known to be valid.
func MustNew(rows []Row) *Schema {
	s, err := New(rows)
	if err != nil {
		panic(fmt.Sprintf("schema.MustNew: %v", err))
	}

	return s
}

// Sections returns section names in display order.
func (s *Schema) Sections() []string {
	names := make([]string, len(s.sections))
	for i, sec := range s.sections {
		names[i] = sec.Name
	}

	return names
}

// Section returns the named section.
func (s *Schema) Section(name string) (*Section, bool) {
	i, ok := s.index[name]
	if !ok {
		return nil, false
	}

	return &s.sections[i], true
}

// Field returns the definition for section.name.
func (s *Schema) Field(section, name string) (FieldDefinition, bool) {
	sec, ok := s.Section(section)
	if !ok {
		return FieldDefinition{}, false
	}

	return sec.Field(name)
}

// Len returns the total number of field definitions.
func (s *Schema) Len() int {
	n := 0
	for _, sec := range s.sections {
		n += len(sec.Fields)
	}

	return n
}

// decodeRow turns one source row into a [FieldDefinition].
func decodeRow(row Row) (FieldDefinition, error) {
	ft, err := ParseFieldType(row.Type)
	if err != nil {
		return FieldDefinition{}, err
	}

	rules, def, msg, err := decodeConstraint(ft, row.Rules)
	if err != nil {
		return FieldDefinition{}, err
	}

	return FieldDefinition{
		Section:  row.Section,
		Name:     row.Field,
		Type:     ft,
		Required: row.Required,
		Default:  def,
		Message:  msg,
		Rules:    rules,
	}, nil
}
