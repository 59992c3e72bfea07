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
	"fmt"
	"os"
	"sort"

	"github.com/goccy/go-yaml"
)

// FileSource loads field definitions from a YAML document (JSON is accepted
// too, being a YAML subset). This is the format the admin tooling exports.
//
// Document shape:
//
//	sections:
//	  about:
//	    order: 1
//	    fields:
//	      company_name:
//	        type: text
//	        required: true
//	        order: 1
//	        rules:
//	          min_length: 2
//	          max_length: 120
type FileSource struct {
	path string
	data []byte
}

// NewFileSource creates a [FileSource] that reads the given path on every
// load, so schema edits are picked up by the next cache refresh.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// NewFileSourceContent creates a [FileSource] over raw document bytes.
// Useful for embedded schemas.
func NewFileSourceContent(data []byte) *FileSource {
	return &FileSource{data: data}
}

// fileDocument mirrors the on-disk schema document.
type fileDocument struct {
	Sections map[string]fileSection `yaml:"sections"`
}

type fileSection struct {
	Order  int                  `yaml:"order"`
	Fields map[string]fileField `yaml:"fields"`
}

type fileField struct {
	Type     string         `yaml:"type"`
	Required bool           `yaml:"required"`
	Order    int            `yaml:"order"`
	Rules    map[string]any `yaml:"rules"`
}

// LoadFieldDefinitions reads and decodes the document into ordered rows.
// Sections and fields are ordered by their explicit order hints; the section
// hint dominates so all fields of one section stay contiguous.
func (f *FileSource) LoadFieldDefinitions(context.Context) ([]Row, error) {
	data := f.data
	if f.path != "" {
		var err error
		data, err = os.ReadFile(f.path)
		if err != nil {
			return nil, fmt.Errorf("read schema file: %w", err)
		}
	}

	var doc fileDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode schema file: %w", err)
	}

	var rows []Row
	for sectionName, section := range doc.Sections {
		for fieldName, field := range section.Fields {
			var rules json.RawMessage
			if field.Rules != nil {
				encoded, err := json.Marshal(field.Rules)
				if err != nil {
					return nil, fmt.Errorf("encode rules for %s.%s: %w", sectionName, fieldName, err)
				}
				rules = encoded
			}

			rows = append(rows, Row{
				Section:      sectionName,
				Field:        fieldName,
				Type:         field.Type,
				Required:     field.Required,
				Rules:        rules,
				DisplayOrder: section.Order*orderStride + field.Order,
			})
		}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].DisplayOrder != rows[j].DisplayOrder {
			return rows[i].DisplayOrder < rows[j].DisplayOrder
		}
		if rows[i].Section != rows[j].Section {
			return rows[i].Section < rows[j].Section
		}

		return rows[i].Field < rows[j].Field
	})

	return rows, nil
}

// orderStride spaces section order hints apart so field hints never cross
// section boundaries.
const orderStride = 1 << 16
