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
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/spf13/cast"
)

// Constraint is the typed rule set of a field definition. Each [FieldType]
// has exactly one concrete Constraint type, so validation code can
// type-switch exhaustively instead of probing an untyped rule bag.
type Constraint interface {
	constraint()
}

// Symbolic numeric bound tokens. They resolve against the clock at
// validation time, not at schema load, so a cached schema stays correct
// across a year boundary.
const (
	TokenCurrentYear       = "current_year"
	TokenCurrentYearPlus10 = "current_year_plus_10"
)

// Bound is a numeric bound: either a literal value or a symbolic token.
type Bound struct {
	Value float64
	Token string
}

// Resolve returns the effective bound for the given time.
func (b Bound) Resolve(now time.Time) float64 {
	switch b.Token {
	case TokenCurrentYear:
		return float64(now.Year())
	case TokenCurrentYearPlus10:
		return float64(now.Year() + 10)
	}

	return b.Value
}

// TextRules constrains text and rich_text fields.
type TextRules struct {
	MinLength *int   `mapstructure:"min_length"`
	MaxLength *int   `mapstructure:"max_length"`
	Pattern   string `mapstructure:"pattern"`
	Trim      *bool  `mapstructure:"trim"`

	compiled *regexp.Regexp
}

// EmailRules constrains email fields.
type EmailRules struct {
	Pattern string `mapstructure:"pattern"`

	compiled *regexp.Regexp
}

// URLRules constrains url fields.
type URLRules struct {
	MustHaveProtocol bool `mapstructure:"must_have_protocol"`
}

// PhoneRules constrains phone fields (international E.164-style format).
type PhoneRules struct{}

// NumberRules constrains number fields. Bounds may be literal numbers or the
// symbolic tokens [TokenCurrentYear] / [TokenCurrentYearPlus10].
type NumberRules struct {
	Min *Bound `mapstructure:"min"`
	Max *Bound `mapstructure:"max"`
}

// BooleanRules constrains boolean fields. Booleans carry no extra rules.
type BooleanRules struct{}

// DateRules constrains date fields.
type DateRules struct {
	NoFuture bool `mapstructure:"no_future"`
}

// EnumRules constrains enum fields. Matching is case-insensitive after
// trimming.
type EnumRules struct {
	Values []string `mapstructure:"values"`
	Trim   *bool    `mapstructure:"trim"`
}

// ArrayRules constrains array fields. When ItemType is email or phone, every
// element is re-validated individually.
type ArrayRules struct {
	MaxItems *int      `mapstructure:"max_items"`
	ItemType FieldType `mapstructure:"item_type"`
}

// JSONRules constrains json fields carrying uploaded-file metadata.
type JSONRules struct {
	RequiredKeys      []string `mapstructure:"required_keys"`
	AllowedExtensions []string `mapstructure:"allowed_extensions"`
}

// CountryCodeRules constrains country_code fields (two uppercase ASCII
// letters). No extra rules.
type CountryCodeRules struct{}

func (*TextRules) constraint()        {}
func (*EmailRules) constraint()       {}
func (*URLRules) constraint()         {}
func (*PhoneRules) constraint()       {}
func (*NumberRules) constraint()      {}
func (*BooleanRules) constraint()     {}
func (*DateRules) constraint()        {}
func (*EnumRules) constraint()        {}
func (*ArrayRules) constraint()       {}
func (*JSONRules) constraint()        {}
func (*CountryCodeRules) constraint() {}

// TrimEnabled reports whether sanitization should trim the value.
// Trimming defaults to on; only an explicit trim:false disables it.
func (r *TextRules) TrimEnabled() bool {
	return r.Trim == nil || *r.Trim
}

// TrimEnabled reports whether sanitization should trim the value.
func (r *EnumRules) TrimEnabled() bool {
	return r.Trim == nil || *r.Trim
}

// HasPattern reports whether a pattern rule is declared.
func (r *TextRules) HasPattern() bool { return r.compiled != nil }

// PatternMatches reports whether the whole value matches the declared
// pattern. It returns true when no pattern is declared.
func (r *TextRules) PatternMatches(s string) bool {
	return r.compiled == nil || r.compiled.MatchString(s)
}

// HasPattern reports whether a pattern rule is declared.
func (r *EmailRules) HasPattern() bool { return r.compiled != nil }

// PatternMatches reports whether the whole value matches the declared
// pattern. It returns true when no pattern is declared.
func (r *EmailRules) PatternMatches(s string) bool {
	return r.compiled == nil || r.compiled.MatchString(s)
}

// rulesMetaSchema is the JSON Schema every raw rule bag must satisfy before
// typed decoding. It bounds the vocabulary of rule keys; per-type
// applicability is enforced afterwards by strict decoding into the
// [Constraint] structs.
const rulesMetaSchema = `{
	"type": "object",
	"properties": {
		"min_length": {"type": "integer", "minimum": 0},
		"max_length": {"type": "integer", "minimum": 0},
		"pattern": {"type": "string", "minLength": 1},
		"trim": {"type": "boolean"},
		"default": {},
		"required_keys": {"type": "array", "items": {"type": "string"}},
		"allowed_extensions": {"type": "array", "items": {"type": "string"}},
		"must_have_protocol": {"type": "boolean"},
		"max_items": {"type": "integer", "minimum": 0},
		"item_type": {"type": "string"},
		"values": {"type": "array", "items": {"type": "string"}, "minItems": 1},
		"min": {"anyOf": [{"type": "number"}, {"enum": ["current_year", "current_year_plus_10"]}]},
		"max": {"anyOf": [{"type": "number"}, {"enum": ["current_year", "current_year_plus_10"]}]},
		"no_future": {"type": "boolean"},
		"message": {"type": "string"}
	},
	"additionalProperties": false
}`

// Compiled meta schema, built once on first use.
var (
	metaSchema     *jsonschema.Schema
	metaSchemaOnce sync.Once
	metaSchemaErr  error
)

func compiledMetaSchema() (*jsonschema.Schema, error) {
	metaSchemaOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(strings.NewReader(rulesMetaSchema))
		if err != nil {
			metaSchemaErr = fmt.Errorf("unmarshal rules meta schema: %w", err)
			return
		}

		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("rules.json", doc); err != nil {
			metaSchemaErr = fmt.Errorf("add rules meta schema: %w", err)
			return
		}

		metaSchema, metaSchemaErr = compiler.Compile("rules.json")
	})

	return metaSchema, metaSchemaErr
}

// decodeConstraint validates and decodes a raw rule bag for the given field
// type. It returns the typed constraint plus the lifted common keys: the
// declared default (nil when unset) and the custom error message.
func decodeConstraint(ft FieldType, raw json.RawMessage) (Constraint, any, string, error) {
	bag, err := unmarshalRuleBag(raw)
	if err != nil {
		return nil, nil, "", err
	}

	def := bag["default"]
	delete(bag, "default")

	msg, _ := bag["message"].(string)
	delete(bag, "message")

	c := newConstraint(ft)

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      c,
		ErrorUnused: true,
		DecodeHook:  boundDecodeHook,
	})
	if err != nil {
		return nil, nil, "", fmt.Errorf("%w: %w", ErrInvalidDefinition, err)
	}
	if err := decoder.Decode(bag); err != nil {
		return nil, nil, "", fmt.Errorf("%w: rules do not apply to type %q: %w", ErrInvalidDefinition, ft, err)
	}

	if err := finishConstraint(c); err != nil {
		return nil, nil, "", err
	}

	return c, def, msg, nil
}

// unmarshalRuleBag parses and meta-validates the raw rules JSON.
// Malformed JSON or unknown rule keys fail the load for the whole schema.
func unmarshalRuleBag(raw json.RawMessage) (map[string]any, error) {
	if len(raw) == 0 || string(bytes.TrimSpace(raw)) == "null" {
		return map[string]any{}, nil
	}

	meta, err := compiledMetaSchema()
	if err != nil {
		return nil, err
	}

	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: malformed rules JSON: %w", ErrInvalidDefinition, err)
	}
	if err := meta.Validate(doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDefinition, err)
	}

	var bag map[string]any
	if err := json.Unmarshal(raw, &bag); err != nil {
		return nil, fmt.Errorf("%w: malformed rules JSON: %w", ErrInvalidDefinition, err)
	}

	return bag, nil
}

// newConstraint returns the empty constraint struct for a field type.
// The switch is exhaustive over the closed [FieldType] set.
func newConstraint(ft FieldType) Constraint {
	switch ft {
	case TypeText, TypeRichText:
		return &TextRules{}
	case TypeEmail:
		return &EmailRules{}
	case TypeURL:
		return &URLRules{}
	case TypePhone:
		return &PhoneRules{}
	case TypeNumber:
		return &NumberRules{}
	case TypeBoolean:
		return &BooleanRules{}
	case TypeDate:
		return &DateRules{}
	case TypeEnum:
		return &EnumRules{}
	case TypeArray:
		return &ArrayRules{}
	case TypeJSON:
		return &JSONRules{}
	case TypeCountryCode:
		return &CountryCodeRules{}
	}

	panic(fmt.Sprintf("schema: unhandled field type %q", ft))
}

// finishConstraint runs post-decode checks: regex compilation and item type
// membership. Failures here are load errors.
func finishConstraint(c Constraint) error {
	switch r := c.(type) {
	case *TextRules:
		compiled, err := compilePattern(r.Pattern)
		if err != nil {
			return err
		}
		r.compiled = compiled

	case *EmailRules:
		compiled, err := compilePattern(r.Pattern)
		if err != nil {
			return err
		}
		r.compiled = compiled

	case *ArrayRules:
		if r.ItemType != "" {
			if _, err := ParseFieldType(string(r.ItemType)); err != nil {
				return fmt.Errorf("%w: item_type: unknown field type %q", ErrInvalidDefinition, r.ItemType)
			}
		}
	}

	return nil
}

// compilePattern compiles a pattern rule anchored to the whole value.
func compilePattern(pattern string) (*regexp.Regexp, error) {
	if pattern == "" {
		return nil, nil
	}

	compiled, err := regexp.Compile("^(?:" + pattern + ")$")
	if err != nil {
		return nil, fmt.Errorf("%w: bad pattern %q: %w", ErrInvalidDefinition, pattern, err)
	}

	return compiled, nil
}

// boundType is the reflection target for the bound decode hook.
var boundType = reflect.TypeOf(Bound{})

// boundDecodeHook converts raw min/max values into [Bound]: a number becomes
// a literal bound, a string must be one of the symbolic tokens.
func boundDecodeHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if to != boundType {
		return data, nil
	}

	if s, ok := data.(string); ok {
		switch s {
		case TokenCurrentYear, TokenCurrentYearPlus10:
			return Bound{Token: s}, nil
		default:
			return nil, fmt.Errorf("unknown bound token %q", s)
		}
	}

	value, err := cast.ToFloat64E(data)
	if err != nil {
		return nil, fmt.Errorf("bound must be a number or token: %w", err)
	}

	return Bound{Value: value}, nil
}
