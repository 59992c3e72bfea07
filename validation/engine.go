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
	"context"
	"errors"
	"fmt"

	"github.com/profilekit-dev/profilefields/schema"
)

// SectionPrivacySettings is the section whose fields live in a nested
// sub-object of the payload instead of at the top level.
const SectionPrivacySettings = "privacy_settings"

// SchemaGetter supplies the schema snapshot for a validation pass.
// *schema.Provider satisfies it.
type SchemaGetter interface {
	Get(ctx context.Context) (*schema.Schema, error)
}

// schemaInvalidator is the optional cache-control side of a [SchemaGetter].
type schemaInvalidator interface {
	Invalidate()
}

// Engine validates and sanitizes profile payloads against the schema.
//
// Engine is immutable after construction and safe for concurrent use by
// multiple goroutines. Each Validate call captures one schema snapshot at
// the start and uses it for the whole pass.
type Engine struct {
	schemas SchemaGetter
	cfg     *config
}

// New creates an [Engine] over the given schema getter.
//
// Example:
//
//	engine, err := validation.New(provider,
//	    validation.WithSections("about", "privacy_settings"),
//	)
func New(schemas SchemaGetter, opts ...Option) (*Engine, error) {
	if schemas == nil {
		return nil, errors.New("validation: schema getter must not be nil")
	}

	cfg := newConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return &Engine{schemas: schemas, cfg: cfg}, nil
}

// MustNew creates an [Engine], panicking on error.
// Use in main() or init() where panic on startup is acceptable.
func MustNew(schemas SchemaGetter, opts ...Option) *Engine {
	e, err := New(schemas, opts...)
	if err != nil {
		panic(fmt.Sprintf("validation.MustNew: %v", err))
	}

	return e
}

// Validate checks the payload against the schema in the given [Mode] and
// returns the aggregate [Result].
//
// The returned error is non-nil only for the fatal tier: the schema could
// not be loaded (a *schema.LoadError). Field-level problems never abort the
// pass; they are all collected into Result.Errors, and Result.Sanitized
// contains only fields that passed or received a default. Callers must only
// persist Result.Sanitized when Result.Valid is true.
func (e *Engine) Validate(ctx context.Context, payload map[string]any, mode Mode, opts ...Option) (*Result, error) {
	cfg := applyOptions(e.cfg, opts...)

	snapshot, err := e.schemas.Get(ctx)
	if err != nil {
		return nil, err
	}

	now := cfg.now()
	sections := cfg.sections
	if sections == nil {
		sections = snapshot.Sections()
	}

	var errs Error
	sanitized := make(map[string]any)
	supplied := 0

	for _, name := range sections {
		section, ok := snapshot.Section(name)
		if !ok {
			continue
		}

		for _, def := range section.Fields {
			path := fieldPath(def)

			raw, present := lookupField(payload, def)
			if !present {
				if mode != ModeFull {
					continue
				}
				if def.Default != nil {
					placeField(sanitized, def, def.Default)
					continue
				}
				if def.Required {
					errs.Add(path, CodeRequired, message(def.Message, path+" is required"))
				}
				continue
			}

			supplied++

			// An explicit null on a required field reads as "field referenced
			// but not supplied".
			if raw == nil && def.Required {
				errs.Add(path, CodeRequired, message(def.Message, path+" is required"))
				continue
			}

			value, fieldErrs := validateField(path, def, raw, now)
			if len(fieldErrs) > 0 {
				errs.Append(fieldErrs...)
				continue
			}
			placeField(sanitized, def, value)
		}
	}

	if mode == ModePartial && supplied == 0 {
		errs = Error{}
		errs.Add("", CodeEmptyPayload, "at least one field must be provided")
	}

	cfg.logger.Debug("validation completed",
		"mode", mode.String(),
		"supplied", supplied,
		"errors", len(errs.Fields),
	)

	return &Result{
		Valid:     !errs.HasErrors(),
		Errors:    errs.Fields,
		Sanitized: sanitized,
	}, nil
}

// InvalidateSchemaCache forces the next Validate call to re-fetch the
// schema. It is a no-op when the underlying getter has no cache.
func (e *Engine) InvalidateSchemaCache() {
	if inv, ok := e.schemas.(schemaInvalidator); ok {
		inv.Invalidate()
	}
}

// fieldPath returns the error path for a field: nested for privacy settings,
// the bare field name otherwise.
func fieldPath(def schema.FieldDefinition) string {
	if def.Section == SectionPrivacySettings {
		return SectionPrivacySettings + "." + def.Name
	}

	return def.Name
}

// lookupField finds the raw value for a declared field. Privacy-settings
// fields are read from the nested privacy_settings object; everything else
// is top-level.
func lookupField(payload map[string]any, def schema.FieldDefinition) (any, bool) {
	if def.Section == SectionPrivacySettings {
		nested, ok := payload[SectionPrivacySettings].(map[string]any)
		if !ok {
			return nil, false
		}
		v, ok := nested[def.Name]

		return v, ok
	}

	v, ok := payload[def.Name]

	return v, ok
}

// placeField stores a sanitized value under the field's name, nesting
// privacy-settings fields under their sub-object.
func placeField(sanitized map[string]any, def schema.FieldDefinition, value any) {
	if def.Section == SectionPrivacySettings {
		nested, ok := sanitized[SectionPrivacySettings].(map[string]any)
		if !ok {
			nested = make(map[string]any)
			sanitized[SectionPrivacySettings] = nested
		}
		nested[def.Name] = value

		return
	}

	sanitized[def.Name] = value
}
