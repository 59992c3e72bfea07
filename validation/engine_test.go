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
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/profilekit-dev/profilefields/schema"
)

// profileRows is a representative slice of the business-profile schema.
func profileRows() []schema.Row {
	mk := func(section, field, typ string, required bool, rules string, order int) schema.Row {
		var raw json.RawMessage
		if rules != "" {
			raw = json.RawMessage(rules)
		}

		return schema.Row{
			Section: section, Field: field, Type: typ,
			Required: required, Rules: raw, DisplayOrder: order,
		}
	}

	return []schema.Row{
		mk("about", "company_name", "text", true, `{"min_length": 2, "max_length": 120}`, 1),
		mk("about", "description", "text", true, `{"max_length": 2000}`, 2),
		mk("about", "founded", "text", false, `{"pattern": "^\\d{4}$", "message": "Founded must be a four digit year"}`, 3),
		mk("about", "website", "url", false, `{"must_have_protocol": true}`, 4),
		mk("about", "industry", "enum", false, `{"values": ["software", "hardware", "services"], "default": "software"}`, 5),
		mk("private_info", "contact_email", "email", false, "", 10),
		mk("private_info", "contact_phone", "phone", false, "", 11),
		mk("privacy_settings", "profile_visibility", "enum", false, `{"values": ["public", "private", "connections"]}`, 20),
		mk("privacy_settings", "show_contact_info", "boolean", false, "", 21),
	}
}

func newTestEngine(t *testing.T, rows []schema.Row, opts ...Option) *Engine {
	t.Helper()

	provider := schema.NewProvider(schema.NewStaticSource(rows))
	base := []Option{WithClock(func() time.Time { return testNow })}

	return MustNew(provider, append(base, opts...)...)
}

func TestNew_NilGetter(t *testing.T) {
	t.Parallel()

	_, err := New(nil)
	require.Error(t, err)

	assert.Panics(t, func() { MustNew(nil) })
}

func TestEngine_FullMode_EmptyPayload(t *testing.T) {
	t.Parallel()

	engine := newTestEngine(t, profileRows())

	result, err := engine.Validate(context.Background(), map[string]any{}, ModeFull)
	require.NoError(t, err)
	assert.False(t, result.Valid)

	require.Len(t, result.Errors, 2, "one error per required field")
	assert.Equal(t, "company_name", result.Errors[0].Path)
	assert.Equal(t, CodeRequired, result.Errors[0].Code)
	assert.Equal(t, "description", result.Errors[1].Path)
	assert.Equal(t, CodeRequired, result.Errors[1].Code)

	assert.Equal(t, "software", result.Sanitized["industry"],
		"declared defaults are substituted even when the field itself is absent")
}

func TestEngine_FullMode_ValidPayload(t *testing.T) {
	t.Parallel()

	engine := newTestEngine(t, profileRows())

	result, err := engine.Validate(context.Background(), map[string]any{
		"company_name": "  Acme B.V.  ",
		"description":  "We build things.",
		"website":      "https://acme.example",
		"privacy_settings": map[string]any{
			"profile_visibility": "public",
			"show_contact_info":  true,
		},
	}, ModeFull)
	require.NoError(t, err)
	require.True(t, result.Valid, "errors: %v", result.Errors)
	assert.Empty(t, result.Errors)

	assert.Equal(t, "Acme B.V.", result.Sanitized["company_name"])
	assert.Equal(t, "We build things.", result.Sanitized["description"])
	assert.Equal(t, "https://acme.example", result.Sanitized["website"])
	assert.Equal(t, "software", result.Sanitized["industry"], "default applied")

	privacy, ok := result.Sanitized["privacy_settings"].(map[string]any)
	require.True(t, ok, "privacy settings stay nested in the sanitized output")
	assert.Equal(t, "public", privacy["profile_visibility"])
	assert.Equal(t, true, privacy["show_contact_info"])

	assert.NotContains(t, result.Sanitized, "founded", "absent optional fields stay absent")
	assert.NotContains(t, result.Sanitized, "contact_email")
}

func TestEngine_PartialMode(t *testing.T) {
	t.Parallel()

	engine := newTestEngine(t, profileRows())

	t.Run("only supplied fields are checked", func(t *testing.T) {
		t.Parallel()

		result, err := engine.Validate(context.Background(), map[string]any{
			"description": "Updated copy.",
		}, ModePartial)
		require.NoError(t, err)
		assert.True(t, result.Valid)

		assert.Equal(t, map[string]any{"description": "Updated copy."}, result.Sanitized,
			"untouched fields and defaults stay out of a partial result")
	})

	t.Run("empty payload is one error", func(t *testing.T) {
		t.Parallel()

		result, err := engine.Validate(context.Background(), map[string]any{}, ModePartial)
		require.NoError(t, err)
		assert.False(t, result.Valid)

		require.Len(t, result.Errors, 1)
		assert.Equal(t, CodeEmptyPayload, result.Errors[0].Code)
	})

	t.Run("payload of only unknown keys counts as empty", func(t *testing.T) {
		t.Parallel()

		result, err := engine.Validate(context.Background(), map[string]any{
			"not_a_declared_field": "x",
		}, ModePartial)
		require.NoError(t, err)
		assert.False(t, result.Valid)

		require.Len(t, result.Errors, 1)
		assert.Equal(t, CodeEmptyPayload, result.Errors[0].Code)
	})

	t.Run("defaults are not substituted", func(t *testing.T) {
		t.Parallel()

		result, err := engine.Validate(context.Background(), map[string]any{
			"description": "Updated copy.",
		}, ModePartial)
		require.NoError(t, err)
		require.True(t, result.Valid)
		assert.NotContains(t, result.Sanitized, "industry")
	})
}

func TestEngine_RequiredFieldNull(t *testing.T) {
	t.Parallel()

	engine := newTestEngine(t, profileRows())

	result, err := engine.Validate(context.Background(), map[string]any{
		"company_name": nil,
		"description":  "We build things.",
	}, ModePartial)
	require.NoError(t, err)
	assert.False(t, result.Valid)

	require.Len(t, result.Errors, 1)
	assert.Equal(t, "company_name", result.Errors[0].Path)
	assert.Equal(t, CodeRequired, result.Errors[0].Code)

	assert.Equal(t, "We build things.", result.Sanitized["description"],
		"valid siblings still land in the sanitized output")
	assert.NotContains(t, result.Sanitized, "company_name")
}

func TestEngine_PrivacySettingsErrorPath(t *testing.T) {
	t.Parallel()

	engine := newTestEngine(t, profileRows())

	result, err := engine.Validate(context.Background(), map[string]any{
		"privacy_settings": map[string]any{
			"profile_visibility": "everyone",
		},
	}, ModePartial)
	require.NoError(t, err)
	assert.False(t, result.Valid)

	require.Len(t, result.Errors, 1)
	assert.Equal(t, "privacy_settings.profile_visibility", result.Errors[0].Path)
	assert.Equal(t, CodeEnum, result.Errors[0].Code)
}

func TestEngine_AccumulatesAcrossFields(t *testing.T) {
	t.Parallel()

	engine := newTestEngine(t, profileRows())

	result, err := engine.Validate(context.Background(), map[string]any{
		"company_name": "A",
		"description":  "ok",
		"founded":      "two thousand",
		"website":      "ftp://acme.example",
	}, ModeFull)
	require.NoError(t, err)
	assert.False(t, result.Valid)

	require.Len(t, result.Errors, 3, "every failing field is reported, in schema order")
	assert.Equal(t, "company_name", result.Errors[0].Path)
	assert.Equal(t, CodeMinLength, result.Errors[0].Code)
	assert.Equal(t, "founded", result.Errors[1].Path)
	assert.Equal(t, CodePattern, result.Errors[1].Code)
	assert.Equal(t, "website", result.Errors[2].Path)
	assert.Equal(t, CodeProtocol, result.Errors[2].Code)

	assert.Equal(t, "ok", result.Sanitized["description"])
	assert.NotContains(t, result.Sanitized, "founded")
	assert.NotContains(t, result.Sanitized, "website")
}

// The canonical update scenario: a good description alongside a founded year
// that fails its pattern and carries a custom message.
func TestEngine_PartialUpdateScenario(t *testing.T) {
	t.Parallel()

	engine := newTestEngine(t, profileRows())

	result, err := engine.Validate(context.Background(), map[string]any{
		"description": "We build things.",
		"founded":     "202X",
	}, ModePartial)
	require.NoError(t, err)
	assert.False(t, result.Valid)

	require.Len(t, result.Errors, 1)
	assert.Equal(t, "founded", result.Errors[0].Path)
	assert.Equal(t, CodePattern, result.Errors[0].Code)
	assert.Equal(t, "Founded must be a four digit year", result.Errors[0].Message)

	assert.Equal(t, map[string]any{"description": "We build things."}, result.Sanitized)
}

// Full-mode variant of the same scenario over a minimal two-field schema:
// the only error is founded's, and description still comes out sanitized.
func TestEngine_FullModeScenario(t *testing.T) {
	t.Parallel()

	rows := []schema.Row{
		{
			Section: "about", Field: "description", Type: "text", Required: true,
			Rules:        json.RawMessage(`{"max_length": 2000}`),
			DisplayOrder: 1,
		},
		{
			Section: "about", Field: "founded", Type: "text",
			Rules:        json.RawMessage(`{"pattern": "^\\d{4}$", "message": "Founded must be a four digit year"}`),
			DisplayOrder: 2,
		},
	}
	engine := newTestEngine(t, rows)

	result, err := engine.Validate(context.Background(), map[string]any{
		"description": "We build things.",
		"founded":     "202X",
	}, ModeFull)
	require.NoError(t, err)
	assert.False(t, result.Valid)

	require.Len(t, result.Errors, 1)
	assert.Equal(t, "founded", result.Errors[0].Path)
	assert.Equal(t, "Founded must be a four digit year", result.Errors[0].Message)

	assert.Equal(t, map[string]any{"description": "We build things."}, result.Sanitized)
}

func TestEngine_WithSections(t *testing.T) {
	t.Parallel()

	engine := newTestEngine(t, profileRows(), WithSections("private_info"))

	result, err := engine.Validate(context.Background(), map[string]any{
		"contact_email": " Jane@Example.COM ",
		"company_name":  "A", // declared in "about", out of scope here
	}, ModeFull)
	require.NoError(t, err)
	require.True(t, result.Valid, "errors: %v", result.Errors)

	assert.Equal(t, map[string]any{"contact_email": "jane@example.com"}, result.Sanitized)
}

func TestEngine_PerCallSectionOverride(t *testing.T) {
	t.Parallel()

	engine := newTestEngine(t, profileRows())

	result, err := engine.Validate(context.Background(), map[string]any{
		"contact_phone": "+31 6 1234 5678",
	}, ModePartial, WithSections("private_info"))
	require.NoError(t, err)
	require.True(t, result.Valid)
	assert.Equal(t, "+31612345678", result.Sanitized["contact_phone"])

	// The engine-level default (all sections) is untouched by the per-call
	// override.
	result, err = engine.Validate(context.Background(), map[string]any{}, ModeFull)
	require.NoError(t, err)
	assert.Len(t, result.Errors, 2)
}

func TestEngine_SchemaLoadFailure(t *testing.T) {
	t.Parallel()

	source := schema.SourceFunc(func(ctx context.Context) ([]schema.Row, error) {
		return nil, errors.New("backend unavailable")
	})
	engine := MustNew(schema.NewProvider(source))

	result, err := engine.Validate(context.Background(), map[string]any{"description": "x"}, ModeFull)
	require.Error(t, err)
	assert.Nil(t, result)

	var loadErr *schema.LoadError
	assert.ErrorAs(t, err, &loadErr, "schema failures surface as the fatal tier, not as field errors")
}

func TestEngine_InvalidateSchemaCache(t *testing.T) {
	t.Parallel()

	var loads atomic.Int64
	source := schema.SourceFunc(func(ctx context.Context) ([]schema.Row, error) {
		loads.Add(1)
		return profileRows(), nil
	})
	engine := MustNew(schema.NewProvider(source), WithClock(func() time.Time { return testNow }))

	_, err := engine.Validate(context.Background(), map[string]any{"description": "x"}, ModePartial)
	require.NoError(t, err)
	_, err = engine.Validate(context.Background(), map[string]any{"description": "x"}, ModePartial)
	require.NoError(t, err)
	assert.Equal(t, int64(1), loads.Load(), "second call served from the cached snapshot")

	engine.InvalidateSchemaCache()

	_, err = engine.Validate(context.Background(), map[string]any{"description": "x"}, ModePartial)
	require.NoError(t, err)
	assert.Equal(t, int64(2), loads.Load(), "invalidation forces a re-fetch")
}

func TestResult_Err(t *testing.T) {
	t.Parallel()

	valid := &Result{Valid: true}
	assert.NoError(t, valid.Err())

	invalid := &Result{Valid: false, Errors: []FieldError{{Path: "founded", Code: CodePattern, Message: "bad"}}}
	err := invalid.Err()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)

	var vErr *Error
	require.ErrorAs(t, err, &vErr)
	assert.Len(t, vErr.Fields, 1)
}

func TestMergePatch(t *testing.T) {
	t.Parallel()

	existing := map[string]any{
		"company_name": "Acme B.V.",
		"description":  "Old copy.",
		"privacy_settings": map[string]any{
			"profile_visibility": "private",
			"show_contact_info":  false,
		},
	}
	patch := map[string]any{
		"description": "New copy.",
		"privacy_settings": map[string]any{
			"show_contact_info": true,
		},
	}

	merged, err := MergePatch(existing, patch)
	require.NoError(t, err)

	assert.Equal(t, "Acme B.V.", merged["company_name"], "untouched fields survive")
	assert.Equal(t, "New copy.", merged["description"], "patched fields win")

	privacy, ok := merged["privacy_settings"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "private", privacy["profile_visibility"], "nested objects merge key by key")
	assert.Equal(t, true, privacy["show_contact_info"])

	assert.Equal(t, "Old copy.", existing["description"], "inputs are not mutated")
	assert.Equal(t, false, existing["privacy_settings"].(map[string]any)["show_contact_info"])
}
