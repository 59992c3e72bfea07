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

// Package validation validates and sanitizes business-profile payloads
// against a declarative field schema.
//
// # Getting Started
//
// Build an [Engine] over a schema provider and validate a payload:
//
//	provider := schema.NewProvider(source)
//	engine := validation.MustNew(provider)
//
//	result, err := engine.Validate(ctx, payload, validation.ModeFull)
//	if err != nil {
//	    // Fatal: the schema could not be loaded. 5xx-class condition.
//	}
//	if !result.Valid {
//	    // result.Errors lists every offending field; serialize it verbatim
//	    // as the 422 body so the UI can highlight all of them at once.
//	}
//	store(result.Sanitized)
//
// # Modes
//
// [ModeFull] is used for creation: every required field must be present or
// carry a declared default. [ModePartial] is used for updates: only supplied
// fields are checked, absent fields are left out of the sanitized result so
// callers can merge against stored data (see [MergePatch]), and an entirely
// empty payload is itself an error.
//
// # Error Model
//
// Field problems never abort a validation pass. Every sanitizer defers bad
// shapes to its validator, and the engine collects all field errors into a
// single [Error] with dotted/bracketed paths such as
// "company_introduction_video.fileUrl" or "technologies[2]". Only a schema
// load failure is fatal, returned as a *schema.LoadError.
//
// # Thread Safety
//
// An [Engine] is immutable after construction and safe for concurrent use.
// Each call captures one schema snapshot for its whole pass; a concurrent
// cache refresh never tears an in-flight validation.
package validation
