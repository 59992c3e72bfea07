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

// Package schema models the declarative field definitions that drive
// business-profile validation, and loads them from an external source.
//
// # Field Definitions
//
// A profile is described by sections ("about", "private_info",
// "privacy_settings", ...) containing named, typed fields. Each field carries
// a [Constraint], a typed rule set specific to its [FieldType]:
//
//	rows := []schema.Row{
//	    {Section: "about", Field: "company_name", Type: "text", Required: true,
//	        Rules: json.RawMessage(`{"min_length": 2, "max_length": 120}`)},
//	    {Section: "about", Field: "founded", Type: "text",
//	        Rules: json.RawMessage(`{"pattern": "^\\d{4}$", "message": "Founded must be a four digit year"}`)},
//	}
//	s, err := schema.New(rows)
//
// Rule bags are checked against a JSON Schema and decoded strictly: an unknown
// field type, an unknown rule key, or a rule key that does not apply to the
// field's type fails the whole load. A schema with zero fields is a load
// error, never "no validation".
//
// # Sources and Caching
//
// [Source] abstracts where definitions come from (database table, admin API,
// file). [Provider] caches the built schema with a TTL (default 5 minutes)
// behind an atomic snapshot, so in-flight validations are never torn by a
// concurrent refresh:
//
//	provider := schema.NewProvider(schema.NewFileSource("fields.yaml"),
//	    schema.WithTTL(5*time.Minute),
//	)
//	s, err := provider.Get(ctx)
//
// Call [Provider.Invalidate] after an administrative schema edit to force the
// next Get to re-fetch.
package schema
