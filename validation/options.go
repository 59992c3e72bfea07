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
	"log/slog"
	"time"
)

// Mode selects the validation semantics for one call.
// The two modes are mutually exclusive per call and never transition
// mid-validation.
type Mode int

const (
	// ModeFull validates a complete object: every required field must be
	// present or carry a declared default.
	ModeFull Mode = iota

	// ModePartial validates an update: only supplied fields are checked,
	// untouched fields stay out of the sanitized result, and at least one
	// declared field must be supplied.
	ModePartial
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeFull:
		return "full"
	case ModePartial:
		return "partial"
	default:
		return "unknown"
	}
}

// config holds internal engine configuration.
type config struct {
	now      func() time.Time
	logger   *slog.Logger
	sections []string
}

// clone creates a copy of the config for per-call option merging.
func (c *config) clone() *config {
	cloned := *c
	if c.sections != nil {
		cloned.sections = make([]string, len(c.sections))
		copy(cloned.sections, c.sections)
	}

	return &cloned
}

// Option is a functional option for configuring validation.
// Options can be passed to [New], [MustNew], or per call to
// [Engine.Validate].
type Option func(*config)

// WithClock overrides the time source used to resolve "current date/year"
// comparisons (symbolic numeric bounds, no_future dates). Intended for
// tests.
func WithClock(now func() time.Time) Option {
	return func(c *config) {
		if now != nil {
			c.now = now
		}
	}
}

// WithLogger sets the structured logger for validation summaries.
// By default nothing is logged.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithSections restricts validation to the named schema sections.
// By default every section of the schema is validated.
//
// Example:
//
//	result, err := engine.Validate(ctx, payload, validation.ModePartial,
//	    validation.WithSections("about", "privacy_settings"),
//	)
func WithSections(sections ...string) Option {
	return func(c *config) {
		c.sections = sections
	}
}

// newConfig creates an engine config with defaults.
func newConfig() *config {
	return &config{
		now:    time.Now,
		logger: slog.New(slog.DiscardHandler),
	}
}

// applyOptions applies per-call options on top of a base config.
func applyOptions(base *config, opts ...Option) *config {
	if len(opts) == 0 {
		return base
	}
	cfg := base.clone()
	for _, opt := range opts {
		opt(cfg)
	}

	return cfg
}
