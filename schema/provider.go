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
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultTTL is how long a loaded schema stays fresh before the next Get
// triggers a refresh. Override with [WithTTL].
const DefaultTTL = 5 * time.Minute

// Provider caches the schema built from a [Source] with a TTL.
//
// Get returns an immutable snapshot: a concurrent refresh swaps the cache
// cell atomically and never mutates a schema an in-flight validation already
// holds. Concurrent refreshes are collapsed into a single fetch.
//
// Provider is safe for concurrent use by multiple goroutines.
type Provider struct {
	source Source
	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger

	cache atomic.Pointer[snapshot]
	group singleflight.Group
}

// snapshot is one immutable cache generation.
type snapshot struct {
	schema   *Schema
	loadedAt time.Time
}

// ProviderOption configures a [Provider].
type ProviderOption func(*Provider)

// WithTTL sets the cache time-to-live. Zero or negative disables caching,
// forcing a fetch on every Get.
func WithTTL(ttl time.Duration) ProviderOption {
	return func(p *Provider) {
		p.ttl = ttl
	}
}

// WithClock overrides the time source used for TTL checks. Intended for
// tests.
func WithClock(now func() time.Time) ProviderOption {
	return func(p *Provider) {
		if now != nil {
			p.now = now
		}
	}
}

// WithLogger sets the structured logger for refresh and invalidation events.
// By default nothing is logged.
func WithLogger(logger *slog.Logger) ProviderOption {
	return func(p *Provider) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewProvider creates a [Provider] over the given source.
func NewProvider(source Source, opts ...ProviderOption) *Provider {
	p := &Provider{
		source: source,
		ttl:    DefaultTTL,
		now:    time.Now,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Get returns the cached schema when fresh, refreshing it otherwise.
//
// Refresh failures are returned as a [*LoadError] and leave any previous
// cache generation untouched; a stale schema is only served until its TTL
// elapses, never after a failed refresh replaced it.
func (p *Provider) Get(ctx context.Context) (*Schema, error) {
	if snap := p.cache.Load(); snap != nil && p.now().Sub(snap.loadedAt) <= p.ttl {
		return snap.schema, nil
	}

	return p.refresh(ctx)
}

// Invalidate clears the cache so the next Get forces a reload. Call after an
// administrative schema edit.
func (p *Provider) Invalidate() {
	p.cache.Store(nil)
	p.logger.Info("schema cache invalidated")
}

// refresh fetches, builds, and installs a new cache generation. Concurrent
// callers share a single fetch; last writer wins on the cache cell.
func (p *Provider) refresh(ctx context.Context) (*Schema, error) {
	v, err, _ := p.group.Do("schema", func() (any, error) {
		started := p.now()

		rows, err := p.source.LoadFieldDefinitions(ctx)
		if err != nil {
			return nil, &LoadError{Err: fmt.Errorf("fetch field definitions: %w", err)}
		}

		built, err := New(rows)
		if err != nil {
			return nil, &LoadError{Err: err}
		}

		p.cache.Store(&snapshot{schema: built, loadedAt: p.now()})
		p.logger.Info("schema cache refreshed",
			"fields", built.Len(),
			"sections", len(built.Sections()),
			"elapsed", p.now().Sub(started),
		)

		return built, nil
	})
	if err != nil {
		p.logger.Error("schema load failed", "error", err)
		return nil, err
	}

	return v.(*Schema), nil
}
