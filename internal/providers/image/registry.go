package image

import (
	"sync/atomic"

	"flyergen/internal/domain"
)

// Settings carries the per-provider configuration read from the config
// source at registry construction or reload time.
type Settings struct {
	Enabled  bool
	APIKey   string
	Priority int
}

// ConfigSource supplies provider settings. It is consulted only when the
// registry is built or explicitly reloaded, never per request.
type ConfigSource interface {
	Provider(id ProviderID) Settings
	DefaultProvider() ProviderID
}

// Entry is one registered provider with its effective settings.
type Entry struct {
	Caps     Capabilities
	Settings Settings
	Gen      Generator
}

// Candidate reports whether the entry may serve requests: it must be enabled
// and carry a credential.
func (e Entry) Candidate() bool {
	return e.Settings.Enabled && e.Settings.APIKey != ""
}

// EffectivePriority prefers the configured value and falls back to the
// static capability rank when the source does not set one. Selection and the
// admin listing both use this value.
func (e Entry) EffectivePriority() int {
	if e.Settings.Priority != 0 {
		return e.Settings.Priority
	}
	return e.Caps.Priority
}

type snapshot struct {
	entries   []Entry
	byID      map[ProviderID]int
	defaultID ProviderID
}

// Registry holds an immutable snapshot of registered providers. Selection
// reads the snapshot without locking; Reload swaps it atomically so readers
// never observe a partially-updated registry.
type Registry struct {
	source     ConfigSource
	generators []Generator
	snap       atomic.Pointer[snapshot]
}

// NewRegistry builds a registry over the given generators, in registration
// order, with settings read once from the source.
func NewRegistry(source ConfigSource, generators ...Generator) *Registry {
	r := &Registry{source: source, generators: generators}
	r.snap.Store(r.build())
	return r
}

func (r *Registry) build() *snapshot {
	snap := &snapshot{byID: make(map[ProviderID]int, len(r.generators))}
	if r.source != nil {
		snap.defaultID = r.source.DefaultProvider()
	}
	for _, gen := range r.generators {
		caps := gen.Capabilities()
		var settings Settings
		if r.source != nil {
			settings = r.source.Provider(caps.Name)
		}
		snap.byID[caps.Name] = len(snap.entries)
		snap.entries = append(snap.entries, Entry{Caps: caps, Settings: settings, Gen: gen})
	}
	return snap
}

// Reload re-reads settings from the config source and atomically replaces
// the snapshot. In-flight selections keep the snapshot they started with.
func (r *Registry) Reload() {
	r.snap.Store(r.build())
}

// Entries returns the current snapshot in registration order.
func (r *Registry) Entries() []Entry {
	snap := r.snap.Load()
	out := make([]Entry, len(snap.entries))
	copy(out, snap.entries)
	return out
}

// Select picks the active provider. An explicit preferred id wins whenever it
// is an enabled, credentialed candidate; otherwise the configured default is
// honored, then the highest-priority candidate with ties broken by
// registration order. With no candidates at all it returns
// domain.ErrNoProviderAvailable.
func (r *Registry) Select(preferred ProviderID) (Generator, error) {
	snap := r.snap.Load()

	if preferred != "" {
		if idx, ok := snap.byID[preferred]; ok && snap.entries[idx].Candidate() {
			return snap.entries[idx].Gen, nil
		}
	}
	if snap.defaultID != "" && snap.defaultID != preferred {
		if idx, ok := snap.byID[snap.defaultID]; ok && snap.entries[idx].Candidate() {
			return snap.entries[idx].Gen, nil
		}
	}

	best := -1
	for i, entry := range snap.entries {
		if !entry.Candidate() {
			continue
		}
		if best < 0 || entry.EffectivePriority() > snap.entries[best].EffectivePriority() {
			best = i
		}
	}
	if best < 0 {
		return nil, domain.ErrNoProviderAvailable
	}
	return snap.entries[best].Gen, nil
}
