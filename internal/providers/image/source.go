package image

import (
	"strings"
	"sync"
)

// Source is a mutable ConfigSource. It starts from environment-derived
// settings and accepts overlays (tokens rotated through the database) at
// runtime. Mutations only take effect on the registry after Reload.
type Source struct {
	mu        sync.RWMutex
	settings  map[ProviderID]Settings
	defaultID ProviderID
}

// NewSource copies the initial settings so later mutations of the input map
// cannot leak in.
func NewSource(initial map[ProviderID]Settings, defaultID ProviderID) *Source {
	settings := make(map[ProviderID]Settings, len(initial))
	for id, s := range initial {
		settings[id] = s
	}
	return &Source{settings: settings, defaultID: defaultID}
}

func (s *Source) Provider(id ProviderID) Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings[id]
}

func (s *Source) DefaultProvider() ProviderID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.defaultID
}

// SetAPIKey overlays a provider's key. An empty key is ignored so a missing
// database token never clobbers an environment-provided one.
func (s *Source) SetAPIKey(id ProviderID, key string) {
	key = strings.TrimSpace(key)
	if key == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	settings := s.settings[id]
	settings.APIKey = key
	s.settings[id] = settings
}

// SetDefaultProvider changes the configured default.
func (s *Source) SetDefaultProvider(id ProviderID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.defaultID = id
}

var _ ConfigSource = (*Source)(nil)
