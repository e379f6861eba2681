package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"flyergen/internal/providers/image"
)

type providerItem struct {
	Name          string   `json:"name"`
	Enabled       bool     `json:"enabled"`
	Credentialed  bool     `json:"credentialed"`
	Default       bool     `json:"default"`
	Priority      int      `json:"priority"`
	AspectRatios  []string `json:"aspect_ratios"`
	SupportsSeeds bool     `json:"supports_seeds"`
}

// ProvidersList reports the configured providers and which one the selector
// would use by default.
func (a *App) ProvidersList(w http.ResponseWriter, r *http.Request) {
	defaultID := a.Source.DefaultProvider()
	entries := a.Registry.Entries()
	items := make([]providerItem, 0, len(entries))
	for _, entry := range entries {
		items = append(items, providerItem{
			Name:          string(entry.Caps.Name),
			Enabled:       entry.Settings.Enabled,
			Credentialed:  entry.Settings.APIKey != "",
			Default:       entry.Caps.Name == defaultID,
			Priority:      entry.EffectivePriority(),
			AspectRatios:  entry.Caps.AspectRatios,
			SupportsSeeds: entry.Caps.SupportsSeeds,
		})
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}

// ProvidersReload re-reads stored provider tokens and swaps in a fresh
// registry snapshot. In-flight selections keep the old snapshot.
func (a *App) ProvidersReload(w http.ResponseWriter, r *http.Request) {
	reloaded := a.overlayStoredTokens(r)
	a.Registry.Reload()
	a.Logger.Info().Int("tokens_loaded", reloaded).Msg("handlers: provider registry reloaded")
	a.json(w, http.StatusOK, map[string]any{"status": "reloaded", "tokens_loaded": reloaded})
}

type providerTokenRequest struct {
	Token string `json:"token"`
}

// ProviderSetToken stores a provider API token and reloads the registry so
// the new credential takes effect immediately.
func (a *App) ProviderSetToken(w http.ResponseWriter, r *http.Request) {
	provider := strings.ToLower(chi.URLParam(r, "provider"))
	if provider == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "provider required")
		return
	}
	var req providerTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if err := a.Credentials.SetToken(r.Context(), provider, req.Token); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	a.applyToken(image.ProviderID(provider), req.Token)
	a.Registry.Reload()
	a.json(w, http.StatusOK, map[string]string{"status": "stored"})
}

func (a *App) overlayStoredTokens(r *http.Request) int {
	if a.Credentials == nil {
		return 0
	}
	loaded := 0
	for _, entry := range a.Registry.Entries() {
		provider := string(entry.Caps.Name)
		token, err := a.Credentials.Token(r.Context(), provider)
		if err != nil {
			a.Logger.Warn().Err(err).Str("provider", provider).Msg("handlers: token lookup failed during reload")
			continue
		}
		if token == "" {
			continue
		}
		a.applyToken(entry.Caps.Name, token)
		loaded++
	}
	return loaded
}

// applyToken updates both the selector's settings and the provider's live
// HTTP client, so rotation takes effect without a restart.
func (a *App) applyToken(id image.ProviderID, token string) {
	a.Source.SetAPIKey(id, token)
	if client, ok := a.Clients[id]; ok {
		client.SetAPIKey(token)
	}
}
