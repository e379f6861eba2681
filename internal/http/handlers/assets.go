package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"flyergen/internal/domain"
)

type assetItem struct {
	ID          string    `json:"id"`
	StorageKey  string    `json:"storage_key"`
	MIME        string    `json:"mime"`
	Width       int       `json:"width"`
	Height      int       `json:"height"`
	AspectRatio string    `json:"aspect_ratio"`
	Provider    string    `json:"provider"`
	Seed        *int64    `json:"seed,omitempty"`
	URL         string    `json:"url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// AssetsList returns the caller's generated flyers, newest first, each with a
// signed read URL when signing succeeds.
func (a *App) AssetsList(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "missing user context")
		return
	}
	limit := queryInt(r, "limit", 50)
	offset := queryInt(r, "offset", 0)

	assets, err := a.Assets.ListByUser(r.Context(), userID, limit, offset)
	if err != nil {
		a.Logger.Error().Err(err).Str("user_id", userID).Msg("handlers: list assets failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load assets")
		return
	}

	keys := make([]string, 0, len(assets))
	for _, asset := range assets {
		keys = append(keys, asset.StorageKey)
	}
	urls := a.URLs.SignedURLs(r.Context(), keys, a.expiry())

	items := make([]assetItem, 0, len(assets))
	for _, asset := range assets {
		items = append(items, assetItem{
			ID:          asset.ID,
			StorageKey:  asset.StorageKey,
			MIME:        asset.MIME,
			Width:       asset.Width,
			Height:      asset.Height,
			AspectRatio: asset.Aspect,
			Provider:    asset.Provider,
			Seed:        asset.Seed,
			URL:         urls[asset.StorageKey],
			CreatedAt:   asset.CreatedAt,
		})
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}

// AssetURL returns a signed read URL for one asset.
func (a *App) AssetURL(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "id required")
		return
	}
	asset, err := a.Assets.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "asset not found")
			return
		}
		a.Logger.Error().Err(err).Str("asset_id", id).Msg("handlers: load asset failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load asset")
		return
	}
	url, err := a.URLs.SignedURL(r.Context(), asset.StorageKey, a.expiry())
	if err != nil {
		a.error(w, http.StatusBadGateway, "sign_failed", "could not sign asset url")
		return
	}
	a.json(w, http.StatusOK, map[string]any{
		"id":         asset.ID,
		"url":        url,
		"expires_in": int64(a.expiry().Seconds()),
	})
}

type assetURLsRequest struct {
	Keys []string `json:"keys"`
}

// AssetURLs signs a batch of storage keys. Keys that fail to sign are omitted
// from the response rather than failing the batch.
func (a *App) AssetURLs(w http.ResponseWriter, r *http.Request) {
	var req assetURLsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if len(req.Keys) == 0 {
		a.error(w, http.StatusBadRequest, "bad_request", "keys required")
		return
	}
	urls := a.URLs.SignedURLs(r.Context(), req.Keys, a.expiry())
	a.json(w, http.StatusOK, map[string]any{"urls": urls})
}

func queryInt(r *http.Request, key string, fallback int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
