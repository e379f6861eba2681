package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"flyergen/internal/domain"
	"flyergen/internal/generate"
	"flyergen/internal/middleware"
	"flyergen/internal/providers/image"
)

type flyerGenerateRequest struct {
	Prompt        string            `json:"prompt"`
	EventType     string            `json:"event_type"`
	EventDetails  map[string]string `json:"event_details"`
	Style         string            `json:"style"`
	AspectRatio   string            `json:"aspect_ratio"`
	Quality       string            `json:"quality"`
	Seed          *int64            `json:"seed"`
	RandomizeSeed bool              `json:"randomize_seed"`
	Provider      string            `json:"provider"`
}

type flyerGenerateResponse struct {
	AssetID     string  `json:"asset_id"`
	URL         string  `json:"url,omitempty"`
	StorageKey  string  `json:"storage_key"`
	Provider    string  `json:"provider"`
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	AspectRatio string  `json:"aspect_ratio"`
	Seed        *int64  `json:"seed,omitempty"`
	CostUSD     float64 `json:"cost_usd"`
	DurationMS  int64   `json:"duration_ms"`
	Prompt      string  `json:"prompt"`
}

// FlyersGenerate runs the generation pipeline for one flyer request.
func (a *App) FlyersGenerate(w http.ResponseWriter, r *http.Request) {
	var req flyerGenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if req.Prompt == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "prompt is required")
		return
	}

	details := make(map[string]string, len(req.EventDetails)+2)
	for k, v := range req.EventDetails {
		details[k] = v
	}
	if _, ok := details["locale"]; !ok {
		details["locale"] = middleware.LocaleFromContext(r.Context())
	}
	if country := middleware.CountryFromContext(r.Context()); country != "" {
		if _, ok := details["country"]; !ok {
			details["country"] = country
		}
	}

	result, err := a.Generator.GenerateFlyer(r.Context(), generate.Params{
		Prompt:        req.Prompt,
		EventType:     domain.NormalizeEventType(req.EventType),
		EventDetails:  details,
		Style:         req.Style,
		AspectRatio:   req.AspectRatio,
		Quality:       image.NormalizeQuality(req.Quality),
		Seed:          req.Seed,
		RandomizeSeed: req.RandomizeSeed,
		Provider:      image.ProviderID(req.Provider),
		UserID:        a.currentUserID(r),
		RequestID:     middleware.RequestIDFromContext(r.Context()),
	})
	if err != nil {
		a.generateError(w, err)
		return
	}

	url, signErr := a.URLs.SignedURL(r.Context(), result.StorageKey, a.expiry())
	if signErr != nil {
		a.Logger.Warn().Err(signErr).Str("key", result.StorageKey).Msg("handlers: signing generated asset url failed")
	}

	a.json(w, http.StatusCreated, flyerGenerateResponse{
		AssetID:     result.AssetID,
		URL:         url,
		StorageKey:  result.StorageKey,
		Provider:    string(result.Provider),
		Width:       result.Width,
		Height:      result.Height,
		AspectRatio: result.Aspect,
		Seed:        result.Seed,
		CostUSD:     result.CostUSD,
		DurationMS:  result.Duration.Milliseconds(),
		Prompt:      result.Prompt,
	})
}

func (a *App) generateError(w http.ResponseWriter, err error) {
	var unsupported *image.UnsupportedAspectRatioError
	if errors.As(err, &unsupported) {
		a.errorWithDetails(w, http.StatusBadRequest, "unsupported_aspect_ratio", err.Error(), map[string]any{
			"provider":  string(unsupported.Provider),
			"ratio":     unsupported.Ratio,
			"supported": unsupported.Supported,
		})
		return
	}
	var genErr *image.GenerationError
	if errors.As(err, &genErr) {
		a.error(w, http.StatusBadGateway, "provider_error", err.Error())
		return
	}
	switch {
	case errors.Is(err, domain.ErrNoProviderAvailable):
		a.error(w, http.StatusServiceUnavailable, "no_provider", "no image provider is configured and enabled")
	case errors.Is(err, domain.ErrInvalidRequest):
		a.error(w, http.StatusBadRequest, "bad_request", err.Error())
	default:
		a.error(w, http.StatusInternalServerError, "internal", "flyer generation failed")
	}
}
