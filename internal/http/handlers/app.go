package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"flyergen/internal/domain"
	"flyergen/internal/generate"
	"flyergen/internal/providers/image"
)

// FlyerGenerator is the slice of the generation service the handlers need.
type FlyerGenerator interface {
	GenerateFlyer(ctx context.Context, params generate.Params) (*generate.Result, error)
}

// URLSigner issues cached signed read URLs for stored objects.
type URLSigner interface {
	SignedURL(ctx context.Context, key string, expiresIn time.Duration) (string, error)
	SignedURLs(ctx context.Context, keys []string, expiresIn time.Duration) map[string]string
}

// FragmentReader serves the fragment debug endpoints.
type FragmentReader interface {
	FindActive(ctx context.Context, category, subcategory string) (*domain.PromptFragment, error)
	ListByCategory(ctx context.Context, category string) ([]domain.PromptFragment, error)
}

// TokenStore persists provider API tokens.
type TokenStore interface {
	Token(ctx context.Context, provider string) (string, error)
	SetToken(ctx context.Context, provider, token string) error
}

// KeyUpdater pushes a rotated token into a provider's HTTP client.
type KeyUpdater interface {
	SetAPIKey(key string)
}

// App bundles the dependencies shared by all HTTP handlers.
type App struct {
	Logger zerolog.Logger

	Generator FlyerGenerator
	Assets    domain.AssetRepository
	Fragments FragmentReader
	URLs      URLSigner

	Registry    *image.Registry
	Source      *image.Source
	Credentials TokenStore
	Clients     map[image.ProviderID]KeyUpdater

	SignedURLExpiry time.Duration
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, kind, message string) {
	a.json(w, code, errorBody{Error: kind, Message: message})
}

func (a *App) errorWithDetails(w http.ResponseWriter, code int, kind, message string, details any) {
	a.json(w, code, errorBody{Error: kind, Message: message, Details: details})
}

// currentUserID identifies the caller. The gateway in front of this service
// authenticates requests and forwards the subject in X-User-ID.
func (a *App) currentUserID(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get("X-User-ID"))
}

func (a *App) expiry() time.Duration {
	if a.SignedURLExpiry > 0 {
		return a.SignedURLExpiry
	}
	return time.Hour
}
