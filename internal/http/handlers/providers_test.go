package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"flyergen/internal/providers/image"
)

type stubGen struct {
	caps image.Capabilities
}

func (g *stubGen) Capabilities() image.Capabilities { return g.caps }

func (g *stubGen) Generate(context.Context, image.GenerateRequest) (*image.GenerateResult, error) {
	return &image.GenerateResult{Provider: g.caps.Name}, nil
}

type fakeTokens struct {
	stored map[string]string
}

func (f *fakeTokens) Token(_ context.Context, provider string) (string, error) {
	return f.stored[provider], nil
}

func (f *fakeTokens) SetToken(_ context.Context, provider, token string) error {
	f.stored[provider] = token
	return nil
}

type recordingUpdater struct {
	key string
}

func (u *recordingUpdater) SetAPIKey(key string) { u.key = key }

func newProvidersApp(tokens *fakeTokens) (*App, *recordingUpdater) {
	source := image.NewSource(map[image.ProviderID]image.Settings{
		"alpha": {Enabled: true},
	}, "")
	registry := image.NewRegistry(source, &stubGen{caps: image.Capabilities{Name: "alpha", AspectRatios: []string{"1:1"}}})
	updater := &recordingUpdater{}
	app := &App{
		Logger:      zerolog.New(io.Discard),
		Registry:    registry,
		Source:      source,
		Credentials: tokens,
		Clients:     map[image.ProviderID]KeyUpdater{"alpha": updater},
	}
	return app, updater
}

func TestProvidersListReportsCredentialState(t *testing.T) {
	app, _ := newProvidersApp(&fakeTokens{stored: map[string]string{}})

	req := httptest.NewRequest(http.MethodGet, "/v1/providers", nil)
	rec := httptest.NewRecorder()
	app.ProvidersList(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Items []providerItem `json:"items"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Items) != 1 {
		t.Fatalf("items = %d, want 1", len(resp.Items))
	}
	item := resp.Items[0]
	if item.Name != "alpha" || !item.Enabled || item.Credentialed {
		t.Fatalf("item mismatch: %+v", item)
	}
}

func TestProvidersListReportsEffectivePriority(t *testing.T) {
	source := image.NewSource(map[image.ProviderID]image.Settings{
		"alpha": {Enabled: true},
	}, "")
	registry := image.NewRegistry(source, &stubGen{caps: image.Capabilities{Name: "alpha", AspectRatios: []string{"1:1"}, Priority: 20}})
	app := &App{Logger: zerolog.New(io.Discard), Registry: registry, Source: source}

	req := httptest.NewRequest(http.MethodGet, "/v1/providers", nil)
	rec := httptest.NewRecorder()
	app.ProvidersList(rec, req)

	var resp struct {
		Items []providerItem `json:"items"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Items) != 1 || resp.Items[0].Priority != 20 {
		t.Fatalf("priority not reported with capability fallback: %+v", resp.Items)
	}
}

func TestProvidersReloadAppliesStoredTokens(t *testing.T) {
	tokens := &fakeTokens{stored: map[string]string{"alpha": "db-token"}}
	app, updater := newProvidersApp(tokens)

	req := httptest.NewRequest(http.MethodPost, "/v1/providers/reload", nil)
	rec := httptest.NewRecorder()
	app.ProvidersReload(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if updater.key != "db-token" {
		t.Fatalf("client key = %q, want db-token", updater.key)
	}
	if _, err := app.Registry.Select(""); err != nil {
		t.Fatalf("provider not selectable after reload: %v", err)
	}
}

func TestProviderSetTokenStoresAndReloads(t *testing.T) {
	tokens := &fakeTokens{stored: map[string]string{}}
	app, updater := newProvidersApp(tokens)

	ctx := chi.NewRouteContext()
	ctx.URLParams.Add("provider", "alpha")
	req := httptest.NewRequest(http.MethodPost, "/v1/providers/alpha/token", strings.NewReader(`{"token":"fresh"}`))
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, ctx))
	rec := httptest.NewRecorder()
	app.ProviderSetToken(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if tokens.stored["alpha"] != "fresh" {
		t.Fatalf("token not persisted: %#v", tokens.stored)
	}
	if updater.key != "fresh" {
		t.Fatalf("client key = %q, want fresh", updater.key)
	}
	if _, err := app.Registry.Select("alpha"); err != nil {
		t.Fatalf("provider not selectable after token set: %v", err)
	}
}
