package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"flyergen/internal/domain"
)

type fakeAssets struct {
	byID   map[string]*domain.FlyerAsset
	byUser map[string][]domain.FlyerAsset
}

func (r *fakeAssets) Save(context.Context, *domain.FlyerAsset) error { return nil }

func (r *fakeAssets) GetByID(_ context.Context, id string) (*domain.FlyerAsset, error) {
	if asset, ok := r.byID[id]; ok {
		return asset, nil
	}
	return nil, domain.ErrNotFound
}

func (r *fakeAssets) ListByUser(_ context.Context, userID string, _, _ int) ([]domain.FlyerAsset, error) {
	return r.byUser[userID], nil
}

func newAssetsApp(assets *fakeAssets, signer *fakeSigner) *App {
	return &App{
		Logger: zerolog.New(io.Discard),
		Assets: assets,
		URLs:   signer,
	}
}

func TestAssetsListSignsEachItem(t *testing.T) {
	now := time.Now()
	assets := &fakeAssets{byUser: map[string][]domain.FlyerAsset{
		"user-1": {
			{ID: "a1", StorageKey: "flyers/a1.png", MIME: "image/png", Provider: "fal", CreatedAt: now},
			{ID: "a2", StorageKey: "flyers/a2.png", MIME: "image/png", Provider: "ideogram", CreatedAt: now},
		},
	}}
	app := newAssetsApp(assets, &fakeSigner{})

	req := httptest.NewRequest(http.MethodGet, "/v1/assets", nil)
	req.Header.Set("X-User-ID", "user-1")
	rec := httptest.NewRecorder()
	app.AssetsList(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Items []assetItem `json:"items"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(resp.Items))
	}
	for _, item := range resp.Items {
		if item.URL == "" {
			t.Fatalf("item %s missing signed url", item.ID)
		}
	}
}

func TestAssetsListRequiresUser(t *testing.T) {
	app := newAssetsApp(&fakeAssets{}, &fakeSigner{})
	req := httptest.NewRequest(http.MethodGet, "/v1/assets", nil)
	rec := httptest.NewRecorder()
	app.AssetsList(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestAssetURLNotFound(t *testing.T) {
	app := newAssetsApp(&fakeAssets{byID: map[string]*domain.FlyerAsset{}}, &fakeSigner{})

	ctx := chi.NewRouteContext()
	ctx.URLParams.Add("id", "missing")
	req := httptest.NewRequest(http.MethodGet, "/v1/assets/missing/url", nil)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, ctx))
	rec := httptest.NewRecorder()
	app.AssetURL(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestAssetURLSigns(t *testing.T) {
	app := newAssetsApp(&fakeAssets{byID: map[string]*domain.FlyerAsset{
		"a1": {ID: "a1", StorageKey: "flyers/a1.png"},
	}}, &fakeSigner{})

	ctx := chi.NewRouteContext()
	ctx.URLParams.Add("id", "a1")
	req := httptest.NewRequest(http.MethodGet, "/v1/assets/a1/url", nil)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, ctx))
	rec := httptest.NewRecorder()
	app.AssetURL(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["url"] != "https://cdn.example.com/flyers/a1.png" {
		t.Fatalf("url = %v", resp["url"])
	}
}

func TestAssetURLsBatchOmitsFailures(t *testing.T) {
	signer := &fakeSigner{failing: map[string]bool{"k2": true}}
	app := newAssetsApp(&fakeAssets{}, signer)

	body := `{"keys":["k1","k2","k3"]}`
	req := httptest.NewRequest(http.MethodPost, "/v1/assets/urls", strings.NewReader(body))
	rec := httptest.NewRecorder()
	app.AssetURLs(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		URLs map[string]string `json:"urls"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.URLs) != 2 {
		t.Fatalf("urls = %#v, want k1 and k3 only", resp.URLs)
	}
	if _, ok := resp.URLs["k2"]; ok {
		t.Fatalf("failed key k2 must be omitted: %#v", resp.URLs)
	}
}

func TestAssetURLsRequiresKeys(t *testing.T) {
	app := newAssetsApp(&fakeAssets{}, &fakeSigner{})
	req := httptest.NewRequest(http.MethodPost, "/v1/assets/urls", strings.NewReader(`{"keys":[]}`))
	rec := httptest.NewRecorder()
	app.AssetURLs(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}
