package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"flyergen/internal/domain"
)

var fragmentCategories = map[string]string{
	"event-types":   domain.FragmentCategoryEventType,
	"style-presets": domain.FragmentCategoryStylePreset,
}

// FragmentsList lists the fragments in one category. Operators use this to
// audit what the assembler will pick up.
func (a *App) FragmentsList(w http.ResponseWriter, r *http.Request) {
	category, ok := fragmentCategories[chi.URLParam(r, "category")]
	if !ok {
		a.error(w, http.StatusNotFound, "not_found", "unknown fragment category")
		return
	}
	fragments, err := a.Fragments.ListByCategory(r.Context(), category)
	if err != nil {
		a.Logger.Error().Err(err).Str("category", category).Msg("handlers: list fragments failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load fragments")
		return
	}
	a.json(w, http.StatusOK, map[string]any{"items": fragments})
}

// FragmentActive returns the fragment the assembler would use for the
// category and subcategory, or 404 when the store has none.
func (a *App) FragmentActive(w http.ResponseWriter, r *http.Request) {
	category, ok := fragmentCategories[chi.URLParam(r, "category")]
	if !ok {
		a.error(w, http.StatusNotFound, "not_found", "unknown fragment category")
		return
	}
	subcategory := chi.URLParam(r, "subcategory")
	fragment, err := a.Fragments.FindActive(r.Context(), category, subcategory)
	if err != nil {
		a.Logger.Error().Err(err).Str("category", category).Str("subcategory", subcategory).Msg("handlers: fragment lookup failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load fragment")
		return
	}
	if fragment == nil {
		a.error(w, http.StatusNotFound, "not_found", "no active fragment")
		return
	}
	a.json(w, http.StatusOK, fragment)
}
