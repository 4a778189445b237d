package rest

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/schema"
	"github.com/storefrontbase/storefront/internal/catalog"
)

// MaxSearchLimit caps the limit query parameter of the search route.
const MaxSearchLimit = 100

// SearchParams is the query string of GET /api/v1/products/search.
type SearchParams struct {
	Query string `schema:"q"`
	Limit int    `schema:"limit"`
}

func (h *Handler) handleListCategories(w http.ResponseWriter, r *http.Request) {
	list, err := h.catalog.Categories(r.Context())
	if err != nil {
		writeInternalError(w, err, "Failed to fetch categories")
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) handleProductsByCategory(w http.ResponseWriter, r *http.Request) {
	list, err := h.catalog.ProductsByCategory(r.Context(), r.PathValue("categoryId"))
	if err != nil {
		if errors.Is(err, catalog.ErrCategoryRequired) {
			writeError(w, http.StatusBadRequest, ErrCodeBadRequest, msgCategoryRequired)
			return
		}
		writeInternalError(w, err, msgFetchProductsFailed)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	var params SearchParams
	decoder := schema.NewDecoder()
	decoder.IgnoreUnknownKeys(true)
	if err := decoder.Decode(&params, r.URL.Query()); err != nil {
		slog.Warn("Search: invalid query parameters", "error", err)
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "Invalid query parameters")
		return
	}
	if params.Limit < 0 || params.Limit > MaxSearchLimit {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "Invalid limit")
		return
	}

	products, err := h.catalog.Search(r.Context(), params.Query, params.Limit)
	if err != nil {
		if errors.Is(err, catalog.ErrQueryRequired) {
			writeError(w, http.StatusBadRequest, ErrCodeBadRequest, msgSearchRequired)
			return
		}
		writeInternalError(w, err, msgSearchFailed)
		return
	}
	writeJSON(w, http.StatusOK, SearchResult{Products: products})
}
