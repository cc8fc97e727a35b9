package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"vestia-backend/internal/catalog"
	"vestia-backend/internal/models"
)

type CatalogHandler struct {
	client   *catalog.Client
	pageSize int
}

func NewCatalogHandler(client *catalog.Client, pageSize int) *CatalogHandler {
	return &CatalogHandler{client: client, pageSize: pageSize}
}

// productListResponse is a catalog page plus the pagination strip the
// client renders under the grid.
type productListResponse struct {
	Products   []models.Product `json:"products"`
	Total      int              `json:"total"`
	Page       int              `json:"page"`
	PageSize   int              `json:"page_size"`
	TotalPages int              `json:"total_pages"`
	Window     []int            `json:"window"`
	HasPrev    bool             `json:"has_prev"`
	HasNext    bool             `json:"has_next"`
}

// ListProducts handles GET /api/v1/products?q=&category=&page=.
// A category selection and a search term are mutually exclusive; the
// category wins when both are present, matching the browse flow where
// picking a category clears the search box.
func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		page = 1
	}

	var q catalog.Query
	if category := r.URL.Query().Get("category"); category != "" {
		q = catalog.Query{Kind: catalog.QueryCategory, Category: category}
	} else {
		var ok bool
		q, ok = catalog.QueryForInput(r.URL.Query().Get("q"))
		if !ok {
			writeJSON(w, http.StatusBadRequest, errorResp("QUERY_TOO_SHORT", "Search term must be at least 3 characters", r))
			return
		}
	}

	result, err := h.client.LoadProducts(r.Context(), q, page, h.pageSize)
	if err != nil {
		handleStoreError(w, r, err)
		return
	}

	p := catalog.Pagination{Page: page, PageSize: h.pageSize, Total: result.Total}
	writeJSON(w, http.StatusOK, productListResponse{
		Products:   result.Products,
		Total:      result.Total,
		Page:       page,
		PageSize:   h.pageSize,
		TotalPages: p.TotalPages(),
		Window:     p.Window(),
		HasPrev:    p.HasPrev(),
		HasNext:    p.HasNext(),
	})
}

// GetProduct handles GET /api/v1/products/{id}.
func (h *CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("INVALID_INPUT", "Product ID is required", r))
		return
	}

	product, err := h.client.GetProduct(r.Context(), id)
	if err != nil {
		handleStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, product)
}
