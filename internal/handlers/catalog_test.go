package handlers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"vestia-backend/internal/catalog"
)

func newCatalogServer(t *testing.T, handler http.HandlerFunc) (*CatalogHandler, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewCatalogHandler(catalog.NewClient(srv.URL), 9), srv
}

func TestListProductsReturnsPageStrip(t *testing.T) {
	h, _ := newCatalogServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"products":[{"id":1,"title":"Shirt","price":19.99}],"total":95,"skip":0,"limit":9}`)
	})

	rec := httptest.NewRecorder()
	h.ListProducts(rec, newRequest(t, http.MethodGet, "/api/v1/products", ""))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp productListResponse
	decodeBody(t, rec, &resp)

	if resp.Total != 95 || resp.Page != 1 {
		t.Errorf("unexpected page meta: total=%d page=%d", resp.Total, resp.Page)
	}
	if resp.TotalPages != 11 {
		t.Errorf("expected 11 total pages for 95 items at 9 per page, got %d", resp.TotalPages)
	}
	if len(resp.Window) != 7 || resp.Window[0] != 1 {
		t.Errorf("unexpected window %v", resp.Window)
	}
	if resp.HasPrev || !resp.HasNext {
		t.Errorf("page 1 should have next only: prev=%v next=%v", resp.HasPrev, resp.HasNext)
	}
}

func TestListProductsForwardsCategoryAndPage(t *testing.T) {
	var gotPath, gotSkip string
	h, _ := newCatalogServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotSkip = r.URL.Query().Get("skip")
		fmt.Fprint(w, `{"products":[],"total":0,"skip":18,"limit":9}`)
	})

	rec := httptest.NewRecorder()
	h.ListProducts(rec, newRequest(t, http.MethodGet, "/api/v1/products?category=mens-shirts&page=3", ""))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if gotPath != "/products/category/mens-shirts" {
		t.Errorf("unexpected upstream path %q", gotPath)
	}
	if gotSkip != "18" {
		t.Errorf("expected skip=18 for page 3, got %q", gotSkip)
	}
}

func TestListProductsRejectsShortSearchTerm(t *testing.T) {
	h, _ := newCatalogServer(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("upstream should not be called for a short term")
	})

	rec := httptest.NewRecorder()
	h.ListProducts(rec, newRequest(t, http.MethodGet, "/api/v1/products?q=te", ""))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if code := errorCode(t, rec); code != "QUERY_TOO_SHORT" {
		t.Errorf("unexpected error code %q", code)
	}
}

func TestListProductsUpstreamFailure(t *testing.T) {
	h, _ := newCatalogServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	rec := httptest.NewRecorder()
	h.ListProducts(rec, newRequest(t, http.MethodGet, "/api/v1/products", ""))

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
	if code := errorCode(t, rec); code != "CATALOG_UNAVAILABLE" {
		t.Errorf("unexpected error code %q", code)
	}
}

func TestGetProduct(t *testing.T) {
	h, _ := newCatalogServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/products/42" {
			t.Errorf("unexpected upstream path %q", r.URL.Path)
		}
		fmt.Fprint(w, `{"id":42,"title":"Leather Jacket","price":89.5,"category":"mens-jackets"}`)
	})

	req := newRequest(t, http.MethodGet, "/api/v1/products/42", "")
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", "42")
	req = req.WithContext(contextWithRouteCtx(req.Context(), rctx))

	rec := httptest.NewRecorder()
	h.GetProduct(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var product struct {
		ID    int     `json:"id"`
		Title string  `json:"title"`
		Price float64 `json:"price"`
	}
	decodeBody(t, rec, &product)
	if product.ID != 42 || product.Title != "Leather Jacket" {
		t.Errorf("unexpected product %+v", product)
	}
}
