package handlers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/go-chi/chi/v5"

	"vestia-backend/internal/catalog"
	"vestia-backend/internal/models"
	"vestia-backend/internal/storage"
	"vestia-backend/internal/store"
)

func newCartHandler(t *testing.T) *CartHandler {
	t.Helper()
	backend := storage.NewMemoryStore()
	// The catalog client points nowhere; tests here add items by name.
	cart := store.NewCartStore(backend, catalog.NewClient("http://127.0.0.1:0"), nil)
	return NewCartHandler(cart)
}

func addItem(t *testing.T, h *CartHandler, body string) models.CartSnapshot {
	t.Helper()
	rec := httptest.NewRecorder()
	h.AddItem(rec, newRequest(t, http.MethodPost, "/api/v1/cart/items", body))
	if rec.Code != http.StatusOK {
		t.Fatalf("add item: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var snap models.CartSnapshot
	decodeBody(t, rec, &snap)
	return snap
}

func TestAddItemByName(t *testing.T) {
	h := newCartHandler(t)

	snap := addItem(t, h, `{"name":"Silk Scarf","price":24.5,"quantity":2}`)
	if len(snap.Items) != 1 || snap.ItemCount != 2 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	if snap.Total != 49 {
		t.Errorf("expected total 49, got %g", snap.Total)
	}
}

func TestAddItemRequiresProductOrName(t *testing.T) {
	h := newCartHandler(t)

	rec := httptest.NewRecorder()
	h.AddItem(rec, newRequest(t, http.MethodPost, "/api/v1/cart/items", `{"quantity":1}`))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestChangeQuantityRemovesLineAtZero(t *testing.T) {
	h := newCartHandler(t)
	snap := addItem(t, h, `{"name":"Silk Scarf","price":24.5}`)
	itemID := snap.Items[0].ID

	req := newRequest(t, http.MethodPut, "/api/v1/cart/items/"+url.PathEscape(itemID), `{"delta":-1}`)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", itemID)
	req = req.WithContext(contextWithRouteCtx(req.Context(), rctx))

	rec := httptest.NewRecorder()
	h.ChangeQuantity(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var after models.CartSnapshot
	decodeBody(t, rec, &after)
	if len(after.Items) != 0 {
		t.Errorf("expected empty cart, got %+v", after.Items)
	}
}

func TestChangeQuantityRejectsZeroDelta(t *testing.T) {
	h := newCartHandler(t)

	rec := httptest.NewRecorder()
	h.ChangeQuantity(rec, newRequest(t, http.MethodPut, "/api/v1/cart/items/x", `{"delta":0}`))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestCheckoutEmptyCartRejected(t *testing.T) {
	h := newCartHandler(t)

	rec := httptest.NewRecorder()
	h.Checkout(rec, newRequest(t, http.MethodPost, "/api/v1/cart/checkout", ""))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if code := errorCode(t, rec); code != "EMPTY_CART" {
		t.Errorf("unexpected error code %q", code)
	}
}

func TestCheckoutClearsCartAndReportsTotal(t *testing.T) {
	h := newCartHandler(t)
	addItem(t, h, `{"name":"Silk Scarf","price":24.5,"quantity":2}`)

	rec := httptest.NewRecorder()
	h.Checkout(rec, newRequest(t, http.MethodPost, "/api/v1/cart/checkout", ""))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Total float64             `json:"total"`
		Cart  models.CartSnapshot `json:"cart"`
	}
	decodeBody(t, rec, &resp)
	if resp.Total != 49 {
		t.Errorf("expected total 49, got %g", resp.Total)
	}
	if len(resp.Cart.Items) != 0 {
		t.Errorf("cart should be empty after checkout, got %+v", resp.Cart.Items)
	}

	rec = httptest.NewRecorder()
	h.GetCart(rec, newRequest(t, http.MethodGet, "/api/v1/cart", ""))
	var after models.CartSnapshot
	decodeBody(t, rec, &after)
	if after.ItemCount != 0 {
		t.Errorf("expected empty cart after checkout, got %+v", after)
	}
}
