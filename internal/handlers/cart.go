package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"vestia-backend/internal/middleware"
	"vestia-backend/internal/models"
	"vestia-backend/internal/store"
)

type CartHandler struct {
	cart *store.CartStore
}

func NewCartHandler(cart *store.CartStore) *CartHandler {
	return &CartHandler{cart: cart}
}

type addItemRequest struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Image     string  `json:"image"`
	Quantity  int     `json:"quantity"`
}

type changeQuantityRequest struct {
	Delta int `json:"delta"`
}

// GetCart handles GET /api/v1/cart.
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	sessionID := middleware.GetSessionID(r.Context())
	writeJSON(w, http.StatusOK, h.cart.Snapshot(r.Context(), sessionID))
}

// AddItem handles POST /api/v1/cart/items. Either a catalog product_id or a
// free-form name and price is accepted; the catalog id wins when both are set.
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	sessionID := middleware.GetSessionID(r.Context())

	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("INVALID_INPUT", "Invalid request body", r))
		return
	}

	var (
		snap models.CartSnapshot
		err  error
	)
	switch {
	case req.ProductID != "":
		snap, err = h.cart.AddProduct(r.Context(), sessionID, req.ProductID)
	case req.Name != "":
		snap, err = h.cart.AddItem(r.Context(), sessionID, models.CartItem{
			Name:      req.Name,
			UnitPrice: req.Price,
			Quantity:  req.Quantity,
			ImageURL:  req.Image,
		})
	default:
		writeJSON(w, http.StatusBadRequest, errorResp("INVALID_INPUT", "Either product_id or name is required", r))
		return
	}
	if err != nil {
		handleStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// ChangeQuantity handles PUT /api/v1/cart/items/{id}. A delta that drives the
// quantity to zero or below removes the line.
func (h *CartHandler) ChangeQuantity(w http.ResponseWriter, r *http.Request) {
	sessionID := middleware.GetSessionID(r.Context())
	itemID := chi.URLParam(r, "id")

	var req changeQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Delta == 0 {
		writeJSON(w, http.StatusBadRequest, errorResp("INVALID_INPUT", "A non-zero delta is required", r))
		return
	}

	snap, err := h.cart.ChangeQuantity(r.Context(), sessionID, itemID, req.Delta)
	if err != nil {
		handleStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// RemoveItem handles DELETE /api/v1/cart/items/{id}.
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	sessionID := middleware.GetSessionID(r.Context())
	itemID := chi.URLParam(r, "id")

	snap, err := h.cart.Remove(r.Context(), sessionID, itemID)
	if err != nil {
		handleStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// ClearCart handles DELETE /api/v1/cart.
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	sessionID := middleware.GetSessionID(r.Context())

	snap, err := h.cart.Clear(r.Context(), sessionID)
	if err != nil {
		handleStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// Checkout handles POST /api/v1/cart/checkout. An empty cart is rejected and
// left untouched.
func (h *CartHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	sessionID := middleware.GetSessionID(r.Context())

	total := h.cart.Total(r.Context(), sessionID)
	snap, err := h.cart.Checkout(r.Context(), sessionID)
	if err != nil {
		handleStoreError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Thank you for your purchase!",
		"total":   total,
		"cart":    snap,
	})
}
