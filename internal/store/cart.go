package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"

	"vestia-backend/internal/catalog"
	"vestia-backend/internal/models"
	"vestia-backend/internal/storage"
)

// ErrEmptyCart is returned by Checkout when there is nothing to buy.
var ErrEmptyCart = errors.New("cart: cart is empty")

// CartStore owns the per-session cart. Every mutation is persisted
// write-through before subscribers are notified; there is no batching.
type CartStore struct {
	backend  storage.Store
	catalog  *catalog.Client
	notifier Notifier
}

func NewCartStore(backend storage.Store, catalogClient *catalog.Client, notifier Notifier) *CartStore {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &CartStore{
		backend:  backend,
		catalog:  catalogClient,
		notifier: notifier,
	}
}

// AddProduct resolves a catalog product id, then adds one unit of it. A
// failed detail fetch leaves the cart untouched: no partial item is added.
func (s *CartStore) AddProduct(ctx context.Context, sessionID, productID string) (models.CartSnapshot, error) {
	product, err := s.catalog.GetProduct(ctx, productID)
	if err != nil {
		return models.CartSnapshot{}, fmt.Errorf("cart: resolve product %s: %w", productID, err)
	}

	item := models.CartItem{
		ID:        strconv.Itoa(product.ID),
		Name:      product.Title,
		UnitPrice: product.Price,
		Quantity:  1,
		ImageURL:  product.Thumbnail,
		Category:  product.Category,
		Brand:     product.Brand,
	}
	return s.AddItem(ctx, sessionID, item)
}

// AddItem merges the item into the cart: an existing line with the same id
// has its quantity incremented, otherwise the item is appended. Items added
// without a catalog id carry a synthetic "name|price" id.
func (s *CartStore) AddItem(ctx context.Context, sessionID string, item models.CartItem) (models.CartSnapshot, error) {
	if item.Quantity < 1 {
		item.Quantity = 1
	}
	if item.ID == "" {
		item.ID = fmt.Sprintf("%s|%g", item.Name, item.UnitPrice)
	}

	items := s.load(ctx, sessionID)

	merged := false
	for i := range items {
		if items[i].ID == item.ID {
			items[i].Quantity += item.Quantity
			merged = true
			break
		}
	}
	if !merged {
		items = append(items, item)
	}

	return s.save(ctx, sessionID, items)
}

// ChangeQuantity adds delta to the item's quantity. A result of zero or less
// removes the line entirely. Unknown ids are a no-op.
func (s *CartStore) ChangeQuantity(ctx context.Context, sessionID, itemID string, delta int) (models.CartSnapshot, error) {
	items := s.load(ctx, sessionID)

	idx := -1
	for i := range items {
		if items[i].ID == itemID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return snapshot(items), nil
	}

	items[idx].Quantity += delta
	if items[idx].Quantity <= 0 {
		items = append(items[:idx], items[idx+1:]...)
	}

	return s.save(ctx, sessionID, items)
}

// Remove deletes the line unconditionally.
func (s *CartStore) Remove(ctx context.Context, sessionID, itemID string) (models.CartSnapshot, error) {
	items := s.load(ctx, sessionID)

	kept := items[:0]
	for _, it := range items {
		if it.ID != itemID {
			kept = append(kept, it)
		}
	}

	return s.save(ctx, sessionID, kept)
}

// Clear empties the cart.
func (s *CartStore) Clear(ctx context.Context, sessionID string) (models.CartSnapshot, error) {
	return s.save(ctx, sessionID, nil)
}

// Snapshot returns the current cart without mutating it.
func (s *CartStore) Snapshot(ctx context.Context, sessionID string) models.CartSnapshot {
	return snapshot(s.load(ctx, sessionID))
}

// Total is the sum of unit price times quantity over all lines.
func (s *CartStore) Total(ctx context.Context, sessionID string) float64 {
	return snapshot(s.load(ctx, sessionID)).Total
}

// Checkout simulates a purchase: a non-empty cart is cleared, an empty cart
// is rejected with no state change.
func (s *CartStore) Checkout(ctx context.Context, sessionID string) (models.CartSnapshot, error) {
	items := s.load(ctx, sessionID)
	if len(items) == 0 {
		return models.CartSnapshot{}, ErrEmptyCart
	}
	return s.save(ctx, sessionID, nil)
}

// load reads the persisted cart. Missing or corrupt data degrades to an
// empty cart instead of blocking the session.
func (s *CartStore) load(ctx context.Context, sessionID string) []models.CartItem {
	raw, err := s.backend.Get(ctx, sessionID, storage.KeyCart)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			log.Printf("cart: load for session %s: %v", sessionID, err)
		}
		return nil
	}

	var items []models.CartItem
	if err := json.Unmarshal(raw, &items); err != nil {
		log.Printf("cart: corrupt persisted cart for session %s: %v", sessionID, err)
		return nil
	}
	return items
}

func (s *CartStore) save(ctx context.Context, sessionID string, items []models.CartItem) (models.CartSnapshot, error) {
	if items == nil {
		items = []models.CartItem{}
	}

	raw, err := json.Marshal(items)
	if err != nil {
		return models.CartSnapshot{}, fmt.Errorf("cart: encode: %w", err)
	}
	if err := s.backend.Set(ctx, sessionID, storage.KeyCart, raw); err != nil {
		return models.CartSnapshot{}, fmt.Errorf("cart: persist: %w", err)
	}

	snap := snapshot(items)
	s.notifier.CartUpdated(ctx, sessionID, snap)
	return snap, nil
}

func snapshot(items []models.CartItem) models.CartSnapshot {
	if items == nil {
		items = []models.CartItem{}
	}

	snap := models.CartSnapshot{Items: items}
	for _, it := range items {
		snap.Total += it.Subtotal()
		snap.ItemCount += it.Quantity
	}
	return snap
}
