// Package store holds the session state objects: cart, chat history, chat
// images and the model catalog. Each store owns its data, persists
// write-through to the storage backend after every mutation, and notifies
// subscribers through a Notifier.
package store

import (
	"context"

	"vestia-backend/internal/models"
)

// Notifier pushes store events to whoever is watching the session (the
// websocket hub in production, a no-op in tests).
type Notifier interface {
	CartUpdated(ctx context.Context, sessionID string, snapshot models.CartSnapshot)
	ModelPromoted(ctx context.Context, sessionID, model, displayName string)
}

// NopNotifier discards all events.
type NopNotifier struct{}

func (NopNotifier) CartUpdated(ctx context.Context, sessionID string, snapshot models.CartSnapshot) {
}

func (NopNotifier) ModelPromoted(ctx context.Context, sessionID, model, displayName string) {}
