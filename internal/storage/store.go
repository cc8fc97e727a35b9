// Package storage holds per-session keys with JSON-encoded blob values.
// Reads and writes are individually durable but read-modify-write sequences
// are not coordinated across writers; the last writer wins.
package storage

import "context"

// Store keys used by the session stores.
const (
	KeyCart    = "cart"
	KeyHistory = "chat_history"
	KeyImages  = "chat_images"
	KeyAPIKey  = "api_key"
)

// Store is a per-session key/value blob store.
type Store interface {
	// Get returns the value for key, or ErrNotFound.
	Get(ctx context.Context, sessionID, key string) ([]byte, error)
	// Set writes the value for key, creating or replacing it.
	Set(ctx context.Context, sessionID, key string, value []byte) error
	// Delete removes the key. Deleting an absent key is not an error.
	Delete(ctx context.Context, sessionID, key string) error
}
