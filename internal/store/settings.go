package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"vestia-backend/internal/storage"
)

// SettingsStore persists the session's saved Gemini API key.
type SettingsStore struct {
	backend storage.Store
}

func NewSettingsStore(backend storage.Store) *SettingsStore {
	return &SettingsStore{backend: backend}
}

// SaveAPIKey stores a non-empty, trimmed key.
func (s *SettingsStore) SaveAPIKey(ctx context.Context, sessionID, apiKey string) error {
	trimmed := strings.TrimSpace(apiKey)
	if trimmed == "" {
		return fmt.Errorf("settings: api key is empty")
	}

	raw, _ := json.Marshal(trimmed)
	if err := s.backend.Set(ctx, sessionID, storage.KeyAPIKey, raw); err != nil {
		return fmt.Errorf("settings: persist api key: %w", err)
	}
	return nil
}

// APIKey returns the saved key, or "" when none is configured.
func (s *SettingsStore) APIKey(ctx context.Context, sessionID string) string {
	raw, err := s.backend.Get(ctx, sessionID, storage.KeyAPIKey)
	if err != nil {
		return ""
	}

	var key string
	if err := json.Unmarshal(raw, &key); err != nil {
		return ""
	}
	return key
}

// HasAPIKey reports whether a key is configured for the session.
func (s *SettingsStore) HasAPIKey(ctx context.Context, sessionID string) bool {
	return s.APIKey(ctx, sessionID) != ""
}

// ClearAPIKey removes the saved key.
func (s *SettingsStore) ClearAPIKey(ctx context.Context, sessionID string) error {
	return s.backend.Delete(ctx, sessionID, storage.KeyAPIKey)
}
