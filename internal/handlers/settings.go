package handlers

import (
	"encoding/json"
	"net/http"

	"vestia-backend/internal/middleware"
	"vestia-backend/internal/store"
)

type SettingsHandler struct {
	settings *store.SettingsStore

	// serverHasKey reports whether a server-wide fallback key exists, so the
	// client can tell "configured" from "must supply your own".
	serverHasKey bool
}

func NewSettingsHandler(settings *store.SettingsStore, serverHasKey bool) *SettingsHandler {
	return &SettingsHandler{settings: settings, serverHasKey: serverHasKey}
}

type saveAPIKeyRequest struct {
	APIKey string `json:"api_key"`
}

// SaveAPIKey handles PUT /api/v1/settings/api-key.
func (h *SettingsHandler) SaveAPIKey(w http.ResponseWriter, r *http.Request) {
	sessionID := middleware.GetSessionID(r.Context())

	var req saveAPIKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("INVALID_INPUT", "Invalid request body", r))
		return
	}

	if err := h.settings.SaveAPIKey(r.Context(), sessionID, req.APIKey); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("INVALID_INPUT", "API key must not be empty", r))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "API key saved"})
}

// GetAPIKeyStatus handles GET /api/v1/settings/api-key. The key itself is
// never echoed back.
func (h *SettingsHandler) GetAPIKeyStatus(w http.ResponseWriter, r *http.Request) {
	sessionID := middleware.GetSessionID(r.Context())

	configured := h.settings.HasAPIKey(r.Context(), sessionID) || h.serverHasKey
	writeJSON(w, http.StatusOK, map[string]bool{"configured": configured})
}

// ClearAPIKey handles DELETE /api/v1/settings/api-key.
func (h *SettingsHandler) ClearAPIKey(w http.ResponseWriter, r *http.Request) {
	sessionID := middleware.GetSessionID(r.Context())

	if err := h.settings.ClearAPIKey(r.Context(), sessionID); err != nil {
		handleStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "API key removed"})
}
