package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"vestia-backend/internal/middleware"
	"vestia-backend/internal/models"
	"vestia-backend/internal/services"
	"vestia-backend/internal/store"
)

type ChatHandler struct {
	chat     *store.ChatStore
	images   *store.ImageStore
	settings *store.SettingsStore
	gemini   *services.GeminiService

	// fallbackAPIKey is the server-wide key used when the session has not
	// stored its own.
	fallbackAPIKey string
}

func NewChatHandler(chat *store.ChatStore, images *store.ImageStore, settings *store.SettingsStore, gemini *services.GeminiService, fallbackAPIKey string) *ChatHandler {
	return &ChatHandler{
		chat:           chat,
		images:         images,
		settings:       settings,
		gemini:         gemini,
		fallbackAPIKey: fallbackAPIKey,
	}
}

type chatMessageResponse struct {
	models.ChatResponse
	RejectedImages []models.RejectedImage `json:"rejected_images,omitempty"`
}

// SendMessage handles POST /api/v1/chat/messages. One send per session at a
// time: a second send while the first is outstanding is rejected with 409.
// The user turn is always persisted; when the provider fails, the bot turn
// carries the user-facing error text so the conversation keeps alternating.
func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	sessionID := middleware.GetSessionID(r.Context())

	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("INVALID_INPUT", "Invalid request body", r))
		return
	}
	if strings.TrimSpace(req.Message) == "" && len(req.Images) == 0 {
		writeJSON(w, http.StatusBadRequest, errorResp("INVALID_INPUT", "Message or images required", r))
		return
	}

	apiKey := h.settings.APIKey(r.Context(), sessionID)
	if apiKey == "" {
		apiKey = h.fallbackAPIKey
	}
	if apiKey == "" {
		writeJSON(w, http.StatusUnauthorized, errorResp("API_KEY_MISSING", "No Gemini API key configured. Set one in the settings.", r))
		return
	}

	sendCtx, cancel := context.WithCancel(r.Context())
	defer cancel()

	if err := h.chat.BeginSend(sessionID, cancel); err != nil {
		handleStoreError(w, r, err)
		return
	}
	defer h.chat.EndSend(sessionID)

	// History is snapshotted before the new user turn so the prompt does not
	// include the message twice.
	history := h.chat.History(r.Context(), sessionID)

	userTurn, rejected, err := h.chat.AppendUserTurn(r.Context(), sessionID, req.Message, req.Images)
	if err != nil {
		handleStoreError(w, r, err)
		return
	}

	started := time.Now()
	images := h.images.GetMany(r.Context(), sessionID, userTurn.ImageIDs)
	result, sendErr := h.gemini.Send(sendCtx, sessionID, apiKey, history, req.Message, images)
	h.chat.RecordResponseTime(sessionID, time.Since(started))

	if sendErr != nil {
		botText := chatErrorMessage(sendErr)
		// Persist with the request context: sendCtx may already be cancelled.
		if _, appendErr := h.chat.AppendBotTurn(context.WithoutCancel(r.Context()), sessionID, botText); appendErr != nil {
			handleStoreError(w, r, appendErr)
			return
		}

		if errors.Is(sendErr, services.ErrCancelled) {
			writeJSON(w, http.StatusOK, chatMessageResponse{
				ChatResponse:   models.ChatResponse{Reply: botText},
				RejectedImages: rejected,
			})
			return
		}
		writeJSON(w, chatErrorStatus(sendErr), errorResp("CHAT_FAILED", botText, r))
		return
	}

	if _, err := h.chat.AppendBotTurn(r.Context(), sessionID, result.Text); err != nil {
		handleStoreError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, chatMessageResponse{
		ChatResponse: models.ChatResponse{
			Reply:    result.Text,
			Model:    result.Model,
			Promoted: result.Promoted,
		},
		RejectedImages: rejected,
	})
}

// chatErrorStatus picks the HTTP status for a failed send.
func chatErrorStatus(err error) int {
	var apiErr *services.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Kind {
		case services.KindInvalidKey:
			return http.StatusUnauthorized
		case services.KindQuotaExceeded:
			return http.StatusTooManyRequests
		case services.KindSafetyBlocked:
			return http.StatusUnprocessableEntity
		}
	}
	var blocked *services.SafetyBlockedError
	if errors.As(err, &blocked) {
		return http.StatusUnprocessableEntity
	}
	return http.StatusBadGateway
}

// GetHistory handles GET /api/v1/chat/history.
func (h *ChatHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := middleware.GetSessionID(r.Context())

	turns := h.chat.History(r.Context(), sessionID)
	if turns == nil {
		turns = []models.ChatTurn{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"turns": turns})
}

// ClearChat handles DELETE /api/v1/chat. Any in-flight send is aborted.
func (h *ChatHandler) ClearChat(w http.ResponseWriter, r *http.Request) {
	sessionID := middleware.GetSessionID(r.Context())

	if err := h.chat.Clear(r.Context(), sessionID); err != nil {
		handleStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Chat cleared"})
}

// CancelSend handles POST /api/v1/chat/cancel.
func (h *ChatHandler) CancelSend(w http.ResponseWriter, r *http.Request) {
	sessionID := middleware.GetSessionID(r.Context())

	h.chat.CancelInFlight(sessionID)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Cancellation requested"})
}

// GetStats handles GET /api/v1/chat/stats.
func (h *ChatHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	sessionID := middleware.GetSessionID(r.Context())
	writeJSON(w, http.StatusOK, h.chat.Stats(r.Context(), sessionID))
}

// GetModels handles GET /api/v1/chat/models: the priority list plus the
// current sticky preferred model for the chat header.
func (h *ChatHandler) GetModels(w http.ResponseWriter, r *http.Request) {
	catalog := h.gemini.Catalog()

	preferred := catalog.Preferred()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"models":       catalog.List(),
		"preferred":    preferred,
		"display_name": store.DisplayName(preferred),
	})
}
