package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"vestia-backend/internal/catalog"
	"vestia-backend/internal/models"
	"vestia-backend/internal/services"
	"vestia-backend/internal/store"
)

// Shared helpers

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func errorResp(code, message string, r *http.Request) models.ErrorResponse {
	return models.ErrorResponse{
		Error: models.APIError{
			Code:      code,
			Message:   message,
			RequestID: r.Header.Get("X-Request-ID"),
		},
	}
}

// chatErrorMessage maps a classified chat failure onto the single
// user-facing message shown for it. Cancellation is neutral, not an error.
func chatErrorMessage(err error) string {
	if errors.Is(err, services.ErrCancelled) {
		return "The request was cancelled."
	}

	var apiErr *services.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Kind {
		case services.KindInvalidKey:
			return "Error: invalid API key. Please check your configuration."
		case services.KindQuotaExceeded:
			return "Request limit reached. Please try again later."
		case services.KindSafetyBlocked:
			return "Your message was blocked by safety filters."
		default:
			return "Sorry, there was an error processing your message."
		}
	}

	var blocked *services.SafetyBlockedError
	if errors.As(err, &blocked) {
		return "Your message was blocked by safety filters."
	}

	var noText *services.NoTextError
	if errors.As(err, &noText) {
		return "Sorry, the model returned an empty answer. Please try again."
	}

	var exhausted *services.ExhaustedError
	if errors.As(err, &exhausted) {
		return "None of the available models could answer. Please try again later."
	}

	return "Sorry, there was an error processing your message."
}

// handleStoreError maps store and catalog failures to the error envelope.
func handleStoreError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, store.ErrEmptyCart):
		writeJSON(w, http.StatusBadRequest, errorResp("EMPTY_CART", "The cart is empty", r))
	case errors.Is(err, store.ErrSendInFlight):
		writeJSON(w, http.StatusConflict, errorResp("REQUEST_IN_FLIGHT", "A chat request is already in progress", r))
	case errors.Is(err, store.ErrImageNotFound):
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Image not found", r))
	case errors.Is(err, catalog.ErrUnavailable):
		writeJSON(w, http.StatusBadGateway, errorResp("CATALOG_UNAVAILABLE", "Could not reach the store. Please try again.", r))
	default:
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "An unexpected error occurred", r))
	}
}
