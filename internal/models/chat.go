package models

import "time"

// Turn roles as persisted in the session history.
const (
	RoleUser = "user"
	RoleBot  = "bot"
)

// ChatTurn is one message in a session's conversation. Turns are immutable
// once appended. User turns may reference images by id; the image payloads
// live in the bounded image store, not in the turn log.
type ChatTurn struct {
	Role      string    `json:"role"`
	Text      string    `json:"text"`
	ImageIDs  []string  `json:"image_ids,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// StoredImage is an uploaded chat image held in the bounded image store.
// Data is base64-encoded.
type StoredImage struct {
	ID        string    `json:"id"`
	MIMEType  string    `json:"mime_type"`
	SizeBytes int       `json:"size_bytes"`
	Data      string    `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

// ImageUpload is the inbound shape for a chat image before validation.
type ImageUpload struct {
	MIMEType string `json:"mime_type"`
	Data     string `json:"data"`
}

// RejectedImage reports why a single image in an upload batch was dropped.
type RejectedImage struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

// ChatRequest is the payload sent to the chat endpoint.
type ChatRequest struct {
	Message string        `json:"message"`
	Images  []ImageUpload `json:"images,omitempty"`
}

// ChatResponse is the reply from the fashion advisor.
type ChatResponse struct {
	Reply    string `json:"reply"`
	Model    string `json:"model"`
	Promoted bool   `json:"promoted"`
}

// ChatStats backs the debug panel counters.
type ChatStats struct {
	MessagesSent   int   `json:"messages_sent"`
	AvgResponseMs  int64 `json:"avg_response_ms"`
	LastResponseMs int64 `json:"last_response_ms"`
}
