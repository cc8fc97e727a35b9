package models

// APIError is the error envelope returned by every endpoint.
type APIError struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

type ErrorResponse struct {
	Error APIError `json:"error"`
}

// WSMessage is the envelope pushed to connected clients over the session
// websocket channel.
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// CartUpdate is the websocket payload sent after every cart mutation.
type CartUpdate struct {
	Items     []CartItem `json:"items"`
	Total     float64    `json:"total"`
	ItemCount int        `json:"item_count"`
}

// ModelSwitch is the websocket payload announcing a sticky model promotion.
type ModelSwitch struct {
	Model       string `json:"model"`
	DisplayName string `json:"display_name"`
}
