package models

// MessageRequest is the body of POST /message and of a websocket frame.
type MessageRequest struct {
	Message        string `json:"message"`
	ConversationID string `json:"conversation_id,omitempty"`
}

// MessageResponse answers a MessageRequest.
type MessageResponse struct {
	ConversationID   string `json:"conversation_id"`
	Response         string `json:"response"`
	PaymentReference string `json:"payment_reference,omitempty"`
}

// ConversationResponse is the body of GET /conversation/{id}.
type ConversationResponse struct {
	ConversationID string         `json:"conversation_id"`
	Messages       []HistoryEntry `json:"messages"`
}

// ResetResponse is the body of DELETE /conversation/{id}.
type ResetResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// SearchResponse is the body of GET /conversation/{id}/search.
type SearchResponse struct {
	ConversationID string          `json:"conversation_id"`
	Query          string          `json:"query"`
	Results        []ScoredMessage `json:"results"`
}

// ErrorResponse is returned with every non-2xx status.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}
