package models

import (
	"fmt"
	"strings"
	"time"
)

// Role identifies who authored a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ParseRole converts a raw role string, rejecting anything outside the two known roles.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q (expected %q or %q)", s, RoleUser, RoleAssistant)
	}
	return r, nil
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// Label is the speaker name used when rendering a transcript.
func (r Role) Label() string {
	if r == RoleUser {
		return "Customer"
	}
	return "Support Agent"
}

// Message is one immutable conversational turn.
// Seq is minted at write time and only used to restore chronological order.
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	Role           Role      `json:"role"`
	Content        string    `json:"content"`
	Seq            int64     `json:"seq"`
	CreatedAt      time.Time `json:"created_at"`
}

// HistoryEntry is a message stripped of store-internal fields.
type HistoryEntry struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ScoredMessage is a message returned by similarity search.
type ScoredMessage struct {
	Message
	Distance float64 `json:"distance"`
}
