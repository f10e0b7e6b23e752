package domain

import "time"

// Conversation is the owning container for uploaded files. Only the fields
// the ingestion pipeline needs are modeled here; messages, titles and
// pinning live in another service.
type Conversation struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
