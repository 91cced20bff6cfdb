package model

import "time"

// Conversation groups a sequence of chat exchanges.
type Conversation struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one persisted message within a conversation. Assistant
// messages record which evidence source produced them and the redaction
// summary of the originating query; user messages are stored sanitized.
type ChatMessage struct {
	ID             string           `json:"id"`
	ConversationID string           `json:"conversation_id"`
	Role           string           `json:"role"`
	Content        string           `json:"content"`
	EvidenceSource EvidenceSource   `json:"evidence_source,omitempty"`
	Citations      []SourceCitation `json:"citations,omitempty"`
	PIIRedacted    bool             `json:"pii_redacted"`
	RedactionCount int              `json:"redaction_count"`
	CreatedAt      time.Time        `json:"created_at"`
}
