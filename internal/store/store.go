// Package store persists conversations and their messages. User messages are
// stored in sanitized form only; the raw query never reaches this layer.
package store

import (
	"context"

	"github.com/cybersaathi/cybersaathi/internal/model"
)

// Store defines the persistence interface for chat history.
type Store interface {
	// Conversations
	CreateConversation(ctx context.Context, title string) (*model.Conversation, error)
	GetConversation(ctx context.Context, id string) (*model.Conversation, error)
	ListConversations(ctx context.Context, limit, offset int) ([]model.Conversation, error)

	// Messages
	AppendMessage(ctx context.Context, msg model.ChatMessage) (*model.ChatMessage, error)
	ListMessages(ctx context.Context, conversationID string) ([]model.ChatMessage, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
