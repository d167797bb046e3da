package conversation

import (
	"context"
	"errors"

	"github.com/hugpuf/mono-commerce-chat-sub001/internal/domain"
)

var (
	ErrConversationNotFound = errors.New("conversation not found")

	// ErrCartConflict means the cart changed under the caller's feet.
	// Re-read the conversation and retry the write with a fresh version.
	ErrCartConflict = errors.New("cart was modified concurrently")
)

// Repository owns the conversation document and its embedded cart.
// Cart writes are version-checked: UpdateCart only applies when the
// stored cart_version still matches baseVersion.
type Repository interface {
	GetConversation(ctx context.Context, workspaceID, conversationID string) (*domain.Conversation, error)
	CreateConversation(ctx context.Context, conv *domain.Conversation) error
	UpdateCart(ctx context.Context, workspaceID, conversationID string, baseVersion int64, items []domain.CartLineItem, total float64, interactionType string) error
	ClearCart(ctx context.Context, workspaceID, conversationID string) error
}
