package cache

import (
	"context"
	"errors"

	"github.com/hugpuf/mono-commerce-chat-sub001/internal/domain"
)

// CartCache caches the view-cart read model per conversation. It is
// invalidated on every cart mutation and on checkout.
type CartCache interface {
	Get(ctx context.Context, workspaceID, conversationID string) (*domain.CartView, error)
	Set(ctx context.Context, workspaceID, conversationID string, view *domain.CartView) error
	Delete(ctx context.Context, workspaceID, conversationID string) error
}

var ErrCacheMiss = errors.New("cache miss")
