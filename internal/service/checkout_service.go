package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hugpuf/mono-commerce-chat-sub001/internal/cache"
	"github.com/hugpuf/mono-commerce-chat-sub001/internal/conversation"
	"github.com/hugpuf/mono-commerce-chat-sub001/internal/domain"
	"github.com/hugpuf/mono-commerce-chat-sub001/internal/repository"
)

type CheckoutResult struct {
	OrderID     uuid.UUID
	OrderNumber string
	PaymentLink string
	Total       float64
}

type CheckoutService struct {
	convs  conversation.Repository
	orders repository.OrderRepository
	cache  cache.CartCache
	links  *PaymentLinkGenerator
	logger *zap.SugaredLogger
}

func NewCheckoutService(convs conversation.Repository, orders repository.OrderRepository, cartCache cache.CartCache, links *PaymentLinkGenerator, logger *zap.SugaredLogger) *CheckoutService {
	return &CheckoutService{
		convs:  convs,
		orders: orders,
		cache:  cartCache,
		links:  links,
		logger: logger,
	}
}

// Checkout turns the conversation's cart into an immutable order with a
// payment link, then clears the cart. The order row and its
// order.created outbox event commit together; the inline cart clear is
// best-effort because the order-events consumer re-clears idempotently
// from the event.
func (s *CheckoutService) Checkout(ctx context.Context, workspaceID, conversationID string) (*CheckoutResult, error) {
	conv, err := s.convs.GetConversation(ctx, workspaceID, conversationID)
	if err != nil {
		return nil, err
	}

	if len(conv.CartItems) == 0 {
		return nil, ErrEmptyCart
	}

	orderNumber, err := s.orders.NextOrderNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("generate order number: %w", err)
	}

	now := time.Now()
	link, expiresAt := s.links.Generate(orderNumber, now)

	order := &domain.Order{
		ID:                   uuid.New(),
		WorkspaceID:          workspaceID,
		ConversationID:       conversationID,
		OrderNumber:          orderNumber,
		Items:                conv.CartItems,
		Subtotal:             conv.CartTotal,
		Total:                conv.CartTotal,
		Status:               domain.OrderStatusPending,
		PaymentStatus:        domain.PaymentStatusPending,
		PaymentLink:          link,
		PaymentLinkExpiresAt: expiresAt,
	}

	event := domain.OrderCreatedEvent{
		OrderID:        order.ID,
		OrderNumber:    orderNumber,
		WorkspaceID:    workspaceID,
		ConversationID: conversationID,
		Items:          order.Items,
		Total:          order.Total,
		CreatedAt:      now,
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal order event: %w", err)
	}

	if err := s.orders.CreateOrderWithEvent(ctx, order, payload); err != nil {
		return nil, err
	}

	// From here the order exists; a failed clear is recovered by the
	// order-events consumer, so it never fails the checkout.
	if err := s.convs.ClearCart(ctx, workspaceID, conversationID); err != nil {
		s.logger.Warnw("inline cart clear failed, consumer will recover",
			"conversation_id", conversationID, "order_number", orderNumber, "error", err)
	}

	cacheCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(cacheCtx, workspaceID, conversationID); err != nil {
		s.logger.Warnw("cart cache invalidate failed after checkout", "error", err)
	}

	return &CheckoutResult{
		OrderID:     order.ID,
		OrderNumber: orderNumber,
		PaymentLink: link,
		Total:       order.Total,
	}, nil
}
