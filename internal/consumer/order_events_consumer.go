// Package consumer closes checkout's cross-store gap: if the inline cart
// clear after order creation is lost, the order.created event re-clears
// the cart. Clearing is idempotent, so duplicate delivery is harmless.
package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/hugpuf/mono-commerce-chat-sub001/internal/cache"
	"github.com/hugpuf/mono-commerce-chat-sub001/internal/conversation"
	"github.com/hugpuf/mono-commerce-chat-sub001/internal/domain"
	"github.com/hugpuf/mono-commerce-chat-sub001/internal/publisher"
)

type OrderEventsConsumer struct {
	convs  conversation.Repository
	cache  cache.CartCache
	reader *kafka.Reader
	logger *zap.SugaredLogger
}

func NewOrderEventsConsumer(convs conversation.Repository, cartCache cache.CartCache, logger *zap.SugaredLogger, brokers ...string) *OrderEventsConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    publisher.Topic,
		GroupID:  "commerce-core-cart-clear",
		MaxBytes: 10e6, // 10MB
	})
	return &OrderEventsConsumer{
		convs:  convs,
		cache:  cartCache,
		reader: reader,
		logger: logger,
	}
}

func (c *OrderEventsConsumer) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		c.readAndHandle(ctx)
	}
}

func (c *OrderEventsConsumer) Close() {
	if err := c.reader.Close(); err != nil {
		c.logger.Errorw("error closing kafka reader", "error", err)
	}
}

func (c *OrderEventsConsumer) readAndHandle(ctx context.Context) {
	m, err := c.reader.ReadMessage(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		c.logger.Errorw("error reading message", "error", err)
		return
	}

	c.handleMessage(ctx, m.Value)
}

func (c *OrderEventsConsumer) handleMessage(ctx context.Context, value []byte) {
	var event domain.OrderCreatedEvent
	if err := json.Unmarshal(value, &event); err != nil {
		c.logger.Errorw("error parsing order event", "error", err)
		return
	}
	if event.WorkspaceID == "" || event.ConversationID == "" {
		c.logger.Errorw("order event missing workspace or conversation id", "order_number", event.OrderNumber)
		return
	}

	err := c.convs.ClearCart(ctx, event.WorkspaceID, event.ConversationID)
	if err != nil && !errors.Is(err, conversation.ErrConversationNotFound) {
		c.logger.Errorw("failed to clear cart from order event",
			"conversation_id", event.ConversationID, "order_number", event.OrderNumber, "error", err)
		return
	}

	cacheCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if errCache := c.cache.Delete(cacheCtx, event.WorkspaceID, event.ConversationID); errCache != nil {
		c.logger.Warnw("failed to invalidate cart cache from order event", "error", errCache)
	}
}
