package domain

import (
	"time"

	"github.com/google/uuid"
)

const EventTypeOrderCreated = "order.created"

// OrderCreatedEvent is the outbox payload written in the same transaction
// as the order row. The order-events consumer uses it to clear the
// originating conversation's cart idempotently.
type OrderCreatedEvent struct {
	OrderID        uuid.UUID      `json:"order_id"`
	OrderNumber    string         `json:"order_number"`
	WorkspaceID    string         `json:"workspace_id"`
	ConversationID string         `json:"conversation_id"`
	Items          []CartLineItem `json:"items"`
	Total          float64        `json:"total"`
	CreatedAt      time.Time      `json:"created_at"`
}
