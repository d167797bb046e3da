package domain

import (
	"time"

	"github.com/google/uuid"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusExpired PaymentStatus = "expired"
)

// Order is created once per checkout and is immutable afterwards except
// for status and payment fields. It snapshots the cart at checkout time
// and is the source of truth for the sale from then on.
type Order struct {
	ID                   uuid.UUID      `json:"id"`
	WorkspaceID          string         `json:"workspace_id"`
	ConversationID       string         `json:"conversation_id"`
	OrderNumber          string         `json:"order_number"`
	Items                []CartLineItem `json:"items"`
	Subtotal             float64        `json:"subtotal"`
	Total                float64        `json:"total"`
	Status               OrderStatus    `json:"status"`
	PaymentStatus        PaymentStatus  `json:"payment_status"`
	PaymentLink          string         `json:"payment_link"`
	PaymentLinkExpiresAt time.Time      `json:"payment_link_expires_at"`
	CreatedAt            time.Time      `json:"created_at"`
	UpdatedAt            time.Time      `json:"updated_at"`
}

// PaymentLinkExpired reports whether the order's payment link is past
// its 24h window.
func (o *Order) PaymentLinkExpired(now time.Time) bool {
	return now.After(o.PaymentLinkExpiresAt)
}
