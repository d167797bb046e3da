package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/hugpuf/mono-commerce-chat-sub001/internal/domain"
)

// NextOrderNumber draws from a database sequence so numbers look
// sequential across all handlers without coordination.
func (r *Repository) NextOrderNumber(ctx context.Context) (string, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `SELECT nextval('order_number_seq')`).Scan(&n)
	if err != nil {
		return "", fmt.Errorf("next order number: %w", err)
	}
	return fmt.Sprintf("ORD-%08d", n), nil
}

// CreateOrderWithEvent inserts the order and its order.created outbox row
// in one transaction. The cart lives in a different store, so the outbox
// event is what drives cart clearing if the inline clear is lost.
func (r *Repository) CreateOrderWithEvent(ctx context.Context, order *domain.Order, eventPayload []byte) error {
	itemsJSON, err := json.Marshal(order.Items)
	if err != nil {
		return fmt.Errorf("marshal order items: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	orderQuery := `INSERT INTO orders
	          (id, workspace_id, conversation_id, order_number, items, subtotal, total,
	           status, payment_status, payment_link, payment_link_expires_at, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW())`

	_, insertErr := tx.ExecContext(ctx, orderQuery,
		order.ID,
		order.WorkspaceID,
		order.ConversationID,
		order.OrderNumber,
		itemsJSON,
		order.Subtotal,
		order.Total,
		order.Status,
		order.PaymentStatus,
		order.PaymentLink,
		order.PaymentLinkExpiresAt)
	if insertErr != nil {
		var pqErr *pq.Error
		if errors.As(insertErr, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicateOrder
		}
		return fmt.Errorf("insert order: %w", insertErr)
	}

	eventQuery := `INSERT INTO outbox_events (aggregate_id, event_type, payload, created_at)
	          VALUES ($1, $2, $3, NOW())`

	if _, err := tx.ExecContext(ctx, eventQuery, order.ConversationID, domain.EventTypeOrderCreated, eventPayload); err != nil {
		return fmt.Errorf("insert outbox event: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit order tx: %w", err)
	}
	return nil
}

const orderColumns = `id, workspace_id, conversation_id, order_number, items, subtotal, total,
	          status, payment_status, payment_link, payment_link_expires_at, created_at, updated_at`

func (r *Repository) GetOrderByID(ctx context.Context, workspaceID string, id uuid.UUID) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1 AND workspace_id = $2`

	order, err := scanOrder(r.db.QueryRowContext(ctx, query, id, workspaceID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query order by id: %w", err)
	}
	return order, nil
}

func (r *Repository) ListOrdersByConversation(ctx context.Context, workspaceID, conversationID string) ([]*domain.Order, error) {
	query := `SELECT ` + orderColumns + `
	          FROM orders WHERE workspace_id = $1 AND conversation_id = $2
	          ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, workspaceID, conversationID)
	if err != nil {
		return nil, fmt.Errorf("query orders by conversation: %w", err)
	}
	defer rows.Close()

	var orders []*domain.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return orders, nil
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	var order domain.Order
	var itemsJSON []byte
	err := row.Scan(
		&order.ID,
		&order.WorkspaceID,
		&order.ConversationID,
		&order.OrderNumber,
		&itemsJSON,
		&order.Subtotal,
		&order.Total,
		&order.Status,
		&order.PaymentStatus,
		&order.PaymentLink,
		&order.PaymentLinkExpiresAt,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(itemsJSON, &order.Items); err != nil {
		return nil, fmt.Errorf("unmarshal order items: %w", err)
	}
	return &order, nil
}
