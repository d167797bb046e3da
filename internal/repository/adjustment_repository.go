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

// ClaimAdjustment atomically claims the idempotency key by inserting the
// audit row. The unique constraint on (workspace_id, product_id,
// idempotency_key) turns a duplicate delivery into ErrDuplicateAdjustment
// without a separate check-then-act read.
func (r *Repository) ClaimAdjustment(ctx context.Context, rec *domain.AdjustmentRecord) error {
	beforeJSON, err := json.Marshal(rec.BeforeLevels)
	if err != nil {
		return fmt.Errorf("marshal before levels: %w", err)
	}

	query := `INSERT INTO inventory_adjustments
	          (id, workspace_id, product_id, idempotency_key, reason, quantity, before_levels, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())`

	_, insertErr := r.db.ExecContext(ctx, query,
		rec.ID,
		rec.WorkspaceID,
		rec.ProductID,
		rec.IdempotencyKey,
		rec.Reason,
		rec.Quantity,
		beforeJSON)
	if insertErr != nil {
		var pqErr *pq.Error
		if errors.As(insertErr, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicateAdjustment
		}
		return fmt.Errorf("insert adjustment: %w", insertErr)
	}
	return nil
}

func (r *Repository) CompleteAdjustment(ctx context.Context, id uuid.UUID, before, after map[string]int, shortage int) error {
	beforeJSON, err := json.Marshal(before)
	if err != nil {
		return fmt.Errorf("marshal before levels: %w", err)
	}
	afterJSON, err := json.Marshal(after)
	if err != nil {
		return fmt.Errorf("marshal after levels: %w", err)
	}

	query := `UPDATE inventory_adjustments
	          SET before_levels = $1, after_levels = $2, shortage = $3
	          WHERE id = $4`

	_, err = r.db.ExecContext(ctx, query, beforeJSON, afterJSON, shortage, id)
	if err != nil {
		return fmt.Errorf("complete adjustment: %w", err)
	}
	return nil
}

func (r *Repository) GetAdjustment(ctx context.Context, workspaceID, productID, idempotencyKey string) (*domain.AdjustmentRecord, error) {
	query := `SELECT id, workspace_id, product_id, idempotency_key, reason, quantity,
	          before_levels, COALESCE(after_levels, 'null'::jsonb), shortage, created_at
	          FROM inventory_adjustments
	          WHERE workspace_id = $1 AND product_id = $2 AND idempotency_key = $3`

	var rec domain.AdjustmentRecord
	var beforeJSON, afterJSON []byte
	err := r.db.QueryRowContext(ctx, query, workspaceID, productID, idempotencyKey).Scan(
		&rec.ID,
		&rec.WorkspaceID,
		&rec.ProductID,
		&rec.IdempotencyKey,
		&rec.Reason,
		&rec.Quantity,
		&beforeJSON,
		&afterJSON,
		&rec.Shortage,
		&rec.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query adjustment: %w", err)
	}

	if err := json.Unmarshal(beforeJSON, &rec.BeforeLevels); err != nil {
		return nil, fmt.Errorf("unmarshal before levels: %w", err)
	}
	if err := json.Unmarshal(afterJSON, &rec.AfterLevels); err != nil {
		return nil, fmt.Errorf("unmarshal after levels: %w", err)
	}
	return &rec, nil
}
