package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hugpuf/mono-commerce-chat-sub001/internal/domain"
)

const productColumns = `id, workspace_id, title, description, price, stock, status, category,
	          image_url, COALESCE(provider_item_id, ''), inventory_levels, created_at, updated_at`

func (r *Repository) GetProduct(ctx context.Context, workspaceID, productID string) (*domain.Product, error) {
	query := `SELECT ` + productColumns + `
	          FROM products WHERE id = $1 AND workspace_id = $2`

	row := r.db.QueryRowContext(ctx, query, productID, workspaceID)
	product, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query product: %w", err)
	}
	return product, nil
}

func (r *Repository) GetProductWithConnection(ctx context.Context, workspaceID, productID string) (*domain.Product, *domain.ProviderConnection, error) {
	product, err := r.GetProduct(ctx, workspaceID, productID)
	if err != nil {
		return nil, nil, err
	}

	query := `SELECT workspace_id, shop_domain, access_token
	          FROM provider_connections WHERE workspace_id = $1`

	var conn domain.ProviderConnection
	err = r.db.QueryRowContext(ctx, query, workspaceID).Scan(
		&conn.WorkspaceID,
		&conn.ShopDomain,
		&conn.AccessToken,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return product, nil, nil // product exists but workspace is not provider-linked
	}
	if err != nil {
		return nil, nil, fmt.Errorf("query provider connection: %w", err)
	}

	return product, &conn, nil
}

func (r *Repository) SearchProducts(ctx context.Context, filter domain.ProductFilter) ([]*domain.Product, error) {
	query := `SELECT ` + productColumns + `
	          FROM products
	          WHERE workspace_id = $1 AND status = 'active' AND stock > 0`
	args := []interface{}{filter.WorkspaceID}

	if filter.Category != "" {
		args = append(args, filter.Category)
		query += fmt.Sprintf(" AND category = $%d", len(args))
	}
	if filter.MaxPrice > 0 {
		args = append(args, filter.MaxPrice)
		query += fmt.Sprintf(" AND price <= $%d", len(args))
	}
	if filter.Query != "" {
		args = append(args, "%"+filter.Query+"%")
		query += fmt.Sprintf(" AND (title ILIKE $%d OR description ILIKE $%d)", len(args), len(args))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY title LIMIT $%d", len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	var products []*domain.Product
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product row: %w", err)
		}
		products = append(products, product)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return products, nil
}

func (r *Repository) SaveInventoryLevels(ctx context.Context, workspaceID, productID string, levels map[string]int) error {
	levelsJSON, err := json.Marshal(levels)
	if err != nil {
		return fmt.Errorf("marshal inventory levels: %w", err)
	}

	total := 0
	for _, qty := range levels {
		total += qty
	}

	query := `UPDATE products
	          SET inventory_levels = $1, stock = $2, updated_at = NOW()
	          WHERE id = $3 AND workspace_id = $4`

	result, err := r.db.ExecContext(ctx, query, levelsJSON, total, productID, workspaceID)
	if err != nil {
		return fmt.Errorf("update inventory levels: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrProductNotFound
	}
	return nil
}

// CreateProduct exists for seeding and tests; the dashboard's catalog CRUD
// lives outside this core.
func (r *Repository) CreateProduct(ctx context.Context, p *domain.Product) error {
	levelsJSON, err := json.Marshal(p.InventoryLevels)
	if err != nil {
		return fmt.Errorf("marshal inventory levels: %w", err)
	}

	query := `INSERT INTO products
	          (id, workspace_id, title, description, price, stock, status, category, image_url, provider_item_id, inventory_levels, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NULLIF($10, ''), $11, NOW(), NOW())`

	_, err = r.db.ExecContext(ctx, query,
		p.ID,
		p.WorkspaceID,
		p.Title,
		p.Description,
		p.Price,
		p.Stock,
		p.Status,
		p.Category,
		p.ImageURL,
		p.ProviderItemID,
		levelsJSON)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

// UpsertProviderConnection stores the workspace's catalog provider credentials.
func (r *Repository) UpsertProviderConnection(ctx context.Context, conn *domain.ProviderConnection) error {
	query := `INSERT INTO provider_connections (workspace_id, shop_domain, access_token, created_at)
	          VALUES ($1, $2, $3, NOW())
	          ON CONFLICT (workspace_id)
	          DO UPDATE SET shop_domain = EXCLUDED.shop_domain, access_token = EXCLUDED.access_token`

	_, err := r.db.ExecContext(ctx, query, conn.WorkspaceID, conn.ShopDomain, conn.AccessToken)
	if err != nil {
		return fmt.Errorf("upsert provider connection: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProduct(row rowScanner) (*domain.Product, error) {
	var p domain.Product
	var levelsJSON []byte
	err := row.Scan(
		&p.ID,
		&p.WorkspaceID,
		&p.Title,
		&p.Description,
		&p.Price,
		&p.Stock,
		&p.Status,
		&p.Category,
		&p.ImageURL,
		&p.ProviderItemID,
		&levelsJSON,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(levelsJSON) > 0 {
		if err := json.Unmarshal(levelsJSON, &p.InventoryLevels); err != nil {
			return nil, fmt.Errorf("unmarshal inventory levels: %w", err)
		}
	}
	return &p, nil
}
