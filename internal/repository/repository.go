package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/hugpuf/mono-commerce-chat-sub001/internal/domain"
)

var (
	ErrProductNotFound     = errors.New("product not found")
	ErrOrderNotFound       = errors.New("order not found")
	ErrDuplicateAdjustment = errors.New("adjustment already recorded for this idempotency key")
	ErrDuplicateOrder      = errors.New("order already exists for this order number")
)

type Credentials struct {
	Host              string
	Port              int
	User              string
	Password          string
	DBName            string
	MigrationsDirPath string
}

// ProductRepository backs the product lookup service and the inventory
// adjuster's local mirror of per-location stock.
type ProductRepository interface {
	GetProduct(ctx context.Context, workspaceID, productID string) (*domain.Product, error)
	GetProductWithConnection(ctx context.Context, workspaceID, productID string) (*domain.Product, *domain.ProviderConnection, error)
	SearchProducts(ctx context.Context, filter domain.ProductFilter) ([]*domain.Product, error)
	SaveInventoryLevels(ctx context.Context, workspaceID, productID string, levels map[string]int) error
}

// OrderRepository persists checkout results. CreateOrderWithEvent writes
// the order row and its outbox event in a single transaction.
type OrderRepository interface {
	NextOrderNumber(ctx context.Context) (string, error)
	CreateOrderWithEvent(ctx context.Context, order *domain.Order, eventPayload []byte) error
	GetOrderByID(ctx context.Context, workspaceID string, id uuid.UUID) (*domain.Order, error)
	ListOrdersByConversation(ctx context.Context, workspaceID, conversationID string) ([]*domain.Order, error)
}

// AdjustmentRepository owns the idempotency/audit log for inventory
// adjustments. Claim is a single atomic insert-if-absent; concurrent
// retries with the same key cannot both proceed.
type AdjustmentRepository interface {
	ClaimAdjustment(ctx context.Context, rec *domain.AdjustmentRecord) error
	CompleteAdjustment(ctx context.Context, id uuid.UUID, before, after map[string]int, shortage int) error
	GetAdjustment(ctx context.Context, workspaceID, productID, idempotencyKey string) (*domain.AdjustmentRecord, error)
}

// OutboxRepository feeds the Kafka outbox poller.
type OutboxRepository interface {
	GetUnprocessedEvents(ctx context.Context, limit int) ([]*OutboxEvent, error)
	MarkEventAsProcessed(ctx context.Context, id int64) error
}

type Repository struct {
	db *sql.DB
}

func NewRepository(cred *Credentials) (*Repository, error) {
	psqlconn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cred.Host,
		cred.Port,
		cred.User,
		cred.Password,
		cred.DBName)

	db, err := sql.Open("postgres", psqlconn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if e2 := db.Ping(); e2 != nil {
		return nil, fmt.Errorf("failed to ping database: %w", e2)
	}

	db.SetMaxOpenConns(100)
	db.SetMaxIdleConns(10)
	return &Repository{db: db}, nil
}

func (r *Repository) RunMigrations(cred *Credentials) error {
	driver, err := postgres.WithInstance(r.db, &postgres.Config{
		MigrationsTable: "commerce_schema_migrations",
	})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", cred.MigrationsDirPath),
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if e2 := m.Up(); e2 != nil && !errors.Is(e2, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", e2)
	}

	return nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}
