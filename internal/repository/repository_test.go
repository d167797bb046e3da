package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/hugpuf/mono-commerce-chat-sub001/internal/domain"
)

func setupTestDB(t *testing.T) (*Repository, func()) {
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)

	host, err := pgContainer.Host(ctx)
	require.NoError(t, err)

	port, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	creds := &Credentials{
		Host:              host,
		Port:              port.Int(),
		User:              "testuser",
		Password:          "testpass",
		DBName:            "testdb",
		MigrationsDirPath: "./migrations",
	}

	repo, err := NewRepository(creds)
	require.NoError(t, err)

	err = repo.RunMigrations(creds)
	require.NoError(t, err)

	cleanup := func() {
		repo.Close()
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	}

	return repo, cleanup
}

func seedProduct(t *testing.T, repo *Repository, id string, levels map[string]int) {
	t.Helper()
	stock := 0
	for _, q := range levels {
		stock += q
	}
	err := repo.CreateProduct(context.Background(), &domain.Product{
		ID:              id,
		WorkspaceID:     "ws-1",
		Title:           "Blue Hoodie " + id,
		Description:     "Soft fleece",
		Price:           49.90,
		Stock:           stock,
		Status:          domain.ProductStatusActive,
		Category:        "apparel",
		ProviderItemID:  "gid://shopify/InventoryItem/" + id,
		InventoryLevels: levels,
	})
	require.NoError(t, err)
}

func testOrder(workspaceID string) *domain.Order {
	return &domain.Order{
		ID:             uuid.New(),
		WorkspaceID:    workspaceID,
		ConversationID: "conv-1",
		OrderNumber:    "ORD-" + uuid.NewString()[:8],
		Items: []domain.CartLineItem{
			{ProductID: "prod-1", Title: "Blue Hoodie", Price: 49.90, Quantity: 2},
		},
		Subtotal:             99.80,
		Total:                99.80,
		Status:               domain.OrderStatusPending,
		PaymentStatus:        domain.PaymentStatusPending,
		PaymentLink:          "https://pay.example.com/pay/ORD-1",
		PaymentLinkExpiresAt: time.Now().Add(24 * time.Hour),
	}
}

func TestGetProduct_NotFound(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	product, err := repo.GetProduct(context.Background(), "ws-1", "nonexistent")

	assert.ErrorIs(t, err, ErrProductNotFound)
	assert.Nil(t, product)
}

func TestGetProduct_WrongWorkspace(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	seedProduct(t, repo, "prod-1", map[string]int{"loc-1": 5})

	_, err := repo.GetProduct(context.Background(), "ws-other", "prod-1")
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestGetProduct_RoundTripsInventoryLevels(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	seedProduct(t, repo, "prod-1", map[string]int{"loc-1": 5, "loc-2": 3})

	product, err := repo.GetProduct(context.Background(), "ws-1", "prod-1")
	require.NoError(t, err)

	assert.Equal(t, map[string]int{"loc-1": 5, "loc-2": 3}, product.InventoryLevels)
	assert.Equal(t, 8, product.Stock)
	assert.Equal(t, "gid://shopify/InventoryItem/prod-1", product.ProviderItemID)
}

func TestGetProductWithConnection_NotLinked(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	seedProduct(t, repo, "prod-1", map[string]int{"loc-1": 5})

	product, conn, err := repo.GetProductWithConnection(context.Background(), "ws-1", "prod-1")
	require.NoError(t, err)
	assert.NotNil(t, product)
	assert.Nil(t, conn)
}

func TestGetProductWithConnection_Linked(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	seedProduct(t, repo, "prod-1", map[string]int{"loc-1": 5})

	ctx := context.Background()
	err := repo.UpsertProviderConnection(ctx, &domain.ProviderConnection{
		WorkspaceID: "ws-1",
		ShopDomain:  "demo.myshopify.com",
		AccessToken: "shpat_test",
	})
	require.NoError(t, err)

	_, conn, err := repo.GetProductWithConnection(ctx, "ws-1", "prod-1")
	require.NoError(t, err)
	require.NotNil(t, conn)
	assert.Equal(t, "demo.myshopify.com", conn.ShopDomain)
}

func TestSearchProducts_Filters(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	seedProduct(t, repo, "prod-1", map[string]int{"loc-1": 5})
	seedProduct(t, repo, "prod-2", map[string]int{"loc-1": 5})
	require.NoError(t, repo.CreateProduct(ctx, &domain.Product{
		ID:          "prod-cheap",
		WorkspaceID: "ws-1",
		Title:       "Sticker Pack",
		Price:       4.99,
		Stock:       100,
		Status:      domain.ProductStatusActive,
		Category:    "merch",
	}))
	// out of stock, must never surface
	require.NoError(t, repo.CreateProduct(ctx, &domain.Product{
		ID:          "prod-empty",
		WorkspaceID: "ws-1",
		Title:       "Sold Out Cap",
		Price:       15,
		Stock:       0,
		Status:      domain.ProductStatusActive,
		Category:    "apparel",
	}))

	all, err := repo.SearchProducts(ctx, domain.ProductFilter{WorkspaceID: "ws-1"})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	apparel, err := repo.SearchProducts(ctx, domain.ProductFilter{WorkspaceID: "ws-1", Category: "apparel"})
	require.NoError(t, err)
	assert.Len(t, apparel, 2)

	cheap, err := repo.SearchProducts(ctx, domain.ProductFilter{WorkspaceID: "ws-1", MaxPrice: 10})
	require.NoError(t, err)
	require.Len(t, cheap, 1)
	assert.Equal(t, "prod-cheap", cheap[0].ID)

	byQuery, err := repo.SearchProducts(ctx, domain.ProductFilter{WorkspaceID: "ws-1", Query: "sticker"})
	require.NoError(t, err)
	require.Len(t, byQuery, 1)
	assert.Equal(t, "Sticker Pack", byQuery[0].Title)

	limited, err := repo.SearchProducts(ctx, domain.ProductFilter{WorkspaceID: "ws-1", Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestSaveInventoryLevels_RecomputesStock(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	seedProduct(t, repo, "prod-1", map[string]int{"loc-1": 5, "loc-2": 3})

	ctx := context.Background()
	err := repo.SaveInventoryLevels(ctx, "ws-1", "prod-1", map[string]int{"loc-1": 0, "loc-2": 2})
	require.NoError(t, err)

	product, err := repo.GetProduct(ctx, "ws-1", "prod-1")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"loc-1": 0, "loc-2": 2}, product.InventoryLevels)
	assert.Equal(t, 2, product.Stock)
}

func TestSaveInventoryLevels_MissingProduct(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	err := repo.SaveInventoryLevels(context.Background(), "ws-1", "nonexistent", map[string]int{"loc-1": 1})
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestNextOrderNumber_SequentialFormat(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	first, err := repo.NextOrderNumber(ctx)
	require.NoError(t, err)
	second, err := repo.NextOrderNumber(ctx)
	require.NoError(t, err)

	assert.Equal(t, "ORD-10000001", first)
	assert.Equal(t, "ORD-10000002", second)
}

func TestCreateOrderWithEvent_WritesOrderAndOutboxRow(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	order := testOrder("ws-1")
	err := repo.CreateOrderWithEvent(ctx, order, []byte(`{"order_number":"`+order.OrderNumber+`"}`))
	require.NoError(t, err)

	got, err := repo.GetOrderByID(ctx, "ws-1", order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.OrderNumber, got.OrderNumber)
	assert.Equal(t, 99.80, got.Total)
	assert.Len(t, got.Items, 1)
	assert.Equal(t, 2, got.Items[0].Quantity)

	events, err := repo.GetUnprocessedEvents(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "conv-1", events[0].AggregateID)
	assert.Equal(t, domain.EventTypeOrderCreated, events[0].EventType)
}

func TestCreateOrderWithEvent_DuplicateOrderNumber(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	order := testOrder("ws-1")
	require.NoError(t, repo.CreateOrderWithEvent(ctx, order, []byte(`{}`)))

	dup := testOrder("ws-1")
	dup.OrderNumber = order.OrderNumber
	err := repo.CreateOrderWithEvent(ctx, dup, []byte(`{}`))
	assert.ErrorIs(t, err, ErrDuplicateOrder)

	// the duplicate's outbox row must not have leaked out of the tx
	events, err := repo.GetUnprocessedEvents(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestGetOrderByID_NotFound(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := repo.GetOrderByID(context.Background(), "ws-1", uuid.New())
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestListOrdersByConversation_NewestFirst(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	first := testOrder("ws-1")
	require.NoError(t, repo.CreateOrderWithEvent(ctx, first, []byte(`{}`)))
	time.Sleep(10 * time.Millisecond)
	second := testOrder("ws-1")
	require.NoError(t, repo.CreateOrderWithEvent(ctx, second, []byte(`{}`)))

	orders, err := repo.ListOrdersByConversation(ctx, "ws-1", "conv-1")
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, second.ID, orders[0].ID)
	assert.Equal(t, first.ID, orders[1].ID)
}

func TestMarkEventAsProcessed(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, repo.CreateOrderWithEvent(ctx, testOrder("ws-1"), []byte(`{}`)))

	events, err := repo.GetUnprocessedEvents(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)

	require.NoError(t, repo.MarkEventAsProcessed(ctx, events[0].ID))

	events, err = repo.GetUnprocessedEvents(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestClaimAdjustment_DuplicateKey(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	rec := &domain.AdjustmentRecord{
		ID:             uuid.New(),
		WorkspaceID:    "ws-1",
		ProductID:      "prod-1",
		IdempotencyKey: "key-1",
		Reason:         domain.ReasonSale,
		Quantity:       3,
		BeforeLevels:   map[string]int{"loc-1": 5},
	}
	require.NoError(t, repo.ClaimAdjustment(ctx, rec))

	retry := *rec
	retry.ID = uuid.New()
	err := repo.ClaimAdjustment(ctx, &retry)
	assert.ErrorIs(t, err, ErrDuplicateAdjustment)
}

func TestClaimAdjustment_SameKeyDifferentProduct(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	rec := &domain.AdjustmentRecord{
		ID:             uuid.New(),
		WorkspaceID:    "ws-1",
		ProductID:      "prod-1",
		IdempotencyKey: "key-1",
		Reason:         domain.ReasonSale,
		Quantity:       1,
		BeforeLevels:   map[string]int{"loc-1": 5},
	}
	require.NoError(t, repo.ClaimAdjustment(ctx, rec))

	other := *rec
	other.ID = uuid.New()
	other.ProductID = "prod-2"
	assert.NoError(t, repo.ClaimAdjustment(ctx, &other))
}

func TestCompleteAdjustment_RoundTrip(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	rec := &domain.AdjustmentRecord{
		ID:             uuid.New(),
		WorkspaceID:    "ws-1",
		ProductID:      "prod-1",
		IdempotencyKey: "key-1",
		Reason:         domain.ReasonSale,
		Quantity:       9,
		BeforeLevels:   map[string]int{"loc-1": 3, "loc-2": 2},
	}
	require.NoError(t, repo.ClaimAdjustment(ctx, rec))
	require.NoError(t, repo.CompleteAdjustment(ctx, rec.ID, rec.BeforeLevels, map[string]int{"loc-1": 0, "loc-2": 0}, 4))

	got, err := repo.GetAdjustment(ctx, "ws-1", "prod-1", "key-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, map[string]int{"loc-1": 3, "loc-2": 2}, got.BeforeLevels)
	assert.Equal(t, map[string]int{"loc-1": 0, "loc-2": 0}, got.AfterLevels)
	assert.Equal(t, 4, got.Shortage)
}

func TestGetAdjustment_Missing(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	got, err := repo.GetAdjustment(context.Background(), "ws-1", "prod-1", "nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestContextCancellation(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Nanosecond)
	defer cancel()

	time.Sleep(10 * time.Millisecond) // Ensure context is cancelled

	_, err := repo.GetProduct(ctx, "ws-1", "prod-1")
	assert.Error(t, err)
}
