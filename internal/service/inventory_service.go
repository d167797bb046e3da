package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hugpuf/mono-commerce-chat-sub001/internal/domain"
	"github.com/hugpuf/mono-commerce-chat-sub001/internal/provider"
	"github.com/hugpuf/mono-commerce-chat-sub001/internal/repository"
)

type AdjustmentResult struct {
	Adjustments       []domain.LocationAdjustment
	RemainingShortage int
	AlreadyProcessed  bool
}

type InventoryService struct {
	products    repository.ProductRepository
	adjustments repository.AdjustmentRepository
	provider    provider.InventoryClient
	logger      *zap.SugaredLogger
}

func NewInventoryService(products repository.ProductRepository, adjustments repository.AdjustmentRepository, providerClient provider.InventoryClient, logger *zap.SugaredLogger) *InventoryService {
	return &InventoryService{
		products:    products,
		adjustments: adjustments,
		provider:    providerClient,
		logger:      logger,
	}
}

// Adjust deducts quantity from the product's per-location stock using a
// greedy first-fit allocation over locations in ascending location-id
// order. Demand beyond total availability drains every location to zero
// and is reported as shortage, not as an error. Provider writes are not
// rolled back on partial failure; the claimed idempotency key keeps a
// retry from double-applying.
func (s *InventoryService) Adjust(ctx context.Context, workspaceID, productID string, quantity int, reason domain.AdjustmentReason, idempotencyKey string) (*AdjustmentResult, error) {
	if !reason.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidReason, reason)
	}

	product, conn, err := s.products.GetProductWithConnection(ctx, workspaceID, productID)
	if err != nil {
		return nil, err
	}
	if conn == nil || product.ProviderItemID == "" {
		return nil, ErrProductNotLinked
	}
	if len(product.InventoryLevels) == 0 {
		return nil, ErrNoLocations
	}

	before := make(map[string]int, len(product.InventoryLevels))
	for loc, qty := range product.InventoryLevels {
		before[loc] = qty
	}

	rec := &domain.AdjustmentRecord{
		ID:             uuid.New(),
		WorkspaceID:    workspaceID,
		ProductID:      productID,
		IdempotencyKey: idempotencyKey,
		Reason:         reason,
		Quantity:       quantity,
		BeforeLevels:   before,
	}
	if err := s.adjustments.ClaimAdjustment(ctx, rec); err != nil {
		if errors.Is(err, repository.ErrDuplicateAdjustment) {
			s.logger.Infow("duplicate adjustment, returning without mutation",
				"product_id", productID, "idempotency_key", idempotencyKey)
			return &AdjustmentResult{AlreadyProcessed: true}, nil
		}
		return nil, err
	}

	locationIDs := make([]string, 0, len(before))
	for loc := range before {
		locationIDs = append(locationIDs, loc)
	}
	sort.Strings(locationIDs)

	after := make(map[string]int, len(before))
	for loc, qty := range before {
		after[loc] = qty
	}

	var applied []domain.LocationAdjustment
	remaining := quantity
	for _, loc := range locationIDs {
		if remaining <= 0 {
			break
		}
		available := after[loc]
		if available <= 0 {
			continue
		}

		deduct := remaining
		if available < deduct {
			deduct = available
		}
		after[loc] = available - deduct
		remaining -= deduct
		applied = append(applied, domain.LocationAdjustment{
			LocationID: loc,
			Deducted:   deduct,
			NewOnHand:  after[loc],
		})
	}

	if remaining > 0 {
		s.logger.Warnw("inventory shortage, proceeding with partial fulfillment",
			"product_id", productID, "requested", quantity, "shortage", remaining)
	}

	for _, adj := range applied {
		if err := s.provider.SetInventoryLevel(ctx, conn, product.ProviderItemID, adj.LocationID, adj.NewOnHand, string(reason)); err != nil {
			// No compensation: earlier locations stay adjusted at the
			// provider and the claimed key blocks a blind retry.
			return nil, fmt.Errorf("provider inventory update failed: %w", err)
		}
	}

	if err := s.products.SaveInventoryLevels(ctx, workspaceID, productID, after); err != nil {
		return nil, fmt.Errorf("persist inventory levels: %w", err)
	}

	if err := s.adjustments.CompleteAdjustment(ctx, rec.ID, before, after, remaining); err != nil {
		return nil, fmt.Errorf("complete adjustment audit: %w", err)
	}

	return &AdjustmentResult{
		Adjustments:       applied,
		RemainingShortage: remaining,
	}, nil
}
