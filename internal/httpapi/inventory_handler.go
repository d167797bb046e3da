package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/hugpuf/mono-commerce-chat-sub001/internal/domain"
	"github.com/hugpuf/mono-commerce-chat-sub001/internal/service"
)

type InventoryOperations interface {
	Adjust(ctx context.Context, workspaceID, productID string, quantity int, reason domain.AdjustmentReason, idempotencyKey string) (*service.AdjustmentResult, error)
}

type InventoryHandler struct {
	inventory InventoryOperations
	timeout   time.Duration
}

func NewInventoryHandler(inventory InventoryOperations, timeout time.Duration) *InventoryHandler {
	return &InventoryHandler{
		inventory: inventory,
		timeout:   timeout,
	}
}

type AdjustInventoryRequestDTO struct {
	WorkspaceID    string `json:"workspaceId"`
	ProductID      string `json:"productId"`
	Quantity       int    `json:"quantity"`
	Reason         string `json:"reason"`
	IdempotencyKey string `json:"idempotencyKey"`
}

type AdjustInventoryResponseDTO struct {
	Success           bool                        `json:"success"`
	Adjustments       []domain.LocationAdjustment `json:"adjustments"`
	RemainingShortage int                         `json:"remainingShortage"`
	AlreadyProcessed  bool                        `json:"alreadyProcessed"`
}

func (h *InventoryHandler) AdjustInventory(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req AdjustInventoryRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, codeValidation, "invalid JSON body")
		return
	}
	if req.WorkspaceID == "" || req.ProductID == "" || req.IdempotencyKey == "" {
		respondError(w, http.StatusBadRequest, codeValidation, "workspaceId, productId and idempotencyKey are required")
		return
	}
	if req.Quantity <= 0 {
		respondError(w, http.StatusBadRequest, codeValidation, "quantity must be positive")
		return
	}

	result, err := h.inventory.Adjust(ctx, req.WorkspaceID, req.ProductID, req.Quantity, domain.AdjustmentReason(req.Reason), req.IdempotencyKey)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	adjustments := result.Adjustments
	if adjustments == nil {
		adjustments = []domain.LocationAdjustment{}
	}
	respondJSON(w, http.StatusOK, AdjustInventoryResponseDTO{
		Success:           true,
		Adjustments:       adjustments,
		RemainingShortage: result.RemainingShortage,
		AlreadyProcessed:  result.AlreadyProcessed,
	})
}
