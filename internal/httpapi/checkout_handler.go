package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/hugpuf/mono-commerce-chat-sub001/internal/service"
)

type CheckoutOperations interface {
	Checkout(ctx context.Context, workspaceID, conversationID string) (*service.CheckoutResult, error)
}

type CheckoutHandler struct {
	checkout CheckoutOperations
	timeout  time.Duration
}

func NewCheckoutHandler(checkout CheckoutOperations, timeout time.Duration) *CheckoutHandler {
	return &CheckoutHandler{
		checkout: checkout,
		timeout:  timeout,
	}
}

type CreateCheckoutRequestDTO struct {
	WorkspaceID    string `json:"workspaceId"`
	ConversationID string `json:"conversationId"`
}

type CreateCheckoutResponseDTO struct {
	Success     bool    `json:"success"`
	OrderNumber string  `json:"order_number"`
	PaymentLink string  `json:"payment_link"`
	Total       float64 `json:"total"`
}

func (h *CheckoutHandler) CreateCheckout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req CreateCheckoutRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, codeValidation, "invalid JSON body")
		return
	}
	if req.WorkspaceID == "" || req.ConversationID == "" {
		respondError(w, http.StatusBadRequest, codeValidation, "workspaceId and conversationId are required")
		return
	}

	result, err := h.checkout.Checkout(ctx, req.WorkspaceID, req.ConversationID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, CreateCheckoutResponseDTO{
		Success:     true,
		OrderNumber: result.OrderNumber,
		PaymentLink: result.PaymentLink,
		Total:       result.Total,
	})
}
