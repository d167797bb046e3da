package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hugpuf/mono-commerce-chat-sub001/internal/domain"
)

// OrderStore is the read-only slice of the order repository the
// dashboard's order history needs.
type OrderStore interface {
	GetOrderByID(ctx context.Context, workspaceID string, id uuid.UUID) (*domain.Order, error)
	ListOrdersByConversation(ctx context.Context, workspaceID, conversationID string) ([]*domain.Order, error)
}

type OrdersHandler struct {
	orders  OrderStore
	timeout time.Duration
}

func NewOrdersHandler(orders OrderStore, timeout time.Duration) *OrdersHandler {
	return &OrdersHandler{
		orders:  orders,
		timeout: timeout,
	}
}

func (h *OrdersHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	workspaceID := r.URL.Query().Get("workspaceId")
	if workspaceID == "" {
		respondError(w, http.StatusBadRequest, codeValidation, "workspaceId query parameter is required")
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "orderID"))
	if err != nil {
		respondError(w, http.StatusBadRequest, codeValidation, "invalid order id")
		return
	}

	order, err := h.orders.GetOrderByID(ctx, workspaceID, orderID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, order)
}

type ListOrdersResponseDTO struct {
	Orders []*domain.Order `json:"orders"`
	Count  int             `json:"count"`
}

func (h *OrdersHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	workspaceID := r.URL.Query().Get("workspaceId")
	conversationID := r.URL.Query().Get("conversationId")
	if workspaceID == "" || conversationID == "" {
		respondError(w, http.StatusBadRequest, codeValidation, "workspaceId and conversationId query parameters are required")
		return
	}

	orders, err := h.orders.ListOrdersByConversation(ctx, workspaceID, conversationID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if orders == nil {
		orders = []*domain.Order{}
	}

	respondJSON(w, http.StatusOK, ListOrdersResponseDTO{
		Orders: orders,
		Count:  len(orders),
	})
}
