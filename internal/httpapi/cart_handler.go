package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/hugpuf/mono-commerce-chat-sub001/internal/domain"
	"github.com/hugpuf/mono-commerce-chat-sub001/internal/service"
)

// CartOperations is the slice of the cart service the handlers need.
type CartOperations interface {
	AddItem(ctx context.Context, workspaceID, conversationID, productID string, quantity int, variantInfo string) (*service.AddItemResult, error)
	RemoveItem(ctx context.Context, workspaceID, conversationID, productID string) (*service.RemoveItemResult, error)
	ViewCart(ctx context.Context, workspaceID, conversationID string) (*domain.CartView, error)
}

type CartHandler struct {
	cart    CartOperations
	timeout time.Duration
}

func NewCartHandler(cart CartOperations, timeout time.Duration) *CartHandler {
	return &CartHandler{
		cart:    cart,
		timeout: timeout,
	}
}

type AddToCartRequestDTO struct {
	WorkspaceID    string `json:"workspaceId"`
	ConversationID string `json:"conversationId"`
	ProductID      string `json:"product_id"`
	Quantity       int    `json:"quantity"`
	VariantInfo    string `json:"variant_info"`
}

type AddToCartResponseDTO struct {
	Success   bool                `json:"success"`
	CartCount int                 `json:"cart_count"`
	CartTotal float64             `json:"cart_total"`
	AddedItem domain.CartLineItem `json:"added_item"`
}

type RemoveFromCartRequestDTO struct {
	WorkspaceID    string `json:"workspaceId"`
	ConversationID string `json:"conversationId"`
	ProductID      string `json:"product_id"`
}

type RemoveFromCartResponseDTO struct {
	Success   bool    `json:"success"`
	CartCount int     `json:"cart_count"`
	CartTotal float64 `json:"cart_total"`
}

type ViewCartRequestDTO struct {
	WorkspaceID    string `json:"workspaceId"`
	ConversationID string `json:"conversationId"`
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req AddToCartRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, codeValidation, "invalid JSON body")
		return
	}
	if req.WorkspaceID == "" || req.ConversationID == "" || req.ProductID == "" {
		respondError(w, http.StatusBadRequest, codeValidation, "workspaceId, conversationId and product_id are required")
		return
	}
	if req.Quantity < 0 {
		respondError(w, http.StatusBadRequest, codeValidation, "quantity must be positive")
		return
	}

	result, err := h.cart.AddItem(ctx, req.WorkspaceID, req.ConversationID, req.ProductID, req.Quantity, req.VariantInfo)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, AddToCartResponseDTO{
		Success:   true,
		CartCount: result.CartCount,
		CartTotal: result.CartTotal,
		AddedItem: result.AddedItem,
	})
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req RemoveFromCartRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, codeValidation, "invalid JSON body")
		return
	}
	if req.WorkspaceID == "" || req.ConversationID == "" || req.ProductID == "" {
		respondError(w, http.StatusBadRequest, codeValidation, "workspaceId, conversationId and product_id are required")
		return
	}

	result, err := h.cart.RemoveItem(ctx, req.WorkspaceID, req.ConversationID, req.ProductID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, RemoveFromCartResponseDTO{
		Success:   true,
		CartCount: result.CartCount,
		CartTotal: result.CartTotal,
	})
}

func (h *CartHandler) ViewCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req ViewCartRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, codeValidation, "invalid JSON body")
		return
	}
	if req.WorkspaceID == "" || req.ConversationID == "" {
		respondError(w, http.StatusBadRequest, codeValidation, "workspaceId and conversationId are required")
		return
	}

	view, err := h.cart.ViewCart(ctx, req.WorkspaceID, req.ConversationID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, view)
}
