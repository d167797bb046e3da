package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/hugpuf/mono-commerce-chat-sub001/internal/domain"
)

type ProductSearcher interface {
	Search(ctx context.Context, filter domain.ProductFilter) ([]*domain.Product, error)
}

type ProductHandler struct {
	products ProductSearcher
	timeout  time.Duration
}

func NewProductHandler(products ProductSearcher, timeout time.Duration) *ProductHandler {
	return &ProductHandler{
		products: products,
		timeout:  timeout,
	}
}

type SearchProductsRequestDTO struct {
	WorkspaceID string  `json:"workspaceId"`
	Query       string  `json:"query"`
	Category    string  `json:"category"`
	MaxPrice    float64 `json:"maxPrice"`
	Limit       int     `json:"limit"`
}

type SearchProductsResponseDTO struct {
	Products []*domain.Product `json:"products"`
	Count    int               `json:"count"`
}

func (h *ProductHandler) SearchProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req SearchProductsRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, codeValidation, "invalid JSON body")
		return
	}
	if req.WorkspaceID == "" {
		respondError(w, http.StatusBadRequest, codeValidation, "workspaceId is required")
		return
	}

	products, err := h.products.Search(ctx, domain.ProductFilter{
		WorkspaceID: req.WorkspaceID,
		Query:       req.Query,
		Category:    req.Category,
		MaxPrice:    req.MaxPrice,
		Limit:       req.Limit,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, SearchProductsResponseDTO{
		Products: products,
		Count:    len(products),
	})
}
