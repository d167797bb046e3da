package service

import (
	"context"

	"github.com/hugpuf/mono-commerce-chat-sub001/internal/domain"
	"github.com/hugpuf/mono-commerce-chat-sub001/internal/repository"
)

// ProductService is a read-only lookup over the workspace catalog.
// Ranking stays in the store; this layer only applies defaults.
type ProductService struct {
	products repository.ProductRepository
}

func NewProductService(products repository.ProductRepository) *ProductService {
	return &ProductService{products: products}
}

func (s *ProductService) Search(ctx context.Context, filter domain.ProductFilter) ([]*domain.Product, error) {
	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	products, err := s.products.SearchProducts(ctx, filter)
	if err != nil {
		return nil, err
	}
	if products == nil {
		products = []*domain.Product{}
	}
	return products, nil
}

func (s *ProductService) Get(ctx context.Context, workspaceID, productID string) (*domain.Product, error) {
	return s.products.GetProduct(ctx, workspaceID, productID)
}
