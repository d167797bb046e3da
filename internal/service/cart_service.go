package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/hugpuf/mono-commerce-chat-sub001/internal/cache"
	"github.com/hugpuf/mono-commerce-chat-sub001/internal/conversation"
	"github.com/hugpuf/mono-commerce-chat-sub001/internal/domain"
	"github.com/hugpuf/mono-commerce-chat-sub001/internal/repository"
)

// maxCartWriteAttempts bounds the retry loop around version-conflicted
// cart writes. Each retry starts from a fresh read.
const maxCartWriteAttempts = 3

type AddItemResult struct {
	AddedItem domain.CartLineItem
	CartCount int
	CartTotal float64
}

type RemoveItemResult struct {
	CartCount int
	CartTotal float64
}

type CartService struct {
	convs    conversation.Repository
	products repository.ProductRepository
	cache    cache.CartCache
	sfg      singleflight.Group // Prevents cache stampede on view-cart
	logger   *zap.SugaredLogger
}

func NewCartService(convs conversation.Repository, products repository.ProductRepository, cartCache cache.CartCache, logger *zap.SugaredLogger) *CartService {
	return &CartService{
		convs:    convs,
		products: products,
		cache:    cartCache,
		logger:   logger,
	}
}

// AddItem appends a new line to the conversation's cart. Duplicate
// product ids stay separate lines; the title and price are snapshotted
// from the catalog at add time.
func (s *CartService) AddItem(ctx context.Context, workspaceID, conversationID, productID string, quantity int, variantInfo string) (*AddItemResult, error) {
	if quantity <= 0 {
		quantity = 1
	}

	product, err := s.products.GetProduct(ctx, workspaceID, productID)
	if err != nil {
		return nil, err
	}
	if product.Stock < quantity {
		return nil, fmt.Errorf("%w: requested %d, available %d", ErrInsufficientStock, quantity, product.Stock)
	}

	line := domain.CartLineItem{
		ProductID:   product.ID,
		Title:       product.Title,
		Price:       product.Price,
		Quantity:    quantity,
		VariantInfo: variantInfo,
		ImageURL:    product.ImageURL,
		AddedAt:     time.Now(),
	}

	var items []domain.CartLineItem
	var total float64
	for attempt := 0; attempt < maxCartWriteAttempts; attempt++ {
		conv, err := s.convs.GetConversation(ctx, workspaceID, conversationID)
		if err != nil {
			return nil, err
		}

		items = append(append([]domain.CartLineItem{}, conv.CartItems...), line)
		total = domain.CartTotal(items)

		err = s.convs.UpdateCart(ctx, workspaceID, conversationID, conv.CartVersion, items, total, "add_to_cart")
		if errors.Is(err, conversation.ErrCartConflict) {
			s.logger.Debugw("cart version conflict on add, retrying", "conversation_id", conversationID, "attempt", attempt+1)
			continue
		}
		if err != nil {
			return nil, err
		}

		s.invalidateCache(workspaceID, conversationID)
		return &AddItemResult{
			AddedItem: line,
			CartCount: len(items),
			CartTotal: total,
		}, nil
	}

	return nil, ErrCartContention
}

// RemoveItem drops ALL lines matching the product id, not just the
// first. Removing a product that is not in the cart still succeeds.
func (s *CartService) RemoveItem(ctx context.Context, workspaceID, conversationID, productID string) (*RemoveItemResult, error) {
	for attempt := 0; attempt < maxCartWriteAttempts; attempt++ {
		conv, err := s.convs.GetConversation(ctx, workspaceID, conversationID)
		if err != nil {
			return nil, err
		}

		remaining := make([]domain.CartLineItem, 0, len(conv.CartItems))
		for _, item := range conv.CartItems {
			if item.ProductID != productID {
				remaining = append(remaining, item)
			}
		}
		total := domain.CartTotal(remaining)

		err = s.convs.UpdateCart(ctx, workspaceID, conversationID, conv.CartVersion, remaining, total, "")
		if errors.Is(err, conversation.ErrCartConflict) {
			s.logger.Debugw("cart version conflict on remove, retrying", "conversation_id", conversationID, "attempt", attempt+1)
			continue
		}
		if err != nil {
			return nil, err
		}

		s.invalidateCache(workspaceID, conversationID)
		return &RemoveItemResult{
			CartCount: len(remaining),
			CartTotal: total,
		}, nil
	}

	return nil, ErrCartContention
}

// ViewCart is a read-through of the cache; concurrent misses for the same
// conversation collapse into one store read.
func (s *CartService) ViewCart(ctx context.Context, workspaceID, conversationID string) (*domain.CartView, error) {
	key := workspaceID + ":" + conversationID
	v, err, _ := s.sfg.Do(key, func() (interface{}, error) {
		view, err := s.cache.Get(ctx, workspaceID, conversationID)
		if err == nil {
			return view, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warnw("cart cache get failed, falling through", "error", err)
		}

		conv, errGet := s.convs.GetConversation(ctx, workspaceID, conversationID)
		if errGet != nil {
			return nil, errGet
		}

		items := conv.CartItems
		if items == nil {
			items = []domain.CartLineItem{}
		}
		view = &domain.CartView{
			Items: items,
			Total: conv.CartTotal,
			Count: len(items),
		}

		go func() {
			setCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			if errSet := s.cache.Set(setCtx, workspaceID, conversationID, view); errSet != nil {
				s.logger.Warnw("cart cache set failed", "error", errSet)
			}
		}()

		return view, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*domain.CartView), nil
}

func (s *CartService) invalidateCache(workspaceID, conversationID string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, workspaceID, conversationID); err != nil {
		s.logger.Warnw("cart cache invalidate failed", "error", err)
	}
}
