package service

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/hugpuf/mono-commerce-chat-sub001/internal/cache"
	"github.com/hugpuf/mono-commerce-chat-sub001/internal/conversation"
	"github.com/hugpuf/mono-commerce-chat-sub001/internal/domain"
	"github.com/hugpuf/mono-commerce-chat-sub001/internal/repository"
)

type mockConversationRepo struct {
	m    sync.Mutex
	conv *domain.Conversation
	err  error

	// conflictsLeft makes the next N UpdateCart calls fail with
	// ErrCartConflict to exercise the retry loop.
	conflictsLeft int

	clearErr    error
	clearCalls  int
	updateCalls int
}

func (m *mockConversationRepo) GetConversation(_ context.Context, workspaceID, conversationID string) (*domain.Conversation, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	if m.conv == nil || m.conv.ID != conversationID || m.conv.WorkspaceID != workspaceID {
		return nil, conversation.ErrConversationNotFound
	}
	cp := *m.conv
	cp.CartItems = append([]domain.CartLineItem{}, m.conv.CartItems...)
	return &cp, nil
}

func (m *mockConversationRepo) CreateConversation(_ context.Context, conv *domain.Conversation) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.conv = conv
	return m.err
}

func (m *mockConversationRepo) UpdateCart(_ context.Context, workspaceID, conversationID string, baseVersion int64, items []domain.CartLineItem, total float64, interactionType string) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.updateCalls++
	if m.err != nil {
		return m.err
	}
	if m.conflictsLeft > 0 {
		m.conflictsLeft--
		m.conv.CartVersion++ // someone else won the race
		return conversation.ErrCartConflict
	}
	if m.conv == nil || m.conv.ID != conversationID || m.conv.WorkspaceID != workspaceID {
		return conversation.ErrConversationNotFound
	}
	if m.conv.CartVersion != baseVersion {
		return conversation.ErrCartConflict
	}
	m.conv.CartItems = items
	m.conv.CartTotal = total
	m.conv.CartVersion++
	if interactionType != "" {
		m.conv.LastInteractionType = interactionType
	}
	return nil
}

func (m *mockConversationRepo) ClearCart(_ context.Context, workspaceID, conversationID string) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.clearCalls++
	if m.err != nil {
		return m.err
	}
	if m.clearErr != nil {
		return m.clearErr
	}
	if m.conv == nil || m.conv.ID != conversationID || m.conv.WorkspaceID != workspaceID {
		return conversation.ErrConversationNotFound
	}
	m.conv.CartItems = []domain.CartLineItem{}
	m.conv.CartTotal = 0
	m.conv.CartVersion++
	m.conv.LastInteractionType = "checkout"
	return nil
}

type mockProductRepo struct {
	m        sync.Mutex
	products map[string]*domain.Product
	conn     *domain.ProviderConnection
	err      error

	savedLevels map[string]int
}

func (m *mockProductRepo) GetProduct(_ context.Context, workspaceID, productID string) (*domain.Product, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	p, ok := m.products[productID]
	if !ok || p.WorkspaceID != workspaceID {
		return nil, repository.ErrProductNotFound
	}
	return p, nil
}

func (m *mockProductRepo) GetProductWithConnection(ctx context.Context, workspaceID, productID string) (*domain.Product, *domain.ProviderConnection, error) {
	p, err := m.GetProduct(ctx, workspaceID, productID)
	if err != nil {
		return nil, nil, err
	}
	return p, m.conn, nil
}

func (m *mockProductRepo) SearchProducts(_ context.Context, filter domain.ProductFilter) ([]*domain.Product, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var out []*domain.Product
	for _, p := range m.products {
		if p.WorkspaceID == filter.WorkspaceID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockProductRepo) SaveInventoryLevels(_ context.Context, _, productID string, levels map[string]int) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.savedLevels = levels
	if p, ok := m.products[productID]; ok {
		p.InventoryLevels = levels
	}
	return m.err
}

type mockCache struct {
	m       sync.Mutex
	view    *domain.CartView
	err     error
	deletes int
}

func (m *mockCache) Get(context.Context, string, string) (*domain.CartView, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	if m.view == nil {
		return nil, cache.ErrCacheMiss
	}
	return m.view, nil
}

func (m *mockCache) Set(_ context.Context, _, _ string, view *domain.CartView) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.view = view
	return m.err
}

func (m *mockCache) Delete(context.Context, string, string) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.deletes++
	m.view = nil
	return nil
}

type mockOrderRepo struct {
	m           sync.Mutex
	nextNumber  string
	numberErr   error
	createErr   error
	created     *domain.Order
	payload     []byte
	createCalls int
}

func (m *mockOrderRepo) NextOrderNumber(context.Context) (string, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.numberErr != nil {
		return "", m.numberErr
	}
	return m.nextNumber, nil
}

func (m *mockOrderRepo) CreateOrderWithEvent(_ context.Context, order *domain.Order, payload []byte) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.createCalls++
	if m.createErr != nil {
		return m.createErr
	}
	m.created = order
	m.payload = payload
	return nil
}

func (m *mockOrderRepo) GetOrderByID(context.Context, string, uuid.UUID) (*domain.Order, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.created == nil {
		return nil, repository.ErrOrderNotFound
	}
	return m.created, nil
}

func (m *mockOrderRepo) ListOrdersByConversation(context.Context, string, string) ([]*domain.Order, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.created == nil {
		return nil, nil
	}
	return []*domain.Order{m.created}, nil
}

type mockAdjustmentRepo struct {
	m         sync.Mutex
	claimed   map[string]bool
	claimErr  error
	completed bool
	shortage  int
	after     map[string]int
}

func (m *mockAdjustmentRepo) ClaimAdjustment(_ context.Context, rec *domain.AdjustmentRecord) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.claimErr != nil {
		return m.claimErr
	}
	if m.claimed == nil {
		m.claimed = make(map[string]bool)
	}
	key := rec.WorkspaceID + "/" + rec.ProductID + "/" + rec.IdempotencyKey
	if m.claimed[key] {
		return repository.ErrDuplicateAdjustment
	}
	m.claimed[key] = true
	return nil
}

func (m *mockAdjustmentRepo) CompleteAdjustment(_ context.Context, _ uuid.UUID, _, after map[string]int, shortage int) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.completed = true
	m.after = after
	m.shortage = shortage
	return nil
}

func (m *mockAdjustmentRepo) GetAdjustment(context.Context, string, string, string) (*domain.AdjustmentRecord, error) {
	return nil, nil
}

type providerCall struct {
	LocationID string
	OnHand     int
	Reason     string
}

type mockProviderClient struct {
	m     sync.Mutex
	calls []providerCall
	err   error
	// failAfter fails the call at index failAfter (0-based) when >= 0.
	failAfter int
}

func newMockProviderClient() *mockProviderClient {
	return &mockProviderClient{failAfter: -1}
}

func (m *mockProviderClient) SetInventoryLevel(_ context.Context, _ *domain.ProviderConnection, _, locationID string, onHand int, reason string) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.failAfter >= 0 && len(m.calls) == m.failAfter {
		return m.err
	}
	if m.failAfter < 0 && m.err != nil {
		return m.err
	}
	m.calls = append(m.calls, providerCall{LocationID: locationID, OnHand: onHand, Reason: reason})
	return nil
}
