package consumer

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hugpuf/mono-commerce-chat-sub001/internal/conversation"
	"github.com/hugpuf/mono-commerce-chat-sub001/internal/domain"
)

type mockConversationRepo struct {
	m          sync.Mutex
	clearErr   error
	clearCalls []string
}

func (m *mockConversationRepo) GetConversation(context.Context, string, string) (*domain.Conversation, error) {
	return nil, conversation.ErrConversationNotFound
}

func (m *mockConversationRepo) CreateConversation(context.Context, *domain.Conversation) error {
	return nil
}

func (m *mockConversationRepo) UpdateCart(context.Context, string, string, int64, []domain.CartLineItem, float64, string) error {
	return nil
}

func (m *mockConversationRepo) ClearCart(_ context.Context, workspaceID, conversationID string) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.clearCalls = append(m.clearCalls, workspaceID+"/"+conversationID)
	return m.clearErr
}

type mockCache struct {
	m       sync.Mutex
	deletes []string
}

func (m *mockCache) Get(context.Context, string, string) (*domain.CartView, error) {
	return nil, nil
}

func (m *mockCache) Set(context.Context, string, string, *domain.CartView) error {
	return nil
}

func (m *mockCache) Delete(_ context.Context, workspaceID, conversationID string) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.deletes = append(m.deletes, workspaceID+"/"+conversationID)
	return nil
}

func newTestConsumer(convs *mockConversationRepo, cartCache *mockCache) *OrderEventsConsumer {
	return &OrderEventsConsumer{
		convs:  convs,
		cache:  cartCache,
		logger: zap.NewNop().Sugar(),
	}
}

func orderEventPayload(t *testing.T, workspaceID, conversationID string) []byte {
	t.Helper()
	payload, err := json.Marshal(domain.OrderCreatedEvent{
		OrderNumber:    "ORD-10000001",
		WorkspaceID:    workspaceID,
		ConversationID: conversationID,
		Total:          25,
	})
	require.NoError(t, err)
	return payload
}

func TestHandleMessage_ClearsCartAndCache(t *testing.T) {
	convs := &mockConversationRepo{}
	cartCache := &mockCache{}
	c := newTestConsumer(convs, cartCache)

	c.handleMessage(context.Background(), orderEventPayload(t, "ws-1", "conv-1"))

	assert.Equal(t, []string{"ws-1/conv-1"}, convs.clearCalls)
	assert.Equal(t, []string{"ws-1/conv-1"}, cartCache.deletes)
}

func TestHandleMessage_DuplicateDeliveryIsHarmless(t *testing.T) {
	convs := &mockConversationRepo{}
	cartCache := &mockCache{}
	c := newTestConsumer(convs, cartCache)

	payload := orderEventPayload(t, "ws-1", "conv-1")
	c.handleMessage(context.Background(), payload)
	c.handleMessage(context.Background(), payload)

	assert.Len(t, convs.clearCalls, 2)
}

func TestHandleMessage_MissingConversationTolerated(t *testing.T) {
	convs := &mockConversationRepo{clearErr: conversation.ErrConversationNotFound}
	cartCache := &mockCache{}
	c := newTestConsumer(convs, cartCache)

	c.handleMessage(context.Background(), orderEventPayload(t, "ws-1", "conv-gone"))

	// cache is still invalidated even though the document is gone
	assert.Equal(t, []string{"ws-1/conv-gone"}, cartCache.deletes)
}

func TestHandleMessage_ClearFailureSkipsCacheInvalidate(t *testing.T) {
	convs := &mockConversationRepo{clearErr: assert.AnError}
	cartCache := &mockCache{}
	c := newTestConsumer(convs, cartCache)

	c.handleMessage(context.Background(), orderEventPayload(t, "ws-1", "conv-1"))

	assert.Empty(t, cartCache.deletes)
}

func TestHandleMessage_BadPayloadIgnored(t *testing.T) {
	convs := &mockConversationRepo{}
	cartCache := &mockCache{}
	c := newTestConsumer(convs, cartCache)

	c.handleMessage(context.Background(), []byte("{nope"))

	assert.Empty(t, convs.clearCalls)
	assert.Empty(t, cartCache.deletes)
}

func TestHandleMessage_MissingIDsIgnored(t *testing.T) {
	convs := &mockConversationRepo{}
	cartCache := &mockCache{}
	c := newTestConsumer(convs, cartCache)

	c.handleMessage(context.Background(), []byte(`{"order_number":"ORD-1"}`))

	assert.Empty(t, convs.clearCalls)
}
