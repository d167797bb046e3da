package conversation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/hugpuf/mono-commerce-chat-sub001/internal/domain"
)

type mongoRepository struct {
	collection *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) Repository {
	return &mongoRepository{
		collection: db.Collection("conversations"),
	}
}

func ConnectMongoDB(ctx context.Context, uri, database string) (*mongo.Database, error) {
	clientOpts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(5 * time.Second).
		SetMaxPoolSize(100).
		SetMinPoolSize(10)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return client.Database(database), nil
}

func (m *mongoRepository) GetConversation(ctx context.Context, workspaceID, conversationID string) (*domain.Conversation, error) {
	var conv domain.Conversation

	filter := bson.M{"_id": conversationID, "workspace_id": workspaceID}
	err := m.collection.FindOne(ctx, filter).Decode(&conv)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrConversationNotFound
		}
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}

	return &conv, nil
}

func (m *mongoRepository) CreateConversation(ctx context.Context, conv *domain.Conversation) error {
	now := time.Now()
	if conv.CreatedAt.IsZero() {
		conv.CreatedAt = now
	}
	conv.UpdatedAt = now
	if conv.CartItems == nil {
		conv.CartItems = []domain.CartLineItem{}
	}

	if _, err := m.collection.InsertOne(ctx, conv); err != nil {
		return fmt.Errorf("failed to create conversation: %w", err)
	}
	return nil
}

// UpdateCart is a conditional replace of the cart fields: it matches on
// cart_version so a write based on a stale read updates nothing and
// surfaces ErrCartConflict instead of silently dropping a concurrent add.
func (m *mongoRepository) UpdateCart(ctx context.Context, workspaceID, conversationID string, baseVersion int64, items []domain.CartLineItem, total float64, interactionType string) error {
	if items == nil {
		items = []domain.CartLineItem{}
	}

	filter := bson.M{
		"_id":          conversationID,
		"workspace_id": workspaceID,
		"cart_version": baseVersion,
	}

	set := bson.M{
		"cart_items": items,
		"cart_total": total,
		"updated_at": time.Now(),
	}
	if interactionType != "" {
		set["last_interaction_type"] = interactionType
	}

	update := bson.M{
		"$set": set,
		"$inc": bson.M{"cart_version": 1},
	}

	result, err := m.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update cart: %w", err)
	}

	if result.MatchedCount == 0 {
		// Either the conversation vanished or the version moved on.
		// Distinguish so callers can map to the right failure.
		exists := m.collection.FindOne(ctx, bson.M{"_id": conversationID, "workspace_id": workspaceID})
		if errors.Is(exists.Err(), mongo.ErrNoDocuments) {
			return ErrConversationNotFound
		}
		return ErrCartConflict
	}

	return nil
}

// ClearCart empties the cart unconditionally and stamps the checkout
// interaction. Clearing an already-empty cart is a no-op success, which
// makes the order-events consumer's retry safe.
func (m *mongoRepository) ClearCart(ctx context.Context, workspaceID, conversationID string) error {
	filter := bson.M{"_id": conversationID, "workspace_id": workspaceID}

	update := bson.M{
		"$set": bson.M{
			"cart_items":            []domain.CartLineItem{},
			"cart_total":            float64(0),
			"last_interaction_type": "checkout",
			"updated_at":            time.Now(),
		},
		"$inc": bson.M{"cart_version": 1},
	}

	result, err := m.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}

	if result.MatchedCount == 0 {
		return ErrConversationNotFound
	}

	return nil
}

func (m *mongoRepository) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "workspace_id", Value: 1}, {Key: "updated_at", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "workspace_id", Value: 1}, {Key: "customer_phone", Value: 1}},
		},
	}

	_, err := m.collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	return nil
}
