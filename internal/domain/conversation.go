package domain

import (
	"math"
	"time"
)

// Conversation is a customer chat thread. It carries the transient
// shopping-cart state for that customer until checkout clears it.
type Conversation struct {
	ID                  string         `bson:"_id" json:"id"`
	WorkspaceID         string         `bson:"workspace_id" json:"workspace_id"`
	CustomerPhone       string         `bson:"customer_phone,omitempty" json:"customer_phone,omitempty"`
	CartItems           []CartLineItem `bson:"cart_items" json:"cart_items"`
	CartTotal           float64        `bson:"cart_total" json:"cart_total"`
	CartVersion         int64          `bson:"cart_version" json:"-"`
	LastInteractionType string         `bson:"last_interaction_type,omitempty" json:"last_interaction_type,omitempty"`
	CreatedAt           time.Time      `bson:"created_at" json:"created_at"`
	UpdatedAt           time.Time      `bson:"updated_at" json:"updated_at"`
}

// CartLineItem snapshots title and price at add time. Prices are not
// re-validated against the catalog at checkout.
type CartLineItem struct {
	ProductID   string    `bson:"product_id" json:"product_id"`
	Title       string    `bson:"title" json:"title"`
	Price       float64   `bson:"price" json:"price"`
	Quantity    int       `bson:"quantity" json:"quantity"`
	VariantInfo string    `bson:"variant_info,omitempty" json:"variant_info,omitempty"`
	ImageURL    string    `bson:"image_url,omitempty" json:"image_url,omitempty"`
	AddedAt     time.Time `bson:"added_at" json:"added_at"`
}

func (i CartLineItem) Subtotal() float64 {
	return roundCents(i.Price * float64(i.Quantity))
}

// CartTotal recomputes the total from scratch over all lines, never
// incrementally, so the stored total cannot drift.
func CartTotal(items []CartLineItem) float64 {
	var total float64
	for _, item := range items {
		total += item.Price * float64(item.Quantity)
	}
	return roundCents(total)
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

// CartView is the read model returned by view-cart.
type CartView struct {
	Items []CartLineItem `json:"items"`
	Total float64        `json:"total"`
	Count int            `json:"count"`
}
