package domain

import "time"

type ProductStatus string

const (
	ProductStatusActive   ProductStatus = "active"
	ProductStatusDraft    ProductStatus = "draft"
	ProductStatusArchived ProductStatus = "archived"
)

// Product is a catalog entry scoped to one workspace. Stock is the
// authoritative available-to-sell count and never goes negative.
type Product struct {
	ID          string        `json:"id"`
	WorkspaceID string        `json:"workspace_id"`
	Title       string        `json:"title"`
	Description string        `json:"description,omitempty"`
	Price       float64       `json:"price"`
	Stock       int           `json:"stock"`
	Status      ProductStatus `json:"status"`
	Category    string        `json:"category,omitempty"`
	ImageURL    string        `json:"image_url,omitempty"`

	// ProviderItemID links the product to the external catalog provider's
	// inventory item. Empty means the product is not provider-linked.
	ProviderItemID string `json:"provider_item_id,omitempty"`

	// InventoryLevels is the mirrored per-location on-hand map,
	// keyed by provider location id.
	InventoryLevels map[string]int `json:"inventory_levels,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProviderConnection holds the workspace's credentials for the external
// catalog provider.
type ProviderConnection struct {
	WorkspaceID string
	ShopDomain  string
	AccessToken string
}

// ProductFilter narrows a catalog search. Zero values mean "no constraint"
// except for workspace, which is always required.
type ProductFilter struct {
	WorkspaceID string
	Query       string
	Category    string
	MaxPrice    float64
	Limit       int
}
