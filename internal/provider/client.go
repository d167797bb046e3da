// Package provider talks to the external catalog provider's Admin API.
// Inventory writes send absolute on-hand quantities, never deltas.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/hugpuf/mono-commerce-chat-sub001/internal/domain"
)

// ErrUpstream marks failures coming from the provider itself (transport,
// non-2xx, or an open circuit) so the HTTP layer can classify them.
var ErrUpstream = errors.New("catalog provider request failed")

// InventoryClient sets per-location stock on the external provider.
type InventoryClient interface {
	SetInventoryLevel(ctx context.Context, conn *domain.ProviderConnection, inventoryItemID, locationID string, onHand int, reason string) error
}

type ShopifyClient struct {
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[struct{}]
	apiVersion string
}

func NewShopifyClient(timeout time.Duration) *ShopifyClient {
	settings := gobreaker.Settings{
		Name:        "shopify-inventory",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	}
	return &ShopifyClient{
		httpClient: &http.Client{Timeout: timeout},
		breaker:    gobreaker.NewCircuitBreaker[struct{}](settings),
		apiVersion: "2024-04",
	}
}

type setLevelRequest struct {
	LocationID      string `json:"location_id"`
	InventoryItemID string `json:"inventory_item_id"`
	Available       int    `json:"available"`
	Reason          string `json:"reason,omitempty"`
}

func (c *ShopifyClient) SetInventoryLevel(ctx context.Context, conn *domain.ProviderConnection, inventoryItemID, locationID string, onHand int, reason string) error {
	body, err := json.Marshal(setLevelRequest{
		LocationID:      locationID,
		InventoryItemID: inventoryItemID,
		Available:       onHand,
		Reason:          reason,
	})
	if err != nil {
		return fmt.Errorf("marshal inventory level request: %w", err)
	}

	url := fmt.Sprintf("https://%s/admin/api/%s/inventory_levels/set.json", conn.ShopDomain, c.apiVersion)

	_, err = c.breaker.Execute(func() (struct{}, error) {
		req, reqErr := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if reqErr != nil {
			return struct{}{}, fmt.Errorf("build request: %w", reqErr)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Shopify-Access-Token", conn.AccessToken)

		resp, doErr := c.httpClient.Do(req)
		if doErr != nil {
			return struct{}{}, fmt.Errorf("provider call failed: %w", doErr)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return struct{}{}, fmt.Errorf("provider returned %d: %s", resp.StatusCode, string(snippet))
		}
		return struct{}{}, nil
	})

	if err != nil {
		return fmt.Errorf("%w: set inventory level at location %s: %v", ErrUpstream, locationID, err)
	}
	return nil
}
