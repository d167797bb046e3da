package domain

import (
	"time"

	"github.com/google/uuid"
)

// AdjustmentReason classifies why stock moved.
type AdjustmentReason string

const (
	ReasonSale        AdjustmentReason = "sale"
	ReasonReservation AdjustmentReason = "reservation"
	ReasonReturn      AdjustmentReason = "return"
	ReasonCorrection  AdjustmentReason = "correction"
)

func (r AdjustmentReason) Valid() bool {
	switch r {
	case ReasonSale, ReasonReservation, ReasonReturn, ReasonCorrection:
		return true
	}
	return false
}

// LocationAdjustment records the deduction applied to a single provider
// location, including the absolute on-hand quantity sent to the provider.
type LocationAdjustment struct {
	LocationID string `json:"location_id"`
	Deducted   int    `json:"deducted"`
	NewOnHand  int    `json:"new_on_hand"`
}

// AdjustmentRecord is the audit row for one inventory adjustment. Its
// presence under (workspace, product, idempotency key) marks the
// adjustment as applied; the unique constraint makes duplicate delivery
// a no-op.
type AdjustmentRecord struct {
	ID             uuid.UUID        `json:"id"`
	WorkspaceID    string           `json:"workspace_id"`
	ProductID      string           `json:"product_id"`
	IdempotencyKey string           `json:"idempotency_key"`
	Reason         AdjustmentReason `json:"reason"`
	Quantity       int              `json:"quantity"`
	BeforeLevels   map[string]int   `json:"before_levels,omitempty"`
	AfterLevels    map[string]int   `json:"after_levels,omitempty"`
	Shortage       int              `json:"shortage"`
	CreatedAt      time.Time        `json:"created_at"`
}
