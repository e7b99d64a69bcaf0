package domain

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	// ErrInvalidRequest covers empty buyer, empty item list or duplicate ids.
	ErrInvalidRequest = errors.New("checkout_invalid_request")
	// ErrItemNotFound means an item id did not resolve in the catalog.
	ErrItemNotFound = errors.New("checkout_item_not_found")
	// ErrItemNotPurchasable means the item resolved but has no price.
	ErrItemNotPurchasable = errors.New("checkout_item_not_purchasable")
	// ErrPriceConversion means a price cannot be represented exactly in
	// minor units. Data-integrity guard, never silently rounded.
	ErrPriceConversion = errors.New("checkout_price_conversion")
	// ErrProvider means the payment provider call failed. Not retried here;
	// the caller decides.
	ErrProvider = errors.New("checkout_provider_error")
)

// CheckoutIntent is the ephemeral result of minting a provider session.
// Nothing here is persisted; the webhook metadata is the only channel that
// carries the purchase back into this system.
type CheckoutIntent struct {
	SessionID       string
	SessionURL      string
	BuyerID         uuid.UUID
	ItemIDs         []int64
	TotalMinorUnits int64
	Currency        string
	SuccessURL      string
	CancelURL       string
}

// Service mints provider checkout sessions from catalog items.
type Service interface {
	CreateCheckout(ctx context.Context, buyerID uuid.UUID, itemIDs []int64) (*CheckoutIntent, error)
}
