package domain

import (
	"context"
	"errors"
)

var (
	// ErrUnauthenticated means the credential is missing or invalid.
	ErrUnauthenticated = errors.New("entitlement_unauthenticated")
	// ErrForbidden means the buyer is authenticated but holds no entitlement.
	ErrForbidden = errors.New("entitlement_forbidden")
	// ErrNotFound means the item or its stored object does not exist.
	ErrNotFound = errors.New("entitlement_item_not_found")
)

// ItemLocation tells the transport layer where the purchased bytes live and
// what filename to hand the client.
type ItemLocation struct {
	ItemID   int64
	Bucket   string
	Path     string
	Filename string
}

// Gate authorizes access to purchased items.
type Gate interface {
	AuthorizeDownload(ctx context.Context, credential string, itemID int64) (*ItemLocation, error)
	CheckStatus(ctx context.Context, credential string, itemID int64) (bool, error)
}
