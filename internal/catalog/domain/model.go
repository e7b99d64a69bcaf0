package domain

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

var (
	// ErrItemNotFound means the catalog has no such item.
	ErrItemNotFound = errors.New("item_not_found")
	// ErrCatalogUnavailable means the catalog API call failed.
	ErrCatalogUnavailable = errors.New("catalog_unavailable")
)

// Item is read-only catalog metadata. The catalog service owns writes; this
// system only resolves items for checkout and download.
type Item struct {
	ID               int64        `json:"id"`
	Title            string       `json:"title"`
	Slug             string       `json:"slug"`
	ShortDescription string       `json:"short_description"`
	Description      string       `json:"description"`
	Price            *json.Number `json:"price"`
	IsActive         bool         `json:"is_active"`
	BlobBucket       string       `json:"blob_bucket"`
	BlobPath         string       `json:"blob_path"`
	BlobFileName     string       `json:"blob_file_name"`
	CreatedAt        time.Time    `json:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at"`
}

// Purchasable reports whether the item can be checked out at all. Price
// validity is the checkout service's concern.
func (i Item) Purchasable() bool {
	return i.Price != nil && i.Price.String() != ""
}

// Lookup resolves catalog items.
type Lookup interface {
	GetItem(ctx context.Context, id int64) (*Item, error)
	GetItemBySlug(ctx context.Context, slug string) (*Item, error)
	ListItems(ctx context.Context) ([]Item, error)
}
