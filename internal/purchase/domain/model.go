package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
)

// ErrLedgerUnavailable means a storage call failed. The webhook handler must
// not acknowledge the provider while this is outstanding so the event is
// redelivered.
var ErrLedgerUnavailable = errors.New("ledger_unavailable")

// PurchaseRecord is one granted entitlement. (buyer_id, item_id) is the
// logical key; session_id is provenance only and absent for manual grants.
type PurchaseRecord struct {
	ID         snowflake.ID `gorm:"column:id;primaryKey"`
	BuyerID    uuid.UUID    `gorm:"column:buyer_id;type:uuid;not null;uniqueIndex:ux_purchases_buyer_item"`
	ItemID     int64        `gorm:"column:item_id;not null;uniqueIndex:ux_purchases_buyer_item"`
	SessionID  *string      `gorm:"column:session_id"`
	RecordedAt time.Time    `gorm:"column:recorded_at;not null"`
}

func (PurchaseRecord) TableName() string {
	return "purchases"
}

// Outcome of an idempotent single-record write.
type Outcome string

const (
	OutcomeInserted      Outcome = "inserted"
	OutcomeAlreadyExists Outcome = "already_exists"
)

// BatchOutcome reports a multi-item write per item. Failed is non-empty only
// when some items could not be confirmed; the caller must then refuse to
// acknowledge the delivery.
type BatchOutcome struct {
	Inserted      []int64
	AlreadyExists []int64
	Failed        []int64
}

// Partial reports whether some, but not all, items were confirmed.
func (b BatchOutcome) Partial() bool {
	return len(b.Failed) > 0 && (len(b.Inserted) > 0 || len(b.AlreadyExists) > 0)
}

// Confirmed reports whether every item is durably present.
func (b BatchOutcome) Confirmed() bool {
	return len(b.Failed) == 0
}

// Repository is the storage port for the ledger.
type Repository interface {
	InsertIfAbsent(ctx context.Context, record PurchaseRecord) (Outcome, error)
	Exists(ctx context.Context, buyerID uuid.UUID, itemID int64) (bool, error)
	ListByBuyer(ctx context.Context, buyerID uuid.UUID) ([]PurchaseRecord, error)
}

// Service is the ledger's public surface.
type Service interface {
	IsEntitled(ctx context.Context, buyerID uuid.UUID, itemID int64) (bool, error)
	RecordIfAbsent(ctx context.Context, buyerID uuid.UUID, itemID int64, sessionID *string) (Outcome, error)
	RecordManyIfAbsent(ctx context.Context, buyerID uuid.UUID, itemIDs []int64, sessionID *string) (BatchOutcome, error)
	ListPurchases(ctx context.Context, buyerID uuid.UUID) ([]PurchaseRecord, error)
}
