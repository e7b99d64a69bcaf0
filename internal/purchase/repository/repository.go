package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/smallbiznis/vendo/internal/purchase/domain"
	"github.com/smallbiznis/vendo/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB  *gorm.DB
	Log *zap.Logger
}

type Repository struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewRepository(p Params) domain.Repository {
	return &Repository{
		db:  p.DB,
		log: p.Log.Named("purchase.repository"),
	}
}

// InsertIfAbsent writes one entitlement row. The unique index on
// (buyer_id, item_id) makes concurrent duplicates collapse into a single row;
// RowsAffected distinguishes the winner from everyone else.
func (r *Repository) InsertIfAbsent(ctx context.Context, record domain.PurchaseRecord) (domain.Outcome, error) {
	result := r.db.WithContext(ctx).Exec(
		conflictInsertSQL(r.db.Dialector.Name()),
		record.ID,
		record.BuyerID,
		record.ItemID,
		record.SessionID,
		record.RecordedAt,
	)
	if result.Error != nil {
		if db.IsDuplicateKeyErr(result.Error) {
			return domain.OutcomeAlreadyExists, nil
		}
		return "", fmt.Errorf("%w: %v", domain.ErrLedgerUnavailable, result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.OutcomeAlreadyExists, nil
	}
	return domain.OutcomeInserted, nil
}

// conflictInsertSQL picks the duplicate-tolerant insert form for the dialect.
// mysql has no ON CONFLICT clause; INSERT IGNORE reports the same zero
// RowsAffected on a duplicate.
func conflictInsertSQL(dialect string) string {
	if dialect == "mysql" {
		return `INSERT IGNORE INTO purchases (id, buyer_id, item_id, session_id, recorded_at)
		VALUES (?, ?, ?, ?, ?)`
	}
	return `INSERT INTO purchases (id, buyer_id, item_id, session_id, recorded_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (buyer_id, item_id) DO NOTHING`
}

func (r *Repository) Exists(ctx context.Context, buyerID uuid.UUID, itemID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.PurchaseRecord{}).
		Where("buyer_id = ? AND item_id = ?", buyerID, itemID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("%w: %v", domain.ErrLedgerUnavailable, err)
	}
	return count > 0, nil
}

func (r *Repository) ListByBuyer(ctx context.Context, buyerID uuid.UUID) ([]domain.PurchaseRecord, error) {
	var records []domain.PurchaseRecord
	err := r.db.WithContext(ctx).
		Where("buyer_id = ?", buyerID).
		Order("recorded_at DESC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrLedgerUnavailable, err)
	}
	return records, nil
}
