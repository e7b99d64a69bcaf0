package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/smallbiznis/vendo/internal/config"
	obsmetrics "github.com/smallbiznis/vendo/internal/observability/metrics"
	"github.com/smallbiznis/vendo/internal/purchase/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log        *zap.Logger
	Cfg        config.Config
	Repository domain.Repository
	GenID      *snowflake.Node
	Cache      *redis.Client       `optional:"true"`
	Metrics    *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	log      *zap.Logger
	repo     domain.Repository
	genID    *snowflake.Node
	cache    *redis.Client
	cacheTTL time.Duration
	metrics  *obsmetrics.Metrics
}

func NewService(p Params) domain.Service {
	return &Service{
		log:      p.Log.Named("purchase"),
		repo:     p.Repository,
		genID:    p.GenID,
		cache:    p.Cache,
		cacheTTL: p.Cfg.EntitlementCacheTTL,
		metrics:  p.Metrics,
	}
}

// IsEntitled is a pure read. Absence is a normal false, never an error; only
// storage failures surface, as ErrLedgerUnavailable. Positive results are
// cached because entitlements are never revoked here.
func (s *Service) IsEntitled(ctx context.Context, buyerID uuid.UUID, itemID int64) (bool, error) {
	if buyerID == uuid.Nil {
		return false, nil
	}

	if s.cacheHit(ctx, buyerID, itemID) {
		return true, nil
	}

	entitled, err := s.repo.Exists(ctx, buyerID, itemID)
	if err != nil {
		return false, err
	}
	if entitled {
		s.cacheStore(ctx, buyerID, itemID)
	}
	return entitled, nil
}

// RecordIfAbsent grants one entitlement idempotently. The same logical key
// always converges on a single stored row regardless of how many deliveries
// race.
func (s *Service) RecordIfAbsent(ctx context.Context, buyerID uuid.UUID, itemID int64, sessionID *string) (domain.Outcome, error) {
	record := domain.PurchaseRecord{
		ID:         s.genID.Generate(),
		BuyerID:    buyerID,
		ItemID:     itemID,
		SessionID:  normalizeSessionID(sessionID),
		RecordedAt: time.Now().UTC(),
	}

	outcome, err := s.repo.InsertIfAbsent(ctx, record)
	if err != nil {
		s.metrics.RecordPurchase(ctx, "ledger_error")
		return "", err
	}

	s.cacheStore(ctx, buyerID, itemID)
	s.metrics.RecordPurchase(ctx, string(outcome))
	if outcome == domain.OutcomeInserted {
		s.log.Info("recorded purchase",
			zap.String("buyer_id", buyerID.String()),
			zap.Int64("item_id", itemID),
		)
	}
	return outcome, nil
}

// RecordManyIfAbsent writes each item independently and reports every item's
// fate. A partial result is never collapsed into success; the caller decides
// whether the delivery can be acknowledged.
func (s *Service) RecordManyIfAbsent(ctx context.Context, buyerID uuid.UUID, itemIDs []int64, sessionID *string) (domain.BatchOutcome, error) {
	var batch domain.BatchOutcome
	for _, itemID := range itemIDs {
		outcome, err := s.RecordIfAbsent(ctx, buyerID, itemID, sessionID)
		if err != nil {
			s.log.Warn("purchase write failed",
				zap.String("buyer_id", buyerID.String()),
				zap.Int64("item_id", itemID),
				zap.Error(err),
			)
			batch.Failed = append(batch.Failed, itemID)
			continue
		}
		switch outcome {
		case domain.OutcomeInserted:
			batch.Inserted = append(batch.Inserted, itemID)
		case domain.OutcomeAlreadyExists:
			batch.AlreadyExists = append(batch.AlreadyExists, itemID)
		}
	}
	if len(batch.Failed) == len(itemIDs) && len(itemIDs) > 0 {
		return batch, domain.ErrLedgerUnavailable
	}
	return batch, nil
}

func (s *Service) ListPurchases(ctx context.Context, buyerID uuid.UUID) ([]domain.PurchaseRecord, error) {
	return s.repo.ListByBuyer(ctx, buyerID)
}

func (s *Service) cacheHit(ctx context.Context, buyerID uuid.UUID, itemID int64) bool {
	if s.cache == nil {
		return false
	}
	value, err := s.cache.Get(ctx, entitlementKey(buyerID, itemID)).Result()
	if err != nil {
		return false
	}
	return value == "1"
}

func (s *Service) cacheStore(ctx context.Context, buyerID uuid.UUID, itemID int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, entitlementKey(buyerID, itemID), "1", s.cacheTTL).Err(); err != nil {
		s.log.Debug("entitlement cache write failed", zap.Error(err))
	}
}

func entitlementKey(buyerID uuid.UUID, itemID int64) string {
	return fmt.Sprintf("entitlement:%s:%d", buyerID, itemID)
}

func normalizeSessionID(sessionID *string) *string {
	if sessionID == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*sessionID)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
