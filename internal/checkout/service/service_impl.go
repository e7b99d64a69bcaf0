package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	catalogdomain "github.com/smallbiznis/vendo/internal/catalog/domain"
	"github.com/smallbiznis/vendo/internal/checkout/domain"
	"github.com/smallbiznis/vendo/internal/config"
	obsmetrics "github.com/smallbiznis/vendo/internal/observability/metrics"
	"github.com/smallbiznis/vendo/internal/providers/payment"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log      *zap.Logger
	Cfg      config.Config
	Currency *config.CurrencyConfigHolder
	Catalog  catalogdomain.Lookup
	Provider *payment.Client
	Metrics  *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	log      *zap.Logger
	cfg      config.Config
	currency *config.CurrencyConfigHolder
	catalog  catalogdomain.Lookup
	provider *payment.Client
	metrics  *obsmetrics.Metrics
}

func NewService(p Params) domain.Service {
	return &Service{
		log:      p.Log.Named("checkout"),
		cfg:      p.Cfg,
		currency: p.Currency,
		catalog:  p.Catalog,
		provider: p.Provider,
		metrics:  p.Metrics,
	}
}

// CreateCheckout resolves every item server-side, converts prices exactly to
// minor units and mints one provider session carrying buyer and item ids as
// metadata. Duplicate-purchase prevention is the caller's responsibility via
// the purchase ledger before invoking this.
func (s *Service) CreateCheckout(ctx context.Context, buyerID uuid.UUID, itemIDs []int64) (*domain.CheckoutIntent, error) {
	if buyerID == uuid.Nil || len(itemIDs) == 0 {
		return nil, domain.ErrInvalidRequest
	}
	seen := make(map[int64]struct{}, len(itemIDs))
	for _, id := range itemIDs {
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("%w: duplicate item %d", domain.ErrInvalidRequest, id)
		}
		seen[id] = struct{}{}
	}

	currency := s.currency.Get().DefaultCurrency
	exponent, ok := s.currency.MinorUnitExponent(currency)
	if !ok {
		return nil, fmt.Errorf("%w: currency %s not configured", domain.ErrPriceConversion, currency)
	}

	var (
		total     int64
		lineItems []payment.LineItem
	)
	for _, id := range itemIDs {
		item, err := s.catalog.GetItem(ctx, id)
		if err != nil {
			if errors.Is(err, catalogdomain.ErrItemNotFound) {
				return nil, fmt.Errorf("%w: item %d", domain.ErrItemNotFound, id)
			}
			return nil, err
		}
		if !item.Purchasable() {
			return nil, fmt.Errorf("%w: item %d", domain.ErrItemNotPurchasable, id)
		}
		amount, ok := minorUnits(item.Price.String(), exponent)
		if !ok {
			return nil, fmt.Errorf("%w: item %d price %q", domain.ErrPriceConversion, id, item.Price.String())
		}
		total += amount
		lineItems = append(lineItems, payment.LineItem{
			Name:        item.Title,
			Description: item.ShortDescription,
			Currency:    currency,
			UnitAmount:  amount,
		})
	}

	session, err := s.provider.CreateCheckoutSession(ctx, payment.CheckoutParams{
		SuccessURL: s.cfg.CheckoutSuccessURL,
		CancelURL:  s.cfg.CheckoutCancelURL,
		Metadata: map[string]string{
			"buyer_id": buyerID.String(),
			"item_ids": joinItemIDs(itemIDs),
		},
		LineItems: lineItems,
	})
	if err != nil {
		s.metrics.RecordCheckoutSession(ctx, "provider_error")
		if errors.Is(err, payment.ErrNotConfigured) {
			return nil, err
		}
		s.log.Error("provider checkout failed",
			zap.String("buyer_id", buyerID.String()),
			zap.Int64s("item_ids", itemIDs),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %v", domain.ErrProvider, err)
	}

	s.metrics.RecordCheckoutSession(ctx, "created")
	s.log.Info("created checkout session",
		zap.String("session_id", session.ID),
		zap.String("buyer_id", buyerID.String()),
		zap.Int64s("item_ids", itemIDs),
		zap.Int64("amount", total),
		zap.String("currency", currency),
	)

	return &domain.CheckoutIntent{
		SessionID:       session.ID,
		SessionURL:      session.URL,
		BuyerID:         buyerID,
		ItemIDs:         itemIDs,
		TotalMinorUnits: total,
		Currency:        currency,
		SuccessURL:      s.cfg.CheckoutSuccessURL,
		CancelURL:       s.cfg.CheckoutCancelURL,
	}, nil
}

func joinItemIDs(itemIDs []int64) string {
	parts := make([]string, 0, len(itemIDs))
	for _, id := range itemIDs {
		parts = append(parts, strconv.FormatInt(id, 10))
	}
	return strings.Join(parts, ",")
}
