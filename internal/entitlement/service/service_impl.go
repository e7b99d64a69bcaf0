package service

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/gosimple/slug"
	catalogdomain "github.com/smallbiznis/vendo/internal/catalog/domain"
	"github.com/smallbiznis/vendo/internal/config"
	"github.com/smallbiznis/vendo/internal/entitlement/domain"
	"github.com/smallbiznis/vendo/internal/identity"
	purchasedomain "github.com/smallbiznis/vendo/internal/purchase/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log      *zap.Logger
	Cfg      config.Config
	Verifier identity.Verifier
	Ledger   purchasedomain.Service
	Catalog  catalogdomain.Lookup
}

type Service struct {
	log        *zap.Logger
	verifier   identity.Verifier
	ledger     purchasedomain.Service
	catalog    catalogdomain.Lookup
	failClosed bool
}

func NewService(p Params) domain.Gate {
	return &Service{
		log:        p.Log.Named("entitlement"),
		verifier:   p.Verifier,
		ledger:     p.Ledger,
		catalog:    p.Catalog,
		failClosed: p.Cfg.EntitlementFailClosed,
	}
}

// AuthorizeDownload checks credential, entitlement and item existence in that
// order. The returned location never implies the bytes were fetched; the
// transport layer does that against the blob store.
func (s *Service) AuthorizeDownload(ctx context.Context, credential string, itemID int64) (*domain.ItemLocation, error) {
	subject, ok := s.verifier.VerifyToken(strings.TrimSpace(credential))
	if !ok {
		return nil, domain.ErrUnauthenticated
	}

	entitled, err := s.ledger.IsEntitled(ctx, subject.ID, itemID)
	if err != nil {
		s.log.Warn("entitlement check failed",
			zap.String("buyer_id", subject.ID.String()),
			zap.Int64("item_id", itemID),
			zap.Error(err),
		)
		if s.failClosed {
			return nil, fmt.Errorf("%w: ledger unavailable", domain.ErrForbidden)
		}
		return nil, err
	}
	if !entitled {
		return nil, fmt.Errorf("%w: item %d", domain.ErrForbidden, itemID)
	}

	item, err := s.catalog.GetItem(ctx, itemID)
	if err != nil {
		if errors.Is(err, catalogdomain.ErrItemNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if strings.TrimSpace(item.BlobPath) == "" {
		return nil, domain.ErrNotFound
	}

	return &domain.ItemLocation{
		ItemID:   item.ID,
		Bucket:   item.BlobBucket,
		Path:     item.BlobPath,
		Filename: downloadFilename(item),
	}, nil
}

// CheckStatus reports whether the credential's subject owns the item. Invalid
// credentials are ErrUnauthenticated; absence of a purchase is a normal false.
func (s *Service) CheckStatus(ctx context.Context, credential string, itemID int64) (bool, error) {
	subject, ok := s.verifier.VerifyToken(strings.TrimSpace(credential))
	if !ok {
		return false, domain.ErrUnauthenticated
	}
	entitled, err := s.ledger.IsEntitled(ctx, subject.ID, itemID)
	if err != nil {
		s.log.Warn("entitlement check failed",
			zap.String("buyer_id", subject.ID.String()),
			zap.Int64("item_id", itemID),
			zap.Error(err),
		)
		if s.failClosed {
			return false, nil
		}
		return false, err
	}
	return entitled, nil
}

func downloadFilename(item *catalogdomain.Item) string {
	if name := strings.TrimSpace(item.BlobFileName); name != "" {
		return name
	}
	name := slug.Make(item.Title)
	if name == "" {
		name = fmt.Sprintf("item-%d", item.ID)
	}
	if ext := path.Ext(item.BlobPath); ext != "" {
		name += ext
	}
	return name
}
