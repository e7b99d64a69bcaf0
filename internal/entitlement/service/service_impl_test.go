package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	catalogdomain "github.com/smallbiznis/vendo/internal/catalog/domain"
	"github.com/smallbiznis/vendo/internal/entitlement/domain"
	"github.com/smallbiznis/vendo/internal/identity"
	purchasedomain "github.com/smallbiznis/vendo/internal/purchase/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeVerifier struct {
	subjects map[string]identity.Subject
}

func (f *fakeVerifier) FromAuthorization(header string) (identity.Subject, bool) {
	return f.VerifyToken(header)
}

func (f *fakeVerifier) VerifyToken(token string) (identity.Subject, bool) {
	subject, ok := f.subjects[token]
	return subject, ok
}

type fakeLedger struct {
	purchasedomain.Service
	entitled map[string]bool
	err      error
}

func ledgerKey(buyerID uuid.UUID, itemID int64) string {
	return fmt.Sprintf("%s:%d", buyerID, itemID)
}

func (f *fakeLedger) IsEntitled(_ context.Context, buyerID uuid.UUID, itemID int64) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.entitled[ledgerKey(buyerID, itemID)], nil
}

type fakeCatalog struct {
	items map[int64]*catalogdomain.Item
}

func (f *fakeCatalog) GetItem(_ context.Context, id int64) (*catalogdomain.Item, error) {
	item, ok := f.items[id]
	if !ok {
		return nil, catalogdomain.ErrItemNotFound
	}
	return item, nil
}

func (f *fakeCatalog) GetItemBySlug(_ context.Context, _ string) (*catalogdomain.Item, error) {
	return nil, catalogdomain.ErrItemNotFound
}

func (f *fakeCatalog) ListItems(_ context.Context) ([]catalogdomain.Item, error) {
	return nil, nil
}

func newTestGate(buyerID uuid.UUID) (*Service, *fakeLedger) {
	ledger := &fakeLedger{entitled: map[string]bool{}}
	gate := &Service{
		log:      zap.NewNop(),
		verifier: &fakeVerifier{subjects: map[string]identity.Subject{"good-token": {ID: buyerID}}},
		ledger:   ledger,
		catalog: &fakeCatalog{items: map[int64]*catalogdomain.Item{
			1: {ID: 1, Title: "Forest Pack", BlobBucket: "avatars", BlobPath: "packs/forest.zip", BlobFileName: "forest-pack.zip"},
			2: {ID: 2, Title: "Ocean Pack!", BlobBucket: "avatars", BlobPath: "packs/ocean.zip"},
			3: {ID: 3, Title: "Lost Pack"},
		}},
	}
	return gate, ledger
}

func TestAuthorizeDownload(t *testing.T) {
	buyerID := uuid.New()
	gate, ledger := newTestGate(buyerID)

	t.Run("invalid credential", func(t *testing.T) {
		_, err := gate.AuthorizeDownload(context.Background(), "bad-token", 1)
		assert.ErrorIs(t, err, domain.ErrUnauthenticated)
	})

	t.Run("authenticated but not entitled", func(t *testing.T) {
		_, err := gate.AuthorizeDownload(context.Background(), "good-token", 1)
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("entitled", func(t *testing.T) {
		ledger.entitled[ledgerKey(buyerID, 1)] = true

		location, err := gate.AuthorizeDownload(context.Background(), "good-token", 1)
		require.NoError(t, err)
		assert.Equal(t, "avatars", location.Bucket)
		assert.Equal(t, "packs/forest.zip", location.Path)
		assert.Equal(t, "forest-pack.zip", location.Filename)
	})

	t.Run("filename falls back to slugged title", func(t *testing.T) {
		ledger.entitled[ledgerKey(buyerID, 2)] = true

		location, err := gate.AuthorizeDownload(context.Background(), "good-token", 2)
		require.NoError(t, err)
		assert.Equal(t, "ocean-pack.zip", location.Filename)
	})

	t.Run("entitled but item has no stored object", func(t *testing.T) {
		ledger.entitled[ledgerKey(buyerID, 3)] = true

		_, err := gate.AuthorizeDownload(context.Background(), "good-token", 3)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("unknown item", func(t *testing.T) {
		ledger.entitled[ledgerKey(buyerID, 9)] = true

		_, err := gate.AuthorizeDownload(context.Background(), "good-token", 9)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestAuthorizeDownloadLedgerOutage(t *testing.T) {
	buyerID := uuid.New()

	t.Run("fail closed denies", func(t *testing.T) {
		gate, ledger := newTestGate(buyerID)
		gate.failClosed = true
		ledger.err = purchasedomain.ErrLedgerUnavailable

		_, err := gate.AuthorizeDownload(context.Background(), "good-token", 1)
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("fail open surfaces the outage", func(t *testing.T) {
		gate, ledger := newTestGate(buyerID)
		ledger.err = purchasedomain.ErrLedgerUnavailable

		_, err := gate.AuthorizeDownload(context.Background(), "good-token", 1)
		assert.ErrorIs(t, err, purchasedomain.ErrLedgerUnavailable)
	})
}

func TestCheckStatusLedgerOutage(t *testing.T) {
	buyerID := uuid.New()

	t.Run("fail closed degrades to not purchased", func(t *testing.T) {
		gate, ledger := newTestGate(buyerID)
		gate.failClosed = true
		ledger.err = purchasedomain.ErrLedgerUnavailable

		purchased, err := gate.CheckStatus(context.Background(), "good-token", 1)
		require.NoError(t, err)
		assert.False(t, purchased)
	})

	t.Run("fail open surfaces the outage", func(t *testing.T) {
		gate, ledger := newTestGate(buyerID)
		ledger.err = purchasedomain.ErrLedgerUnavailable

		_, err := gate.CheckStatus(context.Background(), "good-token", 1)
		assert.ErrorIs(t, err, purchasedomain.ErrLedgerUnavailable)
	})
}

func TestCheckStatus(t *testing.T) {
	buyerID := uuid.New()
	gate, ledger := newTestGate(buyerID)

	_, err := gate.CheckStatus(context.Background(), "bad-token", 1)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)

	purchased, err := gate.CheckStatus(context.Background(), "good-token", 1)
	require.NoError(t, err)
	assert.False(t, purchased)

	ledger.entitled[ledgerKey(buyerID, 1)] = true
	purchased, err = gate.CheckStatus(context.Background(), "good-token", 1)
	require.NoError(t, err)
	assert.True(t, purchased)
}
