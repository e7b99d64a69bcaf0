package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/google/uuid"
	catalogdomain "github.com/smallbiznis/vendo/internal/catalog/domain"
	"github.com/smallbiznis/vendo/internal/checkout/domain"
	"github.com/smallbiznis/vendo/internal/config"
	"github.com/smallbiznis/vendo/internal/providers/payment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeCatalog struct {
	items map[int64]*catalogdomain.Item
	err   error
}

func (f *fakeCatalog) GetItem(_ context.Context, id int64) (*catalogdomain.Item, error) {
	if f.err != nil {
		return nil, f.err
	}
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

func priceOf(s string) *json.Number {
	n := json.Number(s)
	return &n
}

func newTestService(t *testing.T, catalog catalogdomain.Lookup, stripeBase string) *Service {
	t.Helper()
	cfg := config.Config{
		StripeSecretKey:    "sk_test_123",
		StripeAPIBase:      stripeBase,
		CheckoutSuccessURL: "https://shop.example/success",
		CheckoutCancelURL:  "https://shop.example/cancel",
	}
	holder, err := config.NewStaticCurrencyConfigHolder(config.DefaultCurrencyConfig())
	require.NoError(t, err)
	return &Service{
		log:      zap.NewNop(),
		cfg:      cfg,
		currency: holder,
		catalog:  catalog,
		provider: payment.NewClient(cfg),
	}
}

func TestCreateCheckout(t *testing.T) {
	buyerID := uuid.New()
	catalog := &fakeCatalog{items: map[int64]*catalogdomain.Item{
		1: {ID: 1, Title: "Forest Pack", ShortDescription: "12 avatars", Price: priceOf("4.99"), IsActive: true},
		2: {ID: 2, Title: "Ocean Pack", Price: priceOf("10"), IsActive: true},
		3: {ID: 3, Title: "Free Pack", IsActive: true},
		4: {ID: 4, Title: "Broken Pack", Price: priceOf("1.005"), IsActive: true},
	}}

	var captured url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		captured = r.PostForm
		json.NewEncoder(w).Encode(map[string]string{
			"id":  "cs_test_42",
			"url": "https://checkout.stripe.com/pay/cs_test_42",
		})
	}))
	defer srv.Close()

	svc := newTestService(t, catalog, srv.URL)

	t.Run("mints session with metadata and line items", func(t *testing.T) {
		intent, err := svc.CreateCheckout(context.Background(), buyerID, []int64{1, 2})
		require.NoError(t, err)

		assert.Equal(t, "cs_test_42", intent.SessionID)
		assert.Equal(t, "https://checkout.stripe.com/pay/cs_test_42", intent.SessionURL)
		assert.Equal(t, int64(499+1000), intent.TotalMinorUnits)
		assert.Equal(t, "usd", intent.Currency)

		assert.Equal(t, buyerID.String(), captured.Get("metadata[buyer_id]"))
		assert.Equal(t, "1,2", captured.Get("metadata[item_ids]"))
		assert.Equal(t, "payment", captured.Get("mode"))
		assert.Equal(t, "499", captured.Get("line_items[0][price_data][unit_amount]"))
		assert.Equal(t, "1000", captured.Get("line_items[1][price_data][unit_amount]"))
		assert.Equal(t, "Forest Pack", captured.Get("line_items[0][price_data][product_data][name]"))
	})

	t.Run("rejects empty buyer", func(t *testing.T) {
		_, err := svc.CreateCheckout(context.Background(), uuid.Nil, []int64{1})
		assert.ErrorIs(t, err, domain.ErrInvalidRequest)
	})

	t.Run("rejects empty item list", func(t *testing.T) {
		_, err := svc.CreateCheckout(context.Background(), buyerID, nil)
		assert.ErrorIs(t, err, domain.ErrInvalidRequest)
	})

	t.Run("rejects duplicate item ids", func(t *testing.T) {
		_, err := svc.CreateCheckout(context.Background(), buyerID, []int64{1, 1})
		assert.ErrorIs(t, err, domain.ErrInvalidRequest)
	})

	t.Run("unknown item", func(t *testing.T) {
		_, err := svc.CreateCheckout(context.Background(), buyerID, []int64{999})
		assert.ErrorIs(t, err, domain.ErrItemNotFound)
	})

	t.Run("item without price is not purchasable", func(t *testing.T) {
		_, err := svc.CreateCheckout(context.Background(), buyerID, []int64{3})
		assert.ErrorIs(t, err, domain.ErrItemNotPurchasable)
	})

	t.Run("inexact price fails before the provider call", func(t *testing.T) {
		captured = nil
		_, err := svc.CreateCheckout(context.Background(), buyerID, []int64{4})
		assert.ErrorIs(t, err, domain.ErrPriceConversion)
		assert.Nil(t, captured)
	})

	t.Run("catalog outage propagates unchanged", func(t *testing.T) {
		down := newTestService(t, &fakeCatalog{err: catalogdomain.ErrCatalogUnavailable}, srv.URL)
		_, err := down.CreateCheckout(context.Background(), buyerID, []int64{1})
		assert.ErrorIs(t, err, catalogdomain.ErrCatalogUnavailable)
	})
}

func TestCreateCheckoutProviderFailures(t *testing.T) {
	buyerID := uuid.New()
	catalog := &fakeCatalog{items: map[int64]*catalogdomain.Item{
		1: {ID: 1, Title: "Forest Pack", Price: priceOf("4.99"), IsActive: true},
	}}

	t.Run("provider error is wrapped", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]any{"error": map[string]string{"message": "invalid currency"}})
		}))
		defer srv.Close()

		svc := newTestService(t, catalog, srv.URL)
		_, err := svc.CreateCheckout(context.Background(), buyerID, []int64{1})
		assert.ErrorIs(t, err, domain.ErrProvider)
	})

	t.Run("missing api key surfaces not configured", func(t *testing.T) {
		cfg := config.Config{
			CheckoutSuccessURL: "https://shop.example/success",
			CheckoutCancelURL:  "https://shop.example/cancel",
		}
		holder, err := config.NewStaticCurrencyConfigHolder(config.DefaultCurrencyConfig())
		require.NoError(t, err)
		svc := &Service{
			log:      zap.NewNop(),
			cfg:      cfg,
			currency: holder,
			catalog:  catalog,
			provider: payment.NewClient(cfg),
		}
		_, err = svc.CreateCheckout(context.Background(), buyerID, []int64{1})
		assert.ErrorIs(t, err, payment.ErrNotConfigured)
	})
}
