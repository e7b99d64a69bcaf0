package server

import (
	"context"
	"encoding/json"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	catalogdomain "github.com/smallbiznis/vendo/internal/catalog/domain"
	checkoutdomain "github.com/smallbiznis/vendo/internal/checkout/domain"
	"github.com/smallbiznis/vendo/internal/config"
	entitlementservice "github.com/smallbiznis/vendo/internal/entitlement/service"
	"github.com/smallbiznis/vendo/internal/identity"
	purchasedomain "github.com/smallbiznis/vendo/internal/purchase/domain"
	purchaserepository "github.com/smallbiznis/vendo/internal/purchase/repository"
	purchaseservice "github.com/smallbiznis/vendo/internal/purchase/service"
	storagedomain "github.com/smallbiznis/vendo/internal/storage/domain"
	webhookservice "github.com/smallbiznis/vendo/internal/webhook/service"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	testJWTSecret     = "server-test-jwt-secret"
	testWebhookSecret = "whsec_server_test"
)

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

func (f *fakeCatalog) GetItemBySlug(_ context.Context, slug string) (*catalogdomain.Item, error) {
	for _, item := range f.items {
		if item.Slug == slug {
			return item, nil
		}
	}
	return nil, catalogdomain.ErrItemNotFound
}

func (f *fakeCatalog) ListItems(_ context.Context) ([]catalogdomain.Item, error) {
	items := make([]catalogdomain.Item, 0, len(f.items))
	for _, item := range f.items {
		items = append(items, *item)
	}
	return items, nil
}

type fakeCheckout struct {
	intent *checkoutdomain.CheckoutIntent
	err    error
}

func (f *fakeCheckout) CreateCheckout(_ context.Context, buyerID uuid.UUID, itemIDs []int64) (*checkoutdomain.CheckoutIntent, error) {
	if f.err != nil {
		return nil, f.err
	}
	intent := *f.intent
	intent.BuyerID = buyerID
	intent.ItemIDs = itemIDs
	return &intent, nil
}

type fakeBlobStore struct {
	objects map[string][]byte
	err     error
}

func (f *fakeBlobStore) Download(_ context.Context, bucket, path string) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	data, ok := f.objects[bucket+"/"+path]
	if !ok {
		return nil, storagedomain.ErrBlobNotFound
	}
	return data, nil
}

func (f *fakeBlobStore) Upload(_ context.Context, bucket, _ string, content []byte, _ string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	path := uuid.NewString()
	if f.objects == nil {
		f.objects = map[string][]byte{}
	}
	f.objects[bucket+"/"+path] = content
	return path, nil
}

type testEnv struct {
	server *Server
	engine *gin.Engine
	ledger purchasedomain.Service
	blobs  *fakeBlobStore
}

func priceOf(s string) *json.Number {
	n := json.Number(s)
	return &n
}

func newTestEnv() (*testEnv, error) {
	gin.SetMode(gin.TestMode)
	log := zap.NewNop()
	cfg := config.Config{
		AuthJWTSecret:       testJWTSecret,
		StripeWebhookSecret: testWebhookSecret,
		WebhookTolerance:    5 * time.Minute,
	}

	conn, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	sqlDB, err := conn.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	if err := conn.AutoMigrate(&purchasedomain.PurchaseRecord{}); err != nil {
		return nil, err
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return nil, err
	}

	verifier, err := identity.NewVerifier(cfg, log)
	if err != nil {
		return nil, err
	}

	repo := purchaserepository.NewRepository(purchaserepository.Params{DB: conn, Log: log})
	ledger := purchaseservice.NewService(purchaseservice.Params{
		Log:        log,
		Cfg:        cfg,
		Repository: repo,
		GenID:      node,
	})
	authenticator := webhookservice.NewAuthenticator(webhookservice.Params{Log: log, Cfg: cfg})

	catalog := &fakeCatalog{items: map[int64]*catalogdomain.Item{
		1: {ID: 1, Title: "Forest Pack", Slug: "forest-pack", Price: priceOf("4.99"), IsActive: true, BlobBucket: "avatars", BlobPath: "packs/forest.zip", BlobFileName: "forest-pack.zip"},
		2: {ID: 2, Title: "Ocean Pack", Slug: "ocean-pack", Price: priceOf("10"), IsActive: true, BlobBucket: "avatars", BlobPath: "packs/ocean.zip"},
	}}

	gate := entitlementservice.NewService(entitlementservice.Params{
		Log:      log,
		Cfg:      cfg,
		Verifier: verifier,
		Ledger:   ledger,
		Catalog:  catalog,
	})

	blobs := &fakeBlobStore{objects: map[string][]byte{
		"avatars/packs/forest.zip": []byte("forest-zip-bytes"),
	}}

	engine := gin.New()
	engine.Use(ErrorHandlingMiddleware())

	srv := NewServer(Params{
		Gin:      engine,
		Log:      log,
		Cfg:      cfg,
		Verifier: verifier,
		Catalog:  catalog,
		CheckoutSvc: &fakeCheckout{intent: &checkoutdomain.CheckoutIntent{
			SessionID:  "cs_test_42",
			SessionURL: "https://checkout.example/pay/cs_test_42",
		}},
		Authenticator: authenticator,
		Ledger:        ledger,
		Gate:          gate,
		Blobs:         blobs,
	})

	return &testEnv{server: srv, engine: engine, ledger: ledger, blobs: blobs}, nil
}
