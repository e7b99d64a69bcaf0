package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/vendo/internal/catalog"
	catalogdomain "github.com/smallbiznis/vendo/internal/catalog/domain"
	"github.com/smallbiznis/vendo/internal/checkout"
	checkoutdomain "github.com/smallbiznis/vendo/internal/checkout/domain"
	"github.com/smallbiznis/vendo/internal/config"
	"github.com/smallbiznis/vendo/internal/entitlement"
	entitlementdomain "github.com/smallbiznis/vendo/internal/entitlement/domain"
	"github.com/smallbiznis/vendo/internal/identity"
	"github.com/smallbiznis/vendo/internal/observability"
	obsmiddleware "github.com/smallbiznis/vendo/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/vendo/internal/observability/metrics"
	obstracing "github.com/smallbiznis/vendo/internal/observability/tracing"
	"github.com/smallbiznis/vendo/internal/providers"
	"github.com/smallbiznis/vendo/internal/purchase"
	purchasedomain "github.com/smallbiznis/vendo/internal/purchase/domain"
	"github.com/smallbiznis/vendo/internal/ratelimit"
	"github.com/smallbiznis/vendo/internal/storage"
	storagedomain "github.com/smallbiznis/vendo/internal/storage/domain"
	"github.com/smallbiznis/vendo/internal/webhook"
	webhookdomain "github.com/smallbiznis/vendo/internal/webhook/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	identity.Module,
	providers.Module,
	catalog.Module,
	checkout.Module,
	webhook.Module,
	purchase.Module,
	storage.Module,
	entitlement.Module,
	ratelimit.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config) *gin.Engine {
	return NewEngine(obsCfg)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine          *gin.Engine
	log             *zap.Logger
	cfg             config.Config
	verifier        identity.Verifier
	catalog         catalogdomain.Lookup
	checkoutSvc     checkoutdomain.Service
	authenticator   webhookdomain.Authenticator
	ledger          purchasedomain.Service
	gate            entitlementdomain.Gate
	blobs           storagedomain.BlobStore
	checkoutLimiter *ratelimit.CheckoutLimiter
	metrics         *obsmetrics.Metrics
}

type Params struct {
	fx.In

	Gin             *gin.Engine
	Log             *zap.Logger
	Cfg             config.Config
	Verifier        identity.Verifier
	Catalog         catalogdomain.Lookup
	CheckoutSvc     checkoutdomain.Service
	Authenticator   webhookdomain.Authenticator
	Ledger          purchasedomain.Service
	Gate            entitlementdomain.Gate
	Blobs           storagedomain.BlobStore
	CheckoutLimiter *ratelimit.CheckoutLimiter
	Metrics         *obsmetrics.Metrics `optional:"true"`
}

func NewServer(p Params) *Server {
	s := &Server{
		engine:          p.Gin,
		log:             p.Log.Named("server"),
		cfg:             p.Cfg,
		verifier:        p.Verifier,
		catalog:         p.Catalog,
		checkoutSvc:     p.CheckoutSvc,
		authenticator:   p.Authenticator,
		ledger:          p.Ledger,
		gate:            p.Gate,
		blobs:           p.Blobs,
		checkoutLimiter: p.CheckoutLimiter,
		metrics:         p.Metrics,
	}

	s.registerRoutes()
	return s
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerRoutes() {
	items := s.engine.Group("/items")
	{
		items.GET("", s.ListItems)
		items.GET("/:id", s.GetItemByID)
		items.GET("/slug/:slug", s.GetItemBySlug)
	}

	purchases := s.engine.Group("/purchases")
	{
		purchases.POST("/checkout", s.AuthRequired(), s.CheckoutRateLimit(), s.CreateCheckout)
		purchases.POST("/webhook", s.HandleProviderWebhook)
		purchases.GET("/status", s.GetPurchaseStatus)
	}

	blobs := s.engine.Group("/storage")
	{
		blobs.GET("/download", s.DownloadItem)
		blobs.POST("/upload", s.AuthRequired(), s.UploadBlob)
	}
}
