package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/inferpay/escrow/docs"
	"github.com/inferpay/escrow/internal/app/api/handlers"
	mw "github.com/inferpay/escrow/internal/app/api/middleware"
	gatesvc "github.com/inferpay/escrow/internal/app/service/gate"
	"github.com/inferpay/escrow/internal/app/service/history"
	"github.com/inferpay/escrow/internal/app/service/settlement"
	"github.com/inferpay/escrow/internal/app/service/transaction"
	"github.com/inferpay/escrow/internal/platform/keyring"
	"github.com/inferpay/escrow/internal/platform/ledger"
	cfgpkg "github.com/inferpay/escrow/pkg/config"
	metrics "github.com/inferpay/escrow/pkg/metrics"
)

func newEngine() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	// Request tracing only; request logger & access log are attached per group
	// in registerRoutes.
	r.Use(mw.TraceMiddleware())
	return r
}

func registerRoutes(
	r *gin.Engine,
	log *zap.SugaredLogger,
	cfg *cfgpkg.Config,
	store ledger.Store,
	kr *keyring.Keyring,
	txMgr *transaction.Manager,
	settle *settlement.Service,
	gate *gatesvc.Gate,
	hist *history.Service,
) {
	// Prometheus metrics
	if cfg != nil && cfg.MetricsAddr != "" {
		p := metrics.NewPrometheus(metrics.Options{
			Subsystem: "escrow",
			URLLabelMappingFn: func(c *gin.Context) string {
				if fp := c.FullPath(); fp != "" {
					return fp
				}
				return c.Request.URL.Path
			},
			Logger: log,
		})
		p.SetListenAddress(cfg.MetricsAddr)
		p.Use(r)

		log.Infow("metrics started", "addr", cfg.MetricsAddr)
	}

	// Public group: request logger + access log
	pub := r.Group("/")
	pub.Use(mw.RequestLoggerMiddleware(log), mw.AccessLogMiddleware())
	handlers.RegisterHealthRoutes(pub)
	// Swagger UI
	docs.SwaggerInfo.BasePath = "/"
	pub.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	apiV1 := r.Group("/api/v1")
	apiV1.Use(mw.RequestLoggerMiddleware(log), mw.AccessLogMiddleware())

	handlers.RegisterWalletRoutes(apiV1, kr)
	handlers.RegisterSubscriptionRoutes(apiV1, txMgr, store, kr)
	handlers.RegisterSettlementRoutes(apiV1, settle, kr)
	handlers.RegisterGateRoutes(apiV1, gate, kr)
	handlers.RegisterHistoryRoutes(apiV1, hist, kr)
}

func runServer(lc fx.Lifecycle, log *zap.SugaredLogger, cfg *cfgpkg.Config, r *gin.Engine) {
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 5 * time.Second}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infow("starting HTTP server", "addr", addr)
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Errorf("server error: %v", err)
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Infow("stopping HTTP server")
			shutdownCtx, cancel := context.WithTimeout(ctx, 120*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

var Module = fx.Options(
	fx.Provide(newEngine),
	fx.Invoke(registerRoutes),
	fx.Invoke(runServer),
)
