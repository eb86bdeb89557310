package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/fatflowers/repricer/docs"
	"github.com/fatflowers/repricer/internal/app/api/handlers"
	mw "github.com/fatflowers/repricer/internal/app/api/middleware"
	"github.com/fatflowers/repricer/internal/app/service/consent"
	"github.com/fatflowers/repricer/internal/app/service/pricechange"
	"github.com/fatflowers/repricer/internal/app/service/reconciler"
	"github.com/fatflowers/repricer/internal/app/service/statistics"
	cfgpkg "github.com/fatflowers/repricer/pkg/config"
	"github.com/fatflowers/repricer/pkg/metrics"
)

func newEngine(cfg *cfgpkg.Config) *gin.Engine {
	if cfg.Env == cfgpkg.EnvProd {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	// request logger & access log are attached per group in registerRoutes
	r.Use(mw.TraceMiddleware())
	return r
}

type routeParams struct {
	fx.In

	Engine      *gin.Engine
	Log         *zap.SugaredLogger
	Config      *cfgpkg.Config
	PriceChange *pricechange.Service
	Consent     *consent.Service
	Reconciler  *reconciler.Service
	Statistics  *statistics.Service
}

func registerRoutes(p routeParams) {
	r, log, cfg := p.Engine, p.Log, p.Config

	if cfg.MetricsAddr != "" {
		prom := metrics.NewPrometheus(metrics.NewPrometheusOptions{
			Subsystem: "repricer",
			ReqCntURLLabelMappingFn: func(c *gin.Context) string {
				// route templates keep approval tokens out of label values
				if fp := c.FullPath(); fp != "" {
					return fp
				}
				return "unmatched"
			},
			Logger: log,
		})
		prom.SetListenAddress(cfg.MetricsAddr)
		prom.Use(r)
		log.Infow("metrics started", "addr", cfg.MetricsAddr)
	}

	pub := r.Group("/")
	pub.Use(mw.RequestLoggerMiddleware(log), mw.AccessLogMiddleware())
	handlers.RegisterHealthRoutes(pub)
	docs.SwaggerInfo.BasePath = "/"
	pub.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	apiV1 := r.Group("/api/v1")
	apiV1.Use(mw.RequestLoggerMiddleware(log), mw.AccessLogMiddleware())

	// the approval token is the only credential on consent routes
	handlers.RegisterConsentRoutes(apiV1, p.Consent, log)
	handlers.RegisterCronRoutes(apiV1.Group("", mw.CronKeyMiddleware(cfg.Auth.CronKey)), p.Reconciler, log)

	authed := apiV1.Group("", mw.AuthMiddleware(cfg.Auth.JWTSecret, log))
	handlers.RegisterPriceChangeRoutes(authed, p.PriceChange, log)
	handlers.RegisterAdminRoutes(authed.Group("/admin"), p.Statistics, log)
}

func runServer(lc fx.Lifecycle, log *zap.SugaredLogger, cfg *cfgpkg.Config, r *gin.Engine) {
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 5 * time.Second}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infow("starting HTTP server", "addr", addr)
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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
