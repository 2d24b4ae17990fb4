package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	checkoutdomain "github.com/smallbiznis/wavepay/internal/checkout/domain"
	"github.com/smallbiznis/wavepay/internal/config"
	journaldomain "github.com/smallbiznis/wavepay/internal/journal/domain"
	"github.com/smallbiznis/wavepay/internal/observability/logger"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	rateLimitPerMinute = 120
	shutdownTimeout    = 10 * time.Second
)

type Params struct {
	fx.In

	Cfg      config.Config
	Log      *zap.Logger
	Checkout checkoutdomain.Service
	Journal  journaldomain.Recorder `optional:"true"`
}

// Server exposes the checkout lifecycle over HTTP.
type Server struct {
	cfg         config.Config
	log         *zap.Logger
	checkoutSvc checkoutdomain.Service
	journalSvc  journaldomain.Recorder
	limiter     *rateLimiter
}

func NewServer(p Params) *Server {
	return &Server{
		cfg:         p.Cfg,
		log:         p.Log.Named("server"),
		checkoutSvc: p.Checkout,
		journalSvc:  p.Journal,
		limiter:     newRateLimiter(rateLimitPerMinute, time.Minute),
	}
}

// NewEngine builds the gin engine with the shared middleware chain.
func NewEngine(cfg config.Config, log *zap.Logger) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(logger.GinMiddleware(logger.MiddlewareConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	return engine
}

// RegisterAPIRoutes mounts the checkout surface plus health and metrics.
func (s *Server) RegisterAPIRoutes(engine *gin.Engine) {
	engine.GET("/healthz", s.Healthz)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := engine.Group("/api")
	api.Use(s.RateLimit(), s.APIKeyRequired())
	{
		api.POST("/checkout/sessions", s.CreateCheckoutSession)
		api.GET("/checkout/sessions/:id", s.GetCheckoutSession)
		api.POST("/checkout/sessions/:id/void", s.VoidCheckoutSession)
		api.POST("/checkout/sessions/:id/refunds", s.CreateRefund)
		api.GET("/checkout/sessions/:id/journal", s.ListSessionJournal)
		api.GET("/refunds/:id", s.GetRefund)
	}
}

type RunParams struct {
	fx.In

	Lc     fx.Lifecycle
	Cfg    config.Config
	Log    *zap.Logger
	Engine *gin.Engine
	Server *Server
}

// RunHTTP binds the engine to the configured address under the fx lifecycle.
func RunHTTP(p RunParams) {
	p.Server.RegisterAPIRoutes(p.Engine)

	srv := &http.Server{
		Addr:              p.Cfg.HTTPAddr,
		Handler:           p.Engine,
		ReadHeaderTimeout: 5 * time.Second,
	}

	p.Lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				p.Log.Info("http server listening", zap.String("addr", p.Cfg.HTTPAddr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					p.Log.Error("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
			defer cancel()
			return srv.Shutdown(ctx)
		},
	})
}

func (s *Server) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
