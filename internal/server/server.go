package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/adcraftlabs/adcraft/internal/account"
	accountdomain "github.com/adcraftlabs/adcraft/internal/account/domain"
	"github.com/adcraftlabs/adcraft/internal/artifact"
	"github.com/adcraftlabs/adcraft/internal/billing"
	billingdomain "github.com/adcraftlabs/adcraft/internal/billing/domain"
	"github.com/adcraftlabs/adcraft/internal/config"
	"github.com/adcraftlabs/adcraft/internal/genai"
	"github.com/adcraftlabs/adcraft/internal/generation"
	generationdomain "github.com/adcraftlabs/adcraft/internal/generation/domain"
	"github.com/adcraftlabs/adcraft/internal/metrics"
	"github.com/adcraftlabs/adcraft/internal/ratelimit"
	"github.com/adcraftlabs/adcraft/internal/session"
)

var Module = fx.Module("http.server",
	metrics.Module,
	fx.Provide(registerGin),
	account.Module,
	billing.Module,
	genai.Module,
	artifact.Module,
	generation.Module,
	session.Module,
	ratelimit.Module,
	fx.Provide(NewServer),
	fx.Invoke(func(s *Server) { s.RegisterRoutes() }),
	fx.Invoke(run),
)

func NewEngine(log *zap.Logger, m *metrics.Metrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(log))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(
		m.Registry(),
		promhttp.HandlerOpts{},
	)))

	return r
}

func registerGin(log *zap.Logger, m *metrics.Metrics) *gin.Engine {
	return NewEngine(log, m)
}

func requestLogger(log *zap.Logger) gin.HandlerFunc {
	log = log.Named("http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		log.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	}
}

func run(lc fx.Lifecycle, log *zap.Logger, cfg config.Config, r *gin.Engine) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server failed", zap.Error(err))
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
	cfg             config.Config
	log             *zap.Logger
	db              *gorm.DB
	accounts        accountdomain.Service
	billing         billingdomain.Service
	generations     generationdomain.Service
	sessions        *session.Manager
	generateLimiter *ratelimit.GenerateLimiter
}

type ServerParams struct {
	fx.In

	Gin             *gin.Engine
	Cfg             config.Config
	Log             *zap.Logger
	DB              *gorm.DB
	Accounts        accountdomain.Service
	Billing         billingdomain.Service
	Generations     generationdomain.Service
	Sessions        *session.Manager
	GenerateLimiter *ratelimit.GenerateLimiter `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	return &Server{
		engine:          p.Gin,
		cfg:             p.Cfg,
		log:             p.Log.Named("http.server"),
		db:              p.DB,
		accounts:        p.Accounts,
		billing:         p.Billing,
		generations:     p.Generations,
		sessions:        p.Sessions,
		generateLimiter: p.GenerateLimiter,
	}
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) RegisterRoutes() {
	api := s.engine.Group("/api")

	api.POST("/signup", s.Signup)
	api.POST("/login", s.Login)
	api.POST("/logout", s.AuthRequired(), s.Logout)

	api.GET("/account", s.AuthRequired(), s.GetAccount)

	api.POST("/generate", s.AuthRequired(), s.GenerateRateLimit(), s.Generate)
	api.POST("/edit", s.AuthRequired(), s.Edit)
	api.GET("/generations", s.AuthRequired(), s.ListGenerations)

	api.POST("/checkout", s.AuthRequired(), s.CreateCheckout)
	api.POST("/portal", s.AuthRequired(), s.CreatePortal)
	api.POST("/webhook/stripe", s.HandleStripeWebhook)
}
