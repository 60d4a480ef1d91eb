package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/dunamis-edu/dunamis/internal/config"
	"github.com/dunamis-edu/dunamis/internal/donation"
	donationdomain "github.com/dunamis-edu/dunamis/internal/donation/domain"
	"github.com/dunamis-edu/dunamis/internal/observability"
	obsmiddleware "github.com/dunamis-edu/dunamis/internal/observability/logger"
	"github.com/dunamis-edu/dunamis/internal/payment"
	paymentdomain "github.com/dunamis-edu/dunamis/internal/payment/domain"
	"github.com/dunamis-edu/dunamis/internal/ratelimit"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(NewEngine),
	donation.Module,
	payment.Module,
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
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", srv.Addr))
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
	cfg             config.Config
	db              *gorm.DB
	log             *zap.Logger
	genID           *snowflake.Node
	donationSvc     donationdomain.Service
	webhookSvc      paymentdomain.Service
	donationLimiter *ratelimit.TokenBucket
}

type ServerParams struct {
	fx.In

	Gin             *gin.Engine
	Cfg             config.Config
	DB              *gorm.DB
	Log             *zap.Logger
	GenID           *snowflake.Node
	DonationSvc     donationdomain.Service
	WebhookSvc      paymentdomain.Service
	DonationLimiter *ratelimit.TokenBucket `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:          p.Gin,
		cfg:             p.Cfg,
		db:              p.DB,
		log:             p.Log.Named("server"),
		genID:           p.GenID,
		donationSvc:     p.DonationSvc,
		webhookSvc:      p.WebhookSvc,
		donationLimiter: p.DonationLimiter,
	}

	svc.registerAPIRoutes()
	svc.registerAdminRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")

	// -------- Donations --------
	api.POST("/donations/checkout", s.DonationRateLimit(), s.CreateCheckout)
	if s.cfg.DonationsTestMode {
		api.POST("/donations/manual", s.DonationRateLimit(), s.CreateManualDonation)
	}

	// -------- Payment Webhooks --------
	api.POST("/webhooks/:provider", s.HandlePaymentWebhook)
}

func (s *Server) registerAdminRoutes() {
	admin := s.engine.Group("/api/admin")

	admin.Use(s.RequireAdmin())

	admin.GET("/donations", s.ListDonations)
}
