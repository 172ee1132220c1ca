package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/servizo/walletd/internal/checkout"
	"github.com/servizo/walletd/internal/config"
	"github.com/servizo/walletd/internal/payment"
	paymentdomain "github.com/servizo/walletd/internal/payment/domain"
	walletdomain "github.com/servizo/walletd/internal/wallet/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	payment.Module,
	checkout.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(log))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(log *zap.Logger) *gin.Engine {
	return NewEngine(log)
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
	engine      *gin.Engine
	cfg         config.Config
	paymentSvc  paymentdomain.Service
	walletSvc   walletdomain.Service
	checkoutSvc *checkout.Service
	log         *zap.Logger
}

type ServerParams struct {
	fx.In

	Gin         *gin.Engine
	Cfg         config.Config
	PaymentSvc  paymentdomain.Service
	WalletSvc   walletdomain.Service
	CheckoutSvc *checkout.Service
	Log         *zap.Logger
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:      p.Gin,
		cfg:         p.Cfg,
		paymentSvc:  p.PaymentSvc,
		walletSvc:   p.WalletSvc,
		checkoutSvc: p.CheckoutSvc,
		log:         p.Log.Named("server"),
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")

	// -------- Payment Webhooks --------
	api.POST("/payment-webhook", s.HandlePaymentWebhook)

	// -------- Checkout --------
	api.POST("/checkout/initiate", s.InitiateCheckout)
	api.POST("/checkout/callback/verify", s.VerifyCheckoutCallback)

	// -------- Partner Wallet --------
	api.GET("/partners/:id/wallet", s.GetPartnerWallet)
	api.GET("/partners/:id/wallet/transactions", s.ListPartnerWalletTransactions)
}
