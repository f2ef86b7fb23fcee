package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ariefcatur/go-chipstore/internal/auth"
	"github.com/ariefcatur/go-chipstore/internal/catalog"
	"github.com/ariefcatur/go-chipstore/internal/config"
	"github.com/ariefcatur/go-chipstore/internal/httpx"
	"github.com/ariefcatur/go-chipstore/internal/logx"
	"github.com/ariefcatur/go-chipstore/internal/notify"
	"github.com/ariefcatur/go-chipstore/internal/orders"
	"github.com/ariefcatur/go-chipstore/internal/postgres"
	"github.com/ariefcatur/go-chipstore/internal/redisx"
	"github.com/ariefcatur/go-chipstore/internal/reviews"
	"github.com/ariefcatur/go-chipstore/internal/telemetry"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, err := logx.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Tracing (opsional)
	if cfg.OTLPEndpoint != "" {
		tp, err := telemetry.InitTracer(ctx, cfg.ServiceName, cfg.Env, cfg.OTLPEndpoint)
		if err != nil {
			logger.Fatal("init tracer", zap.Error(err))
		}
		defer func() {
			sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer scancel()
			_ = tp.Shutdown(sctx)
		}()
	}
	metrics := telemetry.NewMetrics()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()
	if err := postgres.Migrate(cfg.PostgresDSN); err != nil {
		logger.Fatal("db migrate", zap.Error(err))
	}

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Mail
	var mailer notify.Mailer = &notify.LogMailer{Logger: logger}
	if cfg.Mail.Enabled() {
		smtp := notify.NewSMTPMailer(notify.SMTPConfig{
			Host:     cfg.Mail.Host,
			Port:     cfg.Mail.Port,
			User:     cfg.Mail.User,
			Password: cfg.Mail.Password,
		})
		mailer = notify.NewBreakerMailer(smtp, cfg.Mail.BreakerFailures, cfg.Mail.BreakerCooldown, logger)
	} else {
		logger.Warn("SMTP_HOST not set, emails are only logged")
	}
	dispatcher := notify.NewDispatcher(notify.PDFInvoice{StoreName: cfg.Mail.StoreName}, mailer,
		cfg.Mail.From, cfg.Mail.StoreName, cfg.Mail.Timeout, logger)

	// Services
	tx := &postgres.Transactor{DB: db}
	products := catalog.NewCachedStore(&catalog.Repo{DB: db}, rdb, logger)
	catalogSvc := catalog.NewService(products, logger)
	reviewSvc := reviews.NewService(&reviews.Repo{DB: db}, products, tx, logger, metrics)

	orderSvc := orders.NewService(&orders.Repo{DB: db}, dispatcher, logger, metrics, orders.Options{
		CancelWindow:    cfg.Orders.CancelWindow,
		DispatchTimeout: cfg.Orders.DispatchTimeout,
		QueueSize:       cfg.Orders.QueueSize,
	})
	orderSvc.Start(ctx)

	users := &auth.Repo{DB: db}
	if cfg.Auth.AdminEmail != "" && cfg.Auth.AdminPassword != "" {
		if _, err := auth.SeedAdmin(ctx, users, cfg.Auth.AdminEmail, cfg.Auth.AdminPassword); err != nil {
			logger.Fatal("seed admin", zap.Error(err))
		}
	}
	tokens := auth.NewTokenIssuer(cfg.Auth.JWTSecret)
	accountSvc := auth.NewService(users, tokens, dispatcher, catalogSvc, logger, auth.Options{
		TokenTTL:      cfg.Auth.TokenTTL,
		AdminTokenTTL: cfg.Auth.AdminTokenTTL,
		OTPTTL:        cfg.Auth.OTPTTL,
		ResetTokenTTL: cfg.Auth.ResetTokenTTL,
	})

	router := httpx.NewRouter(httpx.Deps{
		Logger:      logger,
		Catalog:     catalogSvc,
		Orders:      orderSvc,
		Reviews:     reviewSvc,
		Accounts:    accountSvc,
		Idempotency: &redisx.Idempotency{Redis: rdb},
		Users:       auth.Bearer{Tokens: tokens},
		Admins:      auth.AdminChain(cfg.Auth.AdminKey, tokens),
		ServiceName: cfg.ServiceName,
	})

	// HTTP server
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router, ReadHeaderTimeout: 10 * time.Second}
	metricsSrv := &http.Server{Addr: cfg.MetricsAddr, Handler: metrics.Handler(), ReadHeaderTimeout: 5 * time.Second}

	go func() {
		logger.Info("HTTP listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen", zap.Error(err))
		}
	}()
	go func() {
		logger.Info("metrics listening", zap.String("addr", cfg.MetricsAddr))
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics listen", zap.Error(err))
		}
	}()

	// wait signal
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Info("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	_ = metricsSrv.Shutdown(ctx2)
	orderSvc.Close()      // tutup inbox -> kirim sisa konfirmasi
	orderSvc.WaitClosed() // drain
	cancel()
}
