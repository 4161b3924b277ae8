// File: cmd/app/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"marketplace-promotions/internal/config"
	pg "marketplace-promotions/internal/infra/db/postgres"
	"marketplace-promotions/internal/infra/logging"
	"marketplace-promotions/internal/infra/metrics"
	"marketplace-promotions/internal/infra/payment"
	red "marketplace-promotions/internal/infra/redis"
	"marketplace-promotions/internal/infra/sched"
	"marketplace-promotions/internal/infra/web"
	"marketplace-promotions/internal/usecase"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, relaxed cookies)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Info().Msg("dev mode enabled")
	}

	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 10)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres connect failed")
	}
	defer pool.Close()
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				st := pool.Stat()
				metrics.SetDBPoolStats(st.TotalConns(), st.IdleConns(), st.AcquiredConns())
			}
		}
	}()

	// ---- Redis (optional; admin rate limiting only) ----
	var limiter *red.RateLimiter
	if cfg.Redis.URL != "" {
		redisClient, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis connect failed")
		}
		defer redisClient.Close()
		limiter = red.NewRateLimiter(redisClient)
	} else {
		logger.Warn().Msg("redis.url not set, admin rate limiting disabled")
	}

	// ---- Repositories ----
	txManager := pg.NewTxManager(pool)
	promoRepo := pg.NewPromotionRepo(pool)
	saleRepo := pg.NewSaleRepo(pool)
	eventRepo := pg.NewWebhookEventRepo(pool)

	// ---- Use cases ----
	webhookUC := usecase.NewWebhookUseCase(eventRepo, promoRepo, logger)
	adminUC := usecase.NewPromotionAdminUseCase(saleRepo, promoRepo, txManager, cfg.Admin.ToolsEnabled, logger)

	// ---- HTTP ----
	verifier := payment.NewVerifier(cfg.Payment.Webhook.Secret, cfg.Payment.Webhook.Tolerance)
	auth := web.NewAuthManager(
		cfg.Admin.SessionSecret,
		cfg.Admin.OperatorKey,
		cfg.Admin.SecureCookie && !cfg.Runtime.Dev,
		cfg.Admin.CookieDomain,
		cfg.Admin.SessionTTL,
	)
	srv := web.NewServer(webhookUC, adminUC, verifier, auth, limiter, cfg.Admin, logger)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      srv.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server error")
		}
	}()

	// ---- Expiry worker ----
	worker := sched.NewExpiryWorker(adminUC, cfg.Scheduler.ExpiryInterval, logger)
	go worker.Run(ctx)

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown error")
	}
}
