package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"negarai/internal/alert"
	"negarai/internal/billing"
	"negarai/internal/bootstrap"
	"negarai/internal/config"
	cronpkg "negarai/internal/cron"
	"negarai/internal/middleware"
	"negarai/internal/payment"
	"negarai/internal/pkg/telegram"
	"negarai/internal/provider"
	"negarai/internal/repository"
	"negarai/internal/router"
)

func main() {
	// --- Logger ---
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// --- Config ---
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	// --- Database ---
	db, err := config.NewDatabase(&cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	if err := bootstrap.MigrateAndSeed(db); err != nil {
		logger.Fatal("Failed to bootstrap database schema", zap.Error(err))
	}

	// --- Repositories ---
	accountRepo := repository.NewAccountRepository(db)
	usageRepo := repository.NewUsageRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	taskRepo := repository.NewTaskRepository(db)

	// --- Admin notifier ---
	var botAPI *telegram.BotAPI
	if cfg.Admin.BotToken != "" {
		botAPI = telegram.NewBotAPI(cfg.Admin.BotToken)
	}
	notifier := alert.NewNotifier(botAPI, cfg.Admin.ChatID, logger)

	// --- Billing ---
	atomic := billing.NewAtomicDebitor(accountRepo, cfg.Billing.AtomicTimeout, logger)
	fallback := billing.NewFallbackSequencer(accountRepo, usageRepo, notifier, cfg.Billing.MaxAttempts, logger)
	consumer := billing.NewConsumer(atomic, fallback, logger)

	// --- Providers ---
	ctx := context.Background()
	providers, err := provider.NewRegistry(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize providers", zap.Error(err))
	}
	poller := provider.NewPoller(taskRepo, 30*time.Second, logger)

	// --- Payment gateway ---
	gateway := payment.NewZarinPalGateway(cfg.Payment.ZarinPal.Merchant, cfg.Payment.ZarinPal.Sandbox)

	// --- Callback deduper (Redis with in-memory fallback) ---
	callbackDeduper, dedupeErr := middleware.NewCallbackDeduper(
		cfg.Redis.Addr,
		cfg.Redis.Pass,
		cfg.Redis.DB,
		time.Hour,
	)
	if dedupeErr != nil {
		logger.Warn("Redis unavailable for callback dedup, using in-memory fallback", zap.Error(dedupeErr))
	}

	// --- Echo ---
	e := echo.New()
	e.HideBanner = true

	// --- Routes ---
	router.Setup(e, cfg, db, consumer, providers, poller, gateway, callbackDeduper, notifier, logger)

	// --- Cron Scheduler ---
	cronRepos := &cronpkg.CronRepos{
		Usage:   usageRepo,
		Payment: paymentRepo,
		Task:    taskRepo,
	}
	scheduler := cronpkg.New(cfg, cronRepos, notifier, logger)
	scheduler.Start()

	// --- Start Server ---
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	go func() {
		logger.Info("Starting NegarAI server", zap.String("addr", addr))
		if err := e.Start(addr); err != nil {
			logger.Info("Server stopped", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down...")

	// Stop cron
	cronCtx := scheduler.Stop()
	<-cronCtx.Done()

	// Stop HTTP server
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
