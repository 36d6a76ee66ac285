// Command server starts the EcoReceipt HTTP API.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/ecoreceipt/ecoreceipt/internal/assistant"
	"github.com/ecoreceipt/ecoreceipt/internal/config"
	"github.com/ecoreceipt/ecoreceipt/internal/limiter"
	"github.com/ecoreceipt/ecoreceipt/internal/migrate"
	"github.com/ecoreceipt/ecoreceipt/internal/repository/postgres"
	"github.com/ecoreceipt/ecoreceipt/internal/server/httpapi"
	"github.com/ecoreceipt/ecoreceipt/internal/service"
	"github.com/ecoreceipt/ecoreceipt/internal/token"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

// main loads configuration, runs migrations, and serves the HTTP API until
// interrupted.
func main() {
	_ = godotenv.Load()

	cfg := config.Load()

	logger, _ := zap.NewProduction()
	defer func() { _ = logger.Sync() }()
	logger.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
		zap.String("addr", cfg.Addr),
	)

	if err := cfg.Validate(); err != nil {
		logger.Fatal("config", zap.Error(err))
	}

	// Context with OS signals
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := migrate.Up(ctx, cfg.DatabaseURL); err != nil {
		logger.Fatal("migrate up", zap.Error(err))
	}

	db, err := postgres.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("postgres.New", zap.Error(err))
	}
	defer db.Close()

	// Repositories
	userRepo := postgres.NewUserRepo(db)
	receiptRepo := postgres.NewReceiptRepo(db)

	lim := limiter.NewPGWithQuerier(db.Pool, cfg.LoginWindow, cfg.LoginMaxFails, cfg.LoginBlockFor)

	// Services
	tokens := token.NewService([]byte(cfg.JWTSecret), cfg.AccessTokenTTL)
	authSvc := service.NewAuthService(userRepo, tokens, lim)
	receiptSvc := service.NewReceiptService(receiptRepo)

	if cfg.AIAPIKey == "" {
		logger.Warn("AI_API_KEY not set; /api/ai/chat serves fallback responses only")
	}
	bridge := assistant.NewBridge(
		assistant.NewClient(cfg.AIBaseURL, cfg.AIAPIKey, cfg.AIModel, cfg.AITimeout),
		logger,
	)

	api := httpapi.New(authSvc, receiptSvc, userRepo, tokens, bridge, logger)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown", zap.Error(err))
		}
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}

	logger.Info("shutdown complete")
}
