package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tavares-club/internal/config"
	"tavares-club/internal/coupon"
	"tavares-club/internal/database"
	"tavares-club/internal/handler"
	"tavares-club/internal/repository"
	"tavares-club/internal/router"
	"tavares-club/internal/service"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Logger)
	logger.Info().
		Str("environment", cfg.App.Environment).
		Str("storage", cfg.App.Storage).
		Msg("starting tavares-club API server")

	// Create context for application lifecycle
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Select the coupon store once at startup. Config validation already
	// refused the memory stub in production; an unreachable database is a
	// startup failure, never a fallback to local storage.
	var couponRepo repository.CouponRepository
	if cfg.App.Storage == config.StoragePostgres {
		pool, err := database.NewPool(ctx, cfg.Database, logger)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer pool.Close()
		couponRepo = repository.NewCouponRepository(pool, logger)
	} else {
		logger.Warn().Msg("using in-memory coupon store (development only)")
		couponRepo = repository.NewMemoryCouponRepository(logger)
	}

	// Initialize code generator and lifecycle service
	generator := coupon.NewGenerator(cfg.Coupon.CodePrefix)
	couponService := service.NewCouponService(couponRepo, generator, cfg.Coupon.Validity(), logger)

	// Initialize HTTP handlers
	couponHandler := handler.NewCouponHandler(couponService, cfg.Coupon.QRBaseOrigin, logger)
	partnerHandler := handler.NewPartnerHandler(couponService, logger)

	// Initialize router
	mux := router.New(couponHandler, partnerHandler, cfg.Partner.Token, logger)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Channel to listen for errors from the server
	serverErrors := make(chan error, 1)

	// Start HTTP server in a goroutine
	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Msg("HTTP server started")
		serverErrors <- server.ListenAndServe()
	}()

	// Channel to listen for interrupt signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a signal or an error
	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info().
			Str("signal", sig.String()).
			Msg("shutdown signal received, starting graceful shutdown")

		// Create a context with timeout for shutdown
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		// Attempt graceful shutdown
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			// Force close
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		logger.Info().Msg("server shutdown completed")
	}

	return nil
}
