package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"whatsable-relay/internal/config"
	"whatsable-relay/internal/db"
	"whatsable-relay/internal/handlers"
	"whatsable-relay/internal/monday"
	"whatsable-relay/internal/services"
	"whatsable-relay/internal/whatsable"
	"whatsable-relay/pkg/logger"
	"whatsable-relay/router"

	"go.uber.org/zap"
)

// SetupServer wires the store, provider clients and handlers into a configured HTTP server.
// The database is closed when the server shuts down.
func SetupServer(cfg *config.Config) (*http.Server, error) {
	if cfg == nil {
		return nil, errors.New("configuration is required")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	// Initialize database
	database, err := db.NewDatabase(cfg.Database.Dialect, cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// Initialize repositories
	settingsRepo := db.NewSettingsRepository(database)
	mappingRepo := db.NewPhoneMappingRepository(database)
	logRepo := db.NewMessageLogRepository(database)

	// Provider clients
	mondayClient := monday.NewClient(cfg.Monday.APIURL, cfg.Monday.OAuthURL)
	whatsableClient := whatsable.NewClient(cfg.WhatsAble.APIURL)

	// Initialize services
	relayService := services.NewRelayService(
		settingsRepo, mappingRepo, logRepo,
		mondayClient, whatsableClient,
		cfg.WhatsAble.APIKey, cfg.Security.EncryptionKey,
	)
	webhookService := services.NewWebhookService(mappingRepo, logRepo, mondayClient)
	settingsService := services.NewSettingsService(settingsRepo, whatsableClient, cfg.WhatsAble.APIKey, cfg.Security.EncryptionKey)

	r := router.NewRouter(cfg, router.Handlers{
		Auth:        handlers.NewAuthHandler(cfg, mondayClient, settingsRepo),
		Integration: handlers.NewIntegrationHandler(relayService),
		Webhook:     handlers.NewWebhookHandler(webhookService),
		Settings:    handlers.NewSettingsHandler(settingsService),
	}, database)

	logger.Info("Server configured",
		zap.String("dialect", database.Dialect()),
		zap.Bool("fallback_api_key", cfg.WhatsAble.APIKey != ""),
		zap.Bool("encryption_enabled", cfg.Security.EncryptionKey != ""),
		zap.Bool("force_https", cfg.Security.ForceHTTPS),
	)

	// Create server with security timeouts
	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	srv.RegisterOnShutdown(func() {
		if err := database.Close(); err != nil {
			logger.Warn("Failed to close database", zap.Error(err))
		}
	})

	return srv, nil
}

// StartServer starts the HTTP server and shuts it down gracefully on SIGINT or SIGTERM
func StartServer(srv *http.Server) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return StartServerWithContext(ctx, srv)
}

// StartServerWithContext starts the HTTP server with a context for shutdown control
func StartServerWithContext(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down server...")

	// Create a timeout context for shutdown
	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	return nil
}
