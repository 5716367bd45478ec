package main

import (
	"context"
	"fmt"
	"os"

	"whatsable-relay/internal/config"
	"whatsable-relay/internal/db"
	"whatsable-relay/pkg/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "whatsable-relay",
	Short: "Monday.com to WhatsApp relay",
	Long:  "Sends WhatsApp messages from Monday.com automations and posts customer replies back to the originating item",
	RunE:  runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	RunE:  runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the database schema and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		database, err := db.NewDatabase(cfg.Database.Dialect, cfg.Database.DSN)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer database.Close()

		// NewDatabase migrates on open; the explicit call reports failures here
		if err := database.Migrate(context.Background()); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		logger.Info("Database schema is up to date", zap.String("dialect", database.Dialect()))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "absolute path to a JSON config file")
	rootCmd.AddCommand(serveCmd, migrateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := logger.Init(cfg.Logging.Path, cfg.Logging.Level); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	defer logger.Info("Server shutting down")

	srv, err := SetupServer(cfg)
	if err != nil {
		return fmt.Errorf("failed to setup server: %w", err)
	}

	return StartServer(srv)
}
