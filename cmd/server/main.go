package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"estate_marketplace_backend/internal/app"
	"estate_marketplace_backend/internal/config"
	"estate_marketplace_backend/internal/gateway"
	"estate_marketplace_backend/internal/platform/database"
	platformes "estate_marketplace_backend/internal/platform/elasticsearch"
	"estate_marketplace_backend/internal/property"
	"estate_marketplace_backend/internal/search"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE:  func(cmd *cobra.Command, args []string) error { return runServer() },
	}

	root := &cobra.Command{
		Use:          "estate-marketplace",
		Short:        "Real estate marketplace backend",
		SilenceUsage: true,
		RunE:         serve.RunE,
	}
	root.AddCommand(serve, newMigrateCommand(), newReindexCommand())
	return root
}

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			logger, cleanupLogger, err := provideLogger(cfg)
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			defer cleanupLogger()

			db, err := database.NewGORM(cfg, logger)
			if err != nil {
				return err
			}
			defer database.CloseGORMDB(db, logger)

			if err := database.AutoMigrate(db, logger, app.Models()...); err != nil {
				logger.Error("Migration failed", zap.Error(err))
				return err
			}
			logger.Info("Migration completed successfully.")
			return nil
		},
	}
}

func newReindexCommand() *cobra.Command {
	var (
		batchSize int
		esRefresh string
	)
	cmd := &cobra.Command{
		Use:   "reindex-properties",
		Short: "Bulk-load every stored property into Elasticsearch",
		RunE: func(cmd *cobra.Command, args []string) error {
			if batchSize <= 0 {
				return errors.New("batch-size must be positive")
			}
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			logger, cleanupLogger, err := provideLogger(cfg)
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			defer cleanupLogger()

			db, cleanupDB, err := provideDatabase(cfg, logger)
			if err != nil {
				return err
			}
			defer cleanupDB()

			es, err := platformes.NewClient(cfg, logger)
			if err != nil {
				return err
			}
			if es == nil {
				return errors.New("ELASTICSEARCH_URL must be set to reindex properties")
			}
			ctx := cmd.Context()
			if err := platformes.CreatePropertiesIndexIfNotExists(ctx, es, logger); err != nil {
				logger.Error("Failed to create/verify Elasticsearch index before reindex", zap.Error(err))
				return err
			}

			// Reindexing publishes nothing, so a local broker is enough.
			broker := gateway.NewMemoryBroker(cfg.RealtimeBufferSize, logger)
			repo := property.NewGORMRepository(db, broker, logger)

			synced, err := search.NewPropertyIndexer(es, repo, logger).WithRefresh(esRefresh).Reindex(ctx, batchSize)
			logger.Info("Property reindex finished", zap.Int("synced", synced))
			return err
		},
	}
	cmd.Flags().IntVar(&batchSize, "batch-size", 100, "Batch size for syncing properties")
	cmd.Flags().StringVar(&esRefresh, "es-refresh", "false", "Elasticsearch refresh policy (true, false, wait_for)")
	return cmd
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		log.Printf("FATAL: Failed to load configuration: %v", err)
		return err
	}

	server, cleanup, err := initializeServer(cfg)
	if err != nil {
		log.Printf("FATAL: Failed to initialize server: %v", err)
		return err
	}
	defer cleanup()

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		log.Printf("INFO: Received signal '%s'. Shutting down server...", sig)
	case err := <-serverErr:
		if err != nil {
			log.Printf("ERROR: Server failed to start or crashed: %v", err)
			return err
		}
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.ServerTimeout)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("ERROR: Server forced to shutdown due to error: %v", err)
		return err
	}
	log.Println("INFO: Server shutdown complete.")
	return nil
}
