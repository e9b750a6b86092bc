package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"imagestore/internal/api"
	"imagestore/internal/config"
	"imagestore/internal/database"
	"imagestore/internal/storage"
	"imagestore/internal/websocket"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Runs the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd, true)
		if err != nil {
			return err
		}

		autoMigrate, err := cmd.Flags().GetBool("migrate")
		if err != nil {
			return fmt.Errorf("failed to get migrate flag: %w", err)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return runServer(ctx, cfg, autoMigrate, slog.Default())
	},
}

func init() {
	serveCmd.Flags().Bool("migrate", true, "apply pending database migrations before serving")
}

func openStore(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, cfg.DB.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return pool, nil
}

func newBlobStore(ctx context.Context, cfg *config.Config) (storage.BlobStore, error) {
	switch cfg.Storage.Driver {
	case config.StorageDriverS3:
		s3 := cfg.Storage.S3
		return storage.NewS3Storage(ctx, storage.S3Options{
			Bucket:       s3.Bucket,
			Prefix:       s3.Prefix,
			Region:       s3.Region,
			Endpoint:     s3.Endpoint,
			AccessKey:    s3.AccessKey,
			SecretKey:    s3.SecretKey,
			UsePathStyle: s3.UsePathStyle,
		})
	case config.StorageDriverLocal:
		return storage.NewLocalStorage(cfg.Storage.Path)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

func runServer(ctx context.Context, cfg *config.Config, autoMigrate bool, logger *slog.Logger) error {
	pool, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()
	logger.Info("connected to database")

	if autoMigrate {
		applied, err := database.Migrate(ctx, pool)
		if err != nil {
			return err
		}
		logger.Info("database schema up to date", slog.Any("applied", applied))
	}

	blobs, err := newBlobStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize blob storage: %w", err)
	}
	logger.Info("blob storage ready", slog.String("driver", cfg.Storage.Driver), slog.String("path", cfg.Storage.Path))

	wsHub := websocket.NewHub(logger)
	server := api.NewServer(cfg, database.NewStore(pool), blobs, wsHub, logger)

	httpServer := &http.Server{
		Addr:         cfg.AppHost,
		Handler:      server.Routes(),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		wsHub.Run(gctx)
		return nil
	})

	g.Go(func() error {
		logger.Info("starting server", slog.String("addr", cfg.AppHost))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
