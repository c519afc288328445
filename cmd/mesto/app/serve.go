package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/panyam/mesto"
	"github.com/panyam/mesto/config"
	fsstore "github.com/panyam/mesto/stores/fs"
	gaestore "github.com/panyam/mesto/stores/gae"
	gormstore "github.com/panyam/mesto/stores/gorm"
	mongostore "github.com/panyam/mesto/stores/mongo"
)

const (
	defaultGracefulTimeout = 30 * time.Second
	serverReadTimeout      = 10 * time.Second
	serverWriteTimeout     = 15 * time.Second
	serverIdleTimeout      = 60 * time.Second
)

func newServeCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the Mesto API server",
		Long: `Starts the Mesto API server. Settings come from defaults, the optional
--config file, MESTO_* environment variables and the flags below, in
increasing order of precedence.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, _ := cmd.Flags().GetString("config")
			cfg, err := config.Load(v, path)
			if err != nil {
				return err
			}
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			return runServe(ctx, cfg)
		},
	}

	cmd.Flags().String("address", ":3000", "Address to listen on")
	cmd.Flags().Bool("production", false, "Run with production settings")
	cmd.Flags().String("store", config.StoreMongo, "Storage backend: mongo, datastore, postgres or fs")
	cmd.Flags().String("log-level", "info", "Log level")
	cmd.Flags().String("mongo-uri", "mongodb://localhost:27017", "MongoDB connection string")
	cmd.Flags().String("fs-path", "./data", "Data directory for the fs store")

	err := bindFlags(v, cmd, map[string]string{
		"address":    "address",
		"production": "production",
		"store":      "store",
		"log-level":  "log_level",
		"mongo-uri":  "mongo.uri",
		"fs-path":    "fs.path",
	})
	if err != nil {
		panic(fmt.Sprintf("binding serve flags: %v", err))
	}
	return cmd
}

// newTokenService signs with the configured key. The lifetime is always
// mesto.TokenTTL and cannot be configured.
func newTokenService(cfg *config.Config) (*mesto.TokenService, error) {
	return mesto.NewTokenService(cfg.JWTSecret, mesto.TokenTTL)
}

func runServe(ctx context.Context, cfg *config.Config) error {
	logger, err := cfg.NewLogger()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	if cfg.GeneratedSecret {
		logger.Warn("jwt_secret is not set; using a random key, tokens will not survive a restart")
	}

	users, cards, closeStore, err := openStores(ctx, logger, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	tokens, err := newTokenService(cfg)
	if err != nil {
		return err
	}
	srv := mesto.NewServer(mesto.ServerConfig{
		Users:      users,
		Cards:      cards,
		Hasher:     mesto.NewBcryptHasher(cfg.BcryptCost),
		Tokens:     tokens,
		Logger:     logger,
		Production: cfg.Production,
	})

	server := &http.Server{
		Addr:         cfg.Address,
		Handler:      srv.Handler(),
		ReadTimeout:  serverReadTimeout,
		WriteTimeout: serverWriteTimeout,
		IdleTimeout:  serverIdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("address", cfg.Address), zap.String("store", cfg.Store))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server stopped: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultGracefulTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
		return err
	}
	logger.Info("server shutdown complete")
	return nil
}

// openStores connects the configured backend and returns its stores with a
// function releasing the connection.
func openStores(ctx context.Context, logger *zap.Logger, cfg *config.Config) (mesto.UserStore, mesto.CardStore, func(), error) {
	switch cfg.Store {
	case config.StoreMongo:
		client, err := mongostore.Connect(ctx, logger, cfg.Mongo.URI, cfg.ConnectTimeout)
		if err != nil {
			return nil, nil, nil, err
		}
		db := client.Database(cfg.Mongo.Database)
		if err := mongostore.EnsureIndexes(ctx, db); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, nil, nil, err
		}
		closeFn := func() {
			if err := client.Disconnect(context.Background()); err != nil {
				logger.Warn("mongo disconnect failed", zap.Error(err))
			}
		}
		return mongostore.NewUserStore(db), mongostore.NewCardStore(db), closeFn, nil

	case config.StoreDatastore:
		client, err := gaestore.Open(ctx, logger, cfg.Datastore.Project, cfg.ConnectTimeout)
		if err != nil {
			return nil, nil, nil, err
		}
		closeFn := func() { _ = client.Close() }
		ns := cfg.Datastore.Namespace
		return gaestore.NewUserStore(client, ns), gaestore.NewCardStore(client, ns), closeFn, nil

	case config.StorePostgres:
		db, err := gormstore.Open(ctx, logger, cfg.Postgres.DSN, cfg.ConnectTimeout)
		if err != nil {
			return nil, nil, nil, err
		}
		if err := gormstore.AutoMigrate(db); err != nil {
			return nil, nil, nil, err
		}
		closeFn := func() {
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
		}
		return gormstore.NewUserStore(db), gormstore.NewCardStore(db), closeFn, nil

	case config.StoreFS:
		return fsstore.NewUserStore(cfg.FS.Path), fsstore.NewCardStore(cfg.FS.Path), func() {}, nil
	}
	return nil, nil, nil, fmt.Errorf("unknown store %q", cfg.Store)
}
