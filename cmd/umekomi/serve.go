package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kotoba-ml/umekomi/internal/config"
	"github.com/kotoba-ml/umekomi/internal/server"
	"github.com/kotoba-ml/umekomi/internal/store"
	"github.com/kotoba-ml/umekomi/pkg/utils"
)

var (
	serveHost string
	servePort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP embedding API",
	Long: `Start the HTTP server exposing the embedding API.

Endpoints:
  POST /api/v1/embed   Embed a batch of texts
  GET  /api/v1/models  List available models
  GET  /health         Health check

Examples:
  umekomi serve
  umekomi serve --port 9090
  umekomi serve --config config.yaml`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Host to bind to (overrides config)")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveHost != "" {
		cfg.Server.Host = serveHost
	}
	if servePort != 0 {
		cfg.Server.Port = servePort
	}

	logger, level, err := utils.NewLeveledLogger(cfg.Debug)
	if err != nil {
		return err
	}
	defer logger.Sync()

	var db *store.SQLiteCache
	if cfg.Cache.Enabled {
		db, err = store.NewSQLiteCache(cfg.Cache.Path)
		if err != nil {
			return err
		}
		logger.Info("embedding cache enabled", zap.String("path", cfg.Cache.Path))
	}
	cache := store.NewCache(cfg.Cache.MemorySize, db, logger)
	defer cache.Close()

	srv := server.NewServer(&cfg.Server, cache, embedderOptions(cfg, logger), logger)

	// Debug toggles in the config file take effect without a restart.
	if configPath != "" {
		stop, err := config.Watch(configPath, logger, func(fresh *config.Config) {
			level.SetLevel(utils.LevelFor(fresh.Debug))
		})
		if err != nil {
			logger.Warn("config watch unavailable", zap.Error(err))
		} else {
			defer stop()
		}
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	case <-done:
		logger.Info("Shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Stop(ctx)
	}
}
