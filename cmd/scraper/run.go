package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/user/connections-scraper/internal/adapter/chromedp_browser"
	"github.com/user/connections-scraper/internal/adapter/postgres"
	redis_adapter "github.com/user/connections-scraper/internal/adapter/redis"
	"github.com/user/connections-scraper/internal/adapter/rod_browser"
	"github.com/user/connections-scraper/internal/adapter/sqlite"
	"github.com/user/connections-scraper/internal/delivery/http/handler"
	"github.com/user/connections-scraper/internal/delivery/http/router"
	"github.com/user/connections-scraper/internal/extractor"
	"github.com/user/connections-scraper/internal/repository"
	"github.com/user/connections-scraper/internal/usecase"
	"github.com/user/connections-scraper/pkg/config"
	"github.com/user/connections-scraper/pkg/logger"
	"github.com/user/connections-scraper/pkg/metrics"
)

func run(ctx context.Context) error {
	// --- Configuration ---
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// --- Logger ---
	logLevel := logger.ParseLevel(cfg.LogLevel)
	logger.Init(os.Stdout, logLevel)
	slog.Info("Logger initialized", "level", logLevel.String())

	// --- Metrics ---
	metrics.Init()
	if cfg.MetricsFile != "" {
		defer func() {
			if err := metrics.WriteTextfile(cfg.MetricsFile); err != nil {
				slog.Warn("Failed to write metrics textfile", "path", cfg.MetricsFile, "error", err)
			}
		}()
	}

	progress := usecase.NewProgress()

	// --- Status server ---
	if cfg.StatusAddr != "" {
		stopStatus := startStatusServer(cfg.StatusAddr, progress)
		defer stopStatus()
	}

	// --- Store ---
	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			slog.Warn("Failed to close store", "error", err)
		}
	}()

	// --- Snapshot archive ---
	var snapshots repository.SnapshotRepository
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()
		if _, err := rdb.Ping(ctx).Result(); err != nil {
			return fmt.Errorf("connect to redis: %w", err)
		}
		slog.Info("Redis connection established", "addr", cfg.RedisAddr)
		snapshots = redis_adapter.NewSnapshotRepo(rdb)
	}

	// --- Use cases ---
	ext, err := extractor.New(cfg.BaseURL)
	if err != nil {
		return err
	}
	sync := usecase.NewSynchronizer(newLauncher(cfg), usecase.SyncConfig{
		BaseURL:             cfg.BaseURL,
		Wait:                cfg.Wait(),
		ScrollMaxIterations: cfg.ScrollMaxIterations,
	}, progress)
	scraper := usecase.NewScraper(sync, ext, usecase.NewConnectionWriter(store, progress), snapshots,
		usecase.ScrapeConfig{LogPath: cfg.LogPath, SnapshotTTL: cfg.SnapshotTTL()}, progress)

	_, err = scraper.Run(ctx, usecase.Credentials{Username: cfg.Username, Password: cfg.Password})
	return err
}

// openStore removes the previous run's outputs and opens an empty store.
func openStore(ctx context.Context, cfg *config.Config) (repository.ConnectionStore, error) {
	switch cfg.StoreDriver {
	case "postgres":
		if err := usecase.RemoveStale(cfg.LogPath); err != nil {
			return nil, err
		}
		store, err := postgres.Open(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, err
		}
		if err := store.DropTable(ctx, usecase.ConnectionsTable); err != nil {
			store.Close()
			return nil, err
		}
		slog.Info("PostgreSQL connection pool established")
		return store, nil
	default:
		stale := []string{cfg.LogPath}
		if cfg.DBPath != sqlite.MemoryPath {
			stale = append(stale, cfg.DBPath)
		}
		if err := usecase.RemoveStale(stale...); err != nil {
			return nil, err
		}
		store, err := sqlite.NewStore(cfg.DBPath)
		if err != nil {
			return nil, err
		}
		slog.Info("SQLite database opened", "path", cfg.DBPath)
		return store, nil
	}
}

func newLauncher(cfg *config.Config) repository.BrowserLauncher {
	if cfg.BrowserDriver == "rod" {
		return rod_browser.NewLauncher(rod_browser.Options{Headless: cfg.Headless, ExecPath: cfg.ChromePath})
	}
	return chromedp_browser.NewLauncher(chromedp_browser.Options{Headless: cfg.Headless, ExecPath: cfg.ChromePath})
}

// startStatusServer serves progress in the background and returns a func that stops it.
func startStatusServer(addr string, progress *usecase.Progress) func() {
	server := &http.Server{
		Addr:         addr,
		Handler:      router.New(handler.NewHandler(progress)),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("Starting status server", "addr", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Status server stopped", "addr", addr, "error", err)
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			slog.Warn("Status server forced to shutdown", "error", err)
		}
	}
}
