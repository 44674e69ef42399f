package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/JonMunkholm/sheetprep/internal/config"
	"github.com/JonMunkholm/sheetprep/internal/core"
	"github.com/JonMunkholm/sheetprep/internal/insight"
	"github.com/JonMunkholm/sheetprep/internal/logging"
	"github.com/JonMunkholm/sheetprep/internal/metrics"
	"github.com/JonMunkholm/sheetprep/internal/store"
	"github.com/JonMunkholm/sheetprep/internal/web"
)

func main() {
	// Overload lets a local .env win over the shell environment.
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("configuration loaded", "config", cfg.String())

	ctx := context.Background()

	files, err := store.NewFiles(cfg.Storage.OutputDir)
	if err != nil {
		slog.Error("failed to prepare output directory", "dir", cfg.Storage.OutputDir, "error", err)
		os.Exit(1)
	}
	slog.Info("storing cleaned workbooks", "dir", files.Dir(), "retention", cfg.Storage.Retention)

	var runs store.Runs = store.NewMemoryRuns()
	if cfg.Database.Enabled() {
		pool, err := connectDB(ctx, cfg.Database)
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		pg := store.NewPGRuns(pool)
		if err := pg.EnsureSchema(ctx); err != nil {
			slog.Error("failed to prepare run history schema", "error", err)
			os.Exit(1)
		}
		runs = pg
	} else {
		slog.Info("DATABASE_URL not set, keeping run history in memory")
	}

	var gen insight.Generator = insight.Disabled{}
	if cfg.Insight.Enabled() {
		g, err := insight.NewGemini(ctx, insight.GeminiConfig{
			APIKey:  cfg.Insight.APIKey,
			Model:   cfg.Insight.Model,
			Timeout: cfg.Insight.Timeout,
		})
		if err != nil {
			slog.Error("failed to create Gemini client", "error", err)
			os.Exit(1)
		}
		gen = g
		slog.Info("AI insights enabled", "model", g.Model())
	} else {
		slog.Info("GEMINI_API_KEY not set, AI insights disabled")
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	service, err := core.NewService(core.Options{
		Files:            files,
		Runs:             runs,
		Generator:        gen,
		Metrics:          m,
		MaxConcurrent:    cfg.Upload.MaxConcurrent,
		MaxWait:          cfg.Upload.MaxWaitTime,
		RunTimeout:       cfg.Upload.Timeout,
		MaxFileSize:      cfg.Upload.MaxFileSize,
		CacheTTL:         cfg.Storage.CacheTTL,
		MaxChartInsights: cfg.Insight.MaxChartInsights,
		ChatPreviewRows:  cfg.Insight.ChatPreviewRows,
	})
	if err != nil {
		slog.Error("failed to create service", "error", err)
		os.Exit(1)
	}
	defer service.Close()

	server := web.NewServer(service, cfg, m)

	jobCtx, cancelJobs := context.WithCancel(context.Background())
	go service.StartRetentionSweeper(jobCtx, core.RetentionConfig{
		Retention: cfg.Storage.Retention,
		Interval:  cfg.Storage.SweepInterval,
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")
		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if active := service.Limiter().Active(); active > 0 {
			slog.Info("waiting for runs to complete", "active", active)
			if err := service.Limiter().WaitForRuns(shutdownCtx); err != nil {
				slog.Warn("runs did not complete in time", "error", err)
			} else {
				slog.Info("all runs completed")
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server failed", "error", err)
		cancelJobs()
		return
	}
	<-done
	slog.Info("server stopped")
}

// connectDB opens and pings the run history pool.
func connectDB(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, err
	}
	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	if u, err := url.Parse(cfg.URL); err == nil {
		slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	} else {
		slog.Info("connected to database")
	}
	return pool, nil
}
