package core

// retention.go runs the background sweep that keeps the output directory
// and run history bounded. Each cycle:
//  1. deletes output workbooks older than the retention period
//  2. deletes run records older than the retention period
//
// Failures are logged and retried on the next tick; they never stop the
// service.

import (
	"context"
	"log/slog"
	"time"
)

// RetentionConfig controls the sweep. Zero values fall back to defaults.
type RetentionConfig struct {
	Retention time.Duration // Age after which outputs expire (default: 24h)
	Interval  time.Duration // Time between sweeps (default: 1h)
}

func (c RetentionConfig) withDefaults() RetentionConfig {
	if c.Retention <= 0 {
		c.Retention = 24 * time.Hour
	}
	if c.Interval <= 0 {
		c.Interval = time.Hour
	}
	return c
}

// StartRetentionSweeper sweeps immediately, then every Interval, until ctx
// is cancelled. Run it in its own goroutine.
func (s *Service) StartRetentionSweeper(ctx context.Context, cfg RetentionConfig) {
	cfg = cfg.withDefaults()
	slog.Info("retention sweeper started",
		"retention", cfg.Retention.String(),
		"interval", cfg.Interval.String(),
	)

	s.Sweep(ctx, cfg.Retention)

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("retention sweeper stopped")
			return
		case <-ticker.C:
			s.Sweep(ctx, cfg.Retention)
		}
	}
}

// SweepResult counts what one sweep removed.
type SweepResult struct {
	Files int
	Runs  int64
}

// Sweep performs one retention cycle.
func (s *Service) Sweep(ctx context.Context, retention time.Duration) SweepResult {
	start := time.Now()
	cutoff := s.now().Add(-retention)
	var res SweepResult

	files, err := s.files.Sweep(cutoff)
	if err != nil {
		slog.Error("output sweep failed", "error", err)
	}
	res.Files = files

	runs, err := s.runs.DeleteBefore(ctx, cutoff)
	if err != nil {
		slog.Error("run history sweep failed", "error", err)
	}
	res.Runs = runs

	slog.Info("retention sweep completed",
		"files_removed", res.Files,
		"runs_removed", res.Runs,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return res
}
