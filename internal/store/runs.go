package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/JonMunkholm/sheetprep/internal/quality"
)

// Run kinds and statuses.
const (
	KindPreprocess = "preprocess"
	KindAnalyze    = "analyze"

	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// Run is the stored record of one cleaning invocation.
type Run struct {
	ID            string        `json:"id"`
	Kind          string        `json:"kind"`
	SourceFile    string        `json:"source_file"`
	OutputFile    string        `json:"output_file,omitempty"`
	Status        string        `json:"status"`
	Error         string        `json:"error,omitempty"`
	Stats         quality.Stats `json:"stats"`
	Score         float64       `json:"data_quality_score"`
	ProcessedRows int           `json:"processed_rows"`
	ProcessedCols int           `json:"processed_columns"`
	DurationMS    int64         `json:"duration_ms"`
	CreatedAt     time.Time     `json:"created_at"`
}

// Runs is the run history.
type Runs interface {
	Insert(ctx context.Context, run Run) error
	Get(ctx context.Context, id string) (Run, error)
	List(ctx context.Context, limit int) ([]Run, error)
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// MemoryRuns keeps runs in process memory. Used when no database is configured.
type MemoryRuns struct {
	mu   sync.RWMutex
	runs map[string]Run
}

// NewMemoryRuns creates an empty in-memory run history.
func NewMemoryRuns() *MemoryRuns {
	return &MemoryRuns{runs: make(map[string]Run)}
}

// Insert stores run, failing if the ID is already present.
func (m *MemoryRuns) Insert(_ context.Context, run Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.runs[run.ID]; exists {
		return fmt.Errorf("run %s: %w", run.ID, ErrExists)
	}
	m.runs[run.ID] = run
	return nil
}

// Get returns the run with the given ID.
func (m *MemoryRuns) Get(_ context.Context, id string) (Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	run, ok := m.runs[id]
	if !ok {
		return Run{}, fmt.Errorf("run %s: %w", id, ErrNotFound)
	}
	return run, nil
}

// List returns up to limit runs, newest first.
func (m *MemoryRuns) List(_ context.Context, limit int) ([]Run, error) {
	m.mu.RLock()
	result := make([]Run, 0, len(m.runs))
	for _, run := range m.runs {
		result = append(result, run)
	}
	m.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// DeleteBefore removes runs created before cutoff.
func (m *MemoryRuns) DeleteBefore(_ context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for id, run := range m.runs {
		if run.CreatedAt.Before(cutoff) {
			delete(m.runs, id)
			n++
		}
	}
	return n, nil
}
