package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/JonMunkholm/sheetprep/internal/cleaning"
	"github.com/JonMunkholm/sheetprep/internal/insight"
	"github.com/JonMunkholm/sheetprep/internal/logging"
	"github.com/JonMunkholm/sheetprep/internal/metrics"
	"github.com/JonMunkholm/sheetprep/internal/quality"
	"github.com/JonMunkholm/sheetprep/internal/sheet"
	"github.com/JonMunkholm/sheetprep/internal/store"
	"github.com/JonMunkholm/sheetprep/internal/table"
)

// Service defaults, used when Options leaves a field at zero.
const (
	DefaultRunTimeout       = 2 * time.Minute
	DefaultCacheTTL         = 30 * time.Minute
	DefaultMaxChartInsights = 2
	DefaultChatPreviewRows  = 10

	// recordTimeout bounds writing a run record after the run itself may
	// have hit its deadline.
	recordTimeout = 5 * time.Second
)

// Options wires a Service.
type Options struct {
	Files     *store.Files
	Runs      store.Runs
	Generator insight.Generator
	Metrics   *metrics.Metrics

	MaxConcurrent    int
	MaxWait          time.Duration
	RunTimeout       time.Duration
	MaxFileSize      int64
	CacheTTL         time.Duration
	MaxChartInsights int
	ChatPreviewRows  int
}

// Service cleans uploads, stores the results and answers questions about
// them. It is safe for concurrent use.
type Service struct {
	files   *store.Files
	runs    store.Runs
	gen     insight.Generator
	metrics *metrics.Metrics
	limiter *RunLimiter
	cache   *runCache
	opts    Options

	now   func() time.Time
	newID func() string
}

// NewService validates opts and starts the result cache. Call Close when done.
func NewService(opts Options) (*Service, error) {
	if opts.Files == nil {
		return nil, errors.New("core: Files is required")
	}
	if opts.Runs == nil {
		opts.Runs = store.NewMemoryRuns()
	}
	if opts.Generator == nil {
		opts.Generator = insight.Disabled{}
	}
	if opts.RunTimeout <= 0 {
		opts.RunTimeout = DefaultRunTimeout
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = DefaultCacheTTL
	}
	if opts.MaxChartInsights < 0 {
		opts.MaxChartInsights = DefaultMaxChartInsights
	}
	if opts.ChatPreviewRows <= 0 {
		opts.ChatPreviewRows = DefaultChatPreviewRows
	}

	return &Service{
		files:   opts.Files,
		runs:    opts.Runs,
		gen:     opts.Generator,
		metrics: opts.Metrics,
		limiter: NewRunLimiter(opts.MaxConcurrent, opts.MaxWait),
		cache:   newRunCache(opts.CacheTTL),
		opts:    opts,
		now:     time.Now,
		newID:   uuid.NewString,
	}, nil
}

// Close stops background work owned by the service.
func (s *Service) Close() {
	s.cache.stop()
}

// Limiter exposes the run limiter for status reporting and shutdown.
func (s *Service) Limiter() *RunLimiter {
	return s.limiter
}

// InsightsEnabled reports whether a real generator is configured.
func (s *Service) InsightsEnabled() bool {
	return insight.Enabled(s.gen)
}

// Preprocess cleans an upload, scores it and stores the cleaned workbook.
func (s *Service) Preprocess(ctx context.Context, up Upload) (*PreprocessResult, error) {
	var res *PreprocessResult
	err := s.execute(ctx, store.KindPreprocess, up, func(ctx context.Context, id string) (*PreprocessResult, error) {
		var err error
		res, err = s.clean(ctx, up)
		if err != nil {
			return nil, err
		}
		return res, s.save(ctx, id, up.FileName, res, sheet.XLSXOptions{Summary: SummaryRows(res)})
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// execute wraps one run: upload checks, a limiter slot, the timeout, the
// run record, metrics and logging.
func (s *Service) execute(ctx context.Context, kind string, up Upload,
	fn func(ctx context.Context, id string) (*PreprocessResult, error)) error {

	if err := s.checkUpload(up); err != nil {
		s.metrics.RunFinished(kind, metrics.OutcomeRejected, 0)
		return err
	}

	release, err := s.limiter.Acquire(ctx)
	if err != nil {
		s.metrics.RunFinished(kind, metrics.OutcomeRejected, 0)
		return err
	}
	defer release()
	defer s.metrics.RunStarted()()

	ctx, cancel := context.WithTimeout(ctx, s.opts.RunTimeout)
	defer cancel()

	id := s.newID()
	logger := logging.WithFields(ctx,
		"run_id", id,
		"kind", kind,
		"file", up.FileName,
	)
	if ip := ClientIPFromContext(ctx); ip != "" {
		logger = logger.With("client_ip", ip)
	}
	ctx = logging.NewContext(ctx, logger)
	logger.Info("run started", "size", humanize.Bytes(uint64(len(up.Data))))

	start := s.now()
	res, err := fn(ctx, id)
	elapsed := s.now().Sub(start)

	run := store.Run{
		ID:         id,
		Kind:       kind,
		SourceFile: up.FileName,
		DurationMS: elapsed.Milliseconds(),
		CreatedAt:  start,
	}

	if err != nil {
		run.Status = store.StatusFailed
		run.Error = err.Error()
		s.record(ctx, run)
		s.metrics.RunFinished(kind, metrics.OutcomeFailed, elapsed)
		logger.Warn("run failed", "error", err, "duration_ms", run.DurationMS)
		return err
	}

	res.RunID = id
	res.DurationMS = run.DurationMS
	run.Status = store.StatusSucceeded
	run.OutputFile = res.CleanedFilePath
	run.Stats = res.Stats()
	run.Score = res.DataQualityScore
	run.ProcessedRows = res.ProcessedRows
	run.ProcessedCols = res.ProcessedColumns
	s.record(ctx, run)
	s.cache.put(cachedRun{run: run, cleaned: res.cleaned})

	imputed := 0
	for _, col := range res.Columns {
		imputed += col.Filled
	}
	s.metrics.RunFinished(kind, metrics.OutcomeSucceeded, elapsed)
	s.metrics.Cleaned(res.DataQualityScore, imputed, res.ProcessedRows)

	logger.Info("run completed",
		"rows", res.ProcessedRows,
		"columns", res.ProcessedColumns,
		"score", res.DataQualityScore,
		"output", res.CleanedFilePath,
		"duration_ms", run.DurationMS,
	)
	return nil
}

// checkUpload rejects uploads that cannot be cleaned before a slot is taken.
func (s *Service) checkUpload(up Upload) error {
	if up.FileName == "" {
		return ErrNoFile
	}
	if _, err := sheet.Lookup(up.FileName); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidFileType, up.FileName)
	}
	if s.opts.MaxFileSize > 0 && int64(len(up.Data)) > s.opts.MaxFileSize {
		return fmt.Errorf("%w: %s exceeds %s", ErrFileTooLarge,
			humanize.Bytes(uint64(len(up.Data))), humanize.Bytes(uint64(s.opts.MaxFileSize)))
	}
	if len(up.Data) == 0 {
		return fmt.Errorf("%s: %w", up.FileName, cleaning.ErrEmptyInput)
	}
	return nil
}

// clean decodes and cleans an upload and scores the result.
func (s *Service) clean(ctx context.Context, up Upload) (*PreprocessResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cleaned, report, err := cleaning.CleanBytes(up.FileName, up.Data)
	if err != nil {
		return nil, err
	}

	st := report.Stats
	logging.FromContext(ctx).Debug("cleaned",
		"null_columns_removed", st.NullColumnsRemoved,
		"duplicates_removed", st.DuplicatesRemoved,
		"missing_before", st.MissingBefore,
		"missing_after", st.MissingAfter,
	)
	return NewResult(cleaned, report), nil
}

// NewResult scores a cleaning report. Storage fields are left empty.
func NewResult(cleaned table.Table, report cleaning.Report) *PreprocessResult {
	st := report.Stats
	score := quality.Score(st)
	return &PreprocessResult{
		OriginalRows:        st.OriginalRows,
		OriginalColumns:     st.OriginalCols,
		ProcessedRows:       cleaned.Rows(),
		ProcessedColumns:    cleaned.Width(),
		MissingValuesBefore: st.MissingBefore,
		MissingValuesAfter:  st.MissingAfter,
		DuplicatesRemoved:   st.DuplicatesRemoved,
		NullColumnsRemoved:  st.NullColumnsRemoved,
		DataQualityScore:    score,
		QualityGrade:        quality.Grade(score),
		QualityBreakdown:    quality.Breakdown(st),
		Columns:             report.Columns,
		Renamed:             report.Renamed,
		cleaned:             cleaned,
	}
}

// save encodes the cleaned workbook and stores it under a name unique to
// the run.
func (s *Service) save(ctx context.Context, id, source string, res *PreprocessResult, opts sheet.XLSXOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := sheet.EncodeXLSX(res.cleaned, opts)
	if err != nil {
		return fmt.Errorf("encode cleaned workbook: %w", err)
	}

	name := OutputName(source, id)
	if err := s.files.Save(name, data); err != nil {
		return fmt.Errorf("store cleaned workbook: %w", err)
	}

	res.CleanedFilePath = name
	res.FileDownloadURL = "/download/" + url.PathEscape(name)
	return nil
}

func (s *Service) record(ctx context.Context, run store.Run) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()

	if err := s.runs.Insert(ctx, run); err != nil {
		logging.FromContext(ctx).Error("record run failed", "error", err)
	}
}

// OutputName derives the stored file name for a run: the source stem made
// safe for a flat directory, the run ID without dashes and the .xlsx
// extension. Output is always xlsx whatever the input format.
func OutputName(source, runID string) string {
	base := filepath.Base(strings.ReplaceAll(source, `\`, "/"))
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	safe := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' {
			return r
		}
		return '_'
	}, stem)
	safe = strings.Trim(safe, "_")
	if safe == "" {
		safe = "sheet"
	}

	return safe + "_" + strings.ReplaceAll(runID, "-", "") + ".xlsx"
}

// SummaryRows is the content of the Summary sheet written with every
// cleaned workbook.
func SummaryRows(res *PreprocessResult) []sheet.SummaryRow {
	return []sheet.SummaryRow{
		{Label: "Original rows", Value: res.OriginalRows},
		{Label: "Original columns", Value: res.OriginalColumns},
		{Label: "Processed rows", Value: res.ProcessedRows},
		{Label: "Processed columns", Value: res.ProcessedColumns},
		{Label: "Missing values before", Value: res.MissingValuesBefore},
		{Label: "Missing values after", Value: res.MissingValuesAfter},
		{Label: "Duplicates removed", Value: res.DuplicatesRemoved},
		{Label: "Null columns removed", Value: res.NullColumnsRemoved},
		{Label: "Completeness", Value: res.QualityBreakdown.Completeness},
		{Label: "Improvement", Value: res.QualityBreakdown.Improvement},
		{Label: "Consistency", Value: res.QualityBreakdown.Consistency},
		{Label: "Data quality score", Value: res.DataQualityScore},
		{Label: "Grade", Value: res.QualityGrade},
	}
}

// Run returns a run record, preferring the cache.
func (s *Service) Run(ctx context.Context, id string) (store.Run, error) {
	if entry, ok := s.cache.get(id); ok {
		return entry.run, nil
	}
	run, err := s.runs.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return store.Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return run, err
}

// Runs lists recent runs, newest first.
func (s *Service) Runs(ctx context.Context, limit int) ([]store.Run, error) {
	return s.runs.List(ctx, limit)
}

// OpenDownload opens a stored output workbook. The name must be a plain
// file name; anything containing ".." or a path separator is rejected.
func (s *Service) OpenDownload(name string) (Download, error) {
	f, err := s.files.Open(name)
	if err != nil {
		return Download{}, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return Download{}, fmt.Errorf("stat %s: %w", name, err)
	}
	return Download{File: f, Name: name, Size: info.Size(), ModTime: info.ModTime()}, nil
}

// generate calls the insight generator and substitutes failure text on
// error, so AI problems never fail a run.
func (s *Service) generate(ctx context.Context, purpose, prompt, failure string) (string, bool) {
	text, err := s.gen.Generate(ctx, prompt)
	if insight.Enabled(s.gen) {
		s.metrics.AICall(purpose, err)
	}
	if err != nil {
		logging.FromContext(ctx).Log(ctx, levelFor(err), "insight generation failed",
			"purpose", purpose, "error", err)
		return fmt.Sprintf("%s: %v", failure, err), false
	}
	return text, true
}

func levelFor(err error) slog.Level {
	if errors.Is(err, insight.ErrDisabled) {
		return slog.LevelDebug
	}
	return slog.LevelWarn
}

// lookupTable finds the cleaned table behind a chat request.
func (s *Service) lookupTable(ctx context.Context, req ChatRequest) (table.Table, error) {
	switch {
	case req.Upload != nil:
		if err := s.checkUpload(*req.Upload); err != nil {
			return table.Table{}, err
		}
		return sheet.Decode(req.Upload.FileName, req.Upload.Data)

	case req.RunID != "":
		if entry, ok := s.cache.get(req.RunID); ok {
			return entry.cleaned, nil
		}
		run, err := s.Run(ctx, req.RunID)
		if err != nil {
			return table.Table{}, err
		}
		if run.OutputFile == "" {
			return table.Table{}, fmt.Errorf("run %s has no output: %w", req.RunID, store.ErrNotFound)
		}
		return s.readOutput(run.OutputFile)

	case req.FileName != "":
		if entry, ok := s.cache.byFile(req.FileName); ok {
			return entry.cleaned, nil
		}
		return s.readOutput(req.FileName)

	default:
		return table.Table{}, ErrNoFile
	}
}

func (s *Service) readOutput(name string) (table.Table, error) {
	data, err := s.files.Read(name)
	if err != nil {
		return table.Table{}, err
	}
	return sheet.DecodeXLSX(data)
}
