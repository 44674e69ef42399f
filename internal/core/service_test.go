package core

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/JonMunkholm/sheetprep/internal/cleaning"
	"github.com/JonMunkholm/sheetprep/internal/insight"
	"github.com/JonMunkholm/sheetprep/internal/metrics"
	"github.com/JonMunkholm/sheetprep/internal/sheet"
	"github.com/JonMunkholm/sheetprep/internal/store"
)

const peopleCSV = "Name,Age,City,Empty\n" +
	"ann,30,Oslo,\n" +
	"bob,,Oslo,\n" +
	"ann,30,Oslo,\n" +
	"cat,40,,\n"

func peopleUpload() Upload {
	return Upload{FileName: "people.csv", Data: []byte(peopleCSV)}
}

func newTestService(t *testing.T, opts Options) *Service {
	t.Helper()
	if opts.Files == nil {
		files, err := store.NewFiles(t.TempDir())
		if err != nil {
			t.Fatalf("NewFiles() error = %v", err)
		}
		opts.Files = files
	}
	if opts.MaxChartInsights == 0 {
		opts.MaxChartInsights = DefaultMaxChartInsights
	}
	svc, err := NewService(opts)
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	t.Cleanup(svc.Close)
	return svc
}

// fakeGenerator answers by prompt type and counts calls.
func fakeGenerator(calls *atomic.Int64) insight.Generator {
	return insight.GeneratorFunc(func(_ context.Context, prompt string) (string, error) {
		calls.Add(1)
		switch {
		case strings.HasPrefix(prompt, "Analyze this dataset"):
			return "summary text", nil
		case strings.HasPrefix(prompt, "Analyze this chart"):
			return "chart text", nil
		case strings.HasPrefix(prompt, "Based on the data analysis"):
			return "recommendation text", nil
		case strings.HasPrefix(prompt, "You are an AI data assistant"):
			return "  three rows  ", nil
		}
		return "", errors.New("unexpected prompt")
	})
}

func TestNewService_RequiresFiles(t *testing.T) {
	if _, err := NewService(Options{}); err == nil {
		t.Error("NewService() error = nil, want error without Files")
	}
}

func TestPreprocess(t *testing.T) {
	runs := store.NewMemoryRuns()
	svc := newTestService(t, Options{Runs: runs, Metrics: metrics.New()})
	ctx := context.Background()

	res, err := svc.Preprocess(ctx, peopleUpload())
	if err != nil {
		t.Fatalf("Preprocess() error = %v", err)
	}

	checks := []struct {
		name      string
		got, want int
	}{
		{"OriginalRows", res.OriginalRows, 4},
		{"OriginalColumns", res.OriginalColumns, 4},
		{"ProcessedRows", res.ProcessedRows, 3},
		{"ProcessedColumns", res.ProcessedColumns, 3},
		{"MissingValuesBefore", res.MissingValuesBefore, 6},
		{"MissingValuesAfter", res.MissingValuesAfter, 0},
		{"DuplicatesRemoved", res.DuplicatesRemoved, 1},
		{"NullColumnsRemoved", res.NullColumnsRemoved, 1},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %d, want %d", c.name, c.got, c.want)
		}
	}

	if res.DataQualityScore != 92.5 {
		t.Errorf("DataQualityScore = %v, want 92.5", res.DataQualityScore)
	}
	if res.QualityGrade != "A" {
		t.Errorf("QualityGrade = %q, want A", res.QualityGrade)
	}
	if !strings.HasPrefix(res.CleanedFilePath, "people_") || !strings.HasSuffix(res.CleanedFilePath, ".xlsx") {
		t.Errorf("CleanedFilePath = %q, want people_<id>.xlsx", res.CleanedFilePath)
	}
	if res.FileDownloadURL != "/download/"+res.CleanedFilePath {
		t.Errorf("FileDownloadURL = %q", res.FileDownloadURL)
	}
	if res.RunID == "" {
		t.Error("RunID is empty")
	}

	// The stored workbook holds the cleaned table.
	dl, err := svc.OpenDownload(res.CleanedFilePath)
	if err != nil {
		t.Fatalf("OpenDownload() error = %v", err)
	}
	defer dl.File.Close()
	data, err := io.ReadAll(dl.File)
	if err != nil {
		t.Fatalf("read download: %v", err)
	}
	cleaned, err := sheet.DecodeXLSX(data)
	if err != nil {
		t.Fatalf("DecodeXLSX() error = %v", err)
	}
	if got := strings.Join(cleaned.Names(), ","); got != "name,age,city" {
		t.Errorf("stored columns = %s, want name,age,city", got)
	}
	if cleaned.NullCount() != 0 {
		t.Errorf("stored NullCount = %d, want 0", cleaned.NullCount())
	}

	run, err := runs.Get(ctx, res.RunID)
	if err != nil {
		t.Fatalf("run not recorded: %v", err)
	}
	if run.Status != store.StatusSucceeded || run.OutputFile != res.CleanedFilePath || run.Score != 92.5 {
		t.Errorf("recorded run = %+v", run)
	}
}

func TestPreprocess_DistinctOutputs(t *testing.T) {
	svc := newTestService(t, Options{})
	ctx := context.Background()

	a, err := svc.Preprocess(ctx, peopleUpload())
	if err != nil {
		t.Fatalf("first Preprocess() error = %v", err)
	}
	b, err := svc.Preprocess(ctx, peopleUpload())
	if err != nil {
		t.Fatalf("second Preprocess() error = %v", err)
	}
	if a.CleanedFilePath == b.CleanedFilePath {
		t.Errorf("both runs stored as %q", a.CleanedFilePath)
	}
	if a.DataQualityScore != b.DataQualityScore {
		t.Errorf("scores differ for identical input: %v vs %v", a.DataQualityScore, b.DataQualityScore)
	}
}

func TestPreprocess_SharedIDPrefix(t *testing.T) {
	svc := newTestService(t, Options{})
	ids := []string{
		"0123abcd-0000-4000-8000-000000000001",
		"0123abcd-0000-4000-8000-000000000002",
	}
	svc.newID = func() string {
		id := ids[0]
		ids = ids[1:]
		return id
	}
	ctx := context.Background()

	a, err := svc.Preprocess(ctx, peopleUpload())
	if err != nil {
		t.Fatalf("first Preprocess() error = %v", err)
	}
	b, err := svc.Preprocess(ctx, peopleUpload())
	if err != nil {
		t.Fatalf("second Preprocess() error = %v", err)
	}
	if a.CleanedFilePath == b.CleanedFilePath {
		t.Errorf("both runs stored as %q", a.CleanedFilePath)
	}
}

func TestPreprocess_RejectsBadUploads(t *testing.T) {
	svc := newTestService(t, Options{MaxFileSize: 64})

	tests := []struct {
		name string
		up   Upload
		want error
	}{
		{"no file", Upload{}, ErrNoFile},
		{"wrong type", Upload{FileName: "notes.txt", Data: []byte("x")}, ErrInvalidFileType},
		{"too large", Upload{FileName: "big.csv", Data: []byte(strings.Repeat("a", 65))}, ErrFileTooLarge},
		{"empty", Upload{FileName: "empty.csv"}, cleaning.ErrEmptyInput},
		{"header only", Upload{FileName: "h.csv", Data: []byte("a,b\n")}, cleaning.ErrEmptyInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Preprocess(context.Background(), tt.up)
			if !errors.Is(err, tt.want) {
				t.Errorf("Preprocess() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestPreprocess_ParseFailureIsRecorded(t *testing.T) {
	runs := store.NewMemoryRuns()
	svc := newTestService(t, Options{Runs: runs})
	ctx := context.Background()

	_, err := svc.Preprocess(ctx, Upload{FileName: "broken.xlsx", Data: []byte("not a zip")})
	var perr *sheet.ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("Preprocess() error = %v, want *sheet.ParseError", err)
	}

	list, err := runs.List(ctx, 10)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(list) != 1 || list[0].Status != store.StatusFailed || list[0].Error == "" {
		t.Errorf("recorded runs = %+v, want one failed run", list)
	}
}

func TestPreprocess_Busy(t *testing.T) {
	svc := newTestService(t, Options{MaxConcurrent: 1, MaxWait: 20 * time.Millisecond})

	release := svc.Limiter().TryAcquire()
	if release == nil {
		t.Fatal("TryAcquire() failed on an idle limiter")
	}
	defer release()

	if _, err := svc.Preprocess(context.Background(), peopleUpload()); !errors.Is(err, ErrTooManyRuns) {
		t.Errorf("Preprocess() error = %v, want ErrTooManyRuns", err)
	}
}

func TestAnalyze(t *testing.T) {
	var calls atomic.Int64
	svc := newTestService(t, Options{Generator: fakeGenerator(&calls), MaxChartInsights: 1})

	before := time.Now()
	res, err := svc.Analyze(context.Background(), peopleUpload())
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	if res.DataQualityScore != 92.5 {
		t.Errorf("DataQualityScore = %v, want 92.5", res.DataQualityScore)
	}
	if res.AISummary != "summary text" {
		t.Errorf("AISummary = %q", res.AISummary)
	}
	if len(res.Charts) != 2 {
		t.Fatalf("len(Charts) = %d, want 2", len(res.Charts))
	}
	if res.Charts[0].Name != "barchart_name" || res.Charts[1].Name != "barchart_city" {
		t.Errorf("chart names = %s, %s", res.Charts[0].Name, res.Charts[1].Name)
	}
	if !res.Charts[0].HasAIAnalysis || res.Charts[0].AIInsight != "chart text" {
		t.Errorf("first chart = %+v, want AI insight", res.Charts[0])
	}
	if res.Charts[1].HasAIAnalysis || res.Charts[1].AIInsight != insight.BasicChartText {
		t.Errorf("second chart = %+v, want basic chart", res.Charts[1])
	}
	if res.OverallRecommendations != "recommendation text" {
		t.Errorf("OverallRecommendations = %q", res.OverallRecommendations)
	}
	if res.AnalysisTimestamp.Before(before) {
		t.Errorf("AnalysisTimestamp = %v, before the call", res.AnalysisTimestamp)
	}
	// summary + one chart + recommendations
	if got := calls.Load(); got != 3 {
		t.Errorf("generator calls = %d, want 3", got)
	}
}

func TestAnalyze_GeneratorFailuresDoNotFailRun(t *testing.T) {
	svc := newTestService(t, Options{})

	res, err := svc.Analyze(context.Background(), peopleUpload())
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if !strings.HasPrefix(res.AISummary, summaryFailure+": ") {
		t.Errorf("AISummary = %q, want failure text", res.AISummary)
	}
	for _, c := range res.Charts[:2] {
		if c.HasAIAnalysis || !strings.HasPrefix(c.AIInsight, chartFailure) {
			t.Errorf("chart %s = %+v, want failure text", c.Name, c)
		}
	}
	if !strings.HasPrefix(res.OverallRecommendations, recommendationsFailure) {
		t.Errorf("OverallRecommendations = %q", res.OverallRecommendations)
	}
}

func TestAnalyze_NoCharts(t *testing.T) {
	svc := newTestService(t, Options{})

	res, err := svc.Analyze(context.Background(), Upload{FileName: "n.csv", Data: []byte("x\n1\n2\n")})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if len(res.Charts) != 0 {
		t.Errorf("len(Charts) = %d, want 0", len(res.Charts))
	}
	if res.OverallRecommendations != insight.NoChartInsightsText {
		t.Errorf("OverallRecommendations = %q", res.OverallRecommendations)
	}
}

func TestChat(t *testing.T) {
	var calls atomic.Int64
	files, err := store.NewFiles(t.TempDir())
	if err != nil {
		t.Fatalf("NewFiles() error = %v", err)
	}
	runs := store.NewMemoryRuns()
	svc := newTestService(t, Options{Files: files, Runs: runs, Generator: fakeGenerator(&calls), ChatPreviewRows: 2})
	ctx := context.Background()

	res, err := svc.Preprocess(ctx, peopleUpload())
	if err != nil {
		t.Fatalf("Preprocess() error = %v", err)
	}

	// A second service shares storage but not the cache.
	cold := newTestService(t, Options{Files: files, Runs: runs, Generator: fakeGenerator(&calls), ChatPreviewRows: 2})

	requests := map[string]struct {
		svc *Service
		req ChatRequest
	}{
		"by run id":          {svc, ChatRequest{RunID: res.RunID, Question: "how many?"}},
		"by run id uncached": {cold, ChatRequest{RunID: res.RunID, Question: "how many?"}},
		"by file name":       {cold, ChatRequest{FileName: res.CleanedFilePath, Question: "how many?"}},
		"by upload":          {svc, ChatRequest{Upload: func() *Upload { u := peopleUpload(); return &u }(), Question: "how many?"}},
	}
	for name, tc := range requests {
		t.Run(name, func(t *testing.T) {
			ans, err := tc.svc.Chat(ctx, tc.req)
			if err != nil {
				t.Fatalf("Chat() error = %v", err)
			}
			if ans.Answer != "three rows" {
				t.Errorf("Answer = %q, want trimmed answer", ans.Answer)
			}
			if ans.PreviewRows != 2 {
				t.Errorf("PreviewRows = %d, want 2", ans.PreviewRows)
			}
		})
	}
}

func TestChat_Errors(t *testing.T) {
	var calls atomic.Int64
	svc := newTestService(t, Options{Generator: fakeGenerator(&calls)})
	ctx := context.Background()

	if _, err := svc.Chat(ctx, ChatRequest{RunID: "x", Question: "  "}); !errors.Is(err, ErrNoQuestion) {
		t.Errorf("blank question error = %v, want ErrNoQuestion", err)
	}
	if _, err := svc.Chat(ctx, ChatRequest{Question: "q"}); !errors.Is(err, ErrNoFile) {
		t.Errorf("no source error = %v, want ErrNoFile", err)
	}
	if _, err := svc.Chat(ctx, ChatRequest{RunID: "missing", Question: "q"}); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("unknown run error = %v, want ErrRunNotFound", err)
	}
	if _, err := svc.Chat(ctx, ChatRequest{FileName: "../x.xlsx", Question: "q"}); !errors.Is(err, store.ErrInvalidName) {
		t.Errorf("bad file error = %v, want ErrInvalidName", err)
	}
	if calls.Load() != 0 {
		t.Errorf("generator called %d times for invalid requests", calls.Load())
	}

	disabled := newTestService(t, Options{})
	res, err := disabled.Preprocess(ctx, peopleUpload())
	if err != nil {
		t.Fatalf("Preprocess() error = %v", err)
	}
	if _, err := disabled.Chat(ctx, ChatRequest{RunID: res.RunID, Question: "q"}); !errors.Is(err, insight.ErrDisabled) {
		t.Errorf("disabled chat error = %v, want ErrDisabled", err)
	}
}

func TestRun(t *testing.T) {
	runs := store.NewMemoryRuns()
	svc := newTestService(t, Options{Runs: runs})
	ctx := context.Background()

	res, err := svc.Preprocess(ctx, peopleUpload())
	if err != nil {
		t.Fatalf("Preprocess() error = %v", err)
	}

	run, err := svc.Run(ctx, res.RunID)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if run.Kind != store.KindPreprocess || run.ProcessedRows != 3 {
		t.Errorf("Run() = %+v", run)
	}

	if _, err := svc.Run(ctx, "nope"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("Run(nope) error = %v, want ErrRunNotFound", err)
	}

	list, err := svc.Runs(ctx, 10)
	if err != nil || len(list) != 1 {
		t.Errorf("Runs() = %v, %v; want one run", list, err)
	}
}

func TestOpenDownload_Errors(t *testing.T) {
	svc := newTestService(t, Options{})

	if _, err := svc.OpenDownload("../etc/passwd"); !errors.Is(err, store.ErrInvalidName) {
		t.Errorf("traversal error = %v, want ErrInvalidName", err)
	}
	if _, err := svc.OpenDownload("missing.xlsx"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("missing error = %v, want ErrNotFound", err)
	}
}

func TestOutputName(t *testing.T) {
	tests := []struct {
		source, id, want string
	}{
		{"people.csv", "0123abcd-ef01-2345-6789-abcdef012345", "people_0123abcdef0123456789abcdef012345.xlsx"},
		{"Q3 Sales (final).XLSX", "deadbeefcafe", "Q3_Sales__final_deadbeefcafe.xlsx"},
		{"../../etc/passwd.xlsx", "12345678", "passwd_12345678.xlsx"},
		{`C:\Users\me\book.xls`, "abc", "book_abc.xlsx"},
		{"...", "abcdef0123", "sheet_abcdef0123.xlsx"},
	}
	for _, tt := range tests {
		if got := OutputName(tt.source, tt.id); got != tt.want {
			t.Errorf("OutputName(%q) = %q, want %q", tt.source, got, tt.want)
		}
		if !store.ValidName(OutputName(tt.source, tt.id)) {
			t.Errorf("OutputName(%q) is not a valid store name", tt.source)
		}
	}
}

func TestSweep(t *testing.T) {
	runs := store.NewMemoryRuns()
	svc := newTestService(t, Options{Runs: runs})
	ctx := context.Background()

	if _, err := svc.Preprocess(ctx, peopleUpload()); err != nil {
		t.Fatalf("Preprocess() error = %v", err)
	}

	if got := svc.Sweep(ctx, time.Hour); got.Runs != 0 || got.Files != 0 {
		t.Errorf("fresh Sweep() = %+v, want nothing removed", got)
	}

	svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	got := svc.Sweep(ctx, time.Hour)
	if got.Runs != 1 || got.Files != 1 {
		t.Errorf("Sweep() = %+v, want 1 file and 1 run removed", got)
	}
}

func TestStartRetentionSweeper_StopsOnCancel(t *testing.T) {
	svc := newTestService(t, Options{})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		svc.StartRetentionSweeper(ctx, RetentionConfig{Retention: time.Hour, Interval: 10 * time.Millisecond})
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop after cancel")
	}
}
