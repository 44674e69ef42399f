package core

import (
	"context"
	"strings"

	"github.com/xuri/excelize/v2"
	"golang.org/x/sync/errgroup"

	"github.com/JonMunkholm/sheetprep/internal/charts"
	"github.com/JonMunkholm/sheetprep/internal/insight"
	"github.com/JonMunkholm/sheetprep/internal/sheet"
	"github.com/JonMunkholm/sheetprep/internal/store"
)

// Failure texts stored in place of generated insight.
const (
	summaryFailure         = "AI summary generation failed"
	chartFailure           = "AI chart insight failed"
	recommendationsFailure = "Overall recommendations generation failed"
)

// maxConcurrentPrompts bounds parallel generator calls within one analysis.
const maxConcurrentPrompts = 3

// recommendationCharts is how many chart insights feed the recommendations.
const recommendationCharts = 2

// Analyze runs Preprocess, then plans charts and asks the generator for a
// summary, chart commentary and recommendations. The charts and the summary
// sheet are written into the stored workbook. Generator failures are stored
// as text and never fail the run.
func (s *Service) Analyze(ctx context.Context, up Upload) (*AnalyzeResult, error) {
	var out *AnalyzeResult
	err := s.execute(ctx, store.KindAnalyze, up, func(ctx context.Context, id string) (*PreprocessResult, error) {
		res, err := s.clean(ctx, up)
		if err != nil {
			return nil, err
		}

		out = &AnalyzeResult{PreprocessResult: *res}
		specs := charts.Plan(res.cleaned)
		s.narrate(ctx, out, specs)

		opts := sheet.XLSXOptions{
			Summary:  append(SummaryRows(res), sheet.SummaryRow{Label: "AI summary", Value: out.AISummary}),
			Decorate: []func(*excelize.File) error{charts.RenderFunc(specs)},
		}
		if err := s.save(ctx, id, up.FileName, &out.PreprocessResult, opts); err != nil {
			return nil, err
		}
		out.AnalysisTimestamp = s.now()
		return &out.PreprocessResult, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// narrate fills the generated-text slots of out. The summary and the chart
// insights are independent and run concurrently; recommendations need both.
func (s *Service) narrate(ctx context.Context, out *AnalyzeResult, specs []charts.Spec) {
	profile := insight.NewProfile(out.cleaned)

	out.Charts = make([]ChartResult, len(specs))
	for i, spec := range specs {
		out.Charts[i] = ChartResult{
			Spec:      spec,
			Details:   spec.Details(),
			AIInsight: insight.BasicChartText,
		}
	}

	var g errgroup.Group
	g.SetLimit(maxConcurrentPrompts)

	g.Go(func() error {
		out.AISummary, _ = s.generate(ctx, "summary", insight.SummaryPrompt(profile), summaryFailure)
		return nil
	})

	n := min(len(out.Charts), s.opts.MaxChartInsights)
	for i := range out.Charts[:n] {
		chart := &out.Charts[i]
		g.Go(func() error {
			chart.AIInsight, chart.HasAIAnalysis = s.generate(ctx, "chart",
				insight.ChartPrompt(chart.Details, profile), chartFailure)
			return nil
		})
	}
	_ = g.Wait()

	if len(out.Charts) == 0 {
		out.OverallRecommendations = insight.NoChartInsightsText
		return
	}

	insights := make([]insight.ChartInsight, 0, recommendationCharts)
	for _, c := range out.Charts[:min(len(out.Charts), recommendationCharts)] {
		insights = append(insights, insight.ChartInsight{Name: c.Name, Insight: c.AIInsight})
	}
	out.OverallRecommendations, _ = s.generate(ctx, "recommendations",
		insight.RecommendationsPrompt(out.AISummary, insights, profile), recommendationsFailure)
}

// Chat answers a question about a cleaned file using a preview of its
// first rows.
func (s *Service) Chat(ctx context.Context, req ChatRequest) (*ChatResult, error) {
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return nil, ErrNoQuestion
	}

	t, err := s.lookupTable(ctx, req)
	if err != nil {
		return nil, err
	}

	preview := t.Head(s.opts.ChatPreviewRows)
	text, err := s.gen.Generate(ctx, insight.ChatPrompt(preview.String(), question))
	if insight.Enabled(s.gen) {
		s.metrics.AICall("chat", err)
	}
	if err != nil {
		return nil, err
	}

	return &ChatResult{
		Question:    question,
		Answer:      strings.TrimSpace(text),
		PreviewRows: preview.Rows(),
	}, nil
}
