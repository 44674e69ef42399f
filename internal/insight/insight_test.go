package insight

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/sheetprep/internal/table"
)

func sampleTable(t *testing.T) table.Table {
	t.Helper()
	tbl, err := table.New(
		table.Column{Name: "region", Cells: []table.Cell{table.Text("n"), table.Text("s"), table.Text("n"), table.Text("e")}},
		table.Column{Name: "amount", Cells: []table.Cell{table.Number(1), table.Number(2), table.Number(3), table.Number(4)}},
	)
	require.NoError(t, err)
	return tbl
}

func TestNewProfile(t *testing.T) {
	p := NewProfile(sampleTable(t))

	assert.Equal(t, "(4, 2)", p.Shape())
	assert.Equal(t, []string{"amount"}, p.Numeric)
	assert.Equal(t, []string{"region"}, p.Text)
	assert.Equal(t, "{region: text, amount: numeric}", p.DataTypes())
	assert.Equal(t, "{region: 0, amount: 0}", p.MissingValues())

	require.Len(t, p.Describe, 1)
	d := p.Describe[0]
	assert.Equal(t, 4, d.Count)
	assert.InDelta(t, 2.5, d.Mean, 1e-9)
	assert.InDelta(t, 1.2909944, d.Std, 1e-6)
	assert.Equal(t, 1.75, d.Q1)
	assert.Equal(t, 2.5, d.Q2)
	assert.Equal(t, 3.25, d.Q3)
	assert.Contains(t, p.Statistics(), "amount  4  2.5000")
}

func TestProfile_NoNumeric(t *testing.T) {
	tbl, err := table.New(table.Column{Name: "s", Cells: []table.Cell{table.Text("a")}})
	require.NoError(t, err)
	assert.Equal(t, "No numeric columns", NewProfile(tbl).Statistics())
}

func TestPrompts(t *testing.T) {
	p := NewProfile(sampleTable(t))

	summary := SummaryPrompt(p)
	assert.Contains(t, summary, "Dataset Shape: (4, 2)")
	assert.Contains(t, summary, "Columns: [region, amount]")
	assert.Contains(t, summary, "Keep it concise and business-focused.")

	chart := ChartPrompt("Bar Chart for 'region'", p)
	assert.Contains(t, chart, "CHART DETAILS:\nBar Chart for 'region'")

	rec := RecommendationsPrompt("sum", []ChartInsight{
		{Name: "barchart_region", Insight: "Please provide the image first."},
	}, p)
	assert.Contains(t, rec, "barchart_region: Chart barchart_region shows key patterns")
	assert.Contains(t, rec, "- Numeric columns: [amount]")

	noCharts := RecommendationsPrompt("sum", nil, p)
	assert.Contains(t, noCharts, DefaultChartPatternMsg)

	chat := ChatPrompt("preview", "how many rows?")
	assert.True(t, strings.HasSuffix(chat, "Answer precisely based only on the given data."))
}

func TestReplaceUnhelpful(t *testing.T) {
	assert.Equal(t, "fine", ReplaceUnhelpful("fine", "c", nil))
	assert.Equal(t,
		"Chart c shows key patterns in the data revealing business insights about [a, b].",
		ReplaceUnhelpful("Could you SEND THE CHART?", "c", []string{"a", "b"}))
}

func TestEnabled(t *testing.T) {
	assert.False(t, Enabled(nil))
	assert.False(t, Enabled(Disabled{}))
	assert.True(t, Enabled(GeneratorFunc(func(context.Context, string) (string, error) { return "", nil })))

	_, err := Disabled{}.Generate(context.Background(), "x")
	assert.ErrorIs(t, err, ErrDisabled)
}

func TestNewGemini_RequiresKey(t *testing.T) {
	_, err := NewGemini(context.Background(), GeminiConfig{})
	require.Error(t, err)
}

func TestGemini_Generate(t *testing.T) {
	var gotPath, gotKey, gotPrompt string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("X-Goog-Api-Key")

		body, _ := io.ReadAll(r.Body)
		var req struct {
			Contents []struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"contents"`
		}
		_ = json.Unmarshal(body, &req)
		if len(req.Contents) > 0 && len(req.Contents[0].Parts) > 0 {
			gotPrompt = req.Contents[0].Parts[0].Text
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"candidates":[{"content":{"role":"model","parts":[{"text":"  Sales are up. "}]}}]}`)
	}))
	defer srv.Close()

	g, err := NewGemini(context.Background(), GeminiConfig{
		APIKey:   "test-key",
		Timeout:  5 * time.Second,
		Endpoint: srv.URL + "/",
	})
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, g.Model())

	text, err := g.Generate(context.Background(), "summarize")
	require.NoError(t, err)
	assert.Equal(t, "Sales are up.", text)
	assert.Equal(t, "/v1beta/models/gemini-2.0-flash:generateContent", gotPath)
	assert.Equal(t, "test-key", gotKey)
	assert.Equal(t, "summarize", gotPrompt)
}

func TestGemini_EmptyCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"candidates":[]}`)
	}))
	defer srv.Close()

	g, err := NewGemini(context.Background(), GeminiConfig{APIKey: "k", Endpoint: srv.URL + "/"})
	require.NoError(t, err)

	_, err = g.Generate(context.Background(), "x")
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestGemini_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":{"code":400,"message":"API key not valid","status":"INVALID_ARGUMENT"}}`)
	}))
	defer srv.Close()

	g, err := NewGemini(context.Background(), GeminiConfig{APIKey: "k", Model: "gemini-test", Endpoint: srv.URL + "/"})
	require.NoError(t, err)

	_, err = g.Generate(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gemini gemini-test")
	assert.NotErrorIs(t, err, ErrEmptyResponse)
}

func TestGemini_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	g, err := NewGemini(context.Background(), GeminiConfig{APIKey: "k", Timeout: 50 * time.Millisecond, Endpoint: srv.URL + "/"})
	require.NoError(t, err)

	start := time.Now()
	_, err = g.Generate(context.Background(), "x")
	require.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
}
