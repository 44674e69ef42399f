package insight

import (
	"fmt"
	"strings"
)

// Placeholder texts stored in place of generated insight.
const (
	BasicChartText         = "Basic chart - no AI analysis applied"
	NoChartInsightsText    = "No chart insights available for recommendations"
	DefaultChartPatternMsg = "Key patterns identified in visualizations"
)

// SummaryPrompt asks for a business-focused overview of the dataset.
func SummaryPrompt(p Profile) string {
	return fmt.Sprintf(`Analyze this dataset and summarize:

Dataset Shape: %s
Columns: [%s]
Data Types: %s
Sample Data (first %d rows):
%s
Basic Statistics:
%s
Missing Values: %s

Include:
1. Dataset overview
2. Key insights and patterns
3. Data quality observations
4. Analysis opportunities
5. Limitations or improvements
Keep it concise and business-focused.`,
		p.Shape(), strings.Join(p.Columns, ", "), p.DataTypes(), HeadRows, p.Head, p.Statistics(), p.MissingValues())
}

// ChartPrompt asks for commentary on one chart.
func ChartPrompt(details string, p Profile) string {
	return fmt.Sprintf(`Analyze this chart and provide insights:

CHART DETAILS:
%s

DATASET CONTEXT:
Shape: %s
Columns: [%s]

Provide:
1. What the chart shows
2. Key business insights
3. Trends or anomalies
4. Actionable recommendations`,
		details, p.Shape(), strings.Join(p.Columns, ", "))
}

// ChartInsight pairs a chart name with its generated commentary.
type ChartInsight struct {
	Name    string
	Insight string
}

// RecommendationsPrompt asks for overall recommendations, built from the
// summary and the chart commentary already generated.
func RecommendationsPrompt(summary string, insights []ChartInsight, p Profile) string {
	lines := make([]string, 0, len(insights))
	for _, ci := range insights {
		lines = append(lines, ci.Name+": "+ReplaceUnhelpful(ci.Insight, ci.Name, p.Columns))
	}
	chartText := DefaultChartPatternMsg
	if len(lines) > 0 {
		chartText = strings.Join(lines, "\n")
	}

	return fmt.Sprintf(`Based on the data analysis, provide comprehensive recommendations:

DATASET SUMMARY:
%s

KEY CHART INSIGHTS:
%s

DATASET DETAILS:
- Shape: %s
- Columns: [%s]
- Numeric columns: [%s]
- Categorical columns: [%s]

Include:
1. Data strategy improvements
2. Business actions
3. Analysis roadmap
4. Visualization presentation tips
5. Long-term sustainability`,
		summary, chartText, p.Shape(), strings.Join(p.Columns, ", "),
		strings.Join(p.Numeric, ", "), strings.Join(p.Text, ", "))
}

// ChatPrompt asks a question about a preview of the data.
func ChatPrompt(preview, question string) string {
	return fmt.Sprintf(`You are an AI data assistant. Here is a preview of the Excel data:
%s
User question:
%s
Answer precisely based only on the given data.`, preview, question)
}

// ReplaceUnhelpful swaps replies that ask for the chart image with a
// generic sentence naming the chart and the dataset columns.
func ReplaceUnhelpful(text, chartName string, columns []string) string {
	lower := strings.ToLower(text)
	if strings.Contains(lower, "provide the image") || strings.Contains(lower, "send the chart") {
		return fmt.Sprintf("Chart %s shows key patterns in the data revealing business insights about [%s].",
			chartName, strings.Join(columns, ", "))
	}
	return text
}
