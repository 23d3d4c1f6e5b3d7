package narrative

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/dvloznov/payment-analytics/internal/aggregate"
	"github.com/dvloznov/payment-analytics/internal/pipeline"
)

// DefaultModelName is the Gemini model used for the findings summary.
const DefaultModelName = "gemini-2.5-flash"

// Summarize renders the run's headline numbers into a prompt and asks the
// model for a short plain-text findings summary. Callers treat a failure
// here as non-fatal; the metric tables are the real output.
func Summarize(ctx context.Context, report *pipeline.Report, tables map[string]*aggregate.Table) (string, error) {
	prompt := BuildFindingsPrompt(report, tables)

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return "", fmt.Errorf("Summarize: create genai client: %w", err)
	}

	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: prompt}},
		},
	}

	resp, err := client.Models.GenerateContent(ctx, DefaultModelName, contents, nil)
	if err != nil {
		return "", fmt.Errorf("Summarize: generate content: %w", err)
	}

	text := cleanModelText(resp.Text())
	if text == "" {
		return "", fmt.Errorf("Summarize: empty response from model")
	}
	return text, nil
}

// BuildFindingsPrompt assembles the model instructions plus the run's data
// quality counters and headline KPI table.
func BuildFindingsPrompt(report *pipeline.Report, tables map[string]*aggregate.Table) string {
	var b strings.Builder

	b.WriteString("You are an analyst reviewing a batch of payment transactions.\n")
	b.WriteString("Write a concise findings summary in plain text (no Markdown, no bullet lists longer than 10 items).\n")
	b.WriteString("Cover: overall health, success/failure patterns, fraud and refund levels, and data quality issues.\n\n")

	b.WriteString("Data quality counters:\n")
	fmt.Fprintf(&b, "- input transactions: %d\n", report.TotalTransactions)
	fmt.Fprintf(&b, "- clean transactions: %d\n", report.Clean)
	fmt.Fprintf(&b, "- schema violations: %d\n", report.SchemaViolations)
	fmt.Fprintf(&b, "- duplicate ids: %d\n", report.Duplicates)
	fmt.Fprintf(&b, "- orphan users: %d\n", report.Orphans)
	fmt.Fprintf(&b, "- negative values reported: %d\n", report.NegativeValues)
	fmt.Fprintf(&b, "- total repairs: %d\n", report.TotalRepairs())
	b.WriteString("\n")

	if kpi, ok := tables["kpi_overview"]; ok && len(kpi.Rows) == 1 {
		b.WriteString("Headline metrics:\n")
		row := kpi.Rows[0]
		for _, metric := range kpi.MetricColumns {
			fmt.Fprintf(&b, "- %s: %.2f\n", metric, row.Values[metric])
		}
		b.WriteString("\n")
	}

	writeTopRows := func(name, label string, n int) {
		table, ok := tables[name]
		if !ok || len(table.Rows) == 0 {
			return
		}
		fmt.Fprintf(&b, "%s:\n", label)
		for i, row := range table.Rows {
			if i >= n {
				break
			}
			fmt.Fprintf(&b, "- %s: %.0f transactions\n", strings.Join(row.Key, " / "), row.Values["transactions"])
		}
		b.WriteString("\n")
	}

	writeTopRows("failure_reasons", "Top failure reasons", 5)
	writeTopRows("fraud_reasons", "Top fraud flags", 5)

	b.WriteString("Return ONLY the summary text.\n")
	return b.String()
}

// cleanModelText strips code fences the model may add despite instructions.
func cleanModelText(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		}
		if idx := strings.LastIndex(s, "```"); idx != -1 {
			s = s[:idx]
		}
	}
	return strings.TrimSpace(s)
}
