package gcsexport

import (
	"bytes"
	"strings"
	"testing"

	"github.com/dvloznov/payment-analytics/internal/aggregate"
	"github.com/dvloznov/payment-analytics/internal/pipeline"
)

func sampleTable() *aggregate.Table {
	return &aggregate.Table{
		Name:          "method_summary",
		KeyColumns:    []string{"payment_method"},
		MetricColumns: []string{"transactions", "success_rate"},
		Rows: []aggregate.Row{
			{Key: []string{"UPI"}, Values: map[string]float64{"transactions": 3, "success_rate": 66.67}},
			{Key: []string{"Credit Card"}, Values: map[string]float64{"transactions": 2, "success_rate": 100}},
		},
	}
}

func TestRenderTableCSV(t *testing.T) {
	data, err := RenderTableCSV(sampleTable())
	if err != nil {
		t.Fatalf("RenderTableCSV failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("lines = %d, want 3", len(lines))
	}
	if lines[0] != "payment_method,transactions,success_rate" {
		t.Errorf("header = %q", lines[0])
	}
	if lines[1] != "UPI,3,66.67" {
		t.Errorf("row 1 = %q", lines[1])
	}
	if lines[2] != "Credit Card,2,100" {
		t.Errorf("row 2 = %q", lines[2])
	}
}

func TestRenderTableCSV_Deterministic(t *testing.T) {
	a, err := RenderTableCSV(sampleTable())
	if err != nil {
		t.Fatalf("RenderTableCSV failed: %v", err)
	}
	b, err := RenderTableCSV(sampleTable())
	if err != nil {
		t.Fatalf("RenderTableCSV failed: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Error("rendering is not deterministic")
	}
}

func TestRenderReportCSV(t *testing.T) {
	report := pipeline.NewReport()
	report.TotalTransactions = 10
	report.SchemaViolations = 1
	report.Duplicates = 2
	report.Repairs[pipeline.RuleWhitespaceTrim] = 3
	report.Repairs[pipeline.RuleMissingFailReason] = 1
	report.Clean = 7

	data, err := RenderReportCSV(report)
	if err != nil {
		t.Fatalf("RenderReportCSV failed: %v", err)
	}
	out := string(data)

	for _, want := range []string{
		"counter,value",
		"run_id," + report.RunID,
		"total_transactions,10",
		"duplicates,2",
		"clean,7",
		"repair." + pipeline.RuleWhitespaceTrim + ",3",
		"repair." + pipeline.RuleMissingFailReason + ",1",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestObjectName(t *testing.T) {
	got := ObjectName("run-123", "method_summary")
	if got != "runs/run-123/method_summary.csv" {
		t.Errorf("ObjectName = %q", got)
	}
}
