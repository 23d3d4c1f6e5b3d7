package gcsexport

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"sort"
	"strconv"

	"github.com/dvloznov/payment-analytics/internal/aggregate"
	"github.com/dvloznov/payment-analytics/internal/pipeline"
)

// RenderTableCSV serializes a materialized table: a header row of key
// columns then metric columns, followed by one row per group in table
// order. Deterministic for a given table.
func RenderTableCSV(table *aggregate.Table) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := append(append([]string{}, table.KeyColumns...), table.MetricColumns...)
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("RenderTableCSV: %q: write header: %w", table.Name, err)
	}

	for _, row := range table.Rows {
		record := append([]string{}, row.Key...)
		for _, metric := range table.MetricColumns {
			record = append(record, strconv.FormatFloat(row.Values[metric], 'f', -1, 64))
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("RenderTableCSV: %q: write row: %w", table.Name, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("RenderTableCSV: %q: flush: %w", table.Name, err)
	}
	return buf.Bytes(), nil
}

// RenderReportCSV serializes the validation report as counter/value pairs,
// with per-rule repair counts in sorted rule order.
func RenderReportCSV(report *pipeline.Report) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	rows := [][]string{
		{"counter", "value"},
		{"run_id", report.RunID},
		{"total_transactions", strconv.Itoa(report.TotalTransactions)},
		{"total_profiles", strconv.Itoa(report.TotalProfiles)},
		{"schema_violations", strconv.Itoa(report.SchemaViolations)},
		{"duplicates", strconv.Itoa(report.Duplicates)},
		{"orphans", strconv.Itoa(report.Orphans)},
		{"negative_values", strconv.Itoa(report.NegativeValues)},
		{"excluded", strconv.Itoa(report.Excluded)},
		{"clean", strconv.Itoa(report.Clean)},
	}

	rules := make([]string, 0, len(report.Repairs))
	for rule := range report.Repairs {
		rules = append(rules, rule)
	}
	sort.Strings(rules)
	for _, rule := range rules {
		rows = append(rows, []string{"repair." + rule, strconv.Itoa(report.Repairs[rule])})
	}

	if err := w.WriteAll(rows); err != nil {
		return nil, fmt.Errorf("RenderReportCSV: %w", err)
	}
	return buf.Bytes(), nil
}
