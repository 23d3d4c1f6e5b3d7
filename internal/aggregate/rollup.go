package aggregate

import "fmt"

// RollupKind selects the reducer for one column of a bucketed rollup.
type RollupKind int

const (
	// RollupCount counts the source rows in the bucket.
	RollupCount RollupKind = iota
	// RollupSum totals the named source column.
	RollupSum
	// RollupAvg averages the named source column.
	RollupAvg
)

// RollupMetric is one output column of a bucketed rollup.
type RollupMetric struct {
	Name   string
	Kind   RollupKind
	Column string
}

// BucketTable re-groups a materialized per-entity table by bucketing one of
// its metric columns against a boundary table. This is the second stage of
// segmentation views: first a per-user table, then its rows banded into
// segments. Rows come out in boundary order; empty buckets are kept with
// zero values so segment tables always have a stable shape.
func BucketTable(src *Table, name, column string, bounds Boundaries, metrics []RollupMetric) (*Table, error) {
	if !contains(src.MetricColumns, column) {
		return nil, fmt.Errorf("BucketTable: %q has no column %q", src.Name, column)
	}
	for _, m := range metrics {
		if m.Kind != RollupCount && !contains(src.MetricColumns, m.Column) {
			return nil, fmt.Errorf("BucketTable: %q has no column %q", src.Name, m.Column)
		}
	}

	type acc struct {
		count int
		sums  map[string]float64
	}
	accs := make(map[string]*acc, len(bounds))
	for _, label := range bounds.Labels() {
		accs[label] = &acc{sums: make(map[string]float64)}
	}

	for _, row := range src.Rows {
		label := bounds.Label(row.Values[column])
		a := accs[label]
		a.count++
		for _, m := range metrics {
			if m.Kind != RollupCount {
				a.sums[m.Column] += row.Values[m.Column]
			}
		}
	}

	out := &Table{
		Name:          name,
		KeyColumns:    []string{"segment"},
		MetricColumns: make([]string, len(metrics)),
	}
	for i, m := range metrics {
		out.MetricColumns[i] = m.Name
	}

	for _, label := range bounds.Labels() {
		a := accs[label]
		values := make(map[string]float64, len(metrics))
		for _, m := range metrics {
			switch m.Kind {
			case RollupCount:
				values[m.Name] = float64(a.count)
			case RollupSum:
				values[m.Name] = a.sums[m.Column]
			case RollupAvg:
				if a.count > 0 {
					values[m.Name] = a.sums[m.Column] / float64(a.count)
				}
			}
		}
		out.Rows = append(out.Rows, Row{Key: []string{label}, Values: values})
	}

	out.round()
	return out, nil
}

func contains(cols []string, name string) bool {
	for _, c := range cols {
		if c == name {
			return true
		}
	}
	return false
}
