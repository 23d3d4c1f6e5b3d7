package aggregate

import "math"

// Row is one group of a materialized table: its key parts in group-key
// order, and one value per metric column.
type Row struct {
	Key    []string
	Values map[string]float64
}

// Table is a materialized metric table. Values are rounded half-up to two
// decimals exactly once, when the table is built.
type Table struct {
	Name          string
	KeyColumns    []string
	MetricColumns []string
	Rows          []Row
}

// Round2 rounds half-up to two decimals, symmetric around zero.
func Round2(v float64) float64 {
	if v < 0 {
		return -math.Floor(-v*100+0.5) / 100
	}
	return math.Floor(v*100+0.5) / 100
}

func (t *Table) round() {
	for _, row := range t.Rows {
		for name, v := range row.Values {
			row.Values[name] = Round2(v)
		}
	}
}

// Value looks up a metric value by key parts. The second return reports
// whether the row exists.
func (t *Table) Value(metric string, key ...string) (float64, bool) {
	for _, row := range t.Rows {
		if keyEqual(row.Key, key) {
			v, ok := row.Values[metric]
			return v, ok
		}
	}
	return 0, false
}

func keyEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
