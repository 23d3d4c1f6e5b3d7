package aggregate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dvloznov/payment-analytics/internal/domain"
)

// KeyFunc extracts one key part for a record. Key funcs that join through
// the profile index return an error on a missing profile instead of
// inventing a placeholder group.
type KeyFunc func(*Dataset, *domain.EnrichedTransaction) (string, error)

// GroupKey is one named dimension of a request's grouping.
type GroupKey struct {
	Column string
	Key    KeyFunc
}

// Field builds a GroupKey from a plain record field.
func Field(column string, f func(*domain.EnrichedTransaction) string) GroupKey {
	return GroupKey{
		Column: column,
		Key: func(_ *Dataset, rec *domain.EnrichedTransaction) (string, error) {
			return f(rec), nil
		},
	}
}

// ProfileField builds a GroupKey from the joined user profile. The join is
// by user_id equality and fails loudly when the profile is missing.
func ProfileField(column string, f func(*domain.UserProfile) string) GroupKey {
	return GroupKey{
		Column: column,
		Key: func(ds *Dataset, rec *domain.EnrichedTransaction) (string, error) {
			p, err := ds.Profile(rec.UserID)
			if err != nil {
				return "", err
			}
			return f(p), nil
		},
	}
}

// BucketField builds a GroupKey that classifies a record value against a
// boundary table.
func BucketField(column string, bounds Boundaries, value func(*domain.EnrichedTransaction) float64) GroupKey {
	return GroupKey{
		Column: column,
		Key: func(_ *Dataset, rec *domain.EnrichedTransaction) (string, error) {
			return bounds.Label(value(rec)), nil
		},
	}
}

// Request describes one metric table: which records it reads, how they
// group, which metrics it computes, and how rows are ordered and capped.
type Request struct {
	Name    string
	Filter  func(*domain.EnrichedTransaction) bool
	GroupBy []GroupKey
	Metrics []Metric

	// OrderBy names the metric to sort by, descending, ties broken by
	// ascending key. Empty means sort by key ascending.
	OrderBy string
	// TopN caps the row count after sorting; 0 means unlimited.
	TopN int

	// DeferRounding leaves the table's values at full precision. Set on
	// tables that feed a second-stage rollup; the rollup stage rounds them
	// once it has consumed the exact rows.
	DeferRounding bool
}

const keySep = "\x1f"

type groupAcc struct {
	keyParts []string
	accs     []metricAcc
}

// Run executes one request over the dataset and materializes its table.
// Every filtered record lands in exactly one group; records are read, never
// mutated.
func Run(ds *Dataset, req Request) (*Table, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("aggregate.Run: request has no name")
	}
	if len(req.GroupBy) == 0 {
		return nil, fmt.Errorf("aggregate.Run: request %q has no group keys", req.Name)
	}

	// External denominators are evaluated over the full dataset before any
	// filtering.
	denoms := make([]float64, len(req.Metrics))
	for i, m := range req.Metrics {
		if m.Kind == RatioToTotal {
			if m.Denominator == nil {
				return nil, fmt.Errorf("aggregate.Run: request %q: metric %q has no denominator", req.Name, m.Name)
			}
			denoms[i] = m.denominatorTotal(ds)
		}
	}

	groups := make(map[string]*groupAcc)
	order := make([]string, 0)

	for _, rec := range ds.Records {
		if req.Filter != nil && !req.Filter(rec) {
			continue
		}

		keyParts := make([]string, len(req.GroupBy))
		for i, gk := range req.GroupBy {
			part, err := gk.Key(ds, rec)
			if err != nil {
				return nil, fmt.Errorf("aggregate.Run: request %q: key %q: %w", req.Name, gk.Column, err)
			}
			keyParts[i] = part
		}
		key := strings.Join(keyParts, keySep)

		g, ok := groups[key]
		if !ok {
			g = &groupAcc{keyParts: keyParts, accs: make([]metricAcc, len(req.Metrics))}
			groups[key] = g
			order = append(order, key)
		}
		for i := range req.Metrics {
			req.Metrics[i].add(&g.accs[i], rec)
		}
	}

	table := &Table{
		Name:          req.Name,
		KeyColumns:    make([]string, len(req.GroupBy)),
		MetricColumns: make([]string, len(req.Metrics)),
		Rows:          make([]Row, 0, len(groups)),
	}
	for i, gk := range req.GroupBy {
		table.KeyColumns[i] = gk.Column
	}
	for i, m := range req.Metrics {
		table.MetricColumns[i] = m.Name
	}

	for _, key := range order {
		g := groups[key]
		values := make(map[string]float64, len(req.Metrics))
		for i := range req.Metrics {
			values[req.Metrics[i].Name] = req.Metrics[i].finalize(&g.accs[i], denoms[i])
		}
		table.Rows = append(table.Rows, Row{Key: g.keyParts, Values: values})
	}

	sortRows(table, req.OrderBy)
	if req.TopN > 0 && len(table.Rows) > req.TopN {
		table.Rows = table.Rows[:req.TopN]
	}
	if !req.DeferRounding {
		table.round()
	}

	return table, nil
}

// sortRows orders by the named metric descending with ascending-key
// tie-break, or by key ascending when no metric is named.
func sortRows(t *Table, orderBy string) {
	sort.SliceStable(t.Rows, func(i, j int) bool {
		if orderBy != "" {
			vi := t.Rows[i].Values[orderBy]
			vj := t.Rows[j].Values[orderBy]
			if vi != vj {
				return vi > vj
			}
		}
		return keyLess(t.Rows[i].Key, t.Rows[j].Key)
	})
}

func keyLess(a, b []string) bool {
	for i := range a {
		if i >= len(b) {
			return false
		}
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}
