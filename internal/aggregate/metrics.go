package aggregate

import (
	"github.com/dvloznov/payment-analytics/internal/domain"
)

// MetricKind selects the reducer applied per group.
type MetricKind int

const (
	// Count counts the records in the group.
	Count MetricKind = iota
	// Sum totals Value over the group.
	Sum
	// Average is Sum divided by the group count; 0 for an empty group.
	Average
	// Percent is the share of group records matching Cond, as a percentage.
	Percent
	// DistinctCount counts distinct Distinct() values in the group.
	DistinctCount
	// RatioToTotal divides the group's total against an external
	// denominator: the records of the FULL unfiltered dataset matching
	// Denominator, as a percentage. The denominator is explicit per metric;
	// there is no implicit "grand total".
	RatioToTotal
)

// Metric is one named column of a metric table. Which funcs must be set
// depends on Kind: Value for Sum/Average (and optionally RatioToTotal,
// which counts records when Value is nil), Cond for Percent, Distinct for
// DistinctCount, Denominator for RatioToTotal.
type Metric struct {
	Name        string
	Kind        MetricKind
	Value       func(*domain.EnrichedTransaction) float64
	Cond        func(*domain.EnrichedTransaction) bool
	Distinct    func(*domain.EnrichedTransaction) string
	Denominator func(*domain.EnrichedTransaction) bool
}

// CountMetric counts records per group.
func CountMetric(name string) Metric {
	return Metric{Name: name, Kind: Count}
}

// SumMetric totals value per group.
func SumMetric(name string, value func(*domain.EnrichedTransaction) float64) Metric {
	return Metric{Name: name, Kind: Sum, Value: value}
}

// AvgMetric averages value per group.
func AvgMetric(name string, value func(*domain.EnrichedTransaction) float64) Metric {
	return Metric{Name: name, Kind: Average, Value: value}
}

// PercentMetric is the share of group records matching cond.
func PercentMetric(name string, cond func(*domain.EnrichedTransaction) bool) Metric {
	return Metric{Name: name, Kind: Percent, Cond: cond}
}

// DistinctMetric counts distinct key() values per group.
func DistinctMetric(name string, key func(*domain.EnrichedTransaction) string) Metric {
	return Metric{Name: name, Kind: DistinctCount, Distinct: key}
}

// ShareOfMetric is the group's record count as a percentage of all records
// in the full dataset matching denominator.
func ShareOfMetric(name string, denominator func(*domain.EnrichedTransaction) bool) Metric {
	return Metric{Name: name, Kind: RatioToTotal, Denominator: denominator}
}

// ShareOfSumMetric is the group's total of value as a percentage of the
// same total over all records in the full dataset matching denominator.
func ShareOfSumMetric(name string, value func(*domain.EnrichedTransaction) float64, denominator func(*domain.EnrichedTransaction) bool) Metric {
	return Metric{Name: name, Kind: RatioToTotal, Value: value, Denominator: denominator}
}

// metricAcc accumulates one metric over one group.
type metricAcc struct {
	count    int
	matched  int
	sum      float64
	distinct map[string]bool
}

func (m *Metric) add(acc *metricAcc, rec *domain.EnrichedTransaction) {
	acc.count++
	switch m.Kind {
	case Sum, Average:
		acc.sum += m.Value(rec)
	case Percent:
		if m.Cond(rec) {
			acc.matched++
		}
	case DistinctCount:
		if acc.distinct == nil {
			acc.distinct = make(map[string]bool)
		}
		acc.distinct[m.Distinct(rec)] = true
	case RatioToTotal:
		if m.Value != nil {
			acc.sum += m.Value(rec)
		} else {
			acc.sum++
		}
	}
}

// finalize computes the metric value for a group. denom is only meaningful
// for RatioToTotal.
func (m *Metric) finalize(acc *metricAcc, denom float64) float64 {
	switch m.Kind {
	case Count:
		return float64(acc.count)
	case Sum:
		return acc.sum
	case Average:
		if acc.count == 0 {
			return 0
		}
		return acc.sum / float64(acc.count)
	case Percent:
		if acc.count == 0 {
			return 0
		}
		return float64(acc.matched) / float64(acc.count) * 100
	case DistinctCount:
		return float64(len(acc.distinct))
	case RatioToTotal:
		if denom == 0 {
			return 0
		}
		return acc.sum / denom * 100
	}
	return 0
}

// denominatorTotal evaluates a RatioToTotal metric's denominator over the
// full dataset, ignoring any request filter.
func (m *Metric) denominatorTotal(ds *Dataset) float64 {
	total := 0.0
	for _, rec := range ds.Records {
		if !m.Denominator(rec) {
			continue
		}
		if m.Value != nil {
			total += m.Value(rec)
		} else {
			total++
		}
	}
	return total
}
