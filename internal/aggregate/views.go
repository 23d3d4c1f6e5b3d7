package aggregate

import (
	"fmt"

	"github.com/dvloznov/payment-analytics/internal/domain"
)

// Shorthand predicates and extractors shared across the catalog.
func isSuccess(r *domain.EnrichedTransaction) bool  { return r.Status == domain.StatusSuccess }
func isFailed(r *domain.EnrichedTransaction) bool   { return r.Status == domain.StatusFailed }
func isPending(r *domain.EnrichedTransaction) bool  { return r.Status == domain.StatusPending }
func isFlagged(r *domain.EnrichedTransaction) bool  { return r.IsFlagged }
func isRefunded(r *domain.EnrichedTransaction) bool { return r.IsRefunded }
func everything(r *domain.EnrichedTransaction) bool { return true }

func amount(r *domain.EnrichedTransaction) float64  { return r.Amount }
func savings(r *domain.EnrichedTransaction) float64 { return r.TotalSavings }
func userID(r *domain.EnrichedTransaction) string   { return r.UserID }

func successAmount(r *domain.EnrichedTransaction) float64 {
	if isSuccess(r) {
		return r.Amount
	}
	return 0
}

func failedAmount(r *domain.EnrichedTransaction) float64 {
	if isFailed(r) {
		return r.Amount
	}
	return 0
}

func oneIf(cond func(*domain.EnrichedTransaction) bool) func(*domain.EnrichedTransaction) float64 {
	return func(r *domain.EnrichedTransaction) float64 {
		if cond(r) {
			return 1
		}
		return 0
	}
}

// paymentTypes collapses the five methods into settlement families.
var paymentTypes = map[string]string{
	"UPI":           "Instant",
	"Credit Card":   "Card",
	"Debit Card":    "Card",
	"Net Banking":   "Bank Transfer",
	"Mobile Wallet": "Wallet",
}

// channels collapses platforms into sales channels.
var channels = map[string]string{
	"Mobile App":   "Mobile",
	"Web Browser":  "Web",
	"POS Terminal": "In-Store",
	"QR Code":      "In-Store",
}

// categoryGroups collapses the ten categories into three families.
var categoryGroups = map[string]string{
	"Food & Dining":     "Lifestyle",
	"Shopping":          "Lifestyle",
	"Entertainment":     "Lifestyle",
	"Travel":            "Lifestyle",
	"Bills & Utilities": "Essentials",
	"Groceries":         "Essentials",
	"Health":            "Essentials",
	"Education":         "Essentials",
	"Transfers":         "Financial",
	"Investments":       "Financial",
}

func mapped(dim map[string]string, f func(*domain.EnrichedTransaction) string) func(*domain.EnrichedTransaction) string {
	return func(r *domain.EnrichedTransaction) string {
		if v, ok := dim[f(r)]; ok {
			return v
		}
		return "Other"
	}
}

// UserActivityView is the per-user base table that the segmentation rollups
// re-group; it also backs the top-spender view.
const UserActivityView = "user_activity"

// Catalog returns every single-stage view request. Names are unique; the
// runner rejects duplicates.
func Catalog() []Request {
	successRate := PercentMetric("success_rate", isSuccess)
	avgAmount := AvgMetric("avg_amount", amount)
	revenue := SumMetric("revenue", successAmount)
	txCount := CountMetric("transactions")

	return []Request{
		{
			Name:    "kpi_overview",
			GroupBy: []GroupKey{Field("scope", func(*domain.EnrichedTransaction) string { return "overall" })},
			Metrics: []Metric{
				txCount,
				successRate,
				PercentMetric("failed_rate", isFailed),
				PercentMetric("pending_rate", isPending),
				revenue,
				SumMetric("net_revenue", func(r *domain.EnrichedTransaction) float64 {
					if isSuccess(r) {
						return r.NetAmount
					}
					return 0
				}),
				avgAmount,
				DistinctMetric("unique_users", userID),
				SumMetric("total_cashback", func(r *domain.EnrichedTransaction) float64 { return r.CashbackEarned }),
				SumMetric("total_discount", func(r *domain.EnrichedTransaction) float64 { return r.DiscountApplied }),
				SumMetric("total_savings", savings),
				SumMetric("lost_revenue", failedAmount),
				PercentMetric("fraud_rate", isFlagged),
				PercentMetric("refund_rate", isRefunded),
				SumMetric("total_refunded", func(r *domain.EnrichedTransaction) float64 { return r.RefundAmount }),
			},
		},
		{
			Name:    "monthly_trend",
			GroupBy: []GroupKey{Field("month", func(r *domain.EnrichedTransaction) string { return r.MonthKey })},
			Metrics: []Metric{txCount, successRate, revenue, avgAmount, DistinctMetric("active_users", userID)},
		},
		{
			Name: "quarterly_trend",
			GroupBy: []GroupKey{
				Field("year", func(r *domain.EnrichedTransaction) string { return fmt.Sprintf("%d", r.Year) }),
				Field("quarter", func(r *domain.EnrichedTransaction) string { return r.QuarterKey }),
			},
			Metrics: []Metric{txCount, revenue, successRate},
		},
		{
			Name:    "seasonal_breakdown",
			GroupBy: []GroupKey{Field("season", func(r *domain.EnrichedTransaction) string { return r.Season })},
			Metrics: []Metric{txCount, successRate, avgAmount, revenue},
		},
		{
			Name: "weekend_vs_weekday",
			GroupBy: []GroupKey{Field("day_type", func(r *domain.EnrichedTransaction) string {
				if r.IsWeekend {
					return "Weekend"
				}
				return "Weekday"
			})},
			Metrics: []Metric{txCount, successRate, avgAmount, revenue},
		},
		{
			Name:    "day_of_week",
			GroupBy: []GroupKey{Field("day", func(r *domain.EnrichedTransaction) string { return r.DayName })},
			Metrics: []Metric{txCount, successRate, avgAmount},
		},
		{
			Name:    "hourly_activity",
			GroupBy: []GroupKey{Field("hour", func(r *domain.EnrichedTransaction) string { return fmt.Sprintf("%02d", r.Hour) })},
			Metrics: []Metric{txCount, successRate, PercentMetric("failure_rate", isFailed)},
		},
		{
			Name:    "time_slot_summary",
			GroupBy: []GroupKey{Field("time_slot", func(r *domain.EnrichedTransaction) string { return r.TimeSlot })},
			Metrics: []Metric{txCount, successRate, avgAmount, revenue},
		},
		{
			Name:    "monthly_active_users",
			GroupBy: []GroupKey{Field("month", func(r *domain.EnrichedTransaction) string { return r.MonthKey })},
			Metrics: []Metric{DistinctMetric("active_users", userID), txCount},
		},
		{
			Name: "salary_cycle",
			GroupBy: []GroupKey{Field("cycle", func(r *domain.EnrichedTransaction) string {
				switch {
				case r.IsMonthStart:
					return "Month Start"
				case r.IsMonthEnd:
					return "Month End"
				default:
					return "Mid Month"
				}
			})},
			Metrics: []Metric{txCount, avgAmount, revenue},
		},
		{
			Name:    "method_summary",
			GroupBy: []GroupKey{Field("payment_method", func(r *domain.EnrichedTransaction) string { return r.PaymentMethod })},
			Metrics: []Metric{txCount, successRate, avgAmount, revenue, ShareOfMetric("share_of_volume", everything)},
		},
		{
			Name:    "method_processing",
			GroupBy: []GroupKey{Field("payment_method", func(r *domain.EnrichedTransaction) string { return r.PaymentMethod })},
			Metrics: []Metric{
				txCount,
				AvgMetric("avg_processing_sec", func(r *domain.EnrichedTransaction) float64 { return r.ProcessingTimeSec }),
				PercentMetric("instant_rate", func(r *domain.EnrichedTransaction) bool { return r.ProcessingSpeed == "Instant" }),
			},
		},
		{
			Name:    "cashback_by_method",
			Filter:  func(r *domain.EnrichedTransaction) bool { return r.CashbackEarned > 0 },
			GroupBy: []GroupKey{Field("payment_method", func(r *domain.EnrichedTransaction) string { return r.PaymentMethod })},
			Metrics: []Metric{
				txCount,
				SumMetric("total_cashback", func(r *domain.EnrichedTransaction) float64 { return r.CashbackEarned }),
				AvgMetric("avg_cashback", func(r *domain.EnrichedTransaction) float64 { return r.CashbackEarned }),
			},
		},
		{
			Name:    "category_summary",
			GroupBy: []GroupKey{Field("category", func(r *domain.EnrichedTransaction) string { return r.Category })},
			Metrics: []Metric{txCount, revenue, avgAmount, successRate, ShareOfMetric("share_of_volume", everything)},
		},
		{
			Name:    "category_group_summary",
			GroupBy: []GroupKey{Field("category_group", mapped(categoryGroups, func(r *domain.EnrichedTransaction) string { return r.Category }))},
			Metrics: []Metric{txCount, revenue, avgAmount},
		},
		{
			Name:    "discount_by_category",
			Filter:  func(r *domain.EnrichedTransaction) bool { return r.DiscountApplied > 0 },
			GroupBy: []GroupKey{Field("category", func(r *domain.EnrichedTransaction) string { return r.Category })},
			Metrics: []Metric{
				txCount,
				SumMetric("total_discount", func(r *domain.EnrichedTransaction) float64 { return r.DiscountApplied }),
				AvgMetric("avg_discount", func(r *domain.EnrichedTransaction) float64 { return r.DiscountApplied }),
			},
		},
		{
			Name:    "merchant_leaders",
			GroupBy: []GroupKey{Field("merchant", func(r *domain.EnrichedTransaction) string { return r.Merchant })},
			Metrics: []Metric{txCount, revenue, avgAmount},
			OrderBy: "revenue",
			TopN:    20,
		},
		{
			Name:    "city_summary",
			GroupBy: []GroupKey{Field("city", func(r *domain.EnrichedTransaction) string { return r.City })},
			Metrics: []Metric{txCount, revenue, successRate, DistinctMetric("unique_users", userID)},
		},
		{
			Name:    "payment_type_summary",
			GroupBy: []GroupKey{Field("payment_type", mapped(paymentTypes, func(r *domain.EnrichedTransaction) string { return r.PaymentMethod }))},
			Metrics: []Metric{txCount, revenue, successRate},
		},
		{
			Name:    "failure_reasons",
			Filter:  isFailed,
			GroupBy: []GroupKey{Field("failure_reason", func(r *domain.EnrichedTransaction) string { return r.FailureReason })},
			Metrics: []Metric{
				txCount,
				ShareOfMetric("share_of_failures", isFailed),
				SumMetric("lost_amount", amount),
			},
			OrderBy: "transactions",
		},
		{
			Name:    "failure_by_method",
			Filter:  isFailed,
			GroupBy: []GroupKey{Field("payment_method", func(r *domain.EnrichedTransaction) string { return r.PaymentMethod })},
			Metrics: []Metric{
				txCount,
				ShareOfMetric("share_of_failures", isFailed),
				SumMetric("lost_amount", amount),
				AvgMetric("avg_failed_amount", amount),
			},
		},
		{
			Name:    "failure_by_hour",
			GroupBy: []GroupKey{Field("hour", func(r *domain.EnrichedTransaction) string { return fmt.Sprintf("%02d", r.Hour) })},
			Metrics: []Metric{txCount, PercentMetric("failure_rate", isFailed), SumMetric("failures", oneIf(isFailed))},
		},
		{
			Name:   "method_reason_matrix",
			Filter: isFailed,
			GroupBy: []GroupKey{
				Field("payment_method", func(r *domain.EnrichedTransaction) string { return r.PaymentMethod }),
				Field("failure_reason", func(r *domain.EnrichedTransaction) string { return r.FailureReason }),
			},
			Metrics: []Metric{txCount, ShareOfMetric("share_of_failures", isFailed)},
		},
		{
			Name:    "fraud_reasons",
			Filter:  isFlagged,
			GroupBy: []GroupKey{Field("fraud_reason", func(r *domain.EnrichedTransaction) string { return r.FraudReason })},
			Metrics: []Metric{txCount, ShareOfMetric("share_of_flags", isFlagged), avgAmount},
			OrderBy: "transactions",
		},
		{
			Name:    "fraud_by_method",
			GroupBy: []GroupKey{Field("payment_method", func(r *domain.EnrichedTransaction) string { return r.PaymentMethod })},
			Metrics: []Metric{txCount, PercentMetric("flag_rate", isFlagged), SumMetric("flagged", oneIf(isFlagged))},
		},
		{
			Name:    "fraud_by_time_slot",
			GroupBy: []GroupKey{Field("time_slot", func(r *domain.EnrichedTransaction) string { return r.TimeSlot })},
			Metrics: []Metric{txCount, PercentMetric("flag_rate", isFlagged), SumMetric("flagged", oneIf(isFlagged))},
		},
		{
			Name:    "flagged_amounts",
			Filter:  isFlagged,
			GroupBy: []GroupKey{Field("amount_bucket", func(r *domain.EnrichedTransaction) string { return r.AmountBucket })},
			Metrics: []Metric{txCount, SumMetric("total_amount", amount), ShareOfMetric("share_of_flags", isFlagged)},
		},
		{
			Name:    "refund_by_category",
			Filter:  isRefunded,
			GroupBy: []GroupKey{Field("category", func(r *domain.EnrichedTransaction) string { return r.Category })},
			Metrics: []Metric{
				txCount,
				SumMetric("total_refunded", func(r *domain.EnrichedTransaction) float64 { return r.RefundAmount }),
				AvgMetric("avg_refund", func(r *domain.EnrichedTransaction) float64 { return r.RefundAmount }),
				ShareOfMetric("share_of_refunds", isRefunded),
			},
		},
		{
			Name:    "refund_by_method",
			Filter:  isRefunded,
			GroupBy: []GroupKey{Field("payment_method", func(r *domain.EnrichedTransaction) string { return r.PaymentMethod })},
			Metrics: []Metric{
				txCount,
				SumMetric("total_refunded", func(r *domain.EnrichedTransaction) float64 { return r.RefundAmount }),
				ShareOfMetric("share_of_refunds", isRefunded),
			},
		},
		{
			Name:   "refund_type_split",
			Filter: isRefunded,
			GroupBy: []GroupKey{Field("refund_type", func(r *domain.EnrichedTransaction) string {
				if r.RefundAmount >= r.Amount {
					return "Full"
				}
				return "Partial"
			})},
			Metrics: []Metric{
				txCount,
				SumMetric("total_refunded", func(r *domain.EnrichedTransaction) float64 { return r.RefundAmount }),
				AvgMetric("avg_refund", func(r *domain.EnrichedTransaction) float64 { return r.RefundAmount }),
			},
		},
		{
			Name:    "age_group_summary",
			GroupBy: []GroupKey{ProfileField("age_group", func(p *domain.UserProfile) string { return p.AgeGroup })},
			Metrics: []Metric{txCount, revenue, avgAmount, DistinctMetric("unique_users", userID)},
		},
		{
			Name:    "gender_summary",
			GroupBy: []GroupKey{ProfileField("gender", func(p *domain.UserProfile) string { return p.Gender })},
			Metrics: []Metric{txCount, revenue, avgAmount},
		},
		{
			Name:    "tier_summary",
			GroupBy: []GroupKey{ProfileField("customer_tier", func(p *domain.UserProfile) string { return p.CustomerTier })},
			Metrics: []Metric{txCount, revenue, avgAmount, successRate},
		},
		{
			Name:    "persona_summary",
			GroupBy: []GroupKey{ProfileField("spending_persona", func(p *domain.UserProfile) string { return p.SpendingPersona })},
			Metrics: []Metric{txCount, revenue, avgAmount, SumMetric("total_savings", savings)},
		},
		{
			Name:    "tenure_summary",
			GroupBy: []GroupKey{ProfileField("account_tenure", func(p *domain.UserProfile) string { return p.AccountTenure })},
			Metrics: []Metric{txCount, revenue, successRate},
		},
		{
			Name: "preferred_method_usage",
			GroupBy: []GroupKey{{
				Column: "used_preferred",
				Key: func(ds *Dataset, r *domain.EnrichedTransaction) (string, error) {
					p, err := ds.Profile(r.UserID)
					if err != nil {
						return "", err
					}
					if r.PaymentMethod == p.PreferredMethod {
						return "Preferred", nil
					}
					return "Other", nil
				},
			}},
			Metrics: []Metric{txCount, successRate, avgAmount},
		},
		{
			// Spend counts successful transactions only; activity counts and
			// the failure rate run over every status.
			Name:          UserActivityView,
			GroupBy:       []GroupKey{Field("user_id", userID)},
			DeferRounding: true,
			Metrics: []Metric{
				txCount,
				SumMetric("total_spent", successAmount),
				avgAmount,
				SumMetric("total_savings", savings),
				PercentMetric("failure_rate", isFailed),
			},
		},
		{
			Name:    "top_spenders",
			GroupBy: []GroupKey{Field("user_id", userID)},
			Metrics: []Metric{txCount, SumMetric("total_spent", successAmount), avgAmount},
			OrderBy: "total_spent",
			TopN:    15,
		},
		{
			Name:    "savings_tiers",
			GroupBy: []GroupKey{BucketField("savings_tier", SavingsTiers, savings)},
			Metrics: []Metric{
				txCount,
				SumMetric("total_savings", savings),
				AvgMetric("avg_savings", savings),
				AvgMetric("avg_savings_pct", func(r *domain.EnrichedTransaction) float64 { return r.SavingsPct }),
			},
		},
		{
			Name:    "platform_summary",
			GroupBy: []GroupKey{Field("platform", func(r *domain.EnrichedTransaction) string { return r.Platform })},
			Metrics: []Metric{txCount, successRate, revenue, avgAmount},
		},
		{
			Name:    "channel_summary",
			GroupBy: []GroupKey{Field("channel", mapped(channels, func(r *domain.EnrichedTransaction) string { return r.Platform }))},
			Metrics: []Metric{txCount, revenue, successRate},
		},
		{
			Name:    "device_summary",
			GroupBy: []GroupKey{Field("device_type", func(r *domain.EnrichedTransaction) string { return r.DeviceType })},
			Metrics: []Metric{txCount, revenue, successRate},
		},
		{
			Name:    "android_vs_ios",
			Filter:  func(r *domain.EnrichedTransaction) bool { return r.DeviceType == "Android" || r.DeviceType == "iOS" },
			GroupBy: []GroupKey{Field("device_type", func(r *domain.EnrichedTransaction) string { return r.DeviceType })},
			Metrics: []Metric{txCount, successRate, avgAmount, revenue},
		},
		{
			Name:    "amount_bucket_summary",
			GroupBy: []GroupKey{Field("amount_bucket", func(r *domain.EnrichedTransaction) string { return r.AmountBucket })},
			Metrics: []Metric{txCount, successRate, ShareOfMetric("share_of_volume", everything), revenue},
		},
		{
			Name:    "processing_speed_summary",
			GroupBy: []GroupKey{Field("processing_speed", func(r *domain.EnrichedTransaction) string { return r.ProcessingSpeed })},
			Metrics: []Metric{
				txCount,
				ShareOfMetric("share_of_volume", everything),
				AvgMetric("avg_processing_sec", func(r *domain.EnrichedTransaction) float64 { return r.ProcessingTimeSec }),
			},
		},
	}
}

// Rollups builds the two-stage segmentation tables from the materialized
// per-user activity table. Call after RunAll.
func Rollups(tables map[string]*Table) (map[string]*Table, error) {
	activity, ok := tables[UserActivityView]
	if !ok {
		return nil, fmt.Errorf("Rollups: missing %q table", UserActivityView)
	}

	segments, err := BucketTable(activity, "user_segments", "transactions", FrequencySegments, []RollupMetric{
		{Name: "users", Kind: RollupCount},
		{Name: "avg_transactions", Kind: RollupAvg, Column: "transactions"},
		{Name: "avg_spend", Kind: RollupAvg, Column: "total_spent"},
		{Name: "total_spend", Kind: RollupSum, Column: "total_spent"},
	})
	if err != nil {
		return nil, err
	}

	spendTiers, err := BucketTable(activity, "user_spend_tiers", "total_spent", SpendTiers, []RollupMetric{
		{Name: "users", Kind: RollupCount},
		{Name: "total_spend", Kind: RollupSum, Column: "total_spent"},
		{Name: "avg_transactions", Kind: RollupAvg, Column: "transactions"},
	})
	if err != nil {
		return nil, err
	}

	// The activity table carries full-precision rows so the rollups above
	// aggregate exact values; it is presented too, so round it now.
	activity.round()

	return map[string]*Table{
		segments.Name:   segments,
		spendTiers.Name: spendTiers,
	}, nil
}
