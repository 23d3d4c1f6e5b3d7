package bigquery

import (
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"

	"github.com/dvloznov/payment-analytics/internal/domain"
)

// TransactionRow mirrors the payments.transactions table.
type TransactionRow struct {
	TransactionID string    `bigquery:"transaction_id"` // REQUIRED
	UserID        string    `bigquery:"user_id"`        // REQUIRED
	Timestamp     time.Time `bigquery:"timestamp"`      // REQUIRED

	PaymentMethod string  `bigquery:"payment_method"`
	Category      string  `bigquery:"merchant_category"`
	Merchant      string  `bigquery:"merchant_name"`
	Amount        float64 `bigquery:"amount"`
	Status        string  `bigquery:"transaction_status"`

	FailureReason bigquery.NullString `bigquery:"failure_reason"` // NULLABLE

	Platform          string  `bigquery:"platform"`
	DeviceType        string  `bigquery:"device_type"`
	City              string  `bigquery:"location_city"`
	ProcessingTimeSec float64 `bigquery:"processing_time_sec"`
	IsWeekend         bool    `bigquery:"is_weekend"`
	CashbackEarned    float64 `bigquery:"cashback_earned"`
	DiscountApplied   float64 `bigquery:"discount_applied"`

	IsFlagged   bool                `bigquery:"is_flagged_fraud"`
	FraudReason bigquery.NullString `bigquery:"fraud_reason"` // NULLABLE

	IsRefunded   bool    `bigquery:"is_refunded"`
	RefundAmount float64 `bigquery:"refund_amount"`
}

// ToDomain converts a stored row into the domain record.
func (r *TransactionRow) ToDomain() *domain.Transaction {
	return &domain.Transaction{
		TransactionID:     r.TransactionID,
		UserID:            r.UserID,
		Timestamp:         r.Timestamp,
		PaymentMethod:     r.PaymentMethod,
		Category:          r.Category,
		Merchant:          r.Merchant,
		Amount:            r.Amount,
		Status:            r.Status,
		FailureReason:     r.FailureReason.StringVal,
		Platform:          r.Platform,
		DeviceType:        r.DeviceType,
		City:              r.City,
		ProcessingTimeSec: r.ProcessingTimeSec,
		IsWeekend:         r.IsWeekend,
		CashbackEarned:    r.CashbackEarned,
		DiscountApplied:   r.DiscountApplied,
		IsFlagged:         r.IsFlagged,
		FraudReason:       r.FraudReason.StringVal,
		IsRefunded:        r.IsRefunded,
		RefundAmount:      r.RefundAmount,
	}
}

// UserProfileRow mirrors the payments.user_profiles table.
type UserProfileRow struct {
	UserID          string `bigquery:"user_id"` // REQUIRED
	AgeGroup        string `bigquery:"age_group"`
	Gender          string `bigquery:"gender"`
	City            string `bigquery:"city"`
	AccountTenure   string `bigquery:"account_age"`
	PreferredMethod string `bigquery:"preferred_payment_method"`
	CustomerTier    string `bigquery:"customer_tier"`
	SpendingPersona string `bigquery:"spending_persona"`
}

// ToDomain converts a stored row into the domain record.
func (r *UserProfileRow) ToDomain() *domain.UserProfile {
	return &domain.UserProfile{
		UserID:          r.UserID,
		AgeGroup:        r.AgeGroup,
		Gender:          r.Gender,
		City:            r.City,
		AccountTenure:   r.AccountTenure,
		PreferredMethod: r.PreferredMethod,
		CustomerTier:    r.CustomerTier,
		SpendingPersona: r.SpendingPersona,
	}
}

// EnrichedRow mirrors the payments.enriched_transactions table: the
// repaired record plus every derived field, stamped with the run that
// produced it.
type EnrichedRow struct {
	RunID string `bigquery:"run_id"` // REQUIRED

	TransactionID string     `bigquery:"transaction_id"` // REQUIRED
	UserID        string     `bigquery:"user_id"`
	Timestamp     time.Time  `bigquery:"timestamp"`
	Date          civil.Date `bigquery:"txn_date"`

	PaymentMethod string  `bigquery:"payment_method"`
	Category      string  `bigquery:"merchant_category"`
	Merchant      string  `bigquery:"merchant_name"`
	Amount        float64 `bigquery:"amount"`
	Status        string  `bigquery:"transaction_status"`

	FailureReason bigquery.NullString `bigquery:"failure_reason"`

	Platform          string  `bigquery:"platform"`
	DeviceType        string  `bigquery:"device_type"`
	City              string  `bigquery:"location_city"`
	ProcessingTimeSec float64 `bigquery:"processing_time_sec"`
	IsWeekend         bool    `bigquery:"is_weekend"`
	CashbackEarned    float64 `bigquery:"cashback_earned"`
	DiscountApplied   float64 `bigquery:"discount_applied"`

	IsFlagged   bool                `bigquery:"is_flagged_fraud"`
	FraudReason bigquery.NullString `bigquery:"fraud_reason"`

	IsRefunded   bool    `bigquery:"is_refunded"`
	RefundAmount float64 `bigquery:"refund_amount"`

	Year       int64  `bigquery:"year"`
	Month      int64  `bigquery:"month"`
	MonthName  string `bigquery:"month_name"`
	MonthKey   string `bigquery:"month_key"`
	Day        int64  `bigquery:"day"`
	DayName    string `bigquery:"day_name"`
	Hour       int64  `bigquery:"hour"`
	WeekNumber int64  `bigquery:"week_number"`
	Quarter    int64  `bigquery:"quarter"`

	IsMonthStart bool `bigquery:"is_month_start"`
	IsMonthEnd   bool `bigquery:"is_month_end"`

	TimeSlot        string `bigquery:"time_slot"`
	Season          string `bigquery:"season"`
	IsFestivalMonth bool   `bigquery:"is_festival_season"`

	AmountBucket string `bigquery:"amount_bucket"`

	NetAmount    float64 `bigquery:"net_amount"`
	TotalSavings float64 `bigquery:"total_savings"`
	SavingsPct   float64 `bigquery:"savings_pct"`

	ProcessingSpeed string `bigquery:"processing_speed"`
}

func nullString(s string) bigquery.NullString {
	if s == "" {
		return bigquery.NullString{}
	}
	return bigquery.NullString{StringVal: s, Valid: true}
}

// NewEnrichedRow maps an enriched domain record into its table row.
func NewEnrichedRow(runID string, e *domain.EnrichedTransaction) *EnrichedRow {
	return &EnrichedRow{
		RunID: runID,

		TransactionID: e.TransactionID,
		UserID:        e.UserID,
		Timestamp:     e.Timestamp,
		Date:          civil.DateOf(e.Timestamp),

		PaymentMethod: e.PaymentMethod,
		Category:      e.Category,
		Merchant:      e.Merchant,
		Amount:        e.Amount,
		Status:        e.Status,

		FailureReason: nullString(e.FailureReason),

		Platform:          e.Platform,
		DeviceType:        e.DeviceType,
		City:              e.City,
		ProcessingTimeSec: e.ProcessingTimeSec,
		IsWeekend:         e.IsWeekend,
		CashbackEarned:    e.CashbackEarned,
		DiscountApplied:   e.DiscountApplied,

		IsFlagged:   e.IsFlagged,
		FraudReason: nullString(e.FraudReason),

		IsRefunded:   e.IsRefunded,
		RefundAmount: e.RefundAmount,

		Year:       int64(e.Year),
		Month:      int64(e.Month),
		MonthName:  e.MonthName,
		MonthKey:   e.MonthKey,
		Day:        int64(e.Day),
		DayName:    e.DayName,
		Hour:       int64(e.Hour),
		WeekNumber: int64(e.WeekNumber),
		Quarter:    int64(e.Quarter),

		IsMonthStart: e.IsMonthStart,
		IsMonthEnd:   e.IsMonthEnd,

		TimeSlot:        e.TimeSlot,
		Season:          e.Season,
		IsFestivalMonth: e.IsFestivalMonth,

		AmountBucket: e.AmountBucket,

		NetAmount:    e.NetAmount,
		TotalSavings: e.TotalSavings,
		SavingsPct:   e.SavingsPct,

		ProcessingSpeed: e.ProcessingSpeed,
	}
}

// MetricCell is one (view, group, metric) value of a materialized table,
// flattened for the payments.metric_cells long table. It implements
// bigquery.ValueSaver so inserts carry a deduplicating insert ID per run.
type MetricCell struct {
	RunID    string
	View     string
	GroupKey string
	Metric   string
	Value    float64
}

// Save implements bigquery.ValueSaver.
func (c *MetricCell) Save() (map[string]bigquery.Value, string, error) {
	row := map[string]bigquery.Value{
		"run_id":    c.RunID,
		"view":      c.View,
		"group_key": c.GroupKey,
		"metric":    c.Metric,
		"value":     c.Value,
	}
	insertID := c.RunID + "/" + c.View + "/" + c.GroupKey + "/" + c.Metric
	return row, insertID, nil
}

var _ bigquery.ValueSaver = (*MetricCell)(nil)
