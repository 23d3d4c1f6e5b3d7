package pipeline

import (
	"fmt"

	"github.com/dvloznov/payment-analytics/internal/domain"
)

// Season labels.
const (
	SeasonFestival = "Festival Season"
	SeasonSale     = "Sale Season"
	SeasonNormal   = "Normal"
)

// Enrich computes every derived field for a repaired transaction. All
// derivations are total: given a valid transaction this never fails, so
// enrichment can run unconditionally after validation.
func Enrich(t *domain.Transaction) *domain.EnrichedTransaction {
	ts := t.Timestamp
	year, month, day := ts.Date()
	_, week := ts.ISOWeek()
	quarter := (int(month)-1)/3 + 1

	d := domain.Derived{
		Date:       ts.Format("2006-01-02"),
		Year:       year,
		Month:      int(month),
		MonthName:  ts.Format("Jan"),
		MonthKey:   ts.Format("2006-01"),
		Day:        day,
		DayName:    ts.Weekday().String(),
		Hour:       ts.Hour(),
		WeekNumber: week,
		Quarter:    quarter,
		QuarterKey: fmt.Sprintf("Q%d", quarter),

		IsMonthStart: day <= 5,
		IsMonthEnd:   day >= 26,

		TimeSlot:        timeSlot(ts.Hour()),
		Season:          season(int(month)),
		IsFestivalMonth: int(month) == 10 || int(month) == 11,

		AmountBucket: amountBucket(t.Amount),

		NetAmount:    netAmount(t.Amount, t.DiscountApplied, t.CashbackEarned),
		TotalSavings: t.CashbackEarned + t.DiscountApplied,
		SavingsPct:   savingsPct(t.Amount, t.CashbackEarned+t.DiscountApplied),

		ProcessingSpeed: processingSpeed(t.Status, t.ProcessingTimeSec),
	}

	return &domain.EnrichedTransaction{Transaction: *t, Derived: d}
}

// timeSlot maps an hour of day to its named slot. Night wraps midnight
// (22:00 through 04:59).
func timeSlot(hour int) string {
	switch {
	case hour >= 5 && hour <= 11:
		return "Morning"
	case hour >= 12 && hour <= 16:
		return "Afternoon"
	case hour >= 17 && hour <= 21:
		return "Evening"
	default:
		return "Night"
	}
}

// season classifies a month into the three-way seasonal label.
func season(month int) string {
	switch month {
	case 10, 11:
		return SeasonFestival
	case 1, 8, 12:
		return SeasonSale
	default:
		return SeasonNormal
	}
}

// amountBucket assigns the transaction amount to its size bucket.
// Boundaries are inclusive below, exclusive above.
func amountBucket(amount float64) string {
	switch {
	case amount < 100:
		return "Micro"
	case amount < 500:
		return "Small"
	case amount < 2000:
		return "Medium"
	case amount < 10000:
		return "Large"
	case amount < 50000:
		return "High"
	default:
		return "Premium"
	}
}

// netAmount is the amount net of discount and cashback, floored at zero so
// over-promoted transactions never go negative.
func netAmount(amount, discount, cashback float64) float64 {
	net := amount - discount - cashback
	if net < 0 {
		return 0
	}
	return net
}

func savingsPct(amount, savings float64) float64 {
	if amount <= 0 {
		return 0
	}
	return savings / amount * 100
}

// processingSpeed classifies processing time. Failed transactions always
// report "Failed" regardless of how fast they failed.
func processingSpeed(status string, seconds float64) string {
	if status == domain.StatusFailed {
		return "Failed"
	}
	switch {
	case seconds <= 1:
		return "Instant"
	case seconds <= 2:
		return "Fast"
	case seconds <= 5:
		return "Normal"
	case seconds <= 15:
		return "Slow"
	default:
		return "VerySlow"
	}
}
