package pipeline

import (
	"testing"
	"time"

	"github.com/dvloznov/payment-analytics/internal/domain"
)

func TestAmountBucket(t *testing.T) {
	tests := []struct {
		amount float64
		want   string
	}{
		{0.01, "Micro"},
		{99.99, "Micro"},
		{100.00, "Small"},
		{499.99, "Small"},
		{500.00, "Medium"},
		{1999.99, "Medium"},
		{2000.00, "Large"},
		{9999.99, "Large"},
		{10000.00, "High"},
		{49999.99, "High"},
		{50000.00, "Premium"},
		{250000.00, "Premium"},
	}

	for _, tt := range tests {
		if got := amountBucket(tt.amount); got != tt.want {
			t.Errorf("amountBucket(%v) = %q, want %q", tt.amount, got, tt.want)
		}
	}
}

func TestTimeSlot(t *testing.T) {
	tests := []struct {
		hour int
		want string
	}{
		{5, "Morning"},
		{11, "Morning"},
		{12, "Afternoon"},
		{16, "Afternoon"},
		{17, "Evening"},
		{21, "Evening"},
		{22, "Night"},
		{23, "Night"},
		{0, "Night"},
		{4, "Night"},
	}

	for _, tt := range tests {
		if got := timeSlot(tt.hour); got != tt.want {
			t.Errorf("timeSlot(%d) = %q, want %q", tt.hour, got, tt.want)
		}
	}
}

func TestSeason(t *testing.T) {
	tests := []struct {
		month int
		want  string
	}{
		{10, SeasonFestival},
		{11, SeasonFestival},
		{1, SeasonSale},
		{8, SeasonSale},
		{12, SeasonSale},
		{2, SeasonNormal},
		{6, SeasonNormal},
		{9, SeasonNormal},
	}

	for _, tt := range tests {
		if got := season(tt.month); got != tt.want {
			t.Errorf("season(%d) = %q, want %q", tt.month, got, tt.want)
		}
	}
}

func TestProcessingSpeed(t *testing.T) {
	tests := []struct {
		name    string
		status  string
		seconds float64
		want    string
	}{
		{"exactly one second is Instant", domain.StatusSuccess, 1.00, "Instant"},
		{"just over one second is Fast", domain.StatusSuccess, 1.01, "Fast"},
		{"two seconds is Fast", domain.StatusSuccess, 2.0, "Fast"},
		{"five seconds is Normal", domain.StatusSuccess, 5.0, "Normal"},
		{"fifteen seconds is Slow", domain.StatusSuccess, 15.0, "Slow"},
		{"above fifteen is VerySlow", domain.StatusSuccess, 15.01, "VerySlow"},
		{"failed stays Failed however fast", domain.StatusFailed, 0.5, "Failed"},
		{"pending classifies by time", domain.StatusPending, 0.5, "Instant"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := processingSpeed(tt.status, tt.seconds); got != tt.want {
				t.Errorf("processingSpeed(%q, %v) = %q, want %q", tt.status, tt.seconds, got, tt.want)
			}
		})
	}
}

func TestNetAmount(t *testing.T) {
	tests := []struct {
		amount, discount, cashback float64
		want                       float64
	}{
		{1000, 30, 20, 950},
		{100, 80, 30, 0}, // floored at zero
		{100, 0, 0, 100},
	}

	for _, tt := range tests {
		if got := netAmount(tt.amount, tt.discount, tt.cashback); got != tt.want {
			t.Errorf("netAmount(%v, %v, %v) = %v, want %v", tt.amount, tt.discount, tt.cashback, got, tt.want)
		}
	}
}

func TestEnrich_CalendarFields(t *testing.T) {
	tx := testTransaction("TXN1")
	tx.Timestamp = time.Date(2024, 11, 2, 23, 15, 0, 0, time.UTC) // Saturday night, festival month
	tx.Amount = 1500
	tx.DiscountApplied = 100
	tx.CashbackEarned = 50

	e := Enrich(tx)

	if e.Date != "2024-11-02" {
		t.Errorf("Date = %q, want 2024-11-02", e.Date)
	}
	if e.MonthKey != "2024-11" {
		t.Errorf("MonthKey = %q, want 2024-11", e.MonthKey)
	}
	if e.MonthName != "Nov" {
		t.Errorf("MonthName = %q, want Nov", e.MonthName)
	}
	if e.DayName != "Saturday" {
		t.Errorf("DayName = %q, want Saturday", e.DayName)
	}
	if e.Quarter != 4 || e.QuarterKey != "Q4" {
		t.Errorf("Quarter = %d/%q, want 4/Q4", e.Quarter, e.QuarterKey)
	}
	if !e.IsMonthStart {
		t.Error("IsMonthStart = false, want true for day 2")
	}
	if e.IsMonthEnd {
		t.Error("IsMonthEnd = true, want false for day 2")
	}
	if e.TimeSlot != "Night" {
		t.Errorf("TimeSlot = %q, want Night", e.TimeSlot)
	}
	if e.Season != SeasonFestival || !e.IsFestivalMonth {
		t.Errorf("Season = %q (festival=%v), want Festival Season", e.Season, e.IsFestivalMonth)
	}
	if e.AmountBucket != "Medium" {
		t.Errorf("AmountBucket = %q, want Medium", e.AmountBucket)
	}
	if e.NetAmount != 1350 {
		t.Errorf("NetAmount = %v, want 1350", e.NetAmount)
	}
	if e.TotalSavings != 150 {
		t.Errorf("TotalSavings = %v, want 150", e.TotalSavings)
	}
	if e.SavingsPct != 10 {
		t.Errorf("SavingsPct = %v, want 10", e.SavingsPct)
	}
}

// Enrichment is pure: the same input always yields the same output and the
// source transaction is untouched.
func TestEnrich_Pure(t *testing.T) {
	tx := testTransaction("TXN1")
	before := *tx

	a := Enrich(tx)
	b := Enrich(tx)

	if *a != *b {
		t.Error("Enrich is not deterministic")
	}
	if *tx != before {
		t.Error("Enrich mutated its input")
	}
}
