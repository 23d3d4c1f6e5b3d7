package pipeline

import (
	"testing"
	"time"

	"github.com/dvloznov/payment-analytics/internal/domain"
)

func testProfile(userID string) *domain.UserProfile {
	return &domain.UserProfile{
		UserID:          userID,
		AgeGroup:        "25-34",
		Gender:          "Female",
		City:            "Mumbai",
		AccountTenure:   "1-2 years",
		PreferredMethod: "UPI",
		CustomerTier:    "Regular",
		SpendingPersona: "Moderate",
	}
}

func testTransaction(id string) *domain.Transaction {
	return &domain.Transaction{
		TransactionID:     id,
		UserID:            "U1",
		Timestamp:         time.Date(2024, 6, 10, 14, 30, 0, 0, time.UTC),
		PaymentMethod:     "UPI",
		Category:          "Shopping",
		Merchant:          "Amazon",
		Amount:            1000,
		Status:            domain.StatusSuccess,
		Platform:          "Mobile App",
		DeviceType:        "Android",
		City:              "Mumbai",
		ProcessingTimeSec: 1.5,
	}
}

func TestValidator_DuplicateIDs(t *testing.T) {
	a := testTransaction("TXN1")
	b := testTransaction("TXN1")
	b.Amount = 500
	c := testTransaction("TXN2")

	report := NewReport()
	kept := NewValidator([]*domain.UserProfile{testProfile("U1")}).Run([]*domain.Transaction{a, b, c}, report)

	if len(kept) != 2 {
		t.Fatalf("kept = %d, want 2", len(kept))
	}
	if kept[0].Amount != 1000 {
		t.Errorf("first occurrence not kept: amount = %v, want 1000", kept[0].Amount)
	}
	if report.Duplicates != 1 {
		t.Errorf("Duplicates = %d, want 1", report.Duplicates)
	}
	if report.Excluded != 1 {
		t.Errorf("Excluded = %d, want 1", report.Excluded)
	}
}

func TestValidator_OrphanUsers(t *testing.T) {
	a := testTransaction("TXN1")
	b := testTransaction("TXN2")
	b.UserID = "GHOST"

	report := NewReport()
	kept := NewValidator([]*domain.UserProfile{testProfile("U1")}).Run([]*domain.Transaction{a, b}, report)

	if len(kept) != 1 {
		t.Fatalf("kept = %d, want 1", len(kept))
	}
	if report.Orphans != 1 {
		t.Errorf("Orphans = %d, want 1", report.Orphans)
	}

	found := false
	for _, err := range report.Errors {
		if _, ok := err.(*domain.ReferentialIntegrityError); ok {
			found = true
		}
	}
	if !found {
		t.Error("expected a ReferentialIntegrityError in the report")
	}
}

func TestValidator_FailureReasonRules(t *testing.T) {
	tests := []struct {
		name       string
		status     string
		reason     string
		wantReason string
		wantRule   string
	}{
		{
			name:       "failed without reason gets Unknown",
			status:     domain.StatusFailed,
			reason:     "",
			wantReason: domain.UnknownFailureReason,
			wantRule:   RuleMissingFailReason,
		},
		{
			name:       "failed with blank reason gets Unknown",
			status:     domain.StatusFailed,
			reason:     "   ",
			wantReason: domain.UnknownFailureReason,
			wantRule:   RuleMissingFailReason,
		},
		{
			name:       "failed with reason keeps it",
			status:     domain.StatusFailed,
			reason:     "Server Timeout",
			wantReason: "Server Timeout",
		},
		{
			name:       "success with reason gets cleared",
			status:     domain.StatusSuccess,
			reason:     "Server Timeout",
			wantReason: "",
			wantRule:   RuleStrayFailReason,
		},
		{
			name:       "pending with reason gets cleared",
			status:     domain.StatusPending,
			reason:     "Server Timeout",
			wantReason: "",
			wantRule:   RuleStrayFailReason,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := testTransaction("TXN1")
			tx.Status = tt.status
			tx.FailureReason = tt.reason

			report := NewReport()
			kept := NewValidator([]*domain.UserProfile{testProfile("U1")}).Run([]*domain.Transaction{tx}, report)

			if kept[0].FailureReason != tt.wantReason {
				t.Errorf("FailureReason = %q, want %q", kept[0].FailureReason, tt.wantReason)
			}
			if tt.wantRule != "" && report.Repairs[tt.wantRule] != 1 {
				t.Errorf("Repairs[%s] = %d, want 1", tt.wantRule, report.Repairs[tt.wantRule])
			}
		})
	}
}

func TestValidator_FraudReasonCleared(t *testing.T) {
	tx := testTransaction("TXN1")
	tx.IsFlagged = false
	tx.FraudReason = "Unusual Amount"

	report := NewReport()
	kept := NewValidator([]*domain.UserProfile{testProfile("U1")}).Run([]*domain.Transaction{tx}, report)

	if kept[0].FraudReason != "" {
		t.Errorf("FraudReason = %q, want cleared", kept[0].FraudReason)
	}
	if report.Repairs[RuleStrayFraudReason] != 1 {
		t.Errorf("Repairs[%s] = %d, want 1", RuleStrayFraudReason, report.Repairs[RuleStrayFraudReason])
	}
}

func TestValidator_RefundRules(t *testing.T) {
	t.Run("refund on failed transaction is reset", func(t *testing.T) {
		tx := testTransaction("TXN1")
		tx.Status = domain.StatusFailed
		tx.FailureReason = "Server Timeout"
		tx.IsRefunded = true
		tx.RefundAmount = 300

		report := NewReport()
		kept := NewValidator([]*domain.UserProfile{testProfile("U1")}).Run([]*domain.Transaction{tx}, report)

		if kept[0].IsRefunded {
			t.Error("IsRefunded = true, want reset to false")
		}
		if kept[0].RefundAmount != 0 {
			t.Errorf("RefundAmount = %v, want 0", kept[0].RefundAmount)
		}
	})

	t.Run("refund above amount is capped", func(t *testing.T) {
		tx := testTransaction("TXN1")
		tx.Amount = 2000
		tx.IsRefunded = true
		tx.RefundAmount = 2500

		report := NewReport()
		kept := NewValidator([]*domain.UserProfile{testProfile("U1")}).Run([]*domain.Transaction{tx}, report)

		if kept[0].RefundAmount != 2000 {
			t.Errorf("RefundAmount = %v, want capped to 2000", kept[0].RefundAmount)
		}
		if report.Repairs[RuleRefundExceedsTotal] != 1 {
			t.Errorf("Repairs[%s] = %d, want 1", RuleRefundExceedsTotal, report.Repairs[RuleRefundExceedsTotal])
		}
	})
}

func TestValidator_NegativeValuesReportedNotClamped(t *testing.T) {
	tx := testTransaction("TXN1")
	tx.CashbackEarned = -50
	tx.DiscountApplied = -10

	report := NewReport()
	kept := NewValidator([]*domain.UserProfile{testProfile("U1")}).Run([]*domain.Transaction{tx}, report)

	if kept[0].CashbackEarned != -50 || kept[0].DiscountApplied != -10 {
		t.Error("negative values must be reported, not clamped")
	}
	if report.NegativeValues != 2 {
		t.Errorf("NegativeValues = %d, want 2", report.NegativeValues)
	}
}

func TestValidator_WhitespaceTrim(t *testing.T) {
	tx := testTransaction("TXN1")
	tx.Merchant = "  Amazon  "
	tx.City = " Mumbai"

	report := NewReport()
	kept := NewValidator([]*domain.UserProfile{testProfile("U1")}).Run([]*domain.Transaction{tx}, report)

	if kept[0].Merchant != "Amazon" || kept[0].City != "Mumbai" {
		t.Errorf("fields not trimmed: merchant=%q city=%q", kept[0].Merchant, kept[0].City)
	}
	if report.Repairs[RuleWhitespaceTrim] != 1 {
		t.Errorf("Repairs[%s] = %d, want 1", RuleWhitespaceTrim, report.Repairs[RuleWhitespaceTrim])
	}
}

// Running the validator over an already-repaired batch must change nothing
// and record no repairs.
func TestValidator_Idempotent(t *testing.T) {
	a := testTransaction("TXN1")
	a.Status = domain.StatusFailed
	a.IsRefunded = true
	a.RefundAmount = 1500
	b := testTransaction("TXN2")
	b.Merchant = " Flipkart "

	profiles := []*domain.UserProfile{testProfile("U1")}

	first := NewReport()
	kept := NewValidator(profiles).Run([]*domain.Transaction{a, b}, first)
	if first.TotalRepairs() == 0 {
		t.Fatal("first pass expected repairs")
	}

	second := NewReport()
	again := NewValidator(profiles).Run(kept, second)

	if second.TotalRepairs() != 0 {
		t.Errorf("second pass repairs = %d, want 0 (%v)", second.TotalRepairs(), second.Repairs)
	}
	if len(again) != len(kept) {
		t.Errorf("second pass kept = %d, want %d", len(again), len(kept))
	}
}
