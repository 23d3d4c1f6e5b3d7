package pipeline

import (
	"strings"

	"github.com/dvloznov/payment-analytics/internal/domain"
)

// Validator applies the ordered repair rules to a batch of transactions
// against a profile lookup map. Rules are idempotent: running a repaired
// batch through the validator again changes nothing and adds no counts.
type Validator struct {
	profiles map[string]*domain.UserProfile
}

// NewValidator builds a validator over the given profile set.
func NewValidator(profiles []*domain.UserProfile) *Validator {
	lookup := make(map[string]*domain.UserProfile, len(profiles))
	for _, p := range profiles {
		lookup[p.UserID] = p
	}
	return &Validator{profiles: lookup}
}

// Profiles returns the profile lookup map keyed by user ID.
func (v *Validator) Profiles() map[string]*domain.UserProfile {
	return v.profiles
}

// Run validates and repairs the batch in rule order, recording every repair
// and exclusion in the report. It returns the surviving records; excluded
// records (duplicates past the first, orphans) are counted and surfaced as
// errors but never abort the run.
func (v *Validator) Run(txs []*domain.Transaction, report *Report) []*domain.Transaction {
	kept := v.dropDuplicates(txs, report)
	kept = v.dropOrphans(kept, report)

	for _, t := range kept {
		v.repairFailureReason(t, report)
		v.repairFraudReason(t, report)
		v.repairRefund(t, report)
		v.reportNegativeValues(t, report)
		v.trimWhitespace(t, report)
	}

	report.Clean = len(kept)
	report.Excluded = len(txs) - len(kept)
	return kept
}

// dropDuplicates keeps the first occurrence of each transaction ID and
// excludes the rest.
func (v *Validator) dropDuplicates(txs []*domain.Transaction, report *Report) []*domain.Transaction {
	seen := make(map[string]bool, len(txs))
	kept := make([]*domain.Transaction, 0, len(txs))
	for _, t := range txs {
		if seen[t.TransactionID] {
			report.Duplicates++
			report.addRepair(RuleDuplicateID)
			report.addError(&domain.DuplicateKeyError{TransactionID: t.TransactionID})
			continue
		}
		seen[t.TransactionID] = true
		kept = append(kept, t)
	}
	return kept
}

// dropOrphans excludes transactions whose user has no profile record.
func (v *Validator) dropOrphans(txs []*domain.Transaction, report *Report) []*domain.Transaction {
	kept := make([]*domain.Transaction, 0, len(txs))
	for _, t := range txs {
		if _, ok := v.profiles[t.UserID]; !ok {
			report.Orphans++
			report.addRepair(RuleOrphanUser)
			report.addError(&domain.ReferentialIntegrityError{TransactionID: t.TransactionID, UserID: t.UserID})
			continue
		}
		kept = append(kept, t)
	}
	return kept
}

// repairFailureReason enforces the status/failure_reason pairing: failed
// transactions always carry a reason, non-failed ones never do.
func (v *Validator) repairFailureReason(t *domain.Transaction, report *Report) {
	if t.Status == domain.StatusFailed {
		if strings.TrimSpace(t.FailureReason) == "" {
			t.FailureReason = domain.UnknownFailureReason
			report.addRepair(RuleMissingFailReason)
		}
		return
	}
	if t.FailureReason != "" {
		t.FailureReason = ""
		report.addRepair(RuleStrayFailReason)
	}
}

// repairFraudReason clears fraud reasons on unflagged transactions.
func (v *Validator) repairFraudReason(t *domain.Transaction, report *Report) {
	if !t.IsFlagged && t.FraudReason != "" {
		t.FraudReason = ""
		report.addRepair(RuleStrayFraudReason)
	}
}

// repairRefund resets refunds on non-successful transactions and caps
// refund amounts at the transaction amount.
func (v *Validator) repairRefund(t *domain.Transaction, report *Report) {
	if t.IsRefunded && t.Status != domain.StatusSuccess {
		t.IsRefunded = false
		t.RefundAmount = 0
		report.addRepair(RuleRefundNotSuccess)
	}
	if t.RefundAmount > t.Amount {
		t.RefundAmount = t.Amount
		report.addRepair(RuleRefundExceedsTotal)
	}
}

// reportNegativeValues records negative cashback/discount without changing
// them; the source system owns the fix.
func (v *Validator) reportNegativeValues(t *domain.Transaction, report *Report) {
	if t.CashbackEarned < 0 {
		report.NegativeValues++
		report.addRepair(RuleNegativeValue)
		report.addError(&domain.NegativeValueError{TransactionID: t.TransactionID, Field: "cashback_earned", Value: t.CashbackEarned})
	}
	if t.DiscountApplied < 0 {
		report.NegativeValues++
		report.addRepair(RuleNegativeValue)
		report.addError(&domain.NegativeValueError{TransactionID: t.TransactionID, Field: "discount_applied", Value: t.DiscountApplied})
	}
}

// trimWhitespace strips leading/trailing whitespace from every text field.
// Runs last so the other rules see values as delivered.
func (v *Validator) trimWhitespace(t *domain.Transaction, report *Report) {
	trimmed := false
	trim := func(s string) string {
		out := strings.TrimSpace(s)
		if out != s {
			trimmed = true
		}
		return out
	}

	t.TransactionID = trim(t.TransactionID)
	t.UserID = trim(t.UserID)
	t.PaymentMethod = trim(t.PaymentMethod)
	t.Category = trim(t.Category)
	t.Merchant = trim(t.Merchant)
	t.Status = trim(t.Status)
	t.FailureReason = trim(t.FailureReason)
	t.Platform = trim(t.Platform)
	t.DeviceType = trim(t.DeviceType)
	t.City = trim(t.City)
	t.FraudReason = trim(t.FraudReason)

	if trimmed {
		report.addRepair(RuleWhitespaceTrim)
	}
}
