package pipeline

import (
	"time"

	"github.com/google/uuid"
)

// Repair rule names used as counter keys in the report. Rules run in this
// order; each is idempotent, so re-running a repaired batch changes nothing.
const (
	RuleDuplicateID        = "duplicate_transaction_id"
	RuleOrphanUser         = "orphan_user_id"
	RuleMissingFailReason  = "missing_failure_reason"
	RuleStrayFailReason    = "stray_failure_reason"
	RuleStrayFraudReason   = "stray_fraud_reason"
	RuleRefundNotSuccess   = "refund_without_success"
	RuleRefundExceedsTotal = "refund_exceeds_amount"
	RuleNegativeValue      = "negative_cashback_or_discount"
	RuleWhitespaceTrim     = "whitespace_trim"
)

// Report is the audit record of a single validation run. Counters never
// reset mid-run; excluded records are counted but the batch always
// continues.
type Report struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time

	TotalTransactions int
	TotalProfiles     int

	SchemaViolations int
	Duplicates       int
	Orphans          int
	NegativeValues   int

	// Repairs maps rule name to the number of records changed by it.
	Repairs map[string]int

	// Errors holds the individual record-level errors for upstream triage.
	Errors []error

	Excluded int
	Clean    int
}

// NewReport creates an empty report with a fresh run ID.
func NewReport() *Report {
	return &Report{
		RunID:     uuid.New().String(),
		StartedAt: time.Now().UTC(),
		Repairs:   make(map[string]int),
	}
}

func (r *Report) addRepair(rule string) {
	r.Repairs[rule]++
}

func (r *Report) addError(err error) {
	r.Errors = append(r.Errors, err)
}

func (r *Report) finish() {
	r.FinishedAt = time.Now().UTC()
}

// TotalRepairs returns the sum of all per-rule repair counts.
func (r *Report) TotalRepairs() int {
	total := 0
	for _, n := range r.Repairs {
		total += n
	}
	return total
}
