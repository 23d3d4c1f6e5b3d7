package domain

import (
	"strings"
	"time"
)

// Transaction is a single payment event as observed at ingestion time,
// before any repair or derivation has been applied.
type Transaction struct {
	TransactionID string
	UserID        string
	Timestamp     time.Time
	PaymentMethod string
	Category      string
	Merchant      string
	Amount        float64
	Status        string

	// FailureReason is empty unless the transaction failed.
	FailureReason string

	Platform          string
	DeviceType        string
	City              string
	ProcessingTimeSec float64
	IsWeekend         bool
	CashbackEarned    float64
	DiscountApplied   float64

	IsFlagged   bool
	FraudReason string

	IsRefunded   bool
	RefundAmount float64
}

// Statuses.
const (
	StatusSuccess = "Success"
	StatusFailed  = "Failed"
	StatusPending = "Pending"
)

// UnknownFailureReason is the sentinel stored on failed transactions whose
// failure reason was lost upstream.
const UnknownFailureReason = "Unknown"

// PaymentMethods is the closed set of accepted payment methods.
var PaymentMethods = map[string]bool{
	"UPI":           true,
	"Credit Card":   true,
	"Debit Card":    true,
	"Net Banking":   true,
	"Mobile Wallet": true,
}

// Categories is the closed set of merchant categories.
var Categories = map[string]bool{
	"Food & Dining":     true,
	"Shopping":          true,
	"Bills & Utilities": true,
	"Travel":            true,
	"Entertainment":     true,
	"Health":            true,
	"Education":         true,
	"Transfers":         true,
	"Groceries":         true,
	"Investments":       true,
}

// Statuses is the closed set of transaction statuses.
var Statuses = map[string]bool{
	StatusSuccess: true,
	StatusFailed:  true,
	StatusPending: true,
}

// Platforms is the closed set of transaction platforms.
var Platforms = map[string]bool{
	"Mobile App":   true,
	"Web Browser":  true,
	"POS Terminal": true,
	"QR Code":      true,
}

// Validate checks the schema-level invariants of a transaction: required
// identifiers present, enum fields inside their closed sets, and strictly
// positive amount and processing time. Cross-field consistency is the
// repair layer's job, not Validate's.
func (t *Transaction) Validate() error {
	if strings.TrimSpace(t.TransactionID) == "" {
		return &SchemaViolation{Field: "transaction_id", Reason: "missing"}
	}
	if strings.TrimSpace(t.UserID) == "" {
		return &SchemaViolation{Field: "user_id", Reason: "missing"}
	}
	if t.Timestamp.IsZero() {
		return &SchemaViolation{Field: "timestamp", Reason: "missing"}
	}
	if strings.TrimSpace(t.Merchant) == "" {
		return &SchemaViolation{Field: "merchant", Reason: "missing"}
	}
	if !PaymentMethods[strings.TrimSpace(t.PaymentMethod)] {
		return &SchemaViolation{Field: "payment_method", Reason: "unknown value", Value: t.PaymentMethod}
	}
	if !Categories[strings.TrimSpace(t.Category)] {
		return &SchemaViolation{Field: "category", Reason: "unknown value", Value: t.Category}
	}
	if !Statuses[strings.TrimSpace(t.Status)] {
		return &SchemaViolation{Field: "status", Reason: "unknown value", Value: t.Status}
	}
	if !Platforms[strings.TrimSpace(t.Platform)] {
		return &SchemaViolation{Field: "platform", Reason: "unknown value", Value: t.Platform}
	}
	if t.Amount <= 0 {
		return &SchemaViolation{Field: "amount", Reason: "must be positive"}
	}
	if t.ProcessingTimeSec <= 0 {
		return &SchemaViolation{Field: "processing_time_sec", Reason: "must be positive"}
	}
	return nil
}
