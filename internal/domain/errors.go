package domain

import "fmt"

// SchemaViolation reports a record that breaks the table contract: a missing
// required field, an enum value outside its closed set, or a non-positive
// amount/processing time. Violating records are excluded from the batch and
// counted, never silently repaired.
type SchemaViolation struct {
	Field  string
	Reason string
	Value  string
}

func (e *SchemaViolation) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("schema violation: field %q: %s (%q)", e.Field, e.Reason, e.Value)
	}
	return fmt.Sprintf("schema violation: field %q: %s", e.Field, e.Reason)
}

// DuplicateKeyError reports a transaction ID seen more than once in a batch.
// The first occurrence is kept; later ones are excluded and counted.
type DuplicateKeyError struct {
	TransactionID string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate transaction_id %q", e.TransactionID)
}

// ReferentialIntegrityError reports a transaction whose user_id has no
// matching profile record.
type ReferentialIntegrityError struct {
	TransactionID string
	UserID        string
}

func (e *ReferentialIntegrityError) Error() string {
	return fmt.Sprintf("transaction %q references unknown user %q", e.TransactionID, e.UserID)
}

// NegativeValueError reports a cashback or discount below zero. The value is
// reported, not clamped; downstream owners decide how to fix the source.
type NegativeValueError struct {
	TransactionID string
	Field         string
	Value         float64
}

func (e *NegativeValueError) Error() string {
	return fmt.Sprintf("transaction %q: field %q is negative (%.2f)", e.TransactionID, e.Field, e.Value)
}
