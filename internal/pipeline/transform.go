package pipeline

import (
	"fmt"
	"strings"
	"time"

	"github.com/dvloznov/payment-analytics/internal/domain"
)

// Timestamp layouts accepted on raw records, tried in order.
var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05",
}

// transformRawTransaction converts one raw generic record into a typed
// transaction. The caller decides what to do with a failed record; this
// function never repairs, it only parses and type-checks.
func transformRawTransaction(obj map[string]interface{}) (*domain.Transaction, error) {
	txID, err := getStringField(obj, "transaction_id", true)
	if err != nil {
		return nil, err
	}
	userID, err := getStringField(obj, "user_id", true)
	if err != nil {
		return nil, err
	}
	tsStr, err := getStringField(obj, "timestamp", true)
	if err != nil {
		return nil, err
	}
	ts, err := parseTimestamp(tsStr)
	if err != nil {
		return nil, err
	}

	method, err := getStringField(obj, "payment_method", true)
	if err != nil {
		return nil, err
	}
	category, err := getStringField(obj, "merchant_category", true)
	if err != nil {
		return nil, err
	}
	merchant, err := getStringField(obj, "merchant_name", true)
	if err != nil {
		return nil, err
	}
	amount, err := getFloat64Field(obj, "amount", true)
	if err != nil {
		return nil, err
	}
	status, err := getStringField(obj, "transaction_status", true)
	if err != nil {
		return nil, err
	}

	failureReasonPtr, err := getOptionalStringField(obj, "failure_reason")
	if err != nil {
		return nil, err
	}
	failureReason := ""
	if failureReasonPtr != nil {
		failureReason = *failureReasonPtr
	}

	platform, err := getStringField(obj, "platform", true)
	if err != nil {
		return nil, err
	}
	deviceType, err := getStringField(obj, "device_type", true)
	if err != nil {
		return nil, err
	}
	city, err := getStringField(obj, "location_city", true)
	if err != nil {
		return nil, err
	}
	processingTime, err := getFloat64Field(obj, "processing_time_sec", true)
	if err != nil {
		return nil, err
	}
	isWeekend, err := getBoolField(obj, "is_weekend")
	if err != nil {
		return nil, err
	}
	cashback, err := getFloat64Field(obj, "cashback_earned", true)
	if err != nil {
		return nil, err
	}
	discount, err := getFloat64Field(obj, "discount_applied", true)
	if err != nil {
		return nil, err
	}

	isFlagged, err := getBoolField(obj, "is_flagged_fraud")
	if err != nil {
		return nil, err
	}
	fraudReasonPtr, err := getOptionalStringField(obj, "fraud_reason")
	if err != nil {
		return nil, err
	}
	fraudReason := ""
	if fraudReasonPtr != nil {
		fraudReason = *fraudReasonPtr
	}

	isRefunded, err := getBoolField(obj, "is_refunded")
	if err != nil {
		return nil, err
	}
	refundAmount, err := getFloat64Field(obj, "refund_amount", false)
	if err != nil {
		return nil, err
	}

	t := &domain.Transaction{
		TransactionID:     txID,
		UserID:            userID,
		Timestamp:         ts,
		PaymentMethod:     method,
		Category:          category,
		Merchant:          merchant,
		Amount:            amount,
		Status:            status,
		FailureReason:     failureReason,
		Platform:          platform,
		DeviceType:        deviceType,
		City:              city,
		ProcessingTimeSec: processingTime,
		IsWeekend:         isWeekend,
		CashbackEarned:    cashback,
		DiscountApplied:   discount,
		IsFlagged:         isFlagged,
		FraudReason:       fraudReason,
		IsRefunded:        isRefunded,
		RefundAmount:      refundAmount,
	}

	if err := t.Validate(); err != nil {
		return nil, err
	}

	return t, nil
}

// transformRawProfile converts one raw generic record into a typed user
// profile.
func transformRawProfile(obj map[string]interface{}) (*domain.UserProfile, error) {
	userID, err := getStringField(obj, "user_id", true)
	if err != nil {
		return nil, err
	}
	ageGroup, err := getStringField(obj, "age_group", true)
	if err != nil {
		return nil, err
	}
	gender, err := getStringField(obj, "gender", true)
	if err != nil {
		return nil, err
	}
	city, err := getStringField(obj, "city", true)
	if err != nil {
		return nil, err
	}
	tenure, err := getStringField(obj, "account_age", true)
	if err != nil {
		return nil, err
	}
	preferred, err := getStringField(obj, "preferred_payment_method", true)
	if err != nil {
		return nil, err
	}
	tier, err := getStringField(obj, "customer_tier", true)
	if err != nil {
		return nil, err
	}
	persona, err := getStringField(obj, "spending_persona", true)
	if err != nil {
		return nil, err
	}

	u := &domain.UserProfile{
		UserID:          userID,
		AgeGroup:        ageGroup,
		Gender:          gender,
		City:            city,
		AccountTenure:   tenure,
		PreferredMethod: preferred,
		CustomerTier:    tier,
		SpendingPersona: persona,
	}

	if err := u.Validate(); err != nil {
		return nil, err
	}

	return u, nil
}

func parseTimestamp(s string) (time.Time, error) {
	trimmed := strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, trimmed); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, &domain.SchemaViolation{Field: "timestamp", Reason: "unparseable", Value: s}
}

func getStringField(m map[string]interface{}, key string, required bool) (string, error) {
	v, ok := m[key]
	if !ok || v == nil {
		if required {
			return "", &domain.SchemaViolation{Field: key, Reason: "missing"}
		}
		return "", nil
	}
	switch val := v.(type) {
	case string:
		if required && strings.TrimSpace(val) == "" {
			return "", &domain.SchemaViolation{Field: key, Reason: "missing"}
		}
		return val, nil
	default:
		return "", &domain.SchemaViolation{Field: key, Reason: fmt.Sprintf("has type %T, want string", v)}
	}
}

func getOptionalStringField(m map[string]interface{}, key string) (*string, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return nil, nil
	}
	switch val := v.(type) {
	case string:
		s := strings.TrimSpace(val)
		if s == "" || strings.EqualFold(s, "none") {
			return nil, nil
		}
		return &s, nil
	default:
		return nil, &domain.SchemaViolation{Field: key, Reason: fmt.Sprintf("has type %T, want string or null", v)}
	}
}

func getFloat64Field(m map[string]interface{}, key string, required bool) (float64, error) {
	v, ok := m[key]
	if !ok || v == nil {
		if required {
			return 0, &domain.SchemaViolation{Field: key, Reason: "missing"}
		}
		return 0, nil
	}
	switch val := v.(type) {
	case float64:
		return val, nil
	case int: // unlikely from encoding/json, but harmless to support
		return float64(val), nil
	default:
		return 0, &domain.SchemaViolation{Field: key, Reason: fmt.Sprintf("has type %T, want number", v)}
	}
}

func getBoolField(m map[string]interface{}, key string) (bool, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return false, nil
	}
	switch val := v.(type) {
	case bool:
		return val, nil
	case string:
		return strings.EqualFold(strings.TrimSpace(val), "true"), nil
	default:
		return false, &domain.SchemaViolation{Field: key, Reason: fmt.Sprintf("has type %T, want bool", v)}
	}
}
