package domain

import "strings"

// UserProfile is a reference-dimension record for a user. Transactions join
// to profiles by UserID; a transaction without a matching profile is an
// orphan and is excluded during validation.
type UserProfile struct {
	UserID          string
	AgeGroup        string
	Gender          string
	City            string
	AccountTenure   string
	PreferredMethod string
	CustomerTier    string
	SpendingPersona string
}

// AgeGroups is the closed set of age bands.
var AgeGroups = map[string]bool{
	"18-24": true,
	"25-34": true,
	"35-44": true,
	"45-54": true,
	"55+":   true,
}

// AccountTenures is the closed set of account-age bands.
var AccountTenures = map[string]bool{
	"0-6 months":  true,
	"6-12 months": true,
	"1-2 years":   true,
	"2-5 years":   true,
	"5+ years":    true,
}

// CustomerTiers is the closed set of customer tiers.
var CustomerTiers = map[string]bool{
	"New":     true,
	"Regular": true,
	"Premium": true,
	"VIP":     true,
}

// SpendingPersonas is the closed set of spending personas.
var SpendingPersonas = map[string]bool{
	"Budget":       true,
	"Moderate":     true,
	"High Spender": true,
	"Impulse":      true,
}

// Validate checks the schema-level invariants of a profile.
func (u *UserProfile) Validate() error {
	if strings.TrimSpace(u.UserID) == "" {
		return &SchemaViolation{Field: "user_id", Reason: "missing"}
	}
	if !AgeGroups[strings.TrimSpace(u.AgeGroup)] {
		return &SchemaViolation{Field: "age_group", Reason: "unknown value", Value: u.AgeGroup}
	}
	if !AccountTenures[strings.TrimSpace(u.AccountTenure)] {
		return &SchemaViolation{Field: "account_tenure", Reason: "unknown value", Value: u.AccountTenure}
	}
	if !CustomerTiers[strings.TrimSpace(u.CustomerTier)] {
		return &SchemaViolation{Field: "customer_tier", Reason: "unknown value", Value: u.CustomerTier}
	}
	if !SpendingPersonas[strings.TrimSpace(u.SpendingPersona)] {
		return &SchemaViolation{Field: "spending_persona", Reason: "unknown value", Value: u.SpendingPersona}
	}
	return nil
}
