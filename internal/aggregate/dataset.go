package aggregate

import (
	"github.com/dvloznov/payment-analytics/internal/domain"
)

// Dataset is the read-only input to the aggregation engine: the enriched
// transaction set plus the profile index for dimension joins. The engine
// never mutates either.
type Dataset struct {
	Records  []*domain.EnrichedTransaction
	Profiles map[string]*domain.UserProfile
}

// Profile resolves the profile for a user. Validation guarantees every
// surviving record joins, so a miss here means the caller fed the engine an
// unvalidated set and the lookup fails loudly.
func (d *Dataset) Profile(userID string) (*domain.UserProfile, error) {
	p, ok := d.Profiles[userID]
	if !ok {
		return nil, &domain.ReferentialIntegrityError{UserID: userID}
	}
	return p, nil
}
