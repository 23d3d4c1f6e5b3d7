package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"

	"github.com/dvloznov/payment-analytics/internal/domain"
)

const (
	transactionsTable = "transactions"
	profilesTable     = "user_profiles"
	enrichedTable     = "enriched_transactions"
	metricCellsTable  = "metric_cells"
)

// LoadTransactions reads the full raw transaction table.
func LoadTransactions(ctx context.Context, projectID, datasetID string) ([]*domain.Transaction, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("LoadTransactions: bigquery client: %w", err)
	}
	defer client.Close()

	return LoadTransactionsWithClient(ctx, client, datasetID)
}

// LoadTransactionsWithClient reads the full raw transaction table using the
// provided BigQuery client.
func LoadTransactionsWithClient(ctx context.Context, client *bigquery.Client, datasetID string) ([]*domain.Transaction, error) {
	q := client.Query(fmt.Sprintf(`
		SELECT
			transaction_id,
			user_id,
			timestamp,
			payment_method,
			merchant_category,
			merchant_name,
			amount,
			transaction_status,
			failure_reason,
			platform,
			device_type,
			location_city,
			processing_time_sec,
			is_weekend,
			cashback_earned,
			discount_applied,
			is_flagged_fraud,
			fraud_reason,
			is_refunded,
			refund_amount
		FROM %s.%s
		ORDER BY timestamp, transaction_id
	`, datasetID, transactionsTable))

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("LoadTransactions: query read: %w", err)
	}

	var txs []*domain.Transaction
	for {
		var r TransactionRow
		err := it.Next(&r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("LoadTransactions: iter next: %w", err)
		}
		txs = append(txs, r.ToDomain())
	}

	return txs, nil
}

// LoadUserProfiles reads the full user profile table.
func LoadUserProfiles(ctx context.Context, projectID, datasetID string) ([]*domain.UserProfile, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("LoadUserProfiles: bigquery client: %w", err)
	}
	defer client.Close()

	return LoadUserProfilesWithClient(ctx, client, datasetID)
}

// LoadUserProfilesWithClient reads the full user profile table using the
// provided BigQuery client.
func LoadUserProfilesWithClient(ctx context.Context, client *bigquery.Client, datasetID string) ([]*domain.UserProfile, error) {
	q := client.Query(fmt.Sprintf(`
		SELECT
			user_id,
			age_group,
			gender,
			city,
			account_age,
			preferred_payment_method,
			customer_tier,
			spending_persona
		FROM %s.%s
		ORDER BY user_id
	`, datasetID, profilesTable))

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("LoadUserProfiles: query read: %w", err)
	}

	var profiles []*domain.UserProfile
	for {
		var r UserProfileRow
		err := it.Next(&r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("LoadUserProfiles: iter next: %w", err)
		}
		profiles = append(profiles, r.ToDomain())
	}

	return profiles, nil
}
