package bigquery

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/bigquery"

	"github.com/dvloznov/payment-analytics/internal/aggregate"
	"github.com/dvloznov/payment-analytics/internal/domain"
)

// InsertEnriched writes the enriched set for a run into
// payments.enriched_transactions.
func InsertEnriched(ctx context.Context, projectID, datasetID, runID string, recs []*domain.EnrichedTransaction) error {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return fmt.Errorf("InsertEnriched: bigquery client: %w", err)
	}
	defer client.Close()

	return InsertEnrichedWithClient(ctx, client, datasetID, runID, recs)
}

// InsertEnrichedWithClient writes the enriched set using the provided
// BigQuery client.
func InsertEnrichedWithClient(ctx context.Context, client *bigquery.Client, datasetID, runID string, recs []*domain.EnrichedTransaction) error {
	if len(recs) == 0 {
		return nil
	}

	rows := make([]*EnrichedRow, 0, len(recs))
	for _, e := range recs {
		rows = append(rows, NewEnrichedRow(runID, e))
	}

	inserter := client.Dataset(datasetID).Table(enrichedTable).Inserter()
	if err := inserter.Put(ctx, rows); err != nil {
		return fmt.Errorf("InsertEnriched: inserting rows: %w", err)
	}

	return nil
}

// InsertMetricTables flattens materialized tables into metric cells and
// writes them into payments.metric_cells.
func InsertMetricTables(ctx context.Context, projectID, datasetID, runID string, tables map[string]*aggregate.Table) error {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return fmt.Errorf("InsertMetricTables: bigquery client: %w", err)
	}
	defer client.Close()

	return InsertMetricTablesWithClient(ctx, client, datasetID, runID, tables)
}

// InsertMetricTablesWithClient flattens and writes metric tables using the
// provided BigQuery client.
func InsertMetricTablesWithClient(ctx context.Context, client *bigquery.Client, datasetID, runID string, tables map[string]*aggregate.Table) error {
	cells := FlattenTables(runID, tables)
	if len(cells) == 0 {
		return nil
	}

	inserter := client.Dataset(datasetID).Table(metricCellsTable).Inserter()
	if err := inserter.Put(ctx, cells); err != nil {
		return fmt.Errorf("InsertMetricTables: inserting cells: %w", err)
	}

	return nil
}

// FlattenTables turns materialized tables into the long cell form: one row
// per (view, group, metric).
func FlattenTables(runID string, tables map[string]*aggregate.Table) []*MetricCell {
	var cells []*MetricCell
	for _, table := range tables {
		for _, row := range table.Rows {
			groupKey := strings.Join(row.Key, "|")
			for _, metric := range table.MetricColumns {
				cells = append(cells, &MetricCell{
					RunID:    runID,
					View:     table.Name,
					GroupKey: groupKey,
					Metric:   metric,
					Value:    row.Values[metric],
				})
			}
		}
	}
	return cells
}
