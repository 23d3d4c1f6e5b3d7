package bigquery

import (
	"testing"
	"time"

	"github.com/dvloznov/payment-analytics/internal/aggregate"
	"github.com/dvloznov/payment-analytics/internal/domain"
	"github.com/dvloznov/payment-analytics/internal/pipeline"
)

func TestNewEnrichedRow(t *testing.T) {
	tx := &domain.Transaction{
		TransactionID:     "TXN1",
		UserID:            "U1",
		Timestamp:         time.Date(2024, 11, 2, 9, 30, 0, 0, time.UTC),
		PaymentMethod:     "UPI",
		Category:          "Shopping",
		Merchant:          "Amazon",
		Amount:            1000,
		Status:            domain.StatusSuccess,
		Platform:          "Mobile App",
		DeviceType:        "Android",
		City:              "Mumbai",
		ProcessingTimeSec: 0.8,
		CashbackEarned:    20,
		DiscountApplied:   30,
	}
	e := pipeline.Enrich(tx)

	row := NewEnrichedRow("run-1", e)

	if row.RunID != "run-1" || row.TransactionID != "TXN1" {
		t.Errorf("identifiers wrong: %+v", row)
	}
	if row.Date.String() != "2024-11-02" {
		t.Errorf("Date = %v, want 2024-11-02", row.Date)
	}
	if row.FailureReason.Valid {
		t.Error("empty failure reason should map to NULL")
	}
	if row.NetAmount != 950 || row.Season != "Festival Season" || row.ProcessingSpeed != "Instant" {
		t.Errorf("derived fields wrong: net=%v season=%q speed=%q", row.NetAmount, row.Season, row.ProcessingSpeed)
	}
}

func TestTransactionRow_ToDomain(t *testing.T) {
	row := &TransactionRow{
		TransactionID: "TXN1",
		UserID:        "U1",
		Timestamp:     time.Date(2024, 6, 10, 14, 0, 0, 0, time.UTC),
		PaymentMethod: "UPI",
		Status:        domain.StatusFailed,
	}
	row.FailureReason.StringVal = "Server Timeout"
	row.FailureReason.Valid = true

	tx := row.ToDomain()
	if tx.TransactionID != "TXN1" || tx.FailureReason != "Server Timeout" {
		t.Errorf("unexpected domain record: %+v", tx)
	}
}

func TestFlattenTables(t *testing.T) {
	tables := map[string]*aggregate.Table{
		"method_summary": {
			Name:          "method_summary",
			KeyColumns:    []string{"payment_method"},
			MetricColumns: []string{"transactions", "success_rate"},
			Rows: []aggregate.Row{
				{Key: []string{"UPI"}, Values: map[string]float64{"transactions": 3, "success_rate": 66.67}},
			},
		},
	}

	cells := FlattenTables("run-1", tables)
	if len(cells) != 2 {
		t.Fatalf("cells = %d, want 2", len(cells))
	}

	byMetric := make(map[string]*MetricCell)
	for _, c := range cells {
		byMetric[c.Metric] = c
		if c.RunID != "run-1" || c.View != "method_summary" || c.GroupKey != "UPI" {
			t.Errorf("unexpected cell: %+v", c)
		}
	}
	if byMetric["success_rate"].Value != 66.67 {
		t.Errorf("success_rate cell = %v, want 66.67", byMetric["success_rate"].Value)
	}

	_, insertID, err := cells[0].Save()
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if insertID == "" {
		t.Error("expected a deduplicating insert ID")
	}
}
