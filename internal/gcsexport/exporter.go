package gcsexport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"cloud.google.com/go/storage"

	"github.com/dvloznov/payment-analytics/internal/aggregate"
	"github.com/dvloznov/payment-analytics/internal/logger"
	"github.com/dvloznov/payment-analytics/internal/pipeline"
)

// ExportRun uploads every metric table plus the validation report as CSV
// objects under runs/<run_id>/ in the given bucket. It assumes Application
// Default Credentials are configured.
func ExportRun(ctx context.Context, bucketName string, report *pipeline.Report, tables map[string]*aggregate.Table) error {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return fmt.Errorf("ExportRun: create storage client: %w", err)
	}
	defer client.Close()

	return ExportRunWithClient(ctx, client, bucketName, report, tables)
}

// ExportRunWithClient uploads a run's artifacts using the provided storage
// client. Tables upload in name order so reruns produce identical logs.
func ExportRunWithClient(ctx context.Context, client *storage.Client, bucketName string, report *pipeline.Report, tables map[string]*aggregate.Table) error {
	log := logger.FromContext(ctx)

	names := make([]string, 0, len(tables))
	for name := range tables {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		data, err := RenderTableCSV(tables[name])
		if err != nil {
			return err
		}
		object := ObjectName(report.RunID, name)
		if err := upload(ctx, client, bucketName, object, data); err != nil {
			return fmt.Errorf("ExportRun: table %q: %w", name, err)
		}
		log.Debug().Str("object", object).Int("bytes", len(data)).Msg("Table exported")
	}

	data, err := RenderReportCSV(report)
	if err != nil {
		return err
	}
	object := ObjectName(report.RunID, "validation_report")
	if err := upload(ctx, client, bucketName, object, data); err != nil {
		return fmt.Errorf("ExportRun: report: %w", err)
	}

	log.Info().Str("bucket", bucketName).Str("run_id", report.RunID).Int("tables", len(tables)).Msg("Run exported")
	return nil
}

// ObjectName builds the run-scoped object path for one artifact.
func ObjectName(runID, name string) string {
	return fmt.Sprintf("runs/%s/%s.csv", runID, name)
}

func upload(ctx context.Context, client *storage.Client, bucketName, objectName string, data []byte) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := client.Bucket(bucketName).Object(objectName).NewWriter(ctx)
	w.ContentType = "text/csv"

	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		_ = w.Close()
		return fmt.Errorf("copy to GCS writer: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalize upload: %w", err)
	}
	return nil
}
