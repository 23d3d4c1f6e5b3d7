package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/dvloznov/payment-analytics/internal/aggregate"
	"github.com/dvloznov/payment-analytics/internal/gcsexport"
	infra "github.com/dvloznov/payment-analytics/internal/infra/bigquery"
	"github.com/dvloznov/payment-analytics/internal/logger"
	"github.com/dvloznov/payment-analytics/internal/narrative"
	"github.com/dvloznov/payment-analytics/internal/pipeline"
)

func main() {
	// Parse CLI flags
	projectID := flag.String("project", "", "GCP project ID holding the payments dataset")
	datasetID := flag.String("dataset", "payments", "BigQuery dataset ID")
	bucket := flag.String("bucket", "", "GCS bucket for CSV exports (skip export if empty)")
	workers := flag.Int("workers", 4, "Concurrent view workers")
	summary := flag.Bool("summary", false, "Generate a model-written findings summary")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	flag.Parse()

	log := logger.NewWithLevel(*logLevel)

	if *projectID == "" {
		log.Fatal().Msg("Error: --project is required")
	}

	// Create context with timeout so the batch doesn't hang
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Minute)
	defer cancel()

	// Add logger to context
	ctx = logger.WithContext(ctx, log)

	log.Info().Str("project", *projectID).Str("dataset", *datasetID).Msg("Starting analysis run")

	// 1. Load raw records.
	txs, err := infra.LoadTransactions(ctx, *projectID, *datasetID)
	if err != nil {
		log.Fatal().Err(err).Msg("Loading transactions failed")
	}
	profiles, err := infra.LoadUserProfiles(ctx, *projectID, *datasetID)
	if err != nil {
		log.Fatal().Err(err).Msg("Loading user profiles failed")
	}
	log.Info().Int("transactions", len(txs)).Int("profiles", len(profiles)).Msg("Records loaded")

	// 2. Validate, repair and enrich.
	result, err := pipeline.RunTyped(ctx, txs, profiles)
	if err != nil {
		log.Fatal().Err(err).Msg("Pipeline failed")
	}
	report := result.Report
	log.Info().
		Str("run_id", report.RunID).
		Int("clean", report.Clean).
		Int("excluded", report.Excluded).
		Int("schema_violations", report.SchemaViolations).
		Int("repairs", report.TotalRepairs()).
		Msg("Pipeline finished")

	// 3. Materialize the view catalog.
	ds := &aggregate.Dataset{Records: result.Enriched, Profiles: result.Profiles}
	runner := aggregate.NewRunner(*workers)
	tables, err := runner.RunAll(ctx, ds, aggregate.Catalog())
	if err != nil {
		log.Fatal().Err(err).Msg("Aggregation failed")
	}
	rollups, err := aggregate.Rollups(tables)
	if err != nil {
		log.Fatal().Err(err).Msg("Segmentation rollups failed")
	}
	for name, table := range rollups {
		tables[name] = table
	}
	log.Info().Int("tables", len(tables)).Msg("Views materialized")

	// 4. Store results.
	if err := infra.InsertEnriched(ctx, *projectID, *datasetID, report.RunID, result.Enriched); err != nil {
		log.Fatal().Err(err).Msg("Storing enriched transactions failed")
	}
	if err := infra.InsertMetricTables(ctx, *projectID, *datasetID, report.RunID, tables); err != nil {
		log.Fatal().Err(err).Msg("Storing metric tables failed")
	}

	// 5. Export CSV artifacts.
	if *bucket != "" {
		if err := gcsexport.ExportRun(ctx, *bucket, report, tables); err != nil {
			log.Fatal().Err(err).Msg("Export failed")
		}
	}

	// 6. Optional findings summary; never fails the run.
	if *summary {
		text, err := narrative.Summarize(ctx, report, tables)
		if err != nil {
			log.Warn().Err(err).Msg("Findings summary failed")
		} else {
			fmt.Println(text)
		}
	}

	fmt.Println("Analysis completed successfully.")
}
