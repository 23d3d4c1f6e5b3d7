package pipeline

import (
	"context"
	"fmt"

	"github.com/dvloznov/payment-analytics/internal/domain"
	"github.com/dvloznov/payment-analytics/internal/logger"
)

// PipelineStep represents a single step in the analysis pipeline.
type PipelineStep interface {
	Execute(ctx context.Context, state *PipelineState) error
}

// PipelineState holds the shared state across all pipeline steps.
type PipelineState struct {
	// Raw generic records. May be nil if typed records were loaded directly
	// (e.g. from BigQuery), in which case the transform steps pass through.
	RawTransactions []map[string]interface{}
	RawProfiles     []map[string]interface{}

	Transactions []*domain.Transaction
	Profiles     []*domain.UserProfile
	ProfileIndex map[string]*domain.UserProfile

	Report   *Report
	Enriched []*domain.EnrichedTransaction
}

// Step 1: TransformProfilesStep parses raw profile records into typed ones.
type TransformProfilesStep struct{}

func (s *TransformProfilesStep) Execute(ctx context.Context, state *PipelineState) error {
	log := logger.FromContext(ctx)

	for i, obj := range state.RawProfiles {
		p, err := transformRawProfile(obj)
		if err != nil {
			state.Report.SchemaViolations++
			state.Report.addError(fmt.Errorf("profile %d: %w", i, err))
			log.Debug().Int("index", i).Err(err).Msg("Profile record rejected")
			continue
		}
		state.Profiles = append(state.Profiles, p)
	}

	state.Report.TotalProfiles = len(state.Profiles)
	return nil
}

// Step 2: TransformTransactionsStep parses raw transaction records into
// typed ones, rejecting schema violations record by record.
type TransformTransactionsStep struct{}

func (s *TransformTransactionsStep) Execute(ctx context.Context, state *PipelineState) error {
	log := logger.FromContext(ctx)

	total := len(state.RawTransactions) + len(state.Transactions)
	for i, obj := range state.RawTransactions {
		t, err := transformRawTransaction(obj)
		if err != nil {
			state.Report.SchemaViolations++
			state.Report.addError(fmt.Errorf("transaction %d: %w", i, err))
			log.Debug().Int("index", i).Err(err).Msg("Transaction record rejected")
			continue
		}
		state.Transactions = append(state.Transactions, t)
	}

	state.Report.TotalTransactions = total
	return nil
}

// Step 3: SchemaCheckStep re-validates typed records. Records that arrived
// already typed (BigQuery path) get their schema check here; records that
// came through the transform steps pass unchanged.
type SchemaCheckStep struct{}

func (s *SchemaCheckStep) Execute(ctx context.Context, state *PipelineState) error {
	kept := make([]*domain.Transaction, 0, len(state.Transactions))
	for _, t := range state.Transactions {
		if err := t.Validate(); err != nil {
			state.Report.SchemaViolations++
			state.Report.addError(fmt.Errorf("transaction %s: %w", t.TransactionID, err))
			continue
		}
		kept = append(kept, t)
	}
	state.Transactions = kept
	return nil
}

// Step 4: ValidateStep applies the ordered repair rules against the profile
// set and records every repair and exclusion in the report.
type ValidateStep struct{}

func (s *ValidateStep) Execute(ctx context.Context, state *PipelineState) error {
	log := logger.FromContext(ctx)

	validator := NewValidator(state.Profiles)
	state.Transactions = validator.Run(state.Transactions, state.Report)
	state.ProfileIndex = validator.Profiles()

	log.Info().
		Int("clean", state.Report.Clean).
		Int("excluded", state.Report.Excluded).
		Int("repairs", state.Report.TotalRepairs()).
		Msg("Validation finished")

	return nil
}

// Step 5: EnrichStep derives all computed fields for each clean record.
type EnrichStep struct{}

func (s *EnrichStep) Execute(ctx context.Context, state *PipelineState) error {
	state.Enriched = make([]*domain.EnrichedTransaction, 0, len(state.Transactions))
	for _, t := range state.Transactions {
		state.Enriched = append(state.Enriched, Enrich(t))
	}
	return nil
}

// Pipeline executes a sequence of steps in order.
type Pipeline struct {
	steps []PipelineStep
}

// NewPipeline creates a new pipeline with the given steps.
func NewPipeline(steps ...PipelineStep) *Pipeline {
	return &Pipeline{steps: steps}
}

// Execute runs all steps in the pipeline sequentially.
func (p *Pipeline) Execute(ctx context.Context, state *PipelineState) error {
	for i, step := range p.steps {
		if err := step.Execute(ctx, state); err != nil {
			return fmt.Errorf("pipeline step %d failed: %w", i+1, err)
		}
	}
	return nil
}

// NewAnalysisPipeline creates the standard 5-step pipeline that turns raw
// records into the enriched set the aggregation engine reads.
func NewAnalysisPipeline() *Pipeline {
	return NewPipeline(
		&TransformProfilesStep{},
		&TransformTransactionsStep{},
		&SchemaCheckStep{},
		&ValidateStep{},
		&EnrichStep{},
	)
}

// Result is what a finished run hands to aggregation and export.
type Result struct {
	Report   *Report
	Enriched []*domain.EnrichedTransaction
	Profiles map[string]*domain.UserProfile
}

// Run executes the standard pipeline over raw generic records.
func Run(ctx context.Context, rawTxs, rawProfiles []map[string]interface{}) (*Result, error) {
	state := &PipelineState{
		RawTransactions: rawTxs,
		RawProfiles:     rawProfiles,
		Report:          NewReport(),
	}
	return runState(ctx, state)
}

// RunTyped executes the standard pipeline over already-typed records, the
// path used when records come from the BigQuery loader.
func RunTyped(ctx context.Context, txs []*domain.Transaction, profiles []*domain.UserProfile) (*Result, error) {
	state := &PipelineState{
		Transactions: txs,
		Profiles:     profiles,
		Report:       NewReport(),
	}
	return runState(ctx, state)
}

func runState(ctx context.Context, state *PipelineState) (*Result, error) {
	if err := NewAnalysisPipeline().Execute(ctx, state); err != nil {
		return nil, err
	}
	state.Report.finish()
	return &Result{
		Report:   state.Report,
		Enriched: state.Enriched,
		Profiles: state.ProfileIndex,
	}, nil
}
