package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/roach88/tripir/internal/expr"
	"github.com/roach88/tripir/internal/ir"
	"github.com/roach88/tripir/internal/store"
	"github.com/roach88/tripir/internal/value"
)

// RecordSource supplies the option records a candidate stage picks from.
// *store.Store implements it.
type RecordSource interface {
	QueryRecords(ctx context.Context, category, city string, filter expr.Expr) ([]value.Record, error)
}

// Engine checks candidates against documents and, when a store is
// configured, records every run.
//
// Run is serialized: one run at a time reads the clock and writes the
// store, so stored seqs follow the order runs completed.
type Engine struct {
	mu      sync.Mutex
	store   *store.Store
	records RecordSource
	runIDs  RunIDGenerator
	clock   *Clock
}

// Option configures an Engine.
type Option func(*Engine)

// WithStore persists documents and check runs to s. Unless WithRecordSource
// is also given, s also supplies candidate records.
func WithStore(s *store.Store) Option {
	return func(e *Engine) {
		e.store = s
	}
}

// WithRunIDGenerator sets the run ID generator.
//
// Default: UUIDv7Generator.
func WithRunIDGenerator(g RunIDGenerator) Option {
	return func(e *Engine) {
		e.runIDs = g
	}
}

// WithRecordSource sets where candidate records are loaded from.
func WithRecordSource(src RecordSource) Option {
	return func(e *Engine) {
		e.records = src
	}
}

// WithClock sets the logical clock stamping stored runs.
func WithClock(c *Clock) Option {
	return func(e *Engine) {
		e.clock = c
	}
}

// New creates an Engine. With no options it checks in memory only.
func New(opts ...Option) *Engine {
	e := &Engine{
		runIDs: UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.records == nil && e.store != nil {
		e.records = e.store
	}
	if e.clock == nil {
		e.clock = NewClock()
	}
	return e
}

// Store returns the configured store, or nil.
func (e *Engine) Store() *store.Store {
	return e.store
}

// Run validates doc, fills missing candidate records from the record
// source, checks every slot and assigns a run ID. With a store the document
// and the run are persisted; the stored candidate includes loaded records,
// so Replay never reads the record tables.
func (e *Engine) Run(ctx context.Context, doc *ir.IR, cand Candidate) (*Report, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if errs := doc.Validate(); len(errs) > 0 {
		return nil, NewInvalidDocumentError(errs)
	}

	cand, err := e.loadRecords(ctx, doc, cand)
	if err != nil {
		return nil, err
	}

	report, err := Check(doc, cand)
	if err != nil {
		return nil, err
	}
	report.RunID = e.runIDs.Generate()

	slog.Debug("candidate checked",
		"run_id", report.RunID,
		"document_id", report.DocumentID,
		"evaluated", report.Evaluated(),
		"failed", len(report.Failed()),
	)

	if e.store != nil {
		if err := e.persist(ctx, doc, cand, report); err != nil {
			return nil, err
		}
	}

	slog.Info("check run complete",
		"run_id", report.RunID,
		"document_id", report.DocumentID,
		"satisfied", report.Satisfied,
	)
	return report, nil
}

// loadRecords returns a copy of cand whose empty attraction, accommodation
// and restaurant contexts carry the records stored for the stage's
// destination city. Contexts that already have records are kept.
func (e *Engine) loadRecords(ctx context.Context, doc *ir.IR, cand Candidate) (Candidate, error) {
	if e.records == nil {
		return cand, nil
	}
	out := cand.withStages(len(doc.Stages))
	for i, st := range doc.Stages {
		for _, rk := range recordKinds {
			target := out.Stages[i].contextOf(rk.kind)
			if len(target.Records) > 0 {
				continue
			}
			recs, err := e.records.QueryRecords(ctx, rk.category, st.DestinationCity, nil)
			if err != nil {
				return Candidate{}, fmt.Errorf("load %s records for %s: %w", rk.category, st.DestinationCity, err)
			}
			if len(recs) == 0 {
				continue
			}
			slog.Debug("loaded candidate records",
				"stage", i,
				"category", rk.category,
				"city", st.DestinationCity,
				"count", len(recs),
			)
			target.Records = recs
		}
	}
	return out, nil
}

// persist saves the document and writes the run stamped with the next seq.
func (e *Engine) persist(ctx context.Context, doc *ir.IR, cand Candidate, report *Report) error {
	if err := e.clock.Resume(ctx, e.store); err != nil {
		return fmt.Errorf("resume clock: %w", err)
	}

	if _, _, err := e.store.SaveDocument(ctx, doc); err != nil {
		return fmt.Errorf("save document: %w", err)
	}

	candidate, err := json.Marshal(cand)
	if err != nil {
		return fmt.Errorf("encode candidate: %w", err)
	}
	body, err := report.MarshalCanonical()
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}

	run := store.CheckRun{
		ID:         report.RunID,
		DocumentID: report.DocumentID,
		Satisfied:  report.Satisfied,
		Candidate:  candidate,
		Report:     body,
		Seq:        e.clock.Next(),
	}
	if err := e.store.WriteCheckRun(ctx, run); err != nil {
		return fmt.Errorf("write check run %s: %w", run.ID, err)
	}
	return nil
}
