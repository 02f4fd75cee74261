package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/tripir/internal/compiler"
	"github.com/roach88/tripir/internal/engine"
	"github.com/roach88/tripir/internal/ir"
	"github.com/roach88/tripir/internal/store"
	"github.com/roach88/tripir/internal/value"
)

// Harness is the test execution engine.
// It runs the cases of one scenario against a single engine backed by a
// fresh in-memory store, with a deterministic clock and run IDs.
type Harness struct {
	store  *store.Store
	engine *engine.Engine
	doc    *ir.IR
	clock  *engine.Clock
	runIDs *caseRunIDs
	logger *slog.Logger
}

// Option configures Run.
type Option func(*Harness)

// WithLogger sets the logger for harness progress messages.
// The default discards them.
func WithLogger(l *slog.Logger) Option {
	return func(h *Harness) {
		h.logger = l
	}
}

// caseRunIDs names each run after its scenario and case, so traces and
// golden files do not depend on how many earlier cases failed.
type caseRunIDs struct {
	next string
}

func (g *caseRunIDs) Generate() string {
	return g.next
}

// RunID returns the run ID the harness assigns to a case.
func RunID(scenario, caseName string) string {
	return scenario + "/" + caseName
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
//
// Execution flow:
//  1. Load the trip document
//  2. Seed option records into the store
//  3. Check every case through engine.Run and evaluate its expect clause
//  4. Replay every stored run and require identical outcomes
//
// A returned error means the scenario could not be executed; failed
// expectations are reported in Result.Errors.
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	doc, err := compiler.LoadDocument(scenario.Document)
	if err != nil {
		return nil, fmt.Errorf("failed to load document: %w", err)
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	runIDs := &caseRunIDs{}
	h := &Harness{
		store:  st,
		engine: engine.New(engine.WithStore(st), engine.WithRunIDGenerator(runIDs)),
		doc:    doc,
		clock:  engine.NewClock(),
		runIDs: runIDs,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(h)
	}

	ctx := context.Background()
	result := NewResult()

	if err := h.seedRecords(ctx, scenario.Records); err != nil {
		return nil, fmt.Errorf("failed to seed records: %w", err)
	}

	for i, c := range scenario.Cases {
		if err := h.runCase(ctx, scenario.Name, c, result); err != nil {
			return nil, fmt.Errorf("case %d (%s): %w", i, c.Name, err)
		}
	}

	if err := h.verifyReplay(ctx, result); err != nil {
		return nil, fmt.Errorf("failed to replay runs: %w", err)
	}

	return result, nil
}

// seedRecords writes the scenario's option records.
func (h *Harness) seedRecords(ctx context.Context, sets []RecordSet) error {
	for i, rs := range sets {
		records := make([]value.Record, 0, len(rs.Items))
		for j, item := range rs.Items {
			v, err := value.From(item)
			if err != nil {
				return fmt.Errorf("records[%d].items[%d]: %w", i, j, err)
			}
			records = append(records, v.(value.Record))
		}
		n, err := h.store.PutRecords(ctx, rs.Category, rs.City, records)
		if err != nil {
			return fmt.Errorf("records[%d]: %w", i, err)
		}
		h.logger.Info("records seeded", "category", rs.Category, "city", rs.City, "count", n)
	}
	return nil
}

// runCase checks one candidate, traces the outcome and evaluates the
// expect clause.
func (h *Harness) runCase(ctx context.Context, scenario string, c Case, result *Result) error {
	h.runIDs.next = RunID(scenario, c.Name)

	report, err := h.check(ctx, c)
	if err != nil {
		var ce *engine.CheckError
		if !errors.As(err, &ce) {
			return err
		}
		result.AddErrorTrace(c.Name, string(ce.Code), h.clock.Next())
		h.logger.Info("case failed to check", "case", c.Name, "code", ce.Code, "error", err)
		for _, msg := range EvaluateExpect(c, nil, ce) {
			result.AddError(msg)
		}
		return nil
	}

	result.AddCaseTrace(c.Name, report.RunID, report.Satisfied, h.clock.Next())
	for _, s := range report.Slots {
		if !s.Present {
			continue
		}
		result.AddSlotTrace(c.Name, s.Path, s.Satisfied, s.Value, h.clock.Next())
	}

	h.logger.Info("case checked",
		"case", c.Name,
		"run_id", report.RunID,
		"satisfied", report.Satisfied,
		"failed", len(report.Failed()),
	)

	for _, msg := range EvaluateExpect(c, report, nil) {
		result.AddError(msg)
	}
	return nil
}

func (h *Harness) check(ctx context.Context, c Case) (*engine.Report, error) {
	v, err := value.From(c.Candidate)
	if err != nil {
		return nil, engine.NewCandidateError("%v", err)
	}
	cand, err := engine.CandidateFromValue(v)
	if err != nil {
		return nil, err
	}
	return h.engine.Run(ctx, h.doc, cand)
}

// verifyReplay re-checks every stored run. Checks are pure, so any
// divergence is a failure.
func (h *Harness) verifyReplay(ctx context.Context, result *Result) error {
	replays, err := h.engine.ReplayAll(ctx, "")
	if err != nil {
		return err
	}
	for _, r := range replays {
		if r.Identical() {
			continue
		}
		for _, d := range r.Diffs {
			result.AddError(fmt.Sprintf("replay of run %s diverged at %s: satisfied %t, replayed %t",
				r.RunID, d.Path, d.Original.Satisfied, d.Replayed.Satisfied))
		}
		if len(r.Diffs) == 0 {
			result.AddError(fmt.Sprintf("replay of run %s changed the verdict", r.RunID))
		}
	}
	return nil
}
