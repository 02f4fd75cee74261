package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/tripir/internal/store"
	"github.com/roach88/tripir/internal/value"
)

// ErrNoStore is returned by operations that need a store when none is
// configured.
var ErrNoStore = errors.New("engine has no store")

// SlotDiff is a slot whose replayed outcome differs from the stored one.
type SlotDiff struct {
	Path     string
	Original SlotResult
	Replayed SlotResult
}

// ReplayResult compares a stored run with a fresh check of the same inputs.
type ReplayResult struct {
	RunID    string
	Original *Report
	Replayed *Report
	Diffs    []SlotDiff
}

// Identical reports whether the replay reproduced the stored run exactly.
func (r *ReplayResult) Identical() bool {
	return len(r.Diffs) == 0 && r.Original.Satisfied == r.Replayed.Satisfied
}

// Replay re-checks the stored run runID against its stored document and
// candidate. Checks are pure, so a replay under the same engine version is
// expected to be identical; differences point at evaluator changes.
// Replay writes nothing.
func (e *Engine) Replay(ctx context.Context, runID string) (*ReplayResult, error) {
	if e.store == nil {
		return nil, ErrNoStore
	}
	run, err := e.store.ReadCheckRun(ctx, runID)
	if err != nil {
		return nil, NewReplayError(runID, err)
	}
	return e.replayRun(ctx, run)
}

// ReplayAll replays every stored run of documentID in seq order, or every
// run when documentID is empty.
func (e *Engine) ReplayAll(ctx context.Context, documentID string) ([]*ReplayResult, error) {
	if e.store == nil {
		return nil, ErrNoStore
	}
	runs, err := e.store.ListCheckRuns(ctx, documentID)
	if err != nil {
		return nil, err
	}
	out := make([]*ReplayResult, 0, len(runs))
	for _, run := range runs {
		res, err := e.replayRun(ctx, run)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, nil
}

func (e *Engine) replayRun(ctx context.Context, run store.CheckRun) (*ReplayResult, error) {
	doc, err := e.store.LoadDocument(ctx, run.DocumentID)
	if err != nil {
		return nil, NewReplayError(run.ID, err)
	}

	v, err := value.Unmarshal(run.Candidate)
	if err != nil {
		return nil, NewReplayError(run.ID, fmt.Errorf("decode candidate: %w", err))
	}
	cand, err := CandidateFromValue(v)
	if err != nil {
		return nil, NewReplayError(run.ID, err)
	}

	var original Report
	if err := json.Unmarshal(run.Report, &original); err != nil {
		return nil, NewReplayError(run.ID, fmt.Errorf("decode report: %w", err))
	}

	replayed, err := Check(doc, cand)
	if err != nil {
		return nil, NewReplayError(run.ID, err)
	}
	replayed.RunID = run.ID

	res := &ReplayResult{
		RunID:    run.ID,
		Original: &original,
		Replayed: replayed,
		Diffs:    diffSlots(original.Slots, replayed.Slots),
	}

	if !res.Identical() {
		slog.Warn("replay diverged",
			"run_id", run.ID,
			"document_id", run.DocumentID,
			"diffs", len(res.Diffs),
			"stored_engine_version", original.EngineVersion,
		)
	}
	return res, nil
}

// diffSlots pairs results by path. A path missing on one side is reported
// against a zero SlotResult.
func diffSlots(original, replayed []SlotResult) []SlotDiff {
	byPath := make(map[string]SlotResult, len(original))
	for _, s := range original {
		byPath[s.Path] = s
	}

	var diffs []SlotDiff
	seen := make(map[string]bool, len(replayed))
	for _, r := range replayed {
		seen[r.Path] = true
		o, ok := byPath[r.Path]
		if !ok || !sameResult(o, r) {
			diffs = append(diffs, SlotDiff{Path: r.Path, Original: o, Replayed: r})
		}
	}
	for _, o := range original {
		if !seen[o.Path] {
			diffs = append(diffs, SlotDiff{Path: o.Path, Original: o})
		}
	}
	return diffs
}

func sameResult(a, b SlotResult) bool {
	if a.Present != b.Present || a.Satisfied != b.Satisfied {
		return false
	}
	if a.Value == nil || b.Value == nil {
		return a.Value == nil && b.Value == nil
	}
	return value.Equal(a.Value, b.Value)
}
