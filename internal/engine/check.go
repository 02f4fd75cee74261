package engine

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/tripir/internal/expr"
	"github.com/roach88/tripir/internal/ir"
	"github.com/roach88/tripir/internal/value"
)

// SlotResult is the outcome of one constraint slot.
type SlotResult struct {
	Path  string      `json:"path"`
	Stage int         `json:"stage"`
	Kind  ir.SlotKind `json:"kind"`

	// Present is false for an absent slot, which is vacuously satisfied.
	Present   bool `json:"present"`
	Satisfied bool `json:"satisfied"`

	// Value is the raw evaluation result of a present slot.
	Value value.Value `json:"value,omitempty"`
}

// UnmarshalJSON decodes a SlotResult, restoring Value as a value.Value.
func (r *SlotResult) UnmarshalJSON(data []byte) error {
	var raw struct {
		Path      string          `json:"path"`
		Stage     int             `json:"stage"`
		Kind      ir.SlotKind     `json:"kind"`
		Present   bool            `json:"present"`
		Satisfied bool            `json:"satisfied"`
		Value     json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*r = SlotResult{
		Path:      raw.Path,
		Stage:     raw.Stage,
		Kind:      raw.Kind,
		Present:   raw.Present,
		Satisfied: raw.Satisfied,
	}
	if len(raw.Value) > 0 {
		v, err := value.Unmarshal(raw.Value)
		if err != nil {
			return fmt.Errorf("slot %s: value: %w", raw.Path, err)
		}
		r.Value = v
	}
	return nil
}

// Report is the outcome of checking one candidate against one document.
type Report struct {
	RunID         string       `json:"run_id,omitempty"`
	DocumentID    string       `json:"document_id"`
	Satisfied     bool         `json:"satisfied"`
	Slots         []SlotResult `json:"slots"`
	EngineVersion string       `json:"engine_version"`
}

// Failed returns the present slots that were not satisfied, in slot order.
func (r *Report) Failed() []SlotResult {
	var out []SlotResult
	for _, s := range r.Slots {
		if !s.Satisfied {
			out = append(out, s)
		}
	}
	return out
}

// Result returns the result stored under path.
func (r *Report) Result(path string) (SlotResult, bool) {
	for _, s := range r.Slots {
		if s.Path == path {
			return s, true
		}
	}
	return SlotResult{}, false
}

// Evaluated returns how many slots were present and evaluated.
func (r *Report) Evaluated() int {
	n := 0
	for _, s := range r.Slots {
		if s.Present {
			n++
		}
	}
	return n
}

// MarshalCanonical returns the report as RFC 8785 canonical JSON.
func (r *Report) MarshalCanonical() ([]byte, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	v, err := value.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return value.MarshalCanonical(v)
}

// Check evaluates every constraint slot of doc against cand.
//
// Absent slots are satisfied without invoking the evaluator. A present slot
// is satisfied when its result is truthy. The candidate is read only.
//
// Check does not validate doc and assigns no run ID; see Engine.Run.
// The first evaluator error aborts the check with a slot error.
func Check(doc *ir.IR, cand Candidate) (*Report, error) {
	id, err := doc.DocumentID()
	if err != nil {
		return nil, fmt.Errorf("document id: %w", err)
	}

	slots := doc.Slots()
	report := &Report{
		DocumentID:    id,
		Satisfied:     true,
		Slots:         make([]SlotResult, len(slots)),
		EngineVersion: ir.EngineVersion,
	}

	for i, s := range slots {
		res := SlotResult{
			Path:      s.Path,
			Stage:     s.Stage,
			Kind:      s.Kind,
			Present:   s.Present(),
			Satisfied: true,
		}
		if s.Present() {
			v, err := expr.Eval(s.Expr, cand.ContextFor(s))
			if err != nil {
				return nil, NewSlotError(s.Path, err)
			}
			res.Value = v
			res.Satisfied = value.Truthy(v)
		}
		if !res.Satisfied {
			report.Satisfied = false
		}
		report.Slots[i] = res
	}
	return report, nil
}
