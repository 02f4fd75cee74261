package harness

import "github.com/roach88/tripir/internal/value"

// Trace event types.
const (
	EventCase  = "case"  // a case was checked
	EventSlot  = "slot"  // a present slot was evaluated
	EventError = "error" // the check failed with a CheckError
)

// TraceEvent is one step of a scenario execution.
type TraceEvent struct {
	Type      string      `json:"type"`
	Case      string      `json:"case"`
	RunID     string      `json:"run_id,omitempty"`
	Path      string      `json:"path,omitempty"`
	Code      string      `json:"code,omitempty"`
	Satisfied bool        `json:"satisfied"`
	Value     value.Value `json:"value,omitempty"`
	Seq       int64       `json:"seq"`
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass is true when every case met its expect clause and every stored
	// run replayed identically.
	Pass bool `json:"pass"`

	// Trace holds case, slot and error events in execution order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains assertion failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddCaseTrace records the outcome of a checked case.
func (r *Result) AddCaseTrace(name, runID string, satisfied bool, seq int64) {
	r.Trace = append(r.Trace, TraceEvent{
		Type:      EventCase,
		Case:      name,
		RunID:     runID,
		Satisfied: satisfied,
		Seq:       seq,
	})
}

// AddSlotTrace records the evaluation of one present slot.
func (r *Result) AddSlotTrace(name, path string, satisfied bool, v value.Value, seq int64) {
	r.Trace = append(r.Trace, TraceEvent{
		Type:      EventSlot,
		Case:      name,
		Path:      path,
		Satisfied: satisfied,
		Value:     v,
		Seq:       seq,
	})
}

// AddErrorTrace records a case whose check failed.
func (r *Result) AddErrorTrace(name, code string, seq int64) {
	r.Trace = append(r.Trace, TraceEvent{
		Type: EventError,
		Case: name,
		Code: code,
		Seq:  seq,
	})
}

// CaseEvents returns the events of the named case, in order.
func (r *Result) CaseEvents(name string) []TraceEvent {
	var out []TraceEvent
	for _, e := range r.Trace {
		if e.Case == name {
			out = append(out, e)
		}
	}
	return out
}
