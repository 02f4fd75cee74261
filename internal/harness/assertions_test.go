package harness

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tripir/internal/engine"
	"github.com/roach88/tripir/internal/ir"
	"github.com/roach88/tripir/internal/value"
)

// sampleReport has one satisfied and one failed slot.
func sampleReport() *engine.Report {
	return &engine.Report{
		RunID:     "s/c",
		Satisfied: false,
		Slots: []engine.SlotResult{
			{Path: "stages[0].attraction_constraints", Stage: 0, Kind: ir.KindAttraction, Present: true, Satisfied: true, Value: value.Bool(true)},
			{Path: "back_transport_constraints", Stage: ir.TripLevel, Kind: ir.KindTransport, Present: true, Satisfied: false, Value: value.Bool(false)},
			{Path: "departure_transport_constraints", Stage: ir.TripLevel, Kind: ir.KindTransport, Satisfied: true},
		},
	}
}

func TestEvaluateExpect(t *testing.T) {
	tests := []struct {
		name   string
		expect *ExpectClause
		want   []string
	}{
		{
			name:   "no expect clause",
			expect: nil,
		},
		{
			name:   "verdict matches",
			expect: &ExpectClause{Satisfied: boolPtr(false)},
		},
		{
			name:   "verdict differs",
			expect: &ExpectClause{Satisfied: boolPtr(true)},
			want:   []string{"Expected: satisfied=true"},
		},
		{
			name: "slots match",
			expect: &ExpectClause{Slots: map[string]bool{
				"stages[0].attraction_constraints": true,
				"back_transport_constraints":       false,
				"departure_transport_constraints":  true,
			}},
		},
		{
			name:   "slot differs",
			expect: &ExpectClause{Slots: map[string]bool{"back_transport_constraints": true}},
			want:   []string{"Actual: back_transport_constraints satisfied=false (value false)"},
		},
		{
			name:   "unknown slot",
			expect: &ExpectClause{Slots: map[string]bool{"stages[3].restaurant_constraints": true}},
			want:   []string{"no such slot in document"},
		},
		{
			name:   "error expected but check succeeded",
			expect: &ExpectClause{Error: "SLOT_EVALUATION"},
			want:   []string{"check succeeded (satisfied=false)"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msgs := EvaluateExpect(Case{Name: "c", Expect: tt.expect}, sampleReport(), nil)
			require.Len(t, msgs, len(tt.want))
			for i, w := range tt.want {
				assert.Contains(t, msgs[i], w)
			}
		})
	}
}

func TestEvaluateExpect_CheckError(t *testing.T) {
	slotErr := engine.NewSlotError("stages[0].attraction_constraints", errors.New("boom"))

	msgs := EvaluateExpect(Case{Name: "c", Expect: &ExpectClause{Error: "SLOT_EVALUATION"}}, nil, slotErr)
	assert.Empty(t, msgs)

	msgs = EvaluateExpect(Case{Name: "c", Expect: &ExpectClause{Error: "INVALID_DOCUMENT"}}, nil, slotErr)
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], "Expected: error INVALID_DOCUMENT")

	msgs = EvaluateExpect(Case{Name: "c"}, nil, slotErr)
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], "check to succeed")
}

func TestAssertionError_Format(t *testing.T) {
	err := &AssertionError{
		Type:     AssertSatisfied,
		Case:     "over_budget",
		Expected: "satisfied=true",
		Actual:   "satisfied=false",
		Failed:   []string{"dynamic_constraints.total_budget"},
	}

	msg := err.Error()
	assert.Contains(t, msg, "Assertion failed: satisfied (case over_budget)")
	assert.Contains(t, msg, "  Expected: satisfied=true\n")
	assert.Contains(t, msg, "  Actual: satisfied=false\n")
	assert.Contains(t, msg, "[1] dynamic_constraints.total_budget")
}
