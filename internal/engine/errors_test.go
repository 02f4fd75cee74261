package engine

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/tripir/internal/expr"
	"github.com/roach88/tripir/internal/ir"
)

func TestCheckError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *CheckError
		want string
	}{
		{
			name: "invalid document",
			err: NewInvalidDocumentError([]ir.ValidationError{
				{Field: "peoples", Message: "must be positive, got 0"},
				{Field: "stages", Message: "at least one stage is required"},
			}),
			want: "INVALID_DOCUMENT: peoples: must be positive, got 0; stages: at least one stage is required",
		},
		{
			name: "slot",
			err:  NewSlotError("back_transport_constraints", expr.NewUnknownOperator("~=")),
			want: "SLOT_EVALUATION: constraint could not be evaluated (slot=back_transport_constraints): " + expr.NewUnknownOperator("~=").Error(),
		},
		{
			name: "candidate",
			err:  NewCandidateError("stages must be a list, got %s", "record"),
			want: "CANDIDATE_SHAPE: stages must be a list, got record",
		},
		{
			name: "replay",
			err:  NewReplayError("run-1", errors.New("boom")),
			want: "REPLAY_FAILED: replay failed (run=run-1): boom",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestCheckError_Predicates(t *testing.T) {
	wrapped := fmt.Errorf("check: %w", NewSlotError("p", expr.NewUnknownAggregateFunc("avg")))

	assert.True(t, IsSlotError(wrapped))
	assert.False(t, IsInvalidDocument(wrapped))
	assert.False(t, IsCandidateError(wrapped))
	assert.True(t, expr.IsUnknownAggregateFunc(wrapped))

	assert.False(t, IsSlotError(errors.New("plain")))
	assert.False(t, IsSlotError(nil))
}
