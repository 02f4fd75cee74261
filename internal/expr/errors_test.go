package expr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Format(t *testing.T) {
	assert.Equal(t, `UNKNOWN_OPERATOR: unknown operator "xor"`, NewUnknownOperator("xor").Error())
	assert.Equal(t, `UNKNOWN_EXPR_TYPE: unknown expression type "bogus"`, NewUnknownExprType("bogus").Error())
	assert.Equal(t, `MALFORMED_RECORD: op node requires "left" to be a record`,
		NewMalformedRecord("%s node requires %q to be a record", "op", "left").Error())
}

func TestError_Predicates(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		operator  bool
		aggregate bool
		exprType  bool
		malformed bool
	}{
		{"binary", NewUnknownOperator("x"), true, false, false, false},
		{"unary", NewUnknownUnaryOperator("x"), true, false, false, false},
		{"arith", NewUnknownArithmeticOperator("x"), true, false, false, false},
		{"aggregate", NewUnknownAggregateFunc("x"), false, true, false, false},
		{"type", NewUnknownExprType("x"), false, false, true, false},
		{"malformed", NewMalformedRecord("x"), false, false, false, true},
		{"plain", errors.New("boom"), false, false, false, false},
		{"nil", nil, false, false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.operator, IsUnknownOperator(tt.err))
			assert.Equal(t, tt.aggregate, IsUnknownAggregateFunc(tt.err))
			assert.Equal(t, tt.exprType, IsUnknownExprType(tt.err))
			assert.Equal(t, tt.malformed, IsMalformedRecord(tt.err))
		})
	}
}

func TestError_Wrapped(t *testing.T) {
	err := fmt.Errorf("stage 2 restaurant_constraints: %w", NewUnknownAggregateFunc("avg"))

	code, ok := CodeOf(err)
	assert.True(t, ok)
	assert.Equal(t, ErrCodeUnknownAggregateFunc, code)
	assert.True(t, IsUnknownAggregateFunc(err))

	var e *Error
	assert.True(t, errors.As(err, &e))
	assert.Equal(t, "avg", e.Name)
}
