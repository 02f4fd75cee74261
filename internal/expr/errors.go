package expr

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes expression errors.
type ErrorCode string

const (
	// ErrCodeUnknownOperator indicates an Op with an unrecognized operator name.
	ErrCodeUnknownOperator ErrorCode = "UNKNOWN_OPERATOR"

	// ErrCodeUnknownUnaryOperator indicates a UnaryOp other than "not".
	ErrCodeUnknownUnaryOperator ErrorCode = "UNKNOWN_UNARY_OPERATOR"

	// ErrCodeUnknownArithmeticOperator indicates an Arithmetic op outside + - * /.
	ErrCodeUnknownArithmeticOperator ErrorCode = "UNKNOWN_ARITHMETIC_OPERATOR"

	// ErrCodeUnknownAggregateFunc indicates an Aggregate func outside sum/min/max/count.
	ErrCodeUnknownAggregateFunc ErrorCode = "UNKNOWN_AGGREGATE_FUNC"

	// ErrCodeUnknownExprType indicates a serialized record with an unknown "type".
	ErrCodeUnknownExprType ErrorCode = "UNKNOWN_EXPR_TYPE"

	// ErrCodeMalformedRecord indicates a serialized record missing a child expression.
	ErrCodeMalformedRecord ErrorCode = "MALFORMED_RECORD"
)

// Error reports a malformed expression program.
//
// These are producer bugs, not transient conditions: they surface
// immediately from Eval or FromRecord and are never retried.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Name is the offending operator, function or type name.
	Name string

	// Message is a human-readable description.
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("%s: %s %q", e.Code, e.Message, e.Name)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewUnknownOperator creates an Error for an unrecognized binary operator.
func NewUnknownOperator(op string) *Error {
	return &Error{Code: ErrCodeUnknownOperator, Name: op, Message: "unknown operator"}
}

// NewUnknownUnaryOperator creates an Error for an unrecognized unary operator.
func NewUnknownUnaryOperator(op string) *Error {
	return &Error{Code: ErrCodeUnknownUnaryOperator, Name: op, Message: "unknown unary operator"}
}

// NewUnknownArithmeticOperator creates an Error for an unrecognized arithmetic operator.
func NewUnknownArithmeticOperator(op string) *Error {
	return &Error{Code: ErrCodeUnknownArithmeticOperator, Name: op, Message: "unknown arithmetic operator"}
}

// NewUnknownAggregateFunc creates an Error for an unrecognized aggregate function.
func NewUnknownAggregateFunc(fn string) *Error {
	return &Error{Code: ErrCodeUnknownAggregateFunc, Name: fn, Message: "unknown aggregate function"}
}

// NewUnknownExprType creates an Error for an unrecognized serialized node type.
func NewUnknownExprType(typ string) *Error {
	return &Error{Code: ErrCodeUnknownExprType, Name: typ, Message: "unknown expression type"}
}

// NewMalformedRecord creates an Error for a serialized node missing required structure.
func NewMalformedRecord(format string, args ...any) *Error {
	return &Error{Code: ErrCodeMalformedRecord, Message: fmt.Sprintf(format, args...)}
}

// CodeOf returns the ErrorCode carried by err, if any.
// Uses errors.As to handle wrapped errors.
func CodeOf(err error) (ErrorCode, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Code, true
	}
	return "", false
}

// IsUnknownOperator returns true for any unknown binary, unary or arithmetic operator.
func IsUnknownOperator(err error) bool {
	code, ok := CodeOf(err)
	if !ok {
		return false
	}
	switch code {
	case ErrCodeUnknownOperator, ErrCodeUnknownUnaryOperator, ErrCodeUnknownArithmeticOperator:
		return true
	default:
		return false
	}
}

// IsUnknownAggregateFunc returns true if err is an unknown aggregate function error.
func IsUnknownAggregateFunc(err error) bool {
	code, ok := CodeOf(err)
	return ok && code == ErrCodeUnknownAggregateFunc
}

// IsUnknownExprType returns true if err is an unknown expression type error.
func IsUnknownExprType(err error) bool {
	code, ok := CodeOf(err)
	return ok && code == ErrCodeUnknownExprType
}

// IsMalformedRecord returns true if err is a malformed record error.
func IsMalformedRecord(err error) bool {
	code, ok := CodeOf(err)
	return ok && code == ErrCodeMalformedRecord
}
