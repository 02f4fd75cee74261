package compiler

import (
	"fmt"

	"github.com/roach88/tripir/internal/expr"
	"github.com/roach88/tripir/internal/ir"
)

// Validation error codes (E100-E199)
const (
	// Document structure (E100)
	ErrInvalidDocument = "E100" // ir.Validate failure

	// Expression errors (E101-E109)
	ErrUnknownOperator        = "E101" // op node with an unknown operator
	ErrUnknownUnaryOperator   = "E102" // unary node other than "not"
	ErrUnknownArithOperator   = "E103" // arith node with an unknown operator
	ErrUnknownAggregateFunc   = "E104" // aggregate with an unknown function
	ErrAggregateFieldMissing  = "E105" // sum/min/max without a field
	ErrEmptyFieldName         = "E106" // field node without a name
	ErrReturnFieldUnsupported = "E107" // return_field on sum/count
)

// ValidationError represents a validation error with a document path.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

var (
	binaryOps = map[string]bool{
		expr.OpEq: true, expr.OpNe: true,
		expr.OpGt: true, expr.OpGe: true, expr.OpLt: true, expr.OpLe: true,
		expr.OpInclude: true, expr.OpIntersect: true,
		expr.OpAnd: true, expr.OpOr: true,
	}
	arithOps = map[string]bool{
		expr.ArithAdd: true, expr.ArithSub: true, expr.ArithMul: true, expr.ArithDiv: true,
	}
	aggregateFuncs = map[string]bool{
		expr.FuncSum: true, expr.FuncCount: true, expr.FuncMin: true, expr.FuncMax: true,
	}
)

// Validate checks a compiled document: its structure via ir.Validate, then
// every present constraint slot via ValidateExpr.
// Returns all errors found (does not fail-fast).
func Validate(doc *ir.IR) []ValidationError {
	var errs []ValidationError

	for _, ve := range doc.Validate() {
		errs = append(errs, ValidationError{
			Field:   ve.Field,
			Message: ve.Message,
			Code:    ErrInvalidDocument,
		})
	}

	for _, s := range doc.PresentSlots() {
		errs = append(errs, ValidateExpr(s.Expr, s.Path)...)
	}
	return errs
}

// ValidateExpr reports every node of e that the evaluator would reject or
// that cannot mean what it says. path prefixes error fields.
func ValidateExpr(e expr.Expr, path string) []ValidationError {
	var errs []ValidationError
	add := func(field, code, format string, args ...any) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...), Code: code})
	}

	var walk func(e expr.Expr, path string)
	walk = func(e expr.Expr, path string) {
		switch n := expr.Deref(e).(type) {
		case expr.Field:
			if n.Name == "" {
				add(path+".field", ErrEmptyFieldName, "field name is empty")
			}
		case expr.Op:
			if !binaryOps[n.Op] {
				add(path+".op", ErrUnknownOperator, "unknown operator %q", n.Op)
			}
			walk(n.Left, path+".left")
			walk(n.Right, path+".right")
		case expr.UnaryOp:
			if n.Op != expr.OpNot {
				add(path+".op", ErrUnknownUnaryOperator, "unknown unary operator %q", n.Op)
			}
			walk(n.Operand, path+".operand")
		case expr.Arithmetic:
			if !arithOps[n.Op] {
				add(path+".op", ErrUnknownArithOperator, "unknown arithmetic operator %q", n.Op)
			}
			walk(n.Left, path+".left")
			walk(n.Right, path+".right")
		case expr.Aggregate:
			if !aggregateFuncs[n.Func] {
				add(path+".func", ErrUnknownAggregateFunc, "unknown aggregate function %q", n.Func)
			}
			if n.Func != expr.FuncCount && n.Field == "" {
				add(path+".field", ErrAggregateFieldMissing, "%s needs a field", n.Func)
			}
			if (n.Func == expr.FuncSum || n.Func == expr.FuncCount) && n.ReturnField != "" && n.ReturnField != expr.ProjectAll {
				add(path+".return_field", ErrReturnFieldUnsupported, "return_field %q is ignored by %s", n.ReturnField, n.Func)
			}
			if expr.Deref(n.Filter) != nil {
				walk(n.Filter, path+".filter")
			}
		}
	}
	walk(e, path)
	return errs
}
