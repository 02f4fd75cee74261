package expr

import (
	"fmt"
	"math"

	"github.com/roach88/tripir/internal/value"
)

// Eval evaluates e against ctx.
//
// Eval is deterministic and has no side effects. It fails only when a node
// names an operator or function the evaluator does not know; absent data
// degrades to value.Null or an empty result instead.
func Eval(e Expr, ctx Context) (value.Value, error) {
	switch n := deref(e).(type) {
	case Value:
		if n.Literal == nil {
			return value.Null{}, nil
		}
		return n.Literal, nil
	case Field:
		return ctx.Lookup(n.Name), nil
	case Op:
		return evalOp(n, ctx)
	case UnaryOp:
		return evalUnary(n, ctx)
	case Arithmetic:
		return evalArithmetic(n, ctx)
	case Aggregate:
		return evalAggregate(n, ctx)
	case nil:
		return nil, NewMalformedRecord("nil expression")
	default:
		return nil, fmt.Errorf("unsupported expression node: %T", e)
	}
}

// EvalBool evaluates e and reads the result as a boolean via value.Truthy.
func EvalBool(e Expr, ctx Context) (bool, error) {
	v, err := Eval(e, ctx)
	if err != nil {
		return false, err
	}
	return value.Truthy(v), nil
}

// evalOp evaluates both operands, then dispatches on the operator name.
func evalOp(n Op, ctx Context) (value.Value, error) {
	left, err := Eval(n.Left, ctx)
	if err != nil {
		return nil, err
	}
	right, err := Eval(n.Right, ctx)
	if err != nil {
		return nil, err
	}

	switch n.Op {
	case OpEq:
		return value.Bool(value.Equal(left, right)), nil
	case OpNe:
		return value.Bool(!value.Equal(left, right)), nil
	case OpGt:
		return ordered(left, right, func(c int) bool { return c > 0 }), nil
	case OpGe:
		return ordered(left, right, func(c int) bool { return c >= 0 }), nil
	case OpLt:
		return ordered(left, right, func(c int) bool { return c < 0 }), nil
	case OpLe:
		return ordered(left, right, func(c int) bool { return c <= 0 }), nil
	case OpInclude:
		// include(a, b): a is the collection, b the needle
		return value.Bool(value.Truthy(left) && value.Contains(left, right)), nil
	case OpIntersect:
		return value.Bool(intersects(left, right)), nil
	case OpAnd:
		return value.Bool(value.Truthy(left) && value.Truthy(right)), nil
	case OpOr:
		return value.Bool(value.Truthy(left) || value.Truthy(right)), nil
	default:
		return nil, NewUnknownOperator(n.Op)
	}
}

// ordered applies an ordering test. Values without a common order
// (different kinds, null) compare false for every ordering operator.
func ordered(left, right value.Value, test func(int) bool) value.Value {
	c, ok := value.Compare(left, right)
	return value.Bool(ok && test(c))
}

// intersects reports whether two collections share an element.
// Scalars count as single-element collections.
func intersects(left, right value.Value) bool {
	rs := value.Elements(right)
	for _, l := range value.Elements(left) {
		for _, r := range rs {
			if value.Equal(l, r) {
				return true
			}
		}
	}
	return false
}

func evalUnary(n UnaryOp, ctx Context) (value.Value, error) {
	operand, err := Eval(n.Operand, ctx)
	if err != nil {
		return nil, err
	}

	switch n.Op {
	case OpNot:
		return value.Bool(!value.Truthy(operand)), nil
	default:
		return nil, NewUnknownUnaryOperator(n.Op)
	}
}

// evalArithmetic applies + - * / to two numbers.
// A non-number operand, a zero divisor or a non-finite result yields Null.
func evalArithmetic(n Arithmetic, ctx Context) (value.Value, error) {
	left, err := Eval(n.Left, ctx)
	if err != nil {
		return nil, err
	}
	right, err := Eval(n.Right, ctx)
	if err != nil {
		return nil, err
	}

	switch n.Op {
	case ArithAdd, ArithSub, ArithMul, ArithDiv:
	default:
		return nil, NewUnknownArithmeticOperator(n.Op)
	}

	a, okA := value.AsNumber(left)
	b, okB := value.AsNumber(right)
	if !okA || !okB {
		return value.Null{}, nil
	}

	var out float64
	switch n.Op {
	case ArithAdd:
		out = a + b
	case ArithSub:
		out = a - b
	case ArithMul:
		out = a * b
	case ArithDiv:
		if b == 0 {
			return value.Null{}, nil
		}
		out = a / b
	}

	if math.IsInf(out, 0) || math.IsNaN(out) {
		return value.Null{}, nil
	}
	return value.Number(out), nil
}
