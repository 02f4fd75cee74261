package expr

import "github.com/roach88/tripir/internal/value"

// Expr is a node in the constraint expression tree.
//
// This is a sealed interface - only types in this package implement it.
// Each node exclusively owns its children; no node is shared between trees
// or mutated after construction.
type Expr interface {
	exprNode() // Marker method - seals interface to this package
}

// Binary operator names accepted by Op.
const (
	OpEq        = "=="
	OpNe        = "!="
	OpGt        = ">"
	OpGe        = ">="
	OpLt        = "<"
	OpLe        = "<="
	OpInclude   = "include"
	OpIntersect = "intersect"
	OpAnd       = "and"
	OpOr        = "or"
)

// OpNot is the only operator accepted by UnaryOp.
const OpNot = "not"

// Arithmetic operator names.
const (
	ArithAdd = "+"
	ArithSub = "-"
	ArithMul = "*"
	ArithDiv = "/"
)

// Aggregate function names.
const (
	FuncSum   = "sum"
	FuncMin   = "min"
	FuncMax   = "max"
	FuncCount = "count"
)

// ProjectAll is the return field that projects whole records from min/max.
const ProjectAll = "*"

// Value is a literal.
//
// Example:
//
//	Value{Literal: value.Number(4.5)}
type Value struct {
	Literal value.Value
}

func (Value) exprNode() {}

// Field looks up Name in the evaluation Context.
// A missing field evaluates to value.Null.
type Field struct {
	Name string
}

func (Field) exprNode() {}

// Op applies a binary predicate to two sub-expressions.
//
// Both sides are always evaluated; there is no short-circuit.
//
// Example ("rating >= 4.5"):
//
//	Op{Op: OpGe, Left: Field{Name: "rating"}, Right: Value{Literal: value.Number(4.5)}}
type Op struct {
	Op    string
	Left  Expr
	Right Expr
}

func (Op) exprNode() {}

// UnaryOp applies a unary operator. Only "not" is defined.
type UnaryOp struct {
	Op      string
	Operand Expr
}

func (UnaryOp) exprNode() {}

// Arithmetic combines two numeric sub-expressions.
//
// Example ("budget * 0.8"):
//
//	Arithmetic{Op: ArithMul, Left: Field{Name: "budget"}, Right: Value{Literal: value.Number(0.8)}}
type Arithmetic struct {
	Op    string
	Left  Expr
	Right Expr
}

func (Arithmetic) exprNode() {}

// Aggregate reduces the Context's record list.
//
// Semantics:
//  1. Keep each record r for which Filter is nil or Filter is truthy when
//     evaluated with r as the context
//  2. sum:   total of r[Field] over numeric values (0 when empty)
//  3. count: number of kept records (0 when empty)
//  4. min/max: every record sharing the extremal r[Field], projected
//     through ReturnField ("*" = whole record), as a list ([] when empty)
//
// ReturnField is ignored by sum and count.
type Aggregate struct {
	Func        string
	Field       string
	ReturnField string
	Filter      Expr // nil = keep every record
}

func (Aggregate) exprNode() {}

// Lit builds a Value node from a plain Go literal.
// Panics if v cannot be represented; use it for literals known at compile time.
func Lit(v any) Value {
	return Value{Literal: value.MustFrom(v)}
}

// Ref builds a Field node.
func Ref(name string) Field {
	return Field{Name: name}
}

// Bin builds an Op node.
func Bin(op string, left, right Expr) Op {
	return Op{Op: op, Left: left, Right: right}
}

// And is shorthand for Bin(OpAnd, left, right).
func And(left, right Expr) Op {
	return Op{Op: OpAnd, Left: left, Right: right}
}

// Or is shorthand for Bin(OpOr, left, right).
func Or(left, right Expr) Op {
	return Op{Op: OpOr, Left: left, Right: right}
}

// Not builds a UnaryOp negating operand.
func Not(operand Expr) UnaryOp {
	return UnaryOp{Op: OpNot, Operand: operand}
}

// Arith builds an Arithmetic node.
func Arith(op string, left, right Expr) Arithmetic {
	return Arithmetic{Op: op, Left: left, Right: right}
}

// Agg builds an Aggregate node. filter may be nil.
func Agg(fn, field, returnField string, filter Expr) Aggregate {
	return Aggregate{Func: fn, Field: field, ReturnField: returnField, Filter: filter}
}

// Deref maps pointer nodes to their value form so type switches only need
// to handle one shape. A nil pointer yields nil.
func Deref(e Expr) Expr {
	return deref(e)
}

func deref(e Expr) Expr {
	switch n := e.(type) {
	case *Value:
		if n != nil {
			return *n
		}
	case *Field:
		if n != nil {
			return *n
		}
	case *Op:
		if n != nil {
			return *n
		}
	case *UnaryOp:
		if n != nil {
			return *n
		}
	case *Arithmetic:
		if n != nil {
			return *n
		}
	case *Aggregate:
		if n != nil {
			return *n
		}
	default:
		return e
	}
	return nil
}
