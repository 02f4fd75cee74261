// Package expr provides the constraint expression tree used to describe
// trip requirements as data: "rating >= 4.5", "cost <= budget * 0.8",
// "sum of selected restaurant costs <= daily budget".
//
// NODE TYPES:
//
// Expr is a sealed interface using the marker method pattern. Exactly six
// node types implement it:
//
//	Value       literal (number, text, bool, list, null)
//	Field       lookup of a name in the evaluation Context
//	Op          binary predicate: == != > >= < <= include intersect and or
//	UnaryOp     not
//	Arithmetic  + - * / over numbers
//	Aggregate   sum | min | max | count over the Context's record list
//
// Backends that translate trees (SQL pushdown, solver model builders)
// switch exhaustively over these types:
//
//	switch n := e.(type) {
//	case Value:
//	case Field:
//	case Op:
//	case UnaryOp:
//	case Arithmetic:
//	case Aggregate:
//	}
//
// EVALUATION:
//
// Eval is a pure function of (node, Context). Trees are immutable after
// construction, so one tree may be evaluated from many goroutines at once.
// Absent data never fails: a missing field is value.Null, an empty aggregate
// is 0 or an empty list. The only errors are names the evaluator does not
// recognize (operators, aggregate functions).
//
// Division by zero, and arithmetic over non-numbers, evaluate to value.Null.
//
// SERIALIZATION:
//
// ToRecord and FromRecord convert between trees and plain tagged records:
//
//	{"type":"value","value": <any>}
//	{"type":"field","field": <string>}
//	{"type":"op","op": <string>,"left": <Expr>,"right": <Expr>}
//	{"type":"unary","op":"not","operand": <Expr>}
//	{"type":"arith","op": <string>,"left": <Expr>,"right": <Expr>}
//	{"type":"aggregate","func": <string>,"field": <string>,
//	 "return_field": <string>,"filter": <Expr|null>}
//
// The records hold only literals, lists and nested records, so they are safe
// to persist as JSON and to move between processes.
package expr
