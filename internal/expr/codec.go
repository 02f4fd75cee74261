package expr

import (
	"bytes"
	"fmt"

	"github.com/roach88/tripir/internal/value"
)

// Serialized "type" discriminators.
const (
	TypeValue     = "value"
	TypeField     = "field"
	TypeOp        = "op"
	TypeUnary     = "unary"
	TypeArith     = "arith"
	TypeAggregate = "aggregate"
)

// DomainExpr is the hash domain for expression fingerprints.
const DomainExpr = "tripir/expr/v1"

// ToRecord serializes e into its tagged record form.
// Children are serialized recursively. A nil e yields a nil Record.
func ToRecord(e Expr) value.Record {
	switch n := deref(e).(type) {
	case Value:
		lit := n.Literal
		if lit == nil {
			lit = value.Null{}
		}
		return value.Record{
			"type":  value.Text(TypeValue),
			"value": lit,
		}
	case Field:
		return value.Record{
			"type":  value.Text(TypeField),
			"field": value.Text(n.Name),
		}
	case Op:
		return value.Record{
			"type":  value.Text(TypeOp),
			"op":    value.Text(n.Op),
			"left":  childRecord(n.Left),
			"right": childRecord(n.Right),
		}
	case UnaryOp:
		return value.Record{
			"type":    value.Text(TypeUnary),
			"op":      value.Text(n.Op),
			"operand": childRecord(n.Operand),
		}
	case Arithmetic:
		return value.Record{
			"type":  value.Text(TypeArith),
			"op":    value.Text(n.Op),
			"left":  childRecord(n.Left),
			"right": childRecord(n.Right),
		}
	case Aggregate:
		return value.Record{
			"type":         value.Text(TypeAggregate),
			"func":         value.Text(n.Func),
			"field":        value.Text(n.Field),
			"return_field": value.Text(n.ReturnField),
			"filter":       childRecord(n.Filter),
		}
	default:
		return nil
	}
}

// childRecord serializes an optional child; absent children become null.
func childRecord(e Expr) value.Value {
	r := ToRecord(e)
	if r == nil {
		return value.Null{}
	}
	return r
}

// FromRecord reconstructs an expression from its tagged record form.
//
// Dispatch is keyed on "type"; children are rebuilt first. An unrecognized
// type fails with ErrCodeUnknownExprType. A missing child of op, unary or
// arith fails with ErrCodeMalformedRecord; other missing keys read as their
// zero value.
func FromRecord(r value.Record) (Expr, error) {
	typ := textField(r, "type")

	switch typ {
	case TypeValue:
		return Value{Literal: r.Get("value")}, nil

	case TypeField:
		return Field{Name: textField(r, "field")}, nil

	case TypeOp:
		left, right, err := decodePair(r, typ)
		if err != nil {
			return nil, err
		}
		return Op{Op: textField(r, "op"), Left: left, Right: right}, nil

	case TypeUnary:
		operand, err := decodeChild(r, "operand", typ)
		if err != nil {
			return nil, err
		}
		return UnaryOp{Op: textField(r, "op"), Operand: operand}, nil

	case TypeArith:
		left, right, err := decodePair(r, typ)
		if err != nil {
			return nil, err
		}
		return Arithmetic{Op: textField(r, "op"), Left: left, Right: right}, nil

	case TypeAggregate:
		agg := Aggregate{
			Func:        textField(r, "func"),
			Field:       textField(r, "field"),
			ReturnField: ProjectAll,
		}
		if rf, ok := r["return_field"].(value.Text); ok {
			agg.ReturnField = string(rf)
		}
		switch f := r.Get("filter").(type) {
		case value.Null:
		case value.Record:
			filter, err := FromRecord(f)
			if err != nil {
				return nil, fmt.Errorf("aggregate filter: %w", err)
			}
			agg.Filter = filter
		default:
			return nil, NewMalformedRecord("aggregate filter must be a record or null, got %s", value.KindOf(f))
		}
		return agg, nil

	default:
		return nil, NewUnknownExprType(typ)
	}
}

// decodePair decodes the left and right children of a binary node.
func decodePair(r value.Record, typ string) (Expr, Expr, error) {
	left, err := decodeChild(r, "left", typ)
	if err != nil {
		return nil, nil, err
	}
	right, err := decodeChild(r, "right", typ)
	if err != nil {
		return nil, nil, err
	}
	return left, right, nil
}

// decodeChild decodes a required child record.
func decodeChild(r value.Record, key, typ string) (Expr, error) {
	child, ok := r[key].(value.Record)
	if !ok {
		return nil, NewMalformedRecord("%s node requires %q to be a record", typ, key)
	}
	e, err := FromRecord(child)
	if err != nil {
		return nil, fmt.Errorf("%s.%s: %w", typ, key, err)
	}
	return e, nil
}

// textField reads a string-valued key, or "" when missing or not text.
func textField(r value.Record, key string) string {
	if t, ok := r[key].(value.Text); ok {
		return string(t)
	}
	return ""
}

// Marshal encodes e as JSON.
func Marshal(e Expr) ([]byte, error) {
	if e == nil {
		return []byte("null"), nil
	}
	return value.Marshal(ToRecord(e))
}

// Unmarshal decodes JSON produced by Marshal (or any producer of the tagged
// format). JSON null decodes to a nil Expr.
func Unmarshal(data []byte) (Expr, error) {
	v, err := value.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("decode expression: %w", err)
	}
	switch rec := v.(type) {
	case value.Null:
		return nil, nil
	case value.Record:
		return FromRecord(rec)
	default:
		return nil, NewMalformedRecord("expression must be a record, got %s", value.KindOf(v))
	}
}

// MarshalCanonical encodes e as RFC 8785 canonical JSON.
func MarshalCanonical(e Expr) ([]byte, error) {
	if e == nil {
		return []byte("null"), nil
	}
	return value.MarshalCanonical(ToRecord(e))
}

// Fingerprint returns the content-addressed ID of e.
// Two trees with the same serialized form share a fingerprint.
func Fingerprint(e Expr) (string, error) {
	var v value.Value = value.Null{}
	if r := ToRecord(e); r != nil {
		v = r
	}
	return value.HashCanonical(DomainExpr, v)
}

// JSON adapts an Expr for use as a field in structs encoded by
// encoding/json. A nil *JSON or a nil Expr encodes as null.
type JSON struct {
	Expr Expr
}

// Wrap returns a *JSON for e, or nil when e is nil so omitempty drops it.
func Wrap(e Expr) *JSON {
	if e == nil {
		return nil
	}
	return &JSON{Expr: e}
}

// Unwrap returns the wrapped Expr, or nil.
func (j *JSON) Unwrap() Expr {
	if j == nil {
		return nil
	}
	return j.Expr
}

// MarshalJSON implements json.Marshaler.
func (j JSON) MarshalJSON() ([]byte, error) {
	return Marshal(j.Expr)
}

// UnmarshalJSON implements json.Unmarshaler.
func (j *JSON) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		j.Expr = nil
		return nil
	}
	e, err := Unmarshal(data)
	if err != nil {
		return err
	}
	j.Expr = e
	return nil
}
