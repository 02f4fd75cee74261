package compiler

import (
	"fmt"

	"cuelang.org/go/cue"

	"github.com/roach88/tripir/internal/expr"
	"github.com/roach88/tripir/internal/value"
)

// CompileExpr compiles a CUE value holding one expression in tagged struct
// form. path names the value in error messages.
func CompileExpr(v cue.Value, path string) (expr.Expr, error) {
	if err := v.Err(); err != nil {
		return nil, cueError(err, path)
	}
	return compileExpr(v, path)
}

// compileExpr mirrors expr.FromRecord node by node, keeping the CUE
// position of every failure.
func compileExpr(v cue.Value, path string) (expr.Expr, error) {
	if v.Kind() != cue.StructKind {
		return nil, &CompileError{
			Field:   path,
			Message: fmt.Sprintf("expression must be a struct, got %v", v.Kind()),
			Pos:     v.Pos(),
		}
	}

	typ, err := requiredText(v, "type", path)
	if err != nil {
		return nil, err
	}

	switch typ {
	case expr.TypeValue:
		lit, err := literal(v, path)
		if err != nil {
			return nil, err
		}
		return expr.Value{Literal: lit}, nil

	case expr.TypeField:
		name, err := requiredText(v, "field", path)
		if err != nil {
			return nil, err
		}
		return expr.Field{Name: name}, nil

	case expr.TypeOp, expr.TypeArith:
		op, err := requiredText(v, "op", path)
		if err != nil {
			return nil, err
		}
		left, err := requiredChild(v, "left", path)
		if err != nil {
			return nil, err
		}
		right, err := requiredChild(v, "right", path)
		if err != nil {
			return nil, err
		}
		if typ == expr.TypeArith {
			return expr.Arithmetic{Op: op, Left: left, Right: right}, nil
		}
		return expr.Op{Op: op, Left: left, Right: right}, nil

	case expr.TypeUnary:
		op, err := requiredText(v, "op", path)
		if err != nil {
			return nil, err
		}
		operand, err := requiredChild(v, "operand", path)
		if err != nil {
			return nil, err
		}
		return expr.UnaryOp{Op: op, Operand: operand}, nil

	case expr.TypeAggregate:
		fn, err := requiredText(v, "func", path)
		if err != nil {
			return nil, err
		}
		agg := expr.Aggregate{Func: fn, ReturnField: expr.ProjectAll}
		if agg.Field, err = optionalText(v, "field", path+".field"); err != nil {
			return nil, err
		}
		if rf, ok := lookup(v, "return_field"); ok {
			if agg.ReturnField, err = rf.String(); err != nil {
				return nil, cueError(err, path+".return_field")
			}
		}
		if agg.Filter, err = slotField(v, "filter", path+".filter"); err != nil {
			return nil, err
		}
		return agg, nil

	default:
		return nil, &CompileError{
			Field:   path + ".type",
			Message: fmt.Sprintf("unknown expression type %q", typ),
			Pos:     v.Pos(),
			Err:     expr.NewUnknownExprType(typ),
		}
	}
}

// literal decodes the "value" field of a value node through its JSON form.
// A missing value is null.
func literal(v cue.Value, path string) (value.Value, error) {
	f := v.LookupPath(cue.ParsePath("value"))
	if !f.Exists() {
		return value.Null{}, nil
	}
	data, err := f.MarshalJSON()
	if err != nil {
		return nil, cueError(err, path+".value")
	}
	lit, err := value.Unmarshal(data)
	if err != nil {
		return nil, &CompileError{Field: path + ".value", Message: err.Error(), Pos: f.Pos(), Err: err}
	}
	return lit, nil
}

func requiredText(v cue.Value, name, path string) (string, error) {
	f, ok := lookup(v, name)
	if !ok {
		return "", &CompileError{
			Field:   path + "." + name,
			Message: "is required",
			Pos:     v.Pos(),
		}
	}
	s, err := f.String()
	if err != nil {
		return "", cueError(err, path+"."+name)
	}
	return s, nil
}

func optionalText(v cue.Value, name, path string) (string, error) {
	f, ok := lookup(v, name)
	if !ok {
		return "", nil
	}
	s, err := f.String()
	if err != nil {
		return "", cueError(err, path)
	}
	return s, nil
}

func requiredChild(v cue.Value, name, path string) (expr.Expr, error) {
	f, ok := lookup(v, name)
	if !ok || f.Null() == nil {
		return nil, &CompileError{
			Field:   path + "." + name,
			Message: "is required",
			Pos:     v.Pos(),
			Err:     expr.NewMalformedRecord("%s node requires %q to be a record", path, name),
		}
	}
	return compileExpr(f, path+"."+name)
}
