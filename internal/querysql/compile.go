package querysql

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/tripir/internal/expr"
	"github.com/roach88/tripir/internal/value"
)

// ErrUnsupported reports an expression with no SQL translation. Callers
// fall back to evaluating the expression in Go.
var ErrUnsupported = errors.New("expression cannot be pushed down to SQL")

// DefaultColumn is the JSON column record fields are extracted from.
const DefaultColumn = "data"

// Compiler compiles expression filters to parameterized SQLite over a JSON
// column.
//
// A compiled filter never rejects a record the Go evaluator would keep:
// every boolean fragment yields 0 or 1 (never NULL), and arithmetic degrades
// to NULL on non-numbers exactly as expr.Eval does. It may keep records the
// evaluator rejects (SQLite compares across storage classes), so callers
// re-check results with expr.EvalBool.
//
// CRITICAL: All values are parameterized, never interpolated.
// CRITICAL: Every SELECT includes ORDER BY for deterministic results.
type Compiler struct {
	// Column is the JSON column holding record fields.
	Column string
}

// NewCompiler creates a Compiler reading fields from DefaultColumn.
func NewCompiler() *Compiler {
	return &Compiler{Column: DefaultColumn}
}

// Select describes a record query.
//
// Semantics:
//
//	SELECT <columns> FROM <from> WHERE <equals...> AND <filter> ORDER BY id
type Select struct {
	From    string         // table name
	Columns []string       // nil = *
	Equals  map[string]any // column = value conditions on real columns
	Filter  expr.Expr      // nil = no filter
}

// CompileSelect compiles q to SQL.
// Returns (sql, params, error). A filter outside the SQL subset fails with
// an error wrapping ErrUnsupported.
func (c *Compiler) CompileSelect(q Select) (string, []any, error) {
	if q.From == "" {
		return "", nil, fmt.Errorf("select requires a table")
	}

	var where []string
	var params []any

	// Sort keys for deterministic output
	cols := make([]string, 0, len(q.Equals))
	for col := range q.Equals {
		cols = append(cols, col)
	}
	sort.Strings(cols)
	for _, col := range cols {
		where = append(where, col+" = ?")
		params = append(params, q.Equals[col])
	}

	if expr.Deref(q.Filter) != nil {
		sql, fp, err := c.CompileFilter(q.Filter)
		if err != nil {
			return "", nil, fmt.Errorf("compile filter: %w", err)
		}
		where = append(where, "("+sql+")")
		params = append(params, fp...)
	}

	selectClause := "*"
	if len(q.Columns) > 0 {
		selectClause = strings.Join(q.Columns, ", ")
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "SELECT %s FROM %s", selectClause, q.From)
	if len(where) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(where, " AND "))
	}
	// MANDATORY: stable order, COLLATE BINARY for text ids
	sb.WriteString(" ORDER BY id ASC COLLATE BINARY")

	return sb.String(), params, nil
}

// CompileFilter compiles e as a boolean WHERE fragment.
// Returns (sql, params, error).
func (c *Compiler) CompileFilter(e expr.Expr) (string, []any, error) {
	if e == nil {
		return "1 = 1", nil, nil
	}
	return c.compileBool(e)
}

// compileBool compiles e so the fragment is 1 exactly when
// value.Truthy(expr.Eval(e)) holds, and 0 otherwise.
func (c *Compiler) compileBool(e expr.Expr) (string, []any, error) {
	switch n := expr.Deref(e).(type) {
	case expr.Value:
		if value.Truthy(literal(n)) {
			return "1 = 1", nil, nil
		}
		return "1 = 0", nil, nil

	case expr.Field:
		return c.compileTruthyField(n.Name)

	case expr.Arithmetic:
		sql, params, err := c.compileNumber(n)
		if err != nil {
			return "", nil, err
		}
		return "COALESCE((" + sql + ") != 0, 0)", params, nil

	case expr.UnaryOp:
		if n.Op != expr.OpNot {
			return "", nil, expr.NewUnknownUnaryOperator(n.Op)
		}
		sql, params, err := c.compileBool(n.Operand)
		if err != nil {
			return "", nil, err
		}
		return "NOT (" + sql + ")", params, nil

	case expr.Op:
		return c.compileOp(n)

	case expr.Aggregate:
		return "", nil, fmt.Errorf("aggregate: %w", ErrUnsupported)

	case nil:
		return "", nil, expr.NewMalformedRecord("nil expression")

	default:
		return "", nil, fmt.Errorf("%T: %w", e, ErrUnsupported)
	}
}

func (c *Compiler) compileOp(n expr.Op) (string, []any, error) {
	switch n.Op {
	case expr.OpAnd, expr.OpOr:
		left, lp, err := c.compileBool(n.Left)
		if err != nil {
			return "", nil, err
		}
		right, rp, err := c.compileBool(n.Right)
		if err != nil {
			return "", nil, err
		}
		joiner := " AND "
		if n.Op == expr.OpOr {
			joiner = " OR "
		}
		return "(" + left + joiner + right + ")", append(lp, rp...), nil

	case expr.OpEq, expr.OpNe, expr.OpGt, expr.OpGe, expr.OpLt, expr.OpLe:
		left, lp, err := c.compileScalar(n.Left)
		if err != nil {
			return "", nil, err
		}
		right, rp, err := c.compileScalar(n.Right)
		if err != nil {
			return "", nil, err
		}
		params := append(lp, rp...)

		switch n.Op {
		case expr.OpEq:
			// IS treats NULL as a value, matching value.Equal(Null, Null)
			return left + " IS " + right, params, nil
		case expr.OpNe:
			return left + " IS NOT " + right, params, nil
		default:
			cmp := "COALESCE(" + left + " " + n.Op + " " + right + ", 0)"
			guard, gp, ok := c.containerGuard(n.Left, n.Right)
			if !ok {
				return cmp, params, nil
			}
			// json_extract yields containers as JSON text, which SQLite
			// orders byte by byte; value.Compare orders them element-wise.
			return "(CASE WHEN " + guard + " THEN 1 ELSE " + cmp + " END)", append(gp, params...), nil
		}

	case expr.OpInclude, expr.OpIntersect:
		return "", nil, fmt.Errorf("%s: %w", n.Op, ErrUnsupported)

	default:
		return "", nil, expr.NewUnknownOperator(n.Op)
	}
}

// containerGuard returns a condition that holds when either field operand
// is a JSON array or object. ok is false unless both operands are fields;
// a container against a literal or arithmetic operand is never ordered by
// the evaluator, so SQL keeping or dropping it cannot lose a record.
func (c *Compiler) containerGuard(left, right expr.Expr) (string, []any, bool) {
	lf, lok := expr.Deref(left).(expr.Field)
	rf, rok := expr.Deref(right).(expr.Field)
	if !lok || !rok {
		return "", nil, false
	}
	lpath, err := jsonPath(lf.Name)
	if err != nil {
		return "", nil, false
	}
	rpath, err := jsonPath(rf.Name)
	if err != nil {
		return "", nil, false
	}
	col := c.column()
	return "json_type(" + col + ", ?) IN ('array', 'object') OR json_type(" + col + ", ?) IN ('array', 'object')",
		[]any{lpath, rpath}, true
}

// compileScalar compiles a value-producing operand.
func (c *Compiler) compileScalar(e expr.Expr) (string, []any, error) {
	switch n := expr.Deref(e).(type) {
	case expr.Value:
		param, err := valueToParam(literal(n))
		if err != nil {
			return "", nil, err
		}
		return "?", []any{param}, nil

	case expr.Field:
		path, err := jsonPath(n.Name)
		if err != nil {
			return "", nil, err
		}
		return "json_extract(" + c.column() + ", ?)", []any{path}, nil

	case expr.Arithmetic:
		return c.compileNumber(n)

	case expr.Op, expr.UnaryOp:
		// Boolean results are Bool values; SQLite would compare them as
		// integers, which value.Equal does not.
		return "", nil, fmt.Errorf("boolean operand: %w", ErrUnsupported)

	default:
		return "", nil, fmt.Errorf("%T: %w", e, ErrUnsupported)
	}
}

// compileNumber compiles an arithmetic operand to a fragment that is a
// number or NULL, never another storage class.
func (c *Compiler) compileNumber(e expr.Expr) (string, []any, error) {
	switch n := expr.Deref(e).(type) {
	case expr.Value:
		num, ok := value.AsNumber(literal(n))
		if !ok {
			return "NULL", nil, nil
		}
		return "?", []any{num}, nil

	case expr.Field:
		path, err := jsonPath(n.Name)
		if err != nil {
			return "", nil, err
		}
		col := c.column()
		return "(CASE WHEN json_type(" + col + ", ?) IN ('integer', 'real') THEN json_extract(" + col + ", ?) END)",
			[]any{path, path}, nil

	case expr.Arithmetic:
		switch n.Op {
		case expr.ArithAdd, expr.ArithSub, expr.ArithMul, expr.ArithDiv:
		default:
			return "", nil, expr.NewUnknownArithmeticOperator(n.Op)
		}
		left, lp, err := c.compileNumber(n.Left)
		if err != nil {
			return "", nil, err
		}
		right, rp, err := c.compileNumber(n.Right)
		if err != nil {
			return "", nil, err
		}
		params := append(lp, rp...)
		if n.Op == expr.ArithDiv {
			// Force real division; x / 0 is NULL in SQLite
			return "(" + left + " * 1.0 / " + right + ")", params, nil
		}
		return "(" + left + " " + n.Op + " " + right + ")", params, nil

	default:
		return "", nil, fmt.Errorf("non-numeric operand %T: %w", e, ErrUnsupported)
	}
}

// compileTruthyField mirrors value.Truthy on a JSON field.
func (c *Compiler) compileTruthyField(name string) (string, []any, error) {
	path, err := jsonPath(name)
	if err != nil {
		return "", nil, err
	}
	col := c.column()
	sql := "(CASE json_type(" + col + ", ?)" +
		" WHEN 'true' THEN 1" +
		" WHEN 'integer' THEN json_extract(" + col + ", ?) != 0" +
		" WHEN 'real' THEN json_extract(" + col + ", ?) != 0" +
		" WHEN 'text' THEN json_extract(" + col + ", ?) != ''" +
		" WHEN 'array' THEN json_array_length(" + col + ", ?) > 0" +
		" WHEN 'object' THEN json_extract(" + col + ", ?) != '{}'" +
		" ELSE 0 END)"
	return sql, []any{path, path, path, path, path, path}, nil
}

func (c *Compiler) column() string {
	if c.Column == "" {
		return DefaultColumn
	}
	return c.Column
}

// literal returns a Value node's literal, reading a nil literal as Null.
func literal(v expr.Value) value.Value {
	if v.Literal == nil {
		return value.Null{}
	}
	return v.Literal
}

// jsonPath builds the SQLite JSON path for a top-level record key.
// Keys are always quoted so dots and brackets stay part of the name.
func jsonPath(name string) (string, error) {
	if strings.ContainsAny(name, `"\`) {
		return "", fmt.Errorf("field %q: %w", name, ErrUnsupported)
	}
	return `$."` + name + `"`, nil
}

// valueToParam converts a literal to a Go native SQL parameter.
// Lists and records have no scalar SQL form.
func valueToParam(v value.Value) (any, error) {
	switch val := v.(type) {
	case value.Null:
		return nil, nil
	case value.Number:
		return float64(val), nil
	case value.Text:
		return string(val), nil
	case value.Bool:
		return bool(val), nil
	default:
		return nil, fmt.Errorf("%s literal: %w", value.KindOf(v), ErrUnsupported)
	}
}
