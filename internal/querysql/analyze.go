package querysql

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/tripir/internal/expr"
	"github.com/roach88/tripir/internal/value"
)

// Analysis reports whether a filter can be pushed down to SQL.
type Analysis struct {
	// Pushable indicates CompileFilter succeeds for the expression.
	Pushable bool

	// Reasons lists the constructs that keep the filter in Go.
	// Empty when Pushable is true.
	Reasons []string
}

// Analyze checks e against the SQL-expressible subset.
//
// Non-pushable filters still work: the store evaluates them in Go after an
// unfiltered scan. Analyze is a pure function with no side effects.
func Analyze(e expr.Expr) Analysis {
	_, _, err := NewCompiler().CompileFilter(e)
	if err == nil {
		return Analysis{Pushable: true}
	}

	a := &analyzer{}
	if errors.Is(err, ErrUnsupported) {
		expr.Walk(e, a.visit)
	}
	if len(a.reasons) == 0 {
		a.add("%v", err)
	}
	return Analysis{Reasons: a.reasons}
}

// analyzer accumulates reasons during traversal.
type analyzer struct {
	reasons []string
}

func (a *analyzer) add(format string, args ...any) {
	a.reasons = append(a.reasons, fmt.Sprintf(format, args...))
}

func (a *analyzer) visit(n expr.Expr) bool {
	switch node := n.(type) {
	case expr.Aggregate:
		a.add("aggregate %s(%s) reduces a record list", node.Func, node.Field)
		return false
	case expr.Op:
		if node.Op == expr.OpInclude || node.Op == expr.OpIntersect {
			a.add("%s operator compares collections", node.Op)
		}
	case expr.Value:
		switch node.Literal.(type) {
		case value.List, value.Record:
			a.add("%s literal has no scalar SQL form", value.KindOf(node.Literal))
		}
	case expr.Field:
		if strings.ContainsAny(node.Name, `"\`) {
			a.add("field %q cannot be addressed by a JSON path", node.Name)
		}
	}
	return true
}
