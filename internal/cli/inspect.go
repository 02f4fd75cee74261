package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/tripir/internal/compiler"
	"github.com/roach88/tripir/internal/expr"
	"github.com/roach88/tripir/internal/querysql"
	"github.com/roach88/tripir/internal/value"
)

// InspectResult describes a serialized expression.
type InspectResult struct {
	Type         string                     `json:"type"`
	Nodes        int                        `json:"nodes"`
	Fingerprint  string                     `json:"fingerprint"`
	Fields       []string                   `json:"fields"`
	RecordFields []string                   `json:"record_fields"`
	Aggregate    bool                       `json:"aggregate"`
	Pushdown     PushdownInfo               `json:"pushdown"`
	Problems     []compiler.ValidationError `json:"problems,omitempty"`
}

// PushdownInfo reports how the expression behaves as a store filter.
type PushdownInfo struct {
	Pushable bool     `json:"pushable"`
	SQL      string   `json:"sql,omitempty"`
	Params   []any    `json:"params,omitempty"`
	Reasons  []string `json:"reasons,omitempty"`
}

// NewInspectCommand creates the inspect command.
func NewInspectCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <expr-file>",
		Short: "Describe a serialized expression",
		Long: `Describe a serialized constraint expression: node count, referenced
context fields, fields read from aggregate records, its content
fingerprint and whether the store can push it down to SQL as a record
filter.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runInspect(opts *RootOptions, path string, cmd *cobra.Command) error {
	f := newFormatter(opts, cmd)

	e, err := loadExpr(path)
	if err != nil {
		return failLoad(f, err)
	}

	fp, err := expr.Fingerprint(e)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeParse, err, nil)
	}

	typ, _ := expr.ToRecord(e).Get("type").(value.Text)
	result := InspectResult{
		Type:         string(typ),
		Nodes:        expr.Size(e),
		Fingerprint:  fp,
		Fields:       nonNil(expr.Fields(e)),
		RecordFields: nonNil(expr.RecordFields(e)),
		Aggregate:    expr.HasAggregate(e),
		Problems:     compiler.ValidateExpr(e, "expr"),
	}

	analysis := querysql.Analyze(e)
	result.Pushdown = PushdownInfo{Pushable: analysis.Pushable, Reasons: analysis.Reasons}
	if analysis.Pushable {
		result.Pushdown.SQL, result.Pushdown.Params, _ = querysql.NewCompiler().CompileFilter(e)
	}

	return f.Print(result, func(w io.Writer) { printInspect(w, result) })
}

func printInspect(w io.Writer, r InspectResult) {
	fmt.Fprintf(w, "type:          %s\n", r.Type)
	fmt.Fprintf(w, "nodes:         %d\n", r.Nodes)
	fmt.Fprintf(w, "fingerprint:   %s\n", r.Fingerprint)
	fmt.Fprintf(w, "fields:        %s\n", joinOrDash(r.Fields))
	fmt.Fprintf(w, "record fields: %s\n", joinOrDash(r.RecordFields))
	fmt.Fprintf(w, "aggregate:     %t\n", r.Aggregate)

	if r.Pushdown.Pushable {
		fmt.Fprintf(w, "pushdown:      %s %s\n", markOK, r.Pushdown.SQL)
	} else {
		fmt.Fprintf(w, "pushdown:      %s evaluated in Go\n", markFail)
		for _, reason := range r.Pushdown.Reasons {
			fmt.Fprintf(w, "  - %s\n", reason)
		}
	}

	if len(r.Problems) > 0 {
		fmt.Fprintln(w, "problems:")
		for _, p := range r.Problems {
			fmt.Fprintf(w, "  %s\n", p.Error())
		}
	}
}

func joinOrDash(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	return strings.Join(items, ", ")
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
