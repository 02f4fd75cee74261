package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/tripir/internal/expr"
	"github.com/roach88/tripir/internal/value"
)

// EvalOptions holds flags for the eval command.
type EvalOptions struct {
	*RootOptions
	Context string
}

// EvalResult is the outcome of evaluating one expression.
type EvalResult struct {
	Value  value.Value `json:"value"`
	Truthy bool        `json:"truthy"`
}

// NewEvalCommand creates the eval command.
func NewEvalCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EvalOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "eval <expr-file>",
		Short: "Evaluate a serialized expression",
		Long: `Evaluate a serialized constraint expression against a context.

The context is a mapping of field bindings; its "global" list holds the
records aggregates reduce over. Missing fields evaluate to null.

Examples:
  tripir eval budget.json --context plan.yaml
  tripir eval rating.cue --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEval(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Context, "context", "c", "", "context file (.json, .yaml or .cue)")

	return cmd
}

func runEval(opts *EvalOptions, exprFile string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)

	e, err := loadExpr(exprFile)
	if err != nil {
		return failLoad(f, err)
	}
	ctx, err := loadContext(opts.Context)
	if err != nil {
		return failLoad(f, err)
	}
	f.VerboseLog("Evaluating %d node(s) against %d field(s), %d record(s)",
		expr.Size(e), len(ctx.Fields), len(ctx.Records))

	v, err := expr.Eval(e, ctx)
	if err != nil {
		code, _ := expr.CodeOf(err)
		return f.Fail(ExitFailure, ErrCodeEvaluation, err, string(code))
	}

	text, err := value.MarshalCanonical(v)
	if err != nil {
		return f.Fail(ExitFailure, ErrCodeEvaluation, err, nil)
	}

	result := EvalResult{Value: v, Truthy: value.Truthy(v)}
	return f.Print(result, func(w io.Writer) {
		fmt.Fprintln(w, string(text))
	})
}
