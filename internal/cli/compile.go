package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/tripir/internal/compiler"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string
}

// CompilationResult is the JSON payload of the compile command.
type CompilationResult struct {
	DocumentID string          `json:"document_id"`
	Stages     int             `json:"stages"`
	Slots      int             `json:"slots"`
	Output     string          `json:"output,omitempty"`
	Document   json.RawMessage `json:"document,omitempty"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <file>",
		Short: "Compile a trip request to canonical IR JSON",
		Long: `Compile a trip request (.cue, .yaml or .json) into a validated trip IR
document in canonical JSON.

CUE requests are unified with the built-in trip schema first, so type and
field errors carry file positions. The compiled document is validated
before it is written.

Examples:
  tripir compile trip.cue
  tripir compile trip.cue -o trip.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file (default: stdout)")

	return cmd
}

func runCompile(opts *CompileOptions, path string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)

	doc, err := loadDocument(path)
	if err != nil {
		return failLoad(f, err)
	}
	if errs := compiler.Validate(doc); len(errs) > 0 {
		return outputValidationErrors(f, errs)
	}

	data, err := doc.MarshalCanonical()
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeParse, err, nil)
	}
	id, err := doc.DocumentID()
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeParse, err, nil)
	}

	result := CompilationResult{
		DocumentID: id,
		Stages:     len(doc.Stages),
		Slots:      len(doc.PresentSlots()),
		Output:     opts.Output,
	}

	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, append(data, '\n'), 0644); err != nil {
			return f.Fail(ExitCommandError, ErrCodeWrite, fmt.Errorf("write output: %w", err), nil)
		}
		return f.Print(result, func(w io.Writer) {
			fmt.Fprintf(w, "%s Compiled %s (%d stage(s), %d constraint slot(s))\n", markOK, path, result.Stages, result.Slots)
			fmt.Fprintf(w, "  id: %s\n", id)
			fmt.Fprintf(w, "  output: %s\n", opts.Output)
		})
	}

	result.Document = data
	return f.Print(result, func(w io.Writer) {
		fmt.Fprintln(w, string(data))
	})
}
