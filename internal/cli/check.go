package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/tripir/internal/engine"
	"github.com/roach88/tripir/internal/value"
)

// CheckOptions holds flags for the check command.
type CheckOptions struct {
	*RootOptions
	Database string

	// RunIDs allows overriding the run ID generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	RunIDs engine.RunIDGenerator
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CheckOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "check <ir-file> <candidate-file>",
		Short: "Check a candidate itinerary against a trip document",
		Long: `Check a candidate itinerary against every constraint slot of a trip
IR document and report the outcome slot by slot.

With --db, stage contexts whose record list is empty are filled with the
stored attraction, hotel and restaurant records of the stage's destination
city, and the document and run are saved for later replay.

Exit codes:
  0 - Candidate satisfies every present slot
  1 - At least one slot is unsatisfied, or the check failed
  2 - Command error (unreadable file, database error)

Examples:
  tripir check trip.cue plan.yaml
  tripir check trip.json plan.json --db ./tripir.db --format json`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (optional)")

	return cmd
}

func runCheck(opts *CheckOptions, docFile, candidateFile string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)

	doc, err := loadDocument(docFile)
	if err != nil {
		return failLoad(f, err)
	}
	cand, err := loadCandidate(candidateFile)
	if err != nil {
		return failLoad(f, err)
	}

	runIDs := opts.RunIDs
	if runIDs == nil {
		runIDs = engine.UUIDv7Generator{}
	}
	engOpts := []engine.Option{engine.WithRunIDGenerator(runIDs)}

	if opts.Database != "" {
		slog.Debug("opening database", "path", opts.Database)
		st, err := openStore(f, opts.Database)
		if err != nil {
			return err
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				slog.Error("error closing database", "error", closeErr)
			}
		}()
		engOpts = append(engOpts, engine.WithStore(st))
	}

	eng := engine.New(engOpts...)
	report, err := eng.Run(cmd.Context(), doc, cand)
	if err != nil {
		return failCheck(f, err)
	}

	if err := f.Print(report, func(w io.Writer) { printReport(w, report, opts.Verbose) }); err != nil {
		return err
	}
	if !report.Satisfied {
		return NewExitError(ExitFailure, fmt.Sprintf("%d slot(s) unsatisfied", len(report.Failed())))
	}
	return nil
}

// failCheck maps engine errors to CLI errors.
func failCheck(f *OutputFormatter, err error) error {
	var ce *engine.CheckError
	if !errors.As(err, &ce) {
		return f.Fail(ExitCommandError, ErrCodeStore, err, nil)
	}
	switch ce.Code {
	case engine.ErrCodeInvalidDocument:
		return f.Fail(ExitFailure, ErrCodeInvalid, err, ce.Validation)
	case engine.ErrCodeCandidateShape:
		return f.Fail(ExitCommandError, ErrCodeParse, err, nil)
	default:
		return f.Fail(ExitFailure, ErrCodeEvaluation, err, ce.Path)
	}
}

// printReport writes a report as text. Absent slots are only listed in
// verbose mode.
func printReport(w io.Writer, r *engine.Report, verbose bool) {
	if r.Satisfied {
		fmt.Fprintf(w, "%s Candidate satisfies the document (%d slot(s) evaluated)\n", markOK, r.Evaluated())
	} else {
		fmt.Fprintf(w, "%s Candidate fails %d of %d evaluated slot(s)\n", markFail, len(r.Failed()), r.Evaluated())
	}
	if r.RunID != "" {
		fmt.Fprintf(w, "  run: %s\n", r.RunID)
	}
	fmt.Fprintf(w, "  document: %s\n", r.DocumentID)
	fmt.Fprintln(w)

	for _, s := range r.Slots {
		if !s.Present {
			if verbose {
				fmt.Fprintf(w, "  - %s (absent)\n", s.Path)
			}
			continue
		}
		mark := markOK
		if !s.Satisfied {
			mark = markFail
		}
		fmt.Fprintf(w, "  %s %s = %s\n", mark, s.Path, formatValue(s.Value))
	}
}

// formatValue renders a slot value as canonical JSON.
func formatValue(v value.Value) string {
	if v == nil {
		return "null"
	}
	data, err := value.MarshalCanonical(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}
