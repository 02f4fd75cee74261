package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/tripir/internal/engine"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
	All      bool
	Document string // with --all: only this document's runs
}

// ReplayRunResult holds the replay result for a single run.
type ReplayRunResult struct {
	RunID     string     `json:"run_id"`
	Satisfied bool       `json:"satisfied"`
	Identical bool       `json:"identical"`
	Diffs     []SlotDiff `json:"diffs,omitempty"`
}

// SlotDiff is a slot whose replayed outcome differs from the stored one.
type SlotDiff struct {
	Path     string `json:"path"`
	Original string `json:"original"`
	Replayed string `json:"replayed"`
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	Runs         []ReplayRunResult `json:"runs"`
	TotalRuns    int               `json:"total_runs"`
	AllIdentical bool              `json:"all_identical"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay [run-id]",
		Short: "Re-check stored runs and verify determinism",
		Long: `Re-check stored check runs against their stored document and candidate
and compare the outcome slot by slot with the stored report.

Checks are pure, so a replay must reproduce the stored run exactly.
A difference means the evaluator changed since the run was recorded.

Exit codes:
  0 - Every replayed run is identical
  1 - At least one run diverged
  2 - Command error (database not found, unknown run, etc.)

Examples:
  tripir replay --db ./tripir.db 0190f0c4-7d0e-7a4b-9c57-5f1d3b0c2e11
  tripir replay --db ./tripir.db --all
  tripir replay --db ./tripir.db --all --document <document-id> --format json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runID := ""
			if len(args) == 1 {
				runID = args[0]
			}
			return runReplay(opts, runID, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().BoolVar(&opts.All, "all", false, "replay every stored run")
	cmd.Flags().StringVar(&opts.Document, "document", "", "with --all, replay only this document's runs")

	return cmd
}

func runReplay(opts *ReplayOptions, runID string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)

	if (runID == "") == !opts.All {
		return f.Fail(ExitCommandError, ErrCodeParse, errors.New("give either a run id or --all"), nil)
	}

	st, err := openStore(f, opts.Database)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	eng := engine.New(engine.WithStore(st))

	var replays []*engine.ReplayResult
	if opts.All {
		replays, err = eng.ReplayAll(cmd.Context(), opts.Document)
	} else {
		var r *engine.ReplayResult
		r, err = eng.Replay(cmd.Context(), runID)
		replays = []*engine.ReplayResult{r}
	}
	if err != nil {
		return failReplay(f, runID, err)
	}

	result := ReplayResult{
		Runs:         make([]ReplayRunResult, 0, len(replays)),
		TotalRuns:    len(replays),
		AllIdentical: true,
	}
	for _, r := range replays {
		run := ReplayRunResult{
			RunID:     r.RunID,
			Satisfied: r.Replayed.Satisfied,
			Identical: r.Identical(),
		}
		for _, d := range r.Diffs {
			run.Diffs = append(run.Diffs, SlotDiff{
				Path:     d.Path,
				Original: describeSlot(d.Original),
				Replayed: describeSlot(d.Replayed),
			})
		}
		if !run.Identical {
			result.AllIdentical = false
		}
		result.Runs = append(result.Runs, run)
	}

	if err := f.Print(result, func(w io.Writer) { printReplay(w, result, opts.Verbose) }); err != nil {
		return err
	}
	if !result.AllIdentical {
		return NewExitError(ExitFailure, "replay diverged from stored runs")
	}
	return nil
}

func failReplay(f *OutputFormatter, runID string, err error) error {
	if errors.Is(err, engine.ErrNoStore) {
		return f.Fail(ExitCommandError, ErrCodeStore, err, nil)
	}
	var ce *engine.CheckError
	if errors.As(err, &ce) && ce.Code == engine.ErrCodeReplay {
		return failStoreLookup(f, "run", runID, err)
	}
	return f.Fail(ExitCommandError, ErrCodeStore, err, nil)
}

func describeSlot(s engine.SlotResult) string {
	if s.Path == "" {
		return "missing"
	}
	if !s.Present {
		return "absent"
	}
	return fmt.Sprintf("satisfied=%t value=%s", s.Satisfied, formatValue(s.Value))
}

func printReplay(w io.Writer, r ReplayResult, verbose bool) {
	if r.TotalRuns == 0 {
		fmt.Fprintln(w, "No check runs stored.")
		return
	}
	for _, run := range r.Runs {
		if run.Identical {
			if verbose {
				fmt.Fprintf(w, "%s %s\n", markOK, run.RunID)
			}
			continue
		}
		fmt.Fprintf(w, "%s %s diverged\n", markFail, run.RunID)
		for _, d := range run.Diffs {
			fmt.Fprintf(w, "    %s: %s -> %s\n", d.Path, d.Original, d.Replayed)
		}
	}

	if r.AllIdentical {
		fmt.Fprintf(w, "%s %d run(s) replayed identically\n", markOK, r.TotalRuns)
	} else {
		fmt.Fprintf(w, "%s Replay diverged\n", markFail)
	}
}
