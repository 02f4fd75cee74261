package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/tripir/internal/compiler"
)

// Status marks for text output.
const (
	markOK   = "\u2713"
	markFail = "\u2717"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid      bool                       `json:"valid"`
	DocumentID string                     `json:"document_id,omitempty"`
	Slots      int                        `json:"slots"`
	Errors     []compiler.ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <ir-file>",
		Short: "Validate a trip IR document",
		Long: `Validate a trip IR document without checking any candidate.

Runs the structural checks (non-empty stages, travel days adding up,
positive traveler count) and checks every present constraint expression
for unknown operators, aggregate functions and empty field names.

Exit codes:
  0 - Document is valid
  1 - Validation errors found
  2 - Command error (unreadable or undecodable file)`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	f := newFormatter(opts, cmd)

	doc, err := loadDocument(path)
	if err != nil {
		return failLoad(f, err)
	}

	present := len(doc.PresentSlots())
	f.VerboseLog("Loaded %d stage(s), %d present slot(s)", len(doc.Stages), present)

	errs := compiler.Validate(doc)
	if len(errs) > 0 {
		return outputValidationErrors(f, errs)
	}

	id, err := doc.DocumentID()
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeParse, err, nil)
	}

	result := ValidationResult{Valid: true, DocumentID: id, Slots: present}
	return f.Print(result, func(w io.Writer) {
		fmt.Fprintf(w, "%s Document valid (%d constraint slot(s))\n", markOK, present)
		fmt.Fprintf(w, "  id: %s\n", id)
	})
}

// outputValidationErrors prints every error and fails with ExitFailure.
func outputValidationErrors(f *OutputFormatter, errs []compiler.ValidationError) error {
	if f.Format == "json" {
		if err := f.Error(ErrCodeInvalid, fmt.Sprintf("%d validation error(s)", len(errs)), ValidationResult{
			Valid:  false,
			Errors: errs,
		}); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(f.Writer, "%s Validation failed\n\n", markFail)
		for _, e := range errs {
			fmt.Fprintf(f.Writer, "  %s\n", e.Error())
		}
	}
	return NewExitError(ExitFailure, fmt.Sprintf("%d validation error(s)", len(errs)))
}
