package cli

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/tripir/internal/engine"
	"github.com/roach88/tripir/internal/expr"
	"github.com/roach88/tripir/internal/ir"
	"github.com/roach88/tripir/internal/store"
	"github.com/roach88/tripir/internal/value"
)

// StoreOptions holds flags shared by the store subcommands.
type StoreOptions struct {
	*RootOptions
	Database string
	Where    string // query: filter expression file
	Replace  bool   // import-records: drop the stored records first
}

// SaveResult is the payload of store save.
type SaveResult struct {
	DocumentID string `json:"document_id"`
	Inserted   bool   `json:"inserted"`
}

// ImportResult is the payload of store import-records.
type ImportResult struct {
	Category string `json:"category"`
	City     string `json:"city"`
	Imported int    `json:"imported"`
	Total    int    `json:"total"`
}

// NewStoreCommand creates the store command and its subcommands.
func NewStoreCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StoreOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "store",
		Short: "Manage documents, option records and check runs",
		Long: `Manage the SQLite store: trip documents (content-addressed by their
canonical JSON), option records per category and city, and check runs.

Record categories: attraction, hotel, restaurant.`,
	}

	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkPersistentFlagRequired("db")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "save <ir-file>",
			Short: "Save a trip document",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withStore(opts, cmd, func(f *OutputFormatter, st *store.Store) error {
					return runStoreSave(f, st, args[0], cmd)
				})
			},
		},
		&cobra.Command{
			Use:   "show <document-id>",
			Short: "Print a stored document as canonical JSON",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withStore(opts, cmd, func(f *OutputFormatter, st *store.Store) error {
					return runStoreShow(f, st, args[0], cmd)
				})
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "List stored documents",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withStore(opts, cmd, func(f *OutputFormatter, st *store.Store) error {
					return runStoreList(f, st, cmd)
				})
			},
		},
		&cobra.Command{
			Use:   "runs [document-id]",
			Short: "List check runs, optionally of one document",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				docID := ""
				if len(args) == 1 {
					docID = args[0]
				}
				return withStore(opts, cmd, func(f *OutputFormatter, st *store.Store) error {
					return runStoreRuns(f, st, docID, cmd)
				})
			},
		},
		newStoreImportCommand(opts),
		newStoreQueryCommand(opts),
	)

	return cmd
}

func newStoreImportCommand(opts *StoreOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import-records <category> <city> <file>",
		Short: "Import option records for a city",
		Long: `Import option records from a .json, .yaml or .cue file holding a list of
mappings (or a mapping with a "global" list). Records with an "id" field
replace the stored record with that id; others are keyed by content.
With --replace, the city's stored records of that category are dropped
first.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(opts, cmd, func(f *OutputFormatter, st *store.Store) error {
				return runStoreImport(f, st, args[0], args[1], args[2], opts.Replace, cmd)
			})
		},
	}
	cmd.Flags().BoolVar(&opts.Replace, "replace", false, "drop stored records of the category and city first")
	return cmd
}

func newStoreQueryCommand(opts *StoreOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query <category> <city>",
		Short: "List option records, optionally filtered by an expression",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(opts, cmd, func(f *OutputFormatter, st *store.Store) error {
				return runStoreQuery(f, st, args[0], args[1], opts.Where, cmd)
			})
		},
	}
	cmd.Flags().StringVar(&opts.Where, "where", "", "filter expression file")
	return cmd
}

// withStore opens the database for the duration of fn.
func withStore(opts *StoreOptions, cmd *cobra.Command, fn func(*OutputFormatter, *store.Store) error) error {
	f := newFormatter(opts.RootOptions, cmd)
	st, err := openStore(f, opts.Database)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()
	return fn(f, st)
}

func runStoreSave(f *OutputFormatter, st *store.Store, path string, cmd *cobra.Command) error {
	doc, err := loadDocument(path)
	if err != nil {
		return failLoad(f, err)
	}
	if errs := doc.Validate(); len(errs) > 0 {
		return f.Fail(ExitFailure, ErrCodeInvalid, engine.NewInvalidDocumentError(errs), errs)
	}

	id, inserted, err := st.SaveDocument(cmd.Context(), doc)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeStore, err, nil)
	}

	return f.Print(SaveResult{DocumentID: id, Inserted: inserted}, func(w io.Writer) {
		if inserted {
			fmt.Fprintf(w, "%s Saved %s\n", markOK, id)
		} else {
			fmt.Fprintf(w, "%s Already stored %s\n", markOK, id)
		}
	})
}

func runStoreShow(f *OutputFormatter, st *store.Store, id string, cmd *cobra.Command) error {
	doc, err := st.LoadDocument(cmd.Context(), id)
	if err != nil {
		return failStoreLookup(f, "document", id, err)
	}
	data, err := doc.MarshalCanonical()
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeParse, err, nil)
	}
	return f.Print(docPayload{ID: id, Document: doc}, func(w io.Writer) {
		fmt.Fprintln(w, string(data))
	})
}

type docPayload struct {
	ID       string `json:"id"`
	Document *ir.IR `json:"document"`
}

func runStoreList(f *OutputFormatter, st *store.Store, cmd *cobra.Command) error {
	docs, err := st.ListDocuments(cmd.Context())
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeStore, err, nil)
	}
	if docs == nil {
		docs = []store.DocumentInfo{}
	}
	return f.Print(docs, func(w io.Writer) {
		if len(docs) == 0 {
			fmt.Fprintln(w, "No documents stored.")
			return
		}
		for _, d := range docs {
			fmt.Fprintf(w, "%4d  %s  %s  %d stage(s)\n", d.Seq, d.ID, d.StartDate, d.StageCount)
		}
	})
}

// RunSummary is one row of store runs.
type RunSummary struct {
	ID         string `json:"id"`
	DocumentID string `json:"document_id"`
	Satisfied  bool   `json:"satisfied"`
	Seq        int64  `json:"seq"`
}

func runStoreRuns(f *OutputFormatter, st *store.Store, docID string, cmd *cobra.Command) error {
	runs, err := st.ListCheckRuns(cmd.Context(), docID)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeStore, err, nil)
	}
	rows := make([]RunSummary, 0, len(runs))
	for _, r := range runs {
		rows = append(rows, RunSummary{ID: r.ID, DocumentID: r.DocumentID, Satisfied: r.Satisfied, Seq: r.Seq})
	}
	return f.Print(rows, func(w io.Writer) {
		if len(rows) == 0 {
			fmt.Fprintln(w, "No check runs stored.")
			return
		}
		for _, r := range rows {
			mark := markOK
			if !r.Satisfied {
				mark = markFail
			}
			fmt.Fprintf(w, "%4d  %s %s  document %s\n", r.Seq, mark, r.ID, r.DocumentID)
		}
	})
}

func runStoreImport(f *OutputFormatter, st *store.Store, category, city, path string, replace bool, cmd *cobra.Command) error {
	if err := checkCategory(category); err != nil {
		return f.Fail(ExitCommandError, ErrCodeParse, err, nil)
	}
	records, err := loadRecords(path)
	if err != nil {
		return failLoad(f, err)
	}

	if replace {
		dropped, err := st.DeleteRecords(cmd.Context(), category, city)
		if err != nil {
			return f.Fail(ExitCommandError, ErrCodeStore, err, nil)
		}
		slog.Debug("records dropped", "category", category, "city", city, "count", dropped)
	}

	n, err := st.PutRecords(cmd.Context(), category, city, records)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeStore, err, nil)
	}
	total, err := st.CountRecords(cmd.Context(), category, city)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeStore, err, nil)
	}
	slog.Debug("records imported", "category", category, "city", city, "count", n)

	result := ImportResult{Category: category, City: city, Imported: n, Total: total}
	return f.Print(result, func(w io.Writer) {
		fmt.Fprintf(w, "%s Imported %d %s record(s) for %s (%d stored)\n", markOK, n, category, city, total)
	})
}

func runStoreQuery(f *OutputFormatter, st *store.Store, category, city, where string, cmd *cobra.Command) error {
	if err := checkCategory(category); err != nil {
		return f.Fail(ExitCommandError, ErrCodeParse, err, nil)
	}

	var filter expr.Expr
	if where != "" {
		e, err := loadExpr(where)
		if err != nil {
			return failLoad(f, err)
		}
		filter = e
	}

	records, err := st.QueryRecords(cmd.Context(), category, city, filter)
	if err != nil {
		if _, ok := expr.CodeOf(err); ok {
			return f.Fail(ExitFailure, ErrCodeEvaluation, err, nil)
		}
		return f.Fail(ExitCommandError, ErrCodeStore, err, nil)
	}
	if records == nil {
		records = []value.Record{}
	}

	return f.Print(records, func(w io.Writer) {
		for _, r := range records {
			fmt.Fprintln(w, formatValue(r))
		}
		fmt.Fprintf(w, "%d record(s)\n", len(records))
	})
}

// checkCategory rejects categories no constraint slot reads.
func checkCategory(category string) error {
	for _, c := range engine.Categories() {
		if c == category {
			return nil
		}
	}
	return fmt.Errorf("unknown category %q (want one of %v)", category, engine.Categories())
}

// failStoreLookup reports a missing item as ErrCodeNotFound.
func failStoreLookup(f *OutputFormatter, kind, id string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return f.Fail(ExitCommandError, ErrCodeNotFound, fmt.Errorf("%s %s not found", kind, id), nil)
	}
	return f.Fail(ExitCommandError, ErrCodeStore, err, nil)
}
