package cli

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/roach88/tripir/internal/compiler"
	"github.com/roach88/tripir/internal/engine"
	"github.com/roach88/tripir/internal/expr"
	"github.com/roach88/tripir/internal/ir"
	"github.com/roach88/tripir/internal/store"
	"github.com/roach88/tripir/internal/value"
)

// LoadError represents an input file that could not be loaded.
type LoadError struct {
	Code string // ErrCodeNotFound or ErrCodeParse
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

func loadError(path string, err error) *LoadError {
	code := ErrCodeParse
	if errors.Is(err, fs.ErrNotExist) {
		code = ErrCodeNotFound
	}
	return &LoadError{Code: code, Path: path, Err: err}
}

// failLoad reports a LoadError as a command error.
func failLoad(f *OutputFormatter, err error) error {
	var le *LoadError
	if errors.As(err, &le) {
		return f.Fail(ExitCommandError, le.Code, err, nil)
	}
	return f.Fail(ExitCommandError, ErrCodeParse, err, nil)
}

// loadDocument reads a trip IR document from .json, .yaml or .cue.
func loadDocument(path string) (*ir.IR, error) {
	doc, err := compiler.LoadDocument(path)
	if err != nil {
		return nil, loadError(path, err)
	}
	return doc, nil
}

// loadExpr reads a serialized expression.
func loadExpr(path string) (expr.Expr, error) {
	v, err := compiler.LoadValue(path)
	if err != nil {
		return nil, loadError(path, err)
	}
	r, ok := v.(value.Record)
	if !ok {
		return nil, loadError(path, fmt.Errorf("expression must be a mapping, got %s", value.KindOf(v)))
	}
	e, err := expr.FromRecord(r)
	if err != nil {
		return nil, loadError(path, err)
	}
	return e, nil
}

// loadContext reads an evaluation context. An empty path is the empty
// context.
func loadContext(path string) (expr.Context, error) {
	if path == "" {
		return expr.Context{}, nil
	}
	v, err := compiler.LoadValue(path)
	if err != nil {
		return expr.Context{}, loadError(path, err)
	}
	r, ok := v.(value.Record)
	if !ok {
		return expr.Context{}, loadError(path, fmt.Errorf("context must be a mapping, got %s", value.KindOf(v)))
	}
	return expr.ContextFromRecord(r), nil
}

// loadCandidate reads a candidate itinerary.
func loadCandidate(path string) (engine.Candidate, error) {
	v, err := compiler.LoadValue(path)
	if err != nil {
		return engine.Candidate{}, loadError(path, err)
	}
	c, err := engine.CandidateFromValue(v)
	if err != nil {
		return engine.Candidate{}, loadError(path, err)
	}
	return c, nil
}

// loadRecords reads option records: a list of mappings, or a context-style
// mapping whose "global" key holds the list.
func loadRecords(path string) ([]value.Record, error) {
	v, err := compiler.LoadValue(path)
	if err != nil {
		return nil, loadError(path, err)
	}
	if r, ok := v.(value.Record); ok {
		v = r.Get("global")
	}
	list, ok := v.(value.List)
	if !ok {
		return nil, loadError(path, fmt.Errorf("records must be a list, got %s", value.KindOf(v)))
	}
	records := make([]value.Record, 0, len(list))
	for i, item := range list {
		r, ok := item.(value.Record)
		if !ok {
			return nil, loadError(path, fmt.Errorf("records[%d] must be a mapping, got %s", i, value.KindOf(item)))
		}
		records = append(records, r)
	}
	return records, nil
}

// openStore opens the database at path, reporting failures as command
// errors.
func openStore(f *OutputFormatter, path string) (*store.Store, error) {
	st, err := store.Open(path)
	if err != nil {
		return nil, f.Fail(ExitCommandError, ErrCodeStore, fmt.Errorf("open database: %w", err), nil)
	}
	return st, nil
}
