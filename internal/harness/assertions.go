package harness

import (
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/tripir/internal/engine"
)

// Assertion types reported in AssertionError.Type.
const (
	AssertSatisfied = "satisfied"
	AssertSlot      = "slot"
	AssertError     = "error"
)

// AssertionError is returned when an expectation fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Case     string // Case name
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
	Failed   []string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s (case %s)\n", e.Type, e.Case)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Failed) > 0 {
		fmt.Fprintf(&buf, "\nFailed slots:\n")
		for i, path := range e.Failed {
			fmt.Fprintf(&buf, "  [%d] %s\n", i+1, path)
		}
	}

	return buf.String()
}

// EvaluateExpect checks a case outcome against its expect clause and
// returns one message per failed expectation. Exactly one of report and
// checkErr is non-nil.
func EvaluateExpect(c Case, report *engine.Report, checkErr *engine.CheckError) []string {
	var errs []string
	for _, err := range evaluateExpect(c, report, checkErr) {
		errs = append(errs, err.Error())
	}
	return errs
}

func evaluateExpect(c Case, report *engine.Report, checkErr *engine.CheckError) []*AssertionError {
	e := c.Expect

	if checkErr != nil {
		if e == nil || e.Error == "" {
			return []*AssertionError{{
				Type:     AssertError,
				Case:     c.Name,
				Expected: "check to succeed",
				Actual:   checkErr.Error(),
			}}
		}
		if string(checkErr.Code) != e.Error {
			return []*AssertionError{{
				Type:     AssertError,
				Case:     c.Name,
				Expected: fmt.Sprintf("error %s", e.Error),
				Actual:   checkErr.Error(),
			}}
		}
		return nil
	}

	if e == nil {
		return nil
	}
	if e.Error != "" {
		return []*AssertionError{{
			Type:     AssertError,
			Case:     c.Name,
			Expected: fmt.Sprintf("error %s", e.Error),
			Actual:   fmt.Sprintf("check succeeded (satisfied=%t)", report.Satisfied),
		}}
	}

	failed := failedPaths(report)
	var out []*AssertionError

	if e.Satisfied != nil && *e.Satisfied != report.Satisfied {
		out = append(out, &AssertionError{
			Type:     AssertSatisfied,
			Case:     c.Name,
			Expected: fmt.Sprintf("satisfied=%t", *e.Satisfied),
			Actual:   fmt.Sprintf("satisfied=%t", report.Satisfied),
			Failed:   failed,
		})
	}

	// Sorted for stable messages
	paths := make([]string, 0, len(e.Slots))
	for path := range e.Slots {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	for _, path := range paths {
		want := e.Slots[path]
		res, ok := report.Result(path)
		if !ok {
			out = append(out, &AssertionError{
				Type:     AssertSlot,
				Case:     c.Name,
				Expected: fmt.Sprintf("%s satisfied=%t", path, want),
				Actual:   "no such slot in document",
			})
			continue
		}
		if res.Satisfied != want {
			out = append(out, &AssertionError{
				Type:     AssertSlot,
				Case:     c.Name,
				Expected: fmt.Sprintf("%s satisfied=%t", path, want),
				Actual:   fmt.Sprintf("%s satisfied=%t (value %v)", path, res.Satisfied, res.Value),
				Failed:   failed,
			})
		}
	}

	return out
}

func failedPaths(report *engine.Report) []string {
	var paths []string
	for _, s := range report.Failed() {
		paths = append(paths, s.Path)
	}
	return paths
}
