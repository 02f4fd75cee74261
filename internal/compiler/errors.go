package compiler

import (
	"fmt"
	"strconv"
	"strings"

	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// CompileError reports a request field that failed to compile.
//
// Field is the dotted path of the offending field within the trip request,
// with list indexes in brackets (stages[0].travel_days). It is empty only
// when the failure has no field, such as a syntax error.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos

	// Err is the underlying cause, when there is one.
	Err error
}

func (e *CompileError) Error() string {
	msg := e.Message
	if e.Field != "" {
		msg = e.Field + ": " + msg
	}
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), msg)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *CompileError) Unwrap() error {
	return e.Err
}

// cueError converts the first of a CUE error list into a CompileError.
// path names the field being read; when it is empty the field comes from
// the path CUE attached to the error.
func cueError(err error, path string) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return &CompileError{Field: path, Message: err.Error(), Err: err}
	}

	first := errs[0]
	if path == "" {
		path = fieldPath(first.Path())
	}
	ce := &CompileError{Field: path, Message: first.Error(), Err: first}
	if path != "" {
		format, args := first.Msg()
		ce.Message = fmt.Sprintf(format, args...)
	}
	if positions := errors.Positions(first); len(positions) > 0 {
		ce.Pos = positions[0]
	}
	return ce
}

// fieldPath renders CUE path selectors in request notation. Definition
// selectors such as #Trip and a leading request field are dropped.
func fieldPath(selectors []string) string {
	var b strings.Builder
	for i, sel := range selectors {
		if strings.HasPrefix(sel, "#") || (i == 0 && sel == RequestField) {
			continue
		}
		if _, err := strconv.Atoi(sel); err == nil {
			b.WriteString("[" + sel + "]")
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(sel)
	}
	return b.String()
}
