package main

import (
	"fmt"

	"github.com/pkg/errors"
)

// EvalError reports a failure to even begin evaluation: a malformed
// dependency graph, an unparseable formula handed to the engine API, or a
// build-time contract violation. It is always returned as Go's second
// return value, never stored in a cell.
type EvalError struct {
	Op  string // "fromSheet", "parse", "topologicalSort", ...
	Ref ARef   // zero value if not cell-specific
	Err error
}

func (e *EvalError) Error() string {
	if (e.Ref != ARef{}) {
		return fmt.Sprintf("%s at %s: %v", e.Op, e.Ref.ToA1(), e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *EvalError) Unwrap() error { return e.Err }

// wrapEval attaches op/ref context to an underlying error using
// github.com/pkg/errors so callers can still inspect the original cause
// with errors.Cause while getting a readable message at the top.
func wrapEval(op string, ref ARef, err error) *EvalError {
	return &EvalError{Op: op, Ref: ref, Err: errors.Wrap(err, op)}
}

// CellError is the in-sheet counterpart to EvalError: a value that flows
// through formulas the way #DIV/0! or #VALUE! does in a real spreadsheet.
// Unlike EvalError it is a value, not a Go error — propagating it is part
// of normal evaluation, not a failure to evaluate.
type CellError struct {
	Code ErrorCode
	Msg  string
}

func (c CellError) Error() string {
	if c.Msg != "" {
		return c.Msg
	}
	return ErrorMapper[c.Code]
}

func newCellError(code ErrorCode) CellError {
	return CellError{Code: code, Msg: ErrorMapper[code]}
}

var errCyclicGraph = errors.New("dependency graph contains a cycle")

var (
	errDiv0  = newCellError(ErrorCodeDiv0)
	errValue = newCellError(ErrorCodeValue)
	errRef   = newCellError(ErrorCodeRef)
	errName  = newCellError(ErrorCodeName)
	errNum   = newCellError(ErrorCodeNum)
	errNA    = newCellError(ErrorCodeNA)
	errNull  = newCellError(ErrorCodeNull)
)

// asCellError reports whether a Primitive already carries a spreadsheet
// error, returning it as the value-level CellError.
func asCellError(p Primitive) (CellError, bool) {
	switch v := p.(type) {
	case CellError:
		return v, true
	case *SpreadsheetError:
		return CellError{Code: v.ErrorCode, Msg: v.Message}, true
	}
	return CellError{}, false
}
