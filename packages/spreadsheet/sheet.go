package main

import (
	"fmt"
	"sort"
)

// AppErrorCode represents gRPC-style error codes for application-level errors.
// note that we are skipping error codes that don't make sense for our use-case,
// like unauthenticated, or permission denied.
type AppErrorCode int

const (
	// OK indicates the operation completed successfully.
	OK AppErrorCode = 0

	// Unknown error. Errors raised by APIs that do not return enough error
	// information may be converted to this error.
	Unknown AppErrorCode = 2

	// InvalidArgument indicates client specified an invalid argument.
	InvalidArgument AppErrorCode = 3

	// NotFound means some requested entity (e.g., worksheet or named range)
	// was not found.
	NotFound AppErrorCode = 5

	// AlreadyExists means an attempt to create an entity failed because one
	// already exists.
	AlreadyExists AppErrorCode = 6

	// ResourceExhausted indicates some resource has been exhausted, perhaps
	// a per-user quota, or perhaps the entire file system is out of space.
	ResourceExhausted AppErrorCode = 8

	// FailedPrecondition indicates operation was rejected because the
	// system is not in a state required for the operation's execution.
	FailedPrecondition AppErrorCode = 9

	// OutOfRange means operation was attempted past the valid range.
	OutOfRange AppErrorCode = 11

	// Unimplemented indicates operation is not implemented or not
	// supported/enabled in this service.
	Unimplemented AppErrorCode = 12

	// Internal errors. Means some invariants expected by underlying
	// system has been broken.
	Internal AppErrorCode = 13
)

// AppError represents errors at the application level (not
// spreadsheet formula errors)
type AppError struct {
	Code    AppErrorCode
	Message string
}

func (e *AppError) Error() string {
	return e.Message
}

// NewApplicationError creates a new application error
func NewApplicationError(code AppErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Spreadsheet is the main spreadsheet class: a thin façade over Storage
// that resolves A1 addresses, parses formulas, and exposes SPEC_FULL's
// batch recalculation as the sole way cached values get refreshed. There
// is no incremental dependency graph or per-cell dirty tracking here;
// RecalculateAll (batch.go) rebuilds the whole dependency order from
// Storage on demand.
type Spreadsheet struct {
	storage *Storage
}

// NewSpreadsheet creates a new, empty spreadsheet instance.
func NewSpreadsheet() *Spreadsheet {
	return &Spreadsheet{storage: NewStorage()}
}

type SpreadsheetInterface interface {
	// cell methods

	Get(address string) (Primitive, error)
	Set(address string, value Primitive) error
	Remove(address string) error

	// worksheet methods

	AddWorksheet(name string) error
	RemoveWorksheet(name string) error
	RenameWorksheet(oldName string, newName string) error
	DoesWorksheetExist(name string) bool
	ListWorksheets() []string
	ListReferencedWorksheets() []string

	// named range methods

	AddNamedRange(name string, rangeAddress string) error
	RemoveNamedRange(name string) error
	RenameNamedRange(oldName string, newName string) error
	DoesNamedRangeExist(name string) bool
	ListNamedRanges() []string

	// common methods

	RecalculateAll(opts EngineOptions) error
}

// Implementation of SpreadsheetInterface

var _ SpreadsheetInterface = (*Spreadsheet)(nil)

// Get retrieves the cached value of a cell: the stored literal, or the
// result RecalculateAll last wrote for a formula cell. A formula is never
// evaluated on demand here — Get only ever reads what the last
// RecalculateAll (or a plain Set) left behind.
func (s *Spreadsheet) Get(address string) (Primitive, error) {
	ref, err := ParseARef(address, "")
	if err != nil {
		return nil, NewApplicationError(InvalidArgument, fmt.Sprintf("invalid address: %v", err))
	}

	ws, ok := s.storage.GetWorksheetByName(ref.Sheet)
	if !ok {
		return errRef, nil
	}

	return ws.GetCell(ref.Row, ref.Col), nil
}

// Set sets the value of a cell. A string value beginning with '=' is
// parsed as a formula and stored as such; anything else is stored as a
// plain literal. A malformed formula is stored as a #VALUE! error in the
// cell, matching how a spreadsheet UI shows an unparseable entry rather
// than rejecting it outright.
func (s *Spreadsheet) Set(address string, value Primitive) error {
	ref, err := ParseARef(address, "")
	if err != nil {
		return NewApplicationError(InvalidArgument, fmt.Sprintf("invalid address: %v", err))
	}

	ws, ok := s.storage.GetWorksheetByName(ref.Sheet)
	if !ok {
		return NewApplicationError(InvalidArgument, "cannot set cell on unknown worksheet")
	}

	str, isFormula := value.(string)
	if !isFormula || len(str) == 0 || str[0] != '=' {
		ws.SetCell(ref.Row, ref.Col, value)
		return nil
	}

	context := &ParserContext{
		CurrentSheet:      ref.Sheet,
		ResolveNamedRange: s.storage.ResolveNamedRange,
	}
	expr, parseErr := ParseFormula(str, context)
	if parseErr != nil {
		ws.SetCell(ref.Row, ref.Col, errValue)
		return nil
	}

	ws.SetFormula(ref.Row, ref.Col, expr, str)
	return nil
}

// Remove removes a cell. Removing a cell that doesn't exist, or on a
// worksheet that doesn't exist, is a no-op.
func (s *Spreadsheet) Remove(address string) error {
	ref, err := ParseARef(address, "")
	if err != nil {
		return NewApplicationError(InvalidArgument, fmt.Sprintf("invalid address: %v", err))
	}

	ws, ok := s.storage.GetWorksheetByName(ref.Sheet)
	if !ok {
		return nil
	}

	ws.RemoveCell(ref.Row, ref.Col)
	return nil
}

// AddWorksheet adds a new worksheet
func (s *Spreadsheet) AddWorksheet(name string) error {
	if s.storage.DoesWorksheetExist(name) {
		return NewApplicationError(AlreadyExists, "worksheet already exists")
	}
	s.storage.AddWorksheet(name)
	return nil
}

// RemoveWorksheet removes a worksheet
func (s *Spreadsheet) RemoveWorksheet(name string) error {
	if !s.storage.RemoveWorksheet(name) {
		return NewApplicationError(NotFound, "worksheet not found")
	}
	return nil
}

// RenameWorksheet renames a worksheet
func (s *Spreadsheet) RenameWorksheet(oldName string, newName string) error {
	if !s.storage.DoesWorksheetExist(oldName) {
		return NewApplicationError(NotFound, "worksheet not found")
	}
	if s.storage.DoesWorksheetExist(newName) {
		return NewApplicationError(AlreadyExists, "worksheet name already exists")
	}
	s.storage.RenameWorksheet(oldName, newName)
	return nil
}

// DoesWorksheetExist checks if a worksheet exists
func (s *Spreadsheet) DoesWorksheetExist(name string) bool {
	return s.storage.DoesWorksheetExist(name)
}

// ListWorksheets returns all defined worksheet names
func (s *Spreadsheet) ListWorksheets() []string {
	return s.storage.ListWorksheets()
}

// ListReferencedWorksheets returns the names of worksheets that some
// formula refers to but that have not been added with AddWorksheet.
// There's no separate interned-but-undefined worksheet table to read
// this from anymore, so it's derived by scanning every formula's
// references each time it's called.
func (s *Spreadsheet) ListReferencedWorksheets() []string {
	referenced := map[string]bool{}
	for _, name := range s.storage.ListWorksheets() {
		ws, _ := s.storage.GetWorksheetByName(name)
		for _, expr := range ws.Formulas() {
			refs, ranges := collectRanges(expr)
			for _, ref := range refs {
				if ref.Sheet != "" && !s.storage.DoesWorksheetExist(ref.Sheet) {
					referenced[ref.Sheet] = true
				}
			}
			for _, rng := range ranges {
				if rng.Sheet != "" && !s.storage.DoesWorksheetExist(rng.Sheet) {
					referenced[rng.Sheet] = true
				}
			}
		}
	}
	out := make([]string, 0, len(referenced))
	for name := range referenced {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// AddNamedRange defines a named range over rangeAddress (e.g. "A1:B2",
// "Sheet2!C:C"). Unlike the legacy two-phase intern-then-define model,
// there's no standalone "reserve a name" step: a name is either fully
// defined or it doesn't exist at all.
func (s *Spreadsheet) AddNamedRange(name string, rangeAddress string) error {
	if s.storage.DoesNamedRangeExist(name) {
		return NewApplicationError(AlreadyExists, "named range already exists")
	}
	rng, err := ParseARange(rangeAddress, "")
	if err != nil {
		return NewApplicationError(InvalidArgument, fmt.Sprintf("invalid range address: %v", err))
	}
	s.storage.AddNamedRange(name, rng)
	return nil
}

// RemoveNamedRange removes a named range
func (s *Spreadsheet) RemoveNamedRange(name string) error {
	if !s.storage.RemoveNamedRange(name) {
		return NewApplicationError(NotFound, "named range not found")
	}
	return nil
}

// RenameNamedRange renames a named range
func (s *Spreadsheet) RenameNamedRange(oldName string, newName string) error {
	if !s.storage.DoesNamedRangeExist(oldName) {
		return NewApplicationError(NotFound, "named range not found")
	}
	if s.storage.DoesNamedRangeExist(newName) {
		return NewApplicationError(AlreadyExists, "named range already exists")
	}
	s.storage.RenameNamedRange(oldName, newName)
	return nil
}

// DoesNamedRangeExist checks if a named range exists
func (s *Spreadsheet) DoesNamedRangeExist(name string) bool {
	return s.storage.DoesNamedRangeExist(name)
}

// ListNamedRanges returns all defined named range names
func (s *Spreadsheet) ListNamedRanges() []string {
	return s.storage.ListNamedRanges()
}

// GetWorksheet returns a worksheet by name for diagnostic purposes
func (s *Spreadsheet) GetWorksheet(name string) (*Worksheet, bool) {
	return s.storage.GetWorksheetByName(name)
}

// RunnableSpreadsheet provides a chainable interface for
// spreadsheet operations. wraps the standard Spreadsheet and tracks
// errors internally
type RunnableSpreadsheet struct {
	spreadsheet *Spreadsheet
	err         error
	printLn     func(string)
}

// NewRunnableSpreadsheet creates a new RunnableSpreadsheet. printLn is
// required and will be used for all logging operations (Log, CheckError)
func NewRunnableSpreadsheet(printLn func(string)) *RunnableSpreadsheet {
	return &RunnableSpreadsheet{
		spreadsheet: NewSpreadsheet(),
		err:         nil,
		printLn:     printLn,
	}
}

// Set sets a cell value (chainable)
func (r *RunnableSpreadsheet) Set(address string, value Primitive) *RunnableSpreadsheet {
	if r.err != nil {
		return r // no-op if there's already an error
	}
	r.err = r.spreadsheet.Set(address, value)
	return r
}

// Get retrieves a cell value (chainable)
func (r *RunnableSpreadsheet) Get(address string) (*RunnableSpreadsheet, Primitive) {
	if r.err != nil {
		return r, nil // no-op if there's already an error
	}
	val, err := r.spreadsheet.Get(address)
	if err != nil {
		r.err = err
	}
	return r, val
}

// Remove removes a cell (chainable)
func (r *RunnableSpreadsheet) Remove(address string) *RunnableSpreadsheet {
	if r.err != nil {
		return r // no-op if there's already an error
	}
	r.err = r.spreadsheet.Remove(address)
	return r
}

// AddWorksheet adds a new worksheet (chainable)
func (r *RunnableSpreadsheet) AddWorksheet(name string) *RunnableSpreadsheet {
	if r.err != nil {
		return r // no-op if there's already an error
	}
	r.err = r.spreadsheet.AddWorksheet(name)
	return r
}

// RemoveWorksheet removes a worksheet (chainable)
func (r *RunnableSpreadsheet) RemoveWorksheet(name string) *RunnableSpreadsheet {
	if r.err != nil {
		return r // no-op if there's already an error
	}
	r.err = r.spreadsheet.RemoveWorksheet(name)
	return r
}

// RenameWorksheet renames a worksheet (chainable)
func (r *RunnableSpreadsheet) RenameWorksheet(oldName, newName string) *RunnableSpreadsheet {
	if r.err != nil {
		return r // no-op if there's already an error
	}
	r.err = r.spreadsheet.RenameWorksheet(oldName, newName)
	return r
}

// AddNamedRange adds a named range (chainable)
func (r *RunnableSpreadsheet) AddNamedRange(name string, rangeAddress string) *RunnableSpreadsheet {
	if r.err != nil {
		return r // no-op if there's already an error
	}
	r.err = r.spreadsheet.AddNamedRange(name, rangeAddress)
	return r
}

// RemoveNamedRange removes a named range (chainable)
func (r *RunnableSpreadsheet) RemoveNamedRange(name string) *RunnableSpreadsheet {
	if r.err != nil {
		return r // no-op if there's already an error
	}
	r.err = r.spreadsheet.RemoveNamedRange(name)
	return r
}

// RenameNamedRange renames a named range (chainable)
func (r *RunnableSpreadsheet) RenameNamedRange(oldName, newName string) *RunnableSpreadsheet {
	if r.err != nil {
		return r // no-op if there's already an error
	}
	r.err = r.spreadsheet.RenameNamedRange(oldName, newName)
	return r
}

// RecalculateAll runs the pure-core batch recalculation (Tarjan cycle
// detection + Kahn topological sort) over every formula in the workbook
// (chainable).
func (r *RunnableSpreadsheet) RecalculateAll(opts EngineOptions) *RunnableSpreadsheet {
	if r.err != nil {
		return r // no-op if there's already an error
	}
	r.err = r.spreadsheet.RecalculateAll(opts)
	return r
}

// Run executes a final recalculation and returns the spreadsheet and any
// error. typically the last method in the chain
func (r *RunnableSpreadsheet) Run() (*Spreadsheet, error) {
	if r.err != nil {
		return nil, r.err
	}

	r.err = r.spreadsheet.RecalculateAll(DefaultEngineOptions())
	if r.err != nil {
		return nil, r.err
	}

	return r.spreadsheet, nil
}

// RunOrPanic executes a final recalculation and panics if there's an
// error. useful for examples and tests where you want to fail fast
func (r *RunnableSpreadsheet) RunOrPanic() *Spreadsheet {
	spreadsheet, err := r.Run()
	if err != nil {
		panic(err)
	}
	return spreadsheet
}

// Error returns the current error state
func (r *RunnableSpreadsheet) Error() error {
	return r.err
}

// CheckError logs the current error using the PrintLn function (chainable)
func (r *RunnableSpreadsheet) CheckError() *RunnableSpreadsheet {
	if r.err != nil {
		r.printLn(fmt.Sprintf("ERROR: %v", r.err))
	} else {
		r.printLn("No errors")
	}
	return r
}

// Spreadsheet returns the underlying spreadsheet. use with caution as it
// bypasses error tracking.
func (r *RunnableSpreadsheet) Spreadsheet() *Spreadsheet {
	return r.spreadsheet
}

// Reset clears the error state (chainable)
func (r *RunnableSpreadsheet) Reset() *RunnableSpreadsheet {
	r.err = nil
	return r
}

// Then allows conditional execution based on current error state
func (r *RunnableSpreadsheet) Then(fn func(*RunnableSpreadsheet) *RunnableSpreadsheet) *RunnableSpreadsheet {
	if r.err != nil {
		return r // skip if there's an error
	}
	return fn(r)
}

// OnError allows error handling in the chain
func (r *RunnableSpreadsheet) OnError(fn func(error) error) *RunnableSpreadsheet {
	if r.err != nil {
		r.err = fn(r.err)
	}
	return r
}

// Must panics if there's an error (chainable). useful for ensuring
// critical operations succeed
func (r *RunnableSpreadsheet) Must() *RunnableSpreadsheet {
	if r.err != nil {
		panic(r.err)
	}
	return r
}

// SetBatch sets multiple cells at once (chainable)
func (r *RunnableSpreadsheet) SetBatch(cells map[string]Primitive) *RunnableSpreadsheet {
	if r.err != nil {
		return r // no-op if there's already an error
	}

	for address, value := range cells {
		if err := r.spreadsheet.Set(address, value); err != nil {
			r.err = err
			return r
		}
	}
	return r
}

// GetBatch retrieves multiple cell values
func (r *RunnableSpreadsheet) GetBatch(addresses ...string) (*RunnableSpreadsheet, map[string]Primitive) {
	if r.err != nil {
		return r, nil // no-op if there's already an error
	}

	results := make(map[string]Primitive)
	for _, address := range addresses {
		val, err := r.spreadsheet.Get(address)
		if err != nil {
			r.err = err
			return r, nil
		}
		results[address] = val
	}
	return r, results
}

// WithWorksheet ensures a worksheet exists before continuing (chainable)
func (r *RunnableSpreadsheet) WithWorksheet(name string) *RunnableSpreadsheet {
	if r.err != nil {
		return r // no-op if there's already an error
	}

	if !r.spreadsheet.DoesWorksheetExist(name) {
		r.err = r.spreadsheet.AddWorksheet(name)
	}
	return r
}

// If allows conditional operations in the chain
func (r *RunnableSpreadsheet) If(condition bool, fn func(*RunnableSpreadsheet) *RunnableSpreadsheet) *RunnableSpreadsheet {
	if r.err != nil || !condition {
		return r // skip if there's an error or condition is false
	}
	return fn(r)
}

// ForEach applies a function to a range of cells (chainable)
func (r *RunnableSpreadsheet) ForEach(startRow, endRow int, startCol, endCol int, fn func(row, col int, r *RunnableSpreadsheet)) *RunnableSpreadsheet {
	if r.err != nil {
		return r // no-op if there's already an error
	}

	for row := startRow; row <= endRow; row++ {
		for col := startCol; col <= endCol; col++ {
			fn(row, col, r)
			if r.err != nil {
				return r // stop on first error
			}
		}
	}
	return r
}

// Value is a helper to get a single value from the chain.
// example: val := NewRunnableSpreadsheet(nil).AddWorksheet("Sheet1").Set("Sheet1!A1", 10.0).Set("Sheet1!A2", "=A1*2").RecalculateAll(DefaultEngineOptions()).Value("Sheet1!A2")
func (r *RunnableSpreadsheet) Value(address string) Primitive {
	if r.err != nil {
		return nil
	}

	val, err := r.spreadsheet.Get(address)
	if err != nil {
		r.err = err
		return nil
	}
	return val
}

// Values is a helper to get multiple values from the chain
func (r *RunnableSpreadsheet) Values(addresses ...string) []Primitive {
	if r.err != nil {
		return nil
	}

	values := make([]Primitive, len(addresses))
	for i, address := range addresses {
		val, err := r.spreadsheet.Get(address)
		if err != nil {
			r.err = err
			return nil
		}
		values[i] = val
	}
	return values
}

// Log logs the value of a cell using the provided PrintLn function (chainable)
func (r *RunnableSpreadsheet) Log(address string) *RunnableSpreadsheet {
	if r.err != nil {
		return r // no-op if there's already an error
	}

	val, err := r.spreadsheet.Get(address)
	if err != nil {
		r.err = err
		return r
	}

	// fmt the output
	var output string
	if val == nil {
		output = fmt.Sprintf("%s: <empty>", address)
	} else {
		output = fmt.Sprintf("%s: %v", address, val)
	}

	r.printLn(output)
	return r
}
