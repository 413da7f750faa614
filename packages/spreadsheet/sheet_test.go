package main

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
)

// SpreadsheetTestCase is a small chainable test harness: each call does one
// spreadsheet operation and records the first error it sees, so a whole
// scenario reads as one fluent chain and still reports exactly where it
// broke.
type SpreadsheetTestCase struct {
	t           *testing.T
	name        string
	spreadsheet *Spreadsheet
	err         error
	skipped     bool
}

func NewSpreadsheetTestCase(t *testing.T, name string) *SpreadsheetTestCase {
	tc := &SpreadsheetTestCase{t: t, name: name, spreadsheet: NewSpreadsheet()}
	return tc.AddWorksheet("Sheet1")
}

func (tc *SpreadsheetTestCase) Set(address string, value Primitive) *SpreadsheetTestCase {
	if tc.skipped || tc.err != nil {
		return tc
	}
	tc.err = tc.spreadsheet.Set(address, value)
	if tc.err != nil {
		tc.t.Errorf("%s: Set(%s) failed: %v", tc.name, address, tc.err)
	}
	return tc
}

func (tc *SpreadsheetTestCase) Remove(address string) *SpreadsheetTestCase {
	if tc.skipped || tc.err != nil {
		return tc
	}
	tc.err = tc.spreadsheet.Remove(address)
	if tc.err != nil {
		tc.t.Errorf("%s: Remove(%s) failed: %v", tc.name, address, tc.err)
	}
	return tc
}

func (tc *SpreadsheetTestCase) AddWorksheet(name string) *SpreadsheetTestCase {
	if tc.skipped || tc.err != nil {
		return tc
	}
	tc.err = tc.spreadsheet.AddWorksheet(name)
	return tc
}

func (tc *SpreadsheetTestCase) RemoveWorksheet(name string) *SpreadsheetTestCase {
	if tc.skipped || tc.err != nil {
		return tc
	}
	tc.err = tc.spreadsheet.RemoveWorksheet(name)
	return tc
}

func (tc *SpreadsheetTestCase) RenameWorksheet(oldName, newName string) *SpreadsheetTestCase {
	if tc.skipped || tc.err != nil {
		return tc
	}
	tc.err = tc.spreadsheet.RenameWorksheet(oldName, newName)
	return tc
}

func (tc *SpreadsheetTestCase) AddNamedRange(name, rangeAddress string) *SpreadsheetTestCase {
	if tc.skipped || tc.err != nil {
		return tc
	}
	tc.err = tc.spreadsheet.AddNamedRange(name, rangeAddress)
	if tc.err != nil {
		tc.t.Errorf("%s: AddNamedRange(%s) failed: %v", tc.name, name, tc.err)
	}
	return tc
}

func (tc *SpreadsheetTestCase) RemoveNamedRange(name string) *SpreadsheetTestCase {
	if tc.skipped || tc.err != nil {
		return tc
	}
	tc.err = tc.spreadsheet.RemoveNamedRange(name)
	return tc
}

func (tc *SpreadsheetTestCase) Run() *SpreadsheetTestCase {
	if tc.skipped || tc.err != nil {
		return tc
	}
	tc.err = tc.spreadsheet.RecalculateAll(DefaultEngineOptions())
	if tc.err != nil {
		tc.t.Errorf("%s: RecalculateAll() failed: %v", tc.name, tc.err)
	}
	return tc
}

// numeric coerces actual/expected into comparable float64s for a tolerant
// equality check, since the engine stores numbers as decimal.Decimal but
// tests write plain float64/int literals.
func numeric(p Primitive) (float64, bool) {
	d, _, ok := decodeNumeric(p)
	if !ok {
		return 0, false
	}
	f, _ := d.Float64()
	return f, true
}

func (tc *SpreadsheetTestCase) AssertCellEq(address string, expected Primitive) *SpreadsheetTestCase {
	if tc.skipped || tc.err != nil {
		return tc
	}
	actual, err := tc.spreadsheet.Get(address)
	if err != nil {
		tc.t.Errorf("%s: Get(%s) failed: %v", tc.name, address, err)
		return tc
	}

	switch exp := expected.(type) {
	case float64, int, decimal.Decimal:
		expF, _ := numeric(expected)
		actF, ok := numeric(actual)
		if !ok || math.Abs(actF-expF) > 1e-9 {
			tc.t.Errorf("%s: cell %s = %v, want %v", tc.name, address, actual, expected)
		}
	case string:
		actS, _, ok := decodeString(actual)
		if !ok || actS != exp {
			tc.t.Errorf("%s: cell %s = %v, want %q", tc.name, address, actual, exp)
		}
	case bool:
		actB, _, ok := decodeBool(actual)
		if !ok || actB != exp {
			tc.t.Errorf("%s: cell %s = %v, want %v", tc.name, address, actual, exp)
		}
	case nil:
		if actual != nil {
			tc.t.Errorf("%s: cell %s = %v, want empty", tc.name, address, actual)
		}
	default:
		if actual != expected {
			tc.t.Errorf("%s: cell %s = %v, want %v", tc.name, address, actual, expected)
		}
	}
	return tc
}

func (tc *SpreadsheetTestCase) AssertCellErr(address string, code ErrorCode) *SpreadsheetTestCase {
	if tc.skipped || tc.err != nil {
		return tc
	}
	actual, err := tc.spreadsheet.Get(address)
	if err != nil {
		tc.t.Errorf("%s: Get(%s) failed: %v", tc.name, address, err)
		return tc
	}
	ce, ok := asCellError(actual)
	if !ok {
		tc.t.Errorf("%s: cell %s = %v, want error %v", tc.name, address, actual, ErrorMapper[code])
		return tc
	}
	if ce.Code != code {
		tc.t.Errorf("%s: cell %s has error %v, want %v", tc.name, address, ErrorMapper[ce.Code], ErrorMapper[code])
	}
	return tc
}

func TestSpreadsheetBasicArithmetic(t *testing.T) {
	NewSpreadsheetTestCase(t, "basic arithmetic").
		Set("Sheet1!A1", 2.0).
		Set("Sheet1!A2", 3.0).
		Set("Sheet1!A3", "=A1+A2*2").
		Run().
		AssertCellEq("Sheet1!A3", 8.0)
}

func TestSpreadsheetDependencyChain(t *testing.T) {
	NewSpreadsheetTestCase(t, "dependency chain").
		Set("Sheet1!A1", 1.0).
		Set("Sheet1!B1", "=A1+1").
		Set("Sheet1!C1", "=B1+1").
		Set("Sheet1!D1", "=C1+1").
		Run().
		AssertCellEq("Sheet1!D1", 4.0)
}

func TestSpreadsheetCircularReferenceYieldsRefError(t *testing.T) {
	NewSpreadsheetTestCase(t, "circular reference").
		Set("Sheet1!A1", "=B1").
		Set("Sheet1!B1", "=C1").
		Set("Sheet1!C1", "=A1").
		Run().
		AssertCellErr("Sheet1!A1", ErrorCodeRef).
		AssertCellErr("Sheet1!B1", ErrorCodeRef).
		AssertCellErr("Sheet1!C1", ErrorCodeRef)
}

func TestSpreadsheetSelfReferenceYieldsRefError(t *testing.T) {
	NewSpreadsheetTestCase(t, "self reference").
		Set("Sheet1!A1", "=A1+1").
		Run().
		AssertCellErr("Sheet1!A1", ErrorCodeRef)
}

func TestSpreadsheetDivideByZero(t *testing.T) {
	NewSpreadsheetTestCase(t, "divide by zero").
		Set("Sheet1!A1", 10.0).
		Set("Sheet1!A2", 0.0).
		Set("Sheet1!A3", "=A1/A2").
		Run().
		AssertCellErr("Sheet1!A3", ErrorCodeDiv0)
}

func TestSpreadsheetUnknownIdentifierYieldsNameError(t *testing.T) {
	NewSpreadsheetTestCase(t, "unknown identifier").
		Set("Sheet1!A1", "=UndefinedRange").
		Run().
		AssertCellErr("Sheet1!A1", ErrorCodeName)
}

func TestSpreadsheetAggregateFunctions(t *testing.T) {
	tc := NewSpreadsheetTestCase(t, "aggregates")
	for i := 1; i <= 5; i++ {
		tc.Set("Sheet1!A"+itoa(i), float64(i))
	}
	tc.Set("Sheet1!B1", "=SUM(A1:A5)").
		Set("Sheet1!B2", "=AVERAGE(A1:A5)").
		Set("Sheet1!B3", "=MAX(A1:A5)").
		Set("Sheet1!B4", "=MIN(A1:A5)").
		Set("Sheet1!B5", "=COUNT(A1:A5)").
		Run().
		AssertCellEq("Sheet1!B1", 15.0).
		AssertCellEq("Sheet1!B2", 3.0).
		AssertCellEq("Sheet1!B3", 5.0).
		AssertCellEq("Sheet1!B4", 1.0).
		AssertCellEq("Sheet1!B5", 5.0)
}

func TestSpreadsheetSumifCountif(t *testing.T) {
	tc := NewSpreadsheetTestCase(t, "sumif/countif")
	tc.Set("Sheet1!A1", "north").Set("Sheet1!B1", 10.0)
	tc.Set("Sheet1!A2", "south").Set("Sheet1!B2", 20.0)
	tc.Set("Sheet1!A3", "north").Set("Sheet1!B3", 30.0)
	tc.Set("Sheet1!C1", `=SUMIF(A1:A3,"north",B1:B3)`).
		Set("Sheet1!C2", `=COUNTIF(A1:A3,"north")`).
		Set("Sheet1!C3", `=SUMIF(B1:B3,">15")`).
		Run().
		AssertCellEq("Sheet1!C1", 40.0).
		AssertCellEq("Sheet1!C2", 2.0).
		AssertCellEq("Sheet1!C3", 50.0)
}

func TestSpreadsheetStringConcatenation(t *testing.T) {
	NewSpreadsheetTestCase(t, "concatenation").
		Set("Sheet1!A1", "foo").
		Set("Sheet1!A2", "bar").
		Set("Sheet1!A3", `=A1&"-"&A2`).
		Run().
		AssertCellEq("Sheet1!A3", "foo-bar")
}

func TestSpreadsheetMultiWorksheetReference(t *testing.T) {
	tc := NewSpreadsheetTestCase(t, "multi-worksheet reference").AddWorksheet("Data")
	tc.Set("Data!A1", 5.0).
		Set("Sheet1!A1", "=Data!A1*2").
		Run().
		AssertCellEq("Sheet1!A1", 10.0)
}

func TestSpreadsheetRemoveReferencedWorksheet(t *testing.T) {
	tc := NewSpreadsheetTestCase(t, "remove worksheet").AddWorksheet("Data")
	tc.Set("Data!A1", 5.0).
		Set("Sheet1!A1", "=Data!A1").
		Run().
		AssertCellEq("Sheet1!A1", 5.0)

	if err := tc.spreadsheet.RemoveWorksheet("Data"); err != nil {
		t.Fatalf("RemoveWorksheet failed: %v", err)
	}
	if tc.spreadsheet.DoesWorksheetExist("Data") {
		t.Errorf("expected Data worksheet to be gone")
	}
}

func TestSpreadsheetRenameWorksheet(t *testing.T) {
	tc := NewSpreadsheetTestCase(t, "rename worksheet")
	if err := tc.spreadsheet.RenameWorksheet("Sheet1", "Renamed"); err != nil {
		t.Fatalf("RenameWorksheet failed: %v", err)
	}
	if tc.spreadsheet.DoesWorksheetExist("Sheet1") {
		t.Errorf("old name should no longer exist")
	}
	if !tc.spreadsheet.DoesWorksheetExist("Renamed") {
		t.Errorf("new name should exist")
	}
}

func TestSpreadsheetNamedRange(t *testing.T) {
	NewSpreadsheetTestCase(t, "named range").
		Set("Sheet1!A1", 1.0).
		Set("Sheet1!A2", 2.0).
		Set("Sheet1!A3", 3.0).
		AddNamedRange("MyTotal", "Sheet1!A1:A3").
		Set("Sheet1!B1", "=SUM(MyTotal)").
		Run().
		AssertCellEq("Sheet1!B1", 6.0)
}

func TestSpreadsheetNamedRangeDuplicateRejected(t *testing.T) {
	tc := NewSpreadsheetTestCase(t, "duplicate named range")
	if err := tc.spreadsheet.AddNamedRange("Total", "Sheet1!A1:A2"); err != nil {
		t.Fatalf("first AddNamedRange failed: %v", err)
	}
	err := tc.spreadsheet.AddNamedRange("Total", "Sheet1!B1:B2")
	if err == nil {
		t.Errorf("expected AddNamedRange to reject a duplicate name")
	}
}

func TestSpreadsheetArrayFormulaSpill(t *testing.T) {
	tc := NewSpreadsheetTestCase(t, "array spill")
	tc.Set("Sheet1!A1", 1.0).Set("Sheet1!A2", 2.0).Set("Sheet1!A3", 3.0)
	tc.Set("Sheet1!B1", "=A1:A3")
	tc.Run()
	tc.AssertCellEq("Sheet1!B1", 1.0)
	tc.AssertCellEq("Sheet1!B2", 2.0)
	tc.AssertCellEq("Sheet1!B3", 3.0)
}

func TestSpreadsheetRemoveCell(t *testing.T) {
	NewSpreadsheetTestCase(t, "remove cell").
		Set("Sheet1!A1", 42.0).
		Remove("Sheet1!A1").
		AssertCellEq("Sheet1!A1", nil)
}

func TestSpreadsheetMalformedFormulaYieldsValueError(t *testing.T) {
	NewSpreadsheetTestCase(t, "malformed formula").
		Set("Sheet1!A1", "=SUM(").
		Run().
		AssertCellErr("Sheet1!A1", ErrorCodeValue)
}

func TestSpreadsheetRunnableSpreadsheetChaining(t *testing.T) {
	r := NewRunnableSpreadsheet(nil).
		AddWorksheet("Sheet1").
		Set("Sheet1!A1", 4.0).
		Set("Sheet1!A2", "=A1*A1").
		RecalculateAll(DefaultEngineOptions())

	s, err := r.Run()
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	v, err := s.Get("Sheet1!A2")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	f, ok := numeric(v)
	if !ok || f != 16.0 {
		t.Errorf("A2 = %v, want 16", v)
	}
}

func TestSpreadsheetListWorksheetsAndNamedRanges(t *testing.T) {
	s := NewSpreadsheet()
	if err := s.AddWorksheet("Sheet1"); err != nil {
		t.Fatalf("AddWorksheet failed: %v", err)
	}
	if err := s.AddWorksheet("Data"); err != nil {
		t.Fatalf("AddWorksheet failed: %v", err)
	}
	names := s.ListWorksheets()
	if len(names) != 2 {
		t.Fatalf("expected 2 worksheets, got %v", names)
	}

	if err := s.AddNamedRange("Total", "Sheet1!A1:A10"); err != nil {
		t.Fatalf("AddNamedRange failed: %v", err)
	}
	ranges := s.ListNamedRanges()
	if len(ranges) != 1 || ranges[0] != "Total" {
		t.Fatalf("expected [Total], got %v", ranges)
	}
}

func TestSpreadsheetDecimalPrecision(t *testing.T) {
	NewSpreadsheetTestCase(t, "decimal precision").
		Set("Sheet1!A1", "0.1").
		Set("Sheet1!A2", "0.2").
		Set("Sheet1!A3", "=A1+A2").
		Run().
		AssertCellEq("Sheet1!A3", decimal.NewFromFloat(0.3))
}

// itoa avoids pulling in strconv just for loop indices in test setup.
func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	neg := i < 0
	if neg {
		i = -i
	}
	var buf [20]byte
	pos := len(buf)
	for i > 0 {
		pos--
		buf[pos] = byte('0' + i%10)
		i /= 10
	}
	if neg {
		pos--
		buf[pos] = '-'
	}
	return string(buf[pos:])
}
