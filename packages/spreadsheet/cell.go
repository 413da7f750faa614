package main

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Primitive represents basic spreadsheet value types.
// types:
//   - decimal.Decimal: numeric results computed by formulas
//   - float64: numeric literals (as parsed from formula text or passed to Set)
//   - string: text values
//   - bool: boolean values (TRUE/FALSE)
//   - nil: empty/null cells
//   - CellError: error values (#DIV/0!, #VALUE!, etc.)
type Primitive any

// ErrorCode represents standard spreadsheet error codes following
// Excel conventions
type ErrorCode uint8

const (
	ErrorCodeNull  ErrorCode = 1 // #NULL! - no cells in common between ranges
	ErrorCodeDiv0  ErrorCode = 2 // #DIV/0! - division by zero
	ErrorCodeValue ErrorCode = 3 // #VALUE! - wrong type of argument or operand
	ErrorCodeRef   ErrorCode = 4 // #REF! - invalid cell reference
	ErrorCodeName  ErrorCode = 5 // #NAME? - unrecognized function name
	ErrorCodeNum   ErrorCode = 6 // #NUM! - number too large or small to be represented
	ErrorCodeNA    ErrorCode = 7 // #N/A - not enough arguments for function
	ErrorCodeOther ErrorCode = 8 // #ERROR! - all other errors
)

// ErrorMapper maps error code numbers to their string representations
var ErrorMapper = map[ErrorCode]string{
	ErrorCodeNull:  "#NULL!",
	ErrorCodeDiv0:  "#DIV/0!",
	ErrorCodeValue: "#VALUE!",
	ErrorCodeRef:   "#REF!",
	ErrorCodeName:  "#NAME?",
	ErrorCodeNum:   "#NUM!",
	ErrorCodeNA:    "#N/A",
	ErrorCodeOther: "#ERROR!",
}

// SpreadsheetError preserves error code for display in cells
type SpreadsheetError struct {
	ErrorCode ErrorCode
	Message   string
}

func (e *SpreadsheetError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return ErrorMapper[e.ErrorCode]
}

func NewSpreadsheetError(code ErrorCode, message string) *SpreadsheetError {
	if message == "" {
		message = ErrorMapper[code]
	}
	return &SpreadsheetError{
		ErrorCode: code,
		Message:   message,
	}
}

// excelEpoch is day 0 of the spreadsheet serial date system (1899-12-30,
// the conventional Excel epoch including its deliberate 1900 leap-year bug
// compensation via the day-0 offset rather than 1900-01-01).
var excelEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// DateToSerial converts a calendar date to a spreadsheet serial number.
func DateToSerial(t time.Time) decimal.Decimal {
	days := t.Sub(excelEpoch).Hours() / 24
	return decimal.NewFromFloat(days).Round(6)
}

// SerialToDate converts a spreadsheet serial number back to a calendar date.
func SerialToDate(d decimal.Decimal) time.Time {
	days, _ := d.Float64()
	return excelEpoch.Add(time.Duration(days * 24 * float64(time.Hour)))
}

// decodeNumeric coerces a Primitive to decimal.Decimal the way a
// spreadsheet formula does: numbers pass through, booleans become 0/1,
// empty cells and blank strings become 0, numeric-looking strings parse,
// error values are returned as-is, everything else is #VALUE!.
func decodeNumeric(p Primitive) (decimal.Decimal, CellError, bool) {
	if ce, isErr := asCellError(p); isErr {
		return decimal.Zero, ce, false
	}
	switch v := p.(type) {
	case nil:
		return decimal.Zero, CellError{}, true
	case decimal.Decimal:
		return v, CellError{}, true
	case float64:
		return decimal.NewFromFloat(v), CellError{}, true
	case int:
		return decimal.NewFromInt(int64(v)), CellError{}, true
	case int64:
		return decimal.NewFromInt(v), CellError{}, true
	case bool:
		if v {
			return decimal.NewFromInt(1), CellError{}, true
		}
		return decimal.Zero, CellError{}, true
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return decimal.Zero, CellError{}, true
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return decimal.Zero, errValue, false
		}
		return d, CellError{}, true
	default:
		return decimal.Zero, errValue, false
	}
}

// decodeInt coerces a Primitive to an int via decodeNumeric, truncating
// any fractional part the way INT-style argument coercion does.
func decodeInt(p Primitive) (int64, CellError, bool) {
	d, ce, ok := decodeNumeric(p)
	if !ok {
		return 0, ce, false
	}
	return d.Truncate(0).IntPart(), CellError{}, true
}

// decodeString coerces a Primitive to its spreadsheet text representation.
func decodeString(p Primitive) (string, CellError, bool) {
	if ce, isErr := asCellError(p); isErr {
		return "", ce, false
	}
	switch v := p.(type) {
	case nil:
		return "", CellError{}, true
	case string:
		return v, CellError{}, true
	case bool:
		if v {
			return "TRUE", CellError{}, true
		}
		return "FALSE", CellError{}, true
	case decimal.Decimal:
		return v.String(), CellError{}, true
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64), CellError{}, true
	default:
		return "", errValue, false
	}
}

// decodeBool coerces a Primitive to a boolean: numbers are non-zero,
// "TRUE"/"FALSE" strings (case-insensitive) map directly, everything else
// is #VALUE!.
func decodeBool(p Primitive) (bool, CellError, bool) {
	if ce, isErr := asCellError(p); isErr {
		return false, ce, false
	}
	switch v := p.(type) {
	case nil:
		return false, CellError{}, true
	case bool:
		return v, CellError{}, true
	case decimal.Decimal:
		return !v.IsZero(), CellError{}, true
	case float64:
		return v != 0, CellError{}, true
	case string:
		switch strings.ToUpper(strings.TrimSpace(v)) {
		case "TRUE":
			return true, CellError{}, true
		case "FALSE":
			return false, CellError{}, true
		default:
			return false, errValue, false
		}
	default:
		return false, errValue, false
	}
}

// decodeDate coerces a Primitive to a calendar date by way of its serial
// number representation.
func decodeDate(p Primitive) (time.Time, CellError, bool) {
	d, ce, ok := decodeNumeric(p)
	if !ok {
		return time.Time{}, ce, false
	}
	return SerialToDate(d), CellError{}, true
}
