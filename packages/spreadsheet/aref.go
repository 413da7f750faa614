package main

import (
	"fmt"
	"strconv"
	"strings"
)

// MaxRow is the largest zero-based row index a sheet can address,
// matching common spreadsheet grid limits (1,048,576 rows).
const MaxRow uint32 = 1_048_575

// MaxCol is the largest zero-based column index a sheet can address
// (16,384 columns, i.e. up to column XFD).
const MaxCol uint32 = 16_383

// ARef is an immutable, zero-based reference to a single cell on a named
// sheet. It carries the sheet name directly rather than an interned numeric
// ID, so references can be built and printed without a live Storage.
type ARef struct {
	Sheet string
	Row   uint32
	Col   uint32
}

func (a ARef) ToA1() string {
	prefix := ""
	if a.Sheet != "" {
		prefix = sheetPrefix(a.Sheet) + "!"
	}
	return fmt.Sprintf("%s%s%d", prefix, colToLetters(a.Col), a.Row+1)
}

func sheetPrefix(sheet string) string {
	if sheet == "" {
		return ""
	}
	return quoteSheetName(sheet)
}

func quoteSheetName(sheet string) string {
	needsQuote := false
	for _, r := range sheet {
		if !(r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')) {
			needsQuote = true
			break
		}
	}
	if needsQuote {
		return "'" + strings.ReplaceAll(sheet, "'", "''") + "'"
	}
	return sheet
}

func colToLetters(col uint32) string {
	col++ // 1-based
	var sb strings.Builder
	letters := make([]byte, 0, 4)
	for col > 0 {
		col--
		letters = append(letters, byte('A'+col%26))
		col /= 26
	}
	for i := len(letters) - 1; i >= 0; i-- {
		sb.WriteByte(letters[i])
	}
	return sb.String()
}

func lettersToCol(letters string) (uint32, error) {
	if letters == "" {
		return 0, fmt.Errorf("empty column letters")
	}
	var col uint32
	for _, r := range letters {
		if r < 'A' || r > 'Z' {
			return 0, fmt.Errorf("invalid column letter %q", r)
		}
		col = col*26 + uint32(r-'A'+1)
	}
	return col - 1, nil
}

// ParseARef parses an unqualified or sheet-qualified A1 reference
// ("A1", "Sheet1!B2", "'My Sheet'!C3") relative to defaultSheet.
func ParseARef(s string, defaultSheet string) (ARef, error) {
	sheet, rest, err := splitSheetPrefix(s, defaultSheet)
	if err != nil {
		return ARef{}, err
	}
	col, row, err := splitColRow(rest)
	if err != nil {
		return ARef{}, err
	}
	c, err := lettersToCol(col)
	if err != nil {
		return ARef{}, err
	}
	r, err := strconv.ParseUint(row, 10, 32)
	if err != nil {
		return ARef{}, fmt.Errorf("invalid row in %q: %w", s, err)
	}
	if r == 0 {
		return ARef{}, fmt.Errorf("row in %q must be >= 1", s)
	}
	return ARef{Sheet: sheet, Row: uint32(r - 1), Col: c}, nil
}

func splitSheetPrefix(s, defaultSheet string) (sheet string, rest string, err error) {
	bang := strings.LastIndex(s, "!")
	if bang < 0 {
		return defaultSheet, s, nil
	}
	raw := s[:bang]
	rest = s[bang+1:]
	if strings.HasPrefix(raw, "'") && strings.HasSuffix(raw, "'") && len(raw) >= 2 {
		raw = strings.ReplaceAll(raw[1:len(raw)-1], "''", "'")
	}
	return raw, rest, nil
}

func splitColRow(rest string) (col string, row string, err error) {
	i := 0
	for i < len(rest) && rest[i] >= 'A' && rest[i] <= 'Z' {
		i++
	}
	if i == 0 || i == len(rest) {
		return "", "", fmt.Errorf("malformed cell reference %q", rest)
	}
	return rest[:i], rest[i:], nil
}

// ParseARange parses a sheet-qualified or unqualified range ("A1:B2",
// "A:A", "1:1", "Sheet1!A1:B2", or a bare cell treated as a 1x1 range)
// relative to defaultSheet.
func ParseARange(s string, defaultSheet string) (ARange, error) {
	sheet, rest, err := splitSheetPrefix(s, defaultSheet)
	if err != nil {
		return ARange{}, err
	}

	parts := strings.SplitN(rest, ":", 2)
	if len(parts) == 1 {
		ref, err := ParseARef(parts[0], sheet)
		if err != nil {
			return ARange{}, fmt.Errorf("invalid cell in range: %s", parts[0])
		}
		return NewCellRange(ref, ref), nil
	}

	switch {
	case isPureLetters(parts[0]) && isPureLetters(parts[1]):
		startCol, err := lettersToCol(strings.ToUpper(parts[0]))
		if err != nil {
			return ARange{}, fmt.Errorf("invalid column in range: %s", parts[0])
		}
		endCol, err := lettersToCol(strings.ToUpper(parts[1]))
		if err != nil {
			return ARange{}, fmt.Errorf("invalid column in range: %s", parts[1])
		}
		return FullColumnRange(sheet, startCol, endCol), nil

	case isPureDigits(parts[0]) && isPureDigits(parts[1]):
		startRow, err := strconv.ParseUint(parts[0], 10, 32)
		if err != nil || startRow < 1 {
			return ARange{}, fmt.Errorf("invalid row in range: %s", parts[0])
		}
		endRow, err := strconv.ParseUint(parts[1], 10, 32)
		if err != nil || endRow < 1 {
			return ARange{}, fmt.Errorf("invalid row in range: %s", parts[1])
		}
		return FullRowRange(sheet, uint32(startRow-1), uint32(endRow-1)), nil

	default:
		start, err := ParseARef(parts[0], sheet)
		if err != nil {
			return ARange{}, fmt.Errorf("invalid start cell in range: %s", parts[0])
		}
		end, err := ParseARef(parts[1], sheet)
		if err != nil {
			return ARange{}, fmt.Errorf("invalid end cell in range: %s", parts[1])
		}
		return NewCellRange(start, end), nil
	}
}

// isPureLetters reports whether s is a non-empty run of ASCII letters, the
// shape of a bare column reference in a full-column range (A:A).
func isPureLetters(s string) bool {
	if s == "" {
		return false
	}
	for _, ch := range s {
		if !((ch >= 'A' && ch <= 'Z') || (ch >= 'a' && ch <= 'z')) {
			return false
		}
	}
	return true
}

// isPureDigits reports whether s is a non-empty run of ASCII digits, the
// shape of a bare row reference in a full-row range (1:1).
func isPureDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, ch := range s {
		if ch < '0' || ch > '9' {
			return false
		}
	}
	return true
}

// ARange is an immutable rectangular region of cells on one sheet. A
// full column (A:A) has FullCol=true and FullColumnRange stores its rows
// as [0, MaxRow]; a full row (1:1) has FullRow=true and FullRowRange
// stores its columns as [0, MaxCol].
type ARange struct {
	Sheet    string
	StartRow uint32
	StartCol uint32
	EndRow   uint32
	EndCol   uint32
	FullCol  bool
	FullRow  bool
}

// NewCellRange builds a normalized range (start <= end on both axes) from
// two corner references on the same sheet.
func NewCellRange(a, b ARef) ARange {
	minRow, maxRow := a.Row, b.Row
	if minRow > maxRow {
		minRow, maxRow = maxRow, minRow
	}
	minCol, maxCol := a.Col, b.Col
	if minCol > maxCol {
		minCol, maxCol = maxCol, minCol
	}
	return ARange{Sheet: a.Sheet, StartRow: minRow, StartCol: minCol, EndRow: maxRow, EndCol: maxCol}
}

// FullColumnRange builds a range spanning an entire column (or run of
// columns), e.g. A:A or A:C.
func FullColumnRange(sheet string, startCol, endCol uint32) ARange {
	if startCol > endCol {
		startCol, endCol = endCol, startCol
	}
	return ARange{Sheet: sheet, StartRow: 0, EndRow: MaxRow, StartCol: startCol, EndCol: endCol, FullCol: true}
}

// FullRowRange builds a range spanning an entire row (or run of rows),
// e.g. 1:1 or 1:3.
func FullRowRange(sheet string, startRow, endRow uint32) ARange {
	if startRow > endRow {
		startRow, endRow = endRow, startRow
	}
	return ARange{Sheet: sheet, StartRow: startRow, EndRow: endRow, StartCol: 0, EndCol: MaxCol, FullRow: true}
}

// Bounds returns the expanded, concrete [startRow,endRow]x[startCol,endCol]
// rectangle, resolving FullCol/FullRow to MaxRow/MaxCol.
func (r ARange) Bounds() (startRow, startCol, endRow, endCol uint32) {
	return r.StartRow, r.StartCol, r.EndRow, r.EndCol
}

// Contains reports whether ref falls within the range (same sheet, row and
// column both in bounds).
func (r ARange) Contains(ref ARef) bool {
	return ref.Sheet == r.Sheet &&
		ref.Row >= r.StartRow && ref.Row <= r.EndRow &&
		ref.Col >= r.StartCol && ref.Col <= r.EndCol
}

// Rows returns the number of rows spanned.
func (r ARange) Rows() int { return int(r.EndRow-r.StartRow) + 1 }

// Cols returns the number of columns spanned.
func (r ARange) Cols() int { return int(r.EndCol-r.StartCol) + 1 }

// ToA1 renders the range in A1 notation. Full-column/row ranges always
// print their expanded concrete bounds (e.g. A1:A1048576) — see ToCompactA1
// for the short A:A / 1:1 form.
func (r ARange) ToA1() string {
	start := ARef{Sheet: r.Sheet, Row: r.StartRow, Col: r.StartCol}
	end := ARef{Sheet: r.Sheet, Row: r.EndRow, Col: r.EndCol}
	if r.StartRow == r.EndRow && r.StartCol == r.EndCol {
		return start.ToA1()
	}
	return fmt.Sprintf("%s:%s", start.ToA1(), stripSheet(end.ToA1()))
}

// ToCompactA1 renders full-column/row ranges in their short form (A:A,
// 1:1) and falls back to ToA1 for ordinary bounded ranges.
func (r ARange) ToCompactA1() string {
	prefix := ""
	if r.Sheet != "" {
		prefix = sheetPrefix(r.Sheet) + "!"
	}
	switch {
	case r.FullCol:
		if r.StartCol == r.EndCol {
			return fmt.Sprintf("%s%s:%s", prefix, colToLetters(r.StartCol), colToLetters(r.StartCol))
		}
		return fmt.Sprintf("%s%s:%s", prefix, colToLetters(r.StartCol), colToLetters(r.EndCol))
	case r.FullRow:
		if r.StartRow == r.EndRow {
			return fmt.Sprintf("%s%d:%d", prefix, r.StartRow+1, r.StartRow+1)
		}
		return fmt.Sprintf("%s%d:%d", prefix, r.StartRow+1, r.EndRow+1)
	default:
		return r.ToA1()
	}
}

func stripSheet(a1 string) string {
	if i := strings.LastIndex(a1, "!"); i >= 0 {
		return a1[i+1:]
	}
	return a1
}
