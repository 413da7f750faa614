package main

// ArrayResult is a rectangular grid of values produced by an array
// formula (e.g. a range reference used in a SUM, or a spilling formula
// like a TRANSPOSE). Indexing outside [0,Rows)x[0,Cols) yields Empty
// rather than panicking, matching how a spreadsheet treats a formula that
// reads past the edge of its source range.
type ArrayResult struct {
	rows int
	cols int
	data []Primitive // row-major, len == rows*cols
}

func newArrayResult(rows, cols int) ArrayResult {
	if rows < 0 {
		rows = 0
	}
	if cols < 0 {
		cols = 0
	}
	return ArrayResult{rows: rows, cols: cols, data: make([]Primitive, rows*cols)}
}

// singleArrayResult wraps one scalar as a 1x1 array, the form every
// non-array formula result takes when it needs to participate in array
// arithmetic (implicit broadcast).
func singleArrayResult(v Primitive) ArrayResult {
	a := newArrayResult(1, 1)
	a.data[0] = v
	return a
}

// fromRows builds an ArrayResult from a slice of equal-length rows.
func fromRows(rows [][]Primitive) ArrayResult {
	if len(rows) == 0 {
		return newArrayResult(0, 0)
	}
	cols := len(rows[0])
	a := newArrayResult(len(rows), cols)
	for r, row := range rows {
		for c := 0; c < cols && c < len(row); c++ {
			a.Set(r, c, row[c])
		}
	}
	return a
}

func (a ArrayResult) Rows() int { return a.rows }
func (a ArrayResult) Cols() int { return a.cols }

// At returns the value at (row,col), or Empty (nil) if out of bounds.
func (a ArrayResult) At(row, col int) Primitive {
	if row < 0 || col < 0 || row >= a.rows || col >= a.cols {
		return nil
	}
	return a.data[row*a.cols+col]
}

// Set writes (row,col); out-of-bounds writes are silently ignored since
// ArrayResult is always allocated to its final shape up front.
func (a ArrayResult) Set(row, col int, v Primitive) {
	if row < 0 || col < 0 || row >= a.rows || col >= a.cols {
		return
	}
	a.data[row*a.cols+col] = v
}

// Transpose returns a new array with rows and columns swapped.
func (a ArrayResult) Transpose() ArrayResult {
	t := newArrayResult(a.cols, a.rows)
	for r := 0; r < a.rows; r++ {
		for c := 0; c < a.cols; c++ {
			t.Set(c, r, a.At(r, c))
		}
	}
	return t
}

// Flatten returns every cell in row-major order, for aggregate functions
// (SUM, COUNT, ...) that don't care about shape.
func (a ArrayResult) Flatten() []Primitive {
	return a.data
}

// IsScalar reports whether the array is a 1x1 result, the common case for
// ordinary (non-array) formulas.
func (a ArrayResult) IsScalar() bool {
	return a.rows == 1 && a.cols == 1
}

// Scalar returns the sole value of a 1x1 array, or Empty for any other shape.
func (a ArrayResult) Scalar() Primitive {
	if a.IsScalar() {
		return a.data[0]
	}
	return nil
}

// CellCount reports how many cells a spilled array would occupy, used to
// enforce EngineOptions.MaxArraySpillCells before materializing a Patch.
func (a ArrayResult) CellCount() int {
	return a.rows * a.cols
}
