package main

// ChunkKey indexes a 256x256 region of one worksheet's cells.
type ChunkKey struct {
	ChunkRow uint32
	ChunkCol uint32
}

const (
	ChunkRows uint32 = 256                   // rows per chunk - power of 2 for efficient modulo
	ChunkCols uint32 = 256                   // columns per chunk - matches typical viewport size
	ChunkSize        = ChunkRows * ChunkCols // 65536 cells per chunk
)

// Chunk is a 256x256 region of cells. Occupied is always allocated (a
// bit-packed presence test costs one word per 64 cells); Values/Formulas/
// Sources allocate lazily, the first time the chunk actually needs to hold
// a value, a parsed formula, or formula source text.
type Chunk struct {
	Occupied []uint64 // bit-packed: which of the 65536 positions hold data
	Count    int      // number of occupied positions, for cheap emptiness checks

	Values   []Primitive // cached value per cell (literal, or last formula result)
	Formulas []*TExpr    // parsed formula per cell, nil where there isn't one
	Sources  []string    // formula source text ("=SUM(...)"), paired with Formulas
}

func newChunk() *Chunk {
	return &Chunk{Occupied: make([]uint64, (ChunkSize+63)/64)}
}

func (c *Chunk) isOccupied(idx uint32) bool {
	return c.Occupied[idx/64]&(1<<(idx%64)) != 0
}

func (c *Chunk) setOccupied(idx uint32, v bool) {
	if v == c.isOccupied(idx) {
		return
	}
	if v {
		c.Occupied[idx/64] |= 1 << (idx % 64)
		c.Count++
	} else {
		c.Occupied[idx/64] &^= 1 << (idx % 64)
		c.Count--
	}
}

// Worksheet is a sparse, chunked grid of values and formulas for one sheet.
//
// architecture:
//   - cells are partitioned into 256x256 chunks for spatial locality, the
//     same granularity the original chunked storage used
//   - a chunk's Values/Formulas/Sources slices allocate lazily, so a sheet
//     with a handful of scattered cells never pays for a dense 65536-cell
//     array until it actually needs one
//   - cells hold a Primitive and an optional *TExpr directly: there is no
//     separate string-interning or formula-interning table to keep in sync,
//     since SPEC_FULL's Sheet is just an immutable ARef->CellValue mapping
type Worksheet struct {
	name   string
	chunks map[ChunkKey]*Chunk
}

// NewWorksheet creates an empty worksheet named name.
func NewWorksheet(name string) *Worksheet {
	return &Worksheet{name: name, chunks: make(map[ChunkKey]*Chunk)}
}

// Name returns the worksheet's current name (mutable via RenameWorksheet).
func (w *Worksheet) Name() string { return w.name }

func chunkKeyFor(row, col uint32) (ChunkKey, uint32) {
	chunkRow := row / ChunkRows
	chunkCol := col / ChunkCols
	localRow := row % ChunkRows
	localCol := col % ChunkCols
	// column-first indexing for better cache locality, matching how a
	// spreadsheet is usually scanned column by column within a viewport
	idx := localCol*ChunkRows + localRow
	return ChunkKey{ChunkRow: chunkRow, ChunkCol: chunkCol}, idx
}

func (w *Worksheet) getChunk(key ChunkKey) *Chunk {
	c, ok := w.chunks[key]
	if !ok {
		c = newChunk()
		w.chunks[key] = c
	}
	return c
}

// GetCell returns the cached value at row,col: the stored literal for a
// plain cell, or the last value RecalculateAll/SetResult wrote for a
// formula cell. Returns nil for an empty or never-calculated cell.
func (w *Worksheet) GetCell(row, col uint32) Primitive {
	key, idx := chunkKeyFor(row, col)
	c, ok := w.chunks[key]
	if !ok || !c.isOccupied(idx) || c.Values == nil {
		return nil
	}
	return c.Values[idx]
}

// GetFormula returns the parsed formula at row,col and whether one exists.
func (w *Worksheet) GetFormula(row, col uint32) (*TExpr, bool) {
	key, idx := chunkKeyFor(row, col)
	c, ok := w.chunks[key]
	if !ok || c.Formulas == nil || c.Formulas[idx] == nil {
		return nil, false
	}
	return c.Formulas[idx], true
}

// FormulaSource returns the original formula text at row,col, or "".
func (w *Worksheet) FormulaSource(row, col uint32) string {
	key, idx := chunkKeyFor(row, col)
	c, ok := w.chunks[key]
	if !ok || c.Sources == nil {
		return ""
	}
	return c.Sources[idx]
}

// SetCell stores a plain (non-formula) value at row,col, clearing any
// formula previously stored there. A nil value removes the cell.
func (w *Worksheet) SetCell(row, col uint32, value Primitive) {
	key, idx := chunkKeyFor(row, col)
	if value == nil {
		w.RemoveCell(row, col)
		return
	}
	c := w.getChunk(key)
	if c.Formulas != nil {
		c.Formulas[idx] = nil
	}
	if c.Sources != nil {
		c.Sources[idx] = ""
	}
	if c.Values == nil {
		c.Values = make([]Primitive, ChunkSize)
	}
	c.Values[idx] = value
	c.setOccupied(idx, true)
}

// SetFormula stores a parsed formula and its source text at row,col. The
// cached result is left as-is (nil for a brand-new formula cell) until a
// recalculation pass fills it in via SetResult.
func (w *Worksheet) SetFormula(row, col uint32, expr *TExpr, source string) {
	key, idx := chunkKeyFor(row, col)
	c := w.getChunk(key)
	if c.Formulas == nil {
		c.Formulas = make([]*TExpr, ChunkSize)
	}
	if c.Sources == nil {
		c.Sources = make([]string, ChunkSize)
	}
	c.Formulas[idx] = expr
	c.Sources[idx] = source
	c.setOccupied(idx, true)
}

// SetResult overwrites a cell's cached value without disturbing whatever
// formula is stored there. RecalculateAll's Patch application uses this
// for formula cells and SetCell for everything else, so a spilled array
// cell (which has no formula of its own) still goes through SetCell.
func (w *Worksheet) SetResult(row, col uint32, value Primitive) {
	key, idx := chunkKeyFor(row, col)
	c := w.getChunk(key)
	if c.Values == nil {
		c.Values = make([]Primitive, ChunkSize)
	}
	c.Values[idx] = value
	c.setOccupied(idx, true)
}

// RemoveCell clears any value and formula stored at row,col.
func (w *Worksheet) RemoveCell(row, col uint32) {
	key, idx := chunkKeyFor(row, col)
	c, ok := w.chunks[key]
	if !ok {
		return
	}
	c.setOccupied(idx, false)
	if c.Values != nil {
		c.Values[idx] = nil
	}
	if c.Formulas != nil {
		c.Formulas[idx] = nil
	}
	if c.Sources != nil {
		c.Sources[idx] = ""
	}
	if c.Count == 0 {
		delete(w.chunks, key)
	}
}

// Formulas returns every formula cell in this worksheet, keyed by an ARef
// anchored to this worksheet's name. RecalculateAll uses this to build the
// dependency graph directly, with no separate formula-interning table to
// bridge through.
func (w *Worksheet) Formulas() map[ARef]*TExpr {
	out := map[ARef]*TExpr{}
	for key, c := range w.chunks {
		if c.Formulas == nil {
			continue
		}
		for idx, expr := range c.Formulas {
			if expr == nil {
				continue
			}
			localRow := uint32(idx) % ChunkRows
			localCol := uint32(idx) / ChunkRows
			ref := ARef{
				Sheet: w.name,
				Row:   key.ChunkRow*ChunkRows + localRow,
				Col:   key.ChunkCol*ChunkCols + localCol,
			}
			out[ref] = expr
		}
	}
	return out
}

// CellCount returns the number of non-empty cells in the worksheet.
func (w *Worksheet) CellCount() int {
	total := 0
	for _, c := range w.chunks {
		total += c.Count
	}
	return total
}
