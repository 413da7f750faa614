package main

// PatchOp is one write a Patch applies to a sheet: either a single cell or
// an array spilled from a formula's top-left anchor.
type PatchOp struct {
	Anchor ARef
	Single Primitive    // set when Array is nil
	Array  *ArrayResult // set for a spilling array formula
}

// Patch is the functional result of recalculating one or more formulas: a
// batch of writes to apply, rather than the evaluator mutating the sheet
// directly. Keeping evaluation side-effect-free makes it straightforward
// to recalculate speculatively (e.g. for a what-if UI) and only commit the
// Patch once it's accepted.
type Patch struct {
	Ops []PatchOp
}

// PutCell appends a single-cell write to the patch.
func (p *Patch) PutCell(ref ARef, v Primitive) {
	p.Ops = append(p.Ops, PatchOp{Anchor: ref, Single: v})
}

// PutArray appends a spilled array write, anchored at ref.
func (p *Patch) PutArray(ref ARef, arr ArrayResult) {
	p.Ops = append(p.Ops, PatchOp{Anchor: ref, Array: &arr})
}

// applyPatch writes every op in p into storage. A formula's own anchor
// cell goes through Worksheet.SetResult, which refreshes the cached value
// without disturbing the stored formula; every other cell an array spills
// into has no formula of its own and goes through SetCell instead.
func applyPatch(p *Patch, st *Storage) {
	for _, op := range p.Ops {
		ws, ok := st.GetWorksheetByName(op.Anchor.Sheet)
		if !ok {
			continue
		}
		if op.Array == nil {
			ws.SetResult(op.Anchor.Row, op.Anchor.Col, op.Single)
			continue
		}
		for r := 0; r < op.Array.Rows(); r++ {
			for c := 0; c < op.Array.Cols(); c++ {
				dest := ARef{Sheet: op.Anchor.Sheet, Row: op.Anchor.Row + uint32(r), Col: op.Anchor.Col + uint32(c)}
				v := op.Array.At(r, c)
				if r == 0 && c == 0 {
					ws.SetResult(dest.Row, dest.Col, v)
				} else {
					ws.SetCell(dest.Row, dest.Col, v)
				}
			}
		}
	}
}
