package main

// RecalculateAll is the pure-core batch recalculation entry point: every
// formula cell in the workbook is gathered from storage, ordered with
// Tarjan's SCC (cycle detection) and Kahn's algorithm (topological sort,
// per SPEC_FULL §4.7), evaluated once each in that order, and the results
// applied back to storage as a single Patch. It is the sheet's only
// recalculation path — every write (Set, a new formula, a removed cell)
// leaves the workbook's cached values stale until the next RecalculateAll,
// rather than triggering an incremental single-cell recompute.
func (s *Spreadsheet) RecalculateAll(opts EngineOptions) error {
	formulas := make(map[ARef]*TExpr)
	for _, name := range s.storage.ListWorksheets() {
		ws, _ := s.storage.GetWorksheetByName(name)
		for ref, expr := range ws.Formulas() {
			formulas[ref] = expr
		}
	}

	rangeCells := func(rng ARange) []ARef {
		var out []ARef
		for ref := range formulas {
			if rng.Contains(ref) {
				out = append(out, ref)
			}
		}
		return out
	}

	g := fromSheet(formulas, rangeCells)
	cycles := g.detectCycles()

	cyclic := make(map[ARef]bool)
	sv := passSheet{base: sheetView{st: s.storage}, results: mapSheet{}}
	patch := &Patch{}
	for _, scc := range cycles {
		for _, ref := range scc {
			cyclic[ref] = true
			sv.results[ref] = errRef
			patch.PutCell(ref, errRef)
		}
	}

	acyclic := make(map[ARef]*TExpr, len(formulas)-len(cyclic))
	for ref, expr := range formulas {
		if !cyclic[ref] {
			acyclic[ref] = expr
		}
	}
	acyclicGraph := fromSheet(acyclic, rangeCells)
	order, err := acyclicGraph.topologicalSort()
	if err != nil {
		return err
	}

	for _, ref := range order {
		expr := acyclic[ref]
		arr, evalErr := evaluateArrayFormula(expr, sv, opts)
		if evalErr != nil {
			sv.results[ref] = errValue
			patch.PutCell(ref, errValue)
			continue
		}
		for i, v := range arr.Flatten() {
			sv.results[ARef{Sheet: ref.Sheet, Row: ref.Row + uint32(i/arr.Cols()), Col: ref.Col + uint32(i%arr.Cols())}] = v
		}
		if arr.IsScalar() {
			patch.PutCell(ref, arr.Scalar())
		} else {
			patch.PutArray(ref, arr)
		}
	}

	applyPatch(patch, s.storage)
	return nil
}

// passSheet is the Sheet RecalculateAll evaluates against: values computed
// earlier in the same pass, falling back to storage for every other cell.
type passSheet struct {
	base    Sheet
	results mapSheet
}

func (p passSheet) Get(ref ARef) Primitive {
	if v, ok := p.results[ref]; ok {
		return v
	}
	return p.base.Get(ref)
}
