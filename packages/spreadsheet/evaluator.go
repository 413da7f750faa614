package main

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Sheet is the read-only view the evaluator needs of a workbook: given a
// reference, what value sits there. Storage satisfies this via sheetView
// below; the evaluator itself never depends on Storage directly so it
// stays testable with a plain map (mapSheet).
type Sheet interface {
	Get(ref ARef) Primitive
}

// mapSheet is the trivial Sheet used by pure-core tests.
type mapSheet map[ARef]Primitive

func (m mapSheet) Get(ref ARef) Primitive { return m[ref] }

// sheetView adapts a Storage to Sheet for production evaluation.
type sheetView struct {
	st *Storage
}

func (s sheetView) Get(ref ARef) Primitive {
	ws, ok := s.st.GetWorksheetByName(ref.Sheet)
	if !ok {
		return nil
	}
	return ws.GetCell(ref.Row, ref.Col)
}

// rangeValues reads every cell in rng from sh, row-major.
func rangeValues(sh Sheet, rng ARange) ArrayResult {
	a := newArrayResult(rng.Rows(), rng.Cols())
	for r := 0; r < rng.Rows(); r++ {
		for c := 0; c < rng.Cols(); c++ {
			ref := ARef{Sheet: rng.Sheet, Row: rng.StartRow + uint32(r), Col: rng.StartCol + uint32(c)}
			a.Set(r, c, sh.Get(ref))
		}
	}
	return a
}

// eval evaluates expr against sh, returning a single-cell result. Array
// reads (a bare range not passed to an aggregate function) collapse to
// their top-left cell, matching ordinary (non-array) formula semantics;
// evaluateArrayFormula is the entry point that preserves the full shape.
func eval(expr *TExpr, sh Sheet, opts EngineOptions) (Primitive, error) {
	if expr == nil {
		return nil, nil
	}
	switch expr.Kind {
	case TExprLiteral:
		return expr.Lit, nil

	case TExprRef:
		return sh.Get(expr.Ref), nil

	case TExprRangeRef:
		return sh.Get(ARef{Sheet: expr.Range.Sheet, Row: expr.Range.StartRow, Col: expr.Range.StartCol}), nil

	case TExprDateCoerce:
		v, err := eval(expr.Operand, sh, opts)
		if err != nil {
			return nil, err
		}
		if ce, isErr := asCellError(v); isErr {
			return ce, nil
		}
		return v, nil

	case TExprUnary:
		v, err := eval(expr.Operand, sh, opts)
		if err != nil {
			return nil, err
		}
		if ce, isErr := asCellError(v); isErr {
			return ce, nil
		}
		d, ce, ok := decodeNumeric(v)
		if !ok {
			return ce, nil
		}
		switch expr.Op {
		case "-":
			return d.Neg(), nil
		case "+":
			return d, nil
		case "%":
			return d.Div(decimal.NewFromInt(100)), nil
		}
		return errValue, nil

	case TExprBinary:
		return evalBinary(expr, sh, opts)

	case TExprCall:
		return callFunction(expr.Func, expr.Args, sh, opts)
	}
	return nil, nil
}

func evalBinary(expr *TExpr, sh Sheet, opts EngineOptions) (Primitive, error) {
	l, err := eval(expr.Left, sh, opts)
	if err != nil {
		return nil, err
	}
	if ce, isErr := asCellError(l); isErr {
		return ce, nil
	}
	r, err := eval(expr.Right, sh, opts)
	if err != nil {
		return nil, err
	}
	if ce, isErr := asCellError(r); isErr {
		return ce, nil
	}

	switch expr.Op {
	case "&":
		ls, ce, ok := decodeString(l)
		if !ok {
			return ce, nil
		}
		rs, ce, ok := decodeString(r)
		if !ok {
			return ce, nil
		}
		return ls + rs, nil
	case "=", "<>", "<", "<=", ">", ">=":
		return compareValues(expr.Op, l, r), nil
	}

	ld, ce, ok := decodeNumeric(l)
	if !ok {
		return ce, nil
	}
	rd, ce, ok := decodeNumeric(r)
	if !ok {
		return ce, nil
	}
	switch expr.Op {
	case "+":
		return ld.Add(rd), nil
	case "-":
		return ld.Sub(rd), nil
	case "*":
		return ld.Mul(rd), nil
	case "/":
		if rd.IsZero() {
			return errDiv0, nil
		}
		return ld.Div(rd), nil
	case "^":
		return ld.Pow(rd), nil
	}
	return errName, nil
}

func compareValues(op string, l, r Primitive) Primitive {
	rank := func(v Primitive) int {
		switch v.(type) {
		case nil:
			return 0
		case bool:
			return 3
		case string:
			return 2
		default:
			return 1
		}
	}
	lr, rr := rank(l), rank(r)
	var cmp int
	switch {
	case lr != rr:
		if lr < rr {
			cmp = -1
		} else {
			cmp = 1
		}
	case lr == 1:
		ld, _, _ := decodeNumeric(l)
		rd, _, _ := decodeNumeric(r)
		cmp = ld.Cmp(rd)
	case lr == 2:
		ls, _, _ := decodeString(l)
		rs, _, _ := decodeString(r)
		ls, rs = strings.ToUpper(ls), strings.ToUpper(rs)
		switch {
		case ls < rs:
			cmp = -1
		case ls > rs:
			cmp = 1
		}
	case lr == 3:
		lb, _, _ := decodeBool(l)
		rb, _, _ := decodeBool(r)
		switch {
		case !lb && rb:
			cmp = -1
		case lb && !rb:
			cmp = 1
		}
	}
	switch op {
	case "=":
		return cmp == 0
	case "<>":
		return cmp != 0
	case "<":
		return cmp < 0
	case "<=":
		return cmp <= 0
	case ">":
		return cmp > 0
	case ">=":
		return cmp >= 0
	}
	return false
}

// evaluateFormula is the External Interface entry point for an ordinary
// (non-array) formula: it always yields exactly one value.
func evaluateFormula(expr *TExpr, sh Sheet, opts EngineOptions) (Primitive, error) {
	return eval(expr, sh, opts)
}

// evaluateArrayFormula is the entry point for formulas that may spill: if
// expr's outermost shape is a range reference or an array-producing
// function (TRANSPOSE, a naked range), the full ArrayResult is returned;
// otherwise the scalar result is wrapped as a 1x1 array. Spills larger
// than opts.MaxArraySpillCells are rejected with #SPILL!-equivalent
// (reported via errNum, since this codebase's ErrorCode set predates a
// dedicated #SPILL! code).
func evaluateArrayFormula(expr *TExpr, sh Sheet, opts EngineOptions) (ArrayResult, error) {
	arr, err := evalArray(expr, sh, opts)
	if err != nil {
		return ArrayResult{}, err
	}
	if arr.CellCount() > opts.maxSpillOrDefault() {
		return singleArrayResult(errNum), nil
	}
	return arr, nil
}

func evalArray(expr *TExpr, sh Sheet, opts EngineOptions) (ArrayResult, error) {
	if expr == nil {
		return singleArrayResult(nil), nil
	}
	switch expr.Kind {
	case TExprRangeRef:
		return rangeValues(sh, expr.Range), nil
	case TExprCall:
		if fn, ok := arrayFunctions[normalizeFuncName(expr.Func)]; ok {
			return fn(expr.Args, sh, opts)
		}
	}
	v, err := eval(expr, sh, opts)
	if err != nil {
		return ArrayResult{}, err
	}
	return singleArrayResult(v), nil
}
