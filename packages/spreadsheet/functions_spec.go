package main

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// normalizeFuncName matches function names case-insensitively, mirroring
// how spreadsheet formula functions are conventionally written in any case.
func normalizeFuncName(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

// scalarFn computes a single-value function call; most built-ins are this
// shape. arrayFn computes one whose natural result is a grid (TRANSPOSE,
// a naked range passed through unchanged) and is looked up first by
// evalArray, falling back to scalarFunctions otherwise.
type scalarFn func(args []*TExpr, sh Sheet, opts EngineOptions) (Primitive, error)
type arrayFn func(args []*TExpr, sh Sheet, opts EngineOptions) (ArrayResult, error)

func callFunction(name string, args []*TExpr, sh Sheet, opts EngineOptions) (Primitive, error) {
	key := normalizeFuncName(name)
	if fn, ok := scalarFunctions[key]; ok {
		return fn(args, sh, opts)
	}
	if fn, ok := arrayFunctions[key]; ok {
		arr, err := fn(args, sh, opts)
		if err != nil {
			return nil, err
		}
		return arr.At(0, 0), nil
	}
	return errName, nil
}

// flattenArgs evaluates each arg to its full array shape (so bare range
// arguments expand to every cell) and concatenates the flattened values.
func flattenArgs(args []*TExpr, sh Sheet, opts EngineOptions) ([]Primitive, error) {
	var out []Primitive
	for _, a := range args {
		arr, err := evalArray(a, sh, opts)
		if err != nil {
			return nil, err
		}
		out = append(out, arr.Flatten()...)
	}
	return out, nil
}

func numericOnly(vals []Primitive) []decimal.Decimal {
	var out []decimal.Decimal
	for _, v := range vals {
		if v == nil {
			continue
		}
		if d, _, ok := decodeNumeric(v); ok {
			if _, isStr := v.(string); isStr {
				continue // text in a range is skipped by SUM/AVERAGE/etc, not coerced
			}
			out = append(out, d)
		}
	}
	return out
}

var scalarFunctions = map[string]scalarFn{
	"SUM": func(args []*TExpr, sh Sheet, opts EngineOptions) (Primitive, error) {
		vals, err := flattenArgs(args, sh, opts)
		if err != nil {
			return nil, err
		}
		if ce, ok := firstError(vals); ok {
			return ce, nil
		}
		sum := decimal.Zero
		for _, d := range numericOnly(vals) {
			sum = sum.Add(d)
		}
		return sum, nil
	},
	"AVERAGE": func(args []*TExpr, sh Sheet, opts EngineOptions) (Primitive, error) {
		vals, err := flattenArgs(args, sh, opts)
		if err != nil {
			return nil, err
		}
		if ce, ok := firstError(vals); ok {
			return ce, nil
		}
		nums := numericOnly(vals)
		if len(nums) == 0 {
			return errDiv0, nil
		}
		sum := decimal.Zero
		for _, d := range nums {
			sum = sum.Add(d)
		}
		return sum.Div(decimal.NewFromInt(int64(len(nums)))), nil
	},
	"COUNT": func(args []*TExpr, sh Sheet, opts EngineOptions) (Primitive, error) {
		vals, err := flattenArgs(args, sh, opts)
		if err != nil {
			return nil, err
		}
		return decimal.NewFromInt(int64(len(numericOnly(vals)))), nil
	},
	"COUNTA": func(args []*TExpr, sh Sheet, opts EngineOptions) (Primitive, error) {
		vals, err := flattenArgs(args, sh, opts)
		if err != nil {
			return nil, err
		}
		n := 0
		for _, v := range vals {
			if v != nil {
				n++
			}
		}
		return decimal.NewFromInt(int64(n)), nil
	},
	"MIN": func(args []*TExpr, sh Sheet, opts EngineOptions) (Primitive, error) {
		return minMax(args, sh, opts, false)
	},
	"MAX": func(args []*TExpr, sh Sheet, opts EngineOptions) (Primitive, error) {
		return minMax(args, sh, opts, true)
	},
	"TODAY": func(args []*TExpr, sh Sheet, opts EngineOptions) (Primitive, error) {
		t := opts.clockOrDefault().Today()
		Logger.Debug().Str("fn", "TODAY").Time("value", t).Msg("volatile function evaluated")
		return DateToSerial(t), nil
	},
	"NOW": func(args []*TExpr, sh Sheet, opts EngineOptions) (Primitive, error) {
		t := opts.clockOrDefault().Now()
		Logger.Debug().Str("fn", "NOW").Time("value", t).Msg("volatile function evaluated")
		return DateToSerial(t), nil
	},
	"DATE": func(args []*TExpr, sh Sheet, opts EngineOptions) (Primitive, error) {
		if len(args) != 3 {
			return errValue, nil
		}
		vals, err := flattenArgs(args, sh, opts)
		if err != nil {
			return nil, err
		}
		y, ce, ok := decodeInt(vals[0])
		if !ok {
			return ce, nil
		}
		m, ce, ok := decodeInt(vals[1])
		if !ok {
			return ce, nil
		}
		d, ce, ok := decodeInt(vals[2])
		if !ok {
			return ce, nil
		}
		return DateToSerial(time.Date(int(y), time.Month(m), int(d), 0, 0, 0, 0, time.UTC)), nil
	},
	"IF": func(args []*TExpr, sh Sheet, opts EngineOptions) (Primitive, error) {
		if len(args) < 2 {
			return errValue, nil
		}
		cond, err := eval(args[0], sh, opts)
		if err != nil {
			return nil, err
		}
		if ce, isErr := asCellError(cond); isErr {
			return ce, nil
		}
		b, ce, ok := decodeBool(cond)
		if !ok {
			return ce, nil
		}
		if b {
			return eval(args[1], sh, opts)
		}
		if len(args) >= 3 {
			return eval(args[2], sh, opts)
		}
		return false, nil
	},
	"STDEV": func(args []*TExpr, sh Sheet, opts EngineOptions) (Primitive, error) {
		return stdev(args, sh, opts, false, false)
	},
	"STDEVP": func(args []*TExpr, sh Sheet, opts EngineOptions) (Primitive, error) {
		return stdev(args, sh, opts, true, opts.EmptyStdevpIsZero)
	},
	"VAR": func(args []*TExpr, sh Sheet, opts EngineOptions) (Primitive, error) {
		return variance(args, sh, opts, false, false)
	},
	"VARP": func(args []*TExpr, sh Sheet, opts EngineOptions) (Primitive, error) {
		return variance(args, sh, opts, true, opts.EmptyStdevpIsZero)
	},
	"SUMIF": sumif,
	"COUNTIF": countif,
	"AVERAGEIF": averageif,
	"MATCH": matchFn,
	"VLOOKUP": vlookup,
	"HLOOKUP": hlookup,
	"INDEX": indexFn,
}

var arrayFunctions = map[string]arrayFn{
	"TRANSPOSE": func(args []*TExpr, sh Sheet, opts EngineOptions) (ArrayResult, error) {
		if len(args) != 1 {
			return ArrayResult{}, nil
		}
		arr, err := evalArray(args[0], sh, opts)
		if err != nil {
			return ArrayResult{}, err
		}
		return arr.Transpose(), nil
	},
}

func firstError(vals []Primitive) (CellError, bool) {
	for _, v := range vals {
		if ce, ok := asCellError(v); ok {
			return ce, true
		}
	}
	return CellError{}, false
}

func minMax(args []*TExpr, sh Sheet, opts EngineOptions, max bool) (Primitive, error) {
	vals, err := flattenArgs(args, sh, opts)
	if err != nil {
		return nil, err
	}
	if ce, ok := firstError(vals); ok {
		return ce, nil
	}
	nums := numericOnly(vals)
	if len(nums) == 0 {
		return decimal.Zero, nil
	}
	best := nums[0]
	for _, d := range nums[1:] {
		if (max && d.GreaterThan(best)) || (!max && d.LessThan(best)) {
			best = d
		}
	}
	return best, nil
}

func stdev(args []*TExpr, sh Sheet, opts EngineOptions, population, emptyIsZero bool) (Primitive, error) {
	v, err := variance(args, sh, opts, population, emptyIsZero)
	if err != nil {
		return nil, err
	}
	if ce, ok := asCellError(v); ok {
		return ce, nil
	}
	d := v.(decimal.Decimal)
	f, _ := d.Float64()
	if f < 0 {
		return errNum, nil
	}
	return decimal.NewFromFloat(sqrtFloat(f)), nil
}

func sqrtFloat(f float64) float64 {
	if f == 0 {
		return 0
	}
	x := f
	for i := 0; i < 40; i++ {
		x = 0.5 * (x + f/x)
	}
	return x
}

func variance(args []*TExpr, sh Sheet, opts EngineOptions, population, emptyIsZero bool) (Primitive, error) {
	vals, err := flattenArgs(args, sh, opts)
	if err != nil {
		return nil, err
	}
	if ce, ok := firstError(vals); ok {
		return ce, nil
	}
	nums := numericOnly(vals)
	n := len(nums)
	if n == 0 || (!population && n < 2) {
		if emptyIsZero {
			return decimal.Zero, nil
		}
		return errDiv0, nil
	}
	sum := decimal.Zero
	for _, d := range nums {
		sum = sum.Add(d)
	}
	mean := sum.Div(decimal.NewFromInt(int64(n)))
	sq := decimal.Zero
	for _, d := range nums {
		diff := d.Sub(mean)
		sq = sq.Add(diff.Mul(diff))
	}
	denom := int64(n - 1)
	if population {
		denom = int64(n)
	}
	return sq.Div(decimal.NewFromInt(denom)), nil
}

func sumif(args []*TExpr, sh Sheet, opts EngineOptions) (Primitive, error) {
	if len(args) < 2 {
		return errValue, nil
	}
	rangeArr, critText, sumArr, err := criteriaArgs(args, sh, opts)
	if err != nil {
		return nil, err
	}
	crit, err := CompileCriterion(critText)
	if err != nil {
		return errValue, nil
	}
	sum := decimal.Zero
	for i, v := range rangeArr.Flatten() {
		if crit.Match(v) {
			target := v
			if sumArr != nil {
				target = sumArr.Flatten()[i]
			}
			if d, _, ok := decodeNumeric(target); ok {
				sum = sum.Add(d)
			}
		}
	}
	return sum, nil
}

func countif(args []*TExpr, sh Sheet, opts EngineOptions) (Primitive, error) {
	if len(args) < 2 {
		return errValue, nil
	}
	rangeArr, err := evalArray(args[0], sh, opts)
	if err != nil {
		return nil, err
	}
	critVal, err := eval(args[1], sh, opts)
	if err != nil {
		return nil, err
	}
	critText, _, _ := decodeString(critVal)
	crit, err := CompileCriterion(critText)
	if err != nil {
		return errValue, nil
	}
	n := 0
	for _, v := range rangeArr.Flatten() {
		if crit.Match(v) {
			n++
		}
	}
	return decimal.NewFromInt(int64(n)), nil
}

func averageif(args []*TExpr, sh Sheet, opts EngineOptions) (Primitive, error) {
	if len(args) < 2 {
		return errValue, nil
	}
	rangeArr, critText, sumArr, err := criteriaArgs(args, sh, opts)
	if err != nil {
		return nil, err
	}
	crit, err := CompileCriterion(critText)
	if err != nil {
		return errValue, nil
	}
	sum := decimal.Zero
	n := 0
	for i, v := range rangeArr.Flatten() {
		if crit.Match(v) {
			target := v
			if sumArr != nil {
				target = sumArr.Flatten()[i]
			}
			if d, _, ok := decodeNumeric(target); ok {
				sum = sum.Add(d)
				n++
			}
		}
	}
	if n == 0 {
		return errDiv0, nil
	}
	return sum.Div(decimal.NewFromInt(int64(n))), nil
}

func criteriaArgs(args []*TExpr, sh Sheet, opts EngineOptions) (rangeArr ArrayResult, critText string, sumArr *ArrayResult, err error) {
	rangeArr, err = evalArray(args[0], sh, opts)
	if err != nil {
		return
	}
	critVal, err := eval(args[1], sh, opts)
	if err != nil {
		return
	}
	critText, _, _ = decodeString(critVal)
	if len(args) >= 3 {
		sa, e := evalArray(args[2], sh, opts)
		if e != nil {
			err = e
			return
		}
		sumArr = &sa
	}
	return
}

func matchFn(args []*TExpr, sh Sheet, opts EngineOptions) (Primitive, error) {
	if len(args) < 2 {
		return errValue, nil
	}
	lookup, err := eval(args[0], sh, opts)
	if err != nil {
		return nil, err
	}
	arr, err := evalArray(args[1], sh, opts)
	if err != nil {
		return nil, err
	}
	matchType := int64(1)
	if len(args) >= 3 {
		mt, err := eval(args[2], sh, opts)
		if err != nil {
			return nil, err
		}
		matchType, _, _ = decodeInt(mt)
	}
	vals := arr.Flatten()
	switch matchType {
	case 0:
		for i, v := range vals {
			if valuesEqual(v, lookup) {
				return decimal.NewFromInt(int64(i + 1)), nil
			}
		}
		return errNA, nil
	case 1:
		best := -1
		for i, v := range vals {
			if compareLE(v, lookup) {
				best = i
			} else {
				break
			}
		}
		if best < 0 {
			return errNA, nil
		}
		return decimal.NewFromInt(int64(best + 1)), nil
	case -1:
		best := -1
		for i, v := range vals {
			if compareGE(v, lookup) {
				best = i
			} else {
				break
			}
		}
		if best < 0 {
			return errNA, nil
		}
		return decimal.NewFromInt(int64(best + 1)), nil
	}
	return errValue, nil
}

func valuesEqual(a, b Primitive) bool {
	r, _ := compareValues("=", a, b).(bool)
	return r
}
func compareLE(a, b Primitive) bool {
	r, _ := compareValues("<=", a, b).(bool)
	return r
}
func compareGE(a, b Primitive) bool {
	r, _ := compareValues(">=", a, b).(bool)
	return r
}

func vlookup(args []*TExpr, sh Sheet, opts EngineOptions) (Primitive, error) {
	if len(args) < 3 {
		return errValue, nil
	}
	lookup, err := eval(args[0], sh, opts)
	if err != nil {
		return nil, err
	}
	table, err := evalArray(args[1], sh, opts)
	if err != nil {
		return nil, err
	}
	colIdx, err := eval(args[2], sh, opts)
	if err != nil {
		return nil, err
	}
	col, _, ok := decodeInt(colIdx)
	if !ok || col < 1 || int(col) > table.Cols() {
		return errRef, nil
	}
	exact := len(args) >= 4
	var exactMatch bool
	if exact {
		ev, err := eval(args[3], sh, opts)
		if err != nil {
			return nil, err
		}
		exactMatch, _, _ = decodeBool(ev)
	}
	for r := 0; r < table.Rows(); r++ {
		v := table.At(r, 0)
		if exactMatch {
			if valuesEqual(v, lookup) {
				return table.At(r, int(col)-1), nil
			}
		} else {
			if r+1 < table.Rows() && compareLE(table.At(r+1, 0), lookup) {
				continue
			}
			if compareLE(v, lookup) {
				return table.At(r, int(col)-1), nil
			}
		}
	}
	return errNA, nil
}

func hlookup(args []*TExpr, sh Sheet, opts EngineOptions) (Primitive, error) {
	if len(args) < 3 {
		return errValue, nil
	}
	lookup, err := eval(args[0], sh, opts)
	if err != nil {
		return nil, err
	}
	table, err := evalArray(args[1], sh, opts)
	if err != nil {
		return nil, err
	}
	rowIdx, err := eval(args[2], sh, opts)
	if err != nil {
		return nil, err
	}
	row, _, ok := decodeInt(rowIdx)
	if !ok || row < 1 || int(row) > table.Rows() {
		return errRef, nil
	}
	for c := 0; c < table.Cols(); c++ {
		if valuesEqual(table.At(0, c), lookup) {
			return table.At(int(row)-1, c), nil
		}
	}
	return errNA, nil
}

func indexFn(args []*TExpr, sh Sheet, opts EngineOptions) (Primitive, error) {
	if len(args) < 2 {
		return errValue, nil
	}
	arr, err := evalArray(args[0], sh, opts)
	if err != nil {
		return nil, err
	}
	rowV, err := eval(args[1], sh, opts)
	if err != nil {
		return nil, err
	}
	row, _, ok := decodeInt(rowV)
	if !ok {
		return errValue, nil
	}
	col := int64(1)
	if len(args) >= 3 {
		cv, err := eval(args[2], sh, opts)
		if err != nil {
			return nil, err
		}
		col, _, ok = decodeInt(cv)
		if !ok {
			return errValue, nil
		}
	}
	if arr.Rows() == 1 && len(args) < 3 {
		// INDEX(range, n) on a single row indexes along that row
		if row < 1 || int(row) > arr.Cols() {
			return errRef, nil
		}
		return arr.At(0, int(row)-1), nil
	}
	if row < 1 || col < 1 || int(row) > arr.Rows() || int(col) > arr.Cols() {
		return errRef, nil
	}
	return arr.At(int(row)-1, int(col)-1), nil
}

// SUMPRODUCT multiplies corresponding elements of equally-shaped ranges
// and sums the products.
func sumproduct(args []*TExpr, sh Sheet, opts EngineOptions) (Primitive, error) {
	if len(args) == 0 {
		return errValue, nil
	}
	arrs := make([]ArrayResult, len(args))
	for i, a := range args {
		arr, err := evalArray(a, sh, opts)
		if err != nil {
			return nil, err
		}
		arrs[i] = arr
	}
	n := arrs[0].CellCount()
	sum := decimal.Zero
	for i := 0; i < n; i++ {
		prod := decimal.NewFromInt(1)
		for _, arr := range arrs {
			flat := arr.Flatten()
			if i >= len(flat) {
				continue
			}
			d, _, ok := decodeNumeric(flat[i])
			if !ok {
				d = decimal.Zero
			}
			prod = prod.Mul(d)
		}
		sum = sum.Add(prod)
	}
	return sum, nil
}

func init() {
	scalarFunctions["SUMPRODUCT"] = sumproduct
}
