package main

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// logical, text, and math built-ins, plus the AVERAGEA/MEDIAN/MODE
// aggregates, ported from the legacy ASTNode-eval function library into the
// TExpr-based evaluator. The other aggregate and lookup functions live in
// functions_spec.go; this file rounds out the remaining built-ins so no
// function coverage is lost in the collapse to a single evaluation path.

func boolArgs(args []*TExpr, sh Sheet, opts EngineOptions) ([]bool, CellError, bool) {
	vals, err := flattenArgs(args, sh, opts)
	if err != nil {
		return nil, CellError{}, false
	}
	if ce, ok := firstError(vals); ok {
		return nil, ce, false
	}
	out := make([]bool, 0, len(vals))
	for _, v := range vals {
		if v == nil {
			continue
		}
		b, ce, ok := decodeBool(v)
		if !ok {
			return nil, ce, false
		}
		out = append(out, b)
	}
	return out, CellError{}, true
}

func init() {
	scalarFunctions["AND"] = func(args []*TExpr, sh Sheet, opts EngineOptions) (Primitive, error) {
		bs, ce, ok := boolArgs(args, sh, opts)
		if !ok {
			return ce, nil
		}
		for _, b := range bs {
			if !b {
				return false, nil
			}
		}
		return true, nil
	}
	scalarFunctions["OR"] = func(args []*TExpr, sh Sheet, opts EngineOptions) (Primitive, error) {
		bs, ce, ok := boolArgs(args, sh, opts)
		if !ok {
			return ce, nil
		}
		for _, b := range bs {
			if b {
				return true, nil
			}
		}
		return false, nil
	}
	scalarFunctions["NOT"] = func(args []*TExpr, sh Sheet, opts EngineOptions) (Primitive, error) {
		if len(args) != 1 {
			return errNA, nil
		}
		v, err := eval(args[0], sh, opts)
		if err != nil {
			return nil, err
		}
		b, ce, ok := decodeBool(v)
		if !ok {
			return ce, nil
		}
		return !b, nil
	}

	scalarFunctions["CONCATENATE"] = func(args []*TExpr, sh Sheet, opts EngineOptions) (Primitive, error) {
		var sb strings.Builder
		for _, a := range args {
			v, err := eval(a, sh, opts)
			if err != nil {
				return nil, err
			}
			if ce, isErr := asCellError(v); isErr {
				return ce, nil
			}
			s, ce, ok := decodeString(v)
			if !ok {
				return ce, nil
			}
			sb.WriteString(s)
		}
		return sb.String(), nil
	}
	scalarFunctions["LEN"] = textUnaryFn(func(s string) Primitive { return decimal.NewFromInt(int64(len(s))) })
	scalarFunctions["UPPER"] = textUnaryFn(func(s string) Primitive { return strings.ToUpper(s) })
	scalarFunctions["LOWER"] = textUnaryFn(func(s string) Primitive { return strings.ToLower(s) })
	scalarFunctions["TRIM"] = textUnaryFn(func(s string) Primitive { return strings.TrimSpace(s) })

	scalarFunctions["ABS"] = numUnaryFn(func(d decimal.Decimal) Primitive { return d.Abs() })
	scalarFunctions["SQRT"] = func(args []*TExpr, sh Sheet, opts EngineOptions) (Primitive, error) {
		if len(args) != 1 {
			return errNA, nil
		}
		v, err := eval(args[0], sh, opts)
		if err != nil {
			return nil, err
		}
		d, ce, ok := decodeNumeric(v)
		if !ok {
			return ce, nil
		}
		if d.IsNegative() {
			return errNum, nil
		}
		f, _ := d.Float64()
		return decimal.NewFromFloat(sqrtFloat(f)), nil
	}
	scalarFunctions["FLOOR"] = numUnaryFn(func(d decimal.Decimal) Primitive { return d.RoundFloor(0) })
	scalarFunctions["CEILING"] = numUnaryFn(func(d decimal.Decimal) Primitive { return d.RoundCeil(0) })
	scalarFunctions["PI"] = func(args []*TExpr, sh Sheet, opts EngineOptions) (Primitive, error) {
		return decimal.NewFromFloat(math.Pi), nil
	}
	scalarFunctions["RAND"] = func(args []*TExpr, sh Sheet, opts EngineOptions) (Primitive, error) {
		if len(args) != 0 {
			return errNA, nil
		}
		v := opts.randomOrDefault().Float64()
		Logger.Debug().Str("fn", "RAND").Float64("value", v).Msg("volatile function evaluated")
		return decimal.NewFromFloat(v), nil
	}

	scalarFunctions["ROUND"] = func(args []*TExpr, sh Sheet, opts EngineOptions) (Primitive, error) {
		if len(args) < 1 || len(args) > 2 {
			return errNA, nil
		}
		vals, err := flattenArgs(args, sh, opts)
		if err != nil {
			return nil, err
		}
		if ce, ok := firstError(vals); ok {
			return ce, nil
		}
		num, ce, ok := decodeNumeric(vals[0])
		if !ok {
			return ce, nil
		}
		places := int32(0)
		if len(vals) == 2 {
			p, ce, ok := decodeInt(vals[1])
			if !ok {
				return ce, nil
			}
			places = int32(p)
		}
		return num.Round(places), nil
	}
	scalarFunctions["POWER"] = func(args []*TExpr, sh Sheet, opts EngineOptions) (Primitive, error) {
		if len(args) != 2 {
			return errNA, nil
		}
		vals, err := flattenArgs(args, sh, opts)
		if err != nil {
			return nil, err
		}
		if ce, ok := firstError(vals); ok {
			return ce, nil
		}
		base, ce, ok := decodeNumeric(vals[0])
		if !ok {
			return ce, nil
		}
		exp, ce, ok := decodeNumeric(vals[1])
		if !ok {
			return ce, nil
		}
		bf, _ := base.Float64()
		ef, _ := exp.Float64()
		return decimal.NewFromFloat(math.Pow(bf, ef)), nil
	}
	scalarFunctions["MOD"] = func(args []*TExpr, sh Sheet, opts EngineOptions) (Primitive, error) {
		if len(args) != 2 {
			return errNA, nil
		}
		vals, err := flattenArgs(args, sh, opts)
		if err != nil {
			return nil, err
		}
		if ce, ok := firstError(vals); ok {
			return ce, nil
		}
		dividend, ce, ok := decodeNumeric(vals[0])
		if !ok {
			return ce, nil
		}
		divisor, ce, ok := decodeNumeric(vals[1])
		if !ok {
			return ce, nil
		}
		if divisor.IsZero() {
			return errDiv0, nil
		}
		return dividend.Mod(divisor), nil
	}

	scalarFunctions["AVERAGEA"] = func(args []*TExpr, sh Sheet, opts EngineOptions) (Primitive, error) {
		vals, err := flattenArgs(args, sh, opts)
		if err != nil {
			return nil, err
		}
		if ce, ok := firstError(vals); ok {
			return ce, nil
		}
		sum := decimal.Zero
		count := 0
		for _, v := range vals {
			if v == nil {
				continue
			}
			switch t := v.(type) {
			case string:
				count++
			case bool:
				if t {
					sum = sum.Add(decimal.NewFromInt(1))
				}
				count++
			default:
				if d, _, ok := decodeNumeric(v); ok {
					sum = sum.Add(d)
					count++
				}
			}
		}
		if count == 0 {
			return errRef, nil
		}
		return sum.Div(decimal.NewFromInt(int64(count))), nil
	}

	scalarFunctions["MEDIAN"] = func(args []*TExpr, sh Sheet, opts EngineOptions) (Primitive, error) {
		vals, err := flattenArgs(args, sh, opts)
		if err != nil {
			return nil, err
		}
		if ce, ok := firstError(vals); ok {
			return ce, nil
		}
		nums := numericOnly(vals)
		if len(nums) == 0 {
			return errNum, nil
		}
		sortDecimals(nums)
		mid := len(nums) / 2
		if len(nums)%2 == 0 {
			return nums[mid-1].Add(nums[mid]).Div(decimal.NewFromInt(2)), nil
		}
		return nums[mid], nil
	}

	scalarFunctions["MODE"] = func(args []*TExpr, sh Sheet, opts EngineOptions) (Primitive, error) {
		vals, err := flattenArgs(args, sh, opts)
		if err != nil {
			return nil, err
		}
		if ce, ok := firstError(vals); ok {
			return ce, nil
		}
		nums := numericOnly(vals)
		if len(nums) == 0 {
			return errNum, nil
		}
		freq := map[string]int{}
		order := map[string]decimal.Decimal{}
		for _, d := range nums {
			k := d.String()
			freq[k]++
			order[k] = d
		}
		maxFreq := 0
		for _, f := range freq {
			if f > maxFreq {
				maxFreq = f
			}
		}
		if maxFreq == 1 {
			return errNA, nil
		}
		var modes []decimal.Decimal
		for k, f := range freq {
			if f == maxFreq {
				modes = append(modes, order[k])
			}
		}
		sortDecimals(modes)
		return modes[0], nil
	}
}

// textUnaryFn builds a single-string-argument scalar function.
func textUnaryFn(f func(string) Primitive) scalarFn {
	return func(args []*TExpr, sh Sheet, opts EngineOptions) (Primitive, error) {
		if len(args) != 1 {
			return errNA, nil
		}
		v, err := eval(args[0], sh, opts)
		if err != nil {
			return nil, err
		}
		if ce, isErr := asCellError(v); isErr {
			return ce, nil
		}
		s, ce, ok := decodeString(v)
		if !ok {
			return ce, nil
		}
		return f(s), nil
	}
}

// numUnaryFn builds a single-numeric-argument scalar function.
func numUnaryFn(f func(decimal.Decimal) Primitive) scalarFn {
	return func(args []*TExpr, sh Sheet, opts EngineOptions) (Primitive, error) {
		if len(args) != 1 {
			return errNA, nil
		}
		v, err := eval(args[0], sh, opts)
		if err != nil {
			return nil, err
		}
		d, ce, ok := decodeNumeric(v)
		if !ok {
			return ce, nil
		}
		return f(d), nil
	}
}

func sortDecimals(d []decimal.Decimal) {
	for i := 1; i < len(d); i++ {
		for j := i; j > 0 && d[j].LessThan(d[j-1]); j-- {
			d[j], d[j-1] = d[j-1], d[j]
		}
	}
}
