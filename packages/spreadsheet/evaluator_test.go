package main

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvalBinaryArithmetic(t *testing.T) {
	sh := mapSheet{}
	opts := DefaultEngineOptions()

	v, err := eval(binaryExpr("+", litExpr(2.0), litExpr(3.0)), sh, opts)
	require.NoError(t, err)
	require.IsType(t, decimal.Decimal{}, v)
	assert.True(t, decimal.NewFromInt(5).Equal(v.(decimal.Decimal)))

	v, err = eval(binaryExpr("/", litExpr(1.0), litExpr(0.0)), sh, opts)
	require.NoError(t, err)
	assert.Equal(t, errDiv0, v)
}

func TestEvalBinaryConcat(t *testing.T) {
	sh := mapSheet{}
	opts := DefaultEngineOptions()
	v, err := eval(binaryExpr("&", litExpr("foo"), litExpr("bar")), sh, opts)
	require.NoError(t, err)
	assert.Equal(t, "foobar", v)
}

func TestEvalRefAndRangeCollapse(t *testing.T) {
	a := ARef{Sheet: "Sheet1", Row: 0, Col: 0}
	sh := mapSheet{a: 42.0}
	opts := DefaultEngineOptions()

	v, err := eval(refExpr(a), sh, opts)
	require.NoError(t, err)
	assert.Equal(t, 42.0, v)

	rng := NewCellRange(a, ARef{Sheet: "Sheet1", Row: 2, Col: 0})
	v, err = eval(rangeExpr(rng), sh, opts)
	require.NoError(t, err)
	assert.Equal(t, 42.0, v, "bare range reference collapses to its top-left cell")
}

func TestCompareValuesTypeRanking(t *testing.T) {
	assert.Equal(t, true, compareValues("<", nil, 1.0))
	assert.Equal(t, true, compareValues("<", 1.0, "a"))
	assert.Equal(t, true, compareValues("<", "a", true))
	assert.Equal(t, true, compareValues("=", 1.0, 1.0))
}

func TestEvaluateArrayFormulaSpillsRange(t *testing.T) {
	sh := mapSheet{
		{Sheet: "Sheet1", Row: 0, Col: 0}: 1.0,
		{Sheet: "Sheet1", Row: 1, Col: 0}: 2.0,
		{Sheet: "Sheet1", Row: 2, Col: 0}: 3.0,
	}
	opts := DefaultEngineOptions()
	rng := NewCellRange(ARef{Sheet: "Sheet1", Row: 0, Col: 0}, ARef{Sheet: "Sheet1", Row: 2, Col: 0})

	arr, err := evaluateArrayFormula(rangeExpr(rng), sh, opts)
	require.NoError(t, err)
	assert.False(t, arr.IsScalar())
	assert.Equal(t, 3, arr.CellCount())
}

func TestEvaluateArrayFormulaScalarWrapsSingleCell(t *testing.T) {
	sh := mapSheet{}
	opts := DefaultEngineOptions()
	arr, err := evaluateArrayFormula(litExpr(7.0), sh, opts)
	require.NoError(t, err)
	assert.True(t, arr.IsScalar())
	assert.Equal(t, 7.0, arr.Scalar())
}

func TestEvaluateArrayFormulaRejectsOversizedSpill(t *testing.T) {
	sh := mapSheet{}
	opts := DefaultEngineOptions()
	opts.MaxArraySpillCells = 2
	rng := NewCellRange(ARef{Sheet: "Sheet1", Row: 0, Col: 0}, ARef{Sheet: "Sheet1", Row: 9, Col: 0})

	arr, err := evaluateArrayFormula(rangeExpr(rng), sh, opts)
	require.NoError(t, err)
	assert.Equal(t, errNum, arr.Scalar())
}
