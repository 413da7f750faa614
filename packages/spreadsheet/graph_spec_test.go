package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ref(sheet string, row, col uint32) ARef {
	return ARef{Sheet: sheet, Row: row, Col: col}
}

func TestSpecGraphTopologicalSortLinearChain(t *testing.T) {
	a, b, c := ref("Sheet1", 0, 0), ref("Sheet1", 0, 1), ref("Sheet1", 0, 2)
	formulas := map[ARef]*TExpr{
		c: refExpr(b),
		b: refExpr(a),
		a: litExpr(1.0),
	}
	g := fromSheet(formulas, func(ARange) []ARef { return nil })
	assert.Empty(t, g.detectCycles())

	order, err := g.topologicalSort()
	require.NoError(t, err)
	assert.Equal(t, []ARef{a, b, c}, order)
}

func TestSpecGraphDetectCyclesDirect(t *testing.T) {
	a, b := ref("Sheet1", 0, 0), ref("Sheet1", 0, 1)
	formulas := map[ARef]*TExpr{
		a: refExpr(b),
		b: refExpr(a),
	}
	g := fromSheet(formulas, func(ARange) []ARef { return nil })
	cycles := g.detectCycles()
	require.Len(t, cycles, 1)
	assert.ElementsMatch(t, []ARef{a, b}, cycles[0])

	_, err := g.topologicalSort()
	assert.Error(t, err)
}

func TestSpecGraphDetectCyclesSelfLoop(t *testing.T) {
	a := ref("Sheet1", 0, 0)
	formulas := map[ARef]*TExpr{a: refExpr(a)}
	g := fromSheet(formulas, func(ARange) []ARef { return nil })
	cycles := g.detectCycles()
	require.Len(t, cycles, 1)
	assert.Equal(t, []ARef{a}, cycles[0])
}

func TestSpecGraphTopologicalSortTieBreak(t *testing.T) {
	// three independent cells with no precedents: order must be deterministic,
	// ascending by (sheet, row, col).
	a, b, c := ref("Sheet1", 0, 2), ref("Sheet1", 0, 0), ref("Sheet1", 0, 1)
	formulas := map[ARef]*TExpr{
		a: litExpr(1.0),
		b: litExpr(2.0),
		c: litExpr(3.0),
	}
	g := fromSheet(formulas, func(ARange) []ARef { return nil })
	order, err := g.topologicalSort()
	require.NoError(t, err)
	assert.Equal(t, []ARef{b, c, a}, order)
}

func TestSpecGraphPrecedentsAndDependents(t *testing.T) {
	a, b := ref("Sheet1", 0, 0), ref("Sheet1", 0, 1)
	formulas := map[ARef]*TExpr{b: refExpr(a)}
	g := fromSheet(formulas, func(ARange) []ARef { return nil })
	assert.Equal(t, []ARef{a}, g.precedents(b))
	assert.Equal(t, []ARef{b}, g.dependents(a))
}
