package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileCriterionEquality(t *testing.T) {
	c, err := CompileCriterion("5")
	require.NoError(t, err)
	assert.True(t, c.Match(5.0))
	assert.False(t, c.Match(6.0))
}

func TestCompileCriterionComparison(t *testing.T) {
	c, err := CompileCriterion(">=10")
	require.NoError(t, err)
	assert.True(t, c.Match(10.0))
	assert.True(t, c.Match(11.0))
	assert.False(t, c.Match(9.0))

	c, err = CompileCriterion("<>3")
	require.NoError(t, err)
	assert.True(t, c.Match(4.0))
	assert.False(t, c.Match(3.0))
}

func TestCompileCriterionWildcard(t *testing.T) {
	c, err := CompileCriterion("app*")
	require.NoError(t, err)
	assert.True(t, c.Match("apple"))
	assert.True(t, c.Match("APPLESAUCE"))
	assert.False(t, c.Match("banana"))
}

func TestCompileCriterionTextEquality(t *testing.T) {
	c, err := CompileCriterion("apples")
	require.NoError(t, err)
	assert.True(t, c.Match("Apples"), "text criteria match case-insensitively")
	assert.False(t, c.Match("oranges"))
}
