package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestARefToA1(t *testing.T) {
	cases := []struct {
		ref  ARef
		want string
	}{
		{ARef{Sheet: "", Row: 0, Col: 0}, "A1"},
		{ARef{Sheet: "", Row: 9, Col: 26}, "AA10"},
		{ARef{Sheet: "Sheet1", Row: 0, Col: 1}, "Sheet1!B1"},
		{ARef{Sheet: "My Sheet", Row: 0, Col: 0}, "'My Sheet'!A1"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, c.ref.ToA1())
	}
}

func TestParseARef(t *testing.T) {
	ref, err := ParseARef("B2", "Sheet1")
	require.NoError(t, err)
	assert.Equal(t, ARef{Sheet: "Sheet1", Row: 1, Col: 1}, ref)

	ref, err = ParseARef("'My Sheet'!C3", "Sheet1")
	require.NoError(t, err)
	assert.Equal(t, ARef{Sheet: "My Sheet", Row: 2, Col: 2}, ref)

	_, err = ParseARef("1A", "Sheet1")
	assert.Error(t, err)
}

func TestColumnLetterRoundTrip(t *testing.T) {
	for _, col := range []uint32{0, 1, 25, 26, 27, 701, 702} {
		letters := colToLetters(col)
		back, err := lettersToCol(letters)
		require.NoError(t, err)
		assert.Equal(t, col, back)
	}
}

func TestARangeToA1ExpandsFullColumn(t *testing.T) {
	rng := FullColumnRange("Sheet1", 0, 0)
	assert.Equal(t, "Sheet1!A1:A1048576", rng.ToA1())
	assert.Equal(t, "Sheet1!A:A", rng.ToCompactA1())
}

func TestARangeToA1ExpandsFullRow(t *testing.T) {
	rng := FullRowRange("Sheet1", 0, 0)
	assert.Equal(t, "Sheet1!A1:XFD1", rng.ToA1())
	assert.Equal(t, "Sheet1!1:1", rng.ToCompactA1())
}

func TestParseARange(t *testing.T) {
	rng, err := ParseARange("A1:B2", "Sheet1")
	require.NoError(t, err)
	assert.Equal(t, ARange{Sheet: "Sheet1", StartRow: 0, StartCol: 0, EndRow: 1, EndCol: 1}, rng)

	rng, err = ParseARange("A:A", "Sheet1")
	require.NoError(t, err)
	assert.True(t, rng.FullCol)
	assert.Equal(t, uint32(0), rng.StartCol)

	rng, err = ParseARange("1:1", "Sheet1")
	require.NoError(t, err)
	assert.True(t, rng.FullRow)
	assert.Equal(t, uint32(0), rng.StartRow)

	rng, err = ParseARange("Sheet2!C3", "Sheet1")
	require.NoError(t, err)
	assert.Equal(t, ARange{Sheet: "Sheet2", StartRow: 2, StartCol: 2, EndRow: 2, EndCol: 2}, rng)

	_, err = ParseARange("1A:2B", "Sheet1")
	assert.Error(t, err)
}

func TestARangeContains(t *testing.T) {
	rng := NewCellRange(ARef{Sheet: "Sheet1", Row: 1, Col: 1}, ARef{Sheet: "Sheet1", Row: 3, Col: 3})
	assert.True(t, rng.Contains(ARef{Sheet: "Sheet1", Row: 2, Col: 2}))
	assert.False(t, rng.Contains(ARef{Sheet: "Sheet1", Row: 0, Col: 2}))
	assert.False(t, rng.Contains(ARef{Sheet: "Sheet2", Row: 2, Col: 2}))
	assert.Equal(t, 3, rng.Rows())
	assert.Equal(t, 3, rng.Cols())
}
