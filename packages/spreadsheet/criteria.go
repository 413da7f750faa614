package main

import (
	"strings"

	"github.com/gobwas/glob"
	"github.com/shopspring/decimal"
)

// criteriaOp is the comparison a SUMIF/COUNTIF-style criterion performs
// once its operator prefix (if any) has been parsed off.
type criteriaOp int

const (
	criteriaEq criteriaOp = iota
	criteriaNe
	criteriaLt
	criteriaLe
	criteriaGt
	criteriaGe
)

// Criterion is a compiled SUMIF/COUNTIF/AVERAGEIF-style match predicate.
// Compiling once per call (rather than re-parsing the criteria string for
// every cell in the range) is the point: glob.Compile does real work, and
// a range can be thousands of cells.
type Criterion struct {
	op       criteriaOp
	asNumber decimal.Decimal
	isNumber bool
	pattern  glob.Glob // nil if the criterion is numeric-only
	raw      string
}

// CompileCriterion parses a criteria argument the way SUMIF/COUNTIF do:
// a bare value ("5", "apples") is an equality match; a leading comparison
// operator (">", "<=", "<>", ...) switches to that comparison against a
// number; "*"/"?" wildcards in a text criterion compile to a glob pattern
// ("~*"/"~?" escape a literal asterisk/question mark).
func CompileCriterion(raw string) (Criterion, error) {
	s := strings.TrimSpace(raw)
	op := criteriaEq
	switch {
	case strings.HasPrefix(s, "<>"):
		op, s = criteriaNe, s[2:]
	case strings.HasPrefix(s, ">="):
		op, s = criteriaGe, s[2:]
	case strings.HasPrefix(s, "<="):
		op, s = criteriaLe, s[2:]
	case strings.HasPrefix(s, ">"):
		op, s = criteriaGt, s[1:]
	case strings.HasPrefix(s, "<"):
		op, s = criteriaLt, s[1:]
	case strings.HasPrefix(s, "="):
		op, s = criteriaEq, s[1:]
	}

	c := Criterion{op: op, raw: s}
	if d, err := decimal.NewFromString(strings.TrimSpace(s)); err == nil {
		c.asNumber = d
		c.isNumber = true
		return c, nil
	}
	if op != criteriaEq && op != criteriaNe {
		// a comparison operator against non-numeric text has no meaning
		// beyond "never matches"; compile to a pattern that matches nothing.
		c.pattern = glob.MustCompile("\x00no-match\x00")
		return c, nil
	}
	g, err := compileUpperGlob(s)
	if err != nil {
		return Criterion{}, err
	}
	c.pattern = g
	return c, nil
}

// Match reports whether v satisfies the criterion.
func (c Criterion) Match(v Primitive) bool {
	if c.isNumber {
		d, _, ok := decodeNumeric(v)
		if !ok {
			return false
		}
		switch c.op {
		case criteriaEq:
			return d.Equal(c.asNumber)
		case criteriaNe:
			return !d.Equal(c.asNumber)
		case criteriaLt:
			return d.LessThan(c.asNumber)
		case criteriaLe:
			return d.LessThanOrEqual(c.asNumber)
		case criteriaGt:
			return d.GreaterThan(c.asNumber)
		case criteriaGe:
			return d.GreaterThanOrEqual(c.asNumber)
		}
		return false
	}

	text, _, ok := decodeString(v)
	if !ok {
		return c.op == criteriaNe
	}
	matched := c.pattern.Match(strings.ToUpper(text))
	if c.op == criteriaNe {
		return !matched
	}
	return matched
}

// compileUpperGlob is used instead of glob.Compile directly wherever a
// text criterion must match case-insensitively. It also turns the
// spreadsheet escapes "~*", "~?" and "~~" into glob escapes.
func compileUpperGlob(pattern string) (glob.Glob, error) {
	upper := strings.ToUpper(pattern)
	var sb strings.Builder
	for i := 0; i < len(upper); i++ {
		if upper[i] == '~' && i+1 < len(upper) && strings.IndexByte("*?~", upper[i+1]) >= 0 {
			i++
			sb.WriteByte('\\')
		}
		sb.WriteByte(upper[i])
	}
	return glob.Compile(sb.String())
}
