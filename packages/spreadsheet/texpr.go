package main

import (
	"fmt"
	"strings"
)

// TExprKind discriminates the closed set of TExpr variants. TExpr itself
// replaces the teacher's any-typed ASTNode tree for the pure-core
// evaluator: every node exposes its operands as concrete fields instead of
// interface dispatch, so tree walks (collectRanges, transformRanges) don't
// need a type switch per visitor.
type TExprKind uint8

const (
	TExprLiteral TExprKind = iota
	TExprRef
	TExprRangeRef
	TExprUnary
	TExprBinary
	TExprCall
	TExprDateCoerce // never produced by ParseFormula; built only via dateCoerceExpr
)

// TExpr is an immutable formula AST node in the pure core. Only the fields
// relevant to Kind are populated; the rest are zero values.
type TExpr struct {
	Kind TExprKind

	// TExprLiteral
	Lit Primitive

	// TExprRef
	Ref ARef

	// TExprRangeRef
	Range ARange

	// TExprUnary / TExprDateCoerce
	Op      string
	Operand *TExpr

	// TExprBinary
	Left  *TExpr
	Right *TExpr

	// TExprCall
	Func string
	Args []*TExpr
}

func litExpr(p Primitive) *TExpr           { return &TExpr{Kind: TExprLiteral, Lit: p} }
func refExpr(r ARef) *TExpr                { return &TExpr{Kind: TExprRef, Ref: r} }
func rangeExpr(r ARange) *TExpr            { return &TExpr{Kind: TExprRangeRef, Range: r} }
func unaryExpr(op string, x *TExpr) *TExpr { return &TExpr{Kind: TExprUnary, Op: op, Operand: x} }
func binaryExpr(op string, l, r *TExpr) *TExpr {
	return &TExpr{Kind: TExprBinary, Op: op, Left: l, Right: r}
}
func callExpr(name string, args []*TExpr) *TExpr {
	return &TExpr{Kind: TExprCall, Func: name, Args: args}
}
func dateCoerceExpr(x *TExpr) *TExpr { return &TExpr{Kind: TExprDateCoerce, Operand: x} }

// collectRanges walks e and returns every ARef and ARange it touches,
// in left-to-right encounter order, duplicates included. The dependency
// graph builder uses this to find a cell's precedents.
func collectRanges(e *TExpr) (refs []ARef, ranges []ARange) {
	var walk func(n *TExpr)
	walk = func(n *TExpr) {
		if n == nil {
			return
		}
		switch n.Kind {
		case TExprRef:
			refs = append(refs, n.Ref)
		case TExprRangeRef:
			ranges = append(ranges, n.Range)
		case TExprUnary, TExprDateCoerce:
			walk(n.Operand)
		case TExprBinary:
			walk(n.Left)
			walk(n.Right)
		case TExprCall:
			for _, a := range n.Args {
				walk(a)
			}
		}
	}
	walk(e)
	return refs, ranges
}

// transformRanges returns a copy of e with every ARef passed through f and
// every ARange passed through fr; e itself is not modified. Nothing in the
// package outside its tests calls it.
func transformRanges(e *TExpr, f func(ARef) ARef, fr func(ARange) ARange) *TExpr {
	if e == nil {
		return nil
	}
	switch e.Kind {
	case TExprLiteral:
		return litExpr(e.Lit)
	case TExprRef:
		return refExpr(f(e.Ref))
	case TExprRangeRef:
		return rangeExpr(fr(e.Range))
	case TExprUnary:
		return unaryExpr(e.Op, transformRanges(e.Operand, f, fr))
	case TExprDateCoerce:
		return dateCoerceExpr(transformRanges(e.Operand, f, fr))
	case TExprBinary:
		return binaryExpr(e.Op, transformRanges(e.Left, f, fr), transformRanges(e.Right, f, fr))
	case TExprCall:
		args := make([]*TExpr, len(e.Args))
		for i, a := range e.Args {
			args[i] = transformRanges(a, f, fr)
		}
		return callExpr(e.Func, args)
	}
	return e
}

// Print renders e back to formula text. parse(print(e)) must reproduce an
// equivalent tree (the canonical-printer round-trip property) modulo
// whitespace and redundant parentheses.
func (e *TExpr) Print() string {
	if e == nil {
		return ""
	}
	switch e.Kind {
	case TExprLiteral:
		return printLiteral(e.Lit)
	case TExprRef:
		return e.Ref.ToA1()
	case TExprRangeRef:
		return e.Range.ToA1()
	case TExprUnary:
		if e.Op == "%" {
			return e.Operand.Print() + "%"
		}
		return e.Op + e.Operand.Print()
	case TExprDateCoerce:
		return e.Operand.Print()
	case TExprBinary:
		return fmt.Sprintf("(%s%s%s)", e.Left.Print(), e.Op, e.Right.Print())
	case TExprCall:
		parts := make([]string, len(e.Args))
		for i, a := range e.Args {
			parts[i] = a.Print()
		}
		return fmt.Sprintf("%s(%s)", e.Func, strings.Join(parts, ","))
	}
	return ""
}

func printLiteral(p Primitive) string {
	switch v := p.(type) {
	case string:
		return "\"" + strings.ReplaceAll(v, "\"", "\"\"") + "\""
	case bool:
		if v {
			return "TRUE"
		}
		return "FALSE"
	case nil:
		return ""
	default:
		s, _, ok := decodeString(p)
		if ok {
			return s
		}
		return fmt.Sprint(v)
	}
}
