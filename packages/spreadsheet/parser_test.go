package main

import "testing"

func createTestParser() *Parser {
	context := &ParserContext{CurrentSheet: "Sheet1"}
	return NewParser([]Token{}, context)
}

func parseFormula(formula string) bool {
	lexer := NewLexer(formula)
	tokens, lexErrors := lexer.Tokenize()

	if len(lexErrors) > 0 {
		return false
	}

	if len(tokens) == 0 {
		return false
	}

	parser := createTestParser()
	parser.tokens = tokens
	_, err := parser.Parse()
	return err == nil
}

func TestParserBasicFormulas(t *testing.T) {
	validFormulas := []string{
		"=1+2",
		"=A1",
		"=SUM(A1:A10)",
		"=Sheet2!A1",
		"=Sheet2!A1:B2",
		"=SUM(Sheet2!A1:A10)",
		"=Sheet2!A1 + Sheet3!B1",
		"=SUM(B2:A1)",
		"=SUM(A1:A1)",
		"=SUM(A1:Z1000)",
		`="Hello world"`,
		`="Test emoji"`,
		`=CONCATENATE("Hello ", "world")`,
		"=A:A",
		"=1:1",
		"=SUM(A:C)",
	}

	for _, formula := range validFormulas {
		t.Run(formula, func(t *testing.T) {
			if !parseFormula(formula) {
				t.Errorf("failed to parse valid formula: %s", formula)
			}
		})
	}
}

func TestParserInvalidFormulas(t *testing.T) {
	invalidFormulas := []string{
		"=",
		"=SUM(",
		"=A1:",
		`="hello`,
	}

	for _, formula := range invalidFormulas {
		t.Run(formula, func(t *testing.T) {
			if parseFormula(formula) {
				t.Errorf("expected formula to fail but it succeeded: %s", formula)
			}
		})
	}
}

func TestParserUnknownIdentifierYieldsNameError(t *testing.T) {
	context := &ParserContext{
		CurrentSheet: "Sheet1",
		ResolveNamedRange: func(name string) (ARange, bool) {
			return ARange{}, false
		},
	}
	expr, err := ParseFormula("=MyRange", context)
	if err != nil {
		t.Fatalf("expected a parsed tree carrying a #NAME? literal, got error: %v", err)
	}
	if expr.Kind != TExprLiteral {
		t.Fatalf("expected a literal node, got %v", expr.Kind)
	}
	ce, ok := expr.Lit.(CellError)
	if !ok || ce.Code != ErrorCodeName {
		t.Errorf("expected #NAME? literal, got %#v", expr.Lit)
	}
}

func TestParserResolvesNamedRangeAtParseTime(t *testing.T) {
	rng := ARange{Sheet: "Sheet1", StartRow: 0, StartCol: 0, EndRow: 0, EndCol: 0}
	context := &ParserContext{
		CurrentSheet: "Sheet1",
		ResolveNamedRange: func(name string) (ARange, bool) {
			if name == "Total" {
				return rng, true
			}
			return ARange{}, false
		},
	}
	expr, err := ParseFormula("=SUM(Total)", context)
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if expr.Kind != TExprCall || len(expr.Args) != 1 {
		t.Fatalf("expected a single-arg call, got %#v", expr)
	}
	arg := expr.Args[0]
	if arg.Kind != TExprRangeRef || arg.Range != rng {
		t.Errorf("expected named range to resolve to %#v, got %#v", rng, arg)
	}
}
