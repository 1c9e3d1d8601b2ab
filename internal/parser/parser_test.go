package parser

import (
	"testing"

	"henrylang/internal/errors"
	"henrylang/internal/lexer"
)

func parseSource(t *testing.T, source string) *Block {
	t.Helper()
	tokens, err := lexer.NewScanner(source).ScanTokens()
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	prog, err := Parse(tokens)
	if err != nil {
		t.Fatalf("parse failed: %v\nsource:\n%s", err, source)
	}
	return prog
}

func parseError(t *testing.T, source string) *errors.HenryError {
	t.Helper()
	tokens, err := lexer.NewScanner(source).ScanTokens()
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	_, err = Parse(tokens)
	if err == nil {
		t.Fatalf("expected a parse error\nsource:\n%s", source)
	}
	he, ok := err.(*errors.HenryError)
	if !ok || he.Kind != errors.ParseError {
		t.Fatalf("expected a ParseError, got %v", err)
	}
	return he
}

func TestParseBinding(t *testing.T) {
	prog := parseSource(t, "x := 42")
	let, ok := prog.Exprs[0].(*Let)
	if !ok {
		t.Fatalf("expected *Let, got %T", prog.Exprs[0])
	}
	if let.Name != "x" {
		t.Errorf("name = %q", let.Name)
	}
	lit, ok := let.Value.(*IntLit)
	if !ok || lit.Value != 42 {
		t.Errorf("value = %#v", let.Value)
	}
}

func TestParsePrecedence(t *testing.T) {
	prog := parseSource(t, "1 + 2 * 3")
	add, ok := prog.Exprs[0].(*Binary)
	if !ok || add.Op != lexer.TokenPlus {
		t.Fatalf("top node = %#v", prog.Exprs[0])
	}
	mul, ok := add.Right.(*Binary)
	if !ok || mul.Op != lexer.TokenStar {
		t.Fatalf("right of + = %#v", add.Right)
	}
}

func TestParseComparisonOverRange(t *testing.T) {
	// `to` binds tighter than comparison: a < b to c is a parse of
	// a < (iterator), which the resolver rejects; the shape matters here
	prog := parseSource(t, "1 to n - 1")
	r, ok := prog.Exprs[0].(*Range)
	if !ok {
		t.Fatalf("top node = %#v", prog.Exprs[0])
	}
	if _, ok := r.High.(*Binary); !ok {
		t.Errorf("high bound should be the subtraction, got %#v", r.High)
	}
}

func TestParsePipe(t *testing.T) {
	prog := parseSource(t, "0 to 10 -> sum")
	pipe, ok := prog.Exprs[0].(*Pipe)
	if !ok {
		t.Fatalf("top node = %#v", prog.Exprs[0])
	}
	if _, ok := pipe.Value.(*Range); !ok {
		t.Errorf("pipe value should be the range, got %#v", pipe.Value)
	}
	if id, ok := pipe.Fn.(*Ident); !ok || id.Name != "sum" {
		t.Errorf("pipe fn = %#v", pipe.Fn)
	}
}

func TestParseChainedPipe(t *testing.T) {
	prog := parseSource(t, "1 -> f -> g")
	outer, ok := prog.Exprs[0].(*Pipe)
	if !ok {
		t.Fatalf("top node = %#v", prog.Exprs[0])
	}
	if id, ok := outer.Fn.(*Ident); !ok || id.Name != "g" {
		t.Fatalf("last stage = %#v, want g", outer.Fn)
	}
	inner, ok := outer.Value.(*Pipe)
	if !ok {
		t.Fatalf("value of outer pipe = %#v, want the inner pipe", outer.Value)
	}
	if id, ok := inner.Fn.(*Ident); !ok || id.Name != "f" {
		t.Errorf("first stage = %#v, want f", inner.Fn)
	}
}

func TestParseLambda(t *testing.T) {
	prog := parseSource(t, "f := |a: Int, b: Int|: Int { a + b }")
	let := prog.Exprs[0].(*Let)
	fn, ok := let.Value.(*Lambda)
	if !ok {
		t.Fatalf("value = %#v", let.Value)
	}
	if fn.SelfName != "f" {
		t.Errorf("SelfName = %q", fn.SelfName)
	}
	if len(fn.Params) != 2 || fn.Params[0].Name != "a" || fn.Params[1].Ann.Name != "Int" {
		t.Errorf("params = %#v", fn.Params)
	}
	if fn.RetAnn == nil || fn.RetAnn.Name != "Int" {
		t.Errorf("return annotation = %#v", fn.RetAnn)
	}
}

func TestParseZeroParamLambda(t *testing.T) {
	prog := parseSource(t, "|| { 1 }")
	fn, ok := prog.Exprs[0].(*Lambda)
	if !ok || len(fn.Params) != 0 {
		t.Fatalf("node = %#v", prog.Exprs[0])
	}
}

func TestParseFuncAnnotation(t *testing.T) {
	prog := parseSource(t, "f := |g: Func(Int, Int)|: Int { g(1) }")
	fn := prog.Exprs[0].(*Let).Value.(*Lambda)
	ann := fn.Params[0].Ann
	if ann.Name != "Func" || len(ann.Args) != 2 {
		t.Errorf("annotation = %#v", ann)
	}
}

func TestParsePostfixChain(t *testing.T) {
	prog := parseSource(t, "f(1)[2].x")
	fa, ok := prog.Exprs[0].(*FieldAccess)
	if !ok || fa.Name != "x" {
		t.Fatalf("top node = %#v", prog.Exprs[0])
	}
	idx, ok := fa.Object.(*Index)
	if !ok {
		t.Fatalf("object = %#v", fa.Object)
	}
	if _, ok := idx.Object.(*Call); !ok {
		t.Errorf("index object = %#v", idx.Object)
	}
}

func TestParseTypeDef(t *testing.T) {
	prog := parseSource(t, "Point := type { x: Int, y: Int }")
	td, ok := prog.Exprs[0].(*Let).Value.(*TypeDef)
	if !ok {
		t.Fatalf("value = %#v", prog.Exprs[0].(*Let).Value)
	}
	if td.Name != "Point" || len(td.Fields) != 2 {
		t.Errorf("typedef = %#v", td)
	}
}

func TestParseEmptyArrayAnnotation(t *testing.T) {
	prog := parseSource(t, "[]: Int")
	arr, ok := prog.Exprs[0].(*ArrayLit)
	if !ok || arr.Ann == nil || arr.Ann.Name != "Int" {
		t.Fatalf("node = %#v", prog.Exprs[0])
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
	}{
		{"missing else", "if true { 1 }"},
		{"empty block", "f := || { }"},
		{"empty program", ""},
		{"unclosed paren", "(1 + 2"},
		{"unnamed typedef", "type { x: Int }"},
		{"empty array without annotation", "[]"},
		{"bad expression", "x := *"},
		{"missing field name", "p."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parseError(t, tt.source)
		})
	}
}

func TestParseComments(t *testing.T) {
	prog := parseSource(t, `
? leading comment
x := 1 ? trailing comment
x
`)
	if len(prog.Exprs) != 2 {
		t.Errorf("got %d statements, want 2", len(prog.Exprs))
	}
}

func TestLineNumbers(t *testing.T) {
	prog := parseSource(t, "1\n2\n3")
	if got := prog.Exprs[2].Pos(); got != 3 {
		t.Errorf("third statement line = %d, want 3", got)
	}
}
