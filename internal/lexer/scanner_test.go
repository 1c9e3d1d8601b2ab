package lexer

import (
	"testing"

	"henrylang/internal/errors"
)

func scan(t *testing.T, source string) []Token {
	t.Helper()
	tokens, err := NewScanner(source).ScanTokens()
	if err != nil {
		t.Fatalf("scan failed: %v\nsource: %s", err, source)
	}
	return tokens
}

func assertTypes(t *testing.T, tokens []Token, want ...TokenType) {
	t.Helper()
	want = append(want, TokenEOF)
	if len(tokens) != len(want) {
		t.Fatalf("got %d tokens %v, want %d", len(tokens), tokens, len(want))
	}
	for i, w := range want {
		if tokens[i].Type != w {
			t.Errorf("token %d = %s, want %s", i, tokens[i].Type, w)
		}
	}
}

func TestScanOperators(t *testing.T) {
	tokens := scan(t, "+ - * / = != < > <= >= := -> ! | : .")
	assertTypes(t, tokens,
		TokenPlus, TokenMinus, TokenStar, TokenSlash, TokenEqual, TokenNotEqual,
		TokenLess, TokenGreater, TokenLessEq, TokenGreaterEq, TokenAssign,
		TokenRightArrow, TokenBang, TokenPipe, TokenColon, TokenDot)
}

func TestScanKeywords(t *testing.T) {
	tokens := scan(t, "and or if else true false to type")
	assertTypes(t, tokens,
		TokenAnd, TokenOr, TokenIf, TokenElse, TokenTrue, TokenFalse,
		TokenTo, TokenType_)
}

func TestScanIdentifiers(t *testing.T) {
	tokens := scan(t, "foo _bar baz2 toX")
	assertTypes(t, tokens, TokenIdent, TokenIdent, TokenIdent, TokenIdent)
	if tokens[3].Lexeme != "toX" {
		t.Errorf("keyword prefix split the identifier: %q", tokens[3].Lexeme)
	}
}

func TestScanNumbers(t *testing.T) {
	tokens := scan(t, "0 42 3.14 10.0 5.")
	assertTypes(t, tokens,
		TokenInt, TokenInt, TokenFloat, TokenFloat, TokenInt, TokenDot)
	if tokens[2].Lexeme != "3.14" {
		t.Errorf("float lexeme = %q", tokens[2].Lexeme)
	}
}

func TestScanString(t *testing.T) {
	tokens := scan(t, `"hello world"`)
	assertTypes(t, tokens, TokenString)
	if tokens[0].Lexeme != "hello world" {
		t.Errorf("string lexeme = %q", tokens[0].Lexeme)
	}
}

func TestScanComments(t *testing.T) {
	tokens := scan(t, "1 ? this is ignored\n2")
	assertTypes(t, tokens, TokenInt, TokenInt)
	if tokens[1].Line != 2 {
		t.Errorf("second token on line %d, want 2", tokens[1].Line)
	}
}

func TestScanArrowAndAssign(t *testing.T) {
	tokens := scan(t, "a -> b - c := d : e")
	assertTypes(t, tokens,
		TokenIdent, TokenRightArrow, TokenIdent, TokenMinus, TokenIdent,
		TokenAssign, TokenIdent, TokenColon, TokenIdent)
}

func TestScanLineTracking(t *testing.T) {
	tokens := scan(t, "a\nb\n\nc")
	if tokens[0].Line != 1 || tokens[1].Line != 2 || tokens[2].Line != 4 {
		t.Errorf("lines = %d %d %d, want 1 2 4", tokens[0].Line, tokens[1].Line, tokens[2].Line)
	}
}

func TestUnterminatedString(t *testing.T) {
	_, err := NewScanner(`"oops`).ScanTokens()
	if err == nil {
		t.Fatal("expected an error")
	}
	he, ok := err.(*errors.HenryError)
	if !ok || he.Kind != errors.LexError {
		t.Errorf("expected a LexError, got %v", err)
	}
}

func TestUnexpectedCharacter(t *testing.T) {
	_, err := NewScanner("1 @ 2").ScanTokens()
	if err == nil {
		t.Fatal("expected an error")
	}
	he, ok := err.(*errors.HenryError)
	if !ok || he.Kind != errors.LexError {
		t.Errorf("expected a LexError, got %v", err)
	}
}
