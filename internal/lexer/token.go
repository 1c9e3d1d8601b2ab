package lexer

import "fmt"

type TokenType string

const (
	// Delimiters
	TokenLParen  TokenType = "("
	TokenRParen  TokenType = ")"
	TokenLBrace  TokenType = "{"
	TokenRBrace  TokenType = "}"
	TokenLSquare TokenType = "["
	TokenRSquare TokenType = "]"
	TokenPipe    TokenType = "|"
	TokenComma   TokenType = ","
	TokenDot     TokenType = "."
	TokenColon   TokenType = ":"

	// Operators
	TokenPlus       TokenType = "+"
	TokenMinus      TokenType = "-"
	TokenStar       TokenType = "*"
	TokenSlash      TokenType = "/"
	TokenEqual      TokenType = "="
	TokenNotEqual   TokenType = "!="
	TokenLess       TokenType = "<"
	TokenGreater    TokenType = ">"
	TokenLessEq     TokenType = "<="
	TokenGreaterEq  TokenType = ">="
	TokenAssign     TokenType = ":="
	TokenRightArrow TokenType = "->"
	TokenBang       TokenType = "!"

	// Keywords
	TokenAnd   TokenType = "AND"
	TokenOr    TokenType = "OR"
	TokenIf    TokenType = "IF"
	TokenElse  TokenType = "ELSE"
	TokenTrue  TokenType = "TRUE"
	TokenFalse TokenType = "FALSE"
	TokenTo    TokenType = "TO"
	TokenType_ TokenType = "TYPE"

	// Literals & identifiers
	TokenIdent  TokenType = "IDENT"
	TokenInt    TokenType = "INT"
	TokenFloat  TokenType = "FLOAT"
	TokenString TokenType = "STRING"

	TokenEOF TokenType = "EOF"
)

var keywords = map[string]TokenType{
	"and":   TokenAnd,
	"or":    TokenOr,
	"if":    TokenIf,
	"else":  TokenElse,
	"true":  TokenTrue,
	"false": TokenFalse,
	"to":    TokenTo,
	"type":  TokenType_,
}

type Token struct {
	Type   TokenType
	Lexeme string
	Line   int
}

func (t Token) String() string {
	return fmt.Sprintf("[%s] '%s'", t.Type, t.Lexeme)
}
