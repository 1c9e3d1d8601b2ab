// internal/lexer/scanner.go
package lexer

import (
	"fmt"
	"unicode"

	"henrylang/internal/errors"
)

// Scanner turns source text into tokens. Scanning stops at the first
// invalid input; an unterminated string or unexpected character is fatal
// to the whole compilation unit.
type Scanner struct {
	source  string
	tokens  []Token
	start   int
	current int
	line    int
}

func NewScanner(source string) *Scanner {
	return &Scanner{
		source: source,
		line:   1,
	}
}

// ScanTokens scans the whole source. The returned slice always ends with
// an EOF token when err is nil.
func (s *Scanner) ScanTokens() ([]Token, error) {
	for !s.isAtEnd() {
		s.skipWhitespaceAndComments()
		s.start = s.current
		if s.isAtEnd() {
			break
		}
		if err := s.scanToken(); err != nil {
			return nil, err
		}
	}
	s.tokens = append(s.tokens, Token{Type: TokenEOF, Lexeme: "", Line: s.line})
	return s.tokens, nil
}

func (s *Scanner) scanToken() error {
	c := s.advance()
	switch c {
	case '(':
		s.addToken(TokenLParen)
	case ')':
		s.addToken(TokenRParen)
	case '{':
		s.addToken(TokenLBrace)
	case '}':
		s.addToken(TokenRBrace)
	case '[':
		s.addToken(TokenLSquare)
	case ']':
		s.addToken(TokenRSquare)
	case '|':
		s.addToken(TokenPipe)
	case ',':
		s.addToken(TokenComma)
	case '.':
		s.addToken(TokenDot)
	case '+':
		s.addToken(TokenPlus)
	case '*':
		s.addToken(TokenStar)
	case '/':
		s.addToken(TokenSlash)
	case '=':
		s.addToken(TokenEqual)
	case '-':
		if s.match('>') {
			s.addToken(TokenRightArrow)
		} else {
			s.addToken(TokenMinus)
		}
	case ':':
		if s.match('=') {
			s.addToken(TokenAssign)
		} else {
			s.addToken(TokenColon)
		}
	case '!':
		if s.match('=') {
			s.addToken(TokenNotEqual)
		} else {
			s.addToken(TokenBang)
		}
	case '<':
		if s.match('=') {
			s.addToken(TokenLessEq)
		} else {
			s.addToken(TokenLess)
		}
	case '>':
		if s.match('=') {
			s.addToken(TokenGreaterEq)
		} else {
			s.addToken(TokenGreater)
		}
	case '"':
		return s.scanString()
	default:
		if isDigit(c) {
			s.scanNumber()
			return nil
		}
		if isAlpha(c) {
			s.scanIdentifier()
			return nil
		}
		return errors.NewLexError(
			fmt.Sprintf("Unexpected character '%c'", c), s.line)
	}
	return nil
}

func (s *Scanner) scanIdentifier() {
	for isAlphaNumeric(s.peek()) {
		s.advance()
	}
	text := s.source[s.start:s.current]
	if ttype, ok := keywords[text]; ok {
		s.addToken(ttype)
		return
	}
	s.addToken(TokenIdent)
}

func (s *Scanner) scanNumber() {
	for isDigit(s.peek()) {
		s.advance()
	}
	// a decimal point followed by a digit makes it a float
	if s.peek() == '.' && isDigit(s.peekNext()) {
		s.advance()
		for isDigit(s.peek()) {
			s.advance()
		}
		s.addToken(TokenFloat)
		return
	}
	s.addToken(TokenInt)
}

func (s *Scanner) scanString() error {
	for s.peek() != '"' && !s.isAtEnd() {
		if s.peek() == '\n' {
			s.line++
		}
		s.advance()
	}
	if s.isAtEnd() {
		return errors.NewLexError("Unterminated string", s.line)
	}
	s.advance() // closing quote
	value := s.source[s.start+1 : s.current-1]
	s.tokens = append(s.tokens, Token{Type: TokenString, Lexeme: value, Line: s.line})
	return nil
}

// skipWhitespaceAndComments also handles '?' line comments.
func (s *Scanner) skipWhitespaceAndComments() {
	for !s.isAtEnd() {
		switch c := s.peek(); {
		case c == '\n':
			s.line++
			s.advance()
		case c == '?':
			for !s.isAtEnd() && s.peek() != '\n' {
				s.advance()
			}
		case unicode.IsSpace(rune(c)):
			s.advance()
		default:
			return
		}
	}
}

func (s *Scanner) addToken(t TokenType) {
	text := s.source[s.start:s.current]
	s.tokens = append(s.tokens, Token{Type: t, Lexeme: text, Line: s.line})
}

func (s *Scanner) match(expected byte) bool {
	if s.isAtEnd() || s.source[s.current] != expected {
		return false
	}
	s.current++
	return true
}

func (s *Scanner) advance() byte {
	s.current++
	return s.source[s.current-1]
}

func (s *Scanner) peek() byte {
	if s.isAtEnd() {
		return '\000'
	}
	return s.source[s.current]
}

func (s *Scanner) peekNext() byte {
	if s.current+1 >= len(s.source) {
		return '\000'
	}
	return s.source[s.current+1]
}

func (s *Scanner) isAtEnd() bool {
	return s.current >= len(s.source)
}

func isAlpha(c byte) bool {
	return unicode.IsLetter(rune(c)) || c == '_'
}

func isAlphaNumeric(c byte) bool {
	return isAlpha(c) || isDigit(c)
}

func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}
