// internal/parser/parser.go
package parser

import (
	"fmt"
	"strconv"

	"henrylang/internal/errors"
	"henrylang/internal/lexer"
)

// Binding powers for infix operators, loosest first. The pipe binds
// loosest of all so `2 to n -> collect` pipes the whole range.
const (
	precNone = iota
	precPipe
	precOr
	precAnd
	precEquality
	precComparison
	precRange
	precTerm
	precFactor
)

var infixPrec = map[lexer.TokenType]int{
	lexer.TokenRightArrow: precPipe,
	lexer.TokenOr:         precOr,
	lexer.TokenAnd:        precAnd,
	lexer.TokenEqual:      precEquality,
	lexer.TokenNotEqual:   precEquality,
	lexer.TokenLess:       precComparison,
	lexer.TokenLessEq:     precComparison,
	lexer.TokenGreater:    precComparison,
	lexer.TokenGreaterEq:  precComparison,
	lexer.TokenTo:         precRange,
	lexer.TokenPlus:       precTerm,
	lexer.TokenMinus:      precTerm,
	lexer.TokenStar:       precFactor,
	lexer.TokenSlash:      precFactor,
}

// Parser builds the AST from a token stream. Parse errors are raised as
// panics internally and recovered at the entry point; the first error
// aborts the parse.
type Parser struct {
	tokens  []lexer.Token
	current int

	// lastName is the identifier of the := binding whose value is being
	// parsed. Lambdas pick it up for recursion and diagnostics, record
	// type definitions take it as their declared name.
	lastName string
}

// Parse turns tokens into a program. The program is a block whose value
// is its last expression.
func Parse(tokens []lexer.Token) (prog *Block, err error) {
	defer func() {
		if r := recover(); r != nil {
			if he, ok := r.(*errors.HenryError); ok {
				prog, err = nil, he
				return
			}
			panic(r)
		}
	}()

	p := &Parser{tokens: tokens}
	block := &Block{}
	block.Line = 1
	for !p.check(lexer.TokenEOF) {
		block.Exprs = append(block.Exprs, p.parseStatement())
	}
	if len(block.Exprs) == 0 {
		return nil, errors.NewParseError("Empty program", 1)
	}
	return block, nil
}

// parseStatement handles the one statement-position construct, the :=
// binding; everything else is an expression.
func (p *Parser) parseStatement() Expr {
	if p.check(lexer.TokenIdent) && p.checkNext(lexer.TokenAssign) {
		name := p.advance()
		p.advance() // :=

		let := &Let{Name: name.Lexeme}
		let.Line = name.Line

		p.lastName = name.Lexeme
		let.Value = p.parseExpression()
		p.lastName = ""
		return let
	}
	return p.parseExpression()
}

func (p *Parser) parseExpression() Expr {
	return p.parsePrecedence(precPipe)
}

func (p *Parser) parsePrecedence(min int) Expr {
	left := p.parseUnary()

	for {
		prec, ok := infixPrec[p.peek().Type]
		if !ok || prec < min {
			return left
		}
		op := p.advance()

		switch op.Type {
		case lexer.TokenRightArrow:
			// left-associative: x -> f -> g applies the stages in order
			pipe := &Pipe{Value: left, Fn: p.parsePrecedence(prec + 1)}
			pipe.Line = op.Line
			left = pipe
		case lexer.TokenTo:
			r := &Range{Low: left, High: p.parsePrecedence(prec + 1)}
			r.Line = op.Line
			left = r
		default:
			bin := &Binary{Left: left, Op: op.Type, Right: p.parsePrecedence(prec + 1)}
			bin.Line = op.Line
			left = bin
		}
	}
}

func (p *Parser) parseUnary() Expr {
	if p.check(lexer.TokenMinus) || p.check(lexer.TokenBang) {
		op := p.advance()
		u := &Unary{Op: op.Type, Operand: p.parseUnary()}
		u.Line = op.Line
		return u
	}
	return p.parsePostfix()
}

// parsePostfix parses a primary followed by any chain of calls, index
// expressions and field accesses.
func (p *Parser) parsePostfix() Expr {
	expr := p.parsePrimary()

	for {
		switch p.peek().Type {
		case lexer.TokenLParen:
			open := p.advance()
			call := &Call{Callee: expr, Args: p.parseArguments()}
			call.Line = open.Line
			expr = call
		case lexer.TokenLSquare:
			open := p.advance()
			idx := &Index{Object: expr, Key: p.parseExpression()}
			idx.Line = open.Line
			p.consume(lexer.TokenRSquare, "Expected ']' after index")
			expr = idx
		case lexer.TokenDot:
			dot := p.advance()
			name := p.consume(lexer.TokenIdent, "Expected field name after '.'")
			fa := &FieldAccess{Object: expr, Name: name.Lexeme}
			fa.Line = dot.Line
			expr = fa
		default:
			return expr
		}
	}
}

func (p *Parser) parseArguments() []Expr {
	var args []Expr
	if !p.check(lexer.TokenRParen) {
		for {
			args = append(args, p.parseExpression())
			if !p.match(lexer.TokenComma) {
				break
			}
		}
	}
	p.consume(lexer.TokenRParen, "Expected ')' after arguments")
	return args
}

func (p *Parser) parsePrimary() Expr {
	tok := p.advance()
	switch tok.Type {
	case lexer.TokenInt:
		v, err := strconv.ParseInt(tok.Lexeme, 10, 64)
		if err != nil {
			p.errorAt(tok, fmt.Sprintf("Integer literal out of range: %s", tok.Lexeme))
		}
		lit := &IntLit{Value: v}
		lit.Line = tok.Line
		return lit
	case lexer.TokenFloat:
		v, err := strconv.ParseFloat(tok.Lexeme, 64)
		if err != nil {
			p.errorAt(tok, fmt.Sprintf("Invalid float literal: %s", tok.Lexeme))
		}
		lit := &FloatLit{Value: v}
		lit.Line = tok.Line
		return lit
	case lexer.TokenString:
		lit := &StringLit{Value: tok.Lexeme}
		lit.Line = tok.Line
		return lit
	case lexer.TokenTrue, lexer.TokenFalse:
		lit := &BoolLit{Value: tok.Type == lexer.TokenTrue}
		lit.Line = tok.Line
		return lit
	case lexer.TokenIdent:
		id := &Ident{Name: tok.Lexeme}
		id.Line = tok.Line
		return id
	case lexer.TokenLParen:
		expr := p.parseExpression()
		p.consume(lexer.TokenRParen, "Expected ')' after expression")
		return expr
	case lexer.TokenLBrace:
		return p.parseBlock(tok)
	case lexer.TokenLSquare:
		return p.parseArray(tok)
	case lexer.TokenPipe:
		return p.parseLambda(tok)
	case lexer.TokenIf:
		return p.parseIf(tok)
	case lexer.TokenType_:
		return p.parseTypeDef(tok)
	default:
		p.errorAt(tok, fmt.Sprintf("Expected expression, found '%s'", tok.Lexeme))
		return nil
	}
}

// parseBlock assumes the opening brace is already consumed.
func (p *Parser) parseBlock(open lexer.Token) *Block {
	block := &Block{}
	block.Line = open.Line
	for !p.check(lexer.TokenRBrace) && !p.check(lexer.TokenEOF) {
		block.Exprs = append(block.Exprs, p.parseStatement())
	}
	p.consume(lexer.TokenRBrace, "Expected '}' after block")
	if len(block.Exprs) == 0 {
		p.errorAt(open, "Block must contain at least one expression")
	}
	return block
}

func (p *Parser) parseArray(open lexer.Token) Expr {
	arr := &ArrayLit{}
	arr.Line = open.Line
	if !p.check(lexer.TokenRSquare) {
		for {
			arr.Elems = append(arr.Elems, p.parseExpression())
			if !p.match(lexer.TokenComma) {
				break
			}
		}
	}
	p.consume(lexer.TokenRSquare, "Expected ']' after array elements")
	if len(arr.Elems) == 0 {
		// an empty literal has no element to infer from
		p.consume(lexer.TokenColon, "Empty array literal requires an element type, e.g. []: Int")
		arr.Ann = p.parseAnnotation()
	}
	return arr
}

// parseLambda assumes the opening pipe is already consumed. `||` opens a
// zero-parameter lambda.
func (p *Parser) parseLambda(open lexer.Token) Expr {
	fn := &Lambda{SelfName: p.lastName}
	fn.Line = open.Line
	p.lastName = ""

	if !p.check(lexer.TokenPipe) {
		for {
			name := p.consume(lexer.TokenIdent, "Expected parameter name")
			param := Param{Name: name.Lexeme}
			if p.match(lexer.TokenColon) {
				param.Ann = p.parseAnnotation()
			}
			fn.Params = append(fn.Params, param)
			if !p.match(lexer.TokenComma) {
				break
			}
		}
	}
	p.consume(lexer.TokenPipe, "Expected '|' after parameters")

	if p.match(lexer.TokenColon) {
		fn.RetAnn = p.parseAnnotation()
	}

	body := p.consume(lexer.TokenLBrace, "Expected '{' before lambda body")
	fn.Body = p.parseBlock(body)
	return fn
}

func (p *Parser) parseIf(kw lexer.Token) Expr {
	node := &If{}
	node.Line = kw.Line
	node.Cond = p.parseExpression()

	open := p.consume(lexer.TokenLBrace, "Expected '{' after if condition")
	node.Then = p.parseBlock(open)

	p.consume(lexer.TokenElse, "if expression requires an else branch")
	if p.check(lexer.TokenIf) {
		chained := p.advance()
		inner := p.parseIf(chained)
		node.Else = &Block{Exprs: []Expr{inner}}
		node.Else.Line = chained.Line
	} else {
		open = p.consume(lexer.TokenLBrace, "Expected '{' after else")
		node.Else = p.parseBlock(open)
	}
	return node
}

func (p *Parser) parseTypeDef(kw lexer.Token) Expr {
	if p.lastName == "" {
		p.errorAt(kw, "Record type definition must be bound to a name")
	}
	td := &TypeDef{Name: p.lastName}
	td.Line = kw.Line
	p.lastName = ""

	p.consume(lexer.TokenLBrace, "Expected '{' after 'type'")
	for {
		name := p.consume(lexer.TokenIdent, "Expected field name")
		p.consume(lexer.TokenColon, "Expected ':' after field name")
		td.Fields = append(td.Fields, Param{Name: name.Lexeme, Ann: p.parseAnnotation()})
		if !p.match(lexer.TokenComma) {
			break
		}
	}
	p.consume(lexer.TokenRBrace, "Expected '}' after record fields")
	return td
}

// parseAnnotation parses a source-level type: a name optionally applied
// to arguments, e.g. Int, Arr(Int), Func(Int, Int).
func (p *Parser) parseAnnotation() *TypeAnnotation {
	name := p.consume(lexer.TokenIdent, "Expected type name")
	ann := &TypeAnnotation{Name: name.Lexeme, Line: name.Line}
	if p.match(lexer.TokenLParen) {
		for {
			ann.Args = append(ann.Args, p.parseAnnotation())
			if !p.match(lexer.TokenComma) {
				break
			}
		}
		p.consume(lexer.TokenRParen, "Expected ')' after type arguments")
	}
	return ann
}

// Token stream helpers

func (p *Parser) peek() lexer.Token {
	return p.tokens[p.current]
}

func (p *Parser) checkNext(t lexer.TokenType) bool {
	if p.current+1 >= len(p.tokens) {
		return false
	}
	return p.tokens[p.current+1].Type == t
}

func (p *Parser) check(t lexer.TokenType) bool {
	return p.peek().Type == t
}

func (p *Parser) match(t lexer.TokenType) bool {
	if !p.check(t) {
		return false
	}
	p.current++
	return true
}

func (p *Parser) advance() lexer.Token {
	tok := p.peek()
	if tok.Type != lexer.TokenEOF {
		p.current++
	}
	return tok
}

func (p *Parser) consume(t lexer.TokenType, message string) lexer.Token {
	if p.check(t) {
		return p.advance()
	}
	p.errorAt(p.peek(), message)
	return lexer.Token{}
}

func (p *Parser) errorAt(tok lexer.Token, message string) {
	panic(errors.NewParseError(message, tok.Line))
}
