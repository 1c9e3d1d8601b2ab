// internal/compiler/compiler.go
//
// Lowers the resolved AST to bytecode. The resolver has already typed
// every node and assigned every slot, so lowering is a single mechanical
// walk; any inconsistency found here is an internal error.
//
// The resolver numbers locals logically (params first, then each live :=
// in declaration order). At runtime a local's frame slot also depends on
// how many temporaries sit on the stack when its block runs, so the
// compiler simulates the stack depth and maps logical indices to
// absolute frame slots.
package compiler

import (
	"fmt"

	"henrylang/internal/bytecode"
	"henrylang/internal/errors"
	"henrylang/internal/lexer"
	"henrylang/internal/parser"
	"henrylang/internal/resolver"
	"henrylang/internal/types"
	"henrylang/internal/vm"
)

// Compile runs the whole front end on one source unit.
func Compile(source string) (*vm.Program, error) {
	return NewSession().Compile(source)
}

// Session keeps resolver state alive between compilations so a REPL can
// build on earlier bindings.
type Session struct {
	res *resolver.Resolver
}

func NewSession() *Session {
	return &Session{res: resolver.New()}
}

func (s *Session) Compile(source string) (prog *vm.Program, err error) {
	tokens, err := lexer.NewScanner(source).ScanTokens()
	if err != nil {
		return nil, err
	}
	ast, err := parser.Parse(tokens)
	if err != nil {
		return nil, err
	}
	info, err := s.res.Resolve(ast)
	if err != nil {
		return nil, err
	}

	defer func() {
		if r := recover(); r != nil {
			if he, ok := r.(*errors.HenryError); ok {
				prog, err = nil, he
				return
			}
			panic(r)
		}
	}()
	return lower(ast, info), nil
}

// Globals lists the session's visible bindings, builtins included.
func (s *Session) Globals() []resolver.GlobalInfo {
	return s.res.Globals()
}

func lower(ast *parser.Block, info *resolver.Info) *vm.Program {
	c := &compiler{chunk: bytecode.NewChunk()}
	for i, e := range ast.Exprs {
		last := i == len(ast.Exprs)-1
		if let, ok := e.(*parser.Let); ok {
			c.compileExpr(let.Value)
			c.emitU16(bytecode.OpDefineGlobal, uint16(let.Slot.Index), let.Pos())
		} else {
			c.compileExpr(e)
		}
		if !last {
			c.emitOp(bytecode.OpPop, e.Pos())
			c.depth--
		}
	}
	c.emitOp(bytecode.OpReturn, ast.Pos())

	natives := make([]vm.NativeBinding, len(info.Natives))
	for i, n := range info.Natives {
		natives[i] = vm.NativeBinding{Slot: n.Slot, Impl: n.Impl}
	}
	return &vm.Program{
		Main:       &vm.Function{Name: "main", Arity: 0, Chunk: c.chunk},
		NumGlobals: info.NumGlobals,
		Natives:    natives,
	}
}

type compiler struct {
	chunk *bytecode.Chunk

	// depth is the operand stack height relative to the frame base;
	// slots maps the resolver's logical local indices to frame slots
	depth int
	slots []int
}

// compileExpr emits code leaving exactly one value on the stack.
func (c *compiler) compileExpr(e parser.Expr) {
	pre := c.depth
	switch e := e.(type) {
	case *parser.IntLit:
		c.emitConstant(e.Value, e.Pos())
	case *parser.FloatLit:
		c.emitConstant(e.Value, e.Pos())
	case *parser.StringLit:
		c.emitConstant(e.Value, e.Pos())
	case *parser.BoolLit:
		if e.Value {
			c.emitOp(bytecode.OpTrue, e.Pos())
		} else {
			c.emitOp(bytecode.OpFalse, e.Pos())
		}

	case *parser.Ident:
		c.compileIdent(e)

	case *parser.Unary:
		c.compileExpr(e.Operand)
		switch {
		case e.Op == lexer.TokenBang:
			c.emitOp(bytecode.OpNot, e.Pos())
		case e.Operand.TypeOf().Kind == types.KindInt:
			c.emitOp(bytecode.OpNegInt, e.Pos())
		default:
			c.emitOp(bytecode.OpNegFloat, e.Pos())
		}

	case *parser.Binary:
		c.compileBinary(e)

	case *parser.Range:
		c.compileExpr(e.Low)
		c.compileExpr(e.High)
		c.emitOp(bytecode.OpRange, e.Pos())

	case *parser.Block:
		c.compileBlock(e)

	case *parser.If:
		c.compileIf(e)

	case *parser.Let:
		// lets are lowered by their enclosing block
		panic(errors.NewInternal("let outside statement position"))

	case *parser.Lambda:
		c.compileLambda(e)

	case *parser.Call:
		for _, a := range e.Args {
			c.compileExpr(a)
		}
		c.compileExpr(e.Callee)
		c.emitU16(bytecode.OpCall, uint16(len(e.Args)), e.Pos())

	case *parser.Pipe:
		c.compileExpr(e.Value)
		c.compileExpr(e.Fn)
		c.emitU16(bytecode.OpCall, 1, e.Pos())

	case *parser.Index:
		c.compileExpr(e.Object)
		c.compileExpr(e.Key)
		c.emitOp(bytecode.OpIndex, e.Pos())

	case *parser.FieldAccess:
		c.compileExpr(e.Object)
		c.emitU16(bytecode.OpGetField, uint16(e.FieldIdx), e.Pos())

	case *parser.ArrayLit:
		for _, elem := range e.Elems {
			c.compileExpr(elem)
		}
		c.emitU16(bytecode.OpArray, uint16(len(e.Elems)), e.Pos())

	case *parser.TypeDef:
		fields := make([]string, len(e.Record.Fields))
		for i, f := range e.Record.Fields {
			fields[i] = f.Name
		}
		c.emitConstant(&vm.RecordType{Name: e.Name, Fields: fields}, e.Pos())

	default:
		panic(errors.NewInternal(fmt.Sprintf("unhandled AST node %T", e)))
	}
	c.depth = pre + 1
}

func (c *compiler) compileIdent(e *parser.Ident) {
	switch e.Slot.Scope {
	case parser.ScopeLocal:
		c.emitU16(bytecode.OpGetLocal, uint16(c.slots[e.Slot.Index]), e.Pos())
	case parser.ScopeCapture:
		c.emitU16(bytecode.OpGetCapture, uint16(e.Slot.Index), e.Pos())
	default:
		c.emitU16(bytecode.OpGetGlobal, uint16(e.Slot.Index), e.Pos())
	}
}

func (c *compiler) compileBinary(e *parser.Binary) {
	switch e.Op {
	case lexer.TokenAnd:
		c.compileExpr(e.Left)
		end := c.emitJump(bytecode.OpJumpIfFalse, e.Pos())
		c.emitOp(bytecode.OpPop, e.Pos())
		c.depth--
		c.compileExpr(e.Right)
		c.patchJump(end)
		return
	case lexer.TokenOr:
		c.compileExpr(e.Left)
		elseJump := c.emitJump(bytecode.OpJumpIfFalse, e.Pos())
		end := c.emitJump(bytecode.OpJump, e.Pos())
		c.patchJump(elseJump)
		c.emitOp(bytecode.OpPop, e.Pos())
		c.depth--
		c.compileExpr(e.Right)
		c.patchJump(end)
		return
	}

	c.compileExpr(e.Left)
	c.compileExpr(e.Right)

	operand := e.Left.TypeOf().Kind
	var op bytecode.OpCode
	switch e.Op {
	case lexer.TokenPlus:
		switch operand {
		case types.KindInt:
			op = bytecode.OpAddInt
		case types.KindFloat:
			op = bytecode.OpAddFloat
		case types.KindString:
			op = bytecode.OpConcat
		case types.KindArray:
			op = bytecode.OpConcatArray
		}
	case lexer.TokenMinus:
		op = pick(operand, bytecode.OpSubInt, bytecode.OpSubFloat)
	case lexer.TokenStar:
		op = pick(operand, bytecode.OpMulInt, bytecode.OpMulFloat)
	case lexer.TokenSlash:
		op = pick(operand, bytecode.OpDivInt, bytecode.OpDivFloat)
	case lexer.TokenLess:
		op = pick(operand, bytecode.OpLessInt, bytecode.OpLessFloat)
	case lexer.TokenLessEq:
		op = pick(operand, bytecode.OpLessEqInt, bytecode.OpLessEqFloat)
	case lexer.TokenGreater:
		op = pick(operand, bytecode.OpGreaterInt, bytecode.OpGreaterFloat)
	case lexer.TokenGreaterEq:
		op = pick(operand, bytecode.OpGreaterEqInt, bytecode.OpGreaterEqFloat)
	case lexer.TokenEqual:
		op = bytecode.OpEqual
	case lexer.TokenNotEqual:
		op = bytecode.OpNotEqual
	default:
		panic(errors.NewInternal(fmt.Sprintf("unhandled binary operator %s", e.Op)))
	}
	c.emitOp(op, e.Pos())
}

func pick(k types.Kind, intOp, floatOp bytecode.OpCode) bytecode.OpCode {
	if k == types.KindInt {
		return intOp
	}
	return floatOp
}

// compileBlock lowers a scoped block. A := value stays on the stack and
// becomes its local slot; other statement values are popped. END_BLOCK
// clears the block's locals out from under the result.
func (c *compiler) compileBlock(b *parser.Block) {
	base := c.depth
	nLocals := 0
	for i, stmt := range b.Exprs {
		last := i == len(b.Exprs)-1
		if let, ok := stmt.(*parser.Let); ok {
			c.compileExpr(let.Value)
			c.slots = append(c.slots, c.depth-1)
			nLocals++
			if last && nLocals > 1 {
				c.emitU16(bytecode.OpEndBlock, uint16(nLocals-1), let.Pos())
			}
			continue
		}
		c.compileExpr(stmt)
		if !last {
			c.emitOp(bytecode.OpPop, stmt.Pos())
			c.depth--
		} else if nLocals > 0 {
			c.emitU16(bytecode.OpEndBlock, uint16(nLocals), stmt.Pos())
		}
	}
	c.slots = c.slots[:len(c.slots)-nLocals]
	c.depth = base + 1
}

func (c *compiler) compileIf(e *parser.If) {
	c.compileExpr(e.Cond)
	elseJump := c.emitJump(bytecode.OpJumpIfFalse, e.Pos())
	c.emitOp(bytecode.OpPop, e.Pos())
	c.depth--
	c.compileBlock(e.Then)
	end := c.emitJump(bytecode.OpJump, e.Pos())
	c.patchJump(elseJump)
	c.depth-- // the else path re-pops the condition
	c.emitOp(bytecode.OpPop, e.Pos())
	c.compileBlock(e.Else)
	c.patchJump(end)
}

func (c *compiler) compileLambda(e *parser.Lambda) {
	sub := &compiler{chunk: bytecode.NewChunk(), depth: len(e.Params)}
	for i := range e.Params {
		sub.slots = append(sub.slots, i)
	}
	sub.compileBlock(e.Body)
	sub.emitOp(bytecode.OpReturn, e.Pos())

	name := e.SelfName
	if name == "" {
		name = "<lambda>"
	}
	fn := &vm.Function{Name: name, Arity: len(e.Params), Chunk: sub.chunk}

	if len(e.Captures) > 0xff {
		panic(errors.NewInternal("too many captures in one lambda"))
	}
	idx := c.addConstant(fn, e.Pos())
	c.chunk.WriteOp(bytecode.OpClosure, e.Pos())
	c.chunk.WriteU16(idx, e.Pos())
	c.chunk.WriteByte(byte(len(e.Captures)), e.Pos())
	for _, capture := range e.Captures {
		if capture.FromLocal {
			c.chunk.WriteByte(1, e.Pos())
			c.chunk.WriteU16(uint16(c.slots[capture.Index]), e.Pos())
		} else {
			c.chunk.WriteByte(0, e.Pos())
			c.chunk.WriteU16(uint16(capture.Index), e.Pos())
		}
	}
}

// Emit helpers

func (c *compiler) emitOp(op bytecode.OpCode, line int) {
	c.chunk.WriteOp(op, line)
}

func (c *compiler) emitU16(op bytecode.OpCode, operand uint16, line int) {
	c.chunk.WriteOp(op, line)
	c.chunk.WriteU16(operand, line)
}

func (c *compiler) emitConstant(v vm.Value, line int) {
	c.emitU16(bytecode.OpConstant, c.addConstant(v, line), line)
}

func (c *compiler) addConstant(v vm.Value, line int) uint16 {
	idx := c.chunk.AddConstant(v)
	if idx > 0xffff {
		panic(errors.NewInternal("too many constants in one chunk"))
	}
	return uint16(idx)
}

// emitJump writes a jump with a placeholder offset and returns the
// operand position for patchJump.
func (c *compiler) emitJump(op bytecode.OpCode, line int) int {
	c.chunk.WriteOp(op, line)
	c.chunk.WriteU16(0xffff, line)
	return len(c.chunk.Code) - 2
}

func (c *compiler) patchJump(at int) {
	jump := len(c.chunk.Code) - at - 2
	if jump > 0xffff {
		panic(errors.NewInternal("jump distance exceeds 16 bits"))
	}
	c.chunk.PatchU16(at, uint16(jump))
}
