// internal/parser/ast.go
package parser

import (
	"henrylang/internal/lexer"
	"henrylang/internal/types"
)

// Expr is any node of the syntax tree. Every construct in the language is
// an expression. The resolver fills in the Type (and slot information on
// the nodes that carry it) before the compiler runs.
type Expr interface {
	Pos() int
	TypeOf() types.Type
	setType(types.Type)
}

type exprBase struct {
	Line int
	Type types.Type
}

func (e *exprBase) Pos() int             { return e.Line }
func (e *exprBase) TypeOf() types.Type   { return e.Type }
func (e *exprBase) setType(t types.Type) { e.Type = t }

// SetType records the resolved static type of a node.
func SetType(e Expr, t types.Type) { e.setType(t) }

// ScopeKind says where a resolved binding lives at runtime.
type ScopeKind uint8

const (
	ScopeGlobal ScopeKind = iota
	ScopeLocal
	ScopeCapture
)

// Slot is the storage location the resolver assigned to a binding or to an
// identifier reference: a global slot, a frame-local slot, or an index into
// the enclosing closure's capture list.
type Slot struct {
	Scope ScopeKind
	Index int
}

// Capture describes one captured variable of a lambda: either a local slot
// of the immediately enclosing function, or a capture slot of the enclosing
// closure. The VM snapshots the value at closure-creation time.
type Capture struct {
	FromLocal bool
	Index     int
}

// TypeAnnotation is an unresolved source-level type, e.g. Arr(Int) or
// Func(Int, Int). The resolver converts it into a types.Type.
type TypeAnnotation struct {
	Name string
	Args []*TypeAnnotation
	Line int
}

// Param is a lambda parameter or a record field. A nil Ann on a lambda
// parameter means the type must be supplied by context.
type Param struct {
	Name string
	Ann  *TypeAnnotation
}

// Literals

type IntLit struct {
	exprBase
	Value int64
}

type FloatLit struct {
	exprBase
	Value float64
}

type StringLit struct {
	exprBase
	Value string
}

type BoolLit struct {
	exprBase
	Value bool
}

// Ident is a variable reference, resolved to a slot.
type Ident struct {
	exprBase
	Name string
	Slot Slot
}

// Unary expression: -x, !x
type Unary struct {
	exprBase
	Op      lexer.TokenType
	Operand Expr
}

// Binary expression: a + b, a and b, ...
type Binary struct {
	exprBase
	Left  Expr
	Op    lexer.TokenType
	Right Expr
}

// Range expression: a to b, half-open.
type Range struct {
	exprBase
	Low  Expr
	High Expr
}

// Block: { e1 e2 ... en }, value is en. A block opens a lexical scope.
type Block struct {
	exprBase
	Exprs []Expr
}

// If requires both branches; they must have the same type.
type If struct {
	exprBase
	Cond Expr
	Then *Block
	Else *Block
}

// Let is an immutable binding, allowed only in statement position inside a
// block. Its value is the bound value.
type Let struct {
	exprBase
	Name  string
	Value Expr
	Slot  Slot
}

// Lambda literal: |a: Int, b: Int|: Int { ... }. SelfName is the name of
// the enclosing := binding, if any; it enables direct recursion when a
// return annotation is present.
type Lambda struct {
	exprBase
	Params   []Param
	RetAnn   *TypeAnnotation
	Body     *Block
	SelfName string

	// filled in by the resolver
	Captures []Capture
}

// Call: callee(args...). When the callee is an identifier the resolver
// picks one concrete overload and points the identifier's slot at it.
type Call struct {
	exprBase
	Callee Expr
	Args   []Expr
}

// Pipe: value -> fn, exactly fn(value).
type Pipe struct {
	exprBase
	Value Expr
	Fn    Expr
}

// Index: arr[i]
type Index struct {
	exprBase
	Object Expr
	Key    Expr
}

// FieldAccess: rec.name; FieldIdx is the positional index the resolver
// found in the record type.
type FieldAccess struct {
	exprBase
	Object   Expr
	Name     string
	FieldIdx int
}

// ArrayLit: [a, b, c]; empty literals need an element annotation: []: Int.
type ArrayLit struct {
	exprBase
	Elems []Expr
	Ann   *TypeAnnotation
}

// TypeDef: type { a: Int, b: Str }. Name comes from the enclosing :=
// binding. Evaluates to the record's constructor function.
type TypeDef struct {
	exprBase
	Name   string
	Fields []Param
	Record types.Type
}
