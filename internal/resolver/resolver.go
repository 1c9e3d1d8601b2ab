// internal/resolver/resolver.go
//
// The resolver walks the AST once, assigns every binding a storage slot,
// types every expression and picks a concrete overload for every call.
// Overloads live in a flat global table keyed by mangled signature
// ("sqrt[Float]"); rebinding a global allocates a fresh slot so closures
// compiled earlier keep seeing the value they were built against.
package resolver

import (
	"fmt"
	"strings"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"henrylang/internal/builtins"
	"henrylang/internal/errors"
	"henrylang/internal/lexer"
	"henrylang/internal/parser"
	"henrylang/internal/types"
)

// NativeUse records one builtin overload the program relies on: the
// global slot it occupies, the VM implementation it dispatches to, and
// the concrete signature the call sites were checked against.
type NativeUse struct {
	Slot int
	Impl string
	Sig  types.Type
}

// Info is everything the compiler and VM need beyond the annotated AST.
type Info struct {
	NumGlobals int
	Natives    []NativeUse
}

type gbinding struct {
	slot int
	typ  types.Type
}

// Resolver state survives across Resolve calls so a REPL session keeps
// its bindings.
type Resolver struct {
	globals    map[string]*gbinding
	keysByName map[string][]string
	numGlobals int
	natives    []NativeUse
	records    map[string]types.Type

	pre map[*parser.Let]*gbinding
	fn  *funcScope
}

func New() *Resolver {
	r := &Resolver{
		globals:    make(map[string]*gbinding),
		keysByName: make(map[string][]string),
		records:    make(map[string]types.Type),
	}
	for _, b := range builtins.Fixed() {
		slot := r.newSlot()
		r.globals[b.Key] = &gbinding{slot: slot, typ: b.Sig}
		r.addKey(baseName(b.Key), b.Key)
		r.natives = append(r.natives, NativeUse{Slot: slot, Impl: b.Impl, Sig: b.Sig})
	}
	return r
}

// Resolve annotates the program in place and returns the slot layout.
// The program block is the body of the implicit main function; bindings
// made directly in it are globals.
func (r *Resolver) Resolve(prog *parser.Block) (info *Info, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			if he, ok := rec.(*errors.HenryError); ok {
				info, err = nil, he
				return
			}
			panic(rec)
		}
	}()

	r.fn = &funcScope{}
	r.pre = make(map[*parser.Let]*gbinding)
	r.prepass(prog)

	var last types.Type = types.Unresolved
	for _, e := range prog.Exprs {
		last = r.resolveExpr(e)
	}
	parser.SetType(prog, last)

	return &Info{NumGlobals: r.numGlobals, Natives: r.natives}, nil
}

// prepass registers top-level record types, then every fully-annotated
// top-level lambda, so that forward references and mutual recursion
// resolve. A lambda missing its return annotation is only visible after
// its own := statement.
func (r *Resolver) prepass(prog *parser.Block) {
	for _, e := range prog.Exprs {
		let, ok := e.(*parser.Let)
		if !ok {
			continue
		}
		if td, ok := let.Value.(*parser.TypeDef); ok {
			r.registerRecord(let, td)
		}
	}
	for _, e := range prog.Exprs {
		let, ok := e.(*parser.Let)
		if !ok {
			continue
		}
		lam, ok := let.Value.(*parser.Lambda)
		if !ok || lam.RetAnn == nil {
			continue
		}
		fully := true
		for _, p := range lam.Params {
			if p.Ann == nil {
				fully = false
				break
			}
		}
		if !fully {
			continue
		}
		params := make([]types.Type, len(lam.Params))
		for i, p := range lam.Params {
			params[i] = r.annToType(p.Ann)
		}
		sig := types.Func(params, r.annToType(lam.RetAnn))
		key := types.MangleSig(let.Name, params)
		if _, exists := r.globals[key]; exists {
			r.fail(errors.DuplicateSignature,
				fmt.Sprintf("Signature '%s' is already defined", key), let.Pos())
		}
		b := &gbinding{slot: r.newSlot(), typ: sig}
		r.globals[key] = b
		r.addKey(let.Name, key)
		r.pre[let] = b
	}
}

func (r *Resolver) registerRecord(let *parser.Let, td *parser.TypeDef) {
	if _, exists := r.records[let.Name]; exists {
		r.fail(errors.DuplicateSignature,
			fmt.Sprintf("Record type '%s' is already defined", let.Name), td.Pos())
	}
	fields := make([]types.Field, len(td.Fields))
	for i, f := range td.Fields {
		for j := 0; j < i; j++ {
			if fields[j].Name == f.Name {
				r.fail(errors.TypeMismatch,
					fmt.Sprintf("Duplicate field '%s' in record '%s'", f.Name, let.Name), td.Pos())
			}
		}
		fields[i] = types.Field{Name: f.Name, Type: r.annToType(f.Ann)}
	}
	rec := types.Record(let.Name, fields)
	r.records[let.Name] = rec

	params := make([]types.Type, len(fields))
	for i, f := range fields {
		params[i] = f.Type
	}
	key := types.MangleSig(let.Name, params)
	if _, exists := r.globals[key]; exists {
		r.fail(errors.DuplicateSignature,
			fmt.Sprintf("Signature '%s' is already defined", key), td.Pos())
	}
	b := &gbinding{slot: r.newSlot(), typ: types.Func(params, rec)}
	r.globals[key] = b
	r.addKey(let.Name, key)
	r.pre[let] = b
}

func (r *Resolver) resolveExpr(e parser.Expr) types.Type {
	var t types.Type
	switch e := e.(type) {
	case *parser.IntLit:
		t = types.Int
	case *parser.FloatLit:
		t = types.Float
	case *parser.StringLit:
		t = types.Str
	case *parser.BoolLit:
		t = types.Bool
	case *parser.Ident:
		t = r.resolveIdent(e)
	case *parser.Unary:
		t = r.resolveUnary(e)
	case *parser.Binary:
		t = r.resolveBinary(e)
	case *parser.Range:
		t = r.resolveRange(e)
	case *parser.Block:
		t = r.resolveBlock(e)
	case *parser.If:
		t = r.resolveIf(e)
	case *parser.Let:
		t = r.resolveLet(e)
	case *parser.Lambda:
		t = r.resolveLambda(e, nil)
	case *parser.Call:
		t = r.resolveInvocation(e.Pos(), e.Callee, e.Args)
	case *parser.Pipe:
		t = r.resolveInvocation(e.Pos(), e.Fn, []parser.Expr{e.Value})
	case *parser.Index:
		t = r.resolveIndex(e)
	case *parser.FieldAccess:
		t = r.resolveFieldAccess(e)
	case *parser.ArrayLit:
		t = r.resolveArray(e)
	case *parser.TypeDef:
		t = r.resolveTypeDef(e)
	default:
		panic(errors.NewInternal(fmt.Sprintf("unhandled AST node %T", e)))
	}
	parser.SetType(e, t)
	return t
}

func (r *Resolver) resolveIdent(e *parser.Ident) types.Type {
	if idx, t, ok := r.fn.resolveLocal(e.Name); ok {
		e.Slot = parser.Slot{Scope: parser.ScopeLocal, Index: idx}
		return t
	}
	if idx, t, ok := r.fn.resolveCapture(e.Name); ok {
		e.Slot = parser.Slot{Scope: parser.ScopeCapture, Index: idx}
		return t
	}
	keys := r.keysByName[e.Name]
	switch len(keys) {
	case 0:
		r.fail(errors.UndefinedName, fmt.Sprintf("Undefined name '%s'", e.Name), e.Pos())
	case 1:
		b := r.globals[keys[0]]
		e.Slot = parser.Slot{Scope: parser.ScopeGlobal, Index: b.slot}
		return b.typ
	default:
		r.fail(errors.AmbiguousOrUnresolvedCall,
			fmt.Sprintf("'%s' has %d overloads; a bare reference must name exactly one", e.Name, len(keys)), e.Pos())
	}
	return types.Unresolved
}

func (r *Resolver) resolveUnary(e *parser.Unary) types.Type {
	t := r.resolveExpr(e.Operand)
	switch e.Op {
	case lexer.TokenMinus:
		if !t.IsNumeric() {
			r.fail(errors.TypeMismatch,
				fmt.Sprintf("Operand of '-' must be Int or Float, got %s", t), e.Pos())
		}
		return t
	case lexer.TokenBang:
		if t.Kind != types.KindBool {
			r.fail(errors.TypeMismatch,
				fmt.Sprintf("Operand of '!' must be Bool, got %s", t), e.Pos())
		}
		return types.Bool
	}
	panic(errors.NewInternal(fmt.Sprintf("unhandled unary operator %s", e.Op)))
}

func (r *Resolver) resolveBinary(e *parser.Binary) types.Type {
	lt := r.resolveExpr(e.Left)
	rt := r.resolveExpr(e.Right)

	switch e.Op {
	case lexer.TokenAnd, lexer.TokenOr:
		if lt.Kind != types.KindBool || rt.Kind != types.KindBool {
			r.fail(errors.TypeMismatch,
				fmt.Sprintf("Operands of '%s' must be Bool, got %s and %s",
					strings.ToLower(string(e.Op)), lt, rt), e.Pos())
		}
		return types.Bool

	case lexer.TokenPlus:
		if types.Equal(lt, rt) {
			switch lt.Kind {
			case types.KindInt, types.KindFloat, types.KindString, types.KindArray:
				return lt
			}
		}
		r.fail(errors.TypeMismatch,
			fmt.Sprintf("Cannot add %s and %s", lt, rt), e.Pos())

	case lexer.TokenMinus, lexer.TokenStar, lexer.TokenSlash:
		if lt.IsNumeric() && types.Equal(lt, rt) {
			return lt
		}
		r.fail(errors.TypeMismatch,
			fmt.Sprintf("Operands of '%s' must both be Int or both be Float, got %s and %s",
				e.Op, lt, rt), e.Pos())

	case lexer.TokenLess, lexer.TokenLessEq, lexer.TokenGreater, lexer.TokenGreaterEq:
		if lt.IsNumeric() && types.Equal(lt, rt) {
			return types.Bool
		}
		r.fail(errors.TypeMismatch,
			fmt.Sprintf("Cannot compare %s and %s with '%s'", lt, rt, e.Op), e.Pos())

	case lexer.TokenEqual, lexer.TokenNotEqual:
		if !types.Equal(lt, rt) {
			r.fail(errors.TypeMismatch,
				fmt.Sprintf("Cannot compare %s and %s for equality", lt, rt), e.Pos())
		}
		if lt.Kind == types.KindFunc || lt.Kind == types.KindIter {
			r.fail(errors.TypeMismatch,
				fmt.Sprintf("Values of type %s cannot be compared for equality", lt), e.Pos())
		}
		return types.Bool
	}
	panic(errors.NewInternal(fmt.Sprintf("unhandled binary operator %s", e.Op)))
}

func (r *Resolver) resolveRange(e *parser.Range) types.Type {
	lt := r.resolveExpr(e.Low)
	ht := r.resolveExpr(e.High)
	if lt.Kind != types.KindInt || ht.Kind != types.KindInt {
		r.fail(errors.TypeMismatch,
			fmt.Sprintf("Range bounds must be Int, got %s and %s", lt, ht), e.Pos())
	}
	return types.Iter(types.Int)
}

func (r *Resolver) resolveBlock(e *parser.Block) types.Type {
	r.fn.beginBlock()
	var last types.Type = types.Unresolved
	for _, stmt := range e.Exprs {
		last = r.resolveExpr(stmt)
	}
	r.fn.endBlock()
	return last
}

func (r *Resolver) resolveIf(e *parser.If) types.Type {
	ct := r.resolveExpr(e.Cond)
	if ct.Kind != types.KindBool {
		r.fail(errors.TypeMismatch,
			fmt.Sprintf("Condition of 'if' must be Bool, got %s", ct), e.Pos())
	}
	tt := r.resolveExpr(e.Then)
	et := r.resolveExpr(e.Else)
	if !types.Equal(tt, et) {
		r.fail(errors.TypeMismatch,
			fmt.Sprintf("Branches of 'if' have different types: %s and %s", tt, et), e.Pos())
	}
	return tt
}

// atTopLevel reports whether the resolver currently sits directly in the
// program block, where := creates globals.
func (r *Resolver) atTopLevel() bool {
	return r.fn.enclosing == nil && len(r.fn.marks) == 0
}

func (r *Resolver) resolveLet(e *parser.Let) types.Type {
	top := r.atTopLevel()
	t := r.resolveExpr(e.Value)

	if !top {
		idx := r.fn.declare(e.Name, t)
		e.Slot = parser.Slot{Scope: parser.ScopeLocal, Index: idx}
		return t
	}

	if b, ok := r.pre[e]; ok {
		e.Slot = parser.Slot{Scope: parser.ScopeGlobal, Index: b.slot}
		return t
	}

	key := types.Mangle(e.Name, t)
	if _, exists := r.globals[key]; exists && t.Kind == types.KindFunc {
		r.fail(errors.DuplicateSignature,
			fmt.Sprintf("Signature '%s' is already defined", key), e.Pos())
	}
	// rebinding a plain value replaces the visible binding but gets a
	// fresh slot; closures built against the old slot keep the old value
	b := &gbinding{slot: r.newSlot(), typ: t}
	r.globals[key] = b
	r.addKey(e.Name, key)
	e.Slot = parser.Slot{Scope: parser.ScopeGlobal, Index: b.slot}
	return t
}

// resolveLambda types a lambda literal. Parameters without annotations
// take their types from expected, which is non-nil only when the lambda
// appears in a position that dictates the signature.
func (r *Resolver) resolveLambda(e *parser.Lambda, expected []types.Type) types.Type {
	if expected != nil && len(expected) != len(e.Params) {
		r.fail(errors.ArityMismatch,
			fmt.Sprintf("Lambda takes %d parameters, context expects %d",
				len(e.Params), len(expected)), e.Pos())
	}
	params := make([]types.Type, len(e.Params))
	for i, p := range e.Params {
		switch {
		case p.Ann != nil:
			params[i] = r.annToType(p.Ann)
		case expected != nil:
			params[i] = expected[i]
		default:
			r.fail(errors.TypeMismatch,
				fmt.Sprintf("Parameter '%s' needs a type annotation", p.Name), e.Pos())
		}
	}

	scope := &funcScope{enclosing: r.fn, fn: e}
	r.fn = scope
	for i, p := range e.Params {
		scope.declare(p.Name, params[i])
	}
	bodyT := r.resolveExpr(e.Body)
	r.fn = scope.enclosing

	if e.RetAnn != nil {
		declared := r.annToType(e.RetAnn)
		if !types.Equal(bodyT, declared) {
			r.fail(errors.TypeMismatch,
				fmt.Sprintf("Lambda body has type %s, declared return type is %s",
					bodyT, declared), e.Pos())
		}
		bodyT = declared
	}

	e.Captures = scope.captures
	return types.Func(params, bodyT)
}

// resolveInvocation types a call or pipe. A named callee goes through
// overload resolution; generic builtins are instantiated per call site;
// anything else must already be a function value.
func (r *Resolver) resolveInvocation(line int, callee parser.Expr, args []parser.Expr) types.Type {
	id, named := callee.(*parser.Ident)
	if !named {
		ct := r.resolveExpr(callee)
		return r.checkValueCall(ct, args, line)
	}

	if idx, t, ok := r.fn.resolveLocal(id.Name); ok {
		id.Slot = parser.Slot{Scope: parser.ScopeLocal, Index: idx}
		parser.SetType(id, t)
		return r.checkValueCall(t, args, line)
	}
	if idx, t, ok := r.fn.resolveCapture(id.Name); ok {
		id.Slot = parser.Slot{Scope: parser.ScopeCapture, Index: idx}
		parser.SetType(id, t)
		return r.checkValueCall(t, args, line)
	}

	if builtins.IsGeneric(id.Name) {
		return r.resolveGenericCall(id, args, line)
	}

	if len(r.keysByName[id.Name]) == 0 {
		r.fail(errors.UndefinedName, fmt.Sprintf("Undefined name '%s'", id.Name), line)
	}

	argTypes := make([]types.Type, len(args))
	for i, a := range args {
		argTypes[i] = r.resolveExpr(a)
	}
	key := types.MangleSig(id.Name, argTypes)
	b, ok := r.globals[key]
	if !ok {
		r.fail(errors.AmbiguousOrUnresolvedCall,
			fmt.Sprintf("No overload of '%s' matches (%s)", id.Name, joinTypes(argTypes)), line)
	}
	id.Slot = parser.Slot{Scope: parser.ScopeGlobal, Index: b.slot}
	parser.SetType(id, b.typ)
	return *b.typ.Ret
}

// checkValueCall checks a call through a function value of known type.
func (r *Resolver) checkValueCall(t types.Type, args []parser.Expr, line int) types.Type {
	if t.Kind != types.KindFunc {
		r.fail(errors.TypeMismatch,
			fmt.Sprintf("Cannot call a value of type %s", t), line)
	}
	if len(args) != len(t.Params) {
		r.fail(errors.ArityMismatch,
			fmt.Sprintf("Call takes %d arguments, %d given", len(t.Params), len(args)), line)
	}
	for i, a := range args {
		at := r.resolveArgExpected(a, t.Params[i])
		if !types.Equal(at, t.Params[i]) {
			r.fail(errors.TypeMismatch,
				fmt.Sprintf("Argument %d has type %s, expected %s", i+1, at, t.Params[i]), line)
		}
	}
	return *t.Ret
}

// resolveArgExpected resolves one argument, letting an unannotated
// lambda inherit the expected parameter types.
func (r *Resolver) resolveArgExpected(a parser.Expr, expected types.Type) types.Type {
	if lam, ok := a.(*parser.Lambda); ok && expected.Kind == types.KindFunc {
		t := r.resolveLambda(lam, expected.Params)
		parser.SetType(lam, t)
		return t
	}
	return r.resolveExpr(a)
}

// resolveGenericCall instantiates an element-generic builtin for the
// concrete argument types at this call site. Each distinct instantiation
// gets its own global slot backed by the same native implementation.
func (r *Resolver) resolveGenericCall(id *parser.Ident, args []parser.Expr, line int) types.Type {
	name := id.Name
	var sig types.Type
	impl := name

	switch name {
	case "map", "filter":
		r.wantArgs(name, 2, args, line)
		st := r.resolveExpr(args[1])
		elem := r.elemOf(st, name, line)
		ft := r.resolveFuncArg(args[0], []types.Type{elem}, line)
		if name == "filter" {
			if ft.Ret.Kind != types.KindBool {
				r.fail(errors.TypeMismatch,
					fmt.Sprintf("'filter' predicate must return Bool, got %s", ft.Ret), line)
			}
			sig = types.Func([]types.Type{ft, st}, types.Iter(elem))
		} else {
			sig = types.Func([]types.Type{ft, st}, types.Iter(*ft.Ret))
		}

	case "reduce":
		r.wantArgs(name, 3, args, line)
		st := r.resolveExpr(args[1])
		elem := r.elemOf(st, name, line)
		acc := r.resolveExpr(args[2])
		ft := r.resolveFuncArg(args[0], []types.Type{acc, elem}, line)
		if !types.Equal(*ft.Ret, acc) {
			r.fail(errors.TypeMismatch,
				fmt.Sprintf("'reduce' function must return the accumulator type %s, got %s",
					acc, ft.Ret), line)
		}
		sig = types.Func([]types.Type{ft, st, acc}, acc)

	case "sum", "prod":
		r.wantArgs(name, 1, args, line)
		st := r.resolveExpr(args[0])
		elem := r.elemOf(st, name, line)
		if !elem.IsNumeric() {
			r.fail(errors.TypeMismatch,
				fmt.Sprintf("'%s' needs Int or Float elements, got %s", name, elem), line)
		}
		if elem.Kind == types.KindInt {
			impl = name + "_int"
		} else {
			impl = name + "_float"
		}
		sig = types.Func([]types.Type{st}, elem)

	case "all", "any":
		r.wantArgs(name, 1, args, line)
		st := r.resolveExpr(args[0])
		elem := r.elemOf(st, name, line)
		if elem.Kind != types.KindBool {
			r.fail(errors.TypeMismatch,
				fmt.Sprintf("'%s' needs Bool elements, got %s", name, elem), line)
		}
		sig = types.Func([]types.Type{st}, types.Bool)

	case "len":
		r.wantArgs(name, 1, args, line)
		st := r.resolveExpr(args[0])
		switch st.Kind {
		case types.KindString:
			b := r.globals["len[Str]"]
			id.Slot = parser.Slot{Scope: parser.ScopeGlobal, Index: b.slot}
			parser.SetType(id, b.typ)
			return types.Int
		case types.KindArray:
			impl = "len_arr"
			sig = types.Func([]types.Type{st}, types.Int)
		default:
			r.fail(errors.TypeMismatch,
				fmt.Sprintf("'len' expects an array or string, got %s", st), line)
		}

	case "collect":
		r.wantArgs(name, 1, args, line)
		st := r.resolveExpr(args[0])
		elem := r.elemOf(st, name, line)
		sig = types.Func([]types.Type{st}, types.Arr(elem))

	default:
		panic(errors.NewInternal(fmt.Sprintf("unhandled generic builtin %s", name)))
	}

	key := types.MangleSig(name, sig.Params)
	b, ok := r.globals[key]
	if !ok {
		b = &gbinding{slot: r.newSlot(), typ: sig}
		r.globals[key] = b
		r.addKey(name, key)
		r.natives = append(r.natives, NativeUse{Slot: b.slot, Impl: impl, Sig: sig})
	}
	id.Slot = parser.Slot{Scope: parser.ScopeGlobal, Index: b.slot}
	parser.SetType(id, b.typ)
	return *sig.Ret
}

// resolveFuncArg resolves an argument that must be a function with the
// given parameter types: an unannotated lambda inherits them, a named
// reference picks the matching overload, anything else is checked.
func (r *Resolver) resolveFuncArg(a parser.Expr, params []types.Type, line int) types.Type {
	if lam, ok := a.(*parser.Lambda); ok {
		t := r.resolveLambda(lam, params)
		parser.SetType(lam, t)
		if !types.EqualParams(t.Params, params) {
			r.fail(errors.TypeMismatch,
				fmt.Sprintf("Function argument takes (%s), expected (%s)",
					joinTypes(t.Params), joinTypes(params)), line)
		}
		return t
	}
	if id, ok := a.(*parser.Ident); ok {
		if idx, t, found := r.fn.resolveLocal(id.Name); found {
			id.Slot = parser.Slot{Scope: parser.ScopeLocal, Index: idx}
			parser.SetType(id, t)
			return r.checkFuncShape(t, params, line)
		}
		if idx, t, found := r.fn.resolveCapture(id.Name); found {
			id.Slot = parser.Slot{Scope: parser.ScopeCapture, Index: idx}
			parser.SetType(id, t)
			return r.checkFuncShape(t, params, line)
		}
		if len(r.keysByName[id.Name]) == 0 {
			r.fail(errors.UndefinedName, fmt.Sprintf("Undefined name '%s'", id.Name), line)
		}
		key := types.MangleSig(id.Name, params)
		b, found := r.globals[key]
		if !found {
			r.fail(errors.AmbiguousOrUnresolvedCall,
				fmt.Sprintf("No overload of '%s' matches (%s)", id.Name, joinTypes(params)), line)
		}
		id.Slot = parser.Slot{Scope: parser.ScopeGlobal, Index: b.slot}
		parser.SetType(id, b.typ)
		return b.typ
	}
	t := r.resolveExpr(a)
	return r.checkFuncShape(t, params, line)
}

func (r *Resolver) checkFuncShape(t types.Type, params []types.Type, line int) types.Type {
	if t.Kind != types.KindFunc || !types.EqualParams(t.Params, params) {
		r.fail(errors.TypeMismatch,
			fmt.Sprintf("Expected a function taking (%s), got %s", joinTypes(params), t), line)
	}
	return t
}

func (r *Resolver) resolveIndex(e *parser.Index) types.Type {
	ot := r.resolveExpr(e.Object)
	kt := r.resolveExpr(e.Key)
	if ot.Kind != types.KindArray {
		r.fail(errors.TypeMismatch,
			fmt.Sprintf("Only arrays can be indexed, got %s", ot), e.Pos())
	}
	if kt.Kind != types.KindInt {
		r.fail(errors.TypeMismatch,
			fmt.Sprintf("Array index must be Int, got %s", kt), e.Pos())
	}
	return *ot.Elem
}

func (r *Resolver) resolveFieldAccess(e *parser.FieldAccess) types.Type {
	ot := r.resolveExpr(e.Object)
	if ot.Kind != types.KindRecord {
		r.fail(errors.TypeMismatch,
			fmt.Sprintf("Only records have fields, got %s", ot), e.Pos())
	}
	idx := ot.FieldIndex(e.Name)
	if idx < 0 {
		r.fail(errors.UndefinedName,
			fmt.Sprintf("Record '%s' has no field '%s'", ot.Name, e.Name), e.Pos())
	}
	e.FieldIdx = idx
	return ot.Fields[idx].Type
}

func (r *Resolver) resolveArray(e *parser.ArrayLit) types.Type {
	if len(e.Elems) == 0 {
		return types.Arr(r.annToType(e.Ann))
	}
	first := r.resolveExpr(e.Elems[0])
	for _, elem := range e.Elems[1:] {
		t := r.resolveExpr(elem)
		if !types.Equal(t, first) {
			r.fail(errors.TypeMismatch,
				fmt.Sprintf("Array elements must share one type, got %s and %s", first, t), elem.Pos())
		}
	}
	return types.Arr(first)
}

func (r *Resolver) resolveTypeDef(e *parser.TypeDef) types.Type {
	rec, ok := r.records[e.Name]
	if !ok {
		r.fail(errors.TypeMismatch,
			"Record types may only be defined at the top level", e.Pos())
	}
	e.Record = rec
	params := make([]types.Type, len(rec.Fields))
	for i, f := range rec.Fields {
		params[i] = f.Type
	}
	return types.Func(params, rec)
}

// annToType converts a source-level annotation into a type, looking up
// record names in the registry.
func (r *Resolver) annToType(a *parser.TypeAnnotation) types.Type {
	switch a.Name {
	case "Int", "Float", "Bool", "Str":
		if len(a.Args) != 0 {
			r.fail(errors.TypeMismatch,
				fmt.Sprintf("Type %s takes no arguments", a.Name), a.Line)
		}
		switch a.Name {
		case "Int":
			return types.Int
		case "Float":
			return types.Float
		case "Bool":
			return types.Bool
		default:
			return types.Str
		}
	case "Arr", "Iter":
		if len(a.Args) != 1 {
			r.fail(errors.TypeMismatch,
				fmt.Sprintf("Type %s takes exactly one argument", a.Name), a.Line)
		}
		elem := r.annToType(a.Args[0])
		if a.Name == "Arr" {
			return types.Arr(elem)
		}
		return types.Iter(elem)
	case "Func":
		if len(a.Args) < 1 {
			r.fail(errors.TypeMismatch,
				"Type Func needs at least a return type", a.Line)
		}
		n := len(a.Args)
		params := make([]types.Type, n-1)
		for i := 0; i < n-1; i++ {
			params[i] = r.annToType(a.Args[i])
		}
		return types.Func(params, r.annToType(a.Args[n-1]))
	default:
		if rec, ok := r.records[a.Name]; ok {
			return rec
		}
		r.fail(errors.UndefinedName, fmt.Sprintf("Unknown type '%s'", a.Name), a.Line)
		return types.Unresolved
	}
}

func (r *Resolver) wantArgs(name string, n int, args []parser.Expr, line int) {
	if len(args) != n {
		r.fail(errors.ArityMismatch,
			fmt.Sprintf("'%s' takes %d arguments, %d given", name, n, len(args)), line)
	}
}

func (r *Resolver) elemOf(t types.Type, who string, line int) types.Type {
	if t.Kind != types.KindIter && t.Kind != types.KindArray {
		r.fail(errors.TypeMismatch,
			fmt.Sprintf("'%s' expects an iterator or array, got %s", who, t), line)
	}
	return *t.Elem
}

func (r *Resolver) newSlot() int {
	slot := r.numGlobals
	r.numGlobals++
	return slot
}

func (r *Resolver) addKey(name, key string) {
	for _, k := range r.keysByName[name] {
		if k == key {
			return
		}
	}
	r.keysByName[name] = append(r.keysByName[name], key)
}

// GlobalInfo describes one visible global binding, for the REPL.
type GlobalInfo struct {
	Key  string
	Type types.Type
}

// Globals lists every binding in the global table, sorted by key.
func (r *Resolver) Globals() []GlobalInfo {
	keys := maps.Keys(r.globals)
	slices.Sort(keys)
	out := make([]GlobalInfo, len(keys))
	for i, k := range keys {
		out[i] = GlobalInfo{Key: k, Type: r.globals[k].typ}
	}
	return out
}

func (r *Resolver) fail(code errors.Code, message string, line int) {
	panic(errors.NewTypeError(code, message, line))
}

func joinTypes(ts []types.Type) string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = t.String()
	}
	return strings.Join(parts, ", ")
}

func baseName(key string) string {
	if i := strings.IndexByte(key, '['); i >= 0 {
		return key[:i]
	}
	return key
}
