// internal/types/types.go
//
// Static types for the resolver, compiler and builtin registry. Types are
// compared structurally; record types additionally require a matching
// declared name.
package types

import (
	"fmt"
	"strings"
)

type Kind uint8

const (
	KindUnresolved Kind = iota
	KindInt
	KindFloat
	KindBool
	KindString
	KindArray
	KindIter
	KindFunc
	KindRecord
)

// Field is one named, typed slot of a record type. Order matters: the
// implicit constructor takes fields positionally.
type Field struct {
	Name string
	Type Type
}

type Type struct {
	Kind   Kind
	Elem   *Type   // Array, Iter element
	Params []Type  // Func parameters
	Ret    *Type   // Func return
	Name   string  // Record declared name
	Fields []Field // Record fields, ordered
}

var (
	Unresolved = Type{Kind: KindUnresolved}
	Int        = Type{Kind: KindInt}
	Float      = Type{Kind: KindFloat}
	Bool       = Type{Kind: KindBool}
	Str        = Type{Kind: KindString}
)

func Arr(elem Type) Type {
	return Type{Kind: KindArray, Elem: &elem}
}

func Iter(elem Type) Type {
	return Type{Kind: KindIter, Elem: &elem}
}

func Func(params []Type, ret Type) Type {
	return Type{Kind: KindFunc, Params: params, Ret: &ret}
}

func Record(name string, fields []Field) Type {
	return Type{Kind: KindRecord, Name: name, Fields: fields}
}

func (t Type) IsNumeric() bool {
	return t.Kind == KindInt || t.Kind == KindFloat
}

// FieldIndex returns the positional index of a record field, or -1.
func (t Type) FieldIndex(name string) int {
	for i, f := range t.Fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// Equal reports structural equality. Records compare by declared name and
// field shapes; everything else by shape alone.
func Equal(a, b Type) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindArray, KindIter:
		return Equal(*a.Elem, *b.Elem)
	case KindFunc:
		if len(a.Params) != len(b.Params) {
			return false
		}
		for i := range a.Params {
			if !Equal(a.Params[i], b.Params[i]) {
				return false
			}
		}
		return Equal(*a.Ret, *b.Ret)
	case KindRecord:
		if a.Name != b.Name || len(a.Fields) != len(b.Fields) {
			return false
		}
		for i := range a.Fields {
			if a.Fields[i].Name != b.Fields[i].Name ||
				!Equal(a.Fields[i].Type, b.Fields[i].Type) {
				return false
			}
		}
		return true
	default:
		return true
	}
}

// EqualParams reports whether a parameter list matches an argument list
// exactly, element for element.
func EqualParams(params, args []Type) bool {
	if len(params) != len(args) {
		return false
	}
	for i := range params {
		if !Equal(params[i], args[i]) {
			return false
		}
	}
	return true
}

func (t Type) String() string {
	switch t.Kind {
	case KindInt:
		return "Int"
	case KindFloat:
		return "Float"
	case KindBool:
		return "Bool"
	case KindString:
		return "Str"
	case KindArray:
		return fmt.Sprintf("Arr(%s)", t.Elem)
	case KindIter:
		return fmt.Sprintf("Iter(%s)", t.Elem)
	case KindFunc:
		parts := make([]string, 0, len(t.Params)+1)
		for _, p := range t.Params {
			parts = append(parts, p.String())
		}
		parts = append(parts, t.Ret.String())
		return fmt.Sprintf("Func(%s)", strings.Join(parts, ", "))
	case KindRecord:
		return t.Name
	default:
		return "<unresolved>"
	}
}

// Mangle builds the storage key for an overloaded binding, e.g.
// "sqrt[Float]". Non-function bindings mangle to the bare name.
func Mangle(name string, t Type) string {
	if t.Kind != KindFunc {
		return name
	}
	return MangleSig(name, t.Params)
}

// MangleSig builds the storage key from an explicit parameter signature.
func MangleSig(name string, params []Type) string {
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = p.String()
	}
	return fmt.Sprintf("%s[%s]", name, strings.Join(parts, ", "))
}
