// internal/vm/value.go
package vm

import (
	"fmt"
	"strconv"
	"strings"

	"henrylang/internal/bytecode"
)

// Value is any runtime value: int64, float64, bool, string, *Array,
// *Function, *Closure, *NativeFunction, *RecordType, *Record, *Iterator.
type Value interface{}

// Array is an immutable sequence of same-typed values.
type Array struct {
	Elems []Value
}

// Function is a compiled function body. It becomes callable once wrapped
// in a Closure carrying its captured values.
type Function struct {
	Name  string
	Arity int
	Chunk *bytecode.Chunk
}

func (f *Function) String() string {
	return fmt.Sprintf("<fn %s>", f.Name)
}

// Closure pairs a function with the values it captured at creation.
// Captures are copies; the language has no mutation, so sharing is
// unobservable anyway.
type Closure struct {
	Fn       *Function
	Captured []Value
}

// NativeFunction is a builtin implemented in Go.
type NativeFunction struct {
	Name  string
	Arity int
	Fn    func(m *VM, args []Value) (Value, error)
}

// RecordType is the runtime constructor for a declared record type.
// Calling it with one value per field builds a Record.
type RecordType struct {
	Name   string
	Fields []string
}

type Record struct {
	Type   *RecordType
	Values []Value
}

// NativeBinding tells the VM which implementation to place in a global
// slot before the program runs.
type NativeBinding struct {
	Slot int
	Impl string
}

// Program is the unit of execution the compiler hands to the VM.
type Program struct {
	Main       *Function
	NumGlobals int
	Natives    []NativeBinding
}

// ToString renders a value the way print and the REPL show it.
func ToString(v Value) string {
	switch v := v.(type) {
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case string:
		return v
	case *Array:
		parts := make([]string, len(v.Elems))
		for i, e := range v.Elems {
			parts[i] = ToString(e)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case *Record:
		parts := make([]string, len(v.Values))
		for i, e := range v.Values {
			parts[i] = ToString(e)
		}
		return v.Type.Name + "(" + strings.Join(parts, ", ") + ")"
	case *RecordType:
		return fmt.Sprintf("<type %s>", v.Name)
	case *Function:
		return v.String()
	case *Closure:
		return v.Fn.String()
	case *NativeFunction:
		return fmt.Sprintf("<native %s>", v.Name)
	case *Iterator:
		return "<iterator>"
	case nil:
		return "<undefined>"
	default:
		return fmt.Sprintf("%v", v)
	}
}

// valuesEqual is structural equality for comparable values. Functions
// compare by identity; the resolver keeps them out of = anyway.
func valuesEqual(a, b Value) bool {
	switch a := a.(type) {
	case int64:
		bv, ok := b.(int64)
		return ok && a == bv
	case float64:
		bv, ok := b.(float64)
		return ok && a == bv
	case bool:
		bv, ok := b.(bool)
		return ok && a == bv
	case string:
		bv, ok := b.(string)
		return ok && a == bv
	case *Array:
		bv, ok := b.(*Array)
		if !ok || len(a.Elems) != len(bv.Elems) {
			return false
		}
		for i := range a.Elems {
			if !valuesEqual(a.Elems[i], bv.Elems[i]) {
				return false
			}
		}
		return true
	case *Record:
		bv, ok := b.(*Record)
		if !ok || a.Type.Name != bv.Type.Name || len(a.Values) != len(bv.Values) {
			return false
		}
		for i := range a.Values {
			if !valuesEqual(a.Values[i], bv.Values[i]) {
				return false
			}
		}
		return true
	default:
		return a == b
	}
}
