// internal/builtins/builtins.go
//
// The builtin registry. The resolver reads the fixed table to seed the
// global scope with typed overloads; the VM reads the same table to
// prefill the matching global slots with native implementations, keyed by
// Impl. Element-generic builtins (map, sum, ...) have no fixed signatures;
// the resolver instantiates them per call site and records the
// instantiations on the compiled program.
package builtins

import "henrylang/internal/types"

// Info binds one concrete overload: the mangled storage key the resolver
// uses, the implementation name the VM dispatches on, and the full type.
type Info struct {
	Key  string
	Impl string
	Sig  types.Type
}

func fn(params []types.Type, ret types.Type) types.Type {
	return types.Func(params, ret)
}

// fixed is the table of concretely-typed builtins, in slot order. The
// order is load-bearing: resolver and VM both walk it front to back.
var fixed = []Info{
	{Key: "sqrt[Float]", Impl: "sqrt_float", Sig: fn([]types.Type{types.Float}, types.Float)},
	{Key: "sqrt[Int]", Impl: "sqrt_int", Sig: fn([]types.Type{types.Int}, types.Float)},
	{Key: "abs[Int]", Impl: "abs_int", Sig: fn([]types.Type{types.Int}, types.Int)},
	{Key: "abs[Float]", Impl: "abs_float", Sig: fn([]types.Type{types.Float}, types.Float)},
	{Key: "pow[Int, Int]", Impl: "pow_int", Sig: fn([]types.Type{types.Int, types.Int}, types.Int)},
	{Key: "pow[Float, Float]", Impl: "pow_float", Sig: fn([]types.Type{types.Float, types.Float}, types.Float)},
	{Key: "mod[Int, Int]", Impl: "mod_int", Sig: fn([]types.Type{types.Int, types.Int}, types.Int)},
	{Key: "int[Float]", Impl: "int_of_float", Sig: fn([]types.Type{types.Float}, types.Int)},
	{Key: "float[Int]", Impl: "float_of_int", Sig: fn([]types.Type{types.Int}, types.Float)},
	{Key: "str[Int]", Impl: "str_of_int", Sig: fn([]types.Type{types.Int}, types.Str)},
	{Key: "str[Float]", Impl: "str_of_float", Sig: fn([]types.Type{types.Float}, types.Str)},
	{Key: "str[Bool]", Impl: "str_of_bool", Sig: fn([]types.Type{types.Bool}, types.Str)},
	{Key: "print[Str]", Impl: "print", Sig: fn([]types.Type{types.Str}, types.Str)},
	{Key: "time[]", Impl: "time", Sig: fn(nil, types.Int)},
	{Key: "len[Str]", Impl: "len_str", Sig: fn([]types.Type{types.Str}, types.Int)},
	{Key: "E", Impl: "E", Sig: types.Float},
}

// Fixed returns the concrete builtin table in slot order.
func Fixed() []Info {
	return fixed
}

// genericNames are builtins whose signatures depend on the element type
// of the sequence they consume. The resolver types each call site ad hoc.
var genericNames = map[string]bool{
	"map":     true,
	"filter":  true,
	"reduce":  true,
	"sum":     true,
	"prod":    true,
	"all":     true,
	"any":     true,
	"len":     true,
	"collect": true,
}

// IsGeneric reports whether name is an element-generic builtin.
func IsGeneric(name string) bool {
	return genericNames[name]
}
