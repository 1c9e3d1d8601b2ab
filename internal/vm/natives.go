// internal/vm/natives.go
//
// Native implementations of the builtin registry. The resolver names an
// implementation per instantiated overload ("sum_int", "len_arr"); the VM
// places the matching Go function into the overload's global slot before
// the program runs.
package vm

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"henrylang/internal/errors"
)

func native(name string, arity int, fn func(m *VM, args []Value) (Value, error)) *NativeFunction {
	return &NativeFunction{Name: name, Arity: arity, Fn: fn}
}

func fault(code errors.Code, message string) error {
	return errors.NewFault(code, message, 0)
}

// newNative builds the value for one implementation name.
func newNative(impl string) (Value, bool) {
	switch impl {
	case "E":
		return float64(math.E), true

	case "sqrt_float":
		return native(impl, 1, func(m *VM, args []Value) (Value, error) {
			return math.Sqrt(args[0].(float64)), nil
		}), true
	case "sqrt_int":
		return native(impl, 1, func(m *VM, args []Value) (Value, error) {
			return math.Sqrt(float64(args[0].(int64))), nil
		}), true
	case "abs_int":
		return native(impl, 1, func(m *VM, args []Value) (Value, error) {
			v := args[0].(int64)
			if v < 0 {
				v = -v
			}
			return v, nil
		}), true
	case "abs_float":
		return native(impl, 1, func(m *VM, args []Value) (Value, error) {
			return math.Abs(args[0].(float64)), nil
		}), true
	case "pow_int":
		return native(impl, 2, func(m *VM, args []Value) (Value, error) {
			return powInt(args[0].(int64), args[1].(int64)), nil
		}), true
	case "pow_float":
		return native(impl, 2, func(m *VM, args []Value) (Value, error) {
			return math.Pow(args[0].(float64), args[1].(float64)), nil
		}), true
	case "mod_int":
		return native(impl, 2, func(m *VM, args []Value) (Value, error) {
			a, b := args[0].(int64), args[1].(int64)
			if b == 0 {
				return nil, fault(errors.DivisionByZero, "mod by zero")
			}
			r := a % b
			if r < 0 {
				if b < 0 {
					r -= b
				} else {
					r += b
				}
			}
			return r, nil
		}), true

	case "int_of_float":
		return native(impl, 1, func(m *VM, args []Value) (Value, error) {
			return int64(args[0].(float64)), nil
		}), true
	case "float_of_int":
		return native(impl, 1, func(m *VM, args []Value) (Value, error) {
			return float64(args[0].(int64)), nil
		}), true
	case "str_of_int":
		return native(impl, 1, func(m *VM, args []Value) (Value, error) {
			return strconv.FormatInt(args[0].(int64), 10), nil
		}), true
	case "str_of_float":
		return native(impl, 1, func(m *VM, args []Value) (Value, error) {
			return strconv.FormatFloat(args[0].(float64), 'g', -1, 64), nil
		}), true
	case "str_of_bool":
		return native(impl, 1, func(m *VM, args []Value) (Value, error) {
			return strconv.FormatBool(args[0].(bool)), nil
		}), true

	case "print":
		return native(impl, 1, func(m *VM, args []Value) (Value, error) {
			fmt.Fprintln(m.stdout, args[0].(string))
			return args[0], nil
		}), true
	case "time":
		return native(impl, 0, func(m *VM, args []Value) (Value, error) {
			return time.Now().UnixMicro(), nil
		}), true

	case "len_str":
		return native(impl, 1, func(m *VM, args []Value) (Value, error) {
			return int64(len(args[0].(string))), nil
		}), true
	case "len_arr":
		return native(impl, 1, func(m *VM, args []Value) (Value, error) {
			return int64(len(args[0].(*Array).Elems)), nil
		}), true

	case "map":
		return native(impl, 2, func(m *VM, args []Value) (Value, error) {
			return NewMapIter(args[0], asIter(args[1])), nil
		}), true
	case "filter":
		return native(impl, 2, func(m *VM, args []Value) (Value, error) {
			return NewFilterIter(args[0], asIter(args[1])), nil
		}), true
	case "reduce":
		return native(impl, 3, func(m *VM, args []Value) (Value, error) {
			it := asIter(args[1])
			acc := args[2]
			for {
				v, ok, err := it.Next(m)
				if err != nil {
					return nil, err
				}
				if !ok {
					return acc, nil
				}
				acc, err = m.apply(args[0], []Value{acc, v})
				if err != nil {
					return nil, err
				}
			}
		}), true

	case "sum_int":
		return native(impl, 1, func(m *VM, args []Value) (Value, error) {
			acc := int64(0)
			return foldNumeric(m, args[0], func(v Value) { acc += v.(int64) }, func() Value { return acc })
		}), true
	case "sum_float":
		return native(impl, 1, func(m *VM, args []Value) (Value, error) {
			acc := float64(0)
			return foldNumeric(m, args[0], func(v Value) { acc += v.(float64) }, func() Value { return acc })
		}), true
	case "prod_int":
		return native(impl, 1, func(m *VM, args []Value) (Value, error) {
			acc := int64(1)
			return foldNumeric(m, args[0], func(v Value) { acc *= v.(int64) }, func() Value { return acc })
		}), true
	case "prod_float":
		return native(impl, 1, func(m *VM, args []Value) (Value, error) {
			acc := float64(1)
			return foldNumeric(m, args[0], func(v Value) { acc *= v.(float64) }, func() Value { return acc })
		}), true

	case "all":
		return native(impl, 1, func(m *VM, args []Value) (Value, error) {
			it := asIter(args[0])
			for {
				v, ok, err := it.Next(m)
				if err != nil {
					return nil, err
				}
				if !ok {
					return true, nil
				}
				if !v.(bool) {
					return false, nil
				}
			}
		}), true
	case "any":
		return native(impl, 1, func(m *VM, args []Value) (Value, error) {
			it := asIter(args[0])
			for {
				v, ok, err := it.Next(m)
				if err != nil {
					return nil, err
				}
				if !ok {
					return false, nil
				}
				if v.(bool) {
					return true, nil
				}
			}
		}), true

	case "collect":
		return native(impl, 1, func(m *VM, args []Value) (Value, error) {
			it := asIter(args[0])
			out := &Array{}
			for {
				v, ok, err := it.Next(m)
				if err != nil {
					return nil, err
				}
				if !ok {
					return out, nil
				}
				out.Elems = append(out.Elems, v)
			}
		}), true
	}
	return nil, false
}

func foldNumeric(m *VM, seq Value, step func(Value), result func() Value) (Value, error) {
	it := asIter(seq)
	for {
		v, ok, err := it.Next(m)
		if err != nil {
			return nil, err
		}
		if !ok {
			return result(), nil
		}
		step(v)
	}
}

// powInt is exponentiation by squaring over int64, wrapping on overflow
// like the arithmetic ops. A negative exponent truncates to zero, except
// for bases whose reciprocal is integral.
func powInt(base, exp int64) int64 {
	if exp < 0 {
		switch base {
		case 1:
			return 1
		case -1:
			if exp%2 == 0 {
				return 1
			}
			return -1
		}
		return 0
	}
	result := int64(1)
	for exp > 0 {
		if exp&1 == 1 {
			result *= base
		}
		base *= base
		exp >>= 1
	}
	return result
}
