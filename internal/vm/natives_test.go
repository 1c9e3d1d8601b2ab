package vm

import (
	"testing"

	"henrylang/internal/builtins"
)

// Every implementation name the resolver can emit must exist here;
// a missing one would only surface as a runtime InternalError.
func TestEveryFixedBuiltinHasAnImplementation(t *testing.T) {
	for _, b := range builtins.Fixed() {
		if _, ok := newNative(b.Impl); !ok {
			t.Errorf("fixed builtin %s has no native implementation %q", b.Key, b.Impl)
		}
	}
}

func TestEveryGenericImplExists(t *testing.T) {
	impls := []string{
		"map", "filter", "reduce",
		"sum_int", "sum_float", "prod_int", "prod_float",
		"all", "any", "len_arr", "collect",
	}
	for _, impl := range impls {
		if _, ok := newNative(impl); !ok {
			t.Errorf("generic builtin implementation %q missing", impl)
		}
	}
}

func TestPowInt(t *testing.T) {
	tests := []struct {
		base, exp, want int64
	}{
		{2, 0, 1},
		{2, 10, 1024},
		{-3, 3, -27},
		{0, 0, 1},
		{5, -1, 0},
		{1, -7, 1},
		{-1, -3, -1},
		{-1, -4, 1},
	}
	for _, tt := range tests {
		if got := powInt(tt.base, tt.exp); got != tt.want {
			t.Errorf("powInt(%d, %d) = %d, want %d", tt.base, tt.exp, got, tt.want)
		}
	}
}

func TestRangeIterator(t *testing.T) {
	drain := func(it *Iterator) []int64 {
		var out []int64
		for {
			v, ok, err := it.Next(nil)
			if err != nil {
				t.Fatalf("next: %v", err)
			}
			if !ok {
				return out
			}
			out = append(out, v.(int64))
		}
	}

	got := drain(NewRangeIter(0, 4))
	want := []int64{0, 1, 2, 3}
	if len(got) != len(want) {
		t.Fatalf("got %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}

	if got := drain(NewRangeIter(3, 3)); len(got) != 0 {
		t.Errorf("empty range yielded %v", got)
	}
	if got := drain(NewRangeIter(3, 0)); len(got) != 3 || got[0] != 3 || got[2] != 1 {
		t.Errorf("descending range yielded %v", got)
	}
}

func TestDrainingACloneLeavesTheSourceFresh(t *testing.T) {
	it := NewMapIter(nil, NewRangeIter(0, 3))
	c := asIter(it)
	for {
		_, ok, _ := c.src.Next(nil)
		if !ok {
			break
		}
	}
	if v, ok, _ := it.src.Next(nil); !ok || v.(int64) != 0 {
		t.Errorf("source stage advanced with the clone: got %v, %t", v, ok)
	}
}

func TestValuesEqual(t *testing.T) {
	pt := &RecordType{Name: "Point", Fields: []string{"x", "y"}}
	tests := []struct {
		a, b Value
		want bool
	}{
		{int64(1), int64(1), true},
		{int64(1), int64(2), false},
		{int64(1), float64(1), false},
		{"a", "a", true},
		{&Array{Elems: []Value{int64(1)}}, &Array{Elems: []Value{int64(1)}}, true},
		{&Array{Elems: []Value{int64(1)}}, &Array{Elems: []Value{int64(2)}}, false},
		{&Record{Type: pt, Values: []Value{int64(1), int64(2)}},
			&Record{Type: pt, Values: []Value{int64(1), int64(2)}}, true},
		{&Record{Type: pt, Values: []Value{int64(1), int64(2)}},
			&Record{Type: pt, Values: []Value{int64(2), int64(1)}}, false},
	}
	for _, tt := range tests {
		if got := valuesEqual(tt.a, tt.b); got != tt.want {
			t.Errorf("valuesEqual(%v, %v) = %t, want %t",
				ToString(tt.a), ToString(tt.b), got, tt.want)
		}
	}
}
