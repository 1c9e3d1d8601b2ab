// internal/vm/iterator.go
package vm

type iterKind uint8

const (
	iterRange iterKind = iota
	iterArray
	iterMap
	iterFilter
)

// Iterator is a lazy producer of values, built as a tagged state machine
// rather than a suspended call stack. map and filter wrap a source stage;
// consumers pull one element at a time through Next. Next advances its
// receiver, so consumers work on a clone of the stage chain and a bound
// iterator stays restartable.
type Iterator struct {
	kind iterKind

	// range state
	next int64
	end  int64
	step int64

	// array state
	arr *Array
	idx int

	// map/filter state
	src *Iterator
	fn  Value
}

// NewRangeIter builds the iterator for `lo to hi`, which yields lo up to
// but excluding hi. A descending range counts down, again excluding hi.
func NewRangeIter(lo, hi int64) *Iterator {
	step := int64(1)
	if lo > hi {
		step = -1
	}
	return &Iterator{kind: iterRange, next: lo, end: hi, step: step}
}

func NewArrayIter(a *Array) *Iterator {
	return &Iterator{kind: iterArray, arr: a}
}

func NewMapIter(fn Value, src *Iterator) *Iterator {
	return &Iterator{kind: iterMap, fn: fn, src: src}
}

func NewFilterIter(fn Value, src *Iterator) *Iterator {
	return &Iterator{kind: iterFilter, fn: fn, src: src}
}

// Next pulls one element. It needs the VM because map and filter stages
// call back into language-level functions.
func (it *Iterator) Next(m *VM) (Value, bool, error) {
	switch it.kind {
	case iterRange:
		if it.next == it.end {
			return nil, false, nil
		}
		v := it.next
		it.next += it.step
		return v, true, nil

	case iterArray:
		if it.idx >= len(it.arr.Elems) {
			return nil, false, nil
		}
		v := it.arr.Elems[it.idx]
		it.idx++
		return v, true, nil

	case iterMap:
		v, ok, err := it.src.Next(m)
		if err != nil || !ok {
			return nil, false, err
		}
		mapped, err := m.apply(it.fn, []Value{v})
		if err != nil {
			return nil, false, err
		}
		return mapped, true, nil

	case iterFilter:
		for {
			v, ok, err := it.src.Next(m)
			if err != nil || !ok {
				return nil, false, err
			}
			keep, err := m.apply(it.fn, []Value{v})
			if err != nil {
				return nil, false, err
			}
			if keep.(bool) {
				return v, true, nil
			}
		}
	}
	return nil, false, nil
}

// clone copies the whole stage chain so one consumer's pulls never
// advance another's. Stage functions are shared; they are immutable.
func (it *Iterator) clone() *Iterator {
	cp := *it
	if it.src != nil {
		cp.src = it.src.clone()
	}
	return &cp
}

// asIter adapts a consumable value: iterators are cloned so the binding
// stays restartable, arrays get a fresh cursor each time.
func asIter(v Value) *Iterator {
	switch v := v.(type) {
	case *Iterator:
		return v.clone()
	case *Array:
		return NewArrayIter(v)
	}
	return nil
}
