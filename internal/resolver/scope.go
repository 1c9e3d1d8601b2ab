// internal/resolver/scope.go
package resolver

import (
	"henrylang/internal/parser"
	"henrylang/internal/types"
)

type local struct {
	name string
	typ  types.Type
}

// funcScope tracks the locals and captures of one function body during
// resolution. Local indices are logical: parameters take 0..arity-1 and
// each := binding the next index, released when its block ends. The
// compiler maps them to frame slots, which also depend on temporaries.
type funcScope struct {
	enclosing *funcScope
	fn        *parser.Lambda // nil for the top-level frame

	locals []local
	marks  []int // local count at each open block

	captures []parser.Capture
}

func (f *funcScope) beginBlock() {
	f.marks = append(f.marks, len(f.locals))
}

// endBlock closes the innermost block and returns how many locals it
// declared.
func (f *funcScope) endBlock() int {
	mark := f.marks[len(f.marks)-1]
	f.marks = f.marks[:len(f.marks)-1]
	n := len(f.locals) - mark
	f.locals = f.locals[:mark]
	return n
}

func (f *funcScope) declare(name string, t types.Type) int {
	f.locals = append(f.locals, local{name: name, typ: t})
	return len(f.locals) - 1
}

// resolveLocal finds the innermost local with the given name.
func (f *funcScope) resolveLocal(name string) (int, types.Type, bool) {
	for i := len(f.locals) - 1; i >= 0; i-- {
		if f.locals[i].name == name {
			return i, f.locals[i].typ, true
		}
	}
	return 0, types.Unresolved, false
}

// resolveCapture walks the enclosing scopes looking for name, threading a
// capture through every intermediate closure. Closures capture by value,
// so the capture list records where to copy from at closure creation.
func (f *funcScope) resolveCapture(name string) (int, types.Type, bool) {
	if f.enclosing == nil {
		return 0, types.Unresolved, false
	}
	if idx, t, ok := f.enclosing.resolveLocal(name); ok {
		return f.addCapture(parser.Capture{FromLocal: true, Index: idx}), t, true
	}
	if idx, t, ok := f.enclosing.resolveCapture(name); ok {
		return f.addCapture(parser.Capture{FromLocal: false, Index: idx}), t, true
	}
	return 0, types.Unresolved, false
}

func (f *funcScope) addCapture(c parser.Capture) int {
	for i, existing := range f.captures {
		if existing == c {
			return i
		}
	}
	f.captures = append(f.captures, c)
	return len(f.captures) - 1
}
