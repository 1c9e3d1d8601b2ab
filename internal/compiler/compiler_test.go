package compiler_test

import (
	"testing"

	"henrylang/internal/bytecode"
	"henrylang/internal/compiler"
	"henrylang/internal/errors"
	"henrylang/internal/vm"
)

func compile(t *testing.T, source string) *vm.Program {
	t.Helper()
	prog, err := compiler.Compile(source)
	if err != nil {
		t.Fatalf("compile failed: %v\nsource:\n%s", err, source)
	}
	return prog
}

type instr struct {
	op      bytecode.OpCode
	operand uint16
}

// decode flattens a chunk into (opcode, first operand) pairs so tests
// can assert on the emitted stream without caring about encoding.
func decode(t *testing.T, c *bytecode.Chunk) []instr {
	t.Helper()
	var out []instr
	for offset := 0; offset < len(c.Code); {
		op := bytecode.OpCode(c.Code[offset])
		switch op {
		case bytecode.OpConstant, bytecode.OpEndBlock, bytecode.OpGetLocal,
			bytecode.OpGetGlobal, bytecode.OpDefineGlobal, bytecode.OpGetCapture,
			bytecode.OpJump, bytecode.OpJumpIfFalse, bytecode.OpCall,
			bytecode.OpArray, bytecode.OpGetField:
			out = append(out, instr{op, c.ReadU16(offset + 1)})
			offset += 3
		case bytecode.OpClosure:
			out = append(out, instr{op, c.ReadU16(offset + 1)})
			offset += 4 + 3*int(c.Code[offset+3])
		default:
			out = append(out, instr{op, 0})
			offset++
		}
	}
	return out
}

func assertOps(t *testing.T, got []instr, want ...bytecode.OpCode) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d instructions %v, want %d %v", len(got), got, len(want), want)
	}
	for i, w := range want {
		if got[i].op != w {
			t.Errorf("instruction %d = %s, want %s", i, got[i].op, w)
		}
	}
}

func TestCompileArithmetic(t *testing.T) {
	prog := compile(t, "1 + 2 * 3")
	assertOps(t, decode(t, prog.Main.Chunk),
		bytecode.OpConstant, bytecode.OpConstant, bytecode.OpConstant,
		bytecode.OpMulInt, bytecode.OpAddInt, bytecode.OpReturn)
}

func TestCompilePicksTypedOpcodes(t *testing.T) {
	tests := []struct {
		source string
		want   bytecode.OpCode
	}{
		{"1 - 2", bytecode.OpSubInt},
		{"1.0 - 2.0", bytecode.OpSubFloat},
		{`"a" + "b"`, bytecode.OpConcat},
		{"[1] + [2]", bytecode.OpConcatArray},
		{"1 < 2", bytecode.OpLessInt},
		{"1.0 >= 2.0", bytecode.OpGreaterEqFloat},
		{"-1.5", bytecode.OpNegFloat},
	}
	for _, tt := range tests {
		prog := compile(t, tt.source)
		found := false
		for _, in := range decode(t, prog.Main.Chunk) {
			if in.op == tt.want {
				found = true
			}
		}
		if !found {
			t.Errorf("source %q: opcode %s not emitted", tt.source, tt.want)
		}
	}
}

func TestCompileGlobalBinding(t *testing.T) {
	prog := compile(t, "x := 1\nx")
	got := decode(t, prog.Main.Chunk)
	assertOps(t, got,
		bytecode.OpConstant, bytecode.OpDefineGlobal, bytecode.OpPop,
		bytecode.OpGetGlobal, bytecode.OpReturn)
	if got[1].operand != got[3].operand {
		t.Errorf("define slot %d but read slot %d", got[1].operand, got[3].operand)
	}
}

func TestCompileShortCircuit(t *testing.T) {
	prog := compile(t, "true and false")
	got := decode(t, prog.Main.Chunk)
	assertOps(t, got,
		bytecode.OpTrue, bytecode.OpJumpIfFalse, bytecode.OpPop,
		bytecode.OpFalse, bytecode.OpReturn)
}

func TestCompileLambda(t *testing.T) {
	prog := compile(t, "f := |a: Int, b: Int|: Int { a + b }\nf(1, 2)")
	got := decode(t, prog.Main.Chunk)
	if got[0].op != bytecode.OpClosure {
		t.Fatalf("first instruction = %s, want CLOSURE", got[0].op)
	}
	fn, ok := prog.Main.Chunk.Constants[got[0].operand].(*vm.Function)
	if !ok {
		t.Fatalf("closure constant = %#v", prog.Main.Chunk.Constants[got[0].operand])
	}
	if fn.Name != "f" || fn.Arity != 2 {
		t.Errorf("function = %s/%d, want f/2", fn.Name, fn.Arity)
	}
	assertOps(t, decode(t, fn.Chunk),
		bytecode.OpGetLocal, bytecode.OpGetLocal,
		bytecode.OpAddInt, bytecode.OpReturn)
}

func TestCompilePipeIsACall(t *testing.T) {
	prog := compile(t, "f := |x: Int|: Int { x }\n1 -> f")
	got := decode(t, prog.Main.Chunk)
	last := got[len(got)-2]
	if last.op != bytecode.OpCall || last.operand != 1 {
		t.Errorf("pipe lowered to %v, want CALL 1", last)
	}
}

// A block in argument position places its locals above the temporaries
// already on the stack, so the local's frame slot is not its logical
// index.
func TestCompileBlockLocalSlotsAccountForTemporaries(t *testing.T) {
	prog := compile(t, "g := |a: Int|: Int { a + { b := a * 2 b + 1 } }\ng(3)")
	got := decode(t, prog.Main.Chunk)
	fn, ok := prog.Main.Chunk.Constants[got[0].operand].(*vm.Function)
	if !ok {
		t.Fatalf("closure constant = %#v", prog.Main.Chunk.Constants[got[0].operand])
	}
	// inside g: slot 0 is a, slot 1 holds the pending left operand of +,
	// so b lives in slot 2
	sawB := false
	for _, in := range decode(t, fn.Chunk) {
		if in.op == bytecode.OpGetLocal && in.operand == 2 {
			sawB = true
		}
	}
	if !sawB {
		t.Errorf("block local should read frame slot 2:\n%s", fn.Chunk.Disassemble("g"))
	}
}

func TestCompileBlockEndDiscardsLocals(t *testing.T) {
	prog := compile(t, "f := ||: Int { a := 1 b := 2 a + b }\nf()")
	got := decode(t, prog.Main.Chunk)
	fn := prog.Main.Chunk.Constants[got[0].operand].(*vm.Function)
	body := decode(t, fn.Chunk)
	found := false
	for _, in := range body {
		if in.op == bytecode.OpEndBlock && in.operand == 2 {
			found = true
		}
	}
	if !found {
		t.Errorf("expected END_BLOCK 2:\n%s", fn.Chunk.Disassemble("f"))
	}
}

func TestCompileNativeTable(t *testing.T) {
	prog := compile(t, "sum(0 to 3)")
	if prog.NumGlobals == 0 {
		t.Error("builtins should occupy global slots")
	}
	found := false
	for _, n := range prog.Natives {
		if n.Impl == "sum_int" {
			found = true
		}
	}
	if !found {
		t.Errorf("natives = %#v, want a sum_int binding", prog.Natives)
	}
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		source string
		kind   errors.Kind
	}{
		{`"unterminated`, errors.LexError},
		{"(1 + 2", errors.ParseError},
		{"1 + true", errors.TypeError},
	}
	for _, tt := range tests {
		_, err := compiler.Compile(tt.source)
		if err == nil {
			t.Errorf("source %q compiled", tt.source)
			continue
		}
		he, ok := err.(*errors.HenryError)
		if !ok || he.Kind != tt.kind {
			t.Errorf("source %q: got %v, want kind %s", tt.source, err, tt.kind)
		}
	}
}

func TestSessionAccumulatesBindings(t *testing.T) {
	s := compiler.NewSession()
	if _, err := s.Compile("x := 41"); err != nil {
		t.Fatalf("first unit: %v", err)
	}
	prog, err := s.Compile("x + 1")
	if err != nil {
		t.Fatalf("second unit: %v", err)
	}
	if prog.NumGlobals == 0 {
		t.Error("session lost its globals")
	}

	names := map[string]bool{}
	for _, g := range s.Globals() {
		names[g.Key] = true
	}
	if !names["x"] {
		t.Errorf("Globals() = %v, want it to include x", s.Globals())
	}
}
