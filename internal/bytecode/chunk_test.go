package bytecode

import (
	"strings"
	"testing"
)

func TestWriteAndReadU16(t *testing.T) {
	c := NewChunk()
	c.WriteOp(OpConstant, 1)
	c.WriteU16(0xbeef, 1)
	if got := c.ReadU16(1); got != 0xbeef {
		t.Errorf("ReadU16 = %#x, want 0xbeef", got)
	}
	// big-endian on the wire
	if c.Code[1] != 0xbe || c.Code[2] != 0xef {
		t.Errorf("operand bytes = %#x %#x", c.Code[1], c.Code[2])
	}
}

func TestPatchU16(t *testing.T) {
	c := NewChunk()
	c.WriteOp(OpJump, 1)
	c.WriteU16(0xffff, 1)
	c.PatchU16(1, 7)
	if got := c.ReadU16(1); got != 7 {
		t.Errorf("patched operand = %d, want 7", got)
	}
}

func TestLineTable(t *testing.T) {
	c := NewChunk()
	c.WriteOp(OpTrue, 3)
	c.WriteOp(OpGetGlobal, 5)
	c.WriteU16(0, 5)
	if c.Line(0) != 3 {
		t.Errorf("Line(0) = %d, want 3", c.Line(0))
	}
	for off := 1; off < 4; off++ {
		if c.Line(off) != 5 {
			t.Errorf("Line(%d) = %d, want 5", off, c.Line(off))
		}
	}
	if c.Line(99) != 0 {
		t.Errorf("out-of-range offset should report line 0, got %d", c.Line(99))
	}
}

func TestAddConstant(t *testing.T) {
	c := NewChunk()
	if idx := c.AddConstant(int64(1)); idx != 0 {
		t.Errorf("first constant index = %d", idx)
	}
	if idx := c.AddConstant("s"); idx != 1 {
		t.Errorf("second constant index = %d", idx)
	}
}

func TestOpCodeNames(t *testing.T) {
	if OpAddInt.String() != "ADD_INT" {
		t.Errorf("OpAddInt = %s", OpAddInt)
	}
	if OpCode(0xff).String() != "UNKNOWN" {
		t.Errorf("invalid opcode = %s", OpCode(0xff))
	}
}

func TestDisassemble(t *testing.T) {
	c := NewChunk()
	idx := c.AddConstant(int64(42))
	c.WriteOp(OpConstant, 1)
	c.WriteU16(uint16(idx), 1)
	c.WriteOp(OpJumpIfFalse, 1)
	c.WriteU16(4, 1)
	c.WriteOp(OpPop, 2)
	c.WriteOp(OpReturn, 2)

	out := c.Disassemble("test")
	for _, want := range []string{
		"== test ==",
		"CONSTANT",
		"42",
		"JUMP_IF_FALSE",
		"-> 10", // operand 4 from the byte after the jump
		"POP",
		"RETURN",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("disassembly missing %q:\n%s", want, out)
		}
	}
	// same-line instructions collapse the line column
	if !strings.Contains(out, "   | ") {
		t.Errorf("expected a line continuation marker:\n%s", out)
	}
}
