// internal/bytecode/disassemble.go
package bytecode

import (
	"fmt"
	"strings"
)

// Disassemble renders the whole chunk, one instruction per line.
func (c *Chunk) Disassemble(name string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "== %s ==\n", name)
	for offset := 0; offset < len(c.Code); {
		offset = c.disassembleInstruction(&sb, offset)
	}
	return sb.String()
}

func (c *Chunk) disassembleInstruction(sb *strings.Builder, offset int) int {
	fmt.Fprintf(sb, "%04d ", offset)
	if offset > 0 && c.Line(offset) == c.Line(offset-1) {
		sb.WriteString("   | ")
	} else {
		fmt.Fprintf(sb, "%4d ", c.Line(offset))
	}

	op := OpCode(c.Code[offset])
	switch op {
	case OpConstant:
		idx := c.ReadU16(offset + 1)
		fmt.Fprintf(sb, "%-16s %4d  %v\n", op, idx, c.Constants[idx])
		return offset + 3
	case OpJump, OpJumpIfFalse:
		operand := c.ReadU16(offset + 1)
		fmt.Fprintf(sb, "%-16s %4d  -> %d\n", op, operand, offset+3+int(operand))
		return offset + 3
	case OpClosure:
		idx := c.ReadU16(offset + 1)
		count := int(c.Code[offset+3])
		fmt.Fprintf(sb, "%-16s %4d  %v\n", op, idx, c.Constants[idx])
		at := offset + 4
		for i := 0; i < count; i++ {
			kind := "capture"
			if c.Code[at] == 1 {
				kind = "local"
			}
			fmt.Fprintf(sb, "%04d    |   %s %d\n", at, kind, c.ReadU16(at+1))
			at += 3
		}
		return at
	case OpEndBlock, OpGetLocal, OpGetGlobal, OpDefineGlobal,
		OpGetCapture, OpCall, OpArray, OpGetField:
		fmt.Fprintf(sb, "%-16s %4d\n", op, c.ReadU16(offset+1))
		return offset + 3
	default:
		fmt.Fprintf(sb, "%s\n", op)
		return offset + 1
	}
}
