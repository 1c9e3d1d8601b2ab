// internal/bytecode/opcodes.go
package bytecode

// OpCode is one VM instruction. Operands are 16-bit big-endian and
// arithmetic is split by static type; the resolver guarantees the
// operand types, so the VM never checks them.
type OpCode byte

const (
	OpConstant OpCode = iota // u16 constant index
	OpTrue
	OpFalse
	OpPop
	OpEndBlock // u16 locals to discard below the block's value

	OpGetLocal     // u16 frame slot
	OpGetGlobal    // u16 global slot
	OpDefineGlobal // u16 global slot; leaves the value on the stack
	OpGetCapture   // u16 capture index

	OpJump        // u16 forward offset
	OpJumpIfFalse // u16 forward offset; peeks, does not pop
	OpCall        // u16 argument count; callee sits above the arguments
	OpClosure     // u16 constant (Function), u8 capture count, then per capture u8 fromLocal + u16 index
	OpReturn

	OpAddInt
	OpSubInt
	OpMulInt
	OpDivInt
	OpNegInt
	OpAddFloat
	OpSubFloat
	OpMulFloat
	OpDivFloat
	OpNegFloat
	OpConcat      // string concatenation
	OpConcatArray // array concatenation

	OpNot
	OpEqual
	OpNotEqual
	OpLessInt
	OpLessEqInt
	OpGreaterInt
	OpGreaterEqInt
	OpLessFloat
	OpLessEqFloat
	OpGreaterFloat
	OpGreaterEqFloat

	OpRange    // pops high then low, pushes an Int range iterator
	OpArray    // u16 element count
	OpIndex    // pops index then array
	OpGetField // u16 field position
)

var opNames = [...]string{
	OpConstant:       "CONSTANT",
	OpTrue:           "TRUE",
	OpFalse:          "FALSE",
	OpPop:            "POP",
	OpEndBlock:       "END_BLOCK",
	OpGetLocal:       "GET_LOCAL",
	OpGetGlobal:      "GET_GLOBAL",
	OpDefineGlobal:   "DEFINE_GLOBAL",
	OpGetCapture:     "GET_CAPTURE",
	OpJump:           "JUMP",
	OpJumpIfFalse:    "JUMP_IF_FALSE",
	OpCall:           "CALL",
	OpClosure:        "CLOSURE",
	OpReturn:         "RETURN",
	OpAddInt:         "ADD_INT",
	OpSubInt:         "SUB_INT",
	OpMulInt:         "MUL_INT",
	OpDivInt:         "DIV_INT",
	OpNegInt:         "NEG_INT",
	OpAddFloat:       "ADD_FLOAT",
	OpSubFloat:       "SUB_FLOAT",
	OpMulFloat:       "MUL_FLOAT",
	OpDivFloat:       "DIV_FLOAT",
	OpNegFloat:       "NEG_FLOAT",
	OpConcat:         "CONCAT",
	OpConcatArray:    "CONCAT_ARRAY",
	OpNot:            "NOT",
	OpEqual:          "EQUAL",
	OpNotEqual:       "NOT_EQUAL",
	OpLessInt:        "LESS_INT",
	OpLessEqInt:      "LESS_EQ_INT",
	OpGreaterInt:     "GREATER_INT",
	OpGreaterEqInt:   "GREATER_EQ_INT",
	OpLessFloat:      "LESS_FLOAT",
	OpLessEqFloat:    "LESS_EQ_FLOAT",
	OpGreaterFloat:   "GREATER_FLOAT",
	OpGreaterEqFloat: "GREATER_EQ_FLOAT",
	OpRange:          "RANGE",
	OpArray:          "ARRAY",
	OpIndex:          "INDEX",
	OpGetField:       "GET_FIELD",
}

func (op OpCode) String() string {
	if int(op) < len(opNames) && opNames[op] != "" {
		return opNames[op]
	}
	return "UNKNOWN"
}
