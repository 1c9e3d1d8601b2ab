// internal/bytecode/chunk.go
package bytecode

import "encoding/binary"

// Chunk is one compiled function body: code, its constant pool and a
// per-byte line table for fault reporting. Constants hold runtime values
// (numbers, strings, nested Functions); the chunk does not interpret them.
type Chunk struct {
	Code      []byte
	Constants []any
	Lines     []int
}

func NewChunk() *Chunk {
	return &Chunk{}
}

func (c *Chunk) WriteOp(op OpCode, line int) {
	c.Code = append(c.Code, byte(op))
	c.Lines = append(c.Lines, line)
}

func (c *Chunk) WriteByte(b byte, line int) {
	c.Code = append(c.Code, b)
	c.Lines = append(c.Lines, line)
}

func (c *Chunk) WriteU16(v uint16, line int) {
	var buf [2]byte
	binary.BigEndian.PutUint16(buf[:], v)
	c.Code = append(c.Code, buf[0], buf[1])
	c.Lines = append(c.Lines, line, line)
}

// ReadU16 decodes the operand starting at offset.
func (c *Chunk) ReadU16(offset int) uint16 {
	return binary.BigEndian.Uint16(c.Code[offset:])
}

// PatchU16 overwrites a previously written operand, used for jump
// backpatching.
func (c *Chunk) PatchU16(offset int, v uint16) {
	binary.BigEndian.PutUint16(c.Code[offset:], v)
}

// AddConstant appends a value to the pool and returns its index.
func (c *Chunk) AddConstant(v any) int {
	c.Constants = append(c.Constants, v)
	return len(c.Constants) - 1
}

// Line reports the source line of the byte at offset.
func (c *Chunk) Line(offset int) int {
	if offset < len(c.Lines) {
		return c.Lines[offset]
	}
	return 0
}
