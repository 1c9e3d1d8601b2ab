// internal/vm/vm.go
//
// The stack machine. One value stack shared by all frames; a frame's
// locals are the stack slots starting at its slotBase. Calls push the
// arguments, then the callee, then OpCall.
package vm

import (
	"fmt"
	"io"
	"os"

	"henrylang/internal/bytecode"
	"henrylang/internal/errors"
)

// MaxFrames bounds call depth; exceeding it faults StackOverflow.
const MaxFrames = 1024

type CallFrame struct {
	closure  *Closure
	ip       int
	slotBase int
}

type VM struct {
	stack   []Value
	frames  []CallFrame
	globals []Value
	stdout  io.Writer
}

func New() *VM {
	return NewWithOutput(os.Stdout)
}

func NewWithOutput(w io.Writer) *VM {
	return &VM{stdout: w}
}

// Run executes a program and returns its final value. Globals survive
// across calls, so a REPL session can feed programs one after another.
func (m *VM) Run(p *Program) (Value, error) {
	for len(m.globals) < p.NumGlobals {
		m.globals = append(m.globals, nil)
	}
	for _, b := range p.Natives {
		if m.globals[b.Slot] != nil {
			continue
		}
		v, ok := newNative(b.Impl)
		if !ok {
			return nil, errors.NewInternal(fmt.Sprintf("no native implementation '%s'", b.Impl))
		}
		m.globals[b.Slot] = v
	}

	m.stack = m.stack[:0]
	m.frames = m.frames[:0]
	m.frames = append(m.frames, CallFrame{closure: &Closure{Fn: p.Main}})
	if err := m.run(0); err != nil {
		return nil, err
	}
	return m.pop(), nil
}

func (m *VM) run(stopDepth int) error {
	for len(m.frames) > stopDepth {
		frame := &m.frames[len(m.frames)-1]
		chunk := frame.closure.Fn.Chunk
		opAt := frame.ip
		op := bytecode.OpCode(chunk.Code[frame.ip])
		frame.ip++

		switch op {
		case bytecode.OpConstant:
			m.push(chunk.Constants[m.readU16(frame, chunk)])

		case bytecode.OpTrue:
			m.push(true)
		case bytecode.OpFalse:
			m.push(false)
		case bytecode.OpPop:
			m.pop()
		case bytecode.OpEndBlock:
			n := int(m.readU16(frame, chunk))
			v := m.pop()
			m.stack = m.stack[:len(m.stack)-n]
			m.push(v)

		case bytecode.OpGetLocal:
			m.push(m.stack[frame.slotBase+int(m.readU16(frame, chunk))])
		case bytecode.OpGetGlobal:
			v := m.globals[m.readU16(frame, chunk)]
			if v == nil {
				return errors.NewFault(errors.UndefinedGlobal,
					"Global referenced before its definition", chunk.Line(opAt))
			}
			m.push(v)
		case bytecode.OpDefineGlobal:
			m.globals[m.readU16(frame, chunk)] = m.peek(0)
		case bytecode.OpGetCapture:
			m.push(frame.closure.Captured[m.readU16(frame, chunk)])

		case bytecode.OpJump:
			frame.ip += int(m.readU16(frame, chunk))
		case bytecode.OpJumpIfFalse:
			off := int(m.readU16(frame, chunk))
			if !m.peek(0).(bool) {
				frame.ip += off
			}

		case bytecode.OpCall:
			argc := int(m.readU16(frame, chunk))
			if err := m.callValue(argc, chunk.Line(opAt)); err != nil {
				return err
			}

		case bytecode.OpClosure:
			fn := chunk.Constants[m.readU16(frame, chunk)].(*Function)
			count := int(chunk.Code[frame.ip])
			frame.ip++
			captured := make([]Value, count)
			for i := 0; i < count; i++ {
				fromLocal := chunk.Code[frame.ip] == 1
				frame.ip++
				idx := int(chunk.ReadU16(frame.ip))
				frame.ip += 2
				if fromLocal {
					captured[i] = m.stack[frame.slotBase+idx]
				} else {
					captured[i] = frame.closure.Captured[idx]
				}
			}
			m.push(&Closure{Fn: fn, Captured: captured})

		case bytecode.OpReturn:
			result := m.pop()
			m.stack = m.stack[:frame.slotBase]
			m.frames = m.frames[:len(m.frames)-1]
			m.push(result)

		case bytecode.OpAddInt:
			b, a := m.popInt(), m.popInt()
			m.push(a + b)
		case bytecode.OpSubInt:
			b, a := m.popInt(), m.popInt()
			m.push(a - b)
		case bytecode.OpMulInt:
			b, a := m.popInt(), m.popInt()
			m.push(a * b)
		case bytecode.OpDivInt:
			b, a := m.popInt(), m.popInt()
			if b == 0 {
				return errors.NewFault(errors.DivisionByZero, "Division by zero", chunk.Line(opAt))
			}
			m.push(a / b)
		case bytecode.OpNegInt:
			m.push(-m.popInt())

		case bytecode.OpAddFloat:
			b, a := m.popFloat(), m.popFloat()
			m.push(a + b)
		case bytecode.OpSubFloat:
			b, a := m.popFloat(), m.popFloat()
			m.push(a - b)
		case bytecode.OpMulFloat:
			b, a := m.popFloat(), m.popFloat()
			m.push(a * b)
		case bytecode.OpDivFloat:
			b, a := m.popFloat(), m.popFloat()
			m.push(a / b)
		case bytecode.OpNegFloat:
			m.push(-m.popFloat())

		case bytecode.OpConcat:
			b, a := m.pop().(string), m.pop().(string)
			m.push(a + b)
		case bytecode.OpConcatArray:
			b, a := m.pop().(*Array), m.pop().(*Array)
			elems := make([]Value, 0, len(a.Elems)+len(b.Elems))
			elems = append(elems, a.Elems...)
			elems = append(elems, b.Elems...)
			m.push(&Array{Elems: elems})

		case bytecode.OpNot:
			m.push(!m.pop().(bool))
		case bytecode.OpEqual:
			b, a := m.pop(), m.pop()
			m.push(valuesEqual(a, b))
		case bytecode.OpNotEqual:
			b, a := m.pop(), m.pop()
			m.push(!valuesEqual(a, b))

		case bytecode.OpLessInt:
			b, a := m.popInt(), m.popInt()
			m.push(a < b)
		case bytecode.OpLessEqInt:
			b, a := m.popInt(), m.popInt()
			m.push(a <= b)
		case bytecode.OpGreaterInt:
			b, a := m.popInt(), m.popInt()
			m.push(a > b)
		case bytecode.OpGreaterEqInt:
			b, a := m.popInt(), m.popInt()
			m.push(a >= b)
		case bytecode.OpLessFloat:
			b, a := m.popFloat(), m.popFloat()
			m.push(a < b)
		case bytecode.OpLessEqFloat:
			b, a := m.popFloat(), m.popFloat()
			m.push(a <= b)
		case bytecode.OpGreaterFloat:
			b, a := m.popFloat(), m.popFloat()
			m.push(a > b)
		case bytecode.OpGreaterEqFloat:
			b, a := m.popFloat(), m.popFloat()
			m.push(a >= b)

		case bytecode.OpRange:
			hi, lo := m.popInt(), m.popInt()
			m.push(NewRangeIter(lo, hi))
		case bytecode.OpArray:
			n := int(m.readU16(frame, chunk))
			elems := make([]Value, n)
			copy(elems, m.stack[len(m.stack)-n:])
			m.stack = m.stack[:len(m.stack)-n]
			m.push(&Array{Elems: elems})
		case bytecode.OpIndex:
			idx := m.popInt()
			arr := m.pop().(*Array)
			if idx < 0 || idx >= int64(len(arr.Elems)) {
				return errors.NewFault(errors.IndexOutOfBounds,
					fmt.Sprintf("Index %d out of bounds for array of length %d", idx, len(arr.Elems)),
					chunk.Line(opAt))
			}
			m.push(arr.Elems[idx])
		case bytecode.OpGetField:
			fi := int(m.readU16(frame, chunk))
			rec := m.pop().(*Record)
			m.push(rec.Values[fi])

		default:
			return errors.NewInternal(fmt.Sprintf("unknown opcode %d", op))
		}
	}
	return nil
}

// callValue dispatches on the callee sitting on top of the stack, above
// the arguments.
func (m *VM) callValue(argc, line int) error {
	callee := m.pop()
	switch c := callee.(type) {
	case *Closure:
		if len(m.frames) >= MaxFrames {
			return errors.NewFault(errors.StackOverflow, "Stack overflow", line)
		}
		m.frames = append(m.frames, CallFrame{closure: c, slotBase: len(m.stack) - argc})
		return nil
	case *NativeFunction:
		args := make([]Value, argc)
		copy(args, m.stack[len(m.stack)-argc:])
		m.stack = m.stack[:len(m.stack)-argc]
		res, err := c.Fn(m, args)
		if err != nil {
			if he, ok := err.(*errors.HenryError); ok && he.Line == 0 {
				he.Line = line
			}
			return err
		}
		m.push(res)
		return nil
	case *RecordType:
		vals := make([]Value, argc)
		copy(vals, m.stack[len(m.stack)-argc:])
		m.stack = m.stack[:len(m.stack)-argc]
		m.push(&Record{Type: c, Values: vals})
		return nil
	default:
		return errors.NewFault(errors.BadCall,
			fmt.Sprintf("Cannot call value %s", ToString(callee)), line)
	}
}

// apply calls a function value from native code (iterator stages,
// reduce) by re-entering the interpreter loop.
func (m *VM) apply(fn Value, args []Value) (Value, error) {
	if nf, ok := fn.(*NativeFunction); ok {
		return nf.Fn(m, args)
	}
	depth := len(m.frames)
	for _, a := range args {
		m.push(a)
	}
	m.push(fn)
	if err := m.callValue(len(args), 0); err != nil {
		return nil, err
	}
	if len(m.frames) > depth {
		if err := m.run(depth); err != nil {
			return nil, err
		}
	}
	return m.pop(), nil
}

func (m *VM) readU16(frame *CallFrame, chunk *bytecode.Chunk) uint16 {
	v := chunk.ReadU16(frame.ip)
	frame.ip += 2
	return v
}

func (m *VM) push(v Value) {
	m.stack = append(m.stack, v)
}

func (m *VM) pop() Value {
	v := m.stack[len(m.stack)-1]
	m.stack = m.stack[:len(m.stack)-1]
	return v
}

func (m *VM) popInt() int64 {
	return m.pop().(int64)
}

func (m *VM) popFloat() float64 {
	return m.pop().(float64)
}

func (m *VM) peek(distance int) Value {
	return m.stack[len(m.stack)-1-distance]
}
