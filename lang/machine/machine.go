// Package machine implements C7, the bytecode interpreter: a linear
// dispatch loop over compiler.Program executing against a two-sided
// growable Tape.
package machine

import (
	"context"
	"errors"
	"fmt"

	"github.com/mna/bfvm/lang/compiler"
)

// ErrStepBudgetExceeded is returned by RunProgram when Thread.MaxSteps is
// nonzero and is reached before the program's DIE instruction.
var ErrStepBudgetExceeded = errors.New("machine: step budget exceeded")

// BoundsViolation is returned (only ever in Thread.Debug mode) when the
// pointer strays outside the range declared by the most recent
// BOUNDS_CHECK — the sanity check described in spec.md §4.7 and grounded
// on original_source/interpreter.c's #ifndef NDEBUG bound tracking.
type BoundsViolation struct {
	Pointer        int
	DeclaredLow    int
	DeclaredHigh   int
	InstructionPos int
}

func (e *BoundsViolation) Error() string {
	return fmt.Sprintf("machine: pointer %d outside declared bounds [%d,%d] at instruction %d",
		e.Pointer, e.DeclaredLow, e.DeclaredHigh, e.InstructionPos)
}

func (th *Thread) run(ctx context.Context, prog *compiler.Program, tape *Tape) error {
	code := prog.Code
	pc := 0

	var boundLow, boundHigh int
	haveBound := false

	for {
		if th.cancelled.Load() {
			if cause := context.Cause(ctx); cause != nil {
				return cause
			}
			return context.Canceled
		}
		if th.MaxSteps != 0 && th.steps >= th.MaxSteps {
			return ErrStepBudgetExceeded
		}
		th.steps++

		insnPos := pc
		op := compiler.Opcode(code[pc])
		pc++

		if th.Debug && haveBound {
			p := tape.Pointer()
			if p < boundLow || p > boundHigh {
				return &BoundsViolation{Pointer: p, DeclaredLow: boundLow, DeclaredHigh: boundHigh, InstructionPos: insnPos}
			}
		}

		switch op {
		case compiler.ALTER:
			off, amt, next := decodeOffsetAmount(code, pc)
			pc = next
			tape.Move(off)
			tape.SetCell(tape.Cell() + amt)

		case compiler.ALTER_MOVEONLY:
			off, next := decodeOffset(code, pc)
			pc = next
			tape.Move(off)

		case compiler.ALTER_ADDONLY:
			amt, next := decodeAmount(code, pc)
			pc = next
			tape.SetCell(tape.Cell() + amt)

		case compiler.SET:
			amt, next := decodeAmount(code, pc)
			pc = next
			tape.SetCell(amt)

		case compiler.SET_MULTI:
			off, amt, next := decodeOffsetAmount(code, pc)
			pc = next
			for i := 0; i <= off; i++ {
				tape.SetCellAt(i, amt)
			}

		case compiler.MULTIPLY:
			pc = th.execMultiply(tape, code, pc)

		case compiler.SKIP:
			off, next := decodeOffset(code, pc)
			pc = next
			for tape.Cell() != 0 {
				tape.Step(off)
			}

		case compiler.BOUNDS_CHECK:
			off, next := decodeOffset(code, pc)
			pc = next
			tape.Ensure(min(0, off), max(0, off))
			boundLow, boundHigh = min(0, off)+tape.Pointer(), max(0, off)+tape.Pointer()
			haveBound = true

		case compiler.IN:
			var b [1]byte
			n, _ := th.Stdin.Read(b[:])
			if n == 0 {
				tape.SetCell(0)
			} else {
				tape.SetCell(int8(b[0]))
			}

		case compiler.OUT:
			b := [1]byte{byte(tape.Cell())}
			if _, err := th.Stdout.Write(b[:]); err != nil {
				return fmt.Errorf("machine: writing output: %w", err)
			}

		case compiler.DIE:
			return nil

		case compiler.JUMPIFZERO:
			delta, next := decodeJump(code, pc)
			if tape.Cell() == 0 {
				pc = next + delta
			} else {
				pc = next
			}

		case compiler.JUMPIFNONZERO:
			delta, next := decodeJump(code, pc)
			if tape.Cell() != 0 {
				pc = next + delta
			} else {
				pc = next
			}

		default:
			return fmt.Errorf("machine: invalid opcode %d at %d", op, insnPos)
		}
	}
}

// execMultiply decodes and executes one MULTIPLY record starting at pc
// (just past the opcode byte) and returns the position just past it.
func (th *Thread) execMultiply(tape *Tape, code []byte, pc int) int {
	repeat := int(code[pc])
	pc++
	source := tape.Cell()
	for i := 0; i <= repeat; i++ {
		off, amt, next := decodeOffsetAmount(code, pc)
		pc = next
		tape.SetCellAt(off, tape.CellAt(off)+source*amt)
	}
	trailer, next := decodeAmount(code, pc)
	pc = next
	tape.SetCell(trailer)
	return pc
}

func decodeOffset(code []byte, pc int) (int, int) {
	return readVarintIsize(code, pc)
}

func decodeAmount(code []byte, pc int) (int8, int) {
	return int8(code[pc]), pc + 1
}

func decodeOffsetAmount(code []byte, pc int) (int, int8, int) {
	off, pc := readVarintIsize(code, pc)
	amt := int8(code[pc])
	return off, amt, pc + 1
}

// decodeJump reads the fixed-width jump operand at pc, returning the
// decoded delta and the position just past the operand (from which the
// delta is itself relative, per spec.md §3).
func decodeJump(code []byte, pc int) (int, int) {
	const width = 4
	v := int32(uint32(code[pc]) | uint32(code[pc+1])<<8 | uint32(code[pc+2])<<16 | uint32(code[pc+3])<<24)
	return int(v), pc + width
}

// readVarintIsize mirrors lang/compiler's private varint codec; duplicated
// here (rather than exported from compiler) because decoding bytecode
// operands is the interpreter's concern, not the flattener's, and the two
// packages should be able to evolve their internal encodings independently
// as long as they agree on the wire format documented in spec.md §3.
func readVarintIsize(code []byte, pc int) (int, int) {
	var v uint64
	var shift uint
	for {
		b := code[pc]
		pc++
		v |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			break
		}
		shift += 7
	}
	return int((v >> 1) ^ -(v & 1)), pc
}
