package compiler

import (
	"fmt"
	"strconv"
	"strings"
)

// Disassemble renders p's bytecode as one line per instruction, prefixed
// with its address and, for jumps, the resolved absolute target address —
// the format --dump-opcodes exposes and the one internal/dump's golden
// .ops.want files hold.
//
// Grounded on lang/compiler/asm.go's Dasm (address-prefixed, one
// instruction per line) crossed with original_source/debug.c's
// print_flattened, which is the only place in the pack that annotates a
// jump with its resolved target address rather than a raw relative delta.
func Disassemble(p *Program) string {
	var sb strings.Builder
	pc := 0
	for pc < len(p.Code) {
		start := pc
		op := Opcode(p.Code[pc])
		pc++

		fmt.Fprintf(&sb, "%08x: %s", start, op)

		switch op {
		case ALTER:
			var off int
			var amt int8
			off, pc = readIsize(p.Code, pc)
			amt, pc = readCell(p.Code, pc)
			fmt.Fprintf(&sb, " %+d %+d", off, amt)
		case ALTER_MOVEONLY, SKIP, BOUNDS_CHECK:
			var off int
			off, pc = readIsize(p.Code, pc)
			fmt.Fprintf(&sb, " %+d", off)
		case ALTER_ADDONLY, SET:
			var amt int8
			amt, pc = readCell(p.Code, pc)
			fmt.Fprintf(&sb, " %+d", amt)
		case SET_MULTI:
			var off int
			var amt int8
			off, pc = readIsize(p.Code, pc)
			amt, pc = readCell(p.Code, pc)
			fmt.Fprintf(&sb, " %+d %+d", off, amt)
		case MULTIPLY:
			repeat := int(p.Code[pc])
			pc++
			fmt.Fprintf(&sb, " repeat=%d", repeat)
			for k := 0; k <= repeat; k++ {
				var off int
				var amt int8
				off, pc = readIsize(p.Code, pc)
				amt, pc = readCell(p.Code, pc)
				fmt.Fprintf(&sb, " (%+d,%+d)", off, amt)
			}
			var trailer int8
			trailer, pc = readCell(p.Code, pc)
			fmt.Fprintf(&sb, " set=%+d", trailer)
		case JUMPIFZERO, JUMPIFNONZERO:
			delta, next := readFixedJump(p.Code, pc)
			target := next + delta
			fmt.Fprintf(&sb, " %+d (%08x)", delta, target)
			pc = next
		case IN, OUT, DIE:
			// no operand
		default:
			fmt.Fprintf(&sb, " ???")
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

func readFixedJump(code []byte, pc int) (delta, next int) {
	v := int32(uint32(code[pc]) | uint32(code[pc+1])<<8 | uint32(code[pc+2])<<16 | uint32(code[pc+3])<<24)
	return int(v), pc + jumpOperandSize
}

// Assemble parses the text produced by Disassemble (minus addresses, which
// are ignored on input and recomputed) back into a Program. It exists for
// tests: assembly text written inline in a test is both a readable spec of
// expected output and, via Assemble, a cheap way to hand-construct bytecode
// for interpreter tests without going through the full compiler pipeline.
//
// Grounded on lang/compiler/asm.go's Asm, simplified: this format has no
// sections, labels or symbolic jump targets, only absolute addresses
// recomputed by a two-pass assembly (collect instruction lengths first,
// then resolve jump targets), mirroring Asm's own indexToAddr translation
// step but inverted (address to address, not index to address, since this
// format never refers to instructions by index).
func Assemble(text string) (*Program, error) {
	type pending struct {
		kind   Opcode
		pos    int
		target int
	}

	var code []byte
	var jumps []pending
	var lowestNeg, highestPos int

	for lineNo, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, ";") {
			continue
		}
		if i := strings.Index(line, ":"); i >= 0 && looksLikeAddr(line[:i]) {
			line = strings.TrimSpace(line[i+1:])
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		op, ok := reverseLookupOpcode.Get(fields[0])
		if !ok {
			return nil, fmt.Errorf("compiler: asm line %d: unknown opcode %q", lineNo+1, fields[0])
		}

		switch op {
		case ALTER:
			off, amt := mustInt(fields[1]), mustInt8(fields[2])
			code = append(code, byte(ALTER))
			code = appendIsize(code, off)
			code = appendCell(code, amt)
		case ALTER_MOVEONLY:
			off := mustInt(fields[1])
			code = append(code, byte(ALTER_MOVEONLY))
			code = appendIsize(code, off)
		case ALTER_ADDONLY:
			amt := mustInt8(fields[1])
			code = append(code, byte(ALTER_ADDONLY))
			code = appendCell(code, amt)
		case SET:
			amt := mustInt8(fields[1])
			code = append(code, byte(SET))
			code = appendCell(code, amt)
		case SET_MULTI:
			off, amt := mustInt(fields[1]), mustInt8(fields[2])
			code = append(code, byte(SET_MULTI))
			code = appendIsize(code, off)
			code = appendCell(code, amt)
		case SKIP:
			off := mustInt(fields[1])
			code = append(code, byte(SKIP))
			code = appendIsize(code, off)
			if off < 0 && off < lowestNeg {
				lowestNeg = off
			}
			if off > 0 && off > highestPos {
				highestPos = off
			}
		case BOUNDS_CHECK:
			off := mustInt(fields[1])
			code = append(code, byte(BOUNDS_CHECK))
			code = appendIsize(code, off)
		case IN, OUT, DIE:
			code = append(code, byte(op))
		case JUMPIFZERO, JUMPIFNONZERO:
			addrField := fields[1]
			if len(fields) > 2 {
				addrField = fields[2]
			}
			target64, err := strconv.ParseInt(strings.Trim(addrField, "()"), 16, 64)
			if err != nil {
				return nil, fmt.Errorf("compiler: asm line %d: bad jump target %q: %w", lineNo+1, addrField, err)
			}
			target := int(target64)
			code = append(code, byte(op))
			pos := len(code)
			code = append(code, make([]byte, jumpOperandSize)...)
			jumps = append(jumps, pending{kind: op, pos: pos, target: target})
		default:
			return nil, fmt.Errorf("compiler: asm line %d: %s has no text encoder", lineNo+1, op)
		}
	}

	for _, j := range jumps {
		delta := j.target - (j.pos + jumpOperandSize)
		code[j.pos] = byte(uint32(int32(delta)))
		code[j.pos+1] = byte(uint32(int32(delta)) >> 8)
		code[j.pos+2] = byte(uint32(int32(delta)) >> 16)
		code[j.pos+3] = byte(uint32(int32(delta)) >> 24)
	}

	return &Program{Code: code, LowestNegativeSkip: lowestNeg, HighestPositiveSkip: highestPos}, nil
}

func looksLikeAddr(s string) bool {
	_, err := strconv.ParseUint(s, 16, 64)
	return err == nil
}

func mustInt(s string) int {
	v, err := strconv.Atoi(strings.TrimPrefix(s, "+"))
	if err != nil {
		panic(err)
	}
	return v
}

func mustInt8(s string) int8 {
	return int8(mustInt(s))
}
