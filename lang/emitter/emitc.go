// Package emitter implements the optional bytecode-to-C emitter spec.md
// §1 calls out as out-of-core-scope, specified only by interface: a
// Program in, C source text out. It is not reachable from the CLI (no
// External Interfaces entry names it) and exists only as an API any
// caller embedding this module may use.
package emitter

import (
	"fmt"
	"strings"

	"github.com/mna/bfvm/lang/compiler"
)

// EmitC translates p into a single, unoptimized, goto-based C source file
// that reproduces its semantics exactly.
//
// Grounded on original_source/interpreter_output_c.c: the generated
// tape_struct layout and tape_ensure_space reallocation strategy are
// reproduced nearly verbatim (down to the LOWEST_NEGATIVE_SKIP /
// HIGHEST_POSITIVE_SKIP / TAPE_INITIAL constants), while the per-opcode
// instruction bodies are re-derived from compiler.Disassemble's decode
// rather than transliterating the original's switch, since this package
// consumes bfvm's own bytecode format, not the original's in-memory tree.
func EmitC(p *compiler.Program) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "#include <stdio.h>\n#include <stdlib.h>\n#include <string.h>\n#include <stdint.h>\n\n")
	fmt.Fprintf(&sb, "#define LOWEST_NEGATIVE_SKIP %d\n#define HIGHEST_POSITIVE_SKIP %d\n#define TAPE_INITIAL 16\n\n",
		p.LowestNegativeSkip, p.HighestPositiveSkip)

	sb.WriteString(tapeBoilerplate)

	sb.WriteString("int main(void) {\n\ttape_struct tape = tape_new();\n\n")

	dis := compiler.Disassemble(p)
	for _, line := range strings.Split(strings.TrimRight(dis, "\n"), "\n") {
		emitLine(&sb, line)
	}

	sb.WriteString("L_end:\n\treturn 0;\n}\n")
	return sb.String()
}

func emitLine(sb *strings.Builder, line string) {
	// line is "%08x: MNEMONIC args...", produced by compiler.Disassemble;
	// each address becomes a C label so JUMPIFZERO/JUMPIFNONZERO can goto it.
	colon := strings.Index(line, ":")
	addr := line[:colon]
	rest := strings.Fields(line[colon+1:])
	if len(rest) == 0 {
		return
	}
	mnemonic := rest[0]
	args := rest[1:]

	fmt.Fprintf(sb, "L_%s:\n", addr)
	switch mnemonic {
	case "ALTER":
		fmt.Fprintf(sb, "\ttape.pos += %s; tape_ensure_space(&tape, tape.pos); tape.cells[tape.pos] += %s;\n", args[0], args[1])
	case "ALTER_MOVEONLY":
		fmt.Fprintf(sb, "\ttape.pos += %s; tape_ensure_space(&tape, tape.pos);\n", args[0])
	case "ALTER_ADDONLY":
		fmt.Fprintf(sb, "\ttape.cells[tape.pos] += %s;\n", args[0])
	case "SET":
		fmt.Fprintf(sb, "\ttape.cells[tape.pos] = %s;\n", args[0])
	case "SET_MULTI":
		fmt.Fprintf(sb, "\tfor (ssize_t i = 0; i <= %s; i++) tape.cells[tape.pos + i] = %s;\n", args[0], args[1])
	case "SKIP":
		fmt.Fprintf(sb, "\twhile (tape.cells[tape.pos]) { tape.pos += %s; tape_ensure_space(&tape, tape.pos); }\n", args[0])
	case "BOUNDS_CHECK":
		fmt.Fprintf(sb, "\ttape_ensure_space(&tape, tape.pos + %s);\n", args[0])
	case "IN":
		sb.WriteString("\t{ int c = getchar(); tape.cells[tape.pos] = c == EOF ? 0 : (int8_t)c; }\n")
	case "OUT":
		sb.WriteString("\tputchar((unsigned char)tape.cells[tape.pos]);\n")
	case "DIE":
		sb.WriteString("\tgoto L_end;\n")
	case "JUMPIFZERO", "JUMPIFNONZERO":
		target := strings.Trim(args[len(args)-1], "()")
		cond := "=="
		if mnemonic == "JUMPIFNONZERO" {
			cond = "!="
		}
		fmt.Fprintf(sb, "\tif (tape.cells[tape.pos] %s 0) goto L_%s;\n", cond, target)
	case "MULTIPLY":
		emitMultiply(sb, args)
	}
}

func emitMultiply(sb *strings.Builder, args []string) {
	sb.WriteString("\t{\n\t\tcell_int src = tape.cells[tape.pos];\n")
	for _, a := range args {
		if strings.HasPrefix(a, "(") {
			pair := strings.Trim(a, "()")
			parts := strings.Split(pair, ",")
			fmt.Fprintf(sb, "\t\ttape.cells[tape.pos + %s] += src * (%s);\n", parts[0], parts[1])
		} else if strings.HasPrefix(a, "set=") {
			fmt.Fprintf(sb, "\t\ttape.cells[tape.pos] = %s;\n", strings.TrimPrefix(a, "set="))
		}
	}
	sb.WriteString("\t}\n")
}

const tapeBoilerplate = `typedef int8_t cell_int;

typedef struct {
	size_t back_size;
	size_t front_size;
	size_t pos;
	cell_int *cells;
} tape_struct;

static tape_struct tape_new(void) {
	tape_struct t;
	t.back_size = TAPE_INITIAL - LOWEST_NEGATIVE_SKIP;
	t.front_size = TAPE_INITIAL + HIGHEST_POSITIVE_SKIP;
	t.pos = t.back_size;
	t.cells = calloc(t.back_size + t.front_size, sizeof *t.cells);
	return t;
}

static void tape_ensure_space(tape_struct *restrict tape, ssize_t pos) {
	while (pos < 0) {
		size_t old_back = tape->back_size;
		tape->back_size *= 2;
		size_t extra = tape->back_size - old_back;
		tape->cells = realloc(tape->cells, (tape->back_size + tape->front_size) * sizeof *tape->cells);
		memmove(tape->cells + extra, tape->cells, (tape->front_size + old_back) * sizeof *tape->cells);
		memset(tape->cells, 0, extra * sizeof *tape->cells);
		tape->pos += extra;
		pos += extra;
	}
	while ((size_t)pos >= tape->back_size + tape->front_size) {
		size_t old_front = tape->front_size;
		tape->front_size *= 2;
		tape->cells = realloc(tape->cells, (tape->back_size + tape->front_size) * sizeof *tape->cells);
		memset(tape->cells + tape->back_size + old_front, 0, (tape->front_size - old_front) * sizeof *tape->cells);
	}
}

`
