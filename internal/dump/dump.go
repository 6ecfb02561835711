// Package dump implements the --dump-tree and --dump-opcodes formatters,
// the "dump/debug formatters" spec.md §1 places outside the core and
// specifies only by interface: a Node or a Program in, text out.
package dump

import (
	"io"

	"github.com/mna/bfvm/lang/compiler"
	"github.com/mna/bfvm/lang/ir"
)

// Tree writes root's IR tree to w in the format described in
// SPEC_FULL.md's supplemented features (uncertainty-annotated loops,
// grounded on original_source/debug.c's print_bf_op).
func Tree(w io.Writer, root *ir.Node) error {
	return (ir.Printer{Output: w}).Print(root)
}

// Opcodes writes p's disassembly to w, one address-prefixed instruction
// per line, grounded on original_source/debug.c's print_flattened.
func Opcodes(w io.Writer, p *compiler.Program) error {
	_, err := io.WriteString(w, compiler.Disassemble(p))
	return err
}
