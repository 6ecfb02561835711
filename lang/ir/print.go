package ir

import (
	"fmt"
	"io"
)

// Printer renders an IR tree to Output in a flat, human-scannable form
// used by the --dump-tree CLI flag. The format is grounded on
// original_source/debug.c's print_bf_op: one line per nesting level, a
// short mnemonic per node, loop bodies indented and annotated with their
// computed movement uncertainty.
type Printer struct {
	Output io.Writer
}

// Print writes root (an ONCE node, or any node for testing purposes) to p.Output.
func (p Printer) Print(root *Node) error {
	w := &printWriter{w: p.Output}
	p.print(w, root, 0)
	return w.err
}

type printWriter struct {
	w   io.Writer
	err error
}

func (w *printWriter) printf(format string, args ...interface{}) {
	if w.err != nil {
		return
	}
	_, w.err = fmt.Fprintf(w.w, format, args...)
}

func (p Printer) print(w *printWriter, n *Node, indent int) {
	pad := func() {
		for i := 0; i < indent; i++ {
			w.printf(" ")
		}
	}

	switch n.Kind {
	case Once:
		for _, c := range n.Children {
			pad()
			p.print(w, c, indent)
			w.printf("\n")
		}

	case Alter:
		switch {
		case n.Offset != 0 && n.Amount != 0:
			w.printf("ALTER offset=%d amount=%+d", n.Offset, n.Amount)
		case n.Offset != 0:
			w.printf("ALTER offset=%d", n.Offset)
		case n.Amount != 0:
			w.printf("ALTER amount=%+d", n.Amount)
		default:
			w.printf("ALTER (nop)")
		}

	case Set:
		if n.Offset == 0 {
			w.printf("SET %d", n.Amount)
		} else {
			w.printf("SET[0..%d] %d", n.Offset, n.Amount)
		}

	case Multiply:
		w.printf("MULTIPLY *%d @%+d", n.Amount, n.Offset)

	case Skip:
		w.printf("SKIP %+d", n.Offset)

	case BoundsCheck:
		w.printf("BOUNDS_CHECK %+d", n.Offset)

	case In:
		w.printf(",")

	case Out:
		w.printf(".")

	case Loop:
		li := GetLoopInfo(n)
		w.printf("LOOP [\n")
		for _, c := range n.Children {
			for i := 0; i < indent+2; i++ {
				w.printf(" ")
			}
			p.print(w, c, indent+2)
			w.printf("\n")
		}
		pad()
		w.printf("] (uncertain:")
		if li.UncertainBackward {
			w.printf("<")
		}
		if li.UncertainForward {
			w.printf(">")
		}
		if !li.UncertainBackward && !li.UncertainForward {
			w.printf("none")
		}
		w.printf(")")

	default:
		w.printf("<invalid %s>", n.Kind)
	}
}
