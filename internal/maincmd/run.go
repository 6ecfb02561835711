package maincmd

import (
	"context"
	"fmt"

	"github.com/mna/mainer"

	"github.com/mna/bfvm/internal/dump"
	"github.com/mna/bfvm/internal/source"
	"github.com/mna/bfvm/lang/compiler"
	"github.com/mna/bfvm/lang/ir"
	"github.com/mna/bfvm/lang/machine"
	"github.com/mna/bfvm/lang/optimizer"
)

// run wires C1 through C7: read the source, build the IR (C1, which
// itself runs the per-loop idiom recognizer C2 and peephole optimizer C4
// as each loop closes), run a final whole-program C4 pass now that the
// full sibling context is known, insert bounds checks (C5), flatten to
// bytecode (C6), optionally dump intermediate forms, and optionally
// execute (C7).
func (c *Cmd) run(ctx context.Context, stdio mainer.Stdio, path string) error {
	warn := func(msg string) { fmt.Fprintf(stdio.Stderr, "%s: warning: %s\n", binName, msg) }

	src, closer, err := source.Open(path, stdio.Stdin, warn)
	if err != nil {
		return cmdError{err: err, isUsage: true}
	}
	defer closer.Close()

	root, err := ir.Build(src)
	if err != nil {
		return cmdError{err: err, isUsage: true}
	}

	optimized := ir.Peephole(root.Children, true, false, true)
	root.Children = optimized
	root.ResetLoopInfo()

	root.Children = optimizer.InsertBoundsChecks(root.Children)

	prog := compiler.Flatten(root)

	if c.DumpTree {
		if err := dump.Tree(stdio.Stdout, root); err != nil {
			return cmdError{err: fmt.Errorf("dumping tree: %w", err)}
		}
	}
	if c.DumpOpcodes {
		if err := dump.Opcodes(stdio.Stdout, prog); err != nil {
			return cmdError{err: fmt.Errorf("dumping opcodes: %w", err)}
		}
	}

	if c.NoExecute {
		return nil
	}

	th := &machine.Thread{
		Name:   binName,
		Stdin:  stdio.Stdin,
		Stdout: stdio.Stdout,
	}
	if err := th.RunProgram(ctx, prog); err != nil {
		return fmt.Errorf("running program: %w", err)
	}
	return nil
}
