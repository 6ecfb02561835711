package maincmd

import (
	"context"
	"fmt"
	"os"

	"github.com/mna/mainer"
)

const binName = "bfvm"

var (
	shortUsage = fmt.Sprintf(`
usage: %s [<option>...] [<file>]
Run '%[1]s --help' for details.
`, binName)

	longUsage = fmt.Sprintf(`usage: %s [<option>...] [--] [<file>]
       %[1]s --help
       %[1]s --version

Optimizing compiler and interpreter for the eight-operator tape
language (+ - < > . , [ ]).

If <file> is omitted, the program is read from standard input, which
is treated as an interactive session terminated by an unescaped '!'.

Valid flag options are:
       --help                    Show this help and exit.
       --version                 Print version and exit.
       --dump-tree               Print the optimized IR tree before
                                 execution.
       --dump-opcodes            Print the flattened bytecode before
                                 execution.
       --no-execute              Skip execution after compilation.
`, binName)
)

// exit codes, per spec §6: 0 success, 1 invalid usage or unbalanced ']',
// 2 runtime error (I/O failure, step-budget exceeded, or a debug-build
// bounds violation).
const (
	exitSuccess    mainer.ExitCode = 0
	exitUsageError mainer.ExitCode = 1
	exitRuntime    mainer.ExitCode = 2
)

// Cmd is the bfvm command line: a single pipeline (read, build IR,
// optimize, flatten, optionally dump, optionally execute), gated by flags
// rather than dispatched across subcommands, since bfvm compiles and runs
// exactly one program per invocation.
type Cmd struct {
	BuildVersion string
	BuildDate    string

	Help    bool `flag:"help"`
	Version bool `flag:"version"`

	DumpTree    bool `flag:"dump-tree"`
	DumpOpcodes bool `flag:"dump-opcodes"`
	NoExecute   bool `flag:"no-execute"`

	args  []string
	flags map[string]bool
}

func (c *Cmd) SetArgs(args []string) {
	c.args = args
}

func (c *Cmd) SetFlags(flags map[string]bool) {
	c.flags = flags
}

func (c *Cmd) Validate() error {
	if c.Help || c.Version {
		return nil
	}
	if len(c.args) > 1 {
		return fmt.Errorf("unexpected arguments: %v", c.args[1:])
	}
	return nil
}

func (c *Cmd) Main(args []string, stdio mainer.Stdio) mainer.ExitCode {
	p := mainer.Parser{
		EnvVars:   false,
		EnvPrefix: binName + "_",
	}
	if err := p.Parse(args, c); err != nil {
		fmt.Fprintf(stdio.Stderr, "invalid arguments: %s\n%s", err, shortUsage)
		return exitUsageError
	}

	switch {
	case c.Help:
		fmt.Fprint(stdio.Stdout, longUsage)
		return exitSuccess

	case c.Version:
		fmt.Fprintf(stdio.Stdout, "%s %s %s\n", binName, c.BuildVersion, c.BuildDate)
		return exitSuccess
	}

	var path string
	if len(c.args) > 0 {
		path = c.args[0]
	}

	ctx := mainer.CancelOnSignal(context.Background(), os.Interrupt)
	if err := c.run(ctx, stdio, path); err != nil {
		fmt.Fprintf(stdio.Stderr, "%s: %s\n", binName, err)
		if ce, ok := err.(cmdError); ok && ce.isUsage {
			return exitUsageError
		}
		return exitRuntime
	}
	return exitSuccess
}

// cmdError wraps a pipeline failure with which exit code it maps to: exit
// 1 for bad source/arguments (caught before any execution), exit 2 for
// everything else (I/O failure, step budget, debug bounds violation), per
// spec §7's error propagation policy.
type cmdError struct {
	err     error
	isUsage bool
}

func (e cmdError) Error() string { return e.err.Error() }
func (e cmdError) Unwrap() error { return e.err }
