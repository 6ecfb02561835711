package machine

import (
	"context"
	"io"
	"os"
	"sync/atomic"

	"github.com/mna/bfvm/lang/compiler"
)

// Thread executes one compiled Program against one Tape. Grounded on
// lang/machine.Thread: I/O redirection defaulting to the process's own
// stdio, a step budget enforced against a context so a caller can bound
// or cancel a run without the interpreter itself detecting infinite
// loops (spec.md's Non-goals explicitly exclude that), and an atomic
// cancellation flag checked on the hot path instead of polling ctx.Err()
// on every instruction.
type Thread struct {
	Name string

	Stdin  io.Reader
	Stdout io.Writer

	// MaxSteps caps the number of bytecode instructions executed; 0 means
	// unbounded. Exceeding it returns ErrStepBudgetExceeded.
	MaxSteps uint64

	// Debug enables the per-instruction sanity check described in spec.md
	// §4.7: the pointer must never stray outside the range declared by the
	// most recent BOUNDS_CHECK. A release build (Debug == false) trusts C5
	// and skips the check.
	Debug bool

	steps     uint64
	cancelled atomic.Bool

	initialized bool
}

func (th *Thread) init() {
	if th.initialized {
		return
	}
	th.initialized = true
	if th.Stdin == nil {
		th.Stdin = os.Stdin
	}
	if th.Stdout == nil {
		th.Stdout = os.Stdout
	}
}

// Steps returns the number of instructions executed so far.
func (th *Thread) Steps() uint64 {
	return th.steps
}

// Cancel marks the thread for cancellation; the running dispatch loop
// observes it at its next instruction boundary and returns
// context.Canceled (or the context's cause, if any).
func (th *Thread) Cancel() {
	th.cancelled.Store(true)
}

// RunProgram executes prog to completion (its DIE instruction), to a
// boundary error, to the step budget, or to cancellation via ctx, and
// returns the first condition reached.
func (th *Thread) RunProgram(ctx context.Context, prog *compiler.Program) error {
	th.init()

	watchCtx, stop := context.WithCancel(ctx)
	defer stop()
	go func() {
		<-watchCtx.Done()
		if ctx.Err() != nil {
			th.Cancel()
		}
	}()

	tape := NewTape(prog.LowestNegativeSkip, prog.HighestPositiveSkip)
	return th.run(ctx, prog, tape)
}
