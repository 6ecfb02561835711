package machine

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mna/bfvm/lang/compiler"
	"github.com/mna/bfvm/lang/ir"
	"github.com/mna/bfvm/lang/optimizer"
)

// compileString runs the full C1-C6 pipeline over src, exactly as
// internal/maincmd.Cmd.run does, to produce a Program ready for the
// interpreter. Used by these end-to-end tests so they exercise the same
// path a real invocation does rather than hand-built bytecode.
func compileString(t *testing.T, src string) *compiler.Program {
	t.Helper()
	root, err := ir.Build(ir.ByteSource{R: strings.NewReader(src)})
	require.NoError(t, err)

	root.Children = ir.Peephole(root.Children, true, false, true)
	root.ResetLoopInfo()
	root.Children = optimizer.InsertBoundsChecks(root.Children)

	return compiler.Flatten(root)
}

func TestRunProgram_HelloWorld(t *testing.T) {
	const src = `++++++++[>++++[>++>+++>+++>+<<<<-]>+>+>->>+[<]<-]>>.>---.+++++++..+++.>>.<-.<.+++.------.--------.>>+.>++.`
	prog := compileString(t, src)

	var out bytes.Buffer
	th := &Thread{Stdout: &out}
	require.NoError(t, th.RunProgram(context.Background(), prog))
	assert.Equal(t, "Hello World!\n", out.String())
}

func TestRunProgram_MultiplySevenTimesNine(t *testing.T) {
	// scenario 6: >+++++++[<+++++++++>-]<. computes 7*9=63 ('?').
	const src = `>+++++++[<+++++++++>-]<.`
	prog := compileString(t, src)

	var out bytes.Buffer
	th := &Thread{Stdout: &out}
	require.NoError(t, th.RunProgram(context.Background(), prog))
	assert.Equal(t, []byte{63}, out.Bytes())
}

func TestRunProgram_EchoUntilEOF(t *testing.T) {
	const src = `,[.,]`
	prog := compileString(t, src)

	var out bytes.Buffer
	th := &Thread{Stdin: strings.NewReader("abc"), Stdout: &out}
	require.NoError(t, th.RunProgram(context.Background(), prog))
	assert.Equal(t, "abc", out.String())
}

func TestRunProgram_ZeroLoopOptimizesAway(t *testing.T) {
	// "+++[-]." writes a cell to 3, zeroes it via the recognized idiom, and
	// outputs the zero byte: the loop itself never reaches the interpreter
	// as a LOOP opcode.
	const src = `+++[-].`
	prog := compileString(t, src)
	assert.NotContains(t, compiler.Disassemble(prog), "JUMPIFZERO")

	var out bytes.Buffer
	th := &Thread{Stdout: &out}
	require.NoError(t, th.RunProgram(context.Background(), prog))
	assert.Equal(t, []byte{0}, out.Bytes())
}

func TestRunProgram_NonTerminatingSkipAbortsViaStepBudget(t *testing.T) {
	// scenario 4: "+[>+]" never returns to zero at the controlling cell;
	// bound the run with MaxSteps instead of waiting forever.
	const src = `+[>+]`
	prog := compileString(t, src)

	th := &Thread{MaxSteps: 10000}
	err := th.RunProgram(context.Background(), prog)
	assert.ErrorIs(t, err, ErrStepBudgetExceeded)
	assert.Equal(t, uint64(10000), th.Steps())
}

func TestRunProgram_NonTerminatingLoopAbortsViaContextCancellation(t *testing.T) {
	const src = `+[>+]`
	prog := compileString(t, src)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	th := &Thread{}
	err := th.RunProgram(ctx, prog)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Greater(t, th.Steps(), uint64(0))
}

func TestRunProgram_CellWraparound(t *testing.T) {
	// Incrementing past 127 wraps to -128 (two's complement int8), so 130
	// increments leave the cell at -126, output as byte 130. The builder
	// folds the run into one ALTER whose int8 amount wraps, and the root
	// pass turns it into SET -126 on the known-zero cell.
	src := strings.Repeat("+", 130) + "."
	prog := compileString(t, src)

	var out bytes.Buffer
	th := &Thread{Stdout: &out}
	require.NoError(t, th.RunProgram(context.Background(), prog))
	wrapped := 130 // kept in a variable: int8(130) as a constant expression would not compile
	assert.Equal(t, []byte{byte(int8(wrapped))}, out.Bytes())
}

func TestRunProgram_InEOFReadsZero(t *testing.T) {
	const src = `,.`
	prog := compileString(t, src)

	var out bytes.Buffer
	th := &Thread{Stdin: strings.NewReader(""), Stdout: &out}
	require.NoError(t, th.RunProgram(context.Background(), prog))
	assert.Equal(t, []byte{0}, out.Bytes())
}

func TestRunProgram_DebugModeDetectsBoundsViolation(t *testing.T) {
	// Hand-assemble a program whose BOUNDS_CHECK under-promises the reach
	// its own ALTER then exceeds, to exercise the Debug sanity check
	// independent of whether C5 would ever itself produce such a mismatch.
	prog, err := compiler.Assemble("BOUNDS_CHECK +1\nALTER +5 +1\nDIE\n")
	require.NoError(t, err)

	th := &Thread{Debug: true}
	err = th.RunProgram(context.Background(), prog)
	var violation *BoundsViolation
	require.ErrorAs(t, err, &violation)
	assert.Equal(t, 5, violation.Pointer)
}
