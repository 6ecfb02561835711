// Package optimizer implements C5, the bounds-check inserter that runs
// after the peephole optimizer (lang/ir) has reached its fixed point and
// before the flattener (lang/compiler) serializes the tree to bytecode.
package optimizer

import (
	"golang.org/x/exp/slices"

	"github.com/mna/bfvm/lang/ir"
)

// InsertBoundsChecks walks block (the ONCE root's children, or any loop
// body) inserting or widening BOUNDS_CHECK pseudo-ops so that every
// straight-line segment is preceded by a check covering its farthest
// reach in each direction. Nested loop bodies are processed first,
// bottom-up, so a loop's own BOUNDS_CHECKs already exist by the time its
// enclosing block considers hoisting them.
//
// Grounded on spec.md §4.5's written algorithm; optimizer_helpers.c has no
// analog for this pass (the original's add_bounds_checks, visible only
// through its header declaration in parser.c, predates the helper split
// captured in this pack and its body is not among the retrieved files) so
// this is built directly from the component's contract.
func InsertBoundsChecks(block []*Node) []*Node {
	return newInserter().run(block)
}

// Node is a local alias so callers read `optimizer.Node` without importing
// lang/ir directly for the common case; it is exactly ir.Node.
type Node = ir.Node

type inserter struct{}

func newInserter() *inserter { return &inserter{} }

func (ins *inserter) run(block []*Node) []*Node {
	currFwd, currBck := 0, 0
	lastFwd, lastBck := 0, 0 // insertion indices
	maxBound, minBound := 0, 0

	flushForward := func(upto int) {
		if maxBound > 0 {
			block = ins.insertOrMerge(block, lastFwd, maxBound)
			if lastFwd <= upto {
				upto++
			}
		}
		maxBound = 0
	}
	flushBackward := func(upto int) {
		if minBound < 0 {
			block = ins.insertOrMerge(block, lastBck, minBound)
			if lastBck <= upto {
				upto++
			}
		}
		minBound = 0
	}

	for i := 0; i < len(block); i++ {
		op := block[i]

		switch op.Kind {
		case ir.Loop:
			op.Children = ins.run(op.Children)
			op.ResetLoopInfo()
			li := ir.GetLoopInfo(op)

			flushForward(i)
			flushBackward(i)

			if !li.UncertainBackward {
				hoistDirection(op, currBck, false)
			} else {
				lastBck = i + 1
				currBck = 0
			}
			if !li.UncertainForward {
				hoistDirection(op, currFwd, true)
			} else {
				lastFwd = i + 1
				currFwd = 0
			}
			continue

		case ir.Skip:
			flushForward(i)
			flushBackward(i)
			if op.Offset > 0 {
				lastFwd = i + 1
				currFwd = 0
			} else {
				lastBck = i + 1
				currBck = 0
			}
			continue
		}

		if lo, ok := ir.GetMinOffset(op); ok {
			if v := currBck + lo; v < minBound {
				minBound = v
			}
		}
		if hi, ok := ir.GetMaxOffset(op); ok {
			if v := currFwd + hi; v > maxBound {
				maxBound = v
			}
		}
		if delta, ok := ir.GetFinalOffset(op); ok {
			currFwd += delta
			currBck += delta
		}
	}

	flushForward(len(block))
	flushBackward(len(block))

	return block
}

// insertOrMerge inserts a BOUNDS_CHECK(bound) at index idx, or, if the node
// already at idx is a BOUNDS_CHECK pointing the same direction, widens it
// in place instead of inserting a new node.
func (ins *inserter) insertOrMerge(block []*Node, idx int, bound int) []*Node {
	if idx < len(block) {
		if existing := block[idx]; existing.Kind == ir.BoundsCheck && directionsAgree(existing.Offset, bound) {
			if wider(bound, existing.Offset) {
				existing.Offset = bound
			}
			return block
		}
	}
	return slices.Insert(block, idx, ir.NewBoundsCheck(bound))
}

func directionsAgree(a, b int) bool {
	return (a > 0 && b > 0) || (a < 0 && b < 0)
}

func wider(a, b int) bool {
	if a < 0 {
		return a < b
	}
	return a > b
}

// hoistDirection is called for each direction in which the loop's movement
// is certain. It does nothing: the loop's first BOUNDS_CHECK in that
// direction is not pulled out into the enclosing block, it stays in the
// loop's own children and runs on every iteration, and the enclosing
// block's offset tracking is left unchanged. Recorded in DESIGN.md as a
// deliberate simplification: conservative, never unsafe, since the check
// still executes before the loop's body touches memory.
func hoistDirection(loop *Node, outerOffset int, forward bool) {
	_ = loop
	_ = outerOffset
	_ = forward
}
