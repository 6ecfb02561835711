package ir

import "golang.org/x/exp/slices"

// Peephole iterates the ten rewrite rules to a fixed point over a single
// linear block. entryZero/entryNonzero describe what is known about the
// cell immediately before block's first element executes; isRoot marks the
// program's top-level block, where "the whole tape starts zero" lets that
// knowledge survive pure pointer moves (see propagateZeroNonzero).
//
// Nested LOOP bodies are optimized bottom-up before block itself is
// considered, so a rewrite in this pass (in particular rule 10, inlining a
// one-shot loop) always operates on an already-settled child.
//
// Grounded on optimizer_helpers.c for the predicates and on the rule list
// from the component design; there is no single original-source analog for
// the fixed-point driver itself (the original only ever ran its three ad
// hoc loop-shape checks once, in optimize_loop), so this loop is original
// to this repository, built directly from the component's written
// contract.
func Peephole(block []*Node, entryZero, entryNonzero, isRoot bool) []*Node {
	for _, child := range block {
		if child.Kind == Loop {
			child.Children = Peephole(child.Children, false, true, false)
			child.ResetLoopInfo()
		}
	}

	for {
		propagateZeroNonzero(block, entryZero, entryNonzero, isRoot)

		changed := false
		for i := 0; i < len(block); i++ {
			if newBlock, rewound, ok := applyRule(block, i); ok {
				block = newBlock
				changed = true
				i = rewound
			}
		}
		if !changed {
			return block
		}
	}
}

// propagateZeroNonzero fills in DefinitelyZero/DefinitelyNonzero for every
// node in block given what is known on entry.
func propagateZeroNonzero(block []*Node, entryZero, entryNonzero, isRoot bool) {
	zero, nonzero := entryZero, entryNonzero
	rootFactStillGlobal := isRoot && entryZero
	for _, op := range block {
		op.DefinitelyZero = zero
		op.DefinitelyNonzero = nonzero

		switch {
		case EnsuresZero(op):
			zero, nonzero = true, false
			rootFactStillGlobal = false
		case EnsuresNonzero(op):
			zero, nonzero = false, true
			rootFactStillGlobal = false
		case WritesCell(op):
			zero, nonzero = false, false
			rootFactStillGlobal = false
		case MovesTape(op):
			if !rootFactStillGlobal {
				zero, nonzero = false, false
			}
		}
	}
}

// applyRule scans block starting at i for the first rewrite rule that
// fires at position i, applies it, and returns the rewritten block plus
// the index the outer cursor should resume from. ok is false if no rule
// fires at i.
func applyRule(block []*Node, i int) ([]*Node, int, bool) {
	op := block[i]

	// Rule 1: drop redundant ALTER(0, 0).
	if op.Kind == Alter && op.Offset == 0 && op.Amount == 0 {
		return slices.Delete(block, i, i+1), max0(i - 1), true
	}

	// Rule 2: expects-nonzero-but-definitely-zero.
	if op.DefinitelyZero {
		switch {
		case op.Kind == Loop, op.Kind == Skip, op.Kind == Multiply:
			return slices.Delete(block, i, i+1), max0(i - 1), true
		case op.Kind == Set && op.Amount == 0 && op.Offset == 0:
			return slices.Delete(block, i, i+1), max0(i - 1), true
		}
	}

	// Rule 3: elide an overwritten SET.
	if op.Kind == Set && i+1 < len(block) {
		next := block[i+1]
		if next.Kind == Set && next.Offset >= op.Offset {
			next.DefinitelyZero = op.DefinitelyZero
			next.DefinitelyNonzero = op.DefinitelyNonzero
			return slices.Delete(block, i, i+1), max0(i - 1), true
		}
	}

	// Rule 5: merge adjacent ALTERs.
	if op.Kind == Alter && i+1 < len(block) {
		next := block[i+1]
		if next.Kind == Alter && (op.Amount == 0 || next.Offset == 0) {
			merged := NewAlter(op.Offset+next.Offset, op.Amount+next.Amount)
			out := slices.Delete(block, i, i+2)
			out = slices.Insert(out, i, merged)
			return out, max0(i - 1), true
		}
	}

	// Rule 6: degenerate MULTIPLY(offset=0).
	if op.Kind == Multiply && op.Offset == 0 {
		out := slices.Clone(block)
		out[i] = NewLoop(nil)
		return out, max0(i - 1), true
	}

	// Rule 7: known-zero ALTER promotion.
	if op.Kind == Alter && op.Offset == 0 && op.Amount != 0 && op.DefinitelyZero {
		out := slices.Clone(block)
		out[i] = NewSet(0, op.Amount)
		out[i].DefinitelyZero = op.DefinitelyZero
		out[i].DefinitelyNonzero = op.DefinitelyNonzero
		return out, i, true
	}

	// Rule 9: SET ALTER SET coalescing.
	if op.Kind == Set && i+2 < len(block) {
		mid := block[i+1]
		last := block[i+2]
		if mid.Kind == Alter && last.Kind == Set && last.Amount == op.Amount && mid.Offset == op.Offset+1 {
			merged := NewSet(op.Offset+last.Offset+1, op.Amount)
			residual := NewAlter(mid.Offset, 0)
			out := slices.Delete(block, i, i+3)
			out = slices.Insert(out, i, residual)
			out = slices.Insert(out, i, merged)
			return out, max0(i - 1), true
		}
	}

	// Rule 10: inline a one-shot loop known nonzero on entry.
	if op.Kind == Loop && op.DefinitelyNonzero {
		li := GetLoopInfo(op)
		if li.LoopsOnceAtMost {
			out := slices.Delete(block, i, i+1)
			out = slices.Insert(out, i, op.Children...)
			return out, max0(i - 1), true
		}
	}

	// Rule 4: lookahead merge/deletion of a write-only op.
	if isWriteOnly(op) {
		if out, idx, ok := lookaheadMerge(block, i); ok {
			return out, idx, true
		}
	}

	// Rule 8: addition migration.
	if op.Kind == Alter && op.Offset == 0 && op.Amount != 0 {
		if out, idx, ok := migrateAddition(block, i); ok {
			return out, idx, true
		}
	}

	return nil, 0, false
}

func max0(i int) int {
	if i < 0 {
		return 0
	}
	return i
}

// isWriteOnly reports whether op writes a cell and nothing else useful
// would be lost by deleting it outright if that write is never observed.
func isWriteOnly(op *Node) bool {
	switch op.Kind {
	case Alter, Set:
		return true
	default:
		return false
	}
}

// lookaheadMerge implements rule 4: find the next touch of the cell W
// writes; delete W if it is overwritten before being read, or fold a
// combining ALTER into it.
func lookaheadMerge(block []*Node, i int) ([]*Node, int, bool) {
	w := block[i]
	if (w.Kind == Set && w.Offset != 0) || (w.Kind == Alter && w.Amount == 0) {
		return nil, 0, false
	}

	// W's cell is the one under the pointer once W has run: offset 0 of a
	// scan that starts just after it.
	acc := OffsetMightBeAccessed(block, i+1, 0)
	if acc.Uncertain || acc.Index >= len(block) {
		return nil, 0, false
	}

	if acc.Write && !acc.Read {
		next := block[acc.Index]
		if next.Kind == Alter {
			if next.Offset != 0 {
				return nil, 0, false
			}
			// the next touch is a combining ALTER at the same offset: fold it in.
			out := slices.Clone(block)
			if w.Kind == Set {
				out[i] = NewSet(w.Offset, w.Amount+next.Amount)
			} else {
				out[i] = NewAlter(w.Offset, w.Amount+next.Amount)
			}
			out = slices.Delete(out, acc.Index, acc.Index+1)
			return out, max0(i - 1), true
		}
		if next.Kind != Set && next.Kind != In {
			return nil, 0, false
		}

		if w.Kind == Alter {
			out := slices.Clone(block)
			out[i] = NewAlter(w.Offset, 0)
			return out, max0(i - 1), true
		}
		out := slices.Delete(block, i, i+1)
		return out, max0(i - 1), true
	}

	return nil, 0, false
}

// migrateAddition implements rule 8: carry an ALTER(0, a)'s amount forward
// through movement-only ops to a later ALTER at the matching offset.
func migrateAddition(block []*Node, i int) ([]*Node, int, bool) {
	op := block[i]
	offset := 0
	for j := i + 1; j < len(block); j++ {
		next := block[j]
		if next.Kind == Alter && next.Offset == -offset {
			acc := OffsetMightBeAccessed(block, i+1, 0)
			if acc.Uncertain || acc.Index != j || acc.Read {
				return nil, 0, false
			}
			out := slices.Clone(block)
			out[j] = NewAlter(next.Offset, next.Amount+op.Amount)
			out = slices.Delete(out, i, i+1)
			return out, max0(i - 1), true
		}
		if next.Kind != Alter || next.Amount != 0 {
			return nil, 0, false
		}
		offset += next.Offset
	}
	return nil, 0, false
}
