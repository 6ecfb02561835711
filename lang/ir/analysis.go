package ir

// This file implements the pure analysis queries (C3) consulted by the
// loop-idiom recognizer, the peephole optimizer and the bounds inserter.
// None of these functions mutate the tree, with the sole exception of
// GetLoopInfo's internal memoization.

// EnsuresZero reports whether executing op guarantees the current cell is
// zero afterward.
func EnsuresZero(op *Node) bool {
	switch op.Kind {
	case Loop, Skip:
		return true
	case Set:
		return op.Amount == 0
	default:
		return false
	}
}

// EnsuresNonzero reports whether executing op guarantees the current cell
// is nonzero afterward.
func EnsuresNonzero(op *Node) bool {
	return op.Kind == Set && op.Amount != 0
}

// WritesCell reports whether op writes the cell at the pointer's position
// on entry (for ALTER, only when the amount is nonzero — a pure move does
// not write).
func WritesCell(op *Node) bool {
	switch op.Kind {
	case Alter:
		return op.Amount != 0
	case Loop, Multiply, In, Set:
		return true
	default:
		return false
	}
}

// MovesTape reports whether op can change the pointer's position.
func MovesTape(op *Node) bool {
	switch op.Kind {
	case Skip:
		return true
	case Alter:
		return op.Offset != 0
	case Loop:
		li := GetLoopInfo(op)
		return li.UncertainForward || li.UncertainBackward || li.OffsetLower != 0 || li.OffsetUpper != 0
	default:
		return false
	}
}

// PerformsIO reports whether op is an IN or OUT instruction.
func PerformsIO(op *Node) bool {
	return op.Kind == In || op.Kind == Out
}

// GetFinalOffset returns the pointer delta after executing op and true, or
// (0, false) if the delta is not statically known (e.g. SKIP, or a LOOP
// whose movement is uncertain in either direction).
func GetFinalOffset(op *Node) (int, bool) {
	switch op.Kind {
	case Alter:
		return op.Offset, true
	case Loop:
		li := GetLoopInfo(op)
		if li.UncertainForward || li.UncertainBackward {
			return 0, false
		}
		return 0, true // a loop that is certain in both directions always exits balanced (net 0)
	case In, Out, Set, Multiply, BoundsCheck, Once:
		return 0, true
	default:
		return 0, false
	}
}

// GetMinOffset returns the lowest pointer offset (relative to op's entry
// pointer) touched while executing op. Undefined (returns 0, false) for
// LOOP and SKIP, whose reach is unbounded without loop-info context.
func GetMinOffset(op *Node) (int, bool) {
	switch op.Kind {
	case Alter:
		return min(0, op.Offset), true
	case Set:
		return 0, true
	case Multiply:
		return min(0, op.Offset), true
	case BoundsCheck:
		return min(0, op.Offset), true
	case In, Out:
		return 0, true
	default:
		return 0, false
	}
}

// GetMaxOffset returns the highest pointer offset (relative to op's entry
// pointer) touched while executing op. Undefined (returns 0, false) for
// LOOP and SKIP.
func GetMaxOffset(op *Node) (int, bool) {
	switch op.Kind {
	case Alter:
		return max(0, op.Offset), true
	case Set:
		return op.Offset, true
	case Multiply:
		return max(0, op.Offset), true
	case BoundsCheck:
		return max(0, op.Offset), true
	case In, Out:
		return 0, true
	default:
		return 0, false
	}
}

// LoopInfo summarizes the movement behavior of a LOOP node's body, used by
// the bounds inserter (C5) and the flattener (C6).
type LoopInfo struct {
	OffsetLower int // <= 0, lowest statically-known offset reached
	OffsetUpper int // >= 0, highest statically-known offset reached

	// UncertainForward/UncertainBackward are true when some child may move
	// the pointer an unbounded distance in that direction (a SKIP, a
	// transitively uncertain nested loop, or a non-zero residual ALTER
	// balance combined with repeated iteration).
	UncertainForward  bool
	UncertainBackward bool

	// LoopsOnceAtMost is true when the body, once executed, is guaranteed
	// to leave the controlling cell at zero (a "one-shot" loop).
	LoopsOnceAtMost bool

	// Calculated is true once this LoopInfo has been fully computed; a
	// second call to GetLoopInfo on the same node must return a
	// byte-identical result (loop-info monotonicity, spec.md §8).
	Calculated bool
}

// GetLoopInfo computes (and memoizes on loop) the LoopInfo describing the
// body of a LOOP node. The result is stable for the node's lifetime: once
// Calculated is true, loop.ResetLoopInfo must be called explicitly before a
// pass that mutates loop.Children may invalidate it.
func GetLoopInfo(loop *Node) LoopInfo {
	if loop.Kind != Loop {
		panic("ir: GetLoopInfo called on a non-LOOP node")
	}
	if loop.loopInfo != nil {
		return *loop.loopInfo
	}

	info := LoopInfo{LoopsOnceAtMost: loopsOnceAtMost(loop.Children)}

	offset := 0
	for _, child := range loop.Children {
		switch child.Kind {
		case Alter:
			offset += child.Offset
		case Skip:
			if child.Offset > 0 {
				info.UncertainForward = true
			} else {
				info.UncertainBackward = true
			}
		case Loop:
			ci := GetLoopInfo(child)
			if ci.UncertainForward {
				info.UncertainForward = true
			}
			if ci.UncertainBackward {
				info.UncertainBackward = true
			}
			offset += ci.OffsetLower + ci.OffsetUpper // conservative: a nested balanced loop still may walk in both directions across iterations
		}
		if lo, ok := GetMinOffset(child); ok {
			if offset+lo < info.OffsetLower {
				info.OffsetLower = offset + lo
			}
		}
		if hi, ok := GetMaxOffset(child); ok {
			if offset+hi > info.OffsetUpper {
				info.OffsetUpper = offset + hi
			}
		}
		if info.UncertainForward && info.UncertainBackward {
			break
		}
	}

	if offset > 0 {
		info.UncertainForward = true
	} else if offset < 0 {
		info.UncertainBackward = true
	}

	info.Calculated = true
	loop.loopInfo = &info
	return info
}

// loopsOnceAtMost implements the "one-shot loop" predicate: the body,
// executed once, is guaranteed to leave the controlling cell at zero.
func loopsOnceAtMost(children []*Node) bool {
	if len(children) == 0 {
		return false
	}
	last := children[len(children)-1]
	if EnsuresZero(last) {
		return true
	}
	return last.DefinitelyZero && !MovesTape(last) && !WritesCell(last)
}

// OffsetAccess records the result of a forward simulation performed by
// OffsetMightBeAccessed.
type OffsetAccess struct {
	// Index is the position in the block where the simulation stopped, or
	// len(block) if it ran off the end without finding a definite touch.
	Index int

	// Read/Write report that the queried offset is definitely read/written
	// at Index. Uncertain reports that the scan hit a SKIP or an uncertain
	// loop without resolving the query either way.
	Read       bool
	Write      bool
	Uncertain  bool
}

// OffsetMightBeAccessed simulates forward execution of block starting at
// index start, tracking the pointer's offset relative to the block's entry,
// to determine whether and how `offset` (also relative to the block's
// entry) is next touched. One-shot loops that touch neither the queried
// offset nor move the pointer unpredictably are transparent to the scan and
// it continues past them; any other loop, or a SKIP, stops the scan with
// Uncertain set.
func OffsetMightBeAccessed(block []*Node, start int, offset int) OffsetAccess {
	curOffset := 0
	for i := start; i < len(block); i++ {
		op := block[i]

		switch op.Kind {
		case Alter:
			target := curOffset + op.Offset
			if target == offset && op.Amount != 0 {
				return OffsetAccess{Index: i, Write: true}
			}
			curOffset = target

		case Set:
			lo, hi := curOffset, curOffset+op.Offset
			if offset >= lo && offset <= hi {
				return OffsetAccess{Index: i, Write: true}
			}

		case Multiply:
			if curOffset == offset {
				return OffsetAccess{Index: i, Read: true}
			}
			if curOffset+op.Offset == offset {
				return OffsetAccess{Index: i, Write: true}
			}

		case In:
			if curOffset == offset {
				return OffsetAccess{Index: i, Write: true}
			}

		case Out:
			if curOffset == offset {
				return OffsetAccess{Index: i, Read: true}
			}

		case BoundsCheck:
			// no cell access

		case Skip:
			return OffsetAccess{Index: i, Uncertain: true}

		case Loop:
			li := GetLoopInfo(op)
			rel := offset - curOffset
			touchesInBody := rel >= li.OffsetLower && rel <= li.OffsetUpper
			if li.LoopsOnceAtMost && !touchesInBody {
				// transparent: the loop runs at most once, neither reading nor
				// writing the queried cell; keep simulating past it as if it
				// were a no-op (its own balance is folded into curOffset below
				// only when statically known).
				if delta, ok := GetFinalOffset(op); ok {
					curOffset += delta
					continue
				}
			}
			return OffsetAccess{Index: i, Uncertain: true}
		}
	}
	return OffsetAccess{Index: len(block)}
}
