package ir

// optimizeLoop is invoked by the builder (C1) the moment a loop's closing
// bracket is seen. It first runs the peephole optimizer (C4) over the
// loop's own children, under the assumption that the cell is nonzero on
// entry (that's the only way the loop body executes at all), then checks
// the body against the two recognized idioms from the original. Anything
// else is left as a plain LOOP.
//
// Grounded on optimizer.c's optimize_loop and make_loop_into_multiply,
// generalized per the data-flow description: both of the original's ad hoc
// single/double-ALTER cases are subsumed by the general multiply-sequence
// recognizer below.
func optimizeLoop(loop *Node) []*Node {
	loop.Children = Peephole(loop.Children, false, true, false)

	if skip, ok := recognizeSkip(loop.Children); ok {
		return []*Node{skip}
	}
	if seq, ok := recognizeMultiply(loop.Children); ok {
		return seq
	}
	loop.ResetLoopInfo()
	return []*Node{loop}
}

// recognizeSkip matches a single-child body consisting of nothing but a
// pure pointer move: [>] / [<<<] and the like.
func recognizeSkip(children []*Node) (*Node, bool) {
	if len(children) != 1 {
		return nil, false
	}
	c := children[0]
	if c.Kind != Alter || c.Amount != 0 || c.Offset == 0 {
		return nil, false
	}
	return NewSkip(c.Offset), true
}

// recognizeMultiply matches an "alter-only balanced" body: every child is
// an ALTER, the net pointer offset across the whole body is zero, and the
// net amount applied at offset 0 (the loop counter itself) is ±1. Such a
// loop computes, for each other offset touched, a linear multiple of the
// entry cell's value and adds it there, then zeroes the entry cell.
func recognizeMultiply(children []*Node) ([]*Node, bool) {
	if len(children) == 0 {
		return nil, false
	}

	netOffset := 0
	totals := map[int]int8{}
	order := make([]int, 0, len(children))
	for _, c := range children {
		if c.Kind != Alter {
			return nil, false
		}
		netOffset += c.Offset
		if _, seen := totals[netOffset]; !seen {
			order = append(order, netOffset)
		}
		totals[netOffset] += c.Amount
	}
	if netOffset != 0 {
		return nil, false
	}

	counterDelta := totals[0]
	if counterDelta != 1 && counterDelta != -1 {
		return nil, false
	}
	negate := counterDelta == 1

	var out []*Node
	for _, off := range order {
		if off == 0 {
			continue
		}
		amt := totals[off]
		if negate {
			amt = -amt
		}
		if amt == 0 {
			continue
		}
		out = append(out, NewMultiply(off, amt))
	}
	out = append(out, NewSet(0, 0))
	return out, true
}
