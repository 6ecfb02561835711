// Package ir defines the intermediate representation produced by reading
// source symbols and the pure analysis queries used by the optimizer passes
// that rewrite it.
//
// A program is a tree of *Node values rooted at a single Once node. Loops
// (and Once) own their Children; no other node kind shares structure with
// another. Nodes are mutated in place by the optimizer packages, so identity
// (not value equality) is what later passes rely on when memoizing
// per-node facts.
package ir

// Kind identifies which of the node variants a Node holds. Each Kind uses
// only the payload fields documented beside it; the rest are zero value.
type Kind uint8

const (
	// Alter moves the pointer by Offset, then adds Amount to the cell at the
	// resulting position.
	Alter Kind = iota
	// In reads one byte into the current cell (0 on EOF).
	In
	// Out writes the current cell.
	Out
	// Loop repeatedly executes Children while the current cell is nonzero.
	Loop
	// Set writes Amount to every cell from the pointer to pointer+Offset
	// inclusive. Offset is always >= 0.
	Set
	// Multiply adds (current cell * Amount) to the cell at pointer+Offset.
	// The pointer is left unchanged. Offset is always != 0.
	Multiply
	// Skip repeatedly adds Offset to the pointer while the current cell is
	// nonzero. Offset is always != 0.
	Skip
	// BoundsCheck is a pseudo-op inserted by the optimizer: it guarantees the
	// tape holds cells from the pointer through pointer+Offset inclusive.
	BoundsCheck
	// Once is the pseudo-root of a program; its Children execute exactly
	// once.
	Once
)

var kindNames = [...]string{
	Alter:       "ALTER",
	In:          "IN",
	Out:         "OUT",
	Loop:        "LOOP",
	Set:         "SET",
	Multiply:    "MULTIPLY",
	Skip:        "SKIP",
	BoundsCheck: "BOUNDS_CHECK",
	Once:        "ONCE",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return "INVALID"
}

// Node is a tagged IR node. Exactly one of the payload groups below is
// meaningful, selected by Kind:
//
//   - Alter, Set, Multiply, Skip, BoundsCheck: Offset and/or Amount.
//   - Loop, Once: Children.
//   - In, Out: no payload.
type Node struct {
	Kind Kind

	Offset int   // pointer delta; meaning depends on Kind
	Amount int8  // cell delta or literal; meaning depends on Kind
	Children []*Node

	// DefinitelyZero and DefinitelyNonzero are mutually exclusive facts
	// about the state of the current cell immediately before this node
	// executes, computed and maintained by the peephole optimizer (C4).
	DefinitelyZero    bool
	DefinitelyNonzero bool

	// loopInfo memoizes GetLoopInfo for Kind == Loop. Nil until computed,
	// and again after ResetLoopInfo, which forces the next GetLoopInfo to
	// recompute it.
	loopInfo *LoopInfo
}

// NewAlter returns an ALTER node with the given offset and amount.
func NewAlter(offset int, amount int8) *Node {
	return &Node{Kind: Alter, Offset: offset, Amount: amount}
}

// NewSet returns a SET node covering [0, offset] with the given amount.
func NewSet(offset int, amount int8) *Node {
	return &Node{Kind: Set, Offset: offset, Amount: amount}
}

// NewMultiply returns a MULTIPLY node targeting the given nonzero offset.
func NewMultiply(offset int, amount int8) *Node {
	return &Node{Kind: Multiply, Offset: offset, Amount: amount}
}

// NewSkip returns a SKIP node stepping by the given nonzero offset.
func NewSkip(offset int) *Node {
	return &Node{Kind: Skip, Offset: offset}
}

// NewBoundsCheck returns a BOUNDS_CHECK node covering the given nonzero
// offset.
func NewBoundsCheck(offset int) *Node {
	return &Node{Kind: BoundsCheck, Offset: offset}
}

// NewLoop returns a LOOP node with the given children.
func NewLoop(children []*Node) *Node {
	return &Node{Kind: Loop, Children: children}
}

// NewOnce returns the pseudo-root ONCE node.
func NewOnce(children []*Node) *Node {
	return &Node{Kind: Once, Children: children}
}

// ResetLoopInfo clears the memoized LoopInfo, forcing the next GetLoopInfo
// call to recompute it. Used by passes that mutate a loop's children after
// it has already been analyzed once.
func (n *Node) ResetLoopInfo() {
	n.loopInfo = nil
}

// InvariantOK reports whether DefinitelyZero and DefinitelyNonzero are not
// simultaneously true, the core per-node invariant from the data model.
// Exposed for use by tests and debug assertions.
func (n *Node) InvariantOK() bool {
	return !(n.DefinitelyZero && n.DefinitelyNonzero)
}
