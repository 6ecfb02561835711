package machine

// tapeInitial is the number of cells allocated on each side of the origin
// before any SKIP-driven margin is added, matching
// original_source/interpreter_output_c.c's generated TAPE_INITIAL.
const tapeInitial = 16

// Tape is the two-sided growable cell store from spec.md §3: a mapping
// from integer indices to 8-bit cells, everywhere zero until written.
// Internally it is one contiguous buffer with a logical origin (the index
// holding cell 0); growing to the left re-slices a bigger buffer and
// shifts both origin and the current pointer so existing data stays
// valid, exactly as spec.md §4.7 describes.
type Tape struct {
	buf    []byte
	origin int
	pos    int // buf index of the current cell
}

// NewTape returns a tape pre-inflated so that a SKIP anywhere in the
// program that takes exactly one step in its recorded direction never
// forces a grow. lowestNegSkip is <= 0, highestPosSkip is >= 0; both come
// from compiler.Program.
func NewTape(lowestNegSkip, highestPosSkip int) *Tape {
	left := tapeInitial - lowestNegSkip
	right := tapeInitial + highestPosSkip
	buf := make([]byte, left+right)
	return &Tape{buf: buf, origin: left, pos: left}
}

// Pointer returns the current logical cell index (can be negative).
func (t *Tape) Pointer() int {
	return t.pos - t.origin
}

// Cell returns the value of the current cell.
func (t *Tape) Cell() int8 {
	return int8(t.buf[t.pos])
}

// SetCell writes the current cell.
func (t *Tape) SetCell(v int8) {
	t.buf[t.pos] = byte(v)
}

// CellAt returns the value offset cells from the current position,
// assuming Ensure has already covered that range.
func (t *Tape) CellAt(offset int) int8 {
	return int8(t.buf[t.pos+offset])
}

// SetCellAt writes offset cells from the current position, assuming
// Ensure has already covered that range.
func (t *Tape) SetCellAt(offset int, v int8) {
	t.buf[t.pos+offset] = byte(v)
}

// Move advances the pointer by offset without any bounds checking; the
// caller (BOUNDS_CHECK handling) must have already called Ensure.
func (t *Tape) Move(offset int) {
	t.pos += offset
}

// Ensure grows the tape, if needed, so every index from the current
// pointer plus lo through the current pointer plus hi (lo <= 0 <= hi) is
// valid to read or write.
func (t *Tape) Ensure(lo, hi int) {
	if need := t.pos + hi - (len(t.buf) - 1); need > 0 {
		t.growRight(need)
	}
	if need := -(t.pos + lo); need > 0 {
		t.growLeft(need)
	}
}

// Step advances the pointer by offset, growing the tape first if needed.
// Used by SKIP, whose cumulative distance can exceed the program-wide
// margin NewTape pre-allocated for a single step; see DESIGN.md for why
// this re-checks every iteration instead of trusting the margin alone.
func (t *Tape) Step(offset int) {
	t.Ensure(min(0, offset), max(0, offset))
	t.pos += offset
}

func (t *Tape) growRight(need int) {
	newLen := len(t.buf) * 2
	for newLen < len(t.buf)+need {
		newLen *= 2
	}
	grown := make([]byte, newLen)
	copy(grown, t.buf)
	t.buf = grown
}

func (t *Tape) growLeft(need int) {
	extra := len(t.buf)
	for extra < need {
		extra *= 2
	}
	grown := make([]byte, len(t.buf)+extra)
	copy(grown[extra:], t.buf)
	t.buf = grown
	t.origin += extra
	t.pos += extra
}
