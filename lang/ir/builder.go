package ir

import (
	"fmt"
	"go/scanner"
	"go/token"
	"io"
)

// ByteSource is the lazy input C1 reads symbols from. Only the eight
// recognized symbols carry meaning; every other byte is a comment and is
// skipped. Interactive sources (stdin) additionally honor `!` as an
// explicit end-of-program marker.
type ByteSource struct {
	R           io.ByteReader
	Interactive bool

	// Warn, if non-nil, is called with diagnostic text that is not a build
	// error — currently only the "bang inside a loop" warning.
	Warn func(string)
}

// UnbalancedClose is the message used for an unmatched `]`.
const UnbalancedClose = "unbalanced close: no matching '[' for this ']'"

// Build reads src to completion and returns the ONCE root of the resulting
// IR tree. A non-nil error is always a scanner.ErrorList of one or more
// UnbalancedClose reports, or an I/O error from the underlying reader
// wrapped on its own. End of input with loops still open is tolerated: the
// open loops are simply closed as of end of input, matching
// original_source/parser.c falling out of its read loop without ever
// hitting its ']' case.
func Build(src ByteSource) (*Node, error) {
	b := &builder{src: src}
	b.stack = append(b.stack, &frame{})

	if err := b.run(); err != nil {
		return nil, err
	}

	for len(b.stack) > 1 {
		b.closeLoop()
	}

	root := NewOnce(b.stack[0].children)
	return root, b.errs.Err()
}

type frame struct {
	children []*Node
}

type builder struct {
	src   ByteSource
	stack []*frame
	offs  int
	errs  scanner.ErrorList
}

func (b *builder) run() error {
	for {
		c, err := b.src.R.ReadByte()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("ir: reading source: %w", err)
		}
		b.offs++

		if b.src.Interactive && c == '!' {
			if len(b.stack) > 1 {
				if b.src.Warn != nil {
					b.src.Warn("found a bang inside a loop; ignoring")
				}
			} else {
				return nil
			}
		}

		switch c {
		case '+':
			b.appendAmount(1)
		case '-':
			b.appendAmount(-1)
		case '>':
			b.appendOffset(1)
		case '<':
			b.appendOffset(-1)
		case ',':
			b.append(&Node{Kind: In})
		case '.':
			b.append(&Node{Kind: Out})
		case '[':
			b.stack = append(b.stack, &frame{})
		case ']':
			if len(b.stack) == 1 {
				b.errs.Add(token.Position{Offset: b.offs, Line: 1, Column: b.offs + 1}, UnbalancedClose)
				continue
			}
			b.closeLoop()
		}
	}
}

// top returns the currently open block's children slice.
func (b *builder) top() *frame {
	return b.stack[len(b.stack)-1]
}

// append adds node as a new element of the current block, ending whatever
// coalescing run was in progress.
func (b *builder) append(n *Node) {
	f := b.top()
	f.children = append(f.children, n)
}

// appendAmount handles '+'/'-': extend the last ALTER or SET in the
// current block, or start a new ALTER.
func (b *builder) appendAmount(delta int8) {
	f := b.top()
	if n := len(f.children); n > 0 {
		last := f.children[n-1]
		if last.Kind == Alter || last.Kind == Set {
			last.Amount += delta
			return
		}
	}
	b.append(NewAlter(0, delta))
}

// appendOffset handles '<'/'>': extend the last ALTER in the current block
// only while its amount is still zero (the move must happen before the
// add, so once an amount has been recorded a new ALTER is needed for
// further movement).
func (b *builder) appendOffset(delta int) {
	f := b.top()
	if n := len(f.children); n > 0 {
		last := f.children[n-1]
		if last.Kind == Alter && last.Amount == 0 {
			last.Offset += delta
			return
		}
	}
	b.append(NewAlter(delta, 0))
}

// closeLoop pops the open block, builds its LOOP node, hands it to the
// idiom recognizer (C2), and appends the (possibly rewritten) result to
// the new top block.
func (b *builder) closeLoop() {
	f := b.stack[len(b.stack)-1]
	b.stack = b.stack[:len(b.stack)-1]

	loop := NewLoop(f.children)
	result := optimizeLoop(loop)

	parent := b.top()
	parent.children = append(parent.children, result...)
}
