// Package source builds the lang/ir.ByteSource for a CLI run: a named
// file, or standard input treated as an interactive terminal session that
// honors the `!` end-of-program marker. This is one of the "external
// collaborators" spec.md §1 calls out of core scope, specified here only
// through the interface it hands to lang/ir.
package source

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/mna/bfvm/lang/ir"
)

// Open returns a ByteSource for path, or for standard input if path is
// empty. The returned closer must be called once reading is done; it is a
// no-op for standard input.
func Open(path string, stdin io.Reader, warn func(string)) (ir.ByteSource, io.Closer, error) {
	if path == "" {
		return ir.ByteSource{
			R:           bufio.NewReader(stdin),
			Interactive: true,
			Warn:        warn,
		}, nopCloser{}, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return ir.ByteSource{}, nil, fmt.Errorf("source: opening %s: %w", path, err)
	}
	return ir.ByteSource{
		R:           bufio.NewReader(f),
		Interactive: false,
		Warn:        warn,
	}, f, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
