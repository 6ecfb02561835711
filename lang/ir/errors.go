package ir

import "go/scanner"

// Error and ErrorList mirror go/scanner's well-known shape for collecting
// multiple positioned errors from a single build and printing them sorted.
// The builder never needs go/token's rich Pos machinery — a build offset
// (byte count from the start of the source) is enough — but reusing the
// type here keeps error aggregation, sorting and printing exactly the way
// the rest of the toolchain already expects errors to behave.
type Error = scanner.Error

// ErrorList is a list of *Errors.
type ErrorList = scanner.ErrorList
