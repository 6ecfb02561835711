package compiler

// Program is the flattened output of C6: a read-only packed bytecode
// stream plus the summary values the interpreter (lang/machine) needs to
// pre-inflate its tape before execution begins.
//
// Grounded on lang/compiler.Funcode's shape (a compiled unit paired with
// metadata the runtime consults), trimmed to what a single straight-line
// program needs — bfvm has no functions, call frames or separate
// constant pools to carry alongside the code.
type Program struct {
	Code []byte

	// LowestNegativeSkip and HighestPositiveSkip are the most negative and
	// most positive offsets used by any SKIP instruction anywhere in the
	// program (0 if no SKIP exists in either direction). The interpreter
	// uses these to pre-inflate the tape so a SKIP's tight loop never needs
	// to bounds-check itself. Grounded on
	// original_source/interpreter_output_c.c's generated
	// LOWEST_NEGATIVE_SKIP/HIGHEST_POSITIVE_SKIP constants.
	LowestNegativeSkip  int
	HighestPositiveSkip int
}
