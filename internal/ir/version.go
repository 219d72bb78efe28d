package ir

// Version constants for the assembly IR and the compiler that emits it.
const (
	// IRVersion is the assembly IR schema version.
	IRVersion = "1"

	// CompilerVersion is the neurasm lowering pass version.
	CompilerVersion = "0.1.0"
)
