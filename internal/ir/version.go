package ir

// Version constants for the IR schema and the core.
const (
	// IRVersion is the program model schema version.
	IRVersion = "1"

	// CoreVersion is the version of the libfunc catalog and interpreter.
	CoreVersion = "0.1.0"
)
