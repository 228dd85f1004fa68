package main

// Exit codes
const (
	ExitSuccess     = 0 // Success
	ExitError       = 1 // General error (invalid arguments, runtime failure)
	ExitConfigError = 2 // Configuration error (invalid file, store or bucket unreachable)
	ExitDataError   = 3 // Data error (validation failure, malformed input)
	ExitNotFound    = 4 // Unknown article id, file or DOI
)
