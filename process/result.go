package process

import "time"

// Result is the outcome of a one-shot run. Stderr matters most here: the
// wrapped tools write their diagnostics there, and its tail ends up in
// PROCESS_FAILED errors and capture logs.
type Result struct {
	// Stdout is the captured standard output.
	Stdout []byte
	// Stderr is the captured standard error.
	Stderr []byte
	// ExitCode is the process exit code, -1 if the process was killed.
	ExitCode int
	// Duration is how long the process ran.
	Duration time.Duration
}
