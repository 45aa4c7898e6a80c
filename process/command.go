package process

import (
	"io"
	"time"
)

// Command describes one external tool invocation — a transcoder or
// speech-recognition run. The zero value of every optional field inherits
// from the calling process.
type Command struct {
	// Binary is the executable path or name (resolved via PATH).
	Binary string
	// Args are the command-line arguments, already fully built by the caller.
	Args []string
	// Dir is the working directory. Empty means the current directory.
	Dir string
	// Env is extra environment variables (key=value), merged over os.Environ.
	Env []string
	// Stdin feeds the process. May be nil; none of the wrapped tools read it.
	Stdin io.Reader
	// GracePeriod is the SIGTERM-to-SIGKILL delay on cancellation or
	// termination. Long enough for the transcoder to flush its last segment.
	// Defaults to 5 seconds if zero.
	GracePeriod time.Duration
}
