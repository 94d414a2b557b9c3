// Package exitcodes contains the constants representing possible smdecode exit codes.
package exitcodes

// ExitCode is just a type representing a process exit code for smdecode
type ExitCode uint8

// list of exit codes used by smdecode
const (
	// Failure is returned for every error kind: bad input, missing or
	// unreachable maps, corrupt maps and positions without an original.
	Failure ExitCode = 1
	// GoPanic is used when the process recovers from an unexpected panic.
	GoPanic ExitCode = 2
)

// ExternalAbort is used when a second interrupt signal arrives before the
// first one stopped the command.
const ExternalAbort ExitCode = 105
