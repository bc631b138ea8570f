package server

import (
	"fmt"
	"time"
)

// NoPortsAvailableError means no free adjacent port pair was found within the
// bounded probe sequence.
type NoPortsAvailableError struct {
	Base     int
	Attempts int
}

func (e *NoPortsAvailableError) Error() string {
	return fmt.Sprintf("no free port pair found starting from %d after %d attempts", e.Base, e.Attempts)
}

// CrashedError means the server process exited before its endpoint ever
// answered a health check. Output holds the trailing captured stdout/stderr.
type CrashedError struct {
	Output string
}

func (e *CrashedError) Error() string {
	if e.Output == "" {
		return "server process crashed before becoming ready (no output captured)"
	}
	return fmt.Sprintf("server process crashed before becoming ready, trailing output:\n%s", e.Output)
}

// StartupTimeoutError means the endpoint never answered a health check within
// the startup timeout. The process was force-killed before this error was
// returned.
type StartupTimeoutError struct {
	Timeout time.Duration
	Output  string
}

func (e *StartupTimeoutError) Error() string {
	msg := fmt.Sprintf("server did not become ready within %s", e.Timeout)
	if e.Output != "" {
		msg += ", trailing output:\n" + e.Output
	}
	return msg
}
