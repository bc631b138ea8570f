// Package server owns the external runtime server subprocess: spawning it
// with an allocated port pair, polling its HTTP endpoint until it is ready,
// capturing its trailing output for diagnostics, and tearing it down. The
// subprocess handle never leaves this package; callers interact with the
// server only through the endpoint URL in Info.
package server
