// Package runtime resolves a user-supplied interpreter hint (a bare command
// name, an executable path, or a virtual-environment root) into a concrete
// Python executable path. Resolution failures are terminal for a run; there
// is no retry or fallback past the documented search order.
package runtime
