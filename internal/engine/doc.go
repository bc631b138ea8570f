// Package engine is the top-level execution orchestrator. It owns the run
// lifecycle: resolving the runtime, starting the server and kernel session,
// computing the deterministic block execution order, injecting caller inputs,
// driving the kernel block by block with fail-fast semantics, and optionally
// persisting a snapshot of the results.
package engine
