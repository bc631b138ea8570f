// Package kernel is the protocol client for the runtime server's kernel
// sessions. It creates a session over the server's REST API, waits for the
// kernel to become idle, and then executes source text over the kernel's
// websocket channel, demultiplexing the streamed protocol messages of each
// request into an ordered list of outputs.
package kernel
