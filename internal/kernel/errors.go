package kernel

import (
	"fmt"
	"time"
)

// NotConnectedError means Execute or Disconnect-era operations were attempted
// without a successful Connect.
type NotConnectedError struct{}

func (e *NotConnectedError) Error() string {
	return "kernel client is not connected"
}

// KernelDeadError means the kernel reported the dead state before ever
// becoming idle. The connection attempt is terminal.
type KernelDeadError struct {
	KernelID string
}

func (e *KernelDeadError) Error() string {
	return fmt.Sprintf("kernel %s reported state 'dead' before becoming ready", e.KernelID)
}

// ReadyTimeoutError means the kernel never reached the idle state within the
// readiness timeout.
type ReadyTimeoutError struct {
	KernelID string
	Timeout  time.Duration
}

func (e *ReadyTimeoutError) Error() string {
	return fmt.Sprintf("kernel %s did not become idle within %s", e.KernelID, e.Timeout)
}
