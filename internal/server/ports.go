package server

import (
	"fmt"
	"net"
)

// allocatePortPair probes for two adjacent free TCP ports, starting at base
// and advancing by two on any conflict. The probe is monotonically
// increasing so two interleaved allocations cannot both claim the same pair;
// the design assumes one supervisor per allocation sequence.
func allocatePortPair(base, maxAttempts int) (int, int, error) {
	for i := 0; i < maxAttempts; i++ {
		primary := base + i*2
		if portFree(primary) && portFree(primary+1) {
			return primary, primary + 1, nil
		}
	}
	return 0, 0, &NoPortsAvailableError{Base: base, Attempts: maxAttempts}
}

// portFree reports whether a TCP port on loopback can currently be bound.
func portFree(port int) bool {
	l, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
	if err != nil {
		return false
	}
	l.Close()
	return true
}
