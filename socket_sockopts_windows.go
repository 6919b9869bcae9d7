//go:build windows

package sacn

import "syscall"

// setReuseAddr is a no-op on windows; SO_REUSEADDR has different semantics
// there and rebinding a UDP socket in TIME_WAIT is not a concern on this
// platform.
func setReuseAddr(network, address string, c syscall.RawConn) error {
	return nil
}

// setSenderSockOpts is a no-op on windows.
func setSenderSockOpts(network, address string, c syscall.RawConn) error {
	return nil
}
