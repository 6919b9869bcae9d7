//go:build !windows

package sacn

import (
	"syscall"

	"golang.org/x/sys/unix"
)

// setReuseAddr best-effort enables SO_REUSEADDR via a ListenConfig.Control
// callback. Failure is non-fatal; the bind proceeds regardless.
func setReuseAddr(network, address string, c syscall.RawConn) error {
	_ = c.Control(func(fd uintptr) {
		_ = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
	})
	return nil
}

// setSenderSockOpts enables SO_REUSEADDR and SO_BROADCAST for the sender's
// socket; the latter is required on most platforms to send to
// 255.255.255.255. Failure is non-fatal.
func setSenderSockOpts(network, address string, c syscall.RawConn) error {
	_ = c.Control(func(fd uintptr) {
		_ = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
		_ = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_BROADCAST, 1)
	})
	return nil
}
