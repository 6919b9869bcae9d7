package sacn

import (
	"errors"
	"net"
	"time"
)

// ReceiveSocket is the injectable façade the receiver engine consumes. A
// real implementation wraps a UDP multicast socket; tests substitute
// internal/memsock's in-memory double, per Design Note 9 ("separate the
// engine from the task handle ... testability via an in-memory socket
// stub").
type ReceiveSocket interface {
	Bind(addr string, port int) error
	// Recv blocks for up to timeout waiting for one datagram. A timed-out
	// read returns an error satisfying IsTimeout(err).
	Recv(buf []byte, timeout time.Duration) (n int, src *net.UDPAddr, err error)
	JoinMulticast(group net.IP) error
	LeaveMulticast(group net.IP) error
	Close() error
}

// SendSocket is the injectable façade the sender engine consumes.
type SendSocket interface {
	Bind(addr string, port int) error
	SendUnicast(b []byte, dest net.IP, port int) error
	SendMulticast(b []byte, group net.IP, port int, ttl int) error
	SendBroadcast(b []byte, port int) error
	Close() error
}

// timeoutError is returned by Recv when the read deadline elapses. It is
// not a protocol error: it is a control-flow signal from recv, not a
// condition callers should treat as failure.
type timeoutError struct{}

func (timeoutError) Error() string   { return "sacn: recv timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

// IsTimeout reports whether err (or anything it wraps) represents a Recv
// timeout rather than a real socket error.
func IsTimeout(err error) bool {
	type timeouter interface{ Timeout() bool }
	var t timeouter
	return errors.As(err, &t) && t.Timeout()
}
