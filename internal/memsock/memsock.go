// Package memsock is an in-memory stand-in for UDP sockets, used by the
// sacn package's tests to drive Receiver and Sender without touching a
// real network interface. It implements the same method shapes as
// sacn.ReceiveSocket and sacn.SendSocket (duck-typed, so this package does
// not import sacn).
package memsock

import (
	"errors"
	"net"
	"sync"
	"time"
)

type datagram struct {
	data []byte
	src  *net.UDPAddr
}

type timeoutError struct{}

func (timeoutError) Error() string   { return "memsock: recv timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

// Network is the shared medium a set of Sockets exchange datagrams
// through, modeling one IPv4 broadcast domain.
type Network struct {
	mu      sync.Mutex
	sockets map[*Socket]bool
}

// New returns an empty Network.
func New() *Network {
	return &Network{sockets: map[*Socket]bool{}}
}

// NewSocket attaches a new Socket to the network, identified by ip (its
// virtual address for unicast delivery and as the source address peers
// observe).
func (n *Network) NewSocket(ip net.IP) *Socket {
	s := &Socket{
		net:    n,
		ip:     ip,
		groups: map[string]bool{},
		inbox:  make(chan datagram, 256),
	}
	n.mu.Lock()
	n.sockets[s] = true
	n.mu.Unlock()
	return s
}

func (n *Network) remove(s *Socket) {
	n.mu.Lock()
	delete(n.sockets, s)
	n.mu.Unlock()
}

func (n *Network) deliverUnicast(data []byte, src *net.UDPAddr, dest net.IP, port int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for s := range n.sockets {
		if s.port == port && s.ip.Equal(dest) {
			s.push(data, src)
		}
	}
}

func (n *Network) deliverMulticast(data []byte, src *net.UDPAddr, group net.IP, port int) {
	key := group.String()
	n.mu.Lock()
	defer n.mu.Unlock()
	for s := range n.sockets {
		s.mu.Lock()
		joined := s.groups[key]
		s.mu.Unlock()
		if s.port == port && joined {
			s.push(data, src)
		}
	}
}

func (n *Network) deliverBroadcast(data []byte, src *net.UDPAddr, port int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for s := range n.sockets {
		if s.port == port {
			s.push(data, src)
		}
	}
}

// Socket implements both sacn.ReceiveSocket and sacn.SendSocket.
type Socket struct {
	net *Network
	ip  net.IP
	port int

	mu     sync.Mutex
	groups map[string]bool
	closed bool

	inbox chan datagram
}

func (s *Socket) push(data []byte, src *net.UDPAddr) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	select {
	case s.inbox <- datagram{data: cp, src: src}:
	default:
		// Drop on a full inbox, same as a kernel UDP receive buffer
		// overflowing.
	}
}

func (s *Socket) Bind(addr string, port int) error {
	s.port = port
	return nil
}

func (s *Socket) Recv(buf []byte, timeout time.Duration) (int, *net.UDPAddr, error) {
	select {
	case d := <-s.inbox:
		n := copy(buf, d.data)
		return n, d.src, nil
	case <-time.After(timeout):
		return 0, nil, timeoutError{}
	}
}

func (s *Socket) JoinMulticast(group net.IP) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.groups[group.String()] = true
	return nil
}

func (s *Socket) LeaveMulticast(group net.IP) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.groups, group.String())
	return nil
}

func (s *Socket) SendUnicast(b []byte, dest net.IP, port int) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	s.net.deliverUnicast(b, s.selfAddr(), dest, port)
	return nil
}

func (s *Socket) SendMulticast(b []byte, group net.IP, port int, ttl int) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	s.net.deliverMulticast(b, s.selfAddr(), group, port)
	return nil
}

func (s *Socket) SendBroadcast(b []byte, port int) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	s.net.deliverBroadcast(b, s.selfAddr(), port)
	return nil
}

func (s *Socket) selfAddr() *net.UDPAddr {
	return &net.UDPAddr{IP: s.ip, Port: s.port}
}

func (s *Socket) checkOpen() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.New("memsock: socket closed")
	}
	return nil
}

func (s *Socket) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.net.remove(s)
	return nil
}
