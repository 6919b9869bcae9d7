package sacn

import (
	"context"
	"net"
	"strconv"
	"time"

	"golang.org/x/net/ipv4"
)

// UDPReceiveSocket is the production ReceiveSocket, built on
// golang.org/x/net/ipv4.PacketConn for multicast group membership, the
// same library gopatchy-artmap/sacn/receiver.go uses.
type UDPReceiveSocket struct {
	iface *net.Interface
	conn  *net.UDPConn
	pconn *ipv4.PacketConn
}

// NewUDPReceiveSocket constructs a receive socket, optionally bound to a
// specific network interface for multicast membership (nil uses the
// system default).
func NewUDPReceiveSocket(iface *net.Interface) *UDPReceiveSocket {
	return &UDPReceiveSocket{iface: iface}
}

func (s *UDPReceiveSocket) Bind(addr string, port int) error {
	lc := net.ListenConfig{Control: setReuseAddr}
	pc, err := lc.ListenPacket(context.Background(), "udp4", net.JoinHostPort(addr, strconv.Itoa(port)))
	if err != nil {
		return socketError("bind", err)
	}
	s.conn = pc.(*net.UDPConn)
	s.pconn = ipv4.NewPacketConn(s.conn)
	return nil
}

func (s *UDPReceiveSocket) Recv(buf []byte, timeout time.Duration) (int, *net.UDPAddr, error) {
	if err := s.conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return 0, nil, socketError("set-read-deadline", err)
	}
	n, addr, err := s.conn.ReadFromUDP(buf)
	if err != nil {
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			return 0, nil, timeoutError{}
		}
		return 0, nil, socketError("recv", err)
	}
	return n, addr, nil
}

func (s *UDPReceiveSocket) JoinMulticast(group net.IP) error {
	if err := s.pconn.JoinGroup(s.iface, &net.UDPAddr{IP: group}); err != nil {
		return socketError("join-multicast", err)
	}
	return nil
}

func (s *UDPReceiveSocket) LeaveMulticast(group net.IP) error {
	// Leaving a non-joined group is a no-op; the kernel
	// already treats a redundant IGMP drop as harmless, so the error is
	// swallowed here too.
	_ = s.pconn.LeaveGroup(s.iface, &net.UDPAddr{IP: group})
	return nil
}

func (s *UDPReceiveSocket) Close() error {
	return s.conn.Close()
}

// UDPSendSocket is the production SendSocket.
type UDPSendSocket struct {
	iface *net.Interface
	conn  *net.UDPConn
	pconn *ipv4.PacketConn
}

// NewUDPSendSocket constructs a send socket, optionally bound to a specific
// network interface for multicast egress.
func NewUDPSendSocket(iface *net.Interface) *UDPSendSocket {
	return &UDPSendSocket{iface: iface}
}

func (s *UDPSendSocket) Bind(addr string, port int) error {
	lc := net.ListenConfig{Control: setSenderSockOpts}
	pc, err := lc.ListenPacket(context.Background(), "udp4", net.JoinHostPort(addr, strconv.Itoa(port)))
	if err != nil {
		return socketError("bind", err)
	}
	s.conn = pc.(*net.UDPConn)
	s.pconn = ipv4.NewPacketConn(s.conn)
	if s.iface != nil {
		if err := s.pconn.SetMulticastInterface(s.iface); err != nil {
			return socketError("set-multicast-interface", err)
		}
	}
	return nil
}

func (s *UDPSendSocket) SendUnicast(b []byte, dest net.IP, port int) error {
	_, err := s.conn.WriteToUDP(b, &net.UDPAddr{IP: dest, Port: port})
	if err != nil {
		return socketError("send-unicast", err)
	}
	return nil
}

func (s *UDPSendSocket) SendMulticast(b []byte, group net.IP, port int, ttl int) error {
	if err := s.pconn.SetMulticastTTL(ttl); err != nil {
		return socketError("set-multicast-ttl", err)
	}
	_, err := s.conn.WriteToUDP(b, &net.UDPAddr{IP: group, Port: port})
	if err != nil {
		return socketError("send-multicast", err)
	}
	return nil
}

func (s *UDPSendSocket) SendBroadcast(b []byte, port int) error {
	_, err := s.conn.WriteToUDP(b, &net.UDPAddr{IP: net.IPv4bcast, Port: port})
	if err != nil {
		return socketError("send-broadcast", err)
	}
	return nil
}

func (s *UDPSendSocket) Close() error {
	return s.conn.Close()
}
