package sacn

import (
	"fmt"
	"net"
	"sync"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcap"
)

// PacketHandler receives every decoded sACN PDU a Sniffer captures off the
// wire, alongside the kind of PDU it was and the source IP it came from.
type PacketHandler func(kind PacketKind, pkt any, src net.IP)

// Sniffer is a passive, BPF-filtered capture path: an alternative to
// Receiver for tools that want to observe traffic without binding a socket
// (and so without competing for the port with another bound listener),
// grounded on gopatchy-artmap/sacn/receiver_pcap.go.
type Sniffer struct {
	handle  *pcap.Handle
	handler PacketHandler
	logger  Logger

	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// SnifferOption configures a Sniffer at construction time.
type SnifferOption func(*Sniffer)

// WithSnifferLogger injects a Logger, overriding the no-op default.
func WithSnifferLogger(l Logger) SnifferOption {
	return func(s *Sniffer) { s.logger = orNoop(l) }
}

// NewSniffer opens iface for live capture and installs a BPF filter for
// UDP port Port. It requires the capture privileges the host platform
// demands (root, or CAP_NET_RAW on Linux).
func NewSniffer(iface string, handler PacketHandler, opts ...SnifferOption) (*Sniffer, error) {
	handle, err := pcap.OpenLive(iface, 1600, true, pcap.BlockForever)
	if err != nil {
		return nil, fmt.Errorf("pcap open: %w", err)
	}

	if err := handle.SetBPFFilter(fmt.Sprintf("udp port %d", Port)); err != nil {
		handle.Close()
		return nil, fmt.Errorf("pcap filter: %w", err)
	}

	s := &Sniffer{
		handle:  handle,
		handler: handler,
		logger:  noopLogger{},
		done:    make(chan struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Start spawns the capture worker goroutine.
func (s *Sniffer) Start() {
	s.wg.Add(1)
	go s.run()
}

// Stop closes the capture handle and waits for the worker to exit.
// Idempotent.
func (s *Sniffer) Stop() {
	s.stopOnce.Do(func() {
		close(s.done)
		s.handle.Close()
	})
	s.wg.Wait()
}

func (s *Sniffer) run() {
	defer s.wg.Done()

	source := gopacket.NewPacketSource(s.handle, s.handle.LinkType())
	packets := source.Packets()

	for {
		select {
		case <-s.done:
			return
		case pkt, ok := <-packets:
			if !ok {
				return
			}
			s.handlePacket(pkt)
		}
	}
}

func (s *Sniffer) handlePacket(pkt gopacket.Packet) {
	udpLayer := pkt.Layer(layers.LayerTypeUDP)
	if udpLayer == nil {
		return
	}
	udp, ok := udpLayer.(*layers.UDP)
	if !ok {
		return
	}

	var src net.IP
	if ipLayer := pkt.Layer(layers.LayerTypeIPv4); ipLayer != nil {
		if ip, ok := ipLayer.(*layers.IPv4); ok {
			src = ip.SrcIP
		}
	}

	kind, decoded, err := Decode(udp.Payload)
	if err != nil {
		s.logger.Debugf("dropping undecodable datagram from %s: %v", src, err)
		return
	}

	s.handler(kind, decoded, src)
}

// ListInterfaces returns the names of network interfaces pcap can capture
// on.
func ListInterfaces() ([]string, error) {
	devices, err := pcap.FindAllDevs()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(devices))
	for _, dev := range devices {
		names = append(names, dev.Name)
	}
	return names, nil
}

// DefaultInterface picks the first non-loopback interface with an assigned
// address, falling back to the first device pcap reports.
func DefaultInterface() string {
	devices, err := pcap.FindAllDevs()
	if err != nil {
		return ""
	}
	for _, dev := range devices {
		if len(dev.Addresses) > 0 && dev.Name != "lo0" && dev.Name != "lo" {
			return dev.Name
		}
	}
	if len(devices) > 0 {
		return devices[0].Name
	}
	return ""
}
