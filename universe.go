package sacn

import (
	"net"
)

const (
	// Port is the default UDP port for sACN traffic.
	Port = 5568

	minUniverse = 1
	maxUniverse = 63999

	minPriority = 0
	maxPriority = 200

	// DefaultPriority is the priority assigned to a newly activated output.
	DefaultPriority = 100

	// DefaultTTL is the multicast TTL assigned to a newly activated output.
	DefaultTTL = 8
)

// DiscoveryAddr is the destination for UNIVERSE_DISCOVERY broadcasts.
var DiscoveryAddr = &net.UDPAddr{IP: net.IPv4bcast, Port: Port}

// CheckUniverse validates a universe number against the [1, 63999] range.
func CheckUniverse(universe int) error {
	if universe < minUniverse || universe > maxUniverse {
		return invalidArgument("universe", universe)
	}
	return nil
}

// checkSyncUniverse allows 0 (unsynchronized) in addition to the valid range.
func checkSyncUniverse(universe int) error {
	if universe == 0 {
		return nil
	}
	return CheckUniverse(universe)
}

// CheckPriority validates a priority against the [0, 200] range.
func CheckPriority(priority int) error {
	if priority < minPriority || priority > maxPriority {
		return invalidArgument("priority", priority)
	}
	return nil
}

// MulticastAddr returns the multicast group address for a universe:
// 239.255.HI.LO where HI = universe>>8, LO = universe&0xFF.
func MulticastAddr(universe uint16) *net.UDPAddr {
	return &net.UDPAddr{
		IP:   net.IPv4(239, 255, byte(universe>>8), byte(universe&0xff)),
		Port: Port,
	}
}
