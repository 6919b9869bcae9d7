// Command sacn-sniff passively captures sACN traffic on a network
// interface with a BPF filter, bypassing the need to bind the sACN port.
// Useful for observing traffic alongside a running receiver or console.
package main

import (
	"flag"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/lumentile/sacn"
)

func main() {
	iface := flag.String("iface", "", "network interface to capture on (default: auto-detect)")
	flag.Parse()

	logger := sacn.NewCharmLogger()

	dev := *iface
	if dev == "" {
		dev = sacn.DefaultInterface()
		if dev == "" {
			logger.Errorf("no capture interface found; pass -iface explicitly")
			os.Exit(1)
		}
	}

	sniffer, err := sacn.NewSniffer(dev, func(kind sacn.PacketKind, pkt any, src net.IP) {
		switch p := pkt.(type) {
		case *sacn.DataPacket:
			logger.Infof("[data] src=%s universe=%d source=%q priority=%d seq=%d",
				src, p.Universe, p.SourceName, p.Priority, p.Sequence)
		case *sacn.SyncPacket:
			logger.Infof("[sync] src=%s sync_universe=%d seq=%d", src, p.SyncUniverse, p.Sequence)
		case *sacn.DiscoveryPacket:
			logger.Infof("[discovery] src=%s source=%q page=%d/%d universes=%v",
				src, p.SourceName, p.Page, p.LastPage, p.Universes)
		default:
			_ = kind
		}
	}, sacn.WithSnifferLogger(logger))
	if err != nil {
		logger.Errorf("create sniffer: %v", err)
		os.Exit(1)
	}

	sniffer.Start()
	logger.Infof("sniffing iface=%s", dev)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Infof("shutting down")
	sniffer.Stop()
}
