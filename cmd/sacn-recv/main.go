// Command sacn-recv joins the universes listed in a config file and logs
// availability changes and a summary of each changed DMX frame.
package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/lumentile/sacn"
	"github.com/lumentile/sacn/config"
)

func main() {
	configPath := flag.String("config", "config.toml", "path to config file")
	flag.Parse()

	logger := sacn.NewCharmLogger()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Errorf("config: %v", err)
		os.Exit(1)
	}

	receiver, err := sacn.NewReceiver(cfg.BindAddress, cfg.BindPort, sacn.WithReceiverLogger(logger))
	if err != nil {
		logger.Errorf("create receiver: %v", err)
		os.Exit(1)
	}

	if err := cfg.ApplySources(receiver); err != nil {
		logger.Errorf("apply sources: %v", err)
		os.Exit(1)
	}

	receiver.OnAvailability(func(universe uint16, state string) {
		logger.Infof("[availability] universe=%d state=%s", universe, state)
	})

	for _, src := range cfg.Sources {
		universe := src.Universe.Universe
		receiver.OnUniverse(universe, func(pkt *sacn.DataPacket) {
			nonZero := 0
			for _, b := range pkt.Data {
				if b != 0 {
					nonZero++
				}
			}
			logger.Infof("[data] universe=%d source=%q priority=%d seq=%d nonzero=%d",
				pkt.Universe, pkt.SourceName, pkt.Priority, pkt.Sequence, nonZero)
		})
	}

	receiver.Start()
	logger.Infof("receiver started bind=%s:%d sources=%d", cfg.BindAddress, cfg.BindPort, len(cfg.Sources))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Infof("shutting down")
	for _, src := range cfg.Sources {
		_ = receiver.LeaveMulticast(src.Universe.Universe)
	}
	receiver.Stop()
}
