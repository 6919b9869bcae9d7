// Command sacn-send drives the universes listed in a config file with a
// slowly moving test pattern, useful for exercising a receiver or a
// lighting console's sACN input without any real show data.
package main

import (
	"flag"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lumentile/sacn"
	"github.com/lumentile/sacn/config"
)

func main() {
	configPath := flag.String("config", "config.toml", "path to config file")
	manualFlush := flag.Bool("manual-flush", false, "disable periodic send; only emit on Flush")
	flag.Parse()

	logger := sacn.NewCharmLogger()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Errorf("config: %v", err)
		os.Exit(1)
	}

	sender := sacn.NewSender(cfg.BindAddress, cfg.BindPort, cfg.SourceName,
		sacn.WithSenderLogger(logger),
		sacn.WithFPS(cfg.FPS),
		sacn.WithUniverseDiscovery(cfg.Discovery),
		sacn.WithPerAddressPriority(cfg.PerAddressPriority),
	)

	if err := cfg.ApplyOutputs(sender); err != nil {
		logger.Errorf("apply outputs: %v", err)
		os.Exit(1)
	}
	sender.SetManualFlush(*manualFlush)

	if err := sender.Start(); err != nil {
		logger.Errorf("start sender: %v", err)
		os.Exit(1)
	}
	logger.Infof("sender started bind=%s:%d universes=%d", cfg.BindAddress, cfg.BindPort, len(cfg.Outputs))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(33 * time.Millisecond)
	defer ticker.Stop()

	var frame int
	for {
		select {
		case <-sigChan:
			logger.Infof("shutting down")
			for _, out := range cfg.Outputs {
				_ = sender.DeactivateOutput(out.Universe.Universe)
			}
			sender.Stop()
			return
		case <-ticker.C:
			frame++
			data := sineChase(frame)
			for _, out := range cfg.Outputs {
				if err := sender.SetDMXData(out.Universe.Universe, data); err != nil {
					logger.Warnf("set data universe=%d: %v", out.Universe.Universe, err)
				}
			}
			if *manualFlush {
				sender.Flush()
			}
		}
	}
}

// sineChase produces a 512-byte frame where each channel is offset along a
// sine wave, giving a visibly moving pattern without any external input.
func sineChase(frame int) []byte {
	data := make([]byte, 512)
	for i := range data {
		phase := float64(frame)/20 + float64(i)/16
		data[i] = byte((math.Sin(phase) + 1) / 2 * 255)
	}
	return data
}
