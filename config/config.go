// Package config loads TOML application configuration for the sacn
// command-line tools: bind address/port, source name, frame rate, and the
// set of universes to send or receive, adapted from
// gopatchy-artmap/config/config.go's TOML-with-custom-unmarshal style.
package config

import (
	"fmt"
	"net"

	"github.com/BurntSushi/toml"

	"github.com/lumentile/sacn"
)

// Config is the top-level application configuration.
type Config struct {
	BindAddress string `toml:"bind_address"`
	BindPort    int    `toml:"bind_port"`
	SourceName  string `toml:"source_name"`
	FPS         int    `toml:"fps"`

	Discovery          bool `toml:"discovery"`
	PerAddressPriority bool `toml:"per_address_priority"`

	Outputs []OutputConfig `toml:"output"`
	Sources []SourceConfig `toml:"source"`
}

// OutputConfig describes one universe a sender should activate.
type OutputConfig struct {
	Universe    UniverseAddr `toml:"universe"`
	Priority    int          `toml:"priority"`
	Multicast   bool         `toml:"multicast"`
	Destination string       `toml:"destination"`
	TTL         int          `toml:"ttl"`
	Preview     bool         `toml:"preview"`
}

// SourceConfig describes one universe a receiver should join and listen on.
type SourceConfig struct {
	Universe UniverseAddr `toml:"universe"`
}

// UniverseAddr accepts a universe number written as a bare TOML integer or
// as a quoted string, per config.go's UnmarshalTOML pattern.
type UniverseAddr struct {
	Universe uint16
}

func (u *UniverseAddr) UnmarshalTOML(data any) error {
	var n int64
	switch v := data.(type) {
	case int64:
		n = v
	case float64:
		// TOML libraries sometimes hand back integers as float64.
		n = int64(v)
	case string:
		if _, err := fmt.Sscanf(v, "%d", &n); err != nil {
			return fmt.Errorf("invalid universe address: %q", v)
		}
	default:
		return fmt.Errorf("unsupported universe address type: %T", data)
	}
	if n < 0 || n > 0xffff {
		return fmt.Errorf("invalid universe address: %d", n)
	}
	u.Universe = uint16(n)
	return sacn.CheckUniverse(int(u.Universe))
}

// Load reads and validates a TOML config file, filling in defaults for any
// zero-valued field.
func Load(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.BindAddress == "" {
		cfg.BindAddress = "0.0.0.0"
	}
	if cfg.BindPort == 0 {
		cfg.BindPort = sacn.Port
	}
	if cfg.SourceName == "" {
		cfg.SourceName = "sacn"
	}
	if cfg.FPS == 0 {
		cfg.FPS = 30
	}

	for i := range cfg.Outputs {
		o := &cfg.Outputs[i]
		if o.Priority == 0 {
			o.Priority = sacn.DefaultPriority
		}
		if err := sacn.CheckPriority(o.Priority); err != nil {
			return nil, fmt.Errorf("output %d: %w", i, err)
		}
		if o.TTL == 0 {
			o.TTL = sacn.DefaultTTL
		}
		if o.Destination != "" && net.ParseIP(o.Destination) == nil {
			return nil, fmt.Errorf("output %d: invalid destination address %q", i, o.Destination)
		}
	}

	return &cfg, nil
}

// ApplyOutputs activates every configured output on s, per-setter, so a
// caller needs only Load + ApplyOutputs + Start.
func (c *Config) ApplyOutputs(s *sacn.Sender) error {
	for i, o := range c.Outputs {
		universe := o.Universe.Universe
		if err := s.ActivateOutput(universe); err != nil {
			return fmt.Errorf("output %d: %w", i, err)
		}
		if err := s.SetPriority(universe, uint8(o.Priority)); err != nil {
			return fmt.Errorf("output %d: %w", i, err)
		}
		if err := s.SetMulticast(universe, o.Multicast); err != nil {
			return fmt.Errorf("output %d: %w", i, err)
		}
		if o.Destination != "" {
			if err := s.SetDestination(universe, net.ParseIP(o.Destination)); err != nil {
				return fmt.Errorf("output %d: %w", i, err)
			}
		}
		if err := s.SetTTL(universe, o.TTL); err != nil {
			return fmt.Errorf("output %d: %w", i, err)
		}
		if err := s.SetPreviewData(universe, o.Preview); err != nil {
			return fmt.Errorf("output %d: %w", i, err)
		}
	}
	return nil
}

// ApplySources joins the multicast group for every configured source
// universe on r.
func (c *Config) ApplySources(r *sacn.Receiver) error {
	for i, src := range c.Sources {
		if err := r.JoinMulticast(src.Universe.Universe); err != nil {
			return fmt.Errorf("source %d: %w", i, err)
		}
	}
	return nil
}
