package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/veesix-networks/osvrouter/pkg/config/interfaces"
	"github.com/veesix-networks/osvrouter/pkg/config/system"
	"gopkg.in/yaml.v3"
)

var (
	ErrNoInterfaces = errors.New("router has no interfaces")
	ErrOverlap      = errors.New("overlapping interface prefixes")
	ErrDuplicate    = errors.New("duplicate interface attribute")

	ErrResolutionWindow = errors.New("resolution timeout shorter than retry schedule")
)

const (
	DefaultListenAddress = ":9090"
	DefaultQueueSize     = 1024
	DefaultPuntSocket    = "/run/osvrouter/punt.sock"
)

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Default is the three-subnet lab router: one /24 per port, the router
// holding .1 in each.
func Default() *Config {
	cfg := &Config{
		Router: RouterConfig{
			Name: "s1",
			Interfaces: []interfaces.InterfaceConfig{
				{Name: "s1-eth1", Port: 1, Prefix: "10.0.1.0/24", Address: "10.0.1.1", MAC: "00:00:00:00:00:01"},
				{Name: "s1-eth2", Port: 2, Prefix: "10.0.2.0/24", Address: "10.0.2.1", MAC: "00:00:00:00:00:02"},
				{Name: "s1-eth3", Port: 3, Prefix: "10.0.3.0/24", Address: "10.0.3.1", MAC: "00:00:00:00:00:03"},
			},
		},
	}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}

	defaults := system.DefaultResolutionConfig()
	if c.Resolution.Timeout == 0 {
		c.Resolution.Timeout = defaults.Timeout
	}
	if c.Resolution.MaxAttempts == 0 {
		c.Resolution.MaxAttempts = defaults.MaxAttempts
	}
	if c.Resolution.InitialInterval == 0 {
		c.Resolution.InitialInterval = defaults.InitialInterval
	}
	if c.Resolution.MaxInterval == 0 {
		c.Resolution.MaxInterval = defaults.MaxInterval
	}
	if c.Resolution.SweepInterval == 0 {
		c.Resolution.SweepInterval = defaults.SweepInterval
	}

	if c.Dataplane.Transport == "" {
		c.Dataplane.Transport = system.TransportChannel
	}
	if c.Dataplane.Transport == system.TransportPunt && c.Dataplane.PuntSocketPath == "" {
		c.Dataplane.PuntSocketPath = DefaultPuntSocket
	}
	if c.Dataplane.QueueSize == 0 {
		c.Dataplane.QueueSize = DefaultQueueSize
	}

	if c.Monitoring.Enabled && c.Monitoring.ListenAddress == "" {
		c.Monitoring.ListenAddress = DefaultListenAddress
	}
}

func (c *Config) Validate() error {
	if _, err := c.ParseInterfaces(); err != nil {
		return err
	}

	switch c.Dataplane.Transport {
	case system.TransportChannel, system.TransportPunt:
	case system.TransportTAP:
		for i, iface := range c.Router.Interfaces {
			if iface.Device == "" {
				return fmt.Errorf("router.interfaces[%d].device is required for the tap transport", i)
			}
		}
	default:
		return fmt.Errorf("dataplane.transport: unknown transport '%s'", c.Dataplane.Transport)
	}

	if c.Resolution.MaxAttempts < 1 {
		return fmt.Errorf("resolution.max_attempts must be at least 1")
	}
	if c.Resolution.Timeout < 0 || c.Resolution.InitialInterval < 0 || c.Resolution.MaxInterval < 0 {
		return fmt.Errorf("resolution intervals must not be negative")
	}
	if schedule := c.Resolution.Schedule(); c.Resolution.Timeout > 0 && c.Resolution.Timeout < schedule {
		return fmt.Errorf("%w: timeout %s is shorter than the %d-attempt retry schedule of %s",
			ErrResolutionWindow, c.Resolution.Timeout, c.Resolution.MaxAttempts, schedule)
	}

	return nil
}

// ParseInterfaces parses every interface and checks the set forms a valid
// routing table: prefixes pairwise disjoint, names, ports and MACs unique.
func (c *Config) ParseInterfaces() ([]interfaces.Parsed, error) {
	if len(c.Router.Interfaces) == 0 {
		return nil, ErrNoInterfaces
	}

	parsed := make([]interfaces.Parsed, 0, len(c.Router.Interfaces))
	names := make(map[string]bool)
	ports := make(map[uint32]bool)
	macs := make(map[string]bool)

	for i := range c.Router.Interfaces {
		iface := &c.Router.Interfaces[i]

		p, err := iface.Parse()
		if err != nil {
			return nil, fmt.Errorf("router.interfaces[%d]: %w", i, err)
		}

		if iface.Name != "" {
			if names[iface.Name] {
				return nil, fmt.Errorf("router.interfaces[%d]: %w: name %s", i, ErrDuplicate, iface.Name)
			}
			names[iface.Name] = true
		}
		if ports[p.Port] {
			return nil, fmt.Errorf("router.interfaces[%d]: %w: port %d", i, ErrDuplicate, p.Port)
		}
		ports[p.Port] = true
		if macs[p.MAC.String()] {
			return nil, fmt.Errorf("router.interfaces[%d]: %w: mac %s", i, ErrDuplicate, p.MAC)
		}
		macs[p.MAC.String()] = true

		for _, prev := range parsed {
			if prev.Prefix.Overlaps(p.Prefix) {
				return nil, fmt.Errorf("router.interfaces[%d]: %w: %s and %s", i, ErrOverlap, prev.Prefix, p.Prefix)
			}
		}

		parsed = append(parsed, p)
	}

	return parsed, nil
}

// TAPDevices maps switch port to TAP device name.
func (c *Config) TAPDevices() map[uint32]string {
	devices := make(map[uint32]string, len(c.Router.Interfaces))
	for _, iface := range c.Router.Interfaces {
		if iface.Device != "" {
			devices[iface.Port] = iface.Device
		}
	}
	return devices
}
