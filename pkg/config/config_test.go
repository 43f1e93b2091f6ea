package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/veesix-networks/osvrouter/pkg/config/system"
)

const labConfig = `
logging:
  format: json
  level: debug
  components:
    router.resolve: warn
router:
  name: s1
  interfaces:
    - name: s1-eth1
      port: 1
      prefix: 10.0.1.0/24
      address: 10.0.1.1
      mac: "00:00:00:00:00:01"
    - name: s1-eth2
      port: 2
      prefix: 10.0.2.0/24
      address: 10.0.2.1
      mac: "00:00:00:00:00:02"
resolution:
  timeout: 10s
  max_attempts: 5
monitoring:
  enabled: true
`

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(labConfig))
	require.NoError(t, err)

	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "warn", cfg.Logging.Components["router.resolve"])
	require.Len(t, cfg.Router.Interfaces, 2)
	assert.Equal(t, uint32(2), cfg.Router.Interfaces[1].Port)

	assert.Equal(t, 10*time.Second, cfg.Resolution.Timeout)
	assert.Equal(t, 5, cfg.Resolution.MaxAttempts)
	assert.Equal(t, 500*time.Millisecond, cfg.Resolution.InitialInterval, "unset fields take defaults")

	assert.Equal(t, system.TransportChannel, cfg.Dataplane.Transport)
	assert.Equal(t, DefaultQueueSize, cfg.Dataplane.QueueSize)
	assert.Equal(t, DefaultListenAddress, cfg.Monitoring.ListenAddress)
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	parsed, err := cfg.ParseInterfaces()
	require.NoError(t, err)
	require.Len(t, parsed, 3)

	for i, p := range parsed {
		assert.Equal(t, uint32(i+1), p.Port)
		assert.True(t, p.Prefix.Contains(p.Address))
		assert.Equal(t, byte(i+1), p.MAC[5])
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{
			name:    "no interfaces",
			mutate:  func(c *Config) { c.Router.Interfaces = nil },
			wantErr: ErrNoInterfaces,
		},
		{
			name: "overlapping prefixes",
			mutate: func(c *Config) {
				c.Router.Interfaces[1].Prefix = "10.0.0.0/16"
				c.Router.Interfaces[1].Address = "10.0.2.1"
			},
			wantErr: ErrOverlap,
		},
		{
			name:    "duplicate port",
			mutate:  func(c *Config) { c.Router.Interfaces[2].Port = 1 },
			wantErr: ErrDuplicate,
		},
		{
			name:    "duplicate name",
			mutate:  func(c *Config) { c.Router.Interfaces[2].Name = "s1-eth1" },
			wantErr: ErrDuplicate,
		},
		{
			name:    "duplicate mac",
			mutate:  func(c *Config) { c.Router.Interfaces[2].MAC = "00:00:00:00:00:01" },
			wantErr: ErrDuplicate,
		},
		{
			name:    "timeout before last retry",
			mutate:  func(c *Config) { c.Resolution.Timeout = 200 * time.Millisecond },
			wantErr: ErrResolutionWindow,
		},
		{
			name: "timeout shorter than longer schedule",
			mutate: func(c *Config) {
				c.Resolution.MaxAttempts = 5
				c.Resolution.Timeout = 5 * time.Second
			},
			wantErr: ErrResolutionWindow,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestValidateInterfaceFields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad prefix", func(c *Config) { c.Router.Interfaces[0].Prefix = "10.0.1.0/33" }},
		{"ipv6 prefix", func(c *Config) { c.Router.Interfaces[0].Prefix = "2001:db8::/64" }},
		{"host bits set", func(c *Config) { c.Router.Interfaces[0].Prefix = "10.0.1.1/24" }},
		{"address outside prefix", func(c *Config) { c.Router.Interfaces[0].Address = "10.0.9.1" }},
		{"bad mac", func(c *Config) { c.Router.Interfaces[0].MAC = "zz:00:00:00:00:01" }},
		{"unknown transport", func(c *Config) { c.Dataplane.Transport = "pcap" }},
		{"tap without device", func(c *Config) { c.Dataplane.Transport = system.TransportTAP }},
		{"zero attempts", func(c *Config) { c.Resolution.MaxAttempts = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestParseInvalidYAML(t *testing.T) {
	_, err := Parse([]byte("router: [unterminated"))
	require.Error(t, err)
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "osvrouter.yaml")

	want := Default()
	want.Dataplane.Transport = system.TransportPunt
	want.applyDefaults()
	require.NoError(t, Save(path, want))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestTAPDevices(t *testing.T) {
	cfg := Default()
	cfg.Router.Interfaces[0].Device = "tap1"
	cfg.Router.Interfaces[2].Device = "tap3"

	assert.Equal(t, map[uint32]string{1: "tap1", 3: "tap3"}, cfg.TAPDevices())
}

func TestResolutionSchedule(t *testing.T) {
	r := system.DefaultResolutionConfig()
	assert.Equal(t, 3500*time.Millisecond, r.Schedule())

	r.MaxAttempts = 5
	assert.Equal(t, 7500*time.Millisecond, r.Schedule(), "intervals cap at max_interval")

	cfg := Default()
	cfg.Resolution.Timeout = 3500 * time.Millisecond
	assert.NoError(t, cfg.Validate(), "timeout equal to the schedule is enough")
}
