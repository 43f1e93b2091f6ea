package system

type MonitoringConfig struct {
	Enabled       bool   `json:"enabled" yaml:"enabled"`
	ListenAddress string `json:"listen_address,omitempty" yaml:"listen_address,omitempty"`
}
