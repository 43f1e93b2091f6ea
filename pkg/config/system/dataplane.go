package system

const (
	TransportChannel = "channel"
	TransportTAP     = "tap"
	TransportPunt    = "punt"
)

type DataplaneConfig struct {
	Transport      string `json:"transport,omitempty" yaml:"transport,omitempty"`
	PuntSocketPath string `json:"punt_socket_path,omitempty" yaml:"punt_socket_path,omitempty"`
	PeerSocketPath string `json:"peer_socket_path,omitempty" yaml:"peer_socket_path,omitempty"`
	QueueSize      int    `json:"queue_size,omitempty" yaml:"queue_size,omitempty"`
}
