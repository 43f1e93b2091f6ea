package component

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/veesix-networks/osvrouter/pkg/config"
	"github.com/veesix-networks/osvrouter/pkg/dataplane"
	"github.com/veesix-networks/osvrouter/pkg/events"
)

type Dependencies struct {
	EventBus  events.Bus
	Config    *config.Config
	Transport dataplane.Transport
	Registry  *prometheus.Registry
	State     StateProvider
	Dataplane StatsProvider

	// RouterChan carries decoded ingress frames from the dataplane
	// component to the router component.
	RouterChan <-chan *dataplane.ParsedPacket
}
