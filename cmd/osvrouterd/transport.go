package main

import (
	"fmt"

	"github.com/veesix-networks/osvrouter/pkg/config"
	"github.com/veesix-networks/osvrouter/pkg/config/system"
	"github.com/veesix-networks/osvrouter/pkg/dataplane"
	"github.com/veesix-networks/osvrouter/pkg/dataplane/channel"
	"github.com/veesix-networks/osvrouter/pkg/dataplane/punt"
)

func openTransport(cfg *config.Config) (dataplane.Transport, error) {
	switch cfg.Dataplane.Transport {
	case system.TransportChannel:
		return channel.New(cfg.Dataplane.QueueSize), nil
	case system.TransportPunt:
		return punt.Open(punt.Config{
			SocketPath: cfg.Dataplane.PuntSocketPath,
			PeerPath:   cfg.Dataplane.PeerSocketPath,
		})
	case system.TransportTAP:
		return openTAP(cfg.TAPDevices())
	default:
		return nil, fmt.Errorf("unknown transport %q", cfg.Dataplane.Transport)
	}
}
