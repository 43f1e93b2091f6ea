package events

import (
	"net"

	"inet.af/netaddr"
)

// EgressEvent asks the dataplane to transmit Frame out of Port.
type EgressEvent struct {
	Port  uint32
	Frame []byte
}

type NeighborState string

const (
	NeighborLearned    NeighborState = "learned"
	NeighborUnresolved NeighborState = "unresolved"
)

// NeighborEvent reports a change in next-hop resolution. MAC is nil for
// NeighborUnresolved, where Port is the egress port the ARP requests went
// out of.
type NeighborEvent struct {
	State NeighborState
	IP    netaddr.IP
	MAC   net.HardwareAddr
	Port  uint32
}
