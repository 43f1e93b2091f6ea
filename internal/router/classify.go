package router

import (
	"github.com/google/gopacket/layers"
	"github.com/veesix-networks/osvrouter/pkg/arp"
	"github.com/veesix-networks/osvrouter/pkg/dataplane"
	"inet.af/netaddr"
)

type VerdictKind uint8

const (
	VerdictDrop VerdictKind = iota
	VerdictARPRequest
	VerdictARPReply
	VerdictEcho
	VerdictLocal
	VerdictForward
	VerdictUnreachable
)

var verdictNames = [...]string{
	VerdictDrop:        "drop",
	VerdictARPRequest:  "arp_request",
	VerdictARPReply:    "arp_reply",
	VerdictEcho:        "echo",
	VerdictLocal:       "local",
	VerdictForward:     "forward",
	VerdictUnreachable: "unreachable",
}

func (k VerdictKind) String() string {
	if int(k) < len(verdictNames) {
		return verdictNames[k]
	}
	return "unknown"
}

// Verdict is the outcome of classifying one frame. ARP is set for the ARP
// kinds; Route and Destination are set for Echo, Local and Forward.
type Verdict struct {
	Kind        VerdictKind
	ARP         *arp.Packet
	Route       Route
	Destination netaddr.IP
	Reason      string
}

// Classify decides what the router does with pkt. It reads the routing
// table only and has no side effects.
func Classify(pkt *dataplane.ParsedPacket, routes *RoutingTable) Verdict {
	switch {
	case pkt.ARP != nil:
		return classifyARP(pkt.ARP)
	case pkt.IPv4 != nil:
		return classifyIPv4(pkt, routes)
	default:
		return Verdict{Kind: VerdictDrop, Reason: "unhandled ethertype " + pkt.Ethernet.EthernetType.String()}
	}
}

func classifyARP(l *layers.ARP) Verdict {
	p, err := arp.FromLayer(l)
	if err != nil {
		return Verdict{Kind: VerdictDrop, Reason: err.Error()}
	}

	if p.Operation == arp.OpRequest {
		return Verdict{Kind: VerdictARPRequest, ARP: p}
	}
	return Verdict{Kind: VerdictARPReply, ARP: p}
}

func classifyIPv4(pkt *dataplane.ParsedPacket, routes *RoutingTable) Verdict {
	dst, ok := netaddr.FromStdIP(pkt.IPv4.DstIP)
	if !ok || !dst.Is4() {
		return Verdict{Kind: VerdictDrop, Reason: "invalid destination address"}
	}

	route, ok := routes.Lookup(dst)
	if !ok {
		return Verdict{Kind: VerdictUnreachable, Destination: dst}
	}

	if dst == route.Address {
		if pkt.ICMPv4 != nil && pkt.ICMPv4.TypeCode.Type() == layers.ICMPv4TypeEchoRequest {
			return Verdict{Kind: VerdictEcho, Route: route, Destination: dst}
		}
		return Verdict{Kind: VerdictLocal, Route: route, Destination: dst}
	}

	return Verdict{Kind: VerdictForward, Route: route, Destination: dst}
}
