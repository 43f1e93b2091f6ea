package dataplane

import (
	"fmt"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

type ParsedPacket struct {
	Port     uint32
	Protocol Protocol

	Ethernet *layers.Ethernet
	ARP      *layers.ARP
	IPv4     *layers.IPv4
	ICMPv4   *layers.ICMPv4

	RawPacket []byte
}

// Decode parses an ethernet frame received on port. Only the layers the
// router acts on are required to decode cleanly; a broken transport
// header inside a forwardable datagram is not the router's concern.
func Decode(frame []byte, port uint32) (*ParsedPacket, error) {
	packet := gopacket.NewPacket(frame, layers.LayerTypeEthernet, gopacket.Default)

	ethLayer := packet.Layer(layers.LayerTypeEthernet)
	if ethLayer == nil {
		return nil, malformed(packet, "no ethernet layer")
	}
	eth := ethLayer.(*layers.Ethernet)

	pkt := &ParsedPacket{
		Port:      port,
		Ethernet:  eth,
		RawPacket: packet.Data(),
	}

	switch eth.EthernetType {
	case layers.EthernetTypeARP:
		arpLayer := packet.Layer(layers.LayerTypeARP)
		if arpLayer == nil {
			return nil, malformed(packet, "no ARP layer")
		}
		pkt.ARP = arpLayer.(*layers.ARP)
		pkt.Protocol = ProtocolARP

	case layers.EthernetTypeIPv4:
		ipLayer := packet.Layer(layers.LayerTypeIPv4)
		if ipLayer == nil {
			return nil, malformed(packet, "no IPv4 layer")
		}
		pkt.IPv4 = ipLayer.(*layers.IPv4)
		pkt.Protocol = ProtocolIPv4

		if pkt.IPv4.Protocol == layers.IPProtocolICMPv4 {
			icmpLayer := packet.Layer(layers.LayerTypeICMPv4)
			if icmpLayer == nil {
				return nil, malformed(packet, "no ICMPv4 layer")
			}
			pkt.ICMPv4 = icmpLayer.(*layers.ICMPv4)
		}

	default:
		pkt.Protocol = ProtocolUnknown
	}

	return pkt, nil
}

func malformed(packet gopacket.Packet, reason string) error {
	if errLayer := packet.ErrorLayer(); errLayer != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformed, reason, errLayer.Error())
	}
	return fmt.Errorf("%w: %s", ErrMalformed, reason)
}
