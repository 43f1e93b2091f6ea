package arp

import (
	"errors"
	"fmt"
	"net"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/veesix-networks/osvrouter/pkg/ethernet"
)

const (
	OpRequest = layers.ARPRequest
	OpReply   = layers.ARPReply
)

var ErrUnsupported = errors.New("unsupported ARP format")

// Packet is the IPv4-over-ethernet view of an ARP record.
type Packet struct {
	Operation uint16
	SenderMAC net.HardwareAddr
	SenderIP  net.IP
	TargetMAC net.HardwareAddr
	TargetIP  net.IP
}

func FromLayer(l *layers.ARP) (*Packet, error) {
	if l.AddrType != layers.LinkTypeEthernet || l.Protocol != layers.EthernetTypeIPv4 ||
		l.HwAddressSize != 6 || l.ProtAddressSize != 4 {
		return nil, ErrUnsupported
	}
	if l.Operation != OpRequest && l.Operation != OpReply {
		return nil, fmt.Errorf("unknown ARP operation %d", l.Operation)
	}

	senderMAC := make(net.HardwareAddr, 6)
	copy(senderMAC, l.SourceHwAddress)

	targetMAC := make(net.HardwareAddr, 6)
	copy(targetMAC, l.DstHwAddress)

	return &Packet{
		Operation: l.Operation,
		SenderMAC: senderMAC,
		SenderIP:  net.IPv4(l.SourceProtAddress[0], l.SourceProtAddress[1], l.SourceProtAddress[2], l.SourceProtAddress[3]).To4(),
		TargetMAC: targetMAC,
		TargetIP:  net.IPv4(l.DstProtAddress[0], l.DstProtAddress[1], l.DstProtAddress[2], l.DstProtAddress[3]).To4(),
	}, nil
}

// BuildReply answers request on behalf of the owner of request.TargetIP,
// which is bound to replyMAC. The result is a complete ethernet frame.
func BuildReply(request *Packet, replyMAC net.HardwareAddr) ([]byte, error) {
	reply := &layers.ARP{
		AddrType:          layers.LinkTypeEthernet,
		Protocol:          layers.EthernetTypeIPv4,
		HwAddressSize:     6,
		ProtAddressSize:   4,
		Operation:         OpReply,
		SourceHwAddress:   []byte(replyMAC),
		SourceProtAddress: []byte(request.TargetIP.To4()),
		DstHwAddress:      []byte(request.SenderMAC),
		DstProtAddress:    []byte(request.SenderIP.To4()),
	}

	return serialize(replyMAC, request.SenderMAC, reply)
}

// BuildRequest asks who owns targetIP. The frame is broadcast; the target
// hardware address inside the record is left zero.
func BuildRequest(srcMAC net.HardwareAddr, srcIP, targetIP net.IP) ([]byte, error) {
	if srcIP.To4() == nil || targetIP.To4() == nil {
		return nil, fmt.Errorf("ARP request needs IPv4 addresses: src=%v target=%v", srcIP, targetIP)
	}

	request := &layers.ARP{
		AddrType:          layers.LinkTypeEthernet,
		Protocol:          layers.EthernetTypeIPv4,
		HwAddressSize:     6,
		ProtAddressSize:   4,
		Operation:         OpRequest,
		SourceHwAddress:   []byte(srcMAC),
		SourceProtAddress: []byte(srcIP.To4()),
		DstHwAddress:      []byte(ethernet.Zero),
		DstProtAddress:    []byte(targetIP.To4()),
	}

	return serialize(srcMAC, ethernet.Broadcast, request)
}

func serialize(src, dst net.HardwareAddr, record *layers.ARP) ([]byte, error) {
	eth := &layers.Ethernet{
		SrcMAC:       src,
		DstMAC:       dst,
		EthernetType: layers.EthernetTypeARP,
	}

	buf := gopacket.NewSerializeBuffer()
	if err := gopacket.SerializeLayers(buf, gopacket.SerializeOptions{FixLengths: true}, eth, record); err != nil {
		return nil, fmt.Errorf("serialize ARP: %w", err)
	}
	return buf.Bytes(), nil
}
