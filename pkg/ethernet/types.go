package ethernet

import (
	"fmt"
	"net"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

const (
	EtherTypeIPv4 uint16 = 0x0800
	EtherTypeARP  uint16 = 0x0806
	EtherTypeVLAN uint16 = 0x8100
	EtherTypeIPv6 uint16 = 0x86DD

	HeaderLen = 14
)

var (
	Broadcast = net.HardwareAddr{0xff, 0xff, 0xff, 0xff, 0xff, 0xff}
	Zero      = net.HardwareAddr{0, 0, 0, 0, 0, 0}
)

// Rewrite returns a copy of frame with the source and destination MAC
// replaced. Every byte after the MAC header is left untouched.
func Rewrite(frame []byte, src, dst net.HardwareAddr) ([]byte, error) {
	if len(frame) < HeaderLen {
		return nil, fmt.Errorf("frame too short: %d bytes", len(frame))
	}
	if len(src) != 6 || len(dst) != 6 {
		return nil, fmt.Errorf("invalid mac length src=%d dst=%d", len(src), len(dst))
	}

	out := make([]byte, len(frame))
	copy(out, frame)
	copy(out[0:6], dst)
	copy(out[6:12], src)
	return out, nil
}

// Encapsulate wraps an already serialized L3 payload in an ethernet header.
func Encapsulate(src, dst net.HardwareAddr, etherType layers.EthernetType, payload []byte) ([]byte, error) {
	eth := &layers.Ethernet{
		SrcMAC:       src,
		DstMAC:       dst,
		EthernetType: etherType,
	}

	buf := gopacket.NewSerializeBuffer()
	if err := gopacket.SerializeLayers(buf, gopacket.SerializeOptions{}, eth, gopacket.Payload(payload)); err != nil {
		return nil, fmt.Errorf("serialize ethernet: %w", err)
	}
	return buf.Bytes(), nil
}
