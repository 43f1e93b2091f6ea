// Package icmp builds the ICMPv4 responses the router originates itself.
package icmp

import (
	"fmt"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

const (
	DefaultTTL = 64

	// Bytes of the offending datagram's data quoted after its header.
	quotedDataLen = 8
)

const (
	CodeNetUnreachable  uint8 = 0
	CodeHostUnreachable uint8 = 1
)

var serializeOpts = gopacket.SerializeOptions{
	FixLengths:       true,
	ComputeChecksums: true,
}

// BuildEchoReply answers an echo request. Identifier, sequence number and
// data are copied from the request; addresses are swapped at both layers.
func BuildEchoReply(eth *layers.Ethernet, ip *layers.IPv4, req *layers.ICMPv4) ([]byte, error) {
	if req.TypeCode.Type() != layers.ICMPv4TypeEchoRequest {
		return nil, fmt.Errorf("not an echo request: %s", req.TypeCode)
	}

	reply := &layers.ICMPv4{
		TypeCode: layers.CreateICMPv4TypeCode(layers.ICMPv4TypeEchoReply, 0),
		Id:       req.Id,
		Seq:      req.Seq,
	}

	return build(eth, ip, reply, req.Payload)
}

// BuildUnreachable reports ip as undeliverable. The body follows RFC 792:
// the original IPv4 header followed by the first 8 bytes of its data.
func BuildUnreachable(eth *layers.Ethernet, ip *layers.IPv4, code uint8) ([]byte, error) {
	data := ip.Payload
	if len(data) > quotedDataLen {
		data = data[:quotedDataLen]
	}

	body := make([]byte, 0, len(ip.Contents)+len(data))
	body = append(body, ip.Contents...)
	body = append(body, data...)

	msg := &layers.ICMPv4{
		TypeCode: layers.CreateICMPv4TypeCode(layers.ICMPv4TypeDestinationUnreachable, code),
	}

	return build(eth, ip, msg, body)
}

func build(eth *layers.Ethernet, ip *layers.IPv4, msg *layers.ICMPv4, body []byte) ([]byte, error) {
	outEth := &layers.Ethernet{
		SrcMAC:       eth.DstMAC,
		DstMAC:       eth.SrcMAC,
		EthernetType: layers.EthernetTypeIPv4,
	}

	outIP := &layers.IPv4{
		Version:  4,
		IHL:      5,
		TTL:      DefaultTTL,
		Protocol: layers.IPProtocolICMPv4,
		SrcIP:    ip.DstIP.To4(),
		DstIP:    ip.SrcIP.To4(),
	}

	buf := gopacket.NewSerializeBuffer()
	if err := gopacket.SerializeLayers(buf, serializeOpts, outEth, outIP, msg, gopacket.Payload(body)); err != nil {
		return nil, fmt.Errorf("serialize ICMP %s: %w", msg.TypeCode, err)
	}
	return buf.Bytes(), nil
}
