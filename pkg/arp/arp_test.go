package arp

import (
	"net"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, frame []byte) (*layers.Ethernet, *Packet) {
	t.Helper()

	pkt := gopacket.NewPacket(frame, layers.LayerTypeEthernet, gopacket.Default)
	require.Nil(t, pkt.ErrorLayer())

	eth := pkt.Layer(layers.LayerTypeEthernet).(*layers.Ethernet)
	arpLayer := pkt.Layer(layers.LayerTypeARP)
	require.NotNil(t, arpLayer)

	p, err := FromLayer(arpLayer.(*layers.ARP))
	require.NoError(t, err)
	return eth, p
}

func mustMAC(s string) net.HardwareAddr {
	mac, err := net.ParseMAC(s)
	if err != nil {
		panic(err)
	}
	return mac
}

func TestBuildReply(t *testing.T) {
	request := &Packet{
		Operation: OpRequest,
		SenderMAC: mustMAC("0a:00:00:00:01:64"),
		SenderIP:  net.ParseIP("10.0.1.100").To4(),
		TargetMAC: mustMAC("00:00:00:00:00:00"),
		TargetIP:  net.ParseIP("10.0.1.1").To4(),
	}
	routerMAC := mustMAC("00:00:00:00:00:01")

	frame, err := BuildReply(request, routerMAC)
	require.NoError(t, err)

	eth, got := decode(t, frame)
	require.Equal(t, routerMAC, eth.SrcMAC)
	require.Equal(t, request.SenderMAC, eth.DstMAC)
	require.Equal(t, layers.EthernetTypeARP, eth.EthernetType)

	want := &Packet{
		Operation: OpReply,
		SenderMAC: routerMAC,
		SenderIP:  request.TargetIP,
		TargetMAC: request.SenderMAC,
		TargetIP:  request.SenderIP,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("reply mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildRequest(t *testing.T) {
	srcMAC := mustMAC("00:00:00:00:00:02")

	frame, err := BuildRequest(srcMAC, net.ParseIP("10.0.2.1"), net.ParseIP("10.0.2.50"))
	require.NoError(t, err)

	eth, got := decode(t, frame)
	require.Equal(t, "ff:ff:ff:ff:ff:ff", eth.DstMAC.String())
	require.Equal(t, srcMAC, eth.SrcMAC)

	want := &Packet{
		Operation: OpRequest,
		SenderMAC: srcMAC,
		SenderIP:  net.ParseIP("10.0.2.1").To4(),
		TargetMAC: mustMAC("00:00:00:00:00:00"),
		TargetIP:  net.ParseIP("10.0.2.50").To4(),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("request mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildRequestRejectsIPv6(t *testing.T) {
	_, err := BuildRequest(mustMAC("00:00:00:00:00:02"), net.ParseIP("10.0.2.1"), net.ParseIP("fe80::1"))
	require.Error(t, err)
}

func TestFromLayerUnsupported(t *testing.T) {
	tests := []struct {
		name  string
		layer *layers.ARP
	}{
		{
			name: "non ethernet hardware",
			layer: &layers.ARP{
				AddrType:        layers.LinkTypeIEEE802_11,
				Protocol:        layers.EthernetTypeIPv4,
				HwAddressSize:   6,
				ProtAddressSize: 4,
				Operation:       OpRequest,
			},
		},
		{
			name: "ipv6 protocol",
			layer: &layers.ARP{
				AddrType:        layers.LinkTypeEthernet,
				Protocol:        layers.EthernetTypeIPv6,
				HwAddressSize:   6,
				ProtAddressSize: 16,
				Operation:       OpRequest,
			},
		},
		{
			name: "unknown operation",
			layer: &layers.ARP{
				AddrType:          layers.LinkTypeEthernet,
				Protocol:          layers.EthernetTypeIPv4,
				HwAddressSize:     6,
				ProtAddressSize:   4,
				Operation:         9,
				SourceHwAddress:   make([]byte, 6),
				SourceProtAddress: make([]byte, 4),
				DstHwAddress:      make([]byte, 6),
				DstProtAddress:    make([]byte, 4),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromLayer(tt.layer)
			require.Error(t, err)
		})
	}
}
