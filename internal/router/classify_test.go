package router

import (
	"testing"

	"github.com/google/gopacket/layers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/veesix-networks/osvrouter/pkg/dataplane"
	"github.com/veesix-networks/osvrouter/pkg/ethernet"
)

func TestClassify(t *testing.T) {
	routes, err := NewRoutingTable(labConfig(t).Interfaces)
	require.NoError(t, err)

	badARP := arpRequest(t, h1MAC, h1IP, routerIP1)
	badARP[ethernet.HeaderLen+1] = 0x06 // hardware type IEEE 802

	tests := []struct {
		name     string
		frame    []byte
		want     VerdictKind
		wantPort uint32
	}{
		{"arp request", arpRequest(t, h1MAC, h1IP, routerIP1), VerdictARPRequest, 0},
		{"arp reply", arpReply(t, h2MAC, h2IP, routerMAC2, routerIP2), VerdictARPReply, 0},
		{"non-ethernet arp", badARP, VerdictDrop, 0},
		{"echo to router", echoFrame(t, h1MAC, routerMAC1, h1IP, routerIP1, 1, 1, nil), VerdictEcho, 1},
		{"echo to far interface", echoFrame(t, h1MAC, routerMAC1, h1IP, routerIP2, 1, 1, nil), VerdictEcho, 2},
		{"udp to router", udpFrame(t, h1MAC, routerMAC1, h1IP, routerIP1, nil), VerdictLocal, 1},
		{"forward", udpFrame(t, h1MAC, routerMAC1, h1IP, h2IP, nil), VerdictForward, 2},
		{"echo to host", echoFrame(t, h1MAC, routerMAC1, h1IP, h2IP, 1, 1, nil), VerdictForward, 2},
		{"no route", udpFrame(t, h1MAC, routerMAC1, h1IP, []byte{8, 8, 8, 8}, nil), VerdictUnreachable, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pkt, err := dataplane.Decode(tt.frame, 1)
			require.NoError(t, err)

			got := Classify(pkt, routes)
			assert.Equal(t, tt.want, got.Kind, got.Reason)
			assert.Equal(t, tt.wantPort, got.Route.Port)

			again := Classify(pkt, routes)
			assert.Equal(t, got.Kind, again.Kind, "classification is pure")
		})
	}
}

func TestClassifyUnhandledEtherType(t *testing.T) {
	routes, err := NewRoutingTable(labConfig(t).Interfaces)
	require.NoError(t, err)

	pkt := &dataplane.ParsedPacket{
		Port:     1,
		Ethernet: &layers.Ethernet{SrcMAC: h1MAC, DstMAC: routerMAC1, EthernetType: layers.EthernetTypeIPv6},
	}

	v := Classify(pkt, routes)
	assert.Equal(t, VerdictDrop, v.Kind)
	assert.Contains(t, v.Reason, "IPv6")
}

func TestVerdictKindString(t *testing.T) {
	assert.Equal(t, "forward", VerdictForward.String())
	assert.Equal(t, "unreachable", VerdictUnreachable.String())
	assert.Equal(t, "unknown", VerdictKind(42).String())
}
