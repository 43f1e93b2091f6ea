package punt

import (
	"context"
	"encoding/binary"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/veesix-networks/osvrouter/pkg/dataplane"
)

func arpFrame(t *testing.T) []byte {
	t.Helper()

	eth := &layers.Ethernet{
		SrcMAC:       net.HardwareAddr{0x0a, 0, 0, 0, 1, 0x64},
		DstMAC:       net.HardwareAddr{0xff, 0xff, 0xff, 0xff, 0xff, 0xff},
		EthernetType: layers.EthernetTypeARP,
	}
	arp := &layers.ARP{
		AddrType:          layers.LinkTypeEthernet,
		Protocol:          layers.EthernetTypeIPv4,
		Operation:         layers.ARPRequest,
		SourceHwAddress:   eth.SrcMAC,
		SourceProtAddress: []byte{10, 0, 1, 100},
		DstHwAddress:      make([]byte, 6),
		DstProtAddress:    []byte{10, 0, 1, 1},
	}

	buf := gopacket.NewSerializeBuffer()
	require.NoError(t, gopacket.SerializeLayers(buf, gopacket.SerializeOptions{FixLengths: true}, eth, arp))
	return buf.Bytes()
}

func TestRoundTrip(t *testing.T) {
	dir := t.TempDir()
	routerPath := filepath.Join(dir, "router.sock")
	agentPath := filepath.Join(dir, "agent.sock")

	agentAddr, err := net.ResolveUnixAddr("unixgram", agentPath)
	require.NoError(t, err)
	agent, err := net.ListenUnixgram("unixgram", agentAddr)
	require.NoError(t, err)
	defer agent.Close()

	s, err := Open(Config{SocketPath: routerPath, PeerPath: agentPath})
	require.NoError(t, err)
	defer s.Close()

	frame := arpFrame(t)
	datagram := make([]byte, HeaderLen+len(frame))
	binary.LittleEndian.PutUint32(datagram, 2)
	copy(datagram[HeaderLen:], frame)

	routerAddr, err := net.ResolveUnixAddr("unixgram", routerPath)
	require.NoError(t, err)
	_, err = agent.WriteToUnix(datagram, routerAddr)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var pkt *dataplane.ParsedPacket
	for pkt == nil {
		pkt, err = s.ReadPacket(ctx)
		require.NoError(t, err)
	}
	assert.Equal(t, uint32(2), pkt.Port)
	assert.Equal(t, dataplane.ProtocolARP, pkt.Protocol)

	require.NoError(t, s.SendPacket(&dataplane.EgressPacket{Port: 3, Frame: frame}))

	buf := make([]byte, 2048)
	agent.SetReadDeadline(time.Now().Add(2 * time.Second))
	n, err := agent.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, uint32(3), binary.LittleEndian.Uint32(buf[0:4]))
	assert.Equal(t, frame, buf[HeaderLen:n])
}

func TestSendWithoutPeer(t *testing.T) {
	s, err := Open(Config{SocketPath: filepath.Join(t.TempDir(), "router.sock")})
	require.NoError(t, err)
	defer s.Close()

	assert.Error(t, s.SendPacket(&dataplane.EgressPacket{Port: 1, Frame: []byte{1}}))
}
