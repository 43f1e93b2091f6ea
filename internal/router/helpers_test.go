package router

import (
	"net"
	"sync"
	"testing"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/stretchr/testify/require"
	"github.com/veesix-networks/osvrouter/pkg/config"
	"inet.af/netaddr"
)

var (
	routerMAC1 = mustMAC("00:00:00:00:00:01")
	routerMAC2 = mustMAC("00:00:00:00:00:02")
	h1MAC      = mustMAC("0a:00:00:00:01:64")
	h2MAC      = mustMAC("0a:00:00:00:02:64")
	h2AltMAC   = mustMAC("0a:00:00:00:02:99")

	routerIP1 = net.IPv4(10, 0, 1, 1).To4()
	routerIP2 = net.IPv4(10, 0, 2, 1).To4()
	h1IP      = net.IPv4(10, 0, 1, 100).To4()
	h2IP      = net.IPv4(10, 0, 2, 100).To4()
)

func mustMAC(s string) net.HardwareAddr {
	mac, err := net.ParseMAC(s)
	if err != nil {
		panic(err)
	}
	return mac
}

func mustIP(s string) netaddr.IP {
	return netaddr.MustParseIP(s)
}

type sentFrame struct {
	port  uint32
	frame []byte
}

type recorder struct {
	mu   sync.Mutex
	sent []sentFrame
}

func (r *recorder) Send(port uint32, frame []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, sentFrame{port: port, frame: append([]byte(nil), frame...)})
	return nil
}

// drain returns and forgets everything sent so far.
func (r *recorder) drain() []sentFrame {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.sent
	r.sent = nil
	return out
}

// fakeClock is advanced by hand.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) time.Time {
	c.now = c.now.Add(d)
	return c.now
}

// labConfig is the two-subnet example topology: 10.0.1.0/24 behind port 1
// and 10.0.2.0/24 behind port 2.
func labConfig(t *testing.T) Config {
	t.Helper()

	cfg := config.Default()
	cfg.Router.Interfaces = cfg.Router.Interfaces[:2]

	rc, err := ConfigFrom(cfg)
	require.NoError(t, err)
	return rc
}

func newTestEngine(t *testing.T, opts ...Option) (*Engine, *recorder) {
	t.Helper()

	rec := &recorder{}
	e, err := New(labConfig(t), rec, opts...)
	require.NoError(t, err)
	return e, rec
}

func serialize(t *testing.T, ls ...gopacket.SerializableLayer) []byte {
	t.Helper()

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	require.NoError(t, gopacket.SerializeLayers(buf, opts, ls...))
	return buf.Bytes()
}

func arpFrame(t *testing.T, op uint16, ethDst net.HardwareAddr, senderMAC net.HardwareAddr, senderIP net.IP, targetMAC net.HardwareAddr, targetIP net.IP) []byte {
	t.Helper()

	return serialize(t,
		&layers.Ethernet{SrcMAC: senderMAC, DstMAC: ethDst, EthernetType: layers.EthernetTypeARP},
		&layers.ARP{
			AddrType:          layers.LinkTypeEthernet,
			Protocol:          layers.EthernetTypeIPv4,
			HwAddressSize:     6,
			ProtAddressSize:   4,
			Operation:         op,
			SourceHwAddress:   senderMAC,
			SourceProtAddress: senderIP.To4(),
			DstHwAddress:      targetMAC,
			DstProtAddress:    targetIP.To4(),
		},
	)
}

func arpRequest(t *testing.T, senderMAC net.HardwareAddr, senderIP, targetIP net.IP) []byte {
	return arpFrame(t, layers.ARPRequest, layers.EthernetBroadcast, senderMAC, senderIP, make(net.HardwareAddr, 6), targetIP)
}

func arpReply(t *testing.T, senderMAC net.HardwareAddr, senderIP net.IP, targetMAC net.HardwareAddr, targetIP net.IP) []byte {
	return arpFrame(t, layers.ARPReply, targetMAC, senderMAC, senderIP, targetMAC, targetIP)
}

func echoFrame(t *testing.T, srcMAC, dstMAC net.HardwareAddr, srcIP, dstIP net.IP, id, seq uint16, data []byte) []byte {
	t.Helper()

	return serialize(t,
		&layers.Ethernet{SrcMAC: srcMAC, DstMAC: dstMAC, EthernetType: layers.EthernetTypeIPv4},
		&layers.IPv4{Version: 4, IHL: 5, TTL: 64, Id: 0x1234, Protocol: layers.IPProtocolICMPv4, SrcIP: srcIP, DstIP: dstIP},
		&layers.ICMPv4{TypeCode: layers.CreateICMPv4TypeCode(layers.ICMPv4TypeEchoRequest, 0), Id: id, Seq: seq},
		gopacket.Payload(data),
	)
}

func udpFrame(t *testing.T, srcMAC, dstMAC net.HardwareAddr, srcIP, dstIP net.IP, data []byte) []byte {
	t.Helper()

	ip := &layers.IPv4{Version: 4, IHL: 5, TTL: 64, Protocol: layers.IPProtocolUDP, SrcIP: srcIP, DstIP: dstIP}
	udp := &layers.UDP{SrcPort: 40000, DstPort: 9}
	require.NoError(t, udp.SetNetworkLayerForChecksum(ip))

	return serialize(t,
		&layers.Ethernet{SrcMAC: srcMAC, DstMAC: dstMAC, EthernetType: layers.EthernetTypeIPv4},
		ip, udp, gopacket.Payload(data),
	)
}

func decode(t *testing.T, frame []byte) gopacket.Packet {
	t.Helper()

	pkt := gopacket.NewPacket(frame, layers.LayerTypeEthernet, gopacket.Default)
	require.Nil(t, pkt.ErrorLayer(), "frame does not decode")
	return pkt
}

func ethOf(t *testing.T, pkt gopacket.Packet) *layers.Ethernet {
	t.Helper()
	l := pkt.Layer(layers.LayerTypeEthernet)
	require.NotNil(t, l)
	return l.(*layers.Ethernet)
}

func arpOf(t *testing.T, pkt gopacket.Packet) *layers.ARP {
	t.Helper()
	l := pkt.Layer(layers.LayerTypeARP)
	require.NotNil(t, l)
	return l.(*layers.ARP)
}

func ipv4Of(t *testing.T, pkt gopacket.Packet) *layers.IPv4 {
	t.Helper()
	l := pkt.Layer(layers.LayerTypeIPv4)
	require.NotNil(t, l)
	return l.(*layers.IPv4)
}

func icmpOf(t *testing.T, pkt gopacket.Packet) *layers.ICMPv4 {
	t.Helper()
	l := pkt.Layer(layers.LayerTypeICMPv4)
	require.NotNil(t, l)
	return l.(*layers.ICMPv4)
}
