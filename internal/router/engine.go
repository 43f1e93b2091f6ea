package router

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/veesix-networks/osvrouter/pkg/config/system"
	"github.com/veesix-networks/osvrouter/pkg/dataplane"
	"github.com/veesix-networks/osvrouter/pkg/events"
	"github.com/veesix-networks/osvrouter/pkg/logger"
	"inet.af/netaddr"
)

// Engine is the router control plane. Every frame punted by the switch
// goes through HandleInbound or Handle, which run to completion under one
// lock and emit at most two frames through the Sender.
type Engine struct {
	mu sync.Mutex

	logger    *slog.Logger
	resLogger *slog.Logger
	sender    Sender
	bus       events.Bus
	metrics   *Metrics
	now       func() time.Time

	routes    *RoutingTable
	ports     *PortTable
	neighbors *NeighborTable
	pending   *pendingBuffer
}

type Option func(*Engine)

// WithClock replaces time.Now for retry scheduling and resolution
// deadlines.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func WithMetrics(m *Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithEventBus publishes neighbor resolution changes on bus.
func WithEventBus(bus events.Bus) Option {
	return func(e *Engine) { e.bus = bus }
}

func New(cfg Config, sender Sender, opts ...Option) (*Engine, error) {
	if sender == nil {
		return nil, errors.New("router needs a sender")
	}
	if len(cfg.Interfaces) == 0 {
		return nil, ErrNoInterfaces
	}

	routes, err := NewRoutingTable(cfg.Interfaces)
	if err != nil {
		return nil, fmt.Errorf("build routing table: %w", err)
	}

	resolution := cfg.Resolution
	defaults := system.DefaultResolutionConfig()
	if resolution.MaxAttempts <= 0 {
		resolution.MaxAttempts = defaults.MaxAttempts
	}
	if resolution.InitialInterval <= 0 {
		resolution.InitialInterval = defaults.InitialInterval
	}
	if resolution.MaxInterval <= 0 {
		resolution.MaxInterval = defaults.MaxInterval
	}

	e := &Engine{
		logger:    logger.Get(logger.Router),
		resLogger: logger.Get(logger.Resolver),
		sender:    sender,
		now:       time.Now,
		routes:    routes,
		ports:     NewPortTable(),
		neighbors: NewNeighborTable(),
	}

	for _, opt := range opts {
		opt(e)
	}

	e.pending = newPendingBuffer(resolution, e.resLogger)

	for _, r := range routes.Routes() {
		e.neighbors.Set(r.Address, r.MAC)
	}

	return e, nil
}

// HandleInbound decodes frame as received on port ingress and handles it.
// Frames that fail to decode are dropped.
func (e *Engine) HandleInbound(frame []byte, ingress uint32) {
	pkt, err := dataplane.Decode(frame, ingress)
	if err != nil {
		e.metrics.malformedFrame()
		e.logger.Debug("Dropping malformed frame", "port", ingress, "length", len(frame), "error", err)
		return
	}

	e.Handle(pkt)
}

func (e *Engine) Handle(pkt *dataplane.ParsedPacket) {
	if pkt == nil || pkt.Ethernet == nil {
		e.metrics.malformedFrame()
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.ports.Learn(pkt.Ethernet.SrcMAC, pkt.Port)

	v := Classify(pkt, e.routes)
	e.metrics.classified(v.Kind)

	switch v.Kind {
	case VerdictARPRequest:
		e.handleARPRequest(pkt, v)
	case VerdictARPReply:
		e.handleARPReply(pkt, v)
	case VerdictEcho:
		e.handleEcho(pkt)
	case VerdictUnreachable:
		e.handleUnreachable(pkt)
	case VerdictLocal:
		e.packetLogger(pkt).Debug("Ignoring non-echo datagram addressed to router", "protocol", pkt.IPv4.Protocol.String())
	case VerdictForward:
		e.handleForward(pkt, v)
	default:
		e.packetLogger(pkt).Debug("Dropping frame", "reason", v.Reason)
	}
}

// Lookup reports the connected route for ip, if any.
func (e *Engine) Lookup(ip netaddr.IP) (Route, bool) {
	return e.routes.Lookup(ip)
}

// RetryPending re-sends ARP requests for pending datagrams whose retry
// time has passed. Datagrams that have used every attempt or outlived the
// resolution timeout are dropped and answered with host unreachable.
func (e *Engine) RetryPending(now time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, entry := range e.pending.due(now) {
		if e.pending.exhausted(entry, now) {
			e.pending.take(entry.nextHop)
			e.metrics.pendingExpired()
			e.resLogger.Info("Next hop unresolved, dropping pending datagram", "next_hop", entry.nextHop, "port", entry.route.Port, "attempts", entry.attempts)
			e.sendHostUnreachable(entry)
			e.publishNeighbor(events.NeighborUnresolved, entry.nextHop, nil, entry.route.Port)
			continue
		}

		e.pending.retried(entry, now)
		e.resLogger.Debug("Retrying ARP resolution", "next_hop", entry.nextHop, "attempt", entry.attempts)
		e.sendARPRequest(entry.route, entry.nextHop)
	}
}

func (e *Engine) send(port uint32, frame []byte) {
	if err := e.sender.Send(port, frame); err != nil {
		e.metrics.sendFailed()
		e.logger.Warn("Failed to send frame", "port", port, "error", err)
		return
	}
	e.metrics.frameSent()
}

func (e *Engine) publishNeighbor(state events.NeighborState, ip netaddr.IP, mac net.HardwareAddr, port uint32) {
	if e.bus == nil {
		return
	}
	err := e.bus.Publish(events.TopicNeighbor, events.Event{
		Source: logger.Router,
		Data: events.NeighborEvent{
			State: state,
			IP:    ip,
			MAC:   cloneMAC(mac),
			Port:  port,
		},
	})
	if err != nil {
		e.resLogger.Warn("Failed to publish neighbor event", "ip", ip, "state", state, "error", err)
	}
}

func (e *Engine) packetLogger(pkt *dataplane.ParsedPacket) *slog.Logger {
	attrs := logger.PacketAttrs{
		Port:      pkt.Port,
		SrcMAC:    pkt.Ethernet.SrcMAC.String(),
		DstMAC:    pkt.Ethernet.DstMAC.String(),
		EtherType: pkt.Ethernet.EthernetType.String(),
	}
	if pkt.IPv4 != nil {
		attrs.SrcIP = pkt.IPv4.SrcIP.String()
		attrs.DstIP = pkt.IPv4.DstIP.String()
	}
	return logger.WithPacket(e.logger, attrs)
}

type tableSizes struct {
	neighbors, ports, routes, pending int
}

func (e *Engine) sizes() tableSizes {
	e.mu.Lock()
	defer e.mu.Unlock()

	return tableSizes{
		neighbors: e.neighbors.Len(),
		ports:     e.ports.Len(),
		routes:    e.routes.Len(),
		pending:   e.pending.count(),
	}
}

func stdIP(ip netaddr.IP) net.IP {
	a := ip.As4()
	return net.IP(a[:])
}
