package router

import (
	"net"

	"github.com/veesix-networks/osvrouter/pkg/arp"
	"github.com/veesix-networks/osvrouter/pkg/dataplane"
	"github.com/veesix-networks/osvrouter/pkg/ethernet"
	"github.com/veesix-networks/osvrouter/pkg/events"
	"github.com/veesix-networks/osvrouter/pkg/icmp"
	"inet.af/netaddr"
)

func (e *Engine) handleARPRequest(pkt *dataplane.ParsedPacket, v Verdict) {
	req := v.ARP
	log := e.packetLogger(pkt)

	// A request also carries the sender's own binding.
	if sender, ok := netaddr.FromStdIP(req.SenderIP); ok {
		e.learnNeighbor(sender, req.SenderMAC, pkt.Port)
	}

	target, ok := netaddr.FromStdIP(req.TargetIP)
	if !ok {
		return
	}

	mac, ok := e.neighbors.Lookup(target)
	if !ok {
		log.Debug("No binding for ARP target, not replying", "target_ip", target)
		return
	}

	frame, err := arp.BuildReply(req, mac)
	if err != nil {
		e.metrics.sendFailed()
		log.Warn("Failed to build ARP reply", "target_ip", target, "error", err)
		return
	}

	log.Debug("Answering ARP request", "target_ip", target, "mac", mac)
	e.send(pkt.Port, frame)
}

func (e *Engine) handleARPReply(pkt *dataplane.ParsedPacket, v Verdict) {
	sender, ok := netaddr.FromStdIP(v.ARP.SenderIP)
	if !ok {
		return
	}
	e.learnNeighbor(sender, v.ARP.SenderMAC, pkt.Port)
}

// learnNeighbor gap-fills the ARP table and, now that ip has a binding,
// flushes any datagram waiting on it.
func (e *Engine) learnNeighbor(ip netaddr.IP, mac net.HardwareAddr, port uint32) {
	if ip.IsUnspecified() {
		return
	}

	if e.neighbors.Learn(ip, mac) {
		e.metrics.neighborLearned()
		e.logger.Info("Learned ARP binding", "ip", ip, "mac", mac, "port", port)
		e.publishNeighbor(events.NeighborLearned, ip, mac, port)
	}

	entry, ok := e.pending.take(ip)
	if !ok {
		return
	}

	bound, _ := e.neighbors.Lookup(ip)
	frame, err := ethernet.Rewrite(entry.frame, entry.route.MAC, bound)
	if err != nil {
		e.metrics.sendFailed()
		e.resLogger.Warn("Failed to rewrite pending datagram", "next_hop", ip, "error", err)
		return
	}

	e.metrics.pendingReplayed()
	e.resLogger.Debug("Replaying pending datagram", "next_hop", ip, "port", entry.route.Port, "waited", e.now().Sub(entry.queued))
	e.send(entry.route.Port, frame)
}

func (e *Engine) handleEcho(pkt *dataplane.ParsedPacket) {
	frame, err := icmp.BuildEchoReply(pkt.Ethernet, pkt.IPv4, pkt.ICMPv4)
	if err != nil {
		e.metrics.sendFailed()
		e.packetLogger(pkt).Warn("Failed to build echo reply", "error", err)
		return
	}
	e.send(pkt.Port, frame)
}

func (e *Engine) handleUnreachable(pkt *dataplane.ParsedPacket) {
	log := e.packetLogger(pkt)

	frame, err := icmp.BuildUnreachable(pkt.Ethernet, pkt.IPv4, icmp.CodeNetUnreachable)
	if err != nil {
		e.metrics.sendFailed()
		log.Warn("Failed to build ICMP unreachable", "error", err)
		return
	}

	log.Debug("No route to destination")
	e.send(pkt.Port, frame)
}

func (e *Engine) handleForward(pkt *dataplane.ParsedPacket, v Verdict) {
	nextHop := v.Destination
	route := v.Route

	mac, ok := e.neighbors.Lookup(nextHop)
	if ok {
		frame, err := ethernet.Rewrite(pkt.RawPacket, route.MAC, mac)
		if err != nil {
			e.metrics.sendFailed()
			e.packetLogger(pkt).Warn("Failed to rewrite datagram", "error", err)
			return
		}
		e.send(route.Port, frame)
		return
	}

	e.pending.store(nextHop, pkt.RawPacket, pkt.Port, route, e.now())
	e.resLogger.Debug("Next hop unknown, queued datagram", "next_hop", nextHop, "port", route.Port)
	e.sendARPRequest(route, nextHop)
}

func (e *Engine) sendARPRequest(route Route, target netaddr.IP) {
	frame, err := arp.BuildRequest(route.MAC, stdIP(route.Address), stdIP(target))
	if err != nil {
		e.metrics.sendFailed()
		e.resLogger.Warn("Failed to build ARP request", "target_ip", target, "error", err)
		return
	}
	e.metrics.arpRequestSent()
	e.send(route.Port, frame)
}

// sendHostUnreachable tells the source of an abandoned datagram that its
// destination did not answer ARP.
func (e *Engine) sendHostUnreachable(entry *pendingEntry) {
	pkt, err := dataplane.Decode(entry.frame, entry.ingress)
	if err != nil || pkt.IPv4 == nil {
		return
	}

	frame, err := icmp.BuildUnreachable(pkt.Ethernet, pkt.IPv4, icmp.CodeHostUnreachable)
	if err != nil {
		e.metrics.sendFailed()
		e.resLogger.Warn("Failed to build ICMP host unreachable", "next_hop", entry.nextHop, "error", err)
		return
	}
	e.send(entry.ingress, frame)
}
