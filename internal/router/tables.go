package router

import (
	"bytes"
	"fmt"
	"net"
	"sort"

	"github.com/veesix-networks/osvrouter/pkg/config/interfaces"
	"inet.af/netaddr"
)

// Route is a directly connected subnet and the router interface that
// owns it.
type Route struct {
	Name    string
	Prefix  netaddr.IPPrefix
	Port    uint32
	Address netaddr.IP
	MAC     net.HardwareAddr
}

// RoutingTable is fixed after construction. Prefixes never overlap so at
// most one route matches any address.
type RoutingTable struct {
	routes []Route
}

func NewRoutingTable(ifaces []interfaces.Parsed) (*RoutingTable, error) {
	t := &RoutingTable{routes: make([]Route, 0, len(ifaces))}

	for _, iface := range ifaces {
		if !iface.Prefix.IsValid() || !iface.Prefix.IP().Is4() {
			return nil, fmt.Errorf("interface %s: invalid IPv4 prefix %s", iface.Name, iface.Prefix)
		}
		if !iface.Prefix.Contains(iface.Address) {
			return nil, fmt.Errorf("interface %s: address %s is outside %s", iface.Name, iface.Address, iface.Prefix)
		}
		if len(iface.MAC) != 6 {
			return nil, fmt.Errorf("interface %s: invalid mac %s", iface.Name, iface.MAC)
		}

		for _, r := range t.routes {
			if r.Prefix.Overlaps(iface.Prefix) {
				return nil, fmt.Errorf("interface %s: prefix %s overlaps %s", iface.Name, iface.Prefix, r.Prefix)
			}
		}

		t.routes = append(t.routes, Route{
			Name:    iface.Name,
			Prefix:  iface.Prefix.Masked(),
			Port:    iface.Port,
			Address: iface.Address,
			MAC:     iface.MAC,
		})
	}

	return t, nil
}

func (t *RoutingTable) Lookup(ip netaddr.IP) (Route, bool) {
	for _, r := range t.routes {
		if r.Prefix.Contains(ip) {
			return r, true
		}
	}
	return Route{}, false
}

func (t *RoutingTable) Routes() []Route {
	out := make([]Route, len(t.routes))
	copy(out, t.routes)
	return out
}

func (t *RoutingTable) Len() int {
	return len(t.routes)
}

// PortBinding records which switch port a source MAC was last seen on.
type PortBinding struct {
	MAC  net.HardwareAddr
	Port uint32
}

// PortTable is the MAC learning table. Every frame overwrites the entry
// for its source MAC.
type PortTable struct {
	ports map[string]uint32
}

func NewPortTable() *PortTable {
	return &PortTable{ports: make(map[string]uint32)}
}

func (t *PortTable) Learn(mac net.HardwareAddr, port uint32) {
	t.ports[string(mac)] = port
}

func (t *PortTable) Lookup(mac net.HardwareAddr) (uint32, bool) {
	port, ok := t.ports[string(mac)]
	return port, ok
}

func (t *PortTable) Len() int {
	return len(t.ports)
}

func (t *PortTable) Snapshot() []PortBinding {
	out := make([]PortBinding, 0, len(t.ports))
	for mac, port := range t.ports {
		out = append(out, PortBinding{MAC: net.HardwareAddr(mac), Port: port})
	}
	sort.Slice(out, func(i, j int) bool { return bytes.Compare(out[i].MAC, out[j].MAC) < 0 })
	return out
}

// Neighbor is one ARP table entry.
type Neighbor struct {
	IP  netaddr.IP
	MAC net.HardwareAddr
}

// NeighborTable is the ARP table. Learned entries are only inserted when
// absent; an existing binding is never refreshed.
type NeighborTable struct {
	entries map[netaddr.IP]net.HardwareAddr
}

func NewNeighborTable() *NeighborTable {
	return &NeighborTable{entries: make(map[netaddr.IP]net.HardwareAddr)}
}

// Set installs a binding unconditionally. Used for the router's own
// addresses.
func (t *NeighborTable) Set(ip netaddr.IP, mac net.HardwareAddr) {
	t.entries[ip] = cloneMAC(mac)
}

// Learn inserts ip->mac if ip has no binding yet and reports whether it
// did.
func (t *NeighborTable) Learn(ip netaddr.IP, mac net.HardwareAddr) bool {
	if _, ok := t.entries[ip]; ok {
		return false
	}
	t.entries[ip] = cloneMAC(mac)
	return true
}

func (t *NeighborTable) Lookup(ip netaddr.IP) (net.HardwareAddr, bool) {
	mac, ok := t.entries[ip]
	return mac, ok
}

func (t *NeighborTable) Len() int {
	return len(t.entries)
}

func (t *NeighborTable) Snapshot() []Neighbor {
	out := make([]Neighbor, 0, len(t.entries))
	for ip, mac := range t.entries {
		out = append(out, Neighbor{IP: ip, MAC: cloneMAC(mac)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].IP.Less(out[j].IP) })
	return out
}

func cloneMAC(mac net.HardwareAddr) net.HardwareAddr {
	out := make(net.HardwareAddr, len(mac))
	copy(out, mac)
	return out
}
