package router

import (
	"fmt"
	"time"
)

const (
	TableARP     = "arp"
	TableMAC     = "mac"
	TableRoutes  = "routes"
	TablePending = "pending"
)

func (e *Engine) ARPTable() []Neighbor {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.neighbors.Snapshot()
}

func (e *Engine) MACTable() []PortBinding {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ports.Snapshot()
}

func (e *Engine) Routes() []Route {
	return e.routes.Routes()
}

func (e *Engine) Pending() []PendingDatagram {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pending.snapshot()
}

type NeighborView struct {
	IP  string `json:"ip"`
	MAC string `json:"mac"`
}

type PortBindingView struct {
	MAC  string `json:"mac"`
	Port uint32 `json:"port"`
}

type RouteView struct {
	Name    string `json:"name,omitempty"`
	Prefix  string `json:"prefix"`
	Port    uint32 `json:"port"`
	Address string `json:"address"`
	MAC     string `json:"mac"`
}

type PendingView struct {
	NextHop  string    `json:"next_hop"`
	Port     uint32    `json:"port"`
	Ingress  uint32    `json:"ingress_port"`
	Length   int       `json:"length"`
	Attempts int       `json:"attempts"`
	Queued   time.Time `json:"queued"`
	RetryAt  time.Time `json:"retry_at"`
	Deadline time.Time `json:"deadline,omitempty"`
}

func (e *Engine) Tables() []string {
	return []string{TableARP, TableMAC, TableRoutes, TablePending}
}

// Show renders one table in a JSON-friendly form.
func (e *Engine) Show(table string) (any, error) {
	switch table {
	case TableARP:
		entries := e.ARPTable()
		out := make([]NeighborView, 0, len(entries))
		for _, n := range entries {
			out = append(out, NeighborView{IP: n.IP.String(), MAC: n.MAC.String()})
		}
		return out, nil

	case TableMAC:
		entries := e.MACTable()
		out := make([]PortBindingView, 0, len(entries))
		for _, b := range entries {
			out = append(out, PortBindingView{MAC: b.MAC.String(), Port: b.Port})
		}
		return out, nil

	case TableRoutes:
		routes := e.Routes()
		out := make([]RouteView, 0, len(routes))
		for _, r := range routes {
			out = append(out, RouteView{
				Name:    r.Name,
				Prefix:  r.Prefix.String(),
				Port:    r.Port,
				Address: r.Address.String(),
				MAC:     r.MAC.String(),
			})
		}
		return out, nil

	case TablePending:
		entries := e.Pending()
		out := make([]PendingView, 0, len(entries))
		for _, p := range entries {
			out = append(out, PendingView{
				NextHop:  p.NextHop.String(),
				Port:     p.Port,
				Ingress:  p.Ingress,
				Length:   p.Length,
				Attempts: p.Attempts,
				Queued:   p.Queued,
				RetryAt:  p.RetryAt,
				Deadline: p.Deadline,
			})
		}
		return out, nil

	default:
		return nil, fmt.Errorf("unknown table %q", table)
	}
}
