package interfaces

import (
	"fmt"
	"net"

	"inet.af/netaddr"
)

// InterfaceConfig is one router-owned interface: the attached subnet, the
// router's own address and MAC on it, and the switch port it sits behind.
type InterfaceConfig struct {
	Name    string `json:"name" yaml:"name"`
	Port    uint32 `json:"port" yaml:"port"`
	Prefix  string `json:"prefix" yaml:"prefix"`
	Address string `json:"address" yaml:"address"`
	MAC     string `json:"mac" yaml:"mac"`
	// Device is the TAP device bound to Port when the tap transport is used.
	Device string `json:"device,omitempty" yaml:"device,omitempty"`
}

type Parsed struct {
	Name    string
	Port    uint32
	Prefix  netaddr.IPPrefix
	Address netaddr.IP
	MAC     net.HardwareAddr
}

func (c *InterfaceConfig) Parse() (Parsed, error) {
	prefix, err := netaddr.ParseIPPrefix(c.Prefix)
	if err != nil {
		return Parsed{}, fmt.Errorf("prefix: %w", err)
	}
	if !prefix.IP().Is4() {
		return Parsed{}, fmt.Errorf("prefix %s is not IPv4", prefix)
	}
	if prefix.Masked() != prefix {
		return Parsed{}, fmt.Errorf("prefix %s has host bits set", prefix)
	}

	addr, err := netaddr.ParseIP(c.Address)
	if err != nil {
		return Parsed{}, fmt.Errorf("address: %w", err)
	}
	if !prefix.Contains(addr) {
		return Parsed{}, fmt.Errorf("address %s is outside %s", addr, prefix)
	}

	mac, err := net.ParseMAC(c.MAC)
	if err != nil {
		return Parsed{}, fmt.Errorf("mac: %w", err)
	}
	if len(mac) != 6 {
		return Parsed{}, fmt.Errorf("mac %s is not an ethernet address", mac)
	}

	return Parsed{
		Name:    c.Name,
		Port:    c.Port,
		Prefix:  prefix,
		Address: addr,
		MAC:     mac,
	}, nil
}
