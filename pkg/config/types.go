package config

import (
	"github.com/veesix-networks/osvrouter/pkg/config/interfaces"
	"github.com/veesix-networks/osvrouter/pkg/config/system"
)

type Config struct {
	Logging    system.LoggingConfig    `json:"logging,omitempty" yaml:"logging,omitempty"`
	Router     RouterConfig            `json:"router" yaml:"router"`
	Resolution system.ResolutionConfig `json:"resolution,omitempty" yaml:"resolution,omitempty"`
	Dataplane  system.DataplaneConfig  `json:"dataplane,omitempty" yaml:"dataplane,omitempty"`
	Monitoring system.MonitoringConfig `json:"monitoring,omitempty" yaml:"monitoring,omitempty"`
}

type RouterConfig struct {
	Name       string                       `json:"name,omitempty" yaml:"name,omitempty"`
	Interfaces []interfaces.InterfaceConfig `json:"interfaces" yaml:"interfaces"`
}
