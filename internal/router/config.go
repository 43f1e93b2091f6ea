package router

import (
	"errors"
	"fmt"

	"github.com/veesix-networks/osvrouter/pkg/config"
	"github.com/veesix-networks/osvrouter/pkg/config/interfaces"
	"github.com/veesix-networks/osvrouter/pkg/config/system"
)

var ErrNoInterfaces = errors.New("router has no interfaces")

// Config is the static router identity: one interface per attached subnet
// plus the policy for resolving unknown next hops.
type Config struct {
	Interfaces []interfaces.Parsed
	Resolution system.ResolutionConfig
}

func ConfigFrom(cfg *config.Config) (Config, error) {
	parsed, err := cfg.ParseInterfaces()
	if err != nil {
		return Config{}, fmt.Errorf("parse interfaces: %w", err)
	}

	return Config{
		Interfaces: parsed,
		Resolution: cfg.Resolution,
	}, nil
}
