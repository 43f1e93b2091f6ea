package component

import (
	"context"

	"github.com/veesix-networks/osvrouter/pkg/dataplane"
)

type Component interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// StateProvider renders named operational tables for show endpoints.
type StateProvider interface {
	Tables() []string
	Show(table string) (any, error)
}

// StatsProvider reports the dataplane frame counters.
type StatsProvider interface {
	Stats() dataplane.Stats
}
