package router

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/veesix-networks/osvrouter/pkg/component"
	"github.com/veesix-networks/osvrouter/pkg/dataplane"
	"github.com/veesix-networks/osvrouter/pkg/logger"
)

// Component drives the engine from a single goroutine: ingress frames and
// resolution retries are handled strictly one at a time.
type Component struct {
	*component.Base

	logger  *slog.Logger
	engine  *Engine
	packets <-chan *dataplane.ParsedPacket
	sweep   time.Duration
}

func NewComponent(deps component.Dependencies) (*Component, error) {
	if deps.Config == nil {
		return nil, errors.New("router component needs a config")
	}
	if deps.EventBus == nil {
		return nil, errors.New("router component needs an event bus")
	}

	cfg, err := ConfigFrom(deps.Config)
	if err != nil {
		return nil, err
	}

	opts := []Option{WithEventBus(deps.EventBus)}
	if deps.Registry != nil {
		opts = append(opts, WithMetrics(NewMetrics(deps.Registry)))
	}

	engine, err := New(cfg, NewBusSender(deps.EventBus), opts...)
	if err != nil {
		return nil, fmt.Errorf("create router engine: %w", err)
	}

	if deps.Registry != nil {
		deps.Registry.MustRegister(engine.Collector())
	}

	sweep := cfg.Resolution.SweepInterval
	if sweep <= 0 {
		sweep = 100 * time.Millisecond
	}

	return &Component{
		Base:    component.NewBase(logger.Router),
		logger:  logger.Get(logger.Router),
		engine:  engine,
		packets: deps.RouterChan,
		sweep:   sweep,
	}, nil
}

func (c *Component) Engine() *Engine {
	return c.engine
}

func (c *Component) Start(ctx context.Context) error {
	c.StartContext(ctx)

	routes := c.engine.Routes()
	c.logger.Info("Starting router component", "routes", len(routes))
	for _, r := range routes {
		c.logger.Info("Connected route", "prefix", r.Prefix, "port", r.Port, "address", r.Address, "mac", r.MAC)
	}

	c.Go(c.loop)
	return nil
}

func (c *Component) Stop(ctx context.Context) error {
	c.logger.Info("Stopping router component")
	c.StopContext()
	return nil
}

func (c *Component) loop() {
	ticker := time.NewTicker(c.sweep)
	defer ticker.Stop()

	for {
		select {
		case <-c.Ctx.Done():
			return
		case pkt, ok := <-c.packets:
			if !ok {
				c.logger.Info("Ingress channel closed")
				return
			}
			c.engine.Handle(pkt)
		case <-ticker.C:
			c.engine.RetryPending(c.engine.now())
		}
	}
}
