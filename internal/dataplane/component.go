package dataplane

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/veesix-networks/osvrouter/pkg/component"
	"github.com/veesix-networks/osvrouter/pkg/dataplane"
	"github.com/veesix-networks/osvrouter/pkg/events"
	"github.com/veesix-networks/osvrouter/pkg/logger"
	"golang.org/x/sync/errgroup"
)

const defaultQueueSize = 1024

// Component moves frames between the switch transport and the router: it
// reads ingress into RouterChan and transmits egress events from the bus.
type Component struct {
	*component.Base

	logger    *slog.Logger
	egressLog *slog.Logger
	eventBus  events.Bus
	transport dataplane.Transport
	egressSub events.Subscription
	group     *errgroup.Group

	RouterChan chan *dataplane.ParsedPacket

	rxCount      atomic.Int64
	rxDropped    atomic.Int64
	rxMalformed  atomic.Int64
	egressCount  atomic.Int64
	egressErrors atomic.Int64
}

func New(deps component.Dependencies) (*Component, error) {
	if deps.Transport == nil {
		return nil, errors.New("dataplane component needs a transport")
	}
	if deps.EventBus == nil {
		return nil, errors.New("dataplane component needs an event bus")
	}

	queueSize := defaultQueueSize
	if deps.Config != nil && deps.Config.Dataplane.QueueSize > 0 {
		queueSize = deps.Config.Dataplane.QueueSize
	}

	return &Component{
		Base:       component.NewBase(logger.Dataplane),
		logger:     logger.Get(logger.Dataplane),
		egressLog:  logger.Get(logger.Egress),
		eventBus:   deps.EventBus,
		transport:  deps.Transport,
		RouterChan: make(chan *dataplane.ParsedPacket, queueSize),
	}, nil
}

func (c *Component) Start(ctx context.Context) error {
	c.StartContext(ctx)
	c.logger.Info("Starting dataplane component", "queue_size", cap(c.RouterChan))

	c.egressSub = c.eventBus.Subscribe(events.TopicEgress, c.handleEgress)

	g, gctx := errgroup.WithContext(c.Ctx)
	g.Go(func() error { return c.readLoop(gctx) })
	g.Go(func() error { return c.statsLoop(gctx) })
	c.group = g

	return nil
}

func (c *Component) Stop(ctx context.Context) error {
	c.logger.Info("Stopping dataplane component")

	if c.egressSub != nil {
		c.egressSub.Unsubscribe()
	}

	c.StopContext()

	closeErr := c.transport.Close()

	var err error
	if c.group != nil {
		err = c.group.Wait()
	}
	if closeErr != nil {
		c.logger.Error("Error closing transport", "error", closeErr)
	}

	return err
}

// Stats reports frame counters since start.
func (c *Component) Stats() dataplane.Stats {
	return dataplane.Stats{
		Received:     c.rxCount.Load(),
		Dropped:      c.rxDropped.Load(),
		Malformed:    c.rxMalformed.Load(),
		Transmitted:  c.egressCount.Load(),
		EgressErrors: c.egressErrors.Load(),
	}
}

func (c *Component) readLoop(ctx context.Context) error {
	c.logger.Info("Starting dataplane readLoop")

	for {
		pkt, err := c.transport.ReadPacket(ctx)
		if err != nil {
			switch {
			case ctx.Err() != nil, errors.Is(err, dataplane.ErrClosed):
				c.logger.Info("Stopping dataplane readLoop")
				return nil
			case errors.Is(err, dataplane.ErrMalformed):
				c.rxMalformed.Add(1)
				c.logger.Debug("Dropping malformed frame", "error", err)
				continue
			default:
				c.logger.Error("Failed to read packet", "error", err)
				select {
				case <-ctx.Done():
					return nil
				case <-time.After(100 * time.Millisecond):
				}
				continue
			}
		}

		if pkt == nil {
			continue
		}

		c.rxCount.Add(1)

		select {
		case c.RouterChan <- pkt:
		default:
			c.rxDropped.Add(1)
			c.logger.Warn("Router channel full, dropping packet", "port", pkt.Port, "protocol", pkt.Protocol)
		}
	}
}

func (c *Component) statsLoop(ctx context.Context) error {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	var last dataplane.Stats
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s := c.Stats()
			if s != last {
				c.logger.Debug("Dataplane stats",
					"rx", s.Received, "rx_per_sec", s.Received-last.Received,
					"tx", s.Transmitted, "tx_per_sec", s.Transmitted-last.Transmitted,
					"dropped", s.Dropped, "malformed", s.Malformed, "egress_errors", s.EgressErrors)
				last = s
			}
		}
	}
}

func (c *Component) handleEgress(event events.Event) {
	payload, ok := event.Data.(events.EgressEvent)
	if !ok {
		c.egressErrors.Add(1)
		c.egressLog.Error("Unexpected egress event payload", "type", fmt.Sprintf("%T", event.Data))
		return
	}

	if err := c.transport.SendPacket(&dataplane.EgressPacket{
		Port:  payload.Port,
		Frame: payload.Frame,
	}); err != nil {
		c.egressErrors.Add(1)
		c.egressLog.Error("Failed to send packet", "port", payload.Port, "error", err)
		return
	}

	c.egressCount.Add(1)
	c.egressLog.Debug("Sent packet", "port", payload.Port, "length", len(payload.Frame))
}
