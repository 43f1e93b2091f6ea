package router

import (
	"fmt"

	"github.com/veesix-networks/osvrouter/pkg/events"
	"github.com/veesix-networks/osvrouter/pkg/logger"
)

// Sender transmits a complete ethernet frame out of a switch port.
type Sender interface {
	Send(port uint32, frame []byte) error
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(port uint32, frame []byte) error

func (f SenderFunc) Send(port uint32, frame []byte) error {
	return f(port, frame)
}

// busSender hands frames to the dataplane component over the event bus.
// Publication order is transmission order. A frame the bus cannot queue
// is reported as a send error.
type busSender struct {
	bus events.Bus
}

func NewBusSender(bus events.Bus) Sender {
	return &busSender{bus: bus}
}

func (s *busSender) Send(port uint32, frame []byte) error {
	err := s.bus.Publish(events.TopicEgress, events.Event{
		Source: logger.Router,
		Data: events.EgressEvent{
			Port:  port,
			Frame: frame,
		},
	})
	if err != nil {
		return fmt.Errorf("queue egress frame: %w", err)
	}
	return nil
}
