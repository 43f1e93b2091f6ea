// Package channel is an in-memory transport. Frames injected with Inject
// are delivered by ReadPacket; frames sent by the router are queued on
// Outbound. It stands in for the switch in tests and in the static
// topology fixture.
package channel

import (
	"context"
	"sync"

	"github.com/veesix-networks/osvrouter/pkg/dataplane"
)

type inbound struct {
	port  uint32
	frame []byte
}

type Endpoint struct {
	in  chan inbound
	out chan *dataplane.EgressPacket

	closeOnce sync.Once
	done      chan struct{}
}

func New(size int) *Endpoint {
	return &Endpoint{
		in:   make(chan inbound, size),
		out:  make(chan *dataplane.EgressPacket, size),
		done: make(chan struct{}),
	}
}

// Inject queues frame as if the switch had punted it from port. It
// returns false when the queue is full or the endpoint is closed.
func (e *Endpoint) Inject(port uint32, frame []byte) bool {
	select {
	case <-e.done:
		return false
	default:
	}

	select {
	case e.in <- inbound{port: port, frame: frame}:
		return true
	default:
		return false
	}
}

func (e *Endpoint) ReadPacket(ctx context.Context) (*dataplane.ParsedPacket, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-e.done:
		return nil, dataplane.ErrClosed
	case f := <-e.in:
		return dataplane.Decode(f.frame, f.port)
	}
}

func (e *Endpoint) SendPacket(pkt *dataplane.EgressPacket) error {
	select {
	case <-e.done:
		return dataplane.ErrClosed
	default:
	}

	frame := make([]byte, len(pkt.Frame))
	copy(frame, pkt.Frame)

	select {
	case e.out <- &dataplane.EgressPacket{Port: pkt.Port, Frame: frame}:
		return nil
	default:
		return dataplane.ErrQueueFull
	}
}

// Outbound yields every frame the router transmitted, in send order.
func (e *Endpoint) Outbound() <-chan *dataplane.EgressPacket {
	return e.out
}

func (e *Endpoint) Close() error {
	e.closeOnce.Do(func() {
		close(e.done)
	})
	return nil
}
