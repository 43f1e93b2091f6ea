package dataplane

import (
	"context"
	"errors"
)

var (
	ErrMalformed = errors.New("malformed frame")
	ErrClosed    = errors.New("transport closed")
	ErrNoPort    = errors.New("unknown port")
	ErrQueueFull = errors.New("transmit queue full")
)

// Ingress delivers frames punted by the switch, tagged with the port they
// arrived on. ReadPacket returns (nil, nil) when nothing arrived before an
// internal poll deadline so callers can observe ctx.
type Ingress interface {
	ReadPacket(ctx context.Context) (*ParsedPacket, error)
	Close() error
}

// Egress transmits a fully built frame out of one switch port. Sends are
// fire-and-forget from the router's point of view.
type Egress interface {
	SendPacket(pkt *EgressPacket) error
	Close() error
}

type Transport interface {
	Ingress
	Egress
}

// Stats are the frame counters of the component moving frames between the
// transport and the router.
type Stats struct {
	Received     int64 `json:"received"`
	Dropped      int64 `json:"dropped"`
	Malformed    int64 `json:"malformed"`
	Transmitted  int64 `json:"transmitted"`
	EgressErrors int64 `json:"egress_errors"`
}

type EgressPacket struct {
	Port  uint32
	Frame []byte
}
