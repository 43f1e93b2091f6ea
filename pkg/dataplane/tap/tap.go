//go:build linux

// Package tap attaches each router port to a Linux TAP device, so a
// namespace-based lab topology can be wired straight to the router.
package tap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/songgao/water"
	"github.com/veesix-networks/osvrouter/pkg/dataplane"
	"github.com/veesix-networks/osvrouter/pkg/logger"
	"github.com/vishvananda/netlink"
)

const (
	maxFrame  = 1518
	queueSize = 1024
)

type device struct {
	port  uint32
	iface *water.Interface
}

type rxFrame struct {
	port  uint32
	frame []byte
	err   error
}

type Transport struct {
	logger  *slog.Logger
	devices map[uint32]*device
	rx      chan rxFrame

	closeOnce sync.Once
	done      chan struct{}
	wg        sync.WaitGroup
}

// Open creates (or reattaches to) one TAP device per entry of ports,
// keyed by switch port, and sets every link up.
func Open(ports map[uint32]string) (*Transport, error) {
	t := &Transport{
		logger:  logger.Get(logger.Dataplane),
		devices: make(map[uint32]*device, len(ports)),
		rx:      make(chan rxFrame, queueSize),
		done:    make(chan struct{}),
	}

	for port, name := range ports {
		iface, err := water.New(water.Config{
			DeviceType:             water.TAP,
			PlatformSpecificParams: water.PlatformSpecificParams{Name: name},
		})
		if err != nil {
			t.Close()
			return nil, fmt.Errorf("open tap %s: %w", name, err)
		}
		t.devices[port] = &device{port: port, iface: iface}

		link, err := netlink.LinkByName(iface.Name())
		if err != nil {
			t.Close()
			return nil, fmt.Errorf("lookup link %s: %w", iface.Name(), err)
		}
		if err := netlink.LinkSetUp(link); err != nil {
			t.Close()
			return nil, fmt.Errorf("set link %s up: %w", iface.Name(), err)
		}

		t.logger.Info("Attached port to tap device", "port", port, "device", iface.Name())
	}

	for _, dev := range t.devices {
		t.wg.Add(1)
		go t.readLoop(dev)
	}

	return t, nil
}

func (t *Transport) readLoop(dev *device) {
	defer t.wg.Done()

	buf := make([]byte, maxFrame)
	for {
		n, err := dev.iface.Read(buf)
		if err != nil {
			select {
			case <-t.done:
				return
			default:
			}
			t.deliver(rxFrame{port: dev.port, err: fmt.Errorf("read %s: %w", dev.iface.Name(), err)})
			return
		}

		frame := make([]byte, n)
		copy(frame, buf[:n])
		t.deliver(rxFrame{port: dev.port, frame: frame})
	}
}

func (t *Transport) deliver(f rxFrame) {
	select {
	case t.rx <- f:
	case <-t.done:
	default:
		t.logger.Warn("Tap receive queue full, dropping frame", "port", f.port)
	}
}

func (t *Transport) ReadPacket(ctx context.Context) (*dataplane.ParsedPacket, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-t.done:
		return nil, dataplane.ErrClosed
	case f := <-t.rx:
		if f.err != nil {
			return nil, f.err
		}
		return dataplane.Decode(f.frame, f.port)
	}
}

func (t *Transport) SendPacket(pkt *dataplane.EgressPacket) error {
	dev, ok := t.devices[pkt.Port]
	if !ok {
		return fmt.Errorf("%w: %d", dataplane.ErrNoPort, pkt.Port)
	}
	if _, err := dev.iface.Write(pkt.Frame); err != nil {
		return fmt.Errorf("write %s: %w", dev.iface.Name(), err)
	}
	return nil
}

func (t *Transport) Close() error {
	var errs []error
	t.closeOnce.Do(func() {
		close(t.done)
		for _, dev := range t.devices {
			if err := dev.iface.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	})
	t.wg.Wait()
	return errors.Join(errs...)
}
