// Package punt exchanges frames with a switch agent over unix datagram
// sockets. Every datagram carries an 8 byte header: the switch port as a
// little-endian uint32 followed by 4 reserved bytes.
package punt

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"time"

	"github.com/veesix-networks/osvrouter/pkg/dataplane"
	"github.com/veesix-networks/osvrouter/pkg/logger"
)

const (
	HeaderLen = 8

	maxFrame     = 65535
	pollInterval = 100 * time.Millisecond
)

type Config struct {
	// SocketPath is where the router listens for punted frames.
	SocketPath string
	// PeerPath is the switch agent socket egress frames are written to.
	PeerPath string
}

type Socket struct {
	cfg     Config
	conn    *net.UnixConn
	peer    *net.UnixAddr
	logger  *slog.Logger
	readBuf []byte
}

func Open(cfg Config) (*Socket, error) {
	if cfg.SocketPath == "" {
		return nil, fmt.Errorf("punt socket path is empty")
	}

	log := logger.Get(logger.Dataplane)
	log.Info("Creating punt socket", "path", cfg.SocketPath, "peer", cfg.PeerPath)

	if err := os.Remove(cfg.SocketPath); err != nil && !os.IsNotExist(err) {
		log.Warn("Failed to remove existing socket", "error", err)
	}

	addr, err := net.ResolveUnixAddr("unixgram", cfg.SocketPath)
	if err != nil {
		return nil, fmt.Errorf("resolve unix addr: %w", err)
	}

	conn, err := net.ListenUnixgram("unixgram", addr)
	if err != nil {
		return nil, fmt.Errorf("create punt socket: %w", err)
	}

	if err := conn.SetReadBuffer(1 << 20); err != nil {
		log.Warn("Failed to set socket read buffer", "error", err)
	}

	s := &Socket{
		cfg:     cfg,
		conn:    conn,
		logger:  log,
		readBuf: make([]byte, HeaderLen+maxFrame),
	}

	if cfg.PeerPath != "" {
		peer, err := net.ResolveUnixAddr("unixgram", cfg.PeerPath)
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("resolve peer addr: %w", err)
		}
		s.peer = peer
	}

	return s, nil
}

func (s *Socket) ReadPacket(ctx context.Context) (*dataplane.ParsedPacket, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	s.conn.SetReadDeadline(time.Now().Add(pollInterval))

	n, err := s.conn.Read(s.readBuf)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil, nil
		}
		if errors.Is(err, net.ErrClosed) {
			return nil, dataplane.ErrClosed
		}
		return nil, fmt.Errorf("read packet: %w", err)
	}

	if n < HeaderLen {
		return nil, fmt.Errorf("%w: punt datagram too short: %d bytes", dataplane.ErrMalformed, n)
	}

	port := binary.LittleEndian.Uint32(s.readBuf[0:4])

	frame := make([]byte, n-HeaderLen)
	copy(frame, s.readBuf[HeaderLen:n])

	return dataplane.Decode(frame, port)
}

func (s *Socket) SendPacket(pkt *dataplane.EgressPacket) error {
	if s.peer == nil {
		return fmt.Errorf("punt socket has no peer configured")
	}

	buf := make([]byte, HeaderLen+len(pkt.Frame))
	binary.LittleEndian.PutUint32(buf[0:4], pkt.Port)
	copy(buf[HeaderLen:], pkt.Frame)

	if _, err := s.conn.WriteToUnix(buf, s.peer); err != nil {
		return fmt.Errorf("write to peer: %w", err)
	}
	return nil
}

func (s *Socket) Close() error {
	s.logger.Info("Closing punt socket", "path", s.cfg.SocketPath)

	err := s.conn.Close()
	os.Remove(s.cfg.SocketPath)
	return err
}
