//go:build linux

package tap

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/veesix-networks/osvrouter/pkg/dataplane"
)

func TestSendUnknownPort(t *testing.T) {
	tr := &Transport{devices: map[uint32]*device{}, done: make(chan struct{})}

	err := tr.SendPacket(&dataplane.EgressPacket{Port: 7, Frame: []byte{1}})
	assert.ErrorIs(t, err, dataplane.ErrNoPort)
}

func TestReadPacketAfterClose(t *testing.T) {
	tr := &Transport{devices: map[uint32]*device{}, rx: make(chan rxFrame), done: make(chan struct{})}
	require.NoError(t, tr.Close())

	_, err := tr.ReadPacket(context.Background())
	assert.ErrorIs(t, err, dataplane.ErrClosed)
}
