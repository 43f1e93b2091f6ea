//go:build !linux

package main

import (
	"errors"

	"github.com/veesix-networks/osvrouter/pkg/dataplane"
)

func openTAP(map[uint32]string) (dataplane.Transport, error) {
	return nil, errors.New("tap transport is only supported on linux")
}
