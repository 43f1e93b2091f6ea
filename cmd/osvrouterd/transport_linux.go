package main

import (
	"github.com/veesix-networks/osvrouter/pkg/dataplane"
	"github.com/veesix-networks/osvrouter/pkg/dataplane/tap"
)

func openTAP(ports map[uint32]string) (dataplane.Transport, error) {
	return tap.Open(ports)
}
