package system

import (
	"time"

	"github.com/cenkalti/backoff/v5"
)

// ResolutionConfig bounds how long a datagram may wait for its next hop
// to answer ARP.
type ResolutionConfig struct {
	Timeout         time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	MaxAttempts     int           `json:"max_attempts,omitempty" yaml:"max_attempts,omitempty"`
	InitialInterval time.Duration `json:"initial_interval,omitempty" yaml:"initial_interval,omitempty"`
	MaxInterval     time.Duration `json:"max_interval,omitempty" yaml:"max_interval,omitempty"`
	SweepInterval   time.Duration `json:"sweep_interval,omitempty" yaml:"sweep_interval,omitempty"`
}

func DefaultResolutionConfig() ResolutionConfig {
	return ResolutionConfig{
		Timeout:         5 * time.Second,
		MaxAttempts:     3,
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     2 * time.Second,
		SweepInterval:   100 * time.Millisecond,
	}
}

// NewBackOff returns the retry schedule between ARP attempts: doubling
// from InitialInterval up to MaxInterval, without jitter.
func (r ResolutionConfig) NewBackOff() *backoff.ExponentialBackOff {
	b := &backoff.ExponentialBackOff{
		InitialInterval:     r.InitialInterval,
		RandomizationFactor: 0,
		Multiplier:          2,
		MaxInterval:         r.MaxInterval,
	}
	b.Reset()
	return b
}

// Schedule is the time from the first ARP request until a datagram is
// given up after MaxAttempts unanswered requests.
func (r ResolutionConfig) Schedule() time.Duration {
	b := r.NewBackOff()

	var total time.Duration
	for i := 0; i < r.MaxAttempts; i++ {
		total += b.NextBackOff()
	}
	return total
}
