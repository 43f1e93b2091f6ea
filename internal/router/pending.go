package router

import (
	"log/slog"
	"sort"
	"time"

	"github.com/cenkalti/backoff/v5"
	gocache "github.com/patrickmn/go-cache"
	"github.com/veesix-networks/osvrouter/pkg/config/system"
	"inet.af/netaddr"
)

// pendingEntry is a datagram parked until its next hop answers ARP.
type pendingEntry struct {
	nextHop  netaddr.IP
	frame    []byte
	ingress  uint32
	route    Route
	queued   time.Time
	attempts int
	retryAt  time.Time
	deadline time.Time
	backoff  *backoff.ExponentialBackOff
}

// PendingDatagram is the observable view of a pending entry.
type PendingDatagram struct {
	NextHop  netaddr.IP
	Port     uint32
	Ingress  uint32
	Length   int
	Attempts int
	Queued   time.Time
	RetryAt  time.Time
	Deadline time.Time
}

// pendingBuffer holds at most one datagram per next hop. Entries never
// expire inside the cache: the engine's sweep decides retries and give-up
// from the attempt bound and each entry's deadline, on the engine clock.
// The cache runs no janitor goroutine.
type pendingBuffer struct {
	cache  *gocache.Cache
	policy system.ResolutionConfig
	logger *slog.Logger
}

func newPendingBuffer(policy system.ResolutionConfig, logger *slog.Logger) *pendingBuffer {
	return &pendingBuffer{
		cache:  gocache.New(gocache.NoExpiration, 0),
		policy: policy,
		logger: logger,
	}
}

func key(ip netaddr.IP) string {
	return ip.String()
}

// store parks frame for nextHop, replacing any datagram already waiting
// on it. The caller has just sent the first ARP request.
func (p *pendingBuffer) store(nextHop netaddr.IP, frame []byte, ingress uint32, route Route, now time.Time) *pendingEntry {
	b := p.policy.NewBackOff()

	entry := &pendingEntry{
		nextHop:  nextHop,
		frame:    append([]byte(nil), frame...),
		ingress:  ingress,
		route:    route,
		queued:   now,
		attempts: 1,
		retryAt:  now.Add(b.NextBackOff()),
		backoff:  b,
	}
	if p.policy.Timeout > 0 {
		entry.deadline = now.Add(p.policy.Timeout)
	}

	if old, ok := p.get(nextHop); ok {
		p.logger.Debug("Replacing pending datagram", "next_hop", nextHop, "attempts", old.attempts)
	}

	p.cache.Set(key(nextHop), entry, gocache.NoExpiration)
	return entry
}

func (p *pendingBuffer) get(nextHop netaddr.IP) (*pendingEntry, bool) {
	v, ok := p.cache.Get(key(nextHop))
	if !ok {
		return nil, false
	}
	return v.(*pendingEntry), true
}

// take removes and returns the entry for nextHop.
func (p *pendingBuffer) take(nextHop netaddr.IP) (*pendingEntry, bool) {
	entry, ok := p.get(nextHop)
	if !ok {
		return nil, false
	}
	p.cache.Delete(key(nextHop))
	return entry, true
}

// due returns the entries whose retry time or deadline has passed,
// ordered by next hop.
func (p *pendingBuffer) due(now time.Time) []*pendingEntry {
	var out []*pendingEntry
	for _, item := range p.cache.Items() {
		entry := item.Object.(*pendingEntry)
		if !now.Before(entry.retryAt) || entry.expired(now) {
			out = append(out, entry)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].nextHop.Less(out[j].nextHop) })
	return out
}

// exhausted reports whether entry has used every attempt the policy
// allows or has outlived its deadline.
func (p *pendingBuffer) exhausted(entry *pendingEntry, now time.Time) bool {
	return entry.attempts >= p.policy.MaxAttempts || entry.expired(now)
}

func (e *pendingEntry) expired(now time.Time) bool {
	return !e.deadline.IsZero() && !now.Before(e.deadline)
}

func (p *pendingBuffer) retried(entry *pendingEntry, now time.Time) {
	entry.attempts++
	entry.retryAt = now.Add(entry.backoff.NextBackOff())
}

func (p *pendingBuffer) count() int {
	return p.cache.ItemCount()
}

func (p *pendingBuffer) snapshot() []PendingDatagram {
	items := p.cache.Items()
	out := make([]PendingDatagram, 0, len(items))
	for _, item := range items {
		entry := item.Object.(*pendingEntry)
		out = append(out, PendingDatagram{
			NextHop:  entry.nextHop,
			Port:     entry.route.Port,
			Ingress:  entry.ingress,
			Length:   len(entry.frame),
			Attempts: entry.attempts,
			Queued:   entry.queued,
			RetryAt:  entry.retryAt,
			Deadline: entry.deadline,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NextHop.Less(out[j].NextHop) })
	return out
}
