package router

import (
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "osvrouter"

// Metrics are the router's event counters. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	frames      *prometheus.CounterVec
	sent        prometheus.Counter
	sendErrors  prometheus.Counter
	malformed   prometheus.Counter
	learned     prometheus.Counter
	arpRequests prometheus.Counter
	replayed    prometheus.Counter
	expired     prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		frames: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "frames_total",
			Help:      "Ingress frames by classification verdict.",
		}, []string{"verdict"}),
		sent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "frames_sent_total",
			Help:      "Frames handed to the dataplane for transmission.",
		}),
		sendErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "send_errors_total",
			Help:      "Frames that could not be built or handed to the dataplane.",
		}),
		malformed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "malformed_frames_total",
			Help:      "Ingress frames dropped because they failed to decode.",
		}),
		learned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "arp_learned_total",
			Help:      "ARP bindings inserted from the wire.",
		}),
		arpRequests: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "arp_requests_sent_total",
			Help:      "ARP requests originated to resolve next hops, retries included.",
		}),
		replayed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "pending_replayed_total",
			Help:      "Pending datagrams forwarded after their next hop resolved.",
		}),
		expired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "pending_expired_total",
			Help:      "Pending datagrams dropped because their next hop never resolved.",
		}),
	}

	for _, kind := range []VerdictKind{VerdictDrop, VerdictARPRequest, VerdictARPReply, VerdictEcho, VerdictLocal, VerdictForward, VerdictUnreachable} {
		m.frames.WithLabelValues(kind.String())
	}

	if reg != nil {
		reg.MustRegister(m.frames, m.sent, m.sendErrors, m.malformed, m.learned, m.arpRequests, m.replayed, m.expired)
	}

	return m
}

func (m *Metrics) classified(kind VerdictKind) {
	if m != nil {
		m.frames.WithLabelValues(kind.String()).Inc()
	}
}

func (m *Metrics) frameSent() {
	if m != nil {
		m.sent.Inc()
	}
}

func (m *Metrics) sendFailed() {
	if m != nil {
		m.sendErrors.Inc()
	}
}

func (m *Metrics) malformedFrame() {
	if m != nil {
		m.malformed.Inc()
	}
}

func (m *Metrics) neighborLearned() {
	if m != nil {
		m.learned.Inc()
	}
}

func (m *Metrics) arpRequestSent() {
	if m != nil {
		m.arpRequests.Inc()
	}
}

func (m *Metrics) pendingReplayed() {
	if m != nil {
		m.replayed.Inc()
	}
}

func (m *Metrics) pendingExpired() {
	if m != nil {
		m.expired.Inc()
	}
}

// tableCollector reports table sizes at scrape time.
type tableCollector struct {
	engine    *Engine
	neighbors *prometheus.Desc
	ports     *prometheus.Desc
	routes    *prometheus.Desc
	pending   *prometheus.Desc
}

// Collector exposes the engine's table sizes as gauges.
func (e *Engine) Collector() prometheus.Collector {
	return &tableCollector{
		engine:    e,
		neighbors: prometheus.NewDesc(prometheus.BuildFQName(metricsNamespace, "", "arp_entries"), "Entries in the ARP table.", nil, nil),
		ports:     prometheus.NewDesc(prometheus.BuildFQName(metricsNamespace, "", "mac_entries"), "Entries in the MAC learning table.", nil, nil),
		routes:    prometheus.NewDesc(prometheus.BuildFQName(metricsNamespace, "", "routes"), "Connected routes.", nil, nil),
		pending:   prometheus.NewDesc(prometheus.BuildFQName(metricsNamespace, "", "pending_datagrams"), "Datagrams waiting for next-hop resolution.", nil, nil),
	}
}

func (c *tableCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.neighbors
	ch <- c.ports
	ch <- c.routes
	ch <- c.pending
}

func (c *tableCollector) Collect(ch chan<- prometheus.Metric) {
	sizes := c.engine.sizes()
	ch <- prometheus.MustNewConstMetric(c.neighbors, prometheus.GaugeValue, float64(sizes.neighbors))
	ch <- prometheus.MustNewConstMetric(c.ports, prometheus.GaugeValue, float64(sizes.ports))
	ch <- prometheus.MustNewConstMetric(c.routes, prometheus.GaugeValue, float64(sizes.routes))
	ch <- prometheus.MustNewConstMetric(c.pending, prometheus.GaugeValue, float64(sizes.pending))
}
