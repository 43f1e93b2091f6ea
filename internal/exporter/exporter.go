package exporter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/veesix-networks/osvrouter/pkg/component"
	"github.com/veesix-networks/osvrouter/pkg/config"
	"github.com/veesix-networks/osvrouter/pkg/dataplane"
	"github.com/veesix-networks/osvrouter/pkg/events"
	"github.com/veesix-networks/osvrouter/pkg/logger"
)

const Name = "exporter"

func init() {
	component.Register(Name, New)
}

type Status struct {
	State         string           `json:"state"`
	ListenAddress string           `json:"listen_address"`
	ServerRunning bool             `json:"server_running"`
	Dataplane     *dataplane.Stats `json:"dataplane,omitempty"`
	Events        *events.Stats    `json:"events,omitempty"`
}

type LoggingStatus struct {
	Level      logger.LogLevel            `json:"level"`
	Components map[string]logger.LogLevel `json:"components"`
}

// Component serves Prometheus metrics and JSON table snapshots over HTTP.
type Component struct {
	*component.Base

	logger   *slog.Logger
	addr     string
	registry *prometheus.Registry
	state     component.StateProvider
	dataplane component.StatsProvider
	eventBus  events.Bus
	server    *http.Server
	listener net.Listener

	mu            sync.RWMutex
	serverRunning bool
}

// New returns a nil component when monitoring is disabled.
func New(deps component.Dependencies) (component.Component, error) {
	if deps.Config == nil || !deps.Config.Monitoring.Enabled {
		return nil, nil
	}

	addr := deps.Config.Monitoring.ListenAddress
	if addr == "" {
		addr = config.DefaultListenAddress
	}

	registry := deps.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	return &Component{
		Base:     component.NewBase(Name),
		logger:   logger.Get(logger.Exporter),
		addr:     addr,
		registry: registry,
		state:     deps.State,
		dataplane: deps.Dataplane,
		eventBus:  deps.EventBus,
	}, nil
}

func (c *Component) Addr() string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.listener != nil {
		return c.listener.Addr().String()
	}
	return c.addr
}

func (c *Component) GetStatus() *Status {
	c.mu.RLock()
	defer c.mu.RUnlock()

	state := "stopped"
	if c.serverRunning {
		state = "running"
	}

	status := &Status{
		State:         state,
		ListenAddress: c.addr,
		ServerRunning: c.serverRunning,
	}
	if c.dataplane != nil {
		s := c.dataplane.Stats()
		status.Dataplane = &s
	}
	if c.eventBus != nil {
		s := c.eventBus.Stats()
		status.Events = &s
	}
	return status
}

// Handler routes /metrics, /status, /logging and /show/<table>.
func (c *Component) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, c.GetStatus())
	})
	mux.HandleFunc("GET /logging", c.getLogging)
	mux.HandleFunc("PUT /logging/{component}", c.setLogging)
	mux.HandleFunc("DELETE /logging/{component}", c.clearLogging)

	if c.state != nil {
		for _, table := range c.state.Tables() {
			table := table
			mux.HandleFunc("/show/"+table, func(w http.ResponseWriter, r *http.Request) {
				c.show(w, table)
			})
		}
	}

	return mux
}

func (c *Component) show(w http.ResponseWriter, table string) {
	data, err := c.state.Show(table)
	if err != nil {
		c.logger.Warn("Failed to render table", "table", table, "error", err)
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, data)
}

func (c *Component) getLogging(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, LoggingStatus{
		Level:      logger.GetDefaultLevel(),
		Components: logger.GetComponentLevels(),
	})
}

// setLogging overrides one component's level, e.g.
// PUT /logging/router.resolve?level=debug.
func (c *Component) setLogging(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("component")
	level := logger.LogLevel(r.URL.Query().Get("level"))

	switch level {
	case logger.LogLevelDebug, logger.LogLevelInfo, logger.LogLevelWarn, logger.LogLevelError:
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "level must be one of debug, info, warn, error"})
		return
	}

	logger.SetComponentLevel(name, level)
	c.logger.Info("Component log level changed", "target", name, "level", level)
	c.getLogging(w, r)
}

func (c *Component) clearLogging(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("component")
	logger.ClearComponentLevel(name)
	c.logger.Info("Component log level cleared", "target", name)
	c.getLogging(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (c *Component) Start(ctx context.Context) error {
	c.StartContext(ctx)
	c.logger.Info("Starting exporter", "addr", c.addr)

	if err := c.registry.Register(collectors.NewGoCollector()); err != nil {
		var are prometheus.AlreadyRegisteredError
		if !errors.As(err, &are) {
			return err
		}
	}

	ln, err := net.Listen("tcp", c.addr)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.listener = ln
	c.server = &http.Server{
		Handler:           c.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	c.serverRunning = true
	c.mu.Unlock()

	c.Go(func() {
		c.logger.Info("Exporter HTTP server listening", "addr", ln.Addr().String())
		if err := c.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			c.logger.Error("Exporter HTTP server error", "error", err)
		}
		c.mu.Lock()
		c.serverRunning = false
		c.mu.Unlock()
	})

	return nil
}

func (c *Component) Stop(ctx context.Context) error {
	c.logger.Info("Stopping exporter")

	c.mu.RLock()
	server := c.server
	c.mu.RUnlock()

	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}

	c.StopContext()
	return nil
}
