// Package metrics holds the Prometheus collectors of the gateway and the
// optional scrape endpoint. Collectors are always registered; the endpoint
// only runs when a metrics port is configured.
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

var (
	// RequestDuration tracks the duration of gRPC requests.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "grpc_request_duration_seconds",
			Help:    "Time spent processing gRPC requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "status"},
	)

	// ActiveRequests tracks the number of active gRPC requests.
	ActiveRequests = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "grpc_active_requests",
			Help: "Number of active gRPC requests",
		},
	)

	// EventsRouted counts local routing deliveries by kind (push, request,
	// response).
	EventsRouted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tnc_events_routed_total",
			Help: "Events delivered by the local routing engine",
		},
		[]string{"kind"},
	)

	// RouteRegistrations tracks live route registrations by kind.
	RouteRegistrations = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tnc_route_registrations",
			Help: "Live route registrations",
		},
		[]string{"kind"},
	)

	// BusEventsPublished counts events handed to the bus by pattern
	// (channel, call, return, identity).
	BusEventsPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tnc_bus_events_published_total",
			Help: "Events published onto the bus",
		},
		[]string{"pattern"},
	)

	// BusEventsReceived counts events delivered from the bus by pattern.
	BusEventsReceived = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tnc_bus_events_received_total",
			Help: "Events received from the bus",
		},
		[]string{"pattern"},
	)

	// BusOnline is 1 while the bus client holds a broker connection.
	BusOnline = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "tnc_bus_online",
			Help: "Whether the bus client is connected to the broker",
		},
	)

	// ProposalsSubmitted counts Raft proposals by result (applied, rejected,
	// failed).
	ProposalsSubmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tnc_raft_proposals_total",
			Help: "Raft proposals submitted through the gateway",
		},
		[]string{"result"},
	)

	// RaftNodesConnected tracks Raft nodes in the Connected state.
	RaftNodesConnected = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "tnc_raft_nodes_connected",
			Help: "Raft nodes currently connected to their cluster",
		},
	)

	// AgentLifecycleEvents counts agent join and leave events seen on the
	// bus.
	AgentLifecycleEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tnc_agent_lifecycle_events_total",
			Help: "Agent lifecycle events observed on the bus",
		},
		[]string{"state"},
	)
)

var registerOnce sync.Once

// Register registers all gateway collectors with the default registry.
// Safe to call more than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			RequestDuration,
			ActiveRequests,
			EventsRouted,
			RouteRegistrations,
			BusEventsPublished,
			BusEventsReceived,
			BusOnline,
			ProposalsSubmitted,
			RaftNodesConnected,
			AgentLifecycleEvents,
		)
	})
}

// Serve exposes /metrics on the given port until ctx is cancelled.
func Serve(ctx context.Context, port int, log *zap.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	log.Info("metrics endpoint listening", zap.Int("port", port))

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown metrics endpoint: %w", err)
		}
		return nil
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("metrics endpoint: %w", err)
		}
		return nil
	}
}
