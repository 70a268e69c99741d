// Package gateway assembles the gRPC surface, the bus adapter, the
// routing engine, and the consensus registry into one runnable process.
package gateway

import (
	"context"
	"fmt"
	"net"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	communicationpb "github.com/flowpro-icc/tnc-gateway/api/protos/communication/v1"
	consensuspb "github.com/flowpro-icc/tnc-gateway/api/protos/consensus/v1"
	lifecyclepb "github.com/flowpro-icc/tnc-gateway/api/protos/lifecycle/v1"
	routingpb "github.com/flowpro-icc/tnc-gateway/api/protos/routing/v1"
	"github.com/flowpro-icc/tnc-gateway/internal/bridge"
	"github.com/flowpro-icc/tnc-gateway/internal/bus"
	"github.com/flowpro-icc/tnc-gateway/internal/config"
	"github.com/flowpro-icc/tnc-gateway/internal/consensus"
	"github.com/flowpro-icc/tnc-gateway/internal/routing"
	"github.com/flowpro-icc/tnc-gateway/pkg/metrics"
)

// shutdownGrace bounds both the consensus halt and the graceful stop of
// the gRPC server; streams still open afterwards are cancelled.
const shutdownGrace = 10 * time.Second

// Gateway owns every long-lived component of the process.
type Gateway struct {
	cfg       config.Config
	log       *zap.Logger
	adapter   *bus.Adapter
	manager   *config.Manager
	engine    *routing.Engine
	consensus *consensus.Service
	server    *grpc.Server
	health    *health.Server
}

// New wires the components together. Bus options are only used by tests
// to swap the broker dialer.
func New(cfg config.Config, log *zap.Logger, busOptions ...bus.Option) *Gateway {
	metrics.Register()

	manager := config.NewManager(cfg.Bus)
	adapter := bus.NewAdapter(cfg.Bus, log, busOptions...)
	engine := routing.NewEngine(log, time.Now().UnixNano())

	factory := consensus.RaftFactory(adapter, cfg.Bus.Namespace, cfg.ConsensusDBFolder, log)
	consensusSvc := consensus.NewService(log, factory)

	server := grpc.NewServer(
		grpc.ChainUnaryInterceptor(UnaryServerInterceptor(log)),
		grpc.ChainStreamInterceptor(StreamServerInterceptor(log)),
	)

	routingpb.RegisterRoutingServiceServer(server, routing.NewService(engine, log))
	communicationpb.RegisterCommunicationServiceServer(server, bridge.NewCommunication(adapter, manager, log))
	lifecyclepb.RegisterLifecycleServiceServer(server, bridge.NewLifecycle(adapter, log))
	consensuspb.RegisterConsensusServiceServer(server, consensusSvc)

	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(server, healthServer)
	reflection.Register(server)
	for _, svc := range []string{
		"flowpro.tnc.routing.v1.RoutingService",
		"flowpro.tnc.communication.v1.CommunicationService",
		"flowpro.tnc.lifecycle.v1.LifecycleService",
		"flowpro.tnc.consensus.v1.ConsensusService",
	} {
		healthServer.SetServingStatus(svc, grpc_health_v1.HealthCheckResponse_SERVING)
	}

	return &Gateway{
		cfg:       cfg,
		log:       log,
		adapter:   adapter,
		manager:   manager,
		engine:    engine,
		consensus: consensusSvc,
		server:    server,
		health:    healthServer,
	}
}

// Run serves until ctx is cancelled, then shuts down in dependency
// order: bus first (clean stream ends), consensus second, gRPC last.
func (g *Gateway) Run(ctx context.Context) error {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", g.cfg.GRPCPort))
	if err != nil {
		return fmt.Errorf("listen on gRPC port: %w", err)
	}

	// Without a broker URL the bus stays down until the first Configure.
	if g.cfg.Bus.BrokerURL != "" {
		if err := g.adapter.Start(); err != nil {
			return fmt.Errorf("start bus adapter: %w", err)
		}
	}

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		g.log.Info("gateway listening",
			zap.Int("grpc_port", g.cfg.GRPCPort),
			zap.String("agent_id", g.adapter.Identity().ID),
			zap.String("namespace", g.cfg.Bus.Namespace),
		)
		return g.server.Serve(lis)
	})

	if g.cfg.MetricsPort != 0 {
		group.Go(func() error {
			return metrics.Serve(ctx, g.cfg.MetricsPort, g.log)
		})
	}

	group.Go(func() error {
		<-ctx.Done()
		g.shutdown()
		return nil
	})

	if err := group.Wait(); err != nil && err != grpc.ErrServerStopped {
		return err
	}
	return nil
}

func (g *Gateway) shutdown() {
	g.log.Info("gateway shutting down")
	g.health.Shutdown()

	// Bus streams end cleanly before their gRPC counterparts are drained.
	g.adapter.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := g.consensus.Shutdown(ctx); err != nil {
		g.log.Warn("consensus shutdown incomplete", zap.Error(err))
	}

	done := make(chan struct{})
	go func() {
		g.server.GracefulStop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(shutdownGrace):
		g.log.Warn("graceful stop timed out, forcing")
		g.server.Stop()
	}
}
