// Package main is the entry point for the tnc-gateway binary: a
// per-agent gRPC gateway bridging local FlowPro components onto the MQTT
// bus and its raft clusters.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	protos "github.com/flowpro-icc/tnc-gateway/api/protos"
	"github.com/flowpro-icc/tnc-gateway/internal/config"
	"github.com/flowpro-icc/tnc-gateway/internal/gateway"
	"github.com/flowpro-icc/tnc-gateway/pkg/logger"
)

// version is stamped at build time via -ldflags.
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		showVersion bool
		writeAssets bool
	)

	root := &cobra.Command{
		Use:   "tnc-gateway",
		Short: "FlowPro TNC gateway: gRPC access to the agent communication bus",
		Long: `The TNC gateway exposes local event routing, bus channel and
call-return communication, agent lifecycle tracking, and replicated
key/value state (raft over the bus) to FlowPro components via gRPC.

Configuration comes from TNC_* environment variables; the bus connection
can also be (re)configured at runtime through the Communication service.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if showVersion {
				fmt.Println(version)
				return nil
			}
			if writeAssets {
				cwd, err := os.Getwd()
				if err != nil {
					return err
				}
				return protos.WriteAssets(cwd)
			}
			return run(cmd.Context())
		},
	}

	root.Flags().BoolVarP(&showVersion, "version", "v", false, "print the version and exit")
	root.Flags().BoolVarP(&writeAssets, "assets", "a", false, "write the embedded .proto files to the current directory and exit")

	return root
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	log, err := logger.New(logger.Config{
		Environment: cfg.AppEnv,
		LogLevel:    cfg.LogLevel,
		ServiceName: "tnc-gateway",
	})
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	defer log.Sync() //nolint:errcheck // stderr sync failure is unactionable

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	gateway.WaitForShutdown(cancel)

	log.Info("starting tnc-gateway", zap.String("version", version))
	if err := gateway.New(*cfg, log).Run(ctx); err != nil {
		log.Error("gateway failed", zap.Error(err))
		return err
	}
	log.Info("gateway stopped")
	return nil
}
