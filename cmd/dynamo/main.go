// Command dynamo is the launcher from spec.md §6: a three-token
// invocation (engine name, record type name, sink name) that resolves
// each against a name-based registry, constructs the pipeline, and runs
// it to completion.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pingcap/log"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/johnny-stegall/dynamo-go/internal/config"
	"github.com/johnny-stegall/dynamo-go/internal/metrics"
	"github.com/johnny-stegall/dynamo-go/internal/registry"
)

func main() {
	root := &cobra.Command{
		Use:   "dynamo <engine-name> <record-type-name> <sink-name>",
		Short: "Synthetic-data generation and replay pipeline",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(args[0], args[1], args[2])
		},
		SilenceUsage: true,
	}

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(engineName, recordTypeName, sinkName string) error {
	cfg, err := config.Load()
	if err != nil {
		log.Error("failed to load configuration", zap.Error(err))
		return err
	}

	eng, err := registry.Build(engineName, recordTypeName, sinkName, cfg)
	if err != nil {
		log.Error("failed to construct pipeline",
			zap.String("engine", engineName),
			zap.String("recordType", recordTypeName),
			zap.String("sink", sinkName),
			zap.Error(err))
		return err
	}

	graceTimeout := cfg.Slice("Launcher").Duration("GraceTimeout", "GraceTimeoutUnit", 30*time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			log.Info("shutdown signal received, draining in-flight deliveries",
				zap.Duration("graceTimeout", graceTimeout))
			if err := eng.Shutdown(graceTimeout); err != nil {
				log.Warn("engine shutdown did not complete cleanly", zap.Error(err))
			}
			cancel()
		case <-ctx.Done():
		}
	}()

	go sampleCPULoop(ctx)

	log.Info("dynamo starting",
		zap.String("engine", engineName),
		zap.String("recordType", recordTypeName),
		zap.String("sink", sinkName))

	if err := eng.Produce(ctx); err != nil {
		log.Error("engine run failed", zap.Error(err))
		return err
	}

	log.Info("dynamo finished")
	return nil
}

// sampleCPULoop feeds internal/metrics' CPU gauge for operator
// visibility into pool saturation; it never influences pool sizing.
func sampleCPULoop(ctx context.Context) {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			metrics.SampleCPU()
		}
	}
}
