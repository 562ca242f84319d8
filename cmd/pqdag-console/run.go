package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/dukex/pqdag-console/pkg/cmd"
	"github.com/dukex/pqdag-console/pkg/console"
	"github.com/dukex/pqdag-console/pkg/log"
	"github.com/dukex/pqdag-console/pkg/metrics"
	"github.com/dukex/pqdag-console/pkg/otelhelper"
	"github.com/dukex/pqdag-console/pkg/scheduler"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/urfave/cli/v3"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultPort     = 9092
	shutdownTimeout = 30 * time.Second
)

func RunAPICommand() *cli.Command {
	flags := append(configFlags(),
		&cli.IntFlag{
			Name:    "port",
			Aliases: []string{"p"},
			Usage:   "Port to run the API server on",
			Value:   defaultPort,
			Sources: cli.EnvVars("PORT"),
		},
		&cli.StringFlag{
			Name:    "event-bus",
			Usage:   "Event bus type (gochannel, kafka)",
			Value:   "gochannel",
			Sources: cli.EnvVars("EVENT_BUS_TYPE"),
		},
		&cli.StringFlag{
			Name:    "kafka-brokers",
			Usage:   "Comma separated Kafka brokers when --event-bus=kafka",
			Value:   "localhost:9092",
			Sources: cli.EnvVars("KAFKA_BROKERS"),
		},
		&cli.BoolFlag{
			Name:    "tracing",
			Usage:   "Export traces over OTLP HTTP",
			Sources: cli.EnvVars("TRACING_ENABLED"),
		},
	)

	return &cli.Command{
		Name:    "run",
		Aliases: []string{"r"},
		Usage:   "Start the console API",
		Flags:   flags,
		Action: func(ctx context.Context, command *cli.Command) error {
			log.SetupWithFormat(command.String("log-level"), command.String("log-format"))

			logger := log.WithModule("api")
			logger.InfoContext(ctx, "Initializing PQDAG console API")

			ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cfg, err := loadConfig(command)
			if err != nil {
				return err
			}

			tracer, shutdownTracer, err := newTracer(ctx, command.Bool("tracing"))
			if err != nil {
				return fmt.Errorf("failed to initialize tracer: %w", err)
			}

			defer func() {
				if err := shutdownTracer(context.WithoutCancel(ctx)); err != nil {
					logger.Error("Failed to shutdown tracer provider", "error", err)
				}
			}()

			registry := prometheus.NewRegistry()
			registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
			m := metrics.New(registry)

			eventBus, err := cmd.NewEventBus(command.String("event-bus"), command.String("kafka-brokers"), logger)
			if err != nil {
				return err
			}

			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.Error("Failed to close event bus", "error", err)
				}
			}()

			if err := m.Subscribe(eventBus); err != nil {
				return fmt.Errorf("failed to subscribe metrics: %w", err)
			}

			if err := eventBus.Subscribe(ctx); err != nil {
				return fmt.Errorf("failed to subscribe to events: %w", err)
			}

			gw, err := cmd.NewGateway(cfg, tracer, m, logger)
			if err != nil {
				return err
			}

			consoleCfg := console.Config{
				Publisher:      eventBus,
				ProgressDelays: cfg.ProgressDelays,
				MasterIP:       cfg.Query.MasterIP,
				PlanNumber:     cfg.Query.PlanNumber,
				BoundDataset:   cfg.Cluster.BoundDataset,
			}

			redisCache, err := cmd.NewCache(ctx, cfg.Catalog, logger)
			if err != nil {
				return err
			}

			if redisCache != nil {
				consoleCfg.Cache = redisCache

				defer func() {
					if err := redisCache.Close(); err != nil {
						logger.Error("Failed to close catalog cache", "error", err)
					}
				}()
			}

			c := console.New(gw, logger, consoleCfg)

			if cfg.Cluster.SyncSchedule != "" {
				bindingSync, err := scheduler.NewBindingSync(cfg.Cluster.SyncSchedule, c.Cluster, logger)
				if err != nil {
					return err
				}

				if err := bindingSync.Start(ctx); err != nil {
					return err
				}

				defer stopWithin(logger, "binding sync", bindingSync.Stop)
			}

			defer stopWithin(logger, "console", c.Close)

			api := NewAPI(logger, c, registry)

			return api.Run(ctx, command.Int("port"))
		},
	}
}

// nolint:ireturn // Returning interface is intentional for OpenTelemetry tracing
func newTracer(ctx context.Context, enabled bool) (trace.Tracer, otelhelper.ShutdownFunc, error) {
	if !enabled {
		return otelhelper.NoopTracer(), func(context.Context) error { return nil }, nil
	}

	return otelhelper.NewTracer(ctx, "pqdag-console")
}

func stopWithin(logger *slog.Logger, name string, stop func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := stop(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Failed to stop "+name, "error", err)
	}
}
