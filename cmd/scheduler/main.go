// Command scheduler runs the fleet-wide dispatch component of spec.md
// §4.1: it consumes car status and floor button events off the broker,
// selects a car for each hall call, and maintains every car's queue.
// Grounded on cmd/server/main.go's config/logging bootstrap and graceful
// shutdown sequence.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/arikolev/elevator-fleet/internal/broker"
	"github.com/arikolev/elevator-fleet/internal/config"
	"github.com/arikolev/elevator-fleet/internal/constants"
	"github.com/arikolev/elevator-fleet/internal/health"
	"github.com/arikolev/elevator-fleet/internal/httpstatus"
	"github.com/arikolev/elevator-fleet/internal/logging"
	"github.com/arikolev/elevator-fleet/internal/scheduler"
)

func main() {
	cfg, err := config.InitConfig()
	if err != nil {
		slog.Error("failed to initialize configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := logging.InitLogger(cfg.LogLevel)
	logger = logging.WithComponent(logger, constants.ComponentScheduler)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger.InfoContext(ctx, "scheduler starting up",
		slog.String("environment", cfg.Environment),
		slog.String("mode", cfg.SchedulerMode),
		slog.Int("car_count", cfg.CarCount))

	client := broker.NewMQTTClient(broker.MQTTConfig{
		Host:           cfg.BrokerHost,
		Port:           cfg.BrokerPort,
		ClientID:       "scheduler",
		ConnectTimeout: cfg.ConnectTimeout,
	}, logger)

	connectCtx, connectCancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer connectCancel()
	if err := client.Connect(connectCtx); err != nil {
		logger.ErrorContext(ctx, "failed to connect to broker", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer client.Disconnect()

	mode := scheduler.ModeDumb
	if cfg.SchedulerMode == constants.SchedulerModeSmart {
		mode = scheduler.ModeSmart
	}

	sched := scheduler.New(scheduler.Config{
		Mode:           mode,
		SmartThreshold: cfg.SmartThreshold,
		CarIDs:         cfg.CarIDs(),
		StartFloor:     cfg.StartFloor(),
		MaxCapacity:    cfg.MaxCapacity,
		FloorIDs:       cfg.FloorIDs(),
		DispatchPeriod: cfg.DispatchPeriod,
	}, client, logger)

	if err := sched.Start(ctx); err != nil {
		logger.ErrorContext(ctx, "failed to start scheduler", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer sched.Stop()

	brokerChecker := health.NewComponentHealthChecker(constants.ComponentBroker, func(context.Context) (bool, string, map[string]interface{}) {
		return true, "connected", nil
	})

	statusServer := httpstatus.NewServer(cfg, constants.ComponentScheduler, sched, logger, brokerChecker)
	statusServer.Start()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	sig := <-quit
	logger.InfoContext(ctx, "received shutdown signal", slog.String("signal", sig.String()))
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := statusServer.Shutdown(shutdownCtx); err != nil {
		logger.ErrorContext(ctx, "status server shutdown failed", slog.String("error", err.Error()))
	}

	fmt.Fprintln(os.Stdout, "scheduler shut down")
}
