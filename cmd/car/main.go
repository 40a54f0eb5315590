// Command car runs a single Car Controller of spec.md §4.2: it drives one
// elevator car toward the scheduler's assigned next_floor, handles door and
// passenger events, and publishes its status back onto the broker.
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
	"github.com/arikolev/elevator-fleet/internal/car"
	"github.com/arikolev/elevator-fleet/internal/config"
	"github.com/arikolev/elevator-fleet/internal/constants"
	"github.com/arikolev/elevator-fleet/internal/health"
	"github.com/arikolev/elevator-fleet/internal/httpstatus"
	"github.com/arikolev/elevator-fleet/internal/logging"
)

func main() {
	cfg, err := config.InitConfig()
	if err != nil {
		slog.Error("failed to initialize configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := logging.InitLogger(cfg.LogLevel)
	logger = logging.WithComponent(logger, constants.ComponentCar)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger.InfoContext(ctx, "car controller starting up",
		slog.Int("car_id", cfg.CarID),
		slog.Int("start_floor", cfg.CarStartFloor),
		slog.Int("max_capacity", cfg.MaxCapacity))

	lastWillTopic := broker.CarTopic(constants.TopicCarStatus, cfg.CarID)
	client := broker.NewMQTTClient(broker.MQTTConfig{
		Host:            cfg.BrokerHost,
		Port:            cfg.BrokerPort,
		ClientID:        fmt.Sprintf("car-%d", cfg.CarID),
		LastWillTopic:   lastWillTopic,
		LastWillPayload: constants.CarStatusOfflineWire,
		LastWillQoS:     constants.DefaultQoSTelemetry,
		ConnectTimeout:  cfg.ConnectTimeout,
	}, logger)

	connectCtx, connectCancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer connectCancel()
	if err := client.Connect(connectCtx); err != nil {
		logger.ErrorContext(ctx, "failed to connect to broker", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer client.Disconnect()

	controller := car.New(car.Config{
		ID:          cfg.CarID,
		StartFloor:  cfg.StartFloor(),
		MaxCapacity: cfg.MaxCapacity,

		TickDuration:     cfg.TickDuration,
		OpenDoorDuration: cfg.OpenDoorDuration,
		SettleDuration:   cfg.SettleDuration,
		HeartbeatPeriod:  cfg.HeartbeatPeriod,

		CircuitBreakerMaxFailures:   cfg.CircuitBreakerMaxFailures,
		CircuitBreakerResetTimeout:  cfg.CircuitBreakerResetTimeout,
		CircuitBreakerHalfOpenLimit: cfg.CircuitBreakerHalfOpenLimit,
	}, client, logger)

	if err := controller.Start(ctx); err != nil {
		logger.ErrorContext(ctx, "failed to start car controller", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer controller.Stop()

	breakerChecker := health.NewComponentHealthChecker("circuit_breaker", func(context.Context) (bool, string, map[string]interface{}) {
		state := controller.CircuitBreakerState()
		healthy := state != car.StateOpen
		message := "closed"
		if !healthy {
			message = "open"
		}
		return healthy, message, map[string]interface{}{"state": state}
	})

	statusServer := httpstatus.NewServer(cfg, constants.ComponentCar, controller, logger, breakerChecker)
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

	fmt.Fprintln(os.Stdout, "car controller shut down")
}
