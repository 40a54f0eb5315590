// Command flooragent runs a single Floor Agent of spec.md §4.3: it tracks
// passengers waiting at one floor, raises hall-call buttons, and admits
// waiting passengers into a car when it arrives with its door open and
// spare capacity. Grounded on cmd/server/main.go's config/logging bootstrap
// and graceful shutdown sequence.
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
	"github.com/arikolev/elevator-fleet/internal/flooragent"
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
	logger = logging.WithComponent(logger, constants.ComponentFloorAgent)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger.InfoContext(ctx, "floor agent starting up", slog.Int("floor_id", cfg.FloorID))

	client := broker.NewMQTTClient(broker.MQTTConfig{
		Host:           cfg.BrokerHost,
		Port:           cfg.BrokerPort,
		ClientID:       fmt.Sprintf("floor-%d", cfg.FloorID),
		ConnectTimeout: cfg.ConnectTimeout,
	}, logger)

	connectCtx, connectCancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer connectCancel()
	if err := client.Connect(connectCtx); err != nil {
		logger.ErrorContext(ctx, "failed to connect to broker", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer client.Disconnect()

	agent := flooragent.New(flooragent.Config{
		FloorID:       cfg.Floor(),
		WaitingPeriod: cfg.WaitingPeriod,
	}, client, logger)

	if err := agent.Start(ctx); err != nil {
		logger.ErrorContext(ctx, "failed to start floor agent", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer agent.Stop()

	brokerChecker := health.NewComponentHealthChecker(constants.ComponentBroker, func(context.Context) (bool, string, map[string]interface{}) {
		return true, "connected", nil
	})

	statusServer := httpstatus.NewServer(cfg, constants.ComponentFloorAgent, agent, logger, brokerChecker)
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

	fmt.Fprintln(os.Stdout, "floor agent shut down")
}
