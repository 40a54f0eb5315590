// Package config loads process configuration from the environment. All
// three binaries (scheduler, car, floor agent) share the same Config type
// and select the fields relevant to them; unused fields for a given process
// are simply ignored.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env"

	"github.com/arikolev/elevator-fleet/internal/constants"
	"github.com/arikolev/elevator-fleet/internal/domain"
)

// Config represents the full set of environment-driven settings for the
// fleet. Not every process reads every field: cmd/scheduler reads the fleet
// topology, scheduler selection fields and the car start floor and capacity,
// cmd/car reads the car identity, timing and circuit breaker fields,
// cmd/flooragent reads FloorID and WaitingPeriod, and all three read Broker*,
// the status server group, and the ambient logging/metrics settings.
type Config struct {
	// Environment and logging
	Environment string `env:"ENV" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"INFO"`

	// Broker connection
	BrokerHost     string `env:"BROKER_HOST" envDefault:"localhost"`
	BrokerPort     int    `env:"BROKER_PORT" envDefault:"1883"`
	ConnectTimeout time.Duration `env:"BROKER_CONNECT_TIMEOUT" envDefault:"10s"`

	// Fleet topology, read by cmd/scheduler to pre-register the fixed set
	// of cars and floors before the first status message arrives.
	CarCount   int `env:"CAR_COUNT" envDefault:"1"`
	MinFloor   int `env:"DEFAULT_MIN_FLOOR" envDefault:"0"`
	MaxFloor   int `env:"DEFAULT_MAX_FLOOR" envDefault:"9"`

	// Scheduler selection
	SchedulerMode     string `env:"SCHEDULER_MODE" envDefault:"dumb"`
	SmartThreshold    int    `env:"SMART_THRESHOLD" envDefault:"10"`
	DispatchPeriod    time.Duration `env:"DISPATCH_PERIOD" envDefault:"200ms"`

	// Car identity and movement timing. CarID is meaningful only to cmd/car,
	// which runs one controller per process; cmd/scheduler also reads the
	// start floor and max capacity to seed every car it pre-registers.
	CarID            int           `env:"CAR_ID" envDefault:"0"`
	CarStartFloor    int           `env:"CAR_START_FLOOR" envDefault:"0"`
	MaxCapacity      int           `env:"CAR_MAX_CAPACITY" envDefault:"8"`
	TickDuration     time.Duration `env:"TICK_DURATION" envDefault:"1s"`
	OpenDoorDuration time.Duration `env:"OPEN_DOOR_DURATION" envDefault:"2s"`
	SettleDuration   time.Duration `env:"SETTLE_DURATION" envDefault:"1s"`
	HeartbeatPeriod  time.Duration `env:"HEARTBEAT_PERIOD" envDefault:"5s"`

	// Circuit breaker guarding the car controller's publish path.
	CircuitBreakerMaxFailures   int           `env:"CIRCUIT_BREAKER_MAX_FAILURES" envDefault:"5"`
	CircuitBreakerResetTimeout  time.Duration `env:"CIRCUIT_BREAKER_RESET_TIMEOUT" envDefault:"30s"`
	CircuitBreakerHalfOpenLimit int           `env:"CIRCUIT_BREAKER_HALF_OPEN_LIMIT" envDefault:"3"`

	// Floor agent identity, meaningful only to cmd/flooragent.
	FloorID       int           `env:"FLOOR_ID" envDefault:"0"`
	WaitingPeriod time.Duration `env:"WAITING_PERIOD" envDefault:"1h"`

	// Ambient status/health/metrics HTTP server, one per process.
	StatusPort      int           `env:"STATUS_PORT" envDefault:"6660"`
	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"30s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"30s"`
	IdleTimeout     time.Duration `env:"SERVER_IDLE_TIMEOUT" envDefault:"120s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"30s"`

	MetricsEnabled bool   `env:"METRICS_ENABLED" envDefault:"true"`
	MetricsPath    string `env:"METRICS_PATH" envDefault:"/metrics"`
	HealthEnabled  bool   `env:"HEALTH_ENABLED" envDefault:"true"`
	HealthCacheTTL time.Duration `env:"HEALTH_CACHE_TTL" envDefault:"5s"`

	WebSocketEnabled  bool          `env:"WEBSOCKET_ENABLED" envDefault:"true"`
	WebSocketPath     string        `env:"WEBSOCKET_PATH" envDefault:"/ws/status"`
	WebSocketInterval time.Duration `env:"WEBSOCKET_PUSH_INTERVAL" envDefault:"1s"`
}

// InitConfig parses environment variables into a Config, applies
// environment-specific defaults, and validates the result.
func InitConfig() (*Config, error) {
	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment variables: %w", err)
	}

	applyEnvironmentDefaults(&cfg)

	if err := validateConfiguration(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

func applyEnvironmentDefaults(cfg *Config) {
	switch cfg.Environment {
	case "development", "dev":
		applyDevelopmentDefaults(cfg)
	case "testing", "test":
		applyTestingDefaults(cfg)
	case "production", "prod":
		applyProductionDefaults(cfg)
	}
}

// applyDevelopmentDefaults only turns on debug logging; every other value
// stays at its envDefault.
func applyDevelopmentDefaults(cfg *Config) {
	if cfg.LogLevel == "INFO" {
		cfg.LogLevel = "DEBUG"
	}
}

// applyTestingDefaults speeds up car movement and door/settle timing so
// acceptance tests don't wait on real-world durations, and turns off the
// ambient surfaces that acceptance tests don't exercise.
func applyTestingDefaults(cfg *Config) {
	cfg.LogLevel = "WARN"
	cfg.TickDuration = 10 * time.Millisecond
	cfg.OpenDoorDuration = 10 * time.Millisecond
	cfg.SettleDuration = 10 * time.Millisecond
	cfg.DispatchPeriod = 20 * time.Millisecond
	cfg.ConnectTimeout = 2 * time.Second
	cfg.CircuitBreakerMaxFailures = 1
	cfg.CircuitBreakerResetTimeout = 1 * time.Second
	cfg.MetricsEnabled = false
	cfg.WebSocketEnabled = false
}

// applyProductionDefaults tightens logging and the circuit breaker for
// production operation.
func applyProductionDefaults(cfg *Config) {
	cfg.LogLevel = "WARN"
	cfg.CircuitBreakerMaxFailures = 3
	cfg.CircuitBreakerResetTimeout = 15 * time.Second
}

func validateConfiguration(cfg *Config) error {
	if cfg.MinFloor >= cfg.MaxFloor {
		return domain.NewValidationError("min floor must be less than max floor", nil).
			WithContext("min_floor", cfg.MinFloor).
			WithContext("max_floor", cfg.MaxFloor)
	}

	if cfg.MinFloor < constants.MinAllowedFloor {
		return domain.NewValidationError("min floor is below system minimum", nil).
			WithContext("min_floor", cfg.MinFloor).
			WithContext("system_minimum", constants.MinAllowedFloor)
	}

	if cfg.MaxFloor > constants.MaxAllowedFloor {
		return domain.NewValidationError("max floor exceeds system maximum", nil).
			WithContext("max_floor", cfg.MaxFloor).
			WithContext("system_maximum", constants.MaxAllowedFloor)
	}

	if cfg.CarStartFloor < cfg.MinFloor || cfg.CarStartFloor > cfg.MaxFloor {
		return domain.NewValidationError("car start floor outside floor range", nil).
			WithContext("start_floor", cfg.CarStartFloor).
			WithContext("min_floor", cfg.MinFloor).
			WithContext("max_floor", cfg.MaxFloor)
	}

	if cfg.SchedulerMode != constants.SchedulerModeDumb && cfg.SchedulerMode != constants.SchedulerModeSmart {
		return domain.NewValidationError("scheduler mode must be dumb or smart", nil).
			WithContext("mode", cfg.SchedulerMode)
	}

	if cfg.StatusPort <= 0 || cfg.StatusPort > 65535 {
		return domain.NewValidationError("status port must be between 1 and 65535", nil).
			WithContext("port", cfg.StatusPort)
	}

	if cfg.MaxCapacity <= 0 {
		return domain.NewValidationError("car max capacity must be positive", nil).
			WithContext("max_capacity", cfg.MaxCapacity)
	}

	if cfg.TickDuration <= 0 {
		return domain.NewValidationError("tick duration must be positive", nil).
			WithContext("duration", cfg.TickDuration)
	}

	if cfg.CarCount <= 0 {
		return domain.NewValidationError("car count must be positive", nil).
			WithContext("car_count", cfg.CarCount)
	}

	if cfg.CircuitBreakerMaxFailures <= 0 {
		return domain.NewValidationError("circuit breaker max failures must be positive", nil).
			WithContext("max_failures", cfg.CircuitBreakerMaxFailures)
	}

	return validateEnvironmentSpecificConfig(cfg)
}

func validateEnvironmentSpecificConfig(cfg *Config) error {
	if cfg.IsTesting() {
		if cfg.WebSocketEnabled {
			return domain.NewValidationError("websocket should be disabled in testing environment", nil).
				WithContext("environment", cfg.Environment)
		}
		if cfg.MetricsEnabled {
			return domain.NewValidationError("metrics should be disabled in testing environment", nil).
				WithContext("environment", cfg.Environment)
		}
	}

	return nil
}

// StartFloor returns the car's configured start floor as a domain.Floor.
func (c *Config) StartFloor() domain.Floor {
	return domain.NewFloor(c.CarStartFloor)
}

// Floor returns the floor agent's configured floor as a domain.Floor.
func (c *Config) Floor() domain.Floor {
	return domain.NewFloor(c.FloorID)
}

// FloorIDs returns every floor id in [MinFloor, MaxFloor], in order.
func (c *Config) FloorIDs() []int {
	ids := make([]int, 0, c.MaxFloor-c.MinFloor+1)
	for f := c.MinFloor; f <= c.MaxFloor; f++ {
		ids = append(ids, f)
	}
	return ids
}

// CarIDs returns every car id in [0, CarCount).
func (c *Config) CarIDs() []int {
	ids := make([]int, c.CarCount)
	for i := range ids {
		ids[i] = i
	}
	return ids
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "dev"
}

// IsTesting returns true if running in testing environment
func (c *Config) IsTesting() bool {
	return c.Environment == "testing" || c.Environment == "test"
}
