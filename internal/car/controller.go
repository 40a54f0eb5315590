// Package car implements the Car Controller component of spec.md §4.2: it
// drives a single car one floor per tick toward the scheduler's assigned
// next_floor, opens its door to deboard and board passengers, and publishes
// its status, position, door, and capacity back onto the broker. Grounded
// on internal/elevator/elevator.go's switchOn/Run event loop and
// original_source/elevator/elevator.py's moveTo/update_status/
// passenger_enter_cb/delayed_update_status, generalized from a directions
// manager driven by hall calls to a single scheduler-assigned destination.
package car

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/arikolev/elevator-fleet/internal/broker"
	"github.com/arikolev/elevator-fleet/internal/constants"
	"github.com/arikolev/elevator-fleet/internal/domain"
	"github.com/arikolev/elevator-fleet/metrics"
)

// Config configures a Controller instance.
type Config struct {
	ID          int
	StartFloor  domain.Floor
	MaxCapacity int

	TickDuration     time.Duration
	OpenDoorDuration time.Duration
	SettleDuration   time.Duration
	HeartbeatPeriod  time.Duration

	CircuitBreakerMaxFailures   int
	CircuitBreakerResetTimeout  time.Duration
	CircuitBreakerHalfOpenLimit int
}

func (c *Config) applyDefaults() {
	if c.TickDuration <= 0 {
		c.TickDuration = constants.DefaultTickDuration
	}
	if c.OpenDoorDuration <= 0 {
		c.OpenDoorDuration = constants.DefaultOpenDoorDuration
	}
	if c.SettleDuration <= 0 {
		c.SettleDuration = constants.DefaultSettleDuration
	}
	if c.HeartbeatPeriod <= 0 {
		c.HeartbeatPeriod = constants.DefaultHeartbeatPeriod
	}
	if c.CircuitBreakerMaxFailures <= 0 {
		c.CircuitBreakerMaxFailures = 5
	}
	if c.CircuitBreakerResetTimeout <= 0 {
		c.CircuitBreakerResetTimeout = 30 * time.Second
	}
	if c.CircuitBreakerHalfOpenLimit <= 0 {
		c.CircuitBreakerHalfOpenLimit = 3
	}
}

// Controller drives one car through the state machine of spec.md §4.2.
type Controller struct {
	cfg     Config
	state   *State
	client  broker.Client
	logger  *slog.Logger
	breaker *CircuitBreaker

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	run chan struct{}

	targetMu sync.Mutex
	target   *domain.Floor

	settleMu     sync.Mutex
	settleCancel context.CancelFunc
}

// New constructs a Controller over client with the given configuration.
func New(cfg Config, client broker.Client, logger *slog.Logger) *Controller {
	cfg.applyDefaults()
	return &Controller{
		cfg:     cfg,
		state:   NewState(cfg.ID, cfg.StartFloor, cfg.MaxCapacity),
		client:  client,
		logger:  logger.With(slog.String("component", constants.ComponentCar), slog.Int("car_id", cfg.ID)),
		breaker: NewCircuitBreaker(cfg.CircuitBreakerMaxFailures, cfg.CircuitBreakerResetTimeout, cfg.CircuitBreakerHalfOpenLimit),
		run:     make(chan struct{}, 1),
	}
}

// State exposes the controller's live state, primarily for the ambient
// status surface.
func (c *Controller) State() *State {
	return c.state
}

// CircuitBreakerState reports the breaker guarding broker publishes, for
// readiness checks and the status snapshot.
func (c *Controller) CircuitBreakerState() CircuitBreakerState {
	return c.breaker.GetState()
}

// Snapshot implements httpstatus.StatusProvider.
func (c *Controller) Snapshot() map[string]interface{} {
	state := c.state.Snapshot()
	breakerState, failures, successes := c.breaker.GetMetrics()

	return map[string]interface{}{
		"car_id":             state.ID,
		"floor":              state.Floor.Value(),
		"direction":          state.Direction,
		"door":               state.Door,
		"status":             state.Status,
		"actual_capacity":    state.ActualCapacity,
		"max_capacity":       state.MaxCapacity,
		"queue_length":       len(state.Queue),
		"onboard_count":      len(state.Onboard),
		"phase":              c.state.Phase(),
		"circuit_breaker":    breakerState,
		"breaker_failures":   failures,
		"breaker_successes":  successes,
	}
}

// Start subscribes to every input topic, announces the car online, and
// launches the drive and heartbeat tasks.
func (c *Controller) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	c.ctx = ctx
	c.cancel = cancel

	subs := []struct {
		topic string
		qos   byte
		fn    broker.MessageHandler
	}{
		{broker.CarTopic(constants.TopicCarNextFloor, c.cfg.ID), 0, c.onNextFloor},
		{broker.CarTopic(constants.TopicSimCarPassenger, c.cfg.ID), 1, c.onPassengerEnter},
		{constants.TopicSimReset, 1, c.onReset},
	}
	for _, sub := range subs {
		if err := c.client.Subscribe(sub.topic, sub.qos, sub.fn); err != nil {
			cancel()
			return err
		}
	}

	c.wg.Add(2)
	go c.driveLoop()
	go c.heartbeatLoop()

	c.state.SetStatus(domain.CarStatusOnline)
	c.publishStatus()
	c.publishActualFloor(c.state.Floor())
	c.publishDoor()
	c.publishCapacity()

	return nil
}

// Stop cancels every background task and waits for them to exit, publishing
// the car offline first (mirroring the broker last-will for a clean exit).
func (c *Controller) Stop() {
	c.state.SetStatus(domain.CarStatusOffline)
	c.publishStatus()
	if c.cancel != nil {
		c.cancel()
	}
	c.wg.Wait()
}

func (c *Controller) signal() {
	select {
	case c.run <- struct{}{}:
	default:
	}
}

func (c *Controller) onNextFloor(_ string, payload []byte) {
	value, err := strconv.Atoi(string(payload))
	if err != nil {
		c.logger.Warn("malformed next_floor payload", slog.String("payload", string(payload)))
		metrics.IncError(constants.ComponentCar, "malformed_payload")
		return
	}
	f := domain.NewFloor(value)
	c.targetMu.Lock()
	c.target = &f
	c.targetMu.Unlock()
	c.cancelSettle()
	c.signal()
}

func (c *Controller) currentTarget() (domain.Floor, bool) {
	c.targetMu.Lock()
	defer c.targetMu.Unlock()
	if c.target == nil {
		return domain.Floor(0), false
	}
	return *c.target, true
}

func (c *Controller) clearTarget() {
	c.targetMu.Lock()
	c.target = nil
	c.targetMu.Unlock()
}

// driveLoop is the car's single movement task (spec.md §5): woken by a new
// next_floor assignment, it advances one floor per tick until it reaches the
// target, then hands off to arrive for the door/unload/board sequence.
func (c *Controller) driveLoop() {
	defer c.wg.Done()
	for {
		select {
		case <-c.ctx.Done():
			return
		case <-c.run:
			c.drive()
		}
	}
}

func (c *Controller) drive() {
	for {
		target, ok := c.currentTarget()
		if !ok {
			return
		}

		current := c.state.Floor()
		if current == target {
			c.clearTarget()
			c.arrive()
			return
		}

		dir := domain.DirectionFromFloors(current, target)
		c.state.SetPhase(phaseForDirection(dir))

		select {
		case <-c.ctx.Done():
			return
		case <-time.After(c.cfg.TickDuration):
		}

		next := current
		switch dir {
		case domain.DirectionUp:
			next = domain.NewFloor(current.Value() + 1)
		case domain.DirectionDown:
			next = domain.NewFloor(current.Value() - 1)
		}
		c.state.SetFloor(next)
		c.publishActualFloor(next)
		metrics.SetCurrentFloor(c.cfg.ID, next.Value())
	}
}

// arrive runs the door/unload sequence of spec.md §4.2 once the car reaches
// its assigned floor: open the door, deboard anyone whose destination
// matches, publish their arrival, close the door, and settle back to idle.
func (c *Controller) arrive() {
	c.state.SetPhase(PhasePassengerExit)
	c.openDoor()

	now := time.Now()
	left := c.state.Deboard(now)
	if len(left) > 0 {
		c.publishPassengersArrived(left)
		for _, p := range left {
			if p.EnterCarTs != nil && p.LeaveCarTs != nil {
				metrics.RecordTravelTime(c.cfg.ID, p.LeaveCarTs.Sub(*p.EnterCarTs).Seconds())
			}
		}
	}
	c.publishCapacity()

	c.closeDoor()
	c.settleToIdle()
}

func (c *Controller) openDoor() {
	c.state.SetDoor(domain.DoorOpen)
	c.publishDoor()
	select {
	case <-c.ctx.Done():
	case <-time.After(c.cfg.OpenDoorDuration):
	}
}

func (c *Controller) closeDoor() {
	c.state.SetDoor(domain.DoorClosed)
	c.publishDoor()
}

// settleToIdle mirrors original_source/elevator/elevator.py's
// delayed_update_status: after the configured settle duration the car
// reports itself idle unless a new next_floor preempts it first.
func (c *Controller) settleToIdle() {
	ctx, cancel := context.WithCancel(c.ctx)
	c.settleMu.Lock()
	if c.settleCancel != nil {
		c.settleCancel()
	}
	c.settleCancel = cancel
	c.settleMu.Unlock()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		select {
		case <-ctx.Done():
			return
		case <-time.After(c.cfg.SettleDuration):
		}
		if _, has := c.currentTarget(); !has {
			c.state.SetPhase(PhaseIdle)
		}
	}()
}

func (c *Controller) cancelSettle() {
	c.settleMu.Lock()
	defer c.settleMu.Unlock()
	if c.settleCancel != nil {
		c.settleCancel()
		c.settleCancel = nil
	}
}

func phaseForDirection(dir domain.Direction) Phase {
	switch dir {
	case domain.DirectionUp:
		return PhaseDrivingUp
	case domain.DirectionDown:
		return PhaseDrivingDown
	default:
		return PhaseIdle
	}
}

// onPassengerEnter handles the floor agent admitting riders into this car:
// it boards them, publishes the updated capacity and destination set, and
// wakes the drive loop in case the car was idle.
func (c *Controller) onPassengerEnter(_ string, payload []byte) {
	var batch domain.PassengerBatch
	if err := json.Unmarshal(payload, &batch); err != nil {
		c.logger.Warn("malformed passenger batch", slog.String("error", err.Error()))
		metrics.IncError(constants.ComponentCar, "malformed_payload")
		return
	}
	if len(batch) == 0 {
		return
	}

	now := time.Now()
	passengers := make([]domain.Passenger, 0, len(batch))
	for _, wire := range batch {
		p, err := wire.ToPassenger()
		if err != nil {
			c.logger.Warn("invalid passenger payload", slog.String("error", err.Error()))
			metrics.IncError(constants.ComponentCar, "malformed_payload")
			continue
		}
		passengers = append(passengers, p)
	}
	if len(passengers) == 0 {
		return
	}

	destinations, err := c.state.Board(passengers, now)
	if err != nil {
		c.logger.Warn("boarding rejected", slog.String("error", err.Error()))
		metrics.IncError(constants.ComponentCar, "overfull")
		return
	}

	c.publishCapacity()
	c.publishSelectedFloors(destinations)
	c.cancelSettle()
	c.signal()
}

func (c *Controller) onReset(string, []byte) {
	c.cancelSettle()
	c.clearTarget()
	c.state.Reset(c.cfg.StartFloor)
	c.publishStatus()
	c.publishActualFloor(c.cfg.StartFloor)
	c.publishDoor()
	c.publishCapacity()
	c.logger.Info("car reset to initial state")
}

func (c *Controller) heartbeatLoop() {
	defer c.wg.Done()
	ticker := time.NewTicker(c.cfg.HeartbeatPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			c.publishStatus()
			c.publishActualFloor(c.state.Floor())
			c.publishDoor()
			c.publishCapacity()
		}
	}
}

// publish sends payload through the circuit breaker so a broker outage
// degrades to dropped publishes instead of a blocked controller.
func (c *Controller) publish(topic string, qos byte, retained bool, payload []byte) {
	err := c.breaker.Execute(c.ctx, func() error {
		return c.client.Publish(topic, qos, retained, payload)
	})
	if err != nil {
		c.logger.Warn("publish failed", slog.String("topic", topic), slog.String("error", err.Error()))
		metrics.IncError(constants.ComponentCar, "publish_failed")
	}
	metrics.SetCircuitBreakerState(c.cfg.ID, int(c.breaker.GetState()))
}

func (c *Controller) publishStatus() {
	topic := broker.CarTopic(constants.TopicCarStatus, c.cfg.ID)
	c.publish(topic, 1, true, []byte(c.state.Snapshot().Status.String()))
}

func (c *Controller) publishActualFloor(floor domain.Floor) {
	topic := broker.CarTopic(constants.TopicCarActualFloor, c.cfg.ID)
	c.publish(topic, 1, true, []byte(strconv.Itoa(floor.Value())))
}

func (c *Controller) publishDoor() {
	topic := broker.CarTopic(constants.TopicCarDoor, c.cfg.ID)
	c.publish(topic, 1, true, []byte(c.state.Door().String()))
}

func (c *Controller) publishCapacity() {
	actual, max := c.state.Capacity()
	payload, err := json.Marshal(domain.CapacityPayload{Max: max, Actual: actual})
	if err != nil {
		c.logger.Error("failed to marshal capacity", slog.String("error", err.Error()))
		return
	}
	topic := broker.CarTopic(constants.TopicCarCapacity, c.cfg.ID)
	c.publish(topic, 1, true, payload)
}

func (c *Controller) publishSelectedFloors(destinations []domain.Floor) {
	ints := make([]int, len(destinations))
	for i, f := range destinations {
		ints[i] = f.Value()
	}
	payload, err := json.Marshal(ints)
	if err != nil {
		c.logger.Error("failed to marshal selected floors", slog.String("error", err.Error()))
		return
	}
	topic := broker.CarTopic(constants.TopicCarSelectedFloors, c.cfg.ID)
	c.publish(topic, 1, false, payload)
}

func (c *Controller) publishPassengersArrived(passengers []domain.Passenger) {
	if len(passengers) == 0 {
		return
	}
	batch := make(domain.PassengerBatch, len(passengers))
	for i, p := range passengers {
		batch[i] = domain.FromPassenger(p)
	}
	payload, err := json.Marshal(batch)
	if err != nil {
		c.logger.Error("failed to marshal arrived passengers", slog.String("error", err.Error()))
		return
	}
	floor := c.state.Floor()
	topic := broker.FloorTopic(constants.TopicSimFloorPassengerArrived, floor.Value())
	c.publish(topic, 1, false, payload)
}
