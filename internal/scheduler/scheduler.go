// Package scheduler implements the Scheduler component of spec.md §4.1: it
// owns the fleet view, selects a car for each new hall call, re-sorts each
// car's queue per the SCAN algorithm, and runs one dispatcher goroutine per
// car that advertises the queue head as next_floor. Grounded on
// internal/manager.Manager's car-selection priority chain and per-car
// locking, generalized to the richer CarState/FloorState model and to an
// explicit event-driven scheduling cycle instead of manager's synchronous
// request/response API.
package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/arikolev/elevator-fleet/internal/broker"
	"github.com/arikolev/elevator-fleet/internal/constants"
	"github.com/arikolev/elevator-fleet/internal/domain"
	"github.com/arikolev/elevator-fleet/metrics"
)

// Config configures a Scheduler instance.
type Config struct {
	Mode           Mode
	SmartThreshold int
	CarIDs         []int
	StartFloor     domain.Floor
	MaxCapacity    int
	FloorIDs       []int
	DispatchPeriod time.Duration
}

// Scheduler owns the fleet view and runs the selection cycle and per-car
// dispatchers described in spec.md §4.1 and §5.
type Scheduler struct {
	cfg    Config
	fleet  *Fleet
	client broker.Client
	logger *slog.Logger

	callEventMu sync.Mutex
	callEvent   chan struct{}

	expectedMu sync.Mutex
	expected   domain.ExpectedPassengersPayload

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New constructs a Scheduler over client with the given configuration. It
// pre-registers every car and floor from cfg so scenarios with a fixed
// fleet size behave deterministically before the first status message
// arrives.
func New(cfg Config, client broker.Client, logger *slog.Logger) *Scheduler {
	if cfg.DispatchPeriod <= 0 {
		cfg.DispatchPeriod = constants.DefaultTickDuration
	}

	fleet := NewFleet()
	for _, id := range cfg.CarIDs {
		fleet.RegisterCar(id, cfg.StartFloor, cfg.MaxCapacity)
	}
	for _, id := range cfg.FloorIDs {
		fleet.RegisterFloor(domain.NewFloor(id))
	}

	return &Scheduler{
		cfg:       cfg,
		fleet:     fleet,
		client:    client,
		logger:    logger.With(slog.String("component", constants.ComponentScheduler)),
		callEvent: make(chan struct{}, 1),
	}
}

// Fleet exposes the scheduler's fleet view, primarily for the ambient
// status surface.
func (s *Scheduler) Fleet() *Fleet {
	return s.fleet
}

// Snapshot implements httpstatus.StatusProvider: a JSON-marshalable view of
// every car and floor the scheduler currently tracks.
func (s *Scheduler) Snapshot() map[string]interface{} {
	cars := make(map[string]interface{})
	for _, id := range s.fleet.CarIDs() {
		state, ok := s.fleet.CarState(id)
		if !ok {
			continue
		}
		cars[strconv.Itoa(id)] = map[string]interface{}{
			"floor":           state.Floor.Value(),
			"direction":       state.Direction,
			"door":            state.Door,
			"status":          state.Status,
			"actual_capacity": state.ActualCapacity,
			"max_capacity":    state.MaxCapacity,
			"queue_length":    len(state.Queue),
		}
	}

	floors := make(map[string]interface{})
	for _, id := range s.fleet.FloorIDs() {
		state, ok := s.fleet.FloorState(id)
		if !ok {
			continue
		}
		floors[strconv.Itoa(id)] = map[string]interface{}{
			"waiting_count": len(state.Waiting),
			"up_pressed":    state.UpPressed,
			"down_pressed":  state.DownPressed,
		}
	}

	s.expectedMu.Lock()
	expected := make(domain.ExpectedPassengersPayload, len(s.expected))
	for floorID, count := range s.expected {
		expected[floorID] = count
	}
	s.expectedMu.Unlock()

	return map[string]interface{}{
		"mode":                string(s.cfg.Mode),
		"cars":                cars,
		"floors":              floors,
		"expected_passengers": expected,
	}
}

// Start subscribes to every input topic and launches the scheduling task
// and one dispatcher goroutine per known car. It returns once subscriptions
// are registered; the goroutines keep running until ctx is cancelled or
// Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	subs := []struct {
		topic string
		qos   byte
		fn    broker.MessageHandler
	}{
		{constants.TopicAllCarStatus, 1, s.onCarStatus},
		{"elevator/+/actual_floor", 1, s.onActualFloor},
		{"elevator/+/capacity", 1, s.onCapacity},
		{"elevator/+/selected_floors", 1, s.onSelectedFloors},
		{"floor/+/waiting_count", 1, s.onWaitingCount},
		{constants.TopicAllFloorButtons, 1, s.onButtonPressed},
		{constants.TopicSimPassengersExpected, 1, s.onExpectedPassengers},
		{constants.TopicSimReset, 1, s.onReset},
	}
	for _, sub := range subs {
		if err := s.client.Subscribe(sub.topic, sub.qos, sub.fn); err != nil {
			cancel()
			return fmt.Errorf("subscribe %s: %w", sub.topic, err)
		}
	}

	s.wg.Add(1)
	go s.schedulingLoop(ctx)

	for _, id := range s.cfg.CarIDs {
		s.wg.Add(1)
		go s.dispatcherLoop(ctx, id)
	}

	return nil
}

// Stop cancels every background goroutine and waits for them to exit.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

func (s *Scheduler) signalCycle() {
	select {
	case s.callEvent <- struct{}{}:
	default:
	}
}

// schedulingLoop is the single scheduling task of spec.md §5: it waits on
// the call-button event and performs one assignment cycle per wake.
func (s *Scheduler) schedulingLoop(ctx context.Context) {
	defer s.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.callEvent:
			s.runCycle()
		}
	}
}

// runCycle performs exactly one scheduler cycle (spec.md §4.1): choose a
// source floor, choose a car, append, re-sort, publish.
func (s *Scheduler) runCycle() {
	floorStates := make(map[int]domain.FloorState)
	for _, id := range s.fleet.FloorIDs() {
		if fs, ok := s.fleet.FloorState(id); ok {
			floorStates[id] = fs
		}
	}

	carStates := make(map[int]domain.CarState)
	queuedFloors := make(map[int]bool)
	for _, id := range s.fleet.CarIDs() {
		if cs, ok := s.fleet.CarState(id); ok {
			carStates[id] = cs
			for _, f := range cs.Queue {
				queuedFloors[f.Value()] = true
			}
		}
	}

	sourceFloorID, ok := ChooseSourceFloor(s.cfg.Mode, s.cfg.SmartThreshold, floorStates, queuedFloors)
	if !ok {
		return
	}
	sourceFloor := domain.NewFloor(sourceFloorID)

	carID, ok := ChooseCar(sourceFloor, carStates)
	if !ok {
		s.logger.Warn("no car available for assignment", slog.Int("floor_id", sourceFloorID))
		return
	}

	if carStates[carID].ActualCapacity == 0 && len(carStates[carID].Queue) > 0 {
		s.fleet.ClearQueue(carID)
	}

	if queue, appended := s.fleet.AppendToQueue(carID, sourceFloor); appended {
		s.publishQueue(carID, queue)
		metrics.IncAssignment(carID, sourceFloorID)
	}
}

// publishQueue publishes the car's full queue for observability and its
// head as next_floor, per spec.md §4.1's "Outputs".
func (s *Scheduler) publishQueue(carID int, queue []domain.Floor) {
	ints := make([]int, len(queue))
	for i, f := range queue {
		ints[i] = f.Value()
	}
	payload, err := json.Marshal(ints)
	if err != nil {
		s.logger.Error("failed to marshal queue", slog.String("error", err.Error()))
		return
	}
	topic := broker.CarTopic(constants.TopicSimCarQueue, carID)
	if err := s.client.Publish(topic, 0, true, payload); err != nil {
		s.logger.Error("failed to publish queue", slog.String("error", err.Error()))
	}
	metrics.SetQueueDepth(carID, len(queue))

	if len(queue) > 0 {
		s.publishNextFloor(carID, queue[0])
	}
}

func (s *Scheduler) publishNextFloor(carID int, floor domain.Floor) {
	topic := broker.CarTopic(constants.TopicCarNextFloor, carID)
	if err := s.client.Publish(topic, 0, true, []byte(strconv.Itoa(floor.Value()))); err != nil {
		s.logger.Error("failed to publish next_floor", slog.String("error", err.Error()))
	}
}

// dispatcherLoop is the per-car dispatcher task of spec.md §5: it publishes
// the current queue head as next_floor whenever signalled, then waits again.
func (s *Scheduler) dispatcherLoop(ctx context.Context, carID int) {
	defer s.wg.Done()
	dispatch := s.fleet.Dispatch(carID)
	if dispatch == nil {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-dispatch:
			cs, ok := s.fleet.CarState(carID)
			if !ok {
				continue
			}
			if head, hasHead := cs.NextFloor(); hasHead {
				s.publishNextFloor(carID, head)
			}
		}
	}
}

func (s *Scheduler) onCarStatus(topic string, payload []byte) {
	carID, err := broker.SegmentInt(topic, 1)
	if err != nil {
		s.logger.Warn("malformed car status topic", slog.String("topic", topic))
		return
	}
	status := domain.CarStatus(payload)
	s.fleet.UpdateCarStatus(carID, status)
}

func (s *Scheduler) onActualFloor(topic string, payload []byte) {
	carID, err := broker.SegmentInt(topic, 1)
	if err != nil {
		s.logger.Warn("malformed actual_floor topic", slog.String("topic", topic))
		return
	}
	floorValue, err := strconv.Atoi(string(payload))
	if err != nil {
		s.logger.Warn("malformed actual_floor payload", slog.String("payload", string(payload)))
		return
	}

	_, arrived := s.fleet.UpdateCarFloor(carID, domain.NewFloor(floorValue))
	if !arrived {
		return
	}

	cs, ok := s.fleet.CarState(carID)
	if !ok {
		return
	}
	s.fleet.ClearButton(floorValue, cs.Direction)
	metrics.IncArrivalHandshake(carID, floorValue)
	s.publishQueue(carID, cs.Queue)
	s.fleet.SignalDispatch(carID)
}

func (s *Scheduler) onCapacity(topic string, payload []byte) {
	carID, err := broker.SegmentInt(topic, 1)
	if err != nil {
		return
	}
	var capacity domain.CapacityPayload
	if err := json.Unmarshal(payload, &capacity); err != nil {
		s.logger.Warn("malformed capacity payload", slog.String("error", err.Error()))
		return
	}
	s.fleet.UpdateCarCapacity(carID, capacity.Actual, capacity.Max)
}

func (s *Scheduler) onSelectedFloors(topic string, payload []byte) {
	carID, err := broker.SegmentInt(topic, 1)
	if err != nil {
		return
	}
	var ints []int
	if err := json.Unmarshal(payload, &ints); err != nil {
		s.logger.Warn("malformed selected_floors payload", slog.String("error", err.Error()))
		return
	}
	selected := make([]domain.Floor, len(ints))
	for i, v := range ints {
		selected[i] = domain.NewFloor(v)
	}
	queue := s.fleet.MergeSelectedFloors(carID, selected)
	s.publishQueue(carID, queue)
}

func (s *Scheduler) onWaitingCount(topic string, payload []byte) {
	floorID, err := broker.SegmentInt(topic, 1)
	if err != nil {
		return
	}
	count, err := strconv.Atoi(string(payload))
	if err != nil {
		s.logger.Warn("malformed waiting_count payload", slog.String("payload", string(payload)))
		return
	}
	s.fleet.UpdateFloorWaitingCount(floorID, count)
}

func (s *Scheduler) onButtonPressed(topic string, payload []byte) {
	floorID, err := broker.SegmentInt(topic, 1)
	if err != nil {
		return
	}
	value := string(payload) == "true"
	if len(topic) >= 2 && topic[len(topic)-2:] == "up" {
		s.fleet.UpdateFloorButtons(floorID, &value, nil)
	} else {
		s.fleet.UpdateFloorButtons(floorID, nil, &value)
	}
	s.signalCycle()
}

// onExpectedPassengers records the feeder's per-floor demand forecast
// (simulation/passengers/expected) for the ambient status surface's
// dashboard-style snapshot. Purely informational: it never affects car
// selection or queueing.
func (s *Scheduler) onExpectedPassengers(_ string, payload []byte) {
	var forecast domain.ExpectedPassengersPayload
	if err := json.Unmarshal(payload, &forecast); err != nil {
		s.logger.Warn("malformed passengers_expected payload", slog.String("error", err.Error()))
		return
	}
	s.expectedMu.Lock()
	s.expected = forecast
	s.expectedMu.Unlock()
}

func (s *Scheduler) onReset(string, []byte) {
	starts := make(map[int]domain.Floor, len(s.cfg.CarIDs))
	for _, id := range s.cfg.CarIDs {
		starts[id] = s.cfg.StartFloor
	}
	s.fleet.Reset(starts)

	s.expectedMu.Lock()
	s.expected = nil
	s.expectedMu.Unlock()

	s.logger.Info("fleet reset to initial state")
}
