// Package flooragent implements the Floor Agent component of spec.md §4.3:
// it tracks passengers waiting at one floor, admits them into a car the
// instant that car's door opens at this floor (tail-first, up to the car's
// free capacity), maintains the floor's up/down button state, and records
// passengers the moment a car reports them arrived. New component with no
// direct teacher analogue; grounded on original_source/floor/floor.py for
// admission/button semantics, written in the teacher's State+Manager idiom
// (a mutex-guarded struct plus a broker-subscription event loop).
package flooragent

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

// carSighting is what the floor agent has learned about one car purely from
// broker traffic; it never holds a reference to the car itself.
type carSighting struct {
	floor  domain.Floor
	door   domain.Door
	actual int
	max    int
}

// Config configures an Agent instance.
type Config struct {
	FloorID       domain.Floor
	WaitingPeriod time.Duration
}

// Agent is the Floor Agent of spec.md §4.3.
type Agent struct {
	cfg    Config
	client broker.Client
	logger *slog.Logger

	mu      sync.Mutex
	waiting []domain.Passenger
	arrived int

	carsMu sync.Mutex
	cars   map[int]carSighting

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New constructs an Agent over client for floor cfg.FloorID.
func New(cfg Config, client broker.Client, logger *slog.Logger) *Agent {
	if cfg.WaitingPeriod <= 0 {
		cfg.WaitingPeriod = constants.DefaultHeartbeatPeriod
	}
	return &Agent{
		cfg:    cfg,
		client: client,
		logger: logger.With(slog.String("component", constants.ComponentFloorAgent), slog.Int("floor_id", cfg.FloorID.Value())),
		cars:   make(map[int]carSighting),
	}
}

// WaitingCount returns the number of passengers currently waiting, for the
// ambient status surface.
func (a *Agent) WaitingCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.waiting)
}

// ArrivedCount returns the number of passengers this floor has recorded as
// arrived since the last reset.
func (a *Agent) ArrivedCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.arrived
}

// Snapshot implements httpstatus.StatusProvider.
func (a *Agent) Snapshot() map[string]interface{} {
	return map[string]interface{}{
		"floor_id":       a.cfg.FloorID.Value(),
		"waiting_count":  a.WaitingCount(),
		"arrived_count":  a.ArrivedCount(),
		"waiting_period": a.cfg.WaitingPeriod.String(),
	}
}

// Start subscribes to every input topic and launches the periodic
// waiting-count publisher.
func (a *Agent) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	a.ctx = ctx
	a.cancel = cancel

	id := a.cfg.FloorID.Value()
	subs := []struct {
		topic string
		qos   byte
		fn    broker.MessageHandler
	}{
		{broker.FloorTopic(constants.TopicSimFloorPassengerWaiting, id), 1, a.onPassengerWaiting},
		{broker.FloorTopic(constants.TopicSimFloorPassengerArrived, id), 1, a.onPassengerArrived},
		{"elevator/+/actual_floor", 1, a.onCarFloor},
		{"elevator/+/door", 1, a.onCarDoor},
		{"elevator/+/capacity", 1, a.onCarCapacity},
		{constants.TopicSimReset, 1, a.onReset},
	}
	for _, sub := range subs {
		if err := a.client.Subscribe(sub.topic, sub.qos, sub.fn); err != nil {
			cancel()
			return err
		}
	}

	a.wg.Add(1)
	go a.heartbeatLoop()

	a.publishWaitingCount()
	a.publishButtons()
	return nil
}

// Stop cancels the background task and waits for it to exit.
func (a *Agent) Stop() {
	if a.cancel != nil {
		a.cancel()
	}
	a.wg.Wait()
}

func (a *Agent) heartbeatLoop() {
	defer a.wg.Done()
	ticker := time.NewTicker(a.cfg.WaitingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-a.ctx.Done():
			return
		case <-ticker.C:
			a.publishWaitingCount()
			a.publishButtons()
		}
	}
}

// onPassengerWaiting admits newly spawned passengers to the waiting list,
// per spec.md §4.3's admission input. The feeder publishes a batch (spec.md
// §6: "array of {start,destination}"), never a single object, so this
// decodes a slice and appends one waiting passenger per element. A car
// already sitting at this floor with its door open is served immediately
// rather than waiting for the next door event.
func (a *Agent) onPassengerWaiting(_ string, payload []byte) {
	var wire []domain.PassengerWaitingPayload
	if err := json.Unmarshal(payload, &wire); err != nil {
		a.logger.Warn("malformed passenger_waiting payload", slog.String("error", err.Error()))
		metrics.IncError(constants.ComponentFloorAgent, "malformed_payload")
		return
	}
	if len(wire) == 0 {
		return
	}

	now := time.Now()
	passengers := make([]domain.Passenger, len(wire))
	for i, entry := range wire {
		passengers[i] = domain.NewPassenger(a.cfg.FloorID, domain.NewFloor(entry.Destination), now)
	}

	a.mu.Lock()
	a.waiting = append(a.waiting, passengers...)
	a.mu.Unlock()

	a.publishWaitingCount()
	a.publishButtons()
	a.admitAnyOpenCar()
}

// onPassengerArrived records a passenger the car controller has just
// deposited at this floor: stamps EndTs, republishes the completed record,
// and bumps the arrived counter.
func (a *Agent) onPassengerArrived(_ string, payload []byte) {
	var batch domain.PassengerBatch
	if err := json.Unmarshal(payload, &batch); err != nil {
		a.logger.Warn("malformed passenger_arrived payload", slog.String("error", err.Error()))
		metrics.IncError(constants.ComponentFloorAgent, "malformed_payload")
		return
	}
	if len(batch) == 0 {
		return
	}

	now := time.Now()
	recorded := make(domain.PassengerBatch, 0, len(batch))
	for _, wire := range batch {
		p, err := wire.ToPassenger()
		if err != nil {
			a.logger.Warn("invalid arrived passenger payload", slog.String("error", err.Error()))
			continue
		}
		p, err = p.Arrive(now)
		if err != nil {
			a.logger.Warn("arrival rejected", slog.String("error", err.Error()))
			continue
		}
		recorded = append(recorded, domain.FromPassenger(p))
		metrics.RecordWaitTime(a.cfg.FloorID.Value(), waitSeconds(p))
	}
	if len(recorded) == 0 {
		return
	}

	a.mu.Lock()
	a.arrived += len(recorded)
	count := a.arrived
	a.mu.Unlock()

	out, err := json.Marshal(recorded)
	if err != nil {
		a.logger.Error("failed to marshal recorded passengers", slog.String("error", err.Error()))
		return
	}
	topic := broker.FloorTopic(constants.TopicRecordFloorPassengerArrived, a.cfg.FloorID.Value())
	if err := a.client.Publish(topic, 1, false, out); err != nil {
		a.logger.Warn("failed to publish recorded passengers", slog.String("error", err.Error()))
		metrics.IncError(constants.ComponentFloorAgent, "publish_failed")
	}

	countTopic := broker.FloorTopic(constants.TopicSimFloorArrivedCount, a.cfg.FloorID.Value())
	if err := a.client.Publish(countTopic, 0, true, []byte(strconv.Itoa(count))); err != nil {
		a.logger.Warn("failed to publish arrived count", slog.String("error", err.Error()))
	}
}

func waitSeconds(p domain.Passenger) float64 {
	if p.EnterCarTs == nil {
		return 0
	}
	return p.EnterCarTs.Sub(p.StartTs).Seconds()
}

func (a *Agent) onCarFloor(topic string, payload []byte) {
	carID, err := broker.SegmentInt(topic, 1)
	if err != nil {
		return
	}
	value, err := strconv.Atoi(string(payload))
	if err != nil {
		return
	}

	a.carsMu.Lock()
	s := a.cars[carID]
	s.floor = domain.NewFloor(value)
	a.cars[carID] = s
	a.carsMu.Unlock()

	a.tryAdmit(carID)
}

func (a *Agent) onCarDoor(topic string, payload []byte) {
	carID, err := broker.SegmentInt(topic, 1)
	if err != nil {
		return
	}

	a.carsMu.Lock()
	s := a.cars[carID]
	s.door = domain.Door(payload)
	a.cars[carID] = s
	a.carsMu.Unlock()

	a.tryAdmit(carID)
}

func (a *Agent) onCarCapacity(topic string, payload []byte) {
	carID, err := broker.SegmentInt(topic, 1)
	if err != nil {
		return
	}
	var capacity domain.CapacityPayload
	if err := json.Unmarshal(payload, &capacity); err != nil {
		return
	}

	a.carsMu.Lock()
	s := a.cars[carID]
	s.actual = capacity.Actual
	s.max = capacity.Max
	a.cars[carID] = s
	a.carsMu.Unlock()
}

// tryAdmit admits waiting passengers into carID if it is parked at this
// floor with its door open and has free capacity.
func (a *Agent) tryAdmit(carID int) {
	a.carsMu.Lock()
	s, ok := a.cars[carID]
	a.carsMu.Unlock()
	if !ok || s.floor != a.cfg.FloorID || !s.door.IsOpen() {
		return
	}
	a.admit(carID, s.max-s.actual)
}

// admitAnyOpenCar serves a just-spawned passenger immediately if some known
// car is already sitting at this floor with its door open.
func (a *Agent) admitAnyOpenCar() {
	a.carsMu.Lock()
	type candidate struct {
		id   int
		free int
	}
	var found *candidate
	for id, s := range a.cars {
		if s.floor == a.cfg.FloorID && s.door.IsOpen() && s.max-s.actual > 0 {
			found = &candidate{id: id, free: s.max - s.actual}
			break
		}
	}
	a.carsMu.Unlock()
	if found != nil {
		a.admit(found.id, found.free)
	}
}

// admit takes up to free passengers from the tail of the waiting list (the
// documented LIFO admission order, see DESIGN.md) and publishes them to
// carID's boarding topic.
func (a *Agent) admit(carID, free int) {
	if free <= 0 {
		return
	}

	a.mu.Lock()
	n := free
	if n > len(a.waiting) {
		n = len(a.waiting)
	}
	if n == 0 {
		a.mu.Unlock()
		return
	}
	admitted := make([]domain.Passenger, n)
	copy(admitted, a.waiting[len(a.waiting)-n:])
	a.waiting = a.waiting[:len(a.waiting)-n]
	a.mu.Unlock()

	batch := make(domain.PassengerBatch, len(admitted))
	for i, p := range admitted {
		batch[i] = domain.FromPassenger(p)
	}
	payload, err := json.Marshal(batch)
	if err != nil {
		a.logger.Error("failed to marshal admitted passengers", slog.String("error", err.Error()))
		return
	}
	topic := broker.CarTopic(constants.TopicSimCarPassenger, carID)
	if err := a.client.Publish(topic, 1, false, payload); err != nil {
		a.logger.Warn("failed to publish admitted passengers", slog.String("error", err.Error()))
		metrics.IncError(constants.ComponentFloorAgent, "publish_failed")
	}

	a.publishWaitingCount()
	a.publishButtons()
}

func (a *Agent) onReset(string, []byte) {
	a.mu.Lock()
	a.waiting = nil
	a.arrived = 0
	a.mu.Unlock()

	a.carsMu.Lock()
	a.cars = make(map[int]carSighting)
	a.carsMu.Unlock()

	a.publishWaitingCount()
	a.publishButtons()
	a.logger.Info("floor reset to initial state")
}

func (a *Agent) publishWaitingCount() {
	a.mu.Lock()
	count := len(a.waiting)
	a.mu.Unlock()

	metrics.SetPendingRequests(a.cfg.FloorID.Value(), count)
	topic := broker.FloorTopic(constants.TopicFloorWaitingCount, a.cfg.FloorID.Value())
	if err := a.client.Publish(topic, 0, true, []byte(strconv.Itoa(count))); err != nil {
		a.logger.Warn("failed to publish waiting count", slog.String("error", err.Error()))
	}
}

func (a *Agent) publishButtons() {
	a.mu.Lock()
	up := domain.WantsUp(a.cfg.FloorID, a.waiting)
	down := domain.WantsDown(a.cfg.FloorID, a.waiting)
	a.mu.Unlock()

	upTopic := broker.FloorTopic(constants.TopicFloorButtonUp, a.cfg.FloorID.Value())
	if err := a.client.Publish(upTopic, 1, true, []byte(strconv.FormatBool(up))); err != nil {
		a.logger.Warn("failed to publish up button", slog.String("error", err.Error()))
	}
	downTopic := broker.FloorTopic(constants.TopicFloorButtonDown, a.cfg.FloorID.Value())
	if err := a.client.Publish(downTopic, 1, true, []byte(strconv.FormatBool(down))); err != nil {
		a.logger.Warn("failed to publish down button", slog.String("error", err.Error()))
	}
}
