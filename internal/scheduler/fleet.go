package scheduler

import (
	"sync"

	"github.com/arikolev/elevator-fleet/internal/domain"
)

// carRecord is a car's view as seen by the scheduler, guarded by its own
// mutex so the broker-callback task (updating floor/capacity/status) and the
// scheduling task (appending to queue) and the arrival handshake (popping
// queue head) all serialize on the same lock per spec.md §5's "the queue is
// mutated by both the scheduler and the callback task; these two must
// serialize."
type carRecord struct {
	mu    sync.Mutex
	state domain.CarState
	// dispatch is signalled whenever the queue head changes (new head
	// pushed, or head popped by the arrival handshake) so the per-car
	// dispatcher goroutine can re-publish next_floor.
	dispatch chan struct{}
}

// floorRecord is a floor's view as seen by the scheduler.
type floorRecord struct {
	mu    sync.Mutex
	state domain.FloorState
}

// Fleet holds the scheduler's authoritative in-memory view of every car and
// floor, built up entirely from broker messages. Grounded on
// internal/manager.Manager's map-of-elevators pattern, generalized to carry
// the full CarState/FloorState model and a per-car dispatch channel instead
// of manager's direct elevator-object ownership.
type Fleet struct {
	carsMu sync.RWMutex
	cars   map[int]*carRecord

	floorsMu sync.RWMutex
	floors   map[int]*floorRecord
}

// NewFleet returns an empty fleet view; cars and floors are registered as
// their status/button messages first arrive, or pre-registered via
// RegisterCar/RegisterFloor for a statically-sized simulation.
func NewFleet() *Fleet {
	return &Fleet{
		cars:   make(map[int]*carRecord),
		floors: make(map[int]*floorRecord),
	}
}

// RegisterCar ensures the fleet has an entry for carID, creating one with
// the given starting floor and capacity if absent. Safe to call repeatedly.
func (f *Fleet) RegisterCar(carID int, startFloor domain.Floor, maxCapacity int) {
	f.carsMu.Lock()
	defer f.carsMu.Unlock()
	if _, ok := f.cars[carID]; ok {
		return
	}
	f.cars[carID] = &carRecord{
		state:    domain.NewCarState(carID, startFloor, maxCapacity),
		dispatch: make(chan struct{}, 1),
	}
}

// RegisterFloor ensures the fleet has an entry for floorID, creating one if
// absent.
func (f *Fleet) RegisterFloor(floorID domain.Floor) {
	f.floorsMu.Lock()
	defer f.floorsMu.Unlock()
	id := floorID.Value()
	if _, ok := f.floors[id]; ok {
		return
	}
	f.floors[id] = &floorRecord{state: domain.NewFloorState(floorID)}
}

func (f *Fleet) carOrNil(carID int) *carRecord {
	f.carsMu.RLock()
	defer f.carsMu.RUnlock()
	return f.cars[carID]
}

func (f *Fleet) floorOrNil(floorID int) *floorRecord {
	f.floorsMu.RLock()
	defer f.floorsMu.RUnlock()
	return f.floors[floorID]
}

// CarIDs returns every registered car id, in no particular order.
func (f *Fleet) CarIDs() []int {
	f.carsMu.RLock()
	defer f.carsMu.RUnlock()
	ids := make([]int, 0, len(f.cars))
	for id := range f.cars {
		ids = append(ids, id)
	}
	return ids
}

// FloorIDs returns every registered floor id, in no particular order.
func (f *Fleet) FloorIDs() []int {
	f.floorsMu.RLock()
	defer f.floorsMu.RUnlock()
	ids := make([]int, 0, len(f.floors))
	for id := range f.floors {
		ids = append(ids, id)
	}
	return ids
}

// CarState returns a snapshot copy of carID's state, or false if unknown.
func (f *Fleet) CarState(carID int) (domain.CarState, bool) {
	rec := f.carOrNil(carID)
	if rec == nil {
		return domain.CarState{}, false
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return rec.state, true
}

// FloorState returns a snapshot copy of floorID's state, or false if unknown.
func (f *Fleet) FloorState(floorID int) (domain.FloorState, bool) {
	rec := f.floorOrNil(floorID)
	if rec == nil {
		return domain.FloorState{}, false
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return rec.state, true
}

// UpdateCarStatus updates a car's connectivity status.
func (f *Fleet) UpdateCarStatus(carID int, status domain.CarStatus) {
	rec := f.carOrNil(carID)
	if rec == nil {
		return
	}
	rec.mu.Lock()
	rec.state.Status = status
	rec.mu.Unlock()
}

// UpdateCarFloor updates a car's current floor, deriving direction from the
// previous floor, and returns the new state plus whether the car has just
// arrived at its queue head (the arrival-handshake trigger).
func (f *Fleet) UpdateCarFloor(carID int, floor domain.Floor) (domain.CarState, bool) {
	rec := f.carOrNil(carID)
	if rec == nil {
		return domain.CarState{}, false
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()

	if rec.state.Floor != floor {
		rec.state.PreviousFloor = rec.state.Floor
		rec.state.Direction = domain.DirectionFromFloors(rec.state.PreviousFloor, floor)
	}
	rec.state.Floor = floor

	head, hasHead := rec.state.NextFloor()
	arrived := hasHead && head == floor
	if arrived {
		rec.state.Queue = rec.state.Queue[1:]
	}
	return rec.state, arrived
}

// UpdateCarCapacity updates a car's onboard/max capacity.
func (f *Fleet) UpdateCarCapacity(carID, actual, max int) {
	rec := f.carOrNil(carID)
	if rec == nil {
		return
	}
	rec.mu.Lock()
	rec.state.ActualCapacity = actual
	rec.state.MaxCapacity = max
	rec.mu.Unlock()
}

// AppendToQueue adds floor to carID's queue (if not present, not the car's
// current floor, and the car is not full), re-sorts it, and signals the
// car's dispatcher. Returns the resulting queue and whether the append
// happened.
func (f *Fleet) AppendToQueue(carID int, floor domain.Floor) ([]domain.Floor, bool) {
	rec := f.carOrNil(carID)
	if rec == nil {
		return nil, false
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()

	if rec.state.Floor == floor || rec.state.HasFloorQueued(floor) || rec.state.IsFull() {
		return rec.state.Queue, false
	}

	rec.state.Queue = append(rec.state.Queue, floor)
	rec.state.Queue = SortQueue(rec.state.Floor, rec.state.Direction, rec.state.Queue)
	f.signal(rec)
	return rec.state.Queue, true
}

// MergeSelectedFloors ingests a car's published destination set per
// spec.md §4.1 "Selected-floors ingestion": appended if the car has spare
// capacity, or replaces the queue outright if the car is full (riders
// onboard must be served before new hall calls).
func (f *Fleet) MergeSelectedFloors(carID int, selected []domain.Floor) []domain.Floor {
	rec := f.carOrNil(carID)
	if rec == nil {
		return nil
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()

	if rec.state.HasSpareCapacity() {
		rec.state.Queue = DedupeAppend(rec.state.Queue, selected)
	} else {
		rec.state.Queue = append([]domain.Floor{}, selected...)
	}
	rec.state.Queue = SortQueue(rec.state.Floor, rec.state.Direction, rec.state.Queue)
	f.signal(rec)
	return rec.state.Queue
}

// ClearQueue empties carID's queue (used by car-selection when a car with
// actualCapacity == 0 is chosen per spec.md §4.1 step 2).
func (f *Fleet) ClearQueue(carID int) {
	rec := f.carOrNil(carID)
	if rec == nil {
		return
	}
	rec.mu.Lock()
	rec.state.Queue = nil
	rec.mu.Unlock()
}

// Dispatch returns the channel that the per-car dispatcher goroutine for
// carID should wait on.
func (f *Fleet) Dispatch(carID int) <-chan struct{} {
	rec := f.carOrNil(carID)
	if rec == nil {
		return nil
	}
	return rec.dispatch
}

// SignalDispatch wakes carID's dispatcher goroutine, used by the arrival
// handshake after popping the queue head so the next head gets published.
func (f *Fleet) SignalDispatch(carID int) {
	rec := f.carOrNil(carID)
	if rec == nil {
		return
	}
	rec.mu.Lock()
	f.signal(rec)
	rec.mu.Unlock()
}

// signal wakes carID's dispatcher without blocking if it is not currently
// waiting (the channel is buffered size 1, matching spec.md §9's "bounded
// channel of size 1" note on dispatcher condition variables). Caller must
// hold rec.mu.
func (f *Fleet) signal(rec *carRecord) {
	select {
	case rec.dispatch <- struct{}{}:
	default:
	}
}

// UpdateFloorWaiting replaces floorID's waiting list and recomputes button
// state, returning the new up/down flags.
func (f *Fleet) UpdateFloorWaiting(floorID domain.Floor, waiting []domain.Passenger) (bool, bool) {
	rec := f.floorOrNil(floorID.Value())
	if rec == nil {
		return false, false
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	rec.state.Waiting = waiting
	rec.state.UpPressed = domain.WantsUp(floorID, waiting)
	rec.state.DownPressed = domain.WantsDown(floorID, waiting)
	return rec.state.UpPressed, rec.state.DownPressed
}

// UpdateFloorButtons sets floorID's button flags directly, as observed from
// the floor agent's own button_pressed publications (the scheduler trusts
// the floor agent's computed waiting count/button state rather than
// recomputing it from a waiting list it does not own).
func (f *Fleet) UpdateFloorButtons(floorID int, up, down *bool) {
	rec := f.floorOrNil(floorID)
	if rec == nil {
		return
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if up != nil {
		rec.state.UpPressed = *up
	}
	if down != nil {
		rec.state.DownPressed = *down
	}
}

// UpdateFloorWaitingCount sets floorID's waiting count directly (as
// published by the floor agent); used when the scheduler does not track
// individual waiting passengers, only the count and button state.
func (f *Fleet) UpdateFloorWaitingCount(floorID int, count int) {
	rec := f.floorOrNil(floorID)
	if rec == nil {
		return
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.state.Waiting) != count {
		rec.state.Waiting = make([]domain.Passenger, count)
	}
}

// ClearButton clears floorID's button for direction dir, called by the
// arrival handshake (spec.md §4.1) and never by a car merely passing
// through.
func (f *Fleet) ClearButton(floorID int, dir domain.Direction) {
	rec := f.floorOrNil(floorID)
	if rec == nil {
		return
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	switch dir {
	case domain.DirectionUp:
		rec.state.UpPressed = false
	case domain.DirectionDown:
		rec.state.DownPressed = false
	}
}

// Reset returns every car to its registered start floor with an empty
// queue/onboard list, and clears every floor's waiting list and buttons,
// per SPEC_FULL.md §8's simulation/reset handling.
func (f *Fleet) Reset(startFloors map[int]domain.Floor) {
	f.carsMu.RLock()
	for id, rec := range f.cars {
		rec.mu.Lock()
		start := rec.state.Floor
		if sf, ok := startFloors[id]; ok {
			start = sf
		}
		rec.state = domain.NewCarState(id, start, rec.state.MaxCapacity)
		rec.mu.Unlock()
	}
	f.carsMu.RUnlock()

	f.floorsMu.RLock()
	for id, rec := range f.floors {
		rec.mu.Lock()
		rec.state = domain.NewFloorState(domain.NewFloor(id))
		rec.mu.Unlock()
	}
	f.floorsMu.RUnlock()
}
