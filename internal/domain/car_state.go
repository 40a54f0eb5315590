package domain

// CarState is a snapshot of one car's state, per spec.md §3. It is a plain
// value type; the owning package (internal/car for the live controller,
// internal/scheduler for the fleet view) is responsible for synchronizing
// access to its own copy.
type CarState struct {
	ID             int
	Floor          Floor
	PreviousFloor  Floor
	Direction      Direction
	Door           Door
	ActualCapacity int
	MaxCapacity    int
	Status         CarStatus
	Queue          []Floor
	Onboard        []Passenger
}

// NewCarState creates the initial state of a car parked at startFloor with
// an empty queue and no onboard passengers.
func NewCarState(id int, startFloor Floor, maxCapacity int) CarState {
	return CarState{
		ID:          id,
		Floor:       startFloor,
		Direction:   DirectionIdle,
		Door:        DoorClosed,
		MaxCapacity: maxCapacity,
		Status:      CarStatusOffline,
	}
}

// IsIdle reports whether the car has no direction and no pending targets.
func (c CarState) IsIdle() bool {
	return c.Direction == DirectionIdle && len(c.Queue) == 0
}

// IsFull reports whether the car has no spare capacity.
func (c CarState) IsFull() bool {
	return c.ActualCapacity >= c.MaxCapacity
}

// HasSpareCapacity reports whether the car can accept at least one more rider.
func (c CarState) HasSpareCapacity() bool {
	return c.ActualCapacity < c.MaxCapacity
}

// HasFloorQueued reports whether floor f is already present in the queue.
func (c CarState) HasFloorQueued(f Floor) bool {
	for _, q := range c.Queue {
		if q == f {
			return true
		}
	}
	return false
}

// NextFloor returns the queue head and true, or the zero Floor and false if
// the queue is empty.
func (c CarState) NextFloor() (Floor, bool) {
	if len(c.Queue) == 0 {
		return Floor(0), false
	}
	return c.Queue[0], true
}

// Destinations returns the set of unique onboard-passenger destination
// floors, in boarding order. The car's Board uses it as the selected_floors
// set the controller publishes.
func (c CarState) Destinations() []Floor {
	seen := make(map[Floor]struct{}, len(c.Onboard))
	var out []Floor
	for _, p := range c.Onboard {
		if _, ok := seen[p.EndFloor]; ok {
			continue
		}
		seen[p.EndFloor] = struct{}{}
		out = append(out, p.EndFloor)
	}
	return out
}
