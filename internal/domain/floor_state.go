package domain

// FloorState is a snapshot of one floor's waiting-passenger and hall-call
// state, per spec.md §3.
type FloorState struct {
	ID         Floor
	Waiting    []Passenger
	UpPressed  bool
	DownPressed bool
}

// NewFloorState creates an empty floor state for floor id.
func NewFloorState(id Floor) FloorState {
	return FloorState{ID: id}
}

// WaitingCount returns the cardinality of the waiting list.
func (f FloorState) WaitingCount() int {
	return len(f.Waiting)
}

// WantsUp reports whether any waiting passenger is headed above this floor.
func WantsUp(id Floor, waiting []Passenger) bool {
	for _, p := range waiting {
		if p.EndFloor > id {
			return true
		}
	}
	return false
}

// WantsDown reports whether any waiting passenger is headed below this floor.
func WantsDown(id Floor, waiting []Passenger) bool {
	for _, p := range waiting {
		if p.EndFloor < id {
			return true
		}
	}
	return false
}
