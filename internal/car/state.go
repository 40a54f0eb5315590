package car

import (
	"sync"
	"time"

	"github.com/arikolev/elevator-fleet/internal/domain"
)

// Phase is the car controller's own execution phase per spec.md §4.2,
// distinct from the connectivity status the scheduler tracks on CarState.
// Grounded on original_source/elevator/elevator.py's
// IDLE/DRIVING_UP/DRIVING_DOWN/PASSENGER_EXIT constants, plus an explicit
// Reset phase for simulation/reset handling.
type Phase string

const (
	PhaseIdle          Phase = "IDLE"
	PhaseDrivingUp     Phase = "DRIVING_UP"
	PhaseDrivingDown   Phase = "DRIVING_DOWN"
	PhasePassengerExit Phase = "PASSENGER_EXIT"
	PhaseReset         Phase = "RESET"
)

// State is a car's live, mutex-guarded view of itself: its CarState plus the
// controller's internal Phase. Grounded on internal/elevator/state.go,
// generalized from a bare current-floor/direction pair to the full queue,
// onboard-passenger, and capacity model spec.md §3 requires.
type State struct {
	mu    sync.RWMutex
	car   domain.CarState
	phase Phase
}

// NewState creates the initial state of a car parked at startFloor, idle,
// with its door closed and no onboard passengers.
func NewState(id int, startFloor domain.Floor, maxCapacity int) *State {
	return &State{
		car:   domain.NewCarState(id, startFloor, maxCapacity),
		phase: PhaseIdle,
	}
}

// Snapshot returns a copy of the car's domain state.
func (s *State) Snapshot() domain.CarState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.car
}

// Phase returns the controller's current execution phase.
func (s *State) Phase() Phase {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.phase
}

// SetPhase updates the controller's current execution phase.
func (s *State) SetPhase(p Phase) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phase = p
}

// Floor returns the car's current floor.
func (s *State) Floor() domain.Floor {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.car.Floor
}

// SetFloor moves the car to f, deriving direction from the prior floor.
func (s *State) SetFloor(f domain.Floor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f != s.car.Floor {
		s.car.PreviousFloor = s.car.Floor
		s.car.Direction = domain.DirectionFromFloors(s.car.PreviousFloor, f)
	}
	s.car.Floor = f
}

// Door returns the car's current door state.
func (s *State) Door() domain.Door {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.car.Door
}

// SetDoor updates the car's door state.
func (s *State) SetDoor(d domain.Door) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.car.Door = d
}

// SetStatus updates the car's connectivity status.
func (s *State) SetStatus(st domain.CarStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.car.Status = st
}

// Capacity returns the car's current and maximum capacity.
func (s *State) Capacity() (actual, max int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.car.ActualCapacity, s.car.MaxCapacity
}

// Board admits passengers into the car, stamping EnterCarTs, and returns
// the car's updated (deduped) destination set for publishing selected_floors.
// Rejects the whole batch if it would overfill the car, per spec.md §7's
// overfull-capacity error category.
func (s *State) Board(passengers []domain.Passenger, at time.Time) ([]domain.Floor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.car.ActualCapacity+len(passengers) > s.car.MaxCapacity {
		return nil, domain.NewConflictError("boarding would exceed car capacity", nil).
			WithContext("car_id", s.car.ID).
			WithContext("actual_capacity", s.car.ActualCapacity).
			WithContext("max_capacity", s.car.MaxCapacity).
			WithContext("incoming", len(passengers))
	}

	for _, p := range passengers {
		boarded, err := p.Board(at)
		if err != nil {
			return nil, err
		}
		s.car.Onboard = append(s.car.Onboard, boarded)
	}
	s.car.ActualCapacity = len(s.car.Onboard)
	return s.car.Destinations(), nil
}

// Deboard removes every onboard passenger whose destination is the car's
// current floor, stamping LeaveCarTs, and returns them for the
// passenger_arrived publish. Passengers that fail to deboard (should not
// happen in practice) are left onboard rather than silently dropped.
func (s *State) Deboard(at time.Time) []domain.Passenger {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.car.Floor
	remaining := make([]domain.Passenger, 0, len(s.car.Onboard))
	var left []domain.Passenger
	for _, p := range s.car.Onboard {
		if p.EndFloor != current {
			remaining = append(remaining, p)
			continue
		}
		updated, err := p.Deboard(at)
		if err != nil {
			remaining = append(remaining, p)
			continue
		}
		left = append(left, updated)
	}
	s.car.Onboard = remaining
	s.car.ActualCapacity = len(remaining)
	return left
}

// Reset returns the car to its initial parked state at startFloor, keeping
// its id and max capacity.
func (s *State) Reset(startFloor domain.Floor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.car = domain.NewCarState(s.car.ID, startFloor, s.car.MaxCapacity)
	s.car.Status = domain.CarStatusOnline
	s.phase = PhaseIdle
}
