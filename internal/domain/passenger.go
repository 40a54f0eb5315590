package domain

import "time"

// Passenger is a single rider tracked through its full lifecycle: spawned
// waiting at StartFloor, admitted into a car, dropped at EndFloor, and
// finally observed arrived by the destination floor agent.
type Passenger struct {
	StartFloor Floor
	EndFloor   Floor

	StartTs    time.Time
	EnterCarTs *time.Time
	LeaveCarTs *time.Time
	EndTs      *time.Time
}

// NewPassenger creates a passenger spawned now at startFloor bound for
// endFloor. StartTs is the only timestamp set; the rest are filled in as
// the passenger moves through the system.
func NewPassenger(startFloor, endFloor Floor, startTs time.Time) Passenger {
	return Passenger{
		StartFloor: startFloor,
		EndFloor:   endFloor,
		StartTs:    startTs,
	}
}

// Board sets EnterCarTs, marking the Floor Agent's admission of this
// passenger into a car. Returns an error if called out of order.
func (p Passenger) Board(at time.Time) (Passenger, error) {
	if p.EnterCarTs != nil {
		return p, NewConflictError("passenger already boarded", nil)
	}
	if at.Before(p.StartTs) {
		return p, NewValidationError("enter_elevator_timestamp precedes start_timestamp", nil)
	}
	p.EnterCarTs = &at
	return p, nil
}

// Deboard sets LeaveCarTs, marking the Car Controller depositing the
// passenger at its destination.
func (p Passenger) Deboard(at time.Time) (Passenger, error) {
	if p.EnterCarTs == nil {
		return p, NewConflictError("passenger cannot leave a car it never entered", nil)
	}
	if p.LeaveCarTs != nil {
		return p, NewConflictError("passenger already left the car", nil)
	}
	if at.Before(*p.EnterCarTs) {
		return p, NewValidationError("leave_elevator_timestamp precedes enter_elevator_timestamp", nil)
	}
	p.LeaveCarTs = &at
	return p, nil
}

// Arrive sets EndTs, marking the destination Floor Agent observing the
// passenger's arrival and closing out its lifecycle.
func (p Passenger) Arrive(at time.Time) (Passenger, error) {
	if p.LeaveCarTs == nil {
		return p, NewConflictError("passenger cannot arrive without leaving a car", nil)
	}
	if p.EndTs != nil {
		return p, NewConflictError("passenger already arrived", nil)
	}
	if at.Before(*p.LeaveCarTs) {
		return p, NewValidationError("end_timestamp precedes leave_elevator_timestamp", nil)
	}
	p.EndTs = &at
	return p, nil
}

// IsComplete reports whether the passenger has reached its destination and
// been observed by the destination floor.
func (p Passenger) IsComplete() bool {
	return p.EndTs != nil
}

// IsOnboard reports whether the passenger currently belongs to a car (has
// boarded but neither left the car nor arrived).
func (p Passenger) IsOnboard() bool {
	return p.EnterCarTs != nil && p.LeaveCarTs == nil
}

// IsWaiting reports whether the passenger has not yet boarded any car.
func (p Passenger) IsWaiting() bool {
	return p.EnterCarTs == nil
}
