package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// Every struct in this file is a tagged wire record for a topic in the
// broker's payload surface. Decoding is always defensive: a malformed
// payload yields an error that the caller logs and drops rather than
// panicking or propagating a zero value silently.

// CapacityPayload is the body of elevator/{id}/capacity.
type CapacityPayload struct {
	Max    int `json:"max"`
	Actual int `json:"actual"`
}

// PassengerPayload is the wire form of Passenger: required start/end floor
// and spawn timestamp, optional lifecycle timestamps as the passenger moves
// through the system. Field names match spec.md's wire contract exactly.
type PassengerPayload struct {
	StartFloor              int     `json:"start_floor"`
	EndFloor                int     `json:"end_floor"`
	StartTimestamp          string  `json:"start_timestamp"`
	EnterElevatorTimestamp  *string `json:"enter_elevator_timestamp,omitempty"`
	LeaveElevatorTimestamp  *string `json:"leave_elevator_timestamp,omitempty"`
	EndTimestamp            *string `json:"end_timestamp,omitempty"`
}

// UnmarshalJSON validates that the required fields are present before
// accepting the payload; a payload missing start_floor/end_floor/
// start_timestamp is malformed per spec.md §7 and must be dropped by the
// caller rather than accepted with a zero value.
func (p *PassengerPayload) UnmarshalJSON(data []byte) error {
	type alias PassengerPayload
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return fmt.Errorf("passenger payload: %w", err)
	}
	if a.StartTimestamp == "" {
		return fmt.Errorf("passenger payload: missing start_timestamp")
	}
	*p = PassengerPayload(a)
	return nil
}

// ToPassenger converts the wire form into a domain Passenger, parsing every
// present timestamp as RFC 3339.
func (p PassengerPayload) ToPassenger() (Passenger, error) {
	startTs, err := time.Parse(time.RFC3339, p.StartTimestamp)
	if err != nil {
		return Passenger{}, NewValidationError("invalid start_timestamp", err)
	}

	passenger := NewPassenger(NewFloor(p.StartFloor), NewFloor(p.EndFloor), startTs)

	if p.EnterElevatorTimestamp != nil {
		ts, err := time.Parse(time.RFC3339, *p.EnterElevatorTimestamp)
		if err != nil {
			return Passenger{}, NewValidationError("invalid enter_elevator_timestamp", err)
		}
		passenger.EnterCarTs = &ts
	}
	if p.LeaveElevatorTimestamp != nil {
		ts, err := time.Parse(time.RFC3339, *p.LeaveElevatorTimestamp)
		if err != nil {
			return Passenger{}, NewValidationError("invalid leave_elevator_timestamp", err)
		}
		passenger.LeaveCarTs = &ts
	}
	if p.EndTimestamp != nil {
		ts, err := time.Parse(time.RFC3339, *p.EndTimestamp)
		if err != nil {
			return Passenger{}, NewValidationError("invalid end_timestamp", err)
		}
		passenger.EndTs = &ts
	}

	return passenger, nil
}

// FromPassenger converts a domain Passenger into its wire form.
func FromPassenger(p Passenger) PassengerPayload {
	payload := PassengerPayload{
		StartFloor:     p.StartFloor.Value(),
		EndFloor:       p.EndFloor.Value(),
		StartTimestamp: p.StartTs.Format(time.RFC3339),
	}
	if p.EnterCarTs != nil {
		s := p.EnterCarTs.Format(time.RFC3339)
		payload.EnterElevatorTimestamp = &s
	}
	if p.LeaveCarTs != nil {
		s := p.LeaveCarTs.Format(time.RFC3339)
		payload.LeaveElevatorTimestamp = &s
	}
	if p.EndTs != nil {
		s := p.EndTs.Format(time.RFC3339)
		payload.EndTimestamp = &s
	}
	return payload
}

// PassengerBatch marshals/unmarshals an array of Passenger JSON, as used by
// simulation/elevator/{id}/passenger and the _arrived topics.
type PassengerBatch []PassengerPayload

// PassengerWaitingPayload is the body of simulation/floor/{id}/passenger_waiting:
// the feeder announces a new passenger by start/destination only.
type PassengerWaitingPayload struct {
	Start       int `json:"start"`
	Destination int `json:"destination"`
}

// ExpectedPassengersPayload is the body of simulation/passengers/expected:
// a per-floor forecast of passenger counts, keyed by floor id as a string
// (JSON object keys are always strings).
type ExpectedPassengersPayload map[string]int
