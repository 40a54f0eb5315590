package domain

// Door represents a car's door state.
type Door string

const (
	DoorOpen   Door = "open"
	DoorClosed Door = "closed"
)

// String returns the wire representation of the door state.
func (d Door) String() string {
	return string(d)
}

// IsOpen reports whether the door is open.
func (d Door) IsOpen() bool {
	return d == DoorOpen
}

// CarStatus represents a car's connectivity state. The car publishes online
// on start and offline on stop; the broker's last-will publishes offline
// when the car drops without a clean disconnect.
type CarStatus string

const (
	CarStatusOnline  CarStatus = "online"
	CarStatusOffline CarStatus = "offline"
)

func (s CarStatus) String() string {
	return string(s)
}

// IsOnline reports whether the car is reachable for scheduling purposes.
func (s CarStatus) IsOnline() bool {
	return s == CarStatusOnline
}
