package constants

import "time"

// Application constants centralized in one location to improve type safety
// and eliminate magic strings throughout the codebase

// Default Configuration Values
const (
	DefaultPort     = 6660
	DefaultLogLevel = "INFO"
	DefaultMinFloor = 0
	DefaultMaxFloor = 9

	// Timing defaults
	DefaultTickDuration    = 1 * time.Second
	DefaultOpenDoorDuration = 2 * time.Second
	DefaultSettleDuration   = 1 * time.Second
	DefaultHeartbeatPeriod  = 5 * time.Second

	// WebSocket / status snapshot update interval
	StatusUpdateInterval = 1 * time.Second

	// Scheduler defaults
	DefaultSchedulerMode      = "dumb"
	DefaultSmartThreshold     = 10
	DefaultOverloadThreshold  = 12

	// Broker defaults
	DefaultBrokerHost    = "localhost"
	DefaultBrokerPort    = 1883
	DefaultQoSTelemetry  = byte(0)
	DefaultQoSAssignment = byte(1)
)

// HTTP Content Types
const (
	ContentTypeJSON      = "application/json"
	ContentTypeTextPlain = "text/plain"
)

// HTTP Methods
const (
	MethodGET  = "GET"
	MethodPOST = "POST"
)

// Component Names for Logging
const (
	ComponentHTTPServer  = "http-server"
	ComponentHTTPHandler = "http_handler"
	ComponentScheduler   = "scheduler"
	ComponentCar         = "car"
	ComponentFloorAgent  = "floor-agent"
	ComponentBroker      = "broker"
)

// Floor Validation Limits
const (
	MinAllowedFloor = -100 // Reasonable minimum for basements
	MaxAllowedFloor = 200  // Reasonable maximum for skyscrapers
)

// Metrics
const (
	MetricsNamespace = "elevator"
	CarIDLabel       = "car_id"
	FloorIDLabel     = "floor_id"
)

// Topic templates. %d is replaced with the car or floor id by internal/broker's
// topic builders. These mirror the wire contract's topic surface exactly.
const (
	TopicCarStatus         = "elevator/%d/status"
	TopicCarActualFloor    = "elevator/%d/actual_floor"
	TopicCarDoor           = "elevator/%d/door"
	TopicCarCapacity       = "elevator/%d/capacity"
	TopicCarNextFloor      = "elevator/%d/next_floor"
	TopicCarSelectedFloors = "elevator/%d/selected_floors"

	TopicSimCarQueue     = "simulation/elevator/%d/queue"
	TopicSimCarPassenger = "simulation/elevator/%d/passenger"

	TopicFloorWaitingCount  = "floor/%d/waiting_count"
	TopicFloorButtonUp     = "floor/%d/button_pressed/up"
	TopicFloorButtonDown   = "floor/%d/button_pressed/down"

	TopicSimFloorPassengerWaiting  = "simulation/floor/%d/passenger_waiting"
	TopicSimFloorPassengerArrived  = "simulation/floor/%d/passenger_arrived"
	TopicSimFloorArrivedCount      = "simulation/floor/%d/arrived_count"
	TopicRecordFloorPassengerArrived = "record/floor/%d/passenger_arrived"

	TopicSimPassengersExpected = "simulation/passengers/expected"
	TopicSimReset              = "simulation/reset"

	// Wildcard subscriptions
	TopicAllCarStatus    = "elevator/+/status"
	TopicAllCarNextFloor = "elevator/+/next_floor"
	TopicAllFloorButtons = "floor/+/button_pressed/#"
	TopicAllCars         = "elevator/#"
	TopicAllFloors       = "floor/#"
)

// Car status payload values (wire-level strings, not Go identifiers).
const (
	CarStatusOnlineWire  = "online"
	CarStatusOfflineWire = "offline"
	DoorOpenWire         = "open"
	DoorClosedWire       = "closed"
)

// Scheduler modes
const (
	SchedulerModeDumb  = "dumb"
	SchedulerModeSmart = "smart"
)
