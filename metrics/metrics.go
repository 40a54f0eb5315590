// Package metrics exposes fleet-wide Prometheus instrumentation shared by
// the scheduler, car, and floor-agent binaries. Grounded on the teacher's
// metrics/metrics.go HistogramVec-and-MustRegister pattern, expanded to
// cover every gauge/counter the scheduler, car controller, and floor agent
// packages record against.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	namespace  = "elevator"
	carIDLabel = "car_id"
	floorLabel = "floor_id"
)

var (
	requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    namespace + "_request_duration_seconds",
			Help:    "Duration of an elevator-facing request",
			Buckets: []float64{0.1, 0.5, 1, 2, 5},
		},
		[]string{carIDLabel},
	)

	errorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: namespace + "_errors_total",
			Help: "Count of errors by component and kind",
		},
		[]string{"component", "kind"},
	)

	requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: namespace + "_requests_total",
			Help: "Count of requests handled by component",
		},
		[]string{"component"},
	)

	assignmentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: namespace + "_assignments_total",
			Help: "Count of scheduler assignments of a hall call to a car",
		},
		[]string{carIDLabel},
	)

	arrivalHandshakesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: namespace + "_arrival_handshakes_total",
			Help: "Count of arrival handshakes (queue head popped)",
		},
		[]string{carIDLabel},
	)

	queueDepth = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: namespace + "_queue_depth",
			Help: "Current number of pending targets in a car's queue",
		},
		[]string{carIDLabel},
	)

	currentFloor = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: namespace + "_current_floor",
			Help: "Current floor reported by a car",
		},
		[]string{carIDLabel},
	)

	waitTime = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    namespace + "_passenger_wait_seconds",
			Help:    "Time between a passenger spawning and boarding a car",
			Buckets: prometheus.DefBuckets,
		},
		[]string{floorLabel},
	)

	travelTime = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    namespace + "_passenger_travel_seconds",
			Help:    "Time between a passenger boarding and arriving at its destination",
			Buckets: prometheus.DefBuckets,
		},
		[]string{carIDLabel},
	)

	pendingPassengers = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: namespace + "_floor_waiting_count",
			Help: "Passengers currently waiting at a floor",
		},
		[]string{floorLabel},
	)

	circuitBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: namespace + "_circuit_breaker_state",
			Help: "Car circuit breaker state: 0=closed, 1=open, 2=half-open",
		},
		[]string{carIDLabel},
	)

	carsOnline = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: namespace + "_cars_online",
			Help: "Number of cars currently reporting status=online",
		},
	)

	brokerReconnects = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: namespace + "_broker_reconnects_total",
			Help: "Count of broker reconnect events by component",
		},
		[]string{"component"},
	)

	systemHealth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: namespace + "_system_health",
			Help: "1 if the process considers itself healthy, else 0",
		},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    namespace + "_http_request_duration_seconds",
			Help:    "Duration of a status-surface HTTP request",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint", "status"},
	)

	memoryUsage = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: namespace + "_process_memory_bytes",
			Help: "Process memory usage by kind (alloc, sys)",
		},
		[]string{"kind"},
	)
)

func init() {
	prometheus.MustRegister(
		requestDuration,
		errorsTotal,
		requestsTotal,
		assignmentsTotal,
		arrivalHandshakesTotal,
		queueDepth,
		currentFloor,
		waitTime,
		travelTime,
		pendingPassengers,
		circuitBreakerState,
		carsOnline,
		brokerReconnects,
		systemHealth,
		httpRequestDuration,
		memoryUsage,
	)
}

func carLabel(carID int) string { return strconv.Itoa(carID) }

func floorLabelValue(floorID int) string { return strconv.Itoa(floorID) }

// RequestDurationHistogram records how long a request touching carID took.
func RequestDurationHistogram(carID int, seconds float64) {
	requestDuration.With(prometheus.Labels{carIDLabel: carLabel(carID)}).Observe(seconds)
}

// IncError increments the error counter for component/kind.
func IncError(component, kind string) {
	errorsTotal.With(prometheus.Labels{"component": component, "kind": kind}).Inc()
}

// IncRequestsTotal increments the request counter for component.
func IncRequestsTotal(component string) {
	requestsTotal.With(prometheus.Labels{"component": component}).Inc()
}

// IncAssignment records the scheduler assigning sourceFloor to carID.
func IncAssignment(carID, sourceFloor int) {
	assignmentsTotal.With(prometheus.Labels{carIDLabel: carLabel(carID)}).Inc()
	_ = sourceFloor
}

// IncArrivalHandshake records an arrival handshake (queue head popped) for carID.
func IncArrivalHandshake(carID, floorID int) {
	arrivalHandshakesTotal.With(prometheus.Labels{carIDLabel: carLabel(carID)}).Inc()
	_ = floorID
}

// SetQueueDepth records carID's current queue length.
func SetQueueDepth(carID, depth int) {
	queueDepth.With(prometheus.Labels{carIDLabel: carLabel(carID)}).Set(float64(depth))
}

// SetCurrentFloor records carID's current floor.
func SetCurrentFloor(carID, floor int) {
	currentFloor.With(prometheus.Labels{carIDLabel: carLabel(carID)}).Set(float64(floor))
}

// RecordWaitTime records a passenger's wait duration at floorID.
func RecordWaitTime(floorID int, seconds float64) {
	waitTime.With(prometheus.Labels{floorLabel: floorLabelValue(floorID)}).Observe(seconds)
}

// RecordTravelTime records a passenger's in-car travel duration for carID.
func RecordTravelTime(carID int, seconds float64) {
	travelTime.With(prometheus.Labels{carIDLabel: carLabel(carID)}).Observe(seconds)
}

// SetPendingRequests records floorID's current waiting-passenger count.
func SetPendingRequests(floorID, count int) {
	pendingPassengers.With(prometheus.Labels{floorLabel: floorLabelValue(floorID)}).Set(float64(count))
}

// SetCircuitBreakerState records carID's circuit breaker state (0/1/2).
func SetCircuitBreakerState(carID int, state int) {
	circuitBreakerState.With(prometheus.Labels{carIDLabel: carLabel(carID)}).Set(float64(state))
}

// SetCarsOnline records the number of cars currently online.
func SetCarsOnline(n int) {
	carsOnline.Set(float64(n))
}

// IncBrokerReconnect records a broker reconnect event for component.
func IncBrokerReconnect(component string) {
	brokerReconnects.With(prometheus.Labels{"component": component}).Inc()
}

// SetSystemHealth records whether the process considers itself healthy.
func SetSystemHealth(healthy bool) {
	v := 0.0
	if healthy {
		v = 1.0
	}
	systemHealth.Set(v)
}

// RecordHTTPRequest records a status-surface HTTP request's duration.
func RecordHTTPRequest(method, endpoint, status string, seconds float64) {
	httpRequestDuration.With(prometheus.Labels{"method": method, "endpoint": endpoint, "status": status}).Observe(seconds)
}

// SetMemoryUsage records the process's current memory usage for kind (alloc, sys).
func SetMemoryUsage(kind string, bytes float64) {
	memoryUsage.With(prometheus.Labels{"kind": kind}).Set(bytes)
}
