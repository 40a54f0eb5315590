// Package integration_test wires a scheduler, a car controller, and two
// floor agents together over a single broker.FakeClient and drives one
// passenger end to end, the way tests/acceptance exercises the teacher's
// whole service through its HTTP surface instead of a single package.
package integration_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/arikolev/elevator-fleet/internal/broker"
	"github.com/arikolev/elevator-fleet/internal/car"
	"github.com/arikolev/elevator-fleet/internal/constants"
	"github.com/arikolev/elevator-fleet/internal/domain"
	"github.com/arikolev/elevator-fleet/internal/flooragent"
	"github.com/arikolev/elevator-fleet/internal/scheduler"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestSinglePassengerRoundTrip exercises spec.md §8's scenario 1: a lone
// passenger calls from floor 0 wanting floor 5, a single car with spare
// capacity is dispatched, boards them, and delivers them to floor 5's
// arrived log. The car starts away from floor 0 rather than parked on it,
// sidestepping the "destination equals current floor" queueing invariant
// (a hall call the car is already sitting on needs no queue entry at all).
func TestSinglePassengerRoundTrip(t *testing.T) {
	client := broker.NewFakeClient()
	logger := testLogger()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sched := scheduler.New(scheduler.Config{
		Mode:           scheduler.ModeDumb,
		SmartThreshold: 10,
		CarIDs:         []int{0},
		StartFloor:     domain.NewFloor(2),
		MaxCapacity:    5,
		FloorIDs:       []int{0, 5},
		DispatchPeriod: 5 * time.Millisecond,
	}, client, logger)
	require.NoError(t, sched.Start(ctx))
	defer sched.Stop()

	sourceFloor := flooragent.New(flooragent.Config{
		FloorID:       domain.NewFloor(0),
		WaitingPeriod: 20 * time.Millisecond,
	}, client, logger)
	require.NoError(t, sourceFloor.Start(ctx))
	defer sourceFloor.Stop()

	destFloor := flooragent.New(flooragent.Config{
		FloorID:       domain.NewFloor(5),
		WaitingPeriod: 20 * time.Millisecond,
	}, client, logger)
	require.NoError(t, destFloor.Start(ctx))
	defer destFloor.Stop()

	controller := car.New(car.Config{
		ID:               0,
		StartFloor:       domain.NewFloor(2),
		MaxCapacity:      5,
		TickDuration:     5 * time.Millisecond,
		OpenDoorDuration: 5 * time.Millisecond,
		SettleDuration:   5 * time.Millisecond,
		HeartbeatPeriod:  50 * time.Millisecond,
	}, client, logger)
	require.NoError(t, controller.Start(ctx))
	defer controller.Stop()

	payload, err := json.Marshal([]domain.PassengerWaitingPayload{{Start: 0, Destination: 5}})
	require.NoError(t, err)
	topic := broker.FloorTopic(constants.TopicSimFloorPassengerWaiting, 0)
	require.NoError(t, client.Publish(topic, 1, false, payload))

	require.Eventually(t, func() bool {
		return destFloor.ArrivedCount() == 1
	}, 2*time.Second, 2*time.Millisecond, "passenger never reached floor 5's arrived log")

	require.Equal(t, 0, sourceFloor.WaitingCount())
	require.Equal(t, 0, sourceFloor.ArrivedCount())

	snapshot := controller.Snapshot()
	require.Equal(t, 0, snapshot["onboard_count"])
	require.Equal(t, 5, snapshot["floor"])
}

// TestArrivalPopsQueueHeadAndClearsButton exercises spec.md §8's scenario 6
// directly against the scheduler's fleet bookkeeping: a car reporting
// actual_floor at its queue head must pop that head, clear the matching
// call button, and advertise the new head as next_floor.
func TestArrivalPopsQueueHeadAndClearsButton(t *testing.T) {
	client := broker.NewFakeClient()
	logger := testLogger()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sched := scheduler.New(scheduler.Config{
		Mode:           scheduler.ModeDumb,
		SmartThreshold: 10,
		CarIDs:         []int{0},
		StartFloor:     domain.NewFloor(0),
		MaxCapacity:    5,
		FloorIDs:       []int{3, 7},
		DispatchPeriod: 5 * time.Millisecond,
	}, client, logger)
	require.NoError(t, sched.Start(ctx))
	defer sched.Stop()

	fleet := sched.Fleet()
	_, appended := fleet.AppendToQueue(0, domain.NewFloor(3))
	require.True(t, appended)
	_, appended = fleet.AppendToQueue(0, domain.NewFloor(7))
	require.True(t, appended)
	fleet.UpdateFloorButtons(3, boolPtr(true), nil)

	nextFloorTopic := broker.CarTopic(constants.TopicCarNextFloor, 0)
	var lastNextFloor []byte
	require.NoError(t, client.Subscribe(nextFloorTopic, 0, func(_ string, payload []byte) {
		lastNextFloor = payload
	}))

	actualFloorTopic := broker.CarTopic(constants.TopicCarActualFloor, 0)
	// Drive the car's reported position from its start floor up to 3 one
	// hop at a time so Fleet.UpdateCarFloor derives an UP direction before
	// the arrival handshake fires. ClearButton needs a real direction to
	// know which button to clear.
	require.NoError(t, client.Publish(actualFloorTopic, 1, true, []byte("1")))
	require.NoError(t, client.Publish(actualFloorTopic, 1, true, []byte("2")))
	require.NoError(t, client.Publish(actualFloorTopic, 1, true, []byte("3")))

	require.Eventually(t, func() bool {
		state, ok := fleet.CarState(0)
		return ok && len(state.Queue) == 1 && state.Queue[0].Value() == 7
	}, time.Second, 2*time.Millisecond, "queue head never popped on arrival")

	require.Eventually(t, func() bool {
		fs, ok := fleet.FloorState(3)
		return ok && !fs.UpPressed
	}, time.Second, 2*time.Millisecond, "up button at floor 3 never cleared on arrival")

	require.Eventually(t, func() bool {
		return string(lastNextFloor) == "7"
	}, time.Second, 2*time.Millisecond, "next_floor never advertised as the new queue head")
}

func boolPtr(b bool) *bool { return &b }
