package car

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/arikolev/elevator-fleet/internal/broker"
	"github.com/arikolev/elevator-fleet/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestController(t *testing.T, id int, start domain.Floor, maxCap int) (*Controller, *broker.FakeClient) {
	t.Helper()
	client := broker.NewFakeClient()
	cfg := Config{
		ID:               id,
		StartFloor:       start,
		MaxCapacity:      maxCap,
		TickDuration:     5 * time.Millisecond,
		OpenDoorDuration: 5 * time.Millisecond,
		SettleDuration:   5 * time.Millisecond,
		HeartbeatPeriod:  time.Hour,
	}
	ctrl := New(cfg, client, testLogger())
	require.NoError(t, ctrl.Start(context.Background()))
	t.Cleanup(ctrl.Stop)
	return ctrl, client
}

func TestControllerAnnouncesOnlineOnStart(t *testing.T) {
	_, client := newTestController(t, 0, domain.NewFloor(0), 5)
	pub, ok := client.LastPublished("elevator/0/status")
	require.True(t, ok)
	assert.Equal(t, "online", string(pub.Payload))
}

func TestControllerDrivesToAssignedFloorAndPublishesActualFloor(t *testing.T) {
	ctrl, client := newTestController(t, 1, domain.NewFloor(0), 5)

	client.Publish("elevator/1/next_floor", 0, true, []byte("3"))

	require.Eventually(t, func() bool {
		return ctrl.State().Floor() == domain.NewFloor(3)
	}, time.Second, 2*time.Millisecond)

	pub, ok := client.LastPublished("elevator/1/actual_floor")
	require.True(t, ok)
	assert.Equal(t, "3", string(pub.Payload))
}

func TestControllerBoardsPassengerAndPublishesSelectedFloors(t *testing.T) {
	ctrl, client := newTestController(t, 2, domain.NewFloor(0), 5)

	wire := domain.PassengerPayload{
		StartFloor:     0,
		EndFloor:       4,
		StartTimestamp: time.Now().Format(time.RFC3339),
	}
	payload, err := json.Marshal(domain.PassengerBatch{wire})
	require.NoError(t, err)

	client.Publish("simulation/elevator/2/passenger", 1, false, payload)

	require.Eventually(t, func() bool {
		cs := ctrl.State().Snapshot()
		return cs.ActualCapacity == 1 && len(cs.Onboard) == 1
	}, time.Second, 2*time.Millisecond)

	pub, ok := client.LastPublished("elevator/2/selected_floors")
	require.True(t, ok)
	var floors []int
	require.NoError(t, json.Unmarshal(pub.Payload, &floors))
	assert.Equal(t, []int{4}, floors)
}

func TestControllerDeboardsOnArrivalAndPublishesPassengerArrived(t *testing.T) {
	ctrl, client := newTestController(t, 3, domain.NewFloor(0), 5)

	wire := domain.PassengerPayload{
		StartFloor:     0,
		EndFloor:       2,
		StartTimestamp: time.Now().Format(time.RFC3339),
	}
	payload, err := json.Marshal(domain.PassengerBatch{wire})
	require.NoError(t, err)
	client.Publish("simulation/elevator/3/passenger", 1, false, payload)

	require.Eventually(t, func() bool {
		return ctrl.State().Snapshot().ActualCapacity == 1
	}, time.Second, 2*time.Millisecond)

	client.Publish("elevator/3/next_floor", 0, true, []byte("2"))

	require.Eventually(t, func() bool {
		return ctrl.State().Snapshot().ActualCapacity == 0
	}, time.Second, 2*time.Millisecond)

	pub, ok := client.LastPublished("simulation/floor/2/passenger_arrived")
	require.True(t, ok)
	var arrived domain.PassengerBatch
	require.NoError(t, json.Unmarshal(pub.Payload, &arrived))
	require.Len(t, arrived, 1)
	assert.NotNil(t, arrived[0].LeaveElevatorTimestamp)
}

func TestControllerRejectsBoardingBeyondMaxCapacity(t *testing.T) {
	ctrl, client := newTestController(t, 4, domain.NewFloor(0), 1)

	now := time.Now().Format(time.RFC3339)
	batch := domain.PassengerBatch{
		{StartFloor: 0, EndFloor: 1, StartTimestamp: now},
		{StartFloor: 0, EndFloor: 2, StartTimestamp: now},
	}
	payload, err := json.Marshal(batch)
	require.NoError(t, err)
	client.Publish("simulation/elevator/4/passenger", 1, false, payload)

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 0, ctrl.State().Snapshot().ActualCapacity)
}

func TestControllerResetReturnsToStartFloorAndClearsOnboard(t *testing.T) {
	ctrl, client := newTestController(t, 5, domain.NewFloor(0), 5)

	now := time.Now().Format(time.RFC3339)
	payload, err := json.Marshal(domain.PassengerBatch{{StartFloor: 0, EndFloor: 3, StartTimestamp: now}})
	require.NoError(t, err)
	client.Publish("simulation/elevator/5/passenger", 1, false, payload)

	require.Eventually(t, func() bool {
		return ctrl.State().Snapshot().ActualCapacity == 1
	}, time.Second, 2*time.Millisecond)

	client.Publish("simulation/reset", 1, false, nil)

	require.Eventually(t, func() bool {
		cs := ctrl.State().Snapshot()
		return cs.Floor == domain.NewFloor(0) && cs.ActualCapacity == 0
	}, time.Second, 2*time.Millisecond)
}
