package flooragent

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strconv"
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

func newTestAgent(t *testing.T, floorID int) (*Agent, *broker.FakeClient) {
	t.Helper()
	client := broker.NewFakeClient()
	a := New(Config{FloorID: domain.NewFloor(floorID), WaitingPeriod: time.Hour}, client, testLogger())
	require.NoError(t, a.Start(context.Background()))
	t.Cleanup(a.Stop)
	return a, client
}

func spawnWaiting(client *broker.FakeClient, floorID, destination int) {
	payload, _ := json.Marshal([]domain.PassengerWaitingPayload{{Start: floorID, Destination: destination}})
	client.Publish("simulation/floor/"+strconv.Itoa(floorID)+"/passenger_waiting", 1, false, payload)
}

func TestPassengerWaitingIncrementsWaitingCountAndSetsButton(t *testing.T) {
	a, client := newTestAgent(t, 2)

	spawnWaiting(client, 2, 5)

	assert.Equal(t, 1, a.WaitingCount())
	pub, ok := client.LastPublished("floor/2/waiting_count")
	require.True(t, ok)
	assert.Equal(t, "1", string(pub.Payload))

	up, ok := client.LastPublished("floor/2/button_pressed/up")
	require.True(t, ok)
	assert.Equal(t, "true", string(up.Payload))
}

func TestAdmitServesWaitingPassengersWhenCarDoorOpensHere(t *testing.T) {
	a, client := newTestAgent(t, 3)
	spawnWaiting(client, 3, 7)
	spawnWaiting(client, 3, 8)

	capacity, _ := json.Marshal(domain.CapacityPayload{Max: 5, Actual: 0})
	client.Publish("elevator/0/capacity", 1, true, capacity)
	client.Publish("elevator/0/actual_floor", 1, true, []byte("3"))
	client.Publish("elevator/0/door", 1, true, []byte("open"))

	assert.Equal(t, 0, a.WaitingCount())
	pub, ok := client.LastPublished("simulation/elevator/0/passenger")
	require.True(t, ok)
	var batch domain.PassengerBatch
	require.NoError(t, json.Unmarshal(pub.Payload, &batch))
	assert.Len(t, batch, 2)
}

func TestAdmitRespectsFreeCapacityLimit(t *testing.T) {
	a, client := newTestAgent(t, 4)
	spawnWaiting(client, 4, 1)
	spawnWaiting(client, 4, 2)
	spawnWaiting(client, 4, 3)

	capacity, _ := json.Marshal(domain.CapacityPayload{Max: 5, Actual: 4})
	client.Publish("elevator/1/capacity", 1, true, capacity)
	client.Publish("elevator/1/actual_floor", 1, true, []byte("4"))
	client.Publish("elevator/1/door", 1, true, []byte("open"))

	assert.Equal(t, 2, a.WaitingCount())
	pub, ok := client.LastPublished("simulation/elevator/1/passenger")
	require.True(t, ok)
	var batch domain.PassengerBatch
	require.NoError(t, json.Unmarshal(pub.Payload, &batch))
	assert.Len(t, batch, 1)
}

func TestPassengerArrivedRecordsAndPublishesArrivedCount(t *testing.T) {
	a, client := newTestAgent(t, 6)

	now := time.Now()
	enter := now.Add(-time.Minute)
	leave := now.Add(-time.Second)
	wire := domain.PassengerPayload{
		StartFloor:             0,
		EndFloor:                6,
		StartTimestamp:          now.Add(-2 * time.Minute).Format(time.RFC3339),
		EnterElevatorTimestamp:  strPtr(enter.Format(time.RFC3339)),
		LeaveElevatorTimestamp:  strPtr(leave.Format(time.RFC3339)),
	}
	payload, err := json.Marshal(domain.PassengerBatch{wire})
	require.NoError(t, err)

	client.Publish("simulation/floor/6/passenger_arrived", 1, false, payload)

	assert.Equal(t, 1, a.ArrivedCount())
	countPub, ok := client.LastPublished("simulation/floor/6/arrived_count")
	require.True(t, ok)
	assert.Equal(t, "1", string(countPub.Payload))

	recPub, ok := client.LastPublished("record/floor/6/passenger_arrived")
	require.True(t, ok)
	var recorded domain.PassengerBatch
	require.NoError(t, json.Unmarshal(recPub.Payload, &recorded))
	require.Len(t, recorded, 1)
	assert.NotNil(t, recorded[0].EndTimestamp)
}

func TestResetClearsWaitingListAndArrivedCount(t *testing.T) {
	a, client := newTestAgent(t, 7)
	spawnWaiting(client, 7, 9)
	require.Equal(t, 1, a.WaitingCount())

	client.Publish("simulation/reset", 1, false, nil)

	assert.Equal(t, 0, a.WaitingCount())
	assert.Equal(t, 0, a.ArrivedCount())
}

func strPtr(s string) *string { return &s }
