package scheduler

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/arikolev/elevator-fleet/internal/broker"
	"github.com/arikolev/elevator-fleet/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(discardWriter{}, nil))
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

func newTestScheduler(t *testing.T, carIDs, floorIDs []int) (*Scheduler, *broker.FakeClient) {
	t.Helper()
	client := broker.NewFakeClient()
	cfg := Config{
		Mode:           ModeDumb,
		SmartThreshold: 10,
		CarIDs:         carIDs,
		StartFloor:     domain.NewFloor(0),
		MaxCapacity:    5,
		FloorIDs:       floorIDs,
	}
	s := New(cfg, client, testLogger())
	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(s.Stop)
	return s, client
}

func TestArrivalPopsQueueHeadAndClearsButton(t *testing.T) {
	// Scenario 6: car with queue [3,7] reports actual_floor=3.
	s, client := newTestScheduler(t, []int{0}, []int{3, 7})

	// seed the car's queue directly via the selected-floors path.
	sel, _ := json.Marshal([]int{3, 7})
	client.Publish("elevator/0/selected_floors", 1, false, sel)

	cs, ok := s.Fleet().CarState(0)
	require.True(t, ok)
	require.Equal(t, []domain.Floor{domain.NewFloor(3), domain.NewFloor(7)}, cs.Queue)

	// mark the up button pressed at floor 3 so ClearButton has something to clear.
	up := true
	s.Fleet().UpdateFloorButtons(3, &up, nil)
	s.fleet.UpdateCarFloor(0, domain.NewFloor(0))
	s.fleet.UpdateCarStatus(0, domain.CarStatusOnline)
	// set direction UP by moving 0 -> 2 before the reported arrival at 3.
	s.fleet.UpdateCarFloor(0, domain.NewFloor(2))

	client.Publish("elevator/0/actual_floor", 1, true, []byte("3"))

	time.Sleep(20 * time.Millisecond)

	cs, ok = s.Fleet().CarState(0)
	require.True(t, ok)
	assert.Equal(t, []domain.Floor{domain.NewFloor(7)}, cs.Queue)

	fs, ok := s.Fleet().FloorState(3)
	require.True(t, ok)
	assert.False(t, fs.UpPressed, "up button at floor 3 must be cleared by the arrival handshake")
}

func TestSelectedFloorsMergeAppendsWithSpareCapacity(t *testing.T) {
	s, client := newTestScheduler(t, []int{0}, nil)
	s.fleet.UpdateCarCapacity(0, 1, 5)

	sel, _ := json.Marshal([]int{2})
	client.Publish("elevator/0/selected_floors", 1, false, sel)

	cs, ok := s.Fleet().CarState(0)
	require.True(t, ok)
	assert.Equal(t, []domain.Floor{domain.NewFloor(2)}, cs.Queue)
}

func TestSelectedFloorsReplacesQueueWhenFull(t *testing.T) {
	s, client := newTestScheduler(t, []int{0}, nil)
	s.fleet.AppendToQueue(0, domain.NewFloor(8))
	s.fleet.UpdateCarCapacity(0, 5, 5)

	sel, _ := json.Marshal([]int{2})
	client.Publish("elevator/0/selected_floors", 1, false, sel)

	cs, ok := s.Fleet().CarState(0)
	require.True(t, ok)
	assert.Equal(t, []domain.Floor{domain.NewFloor(2)}, cs.Queue)
}

func TestResetReturnsCarsAndFloorsToInitialState(t *testing.T) {
	s, _ := newTestScheduler(t, []int{0}, []int{5})
	s.fleet.UpdateCarFloor(0, domain.NewFloor(4))
	s.fleet.AppendToQueue(0, domain.NewFloor(9))
	up := true
	s.fleet.UpdateFloorButtons(5, &up, nil)

	s.onReset("simulation/reset", nil)

	cs, ok := s.Fleet().CarState(0)
	require.True(t, ok)
	assert.Equal(t, domain.NewFloor(0), cs.Floor)
	assert.Empty(t, cs.Queue)

	fs, ok := s.Fleet().FloorState(5)
	require.True(t, ok)
	assert.False(t, fs.UpPressed)
}
