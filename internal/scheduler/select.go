package scheduler

import (
	"sort"

	"github.com/arikolev/elevator-fleet/internal/domain"
)

// Mode is the scheduler's source-floor selection policy, per spec.md §4.1.
type Mode string

const (
	ModeDumb  Mode = "dumb"
	ModeSmart Mode = "smart"
)

// floorCandidate is a floor eligible to be this cycle's source floor.
type floorCandidate struct {
	id           int
	waitingCount int
}

// ChooseSourceFloor implements spec.md §4.1 step 1: dumb mode picks the
// pressed, unqueued floor with the greatest waiting count (ties to smaller
// id); smart mode additionally admits already-queued floors whose waiting
// count exceeds threshold, letting a second car assist a busy floor.
// Grounded on controller.py's get_called_floor_dumb/get_called_floor_smart.
func ChooseSourceFloor(mode Mode, threshold int, floors map[int]domain.FloorState, queuedFloors map[int]bool) (int, bool) {
	var candidates []floorCandidate

	for id, fs := range floors {
		if !fs.UpPressed && !fs.DownPressed {
			continue
		}
		queued := queuedFloors[id]
		if queued {
			if mode != ModeSmart || fs.WaitingCount() <= threshold {
				continue
			}
		}
		candidates = append(candidates, floorCandidate{id: id, waitingCount: fs.WaitingCount()})
	}

	if len(candidates) == 0 {
		return 0, false
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].waitingCount != candidates[j].waitingCount {
			return candidates[i].waitingCount > candidates[j].waitingCount
		}
		return candidates[i].id < candidates[j].id
	})

	return candidates[0].id, true
}

// ChooseCar implements spec.md §4.1 step 2's priority order: first car with
// an empty queue; else first car with actualCapacity == 0 (its queue
// cleared before assignment — the caller must call Fleet.ClearQueue); else
// the car nearest sourceFloor, ties broken by smallest car id. Grounded on
// controller.py's select_elevator/try_get_idle_elevator/
// try_get_empty_elevator/get_nearest_elevator chain.
func ChooseCar(sourceFloor domain.Floor, cars map[int]domain.CarState) (int, bool) {
	if len(cars) == 0 {
		return 0, false
	}

	ids := make([]int, 0, len(cars))
	for id := range cars {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	for _, id := range ids {
		if len(cars[id].Queue) == 0 {
			return id, true
		}
	}

	for _, id := range ids {
		if cars[id].ActualCapacity == 0 {
			return id, true
		}
	}

	best := ids[0]
	bestDist := cars[best].Floor.Distance(sourceFloor)
	for _, id := range ids[1:] {
		d := cars[id].Floor.Distance(sourceFloor)
		if d < bestDist {
			best, bestDist = id, d
		}
	}
	return best, true
}
