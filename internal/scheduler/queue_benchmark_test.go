package scheduler

import (
	"testing"

	"github.com/arikolev/elevator-fleet/internal/domain"
)

// BenchmarkSortQueue measures the SCAN re-sort every AppendToQueue call pays.
func BenchmarkSortQueue(b *testing.B) {
	targets := []domain.Floor{
		domain.NewFloor(3), domain.NewFloor(7), domain.NewFloor(1),
		domain.NewFloor(9), domain.NewFloor(5), domain.NewFloor(2),
	}
	current := domain.NewFloor(4)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		SortQueue(current, domain.DirectionUp, targets)
	}
}

// BenchmarkChooseSourceFloor measures one scheduling cycle's source-floor
// selection over a modestly sized floor set.
func BenchmarkChooseSourceFloor(b *testing.B) {
	floors := make(map[int]domain.FloorState, 20)
	for i := 0; i < 20; i++ {
		state := domain.NewFloorState(domain.NewFloor(i))
		if i%3 == 0 {
			state.UpPressed = true
		}
		floors[i] = state
	}
	queued := map[int]bool{5: true, 10: true}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ChooseSourceFloor(ModeSmart, 3, floors, queued)
	}
}
