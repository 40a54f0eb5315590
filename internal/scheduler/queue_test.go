package scheduler

import (
	"testing"

	"github.com/arikolev/elevator-fleet/internal/domain"
	"github.com/stretchr/testify/assert"
)

func floors(vs ...int) []domain.Floor {
	out := make([]domain.Floor, len(vs))
	for i, v := range vs {
		out[i] = domain.NewFloor(v)
	}
	return out
}

func TestSortQueueScanOrderingUp(t *testing.T) {
	// Scenario 2: car at floor 5, direction UP, queue set {8,1,6,7,2,3}.
	got := SortQueue(domain.NewFloor(5), domain.DirectionUp, floors(8, 1, 6, 7, 2, 3))
	assert.Equal(t, floors(6, 7, 8, 3, 2, 1), got)
}

func TestSortQueueScanOrderingDown(t *testing.T) {
	// Scenario 3: same set and current, direction DOWN.
	got := SortQueue(domain.NewFloor(5), domain.DirectionDown, floors(8, 1, 6, 7, 2, 3))
	assert.Equal(t, floors(3, 2, 1, 6, 7, 8), got)
}

func TestSortQueueOnlyUpper(t *testing.T) {
	got := SortQueue(domain.NewFloor(0), domain.DirectionUp, floors(2, 5, 1))
	assert.Equal(t, floors(1, 2, 5), got)
}

func TestSortQueueOnlyLower(t *testing.T) {
	got := SortQueue(domain.NewFloor(9), domain.DirectionDown, floors(2, 5, 1))
	assert.Equal(t, floors(5, 2, 1), got)
}

func TestSortQueueExcludesCurrentFloor(t *testing.T) {
	got := SortQueue(domain.NewFloor(5), domain.DirectionUp, floors(5, 6, 4))
	assert.Equal(t, floors(6, 4), got)
}

func TestSortQueueIdempotentOnAlreadySortedQueue(t *testing.T) {
	first := SortQueue(domain.NewFloor(5), domain.DirectionUp, floors(8, 1, 6, 7, 2, 3))
	second := SortQueue(domain.NewFloor(5), domain.DirectionUp, first)
	assert.Equal(t, first, second)
}

func TestDedupeAppend(t *testing.T) {
	base := floors(1, 2)
	got := DedupeAppend(base, floors(2, 3, 1, 4))
	assert.Equal(t, floors(1, 2, 3, 4), got)
}
