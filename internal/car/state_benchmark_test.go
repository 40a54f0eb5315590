package car

import (
	"context"
	"testing"
	"time"

	"github.com/arikolev/elevator-fleet/internal/domain"
)

// BenchmarkState_SetFloor measures the per-tick floor update every car
// performs once a second while driving.
func BenchmarkState_SetFloor(b *testing.B) {
	s := NewState(1, domain.NewFloor(0), 8)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.SetFloor(domain.NewFloor(i % 10))
	}
}

// BenchmarkState_BoardDeboard measures one board/deboard cycle at an
// otherwise-empty car.
func BenchmarkState_BoardDeboard(b *testing.B) {
	now := time.Now()
	passengers := []domain.Passenger{
		domain.NewPassenger(domain.NewFloor(0), domain.NewFloor(5), now),
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s := NewState(1, domain.NewFloor(0), 8)
		if _, err := s.Board(passengers, now); err != nil {
			b.Fatal(err)
		}
		s.Deboard(now)
	}
}

// BenchmarkCircuitBreaker_Execute measures the breaker's overhead on the
// common closed-state path every publish goes through.
func BenchmarkCircuitBreaker_Execute(b *testing.B) {
	cb := NewCircuitBreaker(5, 30*time.Second, 3)
	noop := func() error { return nil }
	ctx := context.Background()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = cb.Execute(ctx, noop)
	}
}
