package scheduler

import (
	"sort"

	"github.com/arikolev/elevator-fleet/internal/domain"
)

// SortQueue implements the SCAN sweep ordering of spec.md §4.1: partition
// the unordered target set into floors above current (ascending) and floors
// below current (descending), then concatenate in the order that keeps the
// car moving in its current direction as long as possible before reversing.
// Grounded on the elevator controller's sort_queue (original_source/
// controller/controller.py), generalized from Python deques to a Go slice.
//
// current itself is never included in the result even if present in
// targets, matching the "destination != current floor except transiently"
// invariant (spec.md §3, §9).
func SortQueue(current domain.Floor, direction domain.Direction, targets []domain.Floor) []domain.Floor {
	var upper, lower []domain.Floor
	for _, f := range targets {
		switch {
		case f > current:
			upper = append(upper, f)
		case f < current:
			lower = append(lower, f)
		}
	}

	sort.Slice(upper, func(i, j int) bool { return upper[i] < upper[j] })
	sort.Slice(lower, func(i, j int) bool { return lower[i] > lower[j] })

	switch {
	case len(lower) == 0:
		return upper
	case len(upper) == 0:
		return lower
	case direction == domain.DirectionDown:
		return append(append([]domain.Floor{}, lower...), upper...)
	default:
		// direction UP or IDLE defaults to an upward sweep first, matching
		// the source's "direction always UP for now" fallback.
		return append(append([]domain.Floor{}, upper...), lower...)
	}
}

// DedupeAppend appends each of add to base, skipping any value already
// present in base, preserving base's existing order.
func DedupeAppend(base []domain.Floor, add []domain.Floor) []domain.Floor {
	out := append([]domain.Floor{}, base...)
	for _, f := range add {
		found := false
		for _, b := range out {
			if b == f {
				found = true
				break
			}
		}
		if !found {
			out = append(out, f)
		}
	}
	return out
}
