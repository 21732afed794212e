package detect

import (
	"slices"
	"time"
)

// WindowCounts scans instants with a trailing window and returns, for every
// event whose window holds at least threshold events, the number of events in
// that window. Instants are sorted on a copy; the input is left untouched.
func WindowCounts(instants []time.Time, threshold int, window time.Duration) []int {
	if len(instants) == 0 {
		return nil
	}

	sorted := slices.Clone(instants)
	slices.SortStableFunc(sorted, func(a, b time.Time) int {
		return a.Compare(b)
	})

	var counts []int
	start := 0
	for end := range sorted {
		for sorted[end].Sub(sorted[start]) > window {
			start++
		}
		if count := end - start + 1; count >= threshold {
			counts = append(counts, count)
		}
	}
	return counts
}
