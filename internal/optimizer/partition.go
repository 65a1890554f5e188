package optimizer

import "github.com/Luro02/bambu-auto-pause/internal/filament"

// partitions enumerates every set partition of collection into exactly k
// non-empty groups, without duplicates, calling fn for each one. fn returns
// false to stop the enumeration early; partitions then returns false too.
//
// The order is significant because the search keeps the last candidate with
// a best-or-equal score: for each partition of the tail, the head element is
// first merged into every existing group in turn, and only then placed in a
// group of its own. maxGroupSize prunes merges that would grow a group past
// it; 0 means unbounded. The candidate slices passed to fn share memory with
// the enumeration state and must not be retained.
func partitions(collection []filament.Filament, k, maxGroupSize int, fn func([][]filament.Filament) bool) bool {
	if len(collection) == 0 || k < 1 {
		return true
	}
	if len(collection) == 1 {
		if k == 1 {
			return fn([][]filament.Filament{{collection[0]}})
		}
		return true
	}

	first := collection[0]
	rest := collection[1:]

	ok := partitions(rest, k, maxGroupSize, func(smaller [][]filament.Filament) bool {
		for n, group := range smaller {
			if maxGroupSize > 0 && len(group)+1 > maxGroupSize {
				continue
			}
			merged := make([]filament.Filament, 0, len(group)+1)
			merged = append(merged, first)
			merged = append(merged, group...)

			candidate := make([][]filament.Filament, len(smaller))
			copy(candidate, smaller)
			candidate[n] = merged
			if !fn(candidate) {
				return false
			}
		}
		return true
	})
	if !ok {
		return false
	}

	return partitions(rest, k-1, maxGroupSize, func(smaller [][]filament.Filament) bool {
		candidate := make([][]filament.Filament, 0, len(smaller)+1)
		candidate = append(candidate, []filament.Filament{first})
		candidate = append(candidate, smaller...)
		return fn(candidate)
	})
}
