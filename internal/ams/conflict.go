package ams

import (
	"github.com/Luro02/bambu-auto-pause/internal/filament"
	"github.com/Luro02/bambu-auto-pause/internal/gcode"
)

// IsConflict reports whether a tool change swaps between two filaments of
// the same group. A pause alone cannot resolve it: the filament to remove is
// the one feeding the hot end, and unloading it mid-change is not something
// the firmware lets a pause interrupt. These changes need their tool-change
// block rewritten instead.
func IsConflict(tc gcode.ToolChange, grouping *filament.Grouping) bool {
	if tc.Current == nil {
		return false
	}
	return grouping.IsGrouped(*tc.Current, tc.Next)
}

// ConflictPair is one (from, to) filament pair of a conflicting change.
type ConflictPair struct {
	From filament.Filament
	To   filament.Filament
}

// ConflictRange is a maximal run of layers sharing the same conflict pairs.
// Pairs are deduplicated, in first-seen order.
type ConflictRange struct {
	StartLayer int
	EndLayer   int
	Pairs      []ConflictPair
}

type layerConflicts struct {
	layer int
	pairs []ConflictPair
}

// ConflictRanges groups the conflicting manual changes by layer and
// coalesces adjacent layers into ranges. A layer joins the open range when
// it is at most one layer past the range's end and its pairs are a subset of
// the pairs already accumulated; otherwise the range is closed and a new one
// starts one layer wide.
func ConflictRanges(manual []ManualToolChange, grouping *filament.Grouping) []ConflictRange {
	var byLayer []layerConflicts
	for _, m := range manual {
		if !IsConflict(m.ToolChange, grouping) {
			continue
		}
		pair := ConflictPair{From: *m.Current, To: m.Next}
		found := false
		for i := range byLayer {
			if byLayer[i].layer == m.Layer {
				byLayer[i].pairs = append(byLayer[i].pairs, pair)
				found = true
				break
			}
		}
		if !found {
			byLayer = append(byLayer, layerConflicts{layer: m.Layer, pairs: []ConflictPair{pair}})
		}
	}

	var ranges []ConflictRange
	first, last := -1, -1
	var acc []ConflictPair
	for _, lc := range byLayer {
		if first < 0 {
			first, last = lc.layer, lc.layer
			acc = append(acc, lc.pairs...)
			continue
		}
		if containsAll(acc, lc.pairs) && lc.layer <= last+1 {
			acc = append(acc, lc.pairs...)
			last = lc.layer
			continue
		}
		ranges = append(ranges, ConflictRange{StartLayer: first, EndLayer: last, Pairs: dedup(acc)})
		first = lc.layer
		last = lc.layer + 1
		acc = append([]ConflictPair(nil), lc.pairs...)
	}
	if len(acc) > 0 {
		ranges = append(ranges, ConflictRange{StartLayer: first, EndLayer: last, Pairs: dedup(acc)})
	}
	return ranges
}

func containsAll(have, want []ConflictPair) bool {
	for _, p := range want {
		found := false
		for _, q := range have {
			if p == q {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func dedup(pairs []ConflictPair) []ConflictPair {
	var out []ConflictPair
	for _, p := range pairs {
		dup := false
		for _, q := range out {
			if p == q {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, p)
		}
	}
	return out
}
