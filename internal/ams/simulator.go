// Package ams replays tool-change events against a simulated AMS slot array
// to find the changes that need a human to swap a spool.
package ams

import (
	"fmt"

	"github.com/Luro02/bambu-auto-pause/internal/filament"
	"github.com/Luro02/bambu-auto-pause/internal/gcode"
)

// ManualToolChange is a tool change the AMS cannot perform on its own
// because the needed filament is not loaded. Slots is a copy of the AMS
// contents as of before the change is applied.
type ManualToolChange struct {
	gcode.ToolChange
	Slots []filament.Filament
}

// SwapTarget returns the resident filament the operator must remove to make
// room for the incoming one: the group mate occupying the incoming
// filament's home slot.
func (m ManualToolChange) SwapTarget(grouping *filament.Grouping) (filament.Filament, error) {
	idx, ok, err := grouping.SlotFor(m.Slots, m.Next)
	if err != nil {
		return filament.Filament{}, err
	}
	if !ok {
		return filament.Filament{}, fmt.Errorf("no slot holds a group mate of filament %s (line %d, slots %v)",
			m.Next, m.Index, m.Slots)
	}
	return m.Slots[idx], nil
}

// CapacityError means a tool change needed a slot for a new filament group
// while every slot was taken by other groups. The chosen grouping cannot
// support the print with this AMS size.
type CapacityError struct {
	Filament filament.Filament
	Layer    int
	Index    int
	Slots    []filament.Filament
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("AMS capacity exceeded in layer %d (line %d): no slot can take filament %s, slots hold %v",
		e.Layer, e.Index, e.Filament, e.Slots)
}

// Simulator replays a tool-change sequence against one AMS configuration.
// A Simulator holds no state between runs; each Run starts from empty slots.
type Simulator struct {
	size     int
	grouping *filament.Grouping
}

// NewSimulator creates a simulator for an AMS with size slots and the given
// slot-sharing grouping.
func NewSimulator(size int, grouping *filament.Grouping) *Simulator {
	return &Simulator{size: size, grouping: grouping}
}

// Run replays the tool changes in order and returns the manual changes in
// stream order. The slot array starts empty and fills up as filaments are
// first used; once a group has a home slot, later members of the group
// overwrite it in place.
func (s *Simulator) Run(changes []gcode.ToolChange) ([]ManualToolChange, error) {
	slots := make([]filament.Filament, 0, s.size)
	var manual []ManualToolChange

	for _, tc := range changes {
		if isManual(slots, tc, s.grouping) {
			snapshot := make([]filament.Filament, len(slots))
			copy(snapshot, slots)
			manual = append(manual, ManualToolChange{ToolChange: tc, Slots: snapshot})
		}

		idx, ok, err := s.grouping.SlotFor(slots, tc.Next)
		if err != nil {
			return nil, fmt.Errorf("layer %d (line %d): %w", tc.Layer, tc.Index, err)
		}
		if !ok {
			if len(slots) == s.size {
				snapshot := make([]filament.Filament, len(slots))
				copy(snapshot, slots)
				return nil, &CapacityError{Filament: tc.Next, Layer: tc.Layer, Index: tc.Index, Slots: snapshot}
			}
			slots = append(slots, tc.Next)
			continue
		}
		slots[idx] = tc.Next
	}
	return manual, nil
}

// isManual reports whether the change needs a spool swap: the next filament
// is not resident, but a group mate is (so there is a slot to swap at).
func isManual(slots []filament.Filament, tc gcode.ToolChange, grouping *filament.Grouping) bool {
	for _, occupant := range slots {
		if occupant.ID == tc.Next.ID {
			return false
		}
	}
	_, ok, err := grouping.SlotFor(slots, tc.Next)
	return err == nil && ok
}

// FirstLoadout reconstructs the filaments the AMS must hold before the print
// starts, from the slot snapshots of the manual changes, capped at size.
func FirstLoadout(manual []ManualToolChange, size int) []filament.Filament {
	var loadout []filament.Filament
	maxSeen := 0
	for _, m := range manual {
		if len(m.Slots) > maxSeen {
			maxSeen = len(m.Slots)
			loadout = append(loadout, m.Slots[len(loadout):]...)
		}
		if len(loadout) == size {
			return loadout
		}
	}
	return loadout
}
