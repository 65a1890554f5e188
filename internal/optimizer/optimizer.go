// Package optimizer searches filament groupings for the one that needs the
// fewest manual spool swaps.
package optimizer

import (
	"errors"

	"github.com/Luro02/bambu-auto-pause/internal/ams"
	"github.com/Luro02/bambu-auto-pause/internal/filament"
	"github.com/Luro02/bambu-auto-pause/internal/gcode"
)

// ErrNoViableGrouping means no candidate grouping survived simulation: every
// partition within the size bounds needed more concurrent slots than the AMS
// has, or no partition satisfied the bounds at all.
var ErrNoViableGrouping = errors.New("no viable filament grouping for this print")

// Optimizer enumerates filament groupings and scores each one with a full
// simulation pass. The search is exponential in the filament count
// (Bell-number scale), which is fine for AMS-sized filament sets; MaxGroupSize
// is the lever to keep pathological cases in check.
type Optimizer struct {
	AMSSize      int
	MaxGroupSize int // 0 means unbounded
}

// New creates an optimizer for an AMS with amsSize slots.
func New(amsSize, maxGroupSize int) *Optimizer {
	return &Optimizer{AMSSize: amsSize, MaxGroupSize: maxGroupSize}
}

// Result is the best grouping found together with its score.
type Result struct {
	Grouping      *filament.Grouping
	ManualChanges int
	TotalChanges  int
}

// Best returns the grouping of all that minimizes the number of manual
// changes over the given tool-change sequence. Candidates are enumerated for
// every group count from 1 up to the AMS size, in a fixed order; of equal
// scores the last one enumerated wins. Candidates that exceed the AMS
// capacity during simulation are skipped rather than failing the search.
func (o *Optimizer) Best(all []filament.Filament, changes []gcode.ToolChange) (*Result, error) {
	var best *Result
	var searchErr error

	maxK := o.AMSSize
	if len(all) < maxK {
		maxK = len(all)
	}
	for k := 1; k <= maxK; k++ {
		partitions(all, k, o.MaxGroupSize, func(candidate [][]filament.Filament) bool {
			grouping, err := filament.NewGrouping(candidate)
			if err != nil {
				searchErr = err
				return false
			}

			manual, err := ams.NewSimulator(o.AMSSize, grouping).Run(changes)
			if err != nil {
				var capErr *ams.CapacityError
				if errors.As(err, &capErr) {
					// This candidate needs more concurrent groups than the
					// AMS has slots; skip it and keep searching.
					return true
				}
				searchErr = err
				return false
			}

			if best == nil || len(manual) <= best.ManualChanges {
				best = &Result{Grouping: grouping, ManualChanges: len(manual), TotalChanges: len(changes)}
			}
			return true
		})
		if searchErr != nil {
			return nil, searchErr
		}
	}

	if best == nil {
		return nil, ErrNoViableGrouping
	}
	return best, nil
}
