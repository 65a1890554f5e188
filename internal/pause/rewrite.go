package pause

import (
	"github.com/Luro02/bambu-auto-pause/internal/ams"
	"github.com/Luro02/bambu-auto-pause/internal/filament"
	"github.com/Luro02/bambu-auto-pause/internal/gcode"
	"github.com/Luro02/bambu-auto-pause/internal/report"
)

// Apply rewrites the command stream so the printer pauses at every manual
// change. Conflicting changes with known block boundaries get their whole
// block rewritten via RewriteBlock; every other manual change gets a pause
// command inserted directly before its T command. Each handled change is
// announced on the sink in stream order. A stream without manual changes
// comes back unchanged.
//
// manual must be in stream order, as produced by the simulator.
func Apply(lines []string, manual []ams.ManualToolChange, grouping *filament.Grouping, sink report.Sink) ([]string, error) {
	out := make([]string, 0, len(lines))
	next := 0
	skipUntil := -1

	for idx, line := range lines {
		if skipUntil >= 0 {
			if idx == skipUntil {
				skipUntil = -1
			}
			continue
		}

		if next < len(manual) {
			m := manual[next]

			if ams.IsConflict(m.ToolChange, grouping) && m.StartsAt(idx) {
				block, err := RewriteBlock(lines[idx : m.BlockEnd+1])
				if err != nil {
					return nil, err
				}
				out = append(out, block...)
				// Skip the original block so it is not emitted twice.
				skipUntil = m.BlockEnd
				if err := announce(m, grouping, sink); err != nil {
					return nil, err
				}
				next++
				continue
			}

			if idx == m.Index {
				out = append(out, gcode.PauseCommand, line)
				if err := announce(m, grouping, sink); err != nil {
					return nil, err
				}
				next++
				continue
			}
		}

		out = append(out, line)
	}
	return out, nil
}

func announce(m ams.ManualToolChange, grouping *filament.Grouping, sink report.Sink) error {
	target, err := m.SwapTarget(grouping)
	if err != nil {
		return err
	}
	sink.ManualSwap(m.Layer, target, m.Next, m.Slots)
	return nil
}
