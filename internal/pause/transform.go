// Package pause rewrites the command stream so the printer stops at every
// tool change the AMS cannot perform on its own.
package pause

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Luro02/bambu-auto-pause/internal/gcode"
)

// The stock filament-change block cuts the old filament and loads the new
// one in a single uninterruptible sequence, so a pause in front of it is not
// enough when the old and new filament share a slot. RewriteBlock splits the
// block into an unload phase, a pause, and a reload phase instead. The exact
// command order was worked out against real printer behavior; treat it as a
// fixed sequence rather than something to rederive.
const (
	unloadArm  = "M620 S255"
	unloadTool = "T255"
	unloadDone = "M621 S255"
	wrapper    = "M620.1 E F523 T240"
)

// safePark moves the toolhead out of the cutting station before the reload
// starts; without it the head grinds its way out of the chute.
var safePark = []string{
	"G1 X100 F5000",
	"G1 X165 F15000",
	"G1 Y256",
	"M400",
}

var (
	armPattern  = regexp.MustCompile(`^M620 S(\d+)A`)
	toolPattern = regexp.MustCompile(`^T(\d+)`)
)

// RewriteBlock rewrites one tool-change block (block-start marker through
// block-end marker, inclusive) into an unload, pause, safe-park, reload
// sequence. All lines not involved in the rewrite pass through in order.
func RewriteBlock(block []string) ([]string, error) {
	if len(block) == 0 || !strings.HasPrefix(block[0], gcode.BlockStart) {
		return nil, fmt.Errorf("filament change block does not start with %q", gcode.BlockStart)
	}
	if !strings.HasPrefix(block[len(block)-1], gcode.BlockEnd) {
		return nil, fmt.Errorf("filament change block does not end with %q", gcode.BlockEnd)
	}

	out := make([]string, 0, len(block)+12)
	next := -1
	for _, line := range block {
		// Re-arm the changer for an unload instead of the real destination;
		// the destination is restored after the pause.
		if m := armPattern.FindStringSubmatch(line); m != nil {
			next, _ = strconv.Atoi(m[1])
			out = append(out, unloadArm)
			continue
		}

		// The wrapper pair around the T command is dropped here and
		// re-inserted around the T command after the pause.
		if strings.HasPrefix(line, wrapper) {
			continue
		}

		if toolPattern.MatchString(line) {
			if next < 0 {
				return nil, fmt.Errorf("tool change %q appears before its arm command in the block", line)
			}
			out = append(out,
				unloadTool,
				// Marks the unload as finished. Observed from firmware
				// output; not documented anywhere.
				unloadDone,
				gcode.PauseCommand,
			)
			out = append(out, safePark...)
			out = append(out,
				fmt.Sprintf("M620 S%dA", next),
				wrapper,
				line,
				wrapper,
			)
			continue
		}

		out = append(out, line)
	}
	return out, nil
}
