package gcode

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Luro02/bambu-auto-pause/internal/filament"
)

// Markers and commands recognized in the Bambu Studio G-code dialect. The
// stream is otherwise treated as opaque text.
const (
	// BlockStart brackets the beginning of one tool-change block.
	BlockStart = "; CP TOOLCHANGE START"
	// BlockEnd brackets the end of one tool-change block.
	BlockEnd = "; CP TOOLCHANGE END"
	// PauseCommand pauses the print until the user presses resume.
	PauseCommand = "M400 U1"
)

var (
	layerPattern = regexp.MustCompile(`^M73 L(\d+)`)
	toolPattern  = regexp.MustCompile(`^T(\d+)`)
)

// sentinelTools are T destinations that do not switch to a real filament
// (unload-only and firmware-internal no-ops). They never become events.
var sentinelTools = map[string]bool{
	"255":  true,
	"1000": true,
	"1100": true,
}

// ToolChange is one real filament switch found in the command stream.
type ToolChange struct {
	// Layer is the layer the change occurs in (0 before the first layer marker).
	Layer int
	// Current is the filament loaded before the change; nil for the initial load.
	Current *filament.Filament
	// Next is the filament the change switches to.
	Next filament.Filament
	// Index is the line index of the T command.
	Index int
	// BlockStart is the line index of the preceding block-start marker, or -1.
	BlockStart int
	// BlockEnd is the line index of the following block-end marker.
	BlockEnd int
}

// StartsAt reports whether the change's block starts at the given line index.
func (tc ToolChange) StartsAt(idx int) bool {
	return tc.BlockStart >= 0 && tc.BlockStart == idx
}

// MalformedBlockError reports a tool change whose block markers are missing
// or mangled. Index values are -1 when the marker was not found at all.
type MalformedBlockError struct {
	Line  int
	Start int
	End   int
}

func (e *MalformedBlockError) Error() string {
	return fmt.Sprintf("tool change at line %d does not have the marker comments (start index: %d, end index: %d)",
		e.Line, e.Start, e.End)
}

// Scan extracts the ordered tool-change events from the command stream.
// colors maps filament ids to their display color; a T command naming an
// unmapped id is fatal. The returned slice is in stream order.
func Scan(lines []string, colors map[int]string) ([]ToolChange, error) {
	var changes []ToolChange
	var current *filament.Filament
	layer := 0
	blockStart := -1

	for idx, line := range lines {
		if strings.HasPrefix(line, BlockStart) {
			blockStart = idx
		}

		if m := layerPattern.FindStringSubmatch(line); m != nil {
			layer, _ = strconv.Atoi(m[1])
			continue
		}

		m := toolPattern.FindStringSubmatch(line)
		if m == nil || sentinelTools[m[1]] {
			continue
		}

		id, _ := strconv.Atoi(m[1])
		color, ok := colors[id]
		if !ok {
			return nil, fmt.Errorf("tool change at line %d references filament %s, which has no color metadata",
				idx, filament.Filament{ID: id})
		}
		next := filament.Filament{ID: id, Color: color}

		blockEnd := -1
		for j := idx; j < len(lines); j++ {
			if strings.HasPrefix(lines[j], BlockEnd) {
				blockEnd = j
				break
			}
		}
		// The start marker is located by prefix but must match exactly; a
		// mangled marker would break the block rewrite later on.
		if blockEnd < 0 || (blockStart >= 0 && lines[blockStart] != BlockStart) || lines[blockEnd] != BlockEnd {
			return nil, &MalformedBlockError{Line: idx, Start: blockStart, End: blockEnd}
		}

		changes = append(changes, ToolChange{
			Layer:      layer,
			Current:    current,
			Next:       next,
			Index:      idx,
			BlockStart: blockStart,
			BlockEnd:   blockEnd,
		})
		loaded := next
		current = &loaded
	}
	return changes, nil
}
