package pause

import (
	"reflect"
	"strings"
	"testing"

	"github.com/Luro02/bambu-auto-pause/internal/ams"
	"github.com/Luro02/bambu-auto-pause/internal/filament"
	"github.com/Luro02/bambu-auto-pause/internal/gcode"
	"github.com/Luro02/bambu-auto-pause/internal/report"
)

var testColors = map[int]string{0: "#FF0000", 1: "#00FF00", 2: "#0000FF"}

// countingSink records the swaps announced during a rewrite.
type countingSink struct {
	report.Discard
	swaps []string
}

func (s *countingSink) ManualSwap(layer int, remove, insert filament.Filament, slots []filament.Filament) {
	s.swaps = append(s.swaps, remove.String()+"->"+insert.String())
}

func testGrouping(t *testing.T, groups [][]int) *filament.Grouping {
	t.Helper()
	all := make(map[int]filament.Filament, len(testColors))
	for id, color := range testColors {
		all[id] = filament.Filament{ID: id, Color: color}
	}
	g, err := filament.FromPartial(groups, all)
	if err != nil {
		t.Fatalf("FromPartial: %v", err)
	}
	return g
}

func block(dest string) []string {
	return []string{
		"; CP TOOLCHANGE START",
		"M620 S" + dest + "A",
		"M620.1 E F523 T240",
		"T" + dest,
		"M620.1 E F523 T240",
		"; CP TOOLCHANGE END",
	}
}

func pipeline(t *testing.T, lines []string, grouping *filament.Grouping, amsSize int) ([]gcode.ToolChange, []ams.ManualToolChange) {
	t.Helper()
	changes, err := gcode.Scan(lines, testColors)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	manual, err := ams.NewSimulator(amsSize, grouping).Run(changes)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return changes, manual
}

func TestApplyUnchangedWithoutManualChanges(t *testing.T) {
	var lines []string
	lines = append(lines, "G28")
	lines = append(lines, block("0")...)
	lines = append(lines, "M73 L1")
	lines = append(lines, block("1")...)
	lines = append(lines, "M104 S220")

	grouping := testGrouping(t, nil)
	_, manual := pipeline(t, lines, grouping, 4)
	if len(manual) != 0 {
		t.Fatalf("got %d manual changes, want 0", len(manual))
	}

	got, err := Apply(lines, manual, grouping, report.Discard{})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if !reflect.DeepEqual(got, lines) {
		t.Errorf("stream changed despite zero manual changes:\n%v", got)
	}
	for _, line := range got {
		if line == gcode.PauseCommand {
			t.Error("pause command inserted despite zero manual changes")
		}
	}
}

func TestApplyInsertsPauseBeforeNonConflictChange(t *testing.T) {
	var lines []string
	lines = append(lines, "G28")
	lines = append(lines, block("0")...) // loads 1
	lines = append(lines, "M73 L1")
	lines = append(lines, block("2")...) // loads 3
	lines = append(lines, "M73 L2")
	lines = append(lines, block("1")...) // 2 evicts its group mate 1; current is 3, no conflict
	lines = append(lines, "M104 S220")

	grouping := testGrouping(t, [][]int{{0, 1}})
	_, manual := pipeline(t, lines, grouping, 2)
	if len(manual) != 1 {
		t.Fatalf("got %d manual changes, want 1", len(manual))
	}

	sink := &countingSink{}
	got, err := Apply(lines, manual, grouping, sink)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	if len(got) != len(lines)+1 {
		t.Fatalf("got %d lines, want %d (one inserted pause)", len(got), len(lines)+1)
	}
	toolIdx := manual[0].Index
	if got[toolIdx] != gcode.PauseCommand {
		t.Errorf("line %d = %q, want the pause command", toolIdx, got[toolIdx])
	}
	if got[toolIdx+1] != "T1" {
		t.Errorf("line %d = %q, want the original tool change after the pause", toolIdx+1, got[toolIdx+1])
	}
	if !reflect.DeepEqual(sink.swaps, []string{"1->2"}) {
		t.Errorf("announced swaps = %v, want [1->2]", sink.swaps)
	}
}

func TestApplyRewritesConflictBlock(t *testing.T) {
	var lines []string
	lines = append(lines, "G28")
	lines = append(lines, block("0")...) // loads 1
	lines = append(lines, "M73 L1")
	lines = append(lines, block("1")...) // 2 evicts 1 while 1 is printing: conflict
	lines = append(lines, "M104 S220")

	grouping := testGrouping(t, [][]int{{0, 1}})
	_, manual := pipeline(t, lines, grouping, 2)
	if len(manual) != 1 {
		t.Fatalf("got %d manual changes, want 1", len(manual))
	}
	if !ams.IsConflict(manual[0].ToolChange, grouping) {
		t.Fatal("expected the manual change to be a conflict")
	}

	got, err := Apply(lines, manual, grouping, report.Discard{})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	// The conflicting block grows by the unload/pause/safe-park sequence;
	// nothing before or after it moves.
	start := manual[0].BlockStart
	if got[start] != gcode.BlockStart {
		t.Errorf("line %d = %q, want the block start marker", start, got[start])
	}
	if got[start+1] != "M620 S255" {
		t.Errorf("line %d = %q, want the unload arm command", start+1, got[start+1])
	}
	if got[start+2] != "T255" {
		t.Errorf("line %d = %q, want the unload tool change", start+2, got[start+2])
	}
	joined := strings.Join(got, "\n")
	if !strings.Contains(joined, gcode.PauseCommand) {
		t.Error("rewritten stream has no pause command")
	}
	if strings.Count(joined, "T1\n")+strings.Count(joined, "\nT1") < 1 {
		t.Error("rewritten stream lost the original tool change")
	}
	if got[len(got)-1] != "M104 S220" {
		t.Errorf("last line = %q, want the trailing command preserved", got[len(got)-1])
	}

	// The original block must not appear twice.
	if strings.Count(joined, gcode.BlockEnd) != strings.Count(strings.Join(lines, "\n"), gcode.BlockEnd) {
		t.Error("block end marker duplicated")
	}
}
