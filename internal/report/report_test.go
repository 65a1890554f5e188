package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/Luro02/bambu-auto-pause/internal/ams"
	"github.com/Luro02/bambu-auto-pause/internal/filament"
)

func TestWriterManualSwapUsesOneBasedIds(t *testing.T) {
	var buf bytes.Buffer
	sink := NewWriter(&buf)

	slots := []filament.Filament{{ID: 0}, {ID: 2}}
	sink.ManualSwap(12, filament.Filament{ID: 0}, filament.Filament{ID: 4}, slots)

	want := "Manual filament change required in layer 12: Swap color 1 with 5: [1 3]\n"
	if got := buf.String(); got != want {
		t.Errorf("ManualSwap output = %q, want %q", got, want)
	}
}

func TestWriterTotalsExcludeInitialLoad(t *testing.T) {
	var buf bytes.Buffer
	sink := NewWriter(&buf)

	sink.Totals(10, 3)

	out := buf.String()
	if !strings.Contains(out, "Filament change times: 9") {
		t.Errorf("output %q does not report 9 filament changes", out)
	}
	if !strings.Contains(out, "Manual filament change times: 3") {
		t.Errorf("output %q does not report 3 manual changes", out)
	}
}

func TestWriterConflictRange(t *testing.T) {
	var buf bytes.Buffer
	sink := NewWriter(&buf)

	sink.ConflictRange(ams.ConflictRange{
		StartLayer: 5,
		EndLayer:   6,
		Pairs: []ams.ConflictPair{
			{From: filament.Filament{ID: 0}, To: filament.Filament{ID: 4}},
		},
	})

	want := "Layer 5 to 6: 1 -> 5\n"
	if got := buf.String(); got != want {
		t.Errorf("ConflictRange output = %q, want %q", got, want)
	}
}
