// Package report carries the user-facing output of a processing run. The
// pipeline never writes to files or the terminal itself; it talks to a Sink
// that the command layer wires up.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/Luro02/bambu-auto-pause/internal/ams"
	"github.com/Luro02/bambu-auto-pause/internal/filament"
)

// Sink receives the report of one processing run, in stream order.
type Sink interface {
	// Note emits a free-form line. An empty format emits a blank line.
	Note(format string, args ...any)
	// InitialLoadout announces the filaments the AMS must hold at print start.
	InitialLoadout(loadout []filament.Filament)
	// Grouping announces the slot-sharing groups in use.
	Grouping(g *filament.Grouping)
	// ManualSwap announces one required spool swap with the slot contents
	// before the swap.
	ManualSwap(layer int, remove, insert filament.Filament, slots []filament.Filament)
	// Totals announces the overall and manual tool-change counts.
	Totals(total, manual int)
	// ConflictRange announces one coalesced range of conflicting layers.
	ConflictRange(r ams.ConflictRange)
}

// Writer is a Sink printing to an io.Writer. Point it at an
// io.MultiWriter to log to the terminal and a file at once.
type Writer struct {
	w io.Writer
}

// NewWriter creates a Writer sink.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

func (r *Writer) Note(format string, args ...any) {
	fmt.Fprintf(r.w, format+"\n", args...)
}

func (r *Writer) InitialLoadout(loadout []filament.Filament) {
	fmt.Fprintf(r.w, "The program assumes that the AMS is loaded initially with the colors: %v\n", loadout)
}

func (r *Writer) Grouping(g *filament.Grouping) {
	fmt.Fprintf(r.w, "The following filaments are grouped together: %s\n", g)
}

func (r *Writer) ManualSwap(layer int, remove, insert filament.Filament, slots []filament.Filament) {
	fmt.Fprintf(r.w, "Manual filament change required in layer %d: Swap color %s with %s: %v\n",
		layer, remove, insert, slots)
}

func (r *Writer) Totals(total, manual int) {
	// The first tool change only loads the initial filament; it is not a
	// change between two colors, so it is not counted.
	fmt.Fprintln(r.w)
	fmt.Fprintf(r.w, "Filament change times: %d\n", total-1)
	fmt.Fprintf(r.w, "Manual filament change times: %d\n", manual)
}

func (r *Writer) ConflictRange(cr ams.ConflictRange) {
	pairs := make([]string, len(cr.Pairs))
	for i, p := range cr.Pairs {
		pairs[i] = fmt.Sprintf("%s -> %s", p.From, p.To)
	}
	fmt.Fprintf(r.w, "Layer %d to %d: %s\n", cr.StartLayer, cr.EndLayer, strings.Join(pairs, ", "))
}

// Discard is a Sink that drops everything. Useful for dry runs and tests.
type Discard struct{}

func (Discard) Note(string, ...any)                {}
func (Discard) InitialLoadout([]filament.Filament) {}
func (Discard) Grouping(*filament.Grouping)        {}
func (Discard) Totals(int, int)                    {}
func (Discard) ConflictRange(ams.ConflictRange)    {}

func (Discard) ManualSwap(int, filament.Filament, filament.Filament, []filament.Filament) {}
