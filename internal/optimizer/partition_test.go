package optimizer

import (
	"sort"
	"strconv"
	"strings"
	"testing"

	"github.com/Luro02/bambu-auto-pause/internal/filament"
	"github.com/stretchr/testify/assert"
)

func testFilaments(n int) []filament.Filament {
	fs := make([]filament.Filament, n)
	for i := range fs {
		fs[i] = filament.Filament{ID: i, Color: "#000000"}
	}
	return fs
}

// render flattens a partition into a stable textual form for comparison,
// e.g. "0,1|2".
func render(p [][]filament.Filament) string {
	groups := make([]string, len(p))
	for i, g := range p {
		ids := make([]string, len(g))
		for j, f := range g {
			ids[j] = strconv.Itoa(f.ID)
		}
		groups[i] = strings.Join(ids, ",")
	}
	return strings.Join(groups, "|")
}

func collect(collection []filament.Filament, k, maxGroupSize int) []string {
	var out []string
	partitions(collection, k, maxGroupSize, func(p [][]filament.Filament) bool {
		out = append(out, render(p))
		return true
	})
	return out
}

func TestPartitionsCount(t *testing.T) {
	// Stirling numbers of the second kind: S(4,1)=1, S(4,2)=7, S(4,3)=6, S(4,4)=1.
	fs := testFilaments(4)
	assert.Len(t, collect(fs, 1, 0), 1)
	assert.Len(t, collect(fs, 2, 0), 7)
	assert.Len(t, collect(fs, 3, 0), 6)
	assert.Len(t, collect(fs, 4, 0), 1)
}

func TestPartitionsNoDuplicates(t *testing.T) {
	fs := testFilaments(5)
	for k := 1; k <= 5; k++ {
		got := collect(fs, k, 0)
		seen := make(map[string]bool, len(got))
		for _, p := range got {
			canonical := canonicalRender(t, p)
			assert.Falsef(t, seen[canonical], "partition %s enumerated twice for k=%d", p, k)
			seen[canonical] = true
		}
	}
}

// canonicalRender sorts the rendered groups so that partitions differing only
// in member or group order compare equal. Single-digit ids sort fine as text.
func canonicalRender(t *testing.T, rendered string) string {
	t.Helper()
	groups := strings.Split(rendered, "|")
	for i, g := range groups {
		ids := strings.Split(g, ",")
		sort.Strings(ids)
		groups[i] = strings.Join(ids, ",")
	}
	sort.Strings(groups)
	return strings.Join(groups, "|")
}

func TestPartitionsGroupSizeBound(t *testing.T) {
	// Of the seven 2-partitions of four elements, three have shape 2+2 and
	// four have shape 1+3; the bound prunes the latter.
	fs := testFilaments(4)
	got := collect(fs, 2, 2)
	assert.Len(t, got, 3)
	for _, p := range got {
		for _, g := range strings.Split(p, "|") {
			assert.LessOrEqual(t, len(strings.Split(g, ",")), 2)
		}
	}
}

func TestPartitionsEnumerationOrder(t *testing.T) {
	// The search's tie-break depends on this exact order: merge the head
	// element into each existing group first, then give it its own group.
	got := collect(testFilaments(3), 2, 0)
	want := []string{"0,1|2", "1|0,2", "0|1,2"}
	assert.Equal(t, want, got)
}

func TestPartitionsEarlyStop(t *testing.T) {
	calls := 0
	partitions(testFilaments(4), 2, 0, func([][]filament.Filament) bool {
		calls++
		return calls < 3
	})
	assert.Equal(t, 3, calls)
}
