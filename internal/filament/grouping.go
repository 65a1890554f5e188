package filament

import (
	"fmt"
	"sort"
	"strings"
)

// Grouping partitions a print's filaments into AMS-slot-sharing groups.
// Filaments in one group compete for the same physical slot, so switching
// between group members costs a manual spool swap. Every filament belongs to
// exactly one group. Groups are stored sorted by size, then by smallest
// member id, so display and tie-breaking are deterministic.
type Grouping struct {
	groups [][]Filament
}

// NewGrouping builds a grouping from explicit groups. It fails if a filament
// appears in more than one group, or if a group is empty.
func NewGrouping(groups [][]Filament) (*Grouping, error) {
	seen := make(map[int]bool)
	dup := make(map[int]bool)
	for _, group := range groups {
		if len(group) == 0 {
			return nil, fmt.Errorf("filament group must not be empty")
		}
		for _, f := range group {
			if seen[f.ID] {
				dup[f.ID] = true
			}
			seen[f.ID] = true
		}
	}
	if len(dup) > 0 {
		ids := make([]string, 0, len(dup))
		for id := range dup {
			ids = append(ids, Filament{ID: id}.String())
		}
		sort.Strings(ids)
		return nil, fmt.Errorf("filaments %s are in multiple groups", strings.Join(ids, ", "))
	}

	canonical := make([][]Filament, len(groups))
	for i, group := range groups {
		g := make([]Filament, len(group))
		copy(g, group)
		sort.Slice(g, func(a, b int) bool { return g[a].ID < g[b].ID })
		canonical[i] = g
	}
	sort.Slice(canonical, func(a, b int) bool {
		if len(canonical[a]) != len(canonical[b]) {
			return len(canonical[a]) < len(canonical[b])
		}
		return canonical[a][0].ID < canonical[b][0].ID
	})
	return &Grouping{groups: canonical}, nil
}

// FromPartial builds a grouping from explicit groups of filament ids plus one
// singleton group per filament of the print that is not mentioned.
func FromPartial(groups [][]int, all map[int]Filament) (*Grouping, error) {
	base := make([][]Filament, 0, len(groups))
	used := make(map[int]bool)
	for _, ids := range groups {
		group := make([]Filament, 0, len(ids))
		for _, id := range ids {
			f, ok := all[id]
			if !ok {
				return nil, fmt.Errorf("filament %s is not used by this print", Filament{ID: id})
			}
			group = append(group, f)
			used[id] = true
		}
		base = append(base, group)
	}

	rest := make([]int, 0, len(all))
	for id := range all {
		if !used[id] {
			rest = append(rest, id)
		}
	}
	sort.Ints(rest)
	for _, id := range rest {
		base = append(base, []Filament{all[id]})
	}
	return NewGrouping(base)
}

// Groups returns the canonical group list. Callers must not modify it.
func (g *Grouping) Groups() [][]Filament {
	return g.groups
}

// IsGrouped reports whether two filaments share a group.
func (g *Grouping) IsGrouped(left, right Filament) bool {
	group := g.GroupOf(left)
	for _, f := range group {
		if f.ID == right.ID {
			return true
		}
	}
	return false
}

// GroupOf returns the group containing f, or nil if f is in no group.
func (g *Grouping) GroupOf(f Filament) []Filament {
	for _, group := range g.groups {
		for _, member := range group {
			if member.ID == f.ID {
				return group
			}
		}
	}
	return nil
}

// SlotFor returns the index of the first slot occupied by a filament from
// f's group. ok is false when no slot holds a group member. Asking for a
// filament that is in no group is an error: the grouping does not cover the
// print's filament set.
func (g *Grouping) SlotFor(slots []Filament, f Filament) (idx int, ok bool, err error) {
	group := g.GroupOf(f)
	if group == nil {
		return 0, false, fmt.Errorf("filament %s is not in any group", f)
	}
	for i, occupant := range slots {
		for _, member := range group {
			if member.ID == occupant.ID {
				return i, true, nil
			}
		}
	}
	return 0, false, nil
}

// String renders groups as space-separated colon-joined 1-based ids,
// e.g. "3 1:5 2:4".
func (g *Grouping) String() string {
	parts := make([]string, len(g.groups))
	for i, group := range g.groups {
		ids := make([]string, len(group))
		for j, f := range group {
			ids[j] = f.String()
		}
		parts[i] = strings.Join(ids, ":")
	}
	return strings.Join(parts, " ")
}
