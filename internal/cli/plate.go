package cli

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/Luro02/bambu-auto-pause/internal/container"
	"github.com/Luro02/bambu-auto-pause/internal/filament"
	"github.com/spf13/cobra"
)

// loadPlate opens the archive and returns the plate together with its
// filament set in ascending id order.
func loadPlate(path string, number int) (*container.Plate, []filament.Filament, error) {
	plate, err := container.Open(path, number)
	if err != nil {
		return nil, nil, err
	}

	ids := make([]int, 0, len(plate.Colors))
	for id := range plate.Colors {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	all := make([]filament.Filament, 0, len(ids))
	for _, id := range ids {
		all = append(all, filament.Filament{ID: id, Color: plate.Colors[id]})
	}
	return plate, all, nil
}

// parseGroups turns 1-based colon-joined group specs like "5:2" into a
// grouping over the print's filament set. Filaments not mentioned get a
// group of their own.
func parseGroups(args []string, all []filament.Filament) (*filament.Grouping, error) {
	byID := make(map[int]filament.Filament, len(all))
	for _, f := range all {
		byID[f.ID] = f
	}

	groups := make([][]int, 0, len(args))
	for _, arg := range args {
		parts := strings.Split(arg, ":")
		ids := make([]int, 0, len(parts))
		for _, part := range parts {
			n, err := strconv.Atoi(part)
			if err != nil {
				return nil, fmt.Errorf("invalid group spec %q: %w", arg, err)
			}
			if n < 1 {
				return nil, fmt.Errorf("invalid group spec %q: filament numbers are 1-based", arg)
			}
			ids = append(ids, n-1)
		}
		groups = append(groups, ids)
	}
	return filament.FromPartial(groups, byID)
}

// intFlag reads an int flag, falling back to the config-derived default when
// the user did not set it.
func intFlag(cmd *cobra.Command, name string, fallback int) int {
	if !cmd.Flags().Changed(name) {
		return fallback
	}
	v, _ := cmd.Flags().GetInt(name)
	return v
}
