package cli

import (
	"fmt"
	"os"

	"github.com/Luro02/bambu-auto-pause/internal/ams"
	"github.com/Luro02/bambu-auto-pause/internal/filament"
	"github.com/Luro02/bambu-auto-pause/internal/gcode"
	"github.com/Luro02/bambu-auto-pause/internal/optimizer"
	"github.com/Luro02/bambu-auto-pause/internal/report"
	"github.com/spf13/cobra"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <file.gcode.3mf> [group ...]",
	Short: "Report manual changes and conflicts without writing anything",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		plateNumber, _ := cmd.Flags().GetInt("plate")
		amsSize := intFlag(cmd, "ams-size", cfg.AMSSize)
		maxGroupSize := intFlag(cmd, "max-group-size", cfg.MaxGroupSize)
		if amsSize < 1 {
			return fmt.Errorf("--ams-size must be at least 1, got %d", amsSize)
		}

		plate, all, err := loadPlate(args[0], plateNumber)
		if err != nil {
			return err
		}
		changes, err := gcode.Scan(plate.Lines, plate.Colors)
		if err != nil {
			return err
		}

		var grouping *filament.Grouping
		if len(args) > 1 {
			grouping, err = parseGroups(args[1:], all)
			if err != nil {
				return err
			}
		} else {
			best, err := optimizer.New(amsSize, maxGroupSize).Best(all, changes)
			if err != nil {
				return err
			}
			grouping = best.Grouping
			fmt.Printf("The best color remapping should be: %s\n", grouping)
		}

		manual, err := ams.NewSimulator(amsSize, grouping).Run(changes)
		if err != nil {
			return err
		}
		sink := report.NewWriter(os.Stdout)
		if len(manual) == 0 {
			sink.Note("No manual tool changes are required.")
			return nil
		}

		sink.InitialLoadout(ams.FirstLoadout(manual, amsSize))
		sink.Grouping(grouping)
		for _, m := range manual {
			target, err := m.SwapTarget(grouping)
			if err != nil {
				return err
			}
			sink.ManualSwap(m.Layer, target, m.Next, m.Slots)
		}

		ranges := ams.ConflictRanges(manual, grouping)
		if len(ranges) > 0 {
			sink.Note("The print order has to be changed in the slicer, so that the following colors are not printed after each other:")
			for _, r := range ranges {
				sink.ConflictRange(r)
			}
		}
		sink.Totals(len(changes), len(manual))
		return nil
	},
}

func init() {
	inspectCmd.Flags().Int("plate", 0, "Plate number (0 = first plate in the archive)")
	inspectCmd.Flags().Int("ams-size", 4, "Number of AMS slots (default from BAP_AMS_SIZE)")
	inspectCmd.Flags().Int("max-group-size", 2, "Largest optimizer group, 0 = unbounded (default from BAP_MAX_GROUP_SIZE)")
}
