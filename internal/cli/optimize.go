package cli

import (
	"fmt"

	"github.com/Luro02/bambu-auto-pause/internal/gcode"
	"github.com/Luro02/bambu-auto-pause/internal/optimizer"
	"github.com/spf13/cobra"
)

var optimizeCmd = &cobra.Command{
	Use:   "optimize <file.gcode.3mf>",
	Short: "Find the filament grouping with the fewest manual swaps",
	Args:  cobra.ExactArgs(1),
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

		best, err := optimizer.New(amsSize, maxGroupSize).Best(all, changes)
		if err != nil {
			return err
		}

		fmt.Printf("Filament change times: %d\n", best.TotalChanges-1)
		fmt.Printf("Manual filament change times: %d\n", best.ManualChanges)
		fmt.Printf("The best color remapping should be: %s\n", best.Grouping)
		return nil
	},
}

func init() {
	optimizeCmd.Flags().Int("plate", 0, "Plate number (0 = first plate in the archive)")
	optimizeCmd.Flags().Int("ams-size", 4, "Number of AMS slots (default from BAP_AMS_SIZE)")
	optimizeCmd.Flags().Int("max-group-size", 2, "Largest optimizer group, 0 = unbounded (default from BAP_MAX_GROUP_SIZE)")
}
