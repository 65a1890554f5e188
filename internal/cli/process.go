package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/Luro02/bambu-auto-pause/internal/ams"
	"github.com/Luro02/bambu-auto-pause/internal/container"
	"github.com/Luro02/bambu-auto-pause/internal/filament"
	"github.com/Luro02/bambu-auto-pause/internal/gcode"
	"github.com/Luro02/bambu-auto-pause/internal/optimizer"
	"github.com/Luro02/bambu-auto-pause/internal/pause"
	"github.com/Luro02/bambu-auto-pause/internal/report"
	"github.com/spf13/cobra"
)

var processCmd = &cobra.Command{
	Use:   "process <file.gcode.3mf> [group ...]",
	Short: "Rewrite a print so it pauses at every manual filament change",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		input := args[0]
		plateNumber, _ := cmd.Flags().GetInt("plate")
		amsSize := intFlag(cmd, "ams-size", cfg.AMSSize)
		maxGroupSize := intFlag(cmd, "max-group-size", cfg.MaxGroupSize)
		strict, _ := cmd.Flags().GetBool("strict")
		if amsSize < 1 {
			return fmt.Errorf("--ams-size must be at least 1, got %d", amsSize)
		}

		plate, all, err := loadPlate(input, plateNumber)
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
			fmt.Println("Warning: No color remapping specified. Will now compute the color remapping with the least amount of manual tool changes.")
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
		if len(manual) == 0 {
			fmt.Println("No manual tool changes are required.")
			return nil
		}

		changesPath, _ := cmd.Flags().GetString("changes-file")
		if changesPath == "" {
			changesPath = filepath.Join(filepath.Dir(input), cfg.ChangesFile)
		}
		changesFile, err := os.Create(changesPath)
		if err != nil {
			return fmt.Errorf("create changes file: %w", err)
		}
		defer changesFile.Close()
		sink := report.NewWriter(io.MultiWriter(os.Stdout, changesFile))

		sink.InitialLoadout(ams.FirstLoadout(manual, amsSize))
		sink.Grouping(grouping)

		ranges := ams.ConflictRanges(manual, grouping)
		if len(ranges) > 0 {
			sink.Note("The print order has to be changed in the slicer, so that the following colors are not printed after each other:")
			for _, r := range ranges {
				sink.ConflictRange(r)
			}
			if strict {
				return fmt.Errorf("%d conflicting layer range(s) cannot be resolved by a pause alone; change the print order in the slicer or rerun without --strict", len(ranges))
			}
			sink.Note("")
			sink.Note("There are conflicts with the current filament printing order.")
			sink.Note("The conflicting tool changes will be rewritten so the printer unloads, pauses, and reloads around the swap.")
			sink.Note("Warning: the rewritten blocks have only been tested on a P1S; on other printers, change the print order in the slicer instead.")
		}

		rewritten, err := pause.Apply(plate.Lines, manual, grouping, sink)
		if err != nil {
			return err
		}
		sink.Totals(len(changes), len(manual))

		output, _ := cmd.Flags().GetString("output")
		if output == "" {
			output = container.DerivedPath(input)
		}
		if err := container.WriteModified(input, output, plate, rewritten); err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", output)
		fmt.Printf("Swap instructions written to %s\n", changesPath)
		return nil
	},
}

func init() {
	processCmd.Flags().Int("plate", 0, "Plate number (0 = first plate in the archive)")
	processCmd.Flags().Int("ams-size", 4, "Number of AMS slots (default from BAP_AMS_SIZE)")
	processCmd.Flags().Int("max-group-size", 2, "Largest optimizer group, 0 = unbounded (default from BAP_MAX_GROUP_SIZE)")
	processCmd.Flags().String("output", "", "Output archive path (default: <input>_with_pauses)")
	processCmd.Flags().String("changes-file", "", "Swap-instruction file path (default: BAP_CHANGES_FILE next to the input)")
	processCmd.Flags().Bool("strict", false, "Refuse to rewrite when conflicts exist")
}
