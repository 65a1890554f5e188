package cli

import (
	"fmt"
	"os"

	"github.com/Luro02/bambu-auto-pause/internal/config"
	"github.com/spf13/cobra"
)

var (
	cfg     *config.Config
	rootCmd = &cobra.Command{
		Use:   "bap",
		Short: "Pause multi-color Bambu prints at every manual spool swap",
		Long: `bap post-processes a sliced .gcode.3mf file for prints that use more
filaments than the AMS has slots. It simulates the AMS over the print's tool
changes, finds the points where an operator must physically swap a spool, and
rewrites the command stream so the printer pauses at exactly those points.

Filaments that share a slot are given as colon-joined 1-based groups. With no
groups, bap searches for the grouping that needs the fewest manual swaps.

Typical use:
  bap process cube.gcode.3mf            # pick the best grouping, write cube_with_pauses.gcode.3mf
  bap process cube.gcode.3mf 5:2 7:3    # color 5 shares a slot with 2, color 7 with 3
  bap inspect cube.gcode.3mf 5:2        # report swaps and conflicts, write nothing`,
	}
)

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.AddCommand(processCmd)
	rootCmd.AddCommand(optimizeCmd)
	rootCmd.AddCommand(inspectCmd)
}

func initConfig() {
	var err error
	cfg, err = config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
}
