// Package cli implements the semview command line: inspecting SEM image
// metadata, running auto area detection and dumping embedded annotations.
package cli

import (
	"fmt"
	"io"
	"log"
	"os"

	"sem-view/internal/version"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "semview",
	Short: "SEM image metadata and measurement tool",
	Long: `Inspect scanning electron microscope images: pixel calibration,
acquisition context, embedded measurements, and automatic area detection.

Examples:
  semview info sample.tif                              # Scale and context
  semview detect sample.tif --polygon "10,10;90,10;90,90;10,90"
  semview envelope annotated.tif --json                # Embedded annotations`,
	Version:       version.String(),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if !verbose {
			log.SetOutput(io.Discard)
		}
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
