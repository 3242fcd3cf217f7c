package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/prosumer/core/dispatch"
)

var (
	winSteps   int
	winHorizon int
)

var windowsCmd = &cobra.Command{
	Use:   "windows",
	Short: "Print the optimization windows for a number of steps",
	RunE: func(cmd *cobra.Command, _ []string) error {
		windows, err := dispatch.Segment(winSteps, winHorizon)
		if err != nil {
			return err
		}
		for _, w := range windows {
			if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d\n", w, w.Len()); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	windowsCmd.Flags().IntVar(&winSteps, "steps", 0, "number of timesteps")
	windowsCmd.Flags().IntVar(&winHorizon, "horizon", 24, "window length")
	_ = windowsCmd.MarkFlagRequired("steps")
	rootCmd.AddCommand(windowsCmd)
}
