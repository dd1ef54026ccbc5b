package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/jsbook/internal/app"
)

func (c *CLI) newBuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build <notebook>",
		Short: "Compile every code cell of a notebook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outDir, _ := cmd.Flags().GetString("out")
			progress, _ := cmd.Flags().GetString("progress")

			return c.app.Build(cmd.Context(), app.BuildOptions{
				Notebook: args[0],
				OutDir:   outDir,
				Progress: progress,
			})
		},
	}
	cmd.Flags().StringP("out", "o", "", "Output directory (default: dist next to the notebook)")
	addProgressFlag(cmd)
	return cmd
}
