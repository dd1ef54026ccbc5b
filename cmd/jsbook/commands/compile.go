package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/jsbook/internal/app"
)

func (c *CLI) newCompileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compile [file]",
		Short: "Bundle a single source file",
		Long:  "Bundle a single source file. Reads standard input when no file or \"-\" is given.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := app.StdinInput
			if len(args) == 1 {
				input = args[0]
			}
			output, _ := cmd.Flags().GetString("output")
			solid, _ := cmd.Flags().GetBool("solid")
			deps, _ := cmd.Flags().GetBool("deps")
			progress, _ := cmd.Flags().GetString("progress")

			return c.app.Compile(cmd.Context(), app.CompileOptions{
				Input:    input,
				Output:   output,
				Solid:    solid,
				Deps:     deps,
				Progress: progress,
			})
		},
	}
	cmd.Flags().StringP("output", "o", "", "Write the script to a file instead of stdout")
	cmd.Flags().Bool("solid", false, "Compile the source for the Solid runtime")
	cmd.Flags().Bool("deps", false, "Print the module dependency graph")
	addProgressFlag(cmd)
	return cmd
}

func (c *CLI) newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch <file>",
		Short: "Recompile a source file whenever it changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output, _ := cmd.Flags().GetString("output")
			solid, _ := cmd.Flags().GetBool("solid")
			progress, _ := cmd.Flags().GetString("progress")

			return c.app.Watch(cmd.Context(), app.WatchOptions{
				Input:    args[0],
				Output:   output,
				Solid:    solid,
				Progress: progress,
			})
		},
	}
	cmd.Flags().StringP("output", "o", "", "Write the script to a file instead of stdout")
	cmd.Flags().Bool("solid", false, "Compile the source for the Solid runtime")
	addProgressFlag(cmd)
	return cmd
}

func addProgressFlag(cmd *cobra.Command) {
	cmd.Flags().String("progress", "auto", "Progress output: auto, linear, or quiet")
	cmd.Flags().Bool("ci", false, "Use linear progress output (shorthand for --progress=linear)")
	cmd.PreRun = func(cmd *cobra.Command, _ []string) {
		if ci, _ := cmd.Flags().GetBool("ci"); ci {
			_ = cmd.Flags().Set("progress", "linear")
		}
	}
}
