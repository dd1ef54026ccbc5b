package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/jsbook/internal/app"
)

func (c *CLI) newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the compile API and preview page over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			addr, _ := cmd.Flags().GetString("addr")
			return c.app.Serve(cmd.Context(), app.ServeOptions{Addr: addr})
		},
	}
	cmd.Flags().String("addr", "", "Listen address (default: server.addr from jsbook.yaml)")
	return cmd
}
