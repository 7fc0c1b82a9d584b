package main

import (
	"github.com/spf13/cobra"

	"github.com/chrissnell/notealign/internal/app"
)

func newServeCmd(c *cli) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the REST API until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("port") {
				c.cfg.Server.Port = port
			}
			return app.New(c.cfg, c.params, c.logger).Run(cmd.Context())
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "override server.port")
	return cmd
}
