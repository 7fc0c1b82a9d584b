package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chrissnell/notealign/pkg/config"
)

func newConfigCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or convert configuration",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the resolved configuration and alignment parameters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return printJSON(cmd.OutOrStdout(), map[string]any{
				"config": c.cfg,
				"params": c.params,
			})
		},
	}

	importCmd := &cobra.Command{
		Use:   "import YAML SQLITE",
		Short: "Copy a YAML configuration into a SQLite configuration database",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := config.NewYAMLProvider(args[0]).LoadConfig()
			if err != nil {
				return err
			}

			dst, err := config.NewSQLiteProvider(args[1])
			if err != nil {
				return err
			}
			defer dst.Close()

			if err := dst.SaveConfig(src); err != nil {
				return fmt.Errorf("writing %s: %w", args[1], err)
			}
			c.logger.Infow("configuration imported", "from", args[0], "to", args[1], "profiles", len(src.Profiles))
			return nil
		},
	}

	cmd.AddCommand(show, importCmd)
	return cmd
}
