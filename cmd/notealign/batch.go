package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/chrissnell/notealign/internal/align"
	"github.com/chrissnell/notealign/internal/app"
	"github.com/chrissnell/notealign/internal/batch"
	"github.com/chrissnell/notealign/internal/storage"
)

func newBatchCmd(c *cli) *cobra.Command {
	var noStore bool

	cmd := &cobra.Command{
		Use:   "batch [ROOT]",
		Short: "Align every case directory under ROOT",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			b := c.cfg.Batch
			opts := batch.Options{
				Root:          b.Root,
				ReferenceName: b.ReferenceName,
				DerivedName:   b.DerivedName,
				OutputName:    b.OutputName,
				MergedName:    b.MergedName,
				Overlap:       c.overlapOptions(),
			}
			if len(args) == 1 {
				opts.Root = args[0]
			}

			var store storage.RunStore
			if !noStore {
				s, backend, err := app.OpenStore(ctx, c.cfg.Storage, c.logger)
				if err != nil {
					c.logger.Warnw("runs will not be persisted", "error", err)
				} else {
					c.logger.Infow("persisting runs", "store", backend)
					store = s
					defer store.Close()
				}
			}

			aligner, err := align.NewAligner(c.params, c.logger)
			if err != nil {
				return err
			}

			sum, err := batch.NewRunner(aligner, store, opts, c.logger).Run(ctx)
			if sum != nil {
				if perr := printJSON(cmd.OutOrStdout(), sum); perr != nil {
					return perr
				}
			}
			if err != nil {
				return err
			}
			if len(sum.Failed) > 0 {
				return fmt.Errorf("%d of %d cases failed", len(sum.Failed), sum.Total)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&noStore, "no-store", false, "do not persist runs even if a store is configured")
	return cmd
}
