package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"autolist/internal/sorter"
)

func newBaselineCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "baseline <date|index> [param]",
		Short: "Mark the existing library as already sorted",
		Long: "Initializes the ledger baseline without classifying anything. Date mode " +
			"marks tracks liked strictly before the given date (default today); index " +
			"mode marks the first N tracks in newest-first order (default all). The " +
			"baseline can be set only once; later calls are no-ops.",
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := sorter.ParseBaselineMode(args[0])
			if err != nil {
				return err
			}

			opts := sorter.Options{Mode: mode, BaselineOnly: true}
			if len(args) == 2 {
				switch mode {
				case sorter.BaselineByDate:
					opts.Date = args[1]
				case sorter.BaselineByIndex:
					index, err := strconv.Atoi(args[1])
					if err != nil {
						return fmt.Errorf("invalid index %q: %w", args[1], err)
					}
					opts.Index = &index
				}
			}

			return ctx.withSorter(func(runCtx context.Context, s *sorter.Sorter) error {
				stats, err := s.Run(runCtx, opts)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Baseline marked %d of %d liked tracks\n",
					stats.Baseline, stats.TotalLiked)
				return nil
			})
		},
	}
	return cmd
}
