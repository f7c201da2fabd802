package main

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"autolist/internal/config"
	"autolist/internal/ledger"
)

func newLedgerCommand(ctx *commandContext) *cobra.Command {
	ledgerCmd := &cobra.Command{
		Use:   "ledger",
		Short: "Inspect and manage the processing ledger",
	}

	ledgerCmd.AddCommand(newLedgerStatsCommand(ctx))
	ledgerCmd.AddCommand(newLedgerEntriesCommand(ctx))
	ledgerCmd.AddCommand(newLedgerExportCommand(ctx))
	ledgerCmd.AddCommand(newLedgerForgetCommand(ctx))

	return ledgerCmd
}

func newLedgerStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show ledger totals per outcome",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(runCtx context.Context, cfg *config.Config, store *ledger.Store, logger *slog.Logger) error {
				summary, err := store.Summary(runCtx)
				if err != nil {
					return fmt.Errorf("summarize ledger: %w", err)
				}
				meta, err := store.Meta(runCtx)
				if err != nil {
					return fmt.Errorf("load ledger metadata: %w", err)
				}

				total := 0
				rows := make([][]string, 0, len(summary)+1)
				for _, outcome := range []ledger.Outcome{
					ledger.OutcomeBaseline,
					ledger.OutcomeSorted,
					ledger.OutcomeDuplicate,
					ledger.OutcomeSkipped,
					ledger.OutcomeError,
				} {
					count := summary[outcome]
					total += count
					rows = append(rows, []string{string(outcome), strconv.Itoa(count)})
				}
				rows = append(rows, []string{"total", strconv.Itoa(total)})

				out := cmd.OutOrStdout()
				fmt.Fprintln(out, renderTable([]string{"Outcome", "Tracks"}, rows, []columnAlignment{alignLeft, alignRight}))
				fmt.Fprintf(out, "Total runs: %d\n", meta.TotalRuns)
				if meta.LastRun != nil {
					fmt.Fprintf(out, "Last run:   %s\n", meta.LastRun.Local().Format("2006-01-02 15:04:05"))
				}
				switch {
				case meta.BaselineDate != "":
					fmt.Fprintf(out, "Baseline:   date %s\n", meta.BaselineDate)
				case meta.BaselineIndex != nil:
					fmt.Fprintf(out, "Baseline:   index %d\n", *meta.BaselineIndex)
				default:
					fmt.Fprintln(out, "Baseline:   not initialized")
				}
				return nil
			})
		},
	}
}

func newLedgerEntriesCommand(ctx *commandContext) *cobra.Command {
	var outcomeFlag string
	var limit int

	cmd := &cobra.Command{
		Use:   "entries",
		Short: "List processed tracks, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			var outcome ledger.Outcome
			if trimmed := strings.TrimSpace(outcomeFlag); trimmed != "" {
				parsed, err := ledger.ParseOutcome(trimmed)
				if err != nil {
					return err
				}
				outcome = parsed
			}

			return ctx.withStore(func(runCtx context.Context, cfg *config.Config, store *ledger.Store, logger *slog.Logger) error {
				entries, err := store.Entries(runCtx, outcome)
				if err != nil {
					return fmt.Errorf("list ledger entries: %w", err)
				}
				if limit > 0 && len(entries) > limit {
					entries = entries[:limit]
				}

				rows := make([][]string, 0, len(entries))
				for _, entry := range entries {
					rows = append(rows, []string{
						entry.TrackID,
						entry.TrackName,
						strings.Join(entry.Artists, ", "),
						string(entry.Outcome),
						entry.PlaylistID,
						entry.ProcessedAt.Local().Format("2006-01-02 15:04"),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"Track", "Name", "Artists", "Outcome", "Playlist", "Processed"},
					rows,
					nil,
				))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&outcomeFlag, "outcome", "", "Filter by outcome (baseline, sorted, duplicate, skipped, error)")
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum entries to show (0 for all)")
	return cmd
}

func newLedgerExportCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Dump the full ledger state as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(runCtx context.Context, cfg *config.Config, store *ledger.Store, logger *slog.Logger) error {
				state, err := store.Export(runCtx)
				if err != nil {
					return fmt.Errorf("export ledger: %w", err)
				}
				return writeJSON(cmd, state)
			})
		},
	}
}

func newLedgerForgetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "forget <track-id>",
		Short: "Remove a track from the ledger so the next run reprocesses it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			trackID := strings.TrimSpace(args[0])
			if trackID == "" {
				return fmt.Errorf("track id is required")
			}
			return ctx.withStore(func(runCtx context.Context, cfg *config.Config, store *ledger.Store, logger *slog.Logger) error {
				removed, err := store.Forget(runCtx, trackID)
				if err != nil {
					return fmt.Errorf("forget %s: %w", trackID, err)
				}
				if !removed {
					return fmt.Errorf("track %s is not in the ledger", trackID)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %s; the next run will reprocess it\n", trackID)
				return nil
			})
		},
	}
}
