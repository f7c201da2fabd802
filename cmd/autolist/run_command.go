package main

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"autolist/internal/sorter"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var initMode string
	var initDate string
	var initIndex int

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Sort new liked tracks into playlists",
		Long: "Enumerates the liked-track library, classifies tracks not yet in the " +
			"ledger, and adds each to the playlist its genre rules select. The first " +
			"run ever marks everything liked before today as baseline.",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := sorter.Options{}
			if initMode != "" {
				mode, err := sorter.ParseBaselineMode(initMode)
				if err != nil {
					return err
				}
				opts.Mode = mode
				opts.Date = initDate
				if cmd.Flags().Changed("index") {
					opts.Index = &initIndex
				}
			} else if initDate != "" || cmd.Flags().Changed("index") {
				return fmt.Errorf("--date and --index require --init")
			}

			return ctx.withSorter(func(runCtx context.Context, s *sorter.Sorter) error {
				stats, err := s.Run(runCtx, opts)
				if err != nil {
					return err
				}
				printRunSummary(cmd, stats)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&initMode, "init", "", "Initialize the baseline before sorting (date or index)")
	cmd.Flags().StringVar(&initDate, "date", "", "Baseline date (YYYY-MM-DD, default today) for --init date")
	cmd.Flags().IntVar(&initIndex, "index", 0, "Baseline position cutoff (default full library) for --init index")
	return cmd
}

func printRunSummary(cmd *cobra.Command, stats *sorter.Stats) {
	out := cmd.OutOrStdout()

	rows := [][]string{
		{"Liked tracks", strconv.Itoa(stats.TotalLiked)},
		{"New tracks", strconv.Itoa(stats.NewTracks)},
	}
	if stats.Baseline > 0 {
		rows = append(rows, []string{"Baseline", strconv.Itoa(stats.Baseline)})
	}
	rows = append(rows,
		[]string{"Sorted", strconv.Itoa(stats.Sorted)},
		[]string{"Duplicates", strconv.Itoa(stats.Duplicates)},
		[]string{"Skipped", strconv.Itoa(stats.Skipped)},
		[]string{"Errors", strconv.Itoa(stats.Errors)},
		[]string{"Duration", stats.Duration.Round(time.Millisecond).String()},
	)
	fmt.Fprintln(out, renderTable([]string{"Run", "Count"}, rows, []columnAlignment{alignLeft, alignRight}))

	if len(stats.RuleMatches) > 0 {
		genres := make([]string, 0, len(stats.RuleMatches))
		for genre := range stats.RuleMatches {
			genres = append(genres, genre)
		}
		sort.Strings(genres)
		matchRows := make([][]string, 0, len(genres))
		for _, genre := range genres {
			matchRows = append(matchRows, []string{genre, strconv.Itoa(stats.RuleMatches[genre])})
		}
		fmt.Fprintln(out, renderTable([]string{"Rule", "Matches"}, matchRows, []columnAlignment{alignLeft, alignRight}))
	}
}
