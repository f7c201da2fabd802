package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"autolist/internal/spotify"
)

func newPlaylistsCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "playlists",
		Short: "List your playlists with their identifiers",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			client := spotify.NewFromConfig(cfg)
			playlists, err := client.Playlists(context.Background())
			if err != nil {
				return fmt.Errorf("list playlists: %w", err)
			}

			if asJSON {
				type playlistView struct {
					ID     string `json:"id"`
					Name   string `json:"name"`
					Owner  string `json:"owner"`
					Tracks int    `json:"tracks"`
				}
				views := make([]playlistView, 0, len(playlists))
				for _, p := range playlists {
					views = append(views, playlistView{ID: p.ID, Name: p.Name, Owner: p.Owner, Tracks: p.TrackTotal})
				}
				return writeJSON(cmd, views)
			}

			rows := make([][]string, 0, len(playlists))
			for _, p := range playlists {
				rows = append(rows, []string{p.ID, p.Name, p.Owner, strconv.Itoa(p.TrackTotal)})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"ID", "Name", "Owner", "Tracks"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight},
			))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of a table")
	return cmd
}
