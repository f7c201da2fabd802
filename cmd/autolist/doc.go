// Command autolist sorts newly liked Spotify tracks into playlists based on
// configured genre rules, keeping a durable ledger of everything processed.
package main
