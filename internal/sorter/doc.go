// Package sorter runs the incremental classification pipeline: enumerate the
// liked-track library, diff it against the ledger, resolve genres, match
// rules, and file each new track into its destination playlist.
package sorter
