// Package ledger persists the processing record for every track the sorter
// has ever seen, backed by SQLite.
//
// Entries are write-once per track id: once a track is recorded it is never
// reprocessed on later runs. The store also keeps run metadata (last run,
// total runs) and the one-time baseline marker. Every Record call is durable
// immediately, so a crash mid-run loses at most the in-flight track.
//
// An unreadable or mismatched database is moved aside and replaced with a
// fresh one; losing the ledger never prevents a run from starting, it only
// widens the next diff.
package ledger
