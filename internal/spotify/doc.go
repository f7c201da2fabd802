// Package spotify implements the authenticated Spotify Web API client used
// by the sorter.
//
// The client walks paginated listings to exhaustion, batches artist genre
// lookups, and performs single playlist writes. Every request waits out a
// minimum inter-call delay to stay under remote rate limits. Failures are
// reported to the caller; the client never retries on its own.
package spotify
