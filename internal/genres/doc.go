// Package genres memoizes artist genre lookups for the lifetime of one run.
//
// Uncached artist ids are grouped into bounded batches for the remote
// resolver. A failed batch caches empty genres for every id it carried so a
// poisoned id cannot stall the rest of the run; genre data may change
// upstream, so the cache is never persisted.
package genres
