package genres

import (
	"context"
	"log/slog"

	"autolist/internal/logging"
	"autolist/internal/spotify"
)

// Resolver is the remote batch lookup the cache delegates to.
type Resolver interface {
	ArtistGenres(ctx context.Context, ids []string) (map[string][]string, error)
}

// Cache memoizes artist-id to genre-list lookups for one run.
type Cache struct {
	resolver  Resolver
	batchSize int
	logger    *slog.Logger
	cache     map[string][]string
}

// NewCache builds an empty cache over the given resolver. batchSize bounds
// each remote request and is clamped to the remote maximum.
func NewCache(resolver Resolver, batchSize int, logger *slog.Logger) *Cache {
	if batchSize <= 0 || batchSize > spotify.MaxBatchSize {
		batchSize = spotify.MaxBatchSize
	}
	return &Cache{
		resolver:  resolver,
		batchSize: batchSize,
		logger:    logging.NewComponentLogger(logger, "genre-cache"),
		cache:     make(map[string][]string),
	}
}

// Resolve returns genres for every requested artist id, consulting the cache
// first and batching the remainder. A failed batch degrades its ids to empty
// genre lists and is not retried within the run.
func (c *Cache) Resolve(ctx context.Context, ids []string) map[string][]string {
	var uncached []string
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if _, ok := c.cache[id]; !ok {
			uncached = append(uncached, id)
		}
	}

	for start := 0; start < len(uncached); start += c.batchSize {
		end := min(start+c.batchSize, len(uncached))
		batch := uncached[start:end]

		resolved, err := c.resolver.ArtistGenres(ctx, batch)
		if err != nil {
			c.logger.Warn("genre batch failed; degrading ids to empty genres",
				logging.Int("batch_size", len(batch)),
				logging.Error(err),
			)
			for _, id := range batch {
				c.cache[id] = nil
			}
			continue
		}
		for _, id := range batch {
			c.cache[id] = resolved[id]
		}
	}

	result := make(map[string][]string, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		result[id] = c.cache[id]
	}
	return result
}

// TrackGenres resolves and flattens genres for a track's artists in credit
// order, de-duplicating while preserving first appearance.
func (c *Cache) TrackGenres(ctx context.Context, track spotify.Track) []string {
	ids := track.ArtistIDs()
	if len(ids) == 0 {
		return nil
	}
	byArtist := c.Resolve(ctx, ids)

	var genres []string
	seen := make(map[string]struct{})
	for _, id := range ids {
		for _, genre := range byArtist[id] {
			if _, dup := seen[genre]; dup {
				continue
			}
			seen[genre] = struct{}{}
			genres = append(genres, genre)
		}
	}
	return genres
}

// Size returns the number of cached artist ids.
func (c *Cache) Size() int {
	return len(c.cache)
}
