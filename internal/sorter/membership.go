package sorter

import (
	"context"
	"fmt"
	"log/slog"

	"autolist/internal/logging"
	"autolist/internal/spotify"
)

// MembershipCache answers "is this track already in that playlist" without
// refetching the playlist on every check. Each playlist is listed at most
// once per run unless invalidated.
type MembershipCache struct {
	client spotify.Client
	logger *slog.Logger
	sets   map[string]map[string]struct{}
}

// NewMembershipCache builds an empty cache over the given client.
func NewMembershipCache(client spotify.Client, logger *slog.Logger) *MembershipCache {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &MembershipCache{
		client: client,
		logger: logger,
		sets:   make(map[string]map[string]struct{}),
	}
}

// Contains reports whether the playlist already holds the track, fetching the
// full membership on first access per playlist.
func (c *MembershipCache) Contains(ctx context.Context, playlistID, trackID string) (bool, error) {
	members, ok := c.sets[playlistID]
	if !ok {
		fetched, err := c.client.PlaylistTrackIDs(ctx, playlistID)
		if err != nil {
			return false, fmt.Errorf("list playlist members: %w", err)
		}
		c.logger.Debug("playlist membership loaded",
			logging.String(logging.FieldPlaylist, playlistID),
			logging.Int("members", len(fetched)))
		c.sets[playlistID] = fetched
		members = fetched
	}
	_, present := members[trackID]
	return present, nil
}

// Invalidate drops the cached membership for a playlist. Call it after every
// successful add; the next Contains refetches instead of patching the set
// locally, trading one extra listing for correctness.
func (c *MembershipCache) Invalidate(playlistID string) {
	delete(c.sets, playlistID)
}

// Size returns the number of playlists currently cached.
func (c *MembershipCache) Size() int {
	return len(c.sets)
}
