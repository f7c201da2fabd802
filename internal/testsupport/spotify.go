package testsupport

import (
	"context"
	"fmt"
	"sync"

	"autolist/internal/spotify"
)

// FakeSpotify is an in-memory spotify.Client for orchestrator tests. It
// records calls so tests can assert on batching, pagination, and writes.
type FakeSpotify struct {
	mu sync.Mutex

	Tracks       []spotify.Track
	Genres       map[string][]string
	Members      map[string]map[string]struct{}
	PlaylistList []spotify.Playlist

	AuthErr    error
	ListErr    error
	GenresErr  error
	MembersErr map[string]error
	AddErr     map[string]error

	GenreBatches [][]string
	MemberFetch  map[string]int
	Added        map[string][]string
}

// NewFakeSpotify builds an empty fake remote service.
func NewFakeSpotify() *FakeSpotify {
	return &FakeSpotify{
		Genres:      make(map[string][]string),
		Members:     make(map[string]map[string]struct{}),
		MembersErr:  make(map[string]error),
		AddErr:      make(map[string]error),
		MemberFetch: make(map[string]int),
		Added:       make(map[string][]string),
	}
}

func (f *FakeSpotify) CheckAuth(ctx context.Context) error {
	return f.AuthErr
}

func (f *FakeSpotify) LikedTracks(ctx context.Context) ([]spotify.Track, error) {
	if f.ListErr != nil {
		return nil, f.ListErr
	}
	out := make([]spotify.Track, len(f.Tracks))
	copy(out, f.Tracks)
	return out, nil
}

func (f *FakeSpotify) ArtistGenres(ctx context.Context, ids []string) (map[string][]string, error) {
	f.mu.Lock()
	batch := make([]string, len(ids))
	copy(batch, ids)
	f.GenreBatches = append(f.GenreBatches, batch)
	f.mu.Unlock()

	if f.GenresErr != nil {
		return nil, f.GenresErr
	}
	if len(ids) > spotify.MaxBatchSize {
		return nil, fmt.Errorf("batch of %d exceeds limit", len(ids))
	}
	result := make(map[string][]string, len(ids))
	for _, id := range ids {
		result[id] = f.Genres[id]
	}
	return result, nil
}

func (f *FakeSpotify) PlaylistTrackIDs(ctx context.Context, playlistID string) (map[string]struct{}, error) {
	f.mu.Lock()
	f.MemberFetch[playlistID]++
	f.mu.Unlock()

	if err := f.MembersErr[playlistID]; err != nil {
		return nil, err
	}
	members := make(map[string]struct{})
	for id := range f.Members[playlistID] {
		members[id] = struct{}{}
	}
	return members, nil
}

func (f *FakeSpotify) AddToPlaylist(ctx context.Context, playlistID, trackID string) error {
	if err := f.AddErr[trackID]; err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Members[playlistID] == nil {
		f.Members[playlistID] = make(map[string]struct{})
	}
	f.Members[playlistID][trackID] = struct{}{}
	f.Added[playlistID] = append(f.Added[playlistID], trackID)
	return nil
}

func (f *FakeSpotify) Playlists(ctx context.Context) ([]spotify.Playlist, error) {
	out := make([]spotify.Playlist, len(f.PlaylistList))
	copy(out, f.PlaylistList)
	return out, nil
}

var _ spotify.Client = (*FakeSpotify)(nil)
