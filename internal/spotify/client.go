package spotify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"autolist/internal/config"
)

// Client is the remote surface the sorter depends on. Implementations must be
// safe for sequential use; the sorter never issues concurrent calls.
type Client interface {
	// CheckAuth probes the current token. ErrUnauthorized means the token is
	// expired or revoked.
	CheckAuth(ctx context.Context) error
	// LikedTracks walks the saved-track listing to exhaustion, newest first.
	LikedTracks(ctx context.Context) ([]Track, error)
	// ArtistGenres resolves genres for up to MaxBatchSize artist ids in one
	// request. Artists the service cannot resolve map to an empty list.
	ArtistGenres(ctx context.Context, ids []string) (map[string][]string, error)
	// PlaylistTrackIDs returns every track id currently in the playlist.
	PlaylistTrackIDs(ctx context.Context, playlistID string) (map[string]struct{}, error)
	// AddToPlaylist appends one track to the playlist.
	AddToPlaylist(ctx context.Context, playlistID, trackID string) error
	// Playlists lists the user's playlists with stable identifiers.
	Playlists(ctx context.Context) ([]Playlist, error)
}

// MaxBatchSize is the largest id set the artists endpoint accepts.
const MaxBatchSize = config.MaxBatchSize

const likedPageLimit = 50

// HTTPDoer abstracts http.Client.Do for testing.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

type httpClient struct {
	baseURL     string
	token       string
	client      HTTPDoer
	minInterval time.Duration

	mu       sync.Mutex
	lastCall time.Time
}

// NewHTTPClient constructs a Spotify API client over the provided HTTP
// backend. minInterval is the enforced delay between consecutive requests.
func NewHTTPClient(baseURL, token string, minInterval time.Duration, doer HTTPDoer) Client {
	return &httpClient{
		baseURL:     strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		token:       strings.TrimSpace(token),
		client:      doer,
		minInterval: minInterval,
	}
}

// NewFromConfig builds the production client from configuration.
func NewFromConfig(cfg *config.Config) Client {
	timeout := time.Duration(cfg.Spotify.TimeoutSeconds) * time.Second
	return NewHTTPClient(
		cfg.Spotify.BaseURL,
		cfg.Spotify.AccessToken,
		time.Duration(cfg.Spotify.RequestDelayMS)*time.Millisecond,
		&http.Client{Timeout: timeout},
	)
}

func (c *httpClient) CheckAuth(ctx context.Context) error {
	var resp struct {
		ID string `json:"id"`
	}
	return c.doJSON(ctx, http.MethodGet, c.baseURL+"/me", nil, &resp)
}

type savedTrackPage struct {
	Items []struct {
		AddedAt string `json:"added_at"`
		Track   *struct {
			ID      string `json:"id"`
			Name    string `json:"name"`
			Artists []struct {
				ID   string `json:"id"`
				Name string `json:"name"`
			} `json:"artists"`
		} `json:"track"`
	} `json:"items"`
}

func (c *httpClient) LikedTracks(ctx context.Context) ([]Track, error) {
	var tracks []Track
	offset := 0

	for {
		query := url.Values{}
		query.Set("limit", strconv.Itoa(likedPageLimit))
		query.Set("offset", strconv.Itoa(offset))
		query.Set("market", "from_token")

		var page savedTrackPage
		if err := c.doJSON(ctx, http.MethodGet, c.baseURL+"/me/tracks?"+query.Encode(), nil, &page); err != nil {
			return nil, fmt.Errorf("list saved tracks at offset %d: %w", offset, err)
		}
		if len(page.Items) == 0 {
			break
		}

		for _, item := range page.Items {
			if item.Track == nil || item.Track.ID == "" {
				continue
			}
			track := Track{ID: item.Track.ID, Name: item.Track.Name}
			for _, artist := range item.Track.Artists {
				track.Artists = append(track.Artists, Artist{ID: artist.ID, Name: artist.Name})
			}
			if item.AddedAt != "" {
				if ts, err := time.Parse(time.RFC3339, item.AddedAt); err == nil {
					track.AddedAt = ts
				}
			}
			tracks = append(tracks, track)
		}
		offset += len(page.Items)
	}

	return tracks, nil
}

func (c *httpClient) ArtistGenres(ctx context.Context, ids []string) (map[string][]string, error) {
	genres := make(map[string][]string, len(ids))
	if len(ids) == 0 {
		return genres, nil
	}
	if len(ids) > MaxBatchSize {
		return nil, fmt.Errorf("spotify: artist batch of %d exceeds limit %d", len(ids), MaxBatchSize)
	}

	query := url.Values{}
	query.Set("ids", strings.Join(ids, ","))

	var resp struct {
		Artists []*struct {
			ID     string   `json:"id"`
			Genres []string `json:"genres"`
		} `json:"artists"`
	}
	if err := c.doJSON(ctx, http.MethodGet, c.baseURL+"/artists?"+query.Encode(), nil, &resp); err != nil {
		return nil, fmt.Errorf("resolve artist genres: %w", err)
	}

	for _, artist := range resp.Artists {
		if artist == nil || artist.ID == "" {
			continue
		}
		genres[artist.ID] = artist.Genres
	}
	// Ids the service returned null for degrade to no genres.
	for _, id := range ids {
		if _, ok := genres[id]; !ok {
			genres[id] = nil
		}
	}
	return genres, nil
}

func (c *httpClient) PlaylistTrackIDs(ctx context.Context, playlistID string) (map[string]struct{}, error) {
	ids := make(map[string]struct{})
	next := fmt.Sprintf("%s/playlists/%s/tracks", c.baseURL, url.PathEscape(playlistID))

	for next != "" {
		var page struct {
			Items []struct {
				Track *struct {
					ID string `json:"id"`
				} `json:"track"`
			} `json:"items"`
			Next string `json:"next"`
		}
		if err := c.doJSON(ctx, http.MethodGet, next, nil, &page); err != nil {
			return nil, fmt.Errorf("list playlist %s tracks: %w", playlistID, err)
		}
		for _, item := range page.Items {
			if item.Track != nil && item.Track.ID != "" {
				ids[item.Track.ID] = struct{}{}
			}
		}
		next = page.Next
	}

	return ids, nil
}

func (c *httpClient) AddToPlaylist(ctx context.Context, playlistID, trackID string) error {
	body := map[string][]string{
		"uris": {"spotify:track:" + trackID},
	}
	endpoint := fmt.Sprintf("%s/playlists/%s/tracks", c.baseURL, url.PathEscape(playlistID))
	if err := c.doJSON(ctx, http.MethodPost, endpoint, body, nil); err != nil {
		return fmt.Errorf("add track %s to playlist %s: %w", trackID, playlistID, err)
	}
	return nil
}

func (c *httpClient) Playlists(ctx context.Context) ([]Playlist, error) {
	var playlists []Playlist
	next := c.baseURL + "/me/playlists"

	for next != "" {
		var page struct {
			Items []struct {
				ID    string `json:"id"`
				Name  string `json:"name"`
				Owner struct {
					DisplayName string `json:"display_name"`
				} `json:"owner"`
				Tracks struct {
					Total int `json:"total"`
				} `json:"tracks"`
			} `json:"items"`
			Next string `json:"next"`
		}
		if err := c.doJSON(ctx, http.MethodGet, next, nil, &page); err != nil {
			return nil, fmt.Errorf("list playlists: %w", err)
		}
		for _, item := range page.Items {
			if item.ID == "" {
				continue
			}
			playlists = append(playlists, Playlist{
				ID:         item.ID,
				Name:       item.Name,
				Owner:      item.Owner.DisplayName,
				TrackTotal: item.Tracks.Total,
			})
		}
		next = page.Next
	}

	return playlists, nil
}

func (c *httpClient) doJSON(ctx context.Context, method, endpoint string, body any, out any) error {
	if err := c.pace(ctx); err != nil {
		return err
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("spotify request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return statusError(method, req.URL.Path, resp.StatusCode, strings.TrimSpace(string(bodyBytes)))
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// pace blocks until the minimum inter-call delay has elapsed since the
// previous request, or the context is cancelled.
func (c *httpClient) pace(ctx context.Context) error {
	if c.minInterval <= 0 {
		return ctx.Err()
	}

	c.mu.Lock()
	wait := c.minInterval - time.Since(c.lastCall)
	if c.lastCall.IsZero() {
		wait = 0
	}
	c.lastCall = time.Now().Add(wait)
	c.mu.Unlock()

	if wait <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
