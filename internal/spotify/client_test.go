package spotify_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"autolist/internal/spotify"
)

func newTestClient(t *testing.T, handler http.Handler) (spotify.Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client := spotify.NewHTTPClient(server.URL, "test-token", 0, server.Client())
	return client, server
}

func TestLikedTracksPaginatesToExhaustion(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/me/tracks", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("unexpected auth header %q", got)
		}
		offset := r.URL.Query().Get("offset")
		w.Header().Set("Content-Type", "application/json")
		switch offset {
		case "0":
			fmt.Fprint(w, `{"items":[
				{"added_at":"2024-03-02T10:00:00Z","track":{"id":"t1","name":"One","artists":[{"id":"a1","name":"Artist One"}]}},
				{"added_at":"2024-03-01T10:00:00Z","track":{"id":"t2","name":"Two","artists":[{"id":"a2","name":"Artist Two"}]}}
			]}`)
		case "2":
			fmt.Fprint(w, `{"items":[
				{"added_at":"2024-02-01T10:00:00Z","track":{"id":"t3","name":"Three","artists":[]}}
			]}`)
		default:
			fmt.Fprint(w, `{"items":[]}`)
		}
	})

	client, _ := newTestClient(t, mux)
	tracks, err := client.LikedTracks(context.Background())
	if err != nil {
		t.Fatalf("LikedTracks failed: %v", err)
	}
	if len(tracks) != 3 {
		t.Fatalf("expected 3 tracks, got %d", len(tracks))
	}
	if tracks[0].ID != "t1" || tracks[2].ID != "t3" {
		t.Fatalf("unexpected ordering: %#v", tracks)
	}
	if tracks[0].AddedAt.IsZero() {
		t.Fatal("expected added_at to be parsed")
	}
}

func TestLikedTracksSkipsNullEntries(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/me/tracks", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("offset") == "0" {
			fmt.Fprint(w, `{"items":[
				{"added_at":"2024-03-02T10:00:00Z","track":null},
				{"added_at":"2024-03-01T10:00:00Z","track":{"id":"t2","name":"Two","artists":[]}}
			]}`)
			return
		}
		fmt.Fprint(w, `{"items":[]}`)
	})

	client, _ := newTestClient(t, mux)
	tracks, err := client.LikedTracks(context.Background())
	if err != nil {
		t.Fatalf("LikedTracks failed: %v", err)
	}
	if len(tracks) != 1 || tracks[0].ID != "t2" {
		t.Fatalf("expected only t2, got %#v", tracks)
	}
}

func TestArtistGenresDegradesNullArtists(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/artists", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"artists":[{"id":"a1","genres":["jazz","bebop"]},null]}`)
	})

	client, _ := newTestClient(t, mux)
	genres, err := client.ArtistGenres(context.Background(), []string{"a1", "gone"})
	if err != nil {
		t.Fatalf("ArtistGenres failed: %v", err)
	}
	if len(genres["a1"]) != 2 {
		t.Fatalf("expected two genres for a1, got %v", genres["a1"])
	}
	if got, ok := genres["gone"]; !ok || len(got) != 0 {
		t.Fatalf("expected empty genres for unresolved artist, got %v (ok=%v)", got, ok)
	}
}

func TestArtistGenresRejectsOversizedBatch(t *testing.T) {
	client := spotify.NewHTTPClient("http://unused", "tok", 0, http.DefaultClient)
	ids := make([]string, spotify.MaxBatchSize+1)
	for i := range ids {
		ids[i] = fmt.Sprintf("a%d", i)
	}
	if _, err := client.ArtistGenres(context.Background(), ids); err == nil {
		t.Fatal("expected error for oversized batch")
	}
}

func TestPlaylistTrackIDsFollowsNextURL(t *testing.T) {
	var server *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("/playlists/pl1/tracks", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"items":[{"track":{"id":"t1"}}],"next":"%s/page2"}`, server.URL)
	})
	mux.HandleFunc("/page2", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"items":[{"track":{"id":"t2"}},{"track":null}],"next":null}`)
	})
	server = httptest.NewServer(mux)
	t.Cleanup(server.Close)

	client := spotify.NewHTTPClient(server.URL, "tok", 0, server.Client())
	ids, err := client.PlaylistTrackIDs(context.Background(), "pl1")
	if err != nil {
		t.Fatalf("PlaylistTrackIDs failed: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("expected 2 ids, got %v", ids)
	}
	if _, ok := ids["t2"]; !ok {
		t.Fatalf("expected t2 from second page, got %v", ids)
	}
}

func TestAddToPlaylistPostsTrackURI(t *testing.T) {
	var gotBody struct {
		URIs []string `json:"uris"`
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/playlists/pl1/tracks", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
	})

	client, _ := newTestClient(t, mux)
	if err := client.AddToPlaylist(context.Background(), "pl1", "t9"); err != nil {
		t.Fatalf("AddToPlaylist failed: %v", err)
	}
	if len(gotBody.URIs) != 1 || gotBody.URIs[0] != "spotify:track:t9" {
		t.Fatalf("unexpected body: %#v", gotBody)
	}
}

func TestStatusMapping(t *testing.T) {
	cases := []struct {
		status int
		want   error
	}{
		{http.StatusUnauthorized, spotify.ErrUnauthorized},
		{http.StatusNotFound, spotify.ErrNotFound},
		{http.StatusForbidden, spotify.ErrNotFound},
		{http.StatusTooManyRequests, spotify.ErrRateLimited},
	}
	for _, tc := range cases {
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
		}))
		err := client.CheckAuth(context.Background())
		if !errors.Is(err, tc.want) {
			t.Errorf("status %d: got %v, want %v", tc.status, err, tc.want)
		}
	}
}

func TestServerErrorIsReportedNotRetried(t *testing.T) {
	calls := 0
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))

	if err := client.CheckAuth(context.Background()); err == nil {
		t.Fatal("expected error for 500 response")
	}
	if calls != 1 {
		t.Fatalf("expected a single attempt, got %d", calls)
	}
}
