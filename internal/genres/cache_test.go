package genres_test

import (
	"context"
	"errors"
	"testing"

	"autolist/internal/genres"
	"autolist/internal/logging"
	"autolist/internal/spotify"
	"autolist/internal/testsupport"
)

func TestResolveServesCachedIDsWithoutRefetch(t *testing.T) {
	fake := testsupport.NewFakeSpotify()
	fake.Genres["a1"] = []string{"jazz"}
	fake.Genres["a2"] = []string{"metal"}
	cache := genres.NewCache(fake, 50, logging.NewNop())
	ctx := context.Background()

	cache.Resolve(ctx, []string{"a1"})
	cache.Resolve(ctx, []string{"a1", "a2"})

	if len(fake.GenreBatches) != 2 {
		t.Fatalf("expected 2 batches, got %d", len(fake.GenreBatches))
	}
	if len(fake.GenreBatches[1]) != 1 || fake.GenreBatches[1][0] != "a2" {
		t.Fatalf("second batch should only carry a2, got %v", fake.GenreBatches[1])
	}
}

func TestResolveSplitsIntoBoundedBatches(t *testing.T) {
	fake := testsupport.NewFakeSpotify()
	cache := genres.NewCache(fake, 2, logging.NewNop())

	cache.Resolve(context.Background(), []string{"a1", "a2", "a3", "a4", "a5"})

	if len(fake.GenreBatches) != 3 {
		t.Fatalf("expected 3 batches of size <=2, got %d: %v", len(fake.GenreBatches), fake.GenreBatches)
	}
	for _, batch := range fake.GenreBatches {
		if len(batch) > 2 {
			t.Fatalf("batch exceeds bound: %v", batch)
		}
	}
}

func TestFailedBatchDegradesToEmptyAndIsNotRetried(t *testing.T) {
	fake := testsupport.NewFakeSpotify()
	fake.GenresErr = errors.New("boom")
	cache := genres.NewCache(fake, 50, logging.NewNop())
	ctx := context.Background()

	result := cache.Resolve(ctx, []string{"a1", "a2"})
	if len(result["a1"]) != 0 || len(result["a2"]) != 0 {
		t.Fatalf("expected degraded empty genres, got %v", result)
	}

	// Later resolves of the same ids must not re-issue the failing batch.
	fake.GenresErr = nil
	fake.Genres["a1"] = []string{"jazz"}
	result = cache.Resolve(ctx, []string{"a1"})
	if len(result["a1"]) != 0 {
		t.Fatalf("poisoned id should stay cached-empty, got %v", result["a1"])
	}
	if len(fake.GenreBatches) != 1 {
		t.Fatalf("expected no second batch, got %d", len(fake.GenreBatches))
	}
}

func TestTrackGenresPreservesOrderAndDedupes(t *testing.T) {
	fake := testsupport.NewFakeSpotify()
	fake.Genres["a1"] = []string{"indie rock", "shoegaze"}
	fake.Genres["a2"] = []string{"shoegaze", "dream pop"}
	cache := genres.NewCache(fake, 50, logging.NewNop())

	track := spotify.Track{
		ID: "t1",
		Artists: []spotify.Artist{
			{ID: "a1", Name: "One"},
			{ID: "a2", Name: "Two"},
		},
	}
	got := cache.TrackGenres(context.Background(), track)

	want := []string{"indie rock", "shoegaze", "dream pop"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestTrackGenresEmptyForNoArtists(t *testing.T) {
	fake := testsupport.NewFakeSpotify()
	cache := genres.NewCache(fake, 50, logging.NewNop())

	got := cache.TrackGenres(context.Background(), spotify.Track{ID: "t1"})
	if len(got) != 0 {
		t.Fatalf("expected no genres, got %v", got)
	}
	if len(fake.GenreBatches) != 0 {
		t.Fatal("no batch should be issued for a track without artists")
	}
}
