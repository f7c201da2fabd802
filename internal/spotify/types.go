package spotify

import "time"

// Artist identifies a contributor on a track. Genres are resolved separately
// through ArtistGenres.
type Artist struct {
	ID   string
	Name string
}

// Track is a saved library track. AddedAt is the time the user saved it and
// orders the library newest first.
type Track struct {
	ID      string
	Name    string
	Artists []Artist
	AddedAt time.Time
}

// ArtistIDs returns the track's artist ids in credit order, skipping blanks.
func (t Track) ArtistIDs() []string {
	ids := make([]string, 0, len(t.Artists))
	for _, artist := range t.Artists {
		if artist.ID != "" {
			ids = append(ids, artist.ID)
		}
	}
	return ids
}

// ArtistNames returns the track's artist display names in credit order.
func (t Track) ArtistNames() []string {
	names := make([]string, 0, len(t.Artists))
	for _, artist := range t.Artists {
		if artist.Name != "" {
			names = append(names, artist.Name)
		}
	}
	return names
}

// Playlist describes an owned destination collection.
type Playlist struct {
	ID         string
	Name       string
	Owner      string
	TrackTotal int
}
