package music

import (
	"sort"
	"strings"
)

// Catalog is an immutable snapshot of the track list. Track indices are
// stable for the lifetime of one snapshot and are the sole cross-reference
// key used by queues and logs. A rebuild produces a new snapshot and
// invalidates every index of the old one.
type Catalog struct {
	tracks []Track
}

// NewCatalog builds a snapshot from an ordered track list, assigning each
// track its positional index.
func NewCatalog(tracks []Track) *Catalog {
	snapshot := make([]Track, len(tracks))
	copy(snapshot, tracks)
	for i := range snapshot {
		snapshot[i].Index = i
		snapshot[i].EnsureMetadataDefaults()
	}
	return &Catalog{tracks: snapshot}
}

// Len returns the number of tracks in the snapshot.
func (c *Catalog) Len() int {
	return len(c.tracks)
}

// Get returns the track at the given index, or false when the index is out
// of range for this snapshot.
func (c *Catalog) Get(index int) (Track, bool) {
	if index < 0 || index >= len(c.tracks) {
		return Track{}, false
	}
	return c.tracks[index], true
}

// Tracks returns the snapshot's track list. Callers must not mutate it.
func (c *Catalog) Tracks() []Track {
	return c.tracks
}

// Search returns tracks whose title, artist or album contains the term,
// case-insensitive. An empty term matches nothing.
func (c *Catalog) Search(term string) []Track {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return nil
	}
	var matches []Track
	for _, t := range c.tracks {
		if strings.Contains(strings.ToLower(t.Title), term) ||
			strings.Contains(strings.ToLower(t.Artist), term) ||
			strings.Contains(strings.ToLower(t.Album), term) {
			matches = append(matches, t)
		}
	}
	return matches
}

// Genres returns the sorted set of genre tokens present in the snapshot,
// excluding the no-random exclusion tag.
func (c *Catalog) Genres() []string {
	seen := make(map[string]struct{})
	for _, t := range c.tracks {
		for _, token := range t.GenreTokens() {
			if strings.EqualFold(token, NoRandomTag) {
				continue
			}
			seen[strings.ToLower(token)] = struct{}{}
		}
	}
	genres := make([]string, 0, len(seen))
	for g := range seen {
		genres = append(genres, g)
	}
	sort.Strings(genres)
	return genres
}
