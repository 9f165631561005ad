package music

import (
	"fmt"
	"strings"
)

// InactiveGenre is the sentinel stored in a genre filter slot that is not set.
const InactiveGenre = "null"

// NoRandomTag excludes a track from the random rotation when present in its
// genre field. Matched as a whole token, not a substring.
const NoRandomTag = "norandom"

// Track represents a single playable audio file within a catalog snapshot.
// The JSON field names keep the on-disk contract of MusicMasterSongList.txt
// so existing front-ends can keep reading it.
type Track struct {
	Index    int    `json:"number"`
	Path     string `json:"location"`
	Title    string `json:"title"`
	Artist   string `json:"artist"`
	Album    string `json:"album"`
	Year     string `json:"year"`
	Genre    string `json:"comment"`
	Duration string `json:"duration"`
}

// GenreTokens splits the free-text genre field into individual tokens.
func (t *Track) GenreTokens() []string {
	return strings.Fields(t.Genre)
}

// HasGenre reports whether any genre token equals the given token.
// Comparison is case-insensitive.
func (t *Track) HasGenre(token string) bool {
	for _, g := range t.GenreTokens() {
		if strings.EqualFold(g, token) {
			return true
		}
	}
	return false
}

// Randomizable reports whether the track may appear in the random rotation.
func (t *Track) Randomizable() bool {
	return !t.HasGenre(NoRandomTag)
}

// Display returns the "Artist - Title" form used by the upcoming list and the play log.
func (t *Track) Display() string {
	artist := t.Artist
	if artist == "" {
		artist = "Unknown Artist"
	}
	title := t.Title
	if title == "" {
		title = "Unknown Title"
	}
	return fmt.Sprintf("%s - %s", artist, title)
}

// EnsureMetadataDefaults adds fallback values for missing metadata fields.
func (t *Track) EnsureMetadataDefaults() {
	if strings.TrimSpace(t.Artist) == "" {
		t.Artist = "Unknown Artist"
	}
	if strings.TrimSpace(t.Album) == "" {
		t.Album = "Unknown Album"
	}
	if strings.TrimSpace(t.Genre) == "" {
		t.Genre = "Unknown"
	}
	if strings.TrimSpace(t.Duration) == "" {
		t.Duration = "0:00"
	}
}

// Validate validates the track fields.
func (t *Track) Validate() error {
	if t.Index < 0 {
		return fmt.Errorf("track index cannot be negative, got %d", t.Index)
	}
	if strings.TrimSpace(t.Path) == "" {
		return fmt.Errorf("track path cannot be empty")
	}
	if len(t.Path) > 1000 {
		return fmt.Errorf("track path cannot exceed 1000 characters, got %d: path -> %s", len(t.Path), t.Path)
	}
	if len(t.Title) > 500 {
		return fmt.Errorf("title cannot exceed 500 characters, got %d: title -> %s", len(t.Title), t.Title)
	}
	return nil
}
