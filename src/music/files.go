package music

import (
	"fmt"
	"path/filepath"
	"strings"
)

// mediaExtensions are the audio file extensions the jukebox will play.
var mediaExtensions = map[string]bool{
	".mp3":  true,
	".flac": true,
	".ogg":  true,
	".m4a":  true,
	".wav":  true,
}

// RecognizedExtension reports whether the path carries a playable audio extension.
func RecognizedExtension(path string) bool {
	return mediaExtensions[strings.ToLower(filepath.Ext(path))]
}

// FormatDuration renders a second count as M:SS for display and persistence.
func FormatDuration(seconds int) string {
	if seconds <= 0 {
		return "0:00"
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
