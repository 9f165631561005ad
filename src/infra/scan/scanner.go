// Package scan implements the catalog rebuild collaborator using the
// dhowden/tag library. It walks the music directory, extracts metadata from
// every playable file, and skips unreadable files instead of failing the
// whole rebuild.
package scan

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dhowden/tag"

	"jukebox/src/features/catalog"
	"jukebox/src/music"
)

// Estimated bitrates (kbps) per container, used to derive a display duration
// from file size. dhowden/tag exposes no duration, so this stays an estimate.
var estimatedBitrate = map[string]int{
	".mp3":  192,
	".flac": 1000,
	".ogg":  160,
	".m4a":  256,
	".wav":  1411,
}

// Scanner reads track metadata from a media directory.
type Scanner struct{}

// NewScanner creates a new directory scanner.
func NewScanner() catalog.Scanner {
	return &Scanner{}
}

// CountMediaFiles counts the playable files directly under dir. This is the
// cheap checksum that decides whether the catalog must be rebuilt.
func (s *Scanner) CountMediaFiles(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read music directory %s: %w", dir, err)
	}
	count := 0
	for _, e := range entries {
		if !e.IsDir() && music.RecognizedExtension(e.Name()) {
			count++
		}
	}
	return count, nil
}

// ScanDirectory extracts metadata from every playable file under dir and
// returns the tracks in stable (sorted path) order. Files whose tags cannot
// be read still enter the catalog with filename-derived metadata; only
// unreadable files are skipped.
func (s *Scanner) ScanDirectory(ctx context.Context, dir string) ([]music.Track, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read music directory %s: %w", dir, err)
	}

	var paths []string
	for _, e := range entries {
		if !e.IsDir() && music.RecognizedExtension(e.Name()) {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(paths)

	tracks := make([]music.Track, 0, len(paths))
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		track, err := s.readTrack(path)
		if err != nil {
			slog.Warn("Skipping unreadable media file", "path", path, "error", err)
			continue
		}
		tracks = append(tracks, track)
	}

	slog.Info("Media directory scanned", "dir", dir, "tracks", len(tracks), "files", len(paths))
	return tracks, nil
}

// readTrack extracts one track's metadata. Missing tags fall back to the
// file name so a badly tagged file is still selectable.
func (s *Scanner) readTrack(path string) (music.Track, error) {
	f, err := os.Open(path)
	if err != nil {
		return music.Track{}, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return music.Track{}, fmt.Errorf("failed to stat file: %w", err)
	}
	if info.Size() == 0 {
		return music.Track{}, fmt.Errorf("file is empty")
	}

	track := music.Track{
		Path:     path,
		Title:    strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		Duration: estimateDuration(path, info.Size()),
	}

	tags, err := tag.ReadFrom(f)
	if err != nil {
		// Corrupt or absent tags; keep the filename-derived metadata.
		slog.Debug("Could not read tags, using filename metadata", "path", path, "error", err)
		track.EnsureMetadataDefaults()
		return track, nil
	}

	if title := strings.TrimSpace(tags.Title()); title != "" {
		track.Title = title
	}
	track.Artist = strings.TrimSpace(tags.Artist())
	track.Album = strings.TrimSpace(tags.Album())
	if year := tags.Year(); year > 0 {
		track.Year = fmt.Sprint(year)
	}
	track.Genre = strings.TrimSpace(tags.Genre())
	if comment := commentField(tags); comment != "" {
		// The classic jukebox keeps genre tokens (and the norandom flag) in
		// the comment field; prefer it when present.
		track.Genre = comment
	}

	track.EnsureMetadataDefaults()
	return track, nil
}

// commentField digs the free-text comment out of the raw tag map.
func commentField(tags tag.Metadata) string {
	raw := tags.Raw()
	if raw == nil {
		return ""
	}
	for _, key := range []string{"COMM", "COMMENT", "comment", "\xa9cmt", "DESCRIPTION"} {
		value, ok := raw[key]
		if !ok || value == nil {
			continue
		}
		switch v := value.(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case *tag.Comm:
			if s := strings.TrimSpace(v.Text); s != "" {
				return s
			}
		}
	}
	return ""
}

// estimateDuration derives a display duration from file size and a typical
// bitrate for the container.
func estimateDuration(path string, sizeBytes int64) string {
	bitrate := estimatedBitrate[strings.ToLower(filepath.Ext(path))]
	if bitrate <= 0 {
		return "0:00"
	}
	seconds := int(sizeBytes * 8 / int64(bitrate*1000))
	return music.FormatDuration(seconds)
}
