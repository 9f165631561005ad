// Package store persists jukebox state as small JSON files under the data
// directory, using write-to-temp-then-atomic-rename so a crash mid-write can
// never corrupt the next startup. File names keep the contract of the
// classic jukebox so existing front-ends can read them directly.
package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Persisted file names within the data directory.
const (
	MasterListFile  = "MusicMasterSongList.txt"
	MasterCheckFile = "MusicMasterSongListCheck.txt"
	PaidQueueFile   = "PaidMusicPlayList.txt"
	RotationFile    = "RandomPlayList.txt"
	GenreFlagsFile  = "GenreFlagsList.txt"
	NowPlayingFile  = "CurrentSongPlaying.txt"
	LogFile         = "log.txt"
	CreditsFile     = "Credits.txt"
)

const logTimeFormat = "2006-01-02 15:04:05"

// Store reads and writes persisted jukebox state files.
type Store struct {
	dir    string
	backup bool
}

// New creates a store rooted at dir. When backup is true every overwrite
// first copies the previous file contents to a .bak sibling.
func New(dir string, backup bool) *Store {
	return &Store{dir: dir, backup: backup}
}

// Path returns the absolute location of a persisted file.
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, name)
}

// WriteJSON atomically replaces the named file with the JSON encoding of v.
func (s *Store) WriteJSON(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", name, err)
	}
	return s.writeAtomic(name, data)
}

// ReadJSON decodes the named file into v. Missing files return os.ErrNotExist.
func (s *Store) ReadJSON(name string, v any) error {
	data, err := os.ReadFile(s.Path(name))
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", name, err)
	}
	return nil
}

// ReadIntSlice loads a persisted index list. A missing, truncated or
// otherwise corrupt file yields an empty list with a warning; queue files
// must never stop the engine from starting.
func (s *Store) ReadIntSlice(name string) []int {
	var vals []int
	if err := s.ReadJSON(name, &vals); err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("Discarding corrupt index list", "file", name, "error", err)
			if s.restoreBackup(name) {
				if err := s.ReadJSON(name, &vals); err == nil {
					return vals
				}
				vals = nil
			}
		}
		return []int{}
	}
	if vals == nil {
		vals = []int{}
	}
	return vals
}

// WriteIntSlice persists an index list.
func (s *Store) WriteIntSlice(name string, vals []int) error {
	if vals == nil {
		vals = []int{}
	}
	return s.WriteJSON(name, vals)
}

// WriteNowPlaying atomically records the path of the track now playing.
func (s *Store) WriteNowPlaying(path string) error {
	return s.writeAtomic(NowPlayingFile, []byte(path))
}

// ReadNowPlaying returns the persisted now-playing pointer, or "" when unset.
func (s *Store) ReadNowPlaying() string {
	data, err := os.ReadFile(s.Path(NowPlayingFile))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// AppendLog appends one timestamped record to the play log. Log writes are
// best-effort: a failure is reported to the caller but never blocks playback.
func (s *Store) AppendLog(severity, message string) error {
	f, err := os.OpenFile(s.Path(LogFile), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer f.Close()

	line := fmt.Sprintf("%s %s: %s\n", time.Now().Format(logTimeFormat), severity, message)
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("failed to append log record: %w", err)
	}
	return nil
}

// writeAtomic writes data to a temp file in the same directory and renames
// it over the target, optionally preserving the old contents as a backup.
func (s *Store) writeAtomic(name string, data []byte) error {
	target := s.Path(name)

	tmp, err := os.CreateTemp(s.dir, name+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", name, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write temp file for %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file for %s: %w", name, err)
	}

	if s.backup {
		if old, err := os.ReadFile(target); err == nil {
			if err := os.WriteFile(target+".bak", old, 0644); err != nil {
				slog.Warn("Failed to write backup", "file", name, "error", err)
			}
		}
	}

	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace %s: %w", name, err)
	}
	return nil
}

// restoreBackup replaces a corrupt file with its backup copy, if one exists.
func (s *Store) restoreBackup(name string) bool {
	data, err := os.ReadFile(s.Path(name) + ".bak")
	if err != nil {
		return false
	}
	if err := s.writeAtomic(name, data); err != nil {
		slog.Warn("Failed to restore backup", "file", name, "error", err)
		return false
	}
	slog.Info("Restored file from backup", "file", name)
	return true
}
