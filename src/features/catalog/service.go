package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"

	"jukebox/src/features/config"
	"jukebox/src/infra/store"
	"jukebox/src/music"
)

// ErrEmptyCatalog is returned when a scan of the music directory yields no
// playable tracks. This is the one startup condition the engine refuses to
// run under.
var ErrEmptyCatalog = errors.New("catalog is empty: no playable files in music directory")

// Scanner is the catalog rebuild collaborator. It owns all file-format
// knowledge; the catalog service never inspects media file internals.
type Scanner interface {
	// CountMediaFiles returns the number of playable files in the directory.
	CountMediaFiles(dir string) (int, error)
	// ScanDirectory returns an ordered list of tracks, skipping corrupt files.
	ScanDirectory(ctx context.Context, dir string) ([]music.Track, error)
}

// Service owns the current catalog snapshot and its on-disk persistence.
type Service struct {
	scanner       Scanner
	store         *store.Store
	configManager *config.Manager

	mu      sync.RWMutex
	current *music.Catalog

	stale atomic.Bool
}

// NewService creates a new catalog service.
func NewService(scanner Scanner, st *store.Store, cfgManager *config.Manager) *Service {
	return &Service{
		scanner:       scanner,
		store:         st,
		configManager: cfgManager,
	}
}

// Load returns the catalog for this run. When the persisted snapshot's
// checksum (media file count) matches the directory it is loaded as-is;
// otherwise the catalog is rebuilt from scratch. The boolean reports whether
// a rebuild happened, which obliges the caller to rebuild all queues.
func (s *Service) Load(ctx context.Context) (*music.Catalog, bool, error) {
	dir := s.configManager.Get().MusicPath

	currentCount, err := s.scanner.CountMediaFiles(dir)
	if err != nil {
		return nil, false, err
	}

	storedCount, ok := s.readChecksum()
	if ok && storedCount == currentCount {
		catalog, err := s.loadSnapshot()
		if err == nil {
			slog.Info("Catalog snapshot matches media directory", "tracks", catalog.Len(), "checksum", currentCount)
			s.setCurrent(catalog)
			return catalog, false, nil
		}
		slog.Warn("Persisted catalog unreadable, rebuilding", "error", err)
	} else {
		slog.Info("Catalog checksum mismatch, rebuilding", "stored", storedCount, "current", currentCount)
	}

	catalog, err := s.Rebuild(ctx)
	if err != nil {
		return nil, false, err
	}
	return catalog, true, nil
}

// Rebuild scans the music directory and replaces the snapshot and its
// persisted form. Every previously issued track index is invalid afterwards.
func (s *Service) Rebuild(ctx context.Context) (*music.Catalog, error) {
	dir := s.configManager.Get().MusicPath

	tracks, err := s.scanner.ScanDirectory(ctx, dir)
	if err != nil {
		return nil, fmt.Errorf("catalog rebuild failed: %w", err)
	}
	if len(tracks) == 0 {
		return nil, ErrEmptyCatalog
	}

	catalog := music.NewCatalog(tracks)

	if err := s.store.WriteJSON(store.MasterListFile, catalog.Tracks()); err != nil {
		return nil, fmt.Errorf("failed to persist catalog snapshot: %w", err)
	}
	count, err := s.scanner.CountMediaFiles(dir)
	if err != nil {
		count = len(tracks)
	}
	if err := s.store.WriteJSON(store.MasterCheckFile, count); err != nil {
		return nil, fmt.Errorf("failed to persist catalog checksum: %w", err)
	}

	slog.Info("Catalog rebuilt", "tracks", catalog.Len(), "checksum", count)
	s.setCurrent(catalog)
	s.stale.Store(false)
	return catalog, nil
}

// Current returns the active catalog snapshot, or nil before Load.
func (s *Service) Current() *music.Catalog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Search queries the active snapshot.
func (s *Service) Search(term string) []music.Track {
	catalog := s.Current()
	if catalog == nil {
		return nil
	}
	return catalog.Search(term)
}

// MarkStale flags that the media directory changed after startup. The
// rebuild itself still happens on the next start; a mid-run rebuild would
// invalidate every queued index under the listener's feet.
func (s *Service) MarkStale() {
	if !s.stale.Swap(true) {
		slog.Warn("Music directory changed; catalog will rebuild on next startup")
	}
}

// IsStale reports whether the media directory changed since the catalog was built.
func (s *Service) IsStale() bool {
	return s.stale.Load()
}

func (s *Service) readChecksum() (int, bool) {
	var count int
	if err := s.store.ReadJSON(store.MasterCheckFile, &count); err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("Unreadable catalog checksum file", "error", err)
		}
		return 0, false
	}
	return count, true
}

func (s *Service) loadSnapshot() (*music.Catalog, error) {
	var tracks []music.Track
	if err := s.store.ReadJSON(store.MasterListFile, &tracks); err != nil {
		return nil, err
	}
	if len(tracks) == 0 {
		return nil, ErrEmptyCatalog
	}
	return music.NewCatalog(tracks), nil
}

func (s *Service) setCurrent(catalog *music.Catalog) {
	s.mu.Lock()
	s.current = catalog
	s.mu.Unlock()
}
