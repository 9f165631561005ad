package catalog

import (
	"context"
	"errors"
	"testing"

	"jukebox/src/features/config"
	"jukebox/src/infra/store"
	"jukebox/src/music"
)

// MockScanner is a mock implementation of Scanner.
type MockScanner struct {
	count  int
	tracks []music.Track
	scans  int
}

func (m *MockScanner) CountMediaFiles(dir string) (int, error) {
	return m.count, nil
}

func (m *MockScanner) ScanDirectory(ctx context.Context, dir string) ([]music.Track, error) {
	m.scans++
	return m.tracks, nil
}

func newTestService(t *testing.T, scanner *MockScanner) *Service {
	t.Helper()
	cfg := config.NewManager(&config.Config{MusicPath: t.TempDir(), DataPath: t.TempDir()})
	st := store.New(cfg.Get().DataPath, false)
	return NewService(scanner, st, cfg)
}

func sampleTracks() []music.Track {
	return []music.Track{
		{Path: "/m/a.mp3", Title: "A", Artist: "X", Genre: "rock"},
		{Path: "/m/b.mp3", Title: "B", Artist: "Y", Genre: "pop"},
	}
}

func TestLoadRebuildsOnFirstRun(t *testing.T) {
	scanner := &MockScanner{count: 2, tracks: sampleTracks()}
	service := newTestService(t, scanner)

	catalog, rebuilt, err := service.Load(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !rebuilt {
		t.Error("expected a rebuild with no persisted snapshot")
	}
	if catalog.Len() != 2 {
		t.Errorf("expected 2 tracks, got %d", catalog.Len())
	}
	if service.Current() != catalog {
		t.Error("expected Current to return the loaded snapshot")
	}
}

func TestLoadUsesSnapshotWhenChecksumMatches(t *testing.T) {
	scanner := &MockScanner{count: 2, tracks: sampleTracks()}
	service := newTestService(t, scanner)

	if _, _, err := service.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	firstScans := scanner.scans

	// Same store, fresh service: checksum still matches the directory.
	second := NewService(scanner, service.store, service.configManager)
	catalog, rebuilt, err := second.Load(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if rebuilt {
		t.Error("expected snapshot load, not a rebuild")
	}
	if scanner.scans != firstScans {
		t.Errorf("expected no further scans, got %d", scanner.scans-firstScans)
	}
	if catalog.Len() != 2 {
		t.Errorf("expected 2 tracks, got %d", catalog.Len())
	}
}

func TestLoadRebuildsOnChecksumMismatch(t *testing.T) {
	scanner := &MockScanner{count: 2, tracks: sampleTracks()}
	service := newTestService(t, scanner)
	if _, _, err := service.Load(context.Background()); err != nil {
		t.Fatal(err)
	}

	// A file was added to the directory since the snapshot was taken.
	scanner.count = 3
	scanner.tracks = append(sampleTracks(), music.Track{Path: "/m/c.mp3", Title: "C"})

	second := NewService(scanner, service.store, service.configManager)
	catalog, rebuilt, err := second.Load(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !rebuilt {
		t.Error("expected a rebuild after checksum mismatch")
	}
	if catalog.Len() != 3 {
		t.Errorf("expected 3 tracks, got %d", catalog.Len())
	}
}

func TestRebuildEmptyDirectoryFails(t *testing.T) {
	scanner := &MockScanner{count: 0, tracks: nil}
	service := newTestService(t, scanner)

	_, _, err := service.Load(context.Background())
	if !errors.Is(err, ErrEmptyCatalog) {
		t.Errorf("expected ErrEmptyCatalog, got %v", err)
	}
}

func TestMarkStale(t *testing.T) {
	service := newTestService(t, &MockScanner{})
	if service.IsStale() {
		t.Error("expected fresh service to not be stale")
	}
	service.MarkStale()
	if !service.IsStale() {
		t.Error("expected service to be stale after MarkStale")
	}
}
