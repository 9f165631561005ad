package resources

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// MockSession is a mock implementation of Session.
type MockSession struct {
	playing  bool
	stops    int
	releases int
}

func (s *MockSession) Play() error               { s.playing = true; return nil }
func (s *MockSession) IsPlaying() bool           { return s.playing }
func (s *MockSession) Stop() error               { s.playing = false; s.stops++; return nil }
func (s *MockSession) Release() error            { s.releases++; return nil }
func (s *MockSession) SetVolume(percent int) error { return nil }
func (s *MockSession) Elapsed() time.Duration    { return 0 }
func (s *MockSession) Duration() time.Duration   { return 0 }

// MockEngine is a mock implementation of Engine.
type MockEngine struct {
	sessions []*MockSession
}

func (e *MockEngine) Create(path string) (Session, error) {
	s := &MockSession{}
	e.sessions = append(e.sessions, s)
	return s, nil
}

func mediaFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "song.mp3")
	if err := os.WriteFile(path, []byte("not really audio"), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestCreateHandleValidatesFile(t *testing.T) {
	manager := NewManager(&MockEngine{}, 10, time.Hour)

	if _, err := manager.CreateHandle("/does/not/exist.mp3"); err == nil {
		t.Error("expected error for missing file")
	}

	empty := filepath.Join(t.TempDir(), "empty.mp3")
	if err := os.WriteFile(empty, nil, 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := manager.CreateHandle(empty); err == nil {
		t.Error("expected error for empty file")
	}

	if manager.Count() != 0 {
		t.Errorf("failed creations must not register handles, got %d", manager.Count())
	}
}

func TestReleaseExactlyOnce(t *testing.T) {
	engine := &MockEngine{}
	manager := NewManager(engine, 10, time.Hour)

	handle, err := manager.CreateHandle(mediaFile(t))
	if err != nil {
		t.Fatal(err)
	}
	if err := handle.Play(); err != nil {
		t.Fatal(err)
	}

	manager.Release(handle)
	manager.Release(handle) // double release is a no-op

	session := engine.sessions[0]
	if session.releases != 1 {
		t.Errorf("expected exactly 1 release, got %d", session.releases)
	}
	if session.stops != 1 {
		t.Errorf("expected stop before release of a playing session, got %d", session.stops)
	}
	if !handle.Released() {
		t.Error("expected handle to report released")
	}
	if err := handle.Play(); err == nil {
		t.Error("released handle must not be reusable")
	}
}

func TestReleaseAllEmptiesRegistry(t *testing.T) {
	engine := &MockEngine{}
	manager := NewManager(engine, 10, time.Hour)

	var handles []*Handle
	for i := 0; i < 3; i++ {
		h, err := manager.CreateHandle(mediaFile(t))
		if err != nil {
			t.Fatal(err)
		}
		handles = append(handles, h)
	}
	handles[0].Play()

	manager.ReleaseAll()

	if manager.Count() != 0 {
		t.Errorf("expected empty registry, got %d entries", manager.Count())
	}
	for i, h := range handles {
		if !h.Released() {
			t.Errorf("handle %d not released", i)
		}
	}
	for i, s := range engine.sessions {
		if s.releases != 1 {
			t.Errorf("session %d released %d times", i, s.releases)
		}
	}
}

func TestCleanupAgedReleasesOldHandles(t *testing.T) {
	engine := &MockEngine{}
	manager := NewManager(engine, 10, time.Hour)

	old, err := manager.CreateHandle(mediaFile(t))
	if err != nil {
		t.Fatal(err)
	}
	old.Play()
	old.CreatedAt = time.Now().Add(-2 * time.Hour)

	fresh, err := manager.CreateHandle(mediaFile(t))
	if err != nil {
		t.Fatal(err)
	}

	removed := manager.CleanupAged(time.Hour)
	if removed != 1 {
		t.Fatalf("expected 1 removed handle, got %d", removed)
	}
	if !old.Released() {
		t.Error("aged handle must be released")
	}
	if fresh.Released() {
		t.Error("fresh handle must survive cleanup")
	}
	if manager.Count() != 1 {
		t.Errorf("expected 1 remaining entry, got %d", manager.Count())
	}
}

func TestRegistryCapEvictsOldest(t *testing.T) {
	engine := &MockEngine{}
	manager := NewManager(engine, 2, time.Hour)

	first, err := manager.CreateHandle(mediaFile(t))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := manager.CreateHandle(mediaFile(t)); err != nil {
		t.Fatal(err)
	}

	// Third creation exceeds the cap; nothing is aged, so the oldest entry
	// is force-released to make room.
	if _, err := manager.CreateHandle(mediaFile(t)); err != nil {
		t.Fatal(err)
	}

	if manager.Count() != 2 {
		t.Errorf("expected registry bounded at 2, got %d", manager.Count())
	}
	if !first.Released() {
		t.Error("expected oldest handle evicted and released")
	}
}

func TestLiveCount(t *testing.T) {
	manager := NewManager(&MockEngine{}, 10, time.Hour)

	a, _ := manager.CreateHandle(mediaFile(t))
	if _, err := manager.CreateHandle(mediaFile(t)); err != nil {
		t.Fatal(err)
	}
	manager.Release(a)

	if got := manager.LiveCount(); got != 1 {
		t.Errorf("expected 1 live handle, got %d", got)
	}
	if got := manager.Count(); got != 2 {
		t.Errorf("expected 2 registered entries, got %d", got)
	}
}
