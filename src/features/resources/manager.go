package resources

import (
	"fmt"
	"log/slog"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Handle is one registered media session. It is exclusively owned by the
// Manager from creation to release, never shared and never reused after
// release.
type Handle struct {
	ID        string
	Path      string
	CreatedAt time.Time

	session  Session
	released bool
}

// Play starts playback on the underlying session.
func (h *Handle) Play() error {
	if h.released {
		return fmt.Errorf("handle %s already released", h.ID)
	}
	return h.session.Play()
}

// Stop halts playback without releasing the handle. Stopping a released
// handle is a no-op.
func (h *Handle) Stop() error {
	if h.released {
		return nil
	}
	return h.session.Stop()
}

// IsPlaying reports whether the session is actively playing.
func (h *Handle) IsPlaying() bool {
	if h.released {
		return false
	}
	return h.session.IsPlaying()
}

// SetVolume sets the session volume (0-100).
func (h *Handle) SetVolume(percent int) error {
	if h.released {
		return fmt.Errorf("handle %s already released", h.ID)
	}
	return h.session.SetVolume(percent)
}

// Elapsed returns the session's playback position.
func (h *Handle) Elapsed() time.Duration {
	if h.released {
		return 0
	}
	return h.session.Elapsed()
}

// Duration returns the session's media duration, when the engine knows it.
func (h *Handle) Duration() time.Duration {
	if h.released {
		return 0
	}
	return h.session.Duration()
}

// Released reports whether the handle has been released.
func (h *Handle) Released() bool {
	return h.released
}

// Manager is the bounded registry of external player sessions. Every
// created handle is released exactly once; double-release is a no-op.
type Manager struct {
	engine     Engine
	maxHandles int
	maxAge     time.Duration

	mu       sync.Mutex
	handles  map[string]*Handle
	cleaning bool
}

// NewManager creates a resource manager with a registry capped at
// maxHandles entries (live plus diagnostic) and an age threshold for
// automatic cleanup.
func NewManager(engine Engine, maxHandles int, maxAge time.Duration) *Manager {
	if maxHandles <= 0 {
		maxHandles = 10
	}
	return &Manager{
		engine:     engine,
		maxHandles: maxHandles,
		maxAge:     maxAge,
		handles:    make(map[string]*Handle),
	}
}

// CreateHandle validates the file, creates one session and registers it.
// When the registry is full an aged-handle cleanup runs first; if that
// frees nothing the oldest entry is force-released to make room.
func (m *Manager) CreateHandle(path string) (*Handle, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("media file not accessible: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("media path is a directory: %s", path)
	}
	if info.Size() == 0 {
		return nil, fmt.Errorf("media file is empty: %s", path)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.handles) >= m.maxHandles {
		m.cleanupAgedLocked(m.maxAge)
	}
	if len(m.handles) >= m.maxHandles {
		m.evictOldestLocked()
	}

	session, err := m.engine.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create media session: %w", err)
	}

	handle := &Handle{
		ID:        uuid.New().String(),
		Path:      path,
		CreatedAt: time.Now(),
		session:   session,
	}
	m.handles[handle.ID] = handle
	slog.Debug("Media handle created", "id", handle.ID, "path", path, "registered", len(m.handles))
	return handle, nil
}

// Release stops the session if it is playing and releases it. Releasing an
// already-released handle is a no-op. The entry stays registered for
// diagnostics until aged cleanup or ReleaseAll removes it.
func (m *Manager) Release(h *Handle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.releaseLocked(h)
}

// CleanupAged stops and releases every registered handle older than maxAge
// and drops aged entries from the registry. A cleanup nested inside another
// cleanup is a no-op, guarded by the cleaning flag. Returns the number of
// entries removed.
func (m *Manager) CleanupAged(maxAge time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cleanupAgedLocked(maxAge)
}

// ReleaseAll force-drains the registry: stop-then-release every handle and
// clear it. This is the designated clean-shutdown hook.
func (m *Manager) ReleaseAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, h := range m.handles {
		m.releaseLocked(h)
	}
	count := len(m.handles)
	m.handles = make(map[string]*Handle)
	if count > 0 {
		slog.Info("All media handles released", "count", count)
	}
}

// Count returns the number of registered entries, live plus diagnostic.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.handles)
}

// LiveCount returns the number of registered, not-yet-released handles.
func (m *Manager) LiveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	live := 0
	for _, h := range m.handles {
		if !h.released {
			live++
		}
	}
	return live
}

func (m *Manager) releaseLocked(h *Handle) {
	if h == nil || h.released {
		return
	}
	if h.session.IsPlaying() {
		if err := h.session.Stop(); err != nil {
			slog.Warn("Failed to stop session before release", "id", h.ID, "error", err)
		}
	}
	if err := h.session.Release(); err != nil {
		slog.Warn("Failed to release session", "id", h.ID, "error", err)
	}
	h.released = true
	slog.Debug("Media handle released", "id", h.ID, "path", h.Path)
}

func (m *Manager) cleanupAgedLocked(maxAge time.Duration) int {
	if m.cleaning {
		return 0
	}
	m.cleaning = true
	defer func() { m.cleaning = false }()

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for id, h := range m.handles {
		if h.CreatedAt.After(cutoff) {
			continue
		}
		m.releaseLocked(h)
		delete(m.handles, id)
		removed++
	}
	if removed > 0 {
		slog.Info("Aged media handles cleaned up", "removed", removed, "remaining", len(m.handles))
	}
	return removed
}

// evictOldestLocked releases and removes the oldest entry. Preferring
// already-released diagnostic entries keeps a live playback untouched.
func (m *Manager) evictOldestLocked() {
	var entries []*Handle
	for _, h := range m.handles {
		entries = append(entries, h)
	}
	if len(entries) == 0 {
		return
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].released != entries[j].released {
			return entries[i].released
		}
		return entries[i].CreatedAt.Before(entries[j].CreatedAt)
	})

	oldest := entries[0]
	m.releaseLocked(oldest)
	delete(m.handles, oldest.ID)
	slog.Warn("Registry full, evicted oldest handle", "id", oldest.ID, "path", oldest.Path)
}
