package queue

import (
	"fmt"
	"log/slog"
	"math/rand"
	"sync"

	"jukebox/src/infra/store"
	"jukebox/src/music"
)

// Service manages the two playback queues: the paid FIFO and the random
// rotation. Every index handed out is range-checked against the current
// catalog snapshot first; corrupt persisted entries are evicted with a
// warning instead of crashing the engine.
type Service struct {
	store *store.Store

	mu       sync.Mutex
	catalog  *music.Catalog
	paid     []int
	rotation []int
}

// NewService creates a new queue manager.
func NewService(st *store.Store) *Service {
	return &Service{store: st}
}

// Restore installs the catalog snapshot and either reloads the persisted
// queues (validated entry by entry) or, after a catalog rebuild, discards
// them and builds a fresh rotation. Old indices never survive a rebuild.
func (s *Service) Restore(catalog *music.Catalog, activeGenres []string, rebuilt bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.catalog = catalog

	if rebuilt {
		slog.Info("Catalog was rebuilt, discarding persisted queues")
		s.paid = []int{}
		s.rotation = buildRotation(catalog, activeGenres)
	} else {
		s.paid = s.validated(s.store.ReadIntSlice(store.PaidQueueFile), "paid queue")
		s.rotation = s.validated(s.store.ReadIntSlice(store.RotationFile), "random rotation")
		if len(s.rotation) == 0 {
			s.rotation = buildRotation(catalog, activeGenres)
		}
	}

	s.persistPaidLocked()
	s.persistRotationLocked()
	slog.Info("Queues restored", "paid", len(s.paid), "rotation", len(s.rotation))
}

// RebuildRotation replaces the random rotation using the current catalog and
// the given active genres. The paid queue is untouched.
func (s *Service) RebuildRotation(activeGenres []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rotation = buildRotation(s.catalog, activeGenres)
	s.persistRotationLocked()
	slog.Info("Random rotation rebuilt", "tracks", len(s.rotation), "genres", activeGenres)
}

// buildRotation selects every randomizable track passing the genre filter
// and shuffles the result once. With no active genres all randomizable
// tracks qualify.
func buildRotation(catalog *music.Catalog, activeGenres []string) []int {
	if catalog == nil {
		return []int{}
	}
	rotation := make([]int, 0, catalog.Len())
	for _, track := range catalog.Tracks() {
		if !track.Randomizable() {
			continue
		}
		if len(activeGenres) == 0 || hasAnyGenre(&track, activeGenres) {
			rotation = append(rotation, track.Index)
		}
	}
	rand.Shuffle(len(rotation), func(i, j int) {
		rotation[i], rotation[j] = rotation[j], rotation[i]
	})
	return rotation
}

func hasAnyGenre(track *music.Track, genres []string) bool {
	for _, g := range genres {
		if track.HasGenre(g) {
			return true
		}
	}
	return false
}

// EnqueuePaid appends a purchased selection to the paid queue.
func (s *Service) EnqueuePaid(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.catalog == nil {
		return fmt.Errorf("no catalog loaded")
	}
	if _, ok := s.catalog.Get(index); !ok {
		return fmt.Errorf("track index %d out of range (catalog has %d tracks)", index, s.catalog.Len())
	}

	s.paid = append(s.paid, index)
	s.persistPaidLocked()
	slog.Info("Paid selection enqueued", "index", index, "queued", len(s.paid))
	return nil
}

// NextPaid returns the front paid selection without removing it. The entry
// is only consumed by OnPaidPlayed after a confirmed playback start, so a
// failed play never loses a purchase. Corrupt entries are evicted here.
func (s *Service) NextPaid() (music.Track, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for len(s.paid) > 0 {
		track, ok := s.catalog.Get(s.paid[0])
		if ok {
			return track, true
		}
		slog.Warn("Evicting out-of-range paid queue entry", "index", s.paid[0], "catalog", s.catalog.Len())
		s.paid = s.paid[1:]
		s.persistPaidLocked()
	}
	return music.Track{}, false
}

// PeekRandom returns the front rotation entry without removing it; a failed
// candidate must not be lost. Corrupt entries are evicted here.
func (s *Service) PeekRandom() (music.Track, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for len(s.rotation) > 0 {
		track, ok := s.catalog.Get(s.rotation[0])
		if ok {
			return track, true
		}
		slog.Warn("Evicting out-of-range rotation entry", "index", s.rotation[0], "catalog", s.catalog.Len())
		s.rotation = s.rotation[1:]
		s.persistRotationLocked()
	}
	return music.Track{}, false
}

// OnPaidPlayed removes the front paid entry after a confirmed play. Called
// exactly once per confirmed play, never on failure.
func (s *Service) OnPaidPlayed(index int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.paid) == 0 || s.paid[0] != index {
		slog.Warn("Paid confirmation does not match queue front", "index", index)
		return
	}
	s.paid = s.paid[1:]
	s.persistPaidLocked()
}

// OnRandomPlayed moves the front rotation entry to the tail. The rotation
// length is invariant across plays.
func (s *Service) OnRandomPlayed(index int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.rotation) == 0 || s.rotation[0] != index {
		slog.Warn("Random confirmation does not match rotation front", "index", index)
		return
	}
	s.rotation = append(s.rotation[1:], s.rotation[0])
	s.persistRotationLocked()
}

// SkipRandom rotates the front entry to the tail without a play, used when
// a candidate keeps failing and the loop moves on to the next one.
func (s *Service) SkipRandom() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.rotation) > 1 {
		s.rotation = append(s.rotation[1:], s.rotation[0])
		s.persistRotationLocked()
	}
}

// Upcoming returns the display names of the next n tracks: the whole paid
// queue first, then the rotation head.
func (s *Service) Upcoming(n int) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var names []string
	appendTracks := func(indices []int) {
		for _, idx := range indices {
			if len(names) == n {
				return
			}
			if track, ok := s.catalog.Get(idx); ok {
				names = append(names, track.Display())
			}
		}
	}
	if s.catalog != nil && n > 0 {
		appendTracks(s.paid)
		appendTracks(s.rotation)
	}
	return names
}

// PaidLen returns the number of pending paid selections.
func (s *Service) PaidLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.paid)
}

// RotationLen returns the rotation cycle length.
func (s *Service) RotationLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rotation)
}

// Rotation returns a copy of the rotation order, front first.
func (s *Service) Rotation() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]int, len(s.rotation))
	copy(out, s.rotation)
	return out
}

// HasCandidates reports whether either queue can produce a track.
func (s *Service) HasCandidates() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.paid) > 0 || len(s.rotation) > 0
}

// validated drops entries that do not resolve against the current catalog.
func (s *Service) validated(indices []int, label string) []int {
	valid := indices[:0]
	for _, idx := range indices {
		if _, ok := s.catalog.Get(idx); ok {
			valid = append(valid, idx)
		} else {
			slog.Warn("Dropping out-of-range persisted entry", "queue", label, "index", idx)
		}
	}
	return valid
}

func (s *Service) persistPaidLocked() {
	if err := s.store.WriteIntSlice(store.PaidQueueFile, s.paid); err != nil {
		slog.Error("Failed to persist paid queue", "error", err)
	}
}

func (s *Service) persistRotationLocked() {
	if err := s.store.WriteIntSlice(store.RotationFile, s.rotation); err != nil {
		slog.Error("Failed to persist rotation", "error", err)
	}
}
