package mediaplayer

import (
	"fmt"
	"sync"
	"time"

	"jukebox/src/features/resources"
)

// DummyEngine simulates playback without touching any audio device. Every
// session "plays" silently for a fixed duration, which lets the whole
// scheduling loop run in demo mode and in headless tests.
type DummyEngine struct {
	playFor time.Duration
}

// NewDummyEngine creates a dummy engine whose sessions finish after playFor.
func NewDummyEngine(playFor time.Duration) resources.Engine {
	if playFor <= 0 {
		playFor = 2 * time.Second
	}
	return &DummyEngine{playFor: playFor}
}

// Create binds a silent session to the path.
func (e *DummyEngine) Create(path string) (resources.Session, error) {
	return &dummySession{path: path, playFor: e.playFor}, nil
}

type dummySession struct {
	path    string
	playFor time.Duration

	mu       sync.Mutex
	started  time.Time
	playing  bool
	released bool
}

func (s *dummySession) Play() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return fmt.Errorf("session already released")
	}
	s.started = time.Now()
	s.playing = true
	return nil
}

func (s *dummySession) IsPlaying() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.playing || s.released {
		return false
	}
	if time.Since(s.started) >= s.playFor {
		s.playing = false
	}
	return s.playing
}

func (s *dummySession) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playing = false
	return nil
}

func (s *dummySession) Release() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playing = false
	s.released = true
	return nil
}

func (s *dummySession) SetVolume(percent int) error {
	if percent < 0 || percent > 100 {
		return fmt.Errorf("volume out of range: %d", percent)
	}
	return nil
}

func (s *dummySession) Elapsed() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started.IsZero() {
		return 0
	}
	elapsed := time.Since(s.started)
	if elapsed > s.playFor {
		return s.playFor
	}
	return elapsed
}

func (s *dummySession) Duration() time.Duration {
	return s.playFor
}
