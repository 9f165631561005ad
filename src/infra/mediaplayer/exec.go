// Package mediaplayer provides adapters for the external media playback
// engine boundary: a real one that drives a command-line player process and
// a dummy one for demo and headless test runs.
package mediaplayer

import (
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"sync"
	"time"

	"jukebox/src/features/resources"
)

// DefaultBinary is the command-line player used when none is configured.
// ffplay ships with ffmpeg and needs no display with -nodisp.
const DefaultBinary = "ffplay"

// ExecEngine creates playback sessions backed by a player subprocess.
type ExecEngine struct {
	binary string
}

// NewExecEngine creates an engine driving the given player binary.
func NewExecEngine(binary string) resources.Engine {
	if binary == "" {
		binary = DefaultBinary
	}
	return &ExecEngine{binary: binary}
}

// Create binds a new session to a single file. The subprocess is only
// started by Play.
func (e *ExecEngine) Create(path string) (resources.Session, error) {
	if _, err := exec.LookPath(e.binary); err != nil {
		return nil, fmt.Errorf("player binary %q not found: %w", e.binary, err)
	}
	return &execSession{binary: e.binary, path: path, volume: 85}, nil
}

// execSession runs one player process for one file. The process exiting on
// its own is the natural end of playback.
type execSession struct {
	binary string
	path   string

	mu       sync.Mutex
	volume   int
	cmd      *exec.Cmd
	started  time.Time
	finished bool
	released bool
}

func (s *execSession) Play() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.released {
		return fmt.Errorf("session already released")
	}
	if s.cmd != nil {
		return fmt.Errorf("session already started")
	}

	cmd := exec.Command(s.binary,
		"-nodisp", "-autoexit", "-loglevel", "quiet",
		"-volume", strconv.Itoa(s.volume),
		s.path,
	)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start player: %w", err)
	}
	s.cmd = cmd
	s.started = time.Now()

	go func() {
		err := cmd.Wait()
		s.mu.Lock()
		s.finished = true
		s.mu.Unlock()
		if err != nil {
			slog.Debug("Player process exited", "path", s.path, "error", err)
		}
	}()
	return nil
}

func (s *execSession) IsPlaying() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cmd != nil && !s.finished && !s.released
}

func (s *execSession) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cmd == nil || s.finished {
		return nil
	}
	if err := s.cmd.Process.Kill(); err != nil {
		return fmt.Errorf("failed to stop player: %w", err)
	}
	return nil
}

func (s *execSession) Release() error {
	s.mu.Lock()
	if s.released {
		s.mu.Unlock()
		return nil
	}
	s.released = true
	cmd, finished := s.cmd, s.finished
	s.mu.Unlock()

	if cmd != nil && !finished {
		if err := cmd.Process.Kill(); err != nil {
			slog.Debug("Kill on release failed", "path", s.path, "error", err)
		}
	}
	return nil
}

// SetVolume stores the volume applied when the process starts. The
// command-line player offers no live volume control mid-play.
func (s *execSession) SetVolume(percent int) error {
	if percent < 0 || percent > 100 {
		return fmt.Errorf("volume out of range: %d", percent)
	}
	s.mu.Lock()
	s.volume = percent
	s.mu.Unlock()
	return nil
}

func (s *execSession) Elapsed() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cmd == nil {
		return 0
	}
	return time.Since(s.started)
}

// Duration is unknown to a subprocess player; the controller falls back to
// natural end-of-process detection.
func (s *execSession) Duration() time.Duration {
	return 0
}
