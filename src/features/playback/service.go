package playback

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"jukebox/src/features/config"
	"jukebox/src/features/resources"
	"jukebox/src/infra/store"
	"jukebox/src/music"
)

// State is one step of the playback state machine.
type State string

const (
	StateIdle      State = "idle"
	StateRequested State = "requested"
	StateStarted   State = "started"
	StatePlaying   State = "playing"
	StateCompleted State = "completed"
	StateTimedOut  State = "timed_out"
	StateFailed    State = "failed"
	StateReleased  State = "released"
)

// Origin tells which queue a play came from.
type Origin string

const (
	OriginPaid   Origin = "paid"
	OriginRandom Origin = "random"
)

// Result is the outcome of driving one track through a session.
type Result struct {
	State   State
	Reason  string
	Elapsed time.Duration
}

// Confirmed reports whether playback started successfully. This is the
// signal that consumes a paid queue entry; a timed-out play still confirmed
// its start.
func (r Result) Confirmed() bool {
	return r.State == StateCompleted || r.State == StateTimedOut
}

// Recoverer is an optional collaborator given one chance to repair a track
// whose file failed validation (e.g. remount a media share).
type Recoverer interface {
	Recover(track music.Track) error
}

// sessionCreateAttempts bounds the fresh-handle retries when the engine
// fails to create a session.
const sessionCreateAttempts = 3

// Service drives one track at a time through a media session with a
// cooperative polling loop. All terminal states flow through a guaranteed
// release of the session handle.
type Service struct {
	resources     *resources.Manager
	store         *store.Store
	configManager *config.Manager
	recoverer     Recoverer

	mu      sync.RWMutex
	current *music.Track
	origin  Origin
	state   State
}

// NewService creates a new playback controller.
func NewService(res *resources.Manager, st *store.Store, cfgManager *config.Manager) *Service {
	return &Service{
		resources:     res,
		store:         st,
		configManager: cfgManager,
		state:         StateIdle,
	}
}

// SetRecoverer installs the optional file-recovery collaborator.
func (s *Service) SetRecoverer(r Recoverer) {
	s.recoverer = r
}

// CurrentlyPlaying returns the track being played right now, if any.
func (s *Service) CurrentlyPlaying() (music.Track, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return music.Track{}, false
	}
	return *s.current, true
}

// State returns the controller's current state.
func (s *Service) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Play validates the track's file, creates a session and holds it through
// the polling loop until it completes, times out or fails. The session
// handle is released on every exit path.
func (s *Service) Play(ctx context.Context, track music.Track, origin Origin) Result {
	cfg := s.configManager.Get().Engine
	pollInterval := time.Duration(cfg.PollIntervalMs) * time.Millisecond
	startGrace := time.Duration(cfg.StartGraceMs) * time.Millisecond
	var timeout time.Duration
	if cfg.MaxPlaybackSeconds > 0 {
		timeout = time.Duration(cfg.MaxPlaybackSeconds) * time.Second
	}

	if err := s.validateFile(track); err != nil {
		slog.Error("Track file validation failed", "track", track.Display(), "error", err)
		return s.fail(fmt.Sprintf("file validation: %v", err))
	}

	s.setState(StateRequested)

	handle, err := s.createHandle(track.Path)
	if err != nil {
		slog.Error("Could not create media session", "track", track.Display(), "error", err)
		return s.fail(fmt.Sprintf("session creation: %v", err))
	}
	// Unconditional cleanup: success, timeout, failure and panic unwinding
	// all release the handle exactly once.
	defer func() {
		s.resources.Release(handle)
		s.setState(StateReleased)
		s.clearCurrent()
	}()

	if err := handle.SetVolume(cfg.Volume); err != nil {
		slog.Warn("Failed to set volume", "error", err)
	}
	if err := handle.Play(); err != nil {
		slog.Error("Failed to start playback", "track", track.Display(), "error", err)
		return s.fail(fmt.Sprintf("play: %v", err))
	}
	s.setState(StateStarted)

	if !s.awaitStart(ctx, handle, startGrace, pollInterval) {
		slog.Error("Playback did not start within grace window", "track", track.Display(), "grace", startGrace)
		return s.fail("start timeout")
	}

	s.setState(StatePlaying)
	s.setCurrent(track, origin)
	if err := s.store.WriteNowPlaying(track.Path); err != nil {
		slog.Warn("Failed to persist now-playing pointer", "error", err)
	}
	slog.Info("Now playing", "track", track.Display(), "origin", origin, "duration", track.Duration)

	result := s.holdWhilePlaying(ctx, handle, timeout, pollInterval)
	result.Elapsed = handle.Elapsed()

	if result.Confirmed() {
		s.logPlay(track, origin, result)
	}
	s.setState(result.State)
	return result
}

// awaitStart polls the session until it reports active playback, bounded by
// the grace window. Cancellation is honored at tick granularity.
func (s *Service) awaitStart(ctx context.Context, handle *resources.Handle, grace, tick time.Duration) bool {
	deadline := time.Now().Add(grace)
	for {
		if handle.IsPlaying() {
			return true
		}
		if time.Now().After(deadline) || ctx.Err() != nil {
			return false
		}
		sleepTick(ctx, tick)
	}
}

// holdWhilePlaying is the cooperative polling loop: each tick checks natural
// end, the optional wall-clock timeout and cancellation, then sleeps.
func (s *Service) holdWhilePlaying(ctx context.Context, handle *resources.Handle, timeout, tick time.Duration) Result {
	started := time.Now()
	for {
		if !handle.IsPlaying() {
			return Result{State: StateCompleted}
		}
		if timeout > 0 && time.Since(started) > timeout {
			slog.Warn("Playback exceeded wall-clock timeout, stopping", "timeout", timeout)
			s.stopQuietly(handle)
			return Result{State: StateTimedOut, Reason: "wall-clock timeout"}
		}
		if ctx.Err() != nil {
			s.stopQuietly(handle)
			return Result{State: StateTimedOut, Reason: "shutdown requested"}
		}
		sleepTick(ctx, tick)
	}
}

// validateFile checks existence, readability, size and extension, with one
// bounded recovery attempt through the optional collaborator.
func (s *Service) validateFile(track music.Track) error {
	err := checkFile(track)
	if err == nil {
		return nil
	}
	if s.recoverer == nil {
		return err
	}
	slog.Warn("Attempting file recovery", "track", track.Display(), "error", err)
	if rerr := s.recoverer.Recover(track); rerr != nil {
		return fmt.Errorf("%v (recovery failed: %v)", err, rerr)
	}
	return checkFile(track)
}

func checkFile(track music.Track) error {
	if !music.RecognizedExtension(track.Path) {
		return fmt.Errorf("unrecognized extension: %s", track.Path)
	}
	f, err := os.Open(track.Path)
	if err != nil {
		return fmt.Errorf("file not readable: %w", err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("file not statable: %w", err)
	}
	if info.Size() == 0 {
		return fmt.Errorf("file is empty: %s", track.Path)
	}
	return nil
}

// createHandle asks the resource manager for a session, retrying with a
// fresh handle a bounded number of times.
func (s *Service) createHandle(path string) (*resources.Handle, error) {
	var lastErr error
	for attempt := 1; attempt <= sessionCreateAttempts; attempt++ {
		handle, err := s.resources.CreateHandle(path)
		if err == nil {
			return handle, nil
		}
		lastErr = err
		slog.Warn("Session creation failed", "attempt", attempt, "error", err)
	}
	return nil, fmt.Errorf("after %d attempts: %w", sessionCreateAttempts, lastErr)
}

func (s *Service) stopQuietly(handle *resources.Handle) {
	if err := handle.Stop(); err != nil {
		slog.Warn("Failed to stop session", "error", err)
	}
}

func (s *Service) logPlay(track music.Track, origin Origin, result Result) {
	label := "Random"
	if origin == OriginPaid {
		label = "Paid"
	}
	msg := fmt.Sprintf("%s, Played %s", track.Display(), label)
	if result.State == StateTimedOut {
		msg += " (cut short)"
	}
	if err := s.store.AppendLog("INFO", msg); err != nil {
		slog.Warn("Failed to append play log", "error", err)
	}
}

func (s *Service) fail(reason string) Result {
	s.setState(StateFailed)
	return Result{State: StateFailed, Reason: reason}
}

func (s *Service) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

func (s *Service) setCurrent(track music.Track, origin Origin) {
	s.mu.Lock()
	s.current = &track
	s.origin = origin
	s.mu.Unlock()
}

func (s *Service) clearCurrent() {
	s.mu.Lock()
	s.current = nil
	s.mu.Unlock()
}

// sleepTick sleeps one poll interval but wakes early on cancellation so the
// loop stays responsive to shutdown between ticks.
func sleepTick(ctx context.Context, tick time.Duration) {
	timer := time.NewTimer(tick)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
