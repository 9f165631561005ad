package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"jukebox/src/features/catalog"
	"jukebox/src/features/config"
	"jukebox/src/features/playback"
	"jukebox/src/features/queue"
	"jukebox/src/features/stats"
)

// Counters aggregates one loop run for headless and test invocations.
type Counters struct {
	Iterations        int
	PaidSongsPlayed   int
	RandomSongsPlayed int
	Errors            int
	Elapsed           time.Duration
}

// Service is the top-level scheduling loop. Each iteration drains the paid
// queue first, then falls back to the random rotation, and survives any
// per-iteration failure when auto-recovery is enabled.
type Service struct {
	catalog       *catalog.Service
	queue         *queue.Service
	playback      *playback.Service
	stats         *stats.Service
	configManager *config.Manager

	staleLogged bool
}

// NewService creates the scheduling loop service.
func NewService(cat *catalog.Service, q *queue.Service, pb *playback.Service, st *stats.Service, cfgManager *config.Manager) *Service {
	return &Service{
		catalog:       cat,
		queue:         q,
		playback:      pb,
		stats:         st,
		configManager: cfgManager,
	}
}

// Run validates the startup preconditions and iterates until cancellation or
// the configured iteration cap. An iteration never lets a failure escape: it
// is counted, logged, and with auto-recovery enabled the loop sleeps the
// error delay and continues.
func (s *Service) Run(ctx context.Context) (counters Counters, err error) {
	if err := s.validateStartup(); err != nil {
		return counters, err
	}

	cfg := s.configManager.Get().Engine
	slog.Info("Scheduling loop starting",
		"paid", s.queue.PaidLen(), "rotation", s.queue.RotationLen(), "maxIterations", cfg.MaxIterations)

	start := time.Now()
	defer func() { counters.Elapsed = time.Since(start) }()

	for {
		if ctx.Err() != nil {
			slog.Info("Scheduling loop stopping", "reason", "shutdown requested")
			return counters, nil
		}
		if cfg.MaxIterations > 0 && counters.Iterations >= cfg.MaxIterations {
			slog.Info("Scheduling loop reached iteration cap", "iterations", counters.Iterations)
			return counters, nil
		}

		err := s.iterate(ctx, &counters)
		counters.Iterations++
		if s.stats != nil {
			s.stats.Metrics().Iterations.Inc()
		}

		if err != nil {
			counters.Errors++
			slog.Error("Scheduling iteration failed", "error", err)
			if !cfg.AutoRecover {
				return counters, err
			}
			sleepFor(ctx, time.Duration(cfg.ErrorRetryDelaySeconds)*time.Second)
		}

		if s.catalog.IsStale() && !s.staleLogged {
			s.staleLogged = true
			slog.Info("Music directory changed on disk, catalog rebuilds at next startup")
		}
	}
}

// validateStartup refuses to run without a catalog and at least one playable
// candidate. This is the only error class that stops the process.
func (s *Service) validateStartup() error {
	cat := s.catalog.Current()
	if cat == nil || cat.Len() == 0 {
		return fmt.Errorf("refusing to start: catalog is empty")
	}
	if !s.queue.HasCandidates() {
		return fmt.Errorf("refusing to start: both queues are empty")
	}
	return nil
}

// iterate runs one scheduling pass. A panic from any collaborator is turned
// into an error here so the loop itself never unwinds.
func (s *Service) iterate(ctx context.Context, counters *Counters) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("iteration panic: %v", r)
		}
	}()

	cfg := s.configManager.Get().Engine

	if played := s.playPaid(ctx, counters, cfg.MaxPaidRetries); played {
		// Paid plays chain with no inter-song delay: the next iteration
		// checks the paid queue again immediately.
		return nil
	}

	if played := s.playRandom(ctx, counters, cfg.MaxRandomRetries); played {
		return nil
	}

	if ctx.Err() == nil {
		slog.Info("No playable songs, waiting", "delay", cfg.NoSongsDelaySeconds)
		sleepFor(ctx, time.Duration(cfg.NoSongsDelaySeconds)*time.Second)
	}
	return nil
}

// playPaid attempts the front paid selection. The entry is consumed only on
// a confirmed play; after maxRetries failures it stays queued and the loop
// falls through to random for this iteration.
func (s *Service) playPaid(ctx context.Context, counters *Counters, maxRetries int) bool {
	for attempt := 0; attempt < maxRetries; attempt++ {
		track, ok := s.queue.NextPaid()
		if !ok {
			return false
		}

		result := s.playback.Play(ctx, track, playback.OriginPaid)
		if result.Confirmed() {
			s.queue.OnPaidPlayed(track.Index)
			if s.stats != nil {
				s.stats.RecordPlay(ctx, track, string(playback.OriginPaid))
			}
			counters.PaidSongsPlayed++
			return true
		}

		counters.Errors++
		if s.stats != nil {
			s.stats.RecordFailure(string(playback.OriginPaid))
		}
		slog.Warn("Paid play failed, selection stays queued",
			"track", track.Display(), "attempt", attempt+1, "reason", result.Reason)
		if ctx.Err() != nil {
			return true
		}
	}
	return false
}

// playRandom attempts rotation candidates, rotating past each failure, up to
// maxRetries. No entry is ever removed from the rotation.
func (s *Service) playRandom(ctx context.Context, counters *Counters, maxRetries int) bool {
	for attempt := 0; attempt < maxRetries; attempt++ {
		track, ok := s.queue.PeekRandom()
		if !ok {
			return false
		}

		result := s.playback.Play(ctx, track, playback.OriginRandom)
		if result.Confirmed() {
			s.queue.OnRandomPlayed(track.Index)
			if s.stats != nil {
				s.stats.RecordPlay(ctx, track, string(playback.OriginRandom))
			}
			counters.RandomSongsPlayed++
			return true
		}

		counters.Errors++
		if s.stats != nil {
			s.stats.RecordFailure(string(playback.OriginRandom))
		}
		slog.Warn("Random play failed, rotating past candidate",
			"track", track.Display(), "attempt", attempt+1, "reason", result.Reason)
		s.queue.SkipRandom()
		if ctx.Err() != nil {
			return true
		}
	}
	return false
}

// sleepFor waits the given duration but returns early on cancellation.
func sleepFor(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
