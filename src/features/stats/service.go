package stats

import (
	"context"
	"log/slog"
	"time"

	"jukebox/src/music"
)

// TopSong is one row of the most-played report.
type TopSong struct {
	Title      string    `json:"title"`
	Artist     string    `json:"artist"`
	PlayCount  int       `json:"play_count"`
	LastPlayed time.Time `json:"last_played"`
}

// Store persists the play history.
type Store interface {
	RecordPlay(ctx context.Context, track music.Track, origin string, playedAt time.Time) error
	TopSongs(ctx context.Context, limit int) ([]TopSong, error)
	TotalPlays(ctx context.Context) (int, error)
	PruneOldest(ctx context.Context, keep int) error
}

// maxHistoryEntries bounds the play history so an unattended kiosk cannot
// grow its database forever.
const maxHistoryEntries = 10000

// Service records song plays and playback failures, feeding both the
// persistent history and the prometheus counters.
type Service struct {
	store   Store
	metrics *Metrics
}

// NewService creates a new statistics service.
func NewService(store Store, metrics *Metrics) *Service {
	return &Service{store: store, metrics: metrics}
}

// Metrics exposes the prometheus instruments to collaborators.
func (s *Service) Metrics() *Metrics {
	return s.metrics
}

// RecordPlay stores one confirmed play. Statistics are best-effort; a
// storage failure is logged, never propagated into the scheduling loop.
func (s *Service) RecordPlay(ctx context.Context, track music.Track, origin string) {
	s.metrics.SongsPlayed.WithLabelValues(origin).Inc()

	if err := s.store.RecordPlay(ctx, track, origin, time.Now()); err != nil {
		slog.Warn("Failed to record play", "track", track.Display(), "error", err)
		return
	}
	if err := s.store.PruneOldest(ctx, maxHistoryEntries); err != nil {
		slog.Warn("Failed to prune play history", "error", err)
	}
}

// RecordFailure counts one failed playback attempt.
func (s *Service) RecordFailure(origin string) {
	s.metrics.PlaybackFailures.WithLabelValues(origin).Inc()
}

// TopSongs returns the most-played tracks.
func (s *Service) TopSongs(ctx context.Context, limit int) ([]TopSong, error) {
	if limit <= 0 {
		limit = 10
	}
	return s.store.TopSongs(ctx, limit)
}

// TotalPlays returns the size of the recorded history.
func (s *Service) TotalPlays(ctx context.Context) (int, error) {
	return s.store.TotalPlays(ctx)
}
