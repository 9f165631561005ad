package stats

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the prometheus instruments of the scheduling engine.
type Metrics struct {
	SongsPlayed      *prometheus.CounterVec
	PlaybackFailures *prometheus.CounterVec
	Iterations       prometheus.Counter
	HandlesLive      prometheus.Gauge
}

// NewMetrics creates and registers the engine's metrics on the registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		SongsPlayed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jukebox_songs_played_total",
			Help: "Confirmed song plays by queue origin.",
		}, []string{"origin"}),
		PlaybackFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jukebox_playback_failures_total",
			Help: "Failed playback attempts by queue origin.",
		}, []string{"origin"}),
		Iterations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "jukebox_engine_iterations_total",
			Help: "Completed scheduling loop iterations.",
		}),
		HandlesLive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "jukebox_media_handles_live",
			Help: "Currently registered, unreleased media handles.",
		}),
	}
	reg.MustRegister(m.SongsPlayed, m.PlaybackFailures, m.Iterations, m.HandlesLive)
	return m
}
