package resources

import "time"

// Engine is the boundary to the external media playback engine. The core
// requires only these operations and that Release is idempotent.
type Engine interface {
	Create(path string) (Session, error)
}

// Session is one playback session bound to a single file.
type Session interface {
	Play() error
	IsPlaying() bool
	Stop() error
	Release() error
	SetVolume(percent int) error
	Elapsed() time.Duration
	Duration() time.Duration
}
