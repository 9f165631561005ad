package config

// Config holds the application configuration.
type Config struct {
	MusicPath string    `yaml:"musicPath" validate:"required"`
	DataPath  string    `yaml:"dataPath" validate:"required"`
	Demo      bool      `yaml:"demo"`
	Logger    Logger    `yaml:"logger"`
	Server    Server    `yaml:"server"`
	Engine    Engine    `yaml:"engine"`
	Resources Resources `yaml:"resources"`
	Database  Database  `yaml:"database"`
	Credits   Credits   `yaml:"credits"`
	Telegram  Telegram  `yaml:"telegram"`
	Watcher   Watcher   `yaml:"watcher"`
}

// Logger holds the configuration for the app logging.
type Logger struct {
	Enabled bool   `yaml:"enabled"`
	Level   string `yaml:"level"`
	Format  string `yaml:"format"`
}

// Server holds the configuration for the Fiber server.
type Server struct {
	PrintRoutes bool   `yaml:"show_routes"`
	Port        uint32 `yaml:"port"`
}

// Engine holds the scheduling loop and playback timing configuration.
// All delays are wall-clock and bound every suspension point of the loop.
type Engine struct {
	PollIntervalMs         int    `yaml:"poll_interval_ms"`
	StartGraceMs           int    `yaml:"start_grace_ms"`
	MaxPlaybackSeconds     int    `yaml:"max_playback_seconds"` // 0 disables the wall-clock timeout
	NoSongsDelaySeconds    int    `yaml:"no_songs_delay_seconds"`
	ErrorRetryDelaySeconds int    `yaml:"error_retry_delay_seconds"`
	MaxPaidRetries         int    `yaml:"max_paid_retries"`
	MaxRandomRetries       int    `yaml:"max_random_retries"`
	AutoRecover            bool   `yaml:"auto_recover"`
	MaxIterations          int    `yaml:"max_iterations"` // 0 runs forever
	Volume                 int    `yaml:"volume"`
	Backup                 bool   `yaml:"backup"`        // pre-write .bak copies of persisted state
	PlayerBinary           string `yaml:"player_binary"` // empty uses the built-in default
}

// Resources holds the media-session registry configuration.
type Resources struct {
	MaxHandles          int `yaml:"max_handles"`
	MaxHandleAgeSeconds int `yaml:"max_handle_age_seconds"`
}

// Database holds the configuration for the play statistics database.
type Database struct {
	Path string `yaml:"path" validate:"required"`
}

// Credits holds the coin/credit configuration.
type Credits struct {
	Initial     float64 `yaml:"initial"`
	CostPerSong float64 `yaml:"cost_per_song"`
}

// Telegram holds the status bot configuration.
type Telegram struct {
	Enabled      bool     `yaml:"enabled"`
	Token        string   `yaml:"token"`
	AllowedUsers []string `yaml:"allowedUsers"`
}

// Watcher holds the music directory watcher configuration.
type Watcher struct {
	Enabled bool `yaml:"enabled"`
}
