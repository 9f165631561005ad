package config

// createDefaultConfig creates a new Config with sensible default values.
// The timing defaults match the classic jukebox behavior: half-second poll
// ticks, a ten-second no-songs delay, and unattended auto-recovery.
func createDefaultConfig() *Config {
	return &Config{
		MusicPath: "./music",
		DataPath:  "./data",
		Demo:      false,
		Logger: Logger{
			Enabled: true,
			Level:   "info",
			Format:  "text",
		},
		Server: Server{
			PrintRoutes: false,
			Port:        3636,
		},
		Engine: Engine{
			PollIntervalMs:         500,
			StartGraceMs:           3000,
			MaxPlaybackSeconds:     0,
			NoSongsDelaySeconds:    10,
			ErrorRetryDelaySeconds: 5,
			MaxPaidRetries:         3,
			MaxRandomRetries:       3,
			AutoRecover:            true,
			MaxIterations:          0,
			Volume:                 85,
			Backup:                 true,
		},
		Resources: Resources{
			MaxHandles:          10,
			MaxHandleAgeSeconds: 3600,
		},
		Database: Database{
			Path: "./data/statistics.db",
		},
		Credits: Credits{
			Initial:     0.0,
			CostPerSong: 0.25,
		},
		Telegram: Telegram{
			Enabled:      false,
			Token:        "", // Can be obtained with https://t.me/BotFather
			AllowedUsers: []string{},
		},
		Watcher: Watcher{
			Enabled: true,
		},
	}
}
