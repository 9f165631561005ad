package config

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Load reads a YAML file from the given path and returns a new Manager.
// If the file doesn't exist, creates a default configuration.
func Load(path string) (*Manager, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		slog.Info("Config file not found, creating default configuration", "path", path)
		defaultCfg := createDefaultConfig()

		if err := saveDefaultConfig(path, defaultCfg); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}

		slog.Info("Default configuration created successfully", "path", path)
		manager := NewManager(defaultCfg)
		if err := manager.EnsureDirectories(); err != nil {
			return nil, err
		}
		return manager, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, err
	}

	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	applyTimingDefaults(&cfg)

	// Override with environment variables if set
	if token := os.Getenv("TELEGRAM_TOKEN"); token != "" {
		cfg.Telegram.Token = token
	}

	manager := NewManager(&cfg)
	if err := manager.EnsureDirectories(); err != nil {
		return nil, err
	}

	return manager, nil
}

// applyTimingDefaults fills in zero-valued timing and bound fields so a
// hand-edited config can never stall the loop with a zero tick interval
// or an unbounded registry.
func applyTimingDefaults(cfg *Config) {
	def := createDefaultConfig()
	if cfg.Engine.PollIntervalMs <= 0 {
		cfg.Engine.PollIntervalMs = def.Engine.PollIntervalMs
	}
	if cfg.Engine.StartGraceMs <= 0 {
		cfg.Engine.StartGraceMs = def.Engine.StartGraceMs
	}
	if cfg.Engine.NoSongsDelaySeconds <= 0 {
		cfg.Engine.NoSongsDelaySeconds = def.Engine.NoSongsDelaySeconds
	}
	if cfg.Engine.ErrorRetryDelaySeconds <= 0 {
		cfg.Engine.ErrorRetryDelaySeconds = def.Engine.ErrorRetryDelaySeconds
	}
	if cfg.Resources.MaxHandles <= 0 {
		cfg.Resources.MaxHandles = def.Resources.MaxHandles
	}
	if cfg.Resources.MaxHandleAgeSeconds <= 0 {
		cfg.Resources.MaxHandleAgeSeconds = def.Resources.MaxHandleAgeSeconds
	}
	if cfg.Engine.Volume <= 0 || cfg.Engine.Volume > 100 {
		cfg.Engine.Volume = def.Engine.Volume
	}
}

// saveDefaultConfig writes the default configuration to the given path.
func saveDefaultConfig(path string, cfg *Config) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := yaml.NewEncoder(file)
	encoder.SetIndent(2)
	return encoder.Encode(cfg)
}
