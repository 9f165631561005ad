package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"jukebox/src/features/catalog"
	"jukebox/src/features/config"
	"jukebox/src/features/credits"
	"jukebox/src/features/engine"
	"jukebox/src/features/genres"
	"jukebox/src/features/hosting"
	"jukebox/src/features/logging"
	"jukebox/src/features/playback"
	"jukebox/src/features/queue"
	"jukebox/src/features/resources"
	"jukebox/src/features/stats"
	"jukebox/src/infra/database"
	"jukebox/src/infra/mediaplayer"
	"jukebox/src/infra/scan"
	"jukebox/src/infra/store"
	"jukebox/src/infra/watcher"
)

func main() {
	// Load configuration
	cfgManager, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	cfg := cfgManager.Get()

	// Setup default logger with slog
	logger := logging.SetupLogger(cfgManager)
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Persistence layer for queues, genre filters, credits and the play log
	st := store.New(cfg.DataPath, cfg.Engine.Backup)

	// Build or reload the catalog from the music directory
	scanner := scan.NewScanner()
	catalogService := catalog.NewService(scanner, st, cfgManager)
	cat, rebuilt, err := catalogService.Load(ctx)
	if err != nil {
		log.Fatalf("failed to load catalog: %v", err)
	}

	// Genre filters, then the queues they shape
	genresService := genres.NewService(st)
	genresService.Load()
	queueService := queue.NewService(st)
	queueService.Restore(cat, genresService.Active(), rebuilt)

	// Media sessions: an external player, or a silent dummy in demo mode
	var mediaEngine resources.Engine
	if cfg.Demo {
		mediaEngine = mediaplayer.NewDummyEngine(2 * time.Second)
		slog.Info("Demo mode: using silent dummy media engine")
	} else {
		mediaEngine = mediaplayer.NewExecEngine(cfg.Engine.PlayerBinary)
	}
	resourceManager := resources.NewManager(mediaEngine,
		cfg.Resources.MaxHandles,
		time.Duration(cfg.Resources.MaxHandleAgeSeconds)*time.Second)
	defer resourceManager.ReleaseAll()

	playbackService := playback.NewService(resourceManager, st, cfgManager)

	// Credits and play statistics
	creditsService := credits.NewService(st, cfgManager)

	registry := prometheus.NewRegistry()
	metrics := stats.NewMetrics(registry)
	db, err := database.NewSqliteStats(cfg.Database.Path)
	if err != nil {
		log.Fatalf("failed to open statistics database: %v", err)
	}
	defer db.Close()
	statsService := stats.NewService(db, metrics)

	engineService := engine.NewService(catalogService, queueService, playbackService, statsService, cfgManager)

	// Watch the music directory so a changed library is rebuilt next startup
	if cfg.Watcher.Enabled {
		w, err := watcher.NewWatcher(catalogService)
		if err != nil {
			slog.Error("Failed to create music directory watcher", "error", err)
		} else if err := w.Start(ctx, cfg.MusicPath); err != nil {
			slog.Error("Failed to start music directory watcher", "error", err)
		} else {
			defer w.Stop()
		}
	}

	services := hosting.Services{
		Catalog:  catalogService,
		Queue:    queueService,
		Playback: playbackService,
		Credits:  creditsService,
		Genres:   genresService,
		Stats:    statsService,
		Registry: registry,
	}

	// Create and start the Telegram bot if enabled
	var telegramBot *hosting.TelegramBot
	if cfg.Telegram.Enabled {
		telegramBot, err = hosting.NewTelegramBot(cfgManager, services)
		if err != nil {
			slog.Error("Failed to initialize Telegram bot", "error", err)
		} else {
			go telegramBot.Start()
			slog.Info("Telegram bot started")
		}
	}

	// Create and start the HTTP server
	server := hosting.NewServer(cfgManager, services)
	go func() {
		slog.Info("Server started", "port", cfg.Server.Port)
		if err := server.Start(); err != nil {
			slog.Error("Server stopped", "error", err)
		}
	}()

	// Run the scheduling loop; a fatal startup condition ends the process
	loopDone := make(chan error, 1)
	go func() {
		counters, err := engineService.Run(ctx)
		slog.Info("Scheduling loop finished",
			"iterations", counters.Iterations,
			"paid", counters.PaidSongsPlayed,
			"random", counters.RandomSongsPlayed,
			"errors", counters.Errors,
			"elapsed", counters.Elapsed.Round(time.Second))
		loopDone <- err
	}()

	// Wait for a shutdown signal or a loop failure
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	select {
	case <-quit:
		slog.Info("Shutting down...")
		cancel()
		<-loopDone
	case err := <-loopDone:
		if err != nil {
			slog.Error("Scheduling loop failed", "error", err)
		}
	}

	if telegramBot != nil {
		telegramBot.Stop()
		slog.Info("Telegram bot stopped")
	}
	if err := server.Shutdown(); err != nil {
		log.Fatalf("failed to shutdown server: %v", err)
	}
	slog.Info("Jukebox gracefully shut down.")
}
