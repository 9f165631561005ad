package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"jukebox/src/features/catalog"
	"jukebox/src/features/config"
	"jukebox/src/features/playback"
	"jukebox/src/features/queue"
	"jukebox/src/features/resources"
	"jukebox/src/infra/mediaplayer"
	"jukebox/src/infra/store"
	"jukebox/src/music"
)

// fixedScanner serves a fixed track list as the rebuild collaborator.
type fixedScanner struct {
	tracks []music.Track
}

func (s *fixedScanner) CountMediaFiles(dir string) (int, error) {
	return len(s.tracks), nil
}

func (s *fixedScanner) ScanDirectory(ctx context.Context, dir string) ([]music.Track, error) {
	return s.tracks, nil
}

type testDeps struct {
	engine  *Service
	queue   *queue.Service
	catalog *catalog.Service
	store   *store.Store
}

func testEngineConfig(musicDir string, maxIterations int) *config.Manager {
	return config.NewManager(&config.Config{
		MusicPath: musicDir,
		Engine: config.Engine{
			PollIntervalMs:   5,
			StartGraceMs:     300,
			MaxPaidRetries:   3,
			MaxRandomRetries: 3,
			AutoRecover:      true,
			MaxIterations:    maxIterations,
			Volume:           50,
		},
	})
}

// newTestDeps builds the full stack over a dummy media engine: trackCount
// real files on disk, catalog loaded, rotation built, empty paid queue.
func newTestDeps(t *testing.T, trackCount, maxIterations int) testDeps {
	t.Helper()

	musicDir := t.TempDir()
	tracks := make([]music.Track, 0, trackCount)
	for i := 0; i < trackCount; i++ {
		path := filepath.Join(musicDir, fmt.Sprintf("song%d.mp3", i))
		if err := os.WriteFile(path, []byte("not really audio"), 0644); err != nil {
			t.Fatal(err)
		}
		tracks = append(tracks, music.Track{
			Path:   path,
			Title:  fmt.Sprintf("Song %d", i),
			Artist: "Band",
		})
	}

	st := store.New(t.TempDir(), false)
	cfgManager := testEngineConfig(musicDir, maxIterations)

	catSvc := catalog.NewService(&fixedScanner{tracks: tracks}, st, cfgManager)
	cat, rebuilt, err := catSvc.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	q := queue.NewService(st)
	q.Restore(cat, nil, rebuilt)

	manager := resources.NewManager(mediaplayer.NewDummyEngine(20*time.Millisecond), 10, time.Hour)
	pb := playback.NewService(manager, st, cfgManager)

	return testDeps{
		engine:  NewService(catSvc, q, pb, nil, cfgManager),
		queue:   q,
		catalog: catSvc,
		store:   st,
	}
}

func TestRunsExactlyFiveIterations(t *testing.T) {
	deps := newTestDeps(t, 3, 5)

	counters, err := deps.engine.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if counters.Iterations != 5 {
		t.Errorf("expected exactly 5 iterations, got %d", counters.Iterations)
	}
	if counters.RandomSongsPlayed != 5 {
		t.Errorf("expected 5 random plays, got %d", counters.RandomSongsPlayed)
	}
	if counters.PaidSongsPlayed != 0 {
		t.Errorf("expected no paid plays, got %d", counters.PaidSongsPlayed)
	}
	if counters.Elapsed <= 0 {
		t.Error("expected positive elapsed time")
	}
}

func TestPaidQueueDrainsFirst(t *testing.T) {
	deps := newTestDeps(t, 3, 3)
	if err := deps.queue.EnqueuePaid(1); err != nil {
		t.Fatal(err)
	}
	if err := deps.queue.EnqueuePaid(0); err != nil {
		t.Fatal(err)
	}

	counters, err := deps.engine.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if counters.PaidSongsPlayed != 2 {
		t.Errorf("expected 2 paid plays, got %d", counters.PaidSongsPlayed)
	}
	if counters.RandomSongsPlayed != 1 {
		t.Errorf("expected 1 random play after the paid drain, got %d", counters.RandomSongsPlayed)
	}
	if deps.queue.PaidLen() != 0 {
		t.Errorf("expected drained paid queue, %d left", deps.queue.PaidLen())
	}

	// FIFO order: Song 1 was purchased before Song 0.
	data, err := os.ReadFile(deps.store.Path(store.LogFile))
	if err != nil {
		t.Fatal(err)
	}
	first := strings.Index(string(data), "Song 1, Played Paid")
	second := strings.Index(string(data), "Song 0, Played Paid")
	if first == -1 || second == -1 || first > second {
		t.Errorf("expected paid plays logged in purchase order, got:\n%s", data)
	}
}

func TestBrokenFileIsRotatedPast(t *testing.T) {
	deps := newTestDeps(t, 3, 3)

	// Break one track on disk; its rotation entry must be skipped, not lost.
	cat := deps.catalog.Current()
	broken, _ := cat.Get(0)
	if err := os.Remove(broken.Path); err != nil {
		t.Fatal(err)
	}

	counters, err := deps.engine.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if counters.RandomSongsPlayed != 3 {
		t.Errorf("expected 3 random plays despite the broken file, got %d", counters.RandomSongsPlayed)
	}
	if counters.Errors == 0 {
		t.Error("expected the broken file to be counted as an error")
	}
	if deps.queue.RotationLen() != 3 {
		t.Errorf("rotation must not shrink on failure, got %d", deps.queue.RotationLen())
	}
}

func TestRefusesToStartWithEmptyCatalog(t *testing.T) {
	st := store.New(t.TempDir(), false)
	cfgManager := testEngineConfig(t.TempDir(), 1)
	catSvc := catalog.NewService(&fixedScanner{}, st, cfgManager)
	q := queue.NewService(st)
	manager := resources.NewManager(mediaplayer.NewDummyEngine(20*time.Millisecond), 10, time.Hour)
	pb := playback.NewService(manager, st, cfgManager)

	service := NewService(catSvc, q, pb, nil, cfgManager)
	if _, err := service.Run(context.Background()); err == nil || !strings.Contains(err.Error(), "catalog") {
		t.Errorf("expected empty-catalog refusal, got %v", err)
	}
}

func TestRefusesToStartWithoutCandidates(t *testing.T) {
	musicDir := t.TempDir()
	path := filepath.Join(musicDir, "song.mp3")
	if err := os.WriteFile(path, []byte("not really audio"), 0644); err != nil {
		t.Fatal(err)
	}
	// The only track is excluded from the rotation and nothing is queued.
	scanner := &fixedScanner{tracks: []music.Track{
		{Path: path, Title: "Song", Artist: "Band", Genre: "rock " + music.NoRandomTag},
	}}

	st := store.New(t.TempDir(), false)
	cfgManager := testEngineConfig(musicDir, 1)
	catSvc := catalog.NewService(scanner, st, cfgManager)
	cat, rebuilt, err := catSvc.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	q := queue.NewService(st)
	q.Restore(cat, nil, rebuilt)

	manager := resources.NewManager(mediaplayer.NewDummyEngine(20*time.Millisecond), 10, time.Hour)
	pb := playback.NewService(manager, st, cfgManager)

	service := NewService(catSvc, q, pb, nil, cfgManager)
	if _, err := service.Run(context.Background()); err == nil || !strings.Contains(err.Error(), "queues") {
		t.Errorf("expected no-candidates refusal, got %v", err)
	}
}

func TestShutdownStopsLoop(t *testing.T) {
	deps := newTestDeps(t, 3, 0) // no iteration cap

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(150 * time.Millisecond)
		cancel()
	}()

	done := make(chan struct{})
	var counters Counters
	var err error
	go func() {
		counters, err = deps.engine.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("loop did not stop after cancellation")
	}
	if err != nil {
		t.Errorf("expected clean shutdown, got %v", err)
	}
	if counters.Iterations == 0 {
		t.Error("expected at least one iteration before shutdown")
	}
}
