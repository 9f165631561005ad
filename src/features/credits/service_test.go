package credits

import (
	"testing"

	"jukebox/src/features/config"
	"jukebox/src/infra/store"
)

func newTestService(t *testing.T, initial, cost float64) (*Service, *store.Store) {
	t.Helper()
	st := store.New(t.TempDir(), false)
	cfg := config.NewManager(&config.Config{Credits: config.Credits{Initial: initial, CostPerSong: cost}})
	return NewService(st, cfg), st
}

func TestAddAndSpend(t *testing.T) {
	service, _ := newTestService(t, 0, 0.25)

	if err := service.Add(1.00); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 4; i++ {
		if err := service.SpendForSong(); err != nil {
			t.Fatalf("spend %d: %v", i, err)
		}
	}
	if err := service.SpendForSong(); err == nil {
		t.Error("expected insufficient credits error")
	}
	if got := service.Balance(); got != 0 {
		t.Errorf("expected zero balance, got %.2f", got)
	}
}

func TestAddRejectsNonPositive(t *testing.T) {
	service, _ := newTestService(t, 0, 0.25)
	if err := service.Add(0); err == nil {
		t.Error("expected error for zero amount")
	}
	if err := service.Add(-1); err == nil {
		t.Error("expected error for negative amount")
	}
}

func TestZeroCostIsFree(t *testing.T) {
	service, _ := newTestService(t, 0, 0)
	if err := service.SpendForSong(); err != nil {
		t.Errorf("expected free play with zero cost, got %v", err)
	}
}

func TestBalanceSurvivesRestart(t *testing.T) {
	service, st := newTestService(t, 0, 0.25)
	if err := service.Add(2.50); err != nil {
		t.Fatal(err)
	}

	cfg := config.NewManager(&config.Config{Credits: config.Credits{Initial: 0, CostPerSong: 0.25}})
	revived := NewService(st, cfg)
	if got := revived.Balance(); got != 2.50 {
		t.Errorf("expected restored balance 2.50, got %.2f", got)
	}
}
