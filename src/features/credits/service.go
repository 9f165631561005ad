package credits

import (
	"fmt"
	"log/slog"
	"os"
	"sync"

	"jukebox/src/features/config"
	"jukebox/src/infra/store"
)

// Service tracks the coin balance. The balance survives restarts; paid
// selections are refused when it cannot cover the per-song cost.
type Service struct {
	store         *store.Store
	configManager *config.Manager

	mu      sync.Mutex
	balance float64
}

// NewService creates the credit service, restoring any persisted balance.
func NewService(st *store.Store, cfgManager *config.Manager) *Service {
	s := &Service{store: st, configManager: cfgManager}

	var balance float64
	if err := st.ReadJSON(store.CreditsFile, &balance); err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("Unreadable credits file, starting from configured initial", "error", err)
		}
		balance = cfgManager.Get().Credits.Initial
	}
	s.balance = balance
	return s
}

// Balance returns the current credit balance.
func (s *Service) Balance() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.balance
}

// CostPerSong returns the configured price of one paid selection.
func (s *Service) CostPerSong() float64 {
	return s.configManager.Get().Credits.CostPerSong
}

// Add inserts money into the balance.
func (s *Service) Add(amount float64) error {
	if amount <= 0 {
		return fmt.Errorf("credit amount must be positive, got %.2f", amount)
	}
	s.mu.Lock()
	s.balance += amount
	balance := s.balance
	s.mu.Unlock()

	s.persist(balance)
	slog.Info("Credits added", "amount", amount, "balance", balance)
	return nil
}

// SpendForSong deducts one song's cost, refusing on an insufficient balance.
// A zero configured cost makes every selection free.
func (s *Service) SpendForSong() error {
	cost := s.CostPerSong()
	if cost <= 0 {
		return nil
	}

	s.mu.Lock()
	if s.balance < cost {
		balance := s.balance
		s.mu.Unlock()
		return fmt.Errorf("insufficient credits: have %.2f, need %.2f", balance, cost)
	}
	s.balance -= cost
	balance := s.balance
	s.mu.Unlock()

	s.persist(balance)
	slog.Info("Credits spent", "cost", cost, "balance", balance)
	return nil
}

func (s *Service) persist(balance float64) {
	if err := s.store.WriteJSON(store.CreditsFile, balance); err != nil {
		slog.Error("Failed to persist credits", "error", err)
	}
}
