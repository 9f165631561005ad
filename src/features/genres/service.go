package genres

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"jukebox/src/infra/store"
	"jukebox/src/music"
)

// Slots is the fixed number of genre filter slots. The on-disk file always
// holds exactly this many strings; anything else is repaired on load.
const Slots = 4

// Service owns the persisted genre filter configuration.
type Service struct {
	store *store.Store

	mu    sync.RWMutex
	slots []string
}

// NewService creates a new genre filter service.
func NewService(st *store.Store) *Service {
	return &Service{store: st}
}

// Load reads the persisted filter config. A missing file creates the default
// (all slots inactive); a malformed one is repaired in place. Load never
// fails in normal operation and always leaves exactly Slots entries.
func (s *Service) Load() []string {
	var raw []any
	err := s.store.ReadJSON(store.GenreFlagsFile, &raw)

	switch {
	case os.IsNotExist(err):
		slog.Info("Genre filter file not found, creating default")
		s.setSlots(defaultSlots())
		s.persist()
	case err != nil:
		slog.Warn("Genre filter file malformed, resetting to default", "error", err)
		s.setSlots(defaultSlots())
		s.persist()
	default:
		repaired, changed := repair(raw)
		s.setSlots(repaired)
		if changed {
			slog.Warn("Genre filter file repaired", "slots", repaired)
			s.persist()
		}
	}

	return s.Slots()
}

// Slots returns a copy of all four filter slots, active or not.
func (s *Service) Slots() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, Slots)
	copy(out, s.slots)
	return out
}

// Active returns the genre tokens of the non-inactive slots, lowercased.
// An empty result means the rotation takes every randomizable track.
func (s *Service) Active() []string {
	var active []string
	for _, slot := range s.Slots() {
		if slot != music.InactiveGenre {
			active = append(active, strings.ToLower(slot))
		}
	}
	return active
}

// Set stores a genre token in the given slot and persists the config.
// An empty token deactivates the slot.
func (s *Service) Set(slot int, token string) error {
	if slot < 0 || slot >= Slots {
		return fmt.Errorf("genre slot out of range: %d", slot)
	}
	token = strings.TrimSpace(token)
	if token == "" {
		token = music.InactiveGenre
	}

	s.mu.Lock()
	if s.slots == nil {
		s.slots = defaultSlots()
	}
	s.slots[slot] = token
	s.mu.Unlock()

	s.persist()
	slog.Info("Genre filter slot updated", "slot", slot, "token", token)
	return nil
}

func (s *Service) setSlots(slots []string) {
	s.mu.Lock()
	s.slots = slots
	s.mu.Unlock()
}

func (s *Service) persist() {
	if err := s.store.WriteJSON(store.GenreFlagsFile, s.Slots()); err != nil {
		slog.Error("Failed to persist genre filter config", "error", err)
	}
}

func defaultSlots() []string {
	slots := make([]string, Slots)
	for i := range slots {
		slots[i] = music.InactiveGenre
	}
	return slots
}

// repair coerces an arbitrary decoded JSON array into exactly Slots strings:
// non-strings are stringified, blanks become the inactive sentinel, and the
// list is padded or truncated to length.
func repair(raw []any) ([]string, bool) {
	changed := len(raw) != Slots
	slots := make([]string, 0, Slots)

	for _, v := range raw {
		if len(slots) == Slots {
			break
		}
		str, ok := v.(string)
		if !ok {
			str = fmt.Sprint(v)
			changed = true
		}
		str = strings.TrimSpace(str)
		if str == "" {
			str = music.InactiveGenre
			changed = true
		}
		slots = append(slots, str)
	}
	for len(slots) < Slots {
		slots = append(slots, music.InactiveGenre)
	}
	return slots, changed
}
