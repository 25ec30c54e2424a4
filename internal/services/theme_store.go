package services

import (
	"sync"

	"github.com/google/uuid"

	"github.com/fablelab/fablelab-backend/internal/logger"
	"github.com/fablelab/fablelab-backend/internal/types"
)

// ThemeStore owns the light/dark preference. It deliberately has no Reset:
// sign-out clears only the identity binding and the last-selected theme
// stays in place.
type ThemeStore struct {
	mu      sync.Mutex
	log     *logger.Logger
	gateway SyncGateway

	userID uuid.UUID
	theme  string
}

func NewThemeStore(gateway SyncGateway, log *logger.Logger) *ThemeStore {
	return &ThemeStore{
		log:     log.With("store", "ThemeStore"),
		gateway: gateway,
		theme:   types.DefaultTheme,
	}
}

func (s *ThemeStore) SetUserID(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userID = id
}

func (s *ThemeStore) UserID() uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID
}

func (s *ThemeStore) SetTheme(theme string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setThemeLocked(theme)
}

func (s *ThemeStore) ToggleTheme() {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := types.ThemeDark
	if s.theme == types.ThemeDark {
		next = types.ThemeLight
	}
	s.setThemeLocked(next)
}

func (s *ThemeStore) setThemeLocked(theme string) {
	s.theme = theme
	if s.userID != uuid.Nil {
		s.gateway.WriteSettings(s.userID, map[string]interface{}{
			"theme": theme,
		})
	}
}

// Hydrate applies the theme from the remote settings row without writing it
// back. An empty value falls back to the default.
func (s *ThemeStore) Hydrate(theme string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if theme == "" {
		s.theme = types.DefaultTheme
		return
	}
	s.theme = theme
}

func (s *ThemeStore) Theme() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.theme
}
