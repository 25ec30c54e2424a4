package services

import (
	"context"
	"sync"

	"github.com/google/uuid"

	redisclient "github.com/fablelab/fablelab-backend/internal/clients/redis"
	"github.com/fablelab/fablelab-backend/internal/logger"
)

// UserSession is one signed-in user's set of domain stores plus the
// controller that reconciled them. The store factories give each session
// fresh instances; nothing is shared across identities.
type UserSession struct {
	Progress     *ProgressStore
	Gamification *GamificationStore
	Settings     *SettingsStore
	Theme        *ThemeStore
	Controller   *SessionController
}

// SessionManager owns the live sessions, creating and reconciling a store
// set the first time an identity shows up and tearing it down on sign-out.
type SessionManager interface {
	Get(ctx context.Context, userID uuid.UUID) *UserSession
	Remove(userID uuid.UUID)
}

type sessionManager struct {
	log     *logger.Logger
	gateway SyncGateway
	cache   redisclient.CacheService

	mu       sync.Mutex
	sessions map[uuid.UUID]*UserSession
}

func NewSessionManager(log *logger.Logger, gateway SyncGateway, cache redisclient.CacheService) SessionManager {
	return &sessionManager{
		log:      log.With("service", "SessionManager"),
		gateway:  gateway,
		cache:    cache,
		sessions: map[uuid.UUID]*UserSession{},
	}
}

// Get returns the user's session, running the migrate-then-hydrate sign-in
// path on first use.
func (m *sessionManager) Get(ctx context.Context, userID uuid.UUID) *UserSession {
	m.mu.Lock()
	defer m.mu.Unlock()

	if sess, ok := m.sessions[userID]; ok {
		return sess
	}

	progress := NewProgressStore(m.gateway, m.log)
	gamification := NewGamificationStore(m.gateway, m.cache, m.log)
	settings := NewSettingsStore(m.gateway, m.cache, m.log)
	theme := NewThemeStore(m.gateway, m.log)
	controller := NewSessionController(m.log, m.gateway, m.cache, progress, gamification, settings, theme)

	// The provider catalog comes from the collaborator endpoint each
	// session; it is never persisted.
	settings.SetAvailableProviders(ProviderCatalog())

	controller.SignedIn(ctx, userID)

	sess := &UserSession{
		Progress:     progress,
		Gamification: gamification,
		Settings:     settings,
		Theme:        theme,
		Controller:   controller,
	}
	m.sessions[userID] = sess
	return sess
}

// Remove resets the session's stores and drops it.
func (m *sessionManager) Remove(userID uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[userID]
	if !ok {
		return
	}
	sess.Controller.SignedOut()
	delete(m.sessions, userID)
}
