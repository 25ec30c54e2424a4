package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	redisclient "github.com/fablelab/fablelab-backend/internal/clients/redis"
	"github.com/fablelab/fablelab-backend/internal/logger"
	"github.com/fablelab/fablelab-backend/internal/types"
)

// SettingsStore owns the AI provider selection and the session-scoped
// provider catalog. Only the provider is persisted; the catalog is refetched
// every session.
type SettingsStore struct {
	mu      sync.Mutex
	log     *logger.Logger
	gateway SyncGateway
	cache   redisclient.CacheService

	userID             uuid.UUID
	provider           string
	availableProviders []types.ProviderInfo
}

func NewSettingsStore(gateway SyncGateway, cache redisclient.CacheService, log *logger.Logger) *SettingsStore {
	return &SettingsStore{
		log:      log.With("store", "SettingsStore"),
		gateway:  gateway,
		cache:    cache,
		provider: types.DefaultProvider,
	}
}

func (s *SettingsStore) SetUserID(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userID = id
}

func (s *SettingsStore) UserID() uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID
}

func (s *SettingsStore) SetProvider(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.provider = name
	if s.userID != uuid.Nil {
		s.gateway.WriteSettings(s.userID, map[string]interface{}{
			"provider": name,
		})
	}
	s.persistLocalLocked()
}

func (s *SettingsStore) Provider() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.provider
}

// HydrateFromDB applies the remote provider value. An empty value from the
// remote row means "unset" and falls back to the default provider.
func (s *SettingsStore) HydrateFromDB(provider string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if provider == "" {
		s.provider = types.DefaultProvider
		return
	}
	s.provider = provider
}

// SetAvailableProviders replaces the session catalog. Local only, never
// written remotely.
func (s *SettingsStore) SetAvailableProviders(list []types.ProviderInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.availableProviders = append([]types.ProviderInfo{}, list...)
}

func (s *SettingsStore) AvailableProviders() []types.ProviderInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]types.ProviderInfo{}, s.availableProviders...)
}

func (s *SettingsStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.userID = uuid.Nil
	s.provider = types.DefaultProvider
	s.availableProviders = nil
}

func (s *SettingsStore) persistLocalLocked() {
	if s.cache == nil || s.userID == uuid.Nil {
		return
	}
	key := redisclient.CacheKey(redisclient.SettingsCacheName, s.userID.String())
	payload := map[string]string{"provider": s.provider}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.cache.SetJSON(ctx, key, payload); err != nil {
			s.log.Warn("Failed to persist settings cache", "key", key, "error", err)
		}
	}()
}

// ProviderCatalog is the static descriptor list handed to sessions in place
// of the remote catalog call.
func ProviderCatalog() []types.ProviderInfo {
	return []types.ProviderInfo{
		{Name: types.ProviderAnthropic, DisplayName: "Claude", Available: true},
		{Name: types.ProviderOpenAI, DisplayName: "GPT", Available: true},
		{Name: types.ProviderGoogle, DisplayName: "Gemini", Available: true},
	}
}
