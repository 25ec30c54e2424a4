package services

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"

	"github.com/fablelab/fablelab-backend/internal/types"
)

type writeCall struct {
	userID uuid.UUID
	fields map[string]interface{}
}

// fakeGateway records every write channel separately so tests can assert
// sync gating and the immediate-versus-debounced split.
type fakeGateway struct {
	mu sync.Mutex

	progressSnap *types.ProgressSnapshot
	progressErr  error
	gamifSnap    *types.GamificationSnapshot
	settingsSnap *types.SettingsSnapshot

	progressWrites  []writeCall
	debouncedWrites []writeCall
	gamifWrites     []writeCall
	settingsWrites  []writeCall

	progressNowWrites []writeCall
	gamifNowWrites    []writeCall
	settingsNowWrites []writeCall
}

func (f *fakeGateway) ReadProgress(ctx context.Context, userID uuid.UUID) (*types.ProgressSnapshot, error) {
	return f.progressSnap, f.progressErr
}

func (f *fakeGateway) ReadGamification(ctx context.Context, userID uuid.UUID) (*types.GamificationSnapshot, error) {
	return f.gamifSnap, nil
}

func (f *fakeGateway) ReadSettings(ctx context.Context, userID uuid.UUID) (*types.SettingsSnapshot, error) {
	return f.settingsSnap, nil
}

func (f *fakeGateway) ReadAllDomains(ctx context.Context, userID uuid.UUID) types.DomainSnapshots {
	return types.DomainSnapshots{
		Progress:     f.progressSnap,
		Gamification: f.gamifSnap,
		Settings:     f.settingsSnap,
	}
}

func (f *fakeGateway) WriteProgress(userID uuid.UUID, fields map[string]interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.progressWrites = append(f.progressWrites, writeCall{userID, fields})
}

func (f *fakeGateway) WriteProgressDebounced(userID uuid.UUID, fields map[string]interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.debouncedWrites = append(f.debouncedWrites, writeCall{userID, fields})
}

func (f *fakeGateway) WriteGamification(userID uuid.UUID, fields map[string]interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gamifWrites = append(f.gamifWrites, writeCall{userID, fields})
}

func (f *fakeGateway) WriteSettings(userID uuid.UUID, fields map[string]interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.settingsWrites = append(f.settingsWrites, writeCall{userID, fields})
}

func (f *fakeGateway) WriteProgressNow(ctx context.Context, userID uuid.UUID, fields map[string]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.progressNowWrites = append(f.progressNowWrites, writeCall{userID, fields})
	return nil
}

func (f *fakeGateway) WriteGamificationNow(ctx context.Context, userID uuid.UUID, fields map[string]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gamifNowWrites = append(f.gamifNowWrites, writeCall{userID, fields})
	return nil
}

func (f *fakeGateway) WriteSettingsNow(ctx context.Context, userID uuid.UUID, fields map[string]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.settingsNowWrites = append(f.settingsNowWrites, writeCall{userID, fields})
	return nil
}

func (f *fakeGateway) Flush() {}

func (f *fakeGateway) totalRemoteWrites() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.progressWrites) + len(f.debouncedWrites) + len(f.gamifWrites) + len(f.settingsWrites) +
		len(f.progressNowWrites) + len(f.gamifNowWrites) + len(f.settingsNowWrites)
}

// fakeCache is an in-memory stand-in for the redis cache client.
type fakeCache struct {
	mu      sync.Mutex
	data    map[string]json.RawMessage
	deleted []string
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: map[string]json.RawMessage{}}
}

func (c *fakeCache) put(key string, value interface{}) {
	raw, _ := json.Marshal(value)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = raw
}

func (c *fakeCache) GetJSON(ctx context.Context, key string, dest interface{}) (bool, error) {
	c.mu.Lock()
	raw, ok := c.data[key]
	c.mu.Unlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (c *fakeCache) SetJSON(ctx context.Context, key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = raw
	return nil
}

func (c *fakeCache) Delete(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range keys {
		delete(c.data, key)
		c.deleted = append(c.deleted, key)
	}
	return nil
}
