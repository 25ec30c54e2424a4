package services

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"

	"github.com/fablelab/fablelab-backend/internal/logger"
	"github.com/fablelab/fablelab-backend/internal/repos"
	"github.com/fablelab/fablelab-backend/internal/types"
)

// SyncGateway is the single remote-sync funnel for the domain stores. Reads
// are synchronous; writes are fire-and-forget and every failure is logged
// here rather than surfaced to the mutator that triggered it. Local state is
// never rolled back on a failed write.
type SyncGateway interface {
	ReadProgress(ctx context.Context, userID uuid.UUID) (*types.ProgressSnapshot, error)
	ReadGamification(ctx context.Context, userID uuid.UUID) (*types.GamificationSnapshot, error)
	ReadSettings(ctx context.Context, userID uuid.UUID) (*types.SettingsSnapshot, error)
	// ReadAllDomains issues the three whole-row reads concurrently. A domain
	// whose read fails is reported as not-found; the error is logged here.
	ReadAllDomains(ctx context.Context, userID uuid.UUID) types.DomainSnapshots

	WriteProgress(userID uuid.UUID, fields map[string]interface{})
	// WriteProgressDebounced collapses bursts for the same user into the last
	// call's payload, written once the debounce window passes quietly.
	WriteProgressDebounced(userID uuid.UUID, fields map[string]interface{})
	WriteGamification(userID uuid.UUID, fields map[string]interface{})
	WriteSettings(userID uuid.UUID, fields map[string]interface{})

	// Synchronous variants used by the one-time legacy migration, where the
	// caller decides how to react to failure.
	WriteProgressNow(ctx context.Context, userID uuid.UUID, fields map[string]interface{}) error
	WriteGamificationNow(ctx context.Context, userID uuid.UUID, fields map[string]interface{}) error
	WriteSettingsNow(ctx context.Context, userID uuid.UUID, fields map[string]interface{}) error

	// Flush fires any pending debounced writes and waits for in-flight
	// fire-and-forget writes. Used at shutdown and by tests.
	Flush()
}

type pendingWrite struct {
	timer  *time.Timer
	fields map[string]interface{}
}

type syncGateway struct {
	log          *logger.Logger
	progressRepo repos.ProgressRepo
	gamifRepo    repos.GamificationRepo
	settingsRepo repos.SettingsRepo

	debounceWindow time.Duration
	writeTimeout   time.Duration

	mu      sync.Mutex
	pending map[string]*pendingWrite
	wg      sync.WaitGroup
}

func NewSyncGateway(
	log *logger.Logger,
	progressRepo repos.ProgressRepo,
	gamifRepo repos.GamificationRepo,
	settingsRepo repos.SettingsRepo,
	debounceWindow time.Duration,
) SyncGateway {
	return &syncGateway{
		log:            log.With("service", "SyncGateway"),
		progressRepo:   progressRepo,
		gamifRepo:      gamifRepo,
		settingsRepo:   settingsRepo,
		debounceWindow: debounceWindow,
		writeTimeout:   10 * time.Second,
		pending:        map[string]*pendingWrite{},
	}
}

// jsonField encodes a collection value for a jsonb column. Marshal of the
// slice/map shapes used here cannot fail.
func jsonField(v interface{}) datatypes.JSON {
	raw, _ := json.Marshal(v)
	return datatypes.JSON(raw)
}

func (g *syncGateway) ReadProgress(ctx context.Context, userID uuid.UUID) (*types.ProgressSnapshot, error) {
	row, err := g.progressRepo.GetByUserID(ctx, nil, userID)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, nil
	}
	return progressSnapshotFromRow(row), nil
}

func (g *syncGateway) ReadGamification(ctx context.Context, userID uuid.UUID) (*types.GamificationSnapshot, error) {
	row, err := g.gamifRepo.GetByUserID(ctx, nil, userID)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, nil
	}
	return gamificationSnapshotFromRow(row), nil
}

func (g *syncGateway) ReadSettings(ctx context.Context, userID uuid.UUID) (*types.SettingsSnapshot, error) {
	row, err := g.settingsRepo.GetByUserID(ctx, nil, userID)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, nil
	}
	return &types.SettingsSnapshot{Provider: row.Provider, Theme: row.Theme}, nil
}

func (g *syncGateway) ReadAllDomains(ctx context.Context, userID uuid.UUID) types.DomainSnapshots {
	var snaps types.DomainSnapshots

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		snap, err := g.ReadProgress(egCtx, userID)
		if err != nil {
			g.log.Warn("Failed to read progress row", "user_id", userID, "error", err)
			return nil
		}
		snaps.Progress = snap
		return nil
	})
	eg.Go(func() error {
		snap, err := g.ReadGamification(egCtx, userID)
		if err != nil {
			g.log.Warn("Failed to read gamification row", "user_id", userID, "error", err)
			return nil
		}
		snaps.Gamification = snap
		return nil
	})
	eg.Go(func() error {
		snap, err := g.ReadSettings(egCtx, userID)
		if err != nil {
			g.log.Warn("Failed to read settings row", "user_id", userID, "error", err)
			return nil
		}
		snaps.Settings = snap
		return nil
	})
	_ = eg.Wait()

	return snaps
}

func (g *syncGateway) WriteProgress(userID uuid.UUID, fields map[string]interface{}) {
	g.fire("progress", userID, func(ctx context.Context) error {
		return g.progressRepo.UpdateFields(ctx, nil, userID, fields)
	})
}

func (g *syncGateway) WriteProgressDebounced(userID uuid.UUID, fields map[string]interface{}) {
	key := "progress:" + userID.String()

	g.mu.Lock()
	defer g.mu.Unlock()

	if p, ok := g.pending[key]; ok {
		p.timer.Stop()
	}
	p := &pendingWrite{fields: fields}
	p.timer = time.AfterFunc(g.debounceWindow, func() {
		g.mu.Lock()
		cur, ok := g.pending[key]
		if !ok || cur != p {
			g.mu.Unlock()
			return
		}
		delete(g.pending, key)
		g.mu.Unlock()
		g.WriteProgress(userID, p.fields)
	})
	g.pending[key] = p
}

func (g *syncGateway) WriteGamification(userID uuid.UUID, fields map[string]interface{}) {
	g.fire("gamification", userID, func(ctx context.Context) error {
		return g.gamifRepo.UpdateFields(ctx, nil, userID, fields)
	})
}

func (g *syncGateway) WriteSettings(userID uuid.UUID, fields map[string]interface{}) {
	g.fire("settings", userID, func(ctx context.Context) error {
		return g.settingsRepo.UpdateFields(ctx, nil, userID, fields)
	})
}

func (g *syncGateway) WriteProgressNow(ctx context.Context, userID uuid.UUID, fields map[string]interface{}) error {
	return g.progressRepo.UpdateFields(ctx, nil, userID, fields)
}

func (g *syncGateway) WriteGamificationNow(ctx context.Context, userID uuid.UUID, fields map[string]interface{}) error {
	return g.gamifRepo.UpdateFields(ctx, nil, userID, fields)
}

func (g *syncGateway) WriteSettingsNow(ctx context.Context, userID uuid.UUID, fields map[string]interface{}) error {
	return g.settingsRepo.UpdateFields(ctx, nil, userID, fields)
}

// fire runs one remote write in the background. The triggering mutator has
// already returned; failure is logged and discarded here.
func (g *syncGateway) fire(domain string, userID uuid.UUID, write func(ctx context.Context) error) {
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), g.writeTimeout)
		defer cancel()
		if err := write(ctx); err != nil {
			g.log.Warn("Remote sync write failed", "domain", domain, "user_id", userID, "error", err)
		}
	}()
}

func (g *syncGateway) Flush() {
	g.mu.Lock()
	for key, p := range g.pending {
		p.timer.Stop()
		delete(g.pending, key)
		fields := p.fields
		userID, err := uuid.Parse(key[len("progress:"):])
		if err != nil {
			continue
		}
		g.WriteProgress(userID, fields)
	}
	g.mu.Unlock()
	g.wg.Wait()
}

func progressSnapshotFromRow(row *types.UserProgress) *types.ProgressSnapshot {
	snap := &types.ProgressSnapshot{
		CompletedLessons:   []string{},
		QuizScores:         map[string]types.QuizScore{},
		SubmittedExercises: []string{},
		CurrentModule:      row.CurrentModule,
		CurrentLesson:      row.CurrentLesson,
	}
	if len(row.CompletedLessons) > 0 {
		_ = json.Unmarshal(row.CompletedLessons, &snap.CompletedLessons)
	}
	if len(row.QuizScores) > 0 {
		_ = json.Unmarshal(row.QuizScores, &snap.QuizScores)
	}
	if len(row.SubmittedExercises) > 0 {
		_ = json.Unmarshal(row.SubmittedExercises, &snap.SubmittedExercises)
	}
	return snap
}

func gamificationSnapshotFromRow(row *types.UserGamification) *types.GamificationSnapshot {
	snap := &types.GamificationSnapshot{
		XP:             row.XP,
		Level:          row.Level,
		LevelTitle:     row.LevelTitle,
		Streak:         row.Streak,
		LastVisitDate:  row.LastVisitDate,
		UnlockedBadges: []string{},
	}
	if len(row.UnlockedBadges) > 0 {
		_ = json.Unmarshal(row.UnlockedBadges, &snap.UnlockedBadges)
	}
	return snap
}
