package services

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	redisclient "github.com/fablelab/fablelab-backend/internal/clients/redis"
	"github.com/fablelab/fablelab-backend/internal/logger"
	"github.com/fablelab/fablelab-backend/internal/types"
)

// SessionController drives the auth-state transitions across all four
// domain stores: one-time legacy migration, hydration from the remote rows
// and full reset on sign-out. Every failure along the way is logged and
// swallowed; nothing here blocks the session from proceeding.
type SessionController struct {
	log     *logger.Logger
	gateway SyncGateway
	cache   redisclient.CacheService

	progress     *ProgressStore
	gamification *GamificationStore
	settings     *SettingsStore
	theme        *ThemeStore

	loading bool
}

func NewSessionController(
	log *logger.Logger,
	gateway SyncGateway,
	cache redisclient.CacheService,
	progress *ProgressStore,
	gamification *GamificationStore,
	settings *SettingsStore,
	theme *ThemeStore,
) *SessionController {
	return &SessionController{
		log:          log.With("service", "SessionController"),
		gateway:      gateway,
		cache:        cache,
		progress:     progress,
		gamification: gamification,
		settings:     settings,
		theme:        theme,
		loading:      true,
	}
}

// InitialLoad handles process start with a possibly-present identity.
// Without one, the stores stay at defaults and the loading flag clears.
func (c *SessionController) InitialLoad(ctx context.Context, userID uuid.UUID) {
	if userID == uuid.Nil {
		c.loading = false
		return
	}
	c.SignedIn(ctx, userID)
}

// SignedIn runs the one-time local-to-remote migration and then hydrates
// all stores for the identity. Re-entrant for identity switches.
func (c *SessionController) SignedIn(ctx context.Context, userID uuid.UUID) {
	c.loading = true
	c.migrateLegacyLocalState(ctx, userID)
	c.hydrate(ctx, userID)
	c.loading = false
}

// SignedOut resets the progress, gamification and settings stores to
// defaults (clearing their bindings) and unbinds the theme store. The theme
// value itself is retained across sign-out.
func (c *SessionController) SignedOut() {
	c.progress.Reset()
	c.gamification.Reset()
	c.settings.Reset()
	c.theme.SetUserID(uuid.Nil)
	c.loading = false
}

func (c *SessionController) Loading() bool {
	return c.loading
}

// Legacy cache shapes, as persisted by pre-sync clients. Each may be wrapped
// in a {state: ...} envelope.
type legacyProgressCache struct {
	CompletedLessons   []string                   `json:"completedLessons"`
	QuizScores         map[string]types.QuizScore `json:"quizScores"`
	CurrentModule      *string                    `json:"currentModule"`
	CurrentLesson      *string                    `json:"currentLesson"`
	SubmittedExercises []string                   `json:"submittedExercises"`
}

type legacyGamificationCache struct {
	XP             int      `json:"xp"`
	Level          int      `json:"level"`
	LevelTitle     string   `json:"levelTitle"`
	Streak         int      `json:"streak"`
	LastVisitDate  *string  `json:"lastVisitDate"`
	UnlockedBadges []string `json:"unlockedBadges"`
}

type legacySettingsCache struct {
	Provider string `json:"provider"`
}

type legacyThemeCache struct {
	Theme string `json:"theme"`
}

// migrateLegacyLocalState pushes pre-existing local-only state into the
// remote rows, at most once per cache lifetime. It refuses to touch any
// domain when the cloud already has real progress, skips caches that do not
// clear the per-domain non-trivial bar, and deletes all four caches
// unconditionally afterwards.
func (c *SessionController) migrateLegacyLocalState(ctx context.Context, userID uuid.UUID) {
	if c.cache == nil {
		return
	}

	remote, err := c.gateway.ReadProgress(ctx, userID)
	if err != nil {
		c.log.Warn("Migration aborted: could not read remote progress", "user_id", userID, "error", err)
		return
	}
	if remote != nil && len(remote.CompletedLessons) > 0 {
		// Cloud already has real data; leave every domain alone.
		return
	}

	uid := userID.String()
	keys := []string{
		redisclient.CacheKey(redisclient.ProgressCacheName, uid),
		redisclient.CacheKey(redisclient.GamificationCacheName, uid),
		redisclient.CacheKey(redisclient.SettingsCacheName, uid),
		redisclient.CacheKey(redisclient.ThemeCacheName, uid),
	}

	raws := make([]json.RawMessage, len(keys))
	anyFound := false
	for i, key := range keys {
		var raw json.RawMessage
		found, err := c.cache.GetJSON(ctx, key, &raw)
		if err != nil {
			c.log.Warn("Failed to read legacy cache", "key", key, "error", err)
			continue
		}
		if found {
			raws[i] = unwrapStateEnvelope(raw)
			anyFound = true
		}
	}
	if !anyFound {
		return
	}

	if raws[0] != nil {
		var p legacyProgressCache
		if err := json.Unmarshal(raws[0], &p); err != nil {
			c.log.Warn("Malformed legacy progress cache", "user_id", userID, "error", err)
		} else if len(p.CompletedLessons) > 0 || len(p.QuizScores) > 0 {
			err := c.gateway.WriteProgressNow(ctx, userID, map[string]interface{}{
				"completed_lessons":   jsonField(p.CompletedLessons),
				"quiz_scores":         jsonField(p.QuizScores),
				"current_module":      p.CurrentModule,
				"current_lesson":      p.CurrentLesson,
				"submitted_exercises": jsonField(p.SubmittedExercises),
			})
			if err != nil {
				c.log.Warn("Failed to migrate progress cache", "user_id", userID, "error", err)
			}
		}
	}

	if raws[1] != nil {
		var g legacyGamificationCache
		if err := json.Unmarshal(raws[1], &g); err != nil {
			c.log.Warn("Malformed legacy gamification cache", "user_id", userID, "error", err)
		} else if g.XP > 0 || len(g.UnlockedBadges) > 0 {
			err := c.gateway.WriteGamificationNow(ctx, userID, map[string]interface{}{
				"xp":              g.XP,
				"level":           g.Level,
				"level_title":     g.LevelTitle,
				"streak":          g.Streak,
				"last_visit_date": g.LastVisitDate,
				"unlocked_badges": jsonField(g.UnlockedBadges),
			})
			if err != nil {
				c.log.Warn("Failed to migrate gamification cache", "user_id", userID, "error", err)
			}
		}
	}

	if raws[2] != nil {
		var st legacySettingsCache
		if err := json.Unmarshal(raws[2], &st); err != nil {
			c.log.Warn("Malformed legacy settings cache", "user_id", userID, "error", err)
		} else if st.Provider != "" && st.Provider != types.DefaultProvider {
			err := c.gateway.WriteSettingsNow(ctx, userID, map[string]interface{}{
				"provider": st.Provider,
			})
			if err != nil {
				c.log.Warn("Failed to migrate settings cache", "user_id", userID, "error", err)
			}
		}
	}

	if raws[3] != nil {
		var th legacyThemeCache
		if err := json.Unmarshal(raws[3], &th); err != nil {
			c.log.Warn("Malformed legacy theme cache", "user_id", userID, "error", err)
		} else if th.Theme != "" && th.Theme != types.DefaultTheme {
			err := c.gateway.WriteSettingsNow(ctx, userID, map[string]interface{}{
				"theme": th.Theme,
			})
			if err != nil {
				c.log.Warn("Failed to migrate theme cache", "user_id", userID, "error", err)
			}
		}
	}

	// Migration is attempted at most once per cache lifetime, whether or not
	// each domain's bar was cleared.
	if err := c.cache.Delete(ctx, keys...); err != nil {
		c.log.Warn("Failed to delete legacy caches", "user_id", userID, "error", err)
	}
}

// hydrate reads all synced domains concurrently and binds each store whose
// row was found. A missing row leaves that domain's state and binding alone.
func (c *SessionController) hydrate(ctx context.Context, userID uuid.UUID) {
	snaps := c.gateway.ReadAllDomains(ctx, userID)

	if snaps.Progress != nil {
		c.progress.Hydrate(*snaps.Progress)
		c.progress.SetUserID(userID)
	}
	if snaps.Gamification != nil {
		c.gamification.Hydrate(*snaps.Gamification)
		c.gamification.SetUserID(userID)
	}
	if snaps.Settings != nil {
		c.settings.HydrateFromDB(snaps.Settings.Provider)
		c.settings.SetUserID(userID)
		// Theme rides on the settings row.
		c.theme.Hydrate(snaps.Settings.Theme)
		c.theme.SetUserID(userID)
	}
}

// unwrapStateEnvelope peels a {state: ...} wrapper off a legacy cache value
// when present.
func unwrapStateEnvelope(raw json.RawMessage) json.RawMessage {
	var envelope struct {
		State json.RawMessage `json:"state"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil && len(envelope.State) > 0 {
		return envelope.State
	}
	return raw
}
