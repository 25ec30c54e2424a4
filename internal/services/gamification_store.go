package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	redisclient "github.com/fablelab/fablelab-backend/internal/clients/redis"
	"github.com/fablelab/fablelab-backend/internal/leveling"
	"github.com/fablelab/fablelab-backend/internal/logger"
	"github.com/fablelab/fablelab-backend/internal/types"
)

const dateLayout = "2006-01-02"

// transientTTL is how long recentXPGain/recentBadge stay visible without an
// explicit acknowledgment.
const transientTTL = 3 * time.Second

// GamificationStore owns XP, level, streak, badges and the transient UI
// notifications. Level and title always track the leveling engine except
// immediately after hydration, where the remote snapshot is trusted as-is
// until the next AddXP recomputes them.
type GamificationStore struct {
	mu      sync.Mutex
	log     *logger.Logger
	gateway SyncGateway
	cache   redisclient.CacheService
	now     func() time.Time

	userID         uuid.UUID
	xp             int
	level          int
	levelTitle     string
	streak         int
	lastVisitDate  *string
	unlockedBadges []string

	recentXPGain *types.XPGain
	recentBadge  *string
	xpGainSeq    int
	badgeSeq     int
}

func NewGamificationStore(gateway SyncGateway, cache redisclient.CacheService, log *logger.Logger) *GamificationStore {
	return &GamificationStore{
		log:            log.With("store", "GamificationStore"),
		gateway:        gateway,
		cache:          cache,
		now:            time.Now,
		level:          1,
		levelTitle:     leveling.TitleForLevel(1),
		unlockedBadges: []string{},
	}
}

func (s *GamificationStore) SetUserID(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userID = id
}

func (s *GamificationStore) UserID() uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID
}

// AddXP applies the amount as given (the engine does not validate sign or
// magnitude), recomputes level and title, raises the transient notification
// and syncs the new absolute values remotely.
func (s *GamificationStore) AddXP(amount int, source string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.xp += amount
	s.level = leveling.LevelForXP(s.xp)
	s.levelTitle = leveling.TitleForLevel(s.level)

	s.recentXPGain = &types.XPGain{Amount: amount, Source: source}
	s.scheduleXPClearLocked()

	if s.userID != uuid.Nil {
		s.gateway.WriteGamification(s.userID, map[string]interface{}{
			"xp":          s.xp,
			"level":       s.level,
			"level_title": s.levelTitle,
		})
	}
	s.persistLocalLocked()
}

// CheckStreak records today's visit. Re-entry on the same calendar day is a
// no-op; yesterday extends the streak; anything else restarts it at 1.
func (s *GamificationStore) CheckStreak() {
	s.mu.Lock()
	defer s.mu.Unlock()

	today := s.now().Format(dateLayout)
	yesterday := s.now().AddDate(0, 0, -1).Format(dateLayout)

	if s.lastVisitDate != nil && *s.lastVisitDate == today {
		return
	}
	if s.lastVisitDate != nil && *s.lastVisitDate == yesterday {
		s.streak++
	} else {
		s.streak = 1
	}
	s.lastVisitDate = &today

	if s.userID != uuid.Nil {
		s.gateway.WriteGamification(s.userID, map[string]interface{}{
			"streak":          s.streak,
			"last_visit_date": today,
		})
	}
	s.persistLocalLocked()
}

// UnlockBadge is an idempotent, monotone insert; badges are never revoked.
func (s *GamificationStore) UnlockBadge(badgeID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if containsString(s.unlockedBadges, badgeID) {
		return
	}
	s.unlockedBadges = append(s.unlockedBadges, badgeID)

	id := badgeID
	s.recentBadge = &id
	s.scheduleBadgeClearLocked()

	if s.userID != uuid.Nil {
		s.gateway.WriteGamification(s.userID, map[string]interface{}{
			"unlocked_badges": jsonField(s.unlockedBadges),
		})
	}
	s.persistLocalLocked()
}

func (s *GamificationStore) HasBadge(badgeID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return containsString(s.unlockedBadges, badgeID)
}

func (s *GamificationStore) ClearRecentXP() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.xpGainSeq++
	s.recentXPGain = nil
}

func (s *GamificationStore) ClearRecentBadge() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.badgeSeq++
	s.recentBadge = nil
}

func (s *GamificationStore) RecentXPGain() *types.XPGain {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recentXPGain
}

func (s *GamificationStore) RecentBadge() *string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recentBadge
}

// Hydrate replaces the synced fields from a trusted remote snapshot. Level
// and title are taken as stored, not recomputed from XP.
func (s *GamificationStore) Hydrate(snap types.GamificationSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.xp = snap.XP
	s.level = snap.Level
	s.levelTitle = snap.LevelTitle
	s.streak = snap.Streak
	s.lastVisitDate = snap.LastVisitDate
	s.unlockedBadges = append([]string{}, snap.UnlockedBadges...)
}

func (s *GamificationStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.userID = uuid.Nil
	s.xp = 0
	s.level = 1
	s.levelTitle = leveling.TitleForLevel(1)
	s.streak = 0
	s.lastVisitDate = nil
	s.unlockedBadges = []string{}
	s.xpGainSeq++
	s.badgeSeq++
	s.recentXPGain = nil
	s.recentBadge = nil
}

func (s *GamificationStore) Snapshot() types.GamificationSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *GamificationStore) snapshotLocked() types.GamificationSnapshot {
	return types.GamificationSnapshot{
		XP:             s.xp,
		Level:          s.level,
		LevelTitle:     s.levelTitle,
		Streak:         s.streak,
		LastVisitDate:  s.lastVisitDate,
		UnlockedBadges: append([]string{}, s.unlockedBadges...),
	}
}

// ProgressWithinLevel reports the 0..100 position of the current XP inside
// the current level.
func (s *GamificationStore) ProgressWithinLevel() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return leveling.ProgressPercent(s.xp, s.level)
}

func (s *GamificationStore) scheduleXPClearLocked() {
	s.xpGainSeq++
	seq := s.xpGainSeq
	time.AfterFunc(transientTTL, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.xpGainSeq == seq {
			s.recentXPGain = nil
		}
	})
}

func (s *GamificationStore) scheduleBadgeClearLocked() {
	s.badgeSeq++
	seq := s.badgeSeq
	time.AfterFunc(transientTTL, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.badgeSeq == seq {
			s.recentBadge = nil
		}
	})
}

// persistLocalLocked mirrors the non-transient fields into the local cache
// so a restarted session starts from them before remote hydration. Failure
// is logged and discarded.
func (s *GamificationStore) persistLocalLocked() {
	if s.cache == nil || s.userID == uuid.Nil {
		return
	}
	key := redisclient.CacheKey(redisclient.GamificationCacheName, s.userID.String())
	snap := s.snapshotLocked()
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.cache.SetJSON(ctx, key, snap); err != nil {
			s.log.Warn("Failed to persist gamification cache", "key", key, "error", err)
		}
	}()
}
