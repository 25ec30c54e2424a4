package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/fablelab/fablelab-backend/internal/logger"
	"github.com/fablelab/fablelab-backend/internal/repos"
	"github.com/fablelab/fablelab-backend/internal/types"
)

func newGatewayTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&types.UserProgress{}, &types.UserGamification{}, &types.UserSettings{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func newTestGateway(t *testing.T, debounce time.Duration) (SyncGateway, *gorm.DB) {
	t.Helper()
	db := newGatewayTestDB(t)
	log := logger.NewNop()
	gw := NewSyncGateway(
		log,
		repos.NewProgressRepo(db, log),
		repos.NewGamificationRepo(db, log),
		repos.NewSettingsRepo(db, log),
		debounce,
	)
	return gw, db
}

func seedProgressRow(t *testing.T, db *gorm.DB, userID uuid.UUID, row types.UserProgress) {
	t.Helper()
	row.ID = uuid.New()
	row.UserID = userID
	if err := db.Create(&row).Error; err != nil {
		t.Fatalf("seed progress row: %v", err)
	}
}

func TestReadProgressMissingRow(t *testing.T) {
	gw, _ := newTestGateway(t, time.Second)

	snap, err := gw.ReadProgress(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("ReadProgress: %v", err)
	}
	if snap != nil {
		t.Fatalf("missing row returned snapshot %+v, want nil", snap)
	}
}

func TestReadProgressDecodesCollections(t *testing.T) {
	gw, db := newTestGateway(t, time.Second)
	userID := uuid.New()
	module := "module-1"
	seedProgressRow(t, db, userID, types.UserProgress{
		CompletedLessons: jsonField([]string{"1-1", "1-2"}),
		QuizScores: jsonField(map[string]types.QuizScore{
			"1-1": {LessonID: "1-1", Score: 5, Total: 5},
		}),
		CurrentModule: &module,
	})

	snap, err := gw.ReadProgress(context.Background(), userID)
	if err != nil {
		t.Fatalf("ReadProgress: %v", err)
	}
	if snap == nil {
		t.Fatalf("seeded row not found")
	}
	if len(snap.CompletedLessons) != 2 || snap.CompletedLessons[1] != "1-2" {
		t.Fatalf("completedLessons=%v", snap.CompletedLessons)
	}
	if score := snap.QuizScores["1-1"]; score.Score != 5 || score.Total != 5 {
		t.Fatalf("quizScores=%v", snap.QuizScores)
	}
	if snap.CurrentModule == nil || *snap.CurrentModule != "module-1" {
		t.Fatalf("currentModule=%v", snap.CurrentModule)
	}
	if snap.SubmittedExercises == nil {
		t.Fatalf("null jsonb column should decode to an empty slice")
	}
}

func TestWritePartialLeavesOtherFields(t *testing.T) {
	gw, db := newTestGateway(t, time.Second)
	userID := uuid.New()
	seedProgressRow(t, db, userID, types.UserProgress{
		CompletedLessons: jsonField([]string{"1-1"}),
	})

	gw.WriteProgress(userID, map[string]interface{}{
		"current_lesson": "1-3",
	})
	gw.Flush()

	snap, err := gw.ReadProgress(context.Background(), userID)
	if err != nil {
		t.Fatalf("ReadProgress: %v", err)
	}
	if snap.CurrentLesson == nil || *snap.CurrentLesson != "1-3" {
		t.Fatalf("currentLesson=%v", snap.CurrentLesson)
	}
	if len(snap.CompletedLessons) != 1 {
		t.Fatalf("partial write clobbered completedLessons: %v", snap.CompletedLessons)
	}
}

func TestWritePartialNoRowIsSilent(t *testing.T) {
	gw, db := newTestGateway(t, time.Second)

	gw.WriteProgress(uuid.New(), map[string]interface{}{"current_lesson": "1-1"})
	gw.Flush()

	var count int64
	if err := db.Model(&types.UserProgress{}).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Fatalf("write against a missing row created %d rows, want 0 (no upsert)", count)
	}
}

func TestDebounceCollapsesBurst(t *testing.T) {
	gw, db := newTestGateway(t, 30*time.Millisecond)
	userID := uuid.New()
	seedProgressRow(t, db, userID, types.UserProgress{})

	gw.WriteProgressDebounced(userID, map[string]interface{}{
		"current_module": "module-1", "current_lesson": "1-1",
	})
	gw.WriteProgressDebounced(userID, map[string]interface{}{
		"current_module": "module-1", "current_lesson": "1-2",
	})
	gw.WriteProgressDebounced(userID, map[string]interface{}{
		"current_module": "module-2", "current_lesson": "2-1",
	})

	time.Sleep(100 * time.Millisecond)
	gw.Flush()

	snap, err := gw.ReadProgress(context.Background(), userID)
	if err != nil {
		t.Fatalf("ReadProgress: %v", err)
	}
	if snap.CurrentModule == nil || *snap.CurrentModule != "module-2" {
		t.Fatalf("currentModule=%v, want the last payload", snap.CurrentModule)
	}
	if snap.CurrentLesson == nil || *snap.CurrentLesson != "2-1" {
		t.Fatalf("currentLesson=%v, want the last payload", snap.CurrentLesson)
	}
}

func TestFlushFiresPendingDebounce(t *testing.T) {
	gw, db := newTestGateway(t, time.Hour)
	userID := uuid.New()
	seedProgressRow(t, db, userID, types.UserProgress{})

	gw.WriteProgressDebounced(userID, map[string]interface{}{
		"current_module": "module-3", "current_lesson": "3-1",
	})
	gw.Flush()

	snap, err := gw.ReadProgress(context.Background(), userID)
	if err != nil {
		t.Fatalf("ReadProgress: %v", err)
	}
	if snap.CurrentModule == nil || *snap.CurrentModule != "module-3" {
		t.Fatalf("pending debounced write not flushed: %+v", snap)
	}
}

func TestDebounceIsPerUser(t *testing.T) {
	gw, db := newTestGateway(t, time.Hour)
	alice := uuid.New()
	bob := uuid.New()
	seedProgressRow(t, db, alice, types.UserProgress{})
	seedProgressRow(t, db, bob, types.UserProgress{})

	gw.WriteProgressDebounced(alice, map[string]interface{}{"current_lesson": "1-1"})
	gw.WriteProgressDebounced(bob, map[string]interface{}{"current_lesson": "9-9"})
	gw.Flush()

	aliceSnap, _ := gw.ReadProgress(context.Background(), alice)
	bobSnap, _ := gw.ReadProgress(context.Background(), bob)
	if aliceSnap.CurrentLesson == nil || *aliceSnap.CurrentLesson != "1-1" {
		t.Fatalf("alice currentLesson=%v", aliceSnap.CurrentLesson)
	}
	if bobSnap.CurrentLesson == nil || *bobSnap.CurrentLesson != "9-9" {
		t.Fatalf("bob currentLesson=%v", bobSnap.CurrentLesson)
	}
}

func TestReadAllDomains(t *testing.T) {
	gw, db := newTestGateway(t, time.Second)
	userID := uuid.New()
	seedProgressRow(t, db, userID, types.UserProgress{
		CompletedLessons: jsonField([]string{"1-1"}),
	})
	settingsRow := types.UserSettings{
		ID:       uuid.New(),
		UserID:   userID,
		Provider: types.ProviderOpenAI,
		Theme:    types.ThemeLight,
	}
	if err := db.Create(&settingsRow).Error; err != nil {
		t.Fatalf("seed settings row: %v", err)
	}

	snaps := gw.ReadAllDomains(context.Background(), userID)

	if snaps.Progress == nil || len(snaps.Progress.CompletedLessons) != 1 {
		t.Fatalf("progress=%+v", snaps.Progress)
	}
	if snaps.Settings == nil || snaps.Settings.Provider != types.ProviderOpenAI || snaps.Settings.Theme != types.ThemeLight {
		t.Fatalf("settings=%+v", snaps.Settings)
	}
	// No gamification row was seeded.
	if snaps.Gamification != nil {
		t.Fatalf("gamification=%+v, want nil", snaps.Gamification)
	}
}

func TestGamificationRoundTrip(t *testing.T) {
	gw, db := newTestGateway(t, time.Second)
	userID := uuid.New()
	row := types.UserGamification{
		ID:     uuid.New(),
		UserID: userID,
		Level:  1,
	}
	if err := db.Create(&row).Error; err != nil {
		t.Fatalf("seed gamification row: %v", err)
	}

	gw.WriteGamification(userID, map[string]interface{}{
		"xp":              100,
		"level":           2,
		"level_title":     "Apprentice",
		"unlocked_badges": jsonField([]string{"first-steps"}),
	})
	gw.Flush()

	snap, err := gw.ReadGamification(context.Background(), userID)
	if err != nil {
		t.Fatalf("ReadGamification: %v", err)
	}
	if snap.XP != 100 || snap.Level != 2 || snap.LevelTitle != "Apprentice" {
		t.Fatalf("snapshot=%+v", snap)
	}
	if len(snap.UnlockedBadges) != 1 || snap.UnlockedBadges[0] != "first-steps" {
		t.Fatalf("unlockedBadges=%v", snap.UnlockedBadges)
	}
}
