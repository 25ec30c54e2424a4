package services

import (
	"testing"

	"github.com/google/uuid"

	"github.com/fablelab/fablelab-backend/internal/logger"
	"github.com/fablelab/fablelab-backend/internal/types"
)

func TestCompleteLessonIdempotent(t *testing.T) {
	gw := &fakeGateway{}
	store := NewProgressStore(gw, logger.NewNop())

	store.CompleteLesson("l1")
	store.CompleteLesson("l1")

	snap := store.Snapshot()
	if len(snap.CompletedLessons) != 1 || snap.CompletedLessons[0] != "l1" {
		t.Fatalf("completedLessons=%v, want exactly one l1", snap.CompletedLessons)
	}
	if got := gw.totalRemoteWrites(); got != 0 {
		t.Fatalf("unauthenticated store issued %d remote writes, want 0", got)
	}
}

func TestCompleteLessonSyncGating(t *testing.T) {
	gw := &fakeGateway{}
	store := NewProgressStore(gw, logger.NewNop())
	store.SetUserID(uuid.New())

	store.CompleteLesson("l1")
	if len(gw.progressWrites) != 1 {
		t.Fatalf("got %d progress writes, want 1", len(gw.progressWrites))
	}

	// Re-completing is a no-op with no remote write.
	store.CompleteLesson("l1")
	if len(gw.progressWrites) != 1 {
		t.Fatalf("idempotent re-complete issued a write, got %d", len(gw.progressWrites))
	}
}

func TestSaveQuizScoreAlwaysWrites(t *testing.T) {
	gw := &fakeGateway{}
	store := NewProgressStore(gw, logger.NewNop())
	store.SetUserID(uuid.New())

	store.SaveQuizScore("l1", 3, 5)
	store.SaveQuizScore("l1", 5, 5)

	snap := store.Snapshot()
	if len(snap.QuizScores) != 1 {
		t.Fatalf("quizScores has %d entries, want 1 (replace, not append)", len(snap.QuizScores))
	}
	if snap.QuizScores["l1"].Score != 5 {
		t.Fatalf("score=%d, want the later write's 5", snap.QuizScores["l1"].Score)
	}
	if len(gw.progressWrites) != 2 {
		t.Fatalf("got %d writes, want 2 (no change detection)", len(gw.progressWrites))
	}
}

func TestCursorUsesDebouncedChannel(t *testing.T) {
	gw := &fakeGateway{}
	store := NewProgressStore(gw, logger.NewNop())
	store.SetUserID(uuid.New())

	m1, m2, l1 := "m1", "m2", "l1"
	store.SetCurrentModule(&m1)
	store.SetCurrentModule(&m2)
	store.SetCurrentLesson(&l1)

	if len(gw.progressWrites) != 0 {
		t.Fatalf("cursor moves used the immediate channel: %d", len(gw.progressWrites))
	}
	if len(gw.debouncedWrites) != 3 {
		t.Fatalf("got %d debounced calls, want 3", len(gw.debouncedWrites))
	}
	// The trailing payload carries both cursor fields so a collapsed burst
	// still lands both.
	last := gw.debouncedWrites[2].fields
	if got := last["current_module"].(*string); got == nil || *got != "m2" {
		t.Fatalf("trailing payload current_module=%v, want m2", got)
	}
	if got := last["current_lesson"].(*string); got == nil || *got != "l1" {
		t.Fatalf("trailing payload current_lesson=%v, want l1", got)
	}
}

func TestCursorUnboundNoWrite(t *testing.T) {
	gw := &fakeGateway{}
	store := NewProgressStore(gw, logger.NewNop())

	m := "m1"
	store.SetCurrentModule(&m)
	if got := gw.totalRemoteWrites(); got != 0 {
		t.Fatalf("unbound cursor move issued %d writes, want 0", got)
	}
	if snap := store.Snapshot(); snap.CurrentModule == nil || *snap.CurrentModule != "m1" {
		t.Fatalf("local cursor not applied: %+v", snap)
	}
}

func TestSubmitExerciseIdempotent(t *testing.T) {
	gw := &fakeGateway{}
	store := NewProgressStore(gw, logger.NewNop())
	store.SetUserID(uuid.New())

	store.SubmitExercise("e1")
	store.SubmitExercise("e1")

	snap := store.Snapshot()
	if len(snap.SubmittedExercises) != 1 {
		t.Fatalf("submittedExercises=%v, want exactly one e1", snap.SubmittedExercises)
	}
	if len(gw.progressWrites) != 1 {
		t.Fatalf("got %d writes, want 1", len(gw.progressWrites))
	}
}

func TestModuleProgressBoundaries(t *testing.T) {
	gw := &fakeGateway{}
	store := NewProgressStore(gw, logger.NewNop())
	store.CompleteLesson("l1")
	store.CompleteLesson("l2")

	cases := []struct {
		name    string
		lessons []string
		want    int
	}{
		{name: "empty_list_is_zero", lessons: []string{}, want: 0},
		{name: "all_completed", lessons: []string{"l1", "l2"}, want: 100},
		{name: "two_of_three_rounds", lessons: []string{"l1", "l2", "l3"}, want: 67},
		{name: "none_completed", lessons: []string{"x", "y"}, want: 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := store.GetModuleProgress(tc.lessons); got != tc.want {
				t.Fatalf("GetModuleProgress(%v)=%d, want %d", tc.lessons, got, tc.want)
			}
		})
	}

	if !store.IsModuleCompleted(nil) {
		t.Fatalf("IsModuleCompleted of empty list should be vacuously true")
	}
	if store.IsModuleCompleted([]string{"l1", "l3"}) {
		t.Fatalf("IsModuleCompleted true with l3 missing")
	}
}

func TestProgressResetClearsIdentity(t *testing.T) {
	gw := &fakeGateway{}
	store := NewProgressStore(gw, logger.NewNop())

	store.SetUserID(uuid.New())
	m := "m1"
	store.Hydrate(types.ProgressSnapshot{
		CompletedLessons:   []string{"l1"},
		QuizScores:         map[string]types.QuizScore{"l1": {LessonID: "l1", Score: 4, Total: 5}},
		CurrentModule:      &m,
		SubmittedExercises: []string{"e1"},
	})

	store.Reset()

	if store.UserID() != uuid.Nil {
		t.Fatalf("reset did not clear userID")
	}
	snap := store.Snapshot()
	if len(snap.CompletedLessons) != 0 || len(snap.QuizScores) != 0 || len(snap.SubmittedExercises) != 0 {
		t.Fatalf("reset left data behind: %+v", snap)
	}
	if snap.CurrentModule != nil || snap.CurrentLesson != nil {
		t.Fatalf("reset left cursor behind: %+v", snap)
	}
}

func TestHydrateLeavesIdentityAlone(t *testing.T) {
	gw := &fakeGateway{}
	store := NewProgressStore(gw, logger.NewNop())
	userID := uuid.New()
	store.SetUserID(userID)

	store.Hydrate(types.ProgressSnapshot{CompletedLessons: []string{"l1"}})

	if store.UserID() != userID {
		t.Fatalf("hydrate touched userID")
	}
	if !store.IsLessonCompleted("l1") {
		t.Fatalf("hydrate did not apply snapshot")
	}
	if got := gw.totalRemoteWrites(); got != 0 {
		t.Fatalf("hydrate issued %d remote writes, want 0", got)
	}
}
