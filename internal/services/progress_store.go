package services

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fablelab/fablelab-backend/internal/logger"
	"github.com/fablelab/fablelab-backend/internal/types"
)

// ProgressStore owns lesson completion, quiz scores, the curriculum cursor
// and submitted exercises for one session. Mutators are synchronous and
// local-first: the remote write they trigger is fire-and-forget through the
// gateway and only happens while a user is bound.
type ProgressStore struct {
	mu      sync.Mutex
	log     *logger.Logger
	gateway SyncGateway
	now     func() time.Time

	userID             uuid.UUID
	completedLessons   []string
	quizScores         map[string]types.QuizScore
	currentModule      *string
	currentLesson      *string
	submittedExercises []string
}

func NewProgressStore(gateway SyncGateway, log *logger.Logger) *ProgressStore {
	return &ProgressStore{
		log:                log.With("store", "ProgressStore"),
		gateway:            gateway,
		now:                time.Now,
		completedLessons:   []string{},
		quizScores:         map[string]types.QuizScore{},
		submittedExercises: []string{},
	}
}

// SetUserID rebinds the store's identity. It does not hydrate or reset;
// that sequencing belongs to the session controller.
func (s *ProgressStore) SetUserID(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userID = id
}

func (s *ProgressStore) UserID() uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID
}

// Hydrate replaces all persisted fields wholesale from a remote snapshot.
// The identity binding is untouched.
func (s *ProgressStore) Hydrate(snap types.ProgressSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.completedLessons = append([]string{}, snap.CompletedLessons...)
	s.quizScores = map[string]types.QuizScore{}
	for k, v := range snap.QuizScores {
		s.quizScores[k] = v
	}
	s.currentModule = snap.CurrentModule
	s.currentLesson = snap.CurrentLesson
	s.submittedExercises = append([]string{}, snap.SubmittedExercises...)
}

// Reset restores every field, including the identity binding, to defaults.
func (s *ProgressStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.userID = uuid.Nil
	s.completedLessons = []string{}
	s.quizScores = map[string]types.QuizScore{}
	s.currentModule = nil
	s.currentLesson = nil
	s.submittedExercises = []string{}
}

// CompleteLesson is an idempotent insert: a lesson already present is a
// no-op with no remote write.
func (s *ProgressStore) CompleteLesson(lessonID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if containsString(s.completedLessons, lessonID) {
		return
	}
	s.completedLessons = append(s.completedLessons, lessonID)

	if s.userID != uuid.Nil {
		s.gateway.WriteProgress(s.userID, map[string]interface{}{
			"completed_lessons": jsonField(s.completedLessons),
		})
	}
}

// SaveQuizScore upserts the lesson's score record. The write is not gated on
// change detection: every save goes out while a user is bound.
func (s *ProgressStore) SaveQuizScore(lessonID string, score, total int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.quizScores[lessonID] = types.QuizScore{
		LessonID:    lessonID,
		Score:       score,
		Total:       total,
		CompletedAt: s.now(),
	}

	if s.userID != uuid.Nil {
		s.gateway.WriteProgress(s.userID, map[string]interface{}{
			"quiz_scores": jsonField(s.quizScores),
		})
	}
}

// SetCurrentModule moves the module cursor. Rapid navigation collapses into
// a single trailing remote write via the debounced path.
func (s *ProgressStore) SetCurrentModule(moduleID *string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.currentModule = moduleID
	s.writeCursorLocked()
}

func (s *ProgressStore) SetCurrentLesson(lessonID *string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.currentLesson = lessonID
	s.writeCursorLocked()
}

// Both cursor fields ride in every debounced payload so a collapsed burst
// still lands the final state of both.
func (s *ProgressStore) writeCursorLocked() {
	if s.userID == uuid.Nil {
		return
	}
	s.gateway.WriteProgressDebounced(s.userID, map[string]interface{}{
		"current_module": s.currentModule,
		"current_lesson": s.currentLesson,
	})
}

// SubmitExercise is an idempotent insert, same policy as CompleteLesson.
func (s *ProgressStore) SubmitExercise(exerciseID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if containsString(s.submittedExercises, exerciseID) {
		return
	}
	s.submittedExercises = append(s.submittedExercises, exerciseID)

	if s.userID != uuid.Nil {
		s.gateway.WriteProgress(s.userID, map[string]interface{}{
			"submitted_exercises": jsonField(s.submittedExercises),
		})
	}
}

func (s *ProgressStore) IsLessonCompleted(lessonID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return containsString(s.completedLessons, lessonID)
}

// IsModuleCompleted reports whether every given lesson is completed.
// Vacuously true for an empty list.
func (s *ProgressStore) IsModuleCompleted(lessonIDs []string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range lessonIDs {
		if !containsString(s.completedLessons, id) {
			return false
		}
	}
	return true
}

// GetModuleProgress returns the rounded percentage of the given lessons that
// are completed. An empty list reports 0, not a division error.
func (s *ProgressStore) GetModuleProgress(lessonIDs []string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(lessonIDs) == 0 {
		return 0
	}
	done := 0
	for _, id := range lessonIDs {
		if containsString(s.completedLessons, id) {
			done++
		}
	}
	return int(float64(done)/float64(len(lessonIDs))*100 + 0.5)
}

func (s *ProgressStore) Snapshot() types.ProgressSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := types.ProgressSnapshot{
		CompletedLessons:   append([]string{}, s.completedLessons...),
		QuizScores:         map[string]types.QuizScore{},
		CurrentModule:      s.currentModule,
		CurrentLesson:      s.currentLesson,
		SubmittedExercises: append([]string{}, s.submittedExercises...),
	}
	for k, v := range s.quizScores {
		snap.QuizScores[k] = v
	}
	return snap
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
