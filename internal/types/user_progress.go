package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type UserProgress struct {
	ID                 uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID             uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	CompletedLessons   datatypes.JSON `gorm:"type:jsonb;column:completed_lessons" json:"completed_lessons"`
	QuizScores         datatypes.JSON `gorm:"type:jsonb;column:quiz_scores" json:"quiz_scores"`
	CurrentModule      *string        `gorm:"column:current_module" json:"current_module"`
	CurrentLesson      *string        `gorm:"column:current_lesson" json:"current_lesson"`
	SubmittedExercises datatypes.JSON `gorm:"type:jsonb;column:submitted_exercises" json:"submitted_exercises"`
	CreatedAt          time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt          time.Time      `gorm:"not null" json:"updated_at"`
}

func (UserProgress) TableName() string { return "user_progress" }
