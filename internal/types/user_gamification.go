package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type UserGamification struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID         uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	XP             int            `gorm:"column:xp;not null;default:0" json:"xp"`
	Level          int            `gorm:"column:level;not null;default:1" json:"level"`
	LevelTitle     string         `gorm:"column:level_title;not null;default:''" json:"level_title"`
	Streak         int            `gorm:"column:streak;not null;default:0" json:"streak"`
	LastVisitDate  *string        `gorm:"column:last_visit_date" json:"last_visit_date"`
	UnlockedBadges datatypes.JSON `gorm:"type:jsonb;column:unlocked_badges" json:"unlocked_badges"`
	CreatedAt      time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"not null" json:"updated_at"`
}

func (UserGamification) TableName() string { return "user_gamification" }
