package types

import (
	"time"

	"github.com/google/uuid"
)

// Theme rides on the settings row; there is no separate theme table.
type UserSettings struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	Provider  string    `gorm:"column:provider;not null;default:''" json:"provider"`
	Theme     string    `gorm:"column:theme;not null;default:'dark'" json:"theme"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (UserSettings) TableName() string { return "user_settings" }
