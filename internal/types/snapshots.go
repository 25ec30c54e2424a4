package types

import "time"

// AI provider identifiers selectable in settings.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderGoogle    = "google"
)

const DefaultProvider = ProviderAnthropic

const (
	ThemeDark  = "dark"
	ThemeLight = "light"
)

const DefaultTheme = ThemeDark

// QuizScore is the per-lesson quiz record. Later submissions for the same
// lesson replace the entry; no history is kept.
type QuizScore struct {
	LessonID    string    `json:"lessonId"`
	Score       int       `json:"score"`
	Total       int       `json:"total"`
	CompletedAt time.Time `json:"completedAt"`
}

// XPGain is a transient UI notification. Never persisted.
type XPGain struct {
	Amount int    `json:"amount"`
	Source string `json:"source"`
}

// ProviderInfo describes one entry of the AI provider catalog. The catalog is
// refetched each session and never persisted.
type ProviderInfo struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Available   bool   `json:"available"`
}

// ProgressSnapshot is the remote-shaped view of the progress row that the
// progress store hydrates from.
type ProgressSnapshot struct {
	CompletedLessons   []string             `json:"completedLessons"`
	QuizScores         map[string]QuizScore `json:"quizScores"`
	CurrentModule      *string              `json:"currentModule"`
	CurrentLesson      *string              `json:"currentLesson"`
	SubmittedExercises []string             `json:"submittedExercises"`
}

type GamificationSnapshot struct {
	XP             int      `json:"xp"`
	Level          int      `json:"level"`
	LevelTitle     string   `json:"levelTitle"`
	Streak         int      `json:"streak"`
	LastVisitDate  *string  `json:"lastVisitDate"`
	UnlockedBadges []string `json:"unlockedBadges"`
}

type SettingsSnapshot struct {
	Provider string `json:"provider"`
	Theme    string `json:"theme"`
}

// DomainSnapshots bundles the concurrent whole-row reads of all synced
// domains. A nil field means that domain's row was not found.
type DomainSnapshots struct {
	Progress     *ProgressSnapshot
	Gamification *GamificationSnapshot
	Settings     *SettingsSnapshot
}
