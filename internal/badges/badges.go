// Package badges holds the static unlock rule table. The table is data, not
// state: callers evaluate it against current facts and feed any newly
// satisfied badge IDs to the gamification store.
package badges

// Facts are the accumulated counters a badge predicate can see.
type Facts struct {
	CompletedLessons   int
	SubmittedExercises int
	PerfectQuizzes     int
	Streak             int
	XP                 int
	Level              int
}

type Badge struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Unlocked    func(Facts) bool `json:"-"`
}

var Table = []Badge{
	{
		ID:          "first-steps",
		Title:       "First Steps",
		Description: "Complete your first lesson",
		Unlocked:    func(f Facts) bool { return f.CompletedLessons >= 1 },
	},
	{
		ID:          "dedicated-learner",
		Title:       "Dedicated Learner",
		Description: "Complete five lessons",
		Unlocked:    func(f Facts) bool { return f.CompletedLessons >= 5 },
	},
	{
		ID:          "story-scholar",
		Title:       "Story Scholar",
		Description: "Complete fifteen lessons",
		Unlocked:    func(f Facts) bool { return f.CompletedLessons >= 15 },
	},
	{
		ID:          "first-draft",
		Title:       "First Draft",
		Description: "Submit your first exercise",
		Unlocked:    func(f Facts) bool { return f.SubmittedExercises >= 1 },
	},
	{
		ID:          "prolific-writer",
		Title:       "Prolific Writer",
		Description: "Submit ten exercises",
		Unlocked:    func(f Facts) bool { return f.SubmittedExercises >= 10 },
	},
	{
		ID:          "perfect-score",
		Title:       "Perfect Score",
		Description: "Ace a quiz",
		Unlocked:    func(f Facts) bool { return f.PerfectQuizzes >= 1 },
	},
	{
		ID:          "week-streak",
		Title:       "Week Streak",
		Description: "Visit seven days in a row",
		Unlocked:    func(f Facts) bool { return f.Streak >= 7 },
	},
	{
		ID:          "month-streak",
		Title:       "Month Streak",
		Description: "Visit thirty days in a row",
		Unlocked:    func(f Facts) bool { return f.Streak >= 30 },
	},
	{
		ID:          "apprentice",
		Title:       "Apprentice Storyteller",
		Description: "Reach level 2",
		Unlocked:    func(f Facts) bool { return f.Level >= 2 },
	},
	{
		ID:          "wordsmith",
		Title:       "Wordsmith",
		Description: "Reach level 4",
		Unlocked:    func(f Facts) bool { return f.Level >= 4 },
	},
}

// Evaluate returns the IDs of every badge whose predicate is satisfied by
// the given facts. The caller filters already-unlocked IDs.
func Evaluate(f Facts) []string {
	var ids []string
	for _, b := range Table {
		if b.Unlocked(f) {
			ids = append(ids, b.ID)
		}
	}
	return ids
}

// ByID looks a badge up in the table.
func ByID(id string) (Badge, bool) {
	for _, b := range Table {
		if b.ID == id {
			return b, true
		}
	}
	return Badge{}, false
}
