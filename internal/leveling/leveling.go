// Package leveling maps accumulated experience points to levels and titles.
// Everything here is pure and total: any integer XP resolves to a level
// between 1 and the top of the threshold table.
package leveling

// thresholds[i] is the XP required to enter level i+1. Level 1 starts at 0.
var thresholds = []int{0, 100, 250, 500, 1000, 2000, 3500, 5500, 8000, 12000}

var titles = []string{
	"Novice",
	"Apprentice",
	"Storyteller",
	"Wordsmith",
	"Narrator",
	"Tale Weaver",
	"Bard",
	"Loremaster",
	"Sage",
	"Legend",
}

// MaxLevel is the highest defined level. XP beyond its threshold still maps
// to MaxLevel.
const MaxLevel = 10

// LevelForXP returns the highest level whose threshold is <= xp. Negative XP
// clamps to level 1.
func LevelForXP(xp int) int {
	level := 1
	for i, t := range thresholds {
		if xp >= t {
			level = i + 1
		}
	}
	return level
}

// TitleForLevel resolves a level to its title. Levels beyond the table
// resolve to the top title; levels below 1 resolve to the first.
func TitleForLevel(level int) string {
	if level < 1 {
		return titles[0]
	}
	if level > len(titles) {
		return titles[len(titles)-1]
	}
	return titles[level-1]
}

// XPFloor returns the threshold entering the given level.
func XPFloor(level int) int {
	if level < 1 {
		return thresholds[0]
	}
	if level > len(thresholds) {
		return thresholds[len(thresholds)-1]
	}
	return thresholds[level-1]
}

// XPCeiling returns the threshold entering level+1. At the top of the table
// it returns the floor, which ProgressPercent treats as "already maxed".
func XPCeiling(level int) int {
	if level < 1 {
		return thresholds[0]
	}
	if level >= len(thresholds) {
		return thresholds[len(thresholds)-1]
	}
	return thresholds[level]
}

// ProgressPercent returns the rounded 0..100 position of xp within its level.
// A maxed level reports 100.
func ProgressPercent(xp, level int) int {
	floor := XPFloor(level)
	ceiling := XPCeiling(level)
	if ceiling == floor {
		return 100
	}
	pct := float64(xp-floor) / float64(ceiling-floor) * 100
	rounded := int(pct + 0.5)
	if rounded < 0 {
		rounded = 0
	}
	if rounded > 100 {
		rounded = 100
	}
	return rounded
}
