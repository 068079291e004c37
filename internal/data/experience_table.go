package data

// MaxPlayerLevel is the level cap.
const MaxPlayerLevel = 30

// HealthPerLevel is the max-health gain on every level-up.
const HealthPerLevel = 10

// ExperienceTable holds cumulative XP required to reach each level.
// Index = level (0-31). Level 0 and 1 require 0 XP.
// Level n requires n*(n-1)/2 * 1000 XP.
var ExperienceTable = [MaxPlayerLevel + 2]int{
	0,      // 0 (unused)
	0,      // 1
	1000,   // 2
	3000,   // 3
	6000,   // 4
	10000,  // 5
	15000,  // 6
	21000,  // 7
	28000,  // 8
	36000,  // 9
	45000,  // 10
	55000,  // 11
	66000,  // 12
	78000,  // 13
	91000,  // 14
	105000, // 15
	120000, // 16
	136000, // 17
	153000, // 18
	171000, // 19
	190000, // 20
	210000, // 21
	231000, // 22
	253000, // 23
	276000, // 24
	300000, // 25
	325000, // 26
	351000, // 27
	378000, // 28
	406000, // 29
	435000, // 30
	465000, // 31 (overflow cap)
}

// GetExpForLevel returns cumulative XP required to reach the given level.
// Returns 0 for level <= 1. Returns max XP for level > MaxPlayerLevel.
func GetExpForLevel(level int) int {
	if level <= 1 {
		return 0
	}
	if level > MaxPlayerLevel+1 {
		level = MaxPlayerLevel + 1
	}
	return ExperienceTable[level]
}

// GetLevelForExp returns the level corresponding to the given cumulative XP.
// Scans upward from startLevel to find the highest level whose threshold is <= exp.
func GetLevelForExp(exp int, startLevel int) int {
	if startLevel < 1 {
		startLevel = 1
	}
	level := startLevel
	for level < MaxPlayerLevel {
		if ExperienceTable[level+1] > exp {
			break
		}
		level++
	}
	return level
}
