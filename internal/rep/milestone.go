package rep

import "time"

// MilestoneDisplay is how long a milestone message stays on screen.
const MilestoneDisplay = 3 * time.Second

var milestones = map[int]string{
	10: "🔥 Great start!",
	20: "💪 You're unstoppable!",
	50: "🏆 Legend mode activated!",
}

// Milestone returns the celebration message for an exact rep count.
func Milestone(count int) (string, bool) {
	msg, ok := milestones[count]
	return msg, ok
}

// MilestoneCounts returns the counts that trigger a milestone, ascending.
func MilestoneCounts() []int {
	return []int{10, 20, 50}
}
