package user

// StatField names one of the aggregate statistics a badge rule may test.
// The set is closed: rule conditions referencing anything else are rejected
// when the badge is authored.
type StatField string

const (
	StatTotalScore          StatField = "totalScore"
	StatChallengesCompleted StatField = "challengesCompleted"
	StatTotalCaloriesBurned StatField = "totalCaloriesBurned"
	StatStreakDays          StatField = "streakDays"
)

// StatFields lists every known stat field.
func StatFields() []StatField {
	return []StatField{
		StatTotalScore,
		StatChallengesCompleted,
		StatTotalCaloriesBurned,
		StatStreakDays,
	}
}

// KnownStatField reports whether the field is part of the closed set.
func KnownStatField(f StatField) bool {
	switch f {
	case StatTotalScore, StatChallengesCompleted, StatTotalCaloriesBurned, StatStreakDays:
		return true
	}
	return false
}

// StatValues maps each known stat field to the user's current value.
func (u User) StatValues() map[StatField]float64 {
	return map[StatField]float64{
		StatTotalScore:          float64(u.TotalScore),
		StatChallengesCompleted: float64(u.ChallengesCompleted),
		StatTotalCaloriesBurned: float64(u.TotalCaloriesBurned),
		StatStreakDays:          float64(u.StreakDays),
	}
}
