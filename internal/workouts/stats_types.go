package workouts

// ProgressEntry holds the aggregates of one workout date
// for a single exercise.
type ProgressEntry struct {
	Date        Date    `json:"date"`
	MaxWeight   float64 `json:"max_weight"`
	AvgWeight   float64 `json:"avg_weight"`
	TotalVolume float64 `json:"total_volume"`
	Sets        int     `json:"sets"`
}

type ExerciseProgress struct {
	Exercise      string          `json:"exercise"`
	ProgressData  []ProgressEntry `json:"progress_data"`
	TotalWorkouts int             `json:"total_workouts"`
	TotalSets     int             `json:"total_sets"`
}

type SummaryStats struct {
	TotalSets   int     `json:"total_sets"`
	TotalVolume float64 `json:"total_volume"`
	WorkoutDays int     `json:"workout_days"`
	Exercises   int     `json:"exercises"`
}

type DateRange struct {
	From *Date `json:"from"`
	To   *Date `json:"to"`
}

type Summary struct {
	SummaryStats
	DateRange DateRange `json:"date_range"`
}
