package workouts

import (
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

// Date is a calendar date without a time component,
// serialized as "2006-01-02".
type Date struct {
	time.Time
}

func NewDate(t time.Time) Date {
	return Date{time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)}
}

func ParseDate(value string) (Date, error) {
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return Date{}, fmt.Errorf("parse date [%s]: %w", value, err)
	}
	return Date{t}, nil
}

func (d Date) String() string {
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format(dateLayout) + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	value := string(data)
	if value == "null" || value == `""` {
		return nil
	}
	t, err := time.Parse(`"`+dateLayout+`"`, value)
	if err != nil {
		return fmt.Errorf("parse date %s: %w", value, err)
	}
	d.Time = t
	return nil
}

type Set struct {
	ID          int       `json:"id"`
	UserID      int       `json:"-"`
	Exercise    string    `json:"exercise"`
	Weight      float64   `json:"weight"`
	Reps        int       `json:"reps"`
	WorkoutDate Date      `json:"workout_date"`
	CreatedAt   time.Time `json:"created_at"`

	// Volume is derived from weight and reps, never stored
	Volume float64 `json:"volume"`
}

func (s *Set) ComputeVolume() {
	s.Volume = s.Weight * float64(s.Reps)
}
