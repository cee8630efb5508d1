package workouts

import (
	"encoding/json"
	"time"
)

// DateLayout is the wire and storage format of workout dates.
const DateLayout = "2006-01-02"

var (
	// MinDate and MaxDate bound the "all" period.
	MinDate = time.Date(1, time.January, 1, 0, 0, 0, 0, time.UTC)
	MaxDate = time.Date(9999, time.December, 31, 0, 0, 0, 0, time.UTC)
)

type Workout struct {
	ID              int64
	Date            time.Time
	ActivityType    string
	DurationMinutes int64
	CaloriesBurned  int64
}

func (w Workout) Day() string {
	return w.Date.Format(DateLayout)
}

func (w Workout) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID              int64  `json:"id"`
		Date            string `json:"date"`
		ActivityType    string `json:"activityType"`
		DurationMinutes int64  `json:"durationMinutes"`
		CaloriesBurned  int64  `json:"caloriesBurned"`
	}{
		ID:              w.ID,
		Date:            w.Day(),
		ActivityType:    w.ActivityType,
		DurationMinutes: w.DurationMinutes,
		CaloriesBurned:  w.CaloriesBurned,
	})
}

// DaySummary holds the sums for a single date of a range.
type DaySummary struct {
	Date     time.Time
	Calories int64
	Duration int64
}

// Totals are the sums over a whole range. Both are nil when the range holds no workouts.
type Totals struct {
	Calories *int64
	Duration *int64
}

type Aggregate struct {
	Days   []DaySummary
	Totals Totals
}

// truncateDay drops the clock part and pins the calendar date of t to UTC.
func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func parseDay(raw string) (time.Time, error) {
	return time.Parse(DateLayout, raw)
}
